package database

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/weatherdeck/weatherdeck/pkg/models"
	"github.com/weatherdeck/weatherdeck/pkg/types"
)

// UserRepository 사용자 계정 저장소
type UserRepository struct {
	coll *mongo.Collection
}

// Create 사용자 생성. 이메일 중복 시 ValidationError 반환.
func (r *UserRepository) Create(ctx context.Context, name, email, hashedPassword string) (*models.User, error) {
	email = strings.TrimSpace(strings.ToLower(email))

	now := time.Now().UTC()
	user := &models.User{
		ID:        uuid.New().String(),
		Name:      name,
		Email:     email,
		Password:  hashedPassword,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if _, err := r.coll.InsertOne(ctx, user); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, types.NewValidationError("email", "email already exists")
		}
		return nil, fmt.Errorf("failed to insert user: %w", err)
	}
	return user, nil
}

// FindByEmail 이메일로 사용자 조회
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	email = strings.TrimSpace(strings.ToLower(email))

	var user models.User
	err := r.coll.FindOne(ctx, bson.M{"email": email}).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, types.NewNotFoundError("user", email)
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return &user, nil
}

// FindByID ID로 사용자 조회
func (r *UserRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, types.NewNotFoundError("user", id)
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return &user, nil
}

// SetOTP 인증 코드 저장
func (r *UserRepository) SetOTP(ctx context.Context, userID string, otp *models.OTP) error {
	return r.updateOne(ctx, userID, bson.M{"$set": bson.M{"otp": otp, "updatedAt": time.Now().UTC()}})
}

// MarkVerified 이메일 인증 완료 처리. 인증 코드는 제거한다.
func (r *UserRepository) MarkVerified(ctx context.Context, userID string) error {
	return r.updateOne(ctx, userID, bson.M{
		"$set":   bson.M{"isVerified": true, "updatedAt": time.Now().UTC()},
		"$unset": bson.M{"otp": ""},
	})
}

// UpdateProfile 이름/이메일 수정. 이메일 중복 시 ValidationError 반환.
func (r *UserRepository) UpdateProfile(ctx context.Context, userID, name, email string) (*models.User, error) {
	set := bson.M{"updatedAt": time.Now().UTC()}
	if name != "" {
		set["name"] = name
	}
	if email != "" {
		set["email"] = strings.TrimSpace(strings.ToLower(email))
	}

	if err := r.updateOne(ctx, userID, bson.M{"$set": set}); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, types.NewValidationError("email", "email already in use")
		}
		return nil, err
	}
	return r.FindByID(ctx, userID)
}

func (r *UserRepository) updateOne(ctx context.Context, userID string, update bson.M) error {
	result, err := r.coll.UpdateOne(ctx, bson.M{"_id": userID}, update)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return err
		}
		return fmt.Errorf("failed to update user: %w", err)
	}
	if result.MatchedCount == 0 {
		return types.NewNotFoundError("user", userID)
	}
	return nil
}
