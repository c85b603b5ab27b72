package handlers

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/weatherdeck/weatherdeck/internal/api/middleware"
	"github.com/weatherdeck/weatherdeck/internal/services"
	"github.com/weatherdeck/weatherdeck/pkg/models"
	"github.com/weatherdeck/weatherdeck/pkg/types"
)

const (
	otpTTL     = 10 * time.Minute
	tokenTTL   = time.Hour
	bcryptCost = 10
)

// UserStore 인증 핸들러가 의존하는 저장소 계약
type UserStore interface {
	Create(ctx context.Context, name, email, hashedPassword string) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id string) (*models.User, error)
	SetOTP(ctx context.Context, userID string, otp *models.OTP) error
	MarkVerified(ctx context.Context, userID string) error
	UpdateProfile(ctx context.Context, userID, name, email string) (*models.User, error)
}

// AuthHandler 인증/프로필 API 핸들러
type AuthHandler struct {
	users     UserStore
	mailer    services.Mailer
	jwtSecret []byte
	logger    *slog.Logger
}

// NewAuthHandler 핸들러 생성
func NewAuthHandler(users UserStore, mailer services.Mailer, jwtSecret string) *AuthHandler {
	return &AuthHandler{
		users:     users,
		mailer:    mailer,
		jwtSecret: []byte(jwtSecret),
		logger:    slog.Default(),
	}
}

// SignupRequest 회원가입 요청
type SignupRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
}

// Signup POST /api/auth/signup
func (h *AuthHandler) Signup(c *gin.Context) {
	var req SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.ErrorResponseWithCode(c, http.StatusBadRequest, types.ErrCodeInvalidJSON, err.Error())
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcryptCost)
	if err != nil {
		middleware.ErrorResponse(c, http.StatusInternalServerError, "Failed to hash password")
		return
	}

	user, err := h.users.Create(c.Request.Context(), req.Name, req.Email, string(hashed))
	if err != nil {
		respondDomainError(c, err)
		return
	}

	h.logger.Info("User created", "user_id", user.ID, "email", user.Email)
	c.JSON(http.StatusCreated, types.APIResponse[any]{
		Success:   true,
		Message:   "User created successfully",
		RequestID: middleware.GetRequestID(c),
	})
}

// EmailRequest 이메일만 받는 요청 (OTP 발송)
type EmailRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// SendOTP POST /api/auth/send-otp
func (h *AuthHandler) SendOTP(c *gin.Context) {
	var req EmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.ErrorResponseWithCode(c, http.StatusBadRequest, types.ErrCodeInvalidJSON, err.Error())
		return
	}

	user, err := h.users.FindByEmail(c.Request.Context(), req.Email)
	if err != nil {
		respondDomainError(c, err)
		return
	}

	otp := &models.OTP{
		Code:      generateOTP(),
		ExpiresAt: time.Now().UTC().Add(otpTTL),
	}
	if err := h.users.SetOTP(c.Request.Context(), user.ID, otp); err != nil {
		respondDomainError(c, err)
		return
	}

	if err := h.mailer.Send(user.Email, "Your Weather Account OTP Code", fmt.Sprintf("Your OTP is: %s", otp.Code)); err != nil {
		h.logger.Error("Failed to send OTP email", "error", err, "email", user.Email)
	}

	middleware.SuccessResponseWithMessage[any](c, nil, "OTP sent successfully")
}

// VerifyOTPRequest 인증 코드 확인 요청
type VerifyOTPRequest struct {
	Email string `json:"email" binding:"required,email"`
	OTP   string `json:"otp" binding:"required"`
}

// VerifyOTP POST /api/auth/verify-otp
func (h *AuthHandler) VerifyOTP(c *gin.Context) {
	var req VerifyOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.ErrorResponseWithCode(c, http.StatusBadRequest, types.ErrCodeInvalidJSON, err.Error())
		return
	}

	user, err := h.users.FindByEmail(c.Request.Context(), req.Email)
	if err != nil {
		respondDomainError(c, err)
		return
	}

	if user.OTP == nil || user.OTP.ExpiresAt.Before(time.Now()) {
		middleware.ErrorResponseWithCode(c, http.StatusBadRequest, types.ErrCodeBadRequest, "OTP expired or invalid")
		return
	}
	if user.OTP.Code != req.OTP {
		middleware.ErrorResponseWithCode(c, http.StatusBadRequest, types.ErrCodeBadRequest, "Invalid OTP")
		return
	}

	if err := h.users.MarkVerified(c.Request.Context(), user.ID); err != nil {
		respondDomainError(c, err)
		return
	}

	middleware.SuccessResponseWithMessage[any](c, nil, "Email verified successfully")
}

// LoginRequest 로그인 요청
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// LoginResponse 로그인 응답
type LoginResponse struct {
	Token string      `json:"token"`
	User  ProfileView `json:"user"`
}

// ProfileView 클라이언트에 노출되는 사용자 정보
type ProfileView struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Login POST /api/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.ErrorResponseWithCode(c, http.StatusBadRequest, types.ErrCodeInvalidJSON, err.Error())
		return
	}

	user, err := h.users.FindByEmail(c.Request.Context(), req.Email)
	if err != nil {
		// 존재하지 않는 계정도 자격 증명 오류로 통일해 응답한다
		middleware.ErrorResponseWithCode(c, http.StatusBadRequest, types.ErrCodeUnauthorized, "Invalid credentials")
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		middleware.ErrorResponseWithCode(c, http.StatusBadRequest, types.ErrCodeUnauthorized, "Invalid credentials")
		return
	}

	if !user.IsVerified {
		middleware.ErrorResponseWithCode(c, http.StatusBadRequest, types.ErrCodeUnauthorized, "Email not verified")
		return
	}

	token, err := h.generateToken(user)
	if err != nil {
		middleware.ErrorResponse(c, http.StatusInternalServerError, "Failed to issue token")
		return
	}

	middleware.SuccessResponse(c, LoginResponse{
		Token: token,
		User:  ProfileView{Name: user.Name, Email: user.Email},
	})
}

// GetProfile GET /api/auth/profile
func (h *AuthHandler) GetProfile(c *gin.Context) {
	userID, _ := c.Get("user_id")
	userIDStr, _ := userID.(string)

	user, err := h.users.FindByID(c.Request.Context(), userIDStr)
	if err != nil {
		respondDomainError(c, err)
		return
	}

	middleware.SuccessResponse(c, user)
}

// UpdateProfileRequest 프로필 수정 요청
type UpdateProfileRequest struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
}

// UpdateProfile PUT /api/auth/profile
func (h *AuthHandler) UpdateProfile(c *gin.Context) {
	userID, _ := c.Get("user_id")
	userIDStr, _ := userID.(string)

	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.ErrorResponseWithCode(c, http.StatusBadRequest, types.ErrCodeInvalidJSON, err.Error())
		return
	}

	user, err := h.users.UpdateProfile(c.Request.Context(), userIDStr, req.Name, req.Email)
	if err != nil {
		respondDomainError(c, err)
		return
	}

	middleware.SuccessResponseWithMessage(c, ProfileView{Name: user.Name, Email: user.Email}, "Profile updated successfully")
}

// generateToken HS256 JWT 발급 (1시간 만료)
func (h *AuthHandler) generateToken(user *models.User) (string, error) {
	claims := jwt.MapClaims{
		"sub":   user.ID,
		"email": user.Email,
		"exp":   time.Now().Add(tokenTTL).Unix(),
		"iat":   time.Now().Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(h.jwtSecret)
}

// generateOTP 6자리 인증 코드 생성
func generateOTP() string {
	return fmt.Sprintf("%06d", 100000+rand.N(900000))
}
