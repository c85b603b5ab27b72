package types

import (
	"errors"
	"fmt"
)

// ValidationError 구조 검증 실패 (위반 필드 포함)
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Message)
}

// NewValidationError 검증 에러 생성
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// NotFoundError 존재하지 않는 리소스 참조
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

// NewNotFoundError NotFound 에러 생성
func NewNotFoundError(resource, id string) *NotFoundError {
	return &NotFoundError{Resource: resource, ID: id}
}

// ErrSimulatorNotRunning 시뮬레이터 정지 상태에서 스트림 연결 시도
var ErrSimulatorNotRunning = errors.New("simulator is not running")

// IsValidation 검증 에러 여부
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsNotFound NotFound 에러 여부
func IsNotFound(err error) bool {
	var nfe *NotFoundError
	return errors.As(err, &nfe)
}
