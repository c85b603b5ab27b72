package types

// ErrorCode API 에러 코드
type ErrorCode string

// 공통 에러 코드
const (
	// 인증/인가 에러 (AUTH_*)
	ErrCodeUnauthorized ErrorCode = "AUTH_UNAUTHORIZED"
	ErrCodeInvalidToken ErrorCode = "AUTH_INVALID_TOKEN"

	// 요청 에러 (REQUEST_*)
	ErrCodeBadRequest       ErrorCode = "REQUEST_BAD_REQUEST"
	ErrCodeValidationFailed ErrorCode = "REQUEST_VALIDATION_FAILED"
	ErrCodeInvalidJSON      ErrorCode = "REQUEST_INVALID_JSON"

	// 리소스 에러 (RESOURCE_*)
	ErrCodeNotFound      ErrorCode = "RESOURCE_NOT_FOUND"
	ErrCodeAlreadyExists ErrorCode = "RESOURCE_ALREADY_EXISTS"

	// 서버 에러 (SERVER_*)
	ErrCodeInternalError ErrorCode = "SERVER_INTERNAL_ERROR"
	ErrCodeDatabaseError ErrorCode = "SERVER_DATABASE_ERROR"

	// 시뮬레이터 에러 (SIMULATOR_*)
	ErrCodeSimulatorNotRunning ErrorCode = "SIMULATOR_NOT_RUNNING"
	ErrCodeInvalidAction       ErrorCode = "SIMULATOR_INVALID_ACTION"
)

// APIError 구조화된 에러
type APIError struct {
	Code    ErrorCode         `json:"code"`
	Message string            `json:"message"`
	Details map[string]string `json:"details,omitempty"`
}

// Error implements error interface
func (e *APIError) Error() string {
	return e.Message
}

// NewAPIError 새 API 에러 생성
func NewAPIError(code ErrorCode, message string) *APIError {
	return &APIError{Code: code, Message: message}
}

// NewAPIErrorWithDetails 상세 정보 포함 API 에러 생성
func NewAPIErrorWithDetails(code ErrorCode, message string, details map[string]string) *APIError {
	return &APIError{Code: code, Message: message, Details: details}
}

// APIResponse 기본 API 응답
type APIResponse[T any] struct {
	Success   bool      `json:"success"`
	Data      T         `json:"data,omitempty"`
	Error     *APIError `json:"error,omitempty"`
	Message   string    `json:"message,omitempty"`
	RequestID string    `json:"request_id,omitempty"`
}

// Pagination 페이지네이션 메타데이터
type Pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"totalPages"`
}

// SimulatorStatus 시뮬레이터 상태 응답
type SimulatorStatus struct {
	IsRunning bool `json:"isRunning"`
}

// ControlResult 시뮬레이터 제어 응답
type ControlResult struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// HealthStatus 헬스 상태
type HealthStatus struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}
