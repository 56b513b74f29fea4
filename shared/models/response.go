package models

// Коды ошибок, возвращаемые клиенту вместе с HTTP статусом.
const (
	ErrCodeBadRequest       = "bad_request"
	ErrCodeValidation       = "validation_error"
	ErrCodeWrongCredentials = "wrong_credentials"
	ErrCodeDuplicateUser    = "duplicate_user"
	ErrCodeDuplicateEmail   = "duplicate_email"
	ErrCodeUserNotFound     = "user_not_found"
	ErrCodeNotFound         = "not_found"
	ErrCodeTokenInvalid     = "token_invalid"
	ErrCodeTokenExpired     = "token_expired"
	ErrCodeForbidden        = "forbidden"
	ErrCodePremiumRequired  = "premium_required"
	ErrCodeConflict         = "conflict"
	ErrCodeInternal         = "internal_error"
)

// ErrorResponse - стандартная структура для ответа об ошибке в формате JSON.
type ErrorResponse struct {
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
}

// LegacyErrorResponse повторяет формат ошибок старого proxy-эндпоинта /session:
// клиент ожидает единственное поле "error".
type LegacyErrorResponse struct {
	Error string `json:"error"`
}
