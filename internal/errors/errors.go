package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Standard sentinel errors for common cases.
var (
	ErrNotFound           = errors.New("resource not found")
	ErrAlreadyExists      = errors.New("resource already exists")
	ErrInvalidInput       = errors.New("invalid input")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrForbidden          = errors.New("forbidden")
	ErrInternal           = errors.New("internal error")
	ErrConflict           = errors.New("conflict")
	ErrRequestDenied      = errors.New("request denied")
	ErrEmailNotVerified   = errors.New("email not verified")
	ErrAlreadyVerified    = errors.New("email already verified")
	ErrInvalidToken       = errors.New("invalid token")
	ErrWrongPurpose       = errors.New("wrong token purpose")
	ErrTokenExpired       = errors.New("token expired")
	ErrRequestPending     = errors.New("request already pending")
	ErrNotificationFailed = errors.New("notification delivery failed")
	ErrAlreadyMember      = errors.New("already a member")
)

// AppError represents a structured application error with HTTP status mapping.
type AppError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"-"`
	Err     error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NotFound creates a 404 error.
func NotFound(resource, id string) *AppError {
	return &AppError{
		Code:    "NOT_FOUND",
		Message: fmt.Sprintf("%s with id %s not found", resource, id),
		Status:  http.StatusNotFound,
		Err:     ErrNotFound,
	}
}

// AlreadyExists creates a 409 error.
func AlreadyExists(resource, field, value string) *AppError {
	return &AppError{
		Code:    "ALREADY_EXISTS",
		Message: fmt.Sprintf("%s with %s %q already exists", resource, field, value),
		Status:  http.StatusConflict,
		Err:     ErrAlreadyExists,
	}
}

// EmailTaken creates a 409 error for a registration against a taken email.
func EmailTaken(email string) *AppError {
	return &AppError{
		Code:    "EMAIL_TAKEN",
		Message: fmt.Sprintf("email %q is already registered", email),
		Status:  http.StatusConflict,
		Err:     ErrAlreadyExists,
	}
}

// InvalidInput creates a 400 error.
func InvalidInput(message string) *AppError {
	return &AppError{
		Code:    "INVALID_INPUT",
		Message: message,
		Status:  http.StatusBadRequest,
		Err:     ErrInvalidInput,
	}
}

// Unauthorized creates a 401 error.
func Unauthorized(message string) *AppError {
	return &AppError{
		Code:    "UNAUTHORIZED",
		Message: message,
		Status:  http.StatusUnauthorized,
		Err:     ErrUnauthorized,
	}
}

// InvalidCredentials creates a deliberately vague 401 error. The message never
// reveals whether the email existed or the password was wrong.
func InvalidCredentials() *AppError {
	return &AppError{
		Code:    "INVALID_CREDENTIALS",
		Message: "invalid email or password",
		Status:  http.StatusUnauthorized,
		Err:     ErrUnauthorized,
	}
}

// InvalidEmail creates a 404 error for a reset request against an
// unknown email address.
func InvalidEmail() *AppError {
	return &AppError{
		Code:    "INVALID_EMAIL",
		Message: "no account exists for this email address",
		Status:  http.StatusNotFound,
		Err:     ErrNotFound,
	}
}

// Forbidden creates a 403 error.
func Forbidden(message string) *AppError {
	return &AppError{
		Code:    "FORBIDDEN",
		Message: message,
		Status:  http.StatusForbidden,
		Err:     ErrForbidden,
	}
}

// RequestDenied creates a 403 error for a request blocked by the abuse shield.
func RequestDenied() *AppError {
	return &AppError{
		Code:    "REQUEST_DENIED",
		Message: "request denied",
		Status:  http.StatusForbidden,
		Err:     ErrRequestDenied,
	}
}

// EmailNotVerified creates a 403 error for an account still pending verification.
func EmailNotVerified() *AppError {
	return &AppError{
		Code:    "EMAIL_NOT_VERIFIED",
		Message: "email is not verified, please check your inbox",
		Status:  http.StatusForbidden,
		Err:     ErrEmailNotVerified,
	}
}

// AlreadyVerified creates a 409 error for re-verifying a verified account.
func AlreadyVerified() *AppError {
	return &AppError{
		Code:    "ALREADY_VERIFIED",
		Message: "email is already verified",
		Status:  http.StatusConflict,
		Err:     ErrAlreadyVerified,
	}
}

// InvalidToken creates a 401 error for a token that fails the signature check
// or has no persisted witness record (never issued, or already consumed).
func InvalidToken() *AppError {
	return &AppError{
		Code:    "INVALID_TOKEN",
		Message: "token is invalid or has already been used",
		Status:  http.StatusUnauthorized,
		Err:     ErrInvalidToken,
	}
}

// WrongPurpose creates a 401 error for a token presented for a different action.
func WrongPurpose() *AppError {
	return &AppError{
		Code:    "WRONG_PURPOSE",
		Message: "token was issued for a different purpose",
		Status:  http.StatusUnauthorized,
		Err:     ErrWrongPurpose,
	}
}

// TokenExpired creates a 401 error for a token past its expiry.
func TokenExpired() *AppError {
	return &AppError{
		Code:    "TOKEN_EXPIRED",
		Message: "token has expired",
		Status:  http.StatusUnauthorized,
		Err:     ErrTokenExpired,
	}
}

// RequestAlreadyPending creates a 409 error when an active token already exists.
func RequestAlreadyPending() *AppError {
	return &AppError{
		Code:    "REQUEST_ALREADY_PENDING",
		Message: "a request is already pending, please check your email",
		Status:  http.StatusConflict,
		Err:     ErrRequestPending,
	}
}

// NotificationFailed creates a 502 error for a failed email delivery.
func NotificationFailed() *AppError {
	return &AppError{
		Code:    "NOTIFICATION_FAILED",
		Message: "failed to deliver email, please try again later",
		Status:  http.StatusBadGateway,
		Err:     ErrNotificationFailed,
	}
}

// AlreadyMember creates a 409 error for a duplicate workspace membership.
func AlreadyMember() *AppError {
	return &AppError{
		Code:    "ALREADY_MEMBER",
		Message: "account is already a member of this workspace",
		Status:  http.StatusConflict,
		Err:     ErrAlreadyMember,
	}
}

// Internal creates a 500 error.
func Internal(err error) *AppError {
	return &AppError{
		Code:    "INTERNAL_ERROR",
		Message: "an internal error occurred",
		Status:  http.StatusInternalServerError,
		Err:     err,
	}
}

// Wrap wraps an error with additional context.
func Wrap(err error, message string) error {
	return fmt.Errorf("%s: %w", message, err)
}

// HTTPStatus returns the HTTP status code for the given error.
func HTTPStatus(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Status
	}

	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrAlreadyExists), errors.Is(err, ErrConflict),
		errors.Is(err, ErrAlreadyVerified), errors.Is(err, ErrRequestPending),
		errors.Is(err, ErrAlreadyMember):
		return http.StatusConflict
	case errors.Is(err, ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, ErrUnauthorized), errors.Is(err, ErrInvalidToken),
		errors.Is(err, ErrWrongPurpose), errors.Is(err, ErrTokenExpired):
		return http.StatusUnauthorized
	case errors.Is(err, ErrForbidden), errors.Is(err, ErrRequestDenied),
		errors.Is(err, ErrEmailNotVerified):
		return http.StatusForbidden
	case errors.Is(err, ErrNotificationFailed):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
