package errors

import "fmt"

type ErrorCode string

const (
	// Generic codes
	ErrInternalServer     ErrorCode = "INTERNAL_SERVER_ERROR"
	ErrNotFound           ErrorCode = "NOT_FOUND"
	ErrAlreadyExists      ErrorCode = "ALREADY_EXISTS"
	ErrInvalidInput       ErrorCode = "INVALID_INPUT"
	ErrInvalidRequestData ErrorCode = "INVALID_REQUEST_DATA"
	ErrUnauthorized       ErrorCode = "UNAUTHORIZED"
	ErrForbidden          ErrorCode = "FORBIDDEN"

	// Token codes
	ErrTokenExpired               ErrorCode = "TOKEN_EXPIRED"
	ErrInvalidTokenFormat         ErrorCode = "INVALID_TOKEN_FORMAT"
	ErrMissingAuthorizationHeader ErrorCode = "MISSING_AUTHORIZATION_HEADER"

	// Party lifecycle codes
	ErrPartyFull            ErrorCode = "PARTY_FULL"
	ErrPartyExpired         ErrorCode = "PARTY_EXPIRED"
	ErrPartyCanceled        ErrorCode = "PARTY_CANCELED"
	ErrPartyNotGated        ErrorCode = "PARTY_NOT_GATED"
	ErrAlreadyMember        ErrorCode = "ALREADY_MEMBER"
	ErrAlreadyPending       ErrorCode = "ALREADY_PENDING"
	ErrAlreadyResolved      ErrorCode = "ALREADY_RESOLVED"
	ErrRestoreWindowExpired ErrorCode = "RESTORE_WINDOW_EXPIRED"
	ErrLockTimeout          ErrorCode = "LOCK_TIMEOUT"
	ErrTransport            ErrorCode = "TRANSPORT_ERROR"
)

// AppError is the typed error returned by every service operation. Code
// distinguishes expected business outcomes (party full, window expired)
// from collaborator faults (internal server, transport).
type AppError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Err     error     `json:"-"`
}

func NewAppError(code ErrorCode, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
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

// Is reports whether the error carries the given code.
func Is(err error, code ErrorCode) bool {
	ae, ok := err.(*AppError)
	return ok && ae != nil && ae.Code == code
}
