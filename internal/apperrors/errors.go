// internal/apperrors/errors.go
package apperrors

import (
	"fmt"
	"net/http"
	"time"
)

// Kind is the closed set of failure classes the API can produce. The
// boundary layer matches on it exhaustively; services never invent kinds.
type Kind int

const (
	KindAuthenticationFailed Kind = iota
	KindForbidden
	KindNotFound
	KindLicenseInvalid
	KindLicenseExpired
	KindCapacityExceeded
	KindValidation
	KindConflict
	KindInternal
)

// Machine-readable error codes carried in the response envelope.
const (
	CodeBrandAuthFailed     = "brand_auth_failed"
	CodeInvalidLicenseKey   = "invalid_license_key"
	CodeNotAuthenticated    = "not_authenticated"
	CodeInvalidCredentials  = "invalid_credentials"
	CodeInvalidToken        = "invalid_token"
	CodeForbidden           = "forbidden"
	CodeLicenseKeyNotFound  = "license_key_not_found"
	CodeLicenseNotFound     = "license_not_found"
	CodeProductNotFound     = "product_not_found"
	CodeActivationNotFound  = "activation_not_found"
	CodeBrandNotFound       = "brand_not_found"
	CodeUserNotFound        = "user_not_found"
	CodeLicenseInvalid      = "license_invalid"
	CodeLicenseExpired      = "license_expired"
	CodeSeatLimitExceeded   = "seat_limit_exceeded"
	CodeValidationError     = "validation_error"
	CodeMissingParameter    = "missing_parameter"
	CodeConflict            = "conflict"
	CodeBrandExists         = "brand_exists"
	CodeProductExists       = "product_exists"
	CodeLicenseExists       = "license_exists"
	CodeProductInUse        = "product_in_use"
	CodeInternalError       = "internal_error"
)

// Error is a tagged domain error: a kind for the boundary layer, a machine
// code and human message for the caller, and optional structured details.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Details interface{}
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// HTTPStatus maps every kind to its response status. KindInternal is the
// only kind whose message must not reach the caller verbatim.
func (e *Error) HTTPStatus() int {
	switch e.Kind {
	case KindAuthenticationFailed:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindLicenseInvalid, KindLicenseExpired, KindCapacityExceeded, KindValidation:
		return http.StatusBadRequest
	case KindConflict:
		return http.StatusConflict
	case KindInternal:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

func AuthenticationFailed(code, message string) *Error {
	return &Error{Kind: KindAuthenticationFailed, Code: code, Message: message}
}

func NotAuthenticated() *Error {
	return &Error{
		Kind:    KindAuthenticationFailed,
		Code:    CodeNotAuthenticated,
		Message: "Authentication credentials were not provided",
	}
}

func Forbidden(message string) *Error {
	return &Error{Kind: KindForbidden, Code: CodeForbidden, Message: message}
}

func NotFound(code, message string) *Error {
	return &Error{Kind: KindNotFound, Code: code, Message: message}
}

func LicenseKeyNotFound() *Error {
	return NotFound(CodeLicenseKeyNotFound, "License key not found")
}

func LicenseNotFound(message string) *Error {
	return NotFound(CodeLicenseNotFound, message)
}

func ProductNotFound(message string) *Error {
	return NotFound(CodeProductNotFound, message)
}

func ActivationNotFound(message string) *Error {
	return NotFound(CodeActivationNotFound, message)
}

func LicenseInvalid(status string) *Error {
	return &Error{
		Kind:    KindLicenseInvalid,
		Code:    CodeLicenseInvalid,
		Message: fmt.Sprintf("License is %s", status),
		Details: map[string]interface{}{"status": status},
	}
}

func LicenseExpired(expiredAt time.Time) *Error {
	return &Error{
		Kind:    KindLicenseExpired,
		Code:    CodeLicenseExpired,
		Message: fmt.Sprintf("License expired on %s", expiredAt.Format("2006-01-02")),
		Details: map[string]interface{}{"expires_at": expiredAt},
	}
}

func SeatLimitExceeded(seatsUsed int64, seatLimit int) *Error {
	return &Error{
		Kind:    KindCapacityExceeded,
		Code:    CodeSeatLimitExceeded,
		Message: fmt.Sprintf("Seat limit (%d) exceeded. %d/%d seats used.", seatLimit, seatsUsed, seatLimit),
		Details: map[string]interface{}{"seats_used": seatsUsed, "seat_limit": seatLimit},
	}
}

func Validation(message string, details interface{}) *Error {
	return &Error{Kind: KindValidation, Code: CodeValidationError, Message: message, Details: details}
}

func MissingParameter(name string) *Error {
	return &Error{
		Kind:    KindValidation,
		Code:    CodeMissingParameter,
		Message: fmt.Sprintf("%s is required", name),
		Details: map[string]interface{}{"parameter": name},
	}
}

func Conflict(code, message string) *Error {
	return &Error{Kind: KindConflict, Code: code, Message: message}
}

func Internal(err error) *Error {
	return &Error{
		Kind:    KindInternal,
		Code:    CodeInternalError,
		Message: "An internal error occurred",
		Err:     err,
	}
}
