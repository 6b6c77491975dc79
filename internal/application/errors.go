package application

import "errors"

var (
	// ErrUnauthorized is returned when no valid session backs the request.
	ErrUnauthorized = errors.New("application: unauthorized")
	// ErrForbidden is returned when the acting principal lacks a capability for an operation.
	ErrForbidden = errors.New("application: forbidden")
	// ErrNotFound is returned when the requested resource does not exist.
	ErrNotFound = errors.New("application: not found")
	// ErrAlreadyExists is returned when a unique attribute is already taken.
	ErrAlreadyExists = errors.New("application: already exists")
	// ErrInvalidCredentials is returned when an email/password pair or token does not verify.
	ErrInvalidCredentials = errors.New("application: invalid credentials")
	// ErrAccountDisabled is returned when the identity or profile has been deactivated.
	ErrAccountDisabled = errors.New("application: account disabled")
	// ErrSessionExpired is returned when a session is past its expiry.
	ErrSessionExpired = errors.New("application: session expired")
	// ErrSessionRevoked is returned when a session was explicitly revoked.
	ErrSessionRevoked = errors.New("application: session revoked")
	// ErrCancellationWindowClosed is returned when an owner may no longer cancel a booking.
	ErrCancellationWindowClosed = errors.New("application: cancellation window closed")
	// ErrUnsupportedFileType is returned for uploads outside the accepted image types.
	ErrUnsupportedFileType = errors.New("application: unsupported file type")
	// ErrFileTooLarge is returned for uploads above the size limit.
	ErrFileTooLarge = errors.New("application: file too large")
	// ErrEmptyFile is returned for zero byte uploads.
	ErrEmptyFile = errors.New("application: empty file")
)

// ValidationError captures field level validation issues that callers can surface to users.
type ValidationError struct {
	FieldErrors map[string]string
}

// Error implements the error interface.
func (v *ValidationError) Error() string {
	if v == nil {
		return ""
	}
	return "validation failed"
}

// HasErrors reports whether any field level issues were recorded.
func (v *ValidationError) HasErrors() bool {
	return v != nil && len(v.FieldErrors) > 0
}

// MissingRequired reports whether any recorded issue is a missing required field.
func (v *ValidationError) MissingRequired() bool {
	if v == nil {
		return false
	}
	for _, msg := range v.FieldErrors {
		if msg == msgRequired {
			return true
		}
	}
	return false
}

// add records a field level validation error.
func (v *ValidationError) add(field, message string) {
	if v.FieldErrors == nil {
		v.FieldErrors = make(map[string]string)
	}
	v.FieldErrors[field] = message
}

// merge copies entries from another validation error into the receiver.
func (v *ValidationError) merge(other *ValidationError) {
	if other == nil || len(other.FieldErrors) == 0 {
		return
	}
	for field, msg := range other.FieldErrors {
		v.add(field, msg)
	}
}

// Field level messages. The HTTP layer translates these for display.
const (
	msgRequired          = "is required"
	msgInvalid           = "is invalid"
	msgStartBeforeEnd    = "start must be before end"
	msgPositive          = "must be at least 1"
	msgNotNegative       = "must not be negative"
	msgTooLong           = "is too long"
	msgTooShort          = "is too short"
	msgMinExceedsMax     = "min duration must not exceed max duration"
	msgRoomUnavailable   = "room is not accepting bookings"
	msgDurationTooShort  = "booking is shorter than the room minimum"
	msgDurationTooLong   = "booking is longer than the room maximum"
	msgReasonRequired    = "rejection reason is required"
	msgUnsupportedStatus = "status must be one of approved, rejected, cancelled"
	msgCannotDeleteSelf  = "you cannot delete your own account"
)
