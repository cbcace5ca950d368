package models

import "errors"

// Sentinel errors for common failure conditions
var (
	ErrNotFound       = errors.New("resource not found")
	ErrConflict       = errors.New("resource already exists")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrBadRequest     = errors.New("bad request")
	ErrInternalServer = errors.New("internal server error")
	ErrTimeout        = errors.New("operation timed out")

	// Credential errors
	ErrDuplicateIdentity  = errors.New("user already exists")
	ErrIdentityNotFound   = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid token")

	// Password reset errors
	ErrInvalidOrExpiredOTP = errors.New("invalid or expired OTP")
	ErrInvalidOTP          = errors.New("invalid OTP")
	ErrOTPExpired          = errors.New("OTP has expired")

	// Registry errors
	ErrMembershipNotFound   = errors.New("membership not found")
	ErrAlreadySubscribed    = errors.New("email already subscribed")
	ErrSubscriptionNotFound = errors.New("subscription not found")
)
