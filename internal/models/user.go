package models

import (
	"time"
)

// User is the credential record for one email identity.
type User struct {
	ID                    string
	Email                 string
	PasswordHash          string
	EmailVerified         bool
	VerificationTokenHash *string // SHA-256 of the emailed token, nil once consumed
	ResetOTP              *string
	ResetOTPExpiresAt     *time.Time
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

// HasActiveResetOTP reports whether a reset code exists and has not expired at now.
func (u *User) HasActiveResetOTP(now time.Time) bool {
	return u.ResetOTP != nil && u.ResetOTPExpiresAt != nil && u.ResetOTPExpiresAt.After(now)
}
