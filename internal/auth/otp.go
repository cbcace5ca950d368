package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base32"
	"encoding/binary"
	"fmt"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/hotp"
)

const otpSecretSize = 20

// OTPGenerator produces single-use numeric reset codes. Each code is an HOTP
// value over a fresh random secret and counter, so codes carry no state
// between calls.
type OTPGenerator struct {
	digits otp.Digits
}

// NewOTPGenerator creates a generator for six-digit codes.
func NewOTPGenerator() *OTPGenerator {
	return &OTPGenerator{digits: otp.DigitsSix}
}

// Generate returns a new zero-padded numeric code.
func (g *OTPGenerator) Generate() (string, error) {
	raw := make([]byte, otpSecretSize+8)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("failed to read random bytes: %w", err)
	}

	secret := base32.StdEncoding.WithPadding(base32.NoPadding).EncodeToString(raw[:otpSecretSize])
	counter := binary.BigEndian.Uint64(raw[otpSecretSize:])

	code, err := hotp.GenerateCodeCustom(secret, counter, hotp.ValidateOpts{
		Digits:    g.digits,
		Algorithm: otp.AlgorithmSHA1,
	})
	if err != nil {
		return "", fmt.Errorf("failed to generate OTP: %w", err)
	}

	return code, nil
}

// OTPEqual compares two codes in constant time.
func OTPEqual(stored, provided string) bool {
	return subtle.ConstantTimeCompare([]byte(stored), []byte(provided)) == 1
}
