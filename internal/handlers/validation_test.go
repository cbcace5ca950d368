package handlers

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateRequest_PasswordByteLimit(t *testing.T) {
	tests := []struct {
		name     string
		password string
		wantErr  bool
	}{
		{name: "ascii at limit", password: strings.Repeat("a", 72)},
		{name: "ascii over limit", password: strings.Repeat("a", 73), wantErr: true},
		{name: "multibyte at limit", password: strings.Repeat("é", 36)},
		{name: "multibyte over limit", password: strings.Repeat("é", 40), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			credErr := ValidateRequest(&CredentialsRequest{Email: "a@x.com", Password: tt.password})
			resetErr := ValidateRequest(&ResetPasswordRequest{Email: "a@x.com", OTP: "123456", NewPassword: tt.password})
			if !tt.wantErr {
				assert.NoError(t, credErr)
				assert.NoError(t, resetErr)
				return
			}
			assert.ErrorContains(t, credErr, "password: must be at most 72 bytes")
			assert.ErrorContains(t, resetErr, "newPassword: must be at most 72 bytes")
		})
	}
}

func TestValidateRequest_RejectsBlankNames(t *testing.T) {
	err := ValidateRequest(&SubscribeRequest{FirstName: "   ", LastName: "Lovelace", Email: "a@x.com"})
	assert.ErrorContains(t, err, "firstName: this field is required")

	err = ValidateRequest(&SubscribeRequest{FirstName: "Ada", LastName: "\t", Email: "a@x.com"})
	assert.ErrorContains(t, err, "lastName: this field is required")

	assert.NoError(t, ValidateRequest(&SubscribeRequest{FirstName: " Ada ", LastName: "Lovelace", Email: "a@x.com"}))
}
