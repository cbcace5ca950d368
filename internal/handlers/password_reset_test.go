package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/BradenHooton/cis-membership/internal/models"
	"github.com/stretchr/testify/assert"
)

func TestPasswordResetHandler_ForgotPassword(t *testing.T) {
	h := NewPasswordResetHandler(&MockPasswordResetService{
		RequestResetFunc: func(ctx context.Context, email string) error {
			if email == "a@x.com" {
				return nil
			}
			return models.ErrIdentityNotFound
		},
	}, testLogger())

	w := httptest.NewRecorder()
	h.ForgotPassword(w, NewTestRequest(t, http.MethodPost, "/forgot-password", ForgotPasswordRequest{Email: "a@x.com"}))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, decodeBody(t, w)["success"])

	w = httptest.NewRecorder()
	h.ForgotPassword(w, NewTestRequest(t, http.MethodPost, "/forgot-password", ForgotPasswordRequest{Email: "b@x.com"}))
	assertError(t, w, http.StatusNotFound, "not_found")
}

func TestPasswordResetHandler_VerifyOTP(t *testing.T) {
	h := NewPasswordResetHandler(&MockPasswordResetService{
		VerifyOTPFunc: func(ctx context.Context, email, code string) error {
			if code == "123456" {
				return nil
			}
			return models.ErrInvalidOrExpiredOTP
		},
	}, testLogger())

	w := httptest.NewRecorder()
	h.VerifyOTP(w, NewTestRequest(t, http.MethodPost, "/verify-otp", VerifyOTPRequest{Email: "a@x.com", OTP: "123456"}))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	h.VerifyOTP(w, NewTestRequest(t, http.MethodPost, "/verify-otp", VerifyOTPRequest{Email: "a@x.com", OTP: "000000"}))
	assertError(t, w, http.StatusBadRequest, "invalid_otp")

	w = httptest.NewRecorder()
	h.VerifyOTP(w, NewTestRequest(t, http.MethodPost, "/verify-otp", map[string]string{"email": "a@x.com"}))
	assertError(t, w, http.StatusBadRequest, "bad_request")
}

func TestPasswordResetHandler_ResetPassword(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{name: "success", wantStatus: http.StatusOK},
		{name: "unknown identity", err: models.ErrIdentityNotFound, wantStatus: http.StatusNotFound, wantCode: "not_found"},
		{name: "wrong code", err: models.ErrInvalidOTP, wantStatus: http.StatusBadRequest, wantCode: "invalid_otp"},
		{name: "expired code", err: models.ErrOTPExpired, wantStatus: http.StatusBadRequest, wantCode: "otp_expired"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewPasswordResetHandler(&MockPasswordResetService{
				ResetPasswordFunc: func(ctx context.Context, email, code, newPassword string) error {
					assert.Equal(t, "new-secret", newPassword)
					return tt.err
				},
			}, testLogger())
			w := httptest.NewRecorder()

			h.ResetPassword(w, NewTestRequest(t, http.MethodPost, "/reset-password", ResetPasswordRequest{
				Email: "a@x.com", OTP: "123456", NewPassword: "new-secret",
			}))

			if tt.wantCode != "" {
				assertError(t, w, tt.wantStatus, tt.wantCode)
				return
			}
			assert.Equal(t, tt.wantStatus, w.Code)
		})
	}
}
