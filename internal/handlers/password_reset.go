package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/BradenHooton/cis-membership/internal/models"
	pkghttp "github.com/BradenHooton/cis-membership/pkg/http"
)

type PasswordResetServiceInterface interface {
	RequestReset(ctx context.Context, email string) error
	VerifyOTP(ctx context.Context, email, code string) error
	ResetPassword(ctx context.Context, email, code, newPassword string) error
}

type PasswordResetHandler struct {
	service PasswordResetServiceInterface
	logger  *slog.Logger
}

func NewPasswordResetHandler(service PasswordResetServiceInterface, logger *slog.Logger) *PasswordResetHandler {
	return &PasswordResetHandler{service: service, logger: logger}
}

type ForgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email,max=254"`
}

type VerifyOTPRequest struct {
	Email string `json:"email" validate:"required,email,max=254"`
	OTP   string `json:"otp" validate:"required,max=16"`
}

type ResetPasswordRequest struct {
	Email       string `json:"email" validate:"required,email,max=254"`
	OTP         string `json:"otp" validate:"required,max=16"`
	NewPassword string `json:"newPassword" validate:"required,maxbytes=72"`
}

// ForgotPassword handles POST /forgot-password
func (h *PasswordResetHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req ForgotPasswordRequest
	if err := decodeRequest(w, r, &req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	if err := h.service.RequestReset(r.Context(), req.Email); err != nil {
		switch {
		case errors.Is(err, models.ErrIdentityNotFound):
			pkghttp.WriteNotFound(w, "User not found")
		default:
			writeUnexpected(w, r, h.logger, "password reset request", err)
		}
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, MessageResponse{Success: true, Message: "OTP sent to your email"})
}

// VerifyOTP handles POST /verify-otp
func (h *PasswordResetHandler) VerifyOTP(w http.ResponseWriter, r *http.Request) {
	var req VerifyOTPRequest
	if err := decodeRequest(w, r, &req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	if err := h.service.VerifyOTP(r.Context(), req.Email, req.OTP); err != nil {
		switch {
		case errors.Is(err, models.ErrInvalidOrExpiredOTP):
			pkghttp.WriteError(w, http.StatusBadRequest, "invalid_otp", "Invalid or expired OTP")
		default:
			writeUnexpected(w, r, h.logger, "OTP verification", err)
		}
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, MessageResponse{Success: true, Message: "OTP verified successfully"})
}

// ResetPassword handles POST /reset-password
func (h *PasswordResetHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req ResetPasswordRequest
	if err := decodeRequest(w, r, &req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	if err := h.service.ResetPassword(r.Context(), req.Email, req.OTP, req.NewPassword); err != nil {
		switch {
		case errors.Is(err, models.ErrIdentityNotFound):
			pkghttp.WriteNotFound(w, "User not found")
		case errors.Is(err, models.ErrInvalidOTP):
			pkghttp.WriteError(w, http.StatusBadRequest, "invalid_otp", "Invalid OTP")
		case errors.Is(err, models.ErrOTPExpired):
			pkghttp.WriteError(w, http.StatusBadRequest, "otp_expired", "OTP has expired")
		default:
			writeUnexpected(w, r, h.logger, "password reset", err)
		}
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, MessageResponse{Success: true, Message: "Password reset successfully"})
}
