package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/BradenHooton/cis-membership/internal/auth"
	"github.com/BradenHooton/cis-membership/internal/models"
	"github.com/BradenHooton/cis-membership/internal/services"
	pkghttp "github.com/BradenHooton/cis-membership/pkg/http"
)

// AuthServiceInterface defines the interface for auth business logic
type AuthServiceInterface interface {
	Register(ctx context.Context, email, password string) (*services.RegisterResult, error)
	Login(ctx context.Context, email, password string) (*services.LoginResult, error)
	VerifyEmail(ctx context.Context, token string) error
	Me(ctx context.Context, email string) (*models.User, error)
}

// AuthHandler handles registration, login and verification requests
type AuthHandler struct {
	service AuthServiceInterface
	logger  *slog.Logger
}

func NewAuthHandler(service AuthServiceInterface, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{service: service, logger: logger}
}

// CredentialsRequest is the body of /signin and /login
type CredentialsRequest struct {
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required,maxbytes=72"`
}

// TokenResponse carries a freshly issued session token
type TokenResponse struct {
	Success bool   `json:"success"`
	Token   string `json:"token"`
	Message string `json:"message"`
}

// MessageResponse is a success body without a payload
type MessageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// MeResponse describes the identity behind a session token
type MeResponse struct {
	Success       bool   `json:"success"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"emailVerified"`
}

// Signin handles POST /signin
func (h *AuthHandler) Signin(w http.ResponseWriter, r *http.Request) {
	var req CredentialsRequest
	if err := decodeRequest(w, r, &req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	result, err := h.service.Register(r.Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrDuplicateIdentity):
			pkghttp.WriteError(w, http.StatusBadRequest, "already_exists", "User already exists")
		default:
			writeUnexpected(w, r, h.logger, "registration", err)
		}
		return
	}

	pkghttp.WriteJSON(w, http.StatusCreated, TokenResponse{
		Success: true,
		Token:   result.Token,
		Message: "User registered successfully. Please check your email to verify your account.",
	})
}

// Login handles POST /login. Unknown email and wrong password produce the
// same response.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req CredentialsRequest
	if err := decodeRequest(w, r, &req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	result, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrIdentityNotFound), errors.Is(err, models.ErrInvalidCredentials):
			pkghttp.WriteError(w, http.StatusBadRequest, "invalid_credentials", "Invalid email or password")
		default:
			writeUnexpected(w, r, h.logger, "login", err)
		}
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, TokenResponse{
		Success: true,
		Token:   result.Token,
		Message: "Login successful",
	})
}

// VerifyEmail handles GET /verify-email?token=...
func (h *AuthHandler) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")

	if err := h.service.VerifyEmail(r.Context(), token); err != nil {
		switch {
		case errors.Is(err, models.ErrInvalidToken):
			pkghttp.WriteError(w, http.StatusBadRequest, "invalid_token", "Invalid or expired verification token")
		default:
			writeUnexpected(w, r, h.logger, "email verification", err)
		}
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, MessageResponse{
		Success: true,
		Message: "Email verified successfully",
	})
}

// Me handles GET /me. Requires auth.AuthMiddleware.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	claims := auth.GetUserFromContext(r)
	if claims == nil {
		pkghttp.WriteUnauthorized(w, "A token is required for authentication")
		return
	}

	user, err := h.service.Me(r.Context(), claims.Email)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrIdentityNotFound):
			pkghttp.WriteNotFound(w, "User not found")
		default:
			writeUnexpected(w, r, h.logger, "profile lookup", err)
		}
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, MeResponse{
		Success:       true,
		Email:         user.Email,
		EmailVerified: user.EmailVerified,
	})
}
