package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/BradenHooton/cis-membership/internal/models"
	pkghttp "github.com/BradenHooton/cis-membership/pkg/http"
)

type NewsletterServiceInterface interface {
	Subscribe(ctx context.Context, sub *models.NewsletterSubscription) (*models.NewsletterSubscription, error)
	Unsubscribe(ctx context.Context, email string) error
}

type NewsletterHandler struct {
	service NewsletterServiceInterface
	logger  *slog.Logger
}

func NewNewsletterHandler(service NewsletterServiceInterface, logger *slog.Logger) *NewsletterHandler {
	return &NewsletterHandler{service: service, logger: logger}
}

type SubscribeRequest struct {
	FirstName string   `json:"firstName" validate:"required,notblank,max=100"`
	LastName  string   `json:"lastName" validate:"required,notblank,max=100"`
	Email     string   `json:"email" validate:"required,email,max=254"`
	Interests []string `json:"interests" validate:"max=20,dive,max=100"`
	Frequency string   `json:"frequency" validate:"omitempty,oneof=daily weekly monthly"`
}

type UnsubscribeRequest struct {
	Email string `json:"email" validate:"required,email,max=254"`
}

type SubscriptionResponse struct {
	Success      bool                           `json:"success"`
	Message      string                         `json:"message"`
	Subscription *models.NewsletterSubscription `json:"subscription"`
}

// Subscribe handles POST /api/subscribe
func (h *NewsletterHandler) Subscribe(w http.ResponseWriter, r *http.Request) {
	var req SubscribeRequest
	if err := decodeRequest(w, r, &req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	sub, err := h.service.Subscribe(r.Context(), &models.NewsletterSubscription{
		FirstName: strings.TrimSpace(req.FirstName),
		LastName:  strings.TrimSpace(req.LastName),
		Email:     req.Email,
		Interests: req.Interests,
		Frequency: req.Frequency,
	})
	if err != nil {
		switch {
		case errors.Is(err, models.ErrAlreadySubscribed):
			pkghttp.WriteError(w, http.StatusBadRequest, "already_exists", "Email already subscribed")
		default:
			writeUnexpected(w, r, h.logger, "newsletter subscription", err)
		}
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, SubscriptionResponse{
		Success:      true,
		Message:      "Successfully subscribed to newsletter",
		Subscription: sub,
	})
}

// Unsubscribe handles POST /api/unsubscribe
func (h *NewsletterHandler) Unsubscribe(w http.ResponseWriter, r *http.Request) {
	var req UnsubscribeRequest
	if err := decodeRequest(w, r, &req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	if err := h.service.Unsubscribe(r.Context(), req.Email); err != nil {
		switch {
		case errors.Is(err, models.ErrSubscriptionNotFound):
			pkghttp.WriteNotFound(w, "Subscription not found")
		default:
			writeUnexpected(w, r, h.logger, "newsletter unsubscribe", err)
		}
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, MessageResponse{Success: true, Message: "Successfully unsubscribed"})
}
