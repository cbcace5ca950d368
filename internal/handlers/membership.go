package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/BradenHooton/cis-membership/internal/models"
	"github.com/BradenHooton/cis-membership/internal/services"
	pkghttp "github.com/BradenHooton/cis-membership/pkg/http"
	"github.com/go-chi/chi/v5"
)

type MembershipServiceInterface interface {
	Submit(ctx context.Context, application *models.Membership) (*models.Membership, error)
	UpdatePaymentStatus(ctx context.Context, membershipID, status string) (*models.Membership, error)
	CheckActive(ctx context.Context, email string) (*services.MembershipStatus, error)
	GetCard(ctx context.Context, membershipID string) (*services.CardView, error)
}

type MembershipHandler struct {
	service MembershipServiceInterface
	logger  *slog.Logger
}

func NewMembershipHandler(service MembershipServiceInterface, logger *slog.Logger) *MembershipHandler {
	return &MembershipHandler{service: service, logger: logger}
}

// MembershipRequest is a membership application. Payment status, ID and
// dates are assigned by the server and not accepted from the client.
type MembershipRequest struct {
	Title           string `json:"title" validate:"max=20"`
	FirstName       string `json:"firstName" validate:"required,notblank,max=100"`
	LastName        string `json:"lastName" validate:"required,notblank,max=100"`
	Email           string `json:"email" validate:"required,email,max=254"`
	Mobile          string `json:"mobile" validate:"max=40"`
	CurrentPosition string `json:"currentPosition" validate:"max=200"`
	Institute       string `json:"institute" validate:"max=200"`
	Department      string `json:"department" validate:"max=200"`
	Organisation    string `json:"organisation" validate:"required,notblank,max=200"`
	Address         string `json:"address" validate:"max=500"`
	Town            string `json:"town" validate:"required,notblank,max=100"`
	Postcode        string `json:"postcode" validate:"max=20"`
	State           string `json:"state" validate:"max=100"`
	Country         string `json:"country" validate:"required,notblank,max=100"`
	Status          string `json:"status" validate:"required,notblank,max=100"`
	LinkedIn        string `json:"linkedin" validate:"max=500"`
	ORCID           string `json:"orcid" validate:"max=100"`
	ResearchGate    string `json:"researchGate" validate:"max=500"`
	MembershipFee   string `json:"membershipFee" validate:"max=50"`
	ProfilePhoto    string `json:"profilePhoto"`
}

func (req *MembershipRequest) toModel() *models.Membership {
	return &models.Membership{
		Title:           req.Title,
		FirstName:       strings.TrimSpace(req.FirstName),
		LastName:        strings.TrimSpace(req.LastName),
		Email:           strings.TrimSpace(req.Email),
		Mobile:          req.Mobile,
		CurrentPosition: req.CurrentPosition,
		Institute:       req.Institute,
		Department:      req.Department,
		Organisation:    strings.TrimSpace(req.Organisation),
		Address:         req.Address,
		Town:            strings.TrimSpace(req.Town),
		Postcode:        req.Postcode,
		State:           req.State,
		Country:         strings.TrimSpace(req.Country),
		Status:          strings.TrimSpace(req.Status),
		LinkedIn:        req.LinkedIn,
		ORCID:           req.ORCID,
		ResearchGate:    req.ResearchGate,
		MembershipFee:   req.MembershipFee,
		ProfilePhoto:    req.ProfilePhoto,
	}
}

type PaymentStatusRequest struct {
	MembershipID  string `json:"membershipId" validate:"required,max=32"`
	PaymentStatus string `json:"paymentStatus" validate:"required,oneof=pending completed failed"`
}

type MembershipResponse struct {
	Success      bool               `json:"success"`
	Message      string             `json:"message"`
	MembershipID string             `json:"membershipId,omitempty"`
	Membership   *models.Membership `json:"membership"`
}

type MembershipStatusResponse struct {
	Success bool `json:"success"`
	*services.MembershipStatus
}

type CardResponse struct {
	Success    bool               `json:"success"`
	Membership *services.CardView `json:"membership"`
}

// Submit handles POST /api/membership
func (h *MembershipHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req MembershipRequest
	if err := decodeRequest(w, r, &req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	m, err := h.service.Submit(r.Context(), req.toModel())
	if err != nil {
		writeUnexpected(w, r, h.logger, "membership submission", err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusCreated, MembershipResponse{
		Success:      true,
		Message:      "Membership confirmed! Please check your email for confirmation.",
		MembershipID: m.MembershipID,
		Membership:   m,
	})
}

// UpdatePayment handles POST /api/membership/payment
func (h *MembershipHandler) UpdatePayment(w http.ResponseWriter, r *http.Request) {
	var req PaymentStatusRequest
	if err := decodeRequest(w, r, &req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	m, err := h.service.UpdatePaymentStatus(r.Context(), req.MembershipID, req.PaymentStatus)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrMembershipNotFound):
			pkghttp.WriteNotFound(w, "Membership not found")
		default:
			writeUnexpected(w, r, h.logger, "payment status update", err)
		}
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, MembershipResponse{
		Success:    true,
		Message:    "Payment status updated",
		Membership: m,
	})
}

// Check handles GET /api/membership/check/{email}
func (h *MembershipHandler) Check(w http.ResponseWriter, r *http.Request) {
	email, err := url.PathUnescape(chi.URLParam(r, "email"))
	if err != nil || email == "" {
		pkghttp.WriteBadRequest(w, "email is required")
		return
	}

	status, err := h.service.CheckActive(r.Context(), email)
	if err != nil {
		writeUnexpected(w, r, h.logger, "membership check", err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, MembershipStatusResponse{Success: true, MembershipStatus: status})
}

// Card handles GET /api/membership/{id}
func (h *MembershipHandler) Card(w http.ResponseWriter, r *http.Request) {
	card, err := h.service.GetCard(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		switch {
		case errors.Is(err, models.ErrMembershipNotFound):
			pkghttp.WriteNotFound(w, "Membership not found")
		default:
			writeUnexpected(w, r, h.logger, "membership card", err)
		}
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, CardResponse{Success: true, Membership: card})
}
