package services

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/BradenHooton/cis-membership/internal/models"
	pkglogger "github.com/BradenHooton/cis-membership/pkg/logger"
	qrcode "github.com/skip2/go-qrcode"
)

// CardDateLayout is the date format printed on member cards.
const CardDateLayout = "1/2/2006"

const (
	MembershipStatusActive  = "active"
	MembershipStatusExpired = "expired"
)

const qrCodeSize = 256

// MembershipRepository persists memberships and allocates membership IDs.
type MembershipRepository interface {
	Create(ctx context.Context, m *models.Membership) (*models.Membership, error)
	GetByMembershipID(ctx context.Context, membershipID string) (*models.Membership, error)
	GetLatestByEmail(ctx context.Context, email string) (*models.Membership, error)
	UpdatePaymentStatus(ctx context.Context, membershipID, status string) (*models.Membership, error)
}

// MembershipService accepts applications and answers status and card queries.
type MembershipService struct {
	repo        MembershipRepository
	notifier    Notifier
	frontendURL string
	now         func() time.Time
	logger      *slog.Logger
}

func NewMembershipService(repo MembershipRepository, notifier Notifier, frontendURL string, logger *slog.Logger) *MembershipService {
	return &MembershipService{
		repo:        repo,
		notifier:    notifier,
		frontendURL: strings.TrimRight(frontendURL, "/"),
		now:         time.Now,
		logger:      logger,
	}
}

// MembershipStatus answers whether an email currently holds a membership.
type MembershipStatus struct {
	IsMember   bool       `json:"isMember"`
	ExpiryDate *time.Time `json:"expiryDate,omitempty"`
	Status     string     `json:"status,omitempty"`
}

// CardView is the printable credential-card projection of a membership.
type CardView struct {
	Name       string `json:"name"`
	Position   string `json:"position"`
	IDNumber   string `json:"idNumber"`
	IssueDate  string `json:"issueDate"`
	ExpiryDate string `json:"expiryDate"`
	Department string `json:"department"`
	PhotoURL   string `json:"photoUrl"`
	QRCode     string `json:"qrCode,omitempty"`
}

func FormatCardDate(t time.Time) string {
	return t.Format(CardDateLayout)
}

// Submit accepts an application. Payment is recorded as completed, the
// validity window starts now and runs one calendar year, and the repository
// assigns the membership ID.
func (s *MembershipService) Submit(ctx context.Context, application *models.Membership) (*models.Membership, error) {
	issue := s.now()
	application.PaymentStatus = models.PaymentCompleted
	application.IssueDate = issue
	application.ExpiryDate = models.MembershipExpiry(issue)

	created, err := s.repo.Create(ctx, application)
	if err != nil {
		return nil, storeError("failed to create membership", err)
	}

	s.notifier.SendMembershipConfirmation(ctx, created)

	s.logger.Info("membership created",
		slog.String("membership_id", created.MembershipID),
		slog.String("email", pkglogger.SanitizedEmail(created.Email)))

	return created, nil
}

// UpdatePaymentStatus overwrites the payment status of a membership.
func (s *MembershipService) UpdatePaymentStatus(ctx context.Context, membershipID, status string) (*models.Membership, error) {
	if !models.IsValidPaymentStatus(status) {
		return nil, fmt.Errorf("%w: unknown payment status %q", models.ErrBadRequest, status)
	}

	m, err := s.repo.UpdatePaymentStatus(ctx, membershipID, status)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrMembershipNotFound
		}
		return nil, storeError("failed to update payment status", err)
	}

	s.logger.Info("payment status updated",
		slog.String("membership_id", m.MembershipID),
		slog.String("payment_status", status))

	return m, nil
}

// CheckActive reports on the most recent membership for email. Expiry comes
// from the stored expiry date.
func (s *MembershipService) CheckActive(ctx context.Context, email string) (*MembershipStatus, error) {
	m, err := s.repo.GetLatestByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return &MembershipStatus{IsMember: false}, nil
		}
		return nil, storeError("failed to get membership", err)
	}

	expiry := m.ExpiryDate
	status := &MembershipStatus{
		IsMember:   m.IsActiveAt(s.now()),
		ExpiryDate: &expiry,
		Status:     MembershipStatusExpired,
	}
	if status.IsMember {
		status.Status = MembershipStatusActive
	}

	return status, nil
}

// GetCard builds the card view for a membership ID, including a QR code that
// links to the card page.
func (s *MembershipService) GetCard(ctx context.Context, membershipID string) (*CardView, error) {
	m, err := s.repo.GetByMembershipID(ctx, membershipID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrMembershipNotFound
		}
		return nil, storeError("failed to get membership", err)
	}

	card := &CardView{
		Name:       m.FullName(),
		Position:   m.CurrentPosition,
		IDNumber:   m.MembershipID,
		IssueDate:  FormatCardDate(m.IssueDate),
		ExpiryDate: FormatCardDate(m.ExpiryDate),
		Department: m.Department,
		PhotoURL:   m.ProfilePhoto,
	}
	if card.Position == "" {
		card.Position = models.DefaultPosition
	}
	if card.Department == "" {
		card.Department = models.DefaultDepartment
	}

	qr, err := qrCodeDataURL(CardLink(s.frontendURL, m.MembershipID))
	if err != nil {
		// the card is still usable without its QR code
		s.logger.Warn("failed to generate card QR code",
			slog.String("membership_id", m.MembershipID),
			slog.Any("error", err))
	}
	card.QRCode = qr

	return card, nil
}

func qrCodeDataURL(content string) (string, error) {
	png, err := qrcode.Encode(content, qrcode.Medium, qrCodeSize)
	if err != nil {
		return "", fmt.Errorf("failed to encode QR code: %w", err)
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png), nil
}
