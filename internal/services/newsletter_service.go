package services

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/BradenHooton/cis-membership/internal/models"
	pkglogger "github.com/BradenHooton/cis-membership/pkg/logger"
)

type NewsletterRepository interface {
	Create(ctx context.Context, s *models.NewsletterSubscription) (*models.NewsletterSubscription, error)
	GetByEmail(ctx context.Context, email string) (*models.NewsletterSubscription, error)
	Deactivate(ctx context.Context, email string) (*models.NewsletterSubscription, error)
}

type NewsletterService struct {
	repo     NewsletterRepository
	notifier Notifier
	logger   *slog.Logger
}

func NewNewsletterService(repo NewsletterRepository, notifier Notifier, logger *slog.Logger) *NewsletterService {
	return &NewsletterService{repo: repo, notifier: notifier, logger: logger}
}

// Subscribe records a subscription. Any existing record for the email,
// active or not, is reported as ErrAlreadySubscribed.
func (s *NewsletterService) Subscribe(ctx context.Context, sub *models.NewsletterSubscription) (*models.NewsletterSubscription, error) {
	sub.Email = strings.TrimSpace(sub.Email)
	if sub.Frequency == "" {
		sub.Frequency = models.FrequencyWeekly
	}

	if _, err := s.repo.GetByEmail(ctx, sub.Email); err == nil {
		return nil, models.ErrAlreadySubscribed
	} else if !errors.Is(err, models.ErrNotFound) {
		return nil, storeError("failed to get subscription", err)
	}

	created, err := s.repo.Create(ctx, sub)
	if err != nil {
		if errors.Is(err, models.ErrConflict) {
			return nil, models.ErrAlreadySubscribed
		}
		return nil, storeError("failed to create subscription", err)
	}

	s.notifier.SendNewsletterWelcome(ctx, created)

	s.logger.Info("newsletter subscription created",
		slog.String("email", pkglogger.SanitizedEmail(created.Email)),
		slog.String("frequency", created.Frequency))

	return created, nil
}

// Unsubscribe deactivates the subscription for email. Repeating it is harmless.
func (s *NewsletterService) Unsubscribe(ctx context.Context, email string) error {
	if _, err := s.repo.Deactivate(ctx, strings.TrimSpace(email)); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return models.ErrSubscriptionNotFound
		}
		return storeError("failed to deactivate subscription", err)
	}
	return nil
}
