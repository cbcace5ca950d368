package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/BradenHooton/cis-membership/internal/database"
	"github.com/BradenHooton/cis-membership/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

const newsletterColumns = `id, first_name, last_name, email, interests, frequency, subscribed_at, is_active`

type NewsletterRepository struct {
	pool *pgxpool.Pool
}

func NewNewsletterRepository(db *database.DB) *NewsletterRepository {
	return &NewsletterRepository{pool: db.Pool}
}

func scanSubscriptionRow(scanner rowScanner) (*models.NewsletterSubscription, error) {
	var s models.NewsletterSubscription

	err := scanner.Scan(&s.ID, &s.FirstName, &s.LastName, &s.Email, &s.Interests, &s.Frequency, &s.SubscribedAt, &s.IsActive)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}
	if s.Interests == nil {
		s.Interests = []string{}
	}

	return &s, nil
}

func (r *NewsletterRepository) Create(ctx context.Context, s *models.NewsletterSubscription) (*models.NewsletterSubscription, error) {
	s.ID = uuid.New().String()
	s.SubscribedAt = time.Now()
	s.IsActive = true
	if s.Interests == nil {
		s.Interests = []string{}
	}

	query := `
		INSERT INTO newsletter_subscriptions (` + newsletterColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING ` + newsletterColumns

	created, err := scanSubscriptionRow(r.pool.QueryRow(ctx, query,
		s.ID, s.FirstName, s.LastName, s.Email, s.Interests, s.Frequency, s.SubscribedAt, s.IsActive,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to create subscription: %w", err)
	}

	return created, nil
}

func (r *NewsletterRepository) GetByEmail(ctx context.Context, email string) (*models.NewsletterSubscription, error) {
	query := `SELECT ` + newsletterColumns + ` FROM newsletter_subscriptions WHERE email = $1`

	return scanSubscriptionRow(r.pool.QueryRow(ctx, query, email))
}

// Deactivate flags the subscription inactive. The row is kept.
func (r *NewsletterRepository) Deactivate(ctx context.Context, email string) (*models.NewsletterSubscription, error) {
	query := `
		UPDATE newsletter_subscriptions SET is_active = FALSE
		WHERE email = $1
		RETURNING ` + newsletterColumns

	return scanSubscriptionRow(r.pool.QueryRow(ctx, query, email))
}
