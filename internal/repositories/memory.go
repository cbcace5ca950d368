package repositories

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/BradenHooton/cis-membership/internal/models"
	"github.com/google/uuid"
)

// The in-memory repositories back STORE=memory and the service tests. They
// mirror the Postgres repositories' semantics and error values. Records are
// copied on the way in and out so callers never share state with the store.

func checkContext(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("%w: %v", models.ErrTimeout, err)
		}
		return err
	}
	return nil
}

func copyUser(u *models.User) *models.User {
	c := *u
	if u.VerificationTokenHash != nil {
		v := *u.VerificationTokenHash
		c.VerificationTokenHash = &v
	}
	if u.ResetOTP != nil {
		v := *u.ResetOTP
		c.ResetOTP = &v
	}
	if u.ResetOTPExpiresAt != nil {
		v := *u.ResetOTPExpiresAt
		c.ResetOTPExpiresAt = &v
	}
	return &c
}

type MemoryUserRepository struct {
	mu    sync.RWMutex
	users map[string]*models.User // keyed by email
}

func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{users: make(map[string]*models.User)}
}

func (r *MemoryUserRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	if err := checkContext(ctx); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[user.Email]; ok {
		return nil, fmt.Errorf("failed to create user: %w: users_email_key", models.ErrConflict)
	}

	stored := copyUser(user)
	stored.ID = uuid.New().String()
	now := time.Now()
	stored.CreatedAt = now
	stored.UpdatedAt = now
	r.users[stored.Email] = stored

	return copyUser(stored), nil
}

func (r *MemoryUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	if err := checkContext(ctx); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.users[email]
	if !ok {
		return nil, models.ErrNotFound
	}
	return copyUser(u), nil
}

func (r *MemoryUserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	if err := checkContext(ctx); err != nil {
		return false, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.users[email]
	return ok, nil
}

func (r *MemoryUserRepository) ConsumeVerificationToken(ctx context.Context, tokenHash string) (*models.User, error) {
	if err := checkContext(ctx); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range r.users {
		if u.VerificationTokenHash != nil && *u.VerificationTokenHash == tokenHash {
			u.EmailVerified = true
			u.VerificationTokenHash = nil
			u.UpdatedAt = time.Now()
			return copyUser(u), nil
		}
	}
	return nil, models.ErrNotFound
}

func (r *MemoryUserRepository) SetResetOTP(ctx context.Context, email, otp string, expiresAt time.Time) error {
	if err := checkContext(ctx); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[email]
	if !ok {
		return models.ErrNotFound
	}
	u.ResetOTP = &otp
	u.ResetOTPExpiresAt = &expiresAt
	u.UpdatedAt = time.Now()
	return nil
}

func (r *MemoryUserRepository) ResetPassword(ctx context.Context, email, otp, passwordHash string, now time.Time) error {
	if err := checkContext(ctx); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[email]
	if !ok || u.ResetOTP == nil || *u.ResetOTP != otp || !u.HasActiveResetOTP(now) {
		return models.ErrNotFound
	}
	u.PasswordHash = passwordHash
	u.ResetOTP = nil
	u.ResetOTPExpiresAt = nil
	u.UpdatedAt = time.Now()
	return nil
}

func (r *MemoryUserRepository) ClearExpiredResetOTPs(ctx context.Context, before time.Time) (int64, error) {
	if err := checkContext(ctx); err != nil {
		return 0, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	var cleared int64
	for _, u := range r.users {
		if u.ResetOTPExpiresAt != nil && u.ResetOTPExpiresAt.Before(before) {
			u.ResetOTP = nil
			u.ResetOTPExpiresAt = nil
			cleared++
		}
	}
	return cleared, nil
}

type MemoryMembershipRepository struct {
	mu          sync.RWMutex
	memberships []*models.Membership // insertion order
	sequences   map[int]int
}

func NewMemoryMembershipRepository() *MemoryMembershipRepository {
	return &MemoryMembershipRepository{sequences: make(map[int]int)}
}

// Create allocates the next ID for the issue year under the write lock, so
// concurrent submissions always receive distinct IDs.
func (r *MemoryMembershipRepository) Create(ctx context.Context, m *models.Membership) (*models.Membership, error) {
	if err := checkContext(ctx); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	stored := *m
	year := stored.IssueDate.Year()
	r.sequences[year]++
	stored.ID = uuid.New().String()
	stored.MembershipID = models.FormatMembershipID(year, r.sequences[year])
	stored.CreatedAt = time.Now()
	r.memberships = append(r.memberships, &stored)

	created := stored
	return &created, nil
}

func (r *MemoryMembershipRepository) GetByMembershipID(ctx context.Context, membershipID string) (*models.Membership, error) {
	if err := checkContext(ctx); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, m := range r.memberships {
		if m.MembershipID == membershipID {
			c := *m
			return &c, nil
		}
	}
	return nil, models.ErrNotFound
}

func (r *MemoryMembershipRepository) GetLatestByEmail(ctx context.Context, email string) (*models.Membership, error) {
	if err := checkContext(ctx); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	for i := len(r.memberships) - 1; i >= 0; i-- {
		if r.memberships[i].Email == email {
			c := *r.memberships[i]
			return &c, nil
		}
	}
	return nil, models.ErrNotFound
}

func (r *MemoryMembershipRepository) UpdatePaymentStatus(ctx context.Context, membershipID, status string) (*models.Membership, error) {
	if err := checkContext(ctx); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, m := range r.memberships {
		if m.MembershipID == membershipID {
			m.PaymentStatus = status
			c := *m
			return &c, nil
		}
	}
	return nil, models.ErrNotFound
}

type MemoryNewsletterRepository struct {
	mu            sync.RWMutex
	subscriptions map[string]*models.NewsletterSubscription // keyed by email
}

func NewMemoryNewsletterRepository() *MemoryNewsletterRepository {
	return &MemoryNewsletterRepository{subscriptions: make(map[string]*models.NewsletterSubscription)}
}

func copySubscription(s *models.NewsletterSubscription) *models.NewsletterSubscription {
	c := *s
	c.Interests = append([]string{}, s.Interests...)
	return &c
}

func (r *MemoryNewsletterRepository) Create(ctx context.Context, s *models.NewsletterSubscription) (*models.NewsletterSubscription, error) {
	if err := checkContext(ctx); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.subscriptions[s.Email]; ok {
		return nil, fmt.Errorf("failed to create subscription: %w: newsletter_subscriptions_email_key", models.ErrConflict)
	}

	stored := copySubscription(s)
	stored.ID = uuid.New().String()
	stored.SubscribedAt = time.Now()
	stored.IsActive = true
	r.subscriptions[stored.Email] = stored

	return copySubscription(stored), nil
}

func (r *MemoryNewsletterRepository) GetByEmail(ctx context.Context, email string) (*models.NewsletterSubscription, error) {
	if err := checkContext(ctx); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.subscriptions[email]
	if !ok {
		return nil, models.ErrNotFound
	}
	return copySubscription(s), nil
}

func (r *MemoryNewsletterRepository) Deactivate(ctx context.Context, email string) (*models.NewsletterSubscription, error) {
	if err := checkContext(ctx); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.subscriptions[email]
	if !ok {
		return nil, models.ErrNotFound
	}
	s.IsActive = false
	return copySubscription(s), nil
}
