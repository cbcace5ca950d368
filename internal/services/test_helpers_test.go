package services

import (
	"context"
	"io"
	"log/slog"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/BradenHooton/cis-membership/internal/auth"
	"github.com/BradenHooton/cis-membership/internal/models"
	pkgauth "github.com/BradenHooton/cis-membership/pkg/auth"
	pkglogger "github.com/BradenHooton/cis-membership/pkg/logger"
	"golang.org/x/crypto/bcrypt"
)

func TestMain(m *testing.M) {
	pkgauth.BcryptCost = bcrypt.MinCost
	os.Exit(m.Run())
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testAuditLogger() *pkglogger.AuditLogger {
	return pkglogger.NewAuditLogger(testLogger())
}

func noDelay() *auth.TimingDelay {
	return auth.NewTimingDelay(auth.TimingConfig{})
}

// MockUserRepository implements UserRepository for testing
type MockUserRepository struct {
	CreateFunc                   func(ctx context.Context, user *models.User) (*models.User, error)
	GetByEmailFunc               func(ctx context.Context, email string) (*models.User, error)
	ExistsByEmailFunc            func(ctx context.Context, email string) (bool, error)
	ConsumeVerificationTokenFunc func(ctx context.Context, tokenHash string) (*models.User, error)
	SetResetOTPFunc              func(ctx context.Context, email, otp string, expiresAt time.Time) error
	ResetPasswordFunc            func(ctx context.Context, email, otp, passwordHash string, now time.Time) error
}

func (m *MockUserRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, user)
	}
	return nil, models.ErrInternalServer
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	if m.GetByEmailFunc != nil {
		return m.GetByEmailFunc(ctx, email)
	}
	return nil, models.ErrNotFound
}

func (m *MockUserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	if m.ExistsByEmailFunc != nil {
		return m.ExistsByEmailFunc(ctx, email)
	}
	return false, nil
}

func (m *MockUserRepository) ConsumeVerificationToken(ctx context.Context, tokenHash string) (*models.User, error) {
	if m.ConsumeVerificationTokenFunc != nil {
		return m.ConsumeVerificationTokenFunc(ctx, tokenHash)
	}
	return nil, models.ErrNotFound
}

func (m *MockUserRepository) SetResetOTP(ctx context.Context, email, otp string, expiresAt time.Time) error {
	if m.SetResetOTPFunc != nil {
		return m.SetResetOTPFunc(ctx, email, otp, expiresAt)
	}
	return nil
}

func (m *MockUserRepository) ResetPassword(ctx context.Context, email, otp, passwordHash string, now time.Time) error {
	if m.ResetPasswordFunc != nil {
		return m.ResetPasswordFunc(ctx, email, otp, passwordHash, now)
	}
	return nil
}

// MockMembershipRepository implements MembershipRepository for testing
type MockMembershipRepository struct {
	CreateFunc              func(ctx context.Context, m *models.Membership) (*models.Membership, error)
	GetByMembershipIDFunc   func(ctx context.Context, membershipID string) (*models.Membership, error)
	GetLatestByEmailFunc    func(ctx context.Context, email string) (*models.Membership, error)
	UpdatePaymentStatusFunc func(ctx context.Context, membershipID, status string) (*models.Membership, error)
}

func (m *MockMembershipRepository) Create(ctx context.Context, ms *models.Membership) (*models.Membership, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, ms)
	}
	return nil, models.ErrInternalServer
}

func (m *MockMembershipRepository) GetByMembershipID(ctx context.Context, membershipID string) (*models.Membership, error) {
	if m.GetByMembershipIDFunc != nil {
		return m.GetByMembershipIDFunc(ctx, membershipID)
	}
	return nil, models.ErrNotFound
}

func (m *MockMembershipRepository) GetLatestByEmail(ctx context.Context, email string) (*models.Membership, error) {
	if m.GetLatestByEmailFunc != nil {
		return m.GetLatestByEmailFunc(ctx, email)
	}
	return nil, models.ErrNotFound
}

func (m *MockMembershipRepository) UpdatePaymentStatus(ctx context.Context, membershipID, status string) (*models.Membership, error) {
	if m.UpdatePaymentStatusFunc != nil {
		return m.UpdatePaymentStatusFunc(ctx, membershipID, status)
	}
	return nil, models.ErrNotFound
}

// MockNotifier records notifications instead of sending them
type MockNotifier struct {
	mu            sync.Mutex
	Verifications map[string]string // email -> token
	ResetOTPs     map[string]string // email -> otp
	Memberships   []*models.Membership
	Newsletters   []*models.NewsletterSubscription
}

func NewMockNotifier() *MockNotifier {
	return &MockNotifier{
		Verifications: make(map[string]string),
		ResetOTPs:     make(map[string]string),
	}
}

func (n *MockNotifier) SendVerification(_ context.Context, email, token string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.Verifications[email] = token
}

func (n *MockNotifier) SendResetOTP(_ context.Context, email, otp string, _ time.Time) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.ResetOTPs[email] = otp
}

func (n *MockNotifier) SendMembershipConfirmation(_ context.Context, m *models.Membership) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.Memberships = append(n.Memberships, m)
}

func (n *MockNotifier) SendNewsletterWelcome(_ context.Context, s *models.NewsletterSubscription) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.Newsletters = append(n.Newsletters, s)
}

// MockMailer implements Mailer for testing
type MockMailer struct {
	mu       sync.Mutex
	SendFunc func(ctx context.Context, msg Message) error
	Sent     []Message
}

func (m *MockMailer) Send(ctx context.Context, msg Message) error {
	m.mu.Lock()
	m.Sent = append(m.Sent, msg)
	m.mu.Unlock()
	if m.SendFunc != nil {
		return m.SendFunc(ctx, msg)
	}
	return nil
}

func (m *MockMailer) Messages() []Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Message(nil), m.Sent...)
}

type staticOTP string

func (s staticOTP) Generate() (string, error) { return string(s), nil }

func mustHash(t *testing.T, password string) string {
	t.Helper()
	hash, err := pkgauth.HashPassword(password)
	if err != nil {
		t.Fatal(err)
	}
	return hash
}
