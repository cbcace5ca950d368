package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/BradenHooton/cis-membership/internal/auth"
	"github.com/BradenHooton/cis-membership/internal/models"
	pkgauth "github.com/BradenHooton/cis-membership/pkg/auth"
	pkglogger "github.com/BradenHooton/cis-membership/pkg/logger"
)

// UserRepository is the credential store used by the auth and password reset services.
type UserRepository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	ConsumeVerificationToken(ctx context.Context, tokenHash string) (*models.User, error)
	SetResetOTP(ctx context.Context, email, otp string, expiresAt time.Time) error
	ResetPassword(ctx context.Context, email, otp, passwordHash string, now time.Time) error
}

// TokenIssuer issues session tokens.
type TokenIssuer interface {
	Issue(email string) (string, error)
}

// AuthService handles registration, verification and login
type AuthService struct {
	repo                UserRepository
	tokens              TokenIssuer
	notifier            Notifier
	timing              *auth.TimingDelay
	registrationTimeout time.Duration
	logger              *slog.Logger
	auditLogger         *pkglogger.AuditLogger
}

// NewAuthService creates a new AuthService
func NewAuthService(repo UserRepository, tokens TokenIssuer, notifier Notifier, timing *auth.TimingDelay, registrationTimeout time.Duration, logger *slog.Logger, auditLogger *pkglogger.AuditLogger) *AuthService {
	return &AuthService{
		repo:                repo,
		tokens:              tokens,
		notifier:            notifier,
		timing:              timing,
		registrationTimeout: registrationTimeout,
		logger:              logger,
		auditLogger:         auditLogger,
	}
}

// RegisterResult is returned by a successful registration.
type RegisterResult struct {
	Token string
	User  *models.User
}

// LoginResult is returned by a successful login.
type LoginResult struct {
	Token string
	User  *models.User
}

// storeError folds deadline failures into models.ErrTimeout and leaves
// everything else wrapped with op.
func storeError(op string, err error) error {
	if errors.Is(err, models.ErrTimeout) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s: %w", op, models.ErrTimeout)
	}
	return fmt.Errorf("%s: %w", op, err)
}

// hashError marks password-shape failures as bad requests.
func hashError(err error) error {
	if errors.Is(err, pkgauth.ErrEmptyPassword) || errors.Is(err, pkgauth.ErrPasswordTooLong) {
		return fmt.Errorf("%w: %v", models.ErrBadRequest, err)
	}
	return fmt.Errorf("failed to hash password: %w", err)
}

// Register creates an unverified identity and returns a session token. The
// whole operation is bounded by the registration timeout; the deadline is
// honoured by every store call, and once the insert commits the result is
// returned regardless of the remaining budget.
func (s *AuthService) Register(ctx context.Context, email, password string) (*RegisterResult, error) {
	email = strings.TrimSpace(email)

	ctx, cancel := context.WithTimeout(ctx, s.registrationTimeout)
	defer cancel()

	exists, err := s.repo.ExistsByEmail(ctx, email)
	if err != nil {
		return nil, storeError("failed to check existing user", err)
	}
	if exists {
		s.auditLogger.Log(ctx, pkglogger.AuditEvent{
			EventType:     "register_failed",
			Email:         email,
			FailureReason: "duplicate_identity",
		})
		return nil, models.ErrDuplicateIdentity
	}

	passwordHash, err := pkgauth.HashPassword(password)
	if err != nil {
		return nil, hashError(err)
	}

	token, err := pkgauth.GenerateVerificationToken()
	if err != nil {
		return nil, err
	}
	tokenHash := pkgauth.HashToken(token)

	user, err := s.repo.Create(ctx, &models.User{
		Email:                 email,
		PasswordHash:          passwordHash,
		VerificationTokenHash: &tokenHash,
	})
	if err != nil {
		if errors.Is(err, models.ErrConflict) {
			return nil, models.ErrDuplicateIdentity
		}
		return nil, storeError("failed to create user", err)
	}

	sessionToken, err := s.tokens.Issue(user.Email)
	if err != nil {
		return nil, err
	}

	s.notifier.SendVerification(ctx, user.Email, token)

	s.logger.Info("user registered", slog.String("user_id", user.ID))
	s.auditLogger.Log(ctx, pkglogger.AuditEvent{
		EventType: "register",
		Email:     user.Email,
		Success:   true,
	})

	return &RegisterResult{Token: sessionToken, User: user}, nil
}

// VerifyEmail consumes a verification token. A token works exactly once.
func (s *AuthService) VerifyEmail(ctx context.Context, token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return models.ErrInvalidToken
	}

	user, err := s.repo.ConsumeVerificationToken(ctx, pkgauth.HashToken(token))
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			s.auditLogger.Log(ctx, pkglogger.AuditEvent{
				EventType:     "verify_email_failed",
				FailureReason: "invalid_token",
			})
			return models.ErrInvalidToken
		}
		return storeError("failed to consume verification token", err)
	}

	s.logger.Info("email verified", slog.String("user_id", user.ID))
	s.auditLogger.Log(ctx, pkglogger.AuditEvent{
		EventType: "verify_email",
		Email:     user.Email,
		Success:   true,
	})

	return nil
}

// Login checks credentials and returns a session token. Email verification
// is not required. Failures are padded by the timing delay.
func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	start := time.Now()
	email = strings.TrimSpace(email)

	user, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			s.loginFailed(ctx, start, email, "identity_not_found")
			return nil, models.ErrIdentityNotFound
		}
		return nil, storeError("failed to get user by email", err)
	}

	if err := pkgauth.ComparePassword(user.PasswordHash, password); err != nil {
		s.loginFailed(ctx, start, email, "invalid_credentials")
		return nil, models.ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(user.Email)
	if err != nil {
		return nil, err
	}

	s.logger.Info("user logged in", slog.String("user_id", user.ID))
	s.auditLogger.Log(ctx, pkglogger.AuditEvent{
		EventType: "login",
		Email:     user.Email,
		Success:   true,
	})

	return &LoginResult{Token: token, User: user}, nil
}

func (s *AuthService) loginFailed(ctx context.Context, start time.Time, email, reason string) {
	s.auditLogger.Log(ctx, pkglogger.AuditEvent{
		EventType:     "login_failed",
		Email:         email,
		FailureReason: reason,
	})
	s.timing.WaitFrom(ctx, start, false)
}

// Me returns the identity a session token was issued for.
func (s *AuthService) Me(ctx context.Context, email string) (*models.User, error) {
	user, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrIdentityNotFound
		}
		return nil, storeError("failed to get user by email", err)
	}
	return user, nil
}
