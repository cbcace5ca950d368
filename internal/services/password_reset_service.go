package services

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/BradenHooton/cis-membership/internal/auth"
	"github.com/BradenHooton/cis-membership/internal/models"
	pkgauth "github.com/BradenHooton/cis-membership/pkg/auth"
	pkglogger "github.com/BradenHooton/cis-membership/pkg/logger"
)

// OTPSource produces reset codes.
type OTPSource interface {
	Generate() (string, error)
}

// PasswordResetService drives the OTP reset flow: request, optional
// verification, reset. A successful reset clears the stored code.
type PasswordResetService struct {
	repo        UserRepository
	otp         OTPSource
	notifier    Notifier
	expiry      time.Duration
	now         func() time.Time
	logger      *slog.Logger
	auditLogger *pkglogger.AuditLogger
}

func NewPasswordResetService(repo UserRepository, otp OTPSource, notifier Notifier, expiry time.Duration, logger *slog.Logger, auditLogger *pkglogger.AuditLogger) *PasswordResetService {
	return &PasswordResetService{
		repo:        repo,
		otp:         otp,
		notifier:    notifier,
		expiry:      expiry,
		now:         time.Now,
		logger:      logger,
		auditLogger: auditLogger,
	}
}

// RequestReset issues a fresh code for email, replacing any earlier one.
func (s *PasswordResetService) RequestReset(ctx context.Context, email string) error {
	email = strings.TrimSpace(email)

	if _, err := s.repo.GetByEmail(ctx, email); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return models.ErrIdentityNotFound
		}
		return storeError("failed to get user by email", err)
	}

	code, err := s.otp.Generate()
	if err != nil {
		return err
	}
	expiresAt := s.now().Add(s.expiry)

	if err := s.repo.SetResetOTP(ctx, email, code, expiresAt); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return models.ErrIdentityNotFound
		}
		return storeError("failed to store reset OTP", err)
	}

	s.notifier.SendResetOTP(ctx, email, code, expiresAt)

	s.auditLogger.Log(ctx, pkglogger.AuditEvent{
		EventType: "password_reset_requested",
		Email:     email,
		Success:   true,
	})

	return nil
}

// VerifyOTP reports whether code is the current, unexpired code for email.
// It never modifies state.
func (s *PasswordResetService) VerifyOTP(ctx context.Context, email, code string) error {
	user, err := s.repo.GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return models.ErrInvalidOrExpiredOTP
		}
		return storeError("failed to get user by email", err)
	}

	if user.ResetOTP == nil || !auth.OTPEqual(*user.ResetOTP, code) || !user.HasActiveResetOTP(s.now()) {
		return models.ErrInvalidOrExpiredOTP
	}

	return nil
}

// ResetPassword sets a new password once the code checks out. Checks run in
// order: identity, code match, expiry.
func (s *PasswordResetService) ResetPassword(ctx context.Context, email, code, newPassword string) error {
	email = strings.TrimSpace(email)
	now := s.now()

	user, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return models.ErrIdentityNotFound
		}
		return storeError("failed to get user by email", err)
	}

	if user.ResetOTP == nil || !auth.OTPEqual(*user.ResetOTP, code) {
		s.resetFailed(ctx, email, "invalid_otp")
		return models.ErrInvalidOTP
	}
	if !user.HasActiveResetOTP(now) {
		s.resetFailed(ctx, email, "otp_expired")
		return models.ErrOTPExpired
	}

	passwordHash, err := pkgauth.HashPassword(newPassword)
	if err != nil {
		return hashError(err)
	}

	// hashing is slow; the write checks expiry against the time it runs
	now = s.now()
	if err := s.repo.ResetPassword(ctx, email, code, passwordHash, now); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			if !user.HasActiveResetOTP(now) {
				s.resetFailed(ctx, email, "otp_expired")
				return models.ErrOTPExpired
			}
			// the code was consumed or replaced since it was read
			s.resetFailed(ctx, email, "otp_consumed")
			return models.ErrInvalidOTP
		}
		return storeError("failed to reset password", err)
	}

	s.logger.Info("password reset", slog.String("user_id", user.ID))
	s.auditLogger.Log(ctx, pkglogger.AuditEvent{
		EventType: "password_reset",
		Email:     email,
		Success:   true,
	})

	return nil
}

func (s *PasswordResetService) resetFailed(ctx context.Context, email, reason string) {
	s.auditLogger.Log(ctx, pkglogger.AuditEvent{
		EventType:     "password_reset_failed",
		Email:         email,
		FailureReason: reason,
	})
}
