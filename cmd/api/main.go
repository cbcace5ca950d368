package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/BradenHooton/cis-membership/internal/auth"
	"github.com/BradenHooton/cis-membership/internal/background"
	"github.com/BradenHooton/cis-membership/internal/config"
	"github.com/BradenHooton/cis-membership/internal/database"
	"github.com/BradenHooton/cis-membership/internal/handlers"
	"github.com/BradenHooton/cis-membership/internal/repositories"
	"github.com/BradenHooton/cis-membership/internal/routes"
	"github.com/BradenHooton/cis-membership/internal/services"
	pkghttp "github.com/BradenHooton/cis-membership/pkg/http"
	pkglogger "github.com/BradenHooton/cis-membership/pkg/logger"
)

const shutdownTimeout = 30 * time.Second

// stores bundles the persistence backends selected by STORE
type stores struct {
	users interface {
		services.UserRepository
		background.ResetOTPStore
	}
	memberships services.MembershipRepository
	newsletter  services.NewsletterRepository
	health      routes.HealthChecker
	close       func()
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: parseLevel(cfg.Server.LogLevel)}))
	slog.SetDefault(logger)

	logger.Info("configuration loaded",
		slog.String("env", cfg.Server.Env),
		slog.String("store", cfg.Server.Store),
		slog.String("email_provider", cfg.Email.Provider),
	)

	st, err := openStores(cfg, logger)
	if err != nil {
		logger.Error("failed to initialize storage", slog.Any("error", err))
		os.Exit(1)
	}
	defer st.close()

	mailer, err := newMailer(cfg, logger)
	if err != nil {
		logger.Error("failed to initialize email service", slog.Any("error", err))
		os.Exit(1)
	}
	dispatcher := services.NewNotificationDispatcher(mailer, cfg.Email.FrontendURL, cfg.Email.SendTimeout, logger)

	tokenManager := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.SessionTokenExpiry)
	timingDelay := auth.NewTimingDelay(auth.TimingConfig{
		BaseDelayMs:   cfg.Auth.TimingDelayBaseMs,
		RandomDelayMs: cfg.Auth.TimingDelayRandomMs,
	})
	auditLogger := pkglogger.NewAuditLogger(logger)

	authService := services.NewAuthService(st.users, tokenManager, dispatcher, timingDelay,
		cfg.Auth.RegistrationTimeout, logger, auditLogger)
	resetService := services.NewPasswordResetService(st.users, auth.NewOTPGenerator(), dispatcher,
		cfg.Auth.OTPExpiry, logger, auditLogger)
	membershipService := services.NewMembershipService(st.memberships, dispatcher, cfg.Email.FrontendURL, logger)
	newsletterService := services.NewNewsletterService(st.newsletter, dispatcher, logger)

	router := routes.NewRouter(routes.Config{
		Env:                cfg.Server.Env,
		AllowedOrigins:     cfg.Server.AllowedOrigins,
		RateLimitPerMinute: cfg.Server.RateLimitPerMinute,
		RequestTimeout:     cfg.Server.RequestTimeout,
		IPConfig:           &pkghttp.IPConfig{TrustedProxies: cfg.Server.TrustedProxies},
	}, routes.Handlers{
		Auth:          handlers.NewAuthHandler(authService, logger),
		PasswordReset: handlers.NewPasswordResetHandler(resetService, logger),
		Membership:    handlers.NewMembershipHandler(membershipService, logger),
		Newsletter:    handlers.NewNewsletterHandler(newsletterService, logger),
	}, tokenManager, st.health, logger)

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	cleanupManager := background.NewCleanupManager(st.users, logger, cfg.Auth.OTPCleanupInterval, cfg.Auth.OTPCleanupGrace)
	cleanupCtx, cleanupCancel := context.WithCancel(context.Background())
	defer cleanupCancel()

	go cleanupManager.Start(cleanupCtx)

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("starting server", slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	exitCode := 0
	select {
	case sig := <-sigChan:
		logger.Info("shutdown signal received", slog.String("signal", sig.String()))
	case err := <-serverErr:
		logger.Error("server error", slog.Any("error", err))
		exitCode = 1
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", slog.Any("error", err))
		exitCode = 1
	}

	// requests are drained; flush mail they queued before closing the store
	if err := dispatcher.Wait(shutdownCtx); err != nil {
		logger.Warn("pending notifications abandoned", slog.Any("error", err))
	}

	cleanupCancel()
	cleanupManager.Stop()

	logger.Info("server stopped gracefully")
	if exitCode != 0 {
		st.close()
		os.Exit(exitCode)
	}
}

func openStores(cfg *config.Config, logger *slog.Logger) (*stores, error) {
	switch cfg.Server.Store {
	case config.StoreMemory:
		logger.Warn("using in-memory storage, data is lost on restart")
		return &stores{
			users:       repositories.NewMemoryUserRepository(),
			memberships: repositories.NewMemoryMembershipRepository(),
			newsletter:  repositories.NewMemoryNewsletterRepository(),
			close:       func() {},
		}, nil
	case config.StorePostgres:
		db, err := database.NewConnection(&cfg.Database, logger)
		if err != nil {
			return nil, err
		}
		return &stores{
			users:       repositories.NewUserRepository(db),
			memberships: repositories.NewMembershipRepository(db),
			newsletter:  repositories.NewNewsletterRepository(db),
			health:      db,
			close:       db.Close,
		}, nil
	default:
		return nil, fmt.Errorf("unknown store %q", cfg.Server.Store)
	}
}

func newMailer(cfg *config.Config, logger *slog.Logger) (services.Mailer, error) {
	switch cfg.Email.Provider {
	case config.EmailProviderLog:
		return services.NewLogEmailService(logger), nil
	case config.EmailProviderSES:
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return services.NewAWSSESEmailService(ctx, cfg.Email.AWSRegion, cfg.Email.FromAddress, logger)
	default:
		return nil, fmt.Errorf("unknown email provider %q", cfg.Email.Provider)
	}
}

func parseLevel(s string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo
	}
	return level
}
