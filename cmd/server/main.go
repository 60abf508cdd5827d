package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/linisbayan/linisbayan/internal/api"
	"github.com/linisbayan/linisbayan/internal/app"
	"github.com/linisbayan/linisbayan/internal/app/maintenance"
	iauth "github.com/linisbayan/linisbayan/internal/auth"
	"github.com/linisbayan/linisbayan/internal/database"
	"github.com/linisbayan/linisbayan/internal/dispatch"
	"github.com/linisbayan/linisbayan/internal/notifications"
	"github.com/linisbayan/linisbayan/internal/services"
	"github.com/linisbayan/linisbayan/pkg/logger"
	"github.com/linisbayan/linisbayan/pkg/mail"
)

const shutdownTimeout = 15 * time.Second

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()

	if err := run(ctx, os.Args[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("linisbayan-server", flag.ContinueOnError)
	fs.SetOutput(os.Stdout)

	var configPath string
	fs.StringVar(&configPath, "config", "", "Path to configuration directory")

	if err := fs.Parse(args); err != nil {
		return err
	}

	var cfg *app.Config
	var err error
	if configPath != "" {
		cfg, err = app.LoadConfig(configPath)
	} else {
		cfg, err = app.LoadConfig()
	}
	if err != nil {
		return err
	}

	if cfg.Auth.JWT.Secret == "" {
		return errors.New("auth.jwt.secret must be configured")
	}

	if err := app.ConfigureLogging(cfg.Server.LogLevel); err != nil {
		return fmt.Errorf("configure logging: %w", err)
	}
	defer logger.Sync() // best effort

	log := logger.WithModule("bootstrap")

	db, err := database.Open(cfg.Database.DatabaseSettings())
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer closeDatabase(db, log)

	if err := database.AutoMigrateAndSeed(db); err != nil {
		return fmt.Errorf("migrate database: %w", err)
	}

	mailer, err := mail.NewSMTPMailer(cfg.Email.SMTPSettings())
	if err != nil {
		return fmt.Errorf("initialise mailer: %w", err)
	}
	if !cfg.Email.SMTP.Enabled {
		log.Warn("smtp disabled; outbound email will be skipped")
	}

	jwtService, err := iauth.NewJWTService(cfg.Auth.JWTServiceConfig())
	if err != nil {
		return fmt.Errorf("initialise jwt service: %w", err)
	}

	hub := notifications.NewHub()
	defer hub.Close()

	dispatcher, err := dispatch.NewDispatcher(db, mailer, hub)
	if err != nil {
		return fmt.Errorf("initialise dispatcher: %w", err)
	}

	verificationSvc, err := services.NewVerificationService(db, mailer, cfg.Auth.VerificationCodeTTL())
	if err != nil {
		return fmt.Errorf("initialise verification service: %w", err)
	}

	passwordResetSvc, err := services.NewPasswordResetService(db, mailer, services.PasswordResetConfig{
		BaseURL:     cfg.Server.BaseURL,
		TokenTTL:    cfg.Auth.ResetTokenTTL(),
		TokenLength: cfg.Auth.ResetTokenLength(),
	})
	if err != nil {
		return fmt.Errorf("initialise password reset service: %w", err)
	}

	if cfg.Maintenance.Enabled {
		cleaner, err := maintenance.NewCleaner(db,
			maintenance.WithInterval(cfg.Maintenance.Interval),
			maintenance.WithReadRetention(cfg.Notifications.ReadRetention),
		)
		if err != nil {
			return fmt.Errorf("initialise maintenance: %w", err)
		}
		if err := cleaner.Start(); err != nil {
			return fmt.Errorf("start maintenance jobs: %w", err)
		}
		defer func() {
			<-cleaner.Stop().Done()
		}()
	}

	router, err := api.NewRouter(db, cfg, api.Dependencies{
		JWT:           jwtService,
		Dispatcher:    dispatcher,
		Hub:           hub,
		Verification:  verificationSvc,
		PasswordReset: passwordResetSvc,
	})
	if err != nil {
		return fmt.Errorf("build api router: %w", err)
	}

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info("server listening", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received")
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("graceful shutdown: %w", err)
	}

	if err, ok := <-serverErr; ok && err != nil {
		return fmt.Errorf("server error: %w", err)
	}

	log.Info("server stopped gracefully")
	return nil
}

func closeDatabase(db *gorm.DB, log *zap.Logger) {
	sqlDB, err := db.DB()
	if err != nil {
		log.Warn("acquire database handle", zap.Error(err))
		return
	}
	if err := sqlDB.Close(); err != nil {
		log.Warn("close database", zap.Error(err))
	}
}
