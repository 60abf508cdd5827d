package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/linisbayan/linisbayan/internal/dispatch"
	"github.com/linisbayan/linisbayan/internal/models"
	"github.com/linisbayan/linisbayan/pkg/crypto"
	apperrors "github.com/linisbayan/linisbayan/pkg/errors"
	"github.com/linisbayan/linisbayan/pkg/logger"
	"github.com/linisbayan/linisbayan/pkg/mail"
	"github.com/linisbayan/linisbayan/pkg/metrics"
)

// PasswordResetConfig controls reset link issuance.
type PasswordResetConfig struct {
	// BaseURL is the public URL of the web frontend the reset link points at.
	BaseURL     string
	TokenTTL    time.Duration
	TokenLength int
}

// PasswordResetService issues single-use reset links and applies resets.
type PasswordResetService struct {
	db     *gorm.DB
	mailer mail.Mailer
	cfg    PasswordResetConfig
	log    *zap.Logger
	now    func() time.Time
}

// NewPasswordResetService constructs a PasswordResetService.
func NewPasswordResetService(db *gorm.DB, mailer mail.Mailer, cfg PasswordResetConfig) (*PasswordResetService, error) {
	if db == nil {
		return nil, errors.New("password reset service: db is required")
	}
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = time.Hour
	}
	if cfg.TokenLength <= 0 {
		cfg.TokenLength = 48
	}
	return &PasswordResetService{
		db:     db,
		mailer: mailer,
		cfg:    cfg,
		log:    logger.WithModule("services.password_reset"),
		now:    time.Now,
	}, nil
}

func hashResetToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

// Request mails a reset link to the account behind the supplied email
// address. It never reveals whether an account exists: unknown addresses
// succeed silently.
func (s *PasswordResetService) Request(ctx context.Context, email string) error {
	ctx = ensureContext(ctx)

	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return apperrors.NewBadRequest("email is required")
	}

	var user models.User
	err := s.db.WithContext(ctx).Where("email = ?", email).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.log.Info("reset requested for unknown email")
			return nil
		}
		return fmt.Errorf("password reset service: load user: %w", err)
	}

	raw, err := crypto.GenerateToken(s.cfg.TokenLength)
	if err != nil {
		return fmt.Errorf("password reset service: generate token: %w", err)
	}

	record := models.PasswordResetToken{
		UserID:    user.ID,
		TokenHash: hashResetToken(raw),
		ExpiresAt: s.now().Add(s.cfg.TokenTTL),
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", user.ID).
			Delete(&models.PasswordResetToken{}).Error; err != nil {
			return err
		}
		return tx.Create(&record).Error
	})
	if err != nil {
		return fmt.Errorf("password reset service: store token: %w", err)
	}

	name := user.FullName
	if name == "" {
		name = user.Username
	}
	link := strings.TrimRight(s.cfg.BaseURL, "/") + "/reset-password?token=" + raw
	subject, html, err := dispatch.RenderPasswordResetEmail(name, user.Email, link, s.cfg.TokenTTL)
	if err != nil {
		return fmt.Errorf("password reset service: render email: %w", err)
	}

	if s.mailer == nil {
		return apperrors.NewFailedPrecondition("Email delivery is not configured")
	}
	if err := s.mailer.Send(ctx, mail.Message{To: []string{user.Email}, Subject: subject, HTML: html}); err != nil {
		if errors.Is(err, mail.ErrSMTPDisabled) {
			metrics.EmailsSent.WithLabelValues("skipped").Inc()
			return apperrors.NewFailedPrecondition("Email delivery is not configured")
		}
		metrics.EmailsSent.WithLabelValues("failed").Inc()
		return apperrors.Wrap(err, "Failed to send password reset email")
	}
	metrics.EmailsSent.WithLabelValues("sent").Inc()

	return nil
}

// Reset consumes a reset token and replaces the account password.
func (s *PasswordResetService) Reset(ctx context.Context, rawToken, newPassword string) error {
	ctx = ensureContext(ctx)

	rawToken = strings.TrimSpace(rawToken)
	if rawToken == "" {
		return apperrors.NewBadRequest("reset token is required")
	}
	if len(newPassword) < 8 {
		return apperrors.NewBadRequest("password must be at least 8 characters")
	}

	var record models.PasswordResetToken
	err := s.db.WithContext(ctx).
		Where("token_hash = ?", hashResetToken(rawToken)).
		First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.NewBadRequest("Invalid or expired reset link")
		}
		return fmt.Errorf("password reset service: load token: %w", err)
	}

	if !record.Usable(s.now()) {
		return apperrors.NewBadRequest("Invalid or expired reset link")
	}

	hash, err := crypto.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("password reset service: hash password: %w", err)
	}

	now := s.now().UTC()
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.PasswordResetToken{}).
			Where("id = ? AND used_at IS NULL", record.ID).
			Update("used_at", now)
		if res.Error != nil {
			return fmt.Errorf("password reset service: consume token: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return apperrors.NewBadRequest("Invalid or expired reset link")
		}

		if err := tx.Model(&models.User{}).
			Where("id = ?", record.UserID).
			Update("password", hash).Error; err != nil {
			return fmt.Errorf("password reset service: update password: %w", err)
		}
		return nil
	})
}
