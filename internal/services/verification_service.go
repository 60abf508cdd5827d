package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/linisbayan/linisbayan/internal/dispatch"
	"github.com/linisbayan/linisbayan/internal/models"
	"github.com/linisbayan/linisbayan/pkg/crypto"
	apperrors "github.com/linisbayan/linisbayan/pkg/errors"
	"github.com/linisbayan/linisbayan/pkg/mail"
	"github.com/linisbayan/linisbayan/pkg/metrics"
)

// VerificationService issues and checks the 6-digit codes mailed for email
// verification and password changes.
type VerificationService struct {
	db     *gorm.DB
	mailer mail.Mailer
	ttl    time.Duration
	now    func() time.Time
}

// NewVerificationService constructs a VerificationService.
func NewVerificationService(db *gorm.DB, mailer mail.Mailer, ttl time.Duration) (*VerificationService, error) {
	if db == nil {
		return nil, errors.New("verification service: db is required")
	}
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &VerificationService{
		db:     db,
		mailer: mailer,
		ttl:    ttl,
		now:    time.Now,
	}, nil
}

func validPurpose(purpose string) bool {
	switch purpose {
	case models.VerificationPurposeEmail, models.VerificationPurposePasswordChange:
		return true
	}
	return false
}

// Issue generates a fresh code for the user and purpose, replacing any
// previous one, and mails it. A user without an email address cannot be sent
// a code.
func (s *VerificationService) Issue(ctx context.Context, user *models.User, purpose string) error {
	ctx = ensureContext(ctx)

	if user == nil {
		return apperrors.ErrUnauthorized
	}
	if !validPurpose(purpose) {
		return apperrors.NewBadRequest("unknown verification purpose")
	}
	if strings.TrimSpace(user.Email) == "" {
		return apperrors.NewFailedPrecondition("User email not found")
	}

	code, err := crypto.GenerateVerificationCode()
	if err != nil {
		return fmt.Errorf("verification service: generate code: %w", err)
	}

	record := models.VerificationCode{
		UserID:    user.ID,
		Purpose:   purpose,
		Code:      code,
		Email:     user.Email,
		ExpiresAt: s.now().Add(s.ttl),
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ? AND purpose = ?", user.ID, purpose).
			Delete(&models.VerificationCode{}).Error; err != nil {
			return err
		}
		return tx.Create(&record).Error
	})
	if err != nil {
		return fmt.Errorf("verification service: store code: %w", err)
	}

	name := user.FullName
	if name == "" {
		name = user.Username
	}
	subject, html, err := dispatch.RenderVerificationEmail(purpose, name, code, s.ttl)
	if err != nil {
		return fmt.Errorf("verification service: render email: %w", err)
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
		return apperrors.Wrap(err, "Failed to send verification code")
	}
	metrics.EmailsSent.WithLabelValues("sent").Inc()

	return nil
}

// Verify checks a submitted code. On success for the email purpose the
// user's address is marked verified. Codes are single-use: success, expiry
// and attempt exhaustion all remove the stored record.
func (s *VerificationService) Verify(ctx context.Context, user *models.User, purpose, code string) error {
	ctx = ensureContext(ctx)

	if user == nil {
		return apperrors.ErrUnauthorized
	}
	if !validPurpose(purpose) {
		return apperrors.NewBadRequest("unknown verification purpose")
	}
	code = strings.TrimSpace(code)
	if code == "" {
		return apperrors.NewBadRequest("Verification code is required")
	}

	var record models.VerificationCode
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND purpose = ?", user.ID, purpose).
		First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			metrics.VerificationAttempts.WithLabelValues(purpose, "missing").Inc()
			return apperrors.NewFailedPrecondition("No verification code found. Please request a new code.")
		}
		return fmt.Errorf("verification service: load code: %w", err)
	}

	if record.Expired(s.now()) {
		s.discard(ctx, &record)
		metrics.VerificationAttempts.WithLabelValues(purpose, "expired").Inc()
		return apperrors.NewFailedPrecondition("Verification code has expired. Please request a new code.")
	}

	attempts := record.Attempts + 1
	if attempts > models.MaxVerificationAttempts {
		s.discard(ctx, &record)
		metrics.VerificationAttempts.WithLabelValues(purpose, "exhausted").Inc()
		return apperrors.NewFailedPrecondition("Too many failed attempts. Please request a new code.")
	}

	if err := s.db.WithContext(ctx).Model(&record).Update("attempts", attempts).Error; err != nil {
		return fmt.Errorf("verification service: record attempt: %w", err)
	}

	if record.Code != code {
		metrics.VerificationAttempts.WithLabelValues(purpose, "mismatch").Inc()
		remaining := models.MaxVerificationAttempts - attempts
		return apperrors.NewBadRequest(fmt.Sprintf("Invalid code. %d attempts remaining.", remaining))
	}

	if purpose == models.VerificationPurposeEmail {
		now := s.now().UTC()
		err := s.db.WithContext(ctx).Model(&models.User{}).
			Where("id = ?", user.ID).
			Updates(map[string]any{
				"email_verified":    true,
				"email_verified_at": now,
			}).Error
		if err != nil {
			return fmt.Errorf("verification service: mark verified: %w", err)
		}
		user.EmailVerified = true
		user.EmailVerifiedAt = &now
	}

	s.discard(ctx, &record)
	metrics.VerificationAttempts.WithLabelValues(purpose, "success").Inc()
	return nil
}

func (s *VerificationService) discard(ctx context.Context, record *models.VerificationCode) {
	_ = s.db.WithContext(ctx).Delete(&models.VerificationCode{}, "id = ?", record.ID).Error
}
