package maintenance

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/linisbayan/linisbayan/internal/models"
	"github.com/linisbayan/linisbayan/pkg/logger"
)

const (
	defaultInterval      = time.Hour
	defaultReadRetention = 30 * 24 * time.Hour
)

// Cleaner periodically purges expired verification codes, spent password
// reset tokens and old read notifications.
type Cleaner struct {
	db        *gorm.DB
	cron      *cron.Cron
	now       func() time.Time
	log       *zap.Logger
	interval  time.Duration
	retention time.Duration
}

// Option customises the Cleaner.
type Option func(*Cleaner)

// WithCron injects a preconfigured cron instance, primarily for testing.
func WithCron(c *cron.Cron) Option {
	return func(cleaner *Cleaner) {
		if c != nil {
			cleaner.cron = c
		}
	}
}

// WithNow overrides the clock used for cleanup comparisons.
func WithNow(now func() time.Time) Option {
	return func(cleaner *Cleaner) {
		if now != nil {
			cleaner.now = now
		}
	}
}

// WithInterval overrides how often the cleanup jobs run.
func WithInterval(interval time.Duration) Option {
	return func(cleaner *Cleaner) {
		if interval > 0 {
			cleaner.interval = interval
		}
	}
}

// WithReadRetention adjusts how long read notifications are kept.
func WithReadRetention(retention time.Duration) Option {
	return func(cleaner *Cleaner) {
		if retention > 0 {
			cleaner.retention = retention
		}
	}
}

// NewCleaner constructs a Cleaner with sensible defaults.
func NewCleaner(db *gorm.DB, opts ...Option) (*Cleaner, error) {
	if db == nil {
		return nil, errors.New("maintenance: db is required")
	}

	cleaner := &Cleaner{
		db:        db,
		now:       time.Now,
		interval:  defaultInterval,
		retention: defaultReadRetention,
		log:       logger.WithModule("maintenance"),
	}

	for _, opt := range opts {
		opt(cleaner)
	}

	if cleaner.cron == nil {
		cleaner.cron = cron.New(cron.WithLogger(cron.DiscardLogger))
	}

	return cleaner, nil
}

// Start registers the cleanup job with the cron scheduler and launches it.
func (c *Cleaner) Start() error {
	spec := fmt.Sprintf("@every %s", c.interval)
	if _, err := c.cron.AddFunc(spec, func() {
		if err := c.RunOnce(context.Background()); err != nil {
			c.log.Warn("cleanup failed", zap.Error(err))
		}
	}); err != nil {
		return fmt.Errorf("maintenance: schedule cleanup: %w", err)
	}

	c.cron.Start()
	return nil
}

// Stop halts the scheduler, waiting for any running job to complete.
func (c *Cleaner) Stop() context.Context {
	if c.cron == nil {
		return context.Background()
	}
	return c.cron.Stop()
}

// RunOnce executes every cleanup routine sequentially and collects errors.
func (c *Cleaner) RunOnce(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	var errs error

	stats, err := CleanupRecords(ctx, c.db, c.now(), c.retention)
	if err != nil {
		errs = multierr.Append(errs, err)
	}

	if removed := stats.VerificationCodes + stats.ResetTokens + stats.Notifications; removed > 0 {
		c.log.Info("cleanup completed",
			zap.Int64("verification_codes", stats.VerificationCodes),
			zap.Int64("reset_tokens", stats.ResetTokens),
			zap.Int64("notifications", stats.Notifications),
		)
	}

	return errs
}

// CleanupStats captures the number of records removed per table.
type CleanupStats struct {
	VerificationCodes int64
	ResetTokens       int64
	Notifications     int64
}

// CleanupRecords removes expired verification codes, expired or consumed
// password reset tokens, and read notifications older than the retention
// window.
func CleanupRecords(ctx context.Context, db *gorm.DB, now time.Time, retention time.Duration) (CleanupStats, error) {
	if db == nil {
		return CleanupStats{}, errors.New("cleanup: db is required")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	stats := CleanupStats{}

	result := db.WithContext(ctx).
		Where("expires_at < ?", now).
		Delete(&models.VerificationCode{})
	if result.Error != nil {
		return stats, fmt.Errorf("cleanup: verification codes: %w", result.Error)
	}
	stats.VerificationCodes = result.RowsAffected

	result = db.WithContext(ctx).
		Where("expires_at < ? OR used_at IS NOT NULL", now).
		Delete(&models.PasswordResetToken{})
	if result.Error != nil {
		return stats, fmt.Errorf("cleanup: password reset tokens: %w", result.Error)
	}
	stats.ResetTokens = result.RowsAffected

	if retention > 0 {
		result = db.WithContext(ctx).
			Where("read = ? AND created_at < ?", true, now.Add(-retention)).
			Delete(&models.Notification{})
		if result.Error != nil {
			return stats, fmt.Errorf("cleanup: notifications: %w", result.Error)
		}
		stats.Notifications = result.RowsAffected
	}

	return stats, nil
}
