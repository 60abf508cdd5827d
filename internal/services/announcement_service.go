package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/linisbayan/linisbayan/internal/dispatch"
	"github.com/linisbayan/linisbayan/internal/models"
	apperrors "github.com/linisbayan/linisbayan/pkg/errors"
	"github.com/linisbayan/linisbayan/pkg/logger"
)

// CreateAnnouncementInput defines attributes for publishing an announcement.
type CreateAnnouncementInput struct {
	Title       string
	Subtitle    string
	Description string
	Location    string
	Date        *time.Time
	Barangay    string
}

// AnnouncementService manages admin announcements.
type AnnouncementService struct {
	db         *gorm.DB
	dispatcher *dispatch.Dispatcher
	log        *zap.Logger
}

// NewAnnouncementService constructs an AnnouncementService.
func NewAnnouncementService(db *gorm.DB, dispatcher *dispatch.Dispatcher) (*AnnouncementService, error) {
	if db == nil {
		return nil, errors.New("announcement service: db is required")
	}
	if dispatcher == nil {
		return nil, errors.New("announcement service: dispatcher is required")
	}
	return &AnnouncementService{
		db:         db,
		dispatcher: dispatcher,
		log:        logger.WithModule("services.announcement"),
	}, nil
}

// Create publishes an announcement and fans it out to its audience.
// Barangay admins always publish to their own barangay; only main admins can
// publish city-wide or to another barangay.
func (s *AnnouncementService) Create(ctx context.Context, author *models.User, input CreateAnnouncementInput) (*models.Announcement, error) {
	ctx = ensureContext(ctx)

	if author == nil || !author.IsAdmin() {
		return nil, apperrors.ErrForbidden
	}

	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, apperrors.NewBadRequest("title is required")
	}

	barangay := strings.TrimSpace(input.Barangay)
	if !author.IsMainAdmin() {
		barangay = author.Barangay
	}

	authorName := author.FullName
	if authorName == "" {
		authorName = author.Username
	}

	announcement := models.Announcement{
		Title:       title,
		Subtitle:    strings.TrimSpace(input.Subtitle),
		Description: strings.TrimSpace(input.Description),
		Location:    strings.TrimSpace(input.Location),
		Date:        input.Date,
		Barangay:    barangay,
		AuthorID:    author.ID,
		AuthorName:  authorName,
	}

	if err := s.db.WithContext(ctx).Create(&announcement).Error; err != nil {
		return nil, fmt.Errorf("announcement service: create announcement: %w", err)
	}

	if err := s.dispatcher.AnnouncementCreated(ctx, &announcement); err != nil {
		s.log.Error("dispatch announcement", zap.String("announcement_id", announcement.ID), zap.Error(err))
	}

	return &announcement, nil
}

// List returns the announcements visible to a barangay: city-wide ones plus
// those targeted at it. An empty barangay lists everything.
func (s *AnnouncementService) List(ctx context.Context, barangay string, limit, offset int) ([]models.Announcement, error) {
	ctx = ensureContext(ctx)

	query := s.db.WithContext(ctx).Model(&models.Announcement{})
	if barangay = strings.TrimSpace(barangay); barangay != "" {
		query = query.Where("barangay = ? OR barangay = ''", barangay)
	}

	if limit <= 0 || limit > 100 {
		limit = 25
	}
	if offset < 0 {
		offset = 0
	}

	var announcements []models.Announcement
	if err := query.Order("created_at DESC").Limit(limit).Offset(offset).Find(&announcements).Error; err != nil {
		return nil, fmt.Errorf("announcement service: list announcements: %w", err)
	}
	return announcements, nil
}

// GetByID loads one announcement.
func (s *AnnouncementService) GetByID(ctx context.Context, id string) (*models.Announcement, error) {
	ctx = ensureContext(ctx)

	var announcement models.Announcement
	err := s.db.WithContext(ctx).Where("id = ?", strings.TrimSpace(id)).First(&announcement).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("announcement service: load announcement: %w", err)
	}
	return &announcement, nil
}

// Delete removes an announcement. Main admins can delete any; barangay
// admins only those targeting their barangay.
func (s *AnnouncementService) Delete(ctx context.Context, caller *models.User, id string) error {
	ctx = ensureContext(ctx)

	if caller == nil || !caller.IsAdmin() {
		return apperrors.ErrForbidden
	}

	announcement, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if !caller.IsMainAdmin() && announcement.Barangay != caller.Barangay {
		return apperrors.NewForbidden("You can only delete announcements for your barangay")
	}

	if err := s.db.WithContext(ctx).Delete(&models.Announcement{}, "id = ?", announcement.ID).Error; err != nil {
		return fmt.Errorf("announcement service: delete announcement: %w", err)
	}
	return nil
}
