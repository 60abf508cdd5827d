package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/linisbayan/linisbayan/internal/dispatch"
	"github.com/linisbayan/linisbayan/internal/models"
	apperrors "github.com/linisbayan/linisbayan/pkg/errors"
	"github.com/linisbayan/linisbayan/pkg/logger"
)

// CreateReportInput defines attributes for submitting a pollution report.
type CreateReportInput struct {
	Type        string
	Location    string
	Latitude    float64
	Longitude   float64
	Description string
	Barangay    string
	Images      []string
}

// ListReportsInput filters the report listing.
type ListReportsInput struct {
	Barangay   string
	Status     string
	Type       string
	ReporterID string
	Approved   *bool
	Limit      int
	Offset     int
}

// ReportService manages pollution reports and feeds every mutation into the
// notification dispatcher. Dispatch failures are logged and never roll back
// the underlying write.
type ReportService struct {
	db         *gorm.DB
	dispatcher *dispatch.Dispatcher
	log        *zap.Logger
}

// NewReportService constructs a ReportService.
func NewReportService(db *gorm.DB, dispatcher *dispatch.Dispatcher) (*ReportService, error) {
	if db == nil {
		return nil, errors.New("report service: db is required")
	}
	if dispatcher == nil {
		return nil, errors.New("report service: dispatcher is required")
	}
	return &ReportService{
		db:         db,
		dispatcher: dispatcher,
		log:        logger.WithModule("services.report"),
	}, nil
}

func validReportType(value string) bool {
	switch value {
	case models.ReportTypeWater, models.ReportTypeAir, models.ReportTypeLand:
		return true
	}
	return false
}

func validReportStatus(value string) bool {
	switch value {
	case models.ReportStatusPending, models.ReportStatusInProgress, models.ReportStatusDone:
		return true
	}
	return false
}

// Create persists a new report and alerts the responsible admins.
func (s *ReportService) Create(ctx context.Context, reporter *models.User, input CreateReportInput) (*models.Report, error) {
	ctx = ensureContext(ctx)

	if reporter == nil {
		return nil, apperrors.ErrUnauthorized
	}

	reportType := strings.ToLower(strings.TrimSpace(input.Type))
	if !validReportType(reportType) {
		return nil, apperrors.NewBadRequest("type must be one of water, air or land")
	}

	location := strings.TrimSpace(input.Location)
	if location == "" {
		return nil, apperrors.NewBadRequest("location is required")
	}

	reporterName := reporter.FullName
	if reporterName == "" {
		reporterName = reporter.Username
	}

	barangay := strings.TrimSpace(input.Barangay)
	if barangay == "" {
		barangay = reporter.Barangay
	}

	report := models.Report{
		ReporterID:   reporter.ID,
		ReporterName: reporterName,
		Type:         reportType,
		Location:     location,
		Latitude:     input.Latitude,
		Longitude:    input.Longitude,
		Description:  strings.TrimSpace(input.Description),
		Barangay:     barangay,
		Status:       models.ReportStatusPending,
	}
	if err := report.SetImages(normaliseImages(input.Images)); err != nil {
		return nil, fmt.Errorf("report service: encode images: %w", err)
	}
	if err := report.SetUpvoterIDs([]string{}); err != nil {
		return nil, fmt.Errorf("report service: encode upvoters: %w", err)
	}
	if err := report.SetComments([]models.Comment{}); err != nil {
		return nil, fmt.Errorf("report service: encode comments: %w", err)
	}

	if err := s.db.WithContext(ctx).Create(&report).Error; err != nil {
		return nil, fmt.Errorf("report service: create report: %w", err)
	}

	if err := s.dispatcher.ReportCreated(ctx, &report); err != nil {
		s.log.Error("dispatch new report", zap.String("report_id", report.ID), zap.Error(err))
	}

	return &report, nil
}

// GetByID loads one report.
func (s *ReportService) GetByID(ctx context.Context, reportID string) (*models.Report, error) {
	ctx = ensureContext(ctx)

	var report models.Report
	err := s.db.WithContext(ctx).Where("id = ?", strings.TrimSpace(reportID)).First(&report).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("report service: load report: %w", err)
	}
	return &report, nil
}

// List returns reports matching the filters, newest first.
func (s *ReportService) List(ctx context.Context, input ListReportsInput) ([]models.Report, error) {
	ctx = ensureContext(ctx)

	query := s.db.WithContext(ctx).Model(&models.Report{})
	if barangay := strings.TrimSpace(input.Barangay); barangay != "" {
		query = query.Where("barangay = ?", barangay)
	}
	if status := strings.TrimSpace(input.Status); status != "" {
		query = query.Where("status = ?", status)
	}
	if reportType := strings.TrimSpace(input.Type); reportType != "" {
		query = query.Where("type = ?", reportType)
	}
	if reporterID := strings.TrimSpace(input.ReporterID); reporterID != "" {
		query = query.Where("reporter_id = ?", reporterID)
	}
	if input.Approved != nil {
		query = query.Where("approved = ?", *input.Approved)
	}

	limit := input.Limit
	if limit <= 0 || limit > 100 {
		limit = 25
	}
	offset := input.Offset
	if offset < 0 {
		offset = 0
	}

	var reports []models.Report
	if err := query.Order("created_at DESC").Limit(limit).Offset(offset).Find(&reports).Error; err != nil {
		return nil, fmt.Errorf("report service: list reports: %w", err)
	}
	return reports, nil
}

// requireModerator checks that the caller may moderate the given report.
func requireModerator(caller *models.User, report *models.Report) error {
	if caller == nil || !caller.IsAdmin() {
		return apperrors.ErrForbidden
	}
	if !caller.IsMainAdmin() && report.Barangay != caller.Barangay {
		return apperrors.NewForbidden("You can only manage reports in your barangay")
	}
	return nil
}

// SetStatus moves a report through the workflow and notifies the reporter.
func (s *ReportService) SetStatus(ctx context.Context, caller *models.User, reportID, status string) (*models.Report, error) {
	ctx = ensureContext(ctx)

	status = strings.TrimSpace(status)
	if !validReportStatus(status) {
		return nil, apperrors.NewBadRequest("status must be one of Pending, In Progress or Done")
	}

	report, err := s.GetByID(ctx, reportID)
	if err != nil {
		return nil, err
	}
	if err := requireModerator(caller, report); err != nil {
		return nil, err
	}

	before := dispatch.SnapshotReport(report)

	if err := s.db.WithContext(ctx).Model(report).Update("status", status).Error; err != nil {
		return nil, fmt.Errorf("report service: update status: %w", err)
	}
	report.Status = status

	s.dispatchUpdate(ctx, before, dispatch.SnapshotReport(report))
	return report, nil
}

// SetApproval flips the moderation flag and notifies the reporter.
func (s *ReportService) SetApproval(ctx context.Context, caller *models.User, reportID string, approved bool) (*models.Report, error) {
	ctx = ensureContext(ctx)

	report, err := s.GetByID(ctx, reportID)
	if err != nil {
		return nil, err
	}
	if err := requireModerator(caller, report); err != nil {
		return nil, err
	}

	before := dispatch.SnapshotReport(report)

	if err := s.db.WithContext(ctx).Model(report).Update("approved", approved).Error; err != nil {
		return nil, fmt.Errorf("report service: update approval: %w", err)
	}
	report.Approved = approved

	s.dispatchUpdate(ctx, before, dispatch.SnapshotReport(report))
	return report, nil
}

// Upvote records one upvote per user. Repeating the operation is a no-op and
// never produces a second notification.
func (s *ReportService) Upvote(ctx context.Context, voter *models.User, reportID string) (*models.Report, error) {
	ctx = ensureContext(ctx)

	if voter == nil {
		return nil, apperrors.ErrUnauthorized
	}

	report, err := s.GetByID(ctx, reportID)
	if err != nil {
		return nil, err
	}

	voters := report.UpvoterIDs()
	if containsString(voters, voter.ID) {
		return report, nil
	}

	before := dispatch.SnapshotReport(report)

	voters = append(voters, voter.ID)
	if err := report.SetUpvoterIDs(voters); err != nil {
		return nil, fmt.Errorf("report service: encode upvoters: %w", err)
	}
	report.Upvotes = len(voters)

	err = s.db.WithContext(ctx).Model(report).Updates(map[string]any{
		"upvotes":    report.Upvotes,
		"upvoted_by": report.UpvotedBy,
	}).Error
	if err != nil {
		return nil, fmt.Errorf("report service: save upvote: %w", err)
	}

	s.dispatchUpdate(ctx, before, dispatch.SnapshotReport(report))
	return report, nil
}

// AddComment appends a comment to the report discussion.
func (s *ReportService) AddComment(ctx context.Context, author *models.User, reportID, text string) (*models.Report, error) {
	ctx = ensureContext(ctx)

	if author == nil {
		return nil, apperrors.ErrUnauthorized
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, apperrors.NewBadRequest("comment text is required")
	}

	report, err := s.GetByID(ctx, reportID)
	if err != nil {
		return nil, err
	}

	before := dispatch.SnapshotReport(report)

	authorName := author.FullName
	if authorName == "" {
		authorName = author.Username
	}

	comments := append(report.CommentList(), models.Comment{
		ID:        uuid.NewString(),
		UserID:    author.ID,
		UserName:  authorName,
		UserRole:  author.Role,
		Text:      text,
		CreatedAt: time.Now().UTC(),
	})
	if err := report.SetComments(comments); err != nil {
		return nil, fmt.Errorf("report service: encode comments: %w", err)
	}

	if err := s.db.WithContext(ctx).Model(report).Update("comments", report.Comments).Error; err != nil {
		return nil, fmt.Errorf("report service: save comment: %w", err)
	}

	s.dispatchUpdate(ctx, before, dispatch.SnapshotReport(report))
	return report, nil
}

// SetAdminResponse attaches or replaces the official response.
func (s *ReportService) SetAdminResponse(ctx context.Context, caller *models.User, reportID, text string) (*models.Report, error) {
	ctx = ensureContext(ctx)

	text = strings.TrimSpace(text)
	if text == "" {
		return nil, apperrors.NewBadRequest("response text is required")
	}

	report, err := s.GetByID(ctx, reportID)
	if err != nil {
		return nil, err
	}
	if err := requireModerator(caller, report); err != nil {
		return nil, err
	}

	before := dispatch.SnapshotReport(report)

	if err := report.SetResponse(models.AdminResponse{Text: text, Date: time.Now().UTC()}); err != nil {
		return nil, fmt.Errorf("report service: encode response: %w", err)
	}

	if err := s.db.WithContext(ctx).Model(report).Update("admin_response", report.AdminResponse).Error; err != nil {
		return nil, fmt.Errorf("report service: save response: %w", err)
	}

	s.dispatchUpdate(ctx, before, dispatch.SnapshotReport(report))
	return report, nil
}

// SendRejectionWarning mails the conduct warning to the reporter of a
// rejected report. The report itself is not modified.
func (s *ReportService) SendRejectionWarning(ctx context.Context, caller *models.User, reportID, reason string) (bool, error) {
	ctx = ensureContext(ctx)

	report, err := s.GetByID(ctx, reportID)
	if err != nil {
		return false, err
	}
	if err := requireModerator(caller, report); err != nil {
		return false, err
	}

	var reporter models.User
	err = s.db.WithContext(ctx).Where("id = ?", report.ReporterID).First(&reporter).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, apperrors.ErrNotFound
		}
		return false, fmt.Errorf("report service: load reporter: %w", err)
	}

	return s.dispatcher.SendRejectionWarning(ctx, &reporter, report.Type, report.Location, reason)
}

// Delete removes a report. The owner or a moderator may delete it.
func (s *ReportService) Delete(ctx context.Context, caller *models.User, reportID string) error {
	ctx = ensureContext(ctx)

	if caller == nil {
		return apperrors.ErrUnauthorized
	}

	report, err := s.GetByID(ctx, reportID)
	if err != nil {
		return err
	}

	if report.ReporterID != caller.ID {
		if err := requireModerator(caller, report); err != nil {
			return err
		}
	}

	if err := s.db.WithContext(ctx).Delete(&models.Report{}, "id = ?", report.ID).Error; err != nil {
		return fmt.Errorf("report service: delete report: %w", err)
	}
	return nil
}

func (s *ReportService) dispatchUpdate(ctx context.Context, before, after dispatch.ReportState) {
	if err := s.dispatcher.ReportUpdated(ctx, before, after); err != nil {
		s.log.Error("dispatch report update", zap.String("report_id", after.ID), zap.Error(err))
	}
}

func normaliseImages(images []string) []string {
	out := make([]string, 0, len(images))
	for _, image := range images {
		image = strings.TrimSpace(image)
		if image != "" {
			out = append(out, image)
		}
	}
	return out
}
