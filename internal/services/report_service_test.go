package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/linisbayan/linisbayan/internal/models"
	apperrors "github.com/linisbayan/linisbayan/pkg/errors"
)

func newReportService(t *testing.T) (*ReportService, *gorm.DB, *capturingMailer) {
	t.Helper()
	db, dispatcher, mailer := newServiceTestEnv(t)
	svc, err := NewReportService(db, dispatcher)
	require.NoError(t, err)
	return svc, db, mailer
}

func reporterFixture(t *testing.T, db *gorm.DB) models.User {
	t.Helper()
	return seedUser(t, db, models.User{
		Username:      "rosa",
		Email:         "rosa@example.com",
		FullName:      "Rosa Reyes",
		Barangay:      "San Isidro",
		EmailVerified: true,
	})
}

func TestCreateReportNotifiesAdmins(t *testing.T) {
	svc, db, mailer := newReportService(t)
	ctx := context.Background()

	admin := seedAdmin(t, db, "brgy", "San Isidro")
	reporter := reporterFixture(t, db)

	report, err := svc.Create(ctx, &reporter, CreateReportInput{
		Type:     "Water",
		Location: "Riverside Creek",
		Images:   []string{" img1.jpg ", ""},
	})
	require.NoError(t, err)
	require.Equal(t, models.ReportTypeWater, report.Type)
	require.Equal(t, models.ReportStatusPending, report.Status)
	require.Equal(t, "San Isidro", report.Barangay, "defaults to the reporter's barangay")
	require.Equal(t, []string{"img1.jpg"}, report.ImageList())

	var rows []models.Notification
	require.NoError(t, db.Where("user_id = ?", admin.ID).Find(&rows).Error)
	require.Len(t, rows, 1)
	require.Equal(t, models.NotificationNewReport, rows[0].Type)

	require.Len(t, mailer.sent(), 1)
}

func TestCreateReportValidation(t *testing.T) {
	svc, db, _ := newReportService(t)
	ctx := context.Background()
	reporter := reporterFixture(t, db)

	_, err := svc.Create(ctx, &reporter, CreateReportInput{Type: "fire", Location: "x"})
	require.Error(t, err)

	_, err = svc.Create(ctx, &reporter, CreateReportInput{Type: "water", Location: "  "})
	require.Error(t, err)

	_, err = svc.Create(ctx, nil, CreateReportInput{Type: "water", Location: "x"})
	require.ErrorIs(t, err, apperrors.ErrUnauthorized)
}

func TestSetStatusNotifiesReporter(t *testing.T) {
	svc, db, mailer := newReportService(t)
	ctx := context.Background()

	admin := seedAdmin(t, db, "brgy", "San Isidro")
	reporter := reporterFixture(t, db)

	report, err := svc.Create(ctx, &reporter, CreateReportInput{Type: "land", Location: "Public Market"})
	require.NoError(t, err)
	mailer.messages = nil

	updated, err := svc.SetStatus(ctx, &admin, report.ID, models.ReportStatusInProgress)
	require.NoError(t, err)
	require.Equal(t, models.ReportStatusInProgress, updated.Status)

	var rows []models.Notification
	require.NoError(t, db.Where("user_id = ?", reporter.ID).Find(&rows).Error)
	require.Len(t, rows, 1)
	require.Equal(t, models.NotificationReportInProgress, rows[0].Type)

	sent := mailer.sent()
	require.Len(t, sent, 1)
	require.Contains(t, sent[0].Subject, "In Progress")
}

func TestSetStatusRejectsUnknownStatusAndWrongBarangay(t *testing.T) {
	svc, db, _ := newReportService(t)
	ctx := context.Background()

	otherAdmin := seedAdmin(t, db, "other", "Poblacion")
	reporter := reporterFixture(t, db)

	report, err := svc.Create(ctx, &reporter, CreateReportInput{Type: "land", Location: "Public Market"})
	require.NoError(t, err)

	_, err = svc.SetStatus(ctx, &otherAdmin, report.ID, "Archived")
	require.Error(t, err)

	_, err = svc.SetStatus(ctx, &otherAdmin, report.ID, models.ReportStatusDone)
	require.Error(t, err)
	require.Contains(t, err.Error(), "barangay")

	_, err = svc.SetStatus(ctx, &reporter, report.ID, models.ReportStatusDone)
	require.ErrorIs(t, err, apperrors.ErrForbidden)
}

func TestSetApprovalDispatchesAcceptance(t *testing.T) {
	svc, db, _ := newReportService(t)
	ctx := context.Background()

	mainAdmin := seedAdmin(t, db, "main", "")
	reporter := reporterFixture(t, db)

	report, err := svc.Create(ctx, &reporter, CreateReportInput{Type: "air", Location: "Terminal"})
	require.NoError(t, err)

	_, err = svc.SetApproval(ctx, &mainAdmin, report.ID, true)
	require.NoError(t, err)

	var rows []models.Notification
	require.NoError(t, db.Where("user_id = ? AND type = ?", reporter.ID, models.NotificationReportAccepted).Find(&rows).Error)
	require.Len(t, rows, 1)
}

func TestUpvoteIsIdempotent(t *testing.T) {
	svc, db, _ := newReportService(t)
	ctx := context.Background()

	reporter := reporterFixture(t, db)
	voter := seedUser(t, db, models.User{Username: "vito", Email: "vito@example.com"})

	report, err := svc.Create(ctx, &reporter, CreateReportInput{Type: "water", Location: "Creek"})
	require.NoError(t, err)

	first, err := svc.Upvote(ctx, &voter, report.ID)
	require.NoError(t, err)
	require.Equal(t, 1, first.Upvotes)

	second, err := svc.Upvote(ctx, &voter, report.ID)
	require.NoError(t, err)
	require.Equal(t, 1, second.Upvotes)

	var rows []models.Notification
	require.NoError(t, db.Where("user_id = ? AND type = ?", reporter.ID, models.NotificationUpvote).Find(&rows).Error)
	require.Len(t, rows, 1, "repeat upvotes never re-notify")
}

func TestAddCommentByAdminNotifiesReporter(t *testing.T) {
	svc, db, _ := newReportService(t)
	ctx := context.Background()

	admin := seedAdmin(t, db, "brgy", "San Isidro")
	reporter := reporterFixture(t, db)

	report, err := svc.Create(ctx, &reporter, CreateReportInput{Type: "water", Location: "Creek"})
	require.NoError(t, err)

	updated, err := svc.AddComment(ctx, &admin, report.ID, "We are on it.")
	require.NoError(t, err)
	require.Len(t, updated.CommentList(), 1)
	require.Equal(t, models.RoleAdmin, updated.CommentList()[0].UserRole)

	var rows []models.Notification
	require.NoError(t, db.Where("user_id = ? AND type = ?", reporter.ID, models.NotificationAdminComment).Find(&rows).Error)
	require.Len(t, rows, 1)
}

func TestAddCommentBySelfStaysSilent(t *testing.T) {
	svc, db, _ := newReportService(t)
	ctx := context.Background()

	reporter := reporterFixture(t, db)

	report, err := svc.Create(ctx, &reporter, CreateReportInput{Type: "water", Location: "Creek"})
	require.NoError(t, err)

	_, err = svc.AddComment(ctx, &reporter, report.ID, "Any update po?")
	require.NoError(t, err)

	var count int64
	require.NoError(t, db.Model(&models.Notification{}).Where("user_id = ?", reporter.ID).Count(&count).Error)
	require.Zero(t, count)
}

func TestSetAdminResponseNotifies(t *testing.T) {
	svc, db, _ := newReportService(t)
	ctx := context.Background()

	admin := seedAdmin(t, db, "brgy", "San Isidro")
	reporter := reporterFixture(t, db)

	report, err := svc.Create(ctx, &reporter, CreateReportInput{Type: "water", Location: "Creek"})
	require.NoError(t, err)

	updated, err := svc.SetAdminResponse(ctx, &admin, report.ID, "Cleanup scheduled for Friday.")
	require.NoError(t, err)
	require.NotNil(t, updated.Response())
	require.Equal(t, "Cleanup scheduled for Friday.", updated.Response().Text)

	var rows []models.Notification
	require.NoError(t, db.Where("user_id = ? AND type = ?", reporter.ID, models.NotificationAdminResponse).Find(&rows).Error)
	require.Len(t, rows, 1)
}

func TestSendRejectionWarningFromService(t *testing.T) {
	svc, db, mailer := newReportService(t)
	ctx := context.Background()

	admin := seedAdmin(t, db, "brgy", "San Isidro")
	reporter := reporterFixture(t, db)

	report, err := svc.Create(ctx, &reporter, CreateReportInput{Type: "water", Location: "Creek"})
	require.NoError(t, err)
	mailer.messages = nil

	sentFlag, err := svc.SendRejectionWarning(ctx, &admin, report.ID, "not pollution related")
	require.NoError(t, err)
	require.True(t, sentFlag)

	sent := mailer.sent()
	require.Len(t, sent, 1)
	require.Contains(t, sent[0].HTML, "not pollution related")
}

func TestDeleteReportOwnership(t *testing.T) {
	svc, db, _ := newReportService(t)
	ctx := context.Background()

	reporter := reporterFixture(t, db)
	stranger := seedUser(t, db, models.User{Username: "sam", Email: "sam@example.com"})
	mainAdmin := seedAdmin(t, db, "main", "")

	report, err := svc.Create(ctx, &reporter, CreateReportInput{Type: "water", Location: "Creek"})
	require.NoError(t, err)

	require.ErrorIs(t, svc.Delete(ctx, &stranger, report.ID), apperrors.ErrForbidden)
	require.NoError(t, svc.Delete(ctx, &reporter, report.ID))

	other, err := svc.Create(ctx, &reporter, CreateReportInput{Type: "air", Location: "Terminal"})
	require.NoError(t, err)
	require.NoError(t, svc.Delete(ctx, &mainAdmin, other.ID))

	_, err = svc.GetByID(ctx, other.ID)
	require.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestListReportsFilters(t *testing.T) {
	svc, db, _ := newReportService(t)
	ctx := context.Background()

	reporter := reporterFixture(t, db)
	other := seedUser(t, db, models.User{Username: "omar", Email: "omar@example.com", Barangay: "Poblacion"})

	_, err := svc.Create(ctx, &reporter, CreateReportInput{Type: "water", Location: "Creek"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, &other, CreateReportInput{Type: "land", Location: "Market"})
	require.NoError(t, err)

	byBarangay, err := svc.List(ctx, ListReportsInput{Barangay: "San Isidro"})
	require.NoError(t, err)
	require.Len(t, byBarangay, 1)

	byType, err := svc.List(ctx, ListReportsInput{Type: "land"})
	require.NoError(t, err)
	require.Len(t, byType, 1)

	approved := true
	none, err := svc.List(ctx, ListReportsInput{Approved: &approved})
	require.NoError(t, err)
	require.Empty(t, none)
}
