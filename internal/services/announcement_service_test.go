package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/linisbayan/linisbayan/internal/models"
	apperrors "github.com/linisbayan/linisbayan/pkg/errors"
)

func newAnnouncementService(t *testing.T) (*AnnouncementService, *gorm.DB, *capturingMailer) {
	t.Helper()
	db, dispatcher, mailer := newServiceTestEnv(t)
	svc, err := NewAnnouncementService(db, dispatcher)
	require.NoError(t, err)
	return svc, db, mailer
}

func TestCreateAnnouncementFansOut(t *testing.T) {
	svc, db, mailer := newAnnouncementService(t)
	ctx := context.Background()

	admin := seedAdmin(t, db, "brgy", "San Isidro")
	resident := seedUser(t, db, models.User{
		Username:      "ines",
		Email:         "ines@example.com",
		Barangay:      "San Isidro",
		EmailVerified: true,
	})
	seedUser(t, db, models.User{Username: "nina", Email: "nina@example.com", Barangay: "Poblacion"})

	announcement, err := svc.Create(ctx, &admin, CreateAnnouncementInput{
		Title:       "Coastal Cleanup Drive",
		Description: "Saturday, 6 AM at the boardwalk.",
	})
	require.NoError(t, err)
	require.Equal(t, "San Isidro", announcement.Barangay, "barangay admins publish to their own barangay")
	require.Equal(t, admin.ID, announcement.AuthorID)

	var rows []models.Notification
	require.NoError(t, db.Where("user_id = ?", resident.ID).Find(&rows).Error)
	require.Len(t, rows, 1)
	require.Equal(t, models.NotificationAnnouncement, rows[0].Type)
	require.Equal(t, announcement.ID, rows[0].AnnouncementID)

	require.Len(t, mailer.sent(), 1)
}

func TestCreateAnnouncementRequiresAdmin(t *testing.T) {
	svc, db, _ := newAnnouncementService(t)
	ctx := context.Background()

	citizen := seedUser(t, db, models.User{Username: "cito", Email: "cito@example.com"})

	_, err := svc.Create(ctx, &citizen, CreateAnnouncementInput{Title: "Nope"})
	require.ErrorIs(t, err, apperrors.ErrForbidden)

	admin := seedAdmin(t, db, "brgy", "San Isidro")
	_, err = svc.Create(ctx, &admin, CreateAnnouncementInput{Title: "   "})
	require.Error(t, err)
}

func TestMainAdminPublishesCityWide(t *testing.T) {
	svc, db, _ := newAnnouncementService(t)
	ctx := context.Background()

	mainAdmin := seedAdmin(t, db, "main", "")

	announcement, err := svc.Create(ctx, &mainAdmin, CreateAnnouncementInput{Title: "City Fiesta Schedule"})
	require.NoError(t, err)
	require.Empty(t, announcement.Barangay)
}

func TestListAnnouncementsByBarangay(t *testing.T) {
	svc, db, _ := newAnnouncementService(t)
	ctx := context.Background()

	mainAdmin := seedAdmin(t, db, "main", "")
	brgyAdmin := seedAdmin(t, db, "brgy", "San Isidro")

	_, err := svc.Create(ctx, &mainAdmin, CreateAnnouncementInput{Title: "City-wide notice"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, &brgyAdmin, CreateAnnouncementInput{Title: "Barangay assembly"})
	require.NoError(t, err)

	visible, err := svc.List(ctx, "San Isidro", 0, 0)
	require.NoError(t, err)
	require.Len(t, visible, 2, "city-wide plus own barangay")

	elsewhere, err := svc.List(ctx, "Poblacion", 0, 0)
	require.NoError(t, err)
	require.Len(t, elsewhere, 1)

	everything, err := svc.List(ctx, "", 0, 0)
	require.NoError(t, err)
	require.Len(t, everything, 2)
}

func TestDeleteAnnouncementScope(t *testing.T) {
	svc, db, _ := newAnnouncementService(t)
	ctx := context.Background()

	mainAdmin := seedAdmin(t, db, "main", "")
	brgyAdmin := seedAdmin(t, db, "brgy", "San Isidro")
	otherAdmin := seedAdmin(t, db, "other", "Poblacion")

	cityWide, err := svc.Create(ctx, &mainAdmin, CreateAnnouncementInput{Title: "City-wide"})
	require.NoError(t, err)
	local, err := svc.Create(ctx, &brgyAdmin, CreateAnnouncementInput{Title: "Local"})
	require.NoError(t, err)

	require.Error(t, svc.Delete(ctx, &otherAdmin, local.ID))
	require.Error(t, svc.Delete(ctx, &brgyAdmin, cityWide.ID))

	require.NoError(t, svc.Delete(ctx, &brgyAdmin, local.ID))
	require.NoError(t, svc.Delete(ctx, &mainAdmin, cityWide.ID))

	_, err = svc.GetByID(ctx, local.ID)
	require.ErrorIs(t, err, apperrors.ErrNotFound)
}
