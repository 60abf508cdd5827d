package handlers

import (
	"context"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/linisbayan/linisbayan/internal/dispatch"
	"github.com/linisbayan/linisbayan/internal/models"
	"github.com/linisbayan/linisbayan/pkg/mail"
)

type discardMailer struct{}

func (discardMailer) Send(context.Context, mail.Message) error { return nil }

func newReportHandler(t *testing.T) (*ReportHandler, *gorm.DB) {
	t.Helper()
	db := newHandlerTestDB(t)
	dispatcher, err := dispatch.NewDispatcher(db, discardMailer{}, nil)
	require.NoError(t, err)
	handler, err := NewReportHandler(db, dispatcher)
	require.NoError(t, err)
	return handler, db
}

func TestReportHandlerCreateAndGet(t *testing.T) {
	handler, db := newReportHandler(t)

	reporter := createHandlerUser(t, db, models.User{
		Username: "rosa",
		Email:    "rosa@example.com",
		Barangay: "San Isidro",
	})

	c, recorder := jsonContext(t, reporter.ID, map[string]any{
		"type":        "water",
		"location":    "Riverside Creek",
		"description": "Oil slick near the footbridge",
	})
	handler.Create(c)

	require.Equal(t, http.StatusCreated, recorder.Code)
	created := decodeData[models.Report](t, decodeResponse(t, recorder))
	require.Equal(t, models.ReportStatusPending, created.Status)
	require.Equal(t, "San Isidro", created.Barangay)

	c2, recorder2 := jsonContext(t, reporter.ID, nil)
	c2.Params = gin.Params{gin.Param{Key: "id", Value: created.ID}}
	handler.Get(c2)

	require.Equal(t, http.StatusOK, recorder2.Code)
	fetched := decodeData[models.Report](t, decodeResponse(t, recorder2))
	require.Equal(t, created.ID, fetched.ID)
}

func TestReportHandlerCreateValidation(t *testing.T) {
	handler, db := newReportHandler(t)
	reporter := createHandlerUser(t, db, models.User{Username: "rosa", Email: "rosa@example.com"})

	c, recorder := jsonContext(t, reporter.ID, map[string]any{
		"type":     "fire",
		"location": "Somewhere",
	})
	handler.Create(c)

	require.Equal(t, http.StatusBadRequest, recorder.Code)
}

func TestReportHandlerStatusFlow(t *testing.T) {
	handler, db := newReportHandler(t)

	admin := createHandlerUser(t, db, models.User{
		Username: "admin",
		Email:    "admin@example.com",
		Role:     models.RoleAdmin,
	})
	reporter := createHandlerUser(t, db, models.User{Username: "rosa", Email: "rosa@example.com"})

	c, recorder := jsonContext(t, reporter.ID, map[string]any{
		"type":     "land",
		"location": "Public Market",
	})
	handler.Create(c)
	require.Equal(t, http.StatusCreated, recorder.Code)
	report := decodeData[models.Report](t, decodeResponse(t, recorder))

	c2, recorder2 := jsonContext(t, admin.ID, map[string]any{"status": "In Progress"})
	c2.Params = gin.Params{gin.Param{Key: "id", Value: report.ID}}
	handler.SetStatus(c2)

	require.Equal(t, http.StatusOK, recorder2.Code)
	updated := decodeData[models.Report](t, decodeResponse(t, recorder2))
	require.Equal(t, models.ReportStatusInProgress, updated.Status)

	var rows []models.Notification
	require.NoError(t, db.Where("user_id = ?", reporter.ID).Find(&rows).Error)
	require.Len(t, rows, 1)
	require.Equal(t, models.NotificationReportInProgress, rows[0].Type)
}

func TestReportHandlerUpvote(t *testing.T) {
	handler, db := newReportHandler(t)

	reporter := createHandlerUser(t, db, models.User{Username: "rosa", Email: "rosa@example.com"})
	voter := createHandlerUser(t, db, models.User{Username: "vito", Email: "vito@example.com"})

	c, recorder := jsonContext(t, reporter.ID, map[string]any{
		"type":     "air",
		"location": "Terminal",
	})
	handler.Create(c)
	report := decodeData[models.Report](t, decodeResponse(t, recorder))

	c2, recorder2 := jsonContext(t, voter.ID, nil)
	c2.Params = gin.Params{gin.Param{Key: "id", Value: report.ID}}
	handler.Upvote(c2)

	require.Equal(t, http.StatusOK, recorder2.Code)
	voted := decodeData[models.Report](t, decodeResponse(t, recorder2))
	require.Equal(t, 1, voted.Upvotes)
}
