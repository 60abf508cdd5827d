package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/linisbayan/linisbayan/internal/app"
	iauth "github.com/linisbayan/linisbayan/internal/auth"
	"github.com/linisbayan/linisbayan/internal/database/testutil"
	"github.com/linisbayan/linisbayan/internal/dispatch"
	"github.com/linisbayan/linisbayan/internal/models"
	"github.com/linisbayan/linisbayan/internal/notifications"
	"github.com/linisbayan/linisbayan/internal/services"
	"github.com/linisbayan/linisbayan/pkg/mail"
	"github.com/linisbayan/linisbayan/pkg/response"
)

type discardMailer struct{}

func (discardMailer) Send(context.Context, mail.Message) error { return nil }

type routerTestEnv struct {
	router *gin.Engine
	jwt    *iauth.JWTService
	db     *gorm.DB
}

func newTestRouter(t *testing.T) routerTestEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())

	jwt, err := iauth.NewJWTService(iauth.JWTConfig{
		Secret:         "router-test-secret",
		Issuer:         "test-suite",
		AccessTokenTTL: time.Hour,
	})
	require.NoError(t, err)

	mailer := discardMailer{}
	hub := notifications.NewHub()
	t.Cleanup(hub.Close)

	dispatcher, err := dispatch.NewDispatcher(db, mailer, hub)
	require.NoError(t, err)

	verification, err := services.NewVerificationService(db, mailer, 10*time.Minute)
	require.NoError(t, err)
	passwordReset, err := services.NewPasswordResetService(db, mailer, services.PasswordResetConfig{
		BaseURL: "http://localhost:8000",
	})
	require.NoError(t, err)

	cfg := &app.Config{}
	cfg.Monitoring.Health.Enabled = true
	cfg.Monitoring.Prometheus.Enabled = true
	cfg.Monitoring.Prometheus.Endpoint = "/metrics"

	router, err := NewRouter(db, cfg, Dependencies{
		JWT:           jwt,
		Dispatcher:    dispatcher,
		Hub:           hub,
		Verification:  verification,
		PasswordReset: passwordReset,
	})
	require.NoError(t, err)
	return routerTestEnv{router: router, jwt: jwt, db: db}
}

func doJSON(t *testing.T, router *gin.Engine, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)
	return recorder
}

func registerAndLogin(t *testing.T, router *gin.Engine, username string) string {
	t.Helper()

	recorder := doJSON(t, router, http.MethodPost, "/api/v1/auth/register", "", map[string]any{
		"username": username,
		"email":    username + "@example.com",
		"password": "sikreto123",
		"barangay": "San Isidro",
	})
	require.Equal(t, http.StatusCreated, recorder.Code)

	var payload response.Response
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &payload))
	data, ok := payload.Data.(map[string]any)
	require.True(t, ok)
	token, ok := data["access_token"].(string)
	require.True(t, ok)
	require.NotEmpty(t, token)
	return token
}

func TestRouterHealthAndMetrics(t *testing.T) {
	env := newTestRouter(t)

	require.Equal(t, http.StatusOK, doJSON(t, env.router, http.MethodGet, "/health", "", nil).Code)
	require.Equal(t, http.StatusOK, doJSON(t, env.router, http.MethodGet, "/metrics", "", nil).Code)
}

func TestRouterUnknownRouteReturnsJSON404(t *testing.T) {
	env := newTestRouter(t)

	recorder := doJSON(t, env.router, http.MethodGet, "/nope", "", nil)
	require.Equal(t, http.StatusNotFound, recorder.Code)

	var payload response.Response
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &payload))
	require.False(t, payload.Success)
	require.Equal(t, "NOT_FOUND", payload.Error.Code)
}

func TestRouterRequiresAuthentication(t *testing.T) {
	env := newTestRouter(t)

	require.Equal(t, http.StatusUnauthorized,
		doJSON(t, env.router, http.MethodGet, "/api/v1/reports", "", nil).Code)
	require.Equal(t, http.StatusUnauthorized,
		doJSON(t, env.router, http.MethodGet, "/api/v1/notifications", "", nil).Code)
}

func TestRouterReportLifecycle(t *testing.T) {
	env := newTestRouter(t)
	router := env.router

	token := registerAndLogin(t, router, "rosa")

	created := doJSON(t, router, http.MethodPost, "/api/v1/reports", token, map[string]any{
		"type":        "water",
		"location":    "Riverside Creek",
		"description": "Oil slick near the footbridge",
	})
	require.Equal(t, http.StatusCreated, created.Code)

	var payload response.Response
	require.NoError(t, json.Unmarshal(created.Body.Bytes(), &payload))
	raw, err := json.Marshal(payload.Data)
	require.NoError(t, err)
	var report models.Report
	require.NoError(t, json.Unmarshal(raw, &report))

	// A citizen cannot moderate.
	require.Equal(t, http.StatusForbidden,
		doJSON(t, router, http.MethodPut, "/api/v1/reports/"+report.ID+"/status", token,
			map[string]any{"status": "Done"}).Code)

	// Mint an admin token for a seeded admin account.
	adminToken := adminTokenFor(t, env)
	require.Equal(t, http.StatusOK,
		doJSON(t, router, http.MethodPut, "/api/v1/reports/"+report.ID+"/status", adminToken,
			map[string]any{"status": "In Progress"}).Code)

	list := doJSON(t, router, http.MethodGet, "/api/v1/reports?status=In%20Progress", token, nil)
	require.Equal(t, http.StatusOK, list.Code)

	// The reporter now has a status notification.
	inbox := doJSON(t, router, http.MethodGet, "/api/v1/notifications", token, nil)
	require.Equal(t, http.StatusOK, inbox.Code)

	var inboxPayload response.Response
	require.NoError(t, json.Unmarshal(inbox.Body.Bytes(), &inboxPayload))
	rawItems, err := json.Marshal(inboxPayload.Data)
	require.NoError(t, err)
	var items []models.Notification
	require.NoError(t, json.Unmarshal(rawItems, &items))
	require.Len(t, items, 1)
	require.Equal(t, models.NotificationReportInProgress, items[0].Type)
}

func TestRouterAnnouncementRequiresAdmin(t *testing.T) {
	env := newTestRouter(t)

	token := registerAndLogin(t, env.router, "cito")
	require.Equal(t, http.StatusForbidden,
		doJSON(t, env.router, http.MethodPost, "/api/v1/announcements", token,
			map[string]any{"title": "Nope"}).Code)

	adminToken := adminTokenFor(t, env)
	require.Equal(t, http.StatusCreated,
		doJSON(t, env.router, http.MethodPost, "/api/v1/announcements", adminToken,
			map[string]any{"title": "Coastal Cleanup Drive"}).Code)

	listing := doJSON(t, env.router, http.MethodGet, "/api/v1/announcements", token, nil)
	require.Equal(t, http.StatusOK, listing.Code)
}

// adminTokenFor registers an account, promotes it to admin directly in the
// database and signs a matching token. Registration never grants the role.
func adminTokenFor(t *testing.T, env routerTestEnv) string {
	t.Helper()

	recorder := doJSON(t, env.router, http.MethodPost, "/api/v1/auth/register", "", map[string]any{
		"username": "city-admin",
		"email":    "city-admin@example.com",
		"password": "sikreto123",
	})
	require.Equal(t, http.StatusCreated, recorder.Code)

	var payload response.Response
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &payload))
	data := payload.Data.(map[string]any)
	user := data["user"].(map[string]any)
	userID := user["id"].(string)

	require.NoError(t, env.db.Model(&models.User{}).
		Where("id = ?", userID).Update("role", models.RoleAdmin).Error)

	token, err := env.jwt.GenerateAccessToken(iauth.AccessTokenInput{UserID: userID, Role: models.RoleAdmin})
	require.NoError(t, err)
	return token
}
