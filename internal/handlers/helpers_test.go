package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	iauth "github.com/linisbayan/linisbayan/internal/auth"
	"github.com/linisbayan/linisbayan/internal/database/testutil"
	"github.com/linisbayan/linisbayan/internal/middleware"
	"github.com/linisbayan/linisbayan/internal/models"
	"github.com/linisbayan/linisbayan/pkg/response"
)

func newHandlerTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	gin.SetMode(gin.TestMode)
	return testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
}

func newTestJWT(t *testing.T) *iauth.JWTService {
	t.Helper()
	svc, err := iauth.NewJWTService(iauth.JWTConfig{
		Secret:         "handler-test-secret",
		Issuer:         "test-suite",
		AccessTokenTTL: time.Hour,
	})
	require.NoError(t, err)
	return svc
}

// jsonContext builds a gin test context carrying a JSON request body and the
// authenticated user id.
func jsonContext(t *testing.T, userID string, body any) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()

	recorder := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(recorder)

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(http.MethodPost, "/", reader)
	req.Header.Set("Content-Type", "application/json")
	c.Request = req

	if userID != "" {
		c.Set(middleware.CtxUserIDKey, userID)
	}
	return c, recorder
}

func decodeResponse(t *testing.T, recorder *httptest.ResponseRecorder) response.Response {
	t.Helper()
	var payload response.Response
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &payload))
	return payload
}

func decodeData[T any](t *testing.T, payload response.Response) T {
	t.Helper()
	raw, err := json.Marshal(payload.Data)
	require.NoError(t, err)
	var out T
	require.NoError(t, json.Unmarshal(raw, &out))
	return out
}

func createHandlerUser(t *testing.T, db *gorm.DB, user models.User) models.User {
	t.Helper()
	if user.Password == "" {
		user.Password = "hashed"
	}
	if user.Role == "" {
		user.Role = models.RoleUser
	}
	require.NoError(t, db.Create(&user).Error)
	return user
}
