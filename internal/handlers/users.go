package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/linisbayan/linisbayan/internal/middleware"
	"github.com/linisbayan/linisbayan/internal/models"
	"github.com/linisbayan/linisbayan/internal/services"
	"github.com/linisbayan/linisbayan/pkg/errors"
	"github.com/linisbayan/linisbayan/pkg/response"
)

// UserHandler exposes account management endpoints.
type UserHandler struct {
	users        *services.UserService
	verification *services.VerificationService
}

// NewUserHandler constructs a user handler.
func NewUserHandler(db *gorm.DB, verification *services.VerificationService) (*UserHandler, error) {
	users, err := services.NewUserService(db)
	if err != nil {
		return nil, err
	}
	return &UserHandler{users: users, verification: verification}, nil
}

// GET /api/v1/users (admin)
func (h *UserHandler) List(c *gin.Context) {
	caller, ok := currentUser(c, h.users)
	if !ok {
		return
	}

	items, err := h.users.List(requestContext(c), caller, services.ListUsersInput{
		Barangay: c.Query("barangay"),
		Role:     c.Query("role"),
		Limit:    parseIntQuery(c, "limit", 25),
		Offset:   parseIntQuery(c, "offset", 0),
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, items)
}

// DELETE /api/v1/users/:id (admin)
func (h *UserHandler) Delete(c *gin.Context) {
	callerID := c.GetString(middleware.CtxUserIDKey)
	if callerID == "" {
		response.Error(c, errors.ErrUnauthorized)
		return
	}

	if err := h.users.AdminDelete(requestContext(c), callerID, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"deleted": true})
}

type updateSettingsRequest struct {
	Email          *bool `json:"email"`
	Announcement   *bool `json:"announcement"`
	Upvote         *bool `json:"upvote"`
	PasswordChange *bool `json:"password_change"`
	ReportStatus   *bool `json:"report_status"`
}

// PUT /api/v1/users/me/settings
//
// Omitted fields keep their current value.
func (h *UserHandler) UpdateSettings(c *gin.Context) {
	caller, ok := currentUser(c, h.users)
	if !ok {
		return
	}

	var req updateSettingsRequest
	if !bindAndValidate(c, &req) {
		return
	}

	prefs := caller.NotificationSettings()
	if req.Email != nil {
		prefs.Email = *req.Email
	}
	if req.Announcement != nil {
		prefs.Announcement = *req.Announcement
	}
	if req.Upvote != nil {
		prefs.Upvote = *req.Upvote
	}
	if req.PasswordChange != nil {
		prefs.PasswordChange = *req.PasswordChange
	}
	if req.ReportStatus != nil {
		prefs.ReportStatus = *req.ReportStatus
	}

	updated, err := h.users.UpdateSettings(requestContext(c), caller.ID, prefs)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"settings": updated.NotificationSettings()})
}

type changePasswordRequest struct {
	Code        string `json:"code" validate:"required,len=6"`
	NewPassword string `json:"new_password" validate:"required,min=8"`
}

// PUT /api/v1/users/me/password
//
// Requires a previously mailed password change code.
func (h *UserHandler) ChangePassword(c *gin.Context) {
	caller, ok := currentUser(c, h.users)
	if !ok {
		return
	}

	var req changePasswordRequest
	if !bindAndValidate(c, &req) {
		return
	}

	ctx := requestContext(c)
	if err := h.verification.Verify(ctx, caller, models.VerificationPurposePasswordChange, strings.TrimSpace(req.Code)); err != nil {
		response.Error(c, err)
		return
	}

	if err := h.users.ChangePassword(ctx, caller.ID, req.NewPassword); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"updated": true})
}
