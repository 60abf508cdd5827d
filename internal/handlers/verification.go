package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/linisbayan/linisbayan/internal/services"
	"github.com/linisbayan/linisbayan/pkg/errors"
	"github.com/linisbayan/linisbayan/pkg/response"
)

// VerificationHandler exposes the mailed-code and password reset flows.
type VerificationHandler struct {
	users        *services.UserService
	verification *services.VerificationService
	passwordRst  *services.PasswordResetService
}

// NewVerificationHandler constructs a verification handler.
func NewVerificationHandler(db *gorm.DB, verification *services.VerificationService, passwordRst *services.PasswordResetService) (*VerificationHandler, error) {
	users, err := services.NewUserService(db)
	if err != nil {
		return nil, err
	}
	return &VerificationHandler{
		users:        users,
		verification: verification,
		passwordRst:  passwordRst,
	}, nil
}

type sendCodeRequest struct {
	Purpose string `json:"purpose" validate:"required,oneof=email password_change"`
}

// POST /api/v1/verification/send
func (h *VerificationHandler) SendCode(c *gin.Context) {
	caller, ok := currentUser(c, h.users)
	if !ok {
		return
	}

	var req sendCodeRequest
	if !bindAndValidate(c, &req) {
		return
	}

	if err := h.verification.Issue(requestContext(c), caller, req.Purpose); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"sent": true})
}

type verifyCodeRequest struct {
	Purpose string `json:"purpose" validate:"required,oneof=email password_change"`
	Code    string `json:"code" validate:"required,len=6"`
}

// POST /api/v1/verification/verify
func (h *VerificationHandler) VerifyCode(c *gin.Context) {
	caller, ok := currentUser(c, h.users)
	if !ok {
		return
	}

	var req verifyCodeRequest
	if !bindAndValidate(c, &req) {
		return
	}

	if err := h.verification.Verify(requestContext(c), caller, req.Purpose, strings.TrimSpace(req.Code)); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"verified": true})
}

type forgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// POST /api/v1/auth/forgot-password
//
// Always succeeds so callers cannot probe which addresses have accounts.
func (h *VerificationHandler) ForgotPassword(c *gin.Context) {
	var req forgotPasswordRequest
	if !bindAndValidate(c, &req) {
		return
	}

	if err := h.passwordRst.Request(requestContext(c), req.Email); err != nil {
		// Only infrastructure failures surface; unknown accounts do not.
		response.Error(c, errors.ErrInternalServer)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"sent": true})
}

type resetPasswordRequest struct {
	Token       string `json:"token" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,min=8"`
}

// POST /api/v1/auth/reset-password
func (h *VerificationHandler) ResetPassword(c *gin.Context) {
	var req resetPasswordRequest
	if !bindAndValidate(c, &req) {
		return
	}

	if err := h.passwordRst.Reset(requestContext(c), req.Token, req.NewPassword); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"updated": true})
}
