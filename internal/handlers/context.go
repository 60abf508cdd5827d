package handlers

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/linisbayan/linisbayan/internal/middleware"
	"github.com/linisbayan/linisbayan/internal/models"
	"github.com/linisbayan/linisbayan/internal/services"
	"github.com/linisbayan/linisbayan/pkg/errors"
	"github.com/linisbayan/linisbayan/pkg/response"
)

// requestContext safely returns the request context with a background fallback for tests.
func requestContext(c *gin.Context) context.Context {
	if c == nil {
		return context.Background()
	}
	if req := c.Request; req != nil {
		return req.Context()
	}
	return context.Background()
}

// currentUser loads the authenticated account. On failure it writes the error
// response and returns false.
func currentUser(c *gin.Context, users *services.UserService) (*models.User, bool) {
	userID := c.GetString(middleware.CtxUserIDKey)
	if userID == "" {
		response.Error(c, errors.ErrUnauthorized)
		return nil, false
	}

	user, err := users.GetByID(requestContext(c), userID)
	if err != nil {
		response.Error(c, errors.ErrUnauthorized)
		return nil, false
	}
	return user, true
}
