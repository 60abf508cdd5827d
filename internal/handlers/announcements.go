package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/linisbayan/linisbayan/internal/dispatch"
	"github.com/linisbayan/linisbayan/internal/services"
	"github.com/linisbayan/linisbayan/pkg/response"
)

// AnnouncementHandler exposes HTTP endpoints for announcements.
type AnnouncementHandler struct {
	announcements *services.AnnouncementService
	users         *services.UserService
}

// NewAnnouncementHandler constructs an announcement handler.
func NewAnnouncementHandler(db *gorm.DB, dispatcher *dispatch.Dispatcher) (*AnnouncementHandler, error) {
	announcements, err := services.NewAnnouncementService(db, dispatcher)
	if err != nil {
		return nil, err
	}
	users, err := services.NewUserService(db)
	if err != nil {
		return nil, err
	}
	return &AnnouncementHandler{announcements: announcements, users: users}, nil
}

type createAnnouncementRequest struct {
	Title       string     `json:"title" validate:"required,max=256"`
	Subtitle    string     `json:"subtitle" validate:"max=256"`
	Description string     `json:"description" validate:"max=4096"`
	Location    string     `json:"location" validate:"max=256"`
	Date        *time.Time `json:"date"`
	Barangay    string     `json:"barangay" validate:"max=64"`
}

// POST /api/v1/announcements
func (h *AnnouncementHandler) Create(c *gin.Context) {
	user, ok := currentUser(c, h.users)
	if !ok {
		return
	}

	var req createAnnouncementRequest
	if !bindAndValidate(c, &req) {
		return
	}

	announcement, err := h.announcements.Create(requestContext(c), user, services.CreateAnnouncementInput{
		Title:       req.Title,
		Subtitle:    req.Subtitle,
		Description: req.Description,
		Location:    req.Location,
		Date:        req.Date,
		Barangay:    req.Barangay,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusCreated, announcement)
}

// GET /api/v1/announcements
func (h *AnnouncementHandler) List(c *gin.Context) {
	items, err := h.announcements.List(requestContext(c),
		c.Query("barangay"),
		parseIntQuery(c, "limit", 25),
		parseIntQuery(c, "offset", 0),
	)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, items)
}

// GET /api/v1/announcements/:id
func (h *AnnouncementHandler) Get(c *gin.Context) {
	announcement, err := h.announcements.GetByID(requestContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, announcement)
}

// DELETE /api/v1/announcements/:id
func (h *AnnouncementHandler) Delete(c *gin.Context) {
	user, ok := currentUser(c, h.users)
	if !ok {
		return
	}

	if err := h.announcements.Delete(requestContext(c), user, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"deleted": true})
}
