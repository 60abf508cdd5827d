package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/linisbayan/linisbayan/internal/dispatch"
	"github.com/linisbayan/linisbayan/internal/services"
	"github.com/linisbayan/linisbayan/pkg/response"
)

// ReportHandler exposes HTTP endpoints for pollution reports.
type ReportHandler struct {
	reports *services.ReportService
	users   *services.UserService
}

// NewReportHandler constructs a report handler.
func NewReportHandler(db *gorm.DB, dispatcher *dispatch.Dispatcher) (*ReportHandler, error) {
	reports, err := services.NewReportService(db, dispatcher)
	if err != nil {
		return nil, err
	}
	users, err := services.NewUserService(db)
	if err != nil {
		return nil, err
	}
	return &ReportHandler{reports: reports, users: users}, nil
}

type createReportRequest struct {
	Type        string   `json:"type" validate:"required,report_type"`
	Location    string   `json:"location" validate:"required,max=256"`
	Latitude    float64  `json:"latitude"`
	Longitude   float64  `json:"longitude"`
	Description string   `json:"description" validate:"max=2048"`
	Barangay    string   `json:"barangay" validate:"max=64"`
	Images      []string `json:"images" validate:"max=5"`
}

// POST /api/v1/reports
func (h *ReportHandler) Create(c *gin.Context) {
	user, ok := currentUser(c, h.users)
	if !ok {
		return
	}

	var req createReportRequest
	if !bindAndValidate(c, &req) {
		return
	}

	report, err := h.reports.Create(requestContext(c), user, services.CreateReportInput{
		Type:        req.Type,
		Location:    req.Location,
		Latitude:    req.Latitude,
		Longitude:   req.Longitude,
		Description: req.Description,
		Barangay:    req.Barangay,
		Images:      req.Images,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusCreated, report)
}

// GET /api/v1/reports
func (h *ReportHandler) List(c *gin.Context) {
	items, err := h.reports.List(requestContext(c), services.ListReportsInput{
		Barangay:   c.Query("barangay"),
		Status:     c.Query("status"),
		Type:       c.Query("type"),
		ReporterID: c.Query("reporter_id"),
		Approved:   parseBoolQuery(c, "approved"),
		Limit:      parseIntQuery(c, "limit", 25),
		Offset:     parseIntQuery(c, "offset", 0),
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, items)
}

// GET /api/v1/reports/:id
func (h *ReportHandler) Get(c *gin.Context) {
	report, err := h.reports.GetByID(requestContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, report)
}

type setStatusRequest struct {
	Status string `json:"status" validate:"required,report_status"`
}

// PUT /api/v1/reports/:id/status
func (h *ReportHandler) SetStatus(c *gin.Context) {
	user, ok := currentUser(c, h.users)
	if !ok {
		return
	}

	var req setStatusRequest
	if !bindAndValidate(c, &req) {
		return
	}

	report, err := h.reports.SetStatus(requestContext(c), user, c.Param("id"), req.Status)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, report)
}

type setApprovalRequest struct {
	Approved *bool `json:"approved" validate:"required"`
}

// PUT /api/v1/reports/:id/approval
func (h *ReportHandler) SetApproval(c *gin.Context) {
	user, ok := currentUser(c, h.users)
	if !ok {
		return
	}

	var req setApprovalRequest
	if !bindAndValidate(c, &req) {
		return
	}

	report, err := h.reports.SetApproval(requestContext(c), user, c.Param("id"), *req.Approved)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, report)
}

// POST /api/v1/reports/:id/upvote
func (h *ReportHandler) Upvote(c *gin.Context) {
	user, ok := currentUser(c, h.users)
	if !ok {
		return
	}

	report, err := h.reports.Upvote(requestContext(c), user, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, report)
}

type commentRequest struct {
	Text string `json:"text" validate:"required,max=1024"`
}

// POST /api/v1/reports/:id/comments
func (h *ReportHandler) AddComment(c *gin.Context) {
	user, ok := currentUser(c, h.users)
	if !ok {
		return
	}

	var req commentRequest
	if !bindAndValidate(c, &req) {
		return
	}

	report, err := h.reports.AddComment(requestContext(c), user, c.Param("id"), req.Text)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusCreated, report)
}

type adminResponseRequest struct {
	Text string `json:"text" validate:"required,max=2048"`
}

// PUT /api/v1/reports/:id/response
func (h *ReportHandler) SetAdminResponse(c *gin.Context) {
	user, ok := currentUser(c, h.users)
	if !ok {
		return
	}

	var req adminResponseRequest
	if !bindAndValidate(c, &req) {
		return
	}

	report, err := h.reports.SetAdminResponse(requestContext(c), user, c.Param("id"), req.Text)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, report)
}

type rejectionWarningRequest struct {
	Reason string `json:"reason" validate:"max=512"`
}

// POST /api/v1/reports/:id/rejection-warning
func (h *ReportHandler) SendRejectionWarning(c *gin.Context) {
	user, ok := currentUser(c, h.users)
	if !ok {
		return
	}

	var req rejectionWarningRequest
	if !bindAndValidate(c, &req) {
		return
	}

	sent, err := h.reports.SendRejectionWarning(requestContext(c), user, c.Param("id"), strings.TrimSpace(req.Reason))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"email_sent": sent})
}

// DELETE /api/v1/reports/:id
func (h *ReportHandler) Delete(c *gin.Context) {
	user, ok := currentUser(c, h.users)
	if !ok {
		return
	}

	if err := h.reports.Delete(requestContext(c), user, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"deleted": true})
}
