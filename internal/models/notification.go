package models

// Notification types written by the dispatcher.
const (
	NotificationReportAccepted   = "report_accepted"
	NotificationReportInProgress = "report_in_progress"
	NotificationReportDone       = "report_done"
	NotificationReportRejected   = "report_rejected"
	NotificationUpvote           = "upvote"
	NotificationAdminComment     = "admin_comment"
	NotificationAdminResponse    = "admin_response"
	NotificationNewReport        = "new_report"
	NotificationAnnouncement     = "announcement"
)

// Notification is a single in-app inbox entry for one user.
type Notification struct {
	BaseModel

	UserID  string `gorm:"type:uuid;not null;index" json:"user_id"`
	Type    string `gorm:"type:varchar(32);not null;index" json:"type"`
	Title   string `gorm:"not null" json:"title"`
	Message string `gorm:"type:text" json:"message"`
	Read    bool   `gorm:"default:false;index" json:"read"`

	ReportID       string `gorm:"type:uuid;index" json:"report_id,omitempty"`
	AnnouncementID string `gorm:"type:uuid;index" json:"announcement_id,omitempty"`
	Barangay       string `gorm:"type:varchar(64)" json:"barangay,omitempty"`

	ActorID   string `gorm:"type:uuid" json:"actor_id,omitempty"`
	ActorName string `json:"actor_name,omitempty"`
}
