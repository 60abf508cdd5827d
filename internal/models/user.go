package models

import (
	"strings"
	"time"

	"gorm.io/datatypes"
)

// User roles.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User describes a citizen or administrator account.
// Admins with an empty barangay are main admins with global authority;
// admins with a barangay set are scoped to that barangay.
type User struct {
	BaseModel

	Username string `gorm:"uniqueIndex;not null" json:"username"`
	Email    string `gorm:"uniqueIndex;not null" json:"email"`
	Password string `gorm:"not null" json:"-"`

	FullName string `json:"full_name"`
	Contact  string `json:"contact"`
	Address  string `json:"address"`

	Role     string `gorm:"type:varchar(16);not null;default:'user';index" json:"role"`
	Barangay string `gorm:"type:varchar(64);index" json:"barangay"`

	EmailVerified   bool       `gorm:"default:false" json:"email_verified"`
	EmailVerifiedAt *time.Time `json:"email_verified_at"`

	Suspended bool `gorm:"default:false" json:"suspended"`

	Settings datatypes.JSONMap `json:"settings"`
}

// IsAdmin reports whether the user holds the admin role.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// IsMainAdmin reports whether the user is an admin without a barangay assignment.
func (u *User) IsMainAdmin() bool {
	return u.IsAdmin() && strings.TrimSpace(u.Barangay) == ""
}

// NotificationSettings groups the per-user notification preference flags.
type NotificationSettings struct {
	Email          bool `json:"email"`
	Announcement   bool `json:"announcement"`
	Upvote         bool `json:"upvote"`
	PasswordChange bool `json:"password_change"`
	ReportStatus   bool `json:"report_status"`
}

// DefaultNotificationSettings returns the flags applied when a user has not
// customised anything. Every channel starts opted in.
func DefaultNotificationSettings() NotificationSettings {
	return NotificationSettings{
		Email:          true,
		Announcement:   true,
		Upvote:         true,
		PasswordChange: true,
		ReportStatus:   true,
	}
}

// NotificationSettings decodes the user's stored settings, applying defaults
// for any missing flag.
func (u *User) NotificationSettings() NotificationSettings {
	prefs := DefaultNotificationSettings()
	if len(u.Settings) == 0 {
		return prefs
	}

	node, ok := u.Settings["notifications"].(map[string]any)
	if !ok {
		return prefs
	}

	if v, ok := node["email"].(bool); ok {
		prefs.Email = v
	}
	if v, ok := node["announcement"].(bool); ok {
		prefs.Announcement = v
	}
	if v, ok := node["upvote"].(bool); ok {
		prefs.Upvote = v
	}
	if v, ok := node["password_change"].(bool); ok {
		prefs.PasswordChange = v
	}
	if v, ok := node["report_status"].(bool); ok {
		prefs.ReportStatus = v
	}
	return prefs
}

// MarshalNotificationSettings converts preference flags into the JSON map
// persisted on the user row.
func MarshalNotificationSettings(prefs NotificationSettings) datatypes.JSONMap {
	return datatypes.JSONMap{
		"notifications": map[string]any{
			"email":           prefs.Email,
			"announcement":    prefs.Announcement,
			"upvote":          prefs.Upvote,
			"password_change": prefs.PasswordChange,
			"report_status":   prefs.ReportStatus,
		},
	}
}
