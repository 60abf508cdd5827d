package models

import "time"

// Verification code purposes.
const (
	VerificationPurposeEmail          = "email"
	VerificationPurposePasswordChange = "password_change"
)

// MaxVerificationAttempts caps failed code entries before the code is revoked.
const MaxVerificationAttempts = 5

// VerificationCode is a short-lived 6-digit challenge mailed to a user.
// At most one active code exists per user and purpose.
type VerificationCode struct {
	BaseModel

	UserID  string `gorm:"type:uuid;not null;uniqueIndex:idx_verification_user_purpose" json:"user_id"`
	Purpose string `gorm:"type:varchar(32);not null;uniqueIndex:idx_verification_user_purpose" json:"purpose"`

	Code     string `gorm:"type:varchar(6);not null" json:"-"`
	Email    string `gorm:"not null" json:"email"`
	Attempts int    `gorm:"default:0" json:"attempts"`

	ExpiresAt time.Time `gorm:"index" json:"expires_at"`
}

// Expired reports whether the code has passed its deadline.
func (v *VerificationCode) Expired(now time.Time) bool {
	return now.After(v.ExpiresAt)
}
