package database

import (
	"gorm.io/gorm"

	"github.com/linisbayan/linisbayan/internal/models"
)

// AutoMigrate creates or updates the database schema for all models.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Report{},
		&models.Notification{},
		&models.Announcement{},
		&models.VerificationCode{},
		&models.PasswordResetToken{},
	)
}

// SeedData backfills notification settings for accounts created before the
// settings column existed so preference checks never see a null document.
func SeedData(db *gorm.DB) error {
	var users []models.User
	if err := db.Where("settings IS NULL OR settings = ''").Find(&users).Error; err != nil {
		return err
	}

	defaults := models.MarshalNotificationSettings(models.DefaultNotificationSettings())
	for _, user := range users {
		if err := db.Model(&models.User{}).
			Where("id = ?", user.ID).
			Update("settings", defaults).Error; err != nil {
			return err
		}
	}

	return nil
}
