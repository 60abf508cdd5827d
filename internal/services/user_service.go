package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/linisbayan/linisbayan/internal/models"
	"github.com/linisbayan/linisbayan/pkg/crypto"
	apperrors "github.com/linisbayan/linisbayan/pkg/errors"
)

// RegisterInput defines the attributes required to create an account.
type RegisterInput struct {
	Username string
	Email    string
	Password string
	FullName string
	Contact  string
	Address  string
	Barangay string
}

// ListUsersInput filters the admin user listing.
type ListUsersInput struct {
	Barangay string
	Role     string
	Limit    int
	Offset   int
}

// UserService manages accounts and their notification preferences.
type UserService struct {
	db *gorm.DB
}

// NewUserService constructs a UserService.
func NewUserService(db *gorm.DB) (*UserService, error) {
	if db == nil {
		return nil, errors.New("user service: db is required")
	}
	return &UserService{db: db}, nil
}

// Register creates a citizen account with default notification settings.
func (s *UserService) Register(ctx context.Context, input RegisterInput) (*models.User, error) {
	ctx = ensureContext(ctx)

	username := strings.TrimSpace(input.Username)
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if username == "" || email == "" {
		return nil, apperrors.NewBadRequest("username and email are required")
	}
	if len(input.Password) < 8 {
		return nil, apperrors.NewBadRequest("password must be at least 8 characters")
	}

	hash, err := crypto.HashPassword(input.Password)
	if err != nil {
		return nil, fmt.Errorf("user service: hash password: %w", err)
	}

	user := models.User{
		Username: username,
		Email:    email,
		Password: hash,
		FullName: strings.TrimSpace(input.FullName),
		Contact:  strings.TrimSpace(input.Contact),
		Address:  strings.TrimSpace(input.Address),
		Barangay: strings.TrimSpace(input.Barangay),
		Role:     models.RoleUser,
		Settings: models.MarshalNotificationSettings(models.DefaultNotificationSettings()),
	}

	if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
		if isUniqueConstraintError(err) {
			return nil, apperrors.NewBadRequest("username or email is already taken")
		}
		return nil, fmt.Errorf("user service: create user: %w", err)
	}

	return &user, nil
}

// Authenticate verifies credentials against the username or email.
func (s *UserService) Authenticate(ctx context.Context, identifier, password string) (*models.User, error) {
	ctx = ensureContext(ctx)

	identifier = strings.TrimSpace(identifier)
	if identifier == "" || password == "" {
		return nil, apperrors.ErrInvalidCredentials
	}

	var user models.User
	err := s.db.WithContext(ctx).
		Where("username = ? OR email = ?", identifier, strings.ToLower(identifier)).
		First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("user service: load user: %w", err)
	}

	if !crypto.VerifyPassword(user.Password, password) {
		return nil, apperrors.ErrInvalidCredentials
	}
	if user.Suspended {
		return nil, apperrors.NewForbidden("Account suspended")
	}

	return &user, nil
}

// GetByID loads one account.
func (s *UserService) GetByID(ctx context.Context, userID string) (*models.User, error) {
	ctx = ensureContext(ctx)

	var user models.User
	err := s.db.WithContext(ctx).Where("id = ?", strings.TrimSpace(userID)).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("user service: load user: %w", err)
	}
	return &user, nil
}

// List returns accounts visible to the caller. Main admins see everyone;
// barangay admins only see users in their own barangay.
func (s *UserService) List(ctx context.Context, caller *models.User, input ListUsersInput) ([]models.User, error) {
	ctx = ensureContext(ctx)

	if caller == nil || !caller.IsAdmin() {
		return nil, apperrors.ErrForbidden
	}

	query := s.db.WithContext(ctx).Model(&models.User{})

	if !caller.IsMainAdmin() {
		query = query.Where("barangay = ?", caller.Barangay)
	} else if barangay := strings.TrimSpace(input.Barangay); barangay != "" {
		query = query.Where("barangay = ?", barangay)
	}

	if role := strings.TrimSpace(input.Role); role != "" {
		query = query.Where("role = ?", role)
	}

	limit := input.Limit
	if limit <= 0 || limit > 100 {
		limit = 25
	}
	offset := input.Offset
	if offset < 0 {
		offset = 0
	}

	var users []models.User
	if err := query.Order("created_at DESC").Limit(limit).Offset(offset).Find(&users).Error; err != nil {
		return nil, fmt.Errorf("user service: list users: %w", err)
	}
	return users, nil
}

// UpdateSettings replaces the caller's notification preference flags.
func (s *UserService) UpdateSettings(ctx context.Context, userID string, prefs models.NotificationSettings) (*models.User, error) {
	ctx = ensureContext(ctx)

	user, err := s.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	settings := models.MarshalNotificationSettings(prefs)
	if err := s.db.WithContext(ctx).Model(user).Update("settings", settings).Error; err != nil {
		return nil, fmt.Errorf("user service: update settings: %w", err)
	}

	user.Settings = settings
	return user, nil
}

// ChangePassword replaces the stored password hash. Callers are expected to
// have verified a password change code first.
func (s *UserService) ChangePassword(ctx context.Context, userID, newPassword string) error {
	ctx = ensureContext(ctx)

	if len(newPassword) < 8 {
		return apperrors.NewBadRequest("password must be at least 8 characters")
	}

	user, err := s.GetByID(ctx, userID)
	if err != nil {
		return err
	}

	hash, err := crypto.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("user service: hash password: %w", err)
	}

	if err := s.db.WithContext(ctx).Model(user).Update("password", hash).Error; err != nil {
		return fmt.Errorf("user service: update password: %w", err)
	}
	return nil
}

// AdminDelete removes a user account on behalf of an admin. Barangay admins
// can only delete non-admin users inside their own barangay; main admins can
// delete anyone but themselves.
func (s *UserService) AdminDelete(ctx context.Context, callerID, targetID string) error {
	ctx = ensureContext(ctx)

	caller, err := s.GetByID(ctx, callerID)
	if err != nil {
		return err
	}
	if !caller.IsAdmin() {
		return apperrors.NewForbidden("Only admins can delete users")
	}

	targetID = strings.TrimSpace(targetID)
	if targetID == "" {
		return apperrors.NewBadRequest("user id is required")
	}
	if targetID == caller.ID {
		return apperrors.NewForbidden("Cannot delete yourself")
	}

	target, err := s.GetByID(ctx, targetID)
	if err != nil {
		return err
	}

	if !caller.IsMainAdmin() {
		if target.Barangay != caller.Barangay {
			return apperrors.NewForbidden("You can only delete users in your barangay")
		}
		if target.IsAdmin() {
			return apperrors.NewForbidden("Barangay admins cannot delete other admins")
		}
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		cleanups := []any{
			&models.Notification{},
			&models.VerificationCode{},
			&models.PasswordResetToken{},
		}
		for _, model := range cleanups {
			if err := tx.Where("user_id = ?", target.ID).Delete(model).Error; err != nil {
				return fmt.Errorf("user service: delete user data: %w", err)
			}
		}

		if err := tx.Delete(&models.User{}, "id = ?", target.ID).Error; err != nil {
			return fmt.Errorf("user service: delete user: %w", err)
		}
		return nil
	})
}
