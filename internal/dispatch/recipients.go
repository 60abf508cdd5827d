package dispatch

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/linisbayan/linisbayan/internal/models"
)

// Resolver answers "who should hear about this" questions against the user table.
type Resolver struct {
	db *gorm.DB
}

// NewResolver constructs a recipient resolver.
func NewResolver(db *gorm.DB) (*Resolver, error) {
	if db == nil {
		return nil, fmt.Errorf("dispatch: database handle is required")
	}
	return &Resolver{db: db}, nil
}

// ReportAdmins returns the admins who must hear about a new report: the
// admins assigned to the report's barangay plus every main admin, without
// duplicates. Barangay admins come first.
func (r *Resolver) ReportAdmins(ctx context.Context, barangay string) ([]models.User, error) {
	var recipients []models.User
	seen := make(map[string]struct{})

	barangay = strings.TrimSpace(barangay)
	if barangay != "" {
		var barangayAdmins []models.User
		err := r.db.WithContext(ctx).
			Where("role = ? AND barangay = ?", models.RoleAdmin, barangay).
			Find(&barangayAdmins).Error
		if err != nil {
			return nil, fmt.Errorf("dispatch: load barangay admins: %w", err)
		}
		for _, admin := range barangayAdmins {
			seen[admin.ID] = struct{}{}
			recipients = append(recipients, admin)
		}
	}

	var mainAdmins []models.User
	err := r.db.WithContext(ctx).
		Where("role = ? AND (barangay IS NULL OR barangay = '')", models.RoleAdmin).
		Find(&mainAdmins).Error
	if err != nil {
		return nil, fmt.Errorf("dispatch: load main admins: %w", err)
	}
	for _, admin := range mainAdmins {
		if _, dup := seen[admin.ID]; dup {
			continue
		}
		seen[admin.ID] = struct{}{}
		recipients = append(recipients, admin)
	}

	return recipients, nil
}

// AnnouncementAudience returns every user an announcement targets. An empty
// barangay means the announcement is city-wide and reaches all users.
func (r *Resolver) AnnouncementAudience(ctx context.Context, barangay string) ([]models.User, error) {
	query := r.db.WithContext(ctx).Model(&models.User{})

	barangay = strings.TrimSpace(barangay)
	if barangay != "" {
		query = query.Where("barangay = ?", barangay)
	}

	var audience []models.User
	if err := query.Find(&audience).Error; err != nil {
		return nil, fmt.Errorf("dispatch: load announcement audience: %w", err)
	}
	return audience, nil
}

// Reporter loads the owner of a report, or nil when the account is gone.
func (r *Resolver) Reporter(ctx context.Context, reporterID string) (*models.User, error) {
	if strings.TrimSpace(reporterID) == "" {
		return nil, nil
	}

	var user models.User
	err := r.db.WithContext(ctx).Where("id = ?", reporterID).First(&user).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("dispatch: load reporter: %w", err)
	}
	return &user, nil
}
