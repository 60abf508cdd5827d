package models

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
)

// Report statuses as shown to citizens and admins.
const (
	ReportStatusPending    = "Pending"
	ReportStatusInProgress = "In Progress"
	ReportStatusDone       = "Done"
)

// Report types.
const (
	ReportTypeWater = "water"
	ReportTypeAir   = "air"
	ReportTypeLand  = "land"
)

// Comment is a single discussion entry stored inline on a report.
type Comment struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	UserName  string    `json:"user_name"`
	UserRole  string    `json:"user_role"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

// AdminResponse is the official reply an admin attaches to a report.
type AdminResponse struct {
	Text string    `json:"text"`
	Date time.Time `json:"date"`
}

// Report is a citizen-submitted pollution report.
type Report struct {
	BaseModel

	ReporterID   string `gorm:"type:uuid;not null;index" json:"reporter_id"`
	ReporterName string `json:"reporter_name"`

	Type        string  `gorm:"type:varchar(16);not null;index" json:"type"`
	Location    string  `gorm:"not null" json:"location"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
	Description string  `gorm:"type:text" json:"description"`
	Barangay    string  `gorm:"type:varchar(64);index" json:"barangay"`

	Images datatypes.JSON `json:"images"`

	Status   string `gorm:"type:varchar(16);not null;default:'Pending';index" json:"status"`
	Approved bool   `gorm:"default:false;index" json:"approved"`

	Upvotes   int            `gorm:"default:0" json:"upvotes"`
	UpvotedBy datatypes.JSON `json:"upvoted_by"`

	Comments      datatypes.JSON `json:"comments"`
	AdminResponse datatypes.JSON `json:"admin_response"`
}

// CommentList decodes the inline comment array. A corrupt or empty column
// yields an empty slice.
func (r *Report) CommentList() []Comment {
	var comments []Comment
	if len(r.Comments) > 0 {
		_ = json.Unmarshal(r.Comments, &comments)
	}
	return comments
}

// SetComments encodes the comment array back onto the report.
func (r *Report) SetComments(comments []Comment) error {
	data, err := json.Marshal(comments)
	if err != nil {
		return err
	}
	r.Comments = datatypes.JSON(data)
	return nil
}

// UpvoterIDs decodes the list of user IDs that upvoted the report.
func (r *Report) UpvoterIDs() []string {
	var ids []string
	if len(r.UpvotedBy) > 0 {
		_ = json.Unmarshal(r.UpvotedBy, &ids)
	}
	return ids
}

// SetUpvoterIDs encodes the upvoter list back onto the report.
func (r *Report) SetUpvoterIDs(ids []string) error {
	data, err := json.Marshal(ids)
	if err != nil {
		return err
	}
	r.UpvotedBy = datatypes.JSON(data)
	return nil
}

// ImageList decodes the stored image URLs.
func (r *Report) ImageList() []string {
	var images []string
	if len(r.Images) > 0 {
		_ = json.Unmarshal(r.Images, &images)
	}
	return images
}

// SetImages encodes the image URL list onto the report.
func (r *Report) SetImages(images []string) error {
	data, err := json.Marshal(images)
	if err != nil {
		return err
	}
	r.Images = datatypes.JSON(data)
	return nil
}

// Response decodes the official admin response, or nil when none exists.
func (r *Report) Response() *AdminResponse {
	if len(r.AdminResponse) == 0 {
		return nil
	}
	var resp AdminResponse
	if err := json.Unmarshal(r.AdminResponse, &resp); err != nil {
		return nil
	}
	if resp.Text == "" {
		return nil
	}
	return &resp
}

// SetResponse encodes the official admin response onto the report.
func (r *Report) SetResponse(resp AdminResponse) error {
	data, err := json.Marshal(resp)
	if err != nil {
		return err
	}
	r.AdminResponse = datatypes.JSON(data)
	return nil
}
