package dispatch

import "github.com/linisbayan/linisbayan/internal/models"

// ReportState is an immutable view of a report used to detect transitions.
// Services capture one before and one after a mutation and hand both to the
// dispatcher.
type ReportState struct {
	ID           string
	ReporterID   string
	ReporterName string
	Type         string
	Location     string
	Description  string
	Barangay     string
	Status       string
	Approved     bool
	Upvotes      int
	ResponseText string
	Comments     []models.Comment
}

// SnapshotReport captures the dispatch-relevant state of a report.
func SnapshotReport(r *models.Report) ReportState {
	state := ReportState{
		ID:           r.ID,
		ReporterID:   r.ReporterID,
		ReporterName: r.ReporterName,
		Type:         r.Type,
		Location:     r.Location,
		Description:  r.Description,
		Barangay:     r.Barangay,
		Status:       r.Status,
		Approved:     r.Approved,
		Upvotes:      r.Upvotes,
		Comments:     r.CommentList(),
	}
	if resp := r.Response(); resp != nil {
		state.ResponseText = resp.Text
	}
	return state
}
