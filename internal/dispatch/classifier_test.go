package dispatch

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/linisbayan/linisbayan/internal/models"
)

func baseState() ReportState {
	return ReportState{
		ID:           "r1",
		ReporterID:   "u1",
		ReporterName: "Ana Cruz",
		Type:         models.ReportTypeWater,
		Location:     "Riverside Creek",
		Barangay:     "San Isidro",
		Status:       models.ReportStatusPending,
	}
}

func TestClassifyNoChange(t *testing.T) {
	s := baseState()
	require.Empty(t, Classify(s, s))
}

func TestClassifyApprovalOutranksStatus(t *testing.T) {
	before := baseState()

	after := before
	after.Approved = true
	after.Status = models.ReportStatusInProgress

	transitions := Classify(before, after)
	require.Len(t, transitions, 1)
	require.Equal(t, models.NotificationReportAccepted, transitions[0].Kind)
}

func TestClassifyStatusProgression(t *testing.T) {
	before := baseState()
	before.Approved = true

	after := before
	after.Status = models.ReportStatusInProgress
	transitions := Classify(before, after)
	require.Len(t, transitions, 1)
	require.Equal(t, models.NotificationReportInProgress, transitions[0].Kind)

	before = after
	after.Status = models.ReportStatusDone
	transitions = Classify(before, after)
	require.Len(t, transitions, 1)
	require.Equal(t, models.NotificationReportDone, transitions[0].Kind)
}

func TestClassifyRejection(t *testing.T) {
	before := baseState()
	before.Approved = true

	after := before
	after.Approved = false

	transitions := Classify(before, after)
	require.Len(t, transitions, 1)
	require.Equal(t, models.NotificationReportRejected, transitions[0].Kind)
}

func TestClassifyUpvoteStrictIncrease(t *testing.T) {
	before := baseState()
	before.Upvotes = 3

	after := before
	after.Upvotes = 4

	transitions := Classify(before, after)
	require.Len(t, transitions, 1)
	require.Equal(t, models.NotificationUpvote, transitions[0].Kind)
	require.Equal(t, 4, transitions[0].Upvotes)

	// Equal or decreasing counts never fire.
	require.Empty(t, Classify(after, after))
	require.Empty(t, Classify(after, before))
}

func TestClassifyAdminComment(t *testing.T) {
	before := baseState()

	after := before
	after.Comments = []models.Comment{{
		ID:       "c1",
		UserID:   "admin-1",
		UserName: "Engr. Reyes",
		UserRole: models.RoleAdmin,
		Text:     "We will inspect the site tomorrow morning with the barangay crew.",
	}}

	transitions := Classify(before, after)
	require.Len(t, transitions, 1)
	require.Equal(t, models.NotificationAdminComment, transitions[0].Kind)
	require.Equal(t, "c1", transitions[0].Comment.ID)
}

func TestClassifyCitizenCommentDoesNotNotify(t *testing.T) {
	before := baseState()

	after := before
	after.Comments = []models.Comment{{
		ID:       "c1",
		UserID:   "other-user",
		UserRole: models.RoleUser,
		Text:     "I saw this too",
	}}

	require.Empty(t, Classify(before, after))
}

func TestClassifySelfCommentSuppressesDiscussion(t *testing.T) {
	before := baseState()

	after := before
	after.Comments = []models.Comment{{
		ID:       "c1",
		UserID:   "u1", // the reporter themselves
		UserRole: models.RoleUser,
		Text:     "bump",
	}}
	// Even a simultaneous response change is swallowed when the newest
	// comment is the reporter's own.
	after.ResponseText = "Crew scheduled"

	require.Empty(t, Classify(before, after))
}

func TestClassifyAdminResponse(t *testing.T) {
	before := baseState()
	before.ResponseText = "Looking into it"

	after := before
	after.ResponseText = "Cleanup scheduled for Saturday"

	transitions := Classify(before, after)
	require.Len(t, transitions, 1)
	require.Equal(t, models.NotificationAdminResponse, transitions[0].Kind)
	require.Equal(t, "Cleanup scheduled for Saturday", transitions[0].ResponseText)
}

func TestClassifyClearedResponseDoesNotNotify(t *testing.T) {
	before := baseState()
	before.ResponseText = "Done"

	after := before
	after.ResponseText = ""

	require.Empty(t, Classify(before, after))
}

func TestClassifyAdminCommentOutranksResponse(t *testing.T) {
	before := baseState()

	after := before
	after.ResponseText = "Official response"
	after.Comments = []models.Comment{{
		ID:       "c1",
		UserID:   "admin-1",
		UserRole: models.RoleAdmin,
		Text:     "Comment text",
	}}

	transitions := Classify(before, after)
	require.Len(t, transitions, 1)
	require.Equal(t, models.NotificationAdminComment, transitions[0].Kind)
}

func TestClassifyCompoundUpdate(t *testing.T) {
	before := baseState()
	before.Upvotes = 1

	after := before
	after.Approved = true
	after.Upvotes = 2
	after.Comments = []models.Comment{{
		ID:       "c1",
		UserID:   "admin-1",
		UserRole: models.RoleAdmin,
		Text:     "Accepted, thanks",
	}}

	transitions := Classify(before, after)
	require.Len(t, transitions, 3)
	require.Equal(t, models.NotificationReportAccepted, transitions[0].Kind)
	require.Equal(t, models.NotificationUpvote, transitions[1].Kind)
	require.Equal(t, models.NotificationAdminComment, transitions[2].Kind)
}

func TestExcerptTruncatesLongText(t *testing.T) {
	long := "This is a very long comment that definitely exceeds the fifty character limit for notification excerpts"
	got := excerpt(long)
	require.Len(t, got, excerptLimit+3)
	require.Equal(t, long[:excerptLimit]+"...", got)

	require.Equal(t, "short", excerpt("short"))
}
