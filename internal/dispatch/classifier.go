package dispatch

import "github.com/linisbayan/linisbayan/internal/models"

// Transition describes one notification-worthy change detected between two
// report states. A single update can yield several transitions, for example
// a status change and an upvote arriving in the same write.
type Transition struct {
	Kind string

	// Upvotes carries the new total for upvote transitions.
	Upvotes int

	// Comment is the newly added comment for admin comment transitions.
	Comment *models.Comment

	// ResponseText is the official response for admin response transitions.
	ResponseText string
}

// Classify compares two report states and returns the transitions to
// dispatch, in a stable order: status first, then upvote, then discussion.
func Classify(before, after ReportState) []Transition {
	var transitions []Transition

	if t := statusTransition(before, after); t != nil {
		transitions = append(transitions, *t)
	}
	if t := upvoteTransition(before, after); t != nil {
		transitions = append(transitions, *t)
	}
	if t := discussionTransition(before, after); t != nil {
		transitions = append(transitions, *t)
	}

	return transitions
}

// statusTransition applies the moderation state rules. The branches are
// ordered by priority and only the first match fires.
func statusTransition(before, after ReportState) *Transition {
	statusChanged := before.Status != after.Status
	approvedChanged := before.Approved != after.Approved
	if !statusChanged && !approvedChanged {
		return nil
	}

	switch {
	case !before.Approved && after.Approved:
		return &Transition{Kind: models.NotificationReportAccepted}
	case before.Status != models.ReportStatusInProgress && after.Status == models.ReportStatusInProgress:
		return &Transition{Kind: models.NotificationReportInProgress}
	case before.Status != models.ReportStatusDone && after.Status == models.ReportStatusDone:
		return &Transition{Kind: models.NotificationReportDone}
	case before.Approved && !after.Approved:
		return &Transition{Kind: models.NotificationReportRejected}
	default:
		return nil
	}
}

// upvoteTransition fires only when the upvote count strictly increases.
func upvoteTransition(before, after ReportState) *Transition {
	if after.Upvotes <= before.Upvotes {
		return nil
	}
	return &Transition{Kind: models.NotificationUpvote, Upvotes: after.Upvotes}
}

// discussionTransition covers new comments and official response changes.
// An admin comment outranks a response change when both arrive together.
// When the newest comment was written by the reporter themselves nothing is
// dispatched at all.
func discussionTransition(before, after ReportState) *Transition {
	hasNewResponse := after.ResponseText != "" && after.ResponseText != before.ResponseText
	hasNewComment := len(after.Comments) > len(before.Comments)

	if !hasNewResponse && !hasNewComment {
		return nil
	}

	var latest *models.Comment
	isAdminComment := false
	if hasNewComment && len(after.Comments) > 0 {
		latest = &after.Comments[len(after.Comments)-1]
		isAdminComment = latest.UserRole == models.RoleAdmin

		if latest.UserID == after.ReporterID {
			return nil
		}
	}

	switch {
	case hasNewComment && isAdminComment:
		return &Transition{Kind: models.NotificationAdminComment, Comment: latest}
	case hasNewResponse:
		return &Transition{Kind: models.NotificationAdminResponse, ResponseText: after.ResponseText}
	default:
		// A citizen comment on someone else's report is visible in the app
		// but does not notify.
		return nil
	}
}
