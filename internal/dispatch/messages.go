package dispatch

import (
	"fmt"

	"github.com/linisbayan/linisbayan/internal/models"
)

const excerptLimit = 50

// excerpt shortens quoted text for notification messages, truncating on a
// rune boundary so multi-byte characters are never split.
func excerpt(text string) string {
	runes := []rune(text)
	if len(runes) <= excerptLimit {
		return text
	}
	return string(runes[:excerptLimit]) + "..."
}

// notificationContent returns the in-app title and message for a transition.
func notificationContent(t Transition, report ReportState) (title, message string) {
	switch t.Kind {
	case models.NotificationReportAccepted:
		return "✅ Report Accepted",
			fmt.Sprintf("Your pollution report at %q has been accepted and is now being processed.", report.Location)

	case models.NotificationReportInProgress:
		return "🔄 Report In Progress",
			fmt.Sprintf("Your pollution report at %q is now being worked on.", report.Location)

	case models.NotificationReportDone:
		return "🎉 Report Resolved",
			fmt.Sprintf("Congratulations! Your pollution report at %q has been resolved. Thank you for helping keep our community clean!", report.Location)

	case models.NotificationReportRejected:
		return "❌ Report Rejected",
			fmt.Sprintf("Your report at %q has been rejected. Please contact an admin if you have questions.", report.Location)

	case models.NotificationUpvote:
		return "👍 New Upvote!",
			fmt.Sprintf("Your pollution report at %q received an upvote! Total: %d", report.Location, t.Upvotes)

	case models.NotificationAdminComment:
		return "💬 Admin Comment",
			fmt.Sprintf("An admin commented on your report at %q: %q", report.Location, excerpt(t.Comment.Text))

	case models.NotificationAdminResponse:
		return "📝 Admin Response",
			fmt.Sprintf("An admin responded to your report at %q: %q", report.Location, excerpt(t.ResponseText))

	default:
		return "", ""
	}
}

// emailSubject returns the subject line for a transition email.
func emailSubject(t Transition, report ReportState) string {
	switch t.Kind {
	case models.NotificationReportAccepted:
		return fmt.Sprintf("✅ Report Accepted - %s Pollution", report.Type)
	case models.NotificationReportInProgress:
		return fmt.Sprintf("🔄 Report In Progress - %s Pollution", report.Type)
	case models.NotificationReportDone:
		return fmt.Sprintf("🎉 Report Resolved - %s Pollution", report.Type)
	case models.NotificationReportRejected:
		return fmt.Sprintf("❌ Report Rejected - %s Pollution", report.Type)
	case models.NotificationUpvote:
		return "👍 Your Report Received an Upvote!"
	case models.NotificationAdminComment:
		return "💬 New Comment on Your Report"
	case models.NotificationAdminResponse:
		return "📝 Admin Response to Your Report"
	default:
		return ""
	}
}
