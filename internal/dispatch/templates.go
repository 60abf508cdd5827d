package dispatch

import (
	"bytes"
	"fmt"
	"html/template"
	"time"

	"github.com/linisbayan/linisbayan/internal/models"
)

// Accent colours shared across the email layout.
const (
	colorGreen  = "#198754"
	colorCyan   = "#0dcaf0"
	colorRed    = "#dc3545"
	colorYellow = "#ffc107"
	colorPurple = "#6f42c1"
	colorOrange = "#fd7e14"
	colorBlue   = "#0d6efd"
)

var emailTmpl = template.Must(template.New("email").Parse(`<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
  <div style="background: {{.HeaderColor}}; color: {{.HeaderTextColor}}; padding: 20px; text-align: center;">
    <h1>{{.Heading}}</h1>
  </div>
  <div style="padding: 20px; background: #f8f9fa;">
    <p>Hi <strong>{{.Name}}</strong>,</p>
    {{range .Intro}}<p>{{.}}</p>
    {{end}}{{if .Details}}<div style="background: white; padding: 15px; border-radius: 8px; margin: 15px 0; border-left: 4px solid {{.AccentColor}};">
      {{range .Details}}<p><strong>{{.Label}}:</strong> {{.Value}}</p>
      {{end}}{{if .Quote}}<p style="font-style: italic; color: #333;">"{{.Quote}}"</p>
      {{end}}{{if .QuoteBy}}<p style="color: #6c757d; font-size: 12px;">- {{.QuoteBy}}</p>
      {{end}}</div>
    {{end}}{{if .Code}}<div style="background: white; padding: 20px; border-radius: 8px; margin: 20px 0; text-align: center;">
      <h1 style="color: {{.AccentColor}}; font-size: 36px; letter-spacing: 8px; margin: 0;">{{.Code}}</h1>
    </div>
    <p>This code will expire in <strong>{{.Expiry}}</strong>.</p>
    {{end}}{{if .LinkURL}}<div style="text-align: center; margin: 30px 0;">
      <a href="{{.LinkURL}}" style="background: #198754; color: white; padding: 15px 30px; text-decoration: none; border-radius: 8px; font-size: 16px; font-weight: bold; display: inline-block;">{{.LinkLabel}}</a>
    </div>
    <p style="color: #6c757d; font-size: 14px;">Or copy and paste this link into your browser:</p>
    <p style="background: white; padding: 10px; border-radius: 4px; word-break: break-all; font-size: 12px; color: #0d6efd;">{{.LinkURL}}</p>
    {{end}}{{if .Warning}}<div style="background: #fff3cd; padding: 15px; border-radius: 8px; margin: 15px 0; border: 1px solid #ffc107;">
      <p style="color: #856404; margin: 0;"><strong>⚠️ {{.Warning}}</strong></p>
    </div>
    {{end}}{{range .Outro}}<p>{{.}}</p>
    {{end}}<hr>
    <p style="color: #6c757d; font-size: 12px;">LinisBayan - Keeping our barangays clean</p>
  </div>
</div>`))

type emailDetail struct {
	Label string
	Value string
}

type emailData struct {
	Heading         string
	HeaderColor     template.CSS
	HeaderTextColor template.CSS
	AccentColor     template.CSS
	Name            string
	Intro           []string
	Details         []emailDetail
	Quote           string
	QuoteBy         string
	Code            string
	Expiry          string
	LinkURL         string
	LinkLabel       string
	Warning         string
	Outro           []string
}

func renderEmail(data emailData) (string, error) {
	if data.HeaderTextColor == "" {
		data.HeaderTextColor = "white"
	}
	if data.AccentColor == "" {
		data.AccentColor = colorGreen
	}

	var buf bytes.Buffer
	if err := emailTmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("dispatch: render email: %w", err)
	}
	return buf.String(), nil
}

func statusAccent(kind string) template.CSS {
	switch kind {
	case models.NotificationReportDone:
		return colorGreen
	case models.NotificationReportAccepted, models.NotificationReportInProgress:
		return colorCyan
	case models.NotificationReportRejected:
		return colorRed
	default:
		return colorYellow
	}
}

// renderTransitionEmail builds the HTML body for a report transition email
// addressed to the reporter.
func renderTransitionEmail(t Transition, report ReportState, recipientName string) (string, error) {
	title, message := notificationContent(t, report)

	switch t.Kind {
	case models.NotificationReportAccepted, models.NotificationReportInProgress,
		models.NotificationReportDone, models.NotificationReportRejected:
		return renderEmail(emailData{
			Heading:     title,
			HeaderColor: statusAccent(t.Kind),
			AccentColor: statusAccent(t.Kind),
			Name:        recipientName,
			Intro:       []string{message},
			Details: []emailDetail{
				{Label: "Report ID", Value: report.ID},
				{Label: "Type", Value: report.Type + " Pollution"},
				{Label: "Location", Value: report.Location},
				{Label: "Status", Value: report.Status},
			},
			Outro: []string{"Thank you for helping keep our community clean!"},
		})

	case models.NotificationUpvote:
		return renderEmail(emailData{
			Heading:     title,
			HeaderColor: colorGreen,
			Name:        recipientName,
			Intro:       []string{message},
			Details: []emailDetail{
				{Label: "Report", Value: fmt.Sprintf("%s Pollution at %s", report.Type, report.Location)},
				{Label: "Total Upvotes", Value: fmt.Sprintf("%d", t.Upvotes)},
			},
			Outro: []string{"Thank you for contributing to a cleaner community!"},
		})

	case models.NotificationAdminComment:
		return renderEmail(emailData{
			Heading:     "💬 New Admin Comment",
			HeaderColor: colorCyan,
			AccentColor: colorCyan,
			Name:        recipientName,
			Intro:       []string{"An administrator has commented on your pollution report:"},
			Details: []emailDetail{
				{Label: "Report", Value: fmt.Sprintf("%s Pollution at %s", report.Type, report.Location)},
			},
			Quote:   t.Comment.Text,
			QuoteBy: commentAuthor(t.Comment),
			Outro:   []string{"You can view your report and respond in the app."},
		})

	case models.NotificationAdminResponse:
		return renderEmail(emailData{
			Heading:     "📝 Admin Response",
			HeaderColor: colorPurple,
			AccentColor: colorPurple,
			Name:        recipientName,
			Intro:       []string{"An administrator has responded to your pollution report:"},
			Details: []emailDetail{
				{Label: "Report", Value: fmt.Sprintf("%s Pollution at %s", report.Type, report.Location)},
			},
			Quote: t.ResponseText,
			Outro: []string{"Thank you for your report!"},
		})

	default:
		return "", fmt.Errorf("dispatch: no email template for kind %q", t.Kind)
	}
}

func commentAuthor(c *models.Comment) string {
	if c == nil || c.UserName == "" {
		return "Admin"
	}
	return c.UserName
}

// RenderAnnouncementEmail builds the broadcast email for a new announcement.
func RenderAnnouncementEmail(a *models.Announcement, recipientName string) (subject, html string, err error) {
	subject = "📢 " + a.Title

	intro := []string{a.Title}
	if a.Subtitle != "" {
		intro = append(intro, a.Subtitle)
	}

	html, err = renderEmail(emailData{
		Heading:     "📢 New Announcement",
		HeaderColor: colorOrange,
		Name:        recipientName,
		Intro:       intro,
		Details: []emailDetail{
			{Label: "Details", Value: a.Description},
		},
		Outro: []string{"Posted on " + time.Now().Format("January 2, 2006")},
	})
	return subject, html, err
}

// RenderNewReportEmail builds the email notifying an admin of a fresh report.
func RenderNewReportEmail(report ReportState, adminName string, mainAdmin bool) (subject, html string, err error) {
	area := report.Barangay
	if area == "" {
		area = "Your Area"
	}
	subject = fmt.Sprintf("📋 New %s Pollution Report - %s", report.Type, area)

	intro := "A new pollution report has been submitted in your barangay:"
	if mainAdmin {
		intro = "A new pollution report has been submitted:"
	}

	description := report.Description
	if description == "" {
		description = "No description provided"
	}

	details := []emailDetail{
		{Label: "Report ID", Value: report.ID},
		{Label: "Pollution Type", Value: report.Type},
		{Label: "Location", Value: report.Location},
		{Label: "Submitted by", Value: report.ReporterName},
	}
	if report.Barangay != "" {
		details = append(details, emailDetail{Label: "Barangay", Value: report.Barangay})
	}
	details = append(details, emailDetail{Label: "Description", Value: description})

	html, err = renderEmail(emailData{
		Heading:     "📋 New Report Submitted",
		HeaderColor: colorBlue,
		AccentColor: colorBlue,
		Name:        adminName,
		Intro:       []string{intro},
		Details:     details,
		Outro:       []string{"Please log in to the admin dashboard to review and take action on this report."},
	})
	return subject, html, err
}

// RenderVerificationEmail builds the mailed challenge for either purpose.
func RenderVerificationEmail(purpose, recipientName, code string, ttl time.Duration) (subject, html string, err error) {
	minutes := int(ttl.Minutes())
	expiry := fmt.Sprintf("%d minutes", minutes)

	switch purpose {
	case models.VerificationPurposePasswordChange:
		subject = "🔐 Password Change Verification - LinisBayan"
		html, err = renderEmail(emailData{
			Heading:         "Password Change Request",
			HeaderColor:     colorYellow,
			HeaderTextColor: "#000",
			AccentColor:     colorYellow,
			Name:            recipientName,
			Intro:           []string{"You have requested to change your password. Your verification code is:"},
			Code:            code,
			Expiry:          expiry,
			Warning:         "If you did not request this password change, please ignore this email and ensure your account is secure.",
		})
	default:
		subject = "🔐 Verify Your Email - LinisBayan"
		html, err = renderEmail(emailData{
			Heading:     "Email Verification",
			HeaderColor: colorGreen,
			Name:        recipientName,
			Intro:       []string{"Your email verification code is:"},
			Code:        code,
			Expiry:      expiry,
			Outro:       []string{"If you didn't request this code, please ignore this email."},
		})
	}
	return subject, html, err
}

// RenderPasswordResetEmail builds the reset link email.
func RenderPasswordResetEmail(recipientName, email, resetLink string, ttl time.Duration) (subject, html string, err error) {
	subject = "🔑 Reset Your Password - LinisBayan"
	html, err = renderEmail(emailData{
		Heading:     "🔑 Password Reset",
		HeaderColor: colorRed,
		Name:        recipientName,
		Intro: []string{
			fmt.Sprintf("We received a request to reset the password for your LinisBayan account associated with %s.", email),
		},
		LinkURL:   resetLink,
		LinkLabel: "Reset Your Password",
		Warning:   fmt.Sprintf("This link will expire in %s.", formatTTL(ttl)),
		Outro: []string{
			"If you didn't request a password reset, you can safely ignore this email. Your password will remain unchanged.",
		},
	})
	return subject, html, err
}

// RenderRejectionWarningEmail builds the conduct warning mailed on rejection.
func RenderRejectionWarningEmail(recipientName, reportType, location, reason string) (subject, html string, err error) {
	subject = "⚠️ Report Rejected - Action Required"
	if reason == "" {
		reason = "Content not related to pollution reporting"
	}

	html, err = renderEmail(emailData{
		Heading:     "⚠️ Report Rejected",
		HeaderColor: colorRed,
		AccentColor: colorRed,
		Name:        recipientName,
		Intro:       []string{"Your pollution report has been rejected by an administrator:"},
		Details: []emailDetail{
			{Label: "Report Type", Value: reportType},
			{Label: "Location", Value: location},
			{Label: "Reason for Rejection", Value: reason},
		},
		Warning: "WARNING: Repeatedly posting unrelated, inappropriate, or false reports may result in your account being suspended.",
		Outro: []string{
			"Please ensure your future reports are related to actual pollution issues, include accurate location information, and provide clear descriptions of the problem.",
			"If you believe this was a mistake, please contact your barangay administrator.",
		},
	})
	return subject, html, err
}

func formatTTL(ttl time.Duration) string {
	if ttl >= time.Hour && ttl%time.Hour == 0 {
		hours := int(ttl.Hours())
		if hours == 1 {
			return "1 hour"
		}
		return fmt.Sprintf("%d hours", hours)
	}
	return fmt.Sprintf("%d minutes", int(ttl.Minutes()))
}
