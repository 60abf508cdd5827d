package dispatch

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/linisbayan/linisbayan/internal/models"
	"github.com/linisbayan/linisbayan/internal/notifications"
	"github.com/linisbayan/linisbayan/pkg/logger"
	"github.com/linisbayan/linisbayan/pkg/mail"
	"github.com/linisbayan/linisbayan/pkg/metrics"
)

// Dispatcher turns domain mutations into in-app notifications, realtime
// events and emails. Recipient resolution failures abort the dispatch;
// per-recipient delivery failures are logged and delivery continues, so a
// broken mailbox never blocks the rest of the fan-out.
type Dispatcher struct {
	db       *gorm.DB
	resolver *Resolver
	mailer   mail.Mailer
	hub      *notifications.Hub
	log      *zap.Logger
}

// NewDispatcher constructs a Dispatcher. The mailer and hub are optional;
// without them dispatch degrades to in-app notifications only.
func NewDispatcher(db *gorm.DB, mailer mail.Mailer, hub *notifications.Hub) (*Dispatcher, error) {
	resolver, err := NewResolver(db)
	if err != nil {
		return nil, err
	}

	return &Dispatcher{
		db:       db,
		resolver: resolver,
		mailer:   mailer,
		hub:      hub,
		log:      logger.WithModule("dispatch"),
	}, nil
}

// ReportCreated notifies the responsible admins that a fresh report arrived.
func (d *Dispatcher) ReportCreated(ctx context.Context, report *models.Report) error {
	state := SnapshotReport(report)

	admins, err := d.resolver.ReportAdmins(ctx, state.Barangay)
	if err != nil {
		return err
	}
	if len(admins) == 0 {
		d.log.Info("no admins to notify for new report", zap.String("report_id", state.ID))
		return nil
	}

	reporterName := state.ReporterName
	if reporterName == "" {
		reporterName = "A user"
	}

	title := "📋 New Report Submitted"
	message := fmt.Sprintf("%s submitted a new %s pollution report at %s", reporterName, state.Type, state.Location)

	var wg sync.WaitGroup
	errs := make([]error, len(admins))
	for i := range admins {
		wg.Add(1)
		go func(i int, admin models.User) {
			defer wg.Done()
			errs[i] = d.notifyAdmin(ctx, admin, state, title, message, reporterName)
		}(i, admins[i])
	}
	wg.Wait()

	if err := multierr.Combine(errs...); err != nil {
		d.log.Warn("new report fan-out incomplete",
			zap.String("report_id", state.ID),
			zap.Error(err),
		)
	}
	return nil
}

// notifyAdmin delivers one new-report notification. The email leg only checks
// for a verified address; admins cannot opt out of new report alerts.
func (d *Dispatcher) notifyAdmin(ctx context.Context, admin models.User, state ReportState, title, message, reporterName string) error {
	d.store(ctx, &models.Notification{
		UserID:    admin.ID,
		Type:      models.NotificationNewReport,
		Title:     title,
		Message:   message,
		ReportID:  state.ID,
		Barangay:  state.Barangay,
		ActorID:   state.ReporterID,
		ActorName: reporterName,
	})

	if admin.Email == "" || !admin.EmailVerified {
		metrics.EmailsSent.WithLabelValues("skipped").Inc()
		return nil
	}

	subject, html, err := RenderNewReportEmail(state, displayName(&admin), admin.IsMainAdmin())
	if err != nil {
		return fmt.Errorf("render new report email for %s: %w", admin.ID, err)
	}
	if _, err := d.deliver(ctx, admin.Email, subject, html); err != nil {
		return fmt.Errorf("email admin %s: %w", admin.ID, err)
	}
	return nil
}

// ReportUpdated classifies the change between two report states and notifies
// the reporter about every transition found.
func (d *Dispatcher) ReportUpdated(ctx context.Context, before, after ReportState) error {
	transitions := Classify(before, after)
	if len(transitions) == 0 {
		return nil
	}

	reporter, err := d.resolver.Reporter(ctx, after.ReporterID)
	if err != nil {
		return err
	}
	if reporter == nil {
		d.log.Warn("report has no reachable reporter", zap.String("report_id", after.ID))
		return nil
	}

	prefs := reporter.NotificationSettings()

	for _, t := range transitions {
		title, message := notificationContent(t, after)
		if title == "" {
			continue
		}

		notification := &models.Notification{
			UserID:   reporter.ID,
			Type:     t.Kind,
			Title:    title,
			Message:  message,
			ReportID: after.ID,
			Barangay: after.Barangay,
		}
		if t.Comment != nil {
			notification.ActorID = t.Comment.UserID
			notification.ActorName = commentAuthor(t.Comment)
		}
		d.store(ctx, notification)

		if !d.emailWanted(t.Kind, prefs) || reporter.Email == "" || !reporter.EmailVerified {
			metrics.EmailsSent.WithLabelValues("skipped").Inc()
			continue
		}

		html, err := renderTransitionEmail(t, after, displayName(reporter))
		if err != nil {
			d.log.Error("render transition email", zap.String("kind", t.Kind), zap.Error(err))
			continue
		}
		d.sendEmail(ctx, reporter.Email, emailSubject(t, after), html)
	}

	return nil
}

// AnnouncementCreated fans an announcement out to its audience.
func (d *Dispatcher) AnnouncementCreated(ctx context.Context, announcement *models.Announcement) error {
	audience, err := d.resolver.AnnouncementAudience(ctx, announcement.Barangay)
	if err != nil {
		return err
	}

	title := "📢 " + announcement.Title
	message := announcement.Description
	if message == "" {
		message = announcement.Title
	}

	var wg sync.WaitGroup
	errs := make([]error, len(audience))
	for i := range audience {
		wg.Add(1)
		go func(i int, user models.User) {
			defer wg.Done()
			errs[i] = d.announceTo(ctx, user, announcement, title, message)
		}(i, audience[i])
	}
	wg.Wait()

	if err := multierr.Combine(errs...); err != nil {
		d.log.Warn("announcement fan-out incomplete",
			zap.String("announcement_id", announcement.ID),
			zap.Error(err),
		)
	}

	d.log.Info("announcement dispatched",
		zap.String("announcement_id", announcement.ID),
		zap.Int("recipients", len(audience)),
	)
	return nil
}

// announceTo writes the inbox row for one recipient unconditionally; the
// announcement and email preference flags gate only the email leg.
func (d *Dispatcher) announceTo(ctx context.Context, user models.User, announcement *models.Announcement, title, message string) error {
	d.store(ctx, &models.Notification{
		UserID:         user.ID,
		Type:           models.NotificationAnnouncement,
		Title:          title,
		Message:        message,
		AnnouncementID: announcement.ID,
		Barangay:       announcement.Barangay,
		ActorID:        announcement.AuthorID,
		ActorName:      announcement.AuthorName,
	})

	prefs := user.NotificationSettings()
	if !prefs.Announcement || !prefs.Email || user.Email == "" || !user.EmailVerified {
		metrics.EmailsSent.WithLabelValues("skipped").Inc()
		return nil
	}

	subject, html, err := RenderAnnouncementEmail(announcement, displayName(&user))
	if err != nil {
		return fmt.Errorf("render announcement email for %s: %w", user.ID, err)
	}
	if _, err := d.deliver(ctx, user.Email, subject, html); err != nil {
		return fmt.Errorf("email user %s: %w", user.ID, err)
	}
	return nil
}

// SendRejectionWarning mails the conduct warning to a reporter. Preference
// flags are deliberately ignored; only a missing address prevents delivery.
func (d *Dispatcher) SendRejectionWarning(ctx context.Context, reporter *models.User, reportType, location, reason string) (bool, error) {
	if reporter == nil || reporter.Email == "" {
		metrics.EmailsSent.WithLabelValues("skipped").Inc()
		return false, nil
	}

	subject, html, err := RenderRejectionWarningEmail(displayName(reporter), reportType, location, reason)
	if err != nil {
		return false, fmt.Errorf("dispatch: render rejection warning: %w", err)
	}

	return d.sendEmail(ctx, reporter.Email, subject, html), nil
}

// emailWanted maps a transition kind onto the reporter's preference flags.
func (d *Dispatcher) emailWanted(kind string, prefs models.NotificationSettings) bool {
	switch kind {
	case models.NotificationUpvote:
		return prefs.Upvote && prefs.Email
	default:
		return prefs.ReportStatus && prefs.Email
	}
}

// store persists one notification row and pushes it to open connections.
// Failures are logged, never propagated.
func (d *Dispatcher) store(ctx context.Context, n *models.Notification) {
	if err := d.db.WithContext(ctx).Create(n).Error; err != nil {
		d.log.Error("create notification",
			zap.String("user_id", n.UserID),
			zap.String("type", n.Type),
			zap.Error(err),
		)
		return
	}

	metrics.NotificationsCreated.WithLabelValues(n.Type).Inc()

	if d.hub != nil {
		d.hub.Publish(n.UserID, notifications.Event{Event: "notification", Data: n})
	}
}

// deliver sends one email and records the outcome. A missing or disabled
// mailer counts as a skip, not a failure.
func (d *Dispatcher) deliver(ctx context.Context, to, subject, html string) (bool, error) {
	if d.mailer == nil {
		metrics.EmailsSent.WithLabelValues("skipped").Inc()
		return false, nil
	}

	err := d.mailer.Send(ctx, mail.Message{
		To:      []string{to},
		Subject: subject,
		HTML:    html,
	})
	switch {
	case err == nil:
		metrics.EmailsSent.WithLabelValues("sent").Inc()
		return true, nil
	case errors.Is(err, mail.ErrSMTPDisabled):
		metrics.EmailsSent.WithLabelValues("skipped").Inc()
		return false, nil
	default:
		metrics.EmailsSent.WithLabelValues("failed").Inc()
		return false, err
	}
}

func (d *Dispatcher) sendEmail(ctx context.Context, to, subject, html string) bool {
	sent, err := d.deliver(ctx, to, subject, html)
	if err != nil {
		d.log.Error("send email", zap.String("subject", subject), zap.Error(err))
	}
	return sent
}

func displayName(u *models.User) string {
	if u.FullName != "" {
		return u.FullName
	}
	if u.Username != "" {
		return u.Username
	}
	return "User"
}
