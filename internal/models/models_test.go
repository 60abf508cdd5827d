package models

import (
	"testing"
	"time"

	"gorm.io/datatypes"
)

func TestNotificationSettingsDefaults(t *testing.T) {
	u := &User{}
	prefs := u.NotificationSettings()
	if !prefs.Email || !prefs.Announcement || !prefs.Upvote || !prefs.PasswordChange || !prefs.ReportStatus {
		t.Fatalf("expected all defaults on, got %+v", prefs)
	}
}

func TestNotificationSettingsPartialOverride(t *testing.T) {
	u := &User{Settings: datatypes.JSONMap{
		"notifications": map[string]any{
			"upvote": false,
			"email":  false,
		},
	}}

	prefs := u.NotificationSettings()
	if prefs.Upvote || prefs.Email {
		t.Fatalf("expected overridden flags off, got %+v", prefs)
	}
	if !prefs.Announcement || !prefs.ReportStatus || !prefs.PasswordChange {
		t.Fatalf("expected untouched flags to stay on, got %+v", prefs)
	}
}

func TestNotificationSettingsRoundTrip(t *testing.T) {
	prefs := DefaultNotificationSettings()
	prefs.Announcement = false

	u := &User{Settings: MarshalNotificationSettings(prefs)}
	got := u.NotificationSettings()
	if got != prefs {
		t.Fatalf("round trip mismatch: got %+v want %+v", got, prefs)
	}
}

func TestIsMainAdmin(t *testing.T) {
	cases := []struct {
		role     string
		barangay string
		want     bool
	}{
		{RoleAdmin, "", true},
		{RoleAdmin, "  ", true},
		{RoleAdmin, "San Isidro", false},
		{RoleUser, "", false},
	}
	for _, tc := range cases {
		u := &User{Role: tc.role, Barangay: tc.barangay}
		if got := u.IsMainAdmin(); got != tc.want {
			t.Fatalf("role=%q barangay=%q: got %v want %v", tc.role, tc.barangay, got, tc.want)
		}
	}
}

func TestReportCommentRoundTrip(t *testing.T) {
	r := &Report{}
	if got := r.CommentList(); len(got) != 0 {
		t.Fatalf("expected no comments, got %d", len(got))
	}

	comments := []Comment{{
		ID:        "c1",
		UserID:    "u1",
		UserName:  "Ana",
		UserRole:  RoleAdmin,
		Text:      "Crew dispatched",
		CreatedAt: time.Now().UTC().Truncate(time.Second),
	}}
	if err := r.SetComments(comments); err != nil {
		t.Fatalf("SetComments: %v", err)
	}

	got := r.CommentList()
	if len(got) != 1 || got[0].Text != "Crew dispatched" {
		t.Fatalf("unexpected comments after round trip: %+v", got)
	}
}

func TestReportResponseEmptyTextIsNil(t *testing.T) {
	r := &Report{}
	if err := r.SetResponse(AdminResponse{Text: "", Date: time.Now()}); err != nil {
		t.Fatalf("SetResponse: %v", err)
	}
	if r.Response() != nil {
		t.Fatal("expected nil response for empty text")
	}

	if err := r.SetResponse(AdminResponse{Text: "Scheduled for cleanup", Date: time.Now()}); err != nil {
		t.Fatalf("SetResponse: %v", err)
	}
	resp := r.Response()
	if resp == nil || resp.Text != "Scheduled for cleanup" {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestVerificationCodeExpired(t *testing.T) {
	now := time.Now()
	code := &VerificationCode{ExpiresAt: now.Add(10 * time.Minute)}
	if code.Expired(now) {
		t.Fatal("fresh code reported expired")
	}
	if !code.Expired(now.Add(11 * time.Minute)) {
		t.Fatal("stale code not reported expired")
	}
}

func TestPasswordResetTokenUsable(t *testing.T) {
	now := time.Now()
	tok := &PasswordResetToken{ExpiresAt: now.Add(time.Hour)}
	if !tok.Usable(now) {
		t.Fatal("fresh token not usable")
	}

	used := now
	tok.UsedAt = &used
	if tok.Usable(now) {
		t.Fatal("used token still usable")
	}

	tok.UsedAt = nil
	if tok.Usable(now.Add(2 * time.Hour)) {
		t.Fatal("expired token still usable")
	}
}
