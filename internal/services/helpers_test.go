package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/linisbayan/linisbayan/internal/database/testutil"
	"github.com/linisbayan/linisbayan/internal/dispatch"
	"github.com/linisbayan/linisbayan/internal/models"
	"github.com/linisbayan/linisbayan/pkg/mail"
)

type capturingMailer struct {
	mu       sync.Mutex
	failNext bool
	messages []mail.Message
}

func (m *capturingMailer) Send(_ context.Context, msg mail.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failNext {
		m.failNext = false
		return errors.New("send failed")
	}
	m.messages = append(m.messages, msg)
	return nil
}

func (m *capturingMailer) sent() []mail.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]mail.Message(nil), m.messages...)
}

func newServiceTestEnv(t *testing.T) (*gorm.DB, *dispatch.Dispatcher, *capturingMailer) {
	t.Helper()

	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	mailer := &capturingMailer{}

	dispatcher, err := dispatch.NewDispatcher(db, mailer, nil)
	require.NoError(t, err)
	return db, dispatcher, mailer
}

func seedUser(t *testing.T, db *gorm.DB, user models.User) models.User {
	t.Helper()
	if user.Password == "" {
		user.Password = "hashed"
	}
	if user.Role == "" {
		user.Role = models.RoleUser
	}
	require.NoError(t, db.Create(&user).Error)
	return user
}

func seedAdmin(t *testing.T, db *gorm.DB, username, barangay string) models.User {
	t.Helper()
	return seedUser(t, db, models.User{
		Username:      username,
		Email:         username + "@example.com",
		Role:          models.RoleAdmin,
		Barangay:      barangay,
		EmailVerified: true,
	})
}
