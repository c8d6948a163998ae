package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/charlesng35/resumex/internal/auth"
	"github.com/charlesng35/resumex/internal/database/testutil"
	"github.com/charlesng35/resumex/pkg/mail"
)

type recordingMailer struct {
	mu       sync.Mutex
	messages []mail.Message
	err      error
}

func (m *recordingMailer) Send(_ context.Context, msg mail.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, msg)
	return m.err
}

func (m *recordingMailer) last(t *testing.T) mail.Message {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	require.NotEmpty(t, m.messages, "expected at least one message")
	return m.messages[len(m.messages)-1]
}

func (m *recordingMailer) templates() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.messages))
	for _, msg := range m.messages {
		out = append(out, msg.Template)
	}
	return out
}

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type authFixture struct {
	db     *gorm.DB
	users  *UserStore
	jwt    *auth.SessionSigner
	mailer *recordingMailer
	clock  *testClock
	svc    *AuthService
}

func newAuthFixture(t *testing.T, opts ...AuthOption) *authFixture {
	t.Helper()

	db := testutil.OpenDB(t, testutil.Migrated())
	users, err := NewUserStore(db)
	require.NoError(t, err)

	clock := newTestClock()
	jwtSvc, err := auth.NewSessionSigner(auth.SignerConfig{Secret: "test-secret", Issuer: "resumex", Clock: clock.Now})
	require.NoError(t, err)

	mailer := &recordingMailer{}
	notifier := NewNotifier(mailer,
		WithNotifierClientURL("https://app.example.com/"),
		WithNotifierClock(clock.Now),
	)

	opts = append([]AuthOption{WithAuthClock(clock.Now)}, opts...)
	svc, err := NewAuthService(users, jwtSvc, notifier, opts...)
	require.NoError(t, err)

	return &authFixture{
		db:     db,
		users:  users,
		jwt:    jwtSvc,
		mailer: mailer,
		clock:  clock,
		svc:    svc,
	}
}

// signupVerified registers and verifies a user, returning its id.
func (f *authFixture) signupVerified(t *testing.T, name, email, password string) string {
	t.Helper()
	ctx := context.Background()

	session, err := f.svc.Signup(ctx, name, email, password)
	require.NoError(t, err)

	code, ok := f.mailer.last(t).Data["code"].(string)
	require.True(t, ok)
	_, err = f.svc.VerifyEmail(ctx, code)
	require.NoError(t, err)
	return session.User.ID
}
