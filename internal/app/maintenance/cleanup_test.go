package maintenance

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	testutil "github.com/charlesng35/resumex/internal/database/testutil"
	"github.com/charlesng35/resumex/internal/models"
	"github.com/charlesng35/resumex/internal/services"
)

func TestCleanerPurgesExpiredTokens(t *testing.T) {
	db := testutil.OpenDB(t, testutil.Migrated())
	now := time.Date(2024, 2, 10, 15, 0, 0, 0, time.UTC)

	expired := seedUser(t, db, "expired@example.com", now.Add(-time.Hour))
	active := seedUser(t, db, "active@example.com", now.Add(time.Hour))

	users, err := services.NewUserStore(db)
	require.NoError(t, err)

	cleaner := NewCleaner(users,
		WithNow(func() time.Time { return now }),
		WithCron(cron.New(cron.WithLogger(cron.DiscardLogger))),
	)
	require.NoError(t, cleaner.RunOnce(context.Background()))

	var reloaded models.User
	require.NoError(t, db.First(&reloaded, "id = ?", expired.ID).Error)
	require.Nil(t, reloaded.VerificationToken)
	require.Nil(t, reloaded.VerificationTokenExpiresAt)
	require.Nil(t, reloaded.ResetPasswordToken)
	require.Nil(t, reloaded.ResetPasswordExpiresAt)

	require.NoError(t, db.First(&reloaded, "id = ?", active.ID).Error)
	require.NotNil(t, reloaded.VerificationToken)
	require.NotNil(t, reloaded.ResetPasswordToken)
}

func TestCleanerRunOnceReportsJobErrors(t *testing.T) {
	first := errors.New("first")

	cleaner := NewCleaner(failingPurger{err: first})

	err := cleaner.RunOnce(context.Background())
	require.Error(t, err)
	require.Len(t, multierr.Errors(err), 1)
	require.ErrorIs(t, err, first)
	require.Contains(t, err.Error(), "tokens: first")
}

func TestCleanerStartSchedulesJobs(t *testing.T) {
	scheduler := cron.New(cron.WithLogger(cron.DiscardLogger))
	cleaner := NewCleaner(failingPurger{},
		WithCron(scheduler),
		WithTokenSchedule("@every 1h"),
	)

	require.NoError(t, cleaner.Start())
	t.Cleanup(func() { <-cleaner.Stop().Done() })
	require.Len(t, scheduler.Entries(), 1)
}

func TestCleanerStartRejectsBadSchedule(t *testing.T) {
	cleaner := NewCleaner(failingPurger{}, WithTokenSchedule("not a schedule"))
	require.Error(t, cleaner.Start())
}

func TestCleanerWithoutJobs(t *testing.T) {
	cleaner := NewCleaner(nil)
	require.Empty(t, cleaner.Jobs())
	require.NoError(t, cleaner.Start())
	require.NoError(t, cleaner.RunOnce(context.Background()))
}

type failingPurger struct {
	err error
}

func (p failingPurger) PurgeExpiredTokens(context.Context, time.Time) (int64, int64, error) {
	return 0, 0, p.err
}

func seedUser(t *testing.T, db *gorm.DB, email string, expiresAt time.Time) *models.User {
	t.Helper()

	code := "123456"
	reset := "reset-" + email
	expiresAt = expiresAt.UTC()
	user := &models.User{
		Name:                       "Tester",
		Email:                      email,
		Password:                   "hash",
		VerificationToken:          &code,
		VerificationTokenExpiresAt: &expiresAt,
		ResetPasswordToken:         &reset,
		ResetPasswordExpiresAt:     &expiresAt,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}
