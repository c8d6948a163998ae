package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/charlesng35/resumex/internal/models"
	"github.com/charlesng35/resumex/pkg/mail"
)

func TestNotifierTemplates(t *testing.T) {
	mailer := &recordingMailer{}
	clock := func() time.Time { return time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC) }
	n := NewNotifier(mailer, WithNotifierClientURL("https://resumex.example.com/"), WithNotifierClock(clock))
	user := &models.User{Name: "Ann", Email: "ann@x.io"}
	ctx := context.Background()

	require.Equal(t, DeliveryDelivered, n.SendVerification(ctx, user, "123456").Status)
	require.Equal(t, DeliveryDelivered, n.SendWelcome(ctx, user).Status)
	require.Equal(t, DeliveryDelivered, n.SendPasswordReset(ctx, user, n.ResetURL("abc")).Status)
	require.Equal(t, DeliveryDelivered, n.SendResetSuccess(ctx, user).Status)

	require.Equal(t, []string{TemplateVerify, TemplateWelcome, TemplateReset, TemplateResetOK}, mailer.templates())

	reset := mailer.messages[2]
	require.Equal(t, "https://resumex.example.com/reset-password/abc", reset.Data["reset_url"])
	require.Equal(t, "Reset Password", reset.Data["cta_text"])
	require.Contains(t, reset.Body, "https://resumex.example.com/reset-password/abc")

	for _, msg := range mailer.messages {
		require.Equal(t, []string{"ann@x.io"}, msg.To)
		require.Equal(t, 2026, msg.Data["year"])
		require.Equal(t, "Ann", msg.Data["name"])
		require.NotEmpty(t, msg.Subject)
	}
}

func TestNotifierDefaultsRecipientName(t *testing.T) {
	mailer := &recordingMailer{}
	n := NewNotifier(mailer)

	n.SendWelcome(context.Background(), &models.User{Email: "ann@x.io"})
	require.Equal(t, "there", mailer.last(t).Data["name"])
	n.SendVerification(context.Background(), &models.User{Email: "ann@x.io"}, "123456")
	require.Equal(t, "http://localhost:5173", mailer.last(t).Data["dashboard_url"])
}

func TestNotifierDeliveryOutcomes(t *testing.T) {
	user := &models.User{Name: "Ann", Email: "ann@x.io"}

	skipped := NewNotifier(mail.NewDisabledMailer()).SendWelcome(context.Background(), user)
	require.Equal(t, DeliverySkipped, skipped.Status)
	require.False(t, skipped.Failed())
	require.NoError(t, skipped.Err)

	failing := &recordingMailer{err: errors.New("boom")}
	failed := NewNotifier(failing).SendWelcome(context.Background(), user)
	require.True(t, failed.Failed())
	require.EqualError(t, failed.Err, "boom")

	nilMailer := NewNotifier(nil).SendWelcome(context.Background(), user)
	require.Equal(t, DeliverySkipped, nilMailer.Status)
}
