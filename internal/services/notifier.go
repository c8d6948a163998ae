package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/charlesng35/resumex/internal/models"
	"github.com/charlesng35/resumex/pkg/logger"
	"github.com/charlesng35/resumex/pkg/mail"
	"github.com/charlesng35/resumex/pkg/metrics"
)

// Template identifiers attached to every outbound message.
const (
	TemplateVerify  = "verify"
	TemplateWelcome = "welcome"
	TemplateReset   = "reset"
	TemplateResetOK = "reset_ok"
)

const defaultRecipientName = "there"

// DeliveryStatus is the outcome of one notification.
type DeliveryStatus string

const (
	DeliveryDelivered DeliveryStatus = "delivered"
	// DeliverySkipped means outbound mail is disabled by configuration.
	DeliverySkipped DeliveryStatus = "skipped"
	DeliveryFailed  DeliveryStatus = "failed"
)

// Delivery reports what happened to a notification. Err is set only when Status is failed.
type Delivery struct {
	Status DeliveryStatus
	Err    error
}

// Failed reports whether the transport rejected the message.
func (d Delivery) Failed() bool { return d.Status == DeliveryFailed }

// NotifierOption customises the Notifier.
type NotifierOption func(*Notifier)

// WithNotifierClientURL sets the frontend base URL used in links.
func WithNotifierClientURL(url string) NotifierOption {
	return func(n *Notifier) {
		if url = strings.TrimRight(strings.TrimSpace(url), "/"); url != "" {
			n.clientURL = url
		}
	}
}

// WithNotifierClock injects a custom time source.
func WithNotifierClock(clock func() time.Time) NotifierOption {
	return func(n *Notifier) {
		if clock != nil {
			n.now = clock
		}
	}
}

// WithNotifierLogger overrides the module logger.
func WithNotifierLogger(log *zap.Logger) NotifierOption {
	return func(n *Notifier) {
		if log != nil {
			n.log = log
		}
	}
}

// Notifier sends the transactional emails of the account lifecycle.
type Notifier struct {
	mailer    mail.Mailer
	clientURL string
	now       func() time.Time
	log       *zap.Logger
}

// NewNotifier constructs a Notifier. A nil mailer disables delivery.
func NewNotifier(mailer mail.Mailer, opts ...NotifierOption) *Notifier {
	if mailer == nil {
		mailer = mail.NewDisabledMailer()
	}
	n := &Notifier{
		mailer:    mailer,
		clientURL: "http://localhost:5173",
		now:       time.Now,
		log:       logger.WithModule("notifier"),
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// SendVerification emails the 6-digit verification code.
func (n *Notifier) SendVerification(ctx context.Context, user *models.User, code string) Delivery {
	data := n.baseData(user)
	data["code"] = code
	data["dashboard_url"] = n.clientURL

	body := fmt.Sprintf("Hi %s,\n\nYour ResumeX verification code is: %s\n\nThe code expires in 24 hours. Enter it at %s to finish creating your account.\n\nIf you did not sign up, you can ignore this message.\n",
		data["name"], code, n.clientURL)

	return n.send(ctx, user, TemplateVerify, "Verify your ResumeX email", body, data)
}

// SendWelcome confirms a completed verification.
func (n *Notifier) SendWelcome(ctx context.Context, user *models.User) Delivery {
	data := n.baseData(user)
	body := fmt.Sprintf("Hi %s,\n\nYour email is verified. Welcome to ResumeX!\n", data["name"])
	return n.send(ctx, user, TemplateWelcome, "Welcome to ResumeX", body, data)
}

// SendPasswordReset emails the reset link.
func (n *Notifier) SendPasswordReset(ctx context.Context, user *models.User, resetURL string) Delivery {
	data := n.baseData(user)
	data["reset_url"] = resetURL
	data["cta_text"] = "Reset Password"

	body := fmt.Sprintf("Hi %s,\n\nWe received a request to reset your password. Use the link below within the next hour:\n%s\n\nIf you did not request a reset, you can ignore this message.\n",
		data["name"], resetURL)

	return n.send(ctx, user, TemplateReset, "Reset your ResumeX password", body, data)
}

// SendResetSuccess confirms a password change.
func (n *Notifier) SendResetSuccess(ctx context.Context, user *models.User) Delivery {
	data := n.baseData(user)
	body := fmt.Sprintf("Hi %s,\n\nYour password was reset successfully.\n", data["name"])
	return n.send(ctx, user, TemplateResetOK, "Your ResumeX password was reset", body, data)
}

// ResetURL builds the frontend link carrying a reset token.
func (n *Notifier) ResetURL(token string) string {
	return fmt.Sprintf("%s/reset-password/%s", n.clientURL, token)
}

func (n *Notifier) baseData(user *models.User) map[string]any {
	name := strings.TrimSpace(user.Name)
	if name == "" {
		name = defaultRecipientName
	}
	return map[string]any{
		"name": name,
		"year": n.now().Year(),
	}
}

func (n *Notifier) send(ctx context.Context, user *models.User, template, subject, body string, data map[string]any) Delivery {
	err := n.mailer.Send(ensureContext(ctx), mail.Message{
		To:       []string{user.Email},
		Subject:  subject,
		Body:     body,
		Template: template,
		Data:     data,
	})

	var delivery Delivery
	switch {
	case err == nil:
		delivery = Delivery{Status: DeliveryDelivered}
	case errors.Is(err, mail.ErrDeliveryDisabled):
		delivery = Delivery{Status: DeliverySkipped}
		n.log.Debug("email delivery disabled", zap.String("template", template))
	default:
		delivery = Delivery{Status: DeliveryFailed, Err: err}
		n.log.Warn("email delivery failed",
			zap.String("template", template),
			zap.String("user_id", user.ID),
			zap.Error(err))
	}

	metrics.EmailDeliveries.WithLabelValues(template, string(delivery.Status)).Inc()
	return delivery
}
