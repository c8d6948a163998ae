package mail

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
)

// ErrDeliveryDisabled signals that outbound email is disabled via configuration.
var ErrDeliveryDisabled = errors.New("mail: delivery disabled")

// Message represents an outbound email. Template and Data identify the
// transactional template for transports that render remotely; Body is the
// plain text rendering used by SMTP.
type Message struct {
	From     string
	To       []string
	Subject  string
	Body     string
	Template string
	Data     map[string]any
}

// Mailer delivers a single message.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

type disabledMailer struct{}

// NewDisabledMailer returns a Mailer that rejects every message with ErrDeliveryDisabled.
func NewDisabledMailer() Mailer { return disabledMailer{} }

func (disabledMailer) Send(context.Context, Message) error { return ErrDeliveryDisabled }

// resolveAddresses applies the default sender, drops duplicate recipients and
// checks every address parses. prefix names the transport in errors.
func resolveAddresses(prefix string, msg Message, defaultFrom string) (string, []string, error) {
	recipients := uniqueAddresses(msg.To)
	if len(recipients) == 0 {
		return "", nil, fmt.Errorf("%s: at least one recipient is required", prefix)
	}

	from := strings.TrimSpace(msg.From)
	if from == "" {
		from = strings.TrimSpace(defaultFrom)
	}
	if from == "" {
		return "", nil, fmt.Errorf("%s: sender address is required", prefix)
	}
	if _, err := mail.ParseAddress(from); err != nil {
		return "", nil, fmt.Errorf("%s: invalid from address: %w", prefix, err)
	}

	for _, rcpt := range recipients {
		if _, err := mail.ParseAddress(rcpt); err != nil {
			return "", nil, fmt.Errorf("%s: invalid recipient address %q: %w", prefix, rcpt, err)
		}
	}
	return from, recipients, nil
}

func uniqueAddresses(addresses []string) []string {
	seen := make(map[string]struct{}, len(addresses))
	var out []string
	for _, addr := range addresses {
		addr = strings.TrimSpace(addr)
		if addr == "" {
			continue
		}
		if _, dup := seen[addr]; dup {
			continue
		}
		seen[addr] = struct{}{}
		out = append(out, addr)
	}
	return out
}

// escapeHeader flattens line breaks so a value cannot start a new header.
func escapeHeader(value string) string {
	return strings.NewReplacer("\r", " ", "\n", " ").Replace(value)
}
