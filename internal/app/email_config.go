package app

import (
	"fmt"
	"strings"

	"github.com/charlesng35/resumex/pkg/mail"
)

// Supported email transports.
const (
	EmailTransportNone  = "none"
	EmailTransportSMTP  = "smtp"
	EmailTransportKafka = "kafka"
)

// TransportName returns the normalised transport, defaulting to none.
func (c EmailConfig) TransportName() string {
	transport := strings.ToLower(strings.TrimSpace(c.Transport))
	if transport == "" {
		return EmailTransportNone
	}
	return transport
}

// SMTPSettings converts EmailConfig to the mail package representation.
func (c EmailConfig) SMTPSettings() mail.SMTPSettings {
	return mail.SMTPSettings{
		Enabled:  c.TransportName() == EmailTransportSMTP,
		Host:     strings.TrimSpace(c.SMTP.Host),
		Port:     c.SMTP.Port,
		Username: c.SMTP.Username,
		Password: c.SMTP.Password,
		From:     strings.TrimSpace(c.From),
		UseTLS:   c.SMTP.UseTLS,
		Timeout:  c.SMTP.Timeout,
	}
}

// KafkaSettings converts EmailConfig to the Kafka producer settings.
func (c EmailConfig) KafkaSettings() mail.KafkaSettings {
	return mail.KafkaSettings{
		Brokers:      c.Kafka.Brokers,
		Topic:        strings.TrimSpace(c.Kafka.Topic),
		Username:     c.Kafka.Username,
		Password:     c.Kafka.Password,
		UseTLS:       c.Kafka.UseTLS,
		From:         strings.TrimSpace(c.From),
		WriteTimeout: c.Kafka.WriteTimeout,
	}
}

// NewMailer builds the configured transport. The none transport yields a nil
// Mailer, which the notifier treats as delivery disabled. The returned close
// function is never nil.
func (c EmailConfig) NewMailer() (mail.Mailer, func() error, error) {
	noop := func() error { return nil }

	switch c.TransportName() {
	case EmailTransportNone:
		return nil, noop, nil
	case EmailTransportSMTP:
		mailer, err := mail.NewSMTPMailer(c.SMTPSettings())
		if err != nil {
			return nil, noop, err
		}
		return mailer, noop, nil
	case EmailTransportKafka:
		mailer, err := mail.NewKafkaMailer(c.KafkaSettings())
		if err != nil {
			return nil, noop, err
		}
		return mailer, mailer.Close, nil
	default:
		return nil, noop, fmt.Errorf("email: unsupported transport %q", c.Transport)
	}
}
