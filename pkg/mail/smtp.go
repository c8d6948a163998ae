package mail

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"strings"
	"time"

	"gopkg.in/gomail.v2"
)

// SMTPSettings capture the runtime configuration required by the SMTP mailer.
// UseTLS selects implicit TLS; otherwise STARTTLS is negotiated when the
// server offers it.
type SMTPSettings struct {
	Enabled  bool
	Host     string
	Port     int
	Username string
	Password string
	From     string
	UseTLS   bool
	Timeout  time.Duration
}

type smtpSender interface {
	DialAndSend(m ...*gomail.Message) error
}

// SMTPMailer delivers plain text messages through a gomail dialer.
type SMTPMailer struct {
	cfg    SMTPSettings
	sender smtpSender
}

// NewSMTPMailer validates cfg and builds a dialer for it. A disabled
// configuration yields a mailer that reports ErrDeliveryDisabled.
func NewSMTPMailer(cfg SMTPSettings) (*SMTPMailer, error) {
	if !cfg.Enabled {
		return &SMTPMailer{cfg: cfg}, nil
	}
	if strings.TrimSpace(cfg.Host) == "" {
		return nil, errors.New("smtp: host is required when enabled")
	}
	if cfg.Port <= 0 {
		return nil, errors.New("smtp: port is required when enabled")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}

	dialer := gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	dialer.SSL = cfg.UseTLS
	dialer.TLSConfig = &tls.Config{ServerName: cfg.Host, MinVersion: tls.VersionTLS12}

	return &SMTPMailer{cfg: cfg, sender: dialer}, nil
}

// Send renders msg and delivers it within the configured timeout. The dial
// keeps running in the background if ctx ends first; its result is dropped.
func (m *SMTPMailer) Send(ctx context.Context, msg Message) error {
	if m == nil || !m.cfg.Enabled || m.sender == nil {
		return ErrDeliveryDisabled
	}

	from, recipients, err := resolveAddresses("smtp", msg, m.cfg.From)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	done := make(chan error, 1)
	go func() { done <- m.sender.DialAndSend(buildMessage(from, recipients, msg)) }()

	timer := time.NewTimer(m.cfg.Timeout)
	defer timer.Stop()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("smtp: deliver to %s: %w", strings.Join(recipients, ", "), err)
		}
		return nil
	case <-timer.C:
		return fmt.Errorf("smtp: delivery timed out after %s", m.cfg.Timeout)
	case <-ctx.Done():
		return ctx.Err()
	}
}

func buildMessage(from string, to []string, msg Message) *gomail.Message {
	m := gomail.NewMessage(gomail.SetCharset("UTF-8"))
	m.SetHeader("From", from)
	m.SetHeader("To", to...)
	m.SetHeader("Subject", escapeHeader(msg.Subject))
	m.SetBody("text/plain", msg.Body)
	return m
}
