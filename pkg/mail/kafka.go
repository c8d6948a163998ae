package mail

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/segmentio/kafka-go/sasl/plain"
)

// KafkaSettings configure the Kafka transport, which publishes one event per
// message for an out-of-process mail worker to render and deliver.
type KafkaSettings struct {
	Brokers      []string
	Topic        string
	Username     string
	Password     string
	UseTLS       bool
	From         string
	WriteTimeout time.Duration
}

// Event is the JSON payload written to the mail topic.
type Event struct {
	Template  string         `json:"template"`
	From      string         `json:"from"`
	To        []string       `json:"to"`
	Subject   string         `json:"subject"`
	Body      string         `json:"body"`
	Data      map[string]any `json:"data,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

type kafkaWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaMailer implements Mailer by producing events to Kafka.
type KafkaMailer struct {
	writer kafkaWriter
	from   string
	now    func() time.Time
}

// NewKafkaMailer builds a producer for the configured topic.
func NewKafkaMailer(cfg KafkaSettings) (*KafkaMailer, error) {
	brokers := uniqueAddresses(cfg.Brokers)
	if len(brokers) == 0 {
		return nil, errors.New("kafka: at least one broker is required")
	}
	if strings.TrimSpace(cfg.Topic) == "" {
		return nil, errors.New("kafka: topic is required")
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 10 * time.Second
	}

	transport := &kafka.Transport{}
	if cfg.Username != "" {
		transport.SASL = plain.Mechanism{
			Username: cfg.Username,
			Password: cfg.Password,
		}
	}
	if cfg.UseTLS {
		transport.TLS = &tls.Config{}
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.LeastBytes{},
		RequiredAcks: kafka.RequireAll,
		Async:        false,
		Transport:    transport,
		WriteTimeout: cfg.WriteTimeout,
	}

	return newKafkaMailer(writer, cfg.From), nil
}

func newKafkaMailer(writer kafkaWriter, from string) *KafkaMailer {
	return &KafkaMailer{writer: writer, from: from, now: time.Now}
}

// Send validates the message and publishes it keyed by the first recipient so
// that messages for one address stay ordered within a partition.
func (m *KafkaMailer) Send(ctx context.Context, msg Message) error {
	if m == nil || m.writer == nil {
		return ErrDeliveryDisabled
	}

	from, recipients, err := resolveAddresses("kafka", msg, m.from)
	if err != nil {
		return err
	}

	payload, err := json.Marshal(Event{
		Template:  msg.Template,
		From:      from,
		To:        recipients,
		Subject:   escapeHeader(msg.Subject),
		Body:      msg.Body,
		Data:      msg.Data,
		CreatedAt: m.now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("kafka: encode event: %w", err)
	}

	if err := m.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(recipients[0]),
		Value: payload,
		Time:  m.now(),
	}); err != nil {
		return fmt.Errorf("kafka: write message: %w", err)
	}
	return nil
}

// Close flushes and closes the underlying writer.
func (m *KafkaMailer) Close() error {
	if m == nil || m.writer == nil {
		return nil
	}
	return m.writer.Close()
}
