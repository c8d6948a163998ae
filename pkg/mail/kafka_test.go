package mail

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"
)

type recordingWriter struct {
	messages []kafka.Message
	err      error
	closed   bool
}

func (w *recordingWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.messages = append(w.messages, msgs...)
	return nil
}

func (w *recordingWriter) Close() error {
	w.closed = true
	return nil
}

func TestKafkaMailerPublishesEvent(t *testing.T) {
	writer := &recordingWriter{}
	mailer := newKafkaMailer(writer, "no-reply@resumex.dev")
	fixed := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	mailer.now = func() time.Time { return fixed }

	err := mailer.Send(context.Background(), Message{
		To:       []string{"ann@x.com", " ann@x.com "},
		Subject:  "Verify your email",
		Body:     "Your code is 123456",
		Template: "verify",
		Data:     map[string]any{"code": "123456"},
	})
	require.NoError(t, err)
	require.Len(t, writer.messages, 1)

	msg := writer.messages[0]
	require.Equal(t, "ann@x.com", string(msg.Key))

	var event Event
	require.NoError(t, json.Unmarshal(msg.Value, &event))
	require.Equal(t, "verify", event.Template)
	require.Equal(t, "no-reply@resumex.dev", event.From)
	require.Equal(t, []string{"ann@x.com"}, event.To)
	require.Equal(t, "123456", event.Data["code"])
	require.True(t, event.CreatedAt.Equal(fixed))

	require.NoError(t, mailer.Close())
	require.True(t, writer.closed)
}

func TestKafkaMailerValidatesAndSurfacesWriteErrors(t *testing.T) {
	writer := &recordingWriter{}
	mailer := newKafkaMailer(writer, "")

	err := mailer.Send(context.Background(), Message{To: []string{"ann@x.com"}})
	require.ErrorContains(t, err, "sender address is required")

	writer.err = errors.New("leader not available")
	mailer.from = "no-reply@resumex.dev"
	err = mailer.Send(context.Background(), Message{To: []string{"ann@x.com"}})
	require.ErrorContains(t, err, "leader not available")
}

func TestNewKafkaMailerRequiresBrokersAndTopic(t *testing.T) {
	_, err := NewKafkaMailer(KafkaSettings{Topic: "mail"})
	require.ErrorContains(t, err, "broker")

	_, err = NewKafkaMailer(KafkaSettings{Brokers: []string{"localhost:9092"}})
	require.ErrorContains(t, err, "topic")

	m, err := NewKafkaMailer(KafkaSettings{Brokers: []string{"localhost:9092"}, Topic: "mail"})
	require.NoError(t, err)
	require.NotNil(t, m)
}
