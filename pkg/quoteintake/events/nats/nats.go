package nats

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/tendant/quote-intake/pkg/quoteintake"
)

// DefaultSubject is used when no subject is configured
const DefaultSubject = "quotes.submitted"

// Publisher is satisfied by *nats.Conn
type Publisher interface {
	Publish(subject string, data []byte) error
}

// EventSink publishes accepted submissions to a NATS subject
type EventSink struct {
	pub     Publisher
	conn    *nats.Conn
	subject string
}

// Connect dials url and returns a sink publishing to subject
func Connect(url, subject string) (*EventSink, error) {
	if url == "" {
		return nil, errors.New("nats url is required")
	}

	nc, err := nats.Connect(url,
		nats.Name("quote-intake"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	sink := NewWithPublisher(nc, subject)
	sink.conn = nc
	return sink, nil
}

// NewWithPublisher wraps an existing publisher
func NewWithPublisher(pub Publisher, subject string) *EventSink {
	if subject == "" {
		subject = DefaultSubject
	}
	return &EventSink{pub: pub, subject: subject}
}

// SubmissionAccepted publishes the event as JSON
func (s *EventSink) SubmissionAccepted(ctx context.Context, event *quoteintake.SubmissionEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal submission event: %w", err)
	}
	if err := s.pub.Publish(s.subject, data); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", s.subject, err)
	}
	return nil
}

// Close drains the connection opened by Connect
func (s *EventSink) Close() error {
	if s.conn == nil || s.conn.IsClosed() {
		return nil
	}
	return s.conn.Drain()
}
