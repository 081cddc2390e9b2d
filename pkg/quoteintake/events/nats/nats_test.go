package nats

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tendant/quote-intake/pkg/quoteintake"
)

type recordingPublisher struct {
	subject string
	data    []byte
	err     error
}

func (p *recordingPublisher) Publish(subject string, data []byte) error {
	p.subject = subject
	p.data = data
	return p.err
}

func TestSubmissionAccepted(t *testing.T) {
	pub := &recordingPublisher{}
	sink := NewWithPublisher(pub, "")

	event := &quoteintake.SubmissionEvent{
		Service:     "Roofing",
		ObjectKeys:  []string{"quotes/2024-05-01/ab12cd34_roof.jpg"},
		LinkExpires: 1715169600,
		SubmittedAt: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	}
	require.NoError(t, sink.SubmissionAccepted(context.Background(), event))

	assert.Equal(t, DefaultSubject, pub.subject)
	var got map[string]any
	require.NoError(t, json.Unmarshal(pub.data, &got))
	assert.Equal(t, "Roofing", got["service"])
	assert.Equal(t, []any{"quotes/2024-05-01/ab12cd34_roof.jpg"}, got["object_keys"])
	assert.Equal(t, "2024-05-01T12:00:00Z", got["submitted_at"])
	assert.NotContains(t, got, "email")
	assert.NotContains(t, got, "name")
}

func TestSubmissionAccepted_PublishError(t *testing.T) {
	sink := NewWithPublisher(&recordingPublisher{err: nats.ErrConnectionClosed}, "quotes.custom")

	err := sink.SubmissionAccepted(context.Background(), &quoteintake.SubmissionEvent{})

	assert.True(t, errors.Is(err, nats.ErrConnectionClosed))
	assert.ErrorContains(t, err, "quotes.custom")
}

func TestSubmissionAccepted_CanceledContext(t *testing.T) {
	pub := &recordingPublisher{}
	sink := NewWithPublisher(pub, "")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := sink.SubmissionAccepted(ctx, &quoteintake.SubmissionEvent{})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, pub.data)
}

func TestConnect_RequiresURL(t *testing.T) {
	_, err := Connect("", "")
	assert.Error(t, err)
}

func TestClose_WithoutConnection(t *testing.T) {
	assert.NoError(t, NewWithPublisher(&recordingPublisher{}, "").Close())
}
