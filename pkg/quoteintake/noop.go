package quoteintake

import (
	"context"
	"io"
)

// NoopEventSink is a no-operation implementation of EventSink
type NoopEventSink struct{}

// NewNoopEventSink creates a new no-operation event sink
func NewNoopEventSink() EventSink {
	return &NoopEventSink{}
}

// SubmissionAccepted does nothing and returns nil
func (n *NoopEventSink) SubmissionAccepted(ctx context.Context, event *SubmissionEvent) error {
	return nil
}

// NoopScanner accepts every attachment
type NoopScanner struct{}

// NewNoopScanner creates a scanner that never rejects content
func NewNoopScanner() Scanner {
	return &NoopScanner{}
}

// Scan does nothing and returns nil
func (n *NoopScanner) Scan(ctx context.Context, filename string, r io.Reader) error {
	return nil
}
