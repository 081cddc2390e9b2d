package quoteintake

import (
	"context"
	"io"
)

// ObjectStore persists attachment blobs by key.
type ObjectStore interface {
	// Put stores the content under key with the given content type.
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error

	// Get returns the object stored under key, or ErrObjectNotFound.
	Get(ctx context.Context, key string) (*Object, error)
}

// EmailSender delivers a composed message. A provider rejection is reported
// as *ProviderError; any other error is a transport failure.
type EmailSender interface {
	Send(ctx context.Context, msg *EmailMessage) error
}

// Scanner inspects attachment content before it is stored. It returns
// ErrInfected (possibly wrapped) when the content must be rejected.
type Scanner interface {
	Scan(ctx context.Context, filename string, r io.Reader) error
}

// EventSink receives notifications about accepted submissions.
type EventSink interface {
	SubmissionAccepted(ctx context.Context, event *SubmissionEvent) error
}
