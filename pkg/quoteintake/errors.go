package quoteintake

import (
	"errors"
	"fmt"
)

// Error types
var (
	// ErrObjectNotFound indicates an object store has no object under the key
	ErrObjectNotFound = errors.New("object not found")

	// ErrInfected indicates an attachment was flagged by the malware scanner
	ErrInfected = errors.New("attachment infected")
)

// Kind classifies a pipeline or retrieval failure. The HTTP layer maps each
// kind to exactly one status code.
type Kind int

const (
	KindServerError Kind = iota
	KindInvalidPayload
	KindValidationFailed
	KindServerMisconfigured
	KindProviderError
	KindForbidden
	KindNotFound
)

func (k Kind) String() string {
	switch k {
	case KindInvalidPayload:
		return "invalid_payload"
	case KindValidationFailed:
		return "validation_failed"
	case KindServerMisconfigured:
		return "server_misconfigured"
	case KindProviderError:
		return "provider_error"
	case KindForbidden:
		return "forbidden"
	case KindNotFound:
		return "not_found"
	default:
		return "server_error"
	}
}

// Client-facing messages. Internal detail never goes into these.
const (
	MsgInvalidPayload     = "Invalid payload."
	MsgRequiredFields     = "Name, message, and phone or email are required."
	MsgNotConfigured      = "Server not configured"
	MsgTooManyPhotos      = "Maximum 6 photos allowed."
	MsgImagesOnly         = "Only image uploads allowed."
	MsgPhotoTooLarge      = "Each photo must be under 10MB."
	MsgAttachmentRejected = "Attachment rejected."
	MsgProviderError      = "Email provider error"
	MsgServerError        = "Server error"
	MsgForbidden          = "Forbidden"
	MsgNotFound           = "Not found"
)

// Error is returned by Service operations. Message is safe to show to the
// caller; Err carries the internal cause for logging.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// KindOf reports the Kind of err. Errors that are not *Error are server errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindServerError
}

// MessageOf returns the client-facing message for err.
func MessageOf(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Message != "" {
		return e.Message
	}
	return MsgServerError
}

// ProviderError is returned by an EmailSender when the provider answered with
// a non-success status. Body is kept for server-side logs only.
type ProviderError struct {
	StatusCode int
	Body       string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("email provider returned status %d", e.StatusCode)
}
