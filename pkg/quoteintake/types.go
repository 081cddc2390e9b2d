package quoteintake

import (
	"bytes"
	"io"
	"time"
)

// Attachment limits
const (
	MaxAttachments    = 6
	MaxAttachmentSize = 10 * 1024 * 1024
)

// DefaultLinkTTL is the validity window of a download link.
const DefaultLinkTTL = 7 * 24 * time.Hour

// Fields holds the submitted text fields after sanitizing.
type Fields struct {
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Email   string `json:"email"`
	Service string `json:"service"`
	Message string `json:"message"`
	// Website is the honeypot field. Real users never fill it in.
	Website string `json:"website"`
}

// FieldNames lists the form/JSON keys read from a submission, in order.
var FieldNames = []string{"name", "phone", "email", "service", "message", "website"}

// FieldsFrom builds sanitized Fields using get to look up each raw value.
func FieldsFrom(get func(name string) any) Fields {
	return Fields{
		Name:    SanitizeField(get("name")),
		Phone:   SanitizeField(get("phone")),
		Email:   SanitizeField(get("email")),
		Service: SanitizeField(get("service")),
		Message: SanitizeField(get("message")),
		Website: SanitizeField(get("website")),
	}
}

// Sanitized returns f with every value trimmed.
func (f Fields) Sanitized() Fields {
	return Fields{
		Name:    SanitizeField(f.Name),
		Phone:   SanitizeField(f.Phone),
		Email:   SanitizeField(f.Email),
		Service: SanitizeField(f.Service),
		Message: SanitizeField(f.Message),
		Website: SanitizeField(f.Website),
	}
}

// Attachment is an uploaded file. Open may be called more than once; each
// call returns a fresh reader positioned at the start of the content.
type Attachment struct {
	Filename string
	MimeType string
	Size     int64
	Open     func() (io.ReadCloser, error)
}

// NewAttachment wraps in-memory content as an Attachment.
func NewAttachment(filename, mimeType string, content []byte) Attachment {
	return Attachment{
		Filename: filename,
		MimeType: mimeType,
		Size:     int64(len(content)),
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(content)), nil
		},
	}
}

// Submission is one contact/quote request.
type Submission struct {
	Fields      Fields
	Attachments []Attachment
	// Origin is the scheme://host the request arrived on; download links are
	// built against it.
	Origin string
}

// Receipt describes what Submit did.
type Receipt struct {
	// Discarded is true when the honeypot tripped and nothing was stored or sent.
	Discarded  bool
	ObjectKeys []string
	Links      []string
	ExpiresAt  int64
}

// Object is a stored blob returned by an ObjectStore. The caller closes Body.
type Object struct {
	Key         string
	ContentType string
	Size        int64
	Body        io.ReadCloser
}

// EmailMessage is the outbound notification relayed to the business.
type EmailMessage struct {
	From    string
	To      []string
	Subject string
	Text    string
	HTML    string
	ReplyTo string
}

// SubmissionEvent is published after a submission was delivered. It carries
// no contact details.
type SubmissionEvent struct {
	Service     string    `json:"service"`
	ObjectKeys  []string  `json:"object_keys"`
	LinkExpires int64     `json:"link_expires,omitempty"`
	SubmittedAt time.Time `json:"submitted_at"`
}
