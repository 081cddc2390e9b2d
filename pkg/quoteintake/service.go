package quoteintake

import (
	"log/slog"
	"time"

	"github.com/tendant/quote-intake/pkg/quoteintake/objectkey"
	"github.com/tendant/quote-intake/pkg/quoteintake/presigned"
)

// Configuration variable names, used to report what is missing.
const (
	SettingEmailAPIKey   = "RESEND_API_KEY"
	SettingContactTo     = "CONTACT_TO"
	SettingContactFrom   = "CONTACT_FROM"
	SettingSigningSecret = "DOWNLOAD_TOKEN_SECRET"
	SettingObjectStore   = "STORAGE_URL"
)

// Settings is the static configuration a Service is built with. Empty values
// are allowed at construction; operations that need them fail with
// KindServerMisconfigured.
type Settings struct {
	EmailAPIKey   string
	ContactFrom   string
	ContactTo     string
	SigningSecret string
	LinkTTL       time.Duration
	// DownloadPrefix is the route signed links point at. Default "/uploads/".
	DownloadPrefix string
}

// Service runs the submission pipeline and checks download requests. It is
// safe for concurrent use; all fields are read-only after New.
type Service struct {
	settings   Settings
	recipients []string
	store      ObjectStore
	sender     EmailSender
	scanner    Scanner
	eventSink  EventSink
	signer     *presigned.Signer
	keys       *objectkey.Generator
	now        func() time.Time
	logger     *slog.Logger
}

// Option represents a functional option for configuring the service
type Option func(*Service)

// WithSettings sets the static configuration
func WithSettings(settings Settings) Option {
	return func(s *Service) {
		s.settings = settings
	}
}

// WithObjectStore sets the attachment store. A nil store means attachments
// and downloads are not configured.
func WithObjectStore(store ObjectStore) Option {
	return func(s *Service) {
		s.store = store
	}
}

// WithEmailSender sets the email provider client
func WithEmailSender(sender EmailSender) Option {
	return func(s *Service) {
		s.sender = sender
	}
}

// WithScanner sets the attachment scanner
func WithScanner(scanner Scanner) Option {
	return func(s *Service) {
		s.scanner = scanner
	}
}

// WithEventSink sets the event sink for accepted submissions
func WithEventSink(sink EventSink) Option {
	return func(s *Service) {
		s.eventSink = sink
	}
}

// WithClock overrides the time source for key dates and link expiry
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// WithKeyGenerator overrides object key derivation
func WithKeyGenerator(g *objectkey.Generator) Option {
	return func(s *Service) {
		s.keys = g
	}
}

// WithLogger sets the logger
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// New creates a new service instance with the given options
func New(options ...Option) (*Service, error) {
	s := &Service{
		now: time.Now,
	}

	for _, option := range options {
		option(s)
	}

	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.scanner == nil {
		s.scanner = NewNoopScanner()
	}
	if s.eventSink == nil {
		s.eventSink = NewNoopEventSink()
	}
	if s.keys == nil {
		s.keys = objectkey.NewGenerator(objectkey.WithClock(s.now))
	}
	if s.settings.LinkTTL <= 0 {
		s.settings.LinkTTL = DefaultLinkTTL
	}

	s.recipients = ParseRecipients(s.settings.ContactTo)
	s.signer = presigned.New(
		presigned.WithSecretKey(s.settings.SigningSecret),
		presigned.WithTTL(s.settings.LinkTTL),
		presigned.WithPathPrefix(s.settings.DownloadPrefix),
		presigned.WithClock(s.now),
	)

	return s, nil
}

// Signer returns the link signer built from the service settings
func (s *Service) Signer() *presigned.Signer {
	return s.signer
}

func (s *Service) misconfigured(variable string) *Error {
	s.logger.Error("missing configuration", "variable", variable)
	return newError(KindServerMisconfigured, MsgNotConfigured, nil)
}
