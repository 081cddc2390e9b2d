package config

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"

	"github.com/tendant/quote-intake/pkg/quoteintake"
	"github.com/tendant/quote-intake/pkg/quoteintake/email/resend"
	natsevents "github.com/tendant/quote-intake/pkg/quoteintake/events/nats"
	"github.com/tendant/quote-intake/pkg/quoteintake/scan/clamav"
)

// Config is the process configuration, read from the environment.
//
// Required delivery settings (RESEND_API_KEY, CONTACT_TO, CONTACT_FROM,
// DOWNLOAD_TOKEN_SECRET) may be empty at startup; requests that need them
// fail with "Server not configured".
type Config struct {
	Port            string        `env:"PORT" env-default:"8080"`
	Environment     string        `env:"ENVIRONMENT" env-default:"production"`
	LogLevel        string        `env:"LOG_LEVEL" env-default:"info"`
	LogFormat       string        `env:"LOG_FORMAT" env-default:"json"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" env-default:"10s"`

	ResendAPIKey  string `env:"RESEND_API_KEY"`
	ResendBaseURL string `env:"RESEND_BASE_URL" env-default:"https://api.resend.com"`
	ContactFrom   string `env:"CONTACT_FROM"`
	ContactTo     string `env:"CONTACT_TO"`

	DownloadTokenSecret string `env:"DOWNLOAD_TOKEN_SECRET"`
	LinkTTLSeconds      string `env:"UPLOAD_LINK_TTL_SECONDS" env-default:"604800"`

	StorageURL         string `env:"STORAGE_URL"`
	AWSAccessKeyID     string `env:"AWS_ACCESS_KEY_ID"`
	AWSSecretAccessKey string `env:"AWS_SECRET_ACCESS_KEY"`
	AWSRegion          string `env:"AWS_REGION" env-default:"us-east-1"`
	GCSCredentialsFile string `env:"GCS_CREDENTIALS_FILE"`

	ClamdAddress string `env:"CLAMD_ADDRESS"`
	NATSURL      string `env:"NATS_URL"`
	NATSSubject  string `env:"NATS_SUBJECT" env-default:"quotes.submitted"`
}

// Load reads the environment and validates the values that can be wrong
// rather than merely missing.
func Load() (*Config, error) {
	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}

	if _, err := ParseLogLevel(cfg.LogLevel); err != nil {
		return nil, err
	}
	switch strings.ToLower(cfg.LogFormat) {
	case "json", "text":
	default:
		return nil, fmt.Errorf("unsupported LOG_FORMAT %q (use 'json' or 'text')", cfg.LogFormat)
	}
	if cfg.StorageURL != "" {
		if _, err := ParseStorageURL(cfg.StorageURL); err != nil {
			return nil, err
		}
	}

	return &cfg, nil
}

// IsDevelopment reports whether permissive CORS should be enabled
func (c *Config) IsDevelopment() bool {
	return strings.EqualFold(c.Environment, "development")
}

// LinkTTL is UPLOAD_LINK_TTL_SECONDS as a duration
func (c *Config) LinkTTL() time.Duration {
	return ParseLinkTTL(c.LinkTTLSeconds)
}

// ParseLinkTTL parses a whole number of seconds. Empty, invalid and
// non-positive values give the default of seven days.
func ParseLinkTTL(raw string) time.Duration {
	seconds, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || seconds <= 0 {
		return quoteintake.DefaultLinkTTL
	}
	return time.Duration(seconds) * time.Second
}

// Settings returns the service settings carried by the configuration
func (c *Config) Settings() quoteintake.Settings {
	return quoteintake.Settings{
		EmailAPIKey:   c.ResendAPIKey,
		ContactFrom:   c.ContactFrom,
		ContactTo:     c.ContactTo,
		SigningSecret: c.DownloadTokenSecret,
		LinkTTL:       c.LinkTTL(),
	}
}

// ParseLogLevel accepts debug, info, warn or error
func ParseLogLevel(raw string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(raw)); err != nil {
		return 0, fmt.Errorf("unsupported LOG_LEVEL %q: %w", raw, err)
	}
	return level, nil
}

// NewLogger builds the process logger from LOG_LEVEL and LOG_FORMAT
func (c *Config) NewLogger(w io.Writer) *slog.Logger {
	level, err := ParseLogLevel(c.LogLevel)
	if err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}

	if strings.EqualFold(c.LogFormat, "text") {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}

// EmailSender returns the Resend sender, or nil when no API key is set
func (c *Config) EmailSender() quoteintake.EmailSender {
	if c.ResendAPIKey == "" {
		return nil
	}
	return resend.New(c.ResendAPIKey, resend.WithBaseURL(c.ResendBaseURL))
}

// Scanner returns the clamd scanner, or nil when CLAMD_ADDRESS is empty
func (c *Config) Scanner() (quoteintake.Scanner, error) {
	if c.ClamdAddress == "" {
		return nil, nil
	}
	scanner, err := clamav.New(c.ClamdAddress)
	if err != nil {
		return nil, err
	}
	return scanner, nil
}

// EventSink connects to NATS, or returns nil when NATS_URL is empty. The
// caller closes the returned sink.
func (c *Config) EventSink() (*natsevents.EventSink, error) {
	if c.NATSURL == "" {
		return nil, nil
	}
	return natsevents.Connect(c.NATSURL, c.NATSSubject)
}

// ObjectStore builds the backend named by STORAGE_URL, or nil when unset
func (c *Config) ObjectStore(ctx context.Context) (quoteintake.ObjectStore, error) {
	if c.StorageURL == "" {
		return nil, nil
	}
	storage, err := ParseStorageURL(c.StorageURL)
	if err != nil {
		return nil, err
	}
	return storage.Build(ctx, Credentials{
		AccessKeyID:     c.AWSAccessKeyID,
		SecretAccessKey: c.AWSSecretAccessKey,
		Region:          c.AWSRegion,
		GCSFile:         c.GCSCredentialsFile,
	})
}

// Describe returns the configuration as log attributes with secrets reduced
// to whether they are set
func (c *Config) Describe() []any {
	return []any{
		"port", c.Port,
		"environment", c.Environment,
		"resend_api_key_set", c.ResendAPIKey != "",
		"contact_to_set", c.ContactTo != "",
		"contact_from_set", c.ContactFrom != "",
		"download_token_secret_set", c.DownloadTokenSecret != "",
		"link_ttl", c.LinkTTL().String(),
		"storage", redactURL(c.StorageURL),
		"clamd", c.ClamdAddress != "",
		"nats", c.NATSURL != "",
	}
}

func redactURL(raw string) string {
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "invalid"
	}
	return u.Redacted()
}
