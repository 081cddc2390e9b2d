package resend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/tendant/quote-intake/pkg/quoteintake"
)

// DefaultBaseURL is the public Resend API
const DefaultBaseURL = "https://api.resend.com"

const unreadableBody = "Unable to read provider response."

// Sender delivers quote notifications through the Resend REST API
type Sender struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// Option configures a Sender
type Option func(*Sender)

// WithBaseURL points the sender at a different API host
func WithBaseURL(baseURL string) Option {
	return func(s *Sender) {
		if baseURL != "" {
			s.baseURL = strings.TrimRight(baseURL, "/")
		}
	}
}

// WithHTTPClient replaces the default client (30s timeout)
func WithHTTPClient(client *http.Client) Option {
	return func(s *Sender) {
		if client != nil {
			s.httpClient = client
		}
	}
}

// New creates a Resend sender authenticated with apiKey
func New(apiKey string, opts ...Option) *Sender {
	s := &Sender{
		apiKey:  apiKey,
		baseURL: DefaultBaseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type sendRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	Text    string   `json:"text"`
	HTML    string   `json:"html"`
	ReplyTo string   `json:"reply_to,omitempty"`
}

// Send posts msg to /emails. A non-2xx answer is returned as
// *quoteintake.ProviderError carrying the provider's body.
func (s *Sender) Send(ctx context.Context, msg *quoteintake.EmailMessage) error {
	if msg == nil {
		return errors.New("email message is nil")
	}

	reqBody, err := json.Marshal(sendRequest{
		From:    msg.From,
		To:      msg.To,
		Subject: msg.Subject,
		Text:    msg.Text,
		HTML:    msg.HTML,
		ReplyTo: msg.ReplyTo,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal resend request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/emails", bytes.NewReader(reqBody))
	if err != nil {
		return fmt.Errorf("failed to create HTTP request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send HTTP request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	return &quoteintake.ProviderError{
		StatusCode: resp.StatusCode,
		Body:       readErrorBody(resp.Body),
	}
}

func readErrorBody(r io.Reader) string {
	raw, err := io.ReadAll(r)
	if err != nil {
		return unreadableBody
	}

	var compact bytes.Buffer
	if err := json.Compact(&compact, raw); err == nil {
		return compact.String()
	}
	return string(raw)
}
