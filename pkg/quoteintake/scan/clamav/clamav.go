package clamav

import (
	"context"
	"errors"
	"fmt"
	"io"

	clamd "github.com/dutchcoders/go-clamd"

	"github.com/tendant/quote-intake/pkg/quoteintake"
)

// Client is the part of the clamd client the scanner uses
type Client interface {
	ScanStream(r io.Reader, abort chan bool) (chan *clamd.ScanResult, error)
	Ping() error
}

// Scanner streams attachments to a clamd daemon before they are stored
type Scanner struct {
	client Client
}

// New creates a scanner for a clamd address such as "tcp://clamav:3310"
func New(address string) (*Scanner, error) {
	if address == "" {
		return nil, errors.New("clamd address is required")
	}
	return &Scanner{client: clamd.NewClamd(address)}, nil
}

// NewWithClient wraps an existing clamd client
func NewWithClient(client Client) *Scanner {
	return &Scanner{client: client}
}

// Ping checks that the daemon answers
func (s *Scanner) Ping() error {
	return s.client.Ping()
}

// Scan returns an error wrapping quoteintake.ErrInfected when clamd reports
// a signature match. Any other failure means the file could not be checked.
func (s *Scanner) Scan(ctx context.Context, filename string, r io.Reader) error {
	abort := make(chan bool)
	defer close(abort)

	results, err := s.client.ScanStream(r, abort)
	if err != nil {
		return fmt.Errorf("clamd scan %s: %w", filename, err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case res, ok := <-results:
			if !ok {
				return nil
			}
			switch res.Status {
			case clamd.RES_FOUND:
				return fmt.Errorf("%w: %s: %s", quoteintake.ErrInfected, filename, res.Description)
			case clamd.RES_ERROR, clamd.RES_PARSE_ERROR:
				return fmt.Errorf("clamd scan %s: %s", filename, res.Raw)
			}
		}
	}
}
