package objectkey

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

// DefaultPrefix is the top-level partition for submitted attachments
const DefaultPrefix = "quotes"

// FallbackBase is used when a filename has no usable characters
const FallbackBase = "photo"

var (
	nonAlnumRun  = regexp.MustCompile(`[^a-z0-9]+`)
	extPattern   = regexp.MustCompile(`\.([a-zA-Z0-9]+)$`)
	trailingDot  = regexp.MustCompile(`\.[^/.]+$`)
	pathSplitter = regexp.MustCompile(`[\\/]`)
)

// SanitizeBase lower-cases name, collapses every run of characters outside
// [a-z0-9] into one hyphen and trims hyphens from both ends.
func SanitizeBase(name string) string {
	cleaned := nonAlnumRun.ReplaceAllString(strings.ToLower(name), "-")
	cleaned = strings.Trim(cleaned, "-")
	if cleaned == "" {
		return FallbackBase
	}
	return cleaned
}

// Extension returns the lower-cased trailing alphanumeric extension of name
// without the dot, or "" when there is none.
func Extension(name string) string {
	m := extPattern.FindStringSubmatch(lastComponent(name))
	if m == nil {
		return ""
	}
	return strings.ToLower(m[1])
}

// BaseName returns the sanitized filename stem: directories dropped, trailing
// extension removed.
func BaseName(name string) string {
	return SanitizeBase(trailingDot.ReplaceAllString(lastComponent(name), ""))
}

// FileName returns the stored file name: sanitized stem plus extension if any.
func FileName(name string) string {
	base := BaseName(name)
	if ext := Extension(name); ext != "" {
		return base + "." + ext
	}
	return base
}

func lastComponent(name string) string {
	if name == "" {
		return FallbackBase
	}
	parts := pathSplitter.Split(name, -1)
	return parts[len(parts)-1]
}

// Compose builds an object key from its parts. The same inputs always give
// the same key.
//
//	quotes/2024-05-01/ab12cd34_roof.jpg
func Compose(prefix string, day time.Time, random, filename string) string {
	return fmt.Sprintf("%s/%s/%s_%s", prefix, day.UTC().Format(time.DateOnly), random, FileName(filename))
}

// RandomSuffix returns 8 lowercase hex characters from a cryptographically
// strong source.
func RandomSuffix() (string, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", fmt.Errorf("failed to generate random suffix: %w", err)
	}
	return strings.ReplaceAll(id.String(), "-", "")[:8], nil
}

// Generator derives storage keys for uploaded attachments
type Generator struct {
	prefix string
	now    func() time.Time
	random func() (string, error)
}

// Option configures a Generator
type Option func(*Generator)

// WithPrefix sets the top-level key partition
func WithPrefix(prefix string) Option {
	return func(g *Generator) {
		if p := strings.Trim(prefix, "/"); p != "" {
			g.prefix = p
		}
	}
}

// WithClock overrides the time source used for the date partition
func WithClock(now func() time.Time) Option {
	return func(g *Generator) {
		if now != nil {
			g.now = now
		}
	}
}

// WithRandom overrides the random suffix source
func WithRandom(random func() (string, error)) Option {
	return func(g *Generator) {
		if random != nil {
			g.random = random
		}
	}
}

// NewGenerator creates a key generator with the default "quotes" prefix
func NewGenerator(opts ...Option) *Generator {
	g := &Generator{
		prefix: DefaultPrefix,
		now:    time.Now,
		random: RandomSuffix,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// GenerateKey returns a fresh key for an uploaded file name
func (g *Generator) GenerateKey(filename string) (string, error) {
	random, err := g.random()
	if err != nil {
		return "", err
	}
	return Compose(g.prefix, g.now(), random, filename), nil
}
