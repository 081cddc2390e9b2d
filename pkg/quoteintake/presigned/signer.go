package presigned

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// DefaultPathPrefix is the route download links are served under.
const DefaultPathPrefix = "/uploads/"

// Query parameter names carried by a signed link
const (
	ParamExpires   = "exp"
	ParamSignature = "sig"
)

// Sign computes HMAC-SHA256 over message keyed by secret and returns it
// base64url-encoded without padding.
func Sign(secret []byte, message string) string {
	h := hmac.New(sha256.New, secret)
	h.Write([]byte(message))
	return base64.RawURLEncoding.EncodeToString(h.Sum(nil))
}

// Payload is the signed message for an object key and expiry.
func Payload(objectKey string, expiresAt int64) string {
	return objectKey + ":" + strconv.FormatInt(expiresAt, 10)
}

// ParseExpiry parses a unix-seconds expiry. Anything that is not a plain
// base-10 integer is rejected.
func ParseExpiry(raw string) (int64, bool) {
	exp, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, false
	}
	return exp, true
}

// Verify reports whether signature is valid for objectKey and expiresAt at
// time now. The expiry is checked before the signature; every malformed or
// missing input yields false.
func Verify(secret []byte, objectKey string, expiresAt int64, signature string, now time.Time) bool {
	if expiresAt <= 0 || expiresAt <= now.Unix() {
		return false
	}
	if len(secret) == 0 || signature == "" {
		return false
	}
	expected := Sign(secret, Payload(objectKey, expiresAt))
	return hmac.Equal([]byte(signature), []byte(expected))
}

// EscapeKey path-encodes an object key for use in a URL. Slashes are kept.
func EscapeKey(objectKey string) string {
	return (&url.URL{Path: objectKey}).EscapedPath()
}

// Link is a minted download capability for one object.
type Link struct {
	ObjectKey string
	Expires   int64
	Signature string
	URL       string
}

// Signer mints and checks signed download links
type Signer struct {
	secretKey  []byte
	ttl        time.Duration
	pathPrefix string
	now        func() time.Time
}

// New creates a new Signer with the given options
func New(opts ...Option) *Signer {
	s := &Signer{
		ttl:        7 * 24 * time.Hour,
		pathPrefix: DefaultPathPrefix,
		now:        time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// IsEnabled returns true if a secret key is configured
func (s *Signer) IsEnabled() bool {
	return len(s.secretKey) > 0
}

// TTL returns the validity window applied to new links
func (s *Signer) TTL() time.Duration {
	return s.ttl
}

// PathPrefix returns the route prefix links are built under, with a trailing slash
func (s *Signer) PathPrefix() string {
	return s.pathPrefix
}

// ExpiryFromNow returns the expiry timestamp for links minted now.
func (s *Signer) ExpiryFromNow() int64 {
	return s.now().Unix() + int64(s.ttl/time.Second)
}

// SignKey mints a link for objectKey expiring at expiresAt, rooted at origin
// (scheme://host).
//
// Example:
//
//	link, err := signer.SignKey("https://example.com", "quotes/2024-05-01/ab12cd34_roof.jpg", exp)
//	// link.URL: https://example.com/uploads/quotes/2024-05-01/ab12cd34_roof.jpg?exp=...&sig=...
func (s *Signer) SignKey(origin, objectKey string, expiresAt int64) (Link, error) {
	if !s.IsEnabled() {
		return Link{}, ErrNoSecretKey
	}

	sig := Sign(s.secretKey, Payload(objectKey, expiresAt))
	signedURL := fmt.Sprintf("%s%s%s?%s=%d&%s=%s",
		strings.TrimRight(origin, "/"), s.pathPrefix, EscapeKey(objectKey),
		ParamExpires, expiresAt, ParamSignature, sig)

	return Link{
		ObjectKey: objectKey,
		Expires:   expiresAt,
		Signature: sig,
		URL:       signedURL,
	}, nil
}

// SignKeys mints one link per key, all sharing a single expiry computed once.
func (s *Signer) SignKeys(origin string, objectKeys []string) ([]Link, error) {
	if !s.IsEnabled() {
		return nil, ErrNoSecretKey
	}

	exp := s.ExpiryFromNow()
	links := make([]Link, 0, len(objectKeys))
	for _, key := range objectKeys {
		link, err := s.SignKey(origin, key, exp)
		if err != nil {
			return nil, err
		}
		links = append(links, link)
	}
	return links, nil
}

// Verify reports whether signature grants access to objectKey until expiresAt.
func (s *Signer) Verify(objectKey string, expiresAt int64, signature string) bool {
	return Verify(s.secretKey, objectKey, expiresAt, signature, s.now())
}

// Check validates raw query values for objectKey in the order a download
// request is checked: parameters present, expiry well-formed and in the
// future, secret configured, signature matching.
func (s *Signer) Check(objectKey, rawExpires, signature string) error {
	if signature == "" {
		return ErrMissingSignature
	}
	if rawExpires == "" {
		return ErrMissingExpiration
	}

	exp, ok := ParseExpiry(rawExpires)
	if !ok || exp <= 0 {
		return ErrInvalidExpiration
	}
	if exp <= s.now().Unix() {
		return ErrExpired
	}

	if !s.IsEnabled() {
		return ErrNoSecretKey
	}

	if !s.Verify(objectKey, exp, signature) {
		return ErrInvalidSignature
	}
	return nil
}

// ExtractObjectKey returns the object key addressed by a download path.
//
// Example:
//
//	key, err := signer.ExtractObjectKey("/uploads/quotes/2024-05-01/ab12cd34_roof.jpg")
//	// key: "quotes/2024-05-01/ab12cd34_roof.jpg"
func (s *Signer) ExtractObjectKey(path string) (string, error) {
	if !strings.HasPrefix(path, s.pathPrefix) {
		return "", fmt.Errorf("path does not match download prefix %q", s.pathPrefix)
	}
	return strings.TrimPrefix(path, s.pathPrefix), nil
}

// CheckURL parses a full signed link and validates it.
func (s *Signer) CheckURL(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("invalid link: %w", err)
	}

	key, err := s.ExtractObjectKey(u.Path)
	if err != nil {
		return "", err
	}

	query := u.Query()
	return key, s.Check(key, query.Get(ParamExpires), query.Get(ParamSignature))
}
