package presigned

import "time"

// Option is a functional option for configuring a Signer
type Option func(*Signer)

// WithSecretKey sets the secret key used for HMAC signing
func WithSecretKey(key string) Option {
	return func(s *Signer) {
		s.secretKey = []byte(key)
	}
}

// WithTTL sets the validity window of minted links. Non-positive values keep
// the default of 7 days.
func WithTTL(ttl time.Duration) Option {
	return func(s *Signer) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// WithPathPrefix sets the route prefix links are built under, e.g. "/uploads/"
func WithPathPrefix(prefix string) Option {
	return func(s *Signer) {
		if prefix == "" {
			return
		}
		if prefix[len(prefix)-1] != '/' {
			prefix += "/"
		}
		s.pathPrefix = prefix
	}
}

// WithClock overrides the time source
func WithClock(now func() time.Time) Option {
	return func(s *Signer) {
		if now != nil {
			s.now = now
		}
	}
}
