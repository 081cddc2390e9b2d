package presigned

import "errors"

// Signature validation errors
var (
	// ErrNoSecretKey is returned when signing or checking without a configured secret key
	ErrNoSecretKey = errors.New("presigned: no secret key configured")

	// ErrMissingSignature is returned when the sig query parameter is missing
	ErrMissingSignature = errors.New("presigned: missing sig parameter")

	// ErrMissingExpiration is returned when the exp query parameter is missing
	ErrMissingExpiration = errors.New("presigned: missing exp parameter")

	// ErrInvalidExpiration is returned when the exp parameter cannot be parsed
	ErrInvalidExpiration = errors.New("presigned: invalid exp parameter")

	// ErrExpired is returned when the link has expired
	ErrExpired = errors.New("presigned: link has expired")

	// ErrInvalidSignature is returned when the signature does not match
	ErrInvalidSignature = errors.New("presigned: invalid signature")
)

// IsAuthError returns true if the error means the caller presented a bad link,
// as opposed to the server lacking a secret.
func IsAuthError(err error) bool {
	return errors.Is(err, ErrMissingSignature) ||
		errors.Is(err, ErrMissingExpiration) ||
		errors.Is(err, ErrInvalidExpiration) ||
		errors.Is(err, ErrExpired) ||
		errors.Is(err, ErrInvalidSignature)
}
