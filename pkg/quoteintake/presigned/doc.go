// Package presigned provides HMAC-based capability links for stored attachments.
//
// A link grants read access to one object key until an expiry timestamp. The
// signature is HMAC-SHA256 over "<objectKey>:<expiresUnix>", base64url-encoded
// without padding, carried in the "sig" query parameter next to "exp".
//
// # Basic Usage
//
// Mint links for a batch of keys (one shared expiry):
//
//	signer := presigned.New(
//	    presigned.WithSecretKey(secret),
//	    presigned.WithTTL(24*time.Hour),
//	)
//	links, err := signer.SignKeys("https://example.com", keys)
//
// Check an incoming request:
//
//	err := signer.Check(key, r.URL.Query().Get("exp"), r.URL.Query().Get("sig"))
//	if presigned.IsAuthError(err) {
//	    // 403
//	}
//
// Links are never stored: anyone holding the secret can recompute them, and
// nothing can revoke one before it expires.
package presigned
