package quoteintake

import (
	"context"
	"errors"
	"strings"

	"github.com/tendant/quote-intake/pkg/quoteintake/presigned"
)

// Retrieve checks a download capability and returns the stored object. The
// caller must close the returned Body.
//
// Malformed, expired and forged links all fail with the same KindForbidden
// error so a caller cannot tell which check failed.
func (s *Service) Retrieve(ctx context.Context, key, rawExpires, signature string) (*Object, error) {
	key = strings.TrimPrefix(key, "/")
	if key == "" {
		return nil, newError(KindNotFound, MsgNotFound, nil)
	}

	if err := s.signer.Check(key, rawExpires, signature); err != nil {
		if errors.Is(err, presigned.ErrNoSecretKey) {
			return nil, s.misconfigured(SettingSigningSecret)
		}
		s.logger.Debug("download link rejected", "key", key, "reason", err)
		return nil, newError(KindForbidden, MsgForbidden, err)
	}

	if s.store == nil {
		return nil, s.misconfigured(SettingObjectStore)
	}

	obj, err := s.store.Get(ctx, key)
	if err != nil {
		if errors.Is(err, ErrObjectNotFound) {
			s.logger.Debug("download object lookup", "key", key, "exists", false)
			return nil, newError(KindNotFound, MsgNotFound, err)
		}
		s.logger.Error("failed to read object", "key", key, "error", err)
		return nil, newError(KindServerError, MsgServerError, err)
	}

	s.logger.Debug("download object lookup", "key", key, "exists", true)
	return obj, nil
}
