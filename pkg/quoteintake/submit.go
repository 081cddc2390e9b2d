package quoteintake

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Submit runs one submission through the pipeline. It stops at the first
// failure and returns an *Error whose Kind decides the response. Fields are
// trimmed before any check, so callers may pass them raw.
//
// Attachments are stored one at a time before any link is minted or email
// sent. When a later attachment is rejected, earlier ones stay in the store;
// a delivery failure likewise leaves stored objects behind.
func (s *Service) Submit(ctx context.Context, sub *Submission) (*Receipt, error) {
	f := sub.Fields.Sanitized()

	if f.Website != "" {
		s.logger.Info("honeypot field filled, discarding submission")
		return &Receipt{Discarded: true}, nil
	}

	if f.Name == "" || f.Message == "" || (f.Phone == "" && f.Email == "") {
		return nil, newError(KindValidationFailed, MsgRequiredFields, nil)
	}

	if err := s.checkDeliveryConfig(); err != nil {
		return nil, err
	}

	keys, err := s.storeAttachments(ctx, sub.Attachments)
	if err != nil {
		return nil, err
	}

	receipt := &Receipt{ObjectKeys: keys}
	if len(keys) > 0 {
		if !s.signer.IsEnabled() {
			return nil, s.misconfigured(SettingSigningSecret)
		}
		links, err := s.signer.SignKeys(sub.Origin, keys)
		if err != nil {
			return nil, newError(KindServerError, MsgServerError, err)
		}
		for _, link := range links {
			receipt.Links = append(receipt.Links, link.URL)
		}
		receipt.ExpiresAt = links[0].Expires
	}

	msg := composeMessage(f, receipt.Links, s.settings.ContactFrom, s.recipients)
	if err := s.deliver(ctx, msg); err != nil {
		return nil, err
	}

	event := &SubmissionEvent{
		Service:     serviceLabel(f.Service),
		ObjectKeys:  keys,
		LinkExpires: receipt.ExpiresAt,
		SubmittedAt: s.now().UTC(),
	}
	if err := s.eventSink.SubmissionAccepted(ctx, event); err != nil {
		s.logger.Warn("failed to publish submission event", "error", err)
	}

	s.logger.Info("submission delivered", "attachments", len(keys), "recipients", len(s.recipients))
	return receipt, nil
}

func (s *Service) checkDeliveryConfig() error {
	var missing []string
	if s.settings.EmailAPIKey == "" || s.sender == nil {
		missing = append(missing, SettingEmailAPIKey)
	}
	if s.settings.ContactTo == "" {
		missing = append(missing, SettingContactTo)
	}
	if s.settings.ContactFrom == "" {
		missing = append(missing, SettingContactFrom)
	}
	if len(missing) > 0 {
		for _, name := range missing {
			s.logger.Error("missing configuration", "variable", name)
		}
		return newError(KindServerMisconfigured, MsgNotConfigured, nil)
	}

	if len(s.recipients) == 0 {
		return s.misconfigured(SettingContactTo)
	}
	return nil
}

func (s *Service) storeAttachments(ctx context.Context, files []Attachment) ([]string, error) {
	if len(files) > MaxAttachments {
		return nil, newError(KindValidationFailed, MsgTooManyPhotos, nil)
	}
	if len(files) == 0 {
		return nil, nil
	}
	if s.store == nil {
		return nil, s.misconfigured(SettingObjectStore)
	}

	keys := make([]string, 0, len(files))
	for _, file := range files {
		if !strings.HasPrefix(file.MimeType, "image/") {
			s.logger.Warn("attachment rejected", "reason", "mime_type", "mime_type", file.MimeType, "stored", len(keys))
			return nil, newError(KindValidationFailed, MsgImagesOnly, nil)
		}
		if file.Size > MaxAttachmentSize {
			s.logger.Warn("attachment rejected", "reason", "size", "size", file.Size, "stored", len(keys))
			return nil, newError(KindValidationFailed, MsgPhotoTooLarge, nil)
		}

		if err := s.scan(ctx, file); err != nil {
			return nil, err
		}

		key, err := s.keys.GenerateKey(file.Filename)
		if err != nil {
			return nil, newError(KindServerError, MsgServerError, err)
		}

		if err := s.put(ctx, key, file); err != nil {
			s.logger.Error("failed to store attachment", "key", key, "error", err)
			return nil, newError(KindServerError, MsgServerError, err)
		}
		keys = append(keys, key)
	}
	return keys, nil
}

func (s *Service) scan(ctx context.Context, file Attachment) error {
	rc, err := file.Open()
	if err != nil {
		return newError(KindServerError, MsgServerError, fmt.Errorf("open attachment: %w", err))
	}
	defer rc.Close()

	if err := s.scanner.Scan(ctx, file.Filename, rc); err != nil {
		if errors.Is(err, ErrInfected) {
			s.logger.Warn("attachment rejected", "reason", "scan", "error", err)
			return newError(KindValidationFailed, MsgAttachmentRejected, err)
		}
		s.logger.Error("attachment scan failed", "error", err)
		return newError(KindServerError, MsgServerError, err)
	}
	return nil
}

func (s *Service) put(ctx context.Context, key string, file Attachment) error {
	rc, err := file.Open()
	if err != nil {
		return fmt.Errorf("open attachment: %w", err)
	}
	defer rc.Close()

	return s.store.Put(ctx, key, rc, file.Size, file.MimeType)
}

func (s *Service) deliver(ctx context.Context, msg *EmailMessage) error {
	err := s.sender.Send(ctx, msg)
	if err == nil {
		return nil
	}

	var providerErr *ProviderError
	if errors.As(err, &providerErr) {
		s.logger.Error("email provider error", "status", providerErr.StatusCode, "body", providerErr.Body)
		return newError(KindProviderError, MsgProviderError, err)
	}

	s.logger.Error("email delivery failed", "error", err)
	return newError(KindServerError, MsgServerError, err)
}
