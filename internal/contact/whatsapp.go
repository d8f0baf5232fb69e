package contact

import (
	"context"
	"errors"
	"fmt"
	"unicode/utf8"

	logx "github.com/whatsapp-bot/server/pkg/logger"
)

// MaxCaptionRunes is the Cloud API limit for a document caption.
const MaxCaptionRunes = 1024

// Messenger is the subset of the WhatsApp Cloud API client the notifier needs.
type Messenger interface {
	SendText(ctx context.Context, to, text string) error
	UploadMedia(ctx context.Context, data []byte, filename, mimeType string) (string, error)
	SendDocument(ctx context.Context, to, mediaID, filename, caption string) error
}

// WhatsAppNotifier forwards submissions to the operator's own WhatsApp number.
type WhatsAppNotifier struct {
	messenger Messenger
	to        string
}

func NewWhatsAppNotifier(messenger Messenger, ownerNumber string) *WhatsAppNotifier {
	if ownerNumber == "" {
		logx.Warn().Msg("WhatsApp owner number is empty; contact notifications will fail")
	}
	return &WhatsAppNotifier{messenger: messenger, to: ownerNumber}
}

// Notify sends one message per submission: the summary as text, or, with an
// attachment, upload then document captioned with the summary. A failed upload
// is replaced by a text carrying the summary and naming the file that was lost.
// Summaries too long for a caption go out as a text ahead of the document.
func (n *WhatsAppNotifier) Notify(ctx context.Context, sub Submission) error {
	summary := sub.Summary()
	if !sub.HasAttachment() {
		if err := n.messenger.SendText(ctx, n.to, summary); err != nil {
			logx.Error().Err(err).Str("from", sub.Email).Msg("failed to send contact summary")
			return fmt.Errorf("send summary: %w", err)
		}
		return nil
	}

	att := sub.Attachment
	mediaID, err := n.messenger.UploadMedia(ctx, att.Data, att.Filename, att.MimeType)
	if err != nil {
		logx.Error().Err(err).Str("filename", att.Filename).Msg("failed to upload contact attachment")
		errs := []error{fmt.Errorf("upload attachment: %w", err)}

		notice := fmt.Sprintf("%s\n\nThe attachment %q could not be delivered.", summary, att.Filename)
		if err := n.messenger.SendText(ctx, n.to, notice); err != nil {
			logx.Error().Err(err).Msg("failed to send attachment fallback notice")
			errs = append(errs, fmt.Errorf("send fallback notice: %w", err))
		}
		return errors.Join(errs...)
	}

	var errs []error
	caption := summary
	if utf8.RuneCountInString(summary) > MaxCaptionRunes {
		if err := n.messenger.SendText(ctx, n.to, summary); err != nil {
			logx.Error().Err(err).Str("from", sub.Email).Msg("failed to send contact summary")
			errs = append(errs, fmt.Errorf("send summary: %w", err))
		}
		caption = fmt.Sprintf("Attachment from %s (%s)", sub.FullName, sub.Email)
	}

	if err := n.messenger.SendDocument(ctx, n.to, mediaID, att.Filename, caption); err != nil {
		logx.Error().Err(err).Str("media_id", mediaID).Msg("failed to send contact attachment")
		errs = append(errs, fmt.Errorf("send document: %w", err))
	}
	return errors.Join(errs...)
}
