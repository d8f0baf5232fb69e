package contact

import (
	"context"

	"github.com/whatsapp-bot/server/internal/mailer"
)

// MailSender delivers a composed email.
type MailSender interface {
	Send(ctx context.Context, msg mailer.Message) error
}

// EmailNotifier mails submissions to the operator, with Reply-To set to the visitor.
type EmailNotifier struct {
	sender MailSender
}

func NewEmailNotifier(sender MailSender) *EmailNotifier {
	return &EmailNotifier{sender: sender}
}

func (n *EmailNotifier) Notify(ctx context.Context, sub Submission) error {
	msg := mailer.Message{
		Subject: "New contact: " + sub.Subject,
		Body:    sub.Summary(),
		ReplyTo: sub.Email,
	}
	if sub.HasAttachment() {
		msg.Attachment = &mailer.Attachment{
			Filename: sub.Attachment.Filename,
			MimeType: sub.Attachment.MimeType,
			Data:     sub.Attachment.Data,
		}
	}
	return n.sender.Send(ctx, msg)
}
