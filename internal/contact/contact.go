package contact

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Config selects how contact-form submissions reach the operator.
type Config struct {
	// Notifier is "whatsapp" (fire-and-forget) or "email" (inline, failure surfaces as 500).
	Notifier       string        `envconfig:"CONTACT_NOTIFIER" default:"whatsapp"`
	MaxUploadBytes int64         `envconfig:"CONTACT_MAX_UPLOAD_BYTES" default:"10485760"`
	Workers        int           `envconfig:"CONTACT_WORKERS" default:"4"`
	NotifyTimeout  time.Duration `envconfig:"CONTACT_NOTIFY_TIMEOUT" default:"60s"`
}

const (
	NotifierWhatsApp = "whatsapp"
	NotifierEmail    = "email"
)

// Attachment is an uploaded file held fully in memory.
type Attachment struct {
	Filename string
	MimeType string
	Data     []byte
}

// Submission is one contact-form post. It lives only as long as its notification.
type Submission struct {
	FullName   string
	Email      string
	Subject    string
	Message    string
	Attachment *Attachment
}

// HasAttachment reports whether a non-empty file came with the submission.
func (s Submission) HasAttachment() bool {
	return s.Attachment != nil && len(s.Attachment.Data) > 0
}

// Summary renders the submission as the plain text sent to the operator.
func (s Submission) Summary() string {
	var b strings.Builder
	b.WriteString("New contact form submission\n\n")
	fmt.Fprintf(&b, "Name: %s\n", s.FullName)
	fmt.Fprintf(&b, "Email: %s\n", s.Email)
	fmt.Fprintf(&b, "Subject: %s\n", s.Subject)
	if s.HasAttachment() {
		fmt.Fprintf(&b, "Attachment: %s\n", s.Attachment.Filename)
	}
	b.WriteString("\nMessage:\n")
	b.WriteString(s.Message)
	return b.String()
}

// Notifier delivers a submission to the operator.
type Notifier interface {
	Notify(ctx context.Context, sub Submission) error
}
