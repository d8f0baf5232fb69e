package mailer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/wneessen/go-mail"

	logx "github.com/whatsapp-bot/server/pkg/logger"
)

// ErrNotConfigured is returned by Send when SMTP credentials are missing.
var ErrNotConfigured = errors.New("smtp credentials are not configured")

// Config describes the SMTP account used to deliver notifications to the operator.
type Config struct {
	Host     string `envconfig:"SMTP_HOST" default:"smtp.gmail.com"`
	Port     int    `envconfig:"SMTP_PORT" default:"465"`
	Username string `envconfig:"SMTP_USERNAME"`
	Password string `envconfig:"SMTP_PASSWORD"`
	// Recipient defaults to Username: the operator mails themselves.
	Recipient string        `envconfig:"SMTP_RECIPIENT"`
	Timeout   time.Duration `envconfig:"SMTP_TIMEOUT" default:"30s"`
}

func (c Config) recipient() string {
	if c.Recipient != "" {
		return c.Recipient
	}
	return c.Username
}

// Attachment is a file carried in memory.
type Attachment struct {
	Filename string
	MimeType string
	Data     []byte
}

// Message is a plain-text notification with an optional attachment.
type Message struct {
	Subject    string
	Body       string
	ReplyTo    string
	Attachment *Attachment
}

// Mailer sends notifications over an authenticated TLS SMTP session.
type Mailer struct {
	cfg Config
}

func New(cfg Config) *Mailer {
	if cfg.Username == "" || cfg.Password == "" {
		logx.Warn().Msg("SMTP username or password is empty; email notifications will fail")
	}
	return &Mailer{cfg: cfg}
}

// Build composes the MIME message: text/plain body plus an optional base64 attachment.
func (m *Mailer) Build(msg Message) (*mail.Msg, error) {
	out := mail.NewMsg()
	if err := out.From(m.cfg.Username); err != nil {
		return nil, fmt.Errorf("invalid sender address: %w", err)
	}
	if err := out.To(m.cfg.recipient()); err != nil {
		return nil, fmt.Errorf("invalid recipient address: %w", err)
	}
	if msg.ReplyTo != "" {
		if err := out.ReplyTo(msg.ReplyTo); err != nil {
			// a bad reply-to only costs the operator a click
			logx.Warn().Err(err).Str("reply_to", msg.ReplyTo).Msg("ignoring invalid reply-to address")
		}
	}
	out.Subject(msg.Subject)
	out.SetDate()
	out.SetMessageID()
	out.SetBodyString(mail.TypeTextPlain, msg.Body)

	if a := msg.Attachment; a != nil && len(a.Data) > 0 {
		opts := []mail.FileOption{mail.WithFileEncoding(mail.EncodingB64)}
		if a.MimeType != "" {
			opts = append(opts, mail.WithFileContentType(mail.ContentType(a.MimeType)))
		}
		out.AttachReadSeeker(a.Filename, bytes.NewReader(a.Data), opts...)
	}
	return out, nil
}

// Send builds msg and delivers it. Port 465 uses implicit TLS, any other port STARTTLS.
func (m *Mailer) Send(ctx context.Context, msg Message) error {
	if m.cfg.Username == "" || m.cfg.Password == "" {
		return ErrNotConfigured
	}

	out, err := m.Build(msg)
	if err != nil {
		return err
	}

	opts := []mail.Option{
		mail.WithPort(m.cfg.Port),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(m.cfg.Username),
		mail.WithPassword(m.cfg.Password),
		mail.WithTimeout(m.cfg.Timeout),
	}
	if m.cfg.Port == 465 {
		opts = append(opts, mail.WithSSL())
	} else {
		opts = append(opts, mail.WithTLSPolicy(mail.TLSMandatory))
	}

	client, err := mail.NewClient(m.cfg.Host, opts...)
	if err != nil {
		return fmt.Errorf("failed to create smtp client: %w", err)
	}
	if err := client.DialAndSendWithContext(ctx, out); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	logx.Info().Str("subject", msg.Subject).Str("to", m.cfg.recipient()).Msg("email sent")
	return nil
}
