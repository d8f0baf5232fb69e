package mailer

import (
	"bytes"
	"context"
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/require"
)

func render(t *testing.T, m *Mailer, msg Message) string {
	t.Helper()
	out, err := m.Build(msg)
	require.NoError(t, err)
	var buf bytes.Buffer
	_, err = out.WriteTo(&buf)
	require.NoError(t, err)
	return buf.String()
}

func TestBuild_PlainText(t *testing.T) {
	m := New(Config{Username: "jace@example.com", Password: "pw"})

	raw := render(t, m, Message{Subject: "New contact: Hello", Body: "Hi there", ReplyTo: "ada@example.com"})

	require.Contains(t, raw, "From: <jace@example.com>")
	require.Contains(t, raw, "To: <jace@example.com>")
	require.Contains(t, raw, "Reply-To: <ada@example.com>")
	require.Contains(t, raw, "Subject: New contact: Hello")
	require.Contains(t, raw, "text/plain")
	require.Contains(t, raw, "Hi there")
	require.NotContains(t, raw, "Content-Disposition: attachment")
}

func TestBuild_WithAttachment(t *testing.T) {
	m := New(Config{Username: "jace@example.com", Password: "pw", Recipient: "inbox@example.com"})
	data := []byte("attachment payload bytes")

	raw := render(t, m, Message{
		Subject:    "With file",
		Body:       "see attached",
		Attachment: &Attachment{Filename: "notes.txt", MimeType: "text/plain", Data: data},
	})

	require.Contains(t, raw, "To: <inbox@example.com>")
	require.Contains(t, raw, "multipart/mixed")
	require.Contains(t, raw, `filename="notes.txt"`)
	require.Contains(t, raw, "Content-Transfer-Encoding: base64")
	require.Contains(t, raw, base64.StdEncoding.EncodeToString(data))
}

func TestBuild_InvalidSender(t *testing.T) {
	m := New(Config{Username: "not an address", Password: "pw"})
	_, err := m.Build(Message{Subject: "x", Body: "y"})
	require.Error(t, err)
}

func TestSend_NotConfigured(t *testing.T) {
	m := New(Config{Host: "smtp.example.com", Port: 465})
	err := m.Send(context.Background(), Message{Subject: "x", Body: "y"})
	require.ErrorIs(t, err, ErrNotConfigured)
}
