package handler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/whatsapp-bot/server/internal/contact"
	logx "github.com/whatsapp-bot/server/pkg/logger"
)

// form fields beyond the attachment
const multipartOverheadBytes = 1 << 20

// ContactSubmitter dispatches a contact-form submission.
type ContactSubmitter interface {
	Submit(ctx context.Context, sub contact.Submission) error
}

// ContactHandler handles the website contact form.
type ContactHandler struct {
	submitter      ContactSubmitter
	maxUploadBytes int64
}

func NewContactHandler(submitter ContactSubmitter, maxUploadBytes int64) *ContactHandler {
	return &ContactHandler{submitter: submitter, maxUploadBytes: maxUploadBytes}
}

// Submit handles POST /api/contact
func (h *ContactHandler) Submit(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes+multipartOverheadBytes)
	if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil {
		logx.Warn().Err(err).Msg("invalid contact form")
		writeStatus(w, http.StatusBadRequest, "error", "invalid form submission")
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	sub := contact.Submission{
		FullName: strings.TrimSpace(r.FormValue("fullName")),
		Email:    strings.TrimSpace(r.FormValue("email")),
		Subject:  strings.TrimSpace(r.FormValue("subject")),
		Message:  strings.TrimSpace(r.FormValue("message")),
	}

	att, err := h.readAttachment(r)
	if err != nil {
		logx.Warn().Err(err).Msg("invalid contact attachment")
		writeStatus(w, http.StatusBadRequest, "error", "invalid attachment")
		return
	}
	sub.Attachment = att

	if err := h.submitter.Submit(r.Context(), sub); err != nil {
		logx.Error().Err(err).Str("from", sub.Email).Msg("contact notification failed")
		writeStatus(w, http.StatusInternalServerError, "error", "failed to send message")
		return
	}

	writeStatus(w, http.StatusOK, "success", "Message sent successfully")
}

func (h *ContactHandler) readAttachment(r *http.Request) (*contact.Attachment, error) {
	file, header, err := r.FormFile("attachment")
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer file.Close()

	if header.Size > h.maxUploadBytes {
		return nil, fmt.Errorf("attachment is %d bytes, limit is %d", header.Size, h.maxUploadBytes)
	}
	data, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read attachment: %w", err)
	}
	if len(data) == 0 {
		return nil, nil
	}

	return &contact.Attachment{
		Filename: filepath.Base(header.Filename),
		MimeType: detectMimeType(header.Header.Get("Content-Type"), header.Filename, data),
		Data:     data,
	}, nil
}

func detectMimeType(declared, filename string, data []byte) string {
	if declared != "" && declared != "application/octet-stream" {
		return declared
	}
	if byExt := mime.TypeByExtension(filepath.Ext(filename)); byExt != "" {
		return byExt
	}
	return http.DetectContentType(data)
}
