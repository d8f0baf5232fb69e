package whatsapp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"

	errx "github.com/whatsapp-bot/server/internal/core/error"
	logx "github.com/whatsapp-bot/server/pkg/logger"
)

const serviceName = "whatsapp cloud api"

// Client talks to the WhatsApp Cloud API on behalf of one business phone number.
type Client struct {
	cfg        Config
	httpClient *http.Client
}

// NewClient creates a Cloud API client. A nil httpClient uses http.DefaultClient.
func NewClient(cfg Config, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if cfg.Token == "" || cfg.PhoneNumberID == "" {
		logx.Warn().Msg("WhatsApp token or phone number id is empty; outbound messages will fail")
	}
	return &Client{cfg: cfg, httpClient: httpClient}
}

func (c *Client) endpoint(path string) string {
	return fmt.Sprintf("%s/%s/%s/%s", strings.TrimRight(c.cfg.BaseURL, "/"), c.cfg.APIVersion, c.cfg.PhoneNumberID, path)
}

// SendText sends a plain text message to the given WhatsApp number.
func (c *Client) SendText(ctx context.Context, to, text string) error {
	msg := outboundMessage{
		MessagingProduct: messagingProduct,
		RecipientType:    "individual",
		To:               to,
		Type:             "text",
		Text:             &textBody{Body: text},
	}
	return c.sendMessage(ctx, msg)
}

// SendDocument sends a previously uploaded media object as a document.
func (c *Client) SendDocument(ctx context.Context, to, mediaID, filename, caption string) error {
	msg := outboundMessage{
		MessagingProduct: messagingProduct,
		RecipientType:    "individual",
		To:               to,
		Type:             "document",
		Document:         &documentBody{ID: mediaID, Filename: filename, Caption: caption},
	}
	return c.sendMessage(ctx, msg)
}

// UploadMedia uploads data and returns the media id to reference in a later message.
func (c *Client) UploadMedia(ctx context.Context, data []byte, filename, mimeType string) (string, error) {
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	if err := writer.WriteField("messaging_product", messagingProduct); err != nil {
		return "", fmt.Errorf("failed to write form field: %w", err)
	}
	if err := writer.WriteField("type", mimeType); err != nil {
		return "", fmt.Errorf("failed to write form field: %w", err)
	}
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, filename))
	header.Set("Content-Type", mimeType)
	part, err := writer.CreatePart(header)
	if err != nil {
		return "", fmt.Errorf("failed to create file part: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return "", fmt.Errorf("failed to write file part: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("failed to close multipart writer: %w", err)
	}

	var resp mediaResponse
	if err := c.do(ctx, c.endpoint("media"), writer.FormDataContentType(), &body, &resp); err != nil {
		return "", err
	}
	if resp.ID == "" {
		return "", errx.WrapUpstream(serviceName, http.StatusOK, "media upload returned no id")
	}

	logx.Debug().Str("media_id", resp.ID).Str("filename", filename).Int("bytes", len(data)).Msg("media uploaded")
	return resp.ID, nil
}

func (c *Client) sendMessage(ctx context.Context, msg outboundMessage) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	var resp sendResponse
	if err := c.do(ctx, c.endpoint("messages"), "application/json", bytes.NewReader(payload), &resp); err != nil {
		return err
	}

	ev := logx.Debug().Str("to", msg.To).Str("type", msg.Type)
	if len(resp.Messages) > 0 {
		ev = ev.Str("message_id", resp.Messages[0].ID)
	}
	ev.Msg("whatsapp message sent")
	return nil
}

func (c *Client) do(ctx context.Context, url, contentType string, body io.Reader, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.Token)
	req.Header.Set("Content-Type", contentType)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		var apiErr apiErrorResponse
		detail := strings.TrimSpace(string(raw))
		if json.Unmarshal(raw, &apiErr) == nil && apiErr.Error.Message != "" {
			detail = apiErr.Error.Message
		}
		return errx.WrapUpstream(serviceName, resp.StatusCode, detail)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}
