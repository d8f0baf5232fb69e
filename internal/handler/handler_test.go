package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/whatsapp-bot/server/internal/agent/graph"
	"github.com/whatsapp-bot/server/internal/agent/model"
	"github.com/whatsapp-bot/server/internal/contact"
	"github.com/whatsapp-bot/server/internal/core"
	logx "github.com/whatsapp-bot/server/pkg/logger"
)

type fakeResponder struct {
	mu    sync.Mutex
	reply string
	users []string
	texts []string
}

func (f *fakeResponder) Respond(_ context.Context, userID, text string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.users = append(f.users, userID)
	f.texts = append(f.texts, text)
	return f.reply
}

type fakeSender struct {
	mu   sync.Mutex
	sent []string
	err  error
}

func (f *fakeSender) SendText(_ context.Context, to, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, to+":"+text)
	return f.err
}

type fakeSubmitter struct {
	got []contact.Submission
	err error
}

func (f *fakeSubmitter) Submit(_ context.Context, sub contact.Submission) error {
	f.got = append(f.got, sub)
	return f.err
}

type testEnv struct {
	router    http.Handler
	responder *fakeResponder
	sender    *fakeSender
	submitter *fakeSubmitter
}

func newTestEnv(reply string) *testEnv {
	env := &testEnv{
		responder: &fakeResponder{reply: reply},
		sender:    &fakeSender{},
		submitter: &fakeSubmitter{},
	}
	env.router = NewRouter(Handlers{
		Health:  NewHealthHandler(),
		Webhook: NewWebhookHandler(env.responder, env.sender, "s3cret"),
		Chat:    NewChatHandler(env.responder),
		Contact: NewContactHandler(env.submitter, 1<<20),
	})
	return env
}

func (e *testEnv) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func TestRootAndHealth(t *testing.T) {
	env := newTestEnv("")

	rec := env.do(httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, livenessText, rec.Body.String())
	require.NotEmpty(t, rec.Header().Get(CorrelationIDHeader))

	rec = env.do(httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"status":"healthy"}`, rec.Body.String())
}

func TestCorrelationIDIsEchoed(t *testing.T) {
	env := newTestEnv("")
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(CorrelationIDHeader, "abc-123")

	rec := env.do(req)
	require.Equal(t, "abc-123", rec.Header().Get(CorrelationIDHeader))
}

func TestWebhookVerify(t *testing.T) {
	env := newTestEnv("")

	rec := env.do(httptest.NewRequest(http.MethodGet, "/webhook?hub.mode=subscribe&hub.verify_token=s3cret&hub.challenge=abc123", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "abc123", rec.Body.String())

	rec = env.do(httptest.NewRequest(http.MethodGet, "/webhook?hub.mode=subscribe&hub.verify_token=wrong&hub.challenge=abc123", nil))
	require.Equal(t, http.StatusForbidden, rec.Code)

	rec = env.do(httptest.NewRequest(http.MethodGet, "/webhook?hub.mode=unsubscribe&hub.verify_token=s3cret&hub.challenge=abc123", nil))
	require.Equal(t, http.StatusForbidden, rec.Code)
}

func TestWebhookVerify_EmptySecretRejectsEverything(t *testing.T) {
	h := NewWebhookHandler(&fakeResponder{}, &fakeSender{}, "")
	rec := httptest.NewRecorder()
	h.Verify(rec, httptest.NewRequest(http.MethodGet, "/webhook?hub.mode=subscribe&hub.verify_token=&hub.challenge=x", nil))
	require.Equal(t, http.StatusForbidden, rec.Code)
}

func TestWebhookReceive_TextMessage(t *testing.T) {
	env := newTestEnv("Hi, I'm Jace's assistant")
	body := `{"entry":[{"changes":[{"value":{"messages":[{"from":"15551234567","type":"text","text":{"body":"hello"}}]}}]}]}`

	rec := env.do(httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(body)))
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"status":"success"}`, rec.Body.String())

	require.Equal(t, []string{"15551234567"}, env.responder.users)
	require.Equal(t, []string{"hello"}, env.responder.texts)
	require.Equal(t, []string{"15551234567:Hi, I'm Jace's assistant"}, env.sender.sent)
}

func TestWebhookReceive_IgnoredPayloads(t *testing.T) {
	payloads := map[string]string{
		"missing fields":  `{}`,
		"status callback": `{"entry":[{"changes":[{"value":{"statuses":[{"id":"x","status":"delivered"}]}}]}]}`,
		"image message":   `{"entry":[{"changes":[{"value":{"messages":[{"from":"1","type":"image"}]}}]}]}`,
		"malformed json":  `{"entry": [`,
		"wrong shape":     `{"entry": "nope"}`,
	}
	for name, body := range payloads {
		t.Run(name, func(t *testing.T) {
			env := newTestEnv("unused")
			rec := env.do(httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(body)))
			require.Equal(t, http.StatusOK, rec.Code)
			require.JSONEq(t, `{"status":"success"}`, rec.Body.String())
			require.Empty(t, env.responder.users)
			require.Empty(t, env.sender.sent)
		})
	}
}

func TestWebhookReceive_SendFailureStillAcknowledges(t *testing.T) {
	env := newTestEnv("reply")
	env.sender.err = errors.New("401 from cloud api")
	body := `{"entry":[{"changes":[{"value":{"messages":[{"from":"1","type":"text","text":{"body":"hey"}}]}}]}]}`

	rec := env.do(httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(body)))
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"status":"success"}`, rec.Body.String())
}

func TestChat(t *testing.T) {
	env := newTestEnv("Hello from Jace's assistant")

	rec := env.do(httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(`{"message":"Hello"}`)))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp chatResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "Hello from Jace's assistant", resp.Reply)
	require.Equal(t, []string{model.WebsiteVisitorID}, env.responder.users)
}

func TestChat_FallbackReplyIsStillOK(t *testing.T) {
	env := newTestEnv(graph.FallbackReply)

	rec := env.do(httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(`{"message":"Hello"}`)))
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"reply":"`+graph.FallbackReply+`"}`, rec.Body.String())
}

func TestChat_UndecodableBody(t *testing.T) {
	env := newTestEnv("x")

	rec := env.do(httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(`not json`)))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Empty(t, env.responder.users)
}

func TestChat_EmptyMessageStillGetsReply(t *testing.T) {
	env := newTestEnv("x")

	for _, body := range []string{`{"message":"   "}`, `{}`} {
		rec := env.do(httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(body)))
		require.Equal(t, http.StatusOK, rec.Code)

		var resp chatResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.Equal(t, EmptyMessageReply, resp.Reply)
	}
	require.Empty(t, env.responder.users)
}

func TestRequestLogsCarryCorrelationID(t *testing.T) {
	var buf bytes.Buffer
	logx.Init(logx.LoggerOpts{Environment: core.Production, Output: &buf})
	t.Cleanup(func() { logx.Init() })

	env := newTestEnv("reply")
	body := `{"entry":[{"changes":[{"value":{"messages":[{"from":"1","type":"text","text":{"body":"hey"}}]}}]}]}`
	req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(body))
	req.Header.Set(CorrelationIDHeader, "corr-42")
	env.do(req)

	req = httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(`{"message":"hi"}`))
	req.Header.Set(CorrelationIDHeader, "corr-43")
	env.do(req)

	byMessage := map[string]string{}
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		var entry map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &entry))
		msg, _ := entry["message"].(string)
		id, _ := entry["correlation_id"].(string)
		byMessage[msg] = id
	}
	require.Equal(t, "corr-42", byMessage["incoming WhatsApp message"])
	require.Equal(t, "corr-43", byMessage["incoming website message"])
}

func TestCORSPreflight(t *testing.T) {
	env := newTestEnv("")
	req := httptest.NewRequest(http.MethodOptions, "/api/chat", nil)
	req.Header.Set("Origin", "https://jace.dev")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)

	rec := env.do(req)
	require.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func contactRequest(t *testing.T, fields map[string]string, filename string, data []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	if filename != "" {
		part, err := w.CreateFormFile("attachment", filename)
		require.NoError(t, err)
		_, err = part.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/contact", &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

var contactFields = map[string]string{
	"fullName": "Ada Lovelace",
	"email":    "ada@example.com",
	"subject":  "Hello",
	"message":  "Let's build something.",
}

func TestContact_WithoutAttachment(t *testing.T) {
	env := newTestEnv("")

	rec := env.do(contactRequest(t, contactFields, "", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"status":"success"`)

	require.Len(t, env.submitter.got, 1)
	sub := env.submitter.got[0]
	require.Equal(t, "Ada Lovelace", sub.FullName)
	require.Equal(t, "ada@example.com", sub.Email)
	require.Equal(t, "Hello", sub.Subject)
	require.Equal(t, "Let's build something.", sub.Message)
	require.Nil(t, sub.Attachment)
}

func TestContact_WithAttachment(t *testing.T) {
	env := newTestEnv("")

	rec := env.do(contactRequest(t, contactFields, "cv.pdf", []byte("%PDF-1.4 data")))
	require.Equal(t, http.StatusOK, rec.Code)

	require.Len(t, env.submitter.got, 1)
	att := env.submitter.got[0].Attachment
	require.NotNil(t, att)
	require.Equal(t, "cv.pdf", att.Filename)
	require.Equal(t, "application/pdf", att.MimeType)
	require.Equal(t, []byte("%PDF-1.4 data"), att.Data)
}

func TestContact_NotifierFailureIs500(t *testing.T) {
	env := newTestEnv("")
	env.submitter.err = errors.New("smtp down")

	rec := env.do(contactRequest(t, contactFields, "", nil))
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.Contains(t, rec.Body.String(), `"status":"error"`)
}

func TestContact_NotMultipart(t *testing.T) {
	env := newTestEnv("")

	rec := env.do(httptest.NewRequest(http.MethodPost, "/api/contact", strings.NewReader(`{}`)))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Empty(t, env.submitter.got)
}

func TestDetectMimeType(t *testing.T) {
	require.Equal(t, "image/png", detectMimeType("image/png", "a.bin", nil))
	require.Equal(t, "application/pdf", detectMimeType("application/octet-stream", "cv.pdf", nil))
	require.Equal(t, "text/plain; charset=utf-8", detectMimeType("", "notes", []byte("plain words")))
}
