package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opsforge/conveyor/internal/task"
)

type fakeMailer struct {
	to, subject string
	err         error
}

func (m *fakeMailer) SendMail(_ context.Context, to, subject, textBody, htmlBody string) error {
	m.to = to
	m.subject = subject
	return m.err
}

type fakeTokenStore struct {
	deleted int64
	err     error
}

func (s *fakeTokenStore) DeleteExpired(context.Context) (int64, error) {
	return s.deleted, s.err
}

type fakeRegistrar struct {
	userID int
}

func (r *fakeRegistrar) SendWelcomeEmail(_ context.Context, userID int) error {
	r.userID = userID
	return nil
}

type fakeAvatarProcessor struct {
	taskID   string
	userID   int
	fileName string
}

func (p *fakeAvatarProcessor) Process(_ context.Context, taskID string, userID int, fileName string) error {
	p.taskID = taskID
	p.userID = userID
	p.fileName = fileName
	return nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
}

func TestPayloadWireFormat(t *testing.T) {
	payload := SendEmail("a@example.com", "hi", "text", "<p>html</p>")
	data, err := json.Marshal(payload)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "SendEmail", decoded["type"])
	assert.Equal(t, "a@example.com", decoded["to"])
	assert.NotContains(t, decoded, "user_id", "unset variant fields stay off the wire")

	data, err = json.Marshal(CleanupExpiredToken())
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"CleanupExpiredToken"}`, string(data))
}

// Messages published by the application layer carry the variant name as
// the type tag; a payload decoded from that wire form must dispatch, not
// fall through to the unknown-type branch.
func TestHandleDispatchesWireTags(t *testing.T) {
	mailer := &fakeMailer{}
	handler := NewHandler(mailer, nil, nil, nil, testLogger())

	raw := []byte(`{
		"id": "0c9adf40-59da-4b5c-a9a0-fd0e8f0d1bbe",
		"task": {"type": "SendEmail", "to": "a@example.com", "subject": "hi"},
		"created_at": "2026-08-23T10:30:15Z",
		"retry_count": 0,
		"max_retries": 3,
		"priority": "Normal"
	}`)

	var env task.Envelope[Payload]
	require.NoError(t, json.Unmarshal(raw, &env))
	require.NoError(t, handler.Handle(context.Background(), &env))
	assert.Equal(t, "a@example.com", mailer.to)
	assert.Equal(t, "hi", mailer.subject)
}

func TestHandleSendEmail(t *testing.T) {
	mailer := &fakeMailer{}
	handler := NewHandler(mailer, nil, nil, nil, testLogger())

	env := task.New(SendEmail("a@example.com", "welcome", "hello", ""))
	require.NoError(t, handler.Handle(context.Background(), env))
	assert.Equal(t, "a@example.com", mailer.to)
	assert.Equal(t, "welcome", mailer.subject)
}

func TestHandleSendEmailFailure(t *testing.T) {
	mailer := &fakeMailer{err: errors.New("smtp down")}
	handler := NewHandler(mailer, nil, nil, nil, testLogger())

	env := task.New(SendEmail("a@example.com", "welcome", "hello", ""))
	err := handler.Handle(context.Background(), env)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "a@example.com")
}

func TestHandleCleanupExpiredToken(t *testing.T) {
	tokens := &fakeTokenStore{deleted: 12}
	handler := NewHandler(nil, tokens, nil, nil, testLogger())

	env := task.New(CleanupExpiredToken())
	assert.NoError(t, handler.Handle(context.Background(), env))
}

func TestHandleProcessUserRegistration(t *testing.T) {
	users := &fakeRegistrar{}
	handler := NewHandler(nil, nil, users, nil, testLogger())

	env := task.New(ProcessUserRegistration(42))
	require.NoError(t, handler.Handle(context.Background(), env))
	assert.Equal(t, 42, users.userID)
}

func TestHandleProcessAvatarUpload(t *testing.T) {
	avatars := &fakeAvatarProcessor{}
	handler := NewHandler(nil, nil, nil, avatars, testLogger())

	env := task.New(ProcessAvatarUpload("upload-1", 42, "me.png"))
	require.NoError(t, handler.Handle(context.Background(), env))
	assert.Equal(t, "upload-1", avatars.taskID)
	assert.Equal(t, 42, avatars.userID)
	assert.Equal(t, "me.png", avatars.fileName)
}

func TestHandleMissingCollaborator(t *testing.T) {
	handler := NewHandler(nil, nil, nil, nil, testLogger())

	env := task.New(SendEmail("a@example.com", "s", "", ""))
	assert.Error(t, handler.Handle(context.Background(), env))
}

func TestHandleUnknownType(t *testing.T) {
	handler := NewHandler(&fakeMailer{}, &fakeTokenStore{}, &fakeRegistrar{}, &fakeAvatarProcessor{}, testLogger())

	env := task.New(Payload{Type: "mystery"})
	err := handler.Handle(context.Background(), env)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mystery")
}
