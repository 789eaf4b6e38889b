package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carelane/reply-engine/internal/core/domain"
	"github.com/carelane/reply-engine/internal/ingest/intake"
	"github.com/carelane/reply-engine/internal/storage"
)

type mockIntakeRepo struct {
	savedKeys []string
}

func (m *mockIntakeRepo) SaveUploadBatch(_ context.Context, key string, _ []byte) error {
	m.savedKeys = append(m.savedKeys, key)

	return nil
}

func (m *mockIntakeRepo) PublishBatchNotification(_ context.Context, _ string, _ domain.BatchNotification) error {
	return nil
}

type mockReader struct {
	conversations []domain.ConversationSummary
	lastKey       string
	record        *domain.ConversationRecord
	listLimit     int
	listStartKey  string
}

func (m *mockReader) ListConversations(_ context.Context, limit int, startKey string) ([]domain.ConversationSummary, string, error) {
	m.listLimit = limit
	m.listStartKey = startKey

	return m.conversations, m.lastKey, nil
}

func (m *mockReader) GetConversation(_ context.Context, id string) (*domain.ConversationRecord, error) {
	if m.record != nil && m.record.ID == id {
		return m.record, nil
	}

	return nil, fmt.Errorf("get conversation %s: %w", id, storage.ErrNotFound)
}

func newTestServer(reader *mockReader) (*Server, *mockIntakeRepo) {
	logger := zerolog.Nop()
	repo := &mockIntakeRepo{}
	svc := intake.NewService("uploads", "batch_uploads", repo, &logger)

	return NewServer(svc, reader, &logger), repo
}

func validCSV(rows int) []byte {
	var sb strings.Builder

	sb.WriteString("sender_username,receiver_username,channel,message\n")

	for i := 0; i < rows; i++ {
		fmt.Fprintf(&sb, "user%d,support,email,hello\n", i)
	}

	return []byte(sb.String())
}

func doUpload(t *testing.T, server *Server, contentType string, body []byte) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, "/upload", bytes.NewReader(body))
	req.Header.Set("Content-Type", contentType)

	w := httptest.NewRecorder()
	server.Router().ServeHTTP(w, req)

	var payload map[string]any

	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &payload))

	return w, payload
}

func TestHandleUpload_Accepts(t *testing.T) {
	server, repo := newTestServer(&mockReader{})

	w, payload := doUpload(t, server, "text/csv", validCSV(1000))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "CSV uploaded successfully", payload["message"])
	assert.Len(t, repo.savedKeys, 1)
}

func TestHandleUpload_RejectsWrongContentType(t *testing.T) {
	server, _ := newTestServer(&mockReader{})

	w, payload := doUpload(t, server, "application/json", validCSV(1000))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Invalid file type", payload["message"])
}

func TestHandleUpload_RejectsWrongCount(t *testing.T) {
	server, _ := newTestServer(&mockReader{})

	w, payload := doUpload(t, server, "text/csv", validCSV(999))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "CSV must contain exactly 1000 records", payload["message"])
	assert.NotContains(t, payload, "errors")
}

func TestHandleUpload_ReportsChannelErrors(t *testing.T) {
	server, _ := newTestServer(&mockReader{})

	body := strings.Replace(string(validCSV(1000)), "user0,support,email", "user0,support,pigeon", 1)

	w, payload := doUpload(t, server, "text/csv", []byte(body))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Errors occurred", payload["message"])

	errs, ok := payload["errors"].([]any)
	require.True(t, ok)
	require.Len(t, errs, 1)
	assert.Equal(t, "Invalid channel: pigeon on line 2", errs[0])
}

func TestHandleListConversations(t *testing.T) {
	reader := &mockReader{
		conversations: []domain.ConversationSummary{
			{ID: "a", Sender: "alice", Receiver: "support", Message: "hi", Channel: domain.ChannelEmail},
		},
		lastKey: "a",
	}
	server, _ := newTestServer(reader)

	req := httptest.NewRequest(http.MethodGet, "/conversations?limit=5&startKey=zzz", nil)
	w := httptest.NewRecorder()
	server.Router().ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 5, reader.listLimit)
	assert.Equal(t, "zzz", reader.listStartKey)

	var payload struct {
		Conversations    []domain.ConversationSummary `json:"conversations"`
		LastEvaluatedKey string                       `json:"lastEvaluatedKey"`
	}

	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &payload))
	require.Len(t, payload.Conversations, 1)
	assert.Equal(t, "alice", payload.Conversations[0].Sender)
	assert.Equal(t, "a", payload.LastEvaluatedKey)
}

func TestHandleListConversations_DefaultLimit(t *testing.T) {
	reader := &mockReader{}
	server, _ := newTestServer(reader)

	req := httptest.NewRequest(http.MethodGet, "/conversations", nil)
	w := httptest.NewRecorder()
	server.Router().ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 10, reader.listLimit)
}

func TestHandleGetConversation(t *testing.T) {
	reader := &mockReader{
		record: &domain.ConversationRecord{
			ID:       "conv-1",
			Message:  "i want a refund",
			Response: "Hi alice, refunds are processed within 7 business days.",
		},
	}
	server, _ := newTestServer(reader)

	req := httptest.NewRequest(http.MethodGet, "/conversations/conv-1", nil)
	w := httptest.NewRecorder()
	server.Router().ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var payload map[string]string

	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &payload))
	assert.Equal(t, "i want a refund", payload["message"])
	assert.Equal(t, "Hi alice, refunds are processed within 7 business days.", payload["response"])
}

func TestHandleGetConversation_NotFound(t *testing.T) {
	server, _ := newTestServer(&mockReader{})

	req := httptest.NewRequest(http.MethodGet, "/conversations/missing", nil)
	w := httptest.NewRecorder()
	server.Router().ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)

	var payload map[string]string

	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &payload))
	assert.Equal(t, "Item not found", payload["error"])
}
