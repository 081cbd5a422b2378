package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"documind/internal/rag"
	"documind/internal/session"
)

type flatEmbedder struct{}

func (flatEmbedder) Embed(_ context.Context, _ string) ([]float32, error) {
	return []float32{1, 1}, nil
}

type cannedGenerator struct {
	answer string
}

func (g cannedGenerator) Generate(_ context.Context, _ string) (string, error) {
	return g.answer, nil
}

func newTestServer(t *testing.T) http.Handler {
	t.Helper()
	store, err := session.NewStore(0)
	require.NoError(t, err)
	engine := rag.New(store, flatEmbedder{}, cannedGenerator{answer: "grounded answer"}, rag.Config{
		ChunkSize:    50,
		ChunkOverlap: 10,
	})
	return NewRouter(NewHandler(engine), 1<<20)
}

func doJSON(t *testing.T, h http.Handler, method, path string, body string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var decoded map[string]interface{}
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &decoded))
	}
	return rec, decoded
}

func uploadFile(t *testing.T, h http.Handler, fileName, content string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", fileName)
	require.NoError(t, err)
	_, err = part.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var decoded map[string]interface{}
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &decoded))
	}
	return rec, decoded
}

func TestRootAndHealth(t *testing.T) {
	h := newTestServer(t)

	rec, body := doJSON(t, h, http.MethodGet, "/", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, Version, body["version"])
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	rec, body = doJSON(t, h, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", body["status"])
}

func TestUploadChatDeleteFlow(t *testing.T) {
	h := newTestServer(t)

	rec, body := uploadFile(t, h, "pets.txt", "Cats sleep on the warm sill most afternoons in summer.")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	sessionID, _ := body["session_id"].(string)
	require.NotEmpty(t, sessionID)
	assert.Equal(t, "pets.txt", body["file_name"])
	assert.Equal(t, float64(2), body["chunk_count"])

	rec, body = doJSON(t, h, http.MethodPost, "/chat",
		`{"session_id":"`+sessionID+`","message":"Where do cats sleep?"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "grounded answer", body["answer"])

	rec, body = doJSON(t, h, http.MethodGet, "/sessions", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(1), body["session_count"])
	sessions, ok := body["sessions"].(map[string]interface{})
	require.True(t, ok)
	entry, ok := sessions[sessionID].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "pets.txt", entry["file_name"])
	assert.Equal(t, float64(2), entry["messages"])

	rec, _ = doJSON(t, h, http.MethodDelete, "/session/"+sessionID, "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, _ = doJSON(t, h, http.MethodPost, "/chat",
		`{"session_id":"`+sessionID+`","message":"still there?"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, _ = doJSON(t, h, http.MethodDelete, "/session/"+sessionID, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUploadMissingFileField(t *testing.T) {
	h := newTestServer(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("wrong", "value"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUploadTooLarge(t *testing.T) {
	store, err := session.NewStore(0)
	require.NoError(t, err)
	engine := rag.New(store, flatEmbedder{}, cannedGenerator{answer: "ok"}, rag.Config{})
	h := NewRouter(NewHandler(engine), 64)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", "big.txt")
	require.NoError(t, err)
	_, err = part.Write(bytes.Repeat([]byte("a"), 4096))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	// NopCloser hides the buffer's length, so the limit trips inside the
	// handler's body read rather than on the Content-Length check.
	req := httptest.NewRequest(http.MethodPost, "/upload", io.NopCloser(&buf))
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &decoded))
	assert.Equal(t, "request body too large", decoded["error"])
}

func TestUploadUnsupportedFormat(t *testing.T) {
	h := newTestServer(t)
	rec, body := uploadFile(t, h, "archive.zip", "not really a zip")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.NotEmpty(t, body["error"])
}

func TestUploadEmptyDocument(t *testing.T) {
	h := newTestServer(t)
	rec, _ := uploadFile(t, h, "empty.txt", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestChatValidation(t *testing.T) {
	h := newTestServer(t)

	rec, _ := doJSON(t, h, http.MethodPost, "/chat", `{not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = doJSON(t, h, http.MethodPost, "/chat", `{"session_id":"","message":"hi"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = doJSON(t, h, http.MethodPost, "/chat", `{"session_id":"abc","message":""}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestChatUnknownSession(t *testing.T) {
	h := newTestServer(t)
	rec, body := doJSON(t, h, http.MethodPost, "/chat", `{"session_id":"missing","message":"hi"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.NotEmpty(t, body["error"])
}
