package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"documind/internal/api"
	"documind/internal/extract"
	"documind/internal/rag"
	"documind/internal/session"
)

// Version reported by the banner endpoint.
const Version = "1.0.0"

// Handler serves the upload/chat API on top of the RAG engine.
type Handler struct {
	engine *rag.RAG
}

// NewHandler creates the API handler.
func NewHandler(engine *rag.RAG) *Handler {
	return &Handler{engine: engine}
}

func (h *Handler) Root(w http.ResponseWriter, r *http.Request) {
	api.JSON(w, http.StatusOK, map[string]string{
		"message": "DocuMind API is running",
		"status":  "healthy",
		"version": Version,
	})
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	api.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ListSessions is a debugging aid: it reports every live session without
// exposing conversation content.
func (h *Handler) ListSessions(w http.ResponseWriter, r *http.Request) {
	infos := h.engine.Store().List()
	sessions := make(map[string]session.Info, len(infos))
	for _, info := range infos {
		sessions[info.SessionID] = info
	}
	api.JSON(w, http.StatusOK, map[string]interface{}{
		"session_count": len(infos),
		"sessions":      sessions,
	})
}

type uploadResponse struct {
	SessionID  string `json:"session_id"`
	FileName   string `json:"file_name"`
	Message    string `json:"message"`
	ChunkCount int    `json:"chunk_count"`
}

// Upload accepts a multipart document upload, extracts its text, and
// builds a fresh session around it.
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	file, header, err := r.FormFile("file")
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			api.Error(w, http.StatusRequestEntityTooLarge, "request body too large")
			return
		}
		api.Error(w, http.StatusBadRequest, "missing file field")
		return
	}
	defer file.Close()

	fileName := filepath.Base(header.Filename)
	if fileName == "" || fileName == "." {
		fileName = "document"
	}

	// Extraction libraries want a file on disk; spool the upload into a
	// temp file carrying the original extension.
	tmp, err := os.CreateTemp("", "documind-*"+filepath.Ext(fileName))
	if err != nil {
		api.Error(w, http.StatusInternalServerError, "could not process document")
		return
	}
	defer os.Remove(tmp.Name())
	if _, err := io.Copy(tmp, file); err != nil {
		tmp.Close()
		api.Error(w, http.StatusInternalServerError, "could not process document")
		return
	}
	tmp.Close()

	text, err := extract.Text(tmp.Name())
	if err != nil {
		log.Error().Err(err).Str("file_name", fileName).Msg("text extraction failed")
		api.HandleError(w, err)
		return
	}

	info, err := h.engine.Ingest(r.Context(), fileName, text)
	if err != nil {
		log.Error().Err(err).Str("file_name", fileName).Msg("ingestion failed")
		api.HandleError(w, err)
		return
	}

	api.JSON(w, http.StatusOK, uploadResponse{
		SessionID:  info.SessionID,
		FileName:   info.FileName,
		Message:    "Document indexed successfully",
		ChunkCount: info.ChunkCount,
	})
}

type chatRequest struct {
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
}

type chatResponse struct {
	Answer string `json:"answer"`
}

// Chat answers one question against the session's document.
func (h *Handler) Chat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.SessionID == "" || req.Message == "" {
		api.Error(w, http.StatusBadRequest, "session_id and message are required")
		return
	}

	answer, err := h.engine.Chat(r.Context(), req.SessionID, req.Message)
	if err != nil {
		log.Error().Err(err).Str("session_id", req.SessionID).Msg("chat failed")
		api.HandleError(w, err)
		return
	}
	api.JSON(w, http.StatusOK, chatResponse{Answer: answer})
}

// DeleteSession removes a session and its index.
func (h *Handler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.engine.Store().Delete(id); err != nil {
		api.HandleError(w, err)
		return
	}
	api.JSON(w, http.StatusOK, map[string]string{"message": "Session deleted successfully"})
}
