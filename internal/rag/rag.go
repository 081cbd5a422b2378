// Package rag is the RAG session engine: it ingests documents into
// per-session vector indexes and answers questions grounded strictly in
// the retrieved document content.
package rag

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"documind/internal/chunker"
	"documind/internal/embedding"
	"documind/internal/index"
	"documind/internal/llmservice"
	"documind/internal/models"
	"documind/internal/session"
)

// DefaultHistoryTurns bounds how many past exchanges go into the prompt.
const DefaultHistoryTurns = 6

// Config carries the engine's tuning knobs.
type Config struct {
	ChunkSize    int
	ChunkOverlap int
	TopK         int
	// HistoryTurns is the number of past user/assistant exchanges included
	// verbatim in the prompt. Older exchanges are dropped entirely, not
	// summarized; a deliberate simplicity tradeoff to stay inside the
	// model's context window.
	HistoryTurns int
	IndexBackend string
}

// DefaultConfig mirrors the chunking and retrieval parameters the service
// has always used.
func DefaultConfig() Config {
	return Config{
		ChunkSize:    1000,
		ChunkOverlap: 200,
		TopK:         DefaultTopK,
		HistoryTurns: DefaultHistoryTurns,
		IndexBackend: index.BackendMemory,
	}
}

// RAG owns the full upload-to-answer pipeline on top of the session store
// and the two external capabilities (embedder, generator).
type RAG struct {
	store     *session.Store
	embedder  embedding.Embedder
	generator llmservice.Generator
	retriever *Retriever
	cfg       Config
}

// New wires the engine together. Zero-valued cfg fields fall back to
// DefaultConfig values.
func New(store *session.Store, embedder embedding.Embedder, generator llmservice.Generator, cfg Config) *RAG {
	def := DefaultConfig()
	if cfg.ChunkSize == 0 {
		cfg.ChunkSize = def.ChunkSize
		cfg.ChunkOverlap = def.ChunkOverlap
	}
	if cfg.TopK <= 0 {
		cfg.TopK = def.TopK
	}
	if cfg.HistoryTurns <= 0 {
		cfg.HistoryTurns = def.HistoryTurns
	}
	if cfg.IndexBackend == "" {
		cfg.IndexBackend = def.IndexBackend
	}
	return &RAG{
		store:     store,
		embedder:  embedder,
		generator: generator,
		retriever: NewRetriever(embedder, cfg.TopK),
		cfg:       cfg,
	}
}

// Store exposes the session store for transport-level session management
// (listing and deletion).
func (r *RAG) Store() *session.Store { return r.store }

// Ingest chunks and indexes extracted document text and creates a fresh
// session for it. The session becomes visible only after the index is
// fully built. Documents that chunk to nothing fail with ErrEmptyDocument
// and leave no session behind.
func (r *RAG) Ingest(ctx context.Context, fileName, rawText string) (session.Info, error) {
	chunks, err := chunker.Split(rawText, r.cfg.ChunkSize, r.cfg.ChunkOverlap)
	if err != nil {
		return session.Info{}, err
	}
	if len(chunks) == 0 {
		return session.Info{}, fmt.Errorf("%w: %s", models.ErrEmptyDocument, fileName)
	}
	log.Debug().Str("file_name", fileName).Int("chunks", len(chunks)).Msg("document chunked")

	idx, err := index.Build(ctx, r.cfg.IndexBackend, chunks, r.embedder)
	if err != nil {
		return session.Info{}, err
	}
	return r.store.Create(fileName, idx), nil
}

// Chat answers one user message against the given session's document.
// Exchanges on the same session are serialized; exchanges on different
// sessions run independently. The user/assistant pair is appended to
// history only after generation succeeds, so a failed or cancelled
// request leaves the history untouched.
func (r *RAG) Chat(ctx context.Context, sessionID, message string) (string, error) {
	sess, err := r.store.Get(sessionID)
	if err != nil {
		return "", err
	}
	sess.LockExchange()
	defer sess.UnlockExchange()

	chunks, err := r.retriever.Retrieve(ctx, sess, message)
	if err != nil {
		return "", err
	}
	log.Debug().Str("session_id", sessionID).Int("retrieved", len(chunks)).Msg("chunks retrieved")

	prompt := buildPrompt(chunks, sess.History(r.cfg.HistoryTurns*2), message)
	answer, err := r.generator.Generate(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("%w: %v", models.ErrGenerationFailure, err)
	}

	if err := r.store.AppendTurn(sessionID, message, answer); err != nil {
		return "", err
	}
	return answer, nil
}

// buildPrompt assembles the grounded prompt: the retrieved context block,
// the bounded conversation history, and the new query. An empty chunk set
// is marked explicitly so the model can say it found no answer instead of
// the request failing.
func buildPrompt(chunks []models.Chunk, history []models.Message, query string) string {
	var b strings.Builder
	b.WriteString("Context information is below.\n")
	b.WriteString(models.ContextFence + "\n")
	if len(chunks) == 0 {
		b.WriteString(models.NoContextMarker + "\n")
	} else {
		for i, ch := range chunks {
			if i > 0 {
				b.WriteString(models.ContextSeparator)
			}
			b.WriteString(ch.Text)
		}
		b.WriteString("\n")
	}
	b.WriteString(models.ContextFence + "\n")

	if len(history) > 0 {
		b.WriteString("Conversation so far:\n")
		for _, m := range history {
			b.WriteString(roleLabel(m.Role) + ": " + m.Content + "\n")
		}
	}

	b.WriteString(models.GroundingInstruction + "\n")
	b.WriteString("Query: " + query + "\n")
	b.WriteString("Answer: ")
	return b.String()
}

func roleLabel(role string) string {
	if role == models.RoleAssistant {
		return "Assistant"
	}
	return "User"
}
