package rag

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"documind/internal/index"
	"documind/internal/models"
	"documind/internal/session"
)

// keywordEmbedder gives texts mentioning cats one direction and
// everything else the orthogonal one, so retrieval is deterministic.
type keywordEmbedder struct {
	err error
}

func (e *keywordEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	if e.err != nil {
		return nil, e.err
	}
	if strings.Contains(strings.ToLower(text), "cats") {
		return []float32{1, 0}, nil
	}
	return []float32{0, 1}, nil
}

type stubGenerator struct {
	answer  string
	err     error
	prompts []string
}

func (g *stubGenerator) Generate(_ context.Context, prompt string) (string, error) {
	g.prompts = append(g.prompts, prompt)
	if g.err != nil {
		return "", g.err
	}
	return g.answer, nil
}

const testDocument = "Dogs bark loudly in the yard.Cats sleep on the warm sill."

func newTestEngine(t *testing.T, gen *stubGenerator) *RAG {
	t.Helper()
	store, err := session.NewStore(0)
	require.NoError(t, err)
	return New(store, &keywordEmbedder{}, gen, Config{
		ChunkSize:    29,
		ChunkOverlap: 0,
		TopK:         1,
		HistoryTurns: 1,
		IndexBackend: index.BackendMemory,
	})
}

func TestIngestAndChat(t *testing.T) {
	gen := &stubGenerator{answer: "On the warm sill."}
	engine := newTestEngine(t, gen)

	info, err := engine.Ingest(context.Background(), "pets.txt", testDocument)
	require.NoError(t, err)
	assert.Equal(t, 2, info.ChunkCount)

	answer, err := engine.Chat(context.Background(), info.SessionID, "Where do cats sleep?")
	require.NoError(t, err)
	assert.Equal(t, "On the warm sill.", answer)

	require.Len(t, gen.prompts, 1)
	prompt := gen.prompts[0]
	assert.Contains(t, prompt, "Cats sleep on the warm sill.")
	assert.NotContains(t, prompt, "Dogs bark")
	assert.Contains(t, prompt, "Query: Where do cats sleep?")
	assert.True(t, strings.HasSuffix(prompt, "Answer: "))

	sess, err := engine.Store().Get(info.SessionID)
	require.NoError(t, err)
	history := sess.History(0)
	require.Len(t, history, 2)
	assert.Equal(t, models.RoleUser, history[0].Role)
	assert.Equal(t, "Where do cats sleep?", history[0].Content)
	assert.Equal(t, models.RoleAssistant, history[1].Role)
	assert.Equal(t, "On the warm sill.", history[1].Content)
}

func TestChatHistoryBounding(t *testing.T) {
	gen := &stubGenerator{answer: "ok"}
	engine := newTestEngine(t, gen)

	info, err := engine.Ingest(context.Background(), "pets.txt", testDocument)
	require.NoError(t, err)

	for _, q := range []string{"FIRST question", "SECOND question", "THIRD question"} {
		_, err := engine.Chat(context.Background(), info.SessionID, q)
		require.NoError(t, err)
	}

	// HistoryTurns is 1, so only the second exchange precedes the third.
	require.Len(t, gen.prompts, 3)
	last := gen.prompts[2]
	assert.Contains(t, last, "User: SECOND question")
	assert.Contains(t, last, "Assistant: ok")
	assert.NotContains(t, last, "FIRST")

	// The first prompt of a session carries no conversation block.
	assert.NotContains(t, gen.prompts[0], "Conversation so far:")
	assert.Contains(t, last, "Conversation so far:")
}

func TestRetrieveIdempotent(t *testing.T) {
	// Every chunk embeds to the same vector, so ordering rests entirely
	// on the tie-break rule; repeated calls must not reshuffle it.
	doc := strings.Repeat("alpha beta gamma delta ", 6)
	for _, backend := range []string{index.BackendMemory, index.BackendChromem} {
		t.Run(backend, func(t *testing.T) {
			store, err := session.NewStore(0)
			require.NoError(t, err)
			engine := New(store, &keywordEmbedder{}, &stubGenerator{answer: "ok"}, Config{
				ChunkSize:    40,
				ChunkOverlap: 0,
				TopK:         2,
				HistoryTurns: 1,
				IndexBackend: backend,
			})

			info, err := engine.Ingest(context.Background(), "greek.txt", doc)
			require.NoError(t, err)
			sess, err := store.Get(info.SessionID)
			require.NoError(t, err)

			first, err := engine.retriever.Retrieve(context.Background(), sess, "what letters?")
			require.NoError(t, err)
			require.Len(t, first, 2)

			for i := 0; i < 10; i++ {
				again, err := engine.retriever.Retrieve(context.Background(), sess, "what letters?")
				require.NoError(t, err)
				assert.Equal(t, first, again)
			}
			assert.Equal(t, 0, first[0].ID)
			assert.Equal(t, 1, first[1].ID)
		})
	}
}

func TestChatUnknownSession(t *testing.T) {
	engine := newTestEngine(t, &stubGenerator{answer: "ok"})

	_, err := engine.Chat(context.Background(), "missing", "hello")
	assert.True(t, errors.Is(err, models.ErrSessionNotFound))
}

func TestChatGenerationFailureLeavesHistory(t *testing.T) {
	gen := &stubGenerator{err: errors.New("upstream 500")}
	engine := newTestEngine(t, gen)

	info, err := engine.Ingest(context.Background(), "pets.txt", testDocument)
	require.NoError(t, err)

	_, err = engine.Chat(context.Background(), info.SessionID, "Where do cats sleep?")
	assert.True(t, errors.Is(err, models.ErrGenerationFailure))

	sess, err := engine.Store().Get(info.SessionID)
	require.NoError(t, err)
	assert.Equal(t, 0, sess.HistoryLen())
}

func TestIngestEmptyDocument(t *testing.T) {
	engine := newTestEngine(t, &stubGenerator{answer: "ok"})

	_, err := engine.Ingest(context.Background(), "empty.txt", "")
	assert.True(t, errors.Is(err, models.ErrEmptyDocument))
	assert.Equal(t, 0, engine.Store().Len())
}

func TestIngestEmbeddingFailureLeavesNoSession(t *testing.T) {
	store, err := session.NewStore(0)
	require.NoError(t, err)
	engine := New(store, &keywordEmbedder{err: errors.New("quota exceeded")}, &stubGenerator{}, Config{})

	_, err = engine.Ingest(context.Background(), "pets.txt", testDocument)
	assert.True(t, errors.Is(err, models.ErrEmbeddingFailure))
	assert.Equal(t, 0, store.Len())
}

func TestBuildPromptNoContext(t *testing.T) {
	prompt := buildPrompt(nil, nil, "anything?")
	assert.Contains(t, prompt, models.NoContextMarker)
	assert.Contains(t, prompt, "Query: anything?")
}

func TestBuildPromptSeparatesChunks(t *testing.T) {
	chunks := []models.Chunk{
		{ID: 0, Text: "first chunk"},
		{ID: 1, Text: "second chunk"},
	}
	prompt := buildPrompt(chunks, nil, "q")
	assert.Contains(t, prompt, "first chunk"+models.ContextSeparator+"second chunk")
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, 1000, cfg.ChunkSize)
	assert.Equal(t, 200, cfg.ChunkOverlap)
	assert.Equal(t, DefaultTopK, cfg.TopK)
	assert.Equal(t, DefaultHistoryTurns, cfg.HistoryTurns)
	assert.Equal(t, index.BackendMemory, cfg.IndexBackend)
}
