// Package session owns the process-wide map from session ids to document
// indexes and conversation histories.
//
// The store is the only mutable shared state in the engine. It is bounded
// by an LRU cap: when a new upload would exceed the cap, the least
// recently used session is evicted, which is the documented answer to the
// otherwise unbounded in-memory growth. Evicted and deleted sessions
// surface as ErrSessionNotFound on later use.
//
// Sessions live purely in memory; nothing survives process teardown.
package session

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/rs/zerolog/log"

	"documind/internal/index"
	"documind/internal/models"
)

// DefaultMaxSessions caps the store when no explicit capacity is set.
const DefaultMaxSessions = 64

// Session binds one uploaded document's index to an ongoing conversation.
// The index is never mutated after creation; a re-upload creates a fresh
// session instead, so in-flight chats against the old one stay consistent.
type Session struct {
	ID        string
	FileName  string
	Index     index.Index
	CreatedAt time.Time

	// exchange serializes chat exchanges on this session. The orchestrator
	// holds it for a whole retrieve-generate-append cycle.
	exchange sync.Mutex

	// histMu guards history separately so debug listings never block on an
	// in-flight generation.
	histMu  sync.RWMutex
	history []models.Message
}

// LockExchange blocks until this session's current chat exchange, if any,
// has finished.
func (s *Session) LockExchange() { s.exchange.Lock() }

// UnlockExchange releases the exchange lock.
func (s *Session) UnlockExchange() { s.exchange.Unlock() }

// History returns a copy of the most recent limit messages, oldest
// first. limit <= 0 returns the full history.
func (s *Session) History(limit int) []models.Message {
	s.histMu.RLock()
	defer s.histMu.RUnlock()
	turns := s.history
	if limit > 0 && len(turns) > limit {
		turns = turns[len(turns)-limit:]
	}
	out := make([]models.Message, len(turns))
	copy(out, turns)
	return out
}

// HistoryLen reports the number of messages recorded so far.
func (s *Session) HistoryLen() int {
	s.histMu.RLock()
	defer s.histMu.RUnlock()
	return len(s.history)
}

func (s *Session) appendTurns(user, assistant string) {
	s.histMu.Lock()
	defer s.histMu.Unlock()
	s.history = append(s.history,
		models.Message{Role: models.RoleUser, Content: user},
		models.Message{Role: models.RoleAssistant, Content: assistant},
	)
}

// Info is the external descriptor of a session. Callers outside the
// engine only ever see ids and descriptors, never Session pointers.
type Info struct {
	SessionID  string `json:"session_id"`
	FileName   string `json:"file_name"`
	ChunkCount int    `json:"chunk_count"`
	Messages   int    `json:"messages"`
}

// Store maps session ids to sessions with LRU eviction at a fixed cap.
type Store struct {
	sessions *lru.Cache[string, *Session]
}

// NewStore creates a store holding at most maxSessions sessions.
// maxSessions <= 0 selects DefaultMaxSessions.
func NewStore(maxSessions int) (*Store, error) {
	if maxSessions <= 0 {
		maxSessions = DefaultMaxSessions
	}
	cache, err := lru.NewWithEvict(maxSessions, func(id string, _ *Session) {
		log.Info().Str("session_id", id).Msg("session evicted")
	})
	if err != nil {
		return nil, err
	}
	return &Store{sessions: cache}, nil
}

// Create stores a new session for a fully built index and returns its
// descriptor. The session only becomes visible here, after the build has
// completed, so no caller can observe a half-built index. Ids are random
// UUIDs and are never reused within a process lifetime.
func (s *Store) Create(fileName string, idx index.Index) Info {
	sess := &Session{
		ID:        uuid.NewString(),
		FileName:  fileName,
		Index:     idx,
		CreatedAt: time.Now().UTC(),
	}
	s.sessions.Add(sess.ID, sess)
	log.Info().Str("session_id", sess.ID).Str("file_name", fileName).
		Int("chunks", idx.Len()).Msg("session created")
	return Info{SessionID: sess.ID, FileName: fileName, ChunkCount: idx.Len()}
}

// Get returns the session for id, marking it recently used.
func (s *Store) Get(id string) (*Session, error) {
	sess, ok := s.sessions.Get(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", models.ErrSessionNotFound, id)
	}
	return sess, nil
}

// AppendTurn atomically appends one user message and one assistant
// response to the session's history. The pair is never partially
// appended; if the session has been evicted or deleted in the meantime,
// nothing is recorded and ErrSessionNotFound is returned.
func (s *Store) AppendTurn(id, userMessage, assistantMessage string) error {
	sess, ok := s.sessions.Get(id)
	if !ok {
		return fmt.Errorf("%w: %s", models.ErrSessionNotFound, id)
	}
	sess.appendTurns(userMessage, assistantMessage)
	return nil
}

// Delete removes the session for id.
func (s *Store) Delete(id string) error {
	if !s.sessions.Remove(id) {
		return fmt.Errorf("%w: %s", models.ErrSessionNotFound, id)
	}
	log.Info().Str("session_id", id).Msg("session deleted")
	return nil
}

// Len reports the number of live sessions.
func (s *Store) Len() int { return s.sessions.Len() }

// List returns descriptors for all live sessions, least recently used
// first, without touching recency.
func (s *Store) List() []Info {
	keys := s.sessions.Keys()
	infos := make([]Info, 0, len(keys))
	for _, id := range keys {
		sess, ok := s.sessions.Peek(id)
		if !ok {
			continue
		}
		infos = append(infos, Info{
			SessionID:  sess.ID,
			FileName:   sess.FileName,
			ChunkCount: sess.Index.Len(),
			Messages:   sess.HistoryLen(),
		})
	}
	return infos
}
