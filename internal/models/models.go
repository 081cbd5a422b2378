package models

// Chunk represents one retrievable segment of an uploaded document.
// Chunks are immutable once produced by the chunker; ID is the 0-based
// position of the chunk in the original split order.
type Chunk struct {
	ID           int
	Text         string
	SourceOffset int
}

// Message roles for conversation history.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is a single entry in a session's conversation history. A chat
// exchange appends a user/assistant pair atomically.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}
