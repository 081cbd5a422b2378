package models

// Prompt assembly constants shared by the orchestrator and its tests.
const (
	// ContextSeparator delimits retrieved chunks inside the grounding
	// context so the model can tell chunk boundaries apart.
	ContextSeparator = "\n---\n"

	// ContextFence bounds the grounding context block in the prompt.
	ContextFence = "---------------------"

	// NoContextMarker replaces the context block when retrieval returns
	// nothing, so the model can answer that it cannot find an answer
	// instead of the request failing.
	NoContextMarker = "[no relevant context found]"
)

// GroundingInstruction tells the model to answer strictly from the
// provided context.
const GroundingInstruction = "Given the context information above I want you to think step by step " +
	"to answer the query in a crisp manner, in case you don't know the " +
	"answer say 'I don't know!'."
