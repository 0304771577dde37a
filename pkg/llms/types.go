// Package llms contains the provider adapters for the analysis model
// calls. An adapter is a pure pass-through: it takes an assembled prompt
// and conversation history and returns the model's raw text. Parsing the
// reply into typed results happens elsewhere.
package llms

import "context"

// Role identifies the author of a conversation message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one turn of conversation history passed to the model.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Request is a single model invocation.
type Request struct {
	// System is the system prompt, may be empty.
	System string

	// Messages is the conversation, oldest first, ending with the user turn.
	Messages []Message
}

// Response is the raw model output plus token accounting.
type Response struct {
	Text         string
	InputTokens  int
	OutputTokens int
}

// Provider is implemented by each LLM backend adapter. Generate must honor
// ctx cancellation; an unresponsive model must not hang a caller beyond
// its deadline.
type Provider interface {
	Name() string
	ModelName() string
	Generate(ctx context.Context, req Request) (*Response, error)
	Close() error
}
