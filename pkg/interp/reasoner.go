package interp

import "context"

// ResourceReasoner is the resource name under which the engine looks up the
// Reasoner before executing a reason statement.
const ResourceReasoner = "reasoner"

// Message is one turn of a Reasoner conversation.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ReasonOptions control a single Reasoner query. Extra carries any option
// the script supplied that the engine does not interpret itself.
type ReasonOptions struct {
	Temperature float64
	MaxTokens   int
	Format      string // "" or "text" for plain text, "structured" for parsed data
	Extra       map[string]any
}

// Reasoner is the abstract reasoning capability a reason statement delegates
// to. Concrete clients (model selection, retries, provider error handling)
// live outside the engine; the engine only issues a blocking round-trip and
// extracts content from the response.
//
// The response may take one of three shapes:
//   - a map with a "choices" list whose first element has message.content
//   - a map with a direct "content" field
//   - a raw string
type Reasoner interface {
	Query(ctx context.Context, messages []Message, opts ReasonOptions) (any, error)
}

// ReasonerFunc adapts a plain function to the Reasoner interface.
type ReasonerFunc func(ctx context.Context, messages []Message, opts ReasonOptions) (any, error)

func (f ReasonerFunc) Query(ctx context.Context, messages []Message, opts ReasonOptions) (any, error) {
	return f(ctx, messages, opts)
}
