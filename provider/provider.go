package provider

import (
	"context"
	"errors"
	"fmt"
)

// Client represents different LLM providers
type Client string

const (
	Anthropic Client = "anthropic"
	OpenAI    Client = "openai"
)

// Part is one typed content block of a message. Type is "text",
// "tool_use" (assistant requesting a tool) or "tool_result" (caller
// feeding a tool's output back).
type Part struct {
	Type      string         `json:"type"`
	Text      string         `json:"text,omitempty"`
	ID        string         `json:"id,omitempty"`
	Name      string         `json:"name,omitempty"`
	Input     map[string]any `json:"input,omitempty"`
	ToolUseID string         `json:"tool_use_id,omitempty"`
	Content   string         `json:"content,omitempty"`
}

// Message is one conversation entry on the wire.
type Message struct {
	Role  string
	Parts []Part
}

// ToolDecl declares one callable tool to the model.
type ToolDecl struct {
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	InputSchema map[string]any `json:"input_schema"`
}

// Request is a single completion request.
type Request struct {
	System   string
	Messages []Message
	Tools    []ToolDecl
}

// ToolCall is the model's structured request to invoke a named tool.
type ToolCall struct {
	ID   string
	Name string
	Args map[string]any
}

// Completion is the model's reply: either a direct answer (Text, no tool
// calls) or a request to invoke tools. Parts holds the raw assistant
// content so a follow-up round can echo it back verbatim.
type Completion struct {
	Text      string
	ToolCalls []ToolCall
	Parts     []Part
}

// RequestsTool reports whether the model asked for a tool invocation
// instead of answering directly.
func (c *Completion) RequestsTool() bool { return len(c.ToolCalls) > 0 }

// Provider is the interface all completion implementations must satisfy
type Provider interface {
	Generate(ctx context.Context, req Request) (*Completion, error)
}

// Embedder converts texts into embedding vectors
type Embedder interface {
	CreateEmbedding(ctx context.Context, texts []string) ([][]float32, error)
	Dimension() int
}

// ErrorKind classifies provider API failures so callers do not have to
// pattern-match on message text.
type ErrorKind string

const (
	KindRateLimited    ErrorKind = "rate_limited"
	KindOverloaded     ErrorKind = "overloaded"
	KindUnavailable    ErrorKind = "unavailable"
	KindUnauthorized   ErrorKind = "unauthorized"
	KindInvalidRequest ErrorKind = "invalid_request"
	KindConnection     ErrorKind = "connection"
	KindUnknown        ErrorKind = "unknown"
)

// APIError is a failed call to an external model API.
type APIError struct {
	Provider string
	Status   int
	Kind     ErrorKind
	Message  string
}

func (e *APIError) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("%s API error (status %d, %s): %s", e.Provider, e.Status, e.Kind, e.Message)
	}
	return fmt.Sprintf("%s API error (%s): %s", e.Provider, e.Kind, e.Message)
}

// ClassifyStatus maps an HTTP status to an ErrorKind. 529 is Anthropic's
// overloaded_error status.
func ClassifyStatus(status int) ErrorKind {
	switch {
	case status == 429:
		return KindRateLimited
	case status == 529:
		return KindOverloaded
	case status == 401 || status == 403:
		return KindUnauthorized
	case status >= 500:
		return KindUnavailable
	case status >= 400:
		return KindInvalidRequest
	default:
		return KindUnknown
	}
}

// ErrEmbeddingUnsupported is returned by providers without an embeddings API.
var ErrEmbeddingUnsupported = errors.New("provider does not support embeddings")
