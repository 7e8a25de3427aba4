package anthropic_provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/lectern-ai/lectern/provider"
)

const defaultBaseURL = "https://api.anthropic.com/v1"

// client implements provider.Provider against the Anthropic Messages API.
type client struct {
	apiKey      string
	model       string
	baseURL     string
	maxTokens   int
	temperature float64
	httpClient  *http.Client
}

// NewClient creates a new Anthropic completion client
func NewClient(apiKey, model, baseURL string, maxTokens int, temperature float64, timeout time.Duration) provider.Provider {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if maxTokens <= 0 {
		maxTokens = 800
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &client{
		apiKey:      apiKey,
		model:       model,
		baseURL:     strings.TrimRight(baseURL, "/"),
		maxTokens:   maxTokens,
		temperature: temperature,
		httpClient:  &http.Client{Timeout: timeout},
	}
}

type messagesRequest struct {
	Model       string              `json:"model"`
	System      string              `json:"system,omitempty"`
	Messages    []wireMessage       `json:"messages"`
	Tools       []provider.ToolDecl `json:"tools,omitempty"`
	ToolChoice  *toolChoice         `json:"tool_choice,omitempty"`
	MaxTokens   int                 `json:"max_tokens"`
	Temperature float64             `json:"temperature"`
}

type toolChoice struct {
	Type string `json:"type"`
}

type wireMessage struct {
	Role    string          `json:"role"`
	Content []provider.Part `json:"content"`
}

type messagesResponse struct {
	Content []struct {
		Type  string         `json:"type"`
		Text  string         `json:"text,omitempty"`
		ID    string         `json:"id,omitempty"`
		Name  string         `json:"name,omitempty"`
		Input map[string]any `json:"input,omitempty"`
	} `json:"content"`
	StopReason string `json:"stop_reason"`
}

type errorResponse struct {
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// Generate sends one messages request. No retry: a failed call surfaces
// to the caller as a typed *provider.APIError.
func (c *client) Generate(ctx context.Context, req provider.Request) (*provider.Completion, error) {
	payload := messagesRequest{
		Model:       c.model,
		System:      req.System,
		Messages:    toWireMessages(req.Messages),
		MaxTokens:   c.maxTokens,
		Temperature: c.temperature,
	}
	if len(req.Tools) > 0 {
		payload.Tools = req.Tools
		payload.ToolChoice = &toolChoice{Type: "auto"}
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/messages", bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", c.apiKey)
	httpReq.Header.Set("anthropic-version", "2023-06-01")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, &provider.APIError{Provider: string(provider.Anthropic), Kind: provider.KindConnection, Message: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		var apiErr errorResponse
		msg := resp.Status
		if decodeErr := json.NewDecoder(resp.Body).Decode(&apiErr); decodeErr == nil && apiErr.Error.Message != "" {
			msg = apiErr.Error.Message
		}
		kind := provider.ClassifyStatus(resp.StatusCode)
		if apiErr.Error.Type == "overloaded_error" {
			kind = provider.KindOverloaded
		}
		return nil, &provider.APIError{Provider: string(provider.Anthropic), Status: resp.StatusCode, Kind: kind, Message: msg}
	}

	var out messagesResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	comp := &provider.Completion{}
	var textParts []string
	for _, part := range out.Content {
		switch part.Type {
		case "text":
			if strings.TrimSpace(part.Text) != "" {
				textParts = append(textParts, part.Text)
			}
			comp.Parts = append(comp.Parts, provider.Part{Type: "text", Text: part.Text})
		case "tool_use":
			comp.ToolCalls = append(comp.ToolCalls, provider.ToolCall{ID: part.ID, Name: part.Name, Args: part.Input})
			comp.Parts = append(comp.Parts, provider.Part{Type: "tool_use", ID: part.ID, Name: part.Name, Input: part.Input})
		}
	}
	comp.Text = strings.TrimSpace(strings.Join(textParts, "\n"))
	return comp, nil
}

func toWireMessages(msgs []provider.Message) []wireMessage {
	out := make([]wireMessage, 0, len(msgs))
	for _, m := range msgs {
		parts := m.Parts
		if parts == nil {
			parts = []provider.Part{}
		}
		out = append(out, wireMessage{Role: m.Role, Content: parts})
	}
	return out
}
