package rag

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/lectern-ai/lectern/models"
	"github.com/lectern-ai/lectern/provider"
	"github.com/lectern-ai/lectern/session/inmemory"
	"github.com/lectern-ai/lectern/tools"
)

// scriptedProvider returns one canned completion per round and records the
// requests it received.
type scriptedProvider struct {
	completions []*provider.Completion
	err         error
	requests    []provider.Request
}

func (p *scriptedProvider) Generate(ctx context.Context, req provider.Request) (*provider.Completion, error) {
	p.requests = append(p.requests, req)
	if p.err != nil {
		return nil, p.err
	}
	if len(p.requests) > len(p.completions) {
		return nil, errors.New("scripted provider exhausted")
	}
	return p.completions[len(p.requests)-1], nil
}

// recordingTool is a registry entry whose output and sources are canned.
type recordingTool struct {
	name    string
	out     string
	err     error
	sources []models.SearchResult

	gotArgs map[string]any
	last    []models.SearchResult
}

func (t *recordingTool) Definition() provider.ToolDecl {
	return provider.ToolDecl{Name: t.name, InputSchema: map[string]any{"type": "object"}}
}

func (t *recordingTool) Execute(ctx context.Context, args map[string]any) (string, error) {
	t.gotArgs = args
	if t.err != nil {
		return "", t.err
	}
	t.last = t.sources
	return t.out, nil
}

func (t *recordingTool) LastSources() []models.SearchResult { return t.last }
func (t *recordingTool) ResetSources()                      { t.last = nil }

func newRegistry(t *testing.T, entries ...tools.Tool) *tools.Registry {
	t.Helper()
	r := tools.NewRegistry()
	for _, e := range entries {
		if err := r.Register(e); err != nil {
			t.Fatalf("Register: %v", err)
		}
	}
	return r
}

func toolUseCompletion(id, name string, args map[string]any) *provider.Completion {
	return &provider.Completion{
		ToolCalls: []provider.ToolCall{{ID: id, Name: name, Args: args}},
		Parts:     []provider.Part{{Type: "tool_use", ID: id, Name: name, Input: args}},
	}
}

func TestHandleQueryDirectAnswer(t *testing.T) {
	llm := &scriptedProvider{completions: []*provider.Completion{{Text: "Paris."}}}
	sessions := inmemory.NewStore(4)
	o := NewOrchestrator(llm, newRegistry(t, &recordingTool{name: "search_course_content"}), sessions, nil)

	res, err := o.HandleQuery(context.Background(), "capital of France?", "")
	if err != nil {
		t.Fatalf("HandleQuery: %v", err)
	}
	if res.Answer != "Paris." {
		t.Fatalf("answer: %q", res.Answer)
	}
	if res.SessionID == "" {
		t.Fatal("expected a minted session id")
	}
	if len(res.Sources) != 0 || res.ToolCalls != 0 {
		t.Fatalf("direct answer must carry no sources, got %+v", res)
	}
	if len(llm.requests) != 1 {
		t.Fatalf("expected a single round, got %d", len(llm.requests))
	}
	if len(llm.requests[0].Tools) != 1 {
		t.Fatalf("round 1 must offer the tool set, got %v", llm.requests[0].Tools)
	}

	history, _ := sessions.History(context.Background(), res.SessionID)
	if len(history) != 2 || history[0].Text != "capital of France?" || history[1].Text != "Paris." {
		t.Fatalf("history not recorded: %v", history)
	}
}

func TestHandleQueryToolRound(t *testing.T) {
	sources := []models.SearchResult{{CitationID: 1, CourseTitle: "Course A", Content: "chunk"}}
	tool := &recordingTool{name: "search_course_content", out: "[Course A]\nchunk", sources: sources}
	llm := &scriptedProvider{completions: []*provider.Completion{
		toolUseCompletion("tu_1", "search_course_content", map[string]any{"query": "chunking"}),
		{Text: "Chunking splits text."},
	}}
	o := NewOrchestrator(llm, newRegistry(t, tool), inmemory.NewStore(4), nil)

	res, err := o.HandleQuery(context.Background(), "what is chunking?", "")
	if err != nil {
		t.Fatalf("HandleQuery: %v", err)
	}
	if res.Answer != "Chunking splits text." {
		t.Fatalf("answer: %q", res.Answer)
	}
	if res.ToolCalls != 1 {
		t.Fatalf("tool calls: %d", res.ToolCalls)
	}
	if len(res.Sources) != 1 || res.Sources[0].CourseTitle != "Course A" {
		t.Fatalf("sources: %v", res.Sources)
	}
	if tool.gotArgs["query"] != "chunking" {
		t.Fatalf("tool args: %v", tool.gotArgs)
	}

	if len(llm.requests) != 2 {
		t.Fatalf("expected exactly 2 rounds, got %d", len(llm.requests))
	}
	second := llm.requests[1]
	if len(second.Tools) != 0 {
		t.Fatal("round 2 must not offer tools")
	}
	if len(second.Messages) != 3 {
		t.Fatalf("round 2 messages: %d", len(second.Messages))
	}
	if second.Messages[1].Role != models.RoleAssistant || second.Messages[1].Parts[0].Type != "tool_use" {
		t.Fatalf("assistant tool_use not echoed back: %+v", second.Messages[1])
	}
	result := second.Messages[2]
	if result.Role != models.RoleUser || result.Parts[0].Type != "tool_result" {
		t.Fatalf("tool result message: %+v", result)
	}
	if result.Parts[0].ToolUseID != "tu_1" || result.Parts[0].Content != "[Course A]\nchunk" {
		t.Fatalf("tool result payload: %+v", result.Parts[0])
	}
}

func TestHandleQuerySecondRoundToolRequestIgnored(t *testing.T) {
	tool := &recordingTool{name: "search_course_content", out: "content"}
	llm := &scriptedProvider{completions: []*provider.Completion{
		toolUseCompletion("tu_1", "search_course_content", map[string]any{"query": "a"}),
		{
			Text:      "Best effort answer.",
			ToolCalls: []provider.ToolCall{{ID: "tu_2", Name: "search_course_content"}},
		},
	}}
	o := NewOrchestrator(llm, newRegistry(t, tool), inmemory.NewStore(4), nil)

	res, err := o.HandleQuery(context.Background(), "q", "")
	if err != nil {
		t.Fatalf("HandleQuery: %v", err)
	}
	if res.Answer != "Best effort answer." {
		t.Fatalf("round 2 text must be returned verbatim, got %q", res.Answer)
	}
	if len(llm.requests) != 2 {
		t.Fatalf("a round 2 tool request must not trigger round 3, got %d rounds", len(llm.requests))
	}
}

func TestHandleQueryToolFailureDegrades(t *testing.T) {
	tool := &recordingTool{name: "search_course_content", err: errors.New("vector search: boom")}
	llm := &scriptedProvider{completions: []*provider.Completion{
		toolUseCompletion("tu_1", "search_course_content", map[string]any{"query": "a"}),
		{Text: "I could not search the materials."},
	}}
	o := NewOrchestrator(llm, newRegistry(t, tool), inmemory.NewStore(4), nil)

	res, err := o.HandleQuery(context.Background(), "q", "")
	if err != nil {
		t.Fatalf("tool failure must not fail the query: %v", err)
	}
	if res.Answer != "I could not search the materials." {
		t.Fatalf("answer: %q", res.Answer)
	}
	fed := llm.requests[1].Messages[2].Parts[0].Content
	if !strings.Contains(fed, "Tool execution failed") || !strings.Contains(fed, "boom") {
		t.Fatalf("degraded tool output not fed to model: %q", fed)
	}
}

func TestHandleQueryUnknownToolDegrades(t *testing.T) {
	llm := &scriptedProvider{completions: []*provider.Completion{
		toolUseCompletion("tu_1", "ghost_tool", nil),
		{Text: "done"},
	}}
	o := NewOrchestrator(llm, newRegistry(t, &recordingTool{name: "search_course_content"}), inmemory.NewStore(4), nil)

	res, err := o.HandleQuery(context.Background(), "q", "")
	if err != nil {
		t.Fatalf("HandleQuery: %v", err)
	}
	fed := llm.requests[1].Messages[2].Parts[0].Content
	if !strings.Contains(fed, "unknown tool") {
		t.Fatalf("expected unknown tool message, got %q", fed)
	}
	if res.Answer != "done" {
		t.Fatalf("answer: %q", res.Answer)
	}
}

func TestHandleQueryProviderErrorAbortsWithoutRetry(t *testing.T) {
	llm := &scriptedProvider{err: &provider.APIError{Provider: "anthropic", Status: 529, Kind: provider.KindOverloaded, Message: "overloaded"}}
	o := NewOrchestrator(llm, newRegistry(t), inmemory.NewStore(4), nil)

	_, err := o.HandleQuery(context.Background(), "q", "")
	var apiErr *provider.APIError
	if !errors.As(err, &apiErr) || apiErr.Kind != provider.KindOverloaded {
		t.Fatalf("expected overloaded APIError, got %v", err)
	}
	if len(llm.requests) != 1 {
		t.Fatalf("provider error must not be retried, got %d attempts", len(llm.requests))
	}
}

func TestHandleQueryHistoryInSystemPrompt(t *testing.T) {
	sessions := inmemory.NewStore(4)
	id, _ := sessions.Create(context.Background())
	_ = sessions.Append(context.Background(), id,
		models.Turn{Role: models.RoleUser, Text: "earlier question"},
		models.Turn{Role: models.RoleAssistant, Text: "earlier answer"},
	)

	llm := &scriptedProvider{completions: []*provider.Completion{{Text: "ok"}}}
	o := NewOrchestrator(llm, newRegistry(t), sessions, nil)

	res, err := o.HandleQuery(context.Background(), "follow-up", id)
	if err != nil {
		t.Fatalf("HandleQuery: %v", err)
	}
	if res.SessionID != id {
		t.Fatalf("session id must be preserved, got %q", res.SessionID)
	}
	sys := llm.requests[0].System
	if !strings.Contains(sys, "Previous conversation:") ||
		!strings.Contains(sys, "User: earlier question") ||
		!strings.Contains(sys, "Assistant: earlier answer") {
		t.Fatalf("history missing from system prompt: %q", sys)
	}
	if len(llm.requests[0].Messages) != 1 {
		t.Fatalf("history must not appear as messages, got %d", len(llm.requests[0].Messages))
	}
}

func TestBuildSystemWithoutHistory(t *testing.T) {
	if got := buildSystem(nil); got != systemPrompt {
		t.Fatalf("empty history must leave the prompt untouched")
	}
}
