package rag

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/lectern-ai/lectern/models"
	"github.com/lectern-ai/lectern/provider"
	"github.com/lectern-ai/lectern/session"
	"github.com/lectern-ai/lectern/tools"
)

// Result is one answered query: the synthesized answer, the citation list
// (empty when the model answered directly), the session the exchange was
// recorded under, and how many tool invocations the model requested.
type Result struct {
	Answer    string
	Sources   []models.SearchResult
	SessionID string
	ToolCalls int
}

// Orchestrator runs the query flow: history in, at most two model rounds
// (the second only to fold tool results back in), sources out.
type Orchestrator struct {
	llm      provider.Provider
	registry *tools.Registry
	sessions session.Store
	logger   *log.Logger
}

func NewOrchestrator(llm provider.Provider, registry *tools.Registry, sessions session.Store, logger *log.Logger) *Orchestrator {
	if logger == nil {
		logger = log.New(log.Writer(), "[RAG] ", log.LstdFlags)
	}
	return &Orchestrator{llm: llm, registry: registry, sessions: sessions, logger: logger}
}

// HandleQuery answers one user query. The protocol is two rounds at most:
// round 1 offers the tool set; if the model requests tools they are each
// executed exactly once and round 2 runs with tool use disabled. A tool
// request in round 2's reply is ignored - its text is returned verbatim.
// No retries: any provider error aborts the query.
func (o *Orchestrator) HandleQuery(ctx context.Context, query, sessionID string) (*Result, error) {
	if sessionID == "" {
		id, err := o.sessions.Create(ctx)
		if err != nil {
			return nil, fmt.Errorf("create session: %w", err)
		}
		sessionID = id
	}

	history, err := o.sessions.History(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}

	req := provider.Request{
		System: buildSystem(history),
		Messages: []provider.Message{
			{Role: models.RoleUser, Parts: []provider.Part{{Type: "text", Text: query}}},
		},
		Tools: o.registry.Declarations(),
	}

	comp, err := o.llm.Generate(ctx, req)
	if err != nil {
		return nil, err
	}

	result := &Result{SessionID: sessionID}
	if !comp.RequestsTool() {
		result.Answer = comp.Text
	} else {
		answer, toolCalls, sources, err := o.runToolRound(ctx, req, comp)
		if err != nil {
			return nil, err
		}
		result.Answer = answer
		result.ToolCalls = toolCalls
		result.Sources = sources
	}

	if err := o.sessions.Append(ctx, sessionID,
		models.Turn{Role: models.RoleUser, Text: query},
		models.Turn{Role: models.RoleAssistant, Text: result.Answer},
	); err != nil {
		o.logger.Printf("append history for session %s: %v", sessionID, err)
	}
	return result, nil
}

// runToolRound executes the requested tools and issues the second, final
// round with tool use disabled.
func (o *Orchestrator) runToolRound(ctx context.Context, req provider.Request, comp *provider.Completion) (string, int, []models.SearchResult, error) {
	o.registry.ResetSources()

	results := make([]provider.Part, 0, len(comp.ToolCalls))
	for _, call := range comp.ToolCalls {
		out, err := o.registry.Execute(ctx, call.Name, call.Args)
		if err != nil {
			// degraded tool output keeps the request alive; the model
			// reports the failure instead of the HTTP layer
			o.logger.Printf("tool %s failed: %v", call.Name, err)
			out = fmt.Sprintf("Tool execution failed: %v", err)
		}
		results = append(results, provider.Part{Type: "tool_result", ToolUseID: call.ID, Content: out})
	}

	messages := append(req.Messages,
		provider.Message{Role: models.RoleAssistant, Parts: comp.Parts},
		provider.Message{Role: models.RoleUser, Parts: results},
	)
	final, err := o.llm.Generate(ctx, provider.Request{
		System:   req.System,
		Messages: messages,
		// no Tools: round 2 must produce an answer
	})
	if err != nil {
		return "", 0, nil, err
	}

	sources := o.registry.LastSources()
	o.registry.ResetSources()
	return final.Text, len(comp.ToolCalls), sources, nil
}

// buildSystem folds prior turns into the static system prompt.
func buildSystem(history []models.Turn) string {
	if len(history) == 0 {
		return systemPrompt
	}
	var b strings.Builder
	b.WriteString(systemPrompt)
	b.WriteString("\n\nPrevious conversation:\n")
	for _, t := range history {
		fmt.Fprintf(&b, "%s: %s\n", roleLabel(t.Role), t.Text)
	}
	return strings.TrimRight(b.String(), "\n")
}

func roleLabel(role string) string {
	switch role {
	case models.RoleUser:
		return "User"
	case models.RoleAssistant:
		return "Assistant"
	default:
		return role
	}
}
