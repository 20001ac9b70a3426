package mock

import (
	"context"
	"sync"

	"github.com/kayneai/code-auditor/internal/llm"
)

// Provider is a test double implementing llm.Provider.
// ChatFn takes precedence; otherwise Script responses are replayed in order,
// repeating the last entry once exhausted.
type Provider struct {
	NameValue string
	ChatFn    func(ctx context.Context, req llm.ChatRequest) (llm.ChatResponse, error)
	Script    []llm.ChatResponse

	mu    sync.Mutex
	calls int
}

func (p *Provider) Name() string {
	if p.NameValue != "" {
		return p.NameValue
	}
	return "mock"
}

func (p *Provider) Chat(ctx context.Context, req llm.ChatRequest) (llm.ChatResponse, error) {
	p.mu.Lock()
	p.calls++
	step := p.calls - 1
	p.mu.Unlock()

	if p.ChatFn != nil {
		return p.ChatFn(ctx, req)
	}
	if len(p.Script) > 0 {
		if step >= len(p.Script) {
			step = len(p.Script) - 1
		}
		return p.Script[step], nil
	}
	return llm.ChatResponse{
		Message: llm.ChatMessage{Role: llm.RoleAssistant, Content: "mock"},
	}, nil
}

// Calls reports how many Chat invocations the double has served.
func (p *Provider) Calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}
