// Package mock provides a scripted llm.Provider for tests.
package mock

import (
	"context"
	"sync"

	"github.com/talkify-cu/talkify/pkg/provider/llm"
)

// Provider is a scripted llm.Provider. When CompleteFunc is nil, Complete
// echoes the last user message.
type Provider struct {
	// CompleteFunc decides each call's outcome when non-nil.
	CompleteFunc func(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error)

	mu       sync.Mutex
	requests []llm.CompletionRequest
}

// Compile-time interface assertion.
var _ llm.Provider = (*Provider)(nil)

// Complete implements llm.Provider.
func (p *Provider) Complete(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	p.mu.Lock()
	p.requests = append(p.requests, req)
	fn := p.CompleteFunc
	p.mu.Unlock()

	if fn != nil {
		return fn(ctx, req)
	}

	content := ""
	if n := len(req.Messages); n > 0 {
		content = req.Messages[n-1].Content
	}
	return &llm.CompletionResponse{Content: content}, nil
}

// Requests returns a copy of all recorded requests in call order.
func (p *Provider) Requests() []llm.CompletionRequest {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]llm.CompletionRequest, len(p.requests))
	copy(out, p.requests)
	return out
}
