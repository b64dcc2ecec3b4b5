// Package mock provides a scripted tts.Provider for tests.
package mock

import (
	"context"
	"sync"

	"github.com/talkify-cu/talkify/pkg/provider/tts"
)

// Call records one Synthesize invocation.
type Call struct {
	// APIKey is the credential the provider instance was built with.
	APIKey string

	// Request is the synthesis request as received.
	Request tts.Request
}

// Script decides the outcome of a synthesis attempt. Returning a nil error
// yields the payload; errors wrapping [tts.ErrRateLimited] drive the ladder.
type Script func(apiKey string, req tts.Request) ([]byte, error)

// Recorder captures calls across all provider instances built by [Factory],
// preserving attempt order so tests can assert the exact ladder sequence.
type Recorder struct {
	// Script decides each call's outcome. When nil, every call succeeds with
	// a short fake payload.
	Script Script

	mu    sync.Mutex
	calls []Call
}

// Calls returns a copy of all recorded calls in invocation order.
func (r *Recorder) Calls() []Call {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Call, len(r.calls))
	copy(out, r.calls)
	return out
}

// Factory returns a [tts.Factory] whose providers record into r.
func (r *Recorder) Factory() tts.Factory {
	return func(apiKey string) (tts.Provider, error) {
		return &provider{recorder: r, apiKey: apiKey}, nil
	}
}

// provider is one credential-bound mock instance.
type provider struct {
	recorder *Recorder
	apiKey   string
}

// Compile-time interface assertion.
var _ tts.Provider = (*provider)(nil)

// Synthesize implements tts.Provider.
func (p *provider) Synthesize(_ context.Context, req tts.Request) ([]byte, error) {
	r := p.recorder
	r.mu.Lock()
	r.calls = append(r.calls, Call{APIKey: p.apiKey, Request: req})
	script := r.Script
	r.mu.Unlock()

	if script == nil {
		return []byte("RIFF-fake-wav"), nil
	}
	return script(p.apiKey, req)
}
