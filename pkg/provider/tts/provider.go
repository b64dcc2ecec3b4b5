// Package tts defines the Provider interface for Text-to-Speech backends.
//
// A TTS provider wraps a remote speech synthesis service and returns a fully
// encoded audio payload for a single piece of text. Talkify's narration is
// short (cleaned and truncated question/answer text), so the interface is
// request/response rather than streaming.
//
// Implementations must be safe for concurrent use.
package tts

import (
	"context"
	"errors"
)

// ErrRateLimited is the sentinel wrapped by providers when the backend
// throttles a synthesis request (HTTP 429 or an equivalent rate-limit
// message). The speech layer's failover ladder branches on this error;
// anything else is treated as a plain synthesis failure.
var ErrRateLimited = errors.New("tts: rate limited")

// Request describes one synthesis call.
type Request struct {
	// Text is the cleaned text to synthesise. Must be non-empty.
	Text string

	// Model selects the model family (see [Model]).
	Model Model

	// Voice is the model-specific voice identifier. Must belong to Model's
	// voice set (see [Voices]).
	Voice string
}

// Provider is the abstraction over any TTS backend.
type Provider interface {
	// Synthesize converts req.Text into a WAV payload. Returns an error
	// wrapping [ErrRateLimited] when the backend throttled the request.
	Synthesize(ctx context.Context, req Request) ([]byte, error)
}

// Factory builds a [Provider] bound to one API credential. The speech layer
// uses it to construct per-credential providers for its failover ladder.
type Factory func(apiKey string) (Provider, error)
