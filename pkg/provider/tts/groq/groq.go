// Package groq provides a Groq-backed TTS provider using Groq's
// OpenAI-compatible /audio/speech endpoint. It implements the tts.Provider
// interface.
package groq

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	oai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/talkify-cu/talkify/pkg/provider/tts"
)

// defaultBaseURL is Groq's OpenAI-compatible API root.
const defaultBaseURL = "https://api.groq.com/openai/v1"

// Option is a functional option for configuring the Groq Provider.
type Option func(*config)

// config holds optional configuration for the provider.
type config struct {
	baseURL string
	timeout time.Duration
}

// WithBaseURL overrides the default Groq API base URL.
func WithBaseURL(url string) Option {
	return func(c *config) {
		c.baseURL = url
	}
}

// WithTimeout sets a per-request HTTP timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *config) {
		c.timeout = d
	}
}

// Provider implements tts.Provider backed by Groq's speech endpoint.
type Provider struct {
	client oai.Client
}

// Compile-time interface assertion.
var _ tts.Provider = (*Provider)(nil)

// New creates a Groq TTS Provider. apiKey must be non-empty.
func New(apiKey string, opts ...Option) (*Provider, error) {
	if apiKey == "" {
		return nil, errors.New("groq: apiKey must not be empty")
	}

	cfg := &config{baseURL: defaultBaseURL}
	for _, o := range opts {
		o(cfg)
	}

	reqOpts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithBaseURL(cfg.baseURL),
	}
	if cfg.timeout > 0 {
		reqOpts = append(reqOpts, option.WithHTTPClient(&http.Client{
			Timeout: cfg.timeout,
		}))
	}

	return &Provider{client: oai.NewClient(reqOpts...)}, nil
}

// NewFactory returns a [tts.Factory] that builds Groq providers with the
// given options applied to every credential.
func NewFactory(opts ...Option) tts.Factory {
	return func(apiKey string) (tts.Provider, error) {
		return New(apiKey, opts...)
	}
}

// Synthesize implements tts.Provider. The response is a complete WAV payload.
func (p *Provider) Synthesize(ctx context.Context, req tts.Request) ([]byte, error) {
	if req.Text == "" {
		return nil, errors.New("groq: text must not be empty")
	}
	if req.Voice == "" {
		return nil, errors.New("groq: voice must not be empty")
	}

	resp, err := p.client.Audio.Speech.New(ctx, oai.AudioSpeechNewParams{
		Model:          oai.SpeechModel(req.Model),
		Voice:          oai.AudioSpeechNewParamsVoice(req.Voice),
		Input:          req.Text,
		ResponseFormat: oai.AudioSpeechNewParamsResponseFormatWAV,
	})
	if err != nil {
		if isRateLimit(err) {
			return nil, fmt.Errorf("groq: synthesize %s/%s: %w: %w", req.Model, req.Voice, tts.ErrRateLimited, err)
		}
		return nil, fmt.Errorf("groq: synthesize %s/%s: %w", req.Model, req.Voice, err)
	}
	defer resp.Body.Close()

	wav, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("groq: read audio payload: %w", err)
	}
	return wav, nil
}

// isRateLimit reports whether err signals backend throttling: an HTTP 429 or
// a rate-limit message in the error body.
func isRateLimit(err error) bool {
	var apiErr *oai.Error
	if errors.As(err, &apiErr) {
		if apiErr.StatusCode == http.StatusTooManyRequests {
			return true
		}
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "rate limit") || strings.Contains(msg, "rate_limit")
}
