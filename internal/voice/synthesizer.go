// Package voice implements Talkify's speech layer: persisted voice settings
// with observers, a rate-limit-aware speech synthesizer, and the FIFO queue
// that serialises narration.
//
// The synthesizer's failover ladder is the most delicate control flow here.
// When a synthesis attempt is throttled, the rungs are tried strictly in
// this order:
//
//  1. current model and voice, primary credential
//  2. the other model's default voice, primary credential
//  3. Arabic model's default voice, secondary credential
//  4. English model's default voice, secondary credential
//
// A same-credential model switch always precedes any credential switch.
// When every rung is throttled the service disables itself silently; speak
// never fails the conversational flow.
package voice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/talkify-cu/talkify/internal/endpoint"
	"github.com/talkify-cu/talkify/internal/observe"
	"github.com/talkify-cu/talkify/internal/resilience"
	"github.com/talkify-cu/talkify/pkg/audio"
	"github.com/talkify-cu/talkify/pkg/provider/tts"
)

// credentialResponse is the wire shape of the backend's key-issuing endpoints.
type credentialResponse struct {
	APIKey string `json:"api_key"`
	Status string `json:"status"`
}

// rung is one ladder attempt: a model/voice pair under one credential.
type rung struct {
	model     tts.Model
	voice     string
	key       string
	secondary bool
}

func (r rung) name() string {
	cred := "primary"
	if r.secondary {
		cred = "secondary"
	}
	return string(r.model) + "/" + cred
}

// SynthOption is a functional option for [NewSynthesizer].
type SynthOption func(*Synthesizer)

// WithSynthMetrics sets the metrics instance. Defaults to
// [observe.DefaultMetrics].
func WithSynthMetrics(m *observe.Metrics) SynthOption {
	return func(s *Synthesizer) {
		s.metrics = m
	}
}

// Synthesizer turns text into played audio. Credentials are fetched lazily
// from the backend's /key and /key2 endpoints and the fetch is deduplicated
// across concurrent speaks. Safe for concurrent use, though the player
// enforces exclusive playback.
type Synthesizer struct {
	resolver *endpoint.Resolver
	factory  tts.Factory
	player   audio.Player
	settings *Settings
	metrics  *observe.Metrics

	sf singleflight.Group

	mu           sync.Mutex
	primaryKey   string
	secondaryKey string
	credsLoaded  bool
	providers    map[string]tts.Provider
}

// NewSynthesizer wires a [Synthesizer]. factory builds one TTS provider per
// credential; player performs the actual audio output.
func NewSynthesizer(resolver *endpoint.Resolver, factory tts.Factory, player audio.Player, settings *Settings, opts ...SynthOption) *Synthesizer {
	s := &Synthesizer{
		resolver:  resolver,
		factory:   factory,
		player:    player,
		settings:  settings,
		providers: make(map[string]tts.Provider),
	}
	for _, o := range opts {
		o(s)
	}
	if s.metrics == nil {
		s.metrics = observe.DefaultMetrics()
	}
	return s
}

// Speak cleans text, synthesises it through the failover ladder, and plays
// the result, returning once playback finishes. Synthesis failures are
// swallowed: a throttled ladder disables the service and Speak returns nil.
// Only a playback failure is surfaced.
func (s *Synthesizer) Speak(ctx context.Context, text string) error {
	snap := s.settings.Snapshot()
	if !snap.Enabled || snap.TemporarilyDisabled {
		return nil
	}

	clean := CleanTextForSpeech(text)
	if clean == "" {
		return nil
	}

	primary, secondary, err := s.credentials(ctx)
	if err != nil {
		slog.Warn("voice: credential bootstrap failed, disabling speech", "error", err)
		s.settings.markDisabled(ctx)
		return nil
	}

	wav, winner, err := s.synthesize(ctx, clean, snap, primary, secondary)
	if err != nil {
		if errors.Is(err, resilience.ErrAllFailed) {
			slog.Warn("voice: rate-limit ladder exhausted, disabling speech")
			s.metrics.VoiceDisabled.Add(ctx, 1)
			s.settings.markDisabled(ctx)
		} else {
			slog.Warn("voice: synthesis failed", "error", err)
		}
		return nil
	}

	s.settings.adoptLadderOutcome(ctx, winner.model, winner.voice, winner.secondary)

	// Exclusive playback: whatever is still playing yields first.
	s.player.Stop()
	start := time.Now()
	if err := s.player.Play(ctx, wav); err != nil {
		return fmt.Errorf("voice: playback: %w", err)
	}
	s.metrics.PlaybackDuration.Record(ctx, time.Since(start).Seconds())
	return nil
}

// synthesize runs the ladder and returns the audio plus the winning rung.
func (s *Synthesizer) synthesize(ctx context.Context, text string, snap VoiceSettings, primary, secondary string) ([]byte, rung, error) {
	other := snap.Model.Other()

	ladder := resilience.NewLadder[rung](func(err error) bool {
		return errors.Is(err, tts.ErrRateLimited)
	})
	first := rung{model: snap.Model, voice: snap.Voice, key: primary}
	ladder.Add(first.name(), first)
	second := rung{model: other, voice: tts.DefaultVoice(other), key: primary}
	ladder.Add(second.name(), second)
	if secondary != "" {
		third := rung{model: tts.ModelArabic, voice: tts.DefaultVoice(tts.ModelArabic), key: secondary, secondary: true}
		ladder.Add(third.name(), third)
		fourth := rung{model: tts.ModelEnglish, voice: tts.DefaultVoice(tts.ModelEnglish), key: secondary, secondary: true}
		ladder.Add(fourth.name(), fourth)
	}

	type outcome struct {
		wav []byte
		r   rung
	}
	out, err := resilience.ExecuteWithResult(ladder, func(r rung) (outcome, error) {
		provider, err := s.providerFor(r.key)
		if err != nil {
			return outcome{}, err
		}

		start := time.Now()
		wav, err := provider.Synthesize(ctx, tts.Request{
			Text:  text,
			Model: r.model,
			Voice: r.voice,
		})
		s.metrics.TTSDuration.Record(ctx, time.Since(start).Seconds())
		if err != nil {
			if errors.Is(err, tts.ErrRateLimited) {
				cred := "primary"
				if r.secondary {
					cred = "secondary"
				}
				s.metrics.RecordRateLimitFailover(ctx, string(r.model), cred)
			}
			return outcome{}, err
		}
		return outcome{wav: wav, r: r}, nil
	})
	if err != nil {
		return nil, rung{}, err
	}
	return out.wav, out.r, nil
}

// credentials fetches the primary and optional secondary API keys, once,
// deduplicating concurrent fetches. A missing secondary key shortens the
// ladder instead of failing.
func (s *Synthesizer) credentials(ctx context.Context) (string, string, error) {
	s.mu.Lock()
	if s.credsLoaded {
		p, sec := s.primaryKey, s.secondaryKey
		s.mu.Unlock()
		return p, sec, nil
	}
	s.mu.Unlock()

	_, err, _ := s.sf.Do("credentials", func() (any, error) {
		primary, err := s.fetchKey(ctx, "/key")
		if err != nil {
			return nil, err
		}
		secondary, err := s.fetchKey(ctx, "/key2")
		if err != nil {
			slog.Debug("voice: no secondary credential", "error", err)
			secondary = ""
		}

		s.mu.Lock()
		s.primaryKey = primary
		s.secondaryKey = secondary
		s.credsLoaded = true
		s.mu.Unlock()
		return nil, nil
	})
	if err != nil {
		return "", "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.primaryKey, s.secondaryKey, nil
}

// fetchKey retrieves one credential from the backend.
func (s *Synthesizer) fetchKey(ctx context.Context, path string) (string, error) {
	resp, err := s.resolver.Get(ctx, path)
	if err != nil {
		return "", err
	}
	if !resp.OK() {
		return "", fmt.Errorf("voice: %s returned status %d", path, resp.StatusCode)
	}
	var cred credentialResponse
	if err := resp.Decode(&cred); err != nil {
		return "", err
	}
	if cred.APIKey == "" {
		return "", fmt.Errorf("voice: %s returned an empty key", path)
	}
	return cred.APIKey, nil
}

// providerFor returns the cached provider for key, building it on first use.
func (s *Synthesizer) providerFor(key string) (tts.Provider, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.providers[key]; ok {
		return p, nil
	}
	p, err := s.factory(key)
	if err != nil {
		return nil, fmt.Errorf("voice: build tts provider: %w", err)
	}
	s.providers[key] = p
	return p, nil
}

// Stop halts any playing audio immediately.
func (s *Synthesizer) Stop() {
	s.player.Stop()
}

// ReEnable clears a rate-limit disable so the next Speak retries the ladder.
func (s *Synthesizer) ReEnable(ctx context.Context) {
	s.settings.ReEnable(ctx)
}
