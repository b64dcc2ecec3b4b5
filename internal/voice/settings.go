package voice

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"sync"

	"github.com/talkify-cu/talkify/internal/store"
	"github.com/talkify-cu/talkify/pkg/provider/tts"
)

// VoiceSettings is a snapshot of the speech layer's user-facing state.
type VoiceSettings struct {
	// Enabled is the user's master voice toggle.
	Enabled bool

	// AutoSpeak controls whether bot messages are narrated automatically.
	AutoSpeak bool

	// TemporarilyDisabled is set by the synthesizer after an exhausted
	// rate-limit ladder; cleared by ReEnable or a later successful attempt.
	TemporarilyDisabled bool

	// Model is the active TTS model family.
	Model tts.Model

	// Voice is the active voice; always a member of Model's voice set.
	Voice string

	// UsingSecondaryCredential reports whether the ladder has moved
	// synthesis onto the secondary API key.
	UsingSecondaryCredential bool
}

// Observer receives a settings snapshot after every change.
type Observer func(VoiceSettings)

// Settings owns the persisted voice settings and the observer list. Changes
// are written through to the backing store and observers are notified
// synchronously. Safe for concurrent use; observers are called without the
// internal lock held.
type Settings struct {
	st store.Store

	mu        sync.Mutex
	current   VoiceSettings
	observers map[int]Observer
	nextID    int
}

// LoadSettings builds a [Settings] from st, applying defaults for absent
// keys: voice enabled, auto-speak enabled, English model with its default
// voice. A persisted voice that is invalid for the persisted model is reset
// to the model's default.
func LoadSettings(ctx context.Context, st store.Store) (*Settings, error) {
	s := &Settings{
		st:        st,
		observers: make(map[int]Observer),
		current: VoiceSettings{
			Enabled:   true,
			AutoSpeak: true,
			Model:     tts.ModelEnglish,
		},
	}

	if v, ok, err := st.Get(ctx, store.KeyVoiceEnabled); err != nil {
		return nil, fmt.Errorf("voice: load settings: %w", err)
	} else if ok {
		s.current.Enabled = v != "false"
	}
	if v, ok, err := st.Get(ctx, store.KeyAutoSpeak); err != nil {
		return nil, fmt.Errorf("voice: load settings: %w", err)
	} else if ok {
		s.current.AutoSpeak = v != "false"
	}
	if v, ok, err := st.Get(ctx, store.KeyTTSModel); err != nil {
		return nil, fmt.Errorf("voice: load settings: %w", err)
	} else if ok && tts.Model(v).IsValid() {
		s.current.Model = tts.Model(v)
	}
	s.current.Voice = tts.DefaultVoice(s.current.Model)
	if v, ok, err := st.Get(ctx, store.KeyTTSVoice); err != nil {
		return nil, fmt.Errorf("voice: load settings: %w", err)
	} else if ok && tts.ValidVoice(s.current.Model, v) {
		s.current.Voice = v
	}

	return s, nil
}

// Snapshot returns the current settings.
func (s *Settings) Snapshot() VoiceSettings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Subscribe registers an observer and returns its handle for Unsubscribe.
// The observer fires on every subsequent change, synchronously.
func (s *Settings) Subscribe(fn Observer) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	s.observers[s.nextID] = fn
	return s.nextID
}

// Unsubscribe removes an observer. Unknown handles are ignored.
func (s *Settings) Unsubscribe(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.observers, id)
}

// SetEnabled flips the master voice toggle and persists it.
func (s *Settings) SetEnabled(ctx context.Context, enabled bool) {
	s.mutate(ctx, func(v *VoiceSettings) {
		v.Enabled = enabled
		if enabled {
			v.TemporarilyDisabled = false
		}
		s.persist(ctx, store.KeyVoiceEnabled, strconv.FormatBool(enabled))
	})
}

// SetAutoSpeak flips automatic narration of bot messages and persists it.
func (s *Settings) SetAutoSpeak(ctx context.Context, enabled bool) {
	s.mutate(ctx, func(v *VoiceSettings) {
		v.AutoSpeak = enabled
		s.persist(ctx, store.KeyAutoSpeak, strconv.FormatBool(enabled))
	})
}

// SetModel switches the model family. The voice is reset to the new model's
// default whenever the current voice does not belong to it, keeping the
// voice-valid-for-model invariant. Invalid models are rejected.
func (s *Settings) SetModel(ctx context.Context, model tts.Model) error {
	if !model.IsValid() {
		return fmt.Errorf("voice: unknown model %q", model)
	}
	s.mutate(ctx, func(v *VoiceSettings) {
		v.Model = model
		if !tts.ValidVoice(model, v.Voice) {
			v.Voice = tts.DefaultVoice(model)
			s.persist(ctx, store.KeyTTSVoice, v.Voice)
		}
		s.persist(ctx, store.KeyTTSModel, string(model))
	})
	return nil
}

// SetVoice selects a voice. The voice must belong to the active model.
func (s *Settings) SetVoice(ctx context.Context, voice string) error {
	s.mu.Lock()
	model := s.current.Model
	s.mu.Unlock()
	if !tts.ValidVoice(model, voice) {
		return fmt.Errorf("voice: %q is not a voice of model %q", voice, model)
	}
	s.mutate(ctx, func(v *VoiceSettings) {
		v.Voice = voice
		s.persist(ctx, store.KeyTTSVoice, voice)
	})
	return nil
}

// ReEnable clears a rate-limit disable so the next speak attempt tries the
// ladder again from the top.
func (s *Settings) ReEnable(ctx context.Context) {
	s.mutate(ctx, func(v *VoiceSettings) {
		v.TemporarilyDisabled = false
		v.UsingSecondaryCredential = false
	})
}

// markDisabled records an exhausted ladder. Used by the synthesizer.
func (s *Settings) markDisabled(ctx context.Context) {
	s.mutate(ctx, func(v *VoiceSettings) {
		v.TemporarilyDisabled = true
	})
}

// adoptLadderOutcome records the model/voice/credential combination that
// finally succeeded, so later speaks start from the working rung.
func (s *Settings) adoptLadderOutcome(ctx context.Context, model tts.Model, voice string, secondary bool) {
	s.mutate(ctx, func(v *VoiceSettings) {
		if v.Model != model {
			v.Model = model
			v.Voice = voice
			s.persist(ctx, store.KeyTTSModel, string(model))
			s.persist(ctx, store.KeyTTSVoice, voice)
		}
		v.UsingSecondaryCredential = secondary
		v.TemporarilyDisabled = false
	})
}

// mutate applies fn under the lock and notifies observers after releasing it.
func (s *Settings) mutate(ctx context.Context, fn func(*VoiceSettings)) {
	s.mu.Lock()
	before := s.current
	fn(&s.current)
	after := s.current
	observers := make([]Observer, 0, len(s.observers))
	for _, o := range s.observers {
		observers = append(observers, o)
	}
	s.mu.Unlock()

	if before == after {
		return
	}
	for _, o := range observers {
		o(after)
	}
}

// persist writes one key through to the store, logging failures instead of
// surfacing them: settings survive in memory even when the store is broken.
func (s *Settings) persist(ctx context.Context, key, value string) {
	if err := s.st.Set(ctx, key, value); err != nil {
		slog.Warn("voice: persist setting failed", "key", key, "error", err)
	}
}
