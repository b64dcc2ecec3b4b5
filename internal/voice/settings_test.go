package voice

import (
	"context"
	"testing"

	"github.com/talkify-cu/talkify/internal/store"
	"github.com/talkify-cu/talkify/pkg/provider/tts"
)

func newTestSettings(t *testing.T) (*Settings, store.Store) {
	t.Helper()
	st := store.NewMemory()
	t.Cleanup(func() { st.Close() })
	s, err := LoadSettings(context.Background(), st)
	if err != nil {
		t.Fatalf("LoadSettings: %v", err)
	}
	return s, st
}

func TestDefaults(t *testing.T) {
	s, _ := newTestSettings(t)
	snap := s.Snapshot()
	if !snap.Enabled || !snap.AutoSpeak {
		t.Errorf("voice and auto-speak must default on: %+v", snap)
	}
	if snap.Model != tts.ModelEnglish || snap.Voice != tts.DefaultVoice(tts.ModelEnglish) {
		t.Errorf("unexpected default model/voice: %+v", snap)
	}
}

func TestModelSwitchResetsVoice(t *testing.T) {
	s, _ := newTestSettings(t)
	ctx := context.Background()

	if err := s.SetModel(ctx, tts.ModelArabic); err != nil {
		t.Fatalf("SetModel: %v", err)
	}
	snap := s.Snapshot()
	if snap.Model != tts.ModelArabic {
		t.Fatalf("model %q, want arabic", snap.Model)
	}
	if !tts.ValidVoice(snap.Model, snap.Voice) {
		t.Errorf("voice %q invalid for model %q", snap.Voice, snap.Model)
	}
	if snap.Voice != tts.DefaultVoice(tts.ModelArabic) {
		t.Errorf("voice %q, want model default", snap.Voice)
	}
}

func TestSetVoiceRejectsForeignVoice(t *testing.T) {
	s, _ := newTestSettings(t)
	ctx := context.Background()

	if err := s.SetVoice(ctx, "Amira-PlayAI"); err == nil {
		t.Error("Arabic voice must be rejected while English model is active")
	}
	if err := s.SetVoice(ctx, "Quinn-PlayAI"); err != nil {
		t.Errorf("valid voice rejected: %v", err)
	}
}

func TestSettingsPersistAcrossLoads(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory()
	defer st.Close()

	s, err := LoadSettings(ctx, st)
	if err != nil {
		t.Fatalf("LoadSettings: %v", err)
	}
	s.SetEnabled(ctx, false)
	if err := s.SetModel(ctx, tts.ModelArabic); err != nil {
		t.Fatalf("SetModel: %v", err)
	}

	reloaded, err := LoadSettings(ctx, st)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	snap := reloaded.Snapshot()
	if snap.Enabled {
		t.Error("disabled flag did not persist")
	}
	if snap.Model != tts.ModelArabic || snap.Voice != tts.DefaultVoice(tts.ModelArabic) {
		t.Errorf("model/voice did not persist: %+v", snap)
	}
}

func TestObserversFireOnChange(t *testing.T) {
	s, _ := newTestSettings(t)
	ctx := context.Background()

	var seen []VoiceSettings
	id := s.Subscribe(func(v VoiceSettings) { seen = append(seen, v) })

	s.SetAutoSpeak(ctx, false)
	if len(seen) != 1 || seen[0].AutoSpeak {
		t.Fatalf("observer not notified of change: %+v", seen)
	}

	// No-op mutation must not notify.
	s.SetAutoSpeak(ctx, false)
	if len(seen) != 1 {
		t.Errorf("observer fired on no-op change: %d notifications", len(seen))
	}

	s.Unsubscribe(id)
	s.SetAutoSpeak(ctx, true)
	if len(seen) != 1 {
		t.Error("observer fired after unsubscribe")
	}
}
