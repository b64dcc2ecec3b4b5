package config_test

import (
	"context"
	"errors"
	"testing"

	"github.com/talkify-cu/talkify/internal/config"
	"github.com/talkify-cu/talkify/pkg/provider/llm"
	llmmock "github.com/talkify-cu/talkify/pkg/provider/llm/mock"
	"github.com/talkify-cu/talkify/pkg/provider/tts"
	ttsmock "github.com/talkify-cu/talkify/pkg/provider/tts/mock"
)

func TestRegistry_CreateTTS(t *testing.T) {
	t.Parallel()
	reg := config.NewRegistry()
	rec := &ttsmock.Recorder{}
	reg.RegisterTTS("groq", func(entry config.ProviderEntry) (tts.Factory, error) {
		return rec.Factory(), nil
	})

	factory, err := reg.CreateTTS(config.ProviderEntry{Name: "groq"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	provider, err := factory("test-key")
	if err != nil {
		t.Fatalf("factory: %v", err)
	}
	if _, err := provider.Synthesize(context.Background(), tts.Request{Text: "hi"}); err != nil {
		t.Fatalf("synthesize: %v", err)
	}
	if calls := rec.Calls(); len(calls) != 1 || calls[0].APIKey != "test-key" {
		t.Errorf("calls %+v", calls)
	}
}

func TestRegistry_CreateLLM(t *testing.T) {
	t.Parallel()
	reg := config.NewRegistry()
	reg.RegisterLLM("groq", func(entry config.ProviderEntry) (llm.Provider, error) {
		return &llmmock.Provider{}, nil
	})

	if _, err := reg.CreateLLM(config.ProviderEntry{Name: "groq"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestRegistry_UnregisteredProvider(t *testing.T) {
	t.Parallel()
	reg := config.NewRegistry()

	_, err := reg.CreateTTS(config.ProviderEntry{Name: "nope"})
	if !errors.Is(err, config.ErrProviderNotRegistered) {
		t.Errorf("err = %v, want ErrProviderNotRegistered", err)
	}
	_, err = reg.CreateLLM(config.ProviderEntry{Name: "nope"})
	if !errors.Is(err, config.ErrProviderNotRegistered) {
		t.Errorf("err = %v, want ErrProviderNotRegistered", err)
	}
}
