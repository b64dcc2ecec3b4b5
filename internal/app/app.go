// Package app wires all Talkify subsystems into a running client.
//
// The App struct owns the full lifecycle: New creates and connects all
// subsystems, Run executes the interactive loop alongside the speech queue
// and the observability listener, and Shutdown tears everything down in
// order.
//
// For testing, inject doubles via functional options (WithStore, WithInput,
// etc.). When an option is not provided, New creates real implementations
// from the config.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/talkify-cu/talkify/internal/api"
	"github.com/talkify-cu/talkify/internal/config"
	"github.com/talkify-cu/talkify/internal/endpoint"
	"github.com/talkify-cu/talkify/internal/guidance"
	"github.com/talkify-cu/talkify/internal/health"
	"github.com/talkify-cu/talkify/internal/observe"
	"github.com/talkify-cu/talkify/internal/quiz"
	"github.com/talkify-cu/talkify/internal/store"
	"github.com/talkify-cu/talkify/internal/video"
	"github.com/talkify-cu/talkify/internal/voice"
	"github.com/talkify-cu/talkify/pkg/audio"
	"github.com/talkify-cu/talkify/pkg/provider/llm"
	"github.com/talkify-cu/talkify/pkg/provider/tts"
)

// Providers holds one value per provider slot. Nil means the provider is not
// configured. Populated by main.go via the config registry.
type Providers struct {
	// TTS builds one synthesis provider per backend-issued credential.
	// Nil disables speech entirely.
	TTS tts.Factory

	// LLM powers the career exploration assistant. Nil falls back to the
	// scripted per-stage replies.
	LLM llm.Provider

	// Player plays synthesized audio. Nil selects the first system player
	// found on PATH.
	Player audio.Player
}

// App owns all subsystem lifetimes and drives the Talkify conversation.
type App struct {
	cfg       *config.Config
	providers *Providers

	metrics  *observe.Metrics
	resolver *endpoint.Resolver
	st       store.Store
	settings *voice.Settings
	synth    *voice.Synthesizer
	queue    *voice.Queue
	client   *api.Client
	quiz     *quiz.Orchestrator
	catalog  *guidance.Catalogue
	guide    *guidance.Assistant
	videos   *video.Preloader

	input  io.Reader
	output io.Writer

	// closers are called in order during Shutdown.
	closers []func() error

	// stopOnce guards the Shutdown path.
	stopOnce sync.Once
}

// Option is a functional option for New. Use these to inject test doubles.
type Option func(*App)

// WithStore injects a settings store instead of creating one from config.
func WithStore(s store.Store) Option {
	return func(a *App) { a.st = s }
}

// WithMetrics injects a metrics set instead of using the default instance.
func WithMetrics(m *observe.Metrics) Option {
	return func(a *App) { a.metrics = m }
}

// WithInput sets the interactive loop's input stream. Default os.Stdin.
func WithInput(r io.Reader) Option {
	return func(a *App) { a.input = r }
}

// WithOutput sets the interactive loop's output stream. Default os.Stdout.
func WithOutput(w io.Writer) Option {
	return func(a *App) { a.output = w }
}

// New creates an App by wiring all subsystems together. The providers struct
// comes from main.go (populated via the config registry). Use Option
// functions to inject test doubles for any subsystem.
func New(ctx context.Context, cfg *config.Config, providers *Providers, opts ...Option) (*App, error) {
	a := &App{
		cfg:       cfg,
		providers: providers,
		input:     os.Stdin,
		output:    os.Stdout,
	}
	for _, o := range opts {
		o(a)
	}
	if a.metrics == nil {
		a.metrics = observe.DefaultMetrics()
	}

	resolver, err := endpoint.New(cfg.Backend.PrimaryURL, cfg.Backend.FallbackURL,
		endpoint.WithTimeout(cfg.Backend.RequestTimeout.Std()),
		endpoint.WithMetrics(a.metrics),
	)
	if err != nil {
		return nil, fmt.Errorf("app: init resolver: %w", err)
	}
	a.resolver = resolver

	if err := a.initStore(); err != nil {
		return nil, fmt.Errorf("app: init store: %w", err)
	}
	if err := a.initVoice(ctx); err != nil {
		return nil, fmt.Errorf("app: init voice: %w", err)
	}

	a.client = api.NewClient(resolver,
		api.WithTotalSteps(cfg.Backend.TotalSteps),
		api.WithMetrics(a.metrics),
	)

	var speaker quiz.Speaker
	if a.queue != nil {
		speaker = a.queue
	}
	a.quiz = quiz.NewOrchestrator(a.client, speaker)

	a.catalog = guidance.NewCatalogue(resolver)
	a.guide = guidance.NewAssistant(providers.LLM, a.catalog)
	a.videos = video.NewPreloader(cfg.Backend.PrimaryURL)

	return a, nil
}

// initStore sets up the settings store from config unless one was injected.
func (a *App) initStore() error {
	if a.st != nil {
		return nil
	}

	switch a.cfg.Storage.Driver {
	case config.StorageFile:
		st, err := store.NewFile(a.cfg.Storage.Path)
		if err != nil {
			return err
		}
		a.st = st
	case config.StorageRedis:
		rc := redis.NewClient(&redis.Options{
			Addr:     a.cfg.Storage.Redis.Addr,
			Password: a.cfg.Storage.Redis.Password,
			DB:       a.cfg.Storage.Redis.DB,
		})
		a.st = store.NewRedis(rc, a.cfg.Storage.Redis.TTL.Std())
	default:
		a.st = store.NewMemory()
	}

	a.closers = append(a.closers, a.st.Close)
	slog.Info("settings store ready", "driver", a.cfg.Storage.Driver)
	return nil
}

// initVoice builds the speech pipeline: settings, synthesizer, queue. Speech
// stays off (queue nil) when no TTS factory is configured or no audio player
// can be found; the conversation works without it.
func (a *App) initVoice(ctx context.Context) error {
	seed := a.needsVoiceSeed(ctx)

	settings, err := voice.LoadSettings(ctx, a.st)
	if err != nil {
		return err
	}
	a.settings = settings

	if seed {
		a.seedVoiceDefaults(ctx)
	}

	if a.providers.TTS == nil {
		slog.Info("no TTS provider configured; speech disabled")
		return nil
	}

	player := a.providers.Player
	if player == nil {
		p, err := audio.NewExecPlayer()
		if err != nil {
			slog.Warn("no audio player found; speech disabled", "error", err)
			return nil
		}
		player = p
	}

	a.synth = voice.NewSynthesizer(a.resolver, a.providers.TTS, player, settings,
		voice.WithSynthMetrics(a.metrics))
	a.queue = voice.NewQueue(a.synth, settings, voice.WithQueueMetrics(a.metrics))
	return nil
}

// needsVoiceSeed reports whether the store has no persisted voice settings
// yet, in which case the config defaults apply.
func (a *App) needsVoiceSeed(ctx context.Context) bool {
	_, ok, err := a.st.Get(ctx, store.KeyVoiceEnabled)
	return err == nil && !ok
}

// seedVoiceDefaults writes the config's voice block into fresh settings.
func (a *App) seedVoiceDefaults(ctx context.Context) {
	vc := a.cfg.Voice
	a.settings.SetEnabled(ctx, vc.Enabled)
	a.settings.SetAutoSpeak(ctx, vc.AutoSpeak)
	if err := a.settings.SetModel(ctx, tts.Model(vc.Model)); err != nil {
		slog.Warn("invalid voice model default ignored", "model", vc.Model, "error", err)
		return
	}
	if err := a.settings.SetVoice(ctx, vc.Voice); err != nil {
		slog.Warn("invalid voice default ignored", "voice", vc.Voice, "error", err)
	}
}

// Run starts the speech queue, the metrics/health listener, and the
// interactive loop, blocking until ctx is cancelled or the user quits.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)

	if a.queue != nil {
		g.Go(func() error {
			a.queue.Run(gctx)
			return nil
		})
	}

	if addr := a.cfg.Server.ListenAddr; addr != "" {
		srv := a.observabilityServer(addr)
		g.Go(func() error {
			slog.Info("observability listener ready", "addr", addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("app: observability listener: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, scancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer scancel()
			return srv.Shutdown(shutdownCtx)
		})
	}

	g.Go(func() error {
		defer cancel()
		return a.runTerminal(gctx)
	})

	err := g.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// observabilityServer builds the HTTP server exposing /metrics, /healthz,
// and /readyz.
func (a *App) observabilityServer(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	health.New(
		health.Backend(a.client),
		health.Store(a.st),
	).Register(mux)
	return &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
}

// Shutdown tears down all subsystems in init order. It respects the context
// deadline: if ctx expires before all closers finish, remaining closers are
// skipped and the context error is returned.
func (a *App) Shutdown(ctx context.Context) error {
	var shutdownErr error
	a.stopOnce.Do(func() {
		slog.Info("shutting down", "closers", len(a.closers))

		// Silence any in-flight narration first.
		if a.queue != nil {
			a.queue.Stop()
		}

		for i, closer := range a.closers {
			select {
			case <-ctx.Done():
				slog.Warn("shutdown deadline exceeded", "remaining", len(a.closers)-i)
				shutdownErr = ctx.Err()
				return
			default:
			}
			if err := closer(); err != nil {
				slog.Warn("closer error", "index", i, "err", err)
			}
		}

		slog.Info("shutdown complete")
	})
	return shutdownErr
}

// Quiz exposes the quiz orchestrator, mainly for tests.
func (a *App) Quiz() *quiz.Orchestrator { return a.quiz }

// Settings exposes the voice settings, mainly for tests.
func (a *App) Settings() *voice.Settings { return a.settings }
