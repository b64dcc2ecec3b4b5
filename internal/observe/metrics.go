// Package observe provides application-wide observability primitives for
// Talkify: OpenTelemetry metrics and the Prometheus exporter bridge used to
// expose them.
//
// Metrics are recorded through the OpenTelemetry Metrics API. A Prometheus
// exporter bridge is available via [InitProvider] so that metrics can be
// scraped via the standard /metrics endpoint. A package-level default
// [Metrics] instance ([DefaultMetrics]) is provided for convenience; tests
// should use [NewMetrics] with a custom [metric.MeterProvider] to avoid
// cross-test pollution.
package observe

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// meterName is the instrumentation scope name used for all Talkify metrics.
const meterName = "github.com/talkify-cu/talkify"

// Metrics holds all OpenTelemetry metric instruments for the application.
// All fields are safe for concurrent use — the underlying OTel types handle
// their own synchronisation.
type Metrics struct {
	// --- Latency histograms ---

	// RequestDuration tracks backend API call latency. Use with attributes:
	//   attribute.String("path", ...), attribute.String("status", ...)
	RequestDuration metric.Float64Histogram

	// TTSDuration tracks text-to-speech synthesis latency.
	TTSDuration metric.Float64Histogram

	// PlaybackDuration tracks audio playback time per speech task.
	PlaybackDuration metric.Float64Histogram

	// --- Counters ---

	// EndpointFailovers counts failovers from one base URL to the next.
	// Use with attribute: attribute.String("from", ...)
	EndpointFailovers metric.Int64Counter

	// RateLimitFailovers counts TTS rate-limit ladder steps. Use with
	// attributes: attribute.String("model", ...), attribute.String("credential", ...)
	RateLimitFailovers metric.Int64Counter

	// VoiceDisabled counts the times the speech service disabled itself
	// after exhausting the rate-limit ladder.
	VoiceDisabled metric.Int64Counter

	// SessionsStarted counts quiz sessions started.
	SessionsStarted metric.Int64Counter

	// AnswersSubmitted counts completed question/answer rounds.
	AnswersSubmitted metric.Int64Counter

	// RecommendationsServed counts course recommendations delivered.
	RecommendationsServed metric.Int64Counter

	// --- Error counters ---

	// RequestErrors counts backend request failures. Use with attributes:
	//   attribute.String("path", ...), attribute.String("kind", ...)
	RequestErrors metric.Int64Counter

	// --- Gauges ---

	// SpeechQueueDepth tracks the number of speech tasks waiting or playing.
	SpeechQueueDepth metric.Int64UpDownCounter
}

// latencyBuckets defines histogram bucket boundaries (in seconds) sized for
// interactive request/synthesis latencies.
var latencyBuckets = []float64{
	0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10,
}

// NewMetrics creates a fully initialised [Metrics] struct using the given
// [metric.MeterProvider]. Returns an error if any instrument creation fails.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	// Histograms.
	if met.RequestDuration, err = m.Float64Histogram("talkify.request.duration",
		metric.WithDescription("Latency of backend API calls."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.TTSDuration, err = m.Float64Histogram("talkify.tts.duration",
		metric.WithDescription("Latency of text-to-speech synthesis."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.PlaybackDuration, err = m.Float64Histogram("talkify.playback.duration",
		metric.WithDescription("Audio playback time per speech task."),
		metric.WithUnit("s"),
	); err != nil {
		return nil, err
	}

	// Counters.
	if met.EndpointFailovers, err = m.Int64Counter("talkify.endpoint.failovers",
		metric.WithDescription("Failovers from one backend base URL to the next."),
	); err != nil {
		return nil, err
	}
	if met.RateLimitFailovers, err = m.Int64Counter("talkify.tts.ratelimit_failovers",
		metric.WithDescription("TTS rate-limit ladder steps by model and credential."),
	); err != nil {
		return nil, err
	}
	if met.VoiceDisabled, err = m.Int64Counter("talkify.tts.disabled",
		metric.WithDescription("Times the speech service disabled itself after an exhausted ladder."),
	); err != nil {
		return nil, err
	}
	if met.SessionsStarted, err = m.Int64Counter("talkify.sessions.started",
		metric.WithDescription("Quiz sessions started."),
	); err != nil {
		return nil, err
	}
	if met.AnswersSubmitted, err = m.Int64Counter("talkify.answers.submitted",
		metric.WithDescription("Completed question/answer rounds."),
	); err != nil {
		return nil, err
	}
	if met.RecommendationsServed, err = m.Int64Counter("talkify.recommendations.served",
		metric.WithDescription("Course recommendations delivered."),
	); err != nil {
		return nil, err
	}

	// Error counters.
	if met.RequestErrors, err = m.Int64Counter("talkify.request.errors",
		metric.WithDescription("Backend request failures by path and kind."),
	); err != nil {
		return nil, err
	}

	// Gauges (UpDownCounters).
	if met.SpeechQueueDepth, err = m.Int64UpDownCounter("talkify.speech_queue.depth",
		metric.WithDescription("Speech tasks currently queued or playing."),
	); err != nil {
		return nil, err
	}

	return met, nil
}

// defaultMetrics is the lazily-initialised package-level Metrics instance.
var (
	defaultMetrics     *Metrics
	defaultMetricsOnce sync.Once
)

// DefaultMetrics returns the package-level [Metrics] instance, creating it on
// first call using [otel.GetMeterProvider]. Subsequent calls return the same
// pointer. Panics if instrument creation fails (should not happen with the
// global provider).
func DefaultMetrics() *Metrics {
	defaultMetricsOnce.Do(func() {
		var err error
		defaultMetrics, err = NewMetrics(otel.GetMeterProvider())
		if err != nil {
			panic("observe: failed to create default metrics: " + err.Error())
		}
	})
	return defaultMetrics
}

// Attr is a convenience alias for [attribute.String] to reduce verbosity at
// call sites.
func Attr(key, value string) attribute.KeyValue {
	return attribute.String(key, value)
}

// RecordRequest records a backend request duration with the standard
// attribute set.
func (m *Metrics) RecordRequest(ctx context.Context, path, status string, seconds float64) {
	m.RequestDuration.Record(ctx, seconds,
		metric.WithAttributes(
			attribute.String("path", path),
			attribute.String("status", status),
		),
	)
}

// RecordRequestError records a backend request failure with the standard
// attribute set.
func (m *Metrics) RecordRequestError(ctx context.Context, path, kind string) {
	m.RequestErrors.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("path", path),
			attribute.String("kind", kind),
		),
	)
}

// RecordRateLimitFailover records one TTS ladder step with the standard
// attribute set.
func (m *Metrics) RecordRateLimitFailover(ctx context.Context, model, credential string) {
	m.RateLimitFailovers.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("model", model),
			attribute.String("credential", credential),
		),
	)
}
