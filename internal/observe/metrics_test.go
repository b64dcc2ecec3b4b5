package observe

import (
	"context"
	"testing"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

// collect flushes the reader and returns all metrics keyed by name.
func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Metrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("collect: %v", err)
	}
	out := make(map[string]metricdata.Metrics)
	for _, scope := range rm.ScopeMetrics {
		for _, m := range scope.Metrics {
			out[m.Name] = m
		}
	}
	return out
}

func newTestMetrics(t *testing.T) (*Metrics, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	m, err := NewMetrics(mp)
	if err != nil {
		t.Fatalf("NewMetrics: %v", err)
	}
	return m, reader
}

func TestRecordRequest(t *testing.T) {
	m, reader := newTestMetrics(t)
	ctx := context.Background()

	m.RecordRequest(ctx, "/api/v1/next-question", "200", 0.12)
	m.RecordRequest(ctx, "/api/v1/next-question", "200", 0.34)

	got := collect(t, reader)
	hist, ok := got["talkify.request.duration"].Data.(metricdata.Histogram[float64])
	if !ok {
		t.Fatalf("talkify.request.duration missing or wrong type: %+v", got)
	}
	if len(hist.DataPoints) != 1 {
		t.Fatalf("got %d datapoints, want 1", len(hist.DataPoints))
	}
	dp := hist.DataPoints[0]
	if dp.Count != 2 {
		t.Errorf("count = %d, want 2", dp.Count)
	}
	if v, ok := dp.Attributes.Value("path"); !ok || v.AsString() != "/api/v1/next-question" {
		t.Errorf("path attribute missing: %v", dp.Attributes)
	}
}

func TestRecordRequestError(t *testing.T) {
	m, reader := newTestMetrics(t)

	m.RecordRequestError(context.Background(), "/health", "network")

	got := collect(t, reader)
	sum, ok := got["talkify.request.errors"].Data.(metricdata.Sum[int64])
	if !ok {
		t.Fatalf("talkify.request.errors missing")
	}
	if len(sum.DataPoints) != 1 || sum.DataPoints[0].Value != 1 {
		t.Errorf("datapoints %+v", sum.DataPoints)
	}
	if v, ok := sum.DataPoints[0].Attributes.Value("kind"); !ok || v.AsString() != "network" {
		t.Errorf("kind attribute missing")
	}
}

func TestRecordRateLimitFailover(t *testing.T) {
	m, reader := newTestMetrics(t)
	ctx := context.Background()

	m.RecordRateLimitFailover(ctx, "playai-tts", "primary")
	m.RecordRateLimitFailover(ctx, "playai-tts-arabic", "secondary")

	got := collect(t, reader)
	sum, ok := got["talkify.tts.ratelimit_failovers"].Data.(metricdata.Sum[int64])
	if !ok {
		t.Fatalf("talkify.tts.ratelimit_failovers missing")
	}
	if len(sum.DataPoints) != 2 {
		t.Errorf("got %d datapoints, want one per model/credential pair", len(sum.DataPoints))
	}
}

func TestSpeechQueueDepthUpDown(t *testing.T) {
	m, reader := newTestMetrics(t)
	ctx := context.Background()

	m.SpeechQueueDepth.Add(ctx, 1)
	m.SpeechQueueDepth.Add(ctx, 1)
	m.SpeechQueueDepth.Add(ctx, -1)

	got := collect(t, reader)
	sum, ok := got["talkify.speech_queue.depth"].Data.(metricdata.Sum[int64])
	if !ok {
		t.Fatalf("talkify.speech_queue.depth missing")
	}
	if len(sum.DataPoints) != 1 || sum.DataPoints[0].Value != 1 {
		t.Errorf("depth = %+v, want 1", sum.DataPoints)
	}
}

func TestDefaultMetricsIsSingleton(t *testing.T) {
	if DefaultMetrics() != DefaultMetrics() {
		t.Error("DefaultMetrics must return the same instance")
	}
}
