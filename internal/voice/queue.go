package voice

import (
	"context"
	"log/slog"
	"sync"

	"github.com/talkify-cu/talkify/internal/observe"
)

// Narrator is the synthesis surface the queue drains into. *Synthesizer
// implements it.
type Narrator interface {
	Speak(ctx context.Context, text string) error
	Stop()
}

// task is one queued narration. done is closed when the task has finished
// playing or been skipped.
type task struct {
	text string
	done chan struct{}
}

// Queue serialises narration: a single consumer drains tasks strictly in
// FIFO order, waiting for each Speak to fully settle before starting the
// next, so no two narrations overlap. Stop clears pending tasks and halts
// the current playback.
type Queue struct {
	narrator Narrator
	settings *Settings
	metrics  *observe.Metrics

	mu      sync.Mutex
	pending []*task
	closed  bool

	// wake nudges the consumer when work arrives. Buffered so enqueue never
	// blocks.
	wake chan struct{}
}

// QueueOption is a functional option for [NewQueue].
type QueueOption func(*Queue)

// WithQueueMetrics sets the metrics instance. Defaults to
// [observe.DefaultMetrics].
func WithQueueMetrics(m *observe.Metrics) QueueOption {
	return func(q *Queue) {
		q.metrics = m
	}
}

// NewQueue creates a [Queue]. Call [Queue.Run] in its own goroutine to start
// the consumer.
func NewQueue(narrator Narrator, settings *Settings, opts ...QueueOption) *Queue {
	q := &Queue{
		narrator: narrator,
		settings: settings,
		wake:     make(chan struct{}, 1),
	}
	for _, o := range opts {
		o(q)
	}
	if q.metrics == nil {
		q.metrics = observe.DefaultMetrics()
	}
	return q
}

// Run drains the queue until ctx is cancelled. It is the single consumer;
// run it exactly once.
func (q *Queue) Run(ctx context.Context) {
	for {
		t := q.pop()
		if t == nil {
			select {
			case <-ctx.Done():
				q.mu.Lock()
				q.closed = true
				q.mu.Unlock()
				q.drain()
				return
			case <-q.wake:
				continue
			}
		}

		if err := q.narrator.Speak(ctx, t.text); err != nil {
			// Swallowed: a failed narration must not stall the queue.
			slog.Warn("voice: queued narration failed", "error", err)
		}
		q.metrics.SpeechQueueDepth.Add(ctx, -1)
		close(t.done)
	}
}

// QueueSpeak appends text to the queue and returns a channel that is closed
// when this specific narration has finished playing or been skipped.
func (q *Queue) QueueSpeak(text string) <-chan struct{} {
	t := &task{text: text, done: make(chan struct{})}

	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		close(t.done)
		return t.done
	}
	q.pending = append(q.pending, t)
	q.mu.Unlock()

	q.metrics.SpeechQueueDepth.Add(context.Background(), 1)
	select {
	case q.wake <- struct{}{}:
	default:
	}
	return t.done
}

// SpeakAIMessage queues text for narration when both the voice toggle and
// auto-speak are on; otherwise it is a no-op. It never blocks the caller.
func (q *Queue) SpeakAIMessage(text string) {
	if text == "" {
		return
	}
	snap := q.settings.Snapshot()
	if !snap.Enabled || !snap.AutoSpeak {
		return
	}
	q.QueueSpeak(text)
}

// Stop clears all pending narrations (their completion channels close
// immediately) and halts the current playback. The queue stays usable.
func (q *Queue) Stop() {
	q.drain()
	q.narrator.Stop()
}

// pop removes and returns the oldest pending task, or nil.
func (q *Queue) pop() *task {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.pending) == 0 {
		return nil
	}
	t := q.pending[0]
	q.pending = q.pending[1:]
	return t
}

// drain skips every pending task.
func (q *Queue) drain() {
	q.mu.Lock()
	pending := q.pending
	q.pending = nil
	q.mu.Unlock()

	for _, t := range pending {
		q.metrics.SpeechQueueDepth.Add(context.Background(), -1)
		close(t.done)
	}
}
