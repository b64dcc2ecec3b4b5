// Package resilience provides an ordered fallback ladder for provider calls.
//
// A [Ladder] holds a fixed sequence of candidate values (provider instances,
// credentials, model configurations) and tries an operation against each in
// registration order. Unlike a plain retry loop, the ladder distinguishes
// retryable failures (try the next rung) from final ones (stop immediately),
// so a permanent error like an invalid request never burns through every rung.
package resilience

import (
	"errors"
	"fmt"
	"log/slog"
)

// ErrAllFailed is returned when every rung of a [Ladder] fails.
var ErrAllFailed = errors.New("all fallbacks failed")

// rung pairs a candidate value with its log name.
type rung[T any] struct {
	name  string
	value T
}

// Ladder is an ordered sequence of fallback candidates of the same type.
// Rungs are tried strictly in registration order; there is no health tracking
// between calls, so every Execute starts from the first rung.
//
// Ladder is not safe for concurrent mutation; build it fully before use.
// Execute and ExecuteWithResult are safe to call concurrently once built.
type Ladder[T any] struct {
	rungs []rung[T]

	// retryable decides whether an error warrants moving to the next rung.
	// A nil classifier treats every error as retryable.
	retryable func(error) bool
}

// NewLadder creates an empty [Ladder]. retryable classifies errors: true means
// try the next rung, false means the error is final and is returned as-is.
// Pass nil to treat every error as retryable.
func NewLadder[T any](retryable func(error) bool) *Ladder[T] {
	return &Ladder[T]{retryable: retryable}
}

// Add appends a rung. Rungs are tried in the order they are added.
func (l *Ladder[T]) Add(name string, value T) *Ladder[T] {
	l.rungs = append(l.rungs, rung[T]{name: name, value: value})
	return l
}

// Len returns the number of rungs.
func (l *Ladder[T]) Len() int { return len(l.rungs) }

// Execute tries fn against each rung in order until one succeeds. A
// non-retryable error stops the descent and is returned directly. Returns
// [ErrAllFailed] wrapped with the last error when every rung fails.
func (l *Ladder[T]) Execute(fn func(T) error) error {
	_, err := ExecuteWithResult(l, func(v T) (struct{}, error) {
		return struct{}{}, fn(v)
	})
	return err
}

// ExecuteWithResult tries fn against each rung until one succeeds, returning
// both the result value and error. This is a package-level function because Go
// does not support method-level type parameters.
func ExecuteWithResult[T any, R any](l *Ladder[T], fn func(T) (R, error)) (R, error) {
	var (
		lastErr error
		zero    R
	)
	if len(l.rungs) == 0 {
		return zero, fmt.Errorf("%w: empty ladder", ErrAllFailed)
	}
	for i := range l.rungs {
		r := &l.rungs[i]
		result, err := fn(r.value)
		if err == nil {
			return result, nil
		}
		if l.retryable != nil && !l.retryable(err) {
			return zero, err
		}
		lastErr = err
		if i < len(l.rungs)-1 {
			slog.Warn("fallback rung failed, trying next",
				"rung", r.name, "error", err)
		}
	}
	return zero, fmt.Errorf("%w: %v", ErrAllFailed, lastErr)
}
