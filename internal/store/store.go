// Package store persists small key/value settings across Talkify runs.
//
// The original widget kept its settings in the browser's localStorage and its
// one-shot onboarding data in sessionStorage. This package models both with a
// single [Store] interface and three drivers: [Memory] (process lifetime,
// the sessionStorage analogue), [File] (a JSON file on disk, the localStorage
// analogue), and [Redis] (shared state for kiosk deployments running several
// terminals against one settings namespace).
//
// Access is single-writer-per-key with last-write-wins semantics; drivers do
// not implement cross-process locking.
package store

import (
	"context"
	"errors"
)

// ErrClosed is returned by driver operations after Close.
var ErrClosed = errors.New("store: closed")

// Store is a minimal string key/value store.
//
// Implementations must be safe for concurrent use.
type Store interface {
	// Get returns the value for key. The second return is false when the key
	// is absent (not an error).
	Get(ctx context.Context, key string) (string, bool, error)

	// Set stores value under key, overwriting any previous value.
	Set(ctx context.Context, key, value string) error

	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases driver resources. The store must not be used afterwards.
	Close() error
}

// Well-known keys used by the application. Kept here so the voice layer and
// the shell agree on spelling.
const (
	KeyVoiceEnabled = "voiceEnabled"
	KeyAutoSpeak    = "autoSpeak"
	KeyTTSModel     = "ttsModel"
	KeyTTSVoice     = "ttsVoice"
	KeyHasVisited   = "hasVisited"
	KeyOnboarding   = "onboardingData"
)
