// Package audio abstracts local audio playback for Talkify.
//
// The speech layer hands fully-synthesised WAV payloads to a [Player] and
// waits for playback to finish. At most one playback is active per player at
// any time; starting a new one stops whatever is currently playing.
package audio

import "context"

// Player plays one audio payload at a time.
//
// Implementations must be safe for concurrent use.
type Player interface {
	// Play starts playback of a WAV payload and blocks until it finishes,
	// is stopped via [Player.Stop], or ctx is cancelled. Starting a new
	// playback implicitly stops any playback already in progress.
	//
	// A stop (explicit or by a newer Play) is not an error; Play returns nil
	// in that case. A non-nil error means the payload could not be played.
	Play(ctx context.Context, wav []byte) error

	// Stop halts the current playback, if any. Safe to call when idle.
	Stop()
}
