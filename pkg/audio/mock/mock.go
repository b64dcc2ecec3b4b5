// Package mock provides an in-memory [audio.Player] for tests.
package mock

import (
	"context"
	"sync"
	"time"

	"github.com/talkify-cu/talkify/pkg/audio"
)

// Playback records one Play call with its observed timing.
type Playback struct {
	// Payload is the WAV payload handed to Play.
	Payload []byte

	// Start and End bracket the simulated playback window.
	Start, End time.Time

	// Stopped reports whether the playback was cut short by Stop.
	Stopped bool
}

// Player is a scripted [audio.Player]. Each Play blocks for PlayDuration
// (default zero) and records its timing window so tests can assert that no
// two playbacks overlapped.
type Player struct {
	// PlayDuration is how long each Play call blocks.
	PlayDuration time.Duration

	// PlayErr, when non-nil, is returned by every Play call.
	PlayErr error

	mu        sync.Mutex
	playbacks []Playback
	stopCh    chan struct{}
}

// Compile-time interface assertion.
var _ audio.Player = (*Player)(nil)

// Play implements [audio.Player].
func (p *Player) Play(ctx context.Context, wav []byte) error {
	p.mu.Lock()
	if p.stopCh != nil {
		close(p.stopCh) // implicit stop of the previous playback
	}
	stop := make(chan struct{})
	p.stopCh = stop
	idx := len(p.playbacks)
	p.playbacks = append(p.playbacks, Playback{Payload: wav, Start: time.Now()})
	p.mu.Unlock()

	stopped := false
	select {
	case <-time.After(p.PlayDuration):
	case <-stop:
		stopped = true
	case <-ctx.Done():
		stopped = true
	}

	p.mu.Lock()
	p.playbacks[idx].End = time.Now()
	p.playbacks[idx].Stopped = stopped
	if p.stopCh == stop {
		p.stopCh = nil
	}
	p.mu.Unlock()

	return p.PlayErr
}

// Stop implements [audio.Player].
func (p *Player) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stopCh != nil {
		close(p.stopCh)
		p.stopCh = nil
	}
}

// Playbacks returns a copy of all recorded playbacks.
func (p *Player) Playbacks() []Playback {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]Playback, len(p.playbacks))
	copy(out, p.playbacks)
	return out
}

// Overlapping reports whether any two recorded playbacks overlapped in time.
func (p *Player) Overlapping() bool {
	pbs := p.Playbacks()
	for i := 1; i < len(pbs); i++ {
		if pbs[i].Start.Before(pbs[i-1].End) {
			return true
		}
	}
	return false
}
