package audio

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"sync"
)

// playerCommands lists known command-line WAV players in preference order.
// The file path is appended as the final argument.
var playerCommands = [][]string{
	{"aplay", "-q"},
	{"ffplay", "-nodisp", "-autoexit", "-loglevel", "quiet"},
	{"afplay"},
	{"play", "-q"},
}

// ExecPlayer plays WAV payloads by shelling out to a system audio player.
// Payloads are written to a temp file and handed to the first player binary
// found on PATH (or the command configured via [WithCommand]).
type ExecPlayer struct {
	command []string

	mu      sync.Mutex
	current *exec.Cmd
	stopped bool // set when the current playback was stopped on purpose
}

// Compile-time interface assertion.
var _ Player = (*ExecPlayer)(nil)

// ExecOption is a functional option for [NewExecPlayer].
type ExecOption func(*ExecPlayer)

// WithCommand overrides player auto-detection with an explicit command and
// arguments. The WAV file path is appended as the final argument.
func WithCommand(command ...string) ExecOption {
	return func(p *ExecPlayer) {
		p.command = command
	}
}

// NewExecPlayer creates a player backed by a system audio binary. Without
// [WithCommand] it probes PATH for a known player and returns an error when
// none is installed.
func NewExecPlayer(opts ...ExecOption) (*ExecPlayer, error) {
	p := &ExecPlayer{}
	for _, o := range opts {
		o(p)
	}
	if p.command == nil {
		for _, candidate := range playerCommands {
			if _, err := exec.LookPath(candidate[0]); err == nil {
				p.command = candidate
				break
			}
		}
	}
	if p.command == nil {
		return nil, errors.New("audio: no system audio player found on PATH")
	}
	slog.Debug("audio: using system player", "command", p.command[0])
	return p, nil
}

// Play implements [Player].
func (p *ExecPlayer) Play(ctx context.Context, wav []byte) error {
	if len(wav) == 0 {
		return nil
	}

	f, err := os.CreateTemp("", "talkify-speech-*.wav")
	if err != nil {
		return fmt.Errorf("audio: create temp file: %w", err)
	}
	defer os.Remove(f.Name())
	if _, err := f.Write(wav); err != nil {
		f.Close()
		return fmt.Errorf("audio: write temp file: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("audio: close temp file: %w", err)
	}

	args := append(append([]string{}, p.command[1:]...), f.Name())
	cmd := exec.CommandContext(ctx, p.command[0], args...)

	p.mu.Lock()
	p.stopCurrentLocked()
	p.current = cmd
	p.stopped = false
	p.mu.Unlock()

	err = cmd.Run()

	p.mu.Lock()
	wasStopped := p.stopped
	if p.current == cmd {
		p.current = nil
	}
	p.mu.Unlock()

	if err != nil {
		// A deliberate stop (or context cancellation) kills the player
		// process; neither is a playback failure.
		if wasStopped || ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("audio: %s: %w", p.command[0], err)
	}
	return nil
}

// Stop implements [Player].
func (p *ExecPlayer) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopCurrentLocked()
}

// stopCurrentLocked kills the active player process. Callers must hold p.mu.
func (p *ExecPlayer) stopCurrentLocked() {
	if p.current != nil && p.current.Process != nil {
		p.stopped = true
		_ = p.current.Process.Kill()
	}
}
