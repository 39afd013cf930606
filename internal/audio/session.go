package audio

import (
	"fmt"
	"sync"
)

// SessionKind identifies who is holding the audio device.
type SessionKind string

const (
	SessionRecording SessionKind = "recording"
	SessionPlayback  SessionKind = "playback"
)

// ErrSessionBusy is returned when the audio device is already held by
// another session. Recording and playback are mutually exclusive.
var ErrSessionBusy = fmt.Errorf("audio session busy")

// SessionGuard enforces that at most one audio session (recording or
// playback) is active at a time.
type SessionGuard struct {
	mu     sync.Mutex
	holder SessionKind
	active bool
}

// NewSessionGuard creates an idle guard.
func NewSessionGuard() *SessionGuard {
	return &SessionGuard{}
}

// Acquire claims the audio device for the given kind of session.
func (g *SessionGuard) Acquire(kind SessionKind) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.active {
		return fmt.Errorf("%w: %s session in progress", ErrSessionBusy, g.holder)
	}
	g.active = true
	g.holder = kind
	return nil
}

// Release frees the audio device. Releasing an idle guard is a no-op.
func (g *SessionGuard) Release() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.active = false
	g.holder = ""
}

// Holder reports the current session kind, or "" when idle.
func (g *SessionGuard) Holder() SessionKind {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.active {
		return ""
	}
	return g.holder
}
