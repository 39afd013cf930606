package audio

import (
	"errors"
	"testing"
)

func TestSessionGuardExclusive(t *testing.T) {
	g := NewSessionGuard()

	if err := g.Acquire(SessionRecording); err != nil {
		t.Fatalf("first acquire: %v", err)
	}
	if g.Holder() != SessionRecording {
		t.Errorf("holder = %q, want recording", g.Holder())
	}

	if err := g.Acquire(SessionPlayback); !errors.Is(err, ErrSessionBusy) {
		t.Errorf("expected ErrSessionBusy, got %v", err)
	}
	// Same kind is still refused; the device is single-owner.
	if err := g.Acquire(SessionRecording); !errors.Is(err, ErrSessionBusy) {
		t.Errorf("expected ErrSessionBusy, got %v", err)
	}

	g.Release()
	if g.Holder() != "" {
		t.Errorf("holder after release = %q, want empty", g.Holder())
	}
	if err := g.Acquire(SessionPlayback); err != nil {
		t.Errorf("acquire after release: %v", err)
	}
}

func TestSessionGuardReleaseIdle(t *testing.T) {
	g := NewSessionGuard()
	g.Release()
	g.Release()
	if err := g.Acquire(SessionRecording); err != nil {
		t.Errorf("acquire after idle releases: %v", err)
	}
}
