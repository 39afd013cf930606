package recorder

import (
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jatadi/clarity/internal/audio"
)

func TestStopWithoutStart(t *testing.T) {
	r := New(t.TempDir(), audio.NewSessionGuard())
	if _, err := r.Stop(); !errors.Is(err, ErrNoActiveRecording) {
		t.Errorf("expected ErrNoActiveRecording, got %v", err)
	}
}

func TestDiscardWithoutStart(t *testing.T) {
	r := New(t.TempDir(), audio.NewSessionGuard())
	if err := r.Discard(); !errors.Is(err, ErrNoActiveRecording) {
		t.Errorf("expected ErrNoActiveRecording, got %v", err)
	}
}

func TestActiveIdle(t *testing.T) {
	r := New(t.TempDir(), audio.NewSessionGuard())
	if r.Active() {
		t.Error("recorder should be idle before Start")
	}
}

// A start/stop cycle must release the session guard and leave no
// .ffmpeg.log (or its open handle) behind.
func TestStopReleasesResources(t *testing.T) {
	if _, err := exec.LookPath("ffmpeg"); err != nil {
		t.Skip("ffmpeg not installed")
	}

	dir := t.TempDir()
	guard := audio.NewSessionGuard()
	r := New(dir, guard)

	if _, err := r.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if !r.Active() {
		t.Error("recorder should be active after Start")
	}

	clip, err := r.Stop()
	if err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if r.Active() {
		t.Error("recorder still active after Stop")
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".ffmpeg.log") {
			t.Errorf("stderr log %s left behind", e.Name())
		}
	}
	if filepath.Dir(clip.Path) != dir {
		t.Errorf("clip path %s outside storage dir", clip.Path)
	}

	// Guard must be free for the next session.
	if err := guard.Acquire(audio.SessionPlayback); err != nil {
		t.Errorf("guard not released after Stop: %v", err)
	}
}

func TestCaptureArgs(t *testing.T) {
	args := captureArgs("/tmp/out.m4a")
	if len(args) == 0 {
		t.Fatal("no args")
	}
	if args[len(args)-1] != "/tmp/out.m4a" {
		t.Errorf("output path must be last, got %q", args[len(args)-1])
	}

	has := func(flag, value string) bool {
		for i := 0; i < len(args)-1; i++ {
			if args[i] == flag && args[i+1] == value {
				return true
			}
		}
		return false
	}
	if !has("-c:a", "aac") {
		t.Error("missing aac codec")
	}
	if !has("-ar", "44100") {
		t.Error("missing sample rate")
	}
}
