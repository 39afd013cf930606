package audio

import (
	"fmt"
	"log"
	"os"
	"os/exec"
	"sync"
)

// Player plays local audio files through ffplay. Playback holds the
// session guard so it cannot overlap a recording session.
type Player struct {
	guard *SessionGuard

	mu  sync.Mutex
	cmd *exec.Cmd
}

// NewPlayer creates a player sharing the given session guard.
func NewPlayer(guard *SessionGuard) *Player {
	return &Player{guard: guard}
}

// Play starts playback of the file and blocks until it finishes or Stop
// is called.
func (p *Player) Play(path string) error {
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("audio file not found: %w", err)
	}
	if _, err := exec.LookPath("ffplay"); err != nil {
		return fmt.Errorf("ffplay not found, install ffmpeg: %w", err)
	}

	if err := p.guard.Acquire(SessionPlayback); err != nil {
		return err
	}
	defer p.guard.Release()

	cmd := exec.Command("ffplay", "-nodisp", "-autoexit", "-loglevel", "quiet", path)

	p.mu.Lock()
	p.cmd = cmd
	p.mu.Unlock()

	log.Printf("Playing %s", path)
	err := cmd.Run()

	p.mu.Lock()
	p.cmd = nil
	p.mu.Unlock()

	// Stop kills the process; treat that exit as normal
	if err != nil && cmd.ProcessState != nil && !cmd.ProcessState.Exited() {
		return nil
	}
	if err != nil {
		return fmt.Errorf("playback failed: %w", err)
	}
	return nil
}

// Stop terminates the current playback, if any.
func (p *Player) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cmd != nil && p.cmd.Process != nil {
		_ = p.cmd.Process.Kill()
	}
}
