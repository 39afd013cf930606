package recorder

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"sync"
	"syscall"
	"time"

	"github.com/jatadi/clarity/internal/audio"
)

var (
	// ErrPermission means audio capture is unavailable (ffmpeg missing or
	// the input device cannot be opened).
	ErrPermission = errors.New("audio capture unavailable")

	// ErrNoActiveRecording is returned by Stop without a prior Start.
	ErrNoActiveRecording = errors.New("no active recording")
)

// Clip is a finished recording.
type Clip struct {
	Path     string
	Duration time.Duration
}

// Recorder captures microphone audio to timestamped files in the storage
// directory using ffmpeg. At most one recording is active at a time,
// enforced through the shared audio session guard.
type Recorder struct {
	dir   string
	guard *audio.SessionGuard

	mu        sync.Mutex
	cmd       *exec.Cmd
	path      string
	logFile   *os.File
	startedAt time.Time
}

// New creates a recorder writing into dir.
func New(dir string, guard *audio.SessionGuard) *Recorder {
	return &Recorder{dir: dir, guard: guard}
}

// Active reports whether a recording session is in progress.
func (r *Recorder) Active() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cmd != nil
}

// Start begins capturing to a new timestamped file and returns its path.
// Fails if ffmpeg is unavailable or another audio session is active.
func (r *Recorder) Start() (string, error) {
	if _, err := exec.LookPath("ffmpeg"); err != nil {
		return "", fmt.Errorf("%w: ffmpeg not found, install ffmpeg", ErrPermission)
	}

	if err := r.guard.Acquire(audio.SessionRecording); err != nil {
		return "", err
	}

	path := filepath.Join(r.dir, fmt.Sprintf("recording_%d.m4a", time.Now().UnixMilli()))

	cmd := exec.Command("ffmpeg", captureArgs(path)...)
	// ffmpeg logs to stderr; keep it for diagnostics
	var logFile *os.File
	if f, err := os.Create(path + ".ffmpeg.log"); err == nil {
		cmd.Stderr = f
		logFile = f
	}

	if err := cmd.Start(); err != nil {
		if logFile != nil {
			logFile.Close()
		}
		r.guard.Release()
		return "", fmt.Errorf("%w: %v", ErrPermission, err)
	}

	r.mu.Lock()
	r.cmd = cmd
	r.path = path
	r.logFile = logFile
	r.startedAt = time.Now()
	r.mu.Unlock()

	log.Printf("Recording started: %s", path)
	return path, nil
}

// Stop finalizes the capture and returns the clip. ffmpeg receives SIGINT
// so the container is written out cleanly.
func (r *Recorder) Stop() (*Clip, error) {
	r.mu.Lock()
	cmd := r.cmd
	path := r.path
	logFile := r.logFile
	startedAt := r.startedAt
	r.cmd = nil
	r.path = ""
	r.logFile = nil
	r.mu.Unlock()

	if cmd == nil {
		return nil, ErrNoActiveRecording
	}
	defer r.guard.Release()

	if cmd.Process != nil {
		_ = cmd.Process.Signal(syscall.SIGINT)
	}
	// ffmpeg exits non-zero on SIGINT; the file is still finalized
	_ = cmd.Wait()
	if logFile != nil {
		_ = logFile.Close()
	}
	_ = os.Remove(path + ".ffmpeg.log")

	duration := time.Since(startedAt)
	log.Printf("Recording stopped: %s (%s)", path, duration.Round(time.Millisecond))
	return &Clip{Path: path, Duration: duration}, nil
}

// StartLive begins capturing like Start, but additionally tees the
// microphone as 16kHz 16-bit mono PCM on the returned reader so a live
// caption session can consume it while the file is written.
func (r *Recorder) StartLive() (string, io.ReadCloser, error) {
	if _, err := exec.LookPath("ffmpeg"); err != nil {
		return "", nil, fmt.Errorf("%w: ffmpeg not found, install ffmpeg", ErrPermission)
	}

	if err := r.guard.Acquire(audio.SessionRecording); err != nil {
		return "", nil, err
	}

	path := filepath.Join(r.dir, fmt.Sprintf("recording_%d.m4a", time.Now().UnixMilli()))

	args := append(captureArgs(path),
		"-ac", "1",
		"-ar", "16000",
		"-f", "s16le",
		"pipe:1",
	)
	cmd := exec.Command("ffmpeg", args...)
	pcm, err := cmd.StdoutPipe()
	if err != nil {
		r.guard.Release()
		return "", nil, fmt.Errorf("%w: %v", ErrPermission, err)
	}

	if err := cmd.Start(); err != nil {
		r.guard.Release()
		return "", nil, fmt.Errorf("%w: %v", ErrPermission, err)
	}

	r.mu.Lock()
	r.cmd = cmd
	r.path = path
	r.startedAt = time.Now()
	r.mu.Unlock()

	log.Printf("Live recording started: %s", path)
	return path, pcm, nil
}

// Discard aborts the current recording and removes the partial file.
func (r *Recorder) Discard() error {
	clip, err := r.Stop()
	if err != nil {
		return err
	}
	if err := os.Remove(clip.Path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove discarded recording: %w", err)
	}
	return nil
}

// captureArgs builds the ffmpeg input arguments for the current platform.
func captureArgs(outputPath string) []string {
	var input []string
	switch runtime.GOOS {
	case "darwin":
		input = []string{"-f", "avfoundation", "-i", ":default"}
	default:
		input = []string{"-f", "pulse", "-i", "default"}
	}
	return append(input,
		"-ac", "1",
		"-ar", "44100",
		"-c:a", "aac",
		"-y",
		outputPath,
	)
}
