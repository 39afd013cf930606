package cli

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jatadi/clarity/internal/store"
	"github.com/jatadi/clarity/internal/transcribe"
)

// NewRecordCmd records a memo until Ctrl+C, then saves it.
func NewRecordCmd(deps *Dependencies) *cobra.Command {
	var name string
	var live bool
	var process bool

	cmd := &cobra.Command{
		Use:   "record",
		Short: "Record a voice memo (Ctrl+C to stop)",
		RunE: func(cmd *cobra.Command, args []string) error {
			if live {
				return runLiveRecording(deps, name, process)
			}
			return runRecording(deps, name, process)
		},
	}

	cmd.Flags().StringVarP(&name, "name", "n", "", "Save the memo under this name")
	cmd.Flags().BoolVar(&live, "live", false, "Show live captions while recording")
	cmd.Flags().BoolVar(&process, "transcribe", false, "Run the transcription pipeline after saving")

	return cmd
}

func runRecording(deps *Dependencies, name string, process bool) error {
	if _, err := deps.Recorder.Start(); err != nil {
		return err
	}
	fmt.Printf("Recording... press Ctrl+C to stop\n")

	waitForInterrupt()

	clip, err := deps.Recorder.Stop()
	if err != nil {
		return err
	}

	rec, err := saveClip(deps, clip.Path, clip.Duration.Milliseconds(), name, "")
	if err != nil {
		return err
	}

	fmt.Printf("Saved %s (%s)\n", rec.Filename, clip.Duration.Round(durationPrecision))
	if process {
		return runPipeline(deps, rec)
	}
	return nil
}

func runLiveRecording(deps *Dependencies, name string, process bool) error {
	session, err := transcribe.NewLiveSession("", deps.Config.Transcription.APIKey, 16000)
	if err != nil {
		return err
	}

	_, pcm, err := deps.Recorder.StartLive()
	if err != nil {
		session.Close()
		return err
	}
	fmt.Printf("Recording with live captions... press Ctrl+C to stop\n")

	go func() {
		_ = session.Feed(pcm)
	}()
	go func() {
		for res := range session.Results() {
			if res.IsFinal {
				fmt.Printf("  %s\n", res.Text)
			}
		}
	}()

	waitForInterrupt()

	clip, err := deps.Recorder.Stop()
	if err != nil {
		session.Close()
		return err
	}
	_ = session.Close()

	// The live captions double as an immediate transcription.
	rec, err := saveClip(deps, clip.Path, clip.Duration.Milliseconds(), name, session.Transcript())
	if err != nil {
		return err
	}

	fmt.Printf("Saved %s (%s)\n", rec.Filename, clip.Duration.Round(durationPrecision))
	if process {
		return runPipeline(deps, rec)
	}
	return nil
}

// saveClip renames the clip when a name was given and persists the row
// (plus a transcription row when live captions produced text).
func saveClip(deps *Dependencies, path string, durationMs int64, name, transcript string) (*store.Recording, error) {
	filename := filepath.Base(path)
	rec := &store.Recording{
		Filename: filename,
		Filepath: path,
	}
	rec.Duration = millisToDuration(durationMs)

	if err := deps.Store.SaveRecording(rec, transcript); err != nil {
		return nil, err
	}

	if name != "" {
		if err := deps.Store.RenameRecording(rec.ID, name); err != nil {
			return nil, err
		}
		return deps.Store.Get(rec.ID)
	}
	return rec, nil
}

func waitForInterrupt() {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan
	signal.Stop(sigChan)
}
