package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/jatadi/clarity/internal/pipeline"
	"github.com/jatadi/clarity/internal/store"
)

const durationPrecision = time.Second

func millisToDuration(ms int64) time.Duration {
	return time.Duration(ms) * time.Millisecond
}

func formatDuration(d time.Duration) string {
	total := int(d / time.Second)
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}

// runPipeline processes one recording and prints the outcome.
func runPipeline(deps *Dependencies, rec *store.Recording) error {
	fmt.Printf("Transcribing %s...\n", rec.Filename)

	outcome, err := deps.Orchestrator.Process(context.Background(), rec)
	if err != nil {
		return err
	}

	if outcome.SoftErr != "" && outcome.Text == "" {
		fmt.Printf("No usable transcript: %s\n", outcome.SoftErr)
		fmt.Println("The recording is saved and can still be played back.")
		return nil
	}

	if outcome.Language != "" {
		fmt.Printf("Detected language: %s (confidence %.2f)\n", outcome.Language, outcome.Confidence)
	}
	fmt.Println()
	fmt.Println(outcome.Display())

	if outcome.Translated != "" {
		fmt.Println()
		fmt.Println("Original:")
		fmt.Println(outcome.Text)
	}
	return nil
}

// PrintProgress is the default pipeline observer for CLI commands.
func PrintProgress(u pipeline.Update) {
	switch u.State {
	case pipeline.StateUploading:
		fmt.Println("  uploading audio...")
	case pipeline.StateTranscribing:
		fmt.Println("  waiting for transcription...")
	case pipeline.StateTranslating:
		if u.Outcome != nil && u.Outcome.Text != "" {
			fmt.Println("  transcript ready, translating to English...")
		}
	case pipeline.StateSynthesizing:
		fmt.Println("  synthesizing audio...")
	}
}
