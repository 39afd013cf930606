// Package cli defines the cobra command tree.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/jatadi/clarity/internal/audio"
	"github.com/jatadi/clarity/internal/config"
	"github.com/jatadi/clarity/internal/pipeline"
	"github.com/jatadi/clarity/internal/recorder"
	"github.com/jatadi/clarity/internal/store"
	"github.com/jatadi/clarity/internal/synth"
)

// Dependencies carries the wired application services into the commands.
type Dependencies struct {
	Config       *config.Config
	Store        *store.Store
	Recorder     *recorder.Recorder
	Player       *audio.Player
	Guard        *audio.SessionGuard
	Orchestrator *pipeline.Orchestrator
	Synth        *synth.Client
}

// NewRootCmd builds the root command.
func NewRootCmd(deps *Dependencies) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "clarity",
		Short: "Record voice memos, transcribe, translate, and browse them",
		Long: "clarity records voice memos, keeps a local library, and runs an\n" +
			"asynchronous cloud pipeline per memo: transcription with language\n" +
			"detection and diarization, translation to English, and optional\n" +
			"speech re-synthesis.",
		SilenceUsage: true,
	}

	rootCmd.AddCommand(NewRecordCmd(deps))
	rootCmd.AddCommand(NewListCmd(deps))
	rootCmd.AddCommand(NewPlayCmd(deps))
	rootCmd.AddCommand(NewTranscribeCmd(deps))
	rootCmd.AddCommand(NewEnhanceCmd(deps))
	rootCmd.AddCommand(NewStarCmd(deps))
	rootCmd.AddCommand(NewUnstarCmd(deps))
	rootCmd.AddCommand(NewRenameCmd(deps))
	rootCmd.AddCommand(NewDeleteCmd(deps))
	rootCmd.AddCommand(NewVoicesCmd(deps))
	rootCmd.AddCommand(NewBrowseCmd(deps))

	return rootCmd
}
