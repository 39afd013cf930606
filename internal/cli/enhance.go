package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

// NewEnhanceCmd synthesizes the transcript of a recording as new audio.
func NewEnhanceCmd(deps *Dependencies) *cobra.Command {
	var voice string

	cmd := &cobra.Command{
		Use:   "enhance <id-or-filename>",
		Short: "Synthesize a recording's transcript as enhanced audio",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rec, err := deps.Store.Get(args[0])
			if err != nil {
				return err
			}

			if voice == "" {
				voice = deps.Config.Synthesis.DefaultVoice
			}

			ea, err := deps.Orchestrator.Enhance(context.Background(), rec, voice)
			if err != nil {
				return err
			}
			fmt.Printf("Enhanced audio written to %s\n", ea.Filepath)
			return nil
		},
	}

	cmd.Flags().StringVar(&voice, "voice", "", "Voice id to synthesize with")
	return cmd
}
