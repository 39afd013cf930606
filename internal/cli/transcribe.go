package cli

import (
	"github.com/spf13/cobra"
)

// NewTranscribeCmd runs the transcription pipeline for one recording.
func NewTranscribeCmd(deps *Dependencies) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "transcribe <id-or-filename>",
		Short: "Transcribe a recording (translates non-English audio)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rec, err := deps.Store.Get(args[0])
			if err != nil {
				return err
			}
			return runPipeline(deps, rec)
		},
	}
	return cmd
}
