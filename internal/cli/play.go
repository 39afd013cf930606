package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewPlayCmd plays a recording, or its latest enhanced audio.
func NewPlayCmd(deps *Dependencies) *cobra.Command {
	var enhanced bool

	cmd := &cobra.Command{
		Use:   "play <id-or-filename>",
		Short: "Play a recording",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rec, err := deps.Store.Get(args[0])
			if err != nil {
				return err
			}

			path := rec.Filepath
			if enhanced {
				ea, err := deps.Store.LatestEnhancedAudio(rec.ID)
				if err != nil {
					return err
				}
				if ea == nil {
					return fmt.Errorf("recording %s has no enhanced audio", rec.Filename)
				}
				path = ea.Filepath
			}

			return deps.Player.Play(path)
		},
	}

	cmd.Flags().BoolVar(&enhanced, "enhanced", false, "Play the latest synthesized audio instead")
	return cmd
}
