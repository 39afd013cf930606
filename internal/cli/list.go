package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewListCmd prints the library, starred entries first.
func NewListCmd(deps *Dependencies) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recordings",
		RunE: func(cmd *cobra.Command, args []string) error {
			recs, err := deps.Store.ListRecordings()
			if err != nil {
				return err
			}

			if len(recs) == 0 {
				fmt.Println("No recordings yet")
				return nil
			}

			for _, rec := range recs {
				star := " "
				if rec.IsStarred {
					star = "*"
				}
				transcribed := ""
				if rec.Transcription != "" {
					transcribed = "  [transcribed]"
				}
				fmt.Printf("%s %-40s %8s  %s%s\n",
					star,
					rec.Filename,
					formatDuration(rec.Duration),
					rec.CreatedAt.Format("2006-01-02 15:04"),
					transcribed,
				)
			}
			return nil
		},
	}
	return cmd
}
