package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewStarCmd stars a recording so it sorts to the top of the library.
func NewStarCmd(deps *Dependencies) *cobra.Command {
	return &cobra.Command{
		Use:   "star <id-or-filename>",
		Short: "Star a recording",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return deps.Store.StarRecording(args[0], true)
		},
	}
}

// NewUnstarCmd removes the star.
func NewUnstarCmd(deps *Dependencies) *cobra.Command {
	return &cobra.Command{
		Use:   "unstar <id-or-filename>",
		Short: "Unstar a recording",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return deps.Store.StarRecording(args[0], false)
		},
	}
}

// NewRenameCmd renames a recording, keeping file and metadata in step.
func NewRenameCmd(deps *Dependencies) *cobra.Command {
	return &cobra.Command{
		Use:   "rename <id-or-filename> <new-name>",
		Short: "Rename a recording",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := deps.Store.RenameRecording(args[0], args[1]); err != nil {
				return err
			}
			fmt.Printf("Renamed to %s\n", args[1])
			return nil
		},
	}
}

// NewDeleteCmd deletes a recording, its metadata, and derived audio.
func NewDeleteCmd(deps *Dependencies) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id-or-filename>",
		Short: "Delete a recording and its transcriptions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return deps.Store.DeleteRecording(args[0])
		},
	}
}
