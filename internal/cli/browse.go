package cli

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/jatadi/clarity/internal/tui"
)

// NewBrowseCmd opens the interactive library browser.
func NewBrowseCmd(deps *Dependencies) *cobra.Command {
	return &cobra.Command{
		Use:   "browse",
		Short: "Browse the library interactively",
		RunE: func(cmd *cobra.Command, args []string) error {
			model := tui.New(deps.Store, deps.Player)
			p := tea.NewProgram(model, tea.WithAltScreen())
			_, err := p.Run()
			return err
		},
	}
}
