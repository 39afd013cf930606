package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

// NewVoicesCmd lists the synthesis voices the provider offers.
func NewVoicesCmd(deps *Dependencies) *cobra.Command {
	return &cobra.Command{
		Use:   "voices",
		Short: "List available synthesis voices",
		RunE: func(cmd *cobra.Command, args []string) error {
			voices, err := deps.Synth.Voices(context.Background())
			if err != nil {
				return err
			}
			for _, v := range voices {
				marker := " "
				if v.ID == deps.Config.Synthesis.DefaultVoice {
					marker = "*"
				}
				fmt.Printf("%s %-24s %s\n", marker, v.Name, v.ID)
			}
			return nil
		},
	}
}
