package cli

import "github.com/spf13/cobra"

func NewLocksRootCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "locks",
		Short: "Inspect and clean lock markers",
	}
}
