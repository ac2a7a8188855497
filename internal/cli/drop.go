package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func NewDropCmd(app *App) *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "drop",
		Short: "Remove every job",
		Long: `Remove every job in every state. With --all the whole store is
emptied, metadata and lock markers included.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if all {
				if err := app.Store.Drop(ctx); err != nil {
					return fmt.Errorf("failed to drop store: %w", err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Store emptied.")
				return nil
			}
			if err := app.Queue.Drop(ctx); err != nil {
				return fmt.Errorf("failed to drop queue: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Queue cleared.")
			return nil
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "also drop metadata")
	return cmd
}
