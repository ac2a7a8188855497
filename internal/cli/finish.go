package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func NewFinishCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "finish <id>...",
		Short: "Mark queued jobs as finished",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, id := range args {
				if err := app.Queue.Finish(cmd.Context(), id); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Finished:", id)
			}
			return nil
		},
	}
}
