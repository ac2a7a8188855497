package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func NewLeftCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "left",
		Short: "Print the number of pending jobs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := app.Queue.Size(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), n)
			return nil
		},
	}
}
