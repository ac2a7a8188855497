package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func NewLocksSweepCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "sweep [key]",
		Short: "Remove expired lock markers",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var n int
			var err error
			if len(args) == 1 {
				n, err = app.Locks.Sweep(cmd.Context(), args[0])
			} else {
				n, err = app.Locks.SweepAll(cmd.Context())
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d expired markers.\n", n)
			return nil
		},
	}
}
