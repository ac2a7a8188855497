package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func NewInitCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create the backing bucket, table or directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.Store.Init(cmd.Context()); err != nil {
				return fmt.Errorf("failed to init store: %w", err)
			}
			return nil
		},
	}
}
