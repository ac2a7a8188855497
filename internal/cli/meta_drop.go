package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func NewMetaDropCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "meta-drop",
		Short: "Delete the metadata and its log",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.Meta.Drop(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Metadata dropped.")
			return nil
		},
	}
}
