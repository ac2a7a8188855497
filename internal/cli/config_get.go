package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func NewConfigGetCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:         "get <key>",
		Args:        cobra.ExactArgs(1),
		Short:       "Get a default/current config value",
		Annotations: map[string]string{skipStore: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			val := app.Config.Get(args[0])
			if val == "" {
				fmt.Fprintln(cmd.OutOrStdout(), "(not set)")
			} else {
				fmt.Fprintln(cmd.OutOrStdout(), val)
			}
			return nil
		},
	}
}
