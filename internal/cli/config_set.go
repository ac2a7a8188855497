package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func NewConfigSetCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:         "set <key> <value>",
		Args:        cobra.ExactArgs(2),
		Short:       "Set a config value and save it",
		Annotations: map[string]string{skipStore: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			key, value := args[0], args[1]
			app.Config.Set(key, value)
			if err := app.Config.Save(app.ConfigPath); err != nil {
				return fmt.Errorf("failed to set config: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Updated:", key, "=", value)
			return nil
		},
	}
}
