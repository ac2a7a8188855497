package cli

import (
	"github.com/spf13/cobra"
)

func NewMetaSquashCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "meta-squash",
		Short: "Fold the metadata log into the base snapshot",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.Meta.Squash(cmd.Context())
		},
	}
}
