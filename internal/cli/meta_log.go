package cli

import (
	"fmt"

	"bucketq/internal/stamp"

	"github.com/spf13/cobra"
)

func NewMetaLogCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "meta-log",
		Short: "Print the metadata log entries not yet squashed",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			entries, err := app.Meta.Log(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, e := range entries {
				at := e.Stamp
				if t, err := stamp.Parse(e.Stamp); err == nil {
					at = t.UTC().Format("2006-01-02T15:04:05.000000Z")
				}
				fmt.Fprintf(out, "%s\t%s\t%s\n", e.Stamp, at, e.Patch)
			}
			return nil
		},
	}
}
