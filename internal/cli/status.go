package cli

import (
	"fmt"

	"bucketq/internal/model"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

func NewStatusCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show queue status summary",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			stats, err := app.Queue.Stats(cmd.Context())
			if err != nil {
				return err
			}
			keys, err := app.Locks.Keys(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "Queue Status:")
			for _, s := range model.States {
				fmt.Fprintf(out, "  %-10s %s\n", s, humanize.Comma(int64(stats[s])))
			}
			fmt.Fprintf(out, "  %-10s %s\n", "locked", humanize.Comma(int64(len(keys))))
			return nil
		},
	}
}
