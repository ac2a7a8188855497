package cli

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

func NewLocksListCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "list [key]",
		Short: "List lock markers with owner and expiry",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			keys := args
			if len(keys) == 0 {
				var err error
				if keys, err = app.Locks.Keys(ctx); err != nil {
					return err
				}
			}

			now := time.Now()
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "KEY\tSTAMP\tOWNER\tCREATED\tEXPIRES")
			for _, key := range keys {
				markers, err := app.Locks.Markers(ctx, key)
				if err != nil {
					return err
				}
				for _, m := range markers {
					expires := "never"
					if !m.ExpiresAt.IsZero() {
						expires = humanize.RelTime(m.ExpiresAt, now, "ago", "from now")
						if m.Expired(now) {
							expires += " (expired)"
						}
					}
					fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", m.Key, m.Stamp, m.Owner, humanize.Time(m.CreatedAt), expires)
				}
			}
			return w.Flush()
		},
	}
}
