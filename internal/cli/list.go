package cli

import (
	"context"
	"fmt"
	"sort"

	"bucketq/internal/model"

	"github.com/spf13/cobra"
)

// NewListCmd lists the jobs in one state: bodies by default, id and body
// with -v, or ids alone with --ids.
func NewListCmd(app *App, state model.State) *cobra.Command {
	var verbose, idsOnly bool

	cmd := &cobra.Command{
		Use:   string(state),
		Short: fmt.Sprintf("List %s jobs", state),
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()
			if idsOnly {
				ids, err := app.Queue.IDs(ctx, state)
				if err != nil {
					return err
				}
				for _, id := range ids {
					fmt.Fprintln(out, id)
				}
				return nil
			}

			jobs, err := snapshot(ctx, app, state)
			if err != nil {
				return err
			}
			ids := make([]string, 0, len(jobs))
			for id := range jobs {
				ids = append(ids, id)
			}
			sort.Strings(ids)
			for _, id := range ids {
				if verbose {
					fmt.Fprintf(out, "%s\t%s\n", id, jobs[id])
				} else {
					fmt.Fprintln(out, jobs[id])
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "print job ids before bodies")
	cmd.Flags().BoolVar(&idsOnly, "ids", false, "print job ids only")
	cmd.MarkFlagsMutuallyExclusive("verbose", "ids")
	return cmd
}

func snapshot(ctx context.Context, app *App, state model.State) (map[string]string, error) {
	switch state {
	case model.StateQueued:
		return app.Queue.Queued(ctx)
	case model.StateFinished:
		return app.Queue.Finished(ctx)
	}
	return app.Queue.Pending(ctx)
}
