package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func NewReputCmd(app *App) *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "reput [id]...",
		Short: "Move queued jobs back to pending",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if all {
				if len(args) > 0 {
					return fmt.Errorf("--all takes no ids")
				}
				ids, err := app.Queue.ReputAll(cmd.Context())
				for _, id := range ids {
					fmt.Fprintln(out, "Reput:", id)
				}
				return err
			}
			if len(args) == 0 {
				return fmt.Errorf("at least one id or --all is required")
			}
			for _, id := range args {
				if err := app.Queue.Reput(cmd.Context(), id); err != nil {
					return err
				}
				fmt.Fprintln(out, "Reput:", id)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "reput every queued job")
	return cmd
}
