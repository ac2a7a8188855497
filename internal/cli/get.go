package cli

import (
	"fmt"

	"bucketq/internal/queue"

	"github.com/spf13/cobra"
)

func NewGetCmd(app *App) *cobra.Command {
	var verbose, force, wait bool
	var maxQueued int

	cmd := &cobra.Command{
		Use:   "get",
		Short: "Take a pending job and print it",
		Long: `Take a pending job and print its body. Nothing is printed when no
job is available. With --wait it polls until one appears.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("max-queued") {
				maxQueued = app.Config.Queue.MaxQueued
			}
			job, err := app.Queue.Get(cmd.Context(), queue.GetOptions{
				Block:     wait,
				Forced:    force,
				MaxQueued: maxQueued,
			})
			if err != nil {
				return err
			}
			if job == nil {
				return nil
			}
			if verbose {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", job.ID, job.Body)
			} else {
				fmt.Fprintln(cmd.OutOrStdout(), job.Body)
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "print the job id before the body")
	cmd.Flags().BoolVar(&force, "force", false, "consume the job without recording it as queued")
	cmd.Flags().BoolVar(&wait, "wait", false, "poll until a job is available")
	cmd.Flags().IntVar(&maxQueued, "max-queued", 0, "wait while this many jobs are queued (default: queue.max_queued)")
	return cmd
}
