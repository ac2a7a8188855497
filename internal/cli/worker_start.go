package cli

import (
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"bucketq/internal/engine"

	"github.com/spf13/cobra"
)

func NewWorkerStartCmd(app *App) *cobra.Command {
	var count, maxQueued int
	var force bool

	cmd := &cobra.Command{
		Use:   "start",
		Short: "Start workers in the foreground",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if count < 1 {
				return fmt.Errorf("invalid worker count: %d", count)
			}
			if !cmd.Flags().Changed("max-queued") {
				maxQueued = app.Config.Queue.MaxQueued
			}
			wc := app.Config.Worker

			stop := &engine.StopFile{Path: wc.StopFile}
			stop.Remove()
			pid := engine.PIDFile{Path: wc.PIDFile}
			if err := pid.Write(os.Getpid()); err != nil {
				return fmt.Errorf("failed to write pid file: %w", err)
			}
			defer pid.Remove()

			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			if n, err := app.Locks.SweepAll(ctx); err != nil {
				app.Log.WithError(err).Warn("lock sweep failed")
			} else if n > 0 {
				app.Log.WithField("removed", n).Info("expired lock markers removed")
			}

			var wg sync.WaitGroup
			for i := 0; i < count; i++ {
				w := engine.NewWorker(app.Queue)
				w.Shell = wc.Shell
				w.IdleSleep = wc.IdleSleep
				w.MaxQueued = maxQueued
				w.Forced = force
				w.RequeueOnFailure = wc.RequeueOnFailure
				w.Stop = stop
				w.Log = app.Log.WithField("worker", i)

				wg.Add(1)
				go func() {
					defer wg.Done()
					w.Run(ctx)
				}()
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Started %d workers (PID: %d). Use `bucketq worker stop` to stop.\n", count, os.Getpid())
			wg.Wait()
			fmt.Fprintln(cmd.OutOrStdout(), "Workers stopped.")
			return nil
		},
	}

	cmd.Flags().IntVar(&count, "count", 1, "number of workers to start")
	cmd.Flags().BoolVar(&force, "force", false, "consume jobs without recording them as queued")
	cmd.Flags().IntVar(&maxQueued, "max-queued", 0, "wait while this many jobs are queued (default: queue.max_queued)")
	return cmd
}
