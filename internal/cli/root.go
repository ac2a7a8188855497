package cli

import (
	"fmt"
	"strings"

	"bucketq/internal/model"
	"bucketq/internal/store"

	"github.com/spf13/cobra"
)

// skipStore marks commands that only need configuration.
const skipStore = "skip-store"

func NewRootCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "bucketq",
		Short:         "Job queue and metadata store on a flat object store",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := app.Load(); err != nil {
				return err
			}
			if cmd.Annotations[skipStore] != "" {
				return nil
			}
			return app.Open(cmd.Context())
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			app.Close()
		},
	}

	cmd.PersistentFlags().StringVar(&app.ConfigPath, "config", "", "config file (default: ./bucketq.yaml, $HOME/.bucketq/bucketq.yaml)")
	cmd.PersistentFlags().StringVar(&app.StoreURL, "store", "", fmt.Sprintf("store url, overrides store.url; schemes: %s", strings.Join(store.Schemes(), ", ")))
	cmd.PersistentFlags().StringVar(&app.LogLevel, "log-level", "", "log level, overrides logger.level")

	cmd.AddCommand(
		NewInitCmd(app),
		NewPutCmd(app),
		NewGetCmd(app),
		NewLeftCmd(app),
		NewListCmd(app, model.StatePending),
		NewListCmd(app, model.StateQueued),
		NewListCmd(app, model.StateFinished),
		NewStatusCmd(app),
		NewDeleteCmd(app),
		NewReputCmd(app),
		NewFinishCmd(app),
		NewDropCmd(app),
		NewMetaGetCmd(app),
		NewMetaUpdCmd(app),
		NewMetaDropCmd(app),
		NewMetaSquashCmd(app),
		NewMetaLogCmd(app),
		newLocksCmd(app),
		newWorkerCmd(app),
		newConfigCmd(app),
	)
	return cmd
}

func newLocksCmd(app *App) *cobra.Command {
	cmd := NewLocksRootCmd()
	cmd.AddCommand(NewLocksListCmd(app), NewLocksSweepCmd(app))
	return cmd
}

func newWorkerCmd(app *App) *cobra.Command {
	cmd := NewWorkerRootCmd()
	cmd.AddCommand(NewWorkerStartCmd(app), NewWorkerStopCmd(app), NewWorkerStatusCmd(app))
	return cmd
}

func newConfigCmd(app *App) *cobra.Command {
	cmd := NewConfigRootCmd()
	cmd.AddCommand(NewConfigGetCmd(app), NewConfigSetCmd(app))
	return cmd
}
