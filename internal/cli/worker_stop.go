package cli

import (
	"fmt"

	"bucketq/internal/engine"

	"github.com/spf13/cobra"
)

func NewWorkerStopCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:         "stop",
		Short:       "Gracefully stop running workers",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{skipStore: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			stop := &engine.StopFile{Path: app.Config.Worker.StopFile}
			if err := stop.Create(); err != nil {
				return fmt.Errorf("failed to request stop: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Stop requested. Workers will exit after finishing the current job.")
			return nil
		},
	}
}
