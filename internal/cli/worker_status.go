package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"syscall"

	"bucketq/internal/engine"

	"github.com/spf13/cobra"
)

func NewWorkerStatusCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:         "status",
		Short:       "Report whether workers are running",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{skipStore: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			pid, err := engine.PIDFile{Path: app.Config.Worker.PIDFile}.Read()
			if errors.Is(err, fs.ErrNotExist) {
				fmt.Fprintln(out, "Workers: not running")
				return nil
			}
			if err != nil {
				return fmt.Errorf("failed to read pid file: %w", err)
			}
			if !alive(pid) {
				fmt.Fprintf(out, "Workers: not running (stale pid %d)\n", pid)
				return nil
			}
			stop := &engine.StopFile{Path: app.Config.Worker.StopFile}
			if stop.Requested() {
				fmt.Fprintf(out, "Workers: stopping (PID: %d)\n", pid)
				return nil
			}
			fmt.Fprintf(out, "Workers: running (PID: %d)\n", pid)
			return nil
		},
	}
}

func alive(pid int) bool {
	p, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	return p.Signal(syscall.Signal(0)) == nil
}
