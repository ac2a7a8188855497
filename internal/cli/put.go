package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

func NewPutCmd(app *App) *cobra.Command {
	var file, id string

	cmd := &cobra.Command{
		Use:   "put [job]",
		Short: "Add a job to the queue",
		Long: `Add a job to the queue and print its id.

With --file, every non-empty line of the file is a job; lines starting
with # are skipped. Use --file - to read from stdin.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			// creates the bucket or table on first use
			if err := app.Store.Init(cmd.Context()); err != nil {
				return fmt.Errorf("failed to init store: %w", err)
			}
			out := cmd.OutOrStdout()
			if file == "" {
				if len(args) != 1 {
					return fmt.Errorf("either a job or --file is required")
				}
				jobID, err := app.Queue.Put(cmd.Context(), args[0], id)
				if err != nil {
					return err
				}
				fmt.Fprintln(out, jobID)
				return nil
			}

			if len(args) > 0 || id != "" {
				return fmt.Errorf("--file cannot be combined with a job argument or --id")
			}
			jobs, err := readJobs(cmd, file)
			if err != nil {
				return err
			}
			for _, body := range jobs {
				jobID, err := app.Queue.Put(cmd.Context(), body, "")
				if err != nil {
					return err
				}
				fmt.Fprintln(out, jobID)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&file, "file", "", "read one job per line from this file")
	cmd.Flags().StringVar(&id, "id", "", "job id (default: a new UUID)")
	return cmd
}

func readJobs(cmd *cobra.Command, path string) ([]string, error) {
	var r io.Reader = cmd.InOrStdin()
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open job file: %w", err)
		}
		defer f.Close()
		r = f
	}

	var jobs []string
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 16*1024*1024)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		jobs = append(jobs, line)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("failed to read job file: %w", err)
	}
	return jobs, nil
}
