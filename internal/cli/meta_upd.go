package cli

import (
	"fmt"
	"io"
	"os"

	"bucketq/internal/meta"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func NewMetaUpdCmd(app *App) *cobra.Command {
	var file string
	var noSquash bool

	cmd := &cobra.Command{
		Use:   "meta-upd [patch]",
		Short: "Merge a JSON or YAML patch into the metadata",
		Long: `Append a patch to the metadata log. Null values delete keys, objects
merge recursively, lists are appended and anything else replaces the
current value.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var src []byte
			switch {
			case file != "" && len(args) > 0:
				return fmt.Errorf("give a patch or --file, not both")
			case file == "-":
				b, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return fmt.Errorf("failed to read patch: %w", err)
				}
				src = b
			case file != "":
				b, err := os.ReadFile(file)
				if err != nil {
					return fmt.Errorf("failed to read patch: %w", err)
				}
				src = b
			case len(args) == 1:
				src = []byte(args[0])
			default:
				return fmt.Errorf("a patch or --file is required")
			}

			patch, err := decodePatch(src)
			if err != nil {
				return err
			}
			return app.Meta.Update(cmd.Context(), patch, !noSquash)
		},
	}

	cmd.Flags().StringVar(&file, "file", "", "read the patch from this file (- for stdin)")
	cmd.Flags().BoolVar(&noSquash, "no-squash", false, "never squash the log after writing")
	return cmd
}

// decodePatch accepts YAML, which covers JSON documents as well.
func decodePatch(src []byte) (meta.Value, error) {
	var x any
	if err := yaml.Unmarshal(src, &x); err != nil {
		return meta.Value{}, fmt.Errorf("invalid patch: %w", err)
	}
	return meta.FromAny(x)
}
