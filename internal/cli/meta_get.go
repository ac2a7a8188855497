package cli

import (
	"encoding/json"
	"fmt"

	"bucketq/internal/meta"

	"github.com/spf13/cobra"
)

func NewMetaGetCmd(app *App) *cobra.Command {
	var query string

	cmd := &cobra.Command{
		Use:   "meta-get",
		Short: "Print the metadata document",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := app.Meta.Get(cmd.Context())
			if err != nil {
				return err
			}
			if query != "" {
				if v, err = meta.Query(v, query); err != nil {
					return err
				}
			}
			b, err := json.MarshalIndent(v, "", "    ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(b))
			return nil
		},
	}

	cmd.Flags().StringVarP(&query, "query", "q", "", `path into the document, e.g. "$.workers[0].name"`)
	return cmd
}
