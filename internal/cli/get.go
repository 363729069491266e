package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gridsight/blobstore"
)

// NewGetCommand creates the get command.
func NewGetCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:          "get <id> <tag>",
		Short:        "Print the blob stored for an id and tag",
		Args:         cobra.ExactArgs(2),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			id, tag := normalizeKey(args[0]), args[1]

			store, _, err := openStore(opts)
			if err != nil {
				return err
			}
			defer store.Close()

			blob, err := blobstore.Get(cmd.Context(), store.Reader(), id, tag)
			if err != nil {
				return err
			}
			if blob == nil {
				return fmt.Errorf("no blob for id %q tag %q", id, tag)
			}

			if opts.Format == "json" {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(map[string]any{
					"id": id, "tag": tag, "bytes": blob,
				})
			}
			_, err = cmd.OutOrStdout().Write(blob)
			return err
		},
	}
}
