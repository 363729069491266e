package cli

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/gridsight/blobstore"
)

// NewIDsCommand creates the ids command.
func NewIDsCommand(opts *RootOptions) *cobra.Command {
	var tag string

	cmd := &cobra.Command{
		Use:          "ids",
		Short:        "List the ids in the store",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, _, err := openStore(opts)
			if err != nil {
				return err
			}
			defer store.Close()

			ctx := cmd.Context()
			var ids []string
			if tag == "" {
				ids, err = blobstore.AllIDs(ctx, store.Reader())
			} else {
				ids, err = blobstore.TagIDs(ctx, store.Reader(), tag)
			}
			if err != nil {
				return err
			}
			sort.Strings(ids)

			if opts.Format == "json" {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(ids)
			}
			for _, id := range ids {
				fmt.Fprintln(cmd.OutOrStdout(), id)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&tag, "tag", "", "only ids that have a blob for this tag")
	return cmd
}
