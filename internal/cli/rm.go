package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewRmCommand creates the rm command.
func NewRmCommand(opts *RootOptions) *cobra.Command {
	var tag string

	cmd := &cobra.Command{
		Use:          "rm <id>",
		Short:        "Delete an id, or a single tag's blob for it",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			id := normalizeKey(args[0])

			store, _, err := openStore(opts)
			if err != nil {
				return err
			}
			defer store.Close()

			ctx := cmd.Context()
			writer := store.Writer()

			var ok bool
			if tag == "" {
				ok, err = writer.Delete(ctx, id)
			} else {
				ok, err = writer.DeleteTag(ctx, id, tag)
			}
			if err != nil {
				return err
			}
			if err := writer.Commit(ctx); err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("nothing stored for id %q", id)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&tag, "tag", "", "delete only this tag's blob")
	return cmd
}
