package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

// NewPutCommand creates the put command.
func NewPutCommand(opts *RootOptions) *cobra.Command {
	var id string

	cmd := &cobra.Command{
		Use:   "put <tag> [file]",
		Short: "Store a blob under an id and tag",
		Long: `Store a blob read from file (or stdin) under the given tag. An
existing blob for the id and tag is replaced. If --id is not given a fresh
uuid is assigned and printed.`,
		Args:         cobra.RangeArgs(1, 2),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			tag := args[0]

			var blob []byte
			var err error
			if len(args) == 2 {
				blob, err = os.ReadFile(args[1])
			} else {
				blob, err = io.ReadAll(cmd.InOrStdin())
			}
			if err != nil {
				return fmt.Errorf("read blob: %w", err)
			}

			if id == "" {
				id = uuid.NewString()
			} else {
				id = normalizeKey(id)
			}

			store, _, err := openStore(opts)
			if err != nil {
				return err
			}
			defer store.Close()

			ctx := cmd.Context()
			writer := store.Writer()

			// Update first; fall back to a create for a fresh (id, tag).
			ok, err := writer.Update(ctx, id, tag, blob)
			if err != nil {
				return err
			}
			if !ok {
				if _, err := writer.Write(ctx, id, tag, blob); err != nil {
					return err
				}
			}
			if err := writer.Commit(ctx); err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), id)
			return nil
		},
	}

	cmd.Flags().StringVar(&id, "id", "", "logical id to store under (default: a new uuid)")
	return cmd
}
