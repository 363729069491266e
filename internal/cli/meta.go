package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewMetaCommand creates the meta command group.
func NewMetaCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "meta",
		Short: "Read and write store metadata",
	}
	cmd.AddCommand(newMetaGetCommand(opts))
	cmd.AddCommand(newMetaSetCommand(opts))
	cmd.AddCommand(newMetaDelCommand(opts))
	return cmd
}

func newMetaGetCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:          "get <key>",
		Short:        "Print a metadata value",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			key := normalizeKey(args[0])

			store, _, err := openStore(opts)
			if err != nil {
				return err
			}
			defer store.Close()

			value, ok, err := store.Reader().GetMetadata(cmd.Context(), key)
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("no metadata for key %q", key)
			}
			fmt.Fprintln(cmd.OutOrStdout(), value)
			return nil
		},
	}
}

func newMetaSetCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:          "set <key> <value>",
		Short:        "Write or replace a metadata value",
		Args:         cobra.ExactArgs(2),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			key, value := normalizeKey(args[0]), args[1]

			store, _, err := openStore(opts)
			if err != nil {
				return err
			}
			defer store.Close()

			ctx := cmd.Context()
			writer := store.Writer()

			ok, err := writer.UpdateMetadata(ctx, key, value)
			if err != nil {
				return err
			}
			if !ok {
				if _, err := writer.WriteMetadata(ctx, key, value); err != nil {
					return err
				}
			}
			return writer.Commit(ctx)
		},
	}
}

func newMetaDelCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:          "del <key>",
		Short:        "Delete a metadata key",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			key := normalizeKey(args[0])

			store, _, err := openStore(opts)
			if err != nil {
				return err
			}
			defer store.Close()

			ctx := cmd.Context()
			writer := store.Writer()

			ok, err := writer.DeleteMetadata(ctx, key)
			if err != nil {
				return err
			}
			if err := writer.Commit(ctx); err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("no metadata for key %q", key)
			}
			return nil
		},
	}
}
