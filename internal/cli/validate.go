package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

// NewValidateCommand creates the validate command.
func NewValidateCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate the store manifest",
		Long: `Validate the manifest against the manifest schema without touching
the database file.`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			manifest, err := LoadManifest(opts.Manifest)
			if err != nil {
				return err
			}
			if opts.Format == "json" {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(manifest)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: ok (%d tags)\n", opts.Manifest, len(manifest.Tags))
			return nil
		},
	}
}
