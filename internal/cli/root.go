// Package cli implements the blobstore command line tool: inspection and
// maintenance commands over a store described by a YAML manifest.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"golang.org/x/text/unicode/norm"

	"github.com/gridsight/blobstore/sqlite"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Manifest string
	Format   string // "text" | "json"
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the blobstore CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "blobstore",
		Short: "Inspect and maintain tag-addressed blob stores",
		Long: `blobstore reads and writes SQLite-backed blob stores.

A store is described by a YAML manifest naming the database file and the
registered tags; every command loads the manifest given by --manifest.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
	}

	cmd.PersistentFlags().StringVarP(&opts.Manifest, "manifest", "m", "blobstore.yaml", "store manifest file")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")

	cmd.AddCommand(NewValidateCommand(opts))
	cmd.AddCommand(NewIDsCommand(opts))
	cmd.AddCommand(NewGetCommand(opts))
	cmd.AddCommand(NewPutCommand(opts))
	cmd.AddCommand(NewRmCommand(opts))
	cmd.AddCommand(NewMetaCommand(opts))

	return cmd
}

func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}

// openStore loads the manifest and opens the store it describes.
func openStore(opts *RootOptions) (*sqlite.Store, *Manifest, error) {
	manifest, err := LoadManifest(opts.Manifest)
	if err != nil {
		return nil, nil, err
	}
	store, err := sqlite.Open(manifest.Path, manifest.Tags)
	if err != nil {
		return nil, nil, err
	}
	return store, manifest, nil
}

// normalizeKey brings command line ids and metadata keys to NFC, so the
// same visually-identical id always addresses the same row regardless of
// how the shell composed it.
func normalizeKey(s string) string {
	return norm.NFC.String(s)
}
