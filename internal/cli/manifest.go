package cli

import (
	"fmt"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueyaml "cuelang.org/go/encoding/yaml"
	"gopkg.in/yaml.v3"
)

// Manifest describes a store: the database file and its registered tags.
type Manifest struct {
	Path string   `yaml:"path" json:"path"`
	Tags []string `yaml:"tags" json:"tags"`
}

// manifestSchema constrains manifests before any store I/O happens: a
// non-empty path and at least one tag, each restricted to the identifier
// character set the engine accepts.
const manifestSchema = `
#Manifest: {
	path: string & !=""
	tags: [=~"^[A-Za-z0-9_]+$", ...=~"^[A-Za-z0-9_]+$"]
}
`

// LoadManifest reads a YAML manifest and validates it against the embedded
// CUE schema.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	if err := validateManifest(path, data); err != nil {
		return nil, err
	}

	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse manifest %s: %w", path, err)
	}
	return &m, nil
}

func validateManifest(path string, data []byte) error {
	ctx := cuecontext.New()

	schema := ctx.CompileString(manifestSchema).LookupPath(cue.ParsePath("#Manifest"))
	if err := schema.Err(); err != nil {
		return fmt.Errorf("compile manifest schema: %w", err)
	}

	file, err := cueyaml.Extract(path, data)
	if err != nil {
		return fmt.Errorf("parse manifest %s: %w", path, err)
	}
	value := ctx.BuildFile(file)
	if err := value.Err(); err != nil {
		return fmt.Errorf("parse manifest %s: %w", path, err)
	}

	if err := schema.Unify(value).Validate(cue.Concrete(true)); err != nil {
		return fmt.Errorf("invalid manifest %s: %w", path, err)
	}
	return nil
}
