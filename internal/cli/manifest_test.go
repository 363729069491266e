package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeManifestFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "blobstore.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadManifest(t *testing.T) {
	path := writeManifestFile(t, `
path: /var/lib/readings.db
tags:
  - voltage
  - current
`)

	m, err := LoadManifest(path)
	require.NoError(t, err)
	assert.Equal(t, "/var/lib/readings.db", m.Path)
	assert.Equal(t, []string{"voltage", "current"}, m.Tags)
}

func TestLoadManifestRejectsInvalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"missing path", "tags: [voltage]"},
		{"empty path", "path: \"\"\ntags: [voltage]"},
		{"missing tags", "path: /tmp/x.db"},
		{"empty tags", "path: /tmp/x.db\ntags: []"},
		{"bad tag charset", "path: /tmp/x.db\ntags: [\"volt-age\"]"},
		{"tag with spaces", "path: /tmp/x.db\ntags: [\"volt age\"]"},
		{"not yaml", "path: [unterminated"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadManifest(writeManifestFile(t, tt.content))
			assert.Error(t, err)
		})
	}
}

func TestLoadManifestMissingFile(t *testing.T) {
	_, err := LoadManifest(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestNormalizeKey(t *testing.T) {
	// e + combining acute composes to the single code point form.
	assert.Equal(t, "r\u00e9seau", normalizeKey("re\u0301seau"))
	assert.Equal(t, "plain", normalizeKey("plain"))
}
