package blobstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWhereBlobCopiesOnConstruction(t *testing.T) {
	blob := []byte{1, 2, 3}
	w := WhereBlobEqual("voltage", blob)

	blob[0] = 99
	assert.Equal(t, []byte{1, 2, 3}, w.Blob())
}

func TestWhereBlobCopiesOnRead(t *testing.T) {
	w := WhereBlobNotEqual("voltage", []byte{1, 2, 3})

	got := w.Blob()
	got[0] = 99
	assert.Equal(t, []byte{1, 2, 3}, w.Blob())
}

func TestWhereBlobAccessors(t *testing.T) {
	eq := WhereBlobEqual("voltage", []byte{1})
	assert.Equal(t, "voltage", eq.Tag())
	assert.Equal(t, MatchEqual, eq.Match())

	ne := WhereBlobNotEqual("current", nil)
	assert.Equal(t, "current", ne.Tag())
	assert.Equal(t, MatchNotEqual, ne.Match())
}
