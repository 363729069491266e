package sqlite

import (
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"

	"github.com/gridsight/blobstore"
)

func newGoldie(t *testing.T) *goldie.Goldie {
	t.Helper()
	return goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
}

func TestBuildQueryGolden(t *testing.T) {
	tests := []struct {
		name    string
		tags    []string
		wheres  []blobstore.WhereBlob
		idCount int
	}{
		{
			name:    "single_tag",
			tags:    []string{"voltage"},
			idCount: 2,
		},
		{
			name:   "single_tag_where",
			tags:   []string{"voltage"},
			wheres: []blobstore.WhereBlob{blobstore.WhereBlobNotEqual("voltage", []byte("x"))},
		},
		{
			name:    "multi_tag",
			tags:    []string{"voltage", "current"},
			idCount: 3,
		},
		{
			name:   "multi_tag_where",
			tags:   []string{"voltage", "current"},
			wheres: []blobstore.WhereBlob{blobstore.WhereBlobEqual("current", []byte("x"))},
		},
		{
			name:    "ids_and_where",
			tags:    []string{"voltage", "current"},
			wheres:  []blobstore.WhereBlob{blobstore.WhereBlobEqual("voltage", []byte("x"))},
			idCount: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := newGoldie(t)
			g.Assert(t, tt.name, []byte(buildQuery(tt.tags, tt.wheres, tt.idCount)))
		})
	}
}

func TestBuildQueryFullChunkUsesPrecomputedFragment(t *testing.T) {
	query := buildQuery([]string{"voltage"}, nil, MaxParamIDs)
	assert.Equal(t, MaxParamIDs, strings.Count(query, "?"))
	assert.Contains(t, query, maxInParams)
}

func TestInParams(t *testing.T) {
	assert.Equal(t, " IN (?)", inParams(1))
	assert.Equal(t, " IN (?, ?, ?)", inParams(3))
	assert.Equal(t, maxInParams, inParams(MaxParamIDs))
}

func TestBuildQueryOmitsIDFilterForZeroIDs(t *testing.T) {
	query := buildQuery([]string{"voltage"}, nil, 0)
	assert.NotContains(t, query, "IN (")
	assert.NotContains(t, query, "WHERE")
}
