package sqlite

import (
	"strings"

	"github.com/gridsight/blobstore"
)

// MaxParamIDs bounds the number of bound id parameters per query. SQLite
// caps bound parameters at 999; testing showed no gain between 250 and the
// cap, so reads chunk id collections at this size.
const MaxParamIDs = 250

// maxInParams is the IN fragment for a full-size chunk, precomputed once.
// The final, possibly smaller chunk regenerates the fragment at its own
// size.
var maxInParams = inParams(MaxParamIDs)

func inParams(n int) string {
	var b strings.Builder
	b.WriteString(" IN (")
	for i := 0; i < n; i++ {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteByte('?')
	}
	b.WriteByte(')')
	return b.String()
}

// buildQuery generates the multi-tag fetch statement. tags fixes the result
// column order: the caller extracts column i+2 as tags[i]'s data.
//
// Join strategy: a single requested tag inner-joins that tag's table to the
// id index, so only ids present in the tag appear. With multiple tags the
// query starts from the id index; a tag referenced by a predicate is
// inner-joined (the predicate must evaluate against a real value), any
// other tag is left-joined and surfaces as NULL when absent.
//
// Bind order is ids first, then one blob per predicate.
func buildQuery(tags []string, wheres []blobstore.WhereBlob, idCount int) string {
	var sql strings.Builder

	sql.WriteString("SELECT " + idIndexTable + ".entity_id")
	for _, tag := range tags {
		sql.WriteString(", " + tag + ".data")
	}

	if len(tags) == 1 {
		tag := tags[0]
		sql.WriteString(" FROM " + tag + " JOIN " + idIndexTable +
			" ON " + idIndexTable + ".id = " + tag + ".id")
	} else {
		sql.WriteString(" FROM " + idIndexTable)

		whereTags := make(map[string]bool, len(wheres))
		for _, w := range wheres {
			whereTags[w.Tag()] = true
		}
		for _, tag := range tags {
			if whereTags[tag] {
				sql.WriteString(" JOIN " + tag + " ON " + tag + ".id = " + idIndexTable + ".id")
			}
		}
		for _, tag := range tags {
			if !whereTags[tag] {
				sql.WriteString(" LEFT JOIN " + tag + " ON " + tag + ".id = " + idIndexTable + ".id")
			}
		}
	}

	if idCount > 0 {
		sql.WriteString(" WHERE " + idIndexTable + ".entity_id")
		if idCount == MaxParamIDs {
			sql.WriteString(maxInParams)
		} else {
			sql.WriteString(inParams(idCount))
		}
	}

	for i, w := range wheres {
		if i == 0 && idCount == 0 {
			sql.WriteString(" WHERE ")
		} else {
			sql.WriteString(" AND ")
		}
		op := "="
		if w.Match() == blobstore.MatchNotEqual {
			op = "<>"
		}
		sql.WriteString(w.Tag() + ".data " + op + " ?")
	}

	return sql.String()
}
