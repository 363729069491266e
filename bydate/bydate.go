// Package bydate layers date-partitioned, typed access over the blobstore
// contracts. Each calendar date (resolved in a fixed time zone) maps to its
// own store; providers supply the reader or writer for a date, and
// pluggable decoders turn raw blobs into typed items.
//
// Decode failures and storage errors are reported through an ItemError
// callback rather than propagated: a bad blob for one item never aborts a
// scan over the rest.
package bydate

import (
	"context"
	"time"

	"github.com/gridsight/blobstore"
)

// ItemError receives read or write failures for an item. id is empty when
// the failure is not attributable to a single item.
type ItemError func(id string, date time.Time, msg string, err error)

// ReaderProvider resolves the blob reader holding the given date's data, in
// the given time zone. A nil reader (with nil error) means no store exists
// for that date; reads treat it as empty.
type ReaderProvider func(ctx context.Context, date time.Time, loc *time.Location) (blobstore.Reader, error)

// WriterProvider resolves the blob writer for the given date's store.
type WriterProvider func(ctx context.Context, date time.Time, loc *time.Location) (blobstore.Writer, error)

// TagDecoder decodes a single tag's blob into a typed value.
type TagDecoder func(id string, date time.Time, tag string, blob []byte) (any, error)

// ItemDecoder assembles one item from the blobs of all registered tags.
// The blobs map holds an entry for every registered tag; absent tags map
// to nil.
type ItemDecoder[T any] func(id string, date time.Time, blobs map[string][]byte) (T, error)

// ItemHandler receives one decoded item.
type ItemHandler[T any] func(id string, date time.Time, item T)

// dateKey normalizes a timestamp to its calendar date in loc.
func dateKey(date time.Time, loc *time.Location) string {
	return date.In(loc).Format(time.DateOnly)
}
