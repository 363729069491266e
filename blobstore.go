// Package blobstore defines the contracts for a key/tag-addressed blob
// store. Callers store opaque byte payloads against a logical id and a tag
// (a named category of blob). The sqlite subpackage provides the storage
// engine; the bydate subpackage layers date-partitioned, typed access on
// top of these contracts.
package blobstore

import "context"

// IDHandler is called once for every id found by an id enumeration.
type IDHandler func(id string)

// BlobHandler is called with a single blob as it is read from the store.
type BlobHandler func(id, tag string, blob []byte)

// TagsHandler is called once per id with the blobs of every requested tag.
// The map holds an entry for every requested tag; a tag with no stored row
// maps to nil. The map is reused between invocations, so callers must copy
// it if they retain it past the callback.
type TagsHandler func(id string, blobs map[string][]byte)

// Reader is the read half of a blob store.
//
// Reads stream: handlers are invoked row by row as the backend produces
// results, so large scans never buffer the full result set. Not-found is
// never an error; absent blobs simply do not reach the handler (or arrive
// as nil entries in a TagsHandler map).
type Reader interface {
	// IDs calls handler for every id in the store, regardless of tag.
	IDs(ctx context.Context, handler IDHandler) error

	// IDsWithTag calls handler for every id that has a blob for tag.
	IDsWithTag(ctx context.Context, tag string, handler IDHandler) error

	// ForEach reads the given tags for the given ids, calling handler once
	// per id found. An empty ids or tags argument is a no-op.
	ForEach(ctx context.Context, ids []string, tags []string, handler TagsHandler) error

	// ForAll reads the given tags for every id in the store, narrowed by
	// zero or more blob predicates. Each predicate forces presence of its
	// tag: ids lacking a row for a predicate tag are not reported.
	ForAll(ctx context.Context, tags []string, where []WhereBlob, handler TagsHandler) error

	// GetMetadata returns the metadata value for key. The second return is
	// false if the key is not present.
	GetMetadata(ctx context.Context, key string) (string, bool, error)

	// Close releases the reader's resources. It is safe to call Close
	// multiple times, and before the reader ever touched the backend.
	Close() error
}

// Writer is the write half of a blob store. All writes accumulate in an
// open transaction and are only durable after Commit; Rollback discards
// everything written since the last Commit.
//
// The boolean results report whether a row was affected: not-found and
// benign no-ops return false, they are never errors.
type Writer interface {
	// Write stores the first blob for (id, tag). It returns true only if
	// no blob was ever stored for that pair; writing the same pair twice
	// fails with an error naming the id.
	Write(ctx context.Context, id, tag string, blob []byte) (bool, error)

	// Update replaces the blob for (id, tag). It returns false if no blob
	// exists for that pair, and writes nothing.
	Update(ctx context.Context, id, tag string, blob []byte) (bool, error)

	// Delete removes the blobs of every registered tag for id, then the id
	// itself. It returns false if the id is not in the store.
	Delete(ctx context.Context, id string) (bool, error)

	// DeleteTag removes only the blob for (id, tag).
	DeleteTag(ctx context.Context, id, tag string) (bool, error)

	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error

	WriteMetadata(ctx context.Context, key, value string) (bool, error)
	UpdateMetadata(ctx context.Context, key, value string) (bool, error)
	DeleteMetadata(ctx context.Context, key string) (bool, error)

	// Close releases all cached statements and, if open, the connection.
	// Safe to call multiple times.
	Close() error
}

// Store couples a Reader and a Writer over a shared backend connection, so
// reads observe the writer's uncommitted changes. A Store is not safe for
// concurrent use; a single logical owner must serialize all calls.
type Store interface {
	Reader() Reader
	Writer() Writer
	Close() error
}

// AllIDs collects every id in the store into a slice.
func AllIDs(ctx context.Context, r Reader) ([]string, error) {
	var ids []string
	err := r.IDs(ctx, func(id string) { ids = append(ids, id) })
	return ids, err
}

// TagIDs collects every id that has a blob for tag.
func TagIDs(ctx context.Context, r Reader, tag string) ([]string, error) {
	var ids []string
	err := r.IDsWithTag(ctx, tag, func(id string) { ids = append(ids, id) })
	return ids, err
}

// Get returns the blob for (id, tag), or nil if absent.
func Get(ctx context.Context, r Reader, id, tag string) ([]byte, error) {
	var blob []byte
	err := ForEachTag(ctx, r, []string{id}, tag, func(_, _ string, b []byte) { blob = b })
	return blob, err
}

// GetMany returns the blobs of tag for the given ids, keyed by id. Ids with
// no blob for tag are omitted from the result.
func GetMany(ctx context.Context, r Reader, ids []string, tag string) (map[string][]byte, error) {
	if len(ids) == 0 {
		return map[string][]byte{}, nil
	}
	blobs := make(map[string][]byte)
	err := ForEachTag(ctx, r, ids, tag, func(id, _ string, b []byte) { blobs[id] = b })
	return blobs, err
}

// ForEachTag reads a single tag for the given ids, calling handler for each
// blob found. Ids with no blob for tag are skipped.
func ForEachTag(ctx context.Context, r Reader, ids []string, tag string, handler BlobHandler) error {
	return r.ForEach(ctx, ids, []string{tag}, func(id string, blobs map[string][]byte) {
		if blob := blobs[tag]; blob != nil {
			handler(id, tag, blob)
		}
	})
}

// GetAll returns every blob stored for tag, keyed by id.
func GetAll(ctx context.Context, r Reader, tag string) (map[string][]byte, error) {
	blobs := make(map[string][]byte)
	err := ForAllTag(ctx, r, tag, func(id, _ string, b []byte) { blobs[id] = b })
	return blobs, err
}

// ForAllTag reads a single tag for every id in the store, calling handler
// for each blob found.
func ForAllTag(ctx context.Context, r Reader, tag string, handler BlobHandler) error {
	return r.ForAll(ctx, []string{tag}, nil, func(id string, blobs map[string][]byte) {
		if blob := blobs[tag]; blob != nil {
			handler(id, tag, blob)
		}
	})
}
