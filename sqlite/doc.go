// Package sqlite implements the blobstore contracts on a single-file SQLite
// database.
//
// Layout on disk: a schema_version marker table, an entity_ids table mapping
// each logical id to an integer surrogate key, a flat metadata key/value
// table, and one (id INTEGER PRIMARY KEY, data BLOB) WITHOUT ROWID table per
// registered tag. Tag names are validated at construction time against a
// closed character set; they are spliced as raw identifiers into every
// generated statement thereafter, so that validation is the injection-safety
// boundary.
//
// A Store shares one connection between its Reader and Writer with
// autocommit disabled, so reads observe the writer's uncommitted changes.
// Nothing here is safe for concurrent use: a single logical owner must
// serialize all calls into a Store.
package sqlite
