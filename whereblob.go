package blobstore

// MatchType is the comparison applied by a WhereBlob predicate.
type MatchType int

const (
	// MatchEqual keeps rows whose blob equals the predicate's bytes.
	MatchEqual MatchType = iota
	// MatchNotEqual keeps rows whose blob differs from the predicate's bytes.
	MatchNotEqual
)

// WhereBlob filters a ForAll query by an exact byte comparison against one
// tag's blob. It is immutable: the byte payload is copied on construction
// and again on every read.
type WhereBlob struct {
	tag   string
	blob  []byte
	match MatchType
}

// WhereBlobEqual returns a predicate matching blobs equal to blob.
func WhereBlobEqual(tag string, blob []byte) WhereBlob {
	return WhereBlob{tag: tag, blob: append([]byte(nil), blob...), match: MatchEqual}
}

// WhereBlobNotEqual returns a predicate matching blobs not equal to blob.
func WhereBlobNotEqual(tag string, blob []byte) WhereBlob {
	return WhereBlob{tag: tag, blob: append([]byte(nil), blob...), match: MatchNotEqual}
}

// Tag returns the tag the predicate applies to.
func (w WhereBlob) Tag() string { return w.tag }

// Blob returns a copy of the predicate's byte payload.
func (w WhereBlob) Blob() []byte { return append([]byte(nil), w.blob...) }

// Match returns the comparison kind.
func (w WhereBlob) Match() MatchType { return w.match }
