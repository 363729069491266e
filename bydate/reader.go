package bydate

import (
	"context"
	"sort"
	"time"

	"github.com/gridsight/blobstore"
)

// ItemReader reads typed items from date-partitioned blob stores. The tag
// set it requests is the key set of its tag decoders.
type ItemReader[T any] struct {
	loc         *time.Location
	provider    ReaderProvider
	tagDecoders map[string]TagDecoder
	decodeItem  ItemDecoder[T]
}

// NewItemReader returns an ItemReader resolving dates in loc through
// provider. SetDecoders must be called before reading.
func NewItemReader[T any](loc *time.Location, provider ReaderProvider) *ItemReader[T] {
	return &ItemReader[T]{loc: loc, provider: provider}
}

// SetDecoders installs the item decoder and the per-tag decoders. The tag
// decoder keys define which tags are fetched.
func (r *ItemReader[T]) SetDecoders(decodeItem ItemDecoder[T], tagDecoders map[string]TagDecoder) {
	r.decodeItem = decodeItem
	r.tagDecoders = tagDecoders
}

// Get reads and decodes the item with the given id on date. The second
// return is false if the id is absent or failed to decode.
func (r *ItemReader[T]) Get(ctx context.Context, id string, date time.Time, onError ItemError) (T, bool) {
	var item T
	var found bool
	r.ForEach(ctx, []string{id}, date, func(_ string, _ time.Time, it T) {
		item, found = it, true
	}, onError)
	return item, found
}

// ForEach reads and decodes the items with the given ids on date.
func (r *ItemReader[T]) ForEach(ctx context.Context, ids []string, date time.Time, onRead ItemHandler[T], onError ItemError) {
	reader, err := r.reader(ctx, date)
	if err != nil {
		onError("", date, "error reading data store", err)
		return
	}
	if reader == nil {
		return
	}
	if err := reader.ForEach(ctx, ids, r.tags(), r.tagsHandler(date, onRead, onError)); err != nil {
		onError("", date, "error reading data store", err)
	}
}

// ForAll reads and decodes every item stored on date.
func (r *ItemReader[T]) ForAll(ctx context.Context, date time.Time, onRead ItemHandler[T], onError ItemError) {
	r.ForAllWhere(ctx, date, nil, onRead, onError)
}

// ForAllWhere reads and decodes every item on date matching the given blob
// predicates.
func (r *ItemReader[T]) ForAllWhere(ctx context.Context, date time.Time, where []blobstore.WhereBlob, onRead ItemHandler[T], onError ItemError) {
	reader, err := r.reader(ctx, date)
	if err != nil {
		onError("", date, "error reading data store", err)
		return
	}
	if reader == nil {
		return
	}
	if err := reader.ForAll(ctx, r.tags(), where, r.tagsHandler(date, onRead, onError)); err != nil {
		onError("", date, "error reading data store", err)
	}
}

// GetTag reads and decodes a single tag's blob for id on date. Returns nil
// if the blob is absent, the tag has no decoder, or decoding failed.
func (r *ItemReader[T]) GetTag(ctx context.Context, id string, date time.Time, tag string, onError ItemError) any {
	reader, err := r.reader(ctx, date)
	if err != nil {
		onError("", date, "error reading data store", err)
		return nil
	}
	if reader == nil {
		return nil
	}
	blob, err := blobstore.Get(ctx, reader, id, tag)
	if err != nil {
		onError("", date, "error reading data store", err)
		return nil
	}
	if blob == nil {
		return nil
	}
	return r.decodeTag(id, date, tag, blob, onError)
}

// ForEachTag reads and decodes a single tag for the given ids on date.
func (r *ItemReader[T]) ForEachTag(ctx context.Context, ids []string, date time.Time, tag string, onRead func(id string, date time.Time, item any), onError ItemError) {
	reader, err := r.reader(ctx, date)
	if err != nil {
		onError("", date, "error reading data store", err)
		return
	}
	if reader == nil {
		return
	}
	err = blobstore.ForEachTag(ctx, reader, ids, tag, r.blobHandler(date, onRead, onError))
	if err != nil {
		onError("", date, "error reading data store", err)
	}
}

// ForAllTag reads and decodes a single tag for every id stored on date.
func (r *ItemReader[T]) ForAllTag(ctx context.Context, date time.Time, tag string, onRead func(id string, date time.Time, item any), onError ItemError) {
	reader, err := r.reader(ctx, date)
	if err != nil {
		onError("", date, "error reading data store", err)
		return
	}
	if reader == nil {
		return
	}
	err = blobstore.ForAllTag(ctx, reader, tag, r.blobHandler(date, onRead, onError))
	if err != nil {
		onError("", date, "error reading data store", err)
	}
}

func (r *ItemReader[T]) reader(ctx context.Context, date time.Time) (blobstore.Reader, error) {
	return r.provider(ctx, date, r.loc)
}

// tags returns the registered tag set in a stable order, fixing the column
// order of the underlying queries.
func (r *ItemReader[T]) tags() []string {
	tags := make([]string, 0, len(r.tagDecoders))
	for tag := range r.tagDecoders {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return tags
}

func (r *ItemReader[T]) tagsHandler(date time.Time, onRead ItemHandler[T], onError ItemError) blobstore.TagsHandler {
	return func(id string, blobs map[string][]byte) {
		item, err := r.decodeItem(id, date, blobs)
		if err != nil {
			onError(id, date, err.Error(), err)
			return
		}
		onRead(id, date, item)
	}
}

func (r *ItemReader[T]) blobHandler(date time.Time, onRead func(id string, date time.Time, item any), onError ItemError) blobstore.BlobHandler {
	return func(id, tag string, blob []byte) {
		if item := r.decodeTag(id, date, tag, blob, onError); item != nil {
			onRead(id, date, item)
		}
	}
}

func (r *ItemReader[T]) decodeTag(id string, date time.Time, tag string, blob []byte, onError ItemError) any {
	decode, ok := r.tagDecoders[tag]
	if !ok {
		return nil
	}
	item, err := decode(id, date, tag, blob)
	if err != nil {
		onError(id, date, err.Error(), err)
		return nil
	}
	return item
}
