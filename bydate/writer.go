package bydate

import (
	"context"
	"time"

	"github.com/gridsight/blobstore"
)

// ItemWriter writes typed items into date-partitioned blob stores. It
// caches one blob writer per date so that a batch spanning several dates
// can be committed or rolled back together.
type ItemWriter struct {
	loc      *time.Location
	provider WriterProvider
	writers  map[string]blobstore.Writer
}

// NewItemWriter returns an ItemWriter resolving dates in loc through
// provider.
func NewItemWriter(loc *time.Location, provider WriterProvider) *ItemWriter {
	return &ItemWriter{loc: loc, provider: provider, writers: make(map[string]blobstore.Writer)}
}

// Write stores one item on date. The encode callback receives an
// ItemBlobWriter scoped to the item and writes each of the item's tags
// through it. Write returns false if any tag failed; failures have already
// been reported to onError.
func (w *ItemWriter) Write(ctx context.Context, id string, date time.Time, encode func(*ItemBlobWriter), onError ItemError) bool {
	writer, err := w.writer(ctx, date)
	if err != nil {
		onError(id, date, "failed to write", err)
		return false
	}

	ibw := &ItemBlobWriter{writer: writer, id: id, date: date, onError: onError, allGood: true}
	encode(ibw)

	if ibw.AnyFailed() {
		onError(id, date, "failed to write", nil)
		return false
	}
	return true
}

// Commit commits every date's writer touched since the last Commit. Dates
// that fail to commit are kept for retry on the next Commit; the rest are
// dropped from the cache. Returns true when every date committed.
func (w *ItemWriter) Commit(ctx context.Context, onError ItemError) bool {
	failed := make(map[string]blobstore.Writer)
	for key, writer := range w.writers {
		if err := writer.Commit(ctx); err != nil {
			failed[key] = writer
			date, _ := time.ParseInLocation(time.DateOnly, key, w.loc)
			onError("", date, "failed to commit", err)
		}
	}
	w.writers = failed
	return len(failed) == 0
}

// Rollback rolls back every date's writer and clears the cache. Returns
// true when every date rolled back cleanly.
func (w *ItemWriter) Rollback(ctx context.Context, onError ItemError) bool {
	ok := true
	for key, writer := range w.writers {
		if err := writer.Rollback(ctx); err != nil {
			date, _ := time.ParseInLocation(time.DateOnly, key, w.loc)
			onError("", date, "failed to rollback", err)
			ok = false
		}
	}
	w.writers = make(map[string]blobstore.Writer)
	return ok
}

func (w *ItemWriter) writer(ctx context.Context, date time.Time) (blobstore.Writer, error) {
	key := dateKey(date, w.loc)
	if writer, ok := w.writers[key]; ok {
		return writer, nil
	}
	writer, err := w.provider(ctx, date, w.loc)
	if err != nil {
		return nil, err
	}
	w.writers[key] = writer
	return writer, nil
}

// ItemBlobWriter writes the tags of one item, tracking whether any write
// failed so the caller can refuse the item as a whole.
type ItemBlobWriter struct {
	writer  blobstore.Writer
	id      string
	date    time.Time
	onError ItemError
	allGood bool
}

// ID returns the item's id.
func (w *ItemBlobWriter) ID() string { return w.id }

// Date returns the date the item is stored under.
func (w *ItemBlobWriter) Date() time.Time { return w.date }

// Write stores bytes under tag for the item, updating in place when a blob
// already exists and inserting otherwise.
func (w *ItemBlobWriter) Write(ctx context.Context, tag string, bytes []byte) bool {
	ok, err := w.writer.Update(ctx, w.id, tag, bytes)
	if err == nil && !ok {
		ok, err = w.writer.Write(ctx, w.id, tag, bytes)
	}
	if err != nil {
		w.onError(w.id, w.date, "failed to write", err)
		ok = false
	}
	w.allGood = w.allGood && ok
	return ok
}

// Delete removes the item's blob for tag. A blob that was never written is
// not a failure.
func (w *ItemBlobWriter) Delete(ctx context.Context, tag string) bool {
	ok := true
	if _, err := w.writer.DeleteTag(ctx, w.id, tag); err != nil {
		w.onError(w.id, w.date, "failed to delete", err)
		ok = false
	}
	w.allGood = w.allGood && ok
	return ok
}

// AnyFailed reports whether any write or delete on this item failed.
func (w *ItemBlobWriter) AnyFailed() bool { return !w.allGood }
