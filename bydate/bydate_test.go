package bydate

import (
	"bytes"
	"context"
	"errors"
	"sort"
	"time"

	"github.com/gridsight/blobstore"
)

// fakeStore is an in-memory blobstore used to exercise the typed layer
// without a database. It implements both halves of the contract.
type fakeStore struct {
	data map[string]map[string][]byte
	meta map[string]string

	commitErr   error
	rollbackErr error
	commits     int
	rollbacks   int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		data: make(map[string]map[string][]byte),
		meta: make(map[string]string),
	}
}

func (s *fakeStore) put(id, tag string, blob []byte) {
	if s.data[id] == nil {
		s.data[id] = make(map[string][]byte)
	}
	s.data[id][tag] = blob
}

func (s *fakeStore) sortedIDs() []string {
	ids := make([]string, 0, len(s.data))
	for id := range s.data {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (s *fakeStore) IDs(_ context.Context, handler blobstore.IDHandler) error {
	for _, id := range s.sortedIDs() {
		handler(id)
	}
	return nil
}

func (s *fakeStore) IDsWithTag(_ context.Context, tag string, handler blobstore.IDHandler) error {
	for _, id := range s.sortedIDs() {
		if s.data[id][tag] != nil {
			handler(id)
		}
	}
	return nil
}

func (s *fakeStore) ForEach(_ context.Context, ids []string, tags []string, handler blobstore.TagsHandler) error {
	if len(ids) == 0 || len(tags) == 0 {
		return nil
	}
	for _, id := range ids {
		row, ok := s.data[id]
		if !ok {
			continue
		}
		blobs := make(map[string][]byte, len(tags))
		for _, tag := range tags {
			blobs[tag] = row[tag]
		}
		handler(id, blobs)
	}
	return nil
}

func (s *fakeStore) ForAll(_ context.Context, tags []string, where []blobstore.WhereBlob, handler blobstore.TagsHandler) error {
	if len(tags) == 0 {
		return nil
	}
rows:
	for _, id := range s.sortedIDs() {
		row := s.data[id]
		for _, w := range where {
			blob, ok := row[w.Tag()]
			if !ok {
				continue rows
			}
			equal := bytes.Equal(blob, w.Blob())
			if w.Match() == blobstore.MatchEqual && !equal {
				continue rows
			}
			if w.Match() == blobstore.MatchNotEqual && equal {
				continue rows
			}
		}
		blobs := make(map[string][]byte, len(tags))
		for _, tag := range tags {
			blobs[tag] = row[tag]
		}
		handler(id, blobs)
	}
	return nil
}

func (s *fakeStore) GetMetadata(_ context.Context, key string) (string, bool, error) {
	value, ok := s.meta[key]
	return value, ok, nil
}

func (s *fakeStore) Write(_ context.Context, id, tag string, blob []byte) (bool, error) {
	if _, exists := s.data[id][tag]; exists {
		return false, errors.New("already written")
	}
	s.put(id, tag, blob)
	return true, nil
}

func (s *fakeStore) Update(_ context.Context, id, tag string, blob []byte) (bool, error) {
	if _, exists := s.data[id][tag]; !exists {
		return false, nil
	}
	s.put(id, tag, blob)
	return true, nil
}

func (s *fakeStore) Delete(_ context.Context, id string) (bool, error) {
	if _, ok := s.data[id]; !ok {
		return false, nil
	}
	delete(s.data, id)
	return true, nil
}

func (s *fakeStore) DeleteTag(_ context.Context, id, tag string) (bool, error) {
	if _, exists := s.data[id][tag]; !exists {
		return false, nil
	}
	delete(s.data[id], tag)
	return true, nil
}

func (s *fakeStore) Commit(context.Context) error {
	if err := s.commitErr; err != nil {
		s.commitErr = nil
		return err
	}
	s.commits++
	return nil
}

func (s *fakeStore) Rollback(context.Context) error {
	if err := s.rollbackErr; err != nil {
		s.rollbackErr = nil
		return err
	}
	s.rollbacks++
	return nil
}

func (s *fakeStore) WriteMetadata(_ context.Context, key, value string) (bool, error) {
	s.meta[key] = value
	return true, nil
}

func (s *fakeStore) UpdateMetadata(_ context.Context, key, value string) (bool, error) {
	if _, ok := s.meta[key]; !ok {
		return false, nil
	}
	s.meta[key] = value
	return true, nil
}

func (s *fakeStore) DeleteMetadata(_ context.Context, key string) (bool, error) {
	if _, ok := s.meta[key]; !ok {
		return false, nil
	}
	delete(s.meta, key)
	return true, nil
}

func (s *fakeStore) Close() error { return nil }

var (
	_ blobstore.Reader = (*fakeStore)(nil)
	_ blobstore.Writer = (*fakeStore)(nil)
)

// errorRecorder collects ItemError callbacks for assertions.
type errorRecorder struct {
	ids  []string
	msgs []string
}

func (r *errorRecorder) record(id string, _ time.Time, msg string, _ error) {
	r.ids = append(r.ids, id)
	r.msgs = append(r.msgs, msg)
}
