// Package memstore is an in-process implementation of the document store and
// notice outbox. It backs tests and the "memory" store driver.
package memstore

import (
	"context"
	"fmt"
	"reflect"
	"sync"

	"onsalenow.io/analytics/internal/domain"
)

// Store implements domain.Store over nested maps guarded by a RWMutex.
type Store struct {
	mu   sync.RWMutex
	docs map[string]map[string]domain.Record // collection -> id -> document
}

// New creates an empty Store.
func New() *Store {
	return &Store{docs: make(map[string]map[string]domain.Record)}
}

// Read returns a copy of the document.
func (s *Store) Read(_ context.Context, collection, id string) (domain.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.docs[collection][id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return r.Clone(), nil
}

// ReadAll returns copies of every document in the collection.
func (s *Store) ReadAll(_ context.Context, collection string) (map[string]domain.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]domain.Record, len(s.docs[collection]))
	for id, r := range s.docs[collection] {
		out[id] = r.Clone()
	}
	return out, nil
}

// Write stores a copy of record, or deletes the document when record is nil.
func (s *Store) Write(_ context.Context, collection, id string, record domain.Record) error {
	if id == "" {
		return fmt.Errorf("write %s: empty id", collection)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if record == nil {
		delete(s.docs[collection], id)
		return nil
	}
	if s.docs[collection] == nil {
		s.docs[collection] = make(map[string]domain.Record)
	}
	s.docs[collection][id] = record.Clone()
	return nil
}

// QueryEqual returns copies of documents whose field equals value.
func (s *Store) QueryEqual(_ context.Context, collection, field string, value any) (map[string]domain.Record, error) {
	// Normalise value the same way stored documents are normalised.
	want := domain.Record{"v": value}.Clone()["v"]

	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]domain.Record)
	for id, r := range s.docs[collection] {
		if got, ok := r[field]; ok && reflect.DeepEqual(got, want) {
			out[id] = r.Clone()
		}
	}
	return out, nil
}

// SetFlag sets one boolean field under the write lock.
func (s *Store) SetFlag(_ context.Context, collection, id, field string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.docs[collection][id]
	if !ok {
		return domain.ErrNotFound
	}
	r[field] = true
	return nil
}

// SetFields merges fields into the stored document under the write lock.
func (s *Store) SetFields(_ context.Context, collection, id string, fields domain.Record) error {
	patch := fields.Clone()
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.docs[collection][id]
	if !ok {
		return domain.ErrNotFound
	}
	for k, v := range patch {
		r[k] = v
	}
	return nil
}
