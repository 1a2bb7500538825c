package store

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mlindgren/flowcanvas/pkg/flow"
	"github.com/mlindgren/flowcanvas/pkg/observability"
)

// MemoryStore keeps documents in process memory. Safe for concurrent use.
// Documents are deep-copied on the way in and out, so callers can mutate
// their copies freely.
type MemoryStore struct {
	mu   sync.RWMutex
	docs map[string]flow.Document
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{docs: make(map[string]flow.Document)}
}

// Get returns a copy of the stored document.
func (s *MemoryStore) Get(ctx context.Context, id string) (flow.Document, error) {
	start := time.Now()
	s.mu.RLock()
	doc, ok := s.docs[id]
	s.mu.RUnlock()

	if !ok {
		observability.Store().OnStoreRead(ctx, "memory", id, time.Since(start), ErrNotFound)
		return flow.Document{}, fmt.Errorf("get %q: %w", id, ErrNotFound)
	}
	copied, err := cloneDocument(doc)
	observability.Store().OnStoreRead(ctx, "memory", id, time.Since(start), err)
	return copied, err
}

// Put stores a copy of the document, assigning an ID and bumping the
// version.
func (s *MemoryStore) Put(ctx context.Context, doc flow.Document) (flow.Document, error) {
	start := time.Now()
	copied, err := cloneDocument(doc)
	if err != nil {
		observability.Store().OnStoreWrite(ctx, "memory", doc.ID, time.Since(start), err)
		return flow.Document{}, err
	}
	if copied.ID == "" {
		copied.ID = uuid.NewString()
	}
	copied.Version++

	s.mu.Lock()
	s.docs[copied.ID] = copied
	s.mu.Unlock()

	observability.Store().OnStoreWrite(ctx, "memory", copied.ID, time.Since(start), nil)
	return cloneDocument(copied)
}

// Delete removes a document.
func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.docs[id]; !ok {
		return fmt.Errorf("delete %q: %w", id, ErrNotFound)
	}
	delete(s.docs, id)
	return nil
}

// List returns summaries sorted by name, then ID.
func (s *MemoryStore) List(ctx context.Context) ([]Info, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Info, 0, len(s.docs))
	for _, doc := range s.docs {
		out = append(out, Info{
			ID:      doc.ID,
			Name:    doc.Name,
			Version: doc.Version,
			Nodes:   len(doc.Nodes),
			Edges:   len(doc.Edges),
		})
	}
	slices.SortFunc(out, func(a, b Info) int {
		if c := strings.Compare(a.Name, b.Name); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	return out, nil
}

// Close does nothing for the memory store.
func (s *MemoryStore) Close(context.Context) error { return nil }

// cloneDocument deep-copies a document through its JSON form, which also
// catches unserializable content early.
func cloneDocument(doc flow.Document) (flow.Document, error) {
	data, err := flow.MarshalDocument(doc)
	if err != nil {
		return flow.Document{}, fmt.Errorf("clone document: %w", err)
	}
	out, err := flow.UnmarshalDocument(data)
	if err != nil {
		return flow.Document{}, fmt.Errorf("clone document: %w", err)
	}
	return out, nil
}

// Ensure MemoryStore implements Store.
var _ Store = (*MemoryStore)(nil)
