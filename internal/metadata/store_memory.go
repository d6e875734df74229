package metadata

import (
	"context"
	"sync"
)

// MemoryStore is an in-memory implementation of Store.
type MemoryStore struct {
	mu       sync.RWMutex
	core     map[string]map[string]string
	semantic map[string]map[string]string
}

// NewMemoryStore constructs a MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		core:     make(map[string]map[string]string),
		semantic: make(map[string]map[string]string),
	}
}

// UpsertCore replaces the core metadata for a document.
func (s *MemoryStore) UpsertCore(ctx context.Context, documentID string, core map[string]string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.core[documentID] = cloneMap(core)
	return nil
}

// UpsertSemantic replaces the semantic metadata for a document.
func (s *MemoryStore) UpsertSemantic(ctx context.Context, documentID string, semantic map[string]string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.semantic[documentID] = cloneMap(semantic)
	return nil
}

// GetCore returns the core metadata for a document.
func (s *MemoryStore) GetCore(ctx context.Context, documentID string) (map[string]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	core, ok := s.core[documentID]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneMap(core), nil
}

// GetSemantic returns the semantic metadata for a document.
func (s *MemoryStore) GetSemantic(ctx context.Context, documentID string) (map[string]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	semantic, ok := s.semantic[documentID]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneMap(semantic), nil
}

// Delete removes both metadata kinds for a document, mirroring the cascade
// that the relational schema performs on document deletion.
func (s *MemoryStore) Delete(ctx context.Context, documentID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.core, documentID)
	delete(s.semantic, documentID)
	return nil
}

func cloneMap(in map[string]string) map[string]string {
	if in == nil {
		return map[string]string{}
	}
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

var _ Store = (*MemoryStore)(nil)
