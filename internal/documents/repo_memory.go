package documents

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"
)

// MemoryRepo is an in-memory implementation of Repo. CoreLookup, when set,
// feeds ListByCreator from whichever metadata store is paired with the repo.
type MemoryRepo struct {
	mu         sync.RWMutex
	data       map[string]Document
	CoreLookup func(documentID string) (map[string]string, bool)
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{data: make(map[string]Document)}
}

// Create stores a new document.
func (r *MemoryRepo) Create(ctx context.Context, doc Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if doc.Status == "" {
		doc.Status = StatusUploaded
	}
	if !IsValidStatus(doc.Status) {
		return fmt.Errorf("%w: status %q", ErrInvalidInput, doc.Status)
	}
	now := time.Now().UTC()
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = now
	}
	doc.UpdatedAt = doc.CreatedAt

	r.mu.Lock()
	defer r.mu.Unlock()
	r.data[doc.ID] = doc
	return nil
}

// GetByID returns a document by ID.
func (r *MemoryRepo) GetByID(ctx context.Context, documentID string) (Document, error) {
	if err := ctx.Err(); err != nil {
		return Document{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	doc, ok := r.data[documentID]
	if !ok {
		return Document{}, ErrNotFound
	}
	return doc, nil
}

// List returns documents newest-first honoring limit/offset.
func (r *MemoryRepo) List(ctx context.Context, limit, offset int) ([]Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	docs := r.snapshot()
	if offset >= len(docs) {
		return []Document{}, nil
	}
	end := len(docs)
	if offset+limit < end {
		end = offset + limit
	}
	return docs[offset:end], nil
}

// ListByCreator filters documents through the configured core-metadata lookup.
func (r *MemoryRepo) ListByCreator(ctx context.Context, creator string) ([]Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if r.CoreLookup == nil {
		return []Document{}, nil
	}

	var out []Document
	for _, doc := range r.snapshot() {
		core, ok := r.CoreLookup(doc.ID)
		if !ok {
			continue
		}
		if core["author"] == creator {
			out = append(out, doc)
		}
	}
	if out == nil {
		out = []Document{}
	}
	return out, nil
}

// FindLatestByContentHash returns the newest document with the given hash.
func (r *MemoryRepo) FindLatestByContentHash(ctx context.Context, contentSHA256 string) (Document, error) {
	if err := ctx.Err(); err != nil {
		return Document{}, err
	}
	if contentSHA256 == "" {
		return Document{}, ErrNotFound
	}
	for _, doc := range r.snapshot() {
		if doc.ContentSHA256 == contentSHA256 {
			return doc, nil
		}
	}
	return Document{}, ErrNotFound
}

// UpdateStatus performs a guarded status transition.
func (r *MemoryRepo) UpdateStatus(ctx context.Context, documentID, from, to string, errorMessage *string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !CanTransition(from, to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
	}
	if to == StatusFailed && (errorMessage == nil || *errorMessage == "") {
		return fmt.Errorf("%w: failed status requires an error message", ErrInvalidInput)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	doc, ok := r.data[documentID]
	if !ok {
		return ErrNotFound
	}
	if doc.Status != from {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, doc.Status, to)
	}

	doc.Status = to
	if to == StatusFailed {
		msg := *errorMessage
		doc.ErrorMessage = &msg
	} else {
		doc.ErrorMessage = nil
	}
	now := time.Now().UTC()
	if !now.After(doc.UpdatedAt) {
		now = doc.UpdatedAt.Add(time.Nanosecond)
	}
	doc.UpdatedAt = now
	r.data[documentID] = doc
	return nil
}

// Delete removes a document.
func (r *MemoryRepo) Delete(ctx context.Context, documentID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.data[documentID]; !ok {
		return ErrNotFound
	}
	delete(r.data, documentID)
	return nil
}

func (r *MemoryRepo) snapshot() []Document {
	r.mu.RLock()
	defer r.mu.RUnlock()
	docs := make([]Document, 0, len(r.data))
	for _, doc := range r.data {
		docs = append(docs, doc)
	}
	sort.Slice(docs, func(i, j int) bool {
		if docs[i].CreatedAt.Equal(docs[j].CreatedAt) {
			return docs[i].ID > docs[j].ID
		}
		return docs[i].CreatedAt.After(docs[j].CreatedAt)
	})
	return docs
}

var _ Repo = (*MemoryRepo)(nil)
