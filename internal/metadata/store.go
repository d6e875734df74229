package metadata

import (
	"context"
	"errors"
)

// ErrNotFound indicates no metadata record exists for the document. Absence
// means extraction has not produced that metadata kind yet.
var ErrNotFound = errors.New("not found")

// Store persists extracted metadata, one record per document per kind.
// Upserts replace prior contents rather than duplicating rows.
type Store interface {
	UpsertCore(ctx context.Context, documentID string, core map[string]string) error
	UpsertSemantic(ctx context.Context, documentID string, semantic map[string]string) error
	GetCore(ctx context.Context, documentID string) (map[string]string, error)
	GetSemantic(ctx context.Context, documentID string) (map[string]string, error)
}
