package object

import (
	"context"
	"io"
)

// ObjectStore defines the contract for saving and retrieving uploaded documents.
// Keys are namespaced by the document identity so one document maps to one object.
type ObjectStore interface {
	Save(ctx context.Context, documentID string, fileName string, r io.Reader) (storageKey string, sizeBytes int64, mimeType string, err error)
	Open(ctx context.Context, storageKey string) (io.ReadCloser, error)
	Delete(ctx context.Context, storageKey string) error
}
