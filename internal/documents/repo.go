package documents

import "context"

// Repo defines persistence operations for documents.
type Repo interface {
	Create(ctx context.Context, doc Document) error
	GetByID(ctx context.Context, documentID string) (Document, error)
	List(ctx context.Context, limit, offset int) ([]Document, error)
	// ListByCreator returns documents whose stored core metadata names the
	// given creator.
	ListByCreator(ctx context.Context, creator string) ([]Document, error)
	FindLatestByContentHash(ctx context.Context, contentSHA256 string) (Document, error)
	// UpdateStatus moves a document from an expected status to the next one,
	// refreshing updated_at atomically with the status write. errorMessage is
	// stored only for failed; any other target status clears it.
	UpdateStatus(ctx context.Context, documentID, from, to string, errorMessage *string) error
	Delete(ctx context.Context, documentID string) error
}
