package documents

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

const documentColumns = `id, original_filename, storage_url, status, content_sha256, error_message, created_at, updated_at`

// Create inserts a new document.
func (r *PGRepo) Create(ctx context.Context, doc Document) error {
	const query = `
INSERT INTO documents (id, original_filename, storage_url, status, content_sha256, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $6)`

	status := doc.Status
	if status == "" {
		status = StatusUploaded
	}
	if !IsValidStatus(status) {
		return fmt.Errorf("%w: status %q", ErrInvalidInput, status)
	}

	var contentHash sql.NullString
	if doc.ContentSHA256 != "" {
		contentHash = sql.NullString{String: doc.ContentSHA256, Valid: true}
	}

	_, err := r.DB.ExecContext(
		ctx,
		query,
		doc.ID,
		doc.OriginalFilename,
		doc.StorageURL,
		status,
		contentHash,
		doc.CreatedAt,
	)
	return err
}

// GetByID returns a document by ID.
func (r *PGRepo) GetByID(ctx context.Context, documentID string) (Document, error) {
	const query = `
SELECT ` + documentColumns + `
FROM documents
WHERE id = $1
LIMIT 1`
	return scanDocument(r.DB.QueryRowContext(ctx, query, documentID))
}

// List returns documents ordered newest-first.
func (r *PGRepo) List(ctx context.Context, limit, offset int) ([]Document, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 200 {
		limit = 200
	}
	if offset < 0 {
		offset = 0
	}
	const query = `
SELECT ` + documentColumns + `
FROM documents
ORDER BY created_at DESC
LIMIT $1 OFFSET $2`

	rows, err := r.DB.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectDocuments(rows)
}

// ListByCreator returns documents whose core metadata author matches.
// The join hits the expression index on (core->>'author').
func (r *PGRepo) ListByCreator(ctx context.Context, creator string) ([]Document, error) {
	const query = `
SELECT d.id, d.original_filename, d.storage_url, d.status, d.content_sha256, d.error_message, d.created_at, d.updated_at
FROM documents d
JOIN metadata_standard ms ON ms.document_id = d.id
WHERE ms.core ->> 'author' = $1
ORDER BY d.created_at DESC`

	rows, err := r.DB.QueryContext(ctx, query, creator)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectDocuments(rows)
}

// FindLatestByContentHash returns the newest document with the given content hash.
func (r *PGRepo) FindLatestByContentHash(ctx context.Context, contentSHA256 string) (Document, error) {
	const query = `
SELECT ` + documentColumns + `
FROM documents
WHERE content_sha256 = $1
ORDER BY created_at DESC
LIMIT 1`
	return scanDocument(r.DB.QueryRowContext(ctx, query, contentSHA256))
}

// UpdateStatus performs a guarded status transition.
func (r *PGRepo) UpdateStatus(ctx context.Context, documentID, from, to string, errorMessage *string) error {
	return UpdateStatusTx(ctx, r.DB, documentID, from, to, errorMessage)
}

// Delete removes a document; metadata rows cascade.
func (r *PGRepo) Delete(ctx context.Context, documentID string) error {
	const query = `DELETE FROM documents WHERE id = $1`
	res, err := r.DB.ExecContext(ctx, query, documentID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// Execer covers *sql.DB and *sql.Tx for writes that must be able to join a
// caller-owned transaction.
type Execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// UpdateStatusTx runs the guarded status transition against the given executor.
// The WHERE clause on the expected status serializes concurrent writers: the
// loser's update matches no row and reports ErrInvalidTransition.
func UpdateStatusTx(ctx context.Context, ex Execer, documentID, from, to string, errorMessage *string) error {
	if !CanTransition(from, to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
	}
	if to == StatusFailed && (errorMessage == nil || *errorMessage == "") {
		return fmt.Errorf("%w: failed status requires an error message", ErrInvalidInput)
	}

	const query = `
UPDATE documents
SET status = $1,
    error_message = CASE WHEN $1 = 'failed' THEN $2::text ELSE NULL END,
    updated_at = now()
WHERE id = $3::uuid AND status = $4`

	res, err := ex.ExecContext(ctx, query, to, errorMessage, documentID, from)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (Document, error) {
	var doc Document
	var contentHash sql.NullString
	var errorMessage sql.NullString
	err := row.Scan(
		&doc.ID,
		&doc.OriginalFilename,
		&doc.StorageURL,
		&doc.Status,
		&contentHash,
		&errorMessage,
		&doc.CreatedAt,
		&doc.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Document{}, ErrNotFound
		}
		return Document{}, err
	}
	if contentHash.Valid {
		doc.ContentSHA256 = contentHash.String
	}
	if errorMessage.Valid {
		doc.ErrorMessage = &errorMessage.String
	}
	return doc, nil
}

func collectDocuments(rows *sql.Rows) ([]Document, error) {
	var out []Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, doc)
	}
	return out, rows.Err()
}

var _ Repo = (*PGRepo)(nil)
