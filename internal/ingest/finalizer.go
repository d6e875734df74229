package ingest

import (
	"context"
	"database/sql"
	"fmt"

	"mdx-backend/internal/documents"
	"mdx-backend/internal/extract"
	"mdx-backend/internal/metadata"
)

// Finalizer commits extraction results. The metadata writes and the terminal
// status transition are one unit: a partial persistence failure must leave the
// document out of done, never done with half-written metadata.
type Finalizer interface {
	FinalizeDone(ctx context.Context, documentID string, result extract.Result) error
}

// PGFinalizer finalizes ingestion inside a single Postgres transaction.
type PGFinalizer struct {
	DB *sql.DB
}

// FinalizeDone upserts core (and semantic, when computed) metadata and moves
// the document from processing to done, all-or-nothing.
func (f *PGFinalizer) FinalizeDone(ctx context.Context, documentID string, result extract.Result) error {
	tx, err := f.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin finalize tx: %w", err)
	}
	defer tx.Rollback()

	if err := metadata.UpsertCoreTx(ctx, tx, documentID, result.Core); err != nil {
		return fmt.Errorf("upsert core metadata: %w", err)
	}
	if result.HasSemantic() {
		if err := metadata.UpsertSemanticTx(ctx, tx, documentID, result.Semantic); err != nil {
			return fmt.Errorf("upsert semantic metadata: %w", err)
		}
	}
	if err := documents.UpdateStatusTx(ctx, tx, documentID, documents.StatusProcessing, documents.StatusDone, nil); err != nil {
		return err
	}
	return tx.Commit()
}

// StoreFinalizer finalizes against plain Repo/Store implementations. Used with
// the in-memory backends, which have no transaction boundary to share.
type StoreFinalizer struct {
	Docs documents.Repo
	Meta metadata.Store
}

// FinalizeDone writes metadata then marks the document done.
func (f *StoreFinalizer) FinalizeDone(ctx context.Context, documentID string, result extract.Result) error {
	if err := f.Meta.UpsertCore(ctx, documentID, result.Core); err != nil {
		return fmt.Errorf("upsert core metadata: %w", err)
	}
	if result.HasSemantic() {
		if err := f.Meta.UpsertSemantic(ctx, documentID, result.Semantic); err != nil {
			return fmt.Errorf("upsert semantic metadata: %w", err)
		}
	}
	return f.Docs.UpdateStatus(ctx, documentID, documents.StatusProcessing, documents.StatusDone, nil)
}

var (
	_ Finalizer = (*PGFinalizer)(nil)
	_ Finalizer = (*StoreFinalizer)(nil)
)
