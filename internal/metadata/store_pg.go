package metadata

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
)

// PGStore implements Store using Postgres jsonb columns.
type PGStore struct {
	DB *sql.DB
}

// UpsertCore inserts or replaces the core metadata record for a document.
func (s *PGStore) UpsertCore(ctx context.Context, documentID string, core map[string]string) error {
	return UpsertCoreTx(ctx, s.DB, documentID, core)
}

// UpsertSemantic inserts or replaces the semantic metadata record for a document.
func (s *PGStore) UpsertSemantic(ctx context.Context, documentID string, semantic map[string]string) error {
	return UpsertSemanticTx(ctx, s.DB, documentID, semantic)
}

// GetCore returns the core metadata mapping for a document.
func (s *PGStore) GetCore(ctx context.Context, documentID string) (map[string]string, error) {
	const query = `SELECT core FROM metadata_standard WHERE document_id = $1 LIMIT 1`
	return s.getBlob(ctx, query, documentID)
}

// GetSemantic returns the semantic metadata mapping for a document.
func (s *PGStore) GetSemantic(ctx context.Context, documentID string) (map[string]string, error) {
	const query = `SELECT semantic FROM metadata_semantic WHERE document_id = $1 LIMIT 1`
	return s.getBlob(ctx, query, documentID)
}

func (s *PGStore) getBlob(ctx context.Context, query, documentID string) (map[string]string, error) {
	var raw []byte
	if err := s.DB.QueryRowContext(ctx, query, documentID).Scan(&raw); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	out := map[string]string{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decode metadata blob: %w", err)
	}
	return out, nil
}

// Execer covers *sql.DB and *sql.Tx so upserts can join the ingestion
// pipeline's transaction.
type Execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// UpsertCoreTx writes core metadata through the given executor.
func UpsertCoreTx(ctx context.Context, ex Execer, documentID string, core map[string]string) error {
	const query = `
INSERT INTO metadata_standard (document_id, core)
VALUES ($1, $2::jsonb)
ON CONFLICT (document_id) DO UPDATE
SET core = EXCLUDED.core,
    updated_at = now()`
	return upsertBlob(ctx, ex, query, documentID, core)
}

// UpsertSemanticTx writes semantic metadata through the given executor.
func UpsertSemanticTx(ctx context.Context, ex Execer, documentID string, semantic map[string]string) error {
	const query = `
INSERT INTO metadata_semantic (document_id, semantic)
VALUES ($1, $2::jsonb)
ON CONFLICT (document_id) DO UPDATE
SET semantic = EXCLUDED.semantic,
    updated_at = now()`
	return upsertBlob(ctx, ex, query, documentID, semantic)
}

func upsertBlob(ctx context.Context, ex Execer, query, documentID string, blob map[string]string) error {
	payload, err := marshalJSONB(blob)
	if err != nil {
		return err
	}
	_, err = ex.ExecContext(ctx, query, documentID, payload)
	return err
}

func marshalJSONB(value map[string]string) ([]byte, error) {
	if value == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(value)
}

var _ Store = (*PGStore)(nil)
