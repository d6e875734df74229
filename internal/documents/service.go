package documents

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/google/uuid"

	"mdx-backend/internal/metadata"
	"mdx-backend/internal/queue"
	"mdx-backend/internal/shared/storage/object"
	"mdx-backend/internal/shared/telemetry"
)

// Service contains business logic for documents.
type Service struct {
	Repo  Repo
	Meta  metadata.Store
	Store object.ObjectStore
	Queue queue.Client
}

// Detail pairs a document with whatever metadata extraction has produced.
// Core is never nil; Semantic is nil when no semantic record exists.
type Detail struct {
	Document Document
	Core     map[string]string
	Semantic map[string]string
}

// Upload saves the file to object storage, registers the document at
// uploaded, and hands it to the queue when one is configured. An enqueue
// failure leaves the document at uploaded for a later pickup.
func (s *Service) Upload(ctx context.Context, fileName, requestID string, r io.Reader) (Document, error) {
	if fileName == "" {
		return Document{}, ErrInvalidInput
	}

	documentID := uuid.NewString()
	storageKey, _, _, err := s.Store.Save(ctx, documentID, fileName, r)
	if err != nil {
		return Document{}, err
	}

	doc := Document{
		ID:               documentID,
		OriginalFilename: fileName,
		StorageURL:       storageKey,
		Status:           StatusUploaded,
		CreatedAt:        time.Now().UTC(),
	}
	doc.UpdatedAt = doc.CreatedAt

	if err := s.Repo.Create(ctx, doc); err != nil {
		// The row never existed, so drop the orphaned object.
		if delErr := s.Store.Delete(ctx, storageKey); delErr != nil {
			telemetry.Error("documents.cleanup_object", map[string]any{
				"document_id": documentID,
				"error":       delErr.Error(),
			})
		}
		return Document{}, err
	}

	if s.Queue != nil {
		msg := queue.Message{
			DocumentID: documentID,
			RequestID:  requestID,
			EnqueuedAt: time.Now().UTC().Format(time.RFC3339),
			Version:    queue.MessageVersion,
		}
		if err := s.Queue.Send(ctx, msg); err != nil {
			telemetry.Error("documents.enqueue", map[string]any{
				"document_id": documentID,
				"error":       err.Error(),
			})
			return doc, nil
		}
		if err := s.Repo.UpdateStatus(ctx, documentID, StatusUploaded, StatusQueued, nil); err != nil {
			return doc, err
		}
		doc.Status = StatusQueued
	}

	return doc, nil
}

// Get returns a document with its extracted metadata.
func (s *Service) Get(ctx context.Context, documentID string) (Detail, error) {
	if documentID == "" {
		return Detail{}, ErrInvalidInput
	}

	doc, err := s.Repo.GetByID(ctx, documentID)
	if err != nil {
		return Detail{}, err
	}

	detail := Detail{Document: doc, Core: map[string]string{}}

	core, err := s.Meta.GetCore(ctx, documentID)
	if err != nil && !errors.Is(err, metadata.ErrNotFound) {
		return Detail{}, err
	}
	if core != nil {
		detail.Core = core
	}

	semantic, err := s.Meta.GetSemantic(ctx, documentID)
	if err != nil && !errors.Is(err, metadata.ErrNotFound) {
		return Detail{}, err
	}
	detail.Semantic = semantic

	return detail, nil
}

// List returns documents newest-first.
func (s *Service) List(ctx context.Context, limit, offset int) ([]Document, error) {
	return s.Repo.List(ctx, limit, offset)
}

// ListByCreator returns documents whose core metadata names the creator.
func (s *Service) ListByCreator(ctx context.Context, creator string) ([]Document, error) {
	if creator == "" {
		return nil, ErrInvalidInput
	}
	return s.Repo.ListByCreator(ctx, creator)
}

// Delete removes the document, its metadata (cascading), and its stored object.
func (s *Service) Delete(ctx context.Context, documentID string) error {
	if documentID == "" {
		return ErrInvalidInput
	}

	doc, err := s.Repo.GetByID(ctx, documentID)
	if err != nil {
		return err
	}
	if err := s.Repo.Delete(ctx, documentID); err != nil {
		return err
	}

	// The relational store cascades metadata deletion; the in-memory store
	// exposes an explicit cascade instead.
	if cascader, ok := s.Meta.(interface {
		Delete(ctx context.Context, documentID string) error
	}); ok {
		if err := cascader.Delete(ctx, documentID); err != nil {
			return err
		}
	}

	if s.Store != nil {
		if err := s.Store.Delete(ctx, doc.StorageURL); err != nil {
			telemetry.Error("documents.delete_object", map[string]any{
				"document_id": documentID,
				"error":       err.Error(),
			})
		}
	}
	return nil
}
