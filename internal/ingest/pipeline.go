package ingest

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"mdx-backend/internal/documents"
	"mdx-backend/internal/extract"
	"mdx-backend/internal/shared/metrics"
	"mdx-backend/internal/shared/storage/object"
	"mdx-backend/internal/shared/telemetry"
	"mdx-backend/internal/shared/util"
)

// Extractor produces metadata from document input. Pure over the input; the
// pipeline owns all persistence.
type Extractor interface {
	ExtractFile(ctx context.Context, path string) (extract.Result, error)
	Extract(ctx context.Context, data []byte) (extract.Result, error)
}

type docxExtractor struct{}

func (docxExtractor) ExtractFile(ctx context.Context, path string) (extract.Result, error) {
	return extract.ExtractFile(ctx, path)
}

func (docxExtractor) Extract(ctx context.Context, data []byte) (extract.Result, error) {
	return extract.Extract(ctx, data)
}

// Outcome reports the result of ingesting one file in a batch.
type Outcome struct {
	Path       string
	DocumentID string
	Status     string
	Err        error
}

// Failed reports whether this file's ingestion failed.
func (o Outcome) Failed() bool { return o.Err != nil }

// Pipeline orchestrates registration, extraction, and persistence for
// documents. Store is only needed for Process (worker mode); CLI ingestion
// reads straight from disk.
type Pipeline struct {
	Docs      documents.Repo
	Finalize  Finalizer
	Store     object.ObjectStore
	Extractor Extractor

	// SkipDuplicates reuses the newest done document with the same content
	// hash instead of minting a new identity.
	SkipDuplicates bool
}

// Ingest registers and processes a single file, returning the document
// identity. Failures after the document row exists are recorded as failed
// status and returned; failures before it are only returned.
func (p *Pipeline) Ingest(ctx context.Context, path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolve input %s: %w", path, err)
	}

	contentHash, err := util.HashFile(abs)
	if err != nil {
		return "", fmt.Errorf("read input %s: %w", path, err)
	}

	if p.SkipDuplicates {
		if existing, err := p.Docs.FindLatestByContentHash(ctx, contentHash); err == nil && existing.Status == documents.StatusDone {
			telemetry.Info("ingest.duplicate", map[string]any{
				"path":        abs,
				"document_id": existing.ID,
			})
			return existing.ID, nil
		}
	}

	doc := documents.Document{
		ID:               uuid.NewString(),
		OriginalFilename: filepath.Base(abs),
		StorageURL:       abs,
		Status:           documents.StatusUploaded,
		ContentSHA256:    contentHash,
		CreatedAt:        time.Now().UTC(),
	}
	if err := p.Docs.Create(ctx, doc); err != nil {
		return "", fmt.Errorf("register document: %w", err)
	}

	if err := p.advance(ctx, doc.ID, documents.StatusUploaded, documents.StatusQueued); err != nil {
		return doc.ID, err
	}
	return doc.ID, p.run(ctx, doc.ID, func(ctx context.Context) (extract.Result, error) {
		return p.extractor().ExtractFile(ctx, abs)
	})
}

// IngestAll processes a file or every *.docx under a directory. Files are
// independent: one failure never aborts the rest. The returned error is
// non-nil only when the input itself is unusable.
func (p *Pipeline) IngestAll(ctx context.Context, path string) ([]Outcome, error) {
	files, err := collectInputs(path)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no .docx files found at %s", path)
	}

	outcomes := make([]Outcome, 0, len(files))
	for _, file := range files {
		if ctx.Err() != nil {
			break
		}
		id, err := p.Ingest(ctx, file)
		status := documents.StatusDone
		if err != nil {
			status = documents.StatusFailed
		}
		outcomes = append(outcomes, Outcome{Path: file, DocumentID: id, Status: status, Err: err})
	}
	return outcomes, nil
}

// Process picks up an already-registered document (uploaded or queued) and
// runs extraction against its stored object. Worker entry point.
func (p *Pipeline) Process(ctx context.Context, documentID string) error {
	doc, err := p.Docs.GetByID(ctx, documentID)
	if err != nil {
		return fmt.Errorf("load document %s: %w", documentID, err)
	}

	switch doc.Status {
	case documents.StatusDone, documents.StatusFailed:
		telemetry.Info("ingest.already_terminal", map[string]any{
			"document_id": documentID,
			"status":      doc.Status,
		})
		return nil
	case documents.StatusUploaded:
		if err := p.Docs.UpdateStatus(ctx, documentID, documents.StatusUploaded, documents.StatusQueued, nil); err != nil {
			return err
		}
	case documents.StatusQueued:
		// proceed
	default:
		return fmt.Errorf("document %s: %w: %s", documentID, documents.ErrInvalidTransition, doc.Status)
	}

	return p.run(ctx, documentID, func(ctx context.Context) (extract.Result, error) {
		return p.extractStored(ctx, doc.StorageURL)
	})
}

// run drives queued -> processing -> done|failed for a registered document.
func (p *Pipeline) run(ctx context.Context, documentID string, extractFn func(context.Context) (extract.Result, error)) error {
	if err := p.advance(ctx, documentID, documents.StatusQueued, documents.StatusProcessing); err != nil {
		return err
	}

	metrics.IncIngestStarted()
	start := time.Now()
	result, err := extractFn(ctx)
	metrics.ObserveExtractDurationMs(float64(time.Since(start).Microseconds()) / 1000.0)
	if err != nil {
		return p.markFailed(ctx, documentID, err)
	}

	if err := p.Finalize.FinalizeDone(ctx, documentID, result); err != nil {
		return p.markFailed(ctx, documentID, err)
	}

	metrics.IncIngestDone()
	telemetry.Info("ingest.done", map[string]any{
		"document_id":  documentID,
		"core_fields":  len(result.Core),
		"has_semantic": result.HasSemantic(),
		"duration_ms":  float64(time.Since(start).Microseconds()) / 1000.0,
	})
	return nil
}

func (p *Pipeline) advance(ctx context.Context, documentID, from, to string) error {
	if err := p.Docs.UpdateStatus(ctx, documentID, from, to, nil); err != nil {
		return fmt.Errorf("transition %s %s -> %s: %w", documentID, from, to, err)
	}
	return nil
}

// markFailed records the failure on the document and hands the cause back.
func (p *Pipeline) markFailed(ctx context.Context, documentID string, cause error) error {
	msg := cause.Error()
	if err := p.Docs.UpdateStatus(ctx, documentID, documents.StatusProcessing, documents.StatusFailed, &msg); err != nil {
		telemetry.Error("ingest.mark_failed", map[string]any{
			"document_id": documentID,
			"error":       err.Error(),
			"cause":       msg,
		})
	}
	metrics.IncIngestFailed()
	telemetry.Error("ingest.failed", map[string]any{
		"document_id": documentID,
		"error":       msg,
	})
	return cause
}

func (p *Pipeline) extractStored(ctx context.Context, storageURL string) (extract.Result, error) {
	if p.Store == nil {
		return p.extractor().ExtractFile(ctx, storageURL)
	}

	body, err := p.Store.Open(ctx, storageURL)
	if err != nil {
		return extract.Result{}, fmt.Errorf("open stored document %s: %w", storageURL, err)
	}
	defer body.Close()

	data, err := io.ReadAll(body)
	if err != nil {
		return extract.Result{}, fmt.Errorf("read stored document %s: %w", storageURL, err)
	}
	return p.extractor().Extract(ctx, data)
}

func (p *Pipeline) extractor() Extractor {
	if p.Extractor != nil {
		return p.Extractor
	}
	return docxExtractor{}
}

func collectInputs(path string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat input %s: %w", path, err)
	}
	if !info.IsDir() {
		return []string{path}, nil
	}

	var files []string
	err = filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if strings.EqualFold(filepath.Ext(p), ".docx") {
			files = append(files, p)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk input %s: %w", path, err)
	}
	sort.Strings(files)
	return files, nil
}
