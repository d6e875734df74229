package documents

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

func newMockRepo(t *testing.T) (*PGRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return &PGRepo{DB: db}, mock
}

func TestPGRepoCreate(t *testing.T) {
	repo, mock := newMockRepo(t)

	doc := Document{
		ID:               "3f1c9c52-8f47-4a63-9a51-2f8d6b0f2c11",
		OriginalFilename: "report.docx",
		StorageURL:       "3f1c9c52-8f47-4a63-9a51-2f8d6b0f2c11.docx",
		Status:           StatusUploaded,
		ContentSHA256:    "deadbeef",
		CreatedAt:        time.Now().UTC(),
	}

	mock.ExpectExec("INSERT INTO documents").
		WithArgs(doc.ID, doc.OriginalFilename, doc.StorageURL, StatusUploaded, doc.ContentSHA256, doc.CreatedAt).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.Create(context.Background(), doc); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoCreateRejectsUnknownStatus(t *testing.T) {
	repo, _ := newMockRepo(t)

	err := repo.Create(context.Background(), Document{ID: "doc-1", Status: "pending"})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestPGRepoUpdateStatusGuardedByCurrentStatus(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectExec("UPDATE documents").
		WithArgs(StatusProcessing, nil, "doc-1", StatusQueued).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.UpdateStatus(context.Background(), "doc-1", StatusQueued, StatusProcessing, nil); err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoUpdateStatusLosesRaceWhenNoRowMatches(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectExec("UPDATE documents").
		WithArgs(StatusProcessing, nil, "doc-1", StatusQueued).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdateStatus(context.Background(), "doc-1", StatusQueued, StatusProcessing, nil)
	if !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
}

func TestPGRepoUpdateStatusRejectsIllegalTransitionWithoutQuerying(t *testing.T) {
	repo, mock := newMockRepo(t)

	err := repo.UpdateStatus(context.Background(), "doc-1", StatusDone, StatusProcessing, nil)
	if !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoUpdateStatusFailedRequiresMessage(t *testing.T) {
	repo, _ := newMockRepo(t)

	err := repo.UpdateStatus(context.Background(), "doc-1", StatusProcessing, StatusFailed, nil)
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}

	empty := ""
	err = repo.UpdateStatus(context.Background(), "doc-1", StatusProcessing, StatusFailed, &empty)
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for empty message, got %v", err)
	}
}

func TestPGRepoUpdateStatusFailedStoresMessage(t *testing.T) {
	repo, mock := newMockRepo(t)

	msg := "docProps/core.xml not found"
	mock.ExpectExec("UPDATE documents").
		WithArgs(StatusFailed, msg, "doc-1", StatusProcessing).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.UpdateStatus(context.Background(), "doc-1", StatusProcessing, StatusFailed, &msg); err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoGetByIDNotFound(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery("SELECT (.+) FROM documents").
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{"id", "original_filename", "storage_url", "status", "content_sha256", "error_message", "created_at", "updated_at"}))

	_, err := repo.GetByID(context.Background(), "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPGRepoListByCreatorJoinsCoreMetadata(t *testing.T) {
	repo, mock := newMockRepo(t)

	now := time.Now().UTC()
	rows := sqlmock.NewRows([]string{"id", "original_filename", "storage_url", "status", "content_sha256", "error_message", "created_at", "updated_at"}).
		AddRow("doc-1", "a.docx", "doc-1.docx", StatusDone, "abc", nil, now, now).
		AddRow("doc-2", "b.docx", "doc-2.docx", StatusDone, nil, nil, now.Add(-time.Minute), now.Add(-time.Minute))

	mock.ExpectQuery("JOIN metadata_standard").
		WithArgs("Alice").
		WillReturnRows(rows)

	docs, err := repo.ListByCreator(context.Background(), "Alice")
	if err != nil {
		t.Fatalf("ListByCreator: %v", err)
	}
	if len(docs) != 2 {
		t.Fatalf("expected 2 documents, got %d", len(docs))
	}
	if docs[0].ID != "doc-1" || docs[0].ContentSHA256 != "abc" {
		t.Fatalf("unexpected first document: %+v", docs[0])
	}
	if docs[1].ContentSHA256 != "" {
		t.Fatalf("expected empty hash for doc-2, got %q", docs[1].ContentSHA256)
	}
}

func TestPGRepoDeleteNotFound(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectExec("DELETE FROM documents").
		WithArgs("missing").
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := repo.Delete(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPGRepoFindLatestByContentHash(t *testing.T) {
	repo, mock := newMockRepo(t)

	now := time.Now().UTC()
	rows := sqlmock.NewRows([]string{"id", "original_filename", "storage_url", "status", "content_sha256", "error_message", "created_at", "updated_at"}).
		AddRow("doc-9", "dup.docx", "doc-9.docx", StatusDone, "cafef00d", nil, now, now)

	mock.ExpectQuery("WHERE content_sha256").
		WithArgs("cafef00d").
		WillReturnRows(rows)

	doc, err := repo.FindLatestByContentHash(context.Background(), "cafef00d")
	if err != nil {
		t.Fatalf("FindLatestByContentHash: %v", err)
	}
	if doc.ID != "doc-9" {
		t.Fatalf("expected doc-9, got %s", doc.ID)
	}
}
