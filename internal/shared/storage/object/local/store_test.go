package local

import (
	"context"
	"io"
	"strings"
	"testing"
)

func TestLocalStoreSaveOpenDelete(t *testing.T) {
	store := New(t.TempDir())
	ctx := context.Background()

	key, size, _, err := store.Save(ctx, "doc-1", "Quarterly Report.DOCX", strings.NewReader("payload"))
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if key != "doc-1.docx" {
		t.Fatalf("expected key doc-1.docx, got %s", key)
	}
	if size != int64(len("payload")) {
		t.Fatalf("expected size %d, got %d", len("payload"), size)
	}

	rc, err := store.Open(ctx, key)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	data, err := io.ReadAll(rc)
	_ = rc.Close()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(data) != "payload" {
		t.Fatalf("unexpected contents: %q", data)
	}

	if err := store.Delete(ctx, key); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := store.Open(ctx, key); err == nil {
		t.Fatal("expected error opening deleted object")
	}

	// Deleting again is not an error.
	if err := store.Delete(ctx, key); err != nil {
		t.Fatalf("Delete missing: %v", err)
	}
}

func TestLocalStoreRejectsTraversalNames(t *testing.T) {
	store := New(t.TempDir())
	ctx := context.Background()

	if _, _, _, err := store.Save(ctx, "doc-1", "../escape.docx", strings.NewReader("x")); err == nil {
		t.Fatal("expected error for traversal file name")
	}
	if _, err := store.Open(ctx, "../outside"); err == nil {
		t.Fatal("expected error for traversal key")
	}
	if _, err := store.Open(ctx, "/etc/passwd"); err == nil {
		t.Fatal("expected error for absolute key")
	}
}
