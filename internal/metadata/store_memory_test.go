package metadata

import (
	"context"
	"errors"
	"testing"
)

func TestMemoryStoreUpsertReplaces(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	if err := store.UpsertCore(ctx, "doc-1", map[string]string{"author": "Alice", "title": "Draft"}); err != nil {
		t.Fatalf("UpsertCore: %v", err)
	}
	if err := store.UpsertCore(ctx, "doc-1", map[string]string{"author": "Bob"}); err != nil {
		t.Fatalf("UpsertCore again: %v", err)
	}

	core, err := store.GetCore(ctx, "doc-1")
	if err != nil {
		t.Fatalf("GetCore: %v", err)
	}
	if len(core) != 1 || core["author"] != "Bob" {
		t.Fatalf("expected replaced core, got %v", core)
	}
}

func TestMemoryStoreMissingIsNotFound(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	if _, err := store.GetCore(ctx, "doc-1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for core, got %v", err)
	}
	if _, err := store.GetSemantic(ctx, "doc-1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for semantic, got %v", err)
	}
}

func TestMemoryStoreReturnsCopies(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	if err := store.UpsertSemantic(ctx, "doc-1", map[string]string{"pages": "3"}); err != nil {
		t.Fatalf("UpsertSemantic: %v", err)
	}

	got, err := store.GetSemantic(ctx, "doc-1")
	if err != nil {
		t.Fatalf("GetSemantic: %v", err)
	}
	got["pages"] = "99"

	again, err := store.GetSemantic(ctx, "doc-1")
	if err != nil {
		t.Fatalf("GetSemantic again: %v", err)
	}
	if again["pages"] != "3" {
		t.Fatalf("stored semantic mutated: %v", again)
	}
}

func TestMemoryStoreDeleteRemovesBothKinds(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	if err := store.UpsertCore(ctx, "doc-1", map[string]string{"author": "Alice"}); err != nil {
		t.Fatalf("UpsertCore: %v", err)
	}
	if err := store.UpsertSemantic(ctx, "doc-1", map[string]string{"pages": "3"}); err != nil {
		t.Fatalf("UpsertSemantic: %v", err)
	}

	if err := store.Delete(ctx, "doc-1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := store.GetCore(ctx, "doc-1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected core gone, got %v", err)
	}
	if _, err := store.GetSemantic(ctx, "doc-1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected semantic gone, got %v", err)
	}
}
