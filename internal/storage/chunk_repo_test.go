package storage

import (
	"context"
	"errors"
	"testing"
)

func TestChunkRepo_ReplaceAndList(t *testing.T) {
	db := testDB(t)
	books := NewBookRepo(db)
	repo := NewChunkRepo(db)
	ctx := context.Background()

	seedBook(t, books, "book1")

	chunks := []ChunkRecord{
		{ID: "c1", BookID: "book1", ChapterID: "chap01", ChunkIndex: 0, Text: "first"},
		{ID: "c2", BookID: "book1", ChapterID: "chap01", ChunkIndex: 1, Text: "second"},
	}
	if err := repo.ReplaceForBook(ctx, "book1", chunks); err != nil {
		t.Fatalf("ReplaceForBook() error = %v", err)
	}

	got, err := repo.ListByBook(ctx, "book1")
	if err != nil {
		t.Fatalf("ListByBook() error = %v", err)
	}
	if len(got) != 2 || got[0].ID != "c1" || got[1].ID != "c2" {
		t.Errorf("ListByBook() = %+v", got)
	}

	// Re-index replaces wholesale.
	if err := repo.ReplaceForBook(ctx, "book1", chunks[:1]); err != nil {
		t.Fatalf("ReplaceForBook() error = %v", err)
	}
	got, err = repo.ListByBook(ctx, "book1")
	if err != nil {
		t.Fatalf("ListByBook() error = %v", err)
	}
	if len(got) != 1 {
		t.Errorf("ListByBook() after replace = %d chunks, want 1", len(got))
	}
}

func TestChunkRepo_GetAndDelete(t *testing.T) {
	db := testDB(t)
	books := NewBookRepo(db)
	repo := NewChunkRepo(db)
	ctx := context.Background()

	seedBook(t, books, "book1")
	if err := repo.ReplaceForBook(ctx, "book1", []ChunkRecord{
		{ID: "c1", BookID: "book1", ChapterID: "chap01", ChunkIndex: 0, Text: "first"},
	}); err != nil {
		t.Fatalf("ReplaceForBook() error = %v", err)
	}

	got, err := repo.Get(ctx, "c1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Text != "first" {
		t.Errorf("Get() = %+v", got)
	}
	if _, err := repo.Get(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get() error = %v, want ErrNotFound", err)
	}

	ids, err := repo.DeleteByBook(ctx, "book1")
	if err != nil {
		t.Fatalf("DeleteByBook() error = %v", err)
	}
	if len(ids) != 1 || ids[0] != "c1" {
		t.Errorf("DeleteByBook() ids = %v", ids)
	}
}
