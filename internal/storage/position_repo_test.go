package storage

import (
	"context"
	"errors"
	"reflect"
	"testing"
)

func TestPositionRepo_LoadMissing(t *testing.T) {
	db := testDB(t)
	repo := NewPositionRepo(db)

	_, err := repo.Load(context.Background(), "nope")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Load() error = %v, want ErrNotFound", err)
	}
}

func TestPositionRepo_SaveAndLoad(t *testing.T) {
	db := testDB(t)
	books := NewBookRepo(db)
	repo := NewPositionRepo(db)
	ctx := context.Background()

	seedBook(t, books, "book1")

	rec := &PositionRecord{BookID: "book1", Locator: "epubcfi(/6/4!/4/2:100)", Percent: 12.5}
	if err := repo.Save(ctx, rec); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	got, err := repo.Load(ctx, "book1")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got.Locator != rec.Locator || got.Percent != 12.5 {
		t.Errorf("Load() = %+v", got)
	}
	if got.UpdatedAt.IsZero() {
		t.Error("Load() UpdatedAt is zero")
	}

	// One live position per book: a second save overwrites.
	rec.Locator = "epubcfi(/6/6!/4/2:0)"
	rec.Percent = 40
	if err := repo.Save(ctx, rec); err != nil {
		t.Fatalf("second Save() error = %v", err)
	}
	got, err = repo.Load(ctx, "book1")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got.Percent != 40 {
		t.Errorf("Percent = %v, want 40", got.Percent)
	}
}

func TestPositionRepo_History(t *testing.T) {
	db := testDB(t)
	books := NewBookRepo(db)
	repo := NewPositionRepo(db)
	ctx := context.Background()

	seedBook(t, books, "book1")

	got, err := repo.LoadRanges(ctx, "book1")
	if err != nil {
		t.Fatalf("LoadRanges() error = %v", err)
	}
	if len(got) != 0 {
		t.Errorf("LoadRanges() for fresh book = %v, want empty", got)
	}

	ranges := []string{"epubcfi(/6/4!/4/2,:0,:50)", "epubcfi(/6/6!/4/2,:0,:20)"}
	if err := repo.SaveRanges(ctx, "book1", ranges); err != nil {
		t.Fatalf("SaveRanges() error = %v", err)
	}

	got, err = repo.LoadRanges(ctx, "book1")
	if err != nil {
		t.Fatalf("LoadRanges() error = %v", err)
	}
	if !reflect.DeepEqual(got, ranges) {
		t.Errorf("LoadRanges() = %v, want %v", got, ranges)
	}
}
