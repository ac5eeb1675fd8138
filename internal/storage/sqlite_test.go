package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"
)

// setupTestDB creates a database rebuilt from testSequences.
func setupTestDB(t *testing.T) *DB {
	t.Helper()

	tmpDir := t.TempDir()
	jsonlPath := filepath.Join(tmpDir, "sequences.jsonl")
	if err := WriteAll(jsonlPath, testSequences()); err != nil {
		t.Fatalf("Failed to write test JSONL: %v", err)
	}

	db, err := OpenDB(filepath.Join(tmpDir, "test.db"))
	if err != nil {
		t.Fatalf("Failed to open test DB: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	n, err := db.RebuildFromJSONL(jsonlPath)
	if err != nil {
		t.Fatalf("Failed to rebuild DB: %v", err)
	}
	if n != 2 {
		t.Fatalf("RebuildFromJSONL() = %d, want 2", n)
	}
	return db
}

func TestDB_Nucleotides(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	got, err := db.Nucleotides(ctx, "ref2")
	if err != nil {
		t.Fatalf("Nucleotides() error = %v", err)
	}
	if got != "GGGCCCAAAT" {
		t.Errorf("Nucleotides(ref2) = %q", got)
	}

	if _, err := db.Nucleotides(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Nucleotides(missing) error = %v, want ErrNotFound", err)
	}
}

func TestDB_GetByID(t *testing.T) {
	db := setupTestDB(t)

	s, err := db.GetByID(context.Background(), "ref1")
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	want := testSequences()[0]
	if s.Description != want.Description || !s.ModifiedAt.Equal(want.ModifiedAt) {
		t.Errorf("GetByID(ref1) = %+v, want %+v", s, want)
	}
}

func TestDB_LastModified(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	seqs := testSequences()

	got, err := db.LastModified(ctx, []string{"ref1"})
	if err != nil || !got.Equal(seqs[0].ModifiedAt) {
		t.Errorf("LastModified(ref1) = %v, %v; want %v", got, err, seqs[0].ModifiedAt)
	}

	got, err = db.LastModified(ctx, []string{"ref1", "ref2"})
	if err != nil || !got.Equal(seqs[1].ModifiedAt) {
		t.Errorf("LastModified(ref1, ref2) = %v, %v; want %v", got, err, seqs[1].ModifiedAt)
	}

	if _, err := db.LastModified(ctx, []string{"ref1", "ghost"}); !errors.Is(err, ErrNotFound) {
		t.Errorf("LastModified with unknown id error = %v, want ErrNotFound", err)
	}
}

func TestDB_RebuildReplacesContent(t *testing.T) {
	db := setupTestDB(t)

	path := filepath.Join(t.TempDir(), "sequences.jsonl")
	later := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	if err := WriteAll(path, []Sequence{{ID: "only", Nucleotides: "AAAA", ModifiedAt: later}}); err != nil {
		t.Fatal(err)
	}
	if _, err := db.RebuildFromJSONL(path); err != nil {
		t.Fatalf("RebuildFromJSONL() error = %v", err)
	}

	n, err := db.Count()
	if err != nil || n != 1 {
		t.Errorf("Count() = %d, %v; want 1", n, err)
	}
	if _, err := db.Nucleotides(context.Background(), "ref1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("ref1 survived a rebuild: %v", err)
	}
}

func TestDB_ListAll(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	all, err := db.ListAll(ctx, 0)
	if err != nil {
		t.Fatalf("ListAll() error = %v", err)
	}
	if len(all) != 2 || all[0].ID != "ref1" || all[0].Length != 10 || all[1].ID != "ref2" {
		t.Errorf("ListAll() = %+v", all)
	}

	limited, err := db.ListAll(ctx, 1)
	if err != nil || len(limited) != 1 {
		t.Errorf("ListAll(1) = %+v, %v", limited, err)
	}
}
