package storage

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func testSequences() []Sequence {
	t0 := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	return []Sequence{
		{ID: "ref1", Description: "first reference", Nucleotides: "ACGTACGTAC", ModifiedAt: t0},
		{ID: "ref2", Nucleotides: "GGGCCCAAAT", ModifiedAt: t0.Add(time.Hour)},
	}
}

func TestWriteAllAndReadAll(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sequences.jsonl")

	want := testSequences()
	if err := WriteAll(path, want); err != nil {
		t.Fatalf("WriteAll() error = %v", err)
	}

	got, err := ReadAll(path)
	if err != nil {
		t.Fatalf("ReadAll() error = %v", err)
	}
	if len(got) != len(want) {
		t.Fatalf("ReadAll() returned %d sequences, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i].ID != want[i].ID || got[i].Nucleotides != want[i].Nucleotides ||
			got[i].Description != want[i].Description || !got[i].ModifiedAt.Equal(want[i].ModifiedAt) {
			t.Errorf("sequence %d = %+v, want %+v", i, got[i], want[i])
		}
	}

	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Error("WriteAll() left its temporary file behind")
	}
}

func TestReadAll_Missing(t *testing.T) {
	got, err := ReadAll(filepath.Join(t.TempDir(), "nope.jsonl"))
	if err != nil || got != nil {
		t.Errorf("ReadAll(missing) = %v, %v; want nil, nil", got, err)
	}
}

func TestReadAll_SkipsBlankLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sequences.jsonl")
	content := `{"id":"a","nucleotides":"ACGT","modified_at":"2024-01-01T00:00:00Z"}

{"id":"b","nucleotides":"TTTT","modified_at":"2024-01-01T00:00:00Z"}
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	got, err := ReadAll(path)
	if err != nil {
		t.Fatalf("ReadAll() error = %v", err)
	}
	if len(got) != 2 {
		t.Errorf("ReadAll() returned %d sequences, want 2", len(got))
	}
}

func TestReadAll_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{"bad json", "{not json}\n", "line 1"},
		{"missing id", `{"id":"a","nucleotides":"A"}` + "\n" + `{"nucleotides":"ACGT"}` + "\n", "line 2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "sequences.jsonl")
			if err := os.WriteFile(path, []byte(tt.content), 0644); err != nil {
				t.Fatal(err)
			}
			_, err := ReadAll(path)
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("ReadAll() error = %v, want mention of %q", err, tt.wantErr)
			}
		})
	}
}

func TestAppend(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sequences.jsonl")

	for _, s := range testSequences() {
		if err := Append(path, s); err != nil {
			t.Fatalf("Append() error = %v", err)
		}
	}

	got, err := ReadAll(path)
	if err != nil {
		t.Fatalf("ReadAll() error = %v", err)
	}
	if len(got) != 2 || got[0].ID != "ref1" || got[1].ID != "ref2" {
		t.Errorf("ReadAll() after Append = %+v", got)
	}
}
