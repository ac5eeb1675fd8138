// Package storage handles sequence persistence in JSONL and SQLite formats.
package storage

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
)

// MaxJSONLLineCapacity is the maximum buffer size for reading a JSONL line.
// Whole reference genomes sit on one line, so this is generous.
const MaxJSONLLineCapacity = 64 * 1024 * 1024

// ReadAll reads all sequences from a JSONL file. A missing file holds no
// sequences.
func ReadAll(path string) ([]Sequence, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("opening sequences file: %w", err)
	}
	defer f.Close()

	var seqs []Sequence
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), MaxJSONLLineCapacity)

	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var s Sequence
		if err := json.Unmarshal(line, &s); err != nil {
			return nil, fmt.Errorf("parsing line %d: %w", lineNum, err)
		}
		if s.ID == "" {
			return nil, fmt.Errorf("line %d: sequence without id", lineNum)
		}
		seqs = append(seqs, s)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading sequences file: %w", err)
	}

	return seqs, nil
}

// Append adds a sequence to the end of a JSONL file.
func Append(path string, s Sequence) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("opening sequences file for append: %w", err)
	}
	defer f.Close()

	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encoding sequence: %w", err)
	}

	if _, err := f.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("writing sequence: %w", err)
	}

	return nil
}

// WriteAll writes all sequences to a JSONL file, replacing existing content.
// The file is written beside the target and renamed into place.
func WriteAll(path string, seqs []Sequence) error {
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("creating sequences file: %w", err)
	}

	w := bufio.NewWriter(f)
	enc := json.NewEncoder(w)
	for i, s := range seqs {
		if err := enc.Encode(s); err != nil {
			f.Close()
			os.Remove(tmp)
			return fmt.Errorf("writing sequence %d: %w", i, err)
		}
	}
	if err := w.Flush(); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("flushing sequences file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("closing sequences file: %w", err)
	}

	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("replacing sequences file: %w", err)
	}
	return nil
}
