// Package fasta reads and writes FASTA-formatted nucleotide records.
package fasta

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"slices"
	"strings"
	"unicode"
)

// LineWidth is the number of residues written per sequence line.
const LineWidth = 60

// Record is a single FASTA entry.
type Record struct {
	ID          string
	Description string
	Sequence    string
}

// Read parses FASTA records from r. The record ID is the first
// whitespace-delimited token of the header; the rest becomes Description.
func Read(r io.Reader) ([]Record, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 16*1024*1024)

	var records []Record
	var seq strings.Builder
	var current *Record
	lineNum := 0

	flush := func() {
		if current != nil {
			current.Sequence = seq.String()
			records = append(records, *current)
			seq.Reset()
		}
	}

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, ";") {
			continue
		}
		if strings.HasPrefix(line, ">") {
			flush()
			id, desc := splitHeader(strings.TrimSpace(line[1:]))
			if id == "" {
				return nil, fmt.Errorf("line %d: empty FASTA header", lineNum)
			}
			current = &Record{ID: id, Description: strings.TrimSpace(desc)}
			continue
		}
		if current == nil {
			return nil, fmt.Errorf("line %d: sequence data before first header", lineNum)
		}
		seq.WriteString(strings.ToUpper(line))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading FASTA: %w", err)
	}
	flush()

	return records, nil
}

// Write writes records to w, wrapping sequences at LineWidth.
func Write(w io.Writer, records []Record) error {
	bw := bufio.NewWriter(w)
	for _, rec := range records {
		header := rec.ID
		if rec.Description != "" {
			header += " " + rec.Description
		}
		if _, err := fmt.Fprintf(bw, ">%s\n", header); err != nil {
			return err
		}
		for i := 0; i < len(rec.Sequence); i += LineWidth {
			end := min(i+LineWidth, len(rec.Sequence))
			if _, err := fmt.Fprintln(bw, rec.Sequence[i:end]); err != nil {
				return err
			}
		}
	}
	return bw.Flush()
}

// FromMap builds records from an id -> sequence map, sorted by id so the
// output is deterministic.
func FromMap(seqs map[string]string) []Record {
	ids := make([]string, 0, len(seqs))
	for id := range seqs {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	records := make([]Record, 0, len(ids))
	for _, id := range ids {
		records = append(records, Record{ID: id, Sequence: seqs[id]})
	}
	return records
}

// Encode is Write into a byte slice.
func Encode(records []Record) []byte {
	var buf bytes.Buffer
	_ = Write(&buf, records) // bytes.Buffer writes do not fail
	return buf.Bytes()
}

// splitHeader cuts a header at its first whitespace, as blastn does when
// it reports query and subject ids.
func splitHeader(header string) (id, desc string) {
	i := strings.IndexFunc(header, unicode.IsSpace)
	if i < 0 {
		return header, ""
	}
	return header[:i], header[i+1:]
}
