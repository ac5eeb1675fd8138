package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when a sequence id is not in the database.
var ErrNotFound = errors.New("sequence not found")

// DB wraps a SQLite database connection. It is a query cache rebuilt from
// sequences.jsonl and serves reference sequences to the index cache.
type DB struct {
	db *sql.DB
}

// OpenDB opens or creates a SQLite database at the given path.
func OpenDB(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	db.SetMaxOpenConns(1) // SQLite doesn't support concurrent writes

	if err := createSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &DB{db: db}, nil
}

// Close closes the database connection.
func (d *DB) Close() error {
	return d.db.Close()
}

func createSchema(db *sql.DB) error {
	schema := `
		CREATE TABLE IF NOT EXISTS sequences (
			id TEXT PRIMARY KEY,
			description TEXT NOT NULL DEFAULT '',
			nucleotides TEXT NOT NULL,
			length INTEGER NOT NULL,
			modified_at INTEGER NOT NULL
		);
	`
	_, err := db.Exec(schema)
	return err
}

// RebuildFromJSONL clears the database and rebuilds it from a JSONL file.
func (d *DB) RebuildFromJSONL(jsonlPath string) (int, error) {
	seqs, err := ReadAll(jsonlPath)
	if err != nil {
		return 0, fmt.Errorf("reading JSONL: %w", err)
	}

	tx, err := d.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("starting rebuild: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM sequences"); err != nil {
		return 0, fmt.Errorf("clearing sequences table: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO sequences (id, description, nucleotides, length, modified_at)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return 0, fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for _, s := range seqs {
		if _, err := stmt.Exec(s.ID, s.Description, s.Nucleotides, s.Len(), s.ModifiedAt.UnixNano()); err != nil {
			return 0, fmt.Errorf("inserting sequence %s: %w", s.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing rebuild: %w", err)
	}
	return len(seqs), nil
}

// GetByID retrieves a sequence by its ID.
func (d *DB) GetByID(ctx context.Context, id string) (*Sequence, error) {
	row := d.db.QueryRowContext(ctx,
		`SELECT id, description, nucleotides, modified_at FROM sequences WHERE id = ?`, id)

	var s Sequence
	var modified int64
	if err := row.Scan(&s.ID, &s.Description, &s.Nucleotides, &modified); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return nil, fmt.Errorf("loading sequence %s: %w", id, err)
	}
	s.ModifiedAt = time.Unix(0, modified).UTC()
	return &s, nil
}

// Nucleotides returns the bases of the sequence with the given id.
func (d *DB) Nucleotides(ctx context.Context, id string) (string, error) {
	s, err := d.GetByID(ctx, id)
	if err != nil {
		return "", err
	}
	return s.Nucleotides, nil
}

// LastModified returns the latest modification time across ids. Every id
// must exist.
func (d *DB) LastModified(ctx context.Context, ids []string) (time.Time, error) {
	var latest int64
	for _, id := range ids {
		var modified int64
		err := d.db.QueryRowContext(ctx, `SELECT modified_at FROM sequences WHERE id = ?`, id).Scan(&modified)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return time.Time{}, fmt.Errorf("%w: %s", ErrNotFound, id)
			}
			return time.Time{}, fmt.Errorf("checking sequence %s: %w", id, err)
		}
		latest = max(latest, modified)
	}
	return time.Unix(0, latest).UTC(), nil
}

// Summary describes a stored sequence without its bases.
type Summary struct {
	ID          string    `json:"id"`
	Description string    `json:"description,omitempty"`
	Length      int       `json:"length"`
	ModifiedAt  time.Time `json:"modified_at"`
}

// ListAll returns sequence summaries ordered by id. A limit of 0 means no
// limit.
func (d *DB) ListAll(ctx context.Context, limit int) ([]Summary, error) {
	query := `SELECT id, description, length, modified_at FROM sequences ORDER BY id`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing sequences: %w", err)
	}
	defer rows.Close()

	var out []Summary
	for rows.Next() {
		var s Summary
		var modified int64
		if err := rows.Scan(&s.ID, &s.Description, &s.Length, &modified); err != nil {
			return nil, fmt.Errorf("scanning sequence: %w", err)
		}
		s.ModifiedAt = time.Unix(0, modified).UTC()
		out = append(out, s)
	}
	return out, rows.Err()
}

// Count returns the number of stored sequences.
func (d *DB) Count() (int, error) {
	var n int
	if err := d.db.QueryRow(`SELECT COUNT(*) FROM sequences`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting sequences: %w", err)
	}
	return n, nil
}
