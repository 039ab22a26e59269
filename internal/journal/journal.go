// Package journal keeps a local SQLite record of every verdict and adaptation
// decision produced by the evaluator, so runs can be compared and audited.
package journal

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// Kind classifies a journal entry.
type Kind string

const (
	KindFitness  Kind = "fitness"
	KindZones    Kind = "zones"
	KindVerdict  Kind = "verdict"
	KindDecision Kind = "decision"
	KindActivity Kind = "activity"
)

// Data quality markers.
const (
	QualityOK           = "ok"
	QualityInsufficient = "insufficient_data"
)

// Entry is one journaled result.
type Entry struct {
	ID          string          `json:"id"`
	Kind        Kind            `json:"kind"`
	Subject     string          `json:"subject"`
	Outcome     string          `json:"outcome"`
	Source      string          `json:"source,omitempty"`
	DataQuality string          `json:"data_quality"`
	Payload     json.RawMessage `json:"payload"`
	CreatedAt   time.Time       `json:"created_at"`
}

// Journal is a SQLite-backed decision log.
type Journal struct {
	db *sql.DB
}

// Open opens (or creates) the journal database at path.
func Open(path string) (*Journal, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating journal dir for %s: %w", path, err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening journal db: %w", err)
	}

	for _, stmt := range []string{
		`CREATE TABLE IF NOT EXISTS entries (
			id           TEXT PRIMARY KEY,
			kind         TEXT NOT NULL,
			subject      TEXT NOT NULL,
			outcome      TEXT NOT NULL,
			source       TEXT NOT NULL DEFAULT '',
			data_quality TEXT NOT NULL,
			payload      TEXT NOT NULL,
			created_at   TIMESTAMP NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS entries_subject_idx ON entries (subject, created_at)`,
		`CREATE TABLE IF NOT EXISTS evaluated_scenarios (
			path         TEXT PRIMARY KEY,
			hash         TEXT NOT NULL,
			evaluated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
	} {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("creating journal schema: %w", err)
		}
	}

	return &Journal{db: db}, nil
}

// Record stores payload as JSON under a new UUID and returns the ID.
func (j *Journal) Record(ctx context.Context, e Entry, payload any) (string, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshaling %s payload: %w", e.Kind, err)
	}
	if e.DataQuality == "" {
		e.DataQuality = QualityOK
	}
	id := uuid.NewString()
	_, err = j.db.ExecContext(ctx,
		`INSERT INTO entries (id, kind, subject, outcome, source, data_quality, payload, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		id, string(e.Kind), e.Subject, e.Outcome, e.Source, e.DataQuality, string(data), time.Now().UTC(),
	)
	if err != nil {
		return "", fmt.Errorf("inserting journal entry: %w", err)
	}
	return id, nil
}

// List returns a subject's entries, oldest first. A non-positive limit returns all.
func (j *Journal) List(ctx context.Context, subject string, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := j.db.QueryContext(ctx,
		`SELECT id, kind, subject, outcome, source, data_quality, payload, created_at
		 FROM entries WHERE subject = ? ORDER BY created_at, rowid LIMIT ?`,
		subject, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("querying journal: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e       Entry
			kind    string
			payload string
		)
		if err := rows.Scan(&e.ID, &kind, &e.Subject, &e.Outcome, &e.Source, &e.DataQuality, &payload, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning journal entry: %w", err)
		}
		e.Kind = Kind(kind)
		e.Payload = json.RawMessage(payload)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Counts returns entry totals per data quality marker.
func (j *Journal) Counts(ctx context.Context) (map[string]int, error) {
	rows, err := j.db.QueryContext(ctx, `SELECT data_quality, COUNT(*) FROM entries GROUP BY data_quality`)
	if err != nil {
		return nil, fmt.Errorf("counting journal entries: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var (
			quality string
			n       int
		)
		if err := rows.Scan(&quality, &n); err != nil {
			return nil, err
		}
		counts[quality] = n
	}
	return counts, rows.Err()
}

// IsEvaluated reports whether a scenario file with this hash was already journaled.
func (j *Journal) IsEvaluated(ctx context.Context, path, hash string) (bool, error) {
	var count int
	err := j.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM evaluated_scenarios WHERE path = ? AND hash = ?`,
		path, hash,
	).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// MarkEvaluated records that a scenario file was journaled.
func (j *Journal) MarkEvaluated(ctx context.Context, path, hash string) error {
	_, err := j.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO evaluated_scenarios (path, hash) VALUES (?, ?)`,
		path, hash,
	)
	return err
}

// Close closes the journal database.
func (j *Journal) Close() error {
	return j.db.Close()
}

// HashFile computes the SHA-256 hash of a file.
func HashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
