package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"skillwatch/internal/domain"
	"skillwatch/internal/ports"
)

// FileName is the journal database under the skills root. The leading
// dot keeps it out of skill discovery.
const FileName = ".journal.db"

const defaultLimit = 50

// openDB is a package-level var to allow test injection.
var openDB = sql.Open

// Journal records the decision trail in an embedded SQLite database.
type Journal struct {
	db *sql.DB
}

var _ ports.Journal = (*Journal)(nil)

func Open(root string) (*Journal, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("journal: create skills root: %w", err)
	}

	db, err := openDB("sqlite", filepath.Join(root, FileName))
	if err != nil {
		return nil, fmt.Errorf("journal: open database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("journal: pragma %q: %w", p, err)
		}
	}

	j := &Journal{db: db}
	if err := j.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("journal: migration: %w", err)
	}

	return j, nil
}

func (j *Journal) Close() error {
	return j.db.Close()
}

func (j *Journal) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS events (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			occurred_at TEXT NOT NULL,
			process     TEXT NOT NULL,
			skill       TEXT NOT NULL DEFAULT '',
			event       TEXT NOT NULL,
			detail      TEXT NOT NULL DEFAULT ''
		);
		CREATE INDEX IF NOT EXISTS idx_events_skill ON events(skill, id);
	`
	if _, err := j.db.Exec(schema); err != nil {
		return err
	}
	return nil
}

func (j *Journal) Record(ctx context.Context, entry domain.JournalEntry) error {
	occurredAt := entry.OccurredAt
	if occurredAt.IsZero() {
		occurredAt = time.Now()
	}

	_, err := j.db.ExecContext(ctx,
		`INSERT INTO events (occurred_at, process, skill, event, detail) VALUES (?, ?, ?, ?, ?)`,
		occurredAt.UTC().Format(time.RFC3339), entry.Process, entry.Skill, entry.Event, entry.Detail)
	if err != nil {
		return fmt.Errorf("journal: record event: %w", err)
	}

	return nil
}

// Recent returns the newest entries first, optionally filtered by
// skill name.
func (j *Journal) Recent(ctx context.Context, skill string, limit int) ([]domain.JournalEntry, error) {
	if limit <= 0 {
		limit = defaultLimit
	}

	query := `SELECT id, occurred_at, process, skill, event, detail FROM events`
	args := []any{}
	if skill != "" {
		query += ` WHERE skill = ?`
		args = append(args, skill)
	}
	query += ` ORDER BY id DESC LIMIT ?`
	args = append(args, limit)

	rows, err := j.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("journal: query events: %w", err)
	}
	defer rows.Close()

	var entries []domain.JournalEntry
	for rows.Next() {
		var (
			entry domain.JournalEntry
			raw   string
		)
		if err := rows.Scan(&entry.ID, &raw, &entry.Process, &entry.Skill, &entry.Event, &entry.Detail); err != nil {
			return nil, fmt.Errorf("journal: scan event: %w", err)
		}
		entry.OccurredAt, _ = time.Parse(time.RFC3339, raw)
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("journal: iterate events: %w", err)
	}

	return entries, nil
}
