// Package archive persists conversation transcripts to SQLite.
//
// Live session state is in-memory and expires; the archive is the
// durable record. Every completed turn is appended here so transcripts
// survive restarts and session expiry.
package archive

import (
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Turn is one archived transcript entry.
type Turn struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	Role        string    `json:"role"`
	Content     string    `json:"content"`
	Mood        string    `json:"mood,omitempty"`
	ContentType string    `json:"content_type,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// Store handles immutable transcript archiving.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

// Open opens (or creates) the archive database at dbPath and runs the
// schema migration. The caller must have registered a "sqlite3" driver.
func Open(dbPath string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open archive db: %w", err)
	}

	s := &Store{db: db, logger: logger.With("component", "archive")}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("archive migration: %w", err)
	}
	return s, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS turns (
			id           TEXT NOT NULL PRIMARY KEY,
			user_id      TEXT NOT NULL,
			role         TEXT NOT NULL,
			content      TEXT NOT NULL,
			mood         TEXT NOT NULL DEFAULT '',
			content_type TEXT NOT NULL DEFAULT '',
			created_at   TEXT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_turns_user ON turns(user_id, created_at)
	`)
	return err
}

// Record appends a turn to the archive. The mood and content type
// capture the session state at the moment of the turn, so transcripts
// can be read back with their conversational context.
func (s *Store) Record(userID, role, content, mood, contentType string) error {
	_, err := s.db.Exec(`
		INSERT INTO turns (id, user_id, role, content, mood, content_type, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, uuid.NewString(), userID, role, content, mood, contentType,
		time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("record turn: %w", err)
	}
	return nil
}

// Recent returns up to limit turns for a user, oldest first.
func (s *Store) Recent(userID string, limit int) ([]Turn, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.Query(`
		SELECT id, user_id, role, content, mood, content_type, created_at
		FROM (
			SELECT * FROM turns WHERE user_id = ?
			ORDER BY created_at DESC LIMIT ?
		) ORDER BY created_at ASC
	`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("query turns: %w", err)
	}
	defer rows.Close()

	var turns []Turn
	for rows.Next() {
		var t Turn
		var createdAt string
		if err := rows.Scan(&t.ID, &t.UserID, &t.Role, &t.Content, &t.Mood, &t.ContentType, &createdAt); err != nil {
			return nil, fmt.Errorf("scan turn: %w", err)
		}
		t.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
		turns = append(turns, t)
	}
	return turns, rows.Err()
}

// MoodCounts tallies how often each mood appears in a user's archived
// turns. Empty moods (turns before any mood was known) are skipped.
func (s *Store) MoodCounts(userID string) (map[string]int, error) {
	rows, err := s.db.Query(`
		SELECT mood, COUNT(*) FROM turns
		WHERE user_id = ? AND mood != ''
		GROUP BY mood
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("query mood counts: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var mood string
		var n int
		if err := rows.Scan(&mood, &n); err != nil {
			return nil, fmt.Errorf("scan mood count: %w", err)
		}
		counts[mood] = n
	}
	return counts, rows.Err()
}
