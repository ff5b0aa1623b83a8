package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/m2tx/kimap_agent/internal/model"
	_ "github.com/mattn/go-sqlite3"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS chat_sessions (
	id         TEXT PRIMARY KEY,
	history    TEXT NOT NULL,
	updated_at INTEGER NOT NULL
);`

// SQLiteSessionRepository implements SessionRepository on a local SQLite file.
// History is stored as a JSON array.
type SQLiteSessionRepository struct {
	db  *sql.DB
	now func() time.Time
}

// OpenSQLiteSessionRepository opens (or creates) the database at path.
func OpenSQLiteSessionRepository(path string) (*SQLiteSessionRepository, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("repository: open sqlite %q: %w", path, err)
	}

	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("repository: create sqlite schema: %w", err)
	}

	return &SQLiteSessionRepository{db: db, now: time.Now}, nil
}

// Close releases the underlying database.
func (r *SQLiteSessionRepository) Close() error {
	return r.db.Close()
}

func (r *SQLiteSessionRepository) Save(ctx context.Context, sessionID string, history []model.Content) error {
	data, err := json.Marshal(history)
	if err != nil {
		return fmt.Errorf("repository: encode session %q: %w", sessionID, err)
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO chat_sessions (id, history, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET history = excluded.history, updated_at = excluded.updated_at`,
		sessionID, string(data), r.now().UnixNano())
	if err != nil {
		return fmt.Errorf("repository: upsert session %q: %w", sessionID, err)
	}

	return nil
}

func (r *SQLiteSessionRepository) Load(ctx context.Context, sessionID string) ([]model.Content, error) {
	var data string
	err := r.db.QueryRowContext(ctx, `SELECT history FROM chat_sessions WHERE id = ?`, sessionID).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("repository: find session %q: %w", sessionID, err)
	}

	var history []model.Content
	if err := json.Unmarshal([]byte(data), &history); err != nil {
		return nil, fmt.Errorf("repository: decode session %q: %w", sessionID, err)
	}

	return history, nil
}

func (r *SQLiteSessionRepository) Delete(ctx context.Context, sessionID string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM chat_sessions WHERE id = ?`, sessionID); err != nil {
		return fmt.Errorf("repository: delete session %q: %w", sessionID, err)
	}

	return nil
}

func (r *SQLiteSessionRepository) List(ctx context.Context) ([]model.Session, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, history, updated_at FROM chat_sessions ORDER BY updated_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("repository: list sessions: %w", err)
	}
	defer rows.Close()

	sessions := []model.Session{}
	for rows.Next() {
		var (
			s       model.Session
			data    string
			updated int64
		)
		if err := rows.Scan(&s.ID, &data, &updated); err != nil {
			return nil, fmt.Errorf("repository: scan session: %w", err)
		}
		if err := json.Unmarshal([]byte(data), &s.History); err != nil {
			return nil, fmt.Errorf("repository: decode session %q: %w", s.ID, err)
		}
		s.UpdatedAt = time.Unix(0, updated).UTC()
		sessions = append(sessions, s)
	}

	return sessions, rows.Err()
}
