package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/ashureev/challenge-game/internal/domain"
	"github.com/ashureev/challenge-game/internal/shared"
	_ "modernc.org/sqlite"
)

// SQLiteStore implements Repository using SQLite.
type SQLiteStore struct {
	db    *sql.DB
	retry shared.RetryPolicy
}

// NewSQLite creates a new SQLite-backed repository.
func NewSQLite(dbPath string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	dsn := dbPath + "?_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	store := &SQLiteStore{db: db, retry: shared.DefaultRetryPolicy}
	if err := store.initSchema(); err != nil {
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	return store, nil
}

func (s *SQLiteStore) initSchema() error {
	query := `
	CREATE TABLE IF NOT EXISTS game_sessions (
		session_id TEXT PRIMARY KEY,
		phase TEXT NOT NULL,
		snapshot_json TEXT NOT NULL,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_game_sessions_updated ON game_sessions(updated_at);

	CREATE TABLE IF NOT EXISTS reflections (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id TEXT NOT NULL REFERENCES game_sessions(session_id) ON DELETE CASCADE,
		reflection_text TEXT NOT NULL,
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_reflections_session ON reflections(session_id);
	`
	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// Ping verifies database connectivity.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// SaveGame creates or updates a game session snapshot.
func (s *SQLiteStore) SaveGame(ctx context.Context, rec *domain.GameRecord) error {
	query := `
	INSERT INTO game_sessions (session_id, phase, snapshot_json, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?)
	ON CONFLICT(session_id) DO UPDATE SET
		phase = excluded.phase,
		snapshot_json = excluded.snapshot_json,
		updated_at = excluded.updated_at`

	updatedAt := rec.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now()
	}

	err := shared.RetryOnConflict(ctx, s.retry, "save_game", func() error {
		_, err := s.db.ExecContext(ctx, query,
			rec.SessionID, string(rec.Phase), string(rec.Snapshot),
			rec.CreatedAt.Unix(), updatedAt.Unix(),
		)
		return err
	})
	if err != nil {
		return fmt.Errorf("save game: %w", err)
	}
	return nil
}

// GetGame retrieves a game session by id.
func (s *SQLiteStore) GetGame(ctx context.Context, sessionID string) (*domain.GameRecord, error) {
	query := `
		SELECT session_id, phase, snapshot_json, created_at, updated_at
		FROM game_sessions WHERE session_id = ?`

	var rec domain.GameRecord
	var phase, snapshot string
	var createdAt, updatedAt int64

	err := s.db.QueryRowContext(ctx, query, sessionID).Scan(
		&rec.SessionID, &phase, &snapshot, &createdAt, &updatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan game row: %w", err)
	}

	rec.Phase = domain.Phase(phase)
	rec.Snapshot = []byte(snapshot)
	rec.CreatedAt = time.Unix(createdAt, 0)
	rec.UpdatedAt = time.Unix(updatedAt, 0)
	return &rec, nil
}

// DeleteGame removes a game session. Reflections go with it through the
// foreign key cascade.
func (s *SQLiteStore) DeleteGame(ctx context.Context, sessionID string) error {
	err := shared.RetryOnConflict(ctx, s.retry, "delete_game", func() error {
		_, err := s.db.ExecContext(ctx, `DELETE FROM game_sessions WHERE session_id = ?`, sessionID)
		return err
	})
	if err != nil {
		return fmt.Errorf("delete game %s: %w", sessionID, err)
	}
	return nil
}

// ExpiredGames lists the ids of sessions not updated within ttl.
func (s *SQLiteStore) ExpiredGames(ctx context.Context, ttl time.Duration) ([]string, error) {
	threshold := time.Now().Add(-ttl).Unix()
	rows, err := s.db.QueryContext(ctx, `SELECT session_id FROM game_sessions WHERE updated_at < ?`, threshold)
	if err != nil {
		return nil, fmt.Errorf("query expired games: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			slog.Warn("failed to close expired games rows", "error", closeErr)
		}
	}()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan expired game row: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate expired games: %w", err)
	}
	return ids, nil
}

// SaveReflection stores a written reflection for a session.
func (s *SQLiteStore) SaveReflection(ctx context.Context, rec *domain.ReflectionRecord) error {
	createdAt := rec.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	err := shared.RetryOnConflict(ctx, s.retry, "save_reflection", func() error {
		result, err := s.db.ExecContext(ctx,
			`INSERT INTO reflections (session_id, reflection_text, created_at) VALUES (?, ?, ?)`,
			rec.SessionID, rec.Text, createdAt.Unix(),
		)
		if err != nil {
			return err
		}
		id, err := result.LastInsertId()
		if err != nil {
			return err
		}
		rec.ID = id
		rec.CreatedAt = createdAt
		return nil
	})
	if err != nil {
		return fmt.Errorf("save reflection: %w", err)
	}
	return nil
}

// ListReflections returns a session's reflections, oldest first.
func (s *SQLiteStore) ListReflections(ctx context.Context, sessionID string) ([]*domain.ReflectionRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, session_id, reflection_text, created_at
		FROM reflections WHERE session_id = ? ORDER BY id`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("query reflections: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			slog.Warn("failed to close reflection rows", "error", closeErr)
		}
	}()

	var out []*domain.ReflectionRecord
	for rows.Next() {
		var rec domain.ReflectionRecord
		var createdAt int64
		if err := rows.Scan(&rec.ID, &rec.SessionID, &rec.Text, &createdAt); err != nil {
			return nil, fmt.Errorf("scan reflection row: %w", err)
		}
		rec.CreatedAt = time.Unix(createdAt, 0)
		out = append(out, &rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate reflections: %w", err)
	}
	return out, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("close database: %w", err)
	}
	return nil
}

var _ Repository = (*SQLiteStore)(nil)
