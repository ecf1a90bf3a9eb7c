// Package checkpoint persists session snapshots in SQLite, keyed by session
// id. The scheduler saves after every step; a suspended or crashed session
// resumes from its last checkpoint.
package checkpoint

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/tripweaver/tripweaver/internal/engine"
)

// Store is a SQLite-backed engine.CheckpointStore.
type Store struct {
	db *sql.DB
}

// NewStore opens (or creates) the checkpoint database and initializes the
// schema. WAL mode allows concurrent readers while a session writes.
func NewStore(ctx context.Context, dbPath string) (*Store, error) {
	dsn := dbPath + "?_journal_mode=WAL&_busy_timeout=5000"

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open checkpoint database: %w", err)
	}

	// SQLite handles a single writer; sessions writing concurrently queue on
	// the busy timeout instead of failing.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping checkpoint database: %w", err)
	}

	s := &Store{db: db}
	if err := s.initSchema(ctx); err != nil {
		return nil, fmt.Errorf("failed to initialize checkpoint schema: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) initSchema(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS checkpoints (
		session_id TEXT PRIMARY KEY,
		step       TEXT NOT NULL,
		suspended  INTEGER NOT NULL,
		prompt     TEXT NOT NULL DEFAULT '',
		terminal   INTEGER NOT NULL,
		state      BLOB NOT NULL,
		updated_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_checkpoints_updated ON checkpoints(updated_at);
	`
	_, err := s.db.ExecContext(ctx, schema)
	return err
}

// Save upserts the checkpoint for its session.
func (s *Store) Save(ctx context.Context, cp engine.Checkpoint) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO checkpoints (session_id, step, suspended, prompt, terminal, state, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(session_id) DO UPDATE SET
			step = excluded.step,
			suspended = excluded.suspended,
			prompt = excluded.prompt,
			terminal = excluded.terminal,
			state = excluded.state,
			updated_at = excluded.updated_at`,
		cp.SessionID, string(cp.Step), boolToInt(cp.Suspended), cp.Prompt,
		boolToInt(cp.Terminal), cp.State, cp.UpdatedAt.Unix())
	if err != nil {
		return fmt.Errorf("failed to save checkpoint for %s: %w", cp.SessionID, err)
	}
	return nil
}

// Load retrieves a session's checkpoint, or engine.ErrNotFound.
func (s *Store) Load(ctx context.Context, sessionID string) (engine.Checkpoint, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT step, suspended, prompt, terminal, state, updated_at
		FROM checkpoints WHERE session_id = ?`, sessionID)

	var (
		step      string
		suspended int
		prompt    string
		terminal  int
		state     []byte
		updatedAt int64
	)
	if err := row.Scan(&step, &suspended, &prompt, &terminal, &state, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return engine.Checkpoint{}, engine.ErrNotFound
		}
		return engine.Checkpoint{}, fmt.Errorf("failed to load checkpoint for %s: %w", sessionID, err)
	}

	return engine.Checkpoint{
		SessionID: sessionID,
		Step:      engine.StepID(step),
		Suspended: suspended != 0,
		Prompt:    prompt,
		Terminal:  terminal != 0,
		State:     state,
		UpdatedAt: time.Unix(updatedAt, 0).UTC(),
	}, nil
}

// Delete discards a session's checkpoint. Cancelling a session is exactly
// this: no compensating actions are needed.
func (s *Store) Delete(ctx context.Context, sessionID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM checkpoints WHERE session_id = ?`, sessionID)
	if err != nil {
		return fmt.Errorf("failed to delete checkpoint for %s: %w", sessionID, err)
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
