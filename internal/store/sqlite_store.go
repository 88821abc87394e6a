package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jmallory/solace/internal/domain"
)

// SQLiteStore implements SessionStore backed by SQLite.
type SQLiteStore struct {
	db *DB
}

// NewSQLiteStore creates a session store using the given database.
func NewSQLiteStore(db *DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

func (s *SQLiteStore) Create(ctx context.Context) (*domain.Session, error) {
	now := time.Now().UTC()
	sess := &domain.Session{
		ID:             uuid.NewString(),
		CreatedAt:      now,
		LastActiveAt:   now,
		EmotionalState: domain.StateUnknown,
	}

	_, err := s.db.sql.ExecContext(ctx,
		`INSERT INTO sessions (id, created_at, last_active_at, emotional_state)
		 VALUES (?, ?, ?, ?)`,
		sess.ID, sess.CreatedAt.Format(time.RFC3339Nano),
		sess.LastActiveAt.Format(time.RFC3339Nano), string(sess.EmotionalState),
	)
	if err != nil {
		return nil, fmt.Errorf("creating session: %w", err)
	}
	return sess, nil
}

func (s *SQLiteStore) Get(ctx context.Context, id string) (*domain.Session, error) {
	var sess domain.Session
	var createdAt, lastActiveAt, state string

	err := s.db.sql.QueryRowContext(ctx,
		`SELECT id, created_at, last_active_at, emotional_state
		 FROM sessions WHERE id = ?`, id,
	).Scan(&sess.ID, &createdAt, &lastActiveAt, &state)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading session: %w", err)
	}

	sess.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
	sess.LastActiveAt, _ = time.Parse(time.RFC3339Nano, lastActiveAt)
	sess.EmotionalState = domain.EmotionalState(state)

	turns, err := s.loadTurns(ctx, id)
	if err != nil {
		return nil, err
	}
	sess.Turns = turns
	return &sess, nil
}

// AppendTurn inserts the turn and updates the session row in one
// transaction, so readers never observe a turn without the matching
// last-active timestamp and emotional state.
func (s *SQLiteStore) AppendTurn(ctx context.Context, id string, turn domain.Turn) error {
	tx, err := s.db.sql.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin append: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`UPDATE sessions SET last_active_at = ?, emotional_state = ? WHERE id = ?`,
		turn.Timestamp.Format(time.RFC3339Nano), string(turn.EmotionalState), id,
	)
	if err != nil {
		return fmt.Errorf("updating session: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("updating session: %w", err)
	}
	if affected == 0 {
		return ErrSessionNotFound
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO turns (session_id, user_text, assistant_text, timestamp, emotional_state)
		 VALUES (?, ?, ?, ?, ?)`,
		id, turn.UserText, turn.AssistantText,
		turn.Timestamp.Format(time.RFC3339Nano), string(turn.EmotionalState),
	)
	if err != nil {
		return fmt.Errorf("inserting turn: %w", err)
	}

	return tx.Commit()
}

func (s *SQLiteStore) ListTurns(ctx context.Context, id string) ([]domain.Turn, error) {
	var exists int
	err := s.db.sql.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM sessions WHERE id = ?`, id).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("checking session: %w", err)
	}
	if exists == 0 {
		return nil, ErrSessionNotFound
	}
	return s.loadTurns(ctx, id)
}

func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.sql.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting session: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("deleting session: %w", err)
	}
	if affected == 0 {
		return ErrSessionNotFound
	}
	return nil
}

func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	var count int
	if err := s.db.sql.QueryRowContext(ctx, `SELECT COUNT(*) FROM sessions`).Scan(&count); err != nil {
		return 0, fmt.Errorf("counting sessions: %w", err)
	}
	return count, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) loadTurns(ctx context.Context, id string) ([]domain.Turn, error) {
	rows, err := s.db.sql.QueryContext(ctx,
		`SELECT user_text, assistant_text, timestamp, emotional_state
		 FROM turns WHERE session_id = ? ORDER BY id`, id,
	)
	if err != nil {
		return nil, fmt.Errorf("loading turns: %w", err)
	}
	defer rows.Close()

	var turns []domain.Turn
	for rows.Next() {
		var turn domain.Turn
		var ts, state string
		if err := rows.Scan(&turn.UserText, &turn.AssistantText, &ts, &state); err != nil {
			return nil, fmt.Errorf("scanning turn: %w", err)
		}
		turn.Timestamp, _ = time.Parse(time.RFC3339Nano, ts)
		turn.EmotionalState = domain.EmotionalState(state)
		turns = append(turns, turn)
	}
	return turns, rows.Err()
}
