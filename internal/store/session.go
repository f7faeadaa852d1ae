package store

import (
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Session is one run of the translator between start and stop.
type Session struct {
	ID           string     `json:"id"`
	StartedAt    time.Time  `json:"started_at"`
	EndedAt      *time.Time `json:"ended_at,omitempty"`
	Frames       int        `json:"frames"`
	Recognitions int        `json:"recognitions"`
}

// SessionRepository records translator sessions.
type SessionRepository struct {
	db *sql.DB
}

// Sessions returns the session repository for this store.
func (s *Store) Sessions() *SessionRepository {
	return &SessionRepository{db: s.db}
}

// Start inserts a new open session.
func (r *SessionRepository) Start(at time.Time) (*Session, error) {
	sess := &Session{
		ID:        uuid.New().String(),
		StartedAt: at,
	}

	_, err := r.db.Exec(
		`INSERT INTO sessions (id, started_at) VALUES (?, ?)`,
		sess.ID, sess.StartedAt,
	)
	if err != nil {
		return nil, err
	}

	return sess, nil
}

// End closes a session and records how many frames it processed. The
// recognition count is taken from the recognitions table.
func (r *SessionRepository) End(id string, at time.Time, frames int) error {
	result, err := r.db.Exec(
		`UPDATE sessions SET ended_at = ?, frames = ?,
		 recognitions = (SELECT COUNT(*) FROM recognitions WHERE session_id = ?)
		 WHERE id = ?`,
		at, frames, id, id,
	)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrNotFound
	}

	return nil
}

// Get retrieves a session by its ID.
func (r *SessionRepository) Get(id string) (*Session, error) {
	sess := &Session{}
	var ended sql.NullTime

	err := r.db.QueryRow(
		`SELECT id, started_at, ended_at, frames, recognitions FROM sessions WHERE id = ?`,
		id,
	).Scan(&sess.ID, &sess.StartedAt, &ended, &sess.Frames, &sess.Recognitions)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if ended.Valid {
		sess.EndedAt = &ended.Time
	}
	return sess, nil
}
