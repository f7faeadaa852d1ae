package store

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// Recognition is a persisted settled sign.
type Recognition struct {
	ID         string    `json:"id"`
	SessionID  string    `json:"session_id,omitempty"`
	Label      string    `json:"label"`
	Confidence float64   `json:"confidence"`
	CreatedAt  time.Time `json:"created_at"`
}

// RecognitionRepository provides access to the recognition history.
type RecognitionRepository struct {
	db *sql.DB
}

// Recognitions returns the recognition repository for this store.
func (s *Store) Recognitions() *RecognitionRepository {
	return &RecognitionRepository{db: s.db}
}

// Create inserts a recognition, assigning an ID when empty.
func (r *RecognitionRepository) Create(rec *Recognition) error {
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}

	var sessionID any
	if rec.SessionID != "" {
		sessionID = rec.SessionID
	}

	_, err := r.db.Exec(
		`INSERT INTO recognitions (id, session_id, label, confidence, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		rec.ID, sessionID, rec.Label, rec.Confidence, rec.CreatedAt,
	)
	return err
}

// ListRecent returns up to limit recognitions, newest first.
func (r *RecognitionRepository) ListRecent(limit int) ([]*Recognition, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := r.db.Query(
		`SELECT id, session_id, label, confidence, created_at
		 FROM recognitions ORDER BY created_at DESC, rowid DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var recs []*Recognition
	for rows.Next() {
		rec := &Recognition{}
		var sessionID sql.NullString

		if err := rows.Scan(&rec.ID, &sessionID, &rec.Label, &rec.Confidence, &rec.CreatedAt); err != nil {
			return nil, err
		}

		rec.SessionID = sessionID.String
		recs = append(recs, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return recs, nil
}

// Count returns the number of stored recognitions.
func (r *RecognitionRepository) Count() (int, error) {
	var n int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM recognitions`).Scan(&n)
	return n, err
}

// Clear deletes every recognition and returns how many were removed.
func (r *RecognitionRepository) Clear() (int64, error) {
	result, err := r.db.Exec(`DELETE FROM recognitions`)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
