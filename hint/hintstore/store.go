// Package hintstore persists hint manager snapshots so a saved puzzle
// session resumes with its cooldown and revelation bookkeeping intact.
package hintstore

import (
	"database/sql"
	"encoding/json"
	"time"

	"github.com/lyz-njeri/Jigsaw-game/errors"
	"github.com/lyz-njeri/Jigsaw-game/hint"
)

// Store handles persistence of hint manager state, one row per session.
type Store struct {
	db *sql.DB
}

// NewStore creates a new hint state store.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Save upserts the snapshot for a session.
func (s *Store) Save(sessionID string, st hint.State, now time.Time) error {
	payload, err := json.Marshal(st)
	if err != nil {
		return errors.Wrap(err, "failed to marshal hint state")
	}

	query := `
		INSERT INTO hint_state (session_id, state, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(session_id) DO UPDATE SET
			state = excluded.state,
			updated_at = excluded.updated_at
	`
	if _, err := s.db.Exec(query, sessionID, string(payload), now); err != nil {
		return errors.Wrapf(err, "failed to save hint state for session %s", sessionID)
	}
	return nil
}

// Load retrieves the snapshot for a session. Returns ErrNotFound when the
// session has never saved hint state.
func (s *Store) Load(sessionID string) (hint.State, error) {
	var payload string
	err := s.db.QueryRow(
		"SELECT state FROM hint_state WHERE session_id = ?", sessionID,
	).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return hint.State{}, errors.NewNotFoundError("hint state for session %s", sessionID)
	}
	if err != nil {
		return hint.State{}, errors.Wrapf(err, "failed to load hint state for session %s", sessionID)
	}

	var st hint.State
	if err := json.Unmarshal([]byte(payload), &st); err != nil {
		return hint.State{}, errors.Wrapf(err, "failed to unmarshal hint state for session %s", sessionID)
	}
	return st, nil
}

// Delete removes the snapshot for a session. Deleting absent state is not
// an error.
func (s *Store) Delete(sessionID string) error {
	if _, err := s.db.Exec("DELETE FROM hint_state WHERE session_id = ?", sessionID); err != nil {
		return errors.Wrapf(err, "failed to delete hint state for session %s", sessionID)
	}
	return nil
}
