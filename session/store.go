package session

import (
	"database/sql"
	"encoding/json"
	"time"

	"github.com/lyz-njeri/Jigsaw-game/db"
	"github.com/lyz-njeri/Jigsaw-game/errors"
	"github.com/lyz-njeri/Jigsaw-game/grid"
	"github.com/lyz-njeri/Jigsaw-game/hint"
	"github.com/lyz-njeri/Jigsaw-game/hint/hintstore"
)

// Store persists sessions and their hint state to SQLite.
type Store struct {
	db    *sql.DB
	hints *hintstore.Store
}

// NewStore creates a session store over an already-migrated database.
func NewStore(database *sql.DB) *Store {
	return &Store{db: database, hints: hintstore.NewStore(database)}
}

// wrapDBErr classifies a driver failure before wrapping it. Operations that
// race graceful shutdown surface db.ErrDatabaseClosed so callers can map
// them to a service-unavailable path instead of an internal error.
func wrapDBErr(err error, format string, args ...interface{}) error {
	if db.IsDatabaseClosed(err) {
		return errors.Wrapf(db.ErrDatabaseClosed, format, args...)
	}
	return errors.Wrapf(err, format, args...)
}

// Record is a persisted session row.
type Record struct {
	ID          string
	LevelID     string
	Fingerprint string
	Size        grid.Size
	Placements  map[int]bool
	Status      string
	Score       int
	CreatedAt   time.Time
	UpdatedAt   time.Time
	CompletedAt *time.Time
}

// Save upserts the session row and its hint manager snapshot.
func (st *Store) Save(s *Session, now time.Time) error {
	placements, err := json.Marshal(s.Placements())
	if err != nil {
		return errors.Wrap(err, "failed to marshal placements")
	}

	var completedAt interface{}
	if at := s.CompletedAt(); !at.IsZero() {
		completedAt = at
	}

	query := `
		INSERT INTO puzzle_sessions (
			id, level_id, fingerprint, grid_rows, grid_cols,
			placements, status, score, created_at, updated_at, completed_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			placements = excluded.placements,
			status = excluded.status,
			score = excluded.score,
			updated_at = excluded.updated_at,
			completed_at = excluded.completed_at
	`
	size := s.GridSize()
	_, err = st.db.Exec(query,
		s.ID(),
		s.Level().ID,
		s.Fingerprint(),
		size.Rows,
		size.Cols,
		string(placements),
		s.Status(),
		s.Score(),
		s.CreatedAt(),
		now,
		completedAt,
	)
	if err != nil {
		return wrapDBErr(err, "failed to save session %s", s.ID())
	}

	if err := st.hints.Save(s.ID(), s.HintState(), now); err != nil {
		return wrapDBErr(err, "failed to save hint state for session %s", s.ID())
	}
	return nil
}

// Load reads a persisted session row. Returns ErrNotFound for unknown ids.
func (st *Store) Load(id string) (Record, error) {
	query := `
		SELECT id, level_id, fingerprint, grid_rows, grid_cols,
		       placements, status, score, created_at, updated_at, completed_at
		FROM puzzle_sessions WHERE id = ?
	`
	var (
		rec         Record
		placements  string
		completedAt sql.NullTime
	)
	err := st.db.QueryRow(query, id).Scan(
		&rec.ID, &rec.LevelID, &rec.Fingerprint,
		&rec.Size.Rows, &rec.Size.Cols,
		&placements, &rec.Status, &rec.Score,
		&rec.CreatedAt, &rec.UpdatedAt, &completedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, errors.NewNotFoundError("session %s", id)
	}
	if err != nil {
		return Record{}, wrapDBErr(err, "failed to load session %s", id)
	}

	if err := json.Unmarshal([]byte(placements), &rec.Placements); err != nil {
		return Record{}, errors.Wrapf(err, "failed to unmarshal placements for session %s", id)
	}
	if completedAt.Valid {
		rec.CompletedAt = &completedAt.Time
	}
	return rec, nil
}

// HintState loads the persisted hint snapshot for a session.
func (st *Store) HintState(id string) (hint.State, error) {
	return st.hints.Load(id)
}

// Delete removes a session row; hint state cascades.
func (st *Store) Delete(id string) error {
	if _, err := st.db.Exec("DELETE FROM puzzle_sessions WHERE id = ?", id); err != nil {
		return wrapDBErr(err, "failed to delete session %s", id)
	}
	return nil
}

// RecordScore appends a completed session to the level score history.
func (st *Store) RecordScore(s *Session, now time.Time) error {
	completedAt := s.CompletedAt()
	if completedAt.IsZero() {
		return errors.NewInvalidRequestError("session %s is not completed", s.ID())
	}

	query := `
		INSERT INTO level_scores (level_id, session_id, score, hints_used, duration_seconds, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	duration := int(completedAt.Sub(s.CreatedAt()) / time.Second)
	_, err := st.db.Exec(query,
		s.Level().ID, s.ID(), s.Score(), s.HintsUsed(), duration, now,
	)
	if err != nil {
		return wrapDBErr(err, "failed to record score for session %s", s.ID())
	}
	return nil
}

// ScoreRow is one leaderboard entry.
type ScoreRow struct {
	SessionID       string
	Score           int
	HintsUsed       int
	DurationSeconds int
	RecordedAt      time.Time
}

// TopScores returns the best scores for a level, highest first.
func (st *Store) TopScores(levelID string, limit int) ([]ScoreRow, error) {
	if limit <= 0 {
		limit = 10
	}
	query := `
		SELECT session_id, score, hints_used, duration_seconds, recorded_at
		FROM level_scores WHERE level_id = ?
		ORDER BY score DESC, recorded_at ASC
		LIMIT ?
	`
	rows, err := st.db.Query(query, levelID, limit)
	if err != nil {
		return nil, wrapDBErr(err, "failed to query scores for level %s", levelID)
	}
	defer rows.Close()

	var out []ScoreRow
	for rows.Next() {
		var r ScoreRow
		if err := rows.Scan(&r.SessionID, &r.Score, &r.HintsUsed, &r.DurationSeconds, &r.RecordedAt); err != nil {
			return nil, errors.Wrap(err, "failed to scan score row")
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
