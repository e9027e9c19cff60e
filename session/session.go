// Package session owns the lifecycle of one puzzle in play: its grid,
// source image, placement state, hint manager, and final score.
package session

import (
	"context"
	"image"
	"sync"
	"time"

	"github.com/lyz-njeri/Jigsaw-game/analysis"
	"github.com/lyz-njeri/Jigsaw-game/errors"
	"github.com/lyz-njeri/Jigsaw-game/grid"
	"github.com/lyz-njeri/Jigsaw-game/hint"
	"github.com/lyz-njeri/Jigsaw-game/progress"
)

// Status of a session row.
const (
	StatusActive    = "active"
	StatusCompleted = "completed"
	StatusClosed    = "closed"
)

// Session is one puzzle in play. All methods are safe for concurrent use.
type Session struct {
	id          string
	level       Level
	img         image.Image
	fingerprint string
	size        grid.Size

	mu          sync.Mutex
	placements  map[int]bool
	createdAt   time.Time
	completedAt time.Time
	closed      bool

	hints   *hint.Manager
	tracker *progress.Tracker
	cache   *analysis.Cache
	scoring Scoring
	now     func() time.Time
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// Level returns the level this session plays.
func (s *Session) Level() Level { return s.level }

// Fingerprint returns the content fingerprint of the session image.
func (s *Session) Fingerprint() string { return s.fingerprint }

// GridSize returns the puzzle dimensions.
func (s *Session) GridSize() grid.Size { return s.size }

// CreatedAt returns when the session started.
func (s *Session) CreatedAt() time.Time { return s.createdAt }

// PlacePiece records that a piece was placed, correctly or not. Only
// correct placements count toward completion. Returns the updated
// progress summary.
func (s *Session) PlacePiece(id int, correct bool) (progress.Summary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return progress.Summary{}, errors.Wrapf(errors.ErrSessionClosed, "session %s", s.id)
	}
	if id < 0 || id >= s.size.Cells() {
		return progress.Summary{}, errors.NewInvalidRequestError(
			"piece id %d outside grid of %d pieces", id, s.size.Cells())
	}

	s.placements[id] = correct
	sum := s.tracker.Summarize(s.size, s.placements)
	if sum.Completion >= 1 && s.completedAt.IsZero() {
		s.completedAt = s.now()
	}
	return sum, nil
}

// RemovePiece takes a piece back off the board.
func (s *Session) RemovePiece(id int) (progress.Summary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return progress.Summary{}, errors.Wrapf(errors.ErrSessionClosed, "session %s", s.id)
	}
	delete(s.placements, id)
	return s.tracker.Summarize(s.size, s.placements), nil
}

// Progress returns the current completion summary.
func (s *Session) Progress() progress.Summary {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tracker.Summarize(s.size, s.placements)
}

// RequestHint asks the hint manager for the next hint against the current
// placement state.
func (s *Session) RequestHint(ctx context.Context) (*hint.Result, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, errors.Wrapf(errors.ErrSessionClosed, "session %s", s.id)
	}
	placed := make(map[int]bool, len(s.placements))
	for id, ok := range s.placements {
		placed[id] = ok
	}
	s.mu.Unlock()

	// The hint manager serializes its own state; holding the session lock
	// across a potentially slow analysis would block placements.
	return s.hints.RequestHint(ctx, s.img, s.size, placed)
}

// AvailableHintTypes reports which hint categories the current completion
// level favors, falling back to the geometry-only set when the image
// yields no usable analysis.
func (s *Session) AvailableHintTypes(ctx context.Context) ([]hint.Type, error) {
	sum := s.Progress()

	comp, err := s.cache.Get(ctx, s.img, s.size)
	if err != nil && ctx.Err() != nil {
		return nil, err
	}
	degraded := err != nil || comp.Degraded()
	return hint.AvailableTypes(sum.Completion, degraded), nil
}

// HintsUsed returns how many hints the session has consumed.
func (s *Session) HintsUsed() int {
	return s.hints.HintsUsed()
}

// HintCooldownRemaining reports the wait until the next hint.
func (s *Session) HintCooldownRemaining() time.Duration {
	return s.hints.CooldownRemaining()
}

// Completed reports whether every piece is correctly placed.
func (s *Session) Completed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.completedAt.IsZero()
}

// CompletedAt returns the completion time, zero if still in play.
func (s *Session) CompletedAt() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.completedAt
}

// Score returns the session score. Incomplete sessions score zero; a
// completed session earns the base score plus time bonus minus hint
// penalties, floored.
func (s *Session) Score() int {
	s.mu.Lock()
	completedAt := s.completedAt
	createdAt := s.createdAt
	s.mu.Unlock()

	if completedAt.IsZero() {
		return 0
	}
	return s.scoring.Score(completedAt.Sub(createdAt), s.hints.HintsUsed())
}

// Status returns the persistence status string for the session.
func (s *Session) Status() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch {
	case s.closed:
		return StatusClosed
	case !s.completedAt.IsZero():
		return StatusCompleted
	default:
		return StatusActive
	}
}

// Placements returns a copy of the placement state.
func (s *Session) Placements() map[int]bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[int]bool, len(s.placements))
	for id, ok := range s.placements {
		out[id] = ok
	}
	return out
}

// HintState captures the hint manager snapshot for persistence.
func (s *Session) HintState() hint.State {
	return s.hints.Snapshot()
}

// RestoreHintState replaces the hint manager state, used when resuming a
// saved session.
func (s *Session) RestoreHintState(st hint.State) {
	s.hints.Restore(st)
}

// Close ends the session and drops its cached analysis. Further
// operations return ErrSessionClosed. Closing twice is a no-op.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	s.cache.Invalidate(s.fingerprint)
}
