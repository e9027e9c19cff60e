package session

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/lyz-njeri/Jigsaw-game/analysis"
	"github.com/lyz-njeri/Jigsaw-game/errors"
	"github.com/lyz-njeri/Jigsaw-game/hint"
	"github.com/lyz-njeri/Jigsaw-game/progress"
)

// Config carries the tunables a Registry hands to new sessions.
type Config struct {
	HintCooldown time.Duration
	Scoring      Scoring
	RegionRows   int
	RegionCols   int
	Now          func() time.Time // test clock injection; defaults to time.Now
}

// Registry tracks active sessions by id and wires each new session to the
// shared analysis cache and its own hint manager.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session

	cache  *analysis.Cache
	cfg    Config
	logger *zap.SugaredLogger
}

// NewRegistry creates a session registry over a shared analysis cache.
func NewRegistry(cache *analysis.Cache, cfg Config, logger *zap.SugaredLogger) *Registry {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Scoring == (Scoring{}) {
		cfg.Scoring = DefaultScoring
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Registry{
		sessions: make(map[string]*Session),
		cache:    cache,
		cfg:      cfg,
		logger:   logger,
	}
}

// Create starts a new session for a built-in level.
func (r *Registry) Create(levelID string) (*Session, error) {
	level, err := LevelByID(levelID)
	if err != nil {
		return nil, err
	}

	img := LevelImage(level)
	tracker := progress.NewTracker(r.cfg.RegionRows, r.cfg.RegionCols)
	s := &Session{
		id:          uuid.NewString(),
		level:       level,
		img:         img,
		fingerprint: analysis.Fingerprint(img),
		size:        level.GridSize,
		placements:  make(map[int]bool),
		createdAt:   r.cfg.Now(),
		tracker:     tracker,
		cache:       r.cache,
		scoring:     r.cfg.Scoring,
		now:         r.cfg.Now,
		hints: hint.NewManager(tracker, r.cache, hint.Config{
			Cooldown: r.cfg.HintCooldown,
			Now:      r.cfg.Now,
		}, r.logger),
	}

	r.mu.Lock()
	r.sessions[s.id] = s
	r.mu.Unlock()

	r.logger.Infow("Session created",
		"session_id", s.id,
		"level", level.ID,
		"grid", level.GridSize,
	)
	return s, nil
}

// Resume rebuilds a saved session from its persisted record and hint
// snapshot, and registers it as active again. The hint cooldown resumes
// exactly where the save left it.
func (r *Registry) Resume(rec Record, hintState hint.State) (*Session, error) {
	level, err := LevelByID(rec.LevelID)
	if err != nil {
		return nil, err
	}

	img := LevelImage(level)
	if fp := analysis.Fingerprint(img); fp != rec.Fingerprint {
		r.logger.Warnw("Resumed session image fingerprint changed",
			"session_id", rec.ID,
			"saved", rec.Fingerprint,
			"current", fp,
		)
	}

	placements := make(map[int]bool, len(rec.Placements))
	for id, ok := range rec.Placements {
		placements[id] = ok
	}

	tracker := progress.NewTracker(r.cfg.RegionRows, r.cfg.RegionCols)
	s := &Session{
		id:          rec.ID,
		level:       level,
		img:         img,
		fingerprint: analysis.Fingerprint(img),
		size:        level.GridSize,
		placements:  placements,
		createdAt:   rec.CreatedAt,
		tracker:     tracker,
		cache:       r.cache,
		scoring:     r.cfg.Scoring,
		now:         r.cfg.Now,
		hints: hint.NewManager(tracker, r.cache, hint.Config{
			Cooldown: r.cfg.HintCooldown,
			Now:      r.cfg.Now,
		}, r.logger),
	}
	if rec.CompletedAt != nil {
		s.completedAt = *rec.CompletedAt
	}
	s.hints.Restore(hintState)

	r.mu.Lock()
	r.sessions[s.id] = s
	r.mu.Unlock()

	r.logger.Infow("Session resumed",
		"session_id", s.id,
		"level", level.ID,
		"hints_used", hintState.HintsUsed,
	)
	return s, nil
}

// Get returns an active session by id.
func (r *Registry) Get(id string) (*Session, error) {
	r.mu.RLock()
	s, ok := r.sessions[id]
	r.mu.RUnlock()
	if !ok {
		return nil, errors.NewNotFoundError("session %s", id)
	}
	return s, nil
}

// Close ends a session and removes it from the registry.
func (r *Registry) Close(id string) error {
	r.mu.Lock()
	s, ok := r.sessions[id]
	delete(r.sessions, id)
	r.mu.Unlock()
	if !ok {
		return errors.NewNotFoundError("session %s", id)
	}

	s.Close()
	r.logger.Infow("Session closed", "session_id", id)
	return nil
}

// Len returns the number of active sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
