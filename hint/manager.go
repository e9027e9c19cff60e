package hint

import (
	"context"
	"image"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/lyz-njeri/Jigsaw-game/analysis"
	"github.com/lyz-njeri/Jigsaw-game/grid"
	"github.com/lyz-njeri/Jigsaw-game/progress"
)

// DefaultCooldown is the minimum interval between granted hints when the
// configuration does not override it.
const DefaultCooldown = 2 * time.Hour

// completion bands and the hint types each favors. Within a band the
// manager cycles by oldest last-use so repeated requests at the same
// progress level vary.
var bands = []struct {
	upTo  float64 // exclusive, except the last band which includes 1.0
	types []Type
}{
	{0.25, []Type{TypeEdgeStructure, TypeCompositionOverview}},
	{0.50, []Type{TypeFocalPoint, TypeColorRegion}},
	{0.75, []Type{TypeColorRegion, TypePatternMatch}},
	{1.01, []Type{TypeProgressGuidance, TypePatternMatch}},
}

// degradedTypes are the only candidates when image analysis is unavailable
// or produced nothing usable. Both depend on grid geometry alone.
var degradedTypes = []Type{TypeEdgeStructure, TypeProgressGuidance}

// Compositions supplies composition snapshots for puzzle images.
// *analysis.Cache implements it.
type Compositions interface {
	Get(ctx context.Context, img image.Image, size grid.Size) (*analysis.CompositionData, error)
}

// Config controls a Manager. The zero value gets sensible defaults.
type Config struct {
	// Cooldown is the minimum wall-clock interval between granted hints.
	Cooldown time.Duration

	// Now overrides the clock, for tests and replay. Defaults to time.Now.
	Now func() time.Time
}

// Manager owns the hint lifecycle for one puzzle session: cooldown gating,
// strategy selection by completion band, progressive revelation bookkeeping,
// and atomic state commits. All methods are safe for concurrent use; a
// request mutates state only if it returns a hint.
type Manager struct {
	mu       sync.Mutex
	cooldown time.Duration
	now      func() time.Time
	tracker  *progress.Tracker
	comps    Compositions
	logger   *zap.SugaredLogger

	lastHintAt    time.Time
	hintsUsed     int
	lastUsed      map[Type]time.Time
	focalShown    map[int]bool
	patternsShown map[string]bool
}

// NewManager wires a manager over a progress tracker and a composition
// source, typically an *analysis.Cache. Both are required.
func NewManager(tracker *progress.Tracker, comps Compositions, cfg Config, logger *zap.SugaredLogger) *Manager {
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = DefaultCooldown
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Manager{
		cooldown:      cfg.Cooldown,
		now:           cfg.Now,
		tracker:       tracker,
		comps:         comps,
		logger:        logger,
		lastUsed:      make(map[Type]time.Time),
		focalShown:    make(map[int]bool),
		patternsShown: make(map[string]bool),
	}
}

// HintsUsed returns how many hints this session has consumed.
func (m *Manager) HintsUsed() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.hintsUsed
}

// CooldownRemaining reports how long until the next hint may be granted.
// Zero means a hint is available now.
func (m *Manager) CooldownRemaining() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.remainingLocked(m.now())
}

func (m *Manager) remainingLocked(now time.Time) time.Duration {
	if m.lastHintAt.IsZero() {
		return 0
	}
	if rem := m.lastHintAt.Add(m.cooldown).Sub(now); rem > 0 {
		return rem
	}
	return 0
}

// AvailableTypes returns the hint types favored at the given completion
// fraction, or the geometry-only fallback set when degraded is true.
func AvailableTypes(completion float64, degraded bool) []Type {
	if degraded {
		return append([]Type(nil), degradedTypes...)
	}
	for _, b := range bands {
		if completion < b.upTo {
			return append([]Type(nil), b.types...)
		}
	}
	return append([]Type(nil), bands[len(bands)-1].types...)
}

// RequestHint produces the next hint for the session, or an
// *UnavailableError while the cooldown is in effect. The placed map carries
// piece id -> correctly placed. On success the cooldown restarts and the
// revelation state advances; on any error the session state is unchanged.
func (m *Manager) RequestHint(ctx context.Context, img image.Image, size grid.Size, placed map[int]bool) (*Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	if rem := m.remainingLocked(now); rem > 0 {
		return nil, &UnavailableError{Remaining: rem}
	}

	sum := m.tracker.Summarize(size, placed)

	comp, err := m.comps.Get(ctx, img, size)
	if err != nil {
		if ctx.Err() != nil {
			return nil, err
		}
		// Analysis failure is not fatal to the session: fall back to the
		// geometry-only strategies.
		m.logger.Warnw("Image analysis failed, serving degraded hints", "error", err)
		comp = nil
	}
	if comp != nil && comp.Degraded() {
		comp = nil
	}

	in := buildInput{
		comp:          comp,
		sum:           &sum,
		focalShown:    m.focalShown,
		patternsShown: m.patternsShown,
	}

	out, err := m.buildFirst(m.candidates(&sum, comp != nil), in)
	if err != nil {
		return nil, err
	}
	if err := validateResult(out.result, size); err != nil {
		return nil, err
	}

	// Commit: every mutation happens here, after the hint is known good.
	out.result.IssuedAt = now
	m.lastHintAt = now
	m.hintsUsed++
	m.lastUsed[out.result.Type] = now
	if out.revealFocal != 0 {
		m.focalShown[out.revealFocal] = true
	}
	if out.revealPattern != "" {
		m.patternsShown[out.revealPattern] = true
	}

	m.logger.Infow("Hint granted",
		"type", out.result.Type.String(),
		"completion", sum.Completion,
		"hints_used", m.hintsUsed,
	)
	return out.result, nil
}

// candidates computes the ordered strategy list for the current state:
// first-hint frame override, then the completion band cycled by oldest
// last-use, then fallbacks ending in PROGRESS_GUIDANCE, which always
// produces a hint.
func (m *Manager) candidates(sum *progress.Summary, analyzed bool) []Type {
	var order []Type

	// A brand-new session with no frame progress always starts with edge
	// guidance, whatever the band says.
	if m.hintsUsed == 0 && sum.EdgePlaced < 2 {
		order = append(order, TypeEdgeStructure)
	}

	band := AvailableTypes(sum.Completion, !analyzed)
	sort.SliceStable(band, func(i, j int) bool {
		return m.lastUsed[band[i]].Before(m.lastUsed[band[j]])
	})
	order = append(order, band...)

	// Demotions and terminal fallback. FOCAL_POINT exhausts once every
	// focal has been revealed; COLOR_REGION covers the same band.
	order = append(order, TypeColorRegion, TypeEdgeStructure, TypeProgressGuidance)

	seen := make(map[Type]bool, len(order))
	deduped := order[:0]
	for _, t := range order {
		if seen[t] {
			continue
		}
		if !analyzed && t != TypeEdgeStructure && t != TypeProgressGuidance {
			continue
		}
		seen[t] = true
		deduped = append(deduped, t)
	}
	return deduped
}

// buildFirst tries each candidate in order until one produces a hint.
// errNoHint moves to the next candidate; any other error aborts.
func (m *Manager) buildFirst(order []Type, in buildInput) (buildOutput, error) {
	for _, t := range order {
		out, err := build(t, in)
		if err == nil {
			return out, nil
		}
		if err != errNoHint {
			return buildOutput{}, err
		}
	}
	// PROGRESS_GUIDANCE terminates every candidate list and cannot fail.
	return buildOutput{}, errNoHint
}

// State is the persistable snapshot of a manager. It is everything needed
// to restore cooldown and revelation bookkeeping across a restart; the
// composition itself is recomputed (or re-fetched from cache) on demand.
type State struct {
	LastHintAt    time.Time          `json:"last_hint_at"`
	HintsUsed     int                `json:"hints_used"`
	LastUsed      map[Type]time.Time `json:"last_used,omitempty"`
	FocalShown    []int              `json:"focal_shown,omitempty"`
	PatternsShown []string           `json:"patterns_shown,omitempty"`
}

// Snapshot captures the manager state for persistence.
func (m *Manager) Snapshot() State {
	m.mu.Lock()
	defer m.mu.Unlock()

	st := State{
		LastHintAt: m.lastHintAt,
		HintsUsed:  m.hintsUsed,
		LastUsed:   make(map[Type]time.Time, len(m.lastUsed)),
	}
	for t, at := range m.lastUsed {
		st.LastUsed[t] = at
	}
	for rank := range m.focalShown {
		st.FocalShown = append(st.FocalShown, rank)
	}
	sort.Ints(st.FocalShown)
	for sig := range m.patternsShown {
		st.PatternsShown = append(st.PatternsShown, sig)
	}
	sort.Strings(st.PatternsShown)
	return st
}

// Restore replaces the manager state with a previously captured snapshot.
// The restored cooldown is honored exactly: a session saved mid-cooldown
// resumes mid-cooldown.
func (m *Manager) Restore(st State) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.lastHintAt = st.LastHintAt
	m.hintsUsed = st.HintsUsed
	m.lastUsed = make(map[Type]time.Time, len(st.LastUsed))
	for t, at := range st.LastUsed {
		m.lastUsed[t] = at
	}
	m.focalShown = make(map[int]bool, len(st.FocalShown))
	for _, rank := range st.FocalShown {
		m.focalShown[rank] = true
	}
	m.patternsShown = make(map[string]bool, len(st.PatternsShown))
	for _, sig := range st.PatternsShown {
		m.patternsShown[sig] = true
	}
}
