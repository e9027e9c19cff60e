// Package hint decides what visual guidance to surface next: it selects a
// hint category from the player's completion state, invokes the matching
// strategy over the shared composition analysis, and enforces the cooldown
// between grants. The HintType set is closed; strategy dispatch is an
// exhaustive switch so a missing case fails compilation review, not
// production.
package hint

import (
	"fmt"
	"time"

	"github.com/lyz-njeri/Jigsaw-game/errors"
	"github.com/lyz-njeri/Jigsaw-game/grid"
)

// Type is the closed set of hint categories.
type Type int

const (
	TypeEdgeStructure Type = iota
	TypeFocalPoint
	TypeColorRegion
	TypePatternMatch
	TypeCompositionOverview
	TypeProgressGuidance
)

// AllTypes lists every hint type in declaration order.
var AllTypes = []Type{
	TypeEdgeStructure,
	TypeFocalPoint,
	TypeColorRegion,
	TypePatternMatch,
	TypeCompositionOverview,
	TypeProgressGuidance,
}

func (t Type) String() string {
	switch t {
	case TypeEdgeStructure:
		return "edge_structure"
	case TypeFocalPoint:
		return "focal_point"
	case TypeColorRegion:
		return "color_region"
	case TypePatternMatch:
		return "pattern_match"
	case TypeCompositionOverview:
		return "composition_overview"
	case TypeProgressGuidance:
		return "progress_guidance"
	default:
		return fmt.Sprintf("hint.Type(%d)", int(t))
	}
}

// ParseType maps the wire name back to a Type.
func ParseType(s string) (Type, error) {
	for _, t := range AllTypes {
		if t.String() == s {
			return t, nil
		}
	}
	return 0, errors.NewInvalidRequestError("unknown hint type %q", s)
}

// MarshalText implements encoding.TextMarshaler for JSON payloads.
func (t Type) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *Type) UnmarshalText(b []byte) error {
	parsed, err := ParseType(string(b))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// Result is one granted hint. It is owned by the caller: regions and visual
// data are freshly built per request, never aliased to cached state.
type Result struct {
	Type        Type          `json:"type"`
	VisualData  interface{}   `json:"visual_data"` // opaque to the engine, meaningful to the renderer
	Description string        `json:"description"`
	Regions     []grid.Region `json:"regions"`
	Confidence  float64       `json:"confidence"` // [0,1]
	IssuedAt    time.Time     `json:"issued_at"`
}

// UnavailableError reports a request made during cooldown. It is an
// expected outcome, not a failure: the state machine does not advance and
// the caller is told how long to wait.
type UnavailableError struct {
	Remaining time.Duration
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("hint unavailable for another %s", e.Remaining.Round(time.Second))
}

// RemainingSeconds returns the wait rounded up to whole seconds, for wire
// responses.
func (e *UnavailableError) RemainingSeconds() int {
	secs := int((e.Remaining + time.Second - 1) / time.Second)
	if secs < 1 {
		secs = 1
	}
	return secs
}

// IsUnavailable reports whether err is a cooldown rejection and returns it.
func IsUnavailable(err error) (*UnavailableError, bool) {
	var ue *UnavailableError
	if errors.As(err, &ue) {
		return ue, true
	}
	return nil, false
}

// Visual payloads handed to the rendering collaborator.

// EdgeVisual highlights frame work: unplaced corners first, then edges.
type EdgeVisual struct {
	Corners []grid.Region `json:"corners"`
	Edges   []grid.Region `json:"edges"`
}

// FocalVisual pinpoints one focal point.
type FocalVisual struct {
	Center grid.Cell `json:"center"`
	Radius int       `json:"radius"`
	Rank   int       `json:"rank"`
}

// ColorVisual highlights a color region.
type ColorVisual struct {
	Color     string      `json:"color"`
	Region    grid.Region `json:"region"`
	CellCount int         `json:"cell_count"`
}

// PatternVisual links the matching areas of one recurring texture.
type PatternVisual struct {
	Signature string        `json:"signature"`
	Matches   []grid.Region `json:"matches"`
}

// OverviewEntry labels one region of an overview hint.
type OverviewEntry struct {
	Region grid.Region `json:"region"`
	Label  string      `json:"label"`
}

// OverviewVisual carries the full labelled region set for
// COMPOSITION_OVERVIEW and PROGRESS_GUIDANCE hints.
type OverviewVisual struct {
	Entries []OverviewEntry `json:"entries"`
	Focus   *grid.Region    `json:"focus,omitempty"`
}
