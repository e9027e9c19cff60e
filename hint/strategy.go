package hint

import (
	"fmt"
	"sort"

	"github.com/lyz-njeri/Jigsaw-game/analysis"
	"github.com/lyz-njeri/Jigsaw-game/errors"
	"github.com/lyz-njeri/Jigsaw-game/grid"
	"github.com/lyz-njeri/Jigsaw-game/progress"
)

// errNoHint signals that a strategy has nothing useful to offer for the
// current state (e.g., the frame is already complete). The manager then
// tries the next candidate; it never reaches the caller.
var errNoHint = errors.New("strategy not applicable")

// buildInput is everything a strategy may read. Strategies are pure: they
// write nothing, and revelation bookkeeping is committed by the manager
// only after the request fully succeeds.
type buildInput struct {
	comp          *analysis.CompositionData // nil when analysis is unavailable
	sum           *progress.Summary
	focalShown    map[int]bool    // focal ranks already revealed this session
	patternsShown map[string]bool // pattern signatures already revealed
}

// buildOutput carries the hint plus the revelation the manager must record
// if it commits the request.
type buildOutput struct {
	result        *Result
	revealFocal   int    // rank to mark shown, 0 = none
	revealPattern string // signature to mark shown, "" = none
}

// build dispatches to the strategy for t. The switch is exhaustive over the
// closed Type set; an unknown value is a programming error.
func build(t Type, in buildInput) (buildOutput, error) {
	switch t {
	case TypeEdgeStructure:
		return buildEdgeStructure(in)
	case TypeFocalPoint:
		return buildFocalPoint(in)
	case TypeColorRegion:
		return buildColorRegion(in)
	case TypePatternMatch:
		return buildPatternMatch(in)
	case TypeCompositionOverview:
		return buildCompositionOverview(in)
	case TypeProgressGuidance:
		return buildProgressGuidance(in)
	default:
		return buildOutput{}, errors.AssertionFailedf("unhandled hint type %v", t)
	}
}

// buildEdgeStructure guides frame work: unplaced corners first, then
// unplaced edge cells. It needs only grid geometry, so it also serves as a
// fallback when analysis is degraded. Confidence is the fraction of border
// cells still unplaced.
func buildEdgeStructure(in buildInput) (buildOutput, error) {
	size := in.sum.GridSize
	var corners, edges []grid.Region
	borderTotal, borderOpen := 0, 0

	for row := 0; row < size.Rows; row++ {
		for col := 0; col < size.Cols; col++ {
			c := grid.Cell{Row: row, Col: col}
			if !c.OnBorder(size) {
				continue
			}
			borderTotal++
			if in.sum.Placed(c) {
				continue
			}
			borderOpen++
			if c.IsCorner(size) {
				corners = append(corners, grid.RegionAt(c))
			} else {
				edges = append(edges, grid.RegionAt(c))
			}
		}
	}
	if borderOpen == 0 {
		return buildOutput{}, errNoHint
	}

	regions := append(append([]grid.Region{}, corners...), edges...)
	var desc string
	if len(corners) > 0 {
		first := corners[0].Center()
		desc = fmt.Sprintf("Build the frame first: start with the corner in the %s. %d corner and %d edge pieces remain.",
			first.RelativePosition(size), len(corners), len(edges))
	} else {
		desc = fmt.Sprintf("The corners are in place. Fill out the remaining %d edge pieces to close the frame.", len(edges))
	}

	return buildOutput{result: &Result{
		Type:        TypeEdgeStructure,
		VisualData:  EdgeVisual{Corners: corners, Edges: edges},
		Description: desc,
		Regions:     regions,
		Confidence:  float64(borderOpen) / float64(borderTotal),
	}}, nil
}

// buildFocalPoint reveals the next focal point by importance order that has
// not been shown this session. Exhaustion is reported as errNoHint; the
// manager demotes to COLOR_REGION.
func buildFocalPoint(in buildInput) (buildOutput, error) {
	if in.comp == nil || len(in.comp.FocalPoints) == 0 {
		return buildOutput{}, errNoHint
	}
	for _, fp := range in.comp.FocalPoints {
		if in.focalShown[fp.Rank] {
			continue
		}
		region := fp.Region // regions are values; this is a copy
		desc := fmt.Sprintf("Look for a striking detail in the %s of the picture.",
			fp.Cell.RelativePosition(in.sum.GridSize))
		return buildOutput{
			result: &Result{
				Type:        TypeFocalPoint,
				VisualData:  FocalVisual{Center: fp.Cell, Radius: fp.Radius, Rank: fp.Rank},
				Description: desc,
				Regions:     []grid.Region{region},
				Confidence:  fp.Importance,
			},
			revealFocal: fp.Rank,
		}, nil
	}
	return buildOutput{}, errNoHint
}

// buildColorRegion highlights the largest color region that still has
// unplaced cells, preferring regions overlapping the tracker's suggested
// focus area.
func buildColorRegion(in buildInput) (buildOutput, error) {
	if in.comp == nil || len(in.comp.ColorRegions) == 0 {
		return buildOutput{}, errNoHint
	}

	type candidate struct {
		cr       analysis.ColorRegion
		unplaced int
		inFocus  bool
	}
	var candidates []candidate
	for _, cr := range in.comp.ColorRegions {
		unplaced := 0
		for _, c := range cr.Cells {
			if !in.sum.Placed(c) {
				unplaced++
			}
		}
		if unplaced == 0 {
			continue
		}
		candidates = append(candidates, candidate{
			cr:       cr,
			unplaced: unplaced,
			inFocus:  cr.Region.Overlaps(in.sum.Focus),
		})
	}
	if len(candidates) == 0 {
		return buildOutput{}, errNoHint
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].inFocus != candidates[j].inFocus {
			return candidates[i].inFocus
		}
		return candidates[i].unplaced > candidates[j].unplaced
	})
	chosen := candidates[0]

	name := colorName(chosen.cr.DominantColor)
	share := float64(len(chosen.cr.Cells)) / float64(in.sum.GridSize.Cells())
	desc := fmt.Sprintf("Gather the %s pieces around the %s.",
		name, chosen.cr.Region.Center().RelativePosition(in.sum.GridSize))

	return buildOutput{result: &Result{
		Type: TypeColorRegion,
		VisualData: ColorVisual{
			Color:     name,
			Region:    chosen.cr.Region,
			CellCount: len(chosen.cr.Cells),
		},
		Description: desc,
		Regions:     []grid.Region{chosen.cr.Region},
		Confidence:  clamp01(0.5*share + 0.5*chosen.cr.AvgSaturation),
	}}, nil
}

// buildPatternMatch finds a recurring texture that bridges finished work to
// unfinished work: at least one of its cells lies in a completed region and
// at least one is still unplaced. Patterns cycle once every bridging
// pattern has been shown.
func buildPatternMatch(in buildInput) (buildOutput, error) {
	if in.comp == nil || len(in.comp.Patterns) == 0 {
		return buildOutput{}, errNoHint
	}

	bridging := make([]analysis.Pattern, 0, len(in.comp.Patterns))
	for _, p := range in.comp.Patterns {
		inCompleted, hasUnplaced := false, false
		for _, c := range p.Cells {
			if !in.sum.Placed(c) {
				hasUnplaced = true
			}
			for _, done := range in.sum.Completed {
				if done.Contains(c) {
					inCompleted = true
					break
				}
			}
		}
		if inCompleted && hasUnplaced {
			bridging = append(bridging, p)
		}
	}
	if len(bridging) == 0 {
		return buildOutput{}, errNoHint
	}

	// Prefer a pattern not yet revealed; once all bridging patterns have
	// been shown, cycle from the start.
	chosen := bridging[0]
	for _, p := range bridging {
		if !in.patternsShown[p.Signature] {
			chosen = p
			break
		}
	}

	matches := analysis.RegionsOf(chosen.Cells)
	unplacedRegions := make([]grid.Region, 0, len(chosen.Cells))
	for _, c := range chosen.Cells {
		if !in.sum.Placed(c) {
			unplacedRegions = append(unplacedRegions, grid.RegionAt(c))
		}
	}

	desc := fmt.Sprintf("This texture appears in %d places; one of them is already solved. Use it to extend into the %s.",
		len(chosen.Cells), unplacedRegions[0].Center().RelativePosition(in.sum.GridSize))

	return buildOutput{
		result: &Result{
			Type:        TypePatternMatch,
			VisualData:  PatternVisual{Signature: chosen.Signature, Matches: matches},
			Description: desc,
			Regions:     unplacedRegions,
			Confidence:  chosen.Similarity,
		},
		revealPattern: chosen.Signature,
	}, nil
}

// buildCompositionOverview returns the whole labelled composition rather
// than a single highlight: every color region named by its dominant color,
// every focal point by its position.
func buildCompositionOverview(in buildInput) (buildOutput, error) {
	if in.comp == nil || (len(in.comp.ColorRegions) == 0 && len(in.comp.FocalPoints) == 0) {
		return buildOutput{}, errNoHint
	}

	size := in.sum.GridSize
	var entries []OverviewEntry
	for _, cr := range in.comp.ColorRegions {
		entries = append(entries, OverviewEntry{
			Region: cr.Region,
			Label:  fmt.Sprintf("%s area", colorName(cr.DominantColor)),
		})
	}
	for _, fp := range in.comp.FocalPoints {
		entries = append(entries, OverviewEntry{
			Region: fp.Region,
			Label:  fmt.Sprintf("point of interest (%s)", fp.Cell.RelativePosition(size)),
		})
	}

	regions := make([]grid.Region, len(entries))
	for i, e := range entries {
		regions[i] = e.Region
	}

	return buildOutput{result: &Result{
		Type:        TypeCompositionOverview,
		VisualData:  OverviewVisual{Entries: entries},
		Description: fmt.Sprintf("The picture breaks into %d color areas with %d points of interest. Sort your pieces by these areas first.", len(in.comp.ColorRegions), len(in.comp.FocalPoints)),
		Regions:     regions,
		Confidence:  1.0,
	}}, nil
}

// buildProgressGuidance labels every partition region with its completion
// state and points at the suggested focus area. It depends only on grid
// geometry, so it always succeeds.
func buildProgressGuidance(in buildInput) (buildOutput, error) {
	size := in.sum.GridSize
	entries := make([]OverviewEntry, len(in.sum.Regions))
	regions := make([]grid.Region, len(in.sum.Regions))
	for i, rs := range in.sum.Regions {
		entries[i] = OverviewEntry{
			Region: rs.Region,
			Label:  rs.State.String(),
		}
		regions[i] = rs.Region
	}
	focus := in.sum.Focus

	return buildOutput{result: &Result{
		Type:       TypeProgressGuidance,
		VisualData: OverviewVisual{Entries: entries, Focus: &focus},
		Description: fmt.Sprintf("You have placed %d of %d pieces. Work on the %s next.",
			in.sum.PlacedCorrect, in.sum.Total, focus.Center().RelativePosition(size)),
		Regions:    regions,
		Confidence: 1.0,
	}}, nil
}

// validateResult enforces the region invariant before a result leaves the
// manager: a strategy emitting an out-of-bounds or empty region is a
// defect, surfaced as an assertion failure rather than silently repaired.
func validateResult(r *Result, size grid.Size) error {
	for _, region := range r.Regions {
		if !region.Within(size) {
			// Mark keeps the sentinel visible to errors.Is through the
			// assertion barrier.
			return errors.Mark(
				errors.AssertionFailedf("strategy %v produced region %+v outside grid %dx%d",
					r.Type, region, size.Rows, size.Cols),
				errors.ErrInvalidRegion)
		}
	}
	return nil
}

// colorName maps a dominant color to a coarse human label.
func colorName(c analysis.RGB) string {
	r, g, b := float64(c.R)/255, float64(c.G)/255, float64(c.B)/255
	maxC := maxf(r, maxf(g, b))
	minC := minf(r, minf(g, b))

	if maxC < 0.15 {
		return "black"
	}
	if maxC-minC < 0.1 {
		switch {
		case maxC > 0.85:
			return "white"
		case maxC > 0.5:
			return "light gray"
		default:
			return "dark gray"
		}
	}

	var hue string
	switch {
	case r >= g && g >= b:
		if r-g < g-b {
			hue = "orange"
		} else {
			hue = "red"
		}
	case r >= b && b >= g:
		hue = "pink"
	case g >= r && r >= b:
		hue = "yellow-green"
	case g >= b && b >= r:
		hue = "green"
	case b >= g && g >= r:
		hue = "blue"
	default:
		hue = "purple"
	}
	if maxC < 0.4 {
		return "dark " + hue
	}
	if minC > 0.6 {
		return "pale " + hue
	}
	return hue
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func maxf(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

func minf(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
