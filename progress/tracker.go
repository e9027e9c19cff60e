// Package progress summarizes a player's placement state: exact completion
// percentage, per-region completion labels, and a suggested focus area.
// Summaries are pure functions of the grid and placement state, recomputed
// on every call and never cached.
package progress

import (
	"github.com/lyz-njeri/Jigsaw-game/grid"
)

// RegionState labels how far along one partition region is.
type RegionState int

const (
	RegionEmpty RegionState = iota
	RegionPartial
	RegionComplete
)

func (s RegionState) String() string {
	switch s {
	case RegionEmpty:
		return "empty"
	case RegionPartial:
		return "partial"
	case RegionComplete:
		return "complete"
	default:
		return "unknown"
	}
}

// completeThreshold is the fraction of placed cells at which a region counts
// as complete.
const completeThreshold = 0.9

// RegionSummary is the completion state of one partition region. Index is
// the region's stable position in the shared partition order.
type RegionSummary struct {
	Index      int         `json:"index"`
	Region     grid.Region `json:"region"`
	Placed     int         `json:"placed"`
	Completion float64     `json:"completion"`
	State      RegionState `json:"state"`
}

// Summary is the completion snapshot for one placement state.
type Summary struct {
	GridSize      grid.Size           `json:"grid_size"`
	Total         int                 `json:"total"`
	PlacedCorrect int                 `json:"placed_correct"`
	Completion    float64             `json:"completion"` // PlacedCorrect / Total, exact
	Regions       []RegionSummary     `json:"regions"`    // partition order
	Completed     []grid.Region       `json:"completed"`
	Incomplete    []grid.Region       `json:"incomplete"` // partial and empty
	Focus         grid.Region         `json:"focus"`
	PlacedCells   map[grid.Cell]bool  `json:"-"` // correct placements by cell
	EdgePlaced    int                 `json:"edge_placed"` // placed border cells, corners included
}

// Placed reports whether the piece for a cell is correctly placed.
func (s *Summary) Placed(c grid.Cell) bool {
	return s.PlacedCells[c]
}

// Tracker buckets the grid into the same partition scheme the image
// analyzer uses, so progress regions and hint regions are comparable.
type Tracker struct {
	bucketRows int
	bucketCols int
}

// NewTracker creates a tracker with the given partition bucket counts.
// Non-positive counts fall back to 3x3.
func NewTracker(bucketRows, bucketCols int) *Tracker {
	if bucketRows <= 0 {
		bucketRows = 3
	}
	if bucketCols <= 0 {
		bucketCols = 3
	}
	return &Tracker{bucketRows: bucketRows, bucketCols: bucketCols}
}

// Summarize computes the completion snapshot for a placement state. The
// placed map holds pieceID → correctly-placed; absent pieces count as
// unplaced. Summarize is deterministic: identical input always yields an
// identical summary, including the suggested focus region.
func (t *Tracker) Summarize(size grid.Size, placed map[int]bool) Summary {
	total := size.Cells()
	s := Summary{
		GridSize:    size,
		Total:       total,
		PlacedCells: make(map[grid.Cell]bool, len(placed)),
	}
	if total == 0 {
		return s
	}

	for id, correct := range placed {
		if !correct || id < 0 || id >= total {
			continue
		}
		c := grid.CellOf(id, size)
		s.PlacedCells[c] = true
		s.PlacedCorrect++
		if c.OnBorder(size) {
			s.EdgePlaced++
		}
	}
	s.Completion = float64(s.PlacedCorrect) / float64(total)

	regions := grid.Partition(size, t.bucketRows, t.bucketCols)
	s.Regions = make([]RegionSummary, len(regions))
	for i, r := range regions {
		placedHere := 0
		for _, c := range r.Cells() {
			if s.PlacedCells[c] {
				placedHere++
			}
		}
		completion := float64(placedHere) / float64(r.Area())
		state := RegionPartial
		switch {
		case placedHere == 0:
			state = RegionEmpty
		case completion >= completeThreshold:
			state = RegionComplete
		}
		s.Regions[i] = RegionSummary{
			Index:      i,
			Region:     r,
			Placed:     placedHere,
			Completion: completion,
			State:      state,
		}
		if state == RegionComplete {
			s.Completed = append(s.Completed, r)
		} else {
			s.Incomplete = append(s.Incomplete, r)
		}
	}

	s.Focus = t.suggestFocus(size, s.Regions)
	return s
}

// suggestFocus picks the next area worth working on: among incomplete
// regions adjacent to at least one complete region, the one maximizing
// incomplete area weighted by how much completed work it touches. Ties go
// to the smallest region index. With no completed neighbors anywhere
// (nothing placed yet), the region containing the grid center wins.
func (t *Tracker) suggestFocus(size grid.Size, regions []RegionSummary) grid.Region {
	best := -1
	bestScore := 0.0
	for i, rs := range regions {
		if rs.State == RegionComplete {
			continue
		}
		adjacentComplete := 0
		for j, other := range regions {
			if i == j || other.State != RegionComplete {
				continue
			}
			if rs.Region.AdjacentTo(other.Region) {
				adjacentComplete++
			}
		}
		if adjacentComplete == 0 {
			continue
		}
		incomplete := float64(rs.Region.Area() - rs.Placed)
		score := incomplete * (1 + 0.25*float64(adjacentComplete))
		if score > bestScore {
			bestScore = score
			best = i
		}
	}
	if best >= 0 {
		return regions[best].Region
	}

	// Nothing placed yet (or no incomplete region borders completed work):
	// start from the middle of the picture.
	center := size.Center()
	for _, rs := range regions {
		if rs.Region.Contains(center) {
			return rs.Region
		}
	}
	return grid.Full(size)
}
