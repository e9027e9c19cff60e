// Package analysis turns a puzzle image into a reusable CompositionData
// snapshot: focal points, color regions, edge structure, and recurring
// patterns, all expressed in grid coordinates. Analysis is deterministic and
// pure; identical image bytes always yield a structurally identical
// snapshot. The snapshot is computed once per puzzle session and cached by
// content fingerprint.
package analysis

import (
	"github.com/lyz-njeri/Jigsaw-game/grid"
)

// RGB is an 8-bit color triple.
type RGB struct {
	R uint8 `json:"r"`
	G uint8 `json:"g"`
	B uint8 `json:"b"`
}

// FocalPoint is a salient area with high contrast or gradient energy.
// Rank is unique within a snapshot; points are ordered by ascending Rank
// (descending importance).
type FocalPoint struct {
	Cell       grid.Cell   `json:"cell"`
	Radius     int         `json:"radius"` // in cells
	Importance float64     `json:"importance"`
	Rank       int         `json:"rank"` // 1 = most important, unique
	Region     grid.Region `json:"region"`
}

// ColorRegion is a contiguous area of approximately uniform dominant color.
type ColorRegion struct {
	Region        grid.Region `json:"region"` // bounding rectangle of member cells
	Cells         []grid.Cell `json:"cells"`
	DominantColor RGB         `json:"dominant_color"`
	AvgSaturation float64     `json:"avg_saturation"`
	AvgContrast   float64     `json:"avg_contrast"`
}

// EdgeStructure lists the grid cells along the puzzle border.
type EdgeStructure struct {
	CornerCells []grid.Cell `json:"corner_cells"`
	BorderCells []grid.Cell `json:"border_cells"` // border excluding corners
}

// Pattern is a recurring texture signature and the cells that carry it.
type Pattern struct {
	Signature  string      `json:"signature"`
	Cells      []grid.Cell `json:"cells"`
	Similarity float64     `json:"similarity"` // mean pairwise signature similarity
}

// CompositionData is the immutable analysis snapshot for one puzzle image.
type CompositionData struct {
	GridSize        grid.Size     `json:"grid_size"`
	Fingerprint     string        `json:"fingerprint"`
	FocalPoints     []FocalPoint  `json:"focal_points"`
	ColorRegions    []ColorRegion `json:"color_regions"`
	Edges           EdgeStructure `json:"edges"`
	Patterns        []Pattern     `json:"patterns"`
	ComplexityScore float64       `json:"complexity_score"` // [0,1]
}

// Degraded reports whether the image yielded too little structure for the
// image-driven hint strategies. Hinting then falls back to grid-geometry
// strategies only.
func (c *CompositionData) Degraded() bool {
	return len(c.FocalPoints) == 0 && len(c.Patterns) == 0 && len(c.ColorRegions) <= 1
}

// RegionsOf returns fresh 1-cell regions for a cell list. Results are copies
// so callers can hold them without aliasing the snapshot.
func RegionsOf(cells []grid.Cell) []grid.Region {
	out := make([]grid.Region, len(cells))
	for i, c := range cells {
		out[i] = grid.RegionAt(c)
	}
	return out
}
