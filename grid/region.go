package grid

// Region is a rectangle of grid cells, half-open on both axes:
// rows [RowStart, RowEnd), columns [ColStart, ColEnd).
type Region struct {
	RowStart int `json:"row_start"`
	RowEnd   int `json:"row_end"`
	ColStart int `json:"col_start"`
	ColEnd   int `json:"col_end"`
}

// RegionAt returns the 1x1 region covering a single cell.
func RegionAt(c Cell) Region {
	return Region{RowStart: c.Row, RowEnd: c.Row + 1, ColStart: c.Col, ColEnd: c.Col + 1}
}

// Full returns the region covering the entire grid.
func Full(s Size) Region {
	return Region{RowEnd: s.Rows, ColEnd: s.Cols}
}

// Empty reports whether the region covers no cells.
func (r Region) Empty() bool {
	return r.RowEnd <= r.RowStart || r.ColEnd <= r.ColStart
}

// Within reports whether the region is non-empty and inside the grid.
// Every region handed to a caller must satisfy this.
func (r Region) Within(s Size) bool {
	return !r.Empty() &&
		r.RowStart >= 0 && r.RowEnd <= s.Rows &&
		r.ColStart >= 0 && r.ColEnd <= s.Cols
}

// Area returns the number of cells the region covers.
func (r Region) Area() int {
	if r.Empty() {
		return 0
	}
	return (r.RowEnd - r.RowStart) * (r.ColEnd - r.ColStart)
}

// Contains reports whether the cell lies inside the region.
func (r Region) Contains(c Cell) bool {
	return c.Row >= r.RowStart && c.Row < r.RowEnd &&
		c.Col >= r.ColStart && c.Col < r.ColEnd
}

// Overlaps reports whether the two regions share at least one cell.
func (r Region) Overlaps(o Region) bool {
	return r.RowStart < o.RowEnd && o.RowStart < r.RowEnd &&
		r.ColStart < o.ColEnd && o.ColStart < r.ColEnd
}

// Intersect returns the overlapping rectangle of two regions.
// The result is empty when they do not overlap.
func (r Region) Intersect(o Region) Region {
	out := Region{
		RowStart: max(r.RowStart, o.RowStart),
		RowEnd:   min(r.RowEnd, o.RowEnd),
		ColStart: max(r.ColStart, o.ColStart),
		ColEnd:   min(r.ColEnd, o.ColEnd),
	}
	if out.Empty() {
		return Region{}
	}
	return out
}

// AdjacentTo reports whether the two regions share an edge (or overlap).
// Diagonal contact does not count.
func (r Region) AdjacentTo(o Region) bool {
	if r.Overlaps(o) {
		return true
	}
	verticalNeighbor := (r.RowEnd == o.RowStart || o.RowEnd == r.RowStart) &&
		r.ColStart < o.ColEnd && o.ColStart < r.ColEnd
	horizontalNeighbor := (r.ColEnd == o.ColStart || o.ColEnd == r.ColStart) &&
		r.RowStart < o.RowEnd && o.RowStart < r.RowEnd
	return verticalNeighbor || horizontalNeighbor
}

// Center returns the cell at the region's center.
func (r Region) Center() Cell {
	return Cell{
		Row: r.RowStart + (r.RowEnd-r.RowStart)/2,
		Col: r.ColStart + (r.ColEnd-r.ColStart)/2,
	}
}

// Cells returns every cell in the region in row-major order.
func (r Region) Cells() []Cell {
	out := make([]Cell, 0, r.Area())
	for row := r.RowStart; row < r.RowEnd; row++ {
		for col := r.ColStart; col < r.ColEnd; col++ {
			out = append(out, Cell{Row: row, Col: col})
		}
	}
	return out
}

// Partition splits the grid into at most bucketRows x bucketCols rectangular
// regions in row-major order. Analysis and progress share this scheme so
// their region indices line up. Bucket counts are clamped to the grid
// dimensions; the split is as even as integer division allows, with earlier
// buckets taking the remainder.
func Partition(s Size, bucketRows, bucketCols int) []Region {
	if !s.Valid() {
		return nil
	}
	bucketRows = clampBuckets(bucketRows, s.Rows)
	bucketCols = clampBuckets(bucketCols, s.Cols)

	rowBounds := splitEven(s.Rows, bucketRows)
	colBounds := splitEven(s.Cols, bucketCols)

	out := make([]Region, 0, bucketRows*bucketCols)
	for br := 0; br < bucketRows; br++ {
		for bc := 0; bc < bucketCols; bc++ {
			out = append(out, Region{
				RowStart: rowBounds[br],
				RowEnd:   rowBounds[br+1],
				ColStart: colBounds[bc],
				ColEnd:   colBounds[bc+1],
			})
		}
	}
	return out
}

func clampBuckets(want, limit int) int {
	if want < 1 {
		return 1
	}
	if want > limit {
		return limit
	}
	return want
}

// splitEven returns n+1 boundaries dividing total cells into n runs whose
// lengths differ by at most one, longer runs first.
func splitEven(total, n int) []int {
	bounds := make([]int, n+1)
	base := total / n
	extra := total % n
	pos := 0
	for i := 0; i < n; i++ {
		bounds[i] = pos
		pos += base
		if i < extra {
			pos++
		}
	}
	bounds[n] = total
	return bounds
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
