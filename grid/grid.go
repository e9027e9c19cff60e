// Package grid models the puzzle grid: its dimensions, cells, and
// rectangular regions. Both image analysis and progress tracking express
// their results in these coordinates so the two are directly comparable.
package grid

// Size is the fixed dimensions of a puzzle grid, set at puzzle creation.
type Size struct {
	Rows int `json:"rows"`
	Cols int `json:"cols"`
}

// Valid reports whether the size describes a usable grid.
func (s Size) Valid() bool {
	return s.Rows > 0 && s.Cols > 0
}

// Cells returns the total number of cells (pieces) in the grid.
func (s Size) Cells() int {
	return s.Rows * s.Cols
}

// Center returns the cell containing the grid's geometric center.
func (s Size) Center() Cell {
	return Cell{Row: s.Rows / 2, Col: s.Cols / 2}
}

// Cell identifies a single cell on the grid.
type Cell struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

// In reports whether the cell lies within the grid.
func (c Cell) In(s Size) bool {
	return c.Row >= 0 && c.Row < s.Rows && c.Col >= 0 && c.Col < s.Cols
}

// OnBorder reports whether the cell touches the grid border.
func (c Cell) OnBorder(s Size) bool {
	return c.Row == 0 || c.Col == 0 || c.Row == s.Rows-1 || c.Col == s.Cols-1
}

// IsCorner reports whether the cell is one of the four grid corners.
func (c Cell) IsCorner(s Size) bool {
	return (c.Row == 0 || c.Row == s.Rows-1) && (c.Col == 0 || c.Col == s.Cols-1)
}

// PieceID returns the row-major piece identifier for the cell.
func (c Cell) PieceID(s Size) int {
	return c.Row*s.Cols + c.Col
}

// CellOf maps a row-major piece identifier back to its cell.
func CellOf(id int, s Size) Cell {
	return Cell{Row: id / s.Cols, Col: id % s.Cols}
}

// RelativePosition describes where a cell sits on the grid in player terms,
// e.g. "upper left", "center", "lower third". Used for hint descriptions.
func (c Cell) RelativePosition(s Size) string {
	vertical := third(c.Row, s.Rows)
	horizontal := third(c.Col, s.Cols)

	switch {
	case vertical == 1 && horizontal == 1:
		return "center"
	case vertical == 1:
		return "center-" + [3]string{"left", "", "right"}[horizontal]
	case horizontal == 1:
		return [3]string{"upper", "", "lower"}[vertical] + " third"
	default:
		return [3]string{"upper", "", "lower"}[vertical] + " " +
			[3]string{"left", "", "right"}[horizontal]
	}
}

// third buckets index i of n into 0 (first), 1 (middle), or 2 (last).
func third(i, n int) int {
	if n <= 1 {
		return 1
	}
	switch {
	case 3*i < n:
		return 0
	case 3*i >= 2*n:
		return 2
	default:
		return 1
	}
}
