package session

import (
	"image"
	"image/color"

	"github.com/lyz-njeri/Jigsaw-game/errors"
	"github.com/lyz-njeri/Jigsaw-game/grid"
)

// Level is a built-in puzzle: a name, a difficulty, the grid it is cut
// into, and a procedurally drawn source image.
type Level struct {
	ID          string
	Name        string
	Description string
	Difficulty  int // 1 (easiest) to 5
	GridSize    grid.Size
	BasePoints  int
}

var levels = []Level{
	{
		ID:          "meadow",
		Name:        "Meadow",
		Description: "Soft color fields with a single landmark",
		Difficulty:  1,
		GridSize:    grid.Size{Rows: 3, Cols: 4},
		BasePoints:  400,
	},
	{
		ID:          "harbor",
		Name:        "Harbor",
		Description: "Water, sky, and a busy waterline between them",
		Difficulty:  2,
		GridSize:    grid.Size{Rows: 4, Cols: 5},
		BasePoints:  600,
	},
	{
		ID:          "market",
		Name:        "Market",
		Description: "Repeating stalls with scattered bright accents",
		Difficulty:  3,
		GridSize:    grid.Size{Rows: 5, Cols: 6},
		BasePoints:  800,
	},
	{
		ID:          "rooftops",
		Name:        "Rooftops",
		Description: "Dense texture, few anchors",
		Difficulty:  4,
		GridSize:    grid.Size{Rows: 6, Cols: 8},
		BasePoints:  1000,
	},
	{
		ID:          "starfield",
		Name:        "Starfield",
		Description: "Nearly uniform night sky, for the patient",
		Difficulty:  5,
		GridSize:    grid.Size{Rows: 8, Cols: 10},
		BasePoints:  1200,
	},
}

// Levels returns the built-in level catalog in difficulty order.
func Levels() []Level {
	out := make([]Level, len(levels))
	copy(out, levels)
	return out
}

// LevelByID looks up a built-in level.
func LevelByID(id string) (Level, error) {
	for _, l := range levels {
		if l.ID == id {
			return l, nil
		}
	}
	return Level{}, errors.NewNotFoundError("level %q", id)
}

// cellPx is the rendered size of one grid cell in level images.
const cellPx = 24

// LevelImage draws the deterministic source image for a level: banded
// color fields seeded by the level id, with accent blocks whose count
// scales with difficulty. Identical calls produce identical pixels, so
// the image fingerprint is stable across runs.
func LevelImage(l Level) image.Image {
	w := l.GridSize.Cols * cellPx
	h := l.GridSize.Rows * cellPx
	img := image.NewRGBA(image.Rect(0, 0, w, h))

	seed := levelSeed(l.ID)
	palette := levelPalette(seed)

	// Horizontal color bands, one per palette entry.
	bandH := h / len(palette)
	if bandH == 0 {
		bandH = 1
	}
	for y := 0; y < h; y++ {
		band := y / bandH
		if band >= len(palette) {
			band = len(palette) - 1
		}
		for x := 0; x < w; x++ {
			img.Set(x, y, palette[band])
		}
	}

	// Accent blocks give the analyzer focal points and patterns to find.
	accents := 2 + l.Difficulty
	for i := 0; i < accents; i++ {
		seed = seed*1103515245 + 12345
		row := int(seed>>16) % l.GridSize.Rows
		if row < 0 {
			row += l.GridSize.Rows
		}
		col := int(seed>>24) % l.GridSize.Cols
		if col < 0 {
			col += l.GridSize.Cols
		}
		drawAccent(img, row, col, palette[i%len(palette)])
	}

	return img
}

// drawAccent paints a checkered block inside one cell, offset from the
// cell's background so it reads as structure.
func drawAccent(img *image.RGBA, row, col int, base color.RGBA) {
	accent := color.RGBA{R: 255 - base.R, G: 255 - base.G, B: 255 - base.B, A: 255}
	x0, y0 := col*cellPx, row*cellPx
	for dy := 0; dy < cellPx; dy++ {
		for dx := 0; dx < cellPx; dx++ {
			if (dx/4+dy/4)%2 == 0 {
				img.Set(x0+dx, y0+dy, accent)
			}
		}
	}
}

func levelSeed(id string) int64 {
	var seed int64 = 1469598103934665603
	for _, r := range id {
		seed ^= int64(r)
		seed *= 1099511628211
	}
	return seed
}

func levelPalette(seed int64) []color.RGBA {
	pick := func(shift uint) uint8 {
		return uint8(64 + (seed>>shift)&127)
	}
	return []color.RGBA{
		{R: pick(0), G: pick(8), B: 220, A: 255},
		{R: 220, G: pick(16), B: pick(24), A: 255},
		{R: pick(32), G: 200, B: pick(40), A: 255},
		{R: 230, G: 210, B: pick(48), A: 255},
	}
}
