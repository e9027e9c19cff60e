package hint

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lyz-njeri/Jigsaw-game/analysis"
	"github.com/lyz-njeri/Jigsaw-game/errors"
	"github.com/lyz-njeri/Jigsaw-game/grid"
	"github.com/lyz-njeri/Jigsaw-game/progress"
)

func summarize(t *testing.T, placed map[int]bool) *progress.Summary {
	t.Helper()
	sum := progress.NewTracker(3, 3).Summarize(testSize, placed)
	return &sum
}

func emptyShown() buildInput {
	return buildInput{
		focalShown:    map[int]bool{},
		patternsShown: map[string]bool{},
	}
}

func TestEdgeStructureCornersBeforeEdges(t *testing.T) {
	in := emptyShown()
	in.sum = summarize(t, nil)

	out, err := build(TypeEdgeStructure, in)
	require.NoError(t, err)
	visual := out.result.VisualData.(EdgeVisual)
	assert.Len(t, visual.Corners, 4)
	assert.Len(t, visual.Edges, 8)
	assert.InDelta(t, 1.0, out.result.Confidence, 1e-9)
	assert.Contains(t, out.result.Description, "corner")

	// Corners done: the hint shifts to the remaining edge pieces.
	placed := map[int]bool{}
	for _, c := range []grid.Cell{{Row: 0, Col: 0}, {Row: 0, Col: 3}, {Row: 3, Col: 0}, {Row: 3, Col: 3}} {
		placed[c.PieceID(testSize)] = true
	}
	in.sum = summarize(t, placed)
	out, err = build(TypeEdgeStructure, in)
	require.NoError(t, err)
	visual = out.result.VisualData.(EdgeVisual)
	assert.Empty(t, visual.Corners)
	assert.Len(t, visual.Edges, 8)
	assert.InDelta(t, 8.0/12.0, out.result.Confidence, 1e-9)
}

func TestEdgeStructureExhaustsWhenFrameDone(t *testing.T) {
	placed := map[int]bool{}
	for row := 0; row < 4; row++ {
		for col := 0; col < 4; col++ {
			c := grid.Cell{Row: row, Col: col}
			if c.OnBorder(testSize) {
				placed[c.PieceID(testSize)] = true
			}
		}
	}
	in := emptyShown()
	in.sum = summarize(t, placed)

	_, err := build(TypeEdgeStructure, in)
	assert.Equal(t, errNoHint, err)
}

func TestFocalPointSkipsRevealedRanks(t *testing.T) {
	in := emptyShown()
	in.sum = summarize(t, nil)
	in.comp = testComposition()
	in.focalShown[1] = true

	out, err := build(TypeFocalPoint, in)
	require.NoError(t, err)
	assert.Equal(t, 2, out.result.VisualData.(FocalVisual).Rank)
	assert.Equal(t, 2, out.revealFocal)
	assert.InDelta(t, 0.6, out.result.Confidence, 1e-9) // importance of rank 2

	in.focalShown[2] = true
	_, err = build(TypeFocalPoint, in)
	assert.Equal(t, errNoHint, err)
}

func TestColorRegionPrefersFocusOverlap(t *testing.T) {
	comp := testComposition()
	in := emptyShown()
	in.comp = comp

	// Left half fully placed: only the red right half has open pieces.
	placed := map[int]bool{}
	for _, c := range comp.ColorRegions[0].Cells {
		placed[c.PieceID(testSize)] = true
	}
	in.sum = summarize(t, placed)

	out, err := build(TypeColorRegion, in)
	require.NoError(t, err)
	visual := out.result.VisualData.(ColorVisual)
	assert.Equal(t, "red", visual.Color)
	assert.Equal(t, comp.ColorRegions[1].Region, visual.Region)
	assert.Greater(t, out.result.Confidence, 0.0)
	assert.LessOrEqual(t, out.result.Confidence, 1.0)
}

func TestColorRegionExhaustsWhenAllPlaced(t *testing.T) {
	in := emptyShown()
	in.comp = testComposition()
	in.sum = summarize(t, placeFirst(16))

	_, err := build(TypeColorRegion, in)
	assert.Equal(t, errNoHint, err)
}

func TestPatternMatchRequiresBridge(t *testing.T) {
	in := emptyShown()
	in.comp = testComposition()

	// Nothing solved yet: the pattern cannot anchor to completed work.
	in.sum = summarize(t, nil)
	_, err := build(TypePatternMatch, in)
	assert.Equal(t, errNoHint, err)

	// Top-left partition region complete, (3,3) still open: bridging.
	in.sum = summarize(t, placeFirst(10))
	out, err := build(TypePatternMatch, in)
	require.NoError(t, err)
	assert.Equal(t, "q3q3q3q3|h2", out.revealPattern)
	assert.InDelta(t, 0.92, out.result.Confidence, 1e-9)

	// Every bridging pattern already shown: cycle rather than starve.
	in.patternsShown["q3q3q3q3|h2"] = true
	out, err = build(TypePatternMatch, in)
	require.NoError(t, err)
	assert.Equal(t, "q3q3q3q3|h2", out.revealPattern)
}

func TestCompositionOverviewLabelsEverything(t *testing.T) {
	comp := testComposition()
	in := emptyShown()
	in.comp = comp
	in.sum = summarize(t, nil)

	out, err := build(TypeCompositionOverview, in)
	require.NoError(t, err)
	visual := out.result.VisualData.(OverviewVisual)
	assert.Len(t, visual.Entries, len(comp.ColorRegions)+len(comp.FocalPoints))
	assert.Len(t, out.result.Regions, len(visual.Entries))
	assert.Equal(t, 1.0, out.result.Confidence)
	assert.Equal(t, "blue area", visual.Entries[0].Label)
	assert.Equal(t, "red area", visual.Entries[1].Label)
}

func TestProgressGuidanceAlwaysProduces(t *testing.T) {
	in := emptyShown()
	in.sum = summarize(t, placeFirst(10))

	out, err := build(TypeProgressGuidance, in)
	require.NoError(t, err)
	visual := out.result.VisualData.(OverviewVisual)
	require.NotNil(t, visual.Focus)
	assert.Equal(t, in.sum.Focus, *visual.Focus)
	assert.Len(t, visual.Entries, len(in.sum.Regions))
	assert.Equal(t, 1.0, out.result.Confidence)
	assert.Contains(t, out.result.Description, "10 of 16")

	// Works with no analysis at all.
	in.comp = nil
	in.sum = summarize(t, nil)
	_, err = build(TypeProgressGuidance, in)
	assert.NoError(t, err)
}

func TestValidateResultRejectsOutOfBounds(t *testing.T) {
	good := &Result{Type: TypeFocalPoint, Regions: []grid.Region{grid.Full(testSize)}}
	assert.NoError(t, validateResult(good, testSize))

	bad := &Result{Type: TypeFocalPoint, Regions: []grid.Region{
		{RowStart: 0, RowEnd: 9, ColStart: 0, ColEnd: 9},
	}}
	err := validateResult(bad, testSize)
	require.Error(t, err)

	// The defect class must survive the assertion barrier so callers can
	// classify it.
	assert.True(t, errors.HasAssertionFailure(err))
	assert.True(t, errors.IsInvalidRegionError(err))
}

func TestColorNames(t *testing.T) {
	cases := []struct {
		c    analysis.RGB
		want string
	}{
		{analysis.RGB{R: 10, G: 10, B: 10}, "black"},
		{analysis.RGB{R: 240, G: 240, B: 240}, "white"},
		{analysis.RGB{R: 100, G: 100, B: 100}, "dark gray"},
		{analysis.RGB{R: 200, G: 30, B: 30}, "red"},
		{analysis.RGB{R: 230, G: 140, B: 20}, "orange"},
		{analysis.RGB{R: 30, G: 200, B: 60}, "green"},
		{analysis.RGB{R: 30, G: 60, B: 200}, "blue"},
		{analysis.RGB{R: 150, G: 30, B: 200}, "purple"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, colorName(tc.c), "%+v", tc.c)
	}
}

func TestUnavailableErrorRounding(t *testing.T) {
	assert.Equal(t, 2, (&UnavailableError{Remaining: 1500 * time.Millisecond}).RemainingSeconds())
	assert.Equal(t, 1, (&UnavailableError{Remaining: 200 * time.Millisecond}).RemainingSeconds())
	assert.Equal(t, 3, (&UnavailableError{Remaining: 3 * time.Second}).RemainingSeconds())
}
