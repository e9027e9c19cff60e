package hint

import (
	"context"
	"image"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lyz-njeri/Jigsaw-game/analysis"
	"github.com/lyz-njeri/Jigsaw-game/errors"
	"github.com/lyz-njeri/Jigsaw-game/grid"
	"github.com/lyz-njeri/Jigsaw-game/progress"
)

type stubComps struct {
	comp  *analysis.CompositionData
	err   error
	calls int
}

func (s *stubComps) Get(_ context.Context, _ image.Image, _ grid.Size) (*analysis.CompositionData, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.comp, nil
}

type testClock struct{ t time.Time }

func newTestClock() *testClock {
	return &testClock{t: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *testClock) now() time.Time          { return c.t }
func (c *testClock) advance(d time.Duration) { c.t = c.t.Add(d) }

// testSize is a 4x4 puzzle, 16 pieces. Piece ids are row-major.
var testSize = grid.Size{Rows: 4, Cols: 4}

// testComposition builds a rich snapshot for testSize: two focal points,
// a blue left half and a red right half, and one texture appearing in the
// top-left and bottom-right corners.
func testComposition() *analysis.CompositionData {
	left := []grid.Cell{}
	right := []grid.Cell{}
	for row := 0; row < 4; row++ {
		for col := 0; col < 4; col++ {
			c := grid.Cell{Row: row, Col: col}
			if col < 2 {
				left = append(left, c)
			} else {
				right = append(right, c)
			}
		}
	}
	return &analysis.CompositionData{
		GridSize:    testSize,
		Fingerprint: "test-fingerprint",
		FocalPoints: []analysis.FocalPoint{
			{Cell: grid.Cell{Row: 1, Col: 1}, Radius: 1, Importance: 0.9, Rank: 1,
				Region: grid.Region{RowStart: 0, RowEnd: 3, ColStart: 0, ColEnd: 3}},
			{Cell: grid.Cell{Row: 2, Col: 2}, Radius: 1, Importance: 0.6, Rank: 2,
				Region: grid.Region{RowStart: 1, RowEnd: 4, ColStart: 1, ColEnd: 4}},
		},
		ColorRegions: []analysis.ColorRegion{
			{Region: grid.Region{RowStart: 0, RowEnd: 4, ColStart: 0, ColEnd: 2},
				Cells: left, DominantColor: analysis.RGB{R: 30, G: 60, B: 200}, AvgSaturation: 0.7},
			{Region: grid.Region{RowStart: 0, RowEnd: 4, ColStart: 2, ColEnd: 4},
				Cells: right, DominantColor: analysis.RGB{R: 200, G: 30, B: 30}, AvgSaturation: 0.8},
		},
		Patterns: []analysis.Pattern{
			{Signature: "q3q3q3q3|h2", Similarity: 0.92,
				Cells: []grid.Cell{{Row: 0, Col: 0}, {Row: 3, Col: 3}}},
		},
		ComplexityScore: 0.6,
	}
}

// placeFirst marks the first n piece ids as correctly placed.
func placeFirst(n int) map[int]bool {
	placed := make(map[int]bool, n)
	for id := 0; id < n; id++ {
		placed[id] = true
	}
	return placed
}

func newTestManager(t *testing.T, comps Compositions, clock *testClock) *Manager {
	t.Helper()
	return NewManager(progress.NewTracker(3, 3), comps, Config{
		Cooldown: time.Hour,
		Now:      clock.now,
	}, nil)
}

// testImage is a placeholder; the stub never inspects it.
var testImage = image.NewRGBA(image.Rect(0, 0, 8, 8))

func TestFirstSessionStartsWithFrameGuidance(t *testing.T) {
	clock := newTestClock()
	m := newTestManager(t, &stubComps{comp: testComposition()}, clock)

	res, err := m.RequestHint(context.Background(), testImage, testSize, nil)
	require.NoError(t, err)
	assert.Equal(t, TypeEdgeStructure, res.Type)
	assert.Equal(t, clock.now(), res.IssuedAt)
	assert.InDelta(t, 1.0, res.Confidence, 1e-9) // entire border open

	visual, ok := res.VisualData.(EdgeVisual)
	require.True(t, ok)
	assert.Len(t, visual.Corners, 4)
	assert.Len(t, visual.Edges, 8)
	assert.Equal(t, 1, m.HintsUsed())
}

func TestCooldownBlocksSecondRequest(t *testing.T) {
	clock := newTestClock()
	m := newTestManager(t, &stubComps{comp: testComposition()}, clock)

	_, err := m.RequestHint(context.Background(), testImage, testSize, nil)
	require.NoError(t, err)

	clock.advance(10 * time.Minute)
	_, err = m.RequestHint(context.Background(), testImage, testSize, nil)
	ue, ok := IsUnavailable(err)
	require.True(t, ok, "expected cooldown rejection, got %v", err)
	assert.Equal(t, 50*time.Minute, ue.Remaining)
	assert.Equal(t, 50*60, ue.RemainingSeconds())
	assert.Equal(t, 1, m.HintsUsed(), "rejected request must not advance state")

	clock.advance(50 * time.Minute) // exactly at the boundary
	_, err = m.RequestHint(context.Background(), testImage, testSize, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, m.HintsUsed())
}

func TestSelectionFollowsCompletionBands(t *testing.T) {
	cases := []struct {
		name   string
		placed int
		want   Type
	}{
		{"early game favors edges", 2, TypeEdgeStructure},
		{"quarter done favors focal points", 5, TypeFocalPoint},
		{"half done favors color regions", 10, TypeColorRegion},
		{"endgame favors progress guidance", 15, TypeProgressGuidance},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			clock := newTestClock()
			m := newTestManager(t, &stubComps{comp: testComposition()}, clock)
			// A prior hint disables the first-hint frame override.
			m.Restore(State{HintsUsed: 1})

			res, err := m.RequestHint(context.Background(), testImage, testSize, placeFirst(tc.placed))
			require.NoError(t, err)
			assert.Equal(t, tc.want, res.Type)
		})
	}
}

func TestFirstHintOverridesBandWhenFrameMissing(t *testing.T) {
	clock := newTestClock()
	m := newTestManager(t, &stubComps{comp: testComposition()}, clock)

	// Interior pieces placed, barely any frame: completion sits in the
	// focal band, but the very first hint still points at the frame.
	placed := map[int]bool{}
	for _, c := range []grid.Cell{{Row: 1, Col: 1}, {Row: 1, Col: 2}, {Row: 2, Col: 1}, {Row: 2, Col: 2}, {Row: 0, Col: 1}} {
		placed[c.PieceID(testSize)] = true
	}

	res, err := m.RequestHint(context.Background(), testImage, testSize, placed)
	require.NoError(t, err)
	assert.Equal(t, TypeEdgeStructure, res.Type)
}

func TestBandCyclingAndProgressiveFocalReveal(t *testing.T) {
	clock := newTestClock()
	m := newTestManager(t, &stubComps{comp: testComposition()}, clock)
	m.Restore(State{HintsUsed: 1})
	placed := placeFirst(5)

	res, err := m.RequestHint(context.Background(), testImage, testSize, placed)
	require.NoError(t, err)
	require.Equal(t, TypeFocalPoint, res.Type)
	assert.Equal(t, 1, res.VisualData.(FocalVisual).Rank)

	clock.advance(time.Hour)
	res, err = m.RequestHint(context.Background(), testImage, testSize, placed)
	require.NoError(t, err)
	assert.Equal(t, TypeColorRegion, res.Type, "same band alternates to the least recently used type")

	clock.advance(time.Hour)
	res, err = m.RequestHint(context.Background(), testImage, testSize, placed)
	require.NoError(t, err)
	require.Equal(t, TypeFocalPoint, res.Type)
	assert.Equal(t, 2, res.VisualData.(FocalVisual).Rank, "each focal hint reveals the next rank")
}

func TestFocalExhaustionFallsBackToColor(t *testing.T) {
	clock := newTestClock()
	m := newTestManager(t, &stubComps{comp: testComposition()}, clock)
	m.Restore(State{HintsUsed: 3, FocalShown: []int{1, 2}})

	res, err := m.RequestHint(context.Background(), testImage, testSize, placeFirst(5))
	require.NoError(t, err)
	assert.Equal(t, TypeColorRegion, res.Type)
}

func TestPatternHintBridgesSolvedAndOpenAreas(t *testing.T) {
	clock := newTestClock()
	m := newTestManager(t, &stubComps{comp: testComposition()}, clock)
	// COLOR_REGION was used recently, PATTERN_MATCH never: the band cycles
	// to patterns. The top-left partition region is complete, the pattern's
	// other occurrence at (3,3) is still open.
	m.Restore(State{
		HintsUsed: 2,
		LastUsed:  map[Type]time.Time{TypeColorRegion: clock.now().Add(-2 * time.Hour)},
	})

	res, err := m.RequestHint(context.Background(), testImage, testSize, placeFirst(10))
	require.NoError(t, err)
	require.Equal(t, TypePatternMatch, res.Type)

	visual := res.VisualData.(PatternVisual)
	assert.Equal(t, "q3q3q3q3|h2", visual.Signature)
	assert.Len(t, visual.Matches, 2)
	require.Len(t, res.Regions, 1, "highlight only the unsolved occurrence")
	assert.True(t, res.Regions[0].Contains(grid.Cell{Row: 3, Col: 3}))
}

func TestDegradedAnalysisServesGeometryHints(t *testing.T) {
	t.Run("analysis error", func(t *testing.T) {
		clock := newTestClock()
		m := newTestManager(t, &stubComps{err: errors.New("decode failed")}, clock)
		m.Restore(State{HintsUsed: 1})

		res, err := m.RequestHint(context.Background(), testImage, testSize, placeFirst(5))
		require.NoError(t, err)
		assert.Equal(t, TypeEdgeStructure, res.Type)
	})

	t.Run("featureless image", func(t *testing.T) {
		clock := newTestClock()
		flat := &analysis.CompositionData{
			GridSize: testSize,
			ColorRegions: []analysis.ColorRegion{
				{Region: grid.Full(testSize), Cells: nil, DominantColor: analysis.RGB{R: 120, G: 120, B: 120}},
			},
		}
		require.True(t, flat.Degraded())
		m := newTestManager(t, &stubComps{comp: flat}, clock)
		m.Restore(State{HintsUsed: 1})

		res, err := m.RequestHint(context.Background(), testImage, testSize, placeFirst(5))
		require.NoError(t, err)
		assert.Equal(t, TypeEdgeStructure, res.Type)
	})

	t.Run("frame complete falls through to progress", func(t *testing.T) {
		clock := newTestClock()
		m := newTestManager(t, &stubComps{err: errors.New("decode failed")}, clock)
		m.Restore(State{HintsUsed: 1})

		placed := map[int]bool{}
		for row := 0; row < 4; row++ {
			for col := 0; col < 4; col++ {
				c := grid.Cell{Row: row, Col: col}
				if c.OnBorder(testSize) {
					placed[c.PieceID(testSize)] = true
				}
			}
		}
		res, err := m.RequestHint(context.Background(), testImage, testSize, placed)
		require.NoError(t, err)
		assert.Equal(t, TypeProgressGuidance, res.Type)
	})
}

func TestCancelledRequestLeavesStateUntouched(t *testing.T) {
	clock := newTestClock()
	m := newTestManager(t, &stubComps{err: context.Canceled}, clock)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := m.RequestHint(ctx, testImage, testSize, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, m.HintsUsed())
	assert.Zero(t, m.CooldownRemaining())
}

func TestOutOfBoundsRegionIsAnAssertionFailure(t *testing.T) {
	clock := newTestClock()
	comp := testComposition()
	comp.FocalPoints[0].Region = grid.Region{RowStart: 0, RowEnd: 9, ColStart: 0, ColEnd: 9}
	m := newTestManager(t, &stubComps{comp: comp}, clock)
	m.Restore(State{HintsUsed: 1})

	_, err := m.RequestHint(context.Background(), testImage, testSize, placeFirst(5))
	require.Error(t, err)
	assert.True(t, errors.HasAssertionFailure(err))
	assert.True(t, errors.IsInvalidRegionError(err))
	assert.Equal(t, 1, m.HintsUsed(), "failed request must not advance state")
	assert.Zero(t, m.CooldownRemaining())
}

func TestSnapshotRestoreRoundTrip(t *testing.T) {
	clock := newTestClock()
	m := newTestManager(t, &stubComps{comp: testComposition()}, clock)
	m.Restore(State{HintsUsed: 1})
	placed := placeFirst(5)

	res, err := m.RequestHint(context.Background(), testImage, testSize, placed)
	require.NoError(t, err)
	require.Equal(t, TypeFocalPoint, res.Type)

	st := m.Snapshot()
	assert.Equal(t, 2, st.HintsUsed)
	assert.Equal(t, []int{1}, st.FocalShown)

	restored := newTestManager(t, &stubComps{comp: testComposition()}, clock)
	restored.Restore(st)

	clock.advance(30 * time.Minute)
	assert.Equal(t, 30*time.Minute, restored.CooldownRemaining(), "cooldown resumes where it left off")
	_, err = restored.RequestHint(context.Background(), testImage, testSize, placed)
	_, ok := IsUnavailable(err)
	assert.True(t, ok)

	// Revelation bookkeeping survives: after the color hint, the next
	// focal hint continues at rank 2.
	clock.advance(time.Hour)
	res, err = restored.RequestHint(context.Background(), testImage, testSize, placed)
	require.NoError(t, err)
	require.Equal(t, TypeColorRegion, res.Type)

	clock.advance(time.Hour)
	res, err = restored.RequestHint(context.Background(), testImage, testSize, placed)
	require.NoError(t, err)
	require.Equal(t, TypeFocalPoint, res.Type)
	assert.Equal(t, 2, res.VisualData.(FocalVisual).Rank)
}

func TestAvailableTypes(t *testing.T) {
	assert.Equal(t, []Type{TypeEdgeStructure, TypeCompositionOverview}, AvailableTypes(0.0, false))
	assert.Equal(t, []Type{TypeEdgeStructure, TypeCompositionOverview}, AvailableTypes(0.24, false))
	assert.Equal(t, []Type{TypeFocalPoint, TypeColorRegion}, AvailableTypes(0.25, false))
	assert.Equal(t, []Type{TypeColorRegion, TypePatternMatch}, AvailableTypes(0.5, false))
	assert.Equal(t, []Type{TypeProgressGuidance, TypePatternMatch}, AvailableTypes(0.75, false))
	assert.Equal(t, []Type{TypeProgressGuidance, TypePatternMatch}, AvailableTypes(1.0, false))
	assert.Equal(t, []Type{TypeEdgeStructure, TypeProgressGuidance}, AvailableTypes(0.5, true))
}
