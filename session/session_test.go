package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lyz-njeri/Jigsaw-game/analysis"
	"github.com/lyz-njeri/Jigsaw-game/db"
	"github.com/lyz-njeri/Jigsaw-game/errors"
	"github.com/lyz-njeri/Jigsaw-game/hint"
	jigtest "github.com/lyz-njeri/Jigsaw-game/internal/testing"
)

type testClock struct{ t time.Time }

func newTestClock() *testClock {
	return &testClock{t: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *testClock) now() time.Time          { return c.t }
func (c *testClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestRegistry(t *testing.T, clock *testClock) *Registry {
	t.Helper()
	cache, err := analysis.NewCache(4, analysis.New(analysis.Options{}, nil), nil)
	require.NoError(t, err)
	return NewRegistry(cache, Config{
		HintCooldown: time.Hour,
		Now:          clock.now,
	}, nil)
}

func TestSessionLifecycle(t *testing.T) {
	clock := newTestClock()
	reg := newTestRegistry(t, clock)

	s, err := reg.Create("meadow")
	require.NoError(t, err)
	assert.NotEmpty(t, s.ID())
	assert.Equal(t, StatusActive, s.Status())
	assert.Equal(t, 1, reg.Len())

	sum, err := s.PlacePiece(0, true)
	require.NoError(t, err)
	assert.Equal(t, 1, sum.PlacedCorrect)

	// wrong placements never count toward completion
	sum, err = s.PlacePiece(1, false)
	require.NoError(t, err)
	assert.Equal(t, 1, sum.PlacedCorrect)

	sum, err = s.RemovePiece(0)
	require.NoError(t, err)
	assert.Equal(t, 0, sum.PlacedCorrect)

	_, err = s.PlacePiece(999, true)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrInvalidRequest))

	require.NoError(t, reg.Close(s.ID()))
	assert.Equal(t, 0, reg.Len())
	_, err = s.PlacePiece(0, true)
	assert.True(t, errors.Is(err, errors.ErrSessionClosed))
	_, err = reg.Get(s.ID())
	assert.True(t, errors.IsNotFoundError(err))
}

func TestSessionCompletionAndScore(t *testing.T) {
	clock := newTestClock()
	reg := newTestRegistry(t, clock)

	s, err := reg.Create("meadow")
	require.NoError(t, err)
	total := s.GridSize().Cells()

	clock.advance(5 * time.Minute)
	for id := 0; id < total; id++ {
		_, err := s.PlacePiece(id, true)
		require.NoError(t, err)
	}

	assert.True(t, s.Completed())
	assert.Equal(t, StatusCompleted, s.Status())
	assert.Equal(t, clock.now(), s.CompletedAt())
	// base 1000 + half the 500 bonus, no hints used
	assert.Equal(t, 1250, s.Score())
}

func TestSessionScoreZeroWhileInPlay(t *testing.T) {
	clock := newTestClock()
	reg := newTestRegistry(t, clock)

	s, err := reg.Create("meadow")
	require.NoError(t, err)
	assert.Equal(t, 0, s.Score())
}

func TestSessionHintFlow(t *testing.T) {
	clock := newTestClock()
	reg := newTestRegistry(t, clock)

	s, err := reg.Create("harbor")
	require.NoError(t, err)

	res, err := s.RequestHint(context.Background())
	require.NoError(t, err)
	assert.Equal(t, hint.TypeEdgeStructure, res.Type, "fresh board starts with frame guidance")
	assert.Equal(t, 1, s.HintsUsed())

	_, err = s.RequestHint(context.Background())
	_, unavailable := hint.IsUnavailable(err)
	assert.True(t, unavailable)
	assert.Equal(t, time.Hour, s.HintCooldownRemaining())

	types, err := s.AvailableHintTypes(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, types)
}

func TestSessionPersistenceRoundTrip(t *testing.T) {
	clock := newTestClock()
	reg := newTestRegistry(t, clock)

	testDB := jigtest.CreateTestDB(t)
	require.NoError(t, db.Migrate(testDB, nil))
	store := NewStore(testDB)

	s, err := reg.Create("meadow")
	require.NoError(t, err)
	_, err = s.PlacePiece(0, true)
	require.NoError(t, err)
	_, err = s.PlacePiece(3, true)
	require.NoError(t, err)
	_, err = s.RequestHint(context.Background())
	require.NoError(t, err)

	require.NoError(t, store.Save(s, clock.now()))

	rec, err := store.Load(s.ID())
	require.NoError(t, err)
	assert.Equal(t, s.ID(), rec.ID)
	assert.Equal(t, "meadow", rec.LevelID)
	assert.Equal(t, s.GridSize(), rec.Size)
	assert.Equal(t, map[int]bool{0: true, 3: true}, rec.Placements)
	assert.Equal(t, StatusActive, rec.Status)

	hintState, err := store.HintState(s.ID())
	require.NoError(t, err)
	assert.Equal(t, 1, hintState.HintsUsed)

	// Resume in a fresh registry: cooldown and hint count carry over.
	clock.advance(30 * time.Minute)
	reg2 := newTestRegistry(t, clock)
	resumed, err := reg2.Resume(rec, hintState)
	require.NoError(t, err)
	assert.Equal(t, s.ID(), resumed.ID())
	assert.Equal(t, 1, resumed.HintsUsed())
	assert.Equal(t, 30*time.Minute, resumed.HintCooldownRemaining())
	assert.Equal(t, map[int]bool{0: true, 3: true}, resumed.Placements())
}

func TestStoreClassifiesClosedDatabase(t *testing.T) {
	clock := newTestClock()
	reg := newTestRegistry(t, clock)

	testDB := jigtest.CreateTestDB(t)
	require.NoError(t, db.Migrate(testDB, nil))
	store := NewStore(testDB)

	s, err := reg.Create("meadow")
	require.NoError(t, err)

	require.NoError(t, testDB.Close())

	// Shutdown races with persistence surface as the closed sentinel, not
	// a generic failure.
	err = store.Save(s, clock.now())
	require.Error(t, err)
	assert.True(t, db.IsDatabaseClosed(err))

	_, err = store.Load(s.ID())
	require.Error(t, err)
	assert.True(t, db.IsDatabaseClosed(err))

	_, err = store.TopScores("meadow", 5)
	require.Error(t, err)
	assert.True(t, db.IsDatabaseClosed(err))
}

func TestStoreLoadMissing(t *testing.T) {
	testDB := jigtest.CreateTestDB(t)
	require.NoError(t, db.Migrate(testDB, nil))

	_, err := NewStore(testDB).Load("no-such-id")
	assert.True(t, errors.IsNotFoundError(err))
}

func TestRecordScoreAndLeaderboard(t *testing.T) {
	clock := newTestClock()
	reg := newTestRegistry(t, clock)

	testDB := jigtest.CreateTestDB(t)
	require.NoError(t, db.Migrate(testDB, nil))
	store := NewStore(testDB)

	s, err := reg.Create("meadow")
	require.NoError(t, err)

	// scoring an unfinished session is a caller error
	require.Error(t, store.RecordScore(s, clock.now()))

	clock.advance(2 * time.Minute)
	for id := 0; id < s.GridSize().Cells(); id++ {
		_, err := s.PlacePiece(id, true)
		require.NoError(t, err)
	}
	require.NoError(t, store.Save(s, clock.now()))
	require.NoError(t, store.RecordScore(s, clock.now()))

	scores, err := store.TopScores("meadow", 10)
	require.NoError(t, err)
	require.Len(t, scores, 1)
	assert.Equal(t, s.ID(), scores[0].SessionID)
	assert.Equal(t, s.Score(), scores[0].Score)
	assert.Equal(t, 120, scores[0].DurationSeconds)
}
