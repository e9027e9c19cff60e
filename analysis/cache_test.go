package analysis

import (
	"context"
	"image"
	"image/color"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lyz-njeri/Jigsaw-game/grid"
)

func TestCacheMemoizesByFingerprint(t *testing.T) {
	a := New(DefaultOptions(), nil)
	cache, err := NewCache(4, a, nil)
	require.NoError(t, err)

	size := grid.Size{Rows: 6, Cols: 6}
	img := structuredImage()

	first, err := cache.Get(context.Background(), img, size)
	require.NoError(t, err)
	second, err := cache.Get(context.Background(), img, size)
	require.NoError(t, err)

	assert.Same(t, first, second, "second request must reuse the cached snapshot")
	assert.Equal(t, 1, cache.Len())
}

func TestCacheDistinguishesImages(t *testing.T) {
	a := New(DefaultOptions(), nil)
	cache, err := NewCache(4, a, nil)
	require.NoError(t, err)

	size := grid.Size{Rows: 4, Cols: 4}
	red := solidImage(40, 40, color.RGBA{R: 255, A: 255})
	blue := solidImage(40, 40, color.RGBA{B: 255, A: 255})

	dr, err := cache.Get(context.Background(), red, size)
	require.NoError(t, err)
	db, err := cache.Get(context.Background(), blue, size)
	require.NoError(t, err)

	assert.NotEqual(t, dr.Fingerprint, db.Fingerprint)
	assert.Equal(t, 2, cache.Len())
}

func TestCacheSingleFlight(t *testing.T) {
	var calls atomic.Int32
	release := make(chan struct{})

	a := New(DefaultOptions(), nil)
	cache, err := NewCache(4, a, nil)
	require.NoError(t, err)
	inner := cache.analyze
	cache.analyze = func(img image.Image, size grid.Size) (*CompositionData, error) {
		calls.Add(1)
		<-release
		return inner(img, size)
	}

	size := grid.Size{Rows: 4, Cols: 4}
	img := solidImage(40, 40, color.RGBA{R: 128, G: 128, B: 128, A: 255})
	fp := Fingerprint(img)

	const waiters = 8
	results := make([]*CompositionData, waiters)
	var wg sync.WaitGroup
	for i := 0; i < waiters; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			data, gerr := cache.GetByFingerprint(context.Background(), fp, img, size)
			assert.NoError(t, gerr)
			results[i] = data
		}(i)
	}

	// Give every waiter time to join the flight before releasing it.
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load(), "concurrent requests must share one analysis")
	for i := 1; i < waiters; i++ {
		assert.Same(t, results[0], results[i])
	}
}

func TestCacheCancelledWaiter(t *testing.T) {
	release := make(chan struct{})
	defer close(release)

	a := New(DefaultOptions(), nil)
	cache, err := NewCache(4, a, nil)
	require.NoError(t, err)
	inner := cache.analyze
	cache.analyze = func(img image.Image, size grid.Size) (*CompositionData, error) {
		<-release
		return inner(img, size)
	}

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	img := solidImage(40, 40, color.RGBA{R: 1, A: 255})
	_, err = cache.Get(ctx, img, grid.Size{Rows: 4, Cols: 4})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCacheInvalidateDuringFlight(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{}, 1)

	a := New(DefaultOptions(), nil)
	cache, err := NewCache(4, a, nil)
	require.NoError(t, err)
	inner := cache.analyze
	cache.analyze = func(img image.Image, size grid.Size) (*CompositionData, error) {
		select {
		case started <- struct{}{}:
		default:
		}
		<-release
		return inner(img, size)
	}

	size := grid.Size{Rows: 4, Cols: 4}
	img := solidImage(40, 40, color.RGBA{B: 90, A: 255})
	fp := Fingerprint(img)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_, gerr := cache.GetByFingerprint(ctx, fp, img, size)
		assert.ErrorIs(t, gerr, context.Canceled)
	}()

	// The waiter abandons the flight, the session tears down, and only
	// then does the analysis finish.
	<-started
	cancel()
	<-done
	cache.Invalidate(fp)
	close(release)

	// The flight finishes on its own goroutine; hold the assertion window
	// open long enough for it to have attempted a commit.
	assert.Never(t, func() bool { return cache.Len() != 0 },
		200*time.Millisecond, 10*time.Millisecond,
		"an analysis finishing after Invalidate must not re-insert the entry")

	// A fresh request still works and caches normally.
	data, err := cache.GetByFingerprint(context.Background(), fp, img, size)
	require.NoError(t, err)
	assert.Equal(t, fp, data.Fingerprint)
	assert.Equal(t, 1, cache.Len())
}

func TestCacheReplacesEntryOnGridSizeChange(t *testing.T) {
	a := New(DefaultOptions(), nil)
	cache, err := NewCache(4, a, nil)
	require.NoError(t, err)

	img := structuredImage()

	first, err := cache.Get(context.Background(), img, grid.Size{Rows: 4, Cols: 4})
	require.NoError(t, err)
	require.Equal(t, grid.Size{Rows: 4, Cols: 4}, first.GridSize)

	second, err := cache.Get(context.Background(), img, grid.Size{Rows: 6, Cols: 6})
	require.NoError(t, err)
	assert.Equal(t, grid.Size{Rows: 6, Cols: 6}, second.GridSize)

	// One slot per fingerprint; the new size took it over.
	assert.Equal(t, 1, cache.Len())
	again, err := cache.Get(context.Background(), img, grid.Size{Rows: 6, Cols: 6})
	require.NoError(t, err)
	assert.Same(t, second, again)
}

func TestCacheInvalidate(t *testing.T) {
	a := New(DefaultOptions(), nil)
	cache, err := NewCache(4, a, nil)
	require.NoError(t, err)

	size := grid.Size{Rows: 4, Cols: 4}
	img := solidImage(40, 40, color.RGBA{G: 200, A: 255})

	data, err := cache.Get(context.Background(), img, size)
	require.NoError(t, err)
	require.Equal(t, 1, cache.Len())

	cache.Invalidate(data.Fingerprint)
	assert.Equal(t, 0, cache.Len())
}
