package analysis

import (
	"context"
	"fmt"
	"image"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/lyz-njeri/Jigsaw-game/grid"
)

// Cache memoizes CompositionData by image fingerprint. Concurrent requests
// for the same image share one in-flight analysis (single-flight), the first
// completed result wins the cache slot, and later identical computations
// reuse it. Entries evict LRU when capacity is exceeded.
type Cache struct {
	analyze func(image.Image, grid.Size) (*CompositionData, error)
	entries *lru.Cache[string, *CompositionData]
	group   singleflight.Group
	logger  *zap.SugaredLogger

	// gen invalidation counters, keyed by fingerprint. A flight records the
	// counter at launch and only commits if it is unchanged, so an analysis
	// that outlives Invalidate never re-inserts the entry. Counters are
	// never reset; deleting one would let a stale flight observe the zero
	// value again and commit.
	mu  sync.Mutex
	gen map[string]uint64
}

// NewCache creates a composition cache over the given analyzer.
func NewCache(capacity int, analyzer *Analyzer, logger *zap.SugaredLogger) (*Cache, error) {
	if capacity <= 0 {
		capacity = 16
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	entries, err := lru.New[string, *CompositionData](capacity)
	if err != nil {
		return nil, err
	}
	return &Cache{
		analyze: analyzer.Analyze,
		entries: entries,
		logger:  logger,
		gen:     make(map[string]uint64),
	}, nil
}

// Get returns the snapshot for the image, computing it once per fingerprint.
// Cancelling the context abandons the wait; an analysis abandoned by every
// waiter stores nothing, so a closed session leaves no dangling entry.
func (c *Cache) Get(ctx context.Context, img image.Image, size grid.Size) (*CompositionData, error) {
	return c.GetByFingerprint(ctx, Fingerprint(img), img, size)
}

// GetByFingerprint is Get for callers that already hold the fingerprint
// (e.g., restored sessions), avoiding a second hash pass.
func (c *Cache) GetByFingerprint(ctx context.Context, fp string, img image.Image, size grid.Size) (*CompositionData, error) {
	if data, ok := c.entries.Get(fp); ok && data.GridSize == size {
		return data, nil
	}

	c.mu.Lock()
	startGen := c.gen[fp]
	c.mu.Unlock()

	// The flight key carries the grid size so two sessions slicing the same
	// image differently never share a result.
	key := fmt.Sprintf("%s|%dx%d", fp, size.Rows, size.Cols)
	ch := c.group.DoChan(key, func() (interface{}, error) {
		data, err := c.analyze(img, size)
		if err != nil {
			return nil, err
		}
		return c.commit(fp, size, startGen, data), nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*CompositionData), nil
	case <-ctx.Done():
		// Abandon the flight so the next request recomputes instead of
		// joining a doomed one. The generation check keeps whatever the
		// flight still produces out of the cache once Invalidate runs.
		c.group.Forget(key)
		return nil, ctx.Err()
	}
}

// commit stores a finished analysis unless the fingerprint was invalidated
// after the flight launched. First writer wins: a concurrent identical
// computation that lost the race discards its result in favor of the cached
// one. An entry cached under a different grid size is replaced.
func (c *Cache) commit(fp string, size grid.Size, startGen uint64, data *CompositionData) *CompositionData {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.gen[fp] != startGen {
		c.logger.Debugw("Composition discarded, fingerprint invalidated mid-flight", "fingerprint", fp[:12])
		return data
	}
	if prev, ok := c.entries.Peek(fp); ok && prev.GridSize == size {
		return prev
	}
	c.entries.Add(fp, data)
	c.logger.Debugw("Composition cached", "fingerprint", fp[:12], "complexity", data.ComplexityScore)
	return data
}

// Invalidate drops the cached snapshot for a fingerprint, e.g. when a
// puzzle session is destroyed. Analyses already in flight for it will not
// re-insert the entry when they finish.
func (c *Cache) Invalidate(fp string) {
	c.mu.Lock()
	c.gen[fp]++
	c.entries.Remove(fp)
	c.mu.Unlock()
}

// Len returns the number of cached snapshots.
func (c *Cache) Len() int {
	return c.entries.Len()
}
