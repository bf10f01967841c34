// wx/cache.go
// Copyright(c) 2025 zephyr contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package wx

import (
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/zephyrsim/zephyr/math"
)

// TickCache memoizes wind queries for the duration of one simulation tick.
// The first query of a tick goes to the sampler's WindAt and so advances
// the field; if the sampler is a TickSampler, queries at other positions
// in the same tick go to SampleAt and see the same field state. Reset must
// be called at the start of each tick.
//
// The cache holds at most size positions; an evicted position is sampled
// again, without advancing the field.
type TickCache struct {
	sampler  WindSampler
	cache    *lru.Cache[math.Vec3, math.Vec3]
	advanced bool
	misses   int
}

func NewTickCache(s WindSampler, size int) *TickCache {
	c, err := lru.New[math.Vec3, math.Vec3](max(size, 1))
	if err != nil {
		// Only possible for a non-positive size.
		panic(err)
	}
	return &TickCache{sampler: s, cache: c}
}

func (c *TickCache) WindAt(pos math.Vec3) math.Vec3 {
	if w, ok := c.cache.Get(pos); ok {
		return w
	}

	var w math.Vec3
	if ts, ok := c.sampler.(TickSampler); ok && c.advanced {
		w = ts.SampleAt(pos)
	} else {
		w = c.sampler.WindAt(pos)
		c.advanced = true
	}
	c.cache.Add(pos, w)
	c.misses++
	return w
}

// Reset discards all cached samples and starts a new tick.
func (c *TickCache) Reset() {
	c.cache.Purge()
	c.advanced = false
}

// Samples returns the number of queries that were passed through to the
// underlying sampler since the cache was created.
func (c *TickCache) Samples() int {
	return c.misses
}
