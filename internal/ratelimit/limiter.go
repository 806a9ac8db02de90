// Package ratelimit implements a sharded token-bucket rate limiter keyed by
// source IP. Each shard is an independently-locked map, bounding lock
// contention to roughly 1/ShardCount under uniform traffic — the same
// partitioning idea as the teacher's capacitor ShardedCache, applied to rate
// limiting instead of caching.
package ratelimit

import (
	"hash/maphash"
	"sync"
	"time"
)

// Config tunes the limiter. Zero values fall back to the defaults noted
// below, matching spec.md §4.3 and §6.
type Config struct {
	// Rate is the refill rate in tokens/second. Default 5.
	Rate float64
	// Capacity is the maximum (and starting) token count per bucket. Default 10.
	Capacity float64
	// ShardCount is the number of independently-locked shards. Rounded up
	// to the next power of two. Default 16.
	ShardCount int
	// IdleEvict is how long a bucket may sit unused before it is evicted.
	// Default 600s.
	IdleEvict time.Duration
	// EvictPeriod is how often the background sweep runs. Default 60s.
	EvictPeriod time.Duration

	// now, if set, replaces time.Now for deterministic tests. Unexported by
	// convention but left accessible within the package for _test.go files.
	now func() time.Time
}

func (c Config) withDefaults() Config {
	if c.Rate <= 0 {
		c.Rate = 5
	}
	if c.Capacity <= 0 {
		c.Capacity = 10
	}
	if c.ShardCount <= 0 {
		c.ShardCount = 16
	}
	if c.IdleEvict <= 0 {
		c.IdleEvict = 600 * time.Second
	}
	if c.EvictPeriod <= 0 {
		c.EvictPeriod = 60 * time.Second
	}
	if c.now == nil {
		c.now = time.Now
	}
	return c
}

type bucket struct {
	mu         sync.Mutex
	tokens     float64
	lastUpdate time.Time
}

type shard struct {
	mu      sync.Mutex
	buckets map[string]*bucket
}

// Limiter is a sharded token-bucket rate limiter. Safe for concurrent use
// from any number of goroutines.
type Limiter struct {
	shards    []*shard
	shardMask uint64
	seed      maphash.Seed
	cfg       Config

	metrics *metrics

	closeOnce sync.Once
	stopEvict chan struct{}
	evictDone chan struct{}
}

// New constructs a Limiter and starts its background eviction goroutine.
// Call Close to stop the eviction goroutine when the limiter is no longer
// needed — the reference implementation never shuts this down, but Go
// services are expected to terminate cleanly.
func New(cfg Config) *Limiter {
	cfg = cfg.withDefaults()
	shardCount := nextPowerOfTwo(cfg.ShardCount)

	l := &Limiter{
		shards:    make([]*shard, shardCount),
		shardMask: uint64(shardCount - 1),
		seed:      maphash.MakeSeed(),
		cfg:       cfg,
		metrics:   newMetrics(),
		stopEvict: make(chan struct{}),
		evictDone: make(chan struct{}),
	}
	for i := range l.shards {
		l.shards[i] = &shard{buckets: make(map[string]*bucket)}
	}

	go l.evictLoop()

	return l
}

// Check reports whether a request from ip should be admitted, consuming one
// token if so. It is O(1) expected: one shard lookup under the shard-local
// mutex, then one lazy refill computation under the bucket's own mutex.
func (l *Limiter) Check(ip string) bool {
	s := l.shardFor(ip)

	s.mu.Lock()
	b, ok := s.buckets[ip]
	if !ok {
		b = &bucket{tokens: l.cfg.Capacity, lastUpdate: l.cfg.now()}
		s.buckets[ip] = b
	}
	s.mu.Unlock()

	b.mu.Lock()
	defer b.mu.Unlock()

	now := l.cfg.now()
	elapsed := now.Sub(b.lastUpdate).Seconds()
	if elapsed < 0 {
		elapsed = 0
	}
	b.tokens += elapsed * l.cfg.Rate
	if b.tokens > l.cfg.Capacity {
		b.tokens = l.cfg.Capacity
	}
	b.lastUpdate = now

	if b.tokens >= 1.0 {
		b.tokens -= 1.0
		l.metrics.admitted.Inc()
		return true
	}
	l.metrics.denied.Inc()
	return false
}

func (l *Limiter) shardFor(ip string) *shard {
	idx := shardIndex(l.seed, ip, l.shardMask)
	return l.shards[idx]
}

// evictLoop periodically drops buckets that have been idle longer than
// IdleEvict. Eviction is a memory-hygiene measure only; it never affects
// admission decisions for still-active IPs, since a fresh bucket starts
// full just like a never-seen IP would.
func (l *Limiter) evictLoop() {
	defer close(l.evictDone)

	ticker := time.NewTicker(l.cfg.EvictPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-l.stopEvict:
			return
		case <-ticker.C:
			l.evictOnce()
		}
	}
}

func (l *Limiter) evictOnce() {
	now := l.cfg.now()
	var evicted int

	for _, s := range l.shards {
		s.mu.Lock()
		for ip, b := range s.buckets {
			b.mu.Lock()
			idle := now.Sub(b.lastUpdate)
			b.mu.Unlock()

			if idle > l.cfg.IdleEvict {
				delete(s.buckets, ip)
				evicted++
			}
		}
		s.mu.Unlock()
	}

	if evicted > 0 {
		l.metrics.evicted.Add(float64(evicted))
	}
}

// Close stops the background eviction goroutine. Safe to call more than
// once; subsequent calls are no-ops.
func (l *Limiter) Close() {
	l.closeOnce.Do(func() {
		close(l.stopEvict)
	})
	<-l.evictDone
}
