// Package config defines the proxy's tunable knobs and a fluent Builder for
// assembling them, with environment-variable overrides for deployment
// without a CLI flag parser (argument parsing is explicitly out of this
// module's scope). The Builder's deferred-error-accumulation style is
// adapted from the teacher's capacitor Builder[K,V]: each With* method is a
// no-op once an earlier call has failed, so callers can chain freely and
// check the error once at Build.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds every knob the connection pipeline, inspection engine, and
// rate limiter need at startup.
type Config struct {
	ListenerAddr string
	UpstreamAddr string

	Rate       float64
	Capacity   float64
	ShardCount int

	MaxHeaderSize int
	MaxBodySize   int64

	ClientHeaderTimeout    time.Duration
	UpstreamConnectTimeout time.Duration

	IdleEvict   time.Duration
	EvictPeriod time.Duration
}

// Default returns the configuration the spec's defaults describe: a
// loopback listener proxying to a loopback upstream, a 5 req/s-per-IP
// limiter with a burst of 10, 16 shards, an 8 KiB header cap, a 10 MiB body
// cap, a 5 s header-read timeout, and a 3 s upstream-connect timeout.
func Default() Config {
	return Config{
		ListenerAddr: "127.0.0.1:4000",
		UpstreamAddr: "127.0.0.1:8000",

		Rate:       5,
		Capacity:   10,
		ShardCount: 16,

		MaxHeaderSize: 8192,
		MaxBodySize:   10 * 1024 * 1024,

		ClientHeaderTimeout:    5 * time.Second,
		UpstreamConnectTimeout: 3 * time.Second,

		IdleEvict:   600 * time.Second,
		EvictPeriod: 60 * time.Second,
	}
}

// Builder assembles a Config field by field, short-circuiting on the first
// validation error.
type Builder struct {
	cfg Config
	err error
}

// NewBuilder starts from Default.
func NewBuilder() *Builder {
	return &Builder{cfg: Default()}
}

func (b *Builder) WithListenerAddr(addr string) *Builder {
	if b.err != nil {
		return b
	}
	if addr == "" {
		b.err = fmt.Errorf("config: listener address cannot be empty")
		return b
	}
	b.cfg.ListenerAddr = addr
	return b
}

func (b *Builder) WithUpstreamAddr(addr string) *Builder {
	if b.err != nil {
		return b
	}
	if addr == "" {
		b.err = fmt.Errorf("config: upstream address cannot be empty")
		return b
	}
	b.cfg.UpstreamAddr = addr
	return b
}

func (b *Builder) WithRateLimit(rate, capacity float64) *Builder {
	if b.err != nil {
		return b
	}
	if rate <= 0 || capacity <= 0 {
		b.err = fmt.Errorf("config: rate and capacity must be positive, got rate=%v capacity=%v", rate, capacity)
		return b
	}
	b.cfg.Rate = rate
	b.cfg.Capacity = capacity
	return b
}

func (b *Builder) WithShardCount(n int) *Builder {
	if b.err != nil {
		return b
	}
	if n <= 0 {
		b.err = fmt.Errorf("config: shard count must be positive, got %d", n)
		return b
	}
	b.cfg.ShardCount = n
	return b
}

func (b *Builder) WithMaxHeaderSize(n int) *Builder {
	if b.err != nil {
		return b
	}
	if n <= 0 {
		b.err = fmt.Errorf("config: max header size must be positive, got %d", n)
		return b
	}
	b.cfg.MaxHeaderSize = n
	return b
}

func (b *Builder) WithMaxBodySize(n int64) *Builder {
	if b.err != nil {
		return b
	}
	if n <= 0 {
		b.err = fmt.Errorf("config: max body size must be positive, got %d", n)
		return b
	}
	b.cfg.MaxBodySize = n
	return b
}

func (b *Builder) WithClientHeaderTimeout(d time.Duration) *Builder {
	if b.err != nil {
		return b
	}
	if d <= 0 {
		b.err = fmt.Errorf("config: client header timeout must be positive, got %v", d)
		return b
	}
	b.cfg.ClientHeaderTimeout = d
	return b
}

func (b *Builder) WithUpstreamConnectTimeout(d time.Duration) *Builder {
	if b.err != nil {
		return b
	}
	if d <= 0 {
		b.err = fmt.Errorf("config: upstream connect timeout must be positive, got %v", d)
		return b
	}
	b.cfg.UpstreamConnectTimeout = d
	return b
}

func (b *Builder) WithEviction(idleEvict, evictPeriod time.Duration) *Builder {
	if b.err != nil {
		return b
	}
	if idleEvict <= 0 || evictPeriod <= 0 {
		b.err = fmt.Errorf("config: idle evict and evict period must be positive, got idleEvict=%v evictPeriod=%v", idleEvict, evictPeriod)
		return b
	}
	b.cfg.IdleEvict = idleEvict
	b.cfg.EvictPeriod = evictPeriod
	return b
}

// Build returns the assembled Config, or the first validation error
// encountered by any With* call.
func (b *Builder) Build() (Config, error) {
	if b.err != nil {
		return Config{}, b.err
	}
	return b.cfg, nil
}

// env var names, one per tunable knob the spec lists.
const (
	envListenerAddr           = "OBLIVION_LISTENER_ADDR"
	envUpstreamAddr           = "OBLIVION_UPSTREAM_ADDR"
	envRate                   = "OBLIVION_RATE"
	envCapacity               = "OBLIVION_CAPACITY"
	envShardCount             = "OBLIVION_SHARD_COUNT"
	envMaxHeaderSize          = "OBLIVION_MAX_HEADER_SIZE"
	envMaxBodySize            = "OBLIVION_MAX_BODY_SIZE"
	envClientHeaderTimeout    = "OBLIVION_CLIENT_HEADER_TIMEOUT"
	envUpstreamConnectTimeout = "OBLIVION_UPSTREAM_CONNECT_TIMEOUT"
	envIdleEvict              = "OBLIVION_IDLE_EVICT"
	envEvictPeriod            = "OBLIVION_EVICT_PERIOD"
)

// FromEnv builds a Config starting from Default, overriding each field with
// its corresponding OBLIVION_* environment variable when set. Durations are
// parsed as Go duration strings (e.g. "5s"); malformed values are reported
// rather than silently ignored, since a mistyped env var in a deployed
// container should fail loudly at startup, not fall back unnoticed.
//
// os.Getenv/strconv is used directly rather than a flag/env-binding library
// because the surface is small (eleven scalar knobs, no nested structure,
// no CLI flag mirroring required) and none of the example repos in this
// corpus pull in such a library for a comparably narrow surface.
func FromEnv() (Config, error) {
	b := NewBuilder()

	cfg := b.cfg
	if v := os.Getenv(envListenerAddr); v != "" {
		cfg.ListenerAddr = v
	}
	if v := os.Getenv(envUpstreamAddr); v != "" {
		cfg.UpstreamAddr = v
	}

	rate, capacity := cfg.Rate, cfg.Capacity
	if err := parseFloatEnv(envRate, &rate); err != nil {
		return Config{}, err
	}
	if err := parseFloatEnv(envCapacity, &capacity); err != nil {
		return Config{}, err
	}

	if err := parseIntEnv(envShardCount, &cfg.ShardCount); err != nil {
		return Config{}, err
	}
	if err := parseIntEnv(envMaxHeaderSize, &cfg.MaxHeaderSize); err != nil {
		return Config{}, err
	}
	if err := parseInt64Env(envMaxBodySize, &cfg.MaxBodySize); err != nil {
		return Config{}, err
	}
	if err := parseDurationEnv(envClientHeaderTimeout, &cfg.ClientHeaderTimeout); err != nil {
		return Config{}, err
	}
	if err := parseDurationEnv(envUpstreamConnectTimeout, &cfg.UpstreamConnectTimeout); err != nil {
		return Config{}, err
	}
	if err := parseDurationEnv(envIdleEvict, &cfg.IdleEvict); err != nil {
		return Config{}, err
	}
	if err := parseDurationEnv(envEvictPeriod, &cfg.EvictPeriod); err != nil {
		return Config{}, err
	}

	return NewBuilder().
		WithListenerAddr(cfg.ListenerAddr).
		WithUpstreamAddr(cfg.UpstreamAddr).
		WithRateLimit(rate, capacity).
		WithShardCount(cfg.ShardCount).
		WithMaxHeaderSize(cfg.MaxHeaderSize).
		WithMaxBodySize(cfg.MaxBodySize).
		WithClientHeaderTimeout(cfg.ClientHeaderTimeout).
		WithUpstreamConnectTimeout(cfg.UpstreamConnectTimeout).
		WithEviction(cfg.IdleEvict, cfg.EvictPeriod).
		Build()
}

func parseFloatEnv(name string, dst *float64) error {
	v := os.Getenv(name)
	if v == "" {
		return nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fmt.Errorf("config: %s: %w", name, err)
	}
	*dst = f
	return nil
}

func parseIntEnv(name string, dst *int) error {
	v := os.Getenv(name)
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("config: %s: %w", name, err)
	}
	*dst = n
	return nil
}

func parseInt64Env(name string, dst *int64) error {
	v := os.Getenv(name)
	if v == "" {
		return nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return fmt.Errorf("config: %s: %w", name, err)
	}
	*dst = n
	return nil
}

func parseDurationEnv(name string, dst *time.Duration) error {
	v := os.Getenv(name)
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("config: %s: %w", name, err)
	}
	*dst = d
	return nil
}
