package config

import (
	"os"
	"testing"
	"time"
)

func TestDefaultMatchesSpecDefaults(t *testing.T) {
	cfg := Default()
	if cfg.ListenerAddr != "127.0.0.1:4000" || cfg.UpstreamAddr != "127.0.0.1:8000" {
		t.Errorf("addrs = %+v", cfg)
	}
	if cfg.MaxHeaderSize != 8192 {
		t.Errorf("max header size = %d", cfg.MaxHeaderSize)
	}
	if cfg.MaxBodySize != 10*1024*1024 {
		t.Errorf("max body size = %d", cfg.MaxBodySize)
	}
	if cfg.ClientHeaderTimeout != 5*time.Second {
		t.Errorf("client header timeout = %v", cfg.ClientHeaderTimeout)
	}
}

func TestBuilderRejectsInvalidRate(t *testing.T) {
	_, err := NewBuilder().WithRateLimit(0, 10).Build()
	if err == nil {
		t.Fatal("expected error for zero rate")
	}
}

func TestBuilderShortCircuitsAfterFirstError(t *testing.T) {
	_, err := NewBuilder().
		WithRateLimit(-1, 10).
		WithShardCount(32).
		Build()
	if err == nil {
		t.Fatal("expected error to survive through later chained calls")
	}
}

func TestBuilderChainProducesOverrides(t *testing.T) {
	cfg, err := NewBuilder().
		WithListenerAddr("0.0.0.0:9000").
		WithShardCount(64).
		Build()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.ListenerAddr != "0.0.0.0:9000" || cfg.ShardCount != 64 {
		t.Errorf("cfg = %+v", cfg)
	}
}

func TestFromEnvAppliesOverrides(t *testing.T) {
	t.Setenv("OBLIVION_LISTENER_ADDR", "0.0.0.0:4001")
	t.Setenv("OBLIVION_RATE", "20")
	t.Setenv("OBLIVION_CLIENT_HEADER_TIMEOUT", "2s")

	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.ListenerAddr != "0.0.0.0:4001" {
		t.Errorf("listener addr = %q", cfg.ListenerAddr)
	}
	if cfg.Rate != 20 {
		t.Errorf("rate = %v", cfg.Rate)
	}
	if cfg.ClientHeaderTimeout != 2*time.Second {
		t.Errorf("client header timeout = %v", cfg.ClientHeaderTimeout)
	}
}

func TestFromEnvRejectsMalformedValue(t *testing.T) {
	t.Setenv("OBLIVION_RATE", "not-a-number")
	defer os.Unsetenv("OBLIVION_RATE")

	if _, err := FromEnv(); err == nil {
		t.Fatal("expected error for malformed env var")
	}
}
