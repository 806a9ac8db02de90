// Command oblivion runs the plaintext variant of the reverse-proxy WAF:
// it terminates raw TCP (no TLS) on ListenerAddr and tunnels allowed
// requests to UpstreamAddr.
package main

import (
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kouyxi/oblivion/internal/bufpool"
	"github.com/kouyxi/oblivion/internal/config"
	"github.com/kouyxi/oblivion/internal/logging"
	"github.com/kouyxi/oblivion/internal/proxy"
	"github.com/kouyxi/oblivion/internal/ratelimit"
	"github.com/kouyxi/oblivion/internal/waf"
)

func main() {
	cfg, err := config.FromEnv()
	if err != nil {
		log.Fatalf("oblivion: invalid configuration: %v", err)
	}

	fmt.Printf("oblivion proxy starting: %s -> %s\n", cfg.ListenerAddr, cfg.UpstreamAddr)

	logger := logging.Default()
	engine := waf.New()
	limiter := ratelimit.New(ratelimit.Config{
		Rate:        cfg.Rate,
		Capacity:    cfg.Capacity,
		ShardCount:  cfg.ShardCount,
		IdleEvict:   cfg.IdleEvict,
		EvictPeriod: cfg.EvictPeriod,
	})
	defer limiter.Close()

	pool := bufpool.New()
	pipeline := proxy.New(cfg, engine, limiter, pool, logger)

	if addr := os.Getenv("OBLIVION_METRICS_ADDR"); addr != "" {
		startMetricsServer(addr, limiter, pool, pipeline)
	}

	ln, err := net.Listen("tcp", cfg.ListenerAddr)
	if err != nil {
		log.Fatalf("oblivion: failed to listen on %s: %v", cfg.ListenerAddr, err)
	}

	run(ln, pipeline)
}

// startMetricsServer exposes an optional /metrics endpoint (Prometheus text
// format) on a separate debug listener, never on the proxy's own listener —
// the proxy's listener speaks the raw-byte proxied protocol, not HTTP.
func startMetricsServer(addr string, limiter *ratelimit.Limiter, pool *bufpool.Pool, pipeline *proxy.Pipeline) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(ratelimit.NewCollector(limiter))
	reg.MustRegister(bufpool.NewCollector(pool))
	reg.MustRegister(proxy.NewCollector(pipeline))

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	go func() {
		if err := http.ListenAndServe(addr, mux); err != nil {
			log.Printf("oblivion: metrics server exited: %v", err)
		}
	}()
}

// run accepts connections until the listener is closed, dispatching each to
// its own goroutine, and shuts down on SIGINT/SIGTERM. Grounded on the
// teacher's App.Run: start serving in the background, block on a signal
// channel, then close the listener so Accept unblocks with an error and the
// accept loop exits.
func run(ln net.Listener, pipeline *proxy.Pipeline) {
	acceptErr := make(chan error, 1)
	go func() {
		acceptErr <- acceptLoop(ln, pipeline)
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-acceptErr:
		log.Printf("oblivion: accept loop exited: %v", err)
	case <-sigChan:
		log.Println("oblivion: shutting down")
		_ = ln.Close()
		<-acceptErr
	}
}

func acceptLoop(ln net.Listener, pipeline *proxy.Pipeline) error {
	defer ln.Close()
	for {
		conn, err := ln.Accept()
		if err != nil {
			return err
		}
		go pipeline.HandleConnection(conn)
	}
}
