// Command oblivion-tls runs the TLS-terminating variant of the proxy: the
// TLS acceptor wraps each accepted connection before handing it to the same
// connection pipeline the plaintext variant uses — C4 is generic over any
// bidirectional byte stream.
package main

import (
	"crypto/tls"
	"fmt"
	"log"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/kouyxi/oblivion/internal/bufpool"
	"github.com/kouyxi/oblivion/internal/config"
	"github.com/kouyxi/oblivion/internal/logging"
	"github.com/kouyxi/oblivion/internal/proxy"
	"github.com/kouyxi/oblivion/internal/ratelimit"
	"github.com/kouyxi/oblivion/internal/tlscert"
	"github.com/kouyxi/oblivion/internal/waf"
)

func main() {
	cfg, err := config.FromEnv()
	if err != nil {
		log.Fatalf("oblivion-tls: invalid configuration: %v", err)
	}
	if cfg.ListenerAddr == "127.0.0.1:4000" {
		// Default() assumes the plaintext variant's loopback listener; the
		// TLS variant's spec default is a wildcard bind on 4433.
		cfg.ListenerAddr = "0.0.0.0:4433"
	}

	certFile := envOr("OBLIVION_TLS_CERT_FILE", "cert.pem")
	keyFile := envOr("OBLIVION_TLS_KEY_FILE", "key.pem")

	tlsConfig, err := tlscert.Load(certFile, keyFile)
	if err != nil {
		log.Fatalf("oblivion-tls: %v", err)
	}

	fmt.Printf("oblivion-tls proxy starting: %s -> %s\n", cfg.ListenerAddr, cfg.UpstreamAddr)

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

	pipeline := proxy.New(cfg, engine, limiter, bufpool.New(), logger)

	rawLn, err := net.Listen("tcp", cfg.ListenerAddr)
	if err != nil {
		log.Fatalf("oblivion-tls: failed to listen on %s: %v", cfg.ListenerAddr, err)
	}
	ln := tls.NewListener(rawLn, tlsConfig)

	run(ln, pipeline)
}

func envOr(name, fallback string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return fallback
}

func run(ln net.Listener, pipeline *proxy.Pipeline) {
	acceptErr := make(chan error, 1)
	go func() {
		acceptErr <- acceptLoop(ln, pipeline)
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-acceptErr:
		log.Printf("oblivion-tls: accept loop exited: %v", err)
	case <-sigChan:
		log.Println("oblivion-tls: shutting down")
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
