// Package proxy implements the per-connection pipeline: rate-gating, bounded
// header reading, parsing, inspection, and — if allowed — opening a tunnel
// to the fixed upstream. It is the orchestration layer that ties the
// request parser, inspection engine, and rate limiter together around one
// accepted net.Conn.
package proxy

import (
	"errors"
	"fmt"
	"io"
	"net"
	"runtime/debug"
	"strings"
	"time"

	"github.com/kouyxi/oblivion/internal/bufpool"
	"github.com/kouyxi/oblivion/internal/config"
	"github.com/kouyxi/oblivion/internal/httpmsg"
	"github.com/kouyxi/oblivion/internal/logging"
	"github.com/kouyxi/oblivion/internal/ratelimit"
	"github.com/kouyxi/oblivion/internal/waf"
)

// Dialer abstracts the upstream connect step so tests can substitute an
// in-memory listener instead of a real TCP dial.
type Dialer interface {
	DialTimeout(network, address string, timeout time.Duration) (net.Conn, error)
}

type netDialer struct{}

func (netDialer) DialTimeout(network, address string, timeout time.Duration) (net.Conn, error) {
	return net.DialTimeout(network, address, timeout)
}

// Pipeline holds the shared, read-mostly collaborators every connection's
// HandleConnection call needs: the inspection engine (immutable after
// construction), the rate limiter (internally synchronized), the buffer
// pool, the logger, and the static configuration. One Pipeline is shared by
// every accepted connection; it has no per-connection mutable state itself.
type Pipeline struct {
	cfg     config.Config
	engine  *waf.Engine
	limiter *ratelimit.Limiter
	pool    *bufpool.Pool
	logger  *logging.Logger
	dialer  Dialer
	metrics *connMetrics
}

// New constructs a Pipeline from its collaborators.
func New(cfg config.Config, engine *waf.Engine, limiter *ratelimit.Limiter, pool *bufpool.Pool, logger *logging.Logger) *Pipeline {
	return &Pipeline{cfg: cfg, engine: engine, limiter: limiter, pool: pool, logger: logger, dialer: netDialer{}, metrics: newConnMetrics()}
}

// HandleConnection runs the full RATE_GATE -> READ_HEADERS -> PARSE ->
// INSPECT -> {BLOCK, CONNECT_UPSTREAM} -> TUNNEL -> DONE state machine for
// one accepted connection. It never panics or returns an error to the
// caller: every failure path is handled by writing a best-effort response
// (or none, for timeouts) and returning, so the accept loop can never be
// brought down by a single bad connection.
func (p *Pipeline) HandleConnection(conn net.Conn) {
	defer conn.Close()

	peer := conn.RemoteAddr().String()
	log := p.logger.Conn(peer)

	// A panic anywhere below must not take down the accept loop: recover,
	// log the stack trace, and let the connection die with this goroutine.
	// Adapted from the teacher's Recovery middleware, generalized from
	// "return a 500 to the HTTP client" (not possible once bytes may
	// already be mid-tunnel) to "log and abandon the connection".
	defer func() {
		if r := recover(); r != nil {
			log.Error("panic_recovered", fmt.Errorf("%v\n%s", r, debug.Stack()))
		}
	}()

	host, _, err := net.SplitHostPort(peer)
	if err != nil {
		host = peer
	}

	// RATE_GATE
	if !p.limiter.Check(host) {
		writeRateLimited(conn)
		log.Warn("rate_limited", "")
		p.metrics.rateLimited.Inc()
		return
	}

	// READ_HEADERS
	scratch := p.pool.GetScratch()
	defer p.pool.PutScratch(scratch)

	accumulator, headerLen, err := readHeaders(conn, scratch, p.cfg.ClientHeaderTimeout, p.cfg.MaxHeaderSize)
	if err != nil {
		if errors.Is(err, errHeaderTooLarge) {
			log.Warn("header_too_large", "")
			return
		}
		if isTimeout(err) {
			log.Warn("client_header_timeout", "")
			return
		}
		if err == io.EOF {
			log.Debugf("client_closed_before_headers")
			return
		}
		log.DebugErr("read_headers_error", err)
		return
	}

	// The header-read deadline must not outlive READ_HEADERS: a tunnel can
	// legitimately stay open far longer than ClientHeaderTimeout.
	_ = conn.SetReadDeadline(time.Time{})

	// PARSE
	req, err := httpmsg.Parse(accumulator[:headerLen])
	if err != nil {
		writeBadRequest(conn)
		log.DebugErr("parse_error", err)
		p.metrics.parseErrors.Inc()
		return
	}
	req.Body = string(accumulator[headerLen:])

	// INSPECT
	verdict := p.engine.Inspect(req)
	if verdict.Blocked {
		writeBlocked(conn, verdict.Reason)
		log.Warn("blocked", verdict.Reason)
		p.metrics.blocked.WithLabelValues(blockCategory(verdict.Reason)).Inc()
		return
	}

	// CONNECT_UPSTREAM
	upstream, err := p.dialer.DialTimeout("tcp", p.cfg.UpstreamAddr, p.cfg.UpstreamConnectTimeout)
	if err != nil {
		if isTimeout(err) {
			writeUpstreamTimeout(conn)
			log.Error("upstream_connect_timeout", err)
			p.metrics.upstreamErrs.WithLabelValues("timeout").Inc()
		} else {
			writeUpstreamError(conn)
			log.Error("upstream_connect_error", err)
			p.metrics.upstreamErrs.WithLabelValues("connect_error").Inc()
		}
		return
	}
	defer upstream.Close()

	if _, err := upstream.Write(accumulator); err != nil {
		log.DebugErr("upstream_write_error", err)
		return
	}

	log.Info("tunnel_opened")
	p.metrics.tunneled.Inc()

	// TUNNEL
	tunnel(conn, upstream, p.cfg.MaxBodySize, p.pool)
	log.Debugf("tunnel_closed")
}

func isTimeout(err error) bool {
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

// blockCategory maps a verdict reason string to a low-cardinality label for
// the blocked_total metric, so the counter's label set stays bounded
// regardless of how many distinct signature strings a reason embeds.
func blockCategory(reason string) string {
	switch {
	case strings.HasPrefix(reason, "Method Not Allowed"):
		return "method_not_allowed"
	case strings.HasPrefix(reason, "Smuggling Attempt"):
		return "smuggling"
	case strings.HasPrefix(reason, "Protocol Anomaly"):
		return "missing_host"
	case strings.HasPrefix(reason, "Null Byte Injection"):
		return "null_byte"
	case strings.HasPrefix(reason, "CRLF Injection"):
		return "crlf"
	case strings.HasPrefix(reason, "SQL Injection"):
		return "sqli"
	case strings.HasPrefix(reason, "XSS"):
		return "xss"
	case strings.HasPrefix(reason, "Path Traversal"):
		return "traversal"
	default:
		return "other"
	}
}
