package proxy

import (
	"io"
	"net"

	"golang.org/x/sync/errgroup"

	"github.com/kouyxi/oblivion/internal/bufpool"
)

// tunnel splices client and upstream bidirectionally until both directions
// have finished. It returns once both copies complete; an error from either
// direction is recorded but never surfaced as a synthetic response — the
// client is already in the data phase by the time TUNNEL starts.
//
// client->upstream is capped at maxBodySize additional bytes, matching the
// spec's MAX_BODY_SIZE bound on data beyond the already-buffered header
// accumulator. upstream->client is uncapped, since nothing in this proxy's
// threat model treats response size as an attack surface (no response-body
// inspection is in scope).
func tunnel(client, upstream net.Conn, maxBodySize int64, pool *bufpool.Pool) {
	var g errgroup.Group

	g.Go(func() error {
		buf := pool.GetTunnel()
		defer pool.PutTunnel(buf)
		limited := io.LimitReader(client, maxBodySize)
		_, err := io.CopyBuffer(upstream, limited, buf)
		closeWrite(upstream)
		return err
	})

	g.Go(func() error {
		buf := pool.GetTunnel()
		defer pool.PutTunnel(buf)
		_, err := io.CopyBuffer(client, upstream, buf)
		closeWrite(client)
		return err
	})

	_ = g.Wait()
}

// closeWrite half-closes the write side of conn if it supports it, signaling
// EOF to the peer without tearing down the read side mid-copy. Falls back to
// a full Close for connection types that don't expose CloseWrite (this
// proxy's own net.Conn values — *net.TCPConn and *tls.Conn — both do).
func closeWrite(conn net.Conn) {
	type writeCloser interface {
		CloseWrite() error
	}
	if wc, ok := conn.(writeCloser); ok {
		_ = wc.CloseWrite()
		return
	}
	_ = conn.Close()
}
