// Package bufpool provides size-classed, sync.Pool-backed byte buffer
// reuse for the connection pipeline's two hot allocation sites: the
// small scratch buffer used while accumulating headers, and the larger
// buffer used to copy the tunnel's two directions. Adapted from the
// teacher's multi-class buffer pool, trimmed to the two sizes this proxy
// actually needs instead of a general-purpose six-class pool.
package bufpool

import (
	"sync"
	"sync/atomic"
)

// Size classes. Scratch matches the spec's "1 KiB typical" header read
// chunk; Tunnel matches a conventional io.Copy buffer size for splicing
// the two tunnel halves.
const (
	ScratchSize = 1 * 1024
	TunnelSize  = 32 * 1024
)

type sizedPool struct {
	size int
	pool sync.Pool

	gets   atomic.Uint64
	misses atomic.Uint64
}

func newSizedPool(size int) *sizedPool {
	sp := &sizedPool{size: size}
	sp.pool.New = func() interface{} {
		sp.misses.Add(1)
		buf := make([]byte, size)
		return &buf
	}
	return sp
}

func (sp *sizedPool) get() []byte {
	sp.gets.Add(1)
	bufPtr := sp.pool.Get().(*[]byte)
	return (*bufPtr)[:sp.size]
}

func (sp *sizedPool) put(buf []byte) {
	if cap(buf) < sp.size {
		return
	}
	buf = buf[:sp.size]
	sp.pool.Put(&buf)
}

func (sp *sizedPool) metrics() (gets, misses uint64) {
	return sp.gets.Load(), sp.misses.Load()
}

// Pool holds the two size-classed sub-pools used by the connection
// pipeline.
type Pool struct {
	scratch *sizedPool
	tunnel  *sizedPool
}

// New constructs an empty Pool. Buffers are allocated lazily on first Get.
func New() *Pool {
	return &Pool{
		scratch: newSizedPool(ScratchSize),
		tunnel:  newSizedPool(TunnelSize),
	}
}

// GetScratch returns a zero-length-extended buffer of ScratchSize bytes for
// header accumulation reads.
func (p *Pool) GetScratch() []byte { return p.scratch.get() }

// PutScratch returns a scratch buffer obtained from GetScratch. Callers must
// not use buf after calling Put.
func (p *Pool) PutScratch(buf []byte) { p.scratch.put(buf) }

// GetTunnel returns a buffer of TunnelSize bytes for use as an io.CopyBuffer
// scratch area in the tunnel phase.
func (p *Pool) GetTunnel() []byte { return p.tunnel.get() }

// PutTunnel returns a tunnel buffer obtained from GetTunnel.
func (p *Pool) PutTunnel(buf []byte) { p.tunnel.put(buf) }

// Metrics reports cumulative Get calls and pool misses (allocations) for
// each size class, for use by a Prometheus collector or debug endpoint.
type Metrics struct {
	ScratchGets, ScratchMisses uint64
	TunnelGets, TunnelMisses   uint64
}

func (p *Pool) Metrics() Metrics {
	sg, sm := p.scratch.metrics()
	tg, tm := p.tunnel.metrics()
	return Metrics{ScratchGets: sg, ScratchMisses: sm, TunnelGets: tg, TunnelMisses: tm}
}
