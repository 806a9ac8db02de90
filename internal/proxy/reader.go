package proxy

import (
	"bytes"
	"errors"
	"net"
	"time"
)

// errHeaderTooLarge signals that the accumulator exceeded MaxHeaderSize
// before the header delimiter was found.
var errHeaderTooLarge = errors.New("proxy: header accumulator exceeded max size")

// readHeaders accumulates bytes from conn until it has seen the exact
// delimiter "\r\n\r\n" or a terminal condition is hit. The returned slice
// includes everything accumulated, including any body bytes that followed
// the delimiter inside the same reads — the pipeline forwards this whole
// slice to upstream verbatim, never re-serializing it.
//
// The timeout is a single deadline set once before the first read rather
// than refreshed per read: the spec allows either interpretation ("simpler
// implementation: per-read timeout is acceptable but less strict") but a
// single total deadline is the stricter, more defensible Slowloris defence,
// so that is what this pipeline implements.
func readHeaders(conn net.Conn, scratch []byte, timeout time.Duration, maxSize int) (accumulator []byte, headerLen int, err error) {
	if err := conn.SetReadDeadline(time.Now().Add(timeout)); err != nil {
		return nil, 0, err
	}

	for {
		n, readErr := conn.Read(scratch)
		if n > 0 {
			accumulator = append(accumulator, scratch[:n]...)

			if len(accumulator) > maxSize {
				return accumulator, 0, errHeaderTooLarge
			}

			if idx := bytes.Index(accumulator, []byte("\r\n\r\n")); idx >= 0 {
				return accumulator, idx + 4, nil
			}
		}

		if readErr != nil {
			return accumulator, 0, readErr
		}
	}
}
