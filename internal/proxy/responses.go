package proxy

import (
	"fmt"
	"net"
)

// The canned responses C4 emits itself, never forwarded from upstream. Each
// is a best-effort write: the connection is going to DONE regardless of
// whether the client is still there to read it.

func writeBadRequest(conn net.Conn) {
	_, _ = conn.Write([]byte("HTTP/1.1 400 Bad Request\r\n\r\nInvalid HTTP"))
}

func writeBlocked(conn net.Conn, reason string) {
	body := "BLOCK: " + reason
	resp := fmt.Sprintf("HTTP/1.1 403 Forbidden\r\nContent-Length: %d\r\n\r\n%s", len(body), body)
	_, _ = conn.Write([]byte(resp))
}

func writeRateLimited(conn net.Conn) {
	_, _ = conn.Write([]byte("HTTP/1.1 429 Too Many Requests\r\nRetry-After: 1\r\n\r\nRate Limit Exceeded"))
}

func writeUpstreamError(conn net.Conn) {
	_, _ = conn.Write([]byte("HTTP/1.1 502 Bad Gateway\r\n\r\nUpstream Error"))
}

func writeUpstreamTimeout(conn net.Conn) {
	_, _ = conn.Write([]byte("HTTP/1.1 504 Gateway Timeout\r\n\r\nUpstream Timeout"))
}
