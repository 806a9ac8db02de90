package httpmsg

import "testing"

func BenchmarkParseSimpleGet(b *testing.B) {
	raw := []byte("GET /index.html HTTP/1.1\r\nHost: example.com\r\nUser-Agent: bench\r\n\r\n")
	for i := 0; i < b.N; i++ {
		Parse(raw)
	}
}

func BenchmarkParseManyHeaders(b *testing.B) {
	raw := []byte("POST /submit HTTP/1.1\r\n" +
		"Host: example.com\r\nContent-Type: application/json\r\nContent-Length: 13\r\n" +
		"X-Request-Id: abc123\r\nAccept: */*\r\nUser-Agent: bench\r\n\r\n{\"ok\":true}")
	for i := 0; i < b.N; i++ {
		Parse(raw)
	}
}
