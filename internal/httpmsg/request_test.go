package httpmsg

import "testing"

func TestParseBasicGet(t *testing.T) {
	raw := []byte("GET /login?user=admin HTTP/1.1\r\nHost: example.com\r\nUser-Agent: curl\r\n\r\n")

	req, err := Parse(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if req.Method != "GET" {
		t.Errorf("Method = %q, want GET", req.Method)
	}
	if req.Path != "/login?user=admin" {
		t.Errorf("Path = %q", req.Path)
	}
	if req.Version != "HTTP/1.1" {
		t.Errorf("Version = %q", req.Version)
	}
	if v, ok := req.Header("Host"); !ok || v != "example.com" {
		t.Errorf("Host header = %q, %v", v, ok)
	}
	if req.Body != "" {
		t.Errorf("Body = %q, want empty", req.Body)
	}
}

func TestParseCaseInsensitiveHeaderLookup(t *testing.T) {
	raw := []byte("POST / HTTP/1.1\r\nhOsT: a\r\nContent-Length: 0\r\nTransfer-Encoding: chunked\r\n\r\nbody-bytes")

	req, err := Parse(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !req.HasHeader("host") || !req.HasHeader("HOST") {
		t.Errorf("expected case-insensitive Host lookup to succeed")
	}
	if !req.HasHeader("content-length") || !req.HasHeader("transfer-encoding") {
		t.Errorf("expected smuggling-relevant headers present")
	}
	if req.Body != "body-bytes" {
		t.Errorf("Body = %q", req.Body)
	}
}

func TestParseDuplicateHeaderLastWins(t *testing.T) {
	raw := []byte("GET / HTTP/1.1\r\nHost: first\r\nHost: second\r\n\r\n")

	req, err := Parse(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v, _ := req.Header("Host"); v != "second" {
		t.Errorf("Host = %q, want last-wins value %q", v, "second")
	}
}

func TestParseMalformedRequestLine(t *testing.T) {
	raw := []byte("GET /\r\n\r\n")

	_, err := Parse(raw)
	if err == nil {
		t.Fatal("expected error for malformed request line")
	}
	pe, ok := err.(*ParseError)
	if !ok || pe.Kind != ErrMalformedRequestLine {
		t.Errorf("got error %v, want ErrMalformedRequestLine", err)
	}
}

func TestParseEmpty(t *testing.T) {
	_, err := Parse([]byte{})
	if err == nil {
		t.Fatal("expected error for empty input")
	}
	pe, ok := err.(*ParseError)
	if !ok || pe.Kind != ErrEmpty {
		t.Errorf("got error %v, want ErrEmpty", err)
	}
}

func TestParseInvalidUTF8DoesNotFail(t *testing.T) {
	raw := []byte("GET /\xff\xfe HTTP/1.1\r\nHost: x\r\n\r\n")

	req, err := Parse(raw)
	if err != nil {
		t.Fatalf("parser must not fail on invalid UTF-8: %v", err)
	}
	if req.Method != "GET" {
		t.Errorf("Method = %q", req.Method)
	}
}

func TestParseNoDelimiterBodyEmpty(t *testing.T) {
	raw := []byte("GET / HTTP/1.1\r\nHost: x")

	req, err := Parse(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if req.Body != "" {
		t.Errorf("Body = %q, want empty when no delimiter present", req.Body)
	}
}
