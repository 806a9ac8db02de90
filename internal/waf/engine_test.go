package waf

import (
	"testing"

	"github.com/kouyxi/oblivion/internal/httpmsg"
)

func mustParse(t *testing.T, raw string) *httpmsg.Request {
	t.Helper()
	req, err := httpmsg.Parse([]byte(raw))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	return req
}

func TestInspectSQLiInPath(t *testing.T) {
	req := mustParse(t, "GET /login?user=admin'--+ HTTP/1.1\r\nHost: x\r\n\r\n")

	v := New().Inspect(req)
	if !v.Blocked {
		t.Fatal("expected block")
	}
	if v.Reason != "SQL Injection: '--'" {
		t.Errorf("reason = %q", v.Reason)
	}
}

func TestInspectDoubleEncodedTraversal(t *testing.T) {
	req := mustParse(t, "GET /%252e%252e%252fetc/passwd HTTP/1.1\r\nHost: x\r\n\r\n")

	v := New().Inspect(req)
	if !v.Blocked {
		t.Fatal("expected block")
	}
	// Two rounds of percent-decoding turn the path into "/../etc/passwd".
	// The traversal list is evaluated in declared order and "../" comes
	// before "/etc/passwd", so it is the first (and thus reported) match.
	if v.Reason != "Path Traversal: '../'" {
		t.Errorf("reason = %q", v.Reason)
	}
}

func TestInspectMissingHost(t *testing.T) {
	req := mustParse(t, "GET / HTTP/1.1\r\n\r\n")

	v := New().Inspect(req)
	if !v.Blocked || v.Reason != "Protocol Anomaly: Missing Host Header" {
		t.Errorf("verdict = %+v", v)
	}
}

func TestInspectDisallowedMethod(t *testing.T) {
	req := mustParse(t, "TRACE / HTTP/1.1\r\nHost: x\r\n\r\n")

	v := New().Inspect(req)
	if !v.Blocked || v.Reason != "Method Not Allowed: TRACE" {
		t.Errorf("verdict = %+v", v)
	}
}

func TestInspectSmuggling(t *testing.T) {
	req := mustParse(t, "POST / HTTP/1.1\r\nHost: x\r\nContent-Length: 0\r\nTransfer-Encoding: chunked\r\n\r\n")

	v := New().Inspect(req)
	if !v.Blocked || v.Reason != "Smuggling Attempt: CL and TE headers present" {
		t.Errorf("verdict = %+v", v)
	}
}

func TestInspectAllowsBenignRequest(t *testing.T) {
	req := mustParse(t, "GET /index.html HTTP/1.1\r\nHost: localhost\r\n\r\n")

	v := New().Inspect(req)
	if v.Blocked {
		t.Errorf("expected allow, got block: %+v", v)
	}
}

func TestInspectNullByteInPath(t *testing.T) {
	req := mustParse(t, "GET /a%00b HTTP/1.1\r\nHost: x\r\n\r\n")

	v := New().Inspect(req)
	if !v.Blocked || v.Reason != "Null Byte Injection Detected" {
		t.Errorf("verdict = %+v", v)
	}
}

func TestInspectCRLFInjectionInPath(t *testing.T) {
	req := mustParse(t, "GET /a%0d%0aSet-Cookie:x HTTP/1.1\r\nHost: x\r\n\r\n")

	v := New().Inspect(req)
	if !v.Blocked || v.Reason != "CRLF Injection Detected" {
		t.Errorf("verdict = %+v", v)
	}
}

func TestInspectPurity(t *testing.T) {
	req := mustParse(t, "GET /?q=or+1=1 HTTP/1.1\r\nHost: x\r\n\r\n")
	e := New()

	first := e.Inspect(req)
	second := e.Inspect(req)
	if first != second {
		t.Errorf("inspect is not pure: %+v != %+v", first, second)
	}
}

func TestNormalizeIsIdempotent(t *testing.T) {
	cases := []string{"/../etc/passwd", "select+*+from+users", "/a/b/c", ""}
	for _, c := range cases {
		once, _ := normalize(c)
		twice, _ := normalize(once)
		if once != twice {
			t.Errorf("normalize(%q) not idempotent: %q vs %q", c, once, twice)
		}
	}
}
