// Package waf implements the signature-based inspection engine: a pure,
// side-effect-free function of a parsed request that returns a deterministic
// Allow/Block verdict. It is a naive substring matcher by design — its value
// is auditable, static rules plus a normalization pass that defeats common
// encoding-based evasion, not a semantic understanding of SQL or HTML.
package waf

import (
	"errors"
	"fmt"
	"strings"

	"github.com/kouyxi/oblivion/internal/httpmsg"
)

var errInvalidUTF8 = errors.New("waf: decoded bytes are not valid UTF-8")

// Engine holds the compiled-in signature lists. It has no mutable state
// after construction, so a single Engine is safe to call Inspect on from any
// number of goroutines concurrently.
type Engine struct{}

// New constructs an Engine with the built-in signature lists.
func New() *Engine {
	return &Engine{}
}

// Inspect applies the evaluation order specified for the WAF: method
// allowlist, request-smuggling signal, missing-Host check, path/body
// normalization (which can itself trigger a null-byte block), CRLF
// injection in the path, then SQLi, XSS, and path-traversal signature lists
// in that declared order. The first match wins. Falling through all checks
// yields Allow.
func (e *Engine) Inspect(req *httpmsg.Request) Verdict {
	if !allowedMethods[req.Method] {
		return Block(fmt.Sprintf("Method Not Allowed: %s", req.Method))
	}

	if req.HasHeader("Content-Length") && req.HasHeader("Transfer-Encoding") {
		return Block("Smuggling Attempt: CL and TE headers present")
	}

	if !req.HasHeader("Host") {
		return Block("Protocol Anomaly: Missing Host Header")
	}

	cleanPath, nullInPath := normalize(req.Path)
	cleanBody, nullInBody := normalize(req.Body)
	if nullInPath || nullInBody {
		return Block("Null Byte Injection Detected")
	}

	if strings.ContainsAny(cleanPath, "\r\n") {
		return Block("CRLF Injection Detected")
	}

	payload := cleanPath + " " + cleanBody

	for _, sig := range sqliSignatures {
		if strings.Contains(payload, sig) {
			return Block(fmt.Sprintf("SQL Injection: '%s'", sig))
		}
	}
	for _, sig := range xssSignatures {
		if strings.Contains(payload, sig) {
			return Block(fmt.Sprintf("XSS: '%s'", sig))
		}
	}
	for _, sig := range traversalSignatures {
		if strings.Contains(payload, sig) {
			return Block(fmt.Sprintf("Path Traversal: '%s'", sig))
		}
	}

	return Allow
}
