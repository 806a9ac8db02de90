package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func TestConnLoggerStampsTraceIDAndPeer(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, Debug)
	c := l.Conn("10.0.0.1:5555")
	c.Info("tunnel_opened")

	var entry Entry
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("invalid JSON: %v, raw: %s", err, buf.String())
	}
	if entry.TraceID != c.TraceID() {
		t.Errorf("trace id = %q, want %q", entry.TraceID, c.TraceID())
	}
	if entry.Peer != "10.0.0.1:5555" {
		t.Errorf("peer = %q", entry.Peer)
	}
	if entry.Level != "info" {
		t.Errorf("level = %q", entry.Level)
	}
}

func TestMinLevelFiltersLowerSeverity(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, Warn)
	c := l.Conn("x")
	c.Debugf("should be dropped")
	c.Info("should also be dropped")

	if buf.Len() != 0 {
		t.Fatalf("expected no output below min level, got: %s", buf.String())
	}

	c.Warn("blocked", "SQL Injection: '--'")
	if !strings.Contains(buf.String(), "blocked") {
		t.Fatalf("expected warn entry to be written, got: %s", buf.String())
	}
}

func TestErrorIncludesErrString(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, Debug)
	c := l.Conn("x")
	c.Error("upstream_dial_failed", errors.New("connection refused"))

	var entry Entry
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if entry.Error != "connection refused" {
		t.Errorf("error = %q", entry.Error)
	}
}

func TestEachConnGetsDistinctTraceID(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, Debug)
	a := l.Conn("a")
	b := l.Conn("b")
	if a.TraceID() == b.TraceID() {
		t.Fatal("expected distinct trace ids per connection")
	}
}
