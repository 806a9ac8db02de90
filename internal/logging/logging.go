// Package logging provides the structured JSON event logger used across the
// connection pipeline. Adapted from the teacher's request logger middleware:
// same JSON-encoder-per-entry approach and io.Writer output, generalized from
// one entry shape per HTTP request to one entry shape per pipeline/lifecycle
// event, with a level and a per-connection trace id instead of method/path/
// status/duration fields.
package logging

import (
	"encoding/json"
	"io"
	"log"
	"os"
	"time"

	"github.com/google/uuid"
)

// Level orders log severity, matching the four dispositions the pipeline
// distinguishes: a successful tunnel is info, a blocked or rejected request
// is warn, an upstream failure is error, and tunnel-phase transport errors
// (which cannot be surfaced to the client) are debug.
type Level int

const (
	Debug Level = iota
	Info
	Warn
	Error
)

func (l Level) String() string {
	switch l {
	case Debug:
		return "debug"
	case Info:
		return "info"
	case Warn:
		return "warn"
	case Error:
		return "error"
	default:
		return "unknown"
	}
}

// Entry is one structured log line.
type Entry struct {
	Time    string `json:"time"`
	Level   string `json:"level"`
	TraceID string `json:"trace_id,omitempty"`
	Event   string `json:"event"`
	Peer    string `json:"peer,omitempty"`
	Reason  string `json:"reason,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Logger writes newline-delimited JSON Entry values to an underlying writer.
// A Logger has no mutable state beyond its output and minimum level, so one
// Logger is shared by every connection goroutine.
type Logger struct {
	out io.Writer
	min Level
}

// New constructs a Logger writing to w. Entries below min are dropped before
// encoding, avoiding the cost of formatting debug-level tunnel noise in
// production.
func New(w io.Writer, min Level) *Logger {
	if w == nil {
		w = os.Stdout
	}
	return &Logger{out: w, min: min}
}

// Default returns a Logger writing to stdout at Info level, the proxy's
// out-of-the-box configuration.
func Default() *Logger {
	return New(os.Stdout, Info)
}

// Conn returns a connection-scoped logger that stamps every entry with a
// fresh trace id and the peer address, so every log line for one connection
// can be correlated without passing those two fields at every call site.
func (l *Logger) Conn(peer string) *ConnLogger {
	return &ConnLogger{l: l, traceID: uuid.NewString(), peer: peer}
}

func (l *Logger) log(level Level, traceID, peer, event, reason string, err error) {
	if level < l.min {
		return
	}
	entry := Entry{
		Time:    time.Now().UTC().Format(time.RFC3339Nano),
		Level:   level.String(),
		TraceID: traceID,
		Event:   event,
		Peer:    peer,
		Reason:  reason,
	}
	if err != nil {
		entry.Error = err.Error()
	}
	enc := json.NewEncoder(l.out)
	if encErr := enc.Encode(entry); encErr != nil {
		log.Printf("logging: failed to write entry: %v", encErr)
	}
}

// ConnLogger logs lifecycle events for a single connection, carrying its
// trace id and peer address across every call.
type ConnLogger struct {
	l       *Logger
	traceID string
	peer    string
}

// TraceID returns the id assigned to this connection, for propagation into
// upstream headers or out-of-band correlation if ever needed.
func (c *ConnLogger) TraceID() string { return c.traceID }

func (c *ConnLogger) Debugf(event string) { c.l.log(Debug, c.traceID, c.peer, event, "", nil) }
func (c *ConnLogger) Info(event string)   { c.l.log(Info, c.traceID, c.peer, event, "", nil) }
func (c *ConnLogger) Warn(event, reason string) { c.l.log(Warn, c.traceID, c.peer, event, reason, nil) }
func (c *ConnLogger) Error(event string, err error) { c.l.log(Error, c.traceID, c.peer, event, "", err) }
func (c *ConnLogger) DebugErr(event string, err error) { c.l.log(Debug, c.traceID, c.peer, event, "", err) }
