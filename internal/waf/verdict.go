package waf

// Verdict is the result of inspecting a request. Exactly one of Allow or a
// reason is meaningful: Blocked reports whether the request was rejected,
// and Reason carries a short human-readable tag used both in logs and the
// 403 response body.
type Verdict struct {
	Blocked bool
	Reason  string
}

// Allow is the zero-value, non-blocking verdict.
var Allow = Verdict{}

// Block constructs a blocking verdict carrying reason.
func Block(reason string) Verdict {
	return Verdict{Blocked: true, Reason: reason}
}
