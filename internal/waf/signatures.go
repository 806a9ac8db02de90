package waf

// Signature lists are static and deterministic — no learning, no scoring.
// Order matters: it is the order in which each category's entries are
// checked, and the first match determines the reason string.

var allowedMethods = map[string]bool{
	"GET":  true,
	"POST": true,
	"HEAD": true,
}

var sqliSignatures = []string{
	"drop table",
	"or 1=1",
	"union select",
	"--",
	"sleep(",
	"pg_sleep",
	"waitfor delay",
	"select * from",
}

var xssSignatures = []string{
	"<script>",
	"javascript:",
	"onerror=",
	"onload=",
	"alert(",
	"document.cookie",
	"vbscript:",
}

var traversalSignatures = []string{
	"../",
	"..\\",
	"/etc/passwd",
	"c:\\windows",
	"%2e%2e%2f",
	".env",
	"config.php",
}
