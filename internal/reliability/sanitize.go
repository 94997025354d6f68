package reliability

import "regexp"

// sanitisePatterns recognises secret shapes that must never cross a
// trust boundary: OpenAI-style API keys, and database/cache connection
// URIs carrying embedded credentials (spec §4.E Secret sanitiser).
var sanitisePatterns = []*regexp.Regexp{
	regexp.MustCompile(`sk-[A-Za-z0-9_-]{10,}`),
	regexp.MustCompile(`postgres(?:ql)?://[^\s@]+@[^\s]+`),
	regexp.MustCompile(`redis://[^\s@]+@[^\s]+`),
	regexp.MustCompile(`rediss://[^\s@]+@[^\s]+`),
}

const redacted = "[redacted]"

// Sanitize replaces any recognised secret shape in s with "[redacted]".
// Idempotent: sanitising already-sanitised text is a no-op.
func Sanitize(s string) string {
	out := s
	for _, re := range sanitisePatterns {
		out = re.ReplaceAllString(out, redacted)
	}
	return out
}
