package server

import (
	"regexp"
)

// SanitizeLogLines performs minimal redaction on log lines before they
// are exposed through the diagnostics resource. Gateway tokens, OAuth
// credentials and provider API keys must never leak into a transcript.
var credentialPatterns = []struct {
	regex       *regexp.Regexp
	replacement string
}{
	{regex: regexp.MustCompile(`(?i)api_key=[^\s]+`), replacement: "api_key=[redacted]"},
	{regex: regexp.MustCompile(`(?i)secret=[^\s]+`), replacement: "secret=[redacted]"},
	{regex: regexp.MustCompile(`(?i)token=[^\s]+`), replacement: "token=[redacted]"},
	{regex: regexp.MustCompile(`(?i)access_key=[^\s]+`), replacement: "access_key=[redacted]"},
	{regex: regexp.MustCompile(`(?i)refresh_token=[^\s]+`), replacement: "refresh_token=[redacted]"},
	{regex: regexp.MustCompile(`(?i)authorization:\s*bearer\s+[a-z0-9\-._~+/=]+`), replacement: "authorization: Bearer [redacted]"},
	{regex: regexp.MustCompile(`(?i)https?://[^:@\s]+:[^@\s]+@`), replacement: "http://[redacted]:[redacted]@"},
	{regex: regexp.MustCompile(`(?i)email=\S+`), replacement: "email=[redacted]"},
	{regex: regexp.MustCompile(`(?i)(client\s+id|client\s+secret)[:=]\s*[^\s]+`), replacement: "$1=[redacted]"},
	{regex: regexp.MustCompile(`(?i)(password|secret|token)\s*"[^"]+"`), replacement: "$1\"[redacted]\""},
	{regex: regexp.MustCompile(`(?i)(password|secret|token)\s*'[^']+'`), replacement: "$1'[redacted]'"},
}

func SanitizeLogLines(lines []string) []string {
	if len(lines) == 0 {
		return lines
	}
	out := make([]string, len(lines))
	for i, l := range lines {
		for _, pattern := range credentialPatterns {
			l = pattern.regex.ReplaceAllString(l, pattern.replacement)
		}
		out[i] = l
	}
	return out
}
