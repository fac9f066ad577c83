// Package sanitize cleans text that crosses the process boundary: terminal
// escape sequences from tool output, filesystem details from error messages,
// and unsafe characters from artifact filenames.
package sanitize

import (
	"regexp"
	"strings"
)

var (
	ansiPattern = regexp.MustCompile(`\x1b\[[0-9;]*[A-Za-z]`)

	// Diagnostic fragments that would leak the server's filesystem layout.
	redactPatterns = []*regexp.Regexp{
		regexp.MustCompile(`File (.*?) already exists`),
		regexp.MustCompile(`path: (.*?)$`),
		regexp.MustCompile(`Unable to open file: (.*?):`),
	}

	unsafeChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)
	underscores = regexp.MustCompile(`_+`)
)

// StripANSI removes terminal escape sequences from a string.
func StripANSI(s string) string {
	return ansiPattern.ReplaceAllString(s, "")
}

// ErrorMessage prepares an error string for clients: escape sequences are
// stripped and diagnostics that reveal server paths are redacted.
func ErrorMessage(s string) string {
	s = StripANSI(s)
	for _, p := range redactPatterns {
		s = p.ReplaceAllString(s, "[redacted]")
	}
	return strings.TrimSpace(s)
}

// Filename reduces a title to a safe filename component: only ASCII word
// characters, dots and dashes survive, runs of anything else collapse to a
// single underscore, and the result is capped at maxLen bytes. An empty
// result falls back to "video".
func Filename(title string, maxLen int) string {
	name := unsafeChars.ReplaceAllString(strings.TrimSpace(title), "_")
	name = underscores.ReplaceAllString(name, "_")
	name = strings.Trim(name, "._-")
	if maxLen > 0 && len(name) > maxLen {
		name = name[:maxLen]
		name = strings.Trim(name, "._-")
	}
	if name == "" {
		return "video"
	}
	return name
}
