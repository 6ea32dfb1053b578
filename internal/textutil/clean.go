// Package textutil holds the plain-text post-processing shared by the relay
// and the structured insight client.
package textutil

import (
	"regexp"
	"strings"
)

var blankRun = regexp.MustCompile(`\n{3,}`)

// Clean removes every asterisk and collapses runs of three or more newlines
// to exactly two. It is idempotent.
func Clean(text string) string {
	if text == "" {
		return ""
	}
	cleaned := strings.ReplaceAll(text, "*", "")
	return blankRun.ReplaceAllString(cleaned, "\n\n")
}

// Truncate returns at most n runes of text.
func Truncate(text string, n int) string {
	if n <= 0 {
		return ""
	}
	runes := []rune(text)
	if len(runes) <= n {
		return text
	}
	return string(runes[:n])
}
