// Package transcript merges streaming ASR hypotheses into one utterance.
package transcript

import "strings"

// Assemble joins committed segments with single spaces.
func Assemble(segments []string) string {
	if len(segments) == 0 {
		return ""
	}
	return Clean(strings.Join(segments, " "))
}

// Clean collapses all whitespace runs to single spaces and trims the ends.
func Clean(raw string) string {
	return strings.Join(strings.Fields(raw), " ")
}
