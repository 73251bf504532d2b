package transcript

import "strings"

// Builder accumulates final and interim hypotheses from one recognition
// stream. The zero value is ready to use; it is not safe for concurrent use.
type Builder struct {
	segments    []string
	lastInterim string
}

// Add records one hypothesis. Final results commit immediately; an interim
// result that diverges from the previous interim commits the previous one.
func (b *Builder) Add(text string, final bool) {
	text = Clean(text)
	if text == "" {
		return
	}
	if final {
		b.segments = appendSegment(b.segments, text)
		b.lastInterim = ""
		return
	}
	if b.lastInterim != "" && !isInterimContinuation(b.lastInterim, text) {
		b.segments = appendSegment(b.segments, b.lastInterim)
	}
	b.lastInterim = text
}

// Segments returns committed segments plus any trailing interim.
func (b *Builder) Segments() []string {
	segments := append([]string(nil), b.segments...)
	if b.lastInterim != "" {
		segments = appendSegment(segments, b.lastInterim)
	}
	return segments
}

// Text is Assemble(b.Segments()).
func (b *Builder) Text() string {
	return Assemble(b.Segments())
}

// appendSegment merges continuation segments to avoid duplicate transcript growth.
func appendSegment(segments []string, text string) []string {
	text = Clean(text)
	if text == "" {
		return segments
	}
	if len(segments) == 0 {
		return append(segments, text)
	}

	last := segments[len(segments)-1]
	switch {
	case text == last:
		return segments
	case strings.HasPrefix(text, last):
		segments[len(segments)-1] = text
		return segments
	case strings.HasPrefix(last, text):
		return segments
	default:
		return append(segments, text)
	}
}

// isInterimContinuation decides whether an interim update revises prior speech
// rather than starting a new phrase.
func isInterimContinuation(previous, current string) bool {
	if previous == "" || current == "" || previous == current {
		return true
	}
	if strings.HasPrefix(current, previous) || strings.HasPrefix(previous, current) {
		return true
	}

	prevWords := strings.Fields(previous)
	currWords := strings.Fields(current)
	shorter := min(len(prevWords), len(currWords))
	if shorter == 0 {
		return true
	}
	shared := max(commonPrefixWords(prevWords, currWords), commonSuffixWords(prevWords, currWords))
	return shared*2 > shorter
}

func commonPrefixWords(left, right []string) int {
	limit := min(len(left), len(right))
	count := 0
	for i := 0; i < limit; i++ {
		if left[i] != right[i] {
			break
		}
		count++
	}
	return count
}

func commonSuffixWords(left, right []string) int {
	limit := min(len(left), len(right))
	count := 0
	for i := 1; i <= limit; i++ {
		if left[len(left)-i] != right[len(right)-i] {
			break
		}
		count++
	}
	return count
}
