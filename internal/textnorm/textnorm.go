// Package textnorm prepares arbitrary reply text for speech synthesis.
package textnorm

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

const (
	// Placeholders returned instead of unusable input. The synthesizer
	// always gets something speakable.
	placeholderEmpty      = "Hello"
	placeholderFormatting = "I apologize for the formatting issue."
	placeholderInternal   = "There was a text processing error."

	minViableLength = 3
)

var (
	numericEntityRe = regexp.MustCompile(`&#\d+;`)
	namedEntityRe   = regexp.MustCompile(`&\w+;`)
	whitespaceRe    = regexp.MustCompile(`\s+`)
)

// Normalize sanitizes raw text into a 7-bit printable string safe for TTS.
// It never fails: unusable input yields a fixed placeholder.
func Normalize(raw string) (out string) {
	defer func() {
		if r := recover(); r != nil {
			out = placeholderInternal
		}
	}()

	if raw == "" {
		return placeholderEmpty
	}

	decomposed := norm.NFKD.String(raw)

	var b strings.Builder
	b.Grow(len(decomposed))
	for _, r := range decomposed {
		// Printable ASCII only; anything else is dropped, not substituted.
		// Lossy transliteration is intentional.
		if (r >= 0x20 && r < 0x7f) || r == '\t' || r == '\n' || r == '\r' {
			b.WriteRune(r)
		}
	}

	s := b.String()
	s = numericEntityRe.ReplaceAllString(s, "")
	s = namedEntityRe.ReplaceAllString(s, "")
	s = strings.TrimSpace(whitespaceRe.ReplaceAllString(s, " "))

	if len(s) < minViableLength {
		return placeholderFormatting
	}
	return s
}

// Bound returns text unchanged when it already fits in max bytes. Otherwise
// it accumulates whole sentences (". " boundaries) until the next one would
// not fit; when not even one sentence fits it hard-truncates. The result
// never exceeds max.
func Bound(text string, max int) string {
	if len(text) <= max {
		return text
	}

	var b strings.Builder
	for _, sentence := range strings.Split(text, ". ") {
		if b.Len()+len(sentence)+2 > max {
			break
		}
		b.WriteString(sentence)
		b.WriteString(". ")
	}

	out := strings.TrimSpace(b.String())
	if out == "" {
		return text[:max]
	}
	return out
}

// SplitChunks breaks text into sentence-aligned chunks of roughly size bytes
// for parallel synthesis. A single sentence longer than size still becomes
// one chunk; the synthesis provider limit is far above the chunk size.
func SplitChunks(text string, size int) []string {
	var chunks []string
	var cur strings.Builder

	flush := func() {
		if s := strings.TrimSpace(cur.String()); s != "" {
			chunks = append(chunks, s)
		}
		cur.Reset()
	}

	for _, sentence := range strings.Split(text, ". ") {
		if cur.Len()+len(sentence)+2 > size {
			flush()
		}
		cur.WriteString(sentence)
		cur.WriteString(". ")
	}
	flush()

	return chunks
}
