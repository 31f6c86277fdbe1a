package textnorm

import (
	"strings"
	"testing"
)

func TestNormalizeNeverEmpty(t *testing.T) {
	inputs := []string{
		"",
		"   ",
		"日本語のテキスト",
		"&#1234;&nbsp;",
		"éèê", // decomposes to ASCII letters
		strings.Repeat("\U0001F600", 50),
		"ok",
	}
	for _, in := range inputs {
		if out := Normalize(in); out == "" {
			t.Fatalf("Normalize(%q) returned empty string", in)
		}
	}
}

func TestNormalizeEmptyPlaceholder(t *testing.T) {
	if got := Normalize(""); got != "Hello" {
		t.Fatalf("expected empty-input placeholder, got %q", got)
	}
}

func TestNormalizeTransliterates(t *testing.T) {
	if got := Normalize("café résumé"); got != "cafe resume" {
		t.Fatalf("expected NFKD transliteration, got %q", got)
	}
}

func TestNormalizeStripsEntities(t *testing.T) {
	got := Normalize("Open &#8211; late &amp; weekends")
	if got != "Open late weekends" {
		t.Fatalf("expected entities stripped, got %q", got)
	}
}

func TestNormalizeCollapsesWhitespace(t *testing.T) {
	got := Normalize("  hello\n\n  world\t! ")
	if got != "hello world !" {
		t.Fatalf("expected collapsed whitespace, got %q", got)
	}
}

func TestNormalizeShortResiduePlaceholder(t *testing.T) {
	// Everything printable gets dropped; the residue is too short to speak.
	got := Normalize("çあ")
	if got != "I apologize for the formatting issue." {
		t.Fatalf("expected formatting placeholder, got %q", got)
	}
}

func TestBoundUnderLimitUnchanged(t *testing.T) {
	text := strings.Repeat("Our clinic offers full service. ", 16) // ~500 chars
	text = strings.TrimSpace(text)
	if got := Bound(text, 2500); got != text {
		t.Fatalf("text under limit must pass through unchanged")
	}
}

func TestBoundNeverExceedsLimit(t *testing.T) {
	text := strings.TrimSpace(strings.Repeat("This sentence has some words in it. ", 100))
	for _, max := range []int{10, 50, 150, 2500} {
		if got := Bound(text, max); len(got) > max {
			t.Fatalf("Bound(max=%d) returned %d bytes", max, len(got))
		}
	}
}

func TestBoundIdempotent(t *testing.T) {
	text := strings.TrimSpace(strings.Repeat("A fairly ordinary sentence goes here. ", 40))
	once := Bound(text, 200)
	twice := Bound(once, 200)
	if once != twice {
		t.Fatalf("Bound not idempotent:\nonce:  %q\ntwice: %q", once, twice)
	}
}

func TestBoundHardTruncation(t *testing.T) {
	text := strings.Repeat("x", 300) // one giant sentence, nothing fits
	got := Bound(text, 100)
	if len(got) != 100 {
		t.Fatalf("expected hard truncation to 100 bytes, got %d", len(got))
	}
}

func TestSplitChunksReconstruct(t *testing.T) {
	text := Normalize("The office opens at nine. Appointments run hourly. Walk-ins are welcome on Saturday. Please bring your insurance card. We look forward to seeing you")

	chunks := SplitChunks(text, 60)
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}
	for i, c := range chunks {
		if strings.TrimSpace(c) == "" {
			t.Fatalf("chunk %d is blank", i)
		}
	}

	canon := func(s string) string {
		return strings.TrimRight(strings.Join(strings.Fields(s), " "), ". ")
	}
	joined := strings.Join(chunks, " ")
	if canon(joined) != canon(text) {
		t.Fatalf("chunks do not reconstruct source:\nwant: %q\ngot:  %q", canon(text), canon(joined))
	}
}

func TestSplitChunksRespectsSize(t *testing.T) {
	text := strings.TrimSpace(strings.Repeat("Short sentence here. ", 30))
	for i, c := range SplitChunks(text, 150) {
		if len(c) > 150 {
			t.Fatalf("chunk %d exceeds size: %d bytes", i, len(c))
		}
	}
}
