package chunker

import (
	"strings"
	"testing"
)

func TestSplitShortTextSingleSpan(t *testing.T) {
	s := New()
	spans := s.Split("A short contract.")
	if len(spans) != 1 {
		t.Fatalf("got %d spans, want 1", len(spans))
	}
	if spans[0].Start != 0 || spans[0].End != len([]rune("A short contract.")) {
		t.Fatalf("span bounds: %+v", spans[0])
	}
	if spans[0].Seq != 0 {
		t.Fatalf("seq = %d", spans[0].Seq)
	}
}

func TestSplitEmptyAndWhitespace(t *testing.T) {
	s := New()
	if spans := s.Split(""); spans != nil {
		t.Fatalf("empty text: %v", spans)
	}
	if spans := s.Split("   \n\t  "); spans != nil {
		t.Fatalf("whitespace text: %v", spans)
	}
}

func TestSplitStrideWithoutBoundaries(t *testing.T) {
	// 4500 runes with no sentence boundaries: stride 800 gives starts at
	// 0, 800, 1600, 2400, 3200, 4000.
	text := strings.Repeat("a", 4500)
	s := New(WithSize(1000), WithOverlap(200), WithBoundaryTolerance(0))
	spans := s.Split(text)
	if len(spans) != 6 {
		t.Fatalf("got %d spans, want 6", len(spans))
	}
	for i, sp := range spans {
		if sp.Seq != i {
			t.Fatalf("seq not dense: %+v", sp)
		}
	}
	if spans[5].Start != 4000 || spans[5].End != 4500 {
		t.Fatalf("last span: %+v", spans[5])
	}
}

func TestSplitCoverageAndOverlap(t *testing.T) {
	text := strings.Repeat("lorem ipsum dolor sit amet. ", 300)
	s := New()
	spans := s.Split(text)
	if len(spans) < 2 {
		t.Fatalf("expected multiple spans, got %d", len(spans))
	}

	if spans[0].Start != 0 {
		t.Fatalf("first span starts at %d", spans[0].Start)
	}
	n := len([]rune(text))
	if spans[len(spans)-1].End != n {
		t.Fatalf("last span ends at %d, want %d", spans[len(spans)-1].End, n)
	}
	for i := 1; i < len(spans); i++ {
		prev, cur := spans[i-1], spans[i]
		if cur.Start >= prev.End {
			t.Fatalf("gap between span %d and %d: %d >= %d", i-1, i, cur.Start, prev.End)
		}
		if cur.Start <= prev.Start {
			t.Fatalf("spans must advance: %d then %d", prev.Start, cur.Start)
		}
	}
}

func TestSplitPrefersSentenceBoundary(t *testing.T) {
	// One sentence ends inside the tolerance window before the target cut.
	sentence := strings.Repeat("b", 950) + ". "
	text := sentence + strings.Repeat("c", 2000)
	s := New(WithSize(1000), WithOverlap(200), WithBoundaryTolerance(120))
	spans := s.Split(text)
	if spans[0].End != 951 {
		t.Fatalf("first span end = %d, want 951 (after the period)", spans[0].End)
	}
	if !strings.HasSuffix(spans[0].Text, ".") {
		t.Fatalf("first span should end with the sentence: %q", spans[0].Text[len(spans[0].Text)-10:])
	}
}

func TestSplitSnapsToParagraphBreak(t *testing.T) {
	text := strings.Repeat("d", 980) + "\n" + strings.Repeat("e", 2000)
	s := New(WithSize(1000), WithOverlap(200), WithBoundaryTolerance(120))
	spans := s.Split(text)
	if spans[0].End != 981 {
		t.Fatalf("first span end = %d, want 981 (after the newline)", spans[0].End)
	}
}

func TestSplitTextOffsetsMatchSource(t *testing.T) {
	text := strings.Repeat("word aqui. ", 500) // multi-chunk, includes non-ascii potential
	s := New()
	runes := []rune(text)
	for _, sp := range s.Split(text) {
		if sp.Text != string(runes[sp.Start:sp.End]) {
			t.Fatalf("span %d text does not match offsets", sp.Seq)
		}
	}
}

func TestSplitRuneSafety(t *testing.T) {
	// Multi-byte runes must not be split mid-character.
	text := strings.Repeat("cláusula rescisão é ônus. ", 200)
	s := New(WithSize(100), WithOverlap(20))
	runes := []rune(text)
	for _, sp := range s.Split(text) {
		if sp.End > len(runes) || sp.Start < 0 {
			t.Fatalf("span out of range: %+v", sp)
		}
		if sp.Text != string(runes[sp.Start:sp.End]) {
			t.Fatalf("span %d not aligned to runes", sp.Seq)
		}
	}
}

func TestOverlapClampedWhenInvalid(t *testing.T) {
	s := New(WithSize(100), WithOverlap(100))
	spans := s.Split(strings.Repeat("x", 500))
	if len(spans) < 2 {
		t.Fatalf("expected progress with clamped overlap, got %d spans", len(spans))
	}
	for i := 1; i < len(spans); i++ {
		if spans[i].Start <= spans[i-1].Start {
			t.Fatalf("no forward progress at span %d", i)
		}
	}
}
