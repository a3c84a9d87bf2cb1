// Package chunker splits normalized document text into overlapping
// spans for embedding. Offsets are rune-based so citations survive
// multi-byte characters.
package chunker

// DefaultSize is the target number of runes per chunk.
const DefaultSize = 1000

// DefaultOverlap is the number of runes shared between neighbors.
const DefaultOverlap = 200

// DefaultBoundaryTolerance is how far back from the target cut a chunk
// may end to land on a sentence or paragraph boundary.
const DefaultBoundaryTolerance = 120

// Span is one chunk of the source text. Start is inclusive, End
// exclusive, both rune offsets into the original text. Seq is dense
// from zero in document order.
type Span struct {
	Seq   int
	Start int
	End   int
	Text  string
}

type Splitter struct {
	size      int
	overlap   int
	tolerance int
}

type Option func(*Splitter)

func WithSize(size int) Option {
	return func(s *Splitter) {
		if size > 0 {
			s.size = size
		}
	}
}

func WithOverlap(overlap int) Option {
	return func(s *Splitter) {
		if overlap >= 0 {
			s.overlap = overlap
		}
	}
}

func WithBoundaryTolerance(tolerance int) Option {
	return func(s *Splitter) {
		if tolerance >= 0 {
			s.tolerance = tolerance
		}
	}
}

func New(opts ...Option) *Splitter {
	s := &Splitter{
		size:      DefaultSize,
		overlap:   DefaultOverlap,
		tolerance: DefaultBoundaryTolerance,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.overlap >= s.size {
		s.overlap = s.size / 4
	}
	if s.tolerance >= s.size-s.overlap {
		s.tolerance = (s.size - s.overlap) / 2
	}
	return s
}

// Split covers the whole text: every rune belongs to at least one span,
// consecutive spans overlap, and a text of at most size runes yields
// exactly one span. Empty or whitespace-only text yields none.
func (s *Splitter) Split(text string) []Span {
	runes := []rune(text)
	n := len(runes)
	if !hasContent(runes) {
		return nil
	}
	if n <= s.size {
		return []Span{{Seq: 0, Start: 0, End: n, Text: text}}
	}

	stride := s.size - s.overlap
	spans := make([]Span, 0, n/stride+1)

	start := 0
	for start < n {
		end := start + s.size
		if end >= n {
			end = n
		} else if cut := s.snapToBoundary(runes, end); cut > start {
			end = cut
		}

		spans = append(spans, Span{
			Seq:   len(spans),
			Start: start,
			End:   end,
			Text:  string(runes[start:end]),
		})
		if end == n {
			break
		}

		next := end - s.overlap
		if next <= start {
			next = start + 1
		}
		start = next
	}
	return spans
}

// snapToBoundary walks back at most tolerance runes from the target cut
// looking for the end of a sentence or a paragraph break. Returns the
// adjusted cut, or the target when no boundary is close enough.
func (s *Splitter) snapToBoundary(runes []rune, target int) int {
	limit := target - s.tolerance
	if limit < 0 {
		limit = 0
	}
	for i := target - 1; i >= limit; i-- {
		switch runes[i] {
		case '\n':
			return i + 1
		case '.', '!', '?':
			// Sentence end only when followed by whitespace.
			if i+1 < len(runes) && (runes[i+1] == ' ' || runes[i+1] == '\n') {
				return i + 1
			}
		}
	}
	return target
}

func hasContent(runes []rune) bool {
	for _, r := range runes {
		switch r {
		case ' ', '\t', '\n', '\r':
		default:
			return true
		}
	}
	return false
}
