package extractor

import (
	"strings"
	"unicode/utf8"
)

// normalizeText canonicalizes extracted text: valid UTF-8, no carriage
// returns or non-breaking spaces, runs of blank lines collapsed to one
// paragraph break, trailing space stripped per line.
func normalizeText(s string) string {
	s = sanitizeUTF8(s)
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	s = strings.ReplaceAll(s, " ", " ")

	lines := strings.Split(s, "\n")
	out := make([]string, 0, len(lines))
	blank := 0
	for _, line := range lines {
		line = strings.TrimRight(line, " \t")
		line = collapseSpaces(line)
		if line == "" {
			blank++
			if blank > 1 {
				continue
			}
		} else {
			blank = 0
		}
		out = append(out, line)
	}
	return strings.TrimSpace(strings.Join(out, "\n"))
}

func collapseSpaces(line string) string {
	if !strings.Contains(line, "  ") && !strings.Contains(line, "\t") {
		return line
	}
	return strings.Join(strings.Fields(line), " ")
}

func sanitizeUTF8(s string) string {
	if utf8.ValidString(s) {
		return s
	}
	return strings.ToValidUTF8(s, "�")
}
