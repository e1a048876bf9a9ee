// Package text provides text cleanup applied between extraction and chunking.
package text

import "strings"

// Normalize cleans extracted document text so the chunker sees a stable form:
// runs of interior spaces and tabs collapse to a single space, every line is
// trimmed, runs of blank lines collapse to one, and the result is trimmed as a
// whole. Normalize is pure and total; it never fails.
func Normalize(s string) string {
	if s == "" {
		return ""
	}

	lines := strings.Split(s, "\n")
	out := make([]string, 0, len(lines))
	blank := false

	for _, line := range lines {
		line = strings.TrimSpace(collapseSpaces(line))
		if line == "" {
			// Keep at most one blank line to preserve paragraph boundaries.
			if !blank && len(out) > 0 {
				out = append(out, "")
				blank = true
			}
			continue
		}
		out = append(out, line)
		blank = false
	}

	return strings.TrimSpace(strings.Join(out, "\n"))
}

// collapseSpaces replaces runs of spaces and tabs with a single space.
func collapseSpaces(line string) string {
	var b strings.Builder
	b.Grow(len(line))
	space := false
	for _, r := range line {
		if r == ' ' || r == '\t' || r == '\u00a0' {
			space = true
			continue
		}
		if space && b.Len() > 0 {
			b.WriteByte(' ')
		}
		space = false
		b.WriteRune(r)
	}
	return b.String()
}
