// Package format is the pure view-layer transform applied to message text:
// paragraph splitting and detection of embedded map links. It never mutates
// stored content and is safe to apply repeatedly.
package format

import (
	"regexp"
	"strings"
)

// mapLinkPattern matches the mapping-service URLs the booking backend embeds
// in replies (meeting points, tour routes).
var mapLinkPattern = regexp.MustCompile(`https?://(?:www\.)?(?:google\.com/maps|maps\.google\.com)/\S*`)

// Segment is a run of text within a paragraph. URL is non-empty when the run
// should render as a clickable link.
type Segment struct {
	Text string
	URL  string
}

// IsLink reports whether the segment renders as an anchor.
func (s Segment) IsLink() bool {
	return s.URL != ""
}

// Paragraph is an ordered list of segments.
type Paragraph []Segment

// Format splits message content into paragraphs on blank-line boundaries and
// marks embedded map links within each paragraph, preserving surrounding
// text. Content without links or paragraph breaks comes back as one plain
// segment.
func Format(content string) []Paragraph {
	normalized := strings.ReplaceAll(content, "\r\n", "\n")

	var paragraphs []Paragraph
	for _, block := range strings.Split(normalized, "\n\n") {
		if strings.TrimSpace(block) == "" {
			continue
		}
		paragraphs = append(paragraphs, splitLinks(block))
	}
	return paragraphs
}

func splitLinks(text string) Paragraph {
	matches := mapLinkPattern.FindAllStringIndex(text, -1)
	if len(matches) == 0 {
		return Paragraph{{Text: text}}
	}

	var para Paragraph
	pos := 0
	for _, m := range matches {
		if m[0] > pos {
			para = append(para, Segment{Text: text[pos:m[0]]})
		}
		url := text[m[0]:m[1]]
		para = append(para, Segment{Text: url, URL: url})
		pos = m[1]
	}
	if pos < len(text) {
		para = append(para, Segment{Text: text[pos:]})
	}
	return para
}
