// Package report renders a category tree into the plain-text report and its
// header-free export variant.
//
// Layout rules inside a category block:
//   - unmarked entries stand alone, separated from neighbours by a blank line
//   - consecutive marked entries form one dense block with no blank lines
//   - every unmarked/marked transition gets exactly one blank line
//
// Runs of blank lines are then collapsed to one, surrounding whitespace is
// trimmed and the document ends with a single newline.
package report

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/vanderheijden86/scatterclass/pkg/metrics"
	"github.com/vanderheijden86/scatterclass/pkg/model"
)

// HeaderOpen and HeaderClose bracket category names in header lines.
const (
	HeaderOpen  = "【"
	HeaderClose = "】"
)

// Package-level compiled regex for blank-run collapsing
var blankRunRegex = regexp.MustCompile(`\n{3,}`)

// MarkLookup answers whether a point is marked.
type MarkLookup interface {
	Has(id int64) bool
}

// MarkSet is a MarkLookup backed by a plain set, handy for tests and callers
// that hold marks outside a session.
type MarkSet map[int64]bool

// Has implements MarkLookup.
func (m MarkSet) Has(id int64) bool {
	return m[id]
}

// Header returns the header line for a category name.
func Header(name string) string {
	return fmt.Sprintf("%s%s%s:", HeaderOpen, name, HeaderClose)
}

// Render produces the report text for tree. Empty nodes are skipped; an empty
// tree renders as a single newline.
func Render(tree model.Tree, marks MarkLookup) string {
	defer metrics.Timer(metrics.Render)()

	var sb strings.Builder
	for _, node := range tree {
		if len(node.Points) == 0 {
			continue
		}
		sb.WriteString(Header(node.DisplayName))
		sb.WriteString("\n")

		prevMarked, havePrev := false, false
		for i, p := range node.Points {
			marked := marks.Has(p.ID)
			if marked {
				if !havePrev || !prevMarked {
					sb.WriteString("\n")
				}
				sb.WriteString(p.Label)
				sb.WriteString("\n")
				nextMarked := i+1 < len(node.Points) && marks.Has(node.Points[i+1].ID)
				if !nextMarked {
					sb.WriteString("\n")
				}
			} else {
				sb.WriteString("\n")
				sb.WriteString(p.Label)
				sb.WriteString("\n\n")
			}
			prevMarked, havePrev = marked, true
		}
		sb.WriteString("\n")
	}

	return Normalize(sb.String())
}

// Normalize collapses runs of blank lines to one, trims surrounding
// whitespace and terminates the text with exactly one newline.
func Normalize(text string) string {
	text = blankRunRegex.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text) + "\n"
}

// IsHeader reports whether a report line is a category header.
func IsHeader(line string) bool {
	trimmed := strings.TrimSpace(line)
	return strings.HasPrefix(trimmed, HeaderOpen) && strings.Contains(trimmed, HeaderClose)
}

// StripHeaders removes header lines and trims the result. All other lines,
// including the blank lines that surrounded a header, are kept verbatim.
func StripHeaders(text string) string {
	lines := splitLines(text)
	kept := lines[:0]
	for _, line := range lines {
		if !IsHeader(line) {
			kept = append(kept, line)
		}
	}
	return strings.TrimSpace(strings.Join(kept, "\n"))
}

// splitLines splits on \n, \r\n and \r without producing a trailing empty
// element for a final newline.
func splitLines(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	text = strings.TrimSuffix(text, "\n")
	if text == "" {
		return nil
	}
	return strings.Split(text, "\n")
}
