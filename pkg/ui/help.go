package ui

import (
	"strings"

	"github.com/charmbracelet/glamour"
)

const helpMarkdown = `# Keys

| Key | Action |
|---|---|
| j / k, ↓ / ↑ | move cursor |
| enter | collapse or expand a category |
| space, m | toggle mark (whole pick set if any) |
| x | add or remove point from the pick set |
| g | group the pick set into a new selection |
| t | add threshold |
| T | remove nearest threshold |
| X | clear thresholds |
| r | rename category |
| a | add point after cursor |
| d | delete point (or pick set) |
| J / K | move point down / up |
| < / > | drop point into previous / next category |
| / , n | search labels, next hit |
| v | cycle tree / report / stats |
| c | copy report to clipboard |
| e | export report (` + "`path [t2s|s2t]`" + `) |
| p | import from clipboard |
| ctrl+r | reset everything except points |
| ? | this help |
| q | quit |

Thresholds split points into bands by Y. A value equal to a threshold
belongs to the band above it. Selections override bands until emptied.
`

// renderHelp renders the key reference as terminal markdown. The raw text is
// returned when glamour cannot build a renderer.
func renderHelp(width int) string {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(max(width-4, 40)),
	)
	if err != nil {
		return helpMarkdown
	}
	out, err := r.Render(helpMarkdown)
	if err != nil {
		return helpMarkdown
	}
	return strings.TrimRight(out, "\n")
}
