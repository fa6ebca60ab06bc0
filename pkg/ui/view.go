package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/vanderheijden86/scatterclass/pkg/analysis"
	"github.com/vanderheijden86/scatterclass/pkg/classify"
)

const maxLabelColumn = 32

// sessionMarks adapts a session to the MarkLookup interfaces.
type sessionMarks struct{ s *classify.Session }

func (m sessionMarks) Has(id int64) bool { return m.s.IsMarked(id) }

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Initializing..."
	}
	if m.form != nil {
		return lipgloss.NewStyle().Padding(1, 2).Render(m.form.View())
	}
	if m.showHelp {
		return m.helpText
	}

	var body string
	switch m.mode {
	case viewTree:
		body = m.renderTree()
	default:
		body = FocusedPanelStyle.Render(m.pane.View())
	}
	return lipgloss.JoinVertical(lipgloss.Left, m.renderTitle(), body, m.renderFooter())
}

func (m Model) renderTitle() string {
	t := m.theme
	parts := []string{t.Header.Render("sc")}
	if m.opts.Source != "" {
		parts = append(parts, t.MutedText.Render(truncate(m.opts.Source, max(m.width/3, 12))))
	}
	parts = append(parts, fmt.Sprintf("%d points", m.session.Len()))

	cuts := m.session.Thresholds()
	if len(cuts) > 0 {
		formatted := make([]string, len(cuts))
		for i, c := range cuts {
			formatted[i] = m.session.FormatValue(c)
		}
		parts = append(parts, t.BandHeader.Render("cuts "+strings.Join(formatted, ", ")))
	}
	if len(m.picked) > 0 {
		parts = append(parts, t.PickedText.Render(fmt.Sprintf("%s %d picked", glyphPicked, len(m.picked))))
	}
	switch m.mode {
	case viewReport:
		parts = append(parts, t.PromptText.Render("[report]"))
	case viewStats:
		parts = append(parts, t.PromptText.Render("[stats]"))
	}
	return truncateANSI(strings.Join(parts, "  "), m.width)
}

func (m Model) renderTree() string {
	t := m.theme
	h := m.treeHeight()
	if len(m.rows) == 0 {
		empty := t.MutedText.Render("No points. Press p to import from the clipboard or a to add one.")
		return lipgloss.NewStyle().Height(h).Render(empty)
	}

	labels := make([]string, 0, len(m.rows))
	for _, r := range m.rows {
		if r.kind == rowPoint {
			labels = append(labels, r.point.Label)
		}
	}
	labelW := labelColumnWidth(labels, maxLabelColumn)

	end := min(len(m.rows), m.offset+h)
	lines := make([]string, 0, h)
	for i := m.offset; i < end; i++ {
		line := m.renderRow(m.rows[i], labelW)
		if i == m.cursor {
			line = t.Selected.Render(line)
		}
		lines = append(lines, line)
	}
	return lipgloss.NewStyle().Height(h).Render(strings.Join(lines, "\n"))
}

func (m Model) renderRow(r treeRow, labelW int) string {
	t := m.theme
	node := m.tree[r.nodeIdx]

	if r.kind == rowHeader {
		glyph := glyphExpanded
		if m.collapsed[node.Key] {
			glyph = glyphCollapsed
		}
		style := t.BandHeader
		if node.IsManual {
			style = t.CategoryHeader(node.Color)
		}
		name := truncate(node.DisplayName, max(m.width-12, 8))
		return glyph + " " + style.Render(name) + " " + RenderCount(len(node.Points), t)
	}

	p := r.point
	marked := m.session.IsMarked(p.ID)
	var glyph string
	switch {
	case m.picked[p.ID]:
		glyph = t.PickedText.Render(glyphPicked)
	case marked:
		glyph = t.MarkedText.Render(glyphMarked)
	default:
		glyph = t.MutedText.Render(glyphPoint)
	}

	label := padRight(truncate(p.Label, labelW), labelW)
	if marked {
		label = t.MarkedText.Render(label)
	}
	values := t.ValueText.Render(fmt.Sprintf("y %-10g x %g", p.Y, p.X))
	return strings.Repeat(" ", SpaceSM) + glyph + " " + label + strings.Repeat(" ", SpaceMD) + values
}

func (m Model) renderFooter() string {
	t := m.theme
	if m.prompt != promptNone {
		return m.input.View()
	}
	if m.status != "" {
		style := t.StatusOk
		if m.statusErr {
			style = t.StatusErr
		}
		return style.Render(truncate(m.status, max(m.width, 20)))
	}
	hint := "j/k move · space mark · x pick · g group · t/T threshold · v view · ? help · q quit"
	return t.MutedText.Render(truncate(hint, max(m.width, 20)))
}

// renderStats formats analysis.Compute output for the stats pane.
func (m Model) renderStats() string {
	t := m.theme
	rep := analysis.Compute(m.tree, sessionMarks{m.session})

	var sb strings.Builder
	fmt.Fprintf(&sb, "%d points, %d marked\n\n", rep.Total, rep.Marked)
	if rep.Total == 0 {
		return sb.String()
	}
	writeCategoryStats(&sb, t, rep.Overall, t.PromptText.Render("All points"))
	for _, c := range rep.Categories {
		style := t.BandHeader
		if c.Manual {
			node, _ := m.tree.Find(c.Key)
			style = t.CategoryHeader(node.Color)
		}
		writeCategoryStats(&sb, t, c, style.Render(c.Name))
	}
	return strings.TrimRight(sb.String(), "\n")
}

func writeCategoryStats(sb *strings.Builder, t Theme, c analysis.CategoryStats, title string) {
	fmt.Fprintf(sb, "%s %s\n", title, RenderCount(c.Count, t))
	fmt.Fprintf(sb, "  share %s %5.1f%%  marked %d\n", RenderShareBar(c.Share, 20, t), c.Share*100, c.Marked)
	fmt.Fprintf(sb, "  y  mean %-9.4g sd %-9.4g min %-9.4g med %-9.4g max %.4g\n",
		c.Y.Mean, c.Y.StdDev, c.Y.Min, c.Y.Median, c.Y.Max)
	fmt.Fprintf(sb, "  x  mean %-9.4g sd %-9.4g min %-9.4g med %-9.4g max %.4g\n",
		c.X.Mean, c.X.StdDev, c.X.Min, c.X.Median, c.X.Max)
	fmt.Fprintf(sb, "  r(x,y) %.3f\n\n", c.Correlation)
}

// truncateANSI cuts a styled line to width display cells.
func truncateANSI(s string, width int) string {
	if width <= 0 {
		return s
	}
	return lipgloss.NewStyle().MaxWidth(width).Render(s)
}
