package datasource

import (
	"fmt"
	"strings"

	"github.com/vanderheijden86/scatterclass/pkg/model"
)

// RowDiff summarizes how a reloaded dataset differs from the previous one.
// Rows are matched by label; duplicate labels are matched in order.
type RowDiff struct {
	// Added holds labels present only in the new rows
	Added []string
	// Removed holds labels present only in the old rows
	Removed []string
	// Moved holds labels whose Y or X changed
	Moved []string
	// CountOld is the number of old rows
	CountOld int
	// CountNew is the number of new rows
	CountNew int
}

// HasChanges returns true if the datasets differ
func (d RowDiff) HasChanges() bool {
	return len(d.Added) > 0 || len(d.Removed) > 0 || len(d.Moved) > 0
}

// Summary returns a one-line description such as "+2 -1 ~3 (40 rows)".
func (d RowDiff) Summary() string {
	if !d.HasChanges() {
		return fmt.Sprintf("no changes (%d rows)", d.CountNew)
	}
	var parts []string
	if n := len(d.Added); n > 0 {
		parts = append(parts, fmt.Sprintf("+%d", n))
	}
	if n := len(d.Removed); n > 0 {
		parts = append(parts, fmt.Sprintf("-%d", n))
	}
	if n := len(d.Moved); n > 0 {
		parts = append(parts, fmt.Sprintf("~%d", n))
	}
	return fmt.Sprintf("%s (%d rows)", strings.Join(parts, " "), d.CountNew)
}

// DiffRows compares two row sets.
func DiffRows(oldRows, newRows []model.Row) RowDiff {
	d := RowDiff{CountOld: len(oldRows), CountNew: len(newRows)}

	pending := make(map[string][]model.Row, len(oldRows))
	for _, r := range oldRows {
		pending[r.Label] = append(pending[r.Label], r)
	}
	for _, r := range newRows {
		queue := pending[r.Label]
		if len(queue) == 0 {
			d.Added = append(d.Added, r.Label)
			continue
		}
		prev := queue[0]
		pending[r.Label] = queue[1:]
		if prev.Y != r.Y || prev.X != r.X {
			d.Moved = append(d.Moved, r.Label)
		}
	}
	for _, r := range oldRows {
		if queue := pending[r.Label]; len(queue) > 0 {
			d.Removed = append(d.Removed, r.Label)
			pending[r.Label] = queue[1:]
		}
	}
	return d
}
