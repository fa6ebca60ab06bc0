package ui

import (
	"github.com/charmbracelet/bubbles/textinput"
)

type promptKind int

const (
	promptNone promptKind = iota
	promptAddThreshold
	promptRemoveThreshold
	promptRename
	promptGroup
	promptExport
	promptSearch
)

func (k promptKind) label() string {
	switch k {
	case promptAddThreshold:
		return "Add threshold at Y: "
	case promptRemoveThreshold:
		return "Remove threshold near Y: "
	case promptRename:
		return "Rename to: "
	case promptGroup:
		return "Selection name (blank for auto): "
	case promptExport:
		return "Export to [path t2s|s2t]: "
	case promptSearch:
		return "/"
	default:
		return ""
	}
}

// allowEmpty reports whether submitting an empty value is meaningful.
func (k promptKind) allowEmpty() bool {
	return k == promptGroup
}

func newPromptInput(kind promptKind, value string, width int) textinput.Model {
	ti := textinput.New()
	ti.Prompt = kind.label()
	ti.CharLimit = 256
	ti.Width = max(width-len(ti.Prompt)-2, 10)
	ti.SetValue(value)
	ti.CursorEnd()
	ti.Focus()
	return ti
}
