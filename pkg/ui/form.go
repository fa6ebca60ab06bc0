package ui

import (
	"errors"
	"os"
	"strings"

	"github.com/charmbracelet/huh"
	"golang.org/x/term"

	"github.com/vanderheijden86/scatterclass/pkg/loader"
)

type formKind int

const (
	formNone formKind = iota
	formAddPoint
	formReset
)

// formFields holds the values bound to the active huh form. It lives behind
// a pointer so copies of Model share it.
type formFields struct {
	Label   string
	Y       string
	X       string
	At      int
	Confirm bool
}

// isTTY checks if stdin is a terminal
func isTTY() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// newForm creates a form with appropriate settings based on TTY detection
func newForm(groups ...*huh.Group) *huh.Form {
	form := huh.NewForm(groups...).WithTheme(huh.ThemeDracula()).WithShowHelp(true)
	if !isTTY() {
		form = form.WithAccessible(true)
	}
	return form
}

func validateLabel(s string) error {
	if strings.TrimSpace(s) == "" {
		return errors.New("label cannot be empty")
	}
	return nil
}

func validateNumber(s string) error {
	if _, err := loader.ParseNumber(s); err != nil {
		return err
	}
	return nil
}

// newAddPointForm asks for label, Y and X. Numbers are validated as they are
// typed; the session validates again on submit.
func newAddPointForm(f *formFields) *huh.Form {
	return newForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Label").
				Value(&f.Label).
				Validate(validateLabel),
			huh.NewInput().
				Title("Y").
				Placeholder("0.0").
				Value(&f.Y).
				Validate(validateNumber),
			huh.NewInput().
				Title("X").
				Placeholder("0.0").
				Value(&f.X).
				Validate(validateNumber),
		).Title("Add point"),
	)
}

func newResetForm(f *formFields) *huh.Form {
	return newForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("Reset thresholds, selections, marks and names?").
				Description("Points are kept.").
				Affirmative("Reset").
				Negative("Cancel").
				Value(&f.Confirm),
		),
	)
}
