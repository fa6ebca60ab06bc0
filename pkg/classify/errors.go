package classify

import (
	"errors"
	"fmt"

	"github.com/vanderheijden86/scatterclass/pkg/loader"
)

// Common errors. None of them leave a session in a partially modified state.
var (
	// ErrEmptyImport is returned when an import contained no valid rows.
	ErrEmptyImport = loader.ErrNoRows

	ErrInvalidNumericField = errors.New("invalid numeric field")
	ErrEmptyLabel          = errors.New("label cannot be empty")
	ErrEmptySelection      = errors.New("selection contains no existing points")
	ErrEmptyName           = errors.New("name cannot be empty")
	ErrUnknownNode         = errors.New("unknown category")
	ErrUnknownPoint        = errors.New("unknown point")
	ErrBandDrop            = errors.New("bands are derived from thresholds; drop onto a selection instead")
	ErrSessionExists       = errors.New("session already exists")
	ErrNoSession           = errors.New("no such session")
)

// FieldError reports a rejected add-point field.
type FieldError struct {
	Field string // "label", "y" or "x"
	Value string
	Err   error
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %q: %v", e.Field, e.Value, e.Err)
}

func (e *FieldError) Unwrap() error {
	return e.Err
}
