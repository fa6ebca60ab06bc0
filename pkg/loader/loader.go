// Package loader parses point import text into rows.
//
// The import format is one record per line. Fields are separated by any run
// of '|', tab, ',' or the full-width comma '，'. The first three non-empty
// fields are label, Y and X, in that order; anything after them is ignored.
// Lines whose Y or X do not parse as finite numbers are skipped with a
// warning rather than failing the whole import.
package loader

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/text/width"

	"github.com/vanderheijden86/scatterclass/pkg/model"
)

// ErrNoRows is returned when an import produced no valid rows at all.
var ErrNoRows = errors.New("nothing parsed")

// DefaultMaxLineSize is the default maximum line length accepted (1MB). Longer lines are skipped.
const DefaultMaxLineSize = 1024 * 1024

// Package-level compiled separator regex (any run of | tab , ，)
var fieldSeparatorRegex = regexp.MustCompile(`[|\t,，]+`)

// ParseOptions configures the behavior of Parse.
type ParseOptions struct {
	// WarningHandler is called with a message for every skipped line.
	// If nil, warnings are printed to os.Stderr (suppressed when SC_ROBOT=1).
	WarningHandler func(string)

	// MaxLineSize sets the longest accepted line in bytes.
	// If 0, uses DefaultMaxLineSize.
	MaxLineSize int

	// RowFilter optionally filters parsed rows. Return true to include.
	RowFilter func(*model.Row) bool
}

// ParseText parses import text held in memory.
func ParseText(text string, opts ParseOptions) ([]model.Row, error) {
	return Parse(strings.NewReader(text), opts)
}

// LoadFile reads and parses an import file.
func LoadFile(path string, opts ParseOptions) ([]model.Row, error) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("no import file at %s", path)
		}
		return nil, fmt.Errorf("failed to open import file: %w", err)
	}
	defer file.Close()

	return Parse(file, opts)
}

// Parse reads rows from r. Malformed lines are skipped. When no line
// produced a row the returned error wraps ErrNoRows.
func Parse(r io.Reader, opts ParseOptions) ([]model.Row, error) {
	maxLine := opts.MaxLineSize
	if maxLine <= 0 {
		maxLine = DefaultMaxLineSize
	}

	warn := opts.WarningHandler
	if warn == nil {
		if os.Getenv("SC_ROBOT") == "1" {
			warn = func(string) {}
		} else {
			warn = func(msg string) {
				fmt.Fprintf(os.Stderr, "Warning: %s\n", msg)
			}
		}
	}

	br := bufio.NewReaderSize(r, min(64*1024, maxLine))

	var rows []model.Row
	lineNum := 0
	for {
		line, tooLong, err := readLine(br, maxLine)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("error reading import stream after line %d: %w", lineNum, err)
		}
		lineNum++
		if tooLong {
			warn(fmt.Sprintf("skipping line %d: longer than %d bytes", lineNum, maxLine))
			continue
		}
		if lineNum == 1 {
			line = stripBOM(line)
		}

		text := strings.TrimSpace(string(line))
		if text == "" {
			continue
		}

		row, err := ParseLine(text)
		if err != nil {
			warn(fmt.Sprintf("skipping line %d: %v", lineNum, err))
			continue
		}
		row.Line = lineNum

		if opts.RowFilter != nil && !opts.RowFilter(&row) {
			continue
		}
		rows = append(rows, row)
	}
	if len(rows) == 0 {
		return nil, ErrNoRows
	}
	return rows, nil
}

// readLine returns the next line without its terminator. A line longer than
// limit is consumed to its end and reported as tooLong with no content.
func readLine(br *bufio.Reader, limit int) (line []byte, tooLong bool, err error) {
	for {
		frag, isPrefix, err := br.ReadLine()
		if err != nil {
			return line, tooLong, err
		}
		if !tooLong {
			if len(line)+len(frag) > limit {
				tooLong, line = true, nil
			} else {
				line = append(line, frag...)
			}
		}
		if !isPrefix {
			return line, tooLong, nil
		}
	}
}

// ParseLine parses a single record. The returned row has no line number.
func ParseLine(line string) (model.Row, error) {
	fields := SplitFields(line)
	if len(fields) < 3 {
		return model.Row{}, fmt.Errorf("expected label, y and x, found %d field(s)", len(fields))
	}

	y, err := ParseNumber(fields[1])
	if err != nil {
		return model.Row{}, fmt.Errorf("y: %w", err)
	}
	x, err := ParseNumber(fields[2])
	if err != nil {
		return model.Row{}, fmt.Errorf("x: %w", err)
	}

	row := model.Row{Label: fields[0], Y: y, X: x}
	if err := row.Validate(); err != nil {
		return model.Row{}, err
	}
	return row, nil
}

// SplitFields splits a line on the separator set and drops empty fields.
func SplitFields(line string) []string {
	parts := fieldSeparatorRegex.Split(line, -1)
	fields := parts[:0]
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			fields = append(fields, p)
		}
	}
	return fields
}

// ParseNumber parses a decimal number, folding full-width digits and signs
// (e.g. "１２．５") to their ASCII forms first. Only finite values are accepted.
func ParseNumber(s string) (float64, error) {
	s = strings.TrimSpace(width.Narrow.String(s))
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("%q is not a number", s)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%q is not a finite number", s)
	}
	return v, nil
}

// stripBOM removes the UTF-8 Byte Order Mark if present
func stripBOM(b []byte) []byte {
	if bytes.HasPrefix(b, []byte{0xEF, 0xBB, 0xBF}) {
		return b[3:]
	}
	return b
}
