package loader_test

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/vanderheijden86/scatterclass/pkg/loader"
	"github.com/vanderheijden86/scatterclass/pkg/model"
)

func TestParseText_Separators(t *testing.T) {
	text := "A|1|2\nB\t3\t4\nC,5,6\nD，7，8\nE || 9 ,\t10\n"
	rows, err := loader.ParseText(text, loader.ParseOptions{})
	if err != nil {
		t.Fatalf("ParseText: %v", err)
	}
	want := []model.Row{
		{Label: "A", Y: 1, X: 2, Line: 1},
		{Label: "B", Y: 3, X: 4, Line: 2},
		{Label: "C", Y: 5, X: 6, Line: 3},
		{Label: "D", Y: 7, X: 8, Line: 4},
		{Label: "E", Y: 9, X: 10, Line: 5},
	}
	if !reflect.DeepEqual(rows, want) {
		t.Errorf("rows =\n%+v\nwant\n%+v", rows, want)
	}
}

func TestParseText_SkipsBadLinesWithWarnings(t *testing.T) {
	var warnings []string
	text := "good|1|1\n\n   \nlabel only\nbad|y|1\nbad|1|x\ninf|Inf|1\nalso good|2|2|extra"
	rows, err := loader.ParseText(text, loader.ParseOptions{
		WarningHandler: func(msg string) { warnings = append(warnings, msg) },
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 2 || rows[1].Label != "also good" || rows[1].Line != 8 {
		t.Errorf("rows = %+v", rows)
	}
	if len(warnings) != 4 {
		t.Fatalf("warnings = %v", warnings)
	}
	if !strings.Contains(warnings[0], "line 4") {
		t.Errorf("warning should name the line: %q", warnings[0])
	}
}

func TestParseText_NoRows(t *testing.T) {
	for _, text := range []string{"", "\n\n", "x|y|z"} {
		_, err := loader.ParseText(text, loader.ParseOptions{WarningHandler: func(string) {}})
		if !errors.Is(err, loader.ErrNoRows) {
			t.Errorf("ParseText(%q) err = %v, want ErrNoRows", text, err)
		}
	}
}

func TestParseText_BOMAndCRLF(t *testing.T) {
	rows, err := loader.ParseText("\ufeffA|1|1\r\nB|2|2\r\n", loader.ParseOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 2 || rows[0].Label != "A" || rows[1].X != 2 {
		t.Errorf("rows = %+v", rows)
	}
}

func TestParseText_RowFilter(t *testing.T) {
	rows, err := loader.ParseText("A|1|1\nB|-1|1", loader.ParseOptions{
		RowFilter: func(r *model.Row) bool { return r.Y >= 0 },
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 1 || rows[0].Label != "A" {
		t.Errorf("rows = %+v", rows)
	}
}

func TestParseNumber(t *testing.T) {
	tests := []struct {
		in      string
		want    float64
		wantErr bool
	}{
		{"1.5", 1.5, false},
		{" -2 ", -2, false},
		{"１２．５", 12.5, false},
		{"－３", -3, false},
		{"1e3", 1000, false},
		{"abc", 0, true},
		{"NaN", 0, true},
		{"-Inf", 0, true},
		{"", 0, true},
	}
	for _, tt := range tests {
		got, err := loader.ParseNumber(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseNumber(%q) err = %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseNumber(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestSplitFields(t *testing.T) {
	got := loader.SplitFields("  a b | 1 ,,\t， 2  ")
	want := []string{"a b", "1", "2"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("SplitFields = %q, want %q", got, want)
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "points.txt")
	if err := os.WriteFile(path, []byte("A|1|1\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	rows, err := loader.LoadFile(path, loader.ParseOptions{})
	if err != nil || len(rows) != 1 {
		t.Fatalf("LoadFile = %v, %v", rows, err)
	}

	_, err = loader.LoadFile(filepath.Join(dir, "missing.txt"), loader.ParseOptions{})
	if err == nil || !strings.Contains(err.Error(), "no import file") {
		t.Errorf("missing file err = %v", err)
	}
}

func TestParse_LineTooLongIsSkipped(t *testing.T) {
	tests := []struct {
		name    string
		long    string
		maxLine int
	}{
		{"custom limit", "C|1|" + strings.Repeat("1", 200), 64},
		{"default limit", strings.Repeat("x", loader.DefaultMaxLineSize+10), 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var warnings []string
			rows, err := loader.ParseText("A|1|1\n"+tt.long+"\nB|2|2\n", loader.ParseOptions{
				MaxLineSize:    tt.maxLine,
				WarningHandler: func(msg string) { warnings = append(warnings, msg) },
			})
			if err != nil {
				t.Fatalf("ParseText: %v", err)
			}
			if len(rows) != 2 || rows[0].Label != "A" || rows[1].Label != "B" || rows[1].Line != 3 {
				t.Errorf("rows = %+v", rows)
			}
			if len(warnings) != 1 || !strings.Contains(warnings[0], "line 2") {
				t.Errorf("warnings = %v", warnings)
			}
		})
	}
}
