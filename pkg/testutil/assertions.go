package testutil

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/vanderheijden86/scatterclass/pkg/model"
)

// AssertPartition checks that every point sits in exactly one non-empty node
// and that the tree holds want points in total.
func AssertPartition(t testing.TB, tree model.Tree, want int) {
	t.Helper()
	seen := make(map[int64]string)
	for _, node := range tree {
		if len(node.Points) == 0 {
			t.Errorf("node %s is empty", node.Key)
		}
		for _, p := range node.Points {
			if prev, dup := seen[p.ID]; dup {
				t.Errorf("point %d in both %s and %s", p.ID, prev, node.Key)
			}
			seen[p.ID] = node.Key
		}
	}
	if len(seen) != want {
		t.Errorf("tree holds %d points, want %d", len(seen), want)
	}
}

// AssertBandBounds checks that each band node only holds points inside its
// half-open Y interval.
func AssertBandBounds(t testing.TB, tree model.Tree) {
	t.Helper()
	for _, node := range tree {
		if node.IsManual {
			continue
		}
		band := model.Band{Lower: node.Lower, Upper: node.Upper}
		for _, p := range node.Points {
			if !band.Contains(p.Y) {
				t.Errorf("point %s (y=%g) outside band %s", p.Label, p.Y, node.Key)
			}
		}
	}
}

// AssertNodeLabels checks the labels of the node named name, in order.
func AssertNodeLabels(t testing.TB, tree model.Tree, name string, want ...string) {
	t.Helper()
	for _, node := range tree {
		if node.DisplayName != name {
			continue
		}
		got := make([]string, len(node.Points))
		for i, p := range node.Points {
			got[i] = p.Label
		}
		if strings.Join(got, ",") != strings.Join(want, ",") {
			t.Errorf("node %q labels = %v, want %v", name, got, want)
		}
		return
	}
	t.Errorf("node %q not found", name)
}

// GoldenFile compares output against a file under testdata.
type GoldenFile struct {
	t      testing.TB
	dir    string
	name   string
	update bool
}

// NewGoldenFile creates a golden file helper. With GENERATE_GOLDEN set the
// file is rewritten instead of compared.
func NewGoldenFile(t testing.TB, dir, name string) *GoldenFile {
	t.Helper()
	return &GoldenFile{t: t, dir: dir, name: name, update: os.Getenv("GENERATE_GOLDEN") != ""}
}

// Path returns the golden file path.
func (g *GoldenFile) Path() string {
	return filepath.Join(g.dir, g.name)
}

// Assert compares actual with the golden file.
func (g *GoldenFile) Assert(actual string) {
	g.t.Helper()
	path := g.Path()

	if g.update {
		if err := os.MkdirAll(g.dir, 0o755); err != nil {
			g.t.Fatalf("failed to create golden dir: %v", err)
		}
		if err := os.WriteFile(path, []byte(actual), 0o644); err != nil {
			g.t.Fatalf("failed to write golden file: %v", err)
		}
		g.t.Logf("updated golden file: %s", path)
		return
	}

	expected, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			g.t.Fatalf("golden file does not exist: %s\nRun with GENERATE_GOLDEN=1 to create it", path)
		}
		g.t.Fatalf("failed to read golden file: %v", err)
	}
	if string(expected) == actual {
		return
	}

	expLines := strings.Split(string(expected), "\n")
	actLines := strings.Split(actual, "\n")
	for i := 0; i < max(len(expLines), len(actLines)); i++ {
		var exp, act string
		if i < len(expLines) {
			exp = expLines[i]
		}
		if i < len(actLines) {
			act = actLines[i]
		}
		if exp != act {
			g.t.Errorf("golden mismatch at line %d:\nexpected: %q\nactual:   %q", i+1, exp, act)
			return
		}
	}
	g.t.Errorf("golden mismatch (length differs)")
}

// WriteImportFile writes rows as an import file in a temp dir and returns its
// path.
func WriteImportFile(t testing.TB, rows []model.Row) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "points.txt")
	if err := os.WriteFile(path, []byte(ImportText(rows)), 0o644); err != nil {
		t.Fatalf("write import file: %v", err)
	}
	return path
}
