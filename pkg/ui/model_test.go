package ui

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/vanderheijden86/scatterclass/pkg/classify"
	"github.com/vanderheijden86/scatterclass/pkg/config"
	"github.com/vanderheijden86/scatterclass/pkg/loader"
	"github.com/vanderheijden86/scatterclass/pkg/model"
	"github.com/vanderheijden86/scatterclass/pkg/report"
	"github.com/vanderheijden86/scatterclass/pkg/watcher"
)

type fakeClipboard struct {
	text string
	err  error
}

func (c *fakeClipboard) ReadAll() (string, error) { return c.text, c.err }

func (c *fakeClipboard) WriteAll(text string) error {
	if c.err != nil {
		return c.err
	}
	c.text = text
	return nil
}

const sampleText = "A|1|1\nB|5|2\nC|9|3"

func sampleRows(t *testing.T) []model.Row {
	t.Helper()
	rows, err := loader.ParseText(sampleText, loader.ParseOptions{})
	if err != nil {
		t.Fatalf("ParseText: %v", err)
	}
	return rows
}

// newTestModel builds a ready model over A|1|1 B|5|2 C|9|3 with a threshold
// at 5. Rows: 0 "Below 5.0", 1 A, 2 "Above 5.0", 3 B, 4 C.
func newTestModel(t *testing.T) (Model, *classify.Session, *fakeClipboard) {
	t.Helper()
	s := classify.NewSession(classify.DefaultOptions())
	rows := sampleRows(t)
	if _, err := s.Import(rows); err != nil {
		t.Fatalf("Import: %v", err)
	}
	s.AddThreshold(5)

	clip := &fakeClipboard{}
	m := NewModel(s, Options{
		Config:      config.DefaultConfig(),
		Clipboard:   clip,
		InitialRows: rows,
	})
	updated, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	return updated.(Model), s, clip
}

func keyMsg(k string) tea.KeyMsg {
	switch k {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case " ":
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
}

func press(m Model, keys ...string) Model {
	for _, k := range keys {
		updated, _ := m.Update(keyMsg(k))
		m = updated.(Model)
	}
	return m
}

// submit opens a prompt with key, replaces its value and presses enter.
func submit(m Model, key, value string) (Model, tea.Cmd) {
	m = press(m, key)
	m.input.SetValue(value)
	updated, cmd := m.Update(keyMsg("enter"))
	return updated.(Model), cmd
}

func labelsOf(points []model.Point) []string {
	out := make([]string, len(points))
	for i, p := range points {
		out[i] = p.Label
	}
	return out
}

func TestModel_TreeRowsAndNavigation(t *testing.T) {
	m, _, _ := newTestModel(t)

	if len(m.rows) != 5 {
		t.Fatalf("expected 5 rows, got %d", len(m.rows))
	}
	if m.rows[0].kind != rowHeader || m.rows[2].kind != rowHeader {
		t.Fatalf("expected headers at rows 0 and 2")
	}

	m = press(m, "j")
	if p, ok := m.currentPoint(); !ok || p.Label != "A" {
		t.Fatalf("expected cursor on A, got %+v", p)
	}
	m = press(m, "down", "down", "down", "down", "down")
	if m.cursor != 4 {
		t.Errorf("cursor should stop at last row, got %d", m.cursor)
	}
	m = press(m, "up")
	if p, _ := m.currentPoint(); p.Label != "B" {
		t.Errorf("expected B after up, got %q", p.Label)
	}
}

func TestModel_CollapseCategory(t *testing.T) {
	m, _, _ := newTestModel(t)

	m = press(m, "enter")
	if len(m.rows) != 4 {
		t.Fatalf("collapsing the first band should hide A, got %d rows", len(m.rows))
	}
	m = press(m, "enter")
	if len(m.rows) != 5 {
		t.Errorf("expanding again should restore 5 rows, got %d", len(m.rows))
	}
}

func TestModel_ToggleMark(t *testing.T) {
	m, s, _ := newTestModel(t)

	m = press(m, "j", " ")
	if !s.IsMarked(0) {
		t.Fatal("expected A marked after space")
	}
	m = press(m, "m")
	if s.IsMarked(0) {
		t.Error("expected A unmarked after m")
	}
	if m.statusErr {
		t.Errorf("unexpected error status %q", m.status)
	}
}

func TestModel_MarkHeaderTogglesWholeCategory(t *testing.T) {
	m, s, _ := newTestModel(t)

	m = press(m, "j", "j", " ")
	if !s.IsMarked(1) || !s.IsMarked(2) {
		t.Fatal("marking the Above header should mark B and C")
	}
	if s.IsMarked(0) {
		t.Error("A must stay unmarked")
	}
	want := "【Below 5.0】:\n\nA\n\n【Above 5.0】:\n\nB\nC\n"
	if got := s.Report(); got != want {
		t.Errorf("report = %q, want %q", got, want)
	}
}

func TestModel_PickAndGroup(t *testing.T) {
	m, s, _ := newTestModel(t)

	m = press(m, "j", "x", "j", "x")
	if len(m.picked) != 2 {
		t.Fatalf("expected 2 picked points, got %d", len(m.picked))
	}

	m, _ = submit(m, "g", "Mine")
	cats := s.Categories()
	if len(cats) != 1 || cats[0].Name != "Mine" || len(cats[0].Members) != 2 {
		t.Fatalf("unexpected categories %+v", cats)
	}
	if len(m.picked) != 0 {
		t.Error("pick set should be cleared after grouping")
	}
	if m.tree[0].DisplayName != "Mine" || !m.tree[0].IsManual {
		t.Errorf("manual category should come first, got %q", m.tree[0].DisplayName)
	}
	if got := labelsOf(m.tree[0].Points); strings.Join(got, ",") != "A,B" {
		t.Errorf("members = %v, want A,B", got)
	}
}

func TestModel_GroupWithBlankNameUsesAutoName(t *testing.T) {
	m, s, _ := newTestModel(t)

	m = press(m, "j", "j", "j")
	m, _ = submit(m, "g", "")
	cats := s.Categories()
	if len(cats) != 1 || cats[0].Name != "Selection 1" {
		t.Fatalf("expected auto-named selection, got %+v", cats)
	}
	if m.statusErr {
		t.Errorf("unexpected error %q", m.status)
	}
}

func TestModel_EscClearsPicks(t *testing.T) {
	m, _, _ := newTestModel(t)

	m = press(m, "j", "x")
	m = press(m, "esc")
	if len(m.picked) != 0 {
		t.Error("esc should clear the pick set")
	}
}

func TestModel_Thresholds(t *testing.T) {
	m, s, _ := newTestModel(t)

	// Cursor on C pre-fills its Y.
	m = press(m, "j", "j", "j", "j")
	m = press(m, "t")
	if got := m.input.Value(); got != "9" {
		t.Fatalf("prompt prefill = %q, want 9", got)
	}
	updated, _ := m.Update(keyMsg("enter"))
	m = updated.(Model)
	if got := s.Thresholds(); len(got) != 2 || got[1] != 9 {
		t.Fatalf("thresholds = %v, want [5 9]", got)
	}

	m, _ = submit(m, "t", "abc")
	if !m.statusErr {
		t.Error("non-numeric threshold should set an error status")
	}

	m = press(m, "X")
	if got := s.Thresholds(); len(got) != 0 {
		t.Errorf("X should clear thresholds, got %v", got)
	}
}

func TestModel_RemoveThresholdTolerance(t *testing.T) {
	m, s, _ := newTestModel(t)

	// Y axis 1..9 padded by 5% per side, tolerance 0.05*8.8 = 0.44.
	m, _ = submit(m, "T", "6")
	if !m.statusErr {
		t.Error("expected tolerance miss status")
	}
	if got := s.Thresholds(); len(got) != 1 {
		t.Fatalf("threshold must survive a miss, got %v", got)
	}

	m, _ = submit(m, "T", "5.2")
	if m.statusErr {
		t.Errorf("unexpected error %q", m.status)
	}
	if got := s.Thresholds(); len(got) != 0 {
		t.Errorf("threshold should be removed, got %v", got)
	}
}

func TestModel_ToleranceFlatData(t *testing.T) {
	s := classify.NewSession(classify.DefaultOptions())
	if _, err := s.ImportText("a|4|1\nb|4|2", nil); err != nil {
		t.Fatal(err)
	}
	m := NewModel(s, Options{Config: config.DefaultConfig(), Clipboard: &fakeClipboard{}})

	// Flat axis at 4 widens to 3.8..4.2.
	if got := m.tolerance(); math.Abs(got-0.02) > 1e-9 {
		t.Errorf("tolerance = %v, want 0.02", got)
	}

	// A cut line outside the data stretches the axis: 4..14 padded to 11.
	s.AddThreshold(14)
	if got := m.tolerance(); math.Abs(got-0.55) > 1e-9 {
		t.Errorf("tolerance with cut = %v, want 0.55", got)
	}
}

func TestAxisSpan(t *testing.T) {
	tests := []struct {
		lo, hi, want float64
	}{
		{1, 9, 8.8},
		{-5, 5, 11},
		{4, 4, 0.4},
		{-4, -4, 0.4},
		{0, 0, 0.1},
	}
	for _, tt := range tests {
		if got := axisSpan(tt.lo, tt.hi); math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("axisSpan(%v, %v) = %v, want %v", tt.lo, tt.hi, got, tt.want)
		}
	}
}

func TestModel_Rename(t *testing.T) {
	m, s, _ := newTestModel(t)

	m = press(m, "r")
	if got := m.input.Value(); got != "Below 5.0" {
		t.Fatalf("rename prefill = %q", got)
	}
	m.input.SetValue("Low")
	updated, _ := m.Update(keyMsg("enter"))
	m = updated.(Model)

	if got := s.Tree()[0].DisplayName; got != "Low" {
		t.Errorf("band name = %q, want Low", got)
	}
	if m.tree[0].DisplayName != "Low" {
		t.Error("model tree not refreshed after rename")
	}
}

func TestModel_PromptEscCancels(t *testing.T) {
	m, s, _ := newTestModel(t)

	m = press(m, "t")
	m.input.SetValue("7")
	m = press(m, "esc")
	if m.prompt != promptNone {
		t.Fatal("esc should close the prompt")
	}
	if got := s.Thresholds(); len(got) != 1 {
		t.Errorf("cancelled prompt changed thresholds: %v", got)
	}
}

func TestModel_DeletePoint(t *testing.T) {
	m, s, _ := newTestModel(t)

	m = press(m, "j", "d")
	if s.Len() != 2 {
		t.Fatalf("expected 2 points left, got %d", s.Len())
	}
	// Below band emptied: rows are now header, B, C.
	if len(m.rows) != 3 {
		t.Errorf("expected 3 rows, got %d", len(m.rows))
	}
}

func TestModel_MoveWithinBand(t *testing.T) {
	s := classify.NewSession(classify.DefaultOptions())
	if _, err := s.ImportText("A|1|1\nB|2|2\nC|3|3", nil); err != nil {
		t.Fatal(err)
	}
	m := NewModel(s, Options{Config: config.DefaultConfig(), Clipboard: &fakeClipboard{}})

	m = press(m, "j", "J")
	if got := strings.Join(labelsOf(s.Tree()[0].Points), ","); got != "B,A,C" {
		t.Fatalf("order = %s, want B,A,C", got)
	}
	if p, _ := m.currentPoint(); p.Label != "A" {
		t.Errorf("cursor should follow A, got %q", p.Label)
	}

	m = press(m, "K", "K")
	if got := strings.Join(labelsOf(s.Tree()[0].Points), ","); got != "A,B,C" {
		t.Errorf("order = %s, want A,B,C", got)
	}
}

func TestModel_DropOntoBandIsRejected(t *testing.T) {
	m, s, _ := newTestModel(t)

	m = press(m, "j", ">")
	if !m.statusErr {
		t.Fatal("dropping onto another band should report an error")
	}
	if key, _ := s.Tree().NodeOf(0); key != m.tree[0].Key {
		t.Errorf("A moved to %s", key)
	}
}

func TestModel_DropIntoSelection(t *testing.T) {
	m, s, _ := newTestModel(t)

	// Group B, then rows are: Selection 1, B, Below, A, Above, C.
	m = press(m, "j", "j", "j")
	m, _ = submit(m, "g", "")
	m = press(m, "j", "j")
	if p, _ := m.currentPoint(); p.Label != "A" {
		t.Fatalf("expected cursor on A, got %q", p.Label)
	}

	m = press(m, "<")
	if m.statusErr {
		t.Fatalf("unexpected error %q", m.status)
	}
	tree := s.Tree()
	if got := strings.Join(labelsOf(tree[0].Points), ","); got != "B,A" {
		t.Errorf("selection = %s, want B,A", got)
	}
	if p, _ := m.currentPoint(); p.Label != "A" {
		t.Errorf("cursor should follow A, got %q", p.Label)
	}
}

func TestModel_CopyReport(t *testing.T) {
	m, s, clip := newTestModel(t)

	m = press(m, "c")
	if clip.text != s.Report() {
		t.Errorf("clipboard = %q, want report", clip.text)
	}

	clip.err = errors.New("no clipboard")
	m = press(m, "c")
	if !m.statusErr {
		t.Error("expected error status when the clipboard fails")
	}
}

func TestModel_PasteImport(t *testing.T) {
	m, s, clip := newTestModel(t)

	clip.text = "X|1|1\nnot a row\nY|2|2"
	m = press(m, "p")
	if s.Len() != 2 {
		t.Fatalf("expected 2 points after paste, got %d", s.Len())
	}
	if len(s.Thresholds()) != 0 {
		t.Error("import should clear thresholds")
	}
	if !strings.Contains(m.status, "skipped 1") {
		t.Errorf("status = %q, want skipped count", m.status)
	}
}

func TestModel_PasteEmptyKeepsState(t *testing.T) {
	m, s, clip := newTestModel(t)

	clip.text = "nothing useful"
	m = press(m, "p")
	if !m.statusErr {
		t.Error("expected error status")
	}
	if s.Len() != 3 || len(s.Thresholds()) != 1 {
		t.Errorf("state changed: %d points, thresholds %v", s.Len(), s.Thresholds())
	}
}

func TestModel_ReloadMsg(t *testing.T) {
	m, s, _ := newTestModel(t)

	same := sampleRows(t)
	updated, _ := m.Update(ReloadMsg{Rows: same})
	m = updated.(Model)
	if len(s.Thresholds()) != 1 {
		t.Fatal("an unchanged reload must not reset the session")
	}
	if !strings.Contains(m.status, "no changes") {
		t.Errorf("status = %q", m.status)
	}

	changed := append(sampleRows(t), model.Row{Label: "D", Y: 4, X: 4})
	updated, _ = m.Update(ReloadMsg{Rows: changed})
	m = updated.(Model)
	if s.Len() != 4 {
		t.Fatalf("expected 4 points after reload, got %d", s.Len())
	}
	if !strings.Contains(m.status, "+1") {
		t.Errorf("status = %q, want diff summary", m.status)
	}

	updated, _ = m.Update(ReloadMsg{Err: loader.ErrNoRows})
	m = updated.(Model)
	if !m.statusErr || s.Len() != 4 {
		t.Errorf("failed reload should keep data and report an error")
	}
}

func TestModel_Search(t *testing.T) {
	m, _, _ := newTestModel(t)

	m, _ = submit(m, "/", "C")
	if p, _ := m.currentPoint(); p.Label != "C" {
		t.Fatalf("expected cursor on C, got %q", p.Label)
	}

	m, _ = submit(m, "/", "zzz")
	if !m.statusErr {
		t.Error("expected no-match error")
	}
}

func TestModel_SearchExpandsCollapsed(t *testing.T) {
	m, _, _ := newTestModel(t)

	m = press(m, "j", "j", "enter")
	m, _ = submit(m, "/", "B")
	if p, ok := m.currentPoint(); !ok || p.Label != "B" {
		t.Fatalf("search should expand the band holding B")
	}
}

func TestModel_Export(t *testing.T) {
	t.Setenv("XDG_STATE_HOME", t.TempDir())
	m, _, _ := newTestModel(t)
	path := filepath.Join(t.TempDir(), "out.txt")

	m, cmd := submit(m, "e", path)
	if cmd == nil {
		t.Fatalf("expected export command, status %q", m.status)
	}
	updated, _ := m.Update(cmd())
	m = updated.(Model)
	if m.statusErr {
		t.Fatalf("export failed: %s", m.status)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if got := string(data); got != "A\n\n\nB\n\nC" {
		t.Errorf("exported %q", got)
	}
	if got := config.LastExportPath(); got != path {
		t.Errorf("last export path = %q", got)
	}
}

func TestModel_ExportWithConversion(t *testing.T) {
	t.Setenv("XDG_STATE_HOME", t.TempDir())
	m, _, _ := newTestModel(t)
	path := filepath.Join(t.TempDir(), "out.txt")

	_, cmd := submit(m, "e", path+" t2s")
	if cmd != nil {
		t.Fatal("conversion without a converter must not start an export")
	}

	m.opts.Converter = report.ConverterFunc(func(_ context.Context, text string, dir report.Direction) (string, error) {
		return strings.ToLower(text) + "|" + string(dir), nil
	})
	_, cmd = submit(m, "e", path+" t2s")
	if cmd == nil {
		t.Fatal("expected export command")
	}
	cmd()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if got := string(data); got != "a\n\n\nb\n\nc|t2s" {
		t.Errorf("exported %q", got)
	}
}

func TestModel_ExportHooks(t *testing.T) {
	t.Setenv("XDG_STATE_HOME", t.TempDir())
	dir := t.TempDir()
	hooksFile := filepath.Join(dir, ".sc", "hooks.yaml")
	if err := os.MkdirAll(filepath.Dir(hooksFile), 0o755); err != nil {
		t.Fatal(err)
	}
	writeHooks := func(content string) {
		t.Helper()
		if err := os.WriteFile(hooksFile, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	m, _, _ := newTestModel(t)
	m.opts.HooksDir = dir
	path := filepath.Join(dir, "out.txt")

	writeHooks("hooks:\n  pre-export:\n    - name: gate\n      command: exit 1\n")
	m, cmd := submit(m, "e", path)
	updated, _ := m.Update(cmd())
	m = updated.(Model)
	if !m.statusErr || !strings.Contains(m.status, "export cancelled") {
		t.Fatalf("status = %q, want cancelled export", m.status)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatal("cancelled export wrote the file")
	}

	writeHooks("hooks:\n  post-export:\n    - name: notify\n      command: exit 2\n")
	m, cmd = submit(m, "e", path)
	updated, _ = m.Update(cmd())
	m = updated.(Model)
	if m.statusErr {
		t.Fatalf("post-export failure should not fail the export: %s", m.status)
	}
	if !strings.Contains(m.status, "hooks: 0 succeeded, 1 failed") {
		t.Errorf("status = %q, want hook summary", m.status)
	}

	m.opts.NoHooks = true
	m, cmd = submit(m, "e", path)
	updated, _ = m.Update(cmd())
	if got := updated.(Model).status; got != "exported to "+path {
		t.Errorf("status with hooks disabled = %q", got)
	}
}

func TestModel_AddPointForm(t *testing.T) {
	m, s, _ := newTestModel(t)

	m = press(m, "j", "a")
	if m.form == nil || m.formKind != formAddPoint {
		t.Fatal("a should open the add-point form")
	}
	if m.fields.At != 1 {
		t.Errorf("insert position = %d, want 1 (after A)", m.fields.At)
	}

	m.fields.Label, m.fields.Y, m.fields.X = "D", "7", "１"
	kind, fields := m.formKind, m.fields
	m.closeForm()
	m.submitForm(kind, fields)

	if s.Len() != 4 {
		t.Fatalf("expected 4 points, got %d", s.Len())
	}
	if p, _ := m.currentPoint(); p.Label != "D" || p.X != 1 {
		t.Errorf("cursor should land on the new point, got %+v", p)
	}
}

func TestModel_AddPointRejectsBadNumber(t *testing.T) {
	m, s, _ := newTestModel(t)

	m.submitForm(formAddPoint, &formFields{Label: "D", Y: "x", X: "1"})
	if !m.statusErr {
		t.Error("expected error status")
	}
	if s.Len() != 3 {
		t.Errorf("rejected point was added")
	}
}

func TestModel_FormEscCloses(t *testing.T) {
	m, _, _ := newTestModel(t)

	m = press(m, "a")
	m = press(m, "esc")
	if m.form != nil {
		t.Error("esc should close the form")
	}
}

func TestModel_ResetConfirm(t *testing.T) {
	m, s, _ := newTestModel(t)

	m = press(m, "j", " ")
	m.submitForm(formReset, &formFields{Confirm: false})
	if len(s.Thresholds()) != 1 {
		t.Fatal("declined reset changed the session")
	}

	m.submitForm(formReset, &formFields{Confirm: true})
	if len(s.Thresholds()) != 0 || s.IsMarked(0) {
		t.Error("reset should clear thresholds and marks")
	}
	if s.Len() != 3 {
		t.Errorf("reset must keep points, got %d", s.Len())
	}
}

func TestModel_HelpOverlay(t *testing.T) {
	m, _, _ := newTestModel(t)

	m = press(m, "?")
	if !m.showHelp || m.helpText == "" {
		t.Fatal("expected help overlay")
	}
	if !strings.Contains(m.View(), "threshold") {
		t.Error("help should list threshold keys")
	}
	m = press(m, "j")
	if m.showHelp {
		t.Error("any key should dismiss help")
	}
	if m.cursor != 0 {
		t.Error("the dismissing key must not move the cursor")
	}
}

func TestModel_Views(t *testing.T) {
	m, _, _ := newTestModel(t)

	view := m.View()
	for _, want := range []string{"Below 5.0", "Above 5.0", "A", "3 points"} {
		if !strings.Contains(view, want) {
			t.Errorf("tree view missing %q", want)
		}
	}

	m = press(m, "v")
	if m.mode != viewReport || !strings.Contains(m.View(), "【Above 5.0】:") {
		t.Errorf("expected report view")
	}
	m = press(m, "v")
	if m.mode != viewStats || !strings.Contains(m.View(), "All points") {
		t.Errorf("expected stats view")
	}
	m = press(m, "esc")
	if m.mode != viewTree {
		t.Errorf("esc should return to the tree")
	}
}

func TestModel_NotReady(t *testing.T) {
	s := classify.NewSession(classify.DefaultOptions())
	m := NewModel(s, Options{Clipboard: &fakeClipboard{}})
	if got := m.View(); got != "Initializing..." {
		t.Errorf("View before resize = %q", got)
	}
	if m.Init() != nil {
		t.Error("Init without a watcher should return nil")
	}
}

func TestModel_DefaultViewFromConfig(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.UI.DefaultView = "report"
	m := NewModel(classify.NewSession(classify.DefaultOptions()), Options{Config: cfg, Clipboard: &fakeClipboard{}})
	if m.mode != viewReport {
		t.Errorf("mode = %v, want report", m.mode)
	}
}

func TestModel_QuitKeys(t *testing.T) {
	m, _, _ := newTestModel(t)
	for _, k := range []string{"q"} {
		_, cmd := m.Update(keyMsg(k))
		if cmd == nil {
			t.Fatalf("%s should quit", k)
		}
		if _, ok := cmd().(tea.QuitMsg); !ok {
			t.Errorf("%s did not return tea.Quit", k)
		}
	}
}

func TestWatchCmd(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "points.txt")
	if err := os.WriteFile(path, []byte("A|1|1\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	w, err := watcher.New([]string{path},
		watcher.WithForcePoll(true),
		watcher.WithPollInterval(20*time.Millisecond),
		watcher.WithDebounceDuration(20*time.Millisecond),
	)
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := w.Start(ctx); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	load := func(context.Context) ([]model.Row, error) {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		return loader.ParseText(string(data), loader.ParseOptions{})
	}

	done := make(chan tea.Msg, 1)
	go func() { done <- WatchCmd(w, load)() }()

	time.Sleep(50 * time.Millisecond)
	if err := os.WriteFile(path, []byte("A|1|1\nB|2|2\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case msg := <-done:
		reload, ok := msg.(ReloadMsg)
		if !ok {
			t.Fatalf("got %T, want ReloadMsg", msg)
		}
		if reload.Err != nil || len(reload.Rows) != 2 {
			t.Errorf("reload = %+v", reload)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for reload")
	}
}

func TestSearchPoints(t *testing.T) {
	points := []model.Point{
		{ID: 10, Label: "alpha"},
		{ID: 11, Label: "beta"},
		{ID: 12, Label: "alphabet"},
	}
	got := searchPoints(points, "alp")
	if len(got) != 2 {
		t.Fatalf("expected 2 matches, got %v", got)
	}
	for _, id := range got {
		if id == 11 {
			t.Error("beta should not match alp")
		}
	}
	if searchPoints(points, "") != nil {
		t.Error("empty pattern should match nothing")
	}
}

func TestFlattenAndLocate(t *testing.T) {
	tree := model.Tree{
		{Key: "k1", Points: []model.Point{{ID: 1}, {ID: 2}}},
		{Key: "k2", Points: []model.Point{{ID: 3}}},
	}
	rows := flattenTree(tree, map[string]bool{"k1": true})
	if len(rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(rows))
	}

	if got := locate(rows, cursorAnchor{pointID: 3, nodeKey: "k2", isPoint: true}, 0); got != 2 {
		t.Errorf("locate point = %d, want 2", got)
	}
	// Point hidden by collapse falls back to its header.
	if got := locate(rows, cursorAnchor{pointID: 2, nodeKey: "k1", isPoint: true}, 2); got != 0 {
		t.Errorf("locate collapsed = %d, want 0", got)
	}
	if got := locate(rows, cursorAnchor{nodeKey: "gone"}, 9); got != 2 {
		t.Errorf("fallback = %d, want 2", got)
	}
}

func TestHelpers(t *testing.T) {
	if got := truncate("abcdef", 4); got != "abc…" {
		t.Errorf("truncate = %q", got)
	}
	if got := padRight("中", 4); got != "中  " {
		t.Errorf("padRight = %q", got)
	}
	if got := labelColumnWidth([]string{"ab", "中文字"}, 5); got != 5 {
		t.Errorf("labelColumnWidth = %d", got)
	}
	head, last := splitLast("  my file.txt t2s ")
	if head != "my file.txt" || last != "t2s" {
		t.Errorf("splitLast = %q, %q", head, last)
	}
	if head, last := splitLast("single"); head != "single" || last != "" {
		t.Errorf("splitLast single = %q, %q", head, last)
	}
}
