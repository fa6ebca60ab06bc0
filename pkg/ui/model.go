// Package ui is the interactive terminal front end over a classify.Session.
package ui

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"math"
	"slices"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/vanderheijden86/scatterclass/internal/datasource"
	"github.com/vanderheijden86/scatterclass/pkg/classify"
	"github.com/vanderheijden86/scatterclass/pkg/config"
	"github.com/vanderheijden86/scatterclass/pkg/debug"
	"github.com/vanderheijden86/scatterclass/pkg/hooks"
	"github.com/vanderheijden86/scatterclass/pkg/loader"
	"github.com/vanderheijden86/scatterclass/pkg/metrics"
	"github.com/vanderheijden86/scatterclass/pkg/model"
	"github.com/vanderheijden86/scatterclass/pkg/report"
	"github.com/vanderheijden86/scatterclass/pkg/watcher"
)

// Clipboard is the system clipboard as seen by the UI.
type Clipboard interface {
	ReadAll() (string, error)
	WriteAll(text string) error
}

type systemClipboard struct{}

func (systemClipboard) ReadAll() (string, error)   { return clipboard.ReadAll() }
func (systemClipboard) WriteAll(text string) error { return clipboard.WriteAll(text) }

// Loader re-reads the import sources after a change on disk.
type Loader func(ctx context.Context) ([]model.Row, error)

// Options configures a Model.
type Options struct {
	Config  config.Config
	Watcher *watcher.Watcher
	Reload  Loader
	// Source is shown in the title bar.
	Source string
	// InitialRows are the rows behind the session's current import. Reloads
	// are diffed against them.
	InitialRows []model.Row
	Clipboard   Clipboard
	// Converter handles "path t2s|s2t" exports. Nil disables conversion.
	Converter report.Converter
	// HooksDir holds .sc/hooks.yaml; empty means the working directory.
	HooksDir string
	NoHooks  bool
}

type viewMode int

const (
	viewTree viewMode = iota
	viewReport
	viewStats
)

// ReloadMsg carries the result of re-reading the sources after a change.
type ReloadMsg struct {
	Rows  []model.Row
	Err   error
	Paths []string
}

type exportDoneMsg struct {
	path  string
	hooks string
	err   error
}

// WatchCmd waits for the next change reported by w and reloads the sources.
func WatchCmd(w *watcher.Watcher, load Loader) tea.Cmd {
	return func() tea.Msg {
		change := <-w.Changes()
		rows, err := load(context.Background())
		return ReloadMsg{Rows: rows, Err: err, Paths: change.Paths}
	}
}

// Model is the bubbletea model.
type Model struct {
	session *classify.Session
	opts    Options
	theme   Theme

	width  int
	height int
	ready  bool
	mode   viewMode

	tree      model.Tree
	rows      []treeRow
	cursor    int
	offset    int
	collapsed map[string]bool
	picked    map[int64]bool

	prompt    promptKind
	input     textinput.Model
	renameKey string

	form     *huh.Form
	formKind formKind
	fields   *formFields

	showHelp bool
	helpText string

	pane viewport.Model

	hits   []int64
	hitIdx int

	lastRows  []model.Row
	status    string
	statusErr bool
}

// NewModel creates the UI over session.
func NewModel(session *classify.Session, opts Options) Model {
	if opts.Clipboard == nil {
		opts.Clipboard = systemClipboard{}
	}
	if opts.Config.ToleranceFraction <= 0 {
		opts.Config.ToleranceFraction = config.DefaultConfig().ToleranceFraction
	}

	m := Model{
		session:   session,
		opts:      opts,
		theme:     DefaultTheme(lipgloss.DefaultRenderer()),
		collapsed: make(map[string]bool),
		picked:    make(map[int64]bool),
		pane:      viewport.New(80, 20),
		lastRows:  opts.InitialRows,
	}
	if opts.Config.UI.DefaultView == "report" {
		m.mode = viewReport
	}
	m.refresh()
	return m
}

// Init starts watching for source changes when a watcher is configured.
func (m Model) Init() tea.Cmd {
	return m.watchCmd()
}

func (m Model) watchCmd() tea.Cmd {
	if m.opts.Watcher == nil || m.opts.Reload == nil {
		return nil
	}
	return WatchCmd(m.opts.Watcher, m.opts.Reload)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case ReloadMsg:
		m.handleReload(msg)
		return m, m.watchCmd()
	case exportDoneMsg:
		m.handleExportDone(msg)
		return m, nil
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
	}

	// huh.Form needs to receive ALL message types, not just keys.
	if m.form != nil {
		return m.updateForm(msg)
	}

	if key, ok := msg.(tea.KeyMsg); ok {
		if m.prompt != promptNone {
			return m.updatePrompt(key)
		}
		if m.showHelp {
			m.showHelp = false
			return m, nil
		}
		return m.handleKey(key)
	}

	if m.prompt != promptNone {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *Model) resize(width, height int) {
	m.width, m.height = width, height
	m.ready = true
	m.pane.Width = max(width-2, 10)
	m.pane.Height = max(height-4, 3)
	if m.showHelp {
		m.helpText = renderHelp(width)
	}
	m.refreshPane()
	m.scrollToCursor()
}

// refresh rebuilds the tree after any session change, keeping the cursor on
// the same point or category when it still exists.
func (m *Model) refresh() {
	anchor, hadAnchor := anchorOf(m.rows, m.cursor)
	m.tree = m.session.Tree()
	m.rows = flattenTree(m.tree, m.collapsed)
	if hadAnchor {
		m.cursor = locate(m.rows, anchor, m.cursor)
	} else {
		m.cursor = max(0, min(m.cursor, len(m.rows)-1))
	}
	for id := range m.picked {
		if _, ok := m.session.Point(id); !ok {
			delete(m.picked, id)
		}
	}
	m.refreshPane()
	m.scrollToCursor()
}

func (m *Model) refreshPane() {
	switch m.mode {
	case viewReport:
		m.pane.SetContent(m.session.Report())
	case viewStats:
		m.pane.SetContent(m.renderStats())
	}
}

func (m *Model) setMode(mode viewMode) {
	m.mode = mode
	m.pane.GotoTop()
	m.refreshPane()
}

func (m Model) treeHeight() int {
	if m.height <= 0 {
		return 20
	}
	return max(m.height-3, 1)
}

func (m *Model) scrollToCursor() {
	h := m.treeHeight()
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if m.cursor >= m.offset+h {
		m.offset = m.cursor - h + 1
	}
	m.offset = max(0, min(m.offset, len(m.rows)-1))
}

func (m *Model) setStatus(format string, args ...any) {
	m.status = fmt.Sprintf(format, args...)
	m.statusErr = false
}

func (m *Model) setError(format string, args ...any) {
	m.status = fmt.Sprintf(format, args...)
	m.statusErr = true
}

func (m Model) currentRow() (treeRow, bool) {
	if m.cursor < 0 || m.cursor >= len(m.rows) {
		return treeRow{}, false
	}
	return m.rows[m.cursor], true
}

func (m Model) currentPoint() (model.Point, bool) {
	r, ok := m.currentRow()
	if !ok || r.kind != rowPoint {
		return model.Point{}, false
	}
	return r.point, true
}

// targets is what a batch action applies to: the pick set if any, else the
// point under the cursor, else every point of the category under the cursor.
func (m Model) targets() []int64 {
	if len(m.picked) > 0 {
		return slices.Sorted(maps.Keys(m.picked))
	}
	r, ok := m.currentRow()
	if !ok {
		return nil
	}
	if r.kind == rowPoint {
		return []int64{r.point.ID}
	}
	return m.tree[r.nodeIdx].PointIDs()
}

// axisMargin pads each side of the plotted Y range, as a plot autoscale does.
const axisMargin = 0.05

// tolerance is the threshold removal distance: a fraction of the visible Y
// axis. The axis covers the data and the cut lines plus axisMargin on each
// side. A range with no spread widens to a tenth of its value (0.1 at zero).
func (m Model) tolerance() float64 {
	lo, hi, ok := m.session.YRange()
	for _, c := range m.session.Thresholds() {
		if !ok {
			lo, hi, ok = c, c, true
			continue
		}
		lo, hi = math.Min(lo, c), math.Max(hi, c)
	}
	if !ok {
		return m.opts.Config.ToleranceFraction
	}
	return axisSpan(lo, hi) * m.opts.Config.ToleranceFraction
}

func axisSpan(lo, hi float64) float64 {
	span := hi - lo
	if span <= 0 {
		if hi == 0 {
			return 0.1
		}
		return 0.1 * math.Abs(hi)
	}
	return span * (1 + 2*axisMargin)
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.status = ""

	switch msg.String() {
	case "ctrl+c", "q":
		return m, tea.Quit
	case "?":
		m.showHelp = true
		m.helpText = renderHelp(m.width)
		return m, nil
	case "v":
		m.setMode((m.mode + 1) % 3)
		return m, nil
	case "esc":
		if m.mode != viewTree {
			m.setMode(viewTree)
		} else if len(m.picked) > 0 {
			clear(m.picked)
			m.setStatus("pick set cleared")
		}
		return m, nil
	case "t":
		return m, m.openPrompt(promptAddThreshold, m.cursorY())
	case "T":
		return m, m.openPrompt(promptRemoveThreshold, m.cursorY())
	case "X":
		n := m.session.ClearThresholds()
		m.refresh()
		m.setStatus("cleared %d threshold(s)", n)
		return m, nil
	case "c":
		m.copyReport()
		return m, nil
	case "p":
		m.pasteImport()
		return m, nil
	case "e":
		return m, m.openPrompt(promptExport, config.LastExportPath())
	case "ctrl+r":
		return m, m.openForm(formReset)
	}

	if m.mode != viewTree {
		var cmd tea.Cmd
		m.pane, cmd = m.pane.Update(msg)
		return m, cmd
	}
	cmd := m.handleTreeKey(msg.String())
	return m, cmd
}

func (m *Model) handleTreeKey(key string) tea.Cmd {
	defer m.scrollToCursor()

	switch key {
	case "j", "down":
		m.cursor = min(m.cursor+1, len(m.rows)-1)
	case "k", "up":
		m.cursor = max(m.cursor-1, 0)
	case "home":
		m.cursor = 0
	case "end", "G":
		m.cursor = len(m.rows) - 1
	case "pgdown", "ctrl+d":
		m.cursor = min(m.cursor+m.treeHeight()/2, len(m.rows)-1)
	case "pgup", "ctrl+u":
		m.cursor = max(m.cursor-m.treeHeight()/2, 0)
	case "enter":
		if r, ok := m.currentRow(); ok {
			m.collapsed[r.nodeKey] = !m.collapsed[r.nodeKey]
			m.refresh()
		}
	case " ", "m":
		m.toggleMarks()
	case "x":
		if p, ok := m.currentPoint(); ok {
			if m.picked[p.ID] {
				delete(m.picked, p.ID)
			} else {
				m.picked[p.ID] = true
			}
			m.cursor = min(m.cursor+1, len(m.rows)-1)
		}
	case "g":
		if len(m.targets()) > 0 {
			return m.openPrompt(promptGroup, "")
		}
	case "r":
		if r, ok := m.currentRow(); ok {
			m.renameKey = r.nodeKey
			return m.openPrompt(promptRename, m.tree[r.nodeIdx].DisplayName)
		}
	case "a":
		return m.openForm(formAddPoint)
	case "d":
		m.deleteTargets()
	case "J":
		m.shiftPoint(+1)
	case "K":
		m.shiftPoint(-1)
	case "<":
		m.dropAdjacent(-1)
	case ">":
		m.dropAdjacent(+1)
	case "/":
		return m.openPrompt(promptSearch, "")
	case "n":
		m.nextHit(+1)
	case "N":
		m.nextHit(-1)
	}
	m.cursor = max(m.cursor, 0)
	return nil
}

func (m Model) cursorY() string {
	if p, ok := m.currentPoint(); ok {
		return fmt.Sprintf("%g", p.Y)
	}
	return ""
}

func (m *Model) openPrompt(kind promptKind, value string) tea.Cmd {
	m.prompt = kind
	m.input = newPromptInput(kind, value, m.width)
	return textinput.Blink
}

func (m Model) updatePrompt(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "ctrl+c":
		m.prompt = promptNone
		return m, nil
	case "enter":
		kind, value := m.prompt, strings.TrimSpace(m.input.Value())
		m.prompt = promptNone
		if value == "" && !kind.allowEmpty() {
			return m, nil
		}
		return m, m.submitPrompt(kind, value)
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) submitPrompt(kind promptKind, value string) tea.Cmd {
	switch kind {
	case promptAddThreshold:
		v, err := loader.ParseNumber(value)
		if err != nil {
			m.setError("threshold: %v", err)
			return nil
		}
		stored, added := m.session.AddThreshold(v)
		m.refresh()
		if added {
			m.setStatus("threshold %s added", m.session.FormatValue(stored))
		} else {
			m.setStatus("threshold %s already set", m.session.FormatValue(stored))
		}

	case promptRemoveThreshold:
		y, err := loader.ParseNumber(value)
		if err != nil {
			m.setError("threshold: %v", err)
			return nil
		}
		tol := m.tolerance()
		removed, ok := m.session.RemoveThreshold(y, tol)
		if !ok {
			m.setError("no threshold within %.4g of %g", tol, y)
			return nil
		}
		m.refresh()
		m.setStatus("threshold %s removed", m.session.FormatValue(removed))

	case promptRename:
		if err := m.session.RenameNode(m.renameKey, value); err != nil {
			m.setError("rename: %v", err)
			return nil
		}
		m.refresh()
		m.setStatus("renamed to %q", value)

	case promptGroup:
		cat, err := m.session.Select(m.targets(), value)
		if err != nil {
			m.setError("group: %v", err)
			return nil
		}
		clear(m.picked)
		m.refresh()
		m.setStatus("%s now holds %d point(s)", cat.Name, len(cat.Members))

	case promptExport:
		cmd, err := m.exportCmd(value)
		if err != nil {
			m.setError("export: %v", err)
			return nil
		}
		m.setStatus("exporting...")
		return cmd

	case promptSearch:
		m.hits = searchPoints(m.session.Points(), value)
		m.hitIdx = -1
		if len(m.hits) == 0 {
			m.setError("no match for %q", value)
			return nil
		}
		m.nextHit(+1)
	}
	return nil
}

func (m *Model) toggleMarks() {
	ids := m.targets()
	if len(ids) == 0 {
		return
	}
	on, err := m.session.ToggleMarks(ids...)
	if err != nil {
		m.setError("mark: %v", err)
		return
	}
	m.refresh()
	if on {
		m.setStatus("marked %d point(s)", len(ids))
	} else {
		m.setStatus("unmarked %d point(s)", len(ids))
	}
}

func (m *Model) deleteTargets() {
	ids := m.targets()
	if len(ids) == 0 {
		return
	}
	removed := m.session.DeletePoints(ids...)
	clear(m.picked)
	m.refresh()
	m.setStatus("deleted %d point(s)", len(removed))
}

func (m *Model) shiftPoint(delta int) {
	p, ok := m.currentPoint()
	if !ok {
		return
	}
	var err error
	if delta < 0 {
		err = m.session.MoveUp(p.ID)
	} else {
		err = m.session.MoveDown(p.ID)
	}
	if err != nil {
		m.setError("move: %v", err)
		return
	}
	m.refresh()
}

// dropAdjacent drops the current point at the end of the previous or next
// category.
func (m *Model) dropAdjacent(delta int) {
	r, ok := m.currentRow()
	if !ok || r.kind != rowPoint {
		return
	}
	target := r.nodeIdx + delta
	if target < 0 || target >= len(m.tree) {
		return
	}
	node := m.tree[target]
	err := m.session.Drop(r.point.ID, node.Key, len(node.Points))
	if errors.Is(err, classify.ErrBandDrop) {
		m.setError("%q follows its Y value; group it with g to move it", r.point.Label)
		return
	}
	if err != nil {
		m.setError("drop: %v", err)
		return
	}
	m.refresh()
	m.focusPoint(r.point.ID)
	m.setStatus("moved %q to %s", r.point.Label, node.DisplayName)
}

// focusPoint puts the cursor on a point, expanding its category if needed.
func (m *Model) focusPoint(id int64) {
	key, ok := m.tree.NodeOf(id)
	if !ok {
		return
	}
	if m.collapsed[key] {
		delete(m.collapsed, key)
		m.rows = flattenTree(m.tree, m.collapsed)
	}
	for i, r := range m.rows {
		if r.kind == rowPoint && r.point.ID == id {
			m.cursor = i
			break
		}
	}
	m.scrollToCursor()
}

func (m *Model) nextHit(delta int) {
	if len(m.hits) == 0 {
		return
	}
	m.hitIdx = (m.hitIdx + delta + len(m.hits)) % len(m.hits)
	m.focusPoint(m.hits[m.hitIdx])
	m.setStatus("match %d/%d", m.hitIdx+1, len(m.hits))
}

func (m *Model) copyReport() {
	text := m.session.Report()
	if err := m.opts.Clipboard.WriteAll(text); err != nil {
		m.setError("copy: %v", err)
		return
	}
	m.setStatus("report copied (%d lines)", strings.Count(text, "\n"))
}

// pasteImport replaces the dataset with the clipboard contents. An empty or
// unparsable clipboard leaves everything as it was.
func (m *Model) pasteImport() {
	text, err := m.opts.Clipboard.ReadAll()
	if err != nil {
		m.setError("paste: %v", err)
		return
	}
	skipped := 0
	rows, err := loader.ParseText(text, loader.ParseOptions{
		WarningHandler: func(msg string) {
			skipped++
			metrics.ParseSkips.Inc()
			debug.Log("paste: %s", msg)
		},
	})
	if errors.Is(err, loader.ErrNoRows) {
		metrics.EmptyImports.Inc()
		m.setError("clipboard has no valid rows; nothing changed")
		return
	}
	if err != nil {
		m.setError("paste: %v", err)
		return
	}
	n, err := m.session.Import(rows)
	if err != nil {
		m.setError("import: %v", err)
		return
	}
	m.lastRows = rows
	m.resetView()
	if skipped > 0 {
		m.setStatus("imported %d point(s), skipped %d line(s)", n, skipped)
	} else {
		m.setStatus("imported %d point(s)", n)
	}
}

func (m *Model) resetView() {
	clear(m.collapsed)
	clear(m.picked)
	m.hits = nil
	m.cursor = 0
	m.rows = nil
	m.refresh()
}

func (m *Model) handleReload(msg ReloadMsg) {
	if msg.Err != nil {
		m.setError("reload: %v (keeping current data)", msg.Err)
		return
	}
	diff := datasource.DiffRows(m.lastRows, msg.Rows)
	if !diff.HasChanges() {
		m.setStatus("reloaded: %s", diff.Summary())
		return
	}
	if _, err := m.session.Import(msg.Rows); err != nil {
		m.setError("reload: %v (keeping current data)", err)
		return
	}
	m.lastRows = msg.Rows
	m.resetView()
	m.setStatus("reloaded: %s", diff.Summary())
	debug.Log("ui: reload after change in %v", msg.Paths)
}

func (m Model) exportCmd(value string) (tea.Cmd, error) {
	path, dir := value, report.Direction("")
	if head, last := splitLast(value); head != "" {
		if d, err := report.ParseDirection(last); err == nil {
			path, dir = head, d
		}
	}
	var opts report.ExportOptions
	if dir != "" {
		if m.opts.Converter == nil {
			return nil, errors.New("no converter configured (set converter.command)")
		}
		opts.Converter, opts.Direction = m.opts.Converter, dir
	}
	rendered := m.session.Report()
	hookCtx := hooks.ExportContext{
		ExportPath:    path,
		Direction:     string(dir),
		PointCount:    m.session.Len(),
		CategoryCount: len(m.tree),
		Timestamp:     time.Now(),
	}
	hooksDir, noHooks := m.opts.HooksDir, m.opts.NoHooks
	return func() tea.Msg {
		runner, err := hooks.RunHooks(hooksDir, hookCtx, noHooks)
		if err != nil {
			return exportDoneMsg{path: path, err: err}
		}
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		err = runner.Around(func() error {
			return report.Export(ctx, path, rendered, opts)
		})
		msg := exportDoneMsg{path: path, err: err}
		if runner != nil {
			msg.hooks = runner.Summary()
		}
		return msg
	}, nil
}

func (m *Model) handleExportDone(msg exportDoneMsg) {
	if msg.err != nil {
		m.setError("export: %v", msg.err)
		return
	}
	if err := config.SaveLastExportPath(msg.path); err != nil {
		debug.Log("ui: remember export path: %v", err)
	}
	if msg.hooks != "" {
		debug.Log("ui: %s", msg.hooks)
		m.setStatus("exported to %s (%s)", msg.path, firstLine(msg.hooks))
		return
	}
	m.setStatus("exported to %s", msg.path)
}

func (m *Model) openForm(kind formKind) tea.Cmd {
	m.fields = &formFields{}
	switch kind {
	case formAddPoint:
		m.fields.At = m.session.Len()
		if p, ok := m.currentPoint(); ok {
			m.fields.At = m.session.Position(p.ID) + 1
		}
		m.form = newAddPointForm(m.fields)
	case formReset:
		m.form = newResetForm(m.fields)
	default:
		return nil
	}
	m.formKind = kind
	m.form = m.form.WithWidth(max(min(m.width-4, 72), 30))
	return m.form.Init()
}

func (m *Model) closeForm() {
	m.form = nil
	m.formKind = formNone
}

func (m Model) updateForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok && key.String() == "esc" {
		m.closeForm()
		m.setStatus("cancelled")
		return m, nil
	}

	updated, cmd := m.form.Update(msg)
	if f, ok := updated.(*huh.Form); ok {
		m.form = f
	}

	switch m.form.State {
	case huh.StateCompleted:
		kind, fields := m.formKind, m.fields
		m.closeForm()
		m.submitForm(kind, fields)
		return m, nil
	case huh.StateAborted:
		m.closeForm()
		m.setStatus("cancelled")
		return m, nil
	}
	return m, cmd
}

func (m *Model) submitForm(kind formKind, f *formFields) {
	switch kind {
	case formAddPoint:
		p, err := m.session.AddPoint(f.Label, f.Y, f.X, f.At)
		if err != nil {
			m.setError("add point: %v", err)
			return
		}
		m.refresh()
		m.focusPoint(p.ID)
		m.setStatus("added %q", p.Label)

	case formReset:
		if !f.Confirm {
			m.setStatus("reset cancelled")
			return
		}
		m.session.Reset()
		m.resetView()
		m.setStatus("reset: kept %d point(s)", m.session.Len())
	}
}
