// Package classify is the classification engine: a point store, automatic
// Y-threshold bands, manual selections that override them, per-point marks
// and the user's naming/ordering overrides.
//
// A Session owns one loaded dataset. Mutations are serialized by a write
// lock; Tree, Report and other reads share a read lock.
package classify

import (
	"errors"
	"strings"
	"sync"

	"github.com/vanderheijden86/scatterclass/pkg/config"
	"github.com/vanderheijden86/scatterclass/pkg/debug"
	"github.com/vanderheijden86/scatterclass/pkg/loader"
	"github.com/vanderheijden86/scatterclass/pkg/metrics"
	"github.com/vanderheijden86/scatterclass/pkg/model"
	"github.com/vanderheijden86/scatterclass/pkg/report"
)

// Options configures a Session.
type Options struct {
	Precision         int
	Palette           []string
	Labels            BandLabels
	SelectionTemplate string
}

// DefaultOptions matches config.DefaultConfig.
func DefaultOptions() Options {
	return OptionsFromConfig(config.DefaultConfig())
}

// OptionsFromConfig extracts engine options from the app config.
func OptionsFromConfig(cfg config.Config) Options {
	return Options{
		Precision: cfg.Precision,
		Palette:   cfg.Palette,
		Labels: BandLabels{
			Below:    cfg.Labels.Below,
			Between:  cfg.Labels.Between,
			Above:    cfg.Labels.Above,
			Unbanded: cfg.Labels.Unbanded,
		},
		SelectionTemplate: cfg.Labels.Selection,
	}
}

// Session is the engine state for one dataset.
type Session struct {
	mu       sync.RWMutex
	opts     Options
	store    *Store
	bander   *Bander
	assigner *Assigner
	marks    *Marks
	order    *Order
}

// NewSession creates an empty session.
func NewSession(opts Options) *Session {
	s := &Session{opts: opts, store: NewStore()}
	s.resetDerived()
	return s
}

func (s *Session) resetDerived() {
	s.bander = NewBander(s.opts.Precision, s.opts.Labels)
	s.assigner = NewAssigner(s.opts.Palette, s.opts.SelectionTemplate)
	s.marks = NewMarks()
	s.order = NewOrder()
}

// Import replaces the dataset with rows and clears categories, marks,
// thresholds and custom names. With no rows it returns ErrEmptyImport and
// the previous state stays intact.
func (s *Session) Import(rows []model.Row) (int, error) {
	defer metrics.Timer(metrics.Import)()
	if len(rows) == 0 {
		metrics.EmptyImports.Inc()
		return 0, ErrEmptyImport
	}

	// Build the replacement before taking the lock so readers never see a
	// half-imported dataset.
	store := NewStore()
	n, err := store.Import(rows)
	if err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.store = store
	s.resetDerived()
	debug.Log("import: %d points", n)
	return n, nil
}

// ImportText parses import text and imports it. Skipped lines are reported
// to warn (may be nil for silence).
func (s *Session) ImportText(text string, warn func(string)) (int, error) {
	if warn == nil {
		warn = func(string) {}
	}
	rows, err := loader.ParseText(text, loader.ParseOptions{
		WarningHandler: func(msg string) {
			metrics.ParseSkips.Inc()
			warn(msg)
		},
	})
	if err != nil {
		if errors.Is(err, loader.ErrNoRows) {
			metrics.EmptyImports.Inc()
		}
		return 0, err
	}
	return s.Import(rows)
}

// Reset clears categories, marks, thresholds and custom names but keeps the
// points.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resetDerived()
	debug.Log("reset: kept %d points", s.store.Len())
}

// AddPoint validates the text fields and inserts a point at display position
// at. Invalid input returns a *FieldError and changes nothing.
func (s *Session) AddPoint(label, yText, xText string, at int) (model.Point, error) {
	label = strings.TrimSpace(label)
	if label == "" {
		metrics.RejectedFields.Inc()
		return model.Point{}, &FieldError{Field: "label", Value: label, Err: ErrEmptyLabel}
	}
	y, err := loader.ParseNumber(yText)
	if err != nil {
		metrics.RejectedFields.Inc()
		return model.Point{}, &FieldError{Field: "y", Value: yText, Err: ErrInvalidNumericField}
	}
	x, err := loader.ParseNumber(xText)
	if err != nil {
		metrics.RejectedFields.Inc()
		return model.Point{}, &FieldError{Field: "x", Value: xText, Err: ErrInvalidNumericField}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.store.Insert(label, y, x, at)
	debug.Log("add point: id=%d label=%q at=%d", p.ID, p.Label, at)
	return p, nil
}

// DeletePoints removes points and purges them from marks, manual categories
// and saved orders. Categories left empty are dropped. It returns the ids
// that were removed.
func (s *Session) DeletePoints(ids ...int64) []int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := s.store.Delete(ids...)
	if len(removed) == 0 {
		return nil
	}
	s.marks.Remove(removed...)
	s.assigner.Purge(removed...)
	dropped := s.assigner.Prune()
	s.order.Forget(removed...)
	debug.Log("delete: %d points, %d categories emptied", len(removed), len(dropped))
	return removed
}

// AddThreshold adds a rounded cut value. added is false when the rounded
// value already existed.
func (s *Session) AddThreshold(v float64) (stored float64, added bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bander.Add(v)
}

// RemoveThreshold removes the cut nearest y when it is within maxDistance.
// ok is false on a tolerance miss; nothing changes then.
func (s *Session) RemoveThreshold(y, maxDistance float64) (removed float64, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	removed, ok = s.bander.RemoveNearest(y, maxDistance)
	if !ok {
		metrics.ToleranceMiss.Inc()
	}
	return removed, ok
}

// ClearThresholds removes every cut.
func (s *Session) ClearThresholds() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bander.RemoveAll()
}

// Thresholds returns the sorted cut values.
func (s *Session) Thresholds() []float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.bander.Cuts()
}

// FormatValue renders v at the session's display precision.
func (s *Session) FormatValue(v float64) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.bander.Format(v)
}

// Select creates a manual category from ids (as reported by a selection
// collaborator). Unknown ids are ignored; members take display order.
func (s *Session) Select(ids []int64, name string) (model.ManualCategory, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	live := s.store.sortByPosition(ids)
	cat, err := s.assigner.Assign(live, name)
	if err != nil {
		return cat, err
	}
	debug.Log("select: %q owns %d points", cat.Name, len(cat.Members))
	return cat, nil
}

// ToggleMarks applies the batch toggle to the live ids in ids and returns
// the resulting state.
func (s *Session) ToggleMarks(ids ...int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	live := s.store.sortByPosition(ids)
	if len(live) == 0 {
		return false, ErrEmptySelection
	}
	return s.marks.Toggle(live...), nil
}

// IsMarked reports whether a point is marked.
func (s *Session) IsMarked(id int64) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.marks.Has(id)
}

// Point returns a live point.
func (s *Session) Point(id int64) (model.Point, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.store.Get(id)
}

// Points returns all points in display order.
func (s *Session) Points() []model.Point {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.store.Points()
}

// Position returns a point's display index, or -1.
func (s *Session) Position(id int64) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.store.Position(id)
}

// YRange returns the Y extent of the dataset.
func (s *Session) YRange() (lo, hi float64, ok bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.store.YRange()
}

// Len returns the number of live points.
func (s *Session) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.store.Len()
}

// Categories returns the manual categories in creation order.
func (s *Session) Categories() []model.ManualCategory {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.assigner.Categories()
}

// Tree builds the current category tree.
func (s *Session) Tree() model.Tree {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tree()
}

func (s *Session) tree() model.Tree {
	defer metrics.Timer(metrics.Bucket)()
	return BuildTree(s.store, s.bander, s.assigner, s.order)
}

// Report renders the report text for the current tree and marks.
func (s *Session) Report() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return report.Render(s.tree(), s.marks)
}

// ExportText renders the report without category headers.
func (s *Session) ExportText() string {
	return report.StripHeaders(s.Report())
}
