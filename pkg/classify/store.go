package classify

import (
	"math"

	"github.com/vanderheijden86/scatterclass/pkg/model"
)

// Store is an ordered collection of points with stable identity. Points live
// in an arena keyed by a monotonic id; display order is a separate id slice,
// so inserting or deleting never renumbers a surviving point.
type Store struct {
	points map[int64]model.Point
	order  []int64
	nextID int64
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{points: make(map[int64]model.Point)}
}

// Import replaces every point with rows, re-issuing ids from 0. An empty
// rows slice returns ErrEmptyImport and leaves the store untouched.
func (s *Store) Import(rows []model.Row) (int, error) {
	if len(rows) == 0 {
		return 0, ErrEmptyImport
	}
	points := make(map[int64]model.Point, len(rows))
	order := make([]int64, 0, len(rows))
	for i, r := range rows {
		id := int64(i)
		points[id] = model.Point{ID: id, Label: r.Label, Y: r.Y, X: r.X}
		order = append(order, id)
	}
	s.points = points
	s.order = order
	s.nextID = int64(len(rows))
	return len(rows), nil
}

// Insert adds a point at display position at (clamped to [0, Len()]) and
// returns it with its new id.
func (s *Store) Insert(label string, y, x float64, at int) model.Point {
	p := model.Point{ID: s.nextID, Label: label, Y: y, X: x}
	s.nextID++
	s.points[p.ID] = p

	at = clamp(at, 0, len(s.order))
	s.order = append(s.order, 0)
	copy(s.order[at+1:], s.order[at:])
	s.order[at] = p.ID
	return p
}

// Delete removes the given points and returns the ids that actually existed.
func (s *Store) Delete(ids ...int64) []int64 {
	var removed []int64
	for _, id := range ids {
		if _, ok := s.points[id]; ok {
			delete(s.points, id)
			removed = append(removed, id)
		}
	}
	if len(removed) == 0 {
		return nil
	}
	kept := s.order[:0]
	for _, id := range s.order {
		if _, ok := s.points[id]; ok {
			kept = append(kept, id)
		}
	}
	s.order = kept
	return removed
}

// Get returns the point with the given id.
func (s *Store) Get(id int64) (model.Point, bool) {
	p, ok := s.points[id]
	return p, ok
}

// Has reports whether id names a live point.
func (s *Store) Has(id int64) bool {
	_, ok := s.points[id]
	return ok
}

// Len returns the number of live points.
func (s *Store) Len() int {
	return len(s.order)
}

// Position returns the display index of id, or -1.
func (s *Store) Position(id int64) int {
	for i, v := range s.order {
		if v == id {
			return i
		}
	}
	return -1
}

// IDs returns point ids in display order.
func (s *Store) IDs() []int64 {
	ids := make([]int64, len(s.order))
	copy(ids, s.order)
	return ids
}

// Points returns all points in display order.
func (s *Store) Points() []model.Point {
	pts := make([]model.Point, len(s.order))
	for i, id := range s.order {
		pts[i] = s.points[id]
	}
	return pts
}

// YRange returns the smallest and largest Y value. ok is false for an empty store.
func (s *Store) YRange() (lo, hi float64, ok bool) {
	if len(s.order) == 0 {
		return 0, 0, false
	}
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, p := range s.points {
		lo = math.Min(lo, p.Y)
		hi = math.Max(hi, p.Y)
	}
	return lo, hi, true
}

// sortByPosition orders ids by display position, dropping unknown and
// duplicate ids.
func (s *Store) sortByPosition(ids []int64) []int64 {
	want := make(map[int64]bool, len(ids))
	for _, id := range ids {
		if s.Has(id) {
			want[id] = true
		}
	}
	out := make([]int64, 0, len(want))
	for _, id := range s.order {
		if want[id] {
			out = append(out, id)
		}
	}
	return out
}

// moveID returns ids with the element at from moved to index to (clamped).
func moveID(ids []int64, from, to int) []int64 {
	if from < 0 || from >= len(ids) {
		return ids
	}
	id := ids[from]
	out := make([]int64, 0, len(ids))
	out = append(out, ids[:from]...)
	out = append(out, ids[from+1:]...)
	to = clamp(to, 0, len(out))
	out = append(out, 0)
	copy(out[to+1:], out[to:])
	out[to] = id
	return out
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
