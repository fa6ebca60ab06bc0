package classify

import "sort"

// Marks is the set of flagged point ids. Marking is independent of category
// membership.
type Marks struct {
	ids map[int64]struct{}
}

// NewMarks returns an empty mark set.
func NewMarks() *Marks {
	return &Marks{ids: make(map[int64]struct{})}
}

// Toggle flips a batch as a unit: if any id is unmarked every id becomes
// marked, otherwise every id is unmarked. It returns the resulting state.
// An empty batch is a no-op that reports false.
func (m *Marks) Toggle(ids ...int64) bool {
	if len(ids) == 0 {
		return false
	}
	anyUnmarked := false
	for _, id := range ids {
		if !m.Has(id) {
			anyUnmarked = true
			break
		}
	}
	for _, id := range ids {
		if anyUnmarked {
			m.ids[id] = struct{}{}
		} else {
			delete(m.ids, id)
		}
	}
	return anyUnmarked
}

// Remove unmarks ids; used when points are deleted.
func (m *Marks) Remove(ids ...int64) {
	for _, id := range ids {
		delete(m.ids, id)
	}
}

// Has reports whether id is marked.
func (m *Marks) Has(id int64) bool {
	_, ok := m.ids[id]
	return ok
}

// Len returns the number of marked ids.
func (m *Marks) Len() int {
	return len(m.ids)
}

// IDs returns marked ids in ascending order.
func (m *Marks) IDs() []int64 {
	out := make([]int64, 0, len(m.ids))
	for id := range m.ids {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Clear unmarks everything.
func (m *Marks) Clear() {
	m.ids = make(map[int64]struct{})
}
