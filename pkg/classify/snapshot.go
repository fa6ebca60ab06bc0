package classify

import (
	"math"

	"github.com/vanderheijden86/scatterclass/pkg/model"
)

// NodeSnapshot is a JSON-friendly view of a category node.
type NodeSnapshot struct {
	Key    string        `json:"key"`
	Name   string        `json:"name"`
	Manual bool          `json:"manual"`
	Color  string        `json:"color,omitempty"`
	Lower  *float64      `json:"lower,omitempty"` // nil for -inf and manual nodes
	Upper  *float64      `json:"upper,omitempty"` // nil for +inf and manual nodes
	Points []PointStatus `json:"points"`
}

// PointStatus is a point plus its mark flag.
type PointStatus struct {
	model.Point
	Marked bool `json:"marked"`
}

// Snapshot is the full observable session state.
type Snapshot struct {
	PointCount int                    `json:"point_count"`
	Thresholds []float64              `json:"thresholds"`
	Categories []model.ManualCategory `json:"categories"`
	Marked     []int64                `json:"marked"`
	Tree       []NodeSnapshot         `json:"tree"`
}

// Snapshot captures the current state under one read lock.
func (s *Session) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := Snapshot{
		PointCount: s.store.Len(),
		Thresholds: s.bander.Cuts(),
		Categories: s.assigner.Categories(),
		Marked:     s.marks.IDs(),
	}
	for _, node := range s.tree() {
		ns := NodeSnapshot{
			Key:    node.Key,
			Name:   node.DisplayName,
			Manual: node.IsManual,
			Color:  node.Color,
		}
		if !node.IsManual {
			ns.Lower = finitePtr(node.Lower)
			ns.Upper = finitePtr(node.Upper)
		}
		for _, p := range node.Points {
			ns.Points = append(ns.Points, PointStatus{Point: p, Marked: s.marks.Has(p.ID)})
		}
		snap.Tree = append(snap.Tree, ns)
	}
	return snap
}

func finitePtr(v float64) *float64 {
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return nil
	}
	return &v
}
