package model

import (
	"fmt"
	"math"
	"strings"
)

// Point is a labeled sample on the Y/X plane. ID is issued by the point store
// and stays valid until the point is deleted; it is never a display index.
type Point struct {
	ID    int64   `json:"id"`
	Label string  `json:"label"`
	Y     float64 `json:"y"`
	X     float64 `json:"x"`
}

// Row is one parsed import record before it receives an identity.
type Row struct {
	Label string  `json:"label"`
	Y     float64 `json:"y"`
	X     float64 `json:"x"`
	Line  int     `json:"line,omitempty"` // Source line number (1-based), 0 if unknown
}

// Validate checks that a row can become a point.
func (r Row) Validate() error {
	if strings.TrimSpace(r.Label) == "" {
		return fmt.Errorf("label cannot be empty")
	}
	if math.IsNaN(r.Y) || math.IsInf(r.Y, 0) {
		return fmt.Errorf("y must be finite, got %v", r.Y)
	}
	if math.IsNaN(r.X) || math.IsInf(r.X, 0) {
		return fmt.Errorf("x must be finite, got %v", r.X)
	}
	return nil
}

// ManualCategory is a user-created group defined by explicit point membership.
// Members holds the category's display order; a point id appears in at most
// one manual category.
type ManualCategory struct {
	ID            int64   `json:"id"`
	Name          string  `json:"name"`
	Members       []int64 `json:"members"`
	Color         string  `json:"color"`
	CreationOrder int     `json:"creation_order"`
}

// Key returns the stable node key of the category.
func (c ManualCategory) Key() string {
	return ManualKey(c.ID)
}

// Clone returns a deep copy.
func (c ManualCategory) Clone() ManualCategory {
	clone := c
	if c.Members != nil {
		clone.Members = make([]int64, len(c.Members))
		copy(clone.Members, c.Members)
	}
	return clone
}

// ManualKey is the node key for a manual category id.
func ManualKey(id int64) string {
	return fmt.Sprintf("manual:%d", id)
}

// Band is a half-open Y interval [Lower, Upper). Lower may be -Inf and Upper
// may be +Inf.
type Band struct {
	Lower float64 `json:"-"`
	Upper float64 `json:"-"`
	Label string  `json:"label"`
}

// Contains reports whether y falls in the band. A value equal to Lower belongs
// to the band; a value equal to Upper belongs to the next one.
func (b Band) Contains(y float64) bool {
	return y >= b.Lower && y < b.Upper
}

// Key returns a key derived from the band boundaries. Two bands with the same
// boundaries share a key across threshold edits.
func (b Band) Key() string {
	return "band:" + formatBound(b.Lower) + ":" + formatBound(b.Upper)
}

func formatBound(v float64) string {
	switch {
	case math.IsInf(v, -1):
		return "-inf"
	case math.IsInf(v, 1):
		return "+inf"
	default:
		return fmt.Sprintf("%g", v)
	}
}

// CategoryNode is one entry of a rendered category tree.
type CategoryNode struct {
	Key         string  `json:"key"`
	DisplayName string  `json:"name"`
	IsManual    bool    `json:"manual"`
	Color       string  `json:"color,omitempty"`
	Lower       float64 `json:"-"`
	Upper       float64 `json:"-"`
	Points      []Point `json:"points"`
}

// PointIDs returns the node's point ids in display order.
func (n CategoryNode) PointIDs() []int64 {
	ids := make([]int64, len(n.Points))
	for i, p := range n.Points {
		ids[i] = p.ID
	}
	return ids
}

// Tree is the ordered sequence of non-empty category nodes: manual categories
// in creation order, then bands in ascending Y order.
type Tree []CategoryNode

// Find returns the node with the given key.
func (t Tree) Find(key string) (CategoryNode, bool) {
	for _, n := range t {
		if n.Key == key {
			return n, true
		}
	}
	return CategoryNode{}, false
}

// NodeOf returns the key of the node holding the point.
func (t Tree) NodeOf(id int64) (string, bool) {
	for _, n := range t {
		for _, p := range n.Points {
			if p.ID == id {
				return n.Key, true
			}
		}
	}
	return "", false
}

// PointCount returns the number of points across all nodes.
func (t Tree) PointCount() int {
	total := 0
	for _, n := range t {
		total += len(n.Points)
	}
	return total
}
