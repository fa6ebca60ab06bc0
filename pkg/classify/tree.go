package classify

import (
	"github.com/vanderheijden86/scatterclass/pkg/model"
)

// BuildTree resolves every live point to exactly one category. Manual
// categories win: their non-empty members come first in creation order.
// Points not claimed by any manual category are bucketed into bands, and
// non-empty bands follow in ascending Y order. Band names and point order
// come from the overrides in order.
func BuildTree(store *Store, bander *Bander, assigner *Assigner, order *Order) model.Tree {
	var tree model.Tree
	claimed := make(map[int64]bool)

	for _, cat := range assigner.Categories() {
		node := model.CategoryNode{
			Key:         cat.Key(),
			DisplayName: cat.Name,
			IsManual:    true,
			Color:       cat.Color,
		}
		for _, id := range cat.Members {
			p, ok := store.Get(id)
			if !ok || claimed[id] {
				continue
			}
			claimed[id] = true
			node.Points = append(node.Points, p)
		}
		if len(node.Points) > 0 {
			tree = append(tree, node)
		}
	}

	var remaining []model.Point
	for _, p := range store.Points() {
		if !claimed[p.ID] {
			remaining = append(remaining, p)
		}
	}
	if len(remaining) == 0 {
		return tree
	}

	for _, bucket := range bander.Bucket(remaining) {
		if len(bucket.Points) == 0 {
			continue
		}
		key := bucket.Band.Key()
		name := bucket.Band.Label
		if custom, ok := order.Name(key); ok {
			name = custom
		}
		tree = append(tree, model.CategoryNode{
			Key:         key,
			DisplayName: name,
			Lower:       bucket.Band.Lower,
			Upper:       bucket.Band.Upper,
			Points:      reorderPoints(bucket.Points, order.Apply(key, pointIDs(bucket.Points))),
		})
	}
	return tree
}

func pointIDs(points []model.Point) []int64 {
	ids := make([]int64, len(points))
	for i, p := range points {
		ids[i] = p.ID
	}
	return ids
}

func reorderPoints(points []model.Point, ids []int64) []model.Point {
	byID := make(map[int64]model.Point, len(points))
	for _, p := range points {
		byID[p.ID] = p
	}
	out := make([]model.Point, 0, len(ids))
	for _, id := range ids {
		out = append(out, byID[id])
	}
	return out
}
