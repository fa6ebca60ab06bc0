package ui

import (
	"github.com/sahilm/fuzzy"

	"github.com/vanderheijden86/scatterclass/pkg/model"
)

// searchPoints fuzzy-matches pattern against labels and returns matching
// point ids, best match first.
func searchPoints(points []model.Point, pattern string) []int64 {
	if pattern == "" {
		return nil
	}
	labels := make([]string, len(points))
	for i, p := range points {
		labels[i] = p.Label
	}
	matches := fuzzy.Find(pattern, labels)
	ids := make([]int64, len(matches))
	for i, m := range matches {
		ids[i] = points[m.Index].ID
	}
	return ids
}
