// Package analysis computes descriptive statistics for the categories of a
// classification tree.
package analysis

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/vanderheijden86/scatterclass/pkg/model"
)

// MarkLookup answers whether a point is marked.
type MarkLookup interface {
	Has(id int64) bool
}

// Summary describes one variable over a set of points. All fields are
// finite so the struct can be encoded as JSON.
type Summary struct {
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"stddev"` // Sample standard deviation, 0 for fewer than 2 points
	Min    float64 `json:"min"`
	Median float64 `json:"median"`
	Max    float64 `json:"max"`
}

// CategoryStats is the statistical profile of a single tree node.
type CategoryStats struct {
	Key         string  `json:"key"`         // Node key (band:... or manual:...)
	Name        string  `json:"name"`        // Display name
	Manual      bool    `json:"manual"`      // True for user selections
	Count       int     `json:"count"`       // Number of points
	Marked      int     `json:"marked"`      // Number of marked points
	Share       float64 `json:"share"`       // Fraction of all points in the tree
	Y           Summary `json:"y"`           // Y distribution
	X           Summary `json:"x"`           // X distribution
	Correlation float64 `json:"correlation"` // Pearson r of X and Y, 0 when undefined
}

// Report bundles per-category stats with the dataset-wide summary.
type Report struct {
	Total      int             `json:"total"`
	Marked     int             `json:"marked"`
	Overall    CategoryStats   `json:"overall"`
	Categories []CategoryStats `json:"categories"`
}

// Compute profiles every non-empty node of tree. marks may be nil.
func Compute(tree model.Tree, marks MarkLookup) Report {
	var rep Report
	var all []model.Point
	for _, node := range tree {
		all = append(all, node.Points...)
	}
	rep.Total = len(all)

	for _, node := range tree {
		if len(node.Points) == 0 {
			continue
		}
		cs := profile(node.Points, marks, rep.Total)
		cs.Key = node.Key
		cs.Name = node.DisplayName
		cs.Manual = node.IsManual
		rep.Categories = append(rep.Categories, cs)
		rep.Marked += cs.Marked
	}

	rep.Overall = profile(all, marks, rep.Total)
	rep.Overall.Key = "all"
	rep.Overall.Name = "All points"
	return rep
}

func profile(points []model.Point, marks MarkLookup, total int) CategoryStats {
	cs := CategoryStats{Count: len(points)}
	if len(points) == 0 {
		return cs
	}
	ys := make([]float64, len(points))
	xs := make([]float64, len(points))
	for i, p := range points {
		ys[i] = p.Y
		xs[i] = p.X
		if marks != nil && marks.Has(p.ID) {
			cs.Marked++
		}
	}
	if total > 0 {
		cs.Share = float64(len(points)) / float64(total)
	}
	cs.Y = summarize(ys)
	cs.X = summarize(xs)
	if len(points) > 1 {
		cs.Correlation = finite(stat.Correlation(xs, ys, nil))
	}
	return cs
}

func summarize(values []float64) Summary {
	var s Summary
	if len(values) == 0 {
		return s
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	s.Min = floats.Min(sorted)
	s.Max = floats.Max(sorted)
	s.Median = stat.Quantile(0.5, stat.Empirical, sorted, nil)
	if len(values) < 2 {
		s.Mean = values[0]
		return s
	}
	mean, std := stat.MeanStdDev(values, nil)
	s.Mean = mean
	s.StdDev = finite(std)
	return s
}

// finite maps NaN and ±Inf (constant series, zero variance) to 0.
func finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
