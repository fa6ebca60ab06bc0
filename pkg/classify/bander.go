package classify

import (
	"fmt"
	"math"
	"sort"
	"strconv"

	"github.com/vanderheijden86/scatterclass/pkg/model"
)

// BandLabels holds the label templates for automatic bands.
type BandLabels struct {
	Below    string // "Below %s"
	Between  string // "%s ~ %s"
	Above    string // "Above %s"
	Unbanded string // label of the single band when there are no cuts
}

// DefaultBandLabels mirrors config.DefaultConfig().Labels.
var DefaultBandLabels = BandLabels{
	Below:    "Below %s",
	Between:  "%s ~ %s",
	Above:    "Above %s",
	Unbanded: "Unselected",
}

// Bander keeps a sorted set of distinct Y cut values and partitions points
// into half-open bands: (-inf, t0), [t0, t1), ..., [t(n-1), +inf).
type Bander struct {
	cuts      []float64
	precision int
	labels    BandLabels
}

// BandBucket is one band and the points that fall in it, in input order.
type BandBucket struct {
	Band   model.Band
	Points []model.Point
}

// NewBander creates a bander rounding cuts to precision decimals.
func NewBander(precision int, labels BandLabels) *Bander {
	if precision < 0 {
		precision = 0
	}
	return &Bander{precision: precision, labels: labels}
}

// Round rounds v to the display precision. Ties are decided on the exact
// binary value of v, so 2.25 rounds to 2.2 and 0.35 (stored just below) to
// 0.3. Negative zero collapses to zero.
func (b *Bander) Round(v float64) float64 {
	f, err := strconv.ParseFloat(strconv.FormatFloat(v, 'f', b.precision, 64), 64)
	if err != nil || f == 0 {
		return 0
	}
	return f
}

// Format renders v at the display precision.
func (b *Bander) Format(v float64) string {
	return strconv.FormatFloat(v, 'f', b.precision, 64)
}

// Add rounds v and inserts it. It returns the stored value and false when
// that value was already present or v is not finite.
func (b *Bander) Add(v float64) (float64, bool) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return v, false
	}
	v = b.Round(v)
	i := sort.SearchFloat64s(b.cuts, v)
	if i < len(b.cuts) && b.cuts[i] == v {
		return v, false
	}
	b.cuts = append(b.cuts, 0)
	copy(b.cuts[i+1:], b.cuts[i:])
	b.cuts[i] = v
	return v, true
}

// RemoveNearest removes the cut closest to y if it lies strictly within
// maxDistance. ok is false when nothing was close enough (a tolerance miss)
// or there are no cuts.
func (b *Bander) RemoveNearest(y, maxDistance float64) (removed float64, ok bool) {
	if len(b.cuts) == 0 {
		return 0, false
	}
	best := 0
	for i, c := range b.cuts {
		if math.Abs(c-y) < math.Abs(b.cuts[best]-y) {
			best = i
		}
	}
	if !(math.Abs(b.cuts[best]-y) < maxDistance) {
		return b.cuts[best], false
	}
	removed = b.cuts[best]
	b.cuts = append(b.cuts[:best], b.cuts[best+1:]...)
	return removed, true
}

// RemoveAll clears every cut and returns how many were removed.
func (b *Bander) RemoveAll() int {
	n := len(b.cuts)
	b.cuts = nil
	return n
}

// Cuts returns a copy of the sorted cut values.
func (b *Bander) Cuts() []float64 {
	out := make([]float64, len(b.cuts))
	copy(out, b.cuts)
	return out
}

// Bands returns every band in ascending Y order, including empty ones.
func (b *Bander) Bands() []model.Band {
	if len(b.cuts) == 0 {
		return []model.Band{{Lower: math.Inf(-1), Upper: math.Inf(1), Label: b.labels.Unbanded}}
	}
	n := len(b.cuts)
	bands := make([]model.Band, 0, n+1)
	bands = append(bands, model.Band{
		Lower: math.Inf(-1),
		Upper: b.cuts[0],
		Label: fmt.Sprintf(b.labels.Below, b.Format(b.cuts[0])),
	})
	for i := 0; i < n-1; i++ {
		bands = append(bands, model.Band{
			Lower: b.cuts[i],
			Upper: b.cuts[i+1],
			Label: fmt.Sprintf(b.labels.Between, b.Format(b.cuts[i]), b.Format(b.cuts[i+1])),
		})
	}
	bands = append(bands, model.Band{
		Lower: b.cuts[n-1],
		Upper: math.Inf(1),
		Label: fmt.Sprintf(b.labels.Above, b.Format(b.cuts[n-1])),
	})
	return bands
}

// BandIndex returns the index of the band holding y: the number of cuts
// that are <= y. A value equal to a cut lands in the band starting there.
func (b *Bander) BandIndex(y float64) int {
	return sort.Search(len(b.cuts), func(i int) bool { return b.cuts[i] > y })
}

// Bucket distributes points over all bands, preserving input order inside
// each band.
func (b *Bander) Bucket(points []model.Point) []BandBucket {
	bands := b.Bands()
	buckets := make([]BandBucket, len(bands))
	for i, band := range bands {
		buckets[i].Band = band
	}
	for _, p := range points {
		i := b.BandIndex(p.Y)
		buckets[i].Points = append(buckets[i].Points, p)
	}
	return buckets
}
