// Package testutil provides deterministic point fixtures and tree assertions
// for tests and benchmarks.
package testutil

import (
	"fmt"
	"math/rand"
	"strconv"
	"strings"

	"github.com/vanderheijden86/scatterclass/pkg/model"
)

// GeneratorConfig controls row generation.
type GeneratorConfig struct {
	Seed        int64   // Random seed; 0 means 42
	LabelPrefix string  // Label prefix (default: "p")
	YMin, YMax  float64 // Y range (default: 0..100)
	XMin, XMax  float64 // X range (default: 0..100)
	Decimals    int     // Digits kept after rounding; negative keeps full precision
}

// DefaultConfig returns a config suitable for most tests.
func DefaultConfig() GeneratorConfig {
	return GeneratorConfig{Seed: 42, LabelPrefix: "p", YMax: 100, XMax: 100, Decimals: 2}
}

// Generator creates row fixtures.
type Generator struct {
	cfg GeneratorConfig
	rng *rand.Rand
}

// New creates a Generator with the given config.
func New(cfg GeneratorConfig) *Generator {
	if cfg.Seed == 0 {
		cfg.Seed = 42
	}
	if cfg.LabelPrefix == "" {
		cfg.LabelPrefix = "p"
	}
	if cfg.YMax <= cfg.YMin {
		cfg.YMin, cfg.YMax = 0, 100
	}
	if cfg.XMax <= cfg.XMin {
		cfg.XMin, cfg.XMax = 0, 100
	}
	return &Generator{cfg: cfg, rng: rand.New(rand.NewSource(cfg.Seed))}
}

// NewDefault creates a Generator with the default config.
func NewDefault() *Generator {
	return New(DefaultConfig())
}

func (g *Generator) label(i int) string {
	return g.cfg.LabelPrefix + strconv.Itoa(i)
}

func (g *Generator) round(v float64) float64 {
	if g.cfg.Decimals < 0 {
		return v
	}
	f, _ := strconv.ParseFloat(strconv.FormatFloat(v, 'f', g.cfg.Decimals, 64), 64)
	return f
}

func (g *Generator) between(lo, hi float64) float64 {
	return g.round(lo + g.rng.Float64()*(hi-lo))
}

// Uniform returns n rows spread evenly at random over the configured ranges.
func (g *Generator) Uniform(n int) []model.Row {
	rows := make([]model.Row, n)
	for i := range rows {
		rows[i] = model.Row{
			Label: g.label(i),
			Y:     g.between(g.cfg.YMin, g.cfg.YMax),
			X:     g.between(g.cfg.XMin, g.cfg.XMax),
			Line:  i + 1,
		}
	}
	return rows
}

// Clustered returns perCluster rows around each Y center, within ±spread.
// Rows are emitted cluster by cluster.
func (g *Generator) Clustered(centers []float64, perCluster int, spread float64) []model.Row {
	rows := make([]model.Row, 0, len(centers)*perCluster)
	for _, c := range centers {
		for range perCluster {
			i := len(rows)
			rows = append(rows, model.Row{
				Label: g.label(i),
				Y:     g.between(c-spread, c+spread),
				X:     g.between(g.cfg.XMin, g.cfg.XMax),
				Line:  i + 1,
			})
		}
	}
	return rows
}

// Flat returns n rows sharing one Y value.
func (g *Generator) Flat(n int, y float64) []model.Row {
	rows := make([]model.Row, n)
	for i := range rows {
		rows[i] = model.Row{Label: g.label(i), Y: y, X: g.between(g.cfg.XMin, g.cfg.XMax), Line: i + 1}
	}
	return rows
}

// Cuts returns k thresholds evenly spaced strictly inside the Y range.
func (g *Generator) Cuts(k int) []float64 {
	cuts := make([]float64, k)
	step := (g.cfg.YMax - g.cfg.YMin) / float64(k+1)
	for i := range cuts {
		cuts[i] = g.round(g.cfg.YMin + step*float64(i+1))
	}
	return cuts
}

// ImportText renders rows as pipe-separated import lines, one per row.
func ImportText(rows []model.Row) string {
	var sb strings.Builder
	for _, r := range rows {
		fmt.Fprintf(&sb, "%s|%s|%s\n", r.Label,
			strconv.FormatFloat(r.Y, 'g', -1, 64),
			strconv.FormatFloat(r.X, 'g', -1, 64))
	}
	return sb.String()
}
