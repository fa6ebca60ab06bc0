package main

import (
	"io"

	"github.com/goccy/go-json"

	"github.com/vanderheijden86/scatterclass/pkg/analysis"
	"github.com/vanderheijden86/scatterclass/pkg/classify"
	"github.com/vanderheijden86/scatterclass/pkg/metrics"
)

// sessionMarks adapts a session to analysis.MarkLookup.
type sessionMarks struct{ s *classify.Session }

func (m sessionMarks) Has(id int64) bool { return m.s.IsMarked(id) }

type metricsOutput struct {
	Timings  []metrics.TimingStats  `json:"timings"`
	Counters []metrics.CounterStats `json:"counters"`
}

// writeRobot prints the requested machine-readable view. With no robot flag
// (SC_ROBOT=1 alone) the category tree is printed.
func writeRobot(w io.Writer, session *classify.Session, opts cliOptions) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	switch {
	case opts.robotReport:
		_, err := io.WriteString(w, session.Report())
		return err
	case opts.robotExport:
		_, err := io.WriteString(w, session.ExportText()+"\n")
		return err
	case opts.robotStats:
		return enc.Encode(analysis.Compute(session.Tree(), sessionMarks{session}))
	case opts.robotMetrics:
		out := metricsOutput{Timings: metrics.AllTimingStats(), Counters: metrics.AllCounterStats()}
		if out.Timings == nil {
			out.Timings = []metrics.TimingStats{}
		}
		if out.Counters == nil {
			out.Counters = []metrics.CounterStats{}
		}
		return enc.Encode(out)
	default:
		return enc.Encode(session.Snapshot())
	}
}
