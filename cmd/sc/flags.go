package main

import (
	"flag"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/vanderheijden86/scatterclass/pkg/loader"
)

// stringList is a repeatable string flag.
type stringList []string

func (l *stringList) String() string { return strings.Join(*l, ",") }

func (l *stringList) Set(v string) error {
	*l = append(*l, v)
	return nil
}

// floatList is a repeatable numeric flag. Each value may hold several
// comma-separated numbers.
type floatList []float64

func (l *floatList) String() string {
	parts := make([]string, len(*l))
	for i, v := range *l {
		parts[i] = strconv.FormatFloat(v, 'g', -1, 64)
	}
	return strings.Join(parts, ",")
}

func (l *floatList) Set(v string) error {
	for _, part := range strings.Split(v, ",") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		f, err := loader.ParseNumber(part)
		if err != nil {
			return err
		}
		*l = append(*l, f)
	}
	return nil
}

type cliOptions struct {
	files      stringList
	sqlite     string
	table      string
	paste      bool
	thresholds floatList
	selects    stringList
	marks      stringList
	export     string
	convert    string
	watch      bool
	noHooks    bool
	configPath string
	cpuProfile string
	version    bool

	robotTree    bool
	robotReport  bool
	robotExport  bool
	robotStats   bool
	robotMetrics bool
}

func (o cliOptions) robot() bool {
	return o.robotTree || o.robotReport || o.robotExport || o.robotStats || o.robotMetrics
}

func parseFlags(args []string, stderr io.Writer) (cliOptions, error) {
	var o cliOptions
	fs := flag.NewFlagSet("sc", flag.ContinueOnError)
	fs.SetOutput(stderr)

	fs.Var(&o.files, "file", "Import file (repeatable; \"-\" reads stdin; SQLite files are detected)")
	fs.StringVar(&o.sqlite, "sqlite", "", "Import from a SQLite database")
	fs.StringVar(&o.table, "table", "", "SQLite table (default from config)")
	fs.BoolVar(&o.paste, "paste", false, "Import from the system clipboard")
	fs.Var(&o.thresholds, "threshold", "Add Y threshold(s), e.g. --threshold 5 or --threshold 2.5,7")
	fs.Var(&o.selects, "select", "Create a selection from point ids: \"1,2,3[:name]\" (repeatable)")
	fs.Var(&o.marks, "mark", "Toggle marks on point ids: \"1,2,3\" (repeatable)")
	fs.StringVar(&o.export, "export", "", "Write the header-free report to this file")
	fs.StringVar(&o.convert, "convert", "", "Convert exported text: t2s or s2t (needs converter.command)")
	fs.BoolVar(&o.noHooks, "no-hooks", false, "Skip export hooks from .sc/hooks.yaml")
	fs.BoolVar(&o.watch, "watch", false, "Reload when an import file changes (TUI only)")
	fs.StringVar(&o.configPath, "config", "", "Config file (default ~/.config/sc/config.yaml)")
	fs.StringVar(&o.cpuProfile, "cpu-profile", "", "Write CPU profile to file")
	fs.BoolVar(&o.version, "version", false, "Show version")

	fs.BoolVar(&o.robotTree, "robot-tree", false, "Print the category tree as JSON and exit")
	fs.BoolVar(&o.robotReport, "robot-report", false, "Print the report text and exit")
	fs.BoolVar(&o.robotExport, "robot-export", false, "Print the header-free report text and exit")
	fs.BoolVar(&o.robotStats, "robot-stats", false, "Print per-category statistics as JSON and exit")
	fs.BoolVar(&o.robotMetrics, "robot-metrics", false, "Print timing metrics as JSON and exit")

	fs.Usage = func() {
		fmt.Fprintln(stderr, "Usage: sc [options] [file ...]")
		fmt.Fprintln(stderr, "\nClassify labeled points into Y bands and manual selections.")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return o, err
	}
	o.files = append(o.files, fs.Args()...)
	if o.table != "" && o.sqlite == "" {
		return o, fmt.Errorf("--table requires --sqlite")
	}
	n := 0
	for _, set := range []bool{o.robotTree, o.robotReport, o.robotExport, o.robotStats, o.robotMetrics} {
		if set {
			n++
		}
	}
	if n > 1 {
		return o, fmt.Errorf("--robot-* flags are mutually exclusive")
	}
	return o, nil
}

// parseSelect parses "1,2,3[:name]" into point ids and an optional name.
func parseSelect(v string) ([]int64, string, error) {
	idPart, name, _ := strings.Cut(v, ":")
	ids, err := parseIDs(idPart)
	if err != nil {
		return nil, "", err
	}
	return ids, strings.TrimSpace(name), nil
}

func parseIDs(v string) ([]int64, error) {
	var ids []int64
	for _, part := range strings.Split(v, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid point id %q", part)
		}
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		return nil, fmt.Errorf("no point ids in %q", v)
	}
	return ids, nil
}
