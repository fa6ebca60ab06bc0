package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime/pprof"
	"strconv"
	"strings"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/term"

	"github.com/vanderheijden86/scatterclass/internal/datasource"
	"github.com/vanderheijden86/scatterclass/pkg/classify"
	"github.com/vanderheijden86/scatterclass/pkg/config"
	"github.com/vanderheijden86/scatterclass/pkg/debug"
	"github.com/vanderheijden86/scatterclass/pkg/hooks"
	"github.com/vanderheijden86/scatterclass/pkg/loader"
	"github.com/vanderheijden86/scatterclass/pkg/model"
	"github.com/vanderheijden86/scatterclass/pkg/report"
	"github.com/vanderheijden86/scatterclass/pkg/ui"
	"github.com/vanderheijden86/scatterclass/pkg/version"
	"github.com/vanderheijden86/scatterclass/pkg/watcher"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	opts, err := parseFlags(args, stderr)
	if errors.Is(err, flag.ErrHelp) {
		return 0
	}
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}

	// CPU profiling support
	if opts.cpuProfile != "" {
		f, err := os.Create(opts.cpuProfile)
		if err != nil {
			fmt.Fprintf(stderr, "Could not create CPU profile: %v\n", err)
			return 1
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			fmt.Fprintf(stderr, "Could not start CPU profile: %v\n", err)
			return 1
		}
		defer debug.LogFunc("cpu profile written to " + opts.cpuProfile)()
		defer pprof.StopCPUProfile()
	}

	if opts.version {
		fmt.Fprintf(stdout, "sc %s\n", version.Version)
		return 0
	}

	robot := opts.robot() || os.Getenv("SC_ROBOT") == "1"
	warn := func(msg string) {
		debug.Log("warning: %s", msg)
		if !robot {
			fmt.Fprintf(stderr, "Warning: %s\n", msg)
		}
	}

	cfg, err := loadConfig(opts.configPath)
	if err != nil {
		// Non-fatal: continue with defaults
		warn(fmt.Sprintf("%v (using defaults)", err))
	}

	sources, err := resolveSources(opts, stdin)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	ctx := context.Background()
	dsOpts := datasource.Options{SQLite: cfg.SQLite, Warn: warn, Stdin: stdin}
	session := classify.NewSession(classify.OptionsFromConfig(cfg))

	var rows []model.Row
	if len(sources) > 0 {
		start := time.Now()
		rows, err = datasource.LoadAll(ctx, sources, dsOpts)
		debug.LogTiming("load "+describeSources(sources), time.Since(start))
		switch {
		case errors.Is(err, loader.ErrNoRows):
			warn("no valid rows found; starting empty")
		case err != nil:
			fmt.Fprintf(stderr, "Error loading points: %v\n", err)
			return 1
		default:
			if _, err := session.Import(rows); err != nil {
				fmt.Fprintf(stderr, "Error importing points: %v\n", err)
				return 1
			}
		}
	}

	if err := applyEdits(session, opts); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	converter := converterFromConfig(cfg)
	if opts.export != "" {
		summary, err := exportReport(ctx, session, converter, opts)
		if err != nil {
			fmt.Fprintf(stderr, "Error exporting: %v\n", err)
			return 1
		}
		if !robot {
			fmt.Fprintf(stderr, "Exported report to %s\n", opts.export)
			if summary != "" {
				fmt.Fprintln(stderr, summary)
			}
		}
	}

	if robot {
		if err := writeRobot(stdout, session, opts); err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return 1
		}
		return 0
	}
	if !isTerminal(os.Stdout) {
		if opts.export != "" {
			return 0
		}
		fmt.Fprintln(stderr, "Error: stdout is not a terminal; use a --robot-* flag for scripted output")
		return 1
	}

	uiOpts := ui.Options{
		Config:      cfg,
		Source:      describeSources(sources),
		InitialRows: rows,
		Converter:   converter,
		NoHooks:     opts.noHooks,
	}
	if opts.watch {
		w, reload, err := startWatch(ctx, cfg, sources)
		if err != nil {
			warn(fmt.Sprintf("watch disabled: %v", err))
		} else {
			defer w.Stop()
			uiOpts.Watcher, uiOpts.Reload = w, reload
		}
	}

	if err := runTUIProgram(ui.NewModel(session, uiOpts)); err != nil {
		fmt.Fprintf(stderr, "Error running sc: %v\n", err)
		return 1
	}
	return 0
}

func loadConfig(path string) (config.Config, error) {
	if path != "" {
		return config.LoadFrom(path)
	}
	return config.Load()
}

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// resolveSources turns the import flags into data sources. With no explicit
// source, piped stdin is read.
func resolveSources(opts cliOptions, stdin io.Reader) ([]datasource.DataSource, error) {
	var sources []datasource.DataSource
	for _, path := range opts.files {
		src, err := datasource.DetectSource(path)
		if err != nil {
			return nil, err
		}
		sources = append(sources, src)
	}
	if opts.sqlite != "" {
		src, err := datasource.SQLiteSource(opts.sqlite, opts.table)
		if err != nil {
			return nil, err
		}
		sources = append(sources, src)
	}
	if opts.paste {
		sources = append(sources, datasource.Clipboard())
	}
	if len(sources) == 0 {
		if f, ok := stdin.(*os.File); ok && !isTerminal(f) {
			sources = append(sources, datasource.DataSource{Type: datasource.SourceTypeStdin, Path: datasource.StdinPath})
		}
	}
	return sources, nil
}

func describeSources(sources []datasource.DataSource) string {
	names := make([]string, len(sources))
	for i, src := range sources {
		if src.Path != "" && src.Type != datasource.SourceTypeStdin {
			names[i] = src.Path
		} else {
			names[i] = src.String()
		}
	}
	return strings.Join(names, ", ")
}

// applyEdits applies --threshold, --select and --mark in that order.
func applyEdits(session *classify.Session, opts cliOptions) error {
	for _, v := range opts.thresholds {
		session.AddThreshold(v)
	}
	for _, sel := range opts.selects {
		ids, name, err := parseSelect(sel)
		if err != nil {
			return fmt.Errorf("--select %q: %w", sel, err)
		}
		if _, err := session.Select(ids, name); err != nil {
			return fmt.Errorf("--select %q: %w", sel, err)
		}
	}
	for _, mk := range opts.marks {
		ids, err := parseIDs(mk)
		if err != nil {
			return fmt.Errorf("--mark %q: %w", mk, err)
		}
		if _, err := session.ToggleMarks(ids...); err != nil {
			return fmt.Errorf("--mark %q: %w", mk, err)
		}
	}
	return nil
}

func converterFromConfig(cfg config.Config) report.Converter {
	if cfg.Converter.Command == "" {
		return nil
	}
	return report.CommandConverter{Command: cfg.Converter.Command, Args: cfg.Converter.Args}
}

// exportReport writes the export file between the pre- and post-export
// hooks. It returns the hook summary, empty when no hook ran.
func exportReport(ctx context.Context, session *classify.Session, converter report.Converter, opts cliOptions) (string, error) {
	var exportOpts report.ExportOptions
	if opts.convert != "" {
		dir, err := report.ParseDirection(opts.convert)
		if err != nil {
			return "", err
		}
		if converter == nil {
			return "", fmt.Errorf("--convert needs converter.command in the config")
		}
		exportOpts.Converter, exportOpts.Direction = converter, dir
	}

	runner, err := hooks.RunHooks("", hooks.ExportContext{
		ExportPath:    opts.export,
		Direction:     string(exportOpts.Direction),
		PointCount:    session.Len(),
		CategoryCount: len(session.Tree()),
		Timestamp:     time.Now(),
	}, opts.noHooks)
	if err != nil {
		return "", err
	}

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	err = runner.Around(func() error {
		return report.Export(ctx, opts.export, session.Report(), exportOpts)
	})
	if runner == nil {
		return "", err
	}
	return runner.Summary(), err
}

// startWatch watches the file sources and returns a loader that re-reads
// them.
func startWatch(ctx context.Context, cfg config.Config, sources []datasource.DataSource) (*watcher.Watcher, ui.Loader, error) {
	var files []datasource.DataSource
	var paths []string
	for _, src := range sources {
		if src.Watchable() {
			files = append(files, src)
			paths = append(paths, src.Path)
		}
	}
	if len(paths) == 0 {
		return nil, nil, fmt.Errorf("no file sources to watch")
	}

	w, err := watcher.New(paths,
		watcher.WithDebounceDuration(time.Duration(cfg.Watch.DebounceMs)*time.Millisecond),
		watcher.WithForcePoll(cfg.Watch.ForcePoll),
		watcher.WithOnError(func(err error) { debug.Log("watch: %v", err) }),
	)
	if err != nil {
		return nil, nil, err
	}
	if err := w.Start(ctx); err != nil {
		return nil, nil, err
	}

	// Warnings would corrupt the alternate screen; send them to the debug log.
	reloadOpts := datasource.Options{SQLite: cfg.SQLite, Warn: func(msg string) { debug.Log("reload: %s", msg) }}
	reload := func(ctx context.Context) ([]model.Row, error) {
		return datasource.LoadAll(ctx, files, reloadOpts)
	}
	return w, reload, nil
}

func runTUIProgram(m ui.Model) error {
	defer debug.LogEnterExit("tui")()
	p := tea.NewProgram(
		m,
		tea.WithAltScreen(),
		tea.WithoutSignalHandler(),
	)

	runDone := make(chan struct{})
	defer close(runDone)

	// Graceful shutdown on SIGINT/SIGTERM.
	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case <-runDone:
			return
		case <-sigCh:
		}

		p.Quit()

		select {
		case <-runDone:
			return
		case <-sigCh:
		case <-time.After(5 * time.Second):
		}

		p.Kill()
	}()

	// Optional auto-quit for automated tests: set SC_TUI_AUTOCLOSE_MS.
	if v := os.Getenv("SC_TUI_AUTOCLOSE_MS"); v != "" {
		if ms, err := strconv.Atoi(v); err == nil && ms > 0 {
			go func() {
				timer := time.NewTimer(time.Duration(ms) * time.Millisecond)
				defer timer.Stop()

				select {
				case <-runDone:
					return
				case <-timer.C:
				}
				p.Quit()
			}()
		}
	}

	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) || errors.Is(err, tea.ErrInterrupted) {
		return nil
	}
	return err
}
