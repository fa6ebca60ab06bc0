package datasource

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/atotto/clipboard"
	"golang.org/x/sync/errgroup"

	"github.com/vanderheijden86/scatterclass/pkg/config"
	"github.com/vanderheijden86/scatterclass/pkg/debug"
	"github.com/vanderheijden86/scatterclass/pkg/loader"
	"github.com/vanderheijden86/scatterclass/pkg/metrics"
	"github.com/vanderheijden86/scatterclass/pkg/model"
)

// Options configures loading.
type Options struct {
	// SQLite names the table and columns read from SQLite sources.
	SQLite config.SQLiteConfig
	// Warn receives one message per skipped line or row. May be nil.
	Warn func(string)
	// Stdin replaces os.Stdin for SourceTypeStdin.
	Stdin io.Reader
	// ReadClipboard replaces the system clipboard for SourceTypeClipboard.
	ReadClipboard func() (string, error)
}

func (o Options) warn(src DataSource) func(string) {
	return func(msg string) {
		metrics.ParseSkips.Inc()
		if o.Warn != nil {
			o.Warn(fmt.Sprintf("%s: %s", src, msg))
		}
	}
}

// LoadFromSource loads rows from a specific DataSource, dispatching to the
// appropriate reader based on source type.
func LoadFromSource(ctx context.Context, source DataSource, opts Options) ([]model.Row, error) {
	defer metrics.Timer(metrics.Load)()
	parse := loader.ParseOptions{WarningHandler: opts.warn(source)}

	switch source.Type {
	case SourceTypeSQLite:
		reader, err := NewSQLiteReader(source, opts.SQLite)
		if err != nil {
			return nil, fmt.Errorf("failed to open SQLite source %s: %w", source.Path, err)
		}
		defer reader.Close()
		return reader.LoadRows(ctx, opts.warn(source))

	case SourceTypeText:
		return loader.LoadFile(source.Path, parse)

	case SourceTypeStdin:
		r := opts.Stdin
		if r == nil {
			r = os.Stdin
		}
		return loader.Parse(r, parse)

	case SourceTypeClipboard:
		read := opts.ReadClipboard
		if read == nil {
			read = clipboard.ReadAll
		}
		text, err := read()
		if err != nil {
			return nil, fmt.Errorf("read clipboard: %w", err)
		}
		return loader.ParseText(text, parse)

	default:
		return nil, fmt.Errorf("unknown source type: %s", source.Type)
	}
}

// LoadAll loads every source concurrently and concatenates the rows in
// argument order. A source with no valid rows is skipped with a warning; the
// result is ErrNoRows only when every source was empty.
//
// Warnings are collected per source and handed to opts.Warn from the calling
// goroutine after all loads finish, in argument order.
func LoadAll(ctx context.Context, sources []DataSource, opts Options) ([]model.Row, error) {
	results := make([][]model.Row, len(sources))
	warnings := make([][]string, len(sources))
	defer func() {
		if opts.Warn == nil {
			return
		}
		for _, msgs := range warnings {
			for _, msg := range msgs {
				opts.Warn(msg)
			}
		}
	}()

	g, ctx := errgroup.WithContext(ctx)
	for i, src := range sources {
		srcOpts := opts
		srcOpts.Warn = func(msg string) { warnings[i] = append(warnings[i], msg) }
		g.Go(func() error {
			rows, err := LoadFromSource(ctx, src, srcOpts)
			if errors.Is(err, loader.ErrNoRows) {
				srcOpts.Warn(fmt.Sprintf("%s: no valid rows", src))
				return nil
			}
			if err != nil {
				return err
			}
			results[i] = rows
			debug.Log("datasource: %s -> %d rows", src, len(rows))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var all []model.Row
	for _, rows := range results {
		all = append(all, rows...)
	}
	if len(all) == 0 {
		return nil, loader.ErrNoRows
	}
	return all, nil
}

// LoadPaths detects and loads each path.
func LoadPaths(ctx context.Context, paths []string, opts Options) ([]model.Row, error) {
	sources := make([]DataSource, 0, len(paths))
	for _, p := range paths {
		src, err := DetectSource(p)
		if err != nil {
			return nil, err
		}
		sources = append(sources, src)
	}
	return LoadAll(ctx, sources, opts)
}
