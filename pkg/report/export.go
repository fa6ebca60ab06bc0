package report

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/vanderheijden86/scatterclass/pkg/debug"
	"github.com/vanderheijden86/scatterclass/pkg/metrics"
)

// ExportOptions configures Export.
type ExportOptions struct {
	// Converter, when set, rewrites the text before it is written.
	Converter Converter
	// Direction is passed to Converter.
	Direction Direction
}

// ExportText returns what Export would write for a rendered report.
func ExportText(ctx context.Context, rendered string, opts ExportOptions) (string, error) {
	text := StripHeaders(rendered)
	if opts.Converter == nil {
		return text, nil
	}
	converted, err := opts.Converter.Convert(ctx, text, opts.Direction)
	if err != nil {
		return "", fmt.Errorf("convert %s: %w", opts.Direction, err)
	}
	return converted, nil
}

// Export writes the header-free report to path as UTF-8. The file is written
// to a temporary sibling first and renamed into place.
func Export(ctx context.Context, path, rendered string, opts ExportOptions) error {
	defer metrics.Timer(metrics.Export)()

	if path == "" {
		return fmt.Errorf("export path is empty")
	}
	text, err := ExportText(ctx, rendered, opts)
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create export dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".sc-export-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.WriteString(text); err != nil {
		tmp.Close()
		return fmt.Errorf("write export: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close export: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("rename export: %w", err)
	}

	debug.Log("export: wrote %d bytes to %s", len(text), path)
	return nil
}
