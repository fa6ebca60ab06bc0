// Package datasource resolves where point rows come from (text files, stdin,
// the system clipboard, SQLite databases) and loads them as model.Row values.
package datasource

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// SourceType identifies the type of data source
type SourceType string

const (
	// SourceTypeText is a delimited text file
	SourceTypeText SourceType = "text"
	// SourceTypeStdin is delimited text on standard input
	SourceTypeStdin SourceType = "stdin"
	// SourceTypeClipboard is delimited text on the system clipboard
	SourceTypeClipboard SourceType = "clipboard"
	// SourceTypeSQLite is a table in a SQLite database
	SourceTypeSQLite SourceType = "sqlite"
)

// StdinPath is the conventional path argument for standard input.
const StdinPath = "-"

var sqliteMagic = []byte("SQLite format 3\x00")

// DataSource describes one place rows can be loaded from.
type DataSource struct {
	// Type identifies the source type
	Type SourceType `json:"type"`
	// Path is the file path (empty for clipboard, "-" for stdin)
	Path string `json:"path,omitempty"`
	// Table overrides the configured SQLite table
	Table string `json:"table,omitempty"`
	// ModTime is the last modification time of a file source
	ModTime time.Time `json:"mod_time,omitempty"`
	// Size is the file size in bytes
	Size int64 `json:"size,omitempty"`
}

// String returns a human-readable description of the source
func (s DataSource) String() string {
	switch s.Type {
	case SourceTypeStdin:
		return "stdin"
	case SourceTypeClipboard:
		return "clipboard"
	case SourceTypeSQLite:
		if s.Table != "" {
			return fmt.Sprintf("%s (sqlite, table=%s)", s.Path, s.Table)
		}
		return fmt.Sprintf("%s (sqlite)", s.Path)
	default:
		return fmt.Sprintf("%s (text, %d bytes)", s.Path, s.Size)
	}
}

// Watchable reports whether the source is a file that can be watched for
// changes.
func (s DataSource) Watchable() bool {
	return s.Type == SourceTypeText || s.Type == SourceTypeSQLite
}

// Clipboard returns the clipboard source.
func Clipboard() DataSource {
	return DataSource{Type: SourceTypeClipboard}
}

// DetectSource classifies path. "-" is stdin; files with a SQLite header or a
// .db/.sqlite/.sqlite3 extension are SQLite; anything else is text.
func DetectSource(path string) (DataSource, error) {
	if path == StdinPath {
		return DataSource{Type: SourceTypeStdin, Path: path}, nil
	}
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DataSource{}, fmt.Errorf("no import file at %s", path)
		}
		return DataSource{}, fmt.Errorf("stat %s: %w", path, err)
	}
	if info.IsDir() {
		return DataSource{}, fmt.Errorf("%s is a directory", path)
	}

	src := DataSource{Type: SourceTypeText, Path: path, ModTime: info.ModTime(), Size: info.Size()}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".db", ".sqlite", ".sqlite3":
		src.Type = SourceTypeSQLite
		return src, nil
	}
	if hasSQLiteHeader(path) {
		src.Type = SourceTypeSQLite
	}
	return src, nil
}

// SQLiteSource returns a SQLite source for path, optionally overriding the
// configured table.
func SQLiteSource(path, table string) (DataSource, error) {
	src, err := DetectSource(path)
	if err != nil {
		return DataSource{}, err
	}
	src.Type = SourceTypeSQLite
	src.Table = table
	return src, nil
}

func hasSQLiteHeader(path string) bool {
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	defer f.Close()
	buf := make([]byte, len(sqliteMagic))
	if _, err := io.ReadFull(f, buf); err != nil {
		return false
	}
	return bytes.Equal(buf, sqliteMagic)
}
