// Package debug is sc's diagnostic log. It is silent unless SC_DEBUG is set:
//
//	SC_DEBUG=1 sc --file points.txt --robot-tree
//
// Messages go to stderr with a microsecond timestamp. The TUI owns the
// terminal while it runs, so engine code logs here instead of printing.
package debug

import (
	"io"
	"log"
	"os"
	"time"
)

const prefix = "[SC_DEBUG] "

var (
	enabled bool
	logger  *log.Logger
)

func init() {
	if os.Getenv("SC_DEBUG") != "" {
		SetEnabled(true)
	}
}

// Enabled reports whether debug logging is on.
func Enabled() bool {
	return enabled
}

// SetEnabled turns logging on or off. Turning it on without an output set
// logs to stderr.
func SetEnabled(e bool) {
	enabled = e
	if e && logger == nil {
		logger = log.New(os.Stderr, prefix, log.Ltime|log.Lmicroseconds)
	}
}

// SetOutput sends debug output to w and turns logging on.
func SetOutput(w io.Writer) {
	enabled = true
	logger = log.New(w, prefix, 0)
}

// Log writes a printf-style message.
func Log(format string, args ...any) {
	if enabled {
		logger.Printf(format, args...)
	}
}

// LogTiming logs how long name took.
func LogTiming(name string, d time.Duration) {
	if enabled {
		logger.Printf("%s took %v", name, d)
	}
}

// LogFunc returns a func that logs msg, for use with defer.
func LogFunc(msg string) func() {
	if !enabled {
		return func() {}
	}
	return func() { logger.Print(msg) }
}

// LogEnterExit logs entry now and exit with elapsed time when the returned
// func runs:
//
//	defer debug.LogEnterExit("reload")()
func LogEnterExit(name string) func() {
	if !enabled {
		return func() {}
	}
	logger.Printf("-> %s", name)
	start := time.Now()
	return func() { logger.Printf("<- %s (%v)", name, time.Since(start)) }
}
