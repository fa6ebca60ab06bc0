// Package watcher reloads import files when they change on disk. It uses
// fsnotify where the filesystem supports it and falls back to stat polling on
// network filesystems, when fsnotify is unavailable, or when SC_FORCE_POLL is
// set.
package watcher

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/vanderheijden86/scatterclass/pkg/debug"
)

// DefaultPollInterval is the default polling interval for fallback mode.
const DefaultPollInterval = 2 * time.Second

// Common errors.
var (
	ErrFileRemoved    = errors.New("watched file was removed")
	ErrPermission     = errors.New("permission denied")
	ErrAlreadyStarted = errors.New("watcher already started")
	ErrNoPaths        = errors.New("no paths to watch")
)

// Change reports the files that changed during one debounce window.
type Change struct {
	Paths []string
	At    time.Time
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounceDuration sets the debounce duration.
func WithDebounceDuration(d time.Duration) Option {
	return func(w *Watcher) {
		w.debounceDuration = d
	}
}

// WithPollInterval sets the polling interval for fallback mode.
func WithPollInterval(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.pollInterval = d
		}
	}
}

// WithOnChange sets a callback invoked for every change, in addition to the
// Changes channel.
func WithOnChange(fn func(Change)) Option {
	return func(w *Watcher) {
		w.onChange = fn
	}
}

// WithOnError sets the callback invoked on errors.
func WithOnError(fn func(error)) Option {
	return func(w *Watcher) {
		w.onError = fn
	}
}

// WithForcePoll forces polling mode even if fsnotify is available.
func WithForcePoll(force bool) Option {
	return func(w *Watcher) {
		w.forcePoll = force
	}
}

type fileState struct {
	mtime  time.Time
	size   int64
	exists bool
}

// Watcher monitors a set of files.
type Watcher struct {
	paths            []string
	debounceDuration time.Duration
	pollInterval     time.Duration
	onChange         func(Change)
	onError          func(error)
	forcePoll        bool

	fsWatcher *fsnotify.Watcher
	debouncer *Debouncer
	polling   bool
	fsTypes   map[string]FilesystemType
	states    map[string]fileState

	cancel   context.CancelFunc
	started  bool
	mu       sync.RWMutex
	changeCh chan Change
}

// New creates a watcher for paths. Paths are made absolute and deduplicated.
func New(paths []string, opts ...Option) (*Watcher, error) {
	if len(paths) == 0 {
		return nil, ErrNoPaths
	}
	seen := make(map[string]bool, len(paths))
	var abs []string
	for _, p := range paths {
		a, err := filepath.Abs(p)
		if err != nil {
			return nil, err
		}
		if !seen[a] {
			seen[a] = true
			abs = append(abs, a)
		}
	}

	w := &Watcher{
		paths:            abs,
		debounceDuration: DefaultDebounceDuration,
		pollInterval:     DefaultPollInterval,
		onChange:         func(Change) {},
		onError:          func(error) {},
		changeCh:         make(chan Change, 1),
	}
	for _, opt := range opts {
		opt(w)
	}
	w.debouncer = NewDebouncer(w.debounceDuration)
	return w, nil
}

// Start begins watching. The watcher stops when ctx is cancelled or Stop is
// called.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.started {
		return ErrAlreadyStarted
	}
	ctx, w.cancel = context.WithCancel(ctx)

	w.polling = w.forcePoll || envBool("SC_FORCE_POLL")
	w.fsTypes = make(map[string]FilesystemType, len(w.paths))
	w.states = make(map[string]fileState, len(w.paths))
	for _, p := range w.paths {
		w.fsTypes[p] = DetectFilesystemType(p)
		if isRemoteFilesystem(w.fsTypes[p]) {
			w.polling = true
		}
		st, err := stat(p)
		if errors.Is(err, ErrPermission) {
			w.cancel()
			return fmt.Errorf("%s: %w", p, err)
		}
		w.states[p] = st
	}

	if !w.polling {
		if err := w.startFsnotify(); err != nil {
			debug.Log("watcher: fsnotify unavailable, polling: %v", err)
			w.polling = true
		}
	}
	if w.polling {
		go w.watchPolling(ctx)
	} else {
		go w.watchFsnotify(ctx, w.fsWatcher)
	}

	debug.Log("watcher: watching %d file(s), polling=%v", len(w.paths), w.polling)
	w.started = true
	return nil
}

// startFsnotify watches the directory of every path, which survives editors
// that save by renaming a temp file over the original.
func (w *Watcher) startFsnotify() error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	dirs := make(map[string]bool)
	for _, p := range w.paths {
		dir := filepath.Dir(p)
		if dirs[dir] {
			continue
		}
		dirs[dir] = true
		if err := fsw.Add(dir); err != nil {
			fsw.Close()
			return err
		}
	}
	w.fsWatcher = fsw
	return nil
}

// Stop stops watching. The Changes channel is left open so a goroutine
// blocked on it is not woken with a zero Change.
func (w *Watcher) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.started {
		return
	}
	w.cancel()
	if w.fsWatcher != nil {
		w.fsWatcher.Close()
		w.fsWatcher = nil
	}
	w.debouncer.Cancel()
	w.started = false
}

// IsPolling returns true if the watcher is using polling mode.
func (w *Watcher) IsPolling() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.polling
}

// IsStarted returns true if the watcher is running.
func (w *Watcher) IsStarted() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.started
}

// Changes returns a channel that receives coalesced changes. When the
// consumer falls behind, pending changes are merged rather than dropped.
func (w *Watcher) Changes() <-chan Change {
	return w.changeCh
}

// Paths returns the watched absolute paths.
func (w *Watcher) Paths() []string {
	out := make([]string, len(w.paths))
	copy(out, w.paths)
	return out
}

// FilesystemType returns the filesystem classification recorded for path at
// Start.
func (w *Watcher) FilesystemType(path string) FilesystemType {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	if t, ok := w.fsTypes[path]; ok {
		return t
	}
	return FSTypeUnknown
}

// PollInterval returns the polling interval used when polling mode is active.
func (w *Watcher) PollInterval() time.Duration {
	return w.pollInterval
}

func envBool(name string) bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(name))) {
	case "1", "true", "yes", "y", "on":
		return true
	default:
		return false
	}
}

func stat(path string) (fileState, error) {
	info, err := os.Stat(path)
	switch {
	case err == nil:
		return fileState{mtime: info.ModTime(), size: info.Size(), exists: true}, nil
	case os.IsNotExist(err):
		return fileState{}, nil
	case os.IsPermission(err):
		return fileState{}, ErrPermission
	default:
		return fileState{}, err
	}
}

func (w *Watcher) isTarget(name string) (string, bool) {
	name = filepath.Clean(name)
	for _, p := range w.paths {
		if p == name {
			return p, true
		}
	}
	return "", false
}

func (w *Watcher) watchFsnotify(ctx context.Context, fsw *fsnotify.Watcher) {
	events, errs := fsw.Events, fsw.Errors
	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-events:
			if !ok {
				return
			}
			path, ok := w.isTarget(event.Name)
			if !ok {
				continue
			}
			switch {
			case event.Op&fsnotify.Remove != 0:
				w.onError(fmt.Errorf("%s: %w", path, ErrFileRemoved))
			case event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0:
				w.debouncer.Trigger(path, w.notify)
			}

		case err, ok := <-errs:
			if !ok {
				return
			}
			w.onError(err)
		}
	}
}

func (w *Watcher) watchPolling(ctx context.Context) {
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for _, p := range w.paths {
				w.pollOnce(p)
			}
		}
	}
}

func (w *Watcher) pollOnce(path string) {
	cur, err := stat(path)
	if err != nil {
		w.onError(fmt.Errorf("%s: %w", path, err))
		return
	}

	w.mu.Lock()
	prev := w.states[path]
	w.states[path] = cur
	w.mu.Unlock()

	switch {
	case prev.exists && !cur.exists:
		w.onError(fmt.Errorf("%s: %w", path, ErrFileRemoved))
	case cur.exists && (!prev.exists || cur.mtime.After(prev.mtime) || cur.size != prev.size):
		w.debouncer.Trigger(path, w.notify)
	}
}

// notify delivers one coalesced change unless the watcher was stopped.
func (w *Watcher) notify(paths []string) {
	w.mu.RLock()
	started := w.started
	w.mu.RUnlock()
	if !started {
		return
	}

	change := Change{Paths: paths, At: time.Now()}
	debug.Log("watcher: change %v", paths)
	w.onChange(change)

	for {
		select {
		case w.changeCh <- change:
			return
		default:
		}
		// Channel full: merge with the undelivered change and retry.
		select {
		case old := <-w.changeCh:
			change.Paths = mergePaths(old.Paths, change.Paths)
		default:
		}
	}
}

func mergePaths(a, b []string) []string {
	seen := make(map[string]bool, len(a)+len(b))
	var out []string
	for _, list := range [][]string{a, b} {
		for _, p := range list {
			if !seen[p] {
				seen[p] = true
				out = append(out, p)
			}
		}
	}
	return out
}
