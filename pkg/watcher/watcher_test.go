package watcher

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestDebouncer_CoalescesRapidTriggers(t *testing.T) {
	d := NewDebouncer(50 * time.Millisecond)

	var (
		mu    sync.Mutex
		calls [][]string
	)
	fire := func(paths []string) {
		mu.Lock()
		calls = append(calls, paths)
		mu.Unlock()
	}

	for i := 0; i < 10; i++ {
		path := "b"
		if i%2 == 0 {
			path = "a"
		}
		d.Trigger(path, fire)
		time.Sleep(5 * time.Millisecond)
	}
	time.Sleep(150 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	if len(calls) != 1 {
		t.Fatalf("expected 1 callback invocation, got %d", len(calls))
	}
	if !reflect.DeepEqual(calls[0], []string{"a", "b"}) {
		t.Errorf("paths = %v", calls[0])
	}
}

func TestDebouncer_Cancel(t *testing.T) {
	d := NewDebouncer(50 * time.Millisecond)
	var called atomic.Bool
	d.Trigger("x", func([]string) { called.Store(true) })
	d.Cancel()

	time.Sleep(100 * time.Millisecond)
	if called.Load() {
		t.Error("callback should not have been invoked after cancel")
	}

	// Paths collected before Cancel do not leak into the next burst.
	got := make(chan []string, 1)
	d.Trigger("y", func(p []string) { got <- p })
	select {
	case paths := <-got:
		if !reflect.DeepEqual(paths, []string{"y"}) {
			t.Errorf("paths = %v", paths)
		}
	case <-time.After(time.Second):
		t.Fatal("callback not invoked")
	}
}

func TestDebouncer_DefaultDuration(t *testing.T) {
	d := NewDebouncer(0)
	if d.Duration() != DefaultDebounceDuration {
		t.Errorf("expected default duration %v, got %v", DefaultDebounceDuration, d.Duration())
	}
}

func TestNew_Validation(t *testing.T) {
	if _, err := New(nil); !errors.Is(err, ErrNoPaths) {
		t.Errorf("err = %v", err)
	}
	w, err := New([]string{"a.txt", "./a.txt"})
	if err != nil {
		t.Fatal(err)
	}
	if len(w.Paths()) != 1 || !filepath.IsAbs(w.Paths()[0]) {
		t.Errorf("paths = %v", w.Paths())
	}
}

func waitForChange(t *testing.T, w *Watcher) Change {
	t.Helper()
	select {
	case c := <-w.Changes():
		return c
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for change")
		return Change{}
	}
}

func TestWatcher_DetectsFileChange(t *testing.T) {
	tests := []struct {
		name      string
		forcePoll bool
	}{
		{"fsnotify", false},
		{"polling", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			path := filepath.Join(dir, "points.txt")
			if err := os.WriteFile(path, []byte("A|1|1\n"), 0o644); err != nil {
				t.Fatal(err)
			}

			var callbacks atomic.Int32
			w, err := New([]string{path},
				WithDebounceDuration(30*time.Millisecond),
				WithPollInterval(20*time.Millisecond),
				WithForcePoll(tt.forcePoll),
				WithOnChange(func(Change) { callbacks.Add(1) }),
			)
			if err != nil {
				t.Fatal(err)
			}
			if err := w.Start(context.Background()); err != nil {
				t.Fatal(err)
			}
			defer w.Stop()
			if tt.forcePoll && !w.IsPolling() {
				t.Error("expected polling mode")
			}

			// Give the polling baseline a moment, then grow the file.
			time.Sleep(50 * time.Millisecond)
			if err := os.WriteFile(path, []byte("A|1|1\nB|2|2\n"), 0o644); err != nil {
				t.Fatal(err)
			}

			c := waitForChange(t, w)
			if len(c.Paths) != 1 || filepath.Base(c.Paths[0]) != "points.txt" {
				t.Errorf("change = %+v", c)
			}
			if callbacks.Load() == 0 {
				t.Error("OnChange not invoked")
			}
		})
	}
}

func TestWatcher_IgnoresSiblingFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "points.txt")
	os.WriteFile(path, []byte("A|1|1\n"), 0o644)

	w, _ := New([]string{path}, WithDebounceDuration(20*time.Millisecond))
	if err := w.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()
	if w.IsPolling() {
		t.Skip("fsnotify unavailable on this filesystem")
	}

	os.WriteFile(filepath.Join(dir, "other.txt"), []byte("x"), 0o644)
	select {
	case c := <-w.Changes():
		t.Errorf("unexpected change %+v", c)
	case <-time.After(200 * time.Millisecond):
	}
}

func TestWatcher_ReportsRemoval(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "points.txt")
	os.WriteFile(path, []byte("A|1|1\n"), 0o644)

	errCh := make(chan error, 4)
	w, _ := New([]string{path},
		WithForcePoll(true),
		WithPollInterval(20*time.Millisecond),
		WithOnError(func(err error) {
			select {
			case errCh <- err:
			default:
			}
		}),
	)
	if err := w.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	time.Sleep(40 * time.Millisecond)
	os.Remove(path)

	select {
	case err := <-errCh:
		if !errors.Is(err, ErrFileRemoved) {
			t.Errorf("err = %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("removal not reported")
	}
}

func TestWatcher_StartTwiceAndStop(t *testing.T) {
	path := filepath.Join(t.TempDir(), "later.txt")
	w, _ := New([]string{path}, WithForcePoll(true))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := w.Start(ctx); err != nil {
		t.Fatalf("missing file should still start: %v", err)
	}
	if err := w.Start(ctx); !errors.Is(err, ErrAlreadyStarted) {
		t.Errorf("err = %v", err)
	}
	w.Stop()
	if w.IsStarted() {
		t.Error("still started after Stop")
	}
	w.Stop()
}

func TestEnvBool(t *testing.T) {
	tests := []struct {
		value string
		want  bool
	}{
		{"1", true},
		{"Yes", true},
		{" on ", true},
		{"0", false},
		{"", false},
		{"nope", false},
	}
	for _, tt := range tests {
		t.Setenv("SC_TEST_BOOL", tt.value)
		if got := envBool("SC_TEST_BOOL"); got != tt.want {
			t.Errorf("envBool(%q) = %v, want %v", tt.value, got, tt.want)
		}
	}
}

func TestMergePaths(t *testing.T) {
	got := mergePaths([]string{"a", "b"}, []string{"b", "c"})
	if !reflect.DeepEqual(got, []string{"a", "b", "c"}) {
		t.Errorf("mergePaths = %v", got)
	}
}

func TestIsRemoteFilesystem(t *testing.T) {
	for _, ft := range []FilesystemType{FSTypeNFS, FSTypeSMB, FSTypeFUSE, FSType9P} {
		if !isRemoteFilesystem(ft) {
			t.Errorf("%s should be remote", ft)
		}
	}
	if isRemoteFilesystem(FSTypeLocal) || isRemoteFilesystem(FSTypeUnknown) {
		t.Error("local/unknown should not be remote")
	}
}
