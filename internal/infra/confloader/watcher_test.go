package confloader

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

// recorder collects callback paths.
type recorder struct {
	mu    sync.Mutex
	paths []string
}

func (r *recorder) record(path string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.paths = append(r.paths, path)
}

func (r *recorder) snapshot() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.paths...)
}

// testSettle stays well above the latency of a single write on slow
// filesystems.
const testSettle = 250 * time.Millisecond

func startWatcher(t *testing.T, files ...string) (*Watcher, *recorder) {
	t.Helper()

	w, err := NewWatcher(WithSettle(testSettle))
	if err != nil {
		t.Fatalf("NewWatcher() error = %v", err)
	}
	t.Cleanup(func() { _ = w.Stop() })

	for _, f := range files {
		if err := w.Watch(f); err != nil {
			t.Fatalf("Watch(%s) error = %v", f, err)
		}
	}
	rec := &recorder{}
	w.OnChange(rec.record)
	w.StartAsync()
	time.Sleep(50 * time.Millisecond)
	return w, rec
}

func waitFor(t *testing.T, cond func() bool) bool {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(20 * time.Millisecond)
	}
	return false
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestWatcher_ReportsChange(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "settings.yaml")
	writeFile(t, file, "log:\n  level: info\n")

	_, rec := startWatcher(t, file)
	writeFile(t, file, "log:\n  level: debug\n")

	if !waitFor(t, func() bool { return len(rec.snapshot()) > 0 }) {
		t.Fatal("no change reported")
	}
	abs, _ := filepath.Abs(file)
	if got := rec.snapshot()[0]; got != abs {
		t.Errorf("path = %q, want %q", got, abs)
	}
}

func TestWatcher_CoalescesBursts(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "settings.yaml")
	writeFile(t, file, "a")

	_, rec := startWatcher(t, file)
	f, err := os.OpenFile(file, os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 5; i++ {
		if _, err := f.WriteString("burst\n"); err != nil {
			t.Fatal(err)
		}
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}

	if !waitFor(t, func() bool { return len(rec.snapshot()) > 0 }) {
		t.Fatal("no change reported")
	}
	time.Sleep(2 * testSettle)
	if n := len(rec.snapshot()); n != 1 {
		t.Errorf("got %d callbacks for one burst, want 1", n)
	}
}

func TestWatcher_IgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "settings.yaml")
	writeFile(t, file, "a")

	_, rec := startWatcher(t, file)
	writeFile(t, filepath.Join(dir, "other.yaml"), "b")
	time.Sleep(2 * testSettle)

	if got := rec.snapshot(); len(got) != 0 {
		t.Errorf("unexpected callbacks: %v", got)
	}
}

func TestWatcher_RenameReplace(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "settings.yaml")
	writeFile(t, file, "a")

	_, rec := startWatcher(t, file)
	tmp := filepath.Join(dir, ".settings.yaml.swp")
	writeFile(t, tmp, "b")
	if err := os.Rename(tmp, file); err != nil {
		t.Fatal(err)
	}

	if !waitFor(t, func() bool { return len(rec.snapshot()) > 0 }) {
		t.Error("rename over the watched file was not reported")
	}
}

func TestWatcher_WatchMissingDir(t *testing.T) {
	w, err := NewWatcher()
	if err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	if err := w.Watch(filepath.Join(t.TempDir(), "missing", "settings.yaml")); err == nil {
		t.Error("Watch() should fail when the directory does not exist")
	}
}

func TestWatcher_StopTwice(t *testing.T) {
	w, err := NewWatcher()
	if err != nil {
		t.Fatal(err)
	}
	w.StartAsync()
	if err := w.Stop(); err != nil {
		t.Errorf("first Stop() error = %v", err)
	}
	if err := w.Stop(); err != nil {
		t.Errorf("second Stop() error = %v", err)
	}
}
