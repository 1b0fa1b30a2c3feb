package watch

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeResolver struct {
	commonDir string
	topLevel  string
}

func (f fakeResolver) CommonDir(_ context.Context, _ string) string { return f.commonDir }

func (f fakeResolver) TopLevel(_ context.Context, _ string) string { return f.topLevel }

// fakeRepo lays out a minimal .git directory and returns the work tree root.
func fakeRepo(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	for _, dir := range []string{
		filepath.Join(".git", "refs", "heads"),
		filepath.Join(".git", "logs"),
	} {
		require.NoError(t, os.MkdirAll(filepath.Join(root, dir), 0o750))
	}
	return root
}

func startWatcher(t *testing.T, root string, debounce time.Duration) *Watcher {
	t.Helper()
	w := NewWatcher(fakeResolver{
		commonDir: filepath.Join(root, ".git"),
		topLevel:  root,
	}, root, debounce, nil, t.Logf)
	require.NoError(t, w.Start(context.Background()))
	t.Cleanup(w.Stop)
	return w
}

func waitForSignal(t *testing.T, w *Watcher) {
	t.Helper()
	select {
	case <-w.Events():
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for watcher signal")
	}
}

func TestWatcherStartNotRepository(t *testing.T) {
	w := NewWatcher(fakeResolver{}, t.TempDir(), DefaultDebounce, nil, nil)
	require.ErrorIs(t, w.Start(context.Background()), ErrNotRepository)

	w = NewWatcher(nil, t.TempDir(), DefaultDebounce, nil, nil)
	require.ErrorIs(t, w.Start(context.Background()), ErrNotRepository)
}

func TestWatcherWatchedPaths(t *testing.T) {
	root := fakeRepo(t)
	linked := t.TempDir()

	w := NewWatcher(fakeResolver{
		commonDir: filepath.Join(root, ".git"),
		topLevel:  root,
	}, root, DefaultDebounce, func(string) (string, error) { return linked, nil }, nil)
	require.NoError(t, w.Start(context.Background()))
	t.Cleanup(w.Stop)

	assert.Equal(t, filepath.Join(root, ".git"), w.CommonDir())
	assert.ElementsMatch(t, []string{
		root,
		linked,
		filepath.Join(root, ".git"),
		filepath.Join(root, ".git", "refs"),
		filepath.Join(root, ".git", "refs", "heads"),
		filepath.Join(root, ".git", "logs"),
	}, w.WatchedPaths())
}

func TestWatcherSignalsOnChange(t *testing.T) {
	root := fakeRepo(t)
	w := startWatcher(t, root, 20*time.Millisecond)

	require.NoError(t, os.WriteFile(filepath.Join(root, ".git", "refs", "heads", "main"), []byte("abc\n"), 0o600))
	waitForSignal(t, w)
}

func TestWatcherSignalsWithoutDebounce(t *testing.T) {
	root := fakeRepo(t)
	w := startWatcher(t, root, 0)

	require.NoError(t, os.WriteFile(filepath.Join(root, "file.txt"), []byte("x"), 0o600))
	waitForSignal(t, w)
}

func TestWatcherDebounceCoalesces(t *testing.T) {
	root := fakeRepo(t)
	w := startWatcher(t, root, 200*time.Millisecond)

	for i := range 5 {
		name := filepath.Join(root, "file"+string(rune('a'+i)))
		require.NoError(t, os.WriteFile(name, []byte("x"), 0o600))
	}
	waitForSignal(t, w)

	select {
	case <-w.Events():
		t.Fatal("expected a single signal for a burst of writes")
	case <-time.After(400 * time.Millisecond):
	}
}

func TestWatcherWatchesNewRefDirectories(t *testing.T) {
	root := fakeRepo(t)
	w := startWatcher(t, root, 10*time.Millisecond)

	newDir := filepath.Join(root, ".git", "refs", "heads", "feature")
	require.NoError(t, os.Mkdir(newDir, 0o750))

	assert.Eventually(t, func() bool {
		for _, path := range w.WatchedPaths() {
			if path == newDir {
				return true
			}
		}
		return false
	}, 3*time.Second, 10*time.Millisecond)
}

func TestWatcherStopIsIdempotent(t *testing.T) {
	root := fakeRepo(t)
	w := startWatcher(t, root, DefaultDebounce)

	w.Stop()
	assert.NotPanics(t, w.Stop)
	assert.NotPanics(t, w.Signal)
}

func TestWatcherSignalsOnSubdirectoryEdit(t *testing.T) {
	root := fakeRepo(t)
	src := filepath.Join(root, "src", "pkg")
	require.NoError(t, os.MkdirAll(src, 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(src, "f.go"), []byte("package pkg\n"), 0o600))

	w := startWatcher(t, root, 0)
	assert.Contains(t, w.WatchedPaths(), src)

	require.NoError(t, os.WriteFile(filepath.Join(src, "f.go"), []byte("package pkg // edited\n"), 0o600))
	waitForSignal(t, w)
}

func TestWatcherWatchesNewWorkTreeDirectories(t *testing.T) {
	root := fakeRepo(t)
	w := startWatcher(t, root, 10*time.Millisecond)

	newDir := filepath.Join(root, "docs")
	require.NoError(t, os.Mkdir(newDir, 0o750))

	assert.Eventually(t, func() bool {
		for _, path := range w.WatchedPaths() {
			if path == newDir {
				return true
			}
		}
		return false
	}, 3*time.Second, 10*time.Millisecond)
}

func TestWatcherSkipsNestedGitDirectories(t *testing.T) {
	root := fakeRepo(t)
	vendored := filepath.Join(root, "third_party", "lib")
	require.NoError(t, os.MkdirAll(filepath.Join(vendored, ".git", "objects"), 0o750))
	require.NoError(t, os.MkdirAll(filepath.Join(root, ".git", "objects", "ab"), 0o750))

	w := startWatcher(t, root, DefaultDebounce)
	paths := w.WatchedPaths()

	assert.Contains(t, paths, vendored)
	assert.NotContains(t, paths, filepath.Join(vendored, ".git"))
	assert.NotContains(t, paths, filepath.Join(root, ".git", "objects"))
	assert.NotContains(t, paths, filepath.Join(root, ".git", "objects", "ab"))
}

func TestWatcherConcurrentStartStop(t *testing.T) {
	root := fakeRepo(t)
	w := NewWatcher(fakeResolver{
		commonDir: filepath.Join(root, ".git"),
		topLevel:  root,
	}, root, DefaultDebounce, nil, nil)
	require.NoError(t, w.Start(context.Background()))

	var wg sync.WaitGroup
	for range 4 {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_ = w.Start(context.Background())
		}()
		go func() {
			defer wg.Done()
			w.Stop()
		}()
	}
	wg.Wait()
	w.Stop()
}

func TestIsUnderRootWorkTree(t *testing.T) {
	w := &Watcher{
		roots:    []string{"/repo/.git/refs"},
		workTree: "/repo",
	}

	assert.True(t, w.IsUnderRoot("/repo"))
	assert.True(t, w.IsUnderRoot("/repo/src/pkg"))
	assert.True(t, w.IsUnderRoot("/repo/.git/refs/heads"))
	assert.False(t, w.IsUnderRoot("/repo/.git/objects/ab"))
	assert.False(t, w.IsUnderRoot("/repo/vendor/lib/.git/refs"))
	assert.False(t, w.IsUnderRoot("/repository/src"))
}

func TestIsUnderRoot(t *testing.T) {
	w := &Watcher{roots: []string{"/repo/.git/refs", "", "/repo/.git/logs"}}

	assert.True(t, w.IsUnderRoot("/repo/.git/refs"))
	assert.True(t, w.IsUnderRoot("/repo/.git/refs/heads/main"))
	assert.True(t, w.IsUnderRoot("/repo/.git/logs/HEAD"))
	assert.False(t, w.IsUnderRoot("/repo/.git/refsx"))
	assert.False(t, w.IsUnderRoot("/repo/src"))
	assert.False(t, w.IsUnderRoot(""))
}

func TestRelevant(t *testing.T) {
	tests := []struct {
		name     string
		event    fsnotify.Event
		expected bool
	}{
		{name: "write", event: fsnotify.Event{Name: "/repo/.git/index", Op: fsnotify.Write}, expected: true},
		{name: "create", event: fsnotify.Event{Name: "/repo/new.txt", Op: fsnotify.Create}, expected: true},
		{name: "remove", event: fsnotify.Event{Name: "/repo/.git/MERGE_HEAD", Op: fsnotify.Remove}, expected: true},
		{name: "chmod", event: fsnotify.Event{Name: "/repo/file", Op: fsnotify.Chmod}, expected: false},
		{name: "lock file", event: fsnotify.Event{Name: "/repo/.git/index.lock", Op: fsnotify.Create}, expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, relevant(tt.event))
		})
	}
}
