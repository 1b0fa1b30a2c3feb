// Package watch refreshes the git segment whenever the repository changes,
// either as a small TUI or as a line stream.
package watch

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is the quiet period required before a change is signalled.
const DefaultDebounce = 300 * time.Millisecond

// ErrNotRepository is returned by Start when the directory is not inside a
// git working tree.
var ErrNotRepository = errors.New("not a git repository")

// RepoResolver locates the directories to watch.
type RepoResolver interface {
	CommonDir(ctx context.Context, dir string) string
	TopLevel(ctx context.Context, dir string) string
}

// Watcher signals on Events after repository activity settles. Start and
// Stop may be called from different goroutines.
type Watcher struct {
	dir       string
	debounce  time.Duration
	git       RepoResolver
	logf      func(string, ...any)
	gitDirFn  func(string) (string, error)
	lifecycle sync.Mutex
	started   bool
	commonDir string
	workTree  string
	roots     []string
	events    chan struct{}
	done      chan struct{}
	paths     map[string]struct{}
	mu        sync.Mutex
	watcher   *fsnotify.Watcher
	wg        sync.WaitGroup
}

// NewWatcher creates a Watcher for dir. A negative debounce is treated as 0.
func NewWatcher(git RepoResolver, dir string, debounce time.Duration, gitDir func(string) (string, error), logf func(string, ...any)) *Watcher {
	if debounce < 0 {
		debounce = 0
	}
	return &Watcher{
		dir:      dir,
		debounce: debounce,
		git:      git,
		gitDirFn: gitDir,
		logf:     logf,
	}
}

// Start resolves the repository layout and starts the background goroutine.
func (w *Watcher) Start(ctx context.Context) error {
	w.lifecycle.Lock()
	defer w.lifecycle.Unlock()

	if w.started {
		return nil
	}
	if w.git == nil {
		return ErrNotRepository
	}
	commonDir := w.git.CommonDir(ctx, w.dir)
	if commonDir == "" {
		w.debugf("watch: unable to resolve git common dir for %s", w.dir)
		return ErrNotRepository
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}

	w.started = true
	w.watcher = watcher
	w.commonDir = commonDir
	w.events = make(chan struct{}, 1)
	w.done = make(chan struct{})
	w.paths = make(map[string]struct{})
	w.roots = []string{
		filepath.Join(commonDir, "refs"),
		filepath.Join(commonDir, "logs"),
	}

	w.addWatchDir(commonDir)
	if w.gitDirFn != nil {
		// linked worktrees keep HEAD and index outside the common dir
		if gitDir, err := w.gitDirFn(w.dir); err == nil {
			w.addWatchDir(gitDir)
		}
	}
	for _, root := range w.roots {
		w.addWatchTree(root)
	}
	// fsnotify is not recursive
	if topLevel := w.git.TopLevel(ctx, w.dir); topLevel != "" {
		w.workTree = topLevel
		w.addWatchTree(topLevel)
	}

	w.wg.Add(1)
	go w.run()
	return nil
}

// Stop stops the watcher and waits for the background goroutine.
func (w *Watcher) Stop() {
	w.lifecycle.Lock()
	defer w.lifecycle.Unlock()

	if !w.started {
		return
	}
	w.started = false
	close(w.done)
	if w.watcher != nil {
		_ = w.watcher.Close()
	}
	w.wg.Wait()
}

// Events delivers at most one pending signal.
func (w *Watcher) Events() <-chan struct{} {
	return w.events
}

// CommonDir returns the git common directory being watched.
func (w *Watcher) CommonDir() string {
	return w.commonDir
}

// WatchedPaths returns the directories currently registered with fsnotify.
func (w *Watcher) WatchedPaths() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	paths := make([]string, 0, len(w.paths))
	for path := range w.paths {
		paths = append(paths, path)
	}
	return paths
}

// Signal notifies listeners without blocking.
func (w *Watcher) Signal() {
	select {
	case <-w.done:
		return
	default:
	}
	select {
	case w.events <- struct{}{}:
	default:
	}
}

// IsUnderRoot reports whether path is under a recursively watched root:
// refs/, logs/ or the work tree outside any .git directory.
func (w *Watcher) IsUnderRoot(path string) bool {
	if path == "" {
		return false
	}
	for _, root := range w.roots {
		if isWithin(path, root) {
			return true
		}
	}
	if !isWithin(path, w.workTree) {
		return false
	}
	rel, err := filepath.Rel(w.workTree, path)
	if err != nil {
		return false
	}
	return !slices.Contains(strings.Split(rel, string(filepath.Separator)), ".git")
}

func isWithin(path, root string) bool {
	if root == "" {
		return false
	}
	return path == root || strings.HasPrefix(path, root+string(filepath.Separator))
}

func (w *Watcher) run() {
	defer w.wg.Done()

	var (
		timer   *time.Timer
		timerCh <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-w.done:
			return
		case <-timerCh:
			timerCh = nil
			w.Signal()
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !relevant(event) {
				continue
			}
			if event.Op&fsnotify.Create != 0 {
				w.maybeWatchNewDir(event.Name)
			}
			w.debugf("watch: %s", event)
			if w.debounce == 0 {
				w.Signal()
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			timerCh = timer.C
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.debugf("watch error: %v", err)
		}
	}
}

func relevant(event fsnotify.Event) bool {
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
		return false
	}
	// lock files come and go around every git write
	return !strings.HasSuffix(event.Name, ".lock")
}

func (w *Watcher) maybeWatchNewDir(path string) {
	if !w.IsUnderRoot(path) {
		return
	}
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		return
	}
	// a directory moved or extracted in one step arrives with children
	w.addWatchTree(path)
}

func (w *Watcher) addWatchDir(path string) {
	if path == "" {
		return
	}
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if _, ok := w.paths[path]; ok {
		return
	}
	if err := w.watcher.Add(path); err != nil {
		w.debugf("watch: add failed for %s: %v", path, err)
		return
	}
	w.paths[path] = struct{}{}
}

func (w *Watcher) addWatchTree(root string) {
	if root == "" {
		return
	}
	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || !d.IsDir() {
			return nil
		}
		// the git dir has its own watches
		if path != root && d.Name() == ".git" {
			return filepath.SkipDir
		}
		w.addWatchDir(path)
		return nil
	})
}

func (w *Watcher) debugf(format string, args ...any) {
	if w.logf == nil {
		return
	}
	w.logf(format, args...)
}
