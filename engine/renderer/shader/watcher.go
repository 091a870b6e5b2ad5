package shader

import (
	"fmt"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/Carmen-Shannon/oxy-fps/common"
	"github.com/fsnotify/fsnotify"
)

// Watcher collects changes to .wgsl files in a directory. Changes are only queued; the render loop drains them
// between frames, at the same safe point it handles resizes, and rebuilds the affected pipelines.
type Watcher struct {
	mu      *sync.Mutex
	dir     string
	watcher *fsnotify.Watcher
	pending map[string]struct{}
	done    chan struct{}
	wg      sync.WaitGroup
}

// NewWatcher starts watching dir for .wgsl changes.
//
// Parameters:
//   - dir: the shader directory on disk
//
// Returns:
//   - *Watcher: the running watcher
//   - error: if the directory cannot be watched
func NewWatcher(dir string) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create shader watcher: %w", err)
	}
	if err := fw.Add(dir); err != nil {
		fw.Close()
		return nil, fmt.Errorf("failed to watch shader directory %s: %w", dir, err)
	}
	w := &Watcher{
		mu:      &sync.Mutex{},
		dir:     dir,
		watcher: fw,
		pending: make(map[string]struct{}),
		done:    make(chan struct{}),
	}
	w.wg.Add(1)
	go w.run()
	return w, nil
}

func (w *Watcher) run() {
	defer w.wg.Done()
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			if !strings.HasSuffix(event.Name, ".wgsl") {
				continue
			}
			rel, err := filepath.Rel(w.dir, event.Name)
			if err != nil {
				rel = filepath.Base(event.Name)
			}
			w.mu.Lock()
			w.pending[filepath.ToSlash(rel)] = struct{}{}
			w.mu.Unlock()
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			common.Logger().Warn("shader watcher error", "dir", w.dir, "error", err)
		case <-w.done:
			return
		}
	}
}

// Drain returns the shader paths changed since the previous call, relative to the watched directory and
// slash-separated, in sorted order.
//
// Returns:
//   - []string: the changed paths, empty if nothing changed
func (w *Watcher) Drain() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	if len(w.pending) == 0 {
		return nil
	}
	paths := make([]string, 0, len(w.pending))
	for p := range w.pending {
		paths = append(paths, p)
	}
	clear(w.pending)
	slices.Sort(paths)
	return paths
}

// Close stops the watcher and waits for its goroutine to exit.
func (w *Watcher) Close() error {
	close(w.done)
	err := w.watcher.Close()
	w.wg.Wait()
	return err
}
