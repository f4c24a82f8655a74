package config

import (
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher reloads config.yaml on change so a long-lived MCP adapter process
// doesn't need a restart after an operator edits it, mirroring bd's
// FileWatcher/Debouncer pattern for its own config and database files.
type Watcher struct {
	fsw       *fsnotify.Watcher
	path      string
	projectDir string
	onReload  func(*Config, error)

	mu     sync.Mutex
	timer  *time.Timer
	cancel chan struct{}
}

const debounce = 300 * time.Millisecond

// WatchFile starts watching path (the resolved config file, possibly empty
// if none exists yet) and calls onReload with the freshly parsed config
// each time it settles after a write. Callers must call Close when done.
func WatchFile(path, projectDir string, onReload func(*Config, error)) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	w := &Watcher{fsw: fsw, path: path, projectDir: projectDir, onReload: onReload, cancel: make(chan struct{})}

	if path != "" {
		if err := fsw.Add(path); err != nil {
			_ = fsw.Close()
			return nil, err
		}
	}

	go w.loop()
	return w, nil
}

func (w *Watcher) loop() {
	for {
		select {
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
				w.debounced()
			}
		case _, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
		case <-w.cancel:
			return
		}
	}
}

func (w *Watcher) debounced() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(debounce, func() {
		cfg, err := Load(w.projectDir)
		w.onReload(cfg, err)
	})
}

// Close stops the watcher goroutine and releases the fsnotify handle.
func (w *Watcher) Close() error {
	close(w.cancel)
	return w.fsw.Close()
}
