// Package watch reports changes to a rulebook content directory. Editors
// often write a file several times per save, so events are debounced into a
// single callback once the directory has been quiet for a while.
package watch

import (
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDelay is the quiet period before a change is reported
const DefaultDelay = 250 * time.Millisecond

var contentExtensions = map[string]bool{
	".yaml": true,
	".yml":  true,
	".json": true,
}

// Watcher watches a content directory tree
type Watcher struct {
	fw      *fsnotify.Watcher
	delay   time.Duration
	done    chan struct{}
	stopped bool
	mu      sync.Mutex
	timer   *time.Timer
}

// NewWatcher creates a watcher that waits delay after the last change
// before reporting it. A non-positive delay uses DefaultDelay.
func NewWatcher(delay time.Duration) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if delay <= 0 {
		delay = DefaultDelay
	}
	return &Watcher{
		fw:    fw,
		delay: delay,
		done:  make(chan struct{}),
	}, nil
}

// Watch starts monitoring dir recursively. onChange runs on its own
// goroutine, once per burst of content file changes.
func (w *Watcher) Watch(dir string, onChange func()) error {
	absPath, err := filepath.Abs(dir)
	if err != nil {
		return err
	}

	err = filepath.Walk(absPath, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil // skip inaccessible paths
		}
		if info.IsDir() {
			if isHidden(info.Name()) && path != absPath {
				return filepath.SkipDir
			}
			return w.fw.Add(path)
		}
		return nil
	})
	if err != nil {
		return err
	}

	go func() {
		for {
			select {
			case event, ok := <-w.fw.Events:
				if !ok {
					return
				}

				// New directories (e.g. tables/) need their own watch
				if event.Has(fsnotify.Create) {
					if info, err := os.Stat(event.Name); err == nil && info.IsDir() && !isHidden(info.Name()) {
						if err := w.fw.Add(event.Name); err != nil {
							log.Printf("Warning: cannot watch %s: %v", event.Name, err)
						}
						w.schedule(onChange)
						continue
					}
				}

				if !isContentFile(event.Name) {
					continue
				}
				if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) ||
					event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
					w.schedule(onChange)
				}

			case err, ok := <-w.fw.Errors:
				if !ok {
					return
				}
				log.Printf("Warning: content watcher error: %v", err)

			case <-w.done:
				return
			}
		}
	}()

	return nil
}

// schedule (re)starts the quiet-period timer
func (w *Watcher) schedule(onChange func()) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.stopped {
		return
	}
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.delay, func() {
		w.mu.Lock()
		stopped := w.stopped
		w.mu.Unlock()
		if !stopped {
			onChange()
		}
	})
}

// Stop ends monitoring and releases all resources.
// Safe to call multiple times.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.stopped {
		return nil
	}
	w.stopped = true
	if w.timer != nil {
		w.timer.Stop()
	}
	close(w.done)
	return w.fw.Close()
}

func isContentFile(path string) bool {
	base := filepath.Base(path)
	if isHidden(base) || strings.HasSuffix(base, "~") {
		return false
	}
	return contentExtensions[strings.ToLower(filepath.Ext(base))]
}

func isHidden(name string) bool {
	return strings.HasPrefix(name, ".")
}
