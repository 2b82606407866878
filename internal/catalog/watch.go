package catalog

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/tkogut/scalebridge/internal/logging"
)

// WatchExternalEdits starts an fsnotify watch on the catalog file so an
// operator hand-editing it on disk is picked up without a process restart
// (SPEC_FULL.md §4.4). It returns a stop function; calling it more than
// once is safe, since only the first call closes the watcher.
func (s *Store) WatchExternalEdits() (stop func(), err error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	dir := filepath.Dir(s.path)
	if err := w.Add(dir); err != nil {
		w.Close()
		return nil, err
	}
	s.watcher = w

	done := make(chan struct{})
	go func() {
		log := logging.WithOperation("catalog.watch")
		for {
			select {
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if ev.Name != s.path {
					continue
				}
				if !(ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0) {
					continue
				}
				if s.writeWasOurs(ev.Name) {
					continue
				}
				log.Info("external edit detected on catalog file, reloading")
				if err := s.Load(); err != nil {
					log.WithError(err).Error("reload after external edit failed")
					continue
				}
				s.mu.Lock()
				s.version++
				version := s.version
				snap := s.devices.Clone()
				s.mu.Unlock()
				s.publish(Change{Version: version, Snapshot: snap})
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				log.WithError(err).Warn("catalog watch error")
			case <-done:
				return
			}
		}
	}()

	var stopOnce sync.Once
	return func() {
		stopOnce.Do(func() {
			close(done)
			w.Close()
		})
	}, nil
}

// writeWasOurs compares the file's current size against the size this
// Store itself just wrote, to avoid re-triggering a reload for our own
// writeAtomic. Not foolproof under concurrent external edits that happen
// to match size exactly, but sufficient to avoid the common case of
// reacting to our own rename.
func (s *Store) writeWasOurs(path string) bool {
	fi, err := os.Stat(path)
	if err != nil {
		return false
	}
	return fi.Size() == s.lastWriteSize
}
