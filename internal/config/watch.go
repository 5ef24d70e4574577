package config

import (
	"path/filepath"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
)

// reloadDebounce collapses the burst of events editors emit on save.
const reloadDebounce = 150 * time.Millisecond

// Watcher re-reads a settings file whenever it changes and publishes the
// parsed result on Updates. Invalid edits are logged and skipped.
type Watcher struct {
	Updates chan Settings

	path    string
	watcher *fsnotify.Watcher
	logger  *log.Logger
	closeCh chan struct{}
	done    chan struct{}
	once    sync.Once
}

// WatchFile starts watching path. The parent directory is watched so that
// editors which replace the file on save are still followed.
func WatchFile(path string, logger *log.Logger) (*Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := w.Add(filepath.Dir(path)); err != nil {
		_ = w.Close()
		return nil, err
	}
	if logger == nil {
		logger = log.Default()
	}

	watcher := &Watcher{
		Updates: make(chan Settings, 1),
		path:    filepath.Clean(path),
		watcher: w,
		logger:  logger,
		closeCh: make(chan struct{}),
		done:    make(chan struct{}),
	}
	go watcher.run()
	return watcher, nil
}

// Close stops the watcher and closes Updates.
func (w *Watcher) Close() error {
	var err error
	w.once.Do(func() {
		close(w.closeCh)
		err = w.watcher.Close()
		<-w.done
		close(w.Updates)
	})
	return err
}

func (w *Watcher) run() {
	defer close(w.done)

	var pending <-chan time.Time
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			pending = time.After(reloadDebounce)
		case <-pending:
			pending = nil
			s, err := Load(w.path)
			if err != nil {
				w.logger.Warn("settings reload rejected", "path", w.path, "err", err)
				continue
			}
			w.logger.Info("settings reloaded", "path", w.path, "message", s.Message)
			w.publish(s)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("settings watcher", "err", err)
		case <-w.closeCh:
			return
		}
	}
}

// publish replaces any unconsumed update with the newest one.
func (w *Watcher) publish(s Settings) {
	select {
	case <-w.Updates:
	default:
	}
	select {
	case w.Updates <- s:
	case <-w.closeCh:
	}
}
