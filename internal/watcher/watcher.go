package watcher

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/Stebibastian/kas-filesync/internal/logger"
	"github.com/Stebibastian/kas-filesync/internal/model"
	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Watcher turns raw fsnotify notifications into FileEvents for an explicit
// set of files. Editors replace files via rename, which drops a watch on the
// file itself, so the parent directories are watched instead and events are
// filtered down to the registered paths.
type Watcher struct {
	fw      *fsnotify.Watcher
	paths   map[string]bool
	eventCh chan model.FileEvent
	doneCh  chan struct{}
}

func New(paths []string, bufferSize int) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}

	w := &Watcher{
		fw:      fw,
		paths:   make(map[string]bool),
		eventCh: make(chan model.FileEvent, bufferSize),
		doneCh:  make(chan struct{}),
	}

	dirs := make(map[string]bool)
	for _, path := range paths {
		abs, err := filepath.Abs(path)
		if err != nil {
			_ = fw.Close()
			return nil, fmt.Errorf("failed to resolve path: %w", err)
		}

		w.paths[abs] = true
		dirs[filepath.Dir(abs)] = true
	}

	for dir := range dirs {
		if err := fw.Add(dir); err != nil {
			_ = fw.Close()
			return nil, fmt.Errorf("failed to watch %s: %w", dir, err)
		}

		logger.Log.Debug("watching directory",
			zap.String("path", dir))
	}

	go w.run()

	return w, nil
}

func (w *Watcher) run() {
	defer close(w.eventCh)

	for {
		select {
		case <-w.doneCh:
			logger.Log.Info("watcher stopping")
			return

		case fsEvent, ok := <-w.fw.Events:
			if !ok {
				logger.Log.Warn("watch mechanism closed its event stream")
				return
			}

			abs, err := filepath.Abs(fsEvent.Name)
			if err != nil || !w.paths[abs] {
				continue
			}

			eventType := toEventType(fsEvent.Op)
			if eventType == "" {
				continue
			}

			event := model.FileEvent{
				Type:      eventType,
				Path:      abs,
				Timestamp: time.Now(),
			}

			select {
			case w.eventCh <- event:
			default:
				logger.Log.Warn("event channel is full, dropping event",
					zap.String("path", abs))
			}

		case err, ok := <-w.fw.Errors:
			if !ok {
				return
			}

			logger.Log.Error("watcher error",
				zap.Error(err))
		}
	}
}

func (w *Watcher) Events() <-chan model.FileEvent {
	return w.eventCh
}

func (w *Watcher) Stop() {
	close(w.doneCh)
	_ = w.fw.Close()
}

func toEventType(op fsnotify.Op) model.EventType {
	switch {
	case op.Has(fsnotify.Create), op.Has(fsnotify.Write):
		return model.EventWrite
	case op.Has(fsnotify.Remove), op.Has(fsnotify.Rename):
		return model.EventRemove
	default:
		return ""
	}
}
