package pipeline

import (
	"sync"
	"time"

	"github.com/Stebibastian/kas-filesync/internal/model"
)

// Debounce collapses bursts of notifications for the same path into one
// event per coalescing window. Editors that write in several syscalls, or
// write-then-rename, produce a single downstream event.
func Debounce(inCh <-chan model.FileEvent, window time.Duration) <-chan model.FileEvent {
	outCh := make(chan model.FileEvent, cap(inCh))

	go func() {
		// The mutex orders timer callbacks against the final flush: a
		// pending event is sent by exactly one of them, and outCh is only
		// closed once no callback can still find an event to send.
		var mu sync.Mutex
		timers := make(map[string]*time.Timer)
		events := make(map[string]model.FileEvent)

		for event := range inCh {
			path := event.Path

			mu.Lock()
			if t, ok := timers[path]; ok {
				t.Stop()
			}

			events[path] = event

			timers[path] = time.AfterFunc(window, func() {
				mu.Lock()
				defer mu.Unlock()

				pending, ok := events[path]
				delete(timers, path)
				delete(events, path)

				if ok {
					outCh <- pending
				}
			})
			mu.Unlock()
		}

		mu.Lock()
		defer mu.Unlock()
		for path, t := range timers {
			t.Stop()

			if pending, ok := events[path]; ok {
				outCh <- pending
			}
			delete(events, path)
			delete(timers, path)
		}
		close(outCh)
	}()

	return outCh
}
