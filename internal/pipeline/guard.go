package pipeline

import (
	"os"
	"sync"
	"time"

	"github.com/Stebibastian/kas-filesync/internal/logger"
	"github.com/Stebibastian/kas-filesync/internal/model"
	"github.com/Stebibastian/kas-filesync/internal/util"
	"go.uber.org/zap"
)

type expectedWrite struct {
	hash    string
	expires time.Time
}

// WriteGuard breaks the write-triggered-watch feedback loop. The sync engine
// registers the hash of every file it is about to write; when the watch layer
// later reports that path, an event whose on-disk content matches the
// registered hash is discarded instead of re-entering the pipeline. A content
// hash cache additionally drops notifications that changed nothing (editors
// touching mtime without altering bytes).
type WriteGuard struct {
	mu       sync.Mutex
	ttl      time.Duration
	expected map[string]expectedWrite
	seen     map[string]string
}

func NewWriteGuard(ttl time.Duration) *WriteGuard {
	return &WriteGuard{
		ttl:      ttl,
		expected: make(map[string]expectedWrite),
		seen:     make(map[string]string),
	}
}

// Expect must be called before the file write it registers, so the marker is
// in place by the time the notification arrives.
func (g *WriteGuard) Expect(path string, content []byte) {
	g.mu.Lock()
	defer g.mu.Unlock()

	hash := util.Checksum(content)
	g.expected[path] = expectedWrite{hash: hash, expires: time.Now().Add(g.ttl)}
	g.seen[path] = hash
}

func (g *WriteGuard) Forget(path string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	delete(g.expected, path)
	delete(g.seen, path)
}

func (g *WriteGuard) Run(inCh <-chan model.FileEvent) <-chan model.FileEvent {
	outCh := make(chan model.FileEvent, cap(inCh))

	go func() {
		defer close(outCh)

		for event := range inCh {
			if g.admit(event) {
				outCh <- event
			}
		}
	}()

	return outCh
}

func (g *WriteGuard) admit(event model.FileEvent) bool {
	hash, err := util.FileChecksum(event.Path)
	if err != nil {
		if os.IsNotExist(err) {
			// Deletion is a real divergence; let it through.
			g.Forget(event.Path)
			return true
		}

		logger.Log.Debug("failed to hash changed file, passing event through",
			zap.String("path", event.Path),
			zap.Error(err))
		return true
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if expected, ok := g.expected[event.Path]; ok {
		if time.Now().After(expected.expires) {
			delete(g.expected, event.Path)
		} else if expected.hash == hash {
			delete(g.expected, event.Path)
			logger.Log.Debug("suppressed self-write",
				zap.String("path", event.Path))
			return false
		}
	}

	if g.seen[event.Path] == hash {
		logger.Log.Debug("content unchanged, skipping",
			zap.String("path", event.Path))
		return false
	}

	g.seen[event.Path] = hash
	return true
}
