package engine

import (
	"context"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/Stebibastian/kas-filesync/internal/config"
	"github.com/Stebibastian/kas-filesync/internal/logger"
	"github.com/Stebibastian/kas-filesync/internal/model"
	"github.com/Stebibastian/kas-filesync/internal/pipeline"
	"github.com/Stebibastian/kas-filesync/internal/registry"
	"github.com/Stebibastian/kas-filesync/internal/store"
	"github.com/Stebibastian/kas-filesync/internal/watcher"
	"go.uber.org/zap"
)

const (
	watchRetryBase = time.Second
	watchRetryMax  = 30 * time.Second
)

type pairRef struct {
	pair string
	side model.Side
}

// Engine owns the daemon lifecycle: it loads the pair registry, runs one
// state-machine worker per pair, and feeds them from the watch pipeline.
// Pairs touch disjoint files and proceed fully in parallel; the engine itself
// only routes events and manages worker lifetimes.
type Engine struct {
	cfg       *config.Config
	bases     store.BaseStore
	conflicts store.ConflictStore
	guard     *pipeline.WriteGuard
	recorder  Recorder

	registryPath string

	mu      sync.RWMutex
	workers map[string]*Worker
	byPath  map[string]pairRef
	wg      sync.WaitGroup
	ctx     context.Context
}

func New(cfg *config.Config, bases store.BaseStore, conflicts store.ConflictStore, recorder Recorder) *Engine {
	registryPath, err := filepath.Abs(cfg.RegistryPath)
	if err != nil {
		registryPath = cfg.RegistryPath
	}

	return &Engine{
		cfg:          cfg,
		bases:        bases,
		conflicts:    conflicts,
		guard:        pipeline.NewWriteGuard(cfg.SuppressTTL()),
		recorder:     recorder,
		registryPath: registryPath,
		workers:      make(map[string]*Worker),
		byPath:       make(map[string]pairRef),
	}
}

// Run blocks until ctx is cancelled. The watch mechanism is restarted with
// backoff whenever it fails; each (re)start is followed by a full sweep so
// edits made during an outage are never silently dropped.
func (e *Engine) Run(ctx context.Context) error {
	e.ctx = ctx

	if err := e.reload(); err != nil {
		return err
	}

	backoff := watchRetryBase

	for {
		w, err := watcher.New(e.watchPaths(), e.cfg.BufferSize)
		if err != nil {
			logger.Log.Error("failed to start watch mechanism, retrying",
				zap.Duration("backoff", backoff),
				zap.Error(err))

			select {
			case <-ctx.Done():
				e.wg.Wait()
				return nil
			case <-time.After(backoff):
			}

			backoff = min(backoff*2, watchRetryMax)
			continue
		}

		backoff = watchRetryBase
		events := e.guard.Run(pipeline.Debounce(w.Events(), e.cfg.Debounce()))

		e.Sweep()

		reloading := e.consume(ctx, events)
		w.Stop()

		if ctx.Err() != nil {
			// Drain lets in-flight workers finish their current atomic
			// write before the daemon exits.
			e.wg.Wait()
			return nil
		}

		if reloading {
			if err := e.reload(); err != nil {
				logger.Log.Error("registry reload failed",
					zap.Error(err))
			}
			continue
		}

		logger.Log.Warn("watch mechanism stopped, restarting",
			zap.Duration("backoff", backoff))

		select {
		case <-ctx.Done():
			e.wg.Wait()
			return nil
		case <-time.After(backoff):
		}
		backoff = min(backoff*2, watchRetryMax)
	}
}

// consume routes events until the stream ends. It reports true when the loop
// ended because the registry changed and the watch set must be rebuilt.
func (e *Engine) consume(ctx context.Context, events <-chan model.FileEvent) bool {
	for {
		select {
		case <-ctx.Done():
			return false

		case event, ok := <-events:
			if !ok {
				return false
			}

			if event.Path == e.registryPath {
				logger.Log.Info("registry changed, reloading pairs")
				return true
			}

			e.dispatch(event)
		}
	}
}

func (e *Engine) dispatch(event model.FileEvent) {
	e.mu.RLock()
	ref, ok := e.byPath[event.Path]
	worker := e.workers[ref.pair]
	e.mu.RUnlock()

	if !ok || worker == nil {
		return
	}

	worker.Enqueue(model.ChangeEvent{
		Pair:       ref.pair,
		Side:       ref.side,
		ObservedAt: event.Timestamp,
	})
}

// Sweep enqueues one synthetic event per pair, forcing a full re-diff from
// current disk state. Used at startup, after watch outages, and on request.
func (e *Engine) Sweep() {
	e.mu.RLock()
	defer e.mu.RUnlock()

	for name, worker := range e.workers {
		worker.Enqueue(model.ChangeEvent{
			Pair:       name,
			Side:       model.SideSource,
			ObservedAt: time.Now(),
		})
	}
}

// reload syncs the worker set with the registry file: new pairs get workers
// and watches, removed pairs are stopped. Running pairs are left untouched.
func (e *Engine) reload() error {
	pairs, err := registry.LoadValid(e.registryPath)
	if err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	current := make(map[string]model.SyncPair, len(pairs))
	for _, pair := range pairs {
		current[pair.Name] = pair
	}

	for name, worker := range e.workers {
		pair, keep := current[name]
		if keep && pair == worker.pair {
			continue
		}

		worker.cancel()
		delete(e.workers, name)

		logger.Log.Info("pair stopped",
			zap.String("pair", name))
	}

	for name, pair := range current {
		if _, running := e.workers[name]; running {
			continue
		}

		worker := NewWorker(pair, e.bases, e.conflicts, e.guard, e.recorder,
			e.cfg.BufferSize, e.cfg.RetryCount, e.cfg.RetryDelay())

		workerCtx, cancel := context.WithCancel(e.ctx)
		worker.cancel = cancel

		e.workers[name] = worker
		e.wg.Add(1)
		go func() {
			defer e.wg.Done()
			worker.Run(workerCtx)
		}()

		logger.Log.Info("pair started",
			zap.String("pair", name),
			zap.String("source", pair.SourcePath),
			zap.String("target", pair.TargetPath()))
	}

	e.byPath = make(map[string]pairRef, 2*len(pairs))
	for _, pair := range pairs {
		for _, side := range []model.Side{model.SideSource, model.SideTarget} {
			e.byPath[pair.PathFor(side)] = pairRef{pair: pair.Name, side: side}
		}
	}

	return nil
}

func (e *Engine) watchPaths() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()

	paths := make([]string, 0, len(e.byPath)+1)
	for path := range e.byPath {
		paths = append(paths, path)
	}
	paths = append(paths, e.registryPath)

	return paths
}

func (e *Engine) Snapshots() []model.PairSnapshot {
	e.mu.RLock()
	defer e.mu.RUnlock()

	snaps := make([]model.PairSnapshot, 0, len(e.workers))
	for _, worker := range e.workers {
		snaps = append(snaps, worker.Snapshot())
	}

	sort.Slice(snaps, func(i, j int) bool {
		return snaps[i].Pair < snaps[j].Pair
	})

	return snaps
}
