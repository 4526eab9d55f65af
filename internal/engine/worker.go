package engine

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"time"

	"github.com/Stebibastian/kas-filesync/internal/logger"
	"github.com/Stebibastian/kas-filesync/internal/merge"
	"github.com/Stebibastian/kas-filesync/internal/model"
	"github.com/Stebibastian/kas-filesync/internal/pipeline"
	"github.com/Stebibastian/kas-filesync/internal/store"
	"github.com/Stebibastian/kas-filesync/internal/util"
	"go.uber.org/zap"
)

// Recorder receives the outcome of every sync attempt for the audit log.
type Recorder interface {
	Record(pair string, action model.SyncAction, direction string, syncErr error) error
}

type nopRecorder struct{}

func (nopRecorder) Record(string, model.SyncAction, string, error) error { return nil }

// Worker is the per-pair state machine. All mutation of a pair's files, base
// snapshot, and conflict record happens on its single goroutine, which is the
// exclusive-lock discipline the stores rely on. Events arrive through a
// buffered queue and are applied in order; a full queue coalesces, which is
// lossless because every pass re-reads current disk state.
type Worker struct {
	pair       model.SyncPair
	bases      store.BaseStore
	conflicts  store.ConflictStore
	guard      *pipeline.WriteGuard
	recorder   Recorder
	retryCount int
	retryDelay time.Duration

	events chan model.ChangeEvent
	cancel context.CancelFunc

	snap snapshotState
}

func NewWorker(
	pair model.SyncPair,
	bases store.BaseStore,
	conflicts store.ConflictStore,
	guard *pipeline.WriteGuard,
	recorder Recorder,
	bufferSize int,
	retryCount int,
	retryDelay time.Duration,
) *Worker {
	if recorder == nil {
		recorder = nopRecorder{}
	}

	w := &Worker{
		pair:       pair,
		bases:      bases,
		conflicts:  conflicts,
		guard:      guard,
		recorder:   recorder,
		retryCount: retryCount,
		retryDelay: retryDelay,
		events:     make(chan model.ChangeEvent, max(bufferSize, 1)),
	}

	// A pair restarts into CONFLICT when a record survived the last run.
	state := model.StateConverged
	if _, active, _ := conflicts.Get(pair.Name); active {
		state = model.StateConflict
	}
	w.snap.init(pair, state)

	return w
}

func (w *Worker) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case event := <-w.events:
			w.handle(event)
		}
	}
}

// Enqueue never blocks the dispatcher: when the queue is full, a pending
// event already guarantees a future pass over the same on-disk state.
func (w *Worker) Enqueue(event model.ChangeEvent) {
	select {
	case w.events <- event:
	default:
	}
}

func (w *Worker) Snapshot() model.PairSnapshot {
	return w.snap.get()
}

func (w *Worker) handle(event model.ChangeEvent) {
	prior := w.snap.state()
	w.snap.setState(model.StateSyncing)

	var out outcome
	var err error

	for attempt := 0; ; attempt++ {
		out, err = w.attempt()
		if err == nil || attempt >= w.retryCount {
			break
		}

		logger.Log.Debug("sync attempt failed, retrying",
			zap.String("pair", w.pair.Name),
			zap.Int("attempt", attempt+1),
			zap.Error(err))
		time.Sleep(w.retryDelay * time.Duration(attempt+1))
	}

	if err != nil {
		// The pair keeps its previous state; it was not converged by this
		// attempt and must not be reported as such.
		w.snap.setState(prior)
		w.snap.recordFailure()

		logger.Log.Warn("sync failed",
			zap.String("pair", w.pair.Name),
			zap.String("side", string(event.Side)),
			zap.Error(err))

		if recErr := w.recorder.Record(w.pair.Name, out.action, string(out.direction), err); recErr != nil {
			logger.Log.Warn("failed to record history",
				zap.Error(recErr))
		}
		return
	}

	w.snap.setState(out.state)

	if out.action == model.ActionNone {
		return
	}

	w.snap.recordSuccess(out.action)

	logger.Log.Info("synced",
		zap.String("pair", w.pair.Name),
		zap.String("action", string(out.action)),
		zap.String("direction", string(out.direction)),
		zap.String("outcome", string(out.state)))

	if recErr := w.recorder.Record(w.pair.Name, out.action, string(out.direction), nil); recErr != nil {
		logger.Log.Warn("failed to record history",
			zap.Error(recErr))
	}
}

type outcome struct {
	action    model.SyncAction
	direction merge.Direction
	state     model.PairState
}

func (w *Worker) attempt() (outcome, error) {
	sourcePath := w.pair.SourcePath
	targetPath := w.pair.TargetPath()

	source, err := util.ReadFileOrEmpty(sourcePath)
	if err != nil {
		return outcome{}, err
	}

	target, err := util.ReadFileOrEmpty(targetPath)
	if err != nil {
		return outcome{}, err
	}

	if record, active, err := w.conflicts.Get(w.pair.Name); err == nil && active {
		return w.checkResolution(record, source, target)
	} else if err != nil {
		logger.Log.Warn("conflict store unreadable, proceeding without record",
			zap.String("pair", w.pair.Name),
			zap.Error(err))
	}

	base, hasBase, err := w.bases.Get(w.pair.Name)
	if err != nil {
		// Degraded decision from current divergence only; a conflict that a
		// valid base would have resolved as a propagate may surface.
		logger.Log.Warn("base snapshot unreadable, merging without ancestor",
			zap.String("pair", w.pair.Name),
			zap.Error(err))
		base, hasBase = nil, false
	}

	result := merge.Merge(base, source, target)

	switch result.Kind {
	case merge.KindUnchanged:
		// Both sides agree. If they agree on something newer than the stored
		// base (identical edits on both sides, both files deleted, or first
		// sight of an already converged pair), the base follows without any
		// file I/O. Convergence means base == source == target, including
		// when all three are empty.
		if (hasBase || len(source) > 0) && !bytes.Equal(base, source) {
			if err := w.bases.Put(w.pair.Name, source); err != nil {
				return outcome{}, err
			}
		}
		return outcome{action: model.ActionNone, state: model.StateConverged}, nil

	case merge.KindPropagate:
		stale := sourcePath
		if result.Direction == merge.DirectionSourceToTarget {
			stale = targetPath
		}

		if err := w.write(stale, result.Content); err != nil {
			return outcome{}, err
		}
		if err := w.bases.Put(w.pair.Name, result.Content); err != nil {
			return outcome{}, err
		}

		return outcome{
			action:    model.ActionPropagate,
			direction: result.Direction,
			state:     model.StateConverged,
		}, nil

	case merge.KindMerged:
		if !bytes.Equal(source, result.Content) {
			if err := w.write(sourcePath, result.Content); err != nil {
				return outcome{}, err
			}
		}
		if !bytes.Equal(target, result.Content) {
			if err := w.write(targetPath, result.Content); err != nil {
				return outcome{}, err
			}
		}
		if err := w.bases.Put(w.pair.Name, result.Content); err != nil {
			return outcome{}, err
		}

		return outcome{action: model.ActionMerge, state: model.StateConverged}, nil

	case merge.KindConflict:
		// The record keeps the pre-conflict contents for audit/undo and is
		// persisted before the marked files, so a crash in between leaves a
		// resolvable state rather than unexplained markers.
		record := model.ConflictRecord{
			Pair:          w.pair.Name,
			SourcePath:    sourcePath,
			TargetPath:    targetPath,
			DetectedAt:    time.Now(),
			SourceContent: string(source),
			TargetContent: string(target),
		}
		if err := w.conflicts.Put(record); err != nil {
			return outcome{}, err
		}

		if err := w.write(sourcePath, result.Content); err != nil {
			return outcome{}, err
		}
		if err := w.write(targetPath, result.Content); err != nil {
			return outcome{}, err
		}

		// Base stays at the last converged content: the eventual resolution
		// must be diffed against the true ancestor.
		logger.Log.Warn("conflict detected",
			zap.String("pair", w.pair.Name),
			zap.Int("regions", result.Conflicts))

		return outcome{action: model.ActionConflict, state: model.StateConflict}, nil

	default:
		return outcome{}, fmt.Errorf("unknown merge result kind %v", result.Kind)
	}
}

// checkResolution decides whether an active conflict has been resolved by the
// user. A side counts as resolved once its markers are gone; the clean side
// wins. While both sides still carry markers nothing is rewritten, so marker
// blocks can never nest.
func (w *Worker) checkResolution(record model.ConflictRecord, source, target []byte) (outcome, error) {
	sourceMarked := merge.HasMarkers(source)
	targetMarked := merge.HasMarkers(target)

	switch {
	case sourceMarked && targetMarked:
		return outcome{action: model.ActionNone, state: model.StateConflict}, nil

	case !sourceMarked && !targetMarked:
		if bytes.Equal(source, target) {
			return w.finishResolution(source, nil, merge.DirectionNone)
		}

		// Both sides edited past the markers in different ways; the more
		// recently saved side wins.
		if modTime(w.pair.SourcePath).After(modTime(w.pair.TargetPath())) {
			return w.finishResolution(source, []string{w.pair.TargetPath()}, merge.DirectionSourceToTarget)
		}
		return w.finishResolution(target, []string{w.pair.SourcePath}, merge.DirectionTargetToSource)

	case !sourceMarked:
		return w.finishResolution(source, []string{w.pair.TargetPath()}, merge.DirectionSourceToTarget)

	default:
		return w.finishResolution(target, []string{w.pair.SourcePath}, merge.DirectionTargetToSource)
	}
}

func (w *Worker) finishResolution(content []byte, writeTo []string, direction merge.Direction) (outcome, error) {
	for _, path := range writeTo {
		if err := w.write(path, content); err != nil {
			return outcome{}, err
		}
	}

	if err := w.bases.Put(w.pair.Name, content); err != nil {
		return outcome{}, err
	}
	if err := w.conflicts.Delete(w.pair.Name); err != nil {
		return outcome{}, err
	}

	logger.Log.Info("conflict resolved",
		zap.String("pair", w.pair.Name))

	return outcome{
		action:    model.ActionResolve,
		direction: direction,
		state:     model.StateConverged,
	}, nil
}

// write registers the expected content with the write guard before touching
// the file, so the resulting notification is swallowed instead of looping
// back through the pipeline.
func (w *Worker) write(path string, content []byte) error {
	w.guard.Expect(path, content)

	if err := util.AtomicWrite(path, content); err != nil {
		w.guard.Forget(path)
		return err
	}

	return nil
}

func modTime(path string) time.Time {
	info, err := os.Stat(path)
	if err != nil {
		return time.Time{}
	}

	return info.ModTime()
}
