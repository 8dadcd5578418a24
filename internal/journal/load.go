package journal

import (
	"context"
	"log/slog"

	"github.com/Womackv3/osrs-checklist-app-sub000/internal/localstore"
	"github.com/Womackv3/osrs-checklist-app-sub000/internal/model"
)

type Source string

const (
	SourceRemote Source = "remote"
	SourceLocal  Source = "local"
	SourceEmpty  Source = "empty"
)

// LoadResult describes which store the canonical list was loaded from.
// Errors holds the failures of attempts that were skipped on the way.
type LoadResult struct {
	Goals  []*model.Goal
	Source Source
	Errors []error
}

type loadAttempt struct {
	source Source
	load   func(ctx context.Context) ([]*model.Goal, error)
}

// attempts is the fallback chain: remote when signed in, then local.
// Running out of attempts yields an empty list.
func (e *Engine) attempts(userID string) []loadAttempt {
	var attempts []loadAttempt
	if e.remoteActive(userID) {
		attempts = append(attempts, loadAttempt{
			source: SourceRemote,
			load: func(ctx context.Context) ([]*model.Goal, error) {
				var goals []*model.Goal
				err := e.callRemote(ctx, func(ctx context.Context) error {
					var err error
					goals, err = e.remote.LoadAll(ctx, userID)
					return err
				})
				return goals, err
			},
		})
	}
	attempts = append(attempts, loadAttempt{
		source: SourceLocal,
		load: func(ctx context.Context) ([]*model.Goal, error) {
			return localstore.LoadGoals(ctx, e.local)
		},
	})
	return attempts
}

// LoadGoals replaces the canonical list from the first store that answers.
// It never fails; a list loaded remotely is mirrored to the local store.
func (e *Engine) LoadGoals(ctx context.Context) LoadResult {
	e.persistMu.Lock()
	result, snapshot := e.loadLocked(ctx)
	e.persistMu.Unlock()

	e.notify(ctx, snapshot)
	return result
}

// loadLocked expects persistMu to be held.
func (e *Engine) loadLocked(ctx context.Context) (LoadResult, []*model.Goal) {
	e.mu.Lock()
	userID := e.userID
	e.mu.Unlock()

	result := LoadResult{Source: SourceEmpty}
	for _, a := range e.attempts(userID) {
		goals, err := a.load(ctx)
		if err != nil {
			slog.Warn("goal load attempt failed", "source", a.source, "error", err, "user_id", userID)
			result.Errors = append(result.Errors, err)
			continue
		}
		result.Source = a.source
		result.Goals = goals
		break
	}

	e.mu.Lock()
	e.replaceLocked(result.Goals)
	snapshot := e.snapshotLocked()
	e.mu.Unlock()

	if result.Source == SourceRemote {
		e.saveLocal(ctx, snapshot)
	}

	slog.Debug("goals loaded", "source", result.Source, "count", len(snapshot), "user_id", userID)
	result.Goals = snapshot
	return result, snapshot
}

// SignIn switches to userID, loads its goals and starts listening for
// remote changes. Any previous subscription is torn down first.
func (e *Engine) SignIn(ctx context.Context, userID string) (LoadResult, error) {
	if userID == "" {
		return LoadResult{}, ErrNoIdentity
	}
	if e.remote == nil {
		return LoadResult{}, ErrNoRemote
	}

	e.stopWatching()

	e.persistMu.Lock()
	e.mu.Lock()
	e.userID = userID
	e.mu.Unlock()
	result, snapshot := e.loadLocked(ctx)
	e.persistMu.Unlock()

	e.notify(ctx, snapshot)

	if err := e.startWatching(userID); err != nil {
		slog.Warn("failed to subscribe to remote goals", "error", err, "user_id", userID)
	}
	return result, nil
}

// SignOut stops the subscription and reloads the local list.
func (e *Engine) SignOut(ctx context.Context) LoadResult {
	e.stopWatching()

	e.persistMu.Lock()
	e.mu.Lock()
	e.userID = ""
	e.mu.Unlock()
	result, snapshot := e.loadLocked(ctx)
	e.persistMu.Unlock()

	e.notify(ctx, snapshot)
	return result
}

// startWatching runs two goroutines per subscription. The receiver applies
// deliveries to the canonical list; the notifier tells listeners about the
// latest applied list. Listeners therefore never run on the receiver, and
// stopWatching, which waits for the receiver, may be called from a listener.
func (e *Engine) startWatching(userID string) error {
	ctx, cancel := context.WithCancel(context.Background())
	updates, err := e.remote.Subscribe(ctx, userID)
	if err != nil {
		cancel()
		return err
	}

	done := make(chan struct{})
	e.mu.Lock()
	e.stopWatch = cancel
	e.watchDone = done
	e.mu.Unlock()

	// Holds at most the newest unsent list; older ones are superseded.
	latest := make(chan []*model.Goal, 1)

	go func() {
		defer close(done)
		for goals := range updates {
			snapshot, ok := e.applyRemote(userID, goals)
			if !ok {
				continue
			}
			select {
			case <-latest:
			default:
			}
			latest <- snapshot
		}
	}()

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case snapshot := <-latest:
				if ctx.Err() != nil {
					return
				}
				e.notify(ctx, snapshot)
			}
		}
	}()
	return nil
}

func (e *Engine) stopWatching() {
	e.mu.Lock()
	cancel, done := e.stopWatch, e.watchDone
	e.stopWatch, e.watchDone = nil, nil
	e.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}
}

// applyRemote replaces the canonical list with a remote delivery and
// returns the new list. Deliveries for an identity that is no longer active
// are ignored.
func (e *Engine) applyRemote(userID string, goals []*model.Goal) ([]*model.Goal, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.userID != userID {
		return nil, false
	}
	e.replaceLocked(goals)
	slog.Debug("remote goals applied", "count", len(goals), "user_id", userID)
	return e.snapshotLocked(), true
}
