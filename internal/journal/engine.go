// Package journal owns the canonical goal list of the current session and
// keeps it durable across the local and remote stores.
package journal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/Womackv3/osrs-checklist-app-sub000/internal/flags"
	"github.com/Womackv3/osrs-checklist-app-sub000/internal/localstore"
	"github.com/Womackv3/osrs-checklist-app-sub000/internal/model"
	"github.com/Womackv3/osrs-checklist-app-sub000/internal/remote"
)

var (
	ErrNoIdentity = errors.New("user identity is required")
	ErrNoRemote   = errors.New("no remote goal store configured")
)

const defaultRemoteTimeout = 5 * time.Second

// Listener is told about every change to the canonical list. It receives a
// copy and may call back into the engine, including SignIn, SignOut and
// Close. Lists delivered by the remote subscription are reported from a
// separate goroutine; consecutive deliveries may be coalesced into the
// latest one.
type Listener interface {
	GoalsChanged(ctx context.Context, goals []*model.Goal)
}

type ListenerFunc func(ctx context.Context, goals []*model.Goal)

func (f ListenerFunc) GoalsChanged(ctx context.Context, goals []*model.Goal) {
	f(ctx, goals)
}

type Options struct {
	// Remote backs persistence while a user is signed in. Optional.
	Remote remote.Store
	// RemoteTimeout bounds every remote call.
	RemoteTimeout time.Duration
	Now           func() time.Time
}

// Engine holds the canonical goal list.
//
// Mutations are applied to memory in call order. Durable writes are
// serialised by persistMu so they reach the stores in the same order;
// listeners are notified after the write, outside both locks.
type Engine struct {
	local         localstore.Store
	flags         *flags.Store
	remote        remote.Store
	remoteTimeout time.Duration
	now           func() time.Time

	persistMu sync.Mutex

	mu         sync.Mutex
	goals      []*model.Goal
	index      map[string]*model.Goal
	userID     string
	listeners  map[int]Listener
	listenerID int
	stopWatch  context.CancelFunc
	watchDone  chan struct{}
}

func New(local localstore.Store, flagStore *flags.Store, opts Options) *Engine {
	if opts.RemoteTimeout <= 0 {
		opts.RemoteTimeout = defaultRemoteTimeout
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Engine{
		local:         local,
		flags:         flagStore,
		remote:        opts.Remote,
		remoteTimeout: opts.RemoteTimeout,
		now:           opts.Now,
		index:         make(map[string]*model.Goal),
		listeners:     make(map[int]Listener),
	}
}

// AddListener registers l and returns a function that removes it.
func (e *Engine) AddListener(l Listener) func() {
	e.mu.Lock()
	defer e.mu.Unlock()

	id := e.listenerID
	e.listenerID++
	e.listeners[id] = l
	return func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		delete(e.listeners, id)
	}
}

// UserID returns the active identity, or "" when signed out.
func (e *Engine) UserID() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.userID
}

// Goals returns a copy of the canonical list in insertion order.
func (e *Engine) Goals() []*model.Goal {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshotLocked()
}

func (e *Engine) Goal(id string) (*model.Goal, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	g, ok := e.index[id]
	if !ok {
		return nil, false
	}
	return g.Clone(), true
}

func (e *Engine) Has(id string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	_, ok := e.index[id]
	return ok
}

// AddGoal appends goal unless a goal with the same id is already tracked.
// It reports whether the goal was added. Only malformed goals return an
// error; persistence failures are logged and absorbed.
func (e *Engine) AddGoal(ctx context.Context, goal *model.Goal) (bool, error) {
	if goal == nil {
		return false, fmt.Errorf("%w: goal is nil", model.ErrInvalidGoal)
	}
	if err := goal.Validate(); err != nil {
		return false, err
	}

	e.persistMu.Lock()

	e.mu.Lock()
	if _, exists := e.index[goal.ID]; exists {
		e.mu.Unlock()
		e.persistMu.Unlock()
		slog.Debug("goal already tracked", "goal_id", goal.ID)
		return false, nil
	}
	added := goal.Clone()
	e.goals = append(e.goals, added)
	e.index[added.ID] = added
	userID := e.userID
	saved := added.Clone()
	snapshot := e.snapshotLocked()
	e.mu.Unlock()

	e.persistSave(ctx, userID, saved, snapshot)
	e.persistMu.Unlock()

	e.notify(ctx, snapshot)
	return true, nil
}

// CompleteGoal marks the catalog flag for quest and diary goals, then drops
// the goal. It returns false if id is not tracked.
func (e *Engine) CompleteGoal(ctx context.Context, id string) bool {
	return e.drop(ctx, id, dropComplete)
}

// RemoveGoal drops the goal without touching catalog flags.
func (e *Engine) RemoveGoal(ctx context.Context, id string) bool {
	return e.drop(ctx, id, dropRemove)
}

type dropMode int

const (
	dropRemove dropMode = iota
	dropComplete
	// dropCompleteNoFlag completes a goal whose flag was already written by
	// the catalog action that triggered it.
	dropCompleteNoFlag
)

func (e *Engine) drop(ctx context.Context, id string, mode dropMode) bool {
	e.persistMu.Lock()

	e.mu.Lock()
	goal, ok := e.index[id]
	if !ok {
		e.mu.Unlock()
		e.persistMu.Unlock()
		return false
	}
	target := goal.Target
	e.mu.Unlock()

	// The flag is written before the goal leaves the list so a failed
	// removal cannot lose it.
	if mode == dropComplete {
		if err := e.flags.Mark(ctx, target); err != nil {
			slog.Error("failed to set completion flag", "error", err, "goal_id", id)
		}
	}

	e.mu.Lock()
	goal, ok = e.index[id]
	if !ok {
		// A remote delivery replaced the list while the flag was written.
		e.mu.Unlock()
		e.persistMu.Unlock()
		slog.Debug("goal left the list before it could be dropped", "goal_id", id)
		return false
	}
	if mode != dropRemove {
		goal.MarkCompleted(e.now())
	}
	e.removeLocked(id)
	userID := e.userID
	snapshot := e.snapshotLocked()
	e.mu.Unlock()

	e.persistDelete(ctx, userID, id, snapshot)
	e.persistMu.Unlock()

	if mode == dropRemove {
		slog.Info("goal removed", "goal_id", id)
	} else {
		slog.Info("goal completed", "goal_id", id)
	}

	e.notify(ctx, snapshot)
	return true
}

// ClearCompletedGoals drops every goal still carrying completed = true.
// Such goals exist when an item that was completed earlier is added back to
// the journal. Remote deletes are attempted per goal; failures are collected
// and logged. The reduced list is always saved locally. Returns the number
// of goals removed.
func (e *Engine) ClearCompletedGoals(ctx context.Context) int {
	e.persistMu.Lock()

	e.mu.Lock()
	var removed []string
	for _, g := range e.goals {
		if g.Completed {
			removed = append(removed, g.ID)
		}
	}
	if len(removed) == 0 {
		e.mu.Unlock()
		e.persistMu.Unlock()
		return 0
	}
	for _, id := range removed {
		e.removeLocked(id)
	}
	userID := e.userID
	snapshot := e.snapshotLocked()
	e.mu.Unlock()

	if e.remoteActive(userID) {
		var errs []error
		for _, id := range removed {
			if err := e.callRemote(ctx, func(ctx context.Context) error {
				return e.remote.Delete(ctx, userID, id)
			}); err != nil {
				errs = append(errs, err)
			}
		}
		if err := errors.Join(errs...); err != nil {
			slog.Warn("some completed goals could not be deleted remotely", "error", err, "failed", len(errs), "user_id", userID)
		}
	}
	e.saveLocal(ctx, snapshot)
	e.persistMu.Unlock()

	e.notify(ctx, snapshot)
	return len(removed)
}

// Close stops the remote subscription, if any.
func (e *Engine) Close() {
	e.stopWatching()
}

func (e *Engine) findByTarget(t model.Target) (string, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	for _, g := range e.goals {
		if g.Target == t {
			return g.ID, true
		}
	}
	return "", false
}

func (e *Engine) removeLocked(id string) {
	delete(e.index, id)
	e.goals = slices.DeleteFunc(e.goals, func(g *model.Goal) bool { return g.ID == id })
}

// replaceLocked swaps in a new list. Duplicate ids keep the first entry.
func (e *Engine) replaceLocked(goals []*model.Goal) {
	e.goals = make([]*model.Goal, 0, len(goals))
	e.index = make(map[string]*model.Goal, len(goals))
	for _, g := range goals {
		if g == nil {
			continue
		}
		if _, dup := e.index[g.ID]; dup {
			slog.Warn("dropping duplicate goal", "goal_id", g.ID)
			continue
		}
		c := g.Clone()
		e.goals = append(e.goals, c)
		e.index[c.ID] = c
	}
}

func (e *Engine) snapshotLocked() []*model.Goal {
	out := make([]*model.Goal, len(e.goals))
	for i, g := range e.goals {
		out[i] = g.Clone()
	}
	return out
}

func (e *Engine) notify(ctx context.Context, snapshot []*model.Goal) {
	e.mu.Lock()
	listeners := make([]Listener, 0, len(e.listeners))
	for _, l := range e.listeners {
		listeners = append(listeners, l)
	}
	e.mu.Unlock()

	for _, l := range listeners {
		goals := make([]*model.Goal, len(snapshot))
		for i, g := range snapshot {
			goals[i] = g.Clone()
		}
		l.GoalsChanged(ctx, goals)
	}
}
