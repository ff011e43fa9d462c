package store

import (
	"context"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/stemma/pkg/family"
)

// AutosaveInterval is how often an [Autosaver] writes by default.
const AutosaveInterval = 30 * time.Second

// Snapshot returns the tree currently being edited. It reports false when
// nothing is open, in which case the tick is skipped.
type Snapshot func() (family.Tree, bool)

// Autosaver saves a snapshot to a store on a fixed interval. Save failures
// are logged and retried on the next tick.
type Autosaver struct {
	Store    Store
	Snapshot Snapshot
	Interval time.Duration
	Logger   *log.Logger

	mu    sync.Mutex
	saved int
	last  time.Time
}

// Run saves until ctx is done, then performs one final save.
func (a *Autosaver) Run(ctx context.Context) {
	interval := a.Interval
	if interval <= 0 {
		interval = AutosaveInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			// The store may be remote; give the last write its own deadline.
			final, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
			a.SaveNow(final)
			cancel()
			return
		case <-ticker.C:
			a.SaveNow(ctx)
		}
	}
}

// SaveNow saves the current snapshot once. It reports whether a save happened.
func (a *Autosaver) SaveNow(ctx context.Context) bool {
	t, ok := a.Snapshot()
	if !ok {
		return false
	}
	saved, err := a.Store.Save(ctx, t)
	if err != nil {
		if a.Logger != nil {
			a.Logger.Warn("autosave failed", "tree", t.Name, "err", err)
		}
		return false
	}
	a.mu.Lock()
	a.saved++
	a.last = saved.UpdatedAt
	a.mu.Unlock()
	if a.Logger != nil {
		a.Logger.Debug("autosaved", "tree", saved.Name, "id", saved.ID)
	}
	return true
}

// Saves returns how many saves succeeded and when the last one happened.
func (a *Autosaver) Saves() (int, time.Time) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.saved, a.last
}
