// Package daemon holds the background loops that run beside the X event
// loop: periodic config autosave and trade routing.
package daemon

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/1broseidon/meterdeck/internal/config"
)

// Snapshot is the persisted part of the live deck.
type Snapshot struct {
	SnapEnabled bool
	Meters      []config.MeterSpec
}

func (s Snapshot) equal(o Snapshot) bool {
	return s.SnapEnabled == o.SnapEnabled && slices.Equal(s.Meters, o.Meters)
}

// SnapshotFunc captures the current deck state.
type SnapshotFunc func() (Snapshot, error)

// DeckState is what a snapshot reads from the deck.
type DeckState interface {
	SnapEnabled() bool
	Specs() []config.MeterSpec
}

// UISnapshot returns a SnapshotFunc that reads d on the UI goroutine via
// dispatch and gives up after timeout.
func UISnapshot(dispatch func(func()), d DeckState, timeout time.Duration) SnapshotFunc {
	return func() (Snapshot, error) {
		ch := make(chan Snapshot, 1)
		dispatch(func() {
			ch <- Snapshot{SnapEnabled: d.SnapEnabled(), Meters: d.Specs()}
		})
		select {
		case s := <-ch:
			return s, nil
		case <-time.After(timeout):
			return Snapshot{}, errors.New("timed out waiting for the UI thread")
		}
	}
}

// AutosaverConfig holds configuration for the autosaver.
type AutosaverConfig struct {
	Interval time.Duration
	Logger   *slog.Logger
}

// Autosaver periodically writes the deck's meters and snap flag back to the
// config file when they have changed.
type Autosaver struct {
	interval time.Duration
	snapshot SnapshotFunc
	logger   *slog.Logger

	mu   sync.Mutex
	cfg  *config.Config
	last Snapshot
}

// NewAutosaver creates an autosaver that saves into copies of base.
func NewAutosaver(cfg AutosaverConfig, base *config.Config, snapshot SnapshotFunc) *Autosaver {
	interval := cfg.Interval
	if interval <= 0 {
		interval = time.Duration(config.DefaultAutosaveSeconds) * time.Second
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &Autosaver{
		interval: interval,
		snapshot: snapshot,
		logger:   logger,
		cfg:      base,
		last:     Snapshot{SnapEnabled: base.SnapEnabled, Meters: base.Meters},
	}
}

// SetConfig replaces the base configuration, e.g. after a reload.
func (a *Autosaver) SetConfig(cfg *config.Config) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.cfg = cfg
}

// Run saves on every tick. Blocks until ctx is cancelled.
func (a *Autosaver) Run(ctx context.Context) {
	ticker := time.NewTicker(a.interval)
	defer ticker.Stop()

	a.logger.Info("autosave started", "interval", a.interval)

	for {
		select {
		case <-ctx.Done():
			a.logger.Info("autosave stopped")
			return
		case <-ticker.C:
			a.tick()
		}
	}
}

func (a *Autosaver) tick() {
	// Recover from panics to prevent crashing the daemon
	defer func() {
		if err := recover(); err != nil {
			a.logger.Error("autosave panic recovered", "error", err)
		}
	}()

	if _, err := a.Flush(); err != nil {
		a.logger.Warn("autosave failed", "error", err)
	}
}

// Flush saves the current snapshot if it differs from the last one saved and
// reports whether it wrote the file.
func (a *Autosaver) Flush() (bool, error) {
	snap, err := a.snapshot()
	if err != nil {
		return false, err
	}
	return a.Save(snap)
}

// Save writes snap if it differs from the last one saved. The daemon calls
// it directly on shutdown, once the UI goroutine has stopped.
func (a *Autosaver) Save(snap Snapshot) (bool, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if snap.equal(a.last) {
		return false, nil
	}

	next := a.cfg.Clone()
	next.SnapEnabled = snap.SnapEnabled
	next.Meters = snap.Meters
	if err := next.Save(); err != nil {
		return false, err
	}

	a.cfg = next
	a.last = snap
	a.logger.Debug("config saved", "path", next.Path(), "meters", len(snap.Meters))
	return true, nil
}
