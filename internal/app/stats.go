package app

import (
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// Stats counts what happened during a session. It is logged on shutdown.
type Stats struct {
	events       atomic.Uint64
	enters       atomic.Uint64
	saves        atomic.Uint64
	saveFailures atomic.Uint64
	reloads      atomic.Uint64
	reloadErrors atomic.Uint64

	startTime time.Time
}

// NewStats creates a tracker starting now.
func NewStats() *Stats {
	return &Stats{startTime: time.Now()}
}

// RecordEvent counts a handled terminal event.
func (s *Stats) RecordEvent() { s.events.Add(1) }

// RecordEnter counts an evaluation committed with Enter.
func (s *Stats) RecordEnter() { s.enters.Add(1) }

// RecordSave counts a state save.
func (s *Stats) RecordSave(ok bool) {
	if ok {
		s.saves.Add(1)
	} else {
		s.saveFailures.Add(1)
	}
}

// RecordReload counts a configuration reload.
func (s *Stats) RecordReload(ok bool) {
	if ok {
		s.reloads.Add(1)
	} else {
		s.reloadErrors.Add(1)
	}
}

// StatsSnapshot is a point-in-time copy of Stats.
type StatsSnapshot struct {
	Events       uint64
	Enters       uint64
	Saves        uint64
	SaveFailures uint64
	Reloads      uint64
	ReloadErrors uint64
	Uptime       time.Duration
}

// Snapshot returns the current counts.
func (s *Stats) Snapshot() StatsSnapshot {
	return StatsSnapshot{
		Events:       s.events.Load(),
		Enters:       s.enters.Load(),
		Saves:        s.saves.Load(),
		SaveFailures: s.saveFailures.Load(),
		Reloads:      s.reloads.Load(),
		ReloadErrors: s.reloadErrors.Load(),
		Uptime:       time.Since(s.startTime),
	}
}

// Fields returns the snapshot as log fields.
func (s StatsSnapshot) Fields() []zap.Field {
	return []zap.Field{
		zap.Uint64("events", s.Events),
		zap.Uint64("enters", s.Enters),
		zap.Uint64("saves", s.Saves),
		zap.Uint64("save_failures", s.SaveFailures),
		zap.Uint64("reloads", s.Reloads),
		zap.Uint64("reload_errors", s.ReloadErrors),
		zap.Duration("uptime", s.Uptime),
	}
}
