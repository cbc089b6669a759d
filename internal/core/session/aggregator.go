package session

import (
	"maps"
	"slices"
	"time"

	"github.com/penwyp/go-mc-playtime/internal/core/model"
)

// Aggregator pairs connect and disconnect events per player in one forward
// pass. Events must be folded in chronological file order. Not safe for
// concurrent use.
type Aggregator struct {
	open      map[string]time.Time
	totals    map[string]int64
	stats     Stats
	finalized bool
}

func NewAggregator() *Aggregator {
	return &Aggregator{
		open:   make(map[string]time.Time),
		totals: make(map[string]int64),
	}
}

// Fold applies events in order.
func (a *Aggregator) Fold(events ...model.LogEvent) {
	if a.finalized {
		panic("session: Fold after Finalize")
	}
	for _, e := range events {
		a.stats.Events++
		switch e.Kind {
		case model.KindConnect:
			a.connect(e)
		case model.KindDisconnect:
			a.disconnect(e)
		}
	}
}

func (a *Aggregator) connect(e model.LogEvent) {
	// The earliest connect wins; a duplicate must not shorten the session.
	if _, ok := a.open[e.Player]; ok {
		a.stats.IgnoredConnects++
		return
	}
	a.open[e.Player] = e.Time
}

func (a *Aggregator) disconnect(e model.LogEvent) {
	start, ok := a.open[e.Player]
	if !ok {
		a.stats.UnmatchedDisconnects++
		return
	}
	if e.Time.Before(start) {
		a.stats.NegativeSessions++
	}
	a.totals[e.Player] += elapsedSeconds(start, e.Time)
	a.stats.Sessions++
	delete(a.open, e.Player)
}

// OpenPlayers lists players with an open session, sorted by name.
func (a *Aggregator) OpenPlayers() []string {
	return slices.Sorted(maps.Keys(a.open))
}

// OpenSince returns when player's open session started.
func (a *Aggregator) OpenSince(player string) (time.Time, bool) {
	start, ok := a.open[player]
	return start, ok
}

// Stats returns counters for the events folded so far.
func (a *Aggregator) Stats() Stats {
	s := a.stats
	if !a.finalized {
		s.StillOnline = len(a.open)
	}
	return s
}

// Finalize closes every open session at now and returns the totals. Players
// closed this way are flagged online. The aggregator cannot be folded into
// afterwards.
func (a *Aggregator) Finalize(now time.Time) model.Totals {
	online := make(map[string]bool, len(a.open))
	for player, start := range a.open {
		a.totals[player] += elapsedSeconds(start, now)
		online[player] = true
	}
	a.stats.StillOnline = len(a.open)
	a.open = map[string]time.Time{}
	a.finalized = true

	return model.NewTotals(a.totals, online)
}

// Aggregate folds events and finalizes at now.
func Aggregate(events []model.LogEvent, now time.Time) model.Totals {
	a := NewAggregator()
	a.Fold(events...)
	return a.Finalize(now)
}

// elapsedSeconds returns whole seconds from start to end, never negative.
func elapsedSeconds(start, end time.Time) int64 {
	d := end.Sub(start)
	if d < 0 {
		return 0
	}
	return int64(d / time.Second)
}
