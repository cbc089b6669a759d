package model

import (
	"fmt"
	"maps"
	"slices"
)

// Totals maps each player to accumulated connected seconds. It is immutable
// once built; accessors return copies.
type Totals struct {
	seconds map[string]int64
	online  map[string]bool
}

// NewTotals copies seconds and online into a Totals value. online may be nil.
func NewTotals(seconds map[string]int64, online map[string]bool) Totals {
	t := Totals{
		seconds: make(map[string]int64, len(seconds)),
		online:  make(map[string]bool, len(online)),
	}
	maps.Copy(t.seconds, seconds)
	maps.Copy(t.online, online)
	return t
}

// Seconds returns the total for player, or ErrLookup when the player never
// completed or opened a session.
func (t Totals) Seconds(player string) (int64, error) {
	s, ok := t.seconds[player]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrLookup, player)
	}
	return s, nil
}

// Online reports whether player still had an open session when the totals
// were finalized.
func (t Totals) Online(player string) bool {
	return t.online[player]
}

// Players returns player names in ascending order.
func (t Totals) Players() []string {
	return slices.Sorted(maps.Keys(t.seconds))
}

func (t Totals) Len() int {
	return len(t.seconds)
}

// Map returns a copy of the underlying player -> seconds mapping.
func (t Totals) Map() map[string]int64 {
	return maps.Clone(t.seconds)
}
