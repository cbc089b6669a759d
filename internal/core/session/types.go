package session

// Stats summarises one aggregation pass.
type Stats struct {
	Events int
	// Sessions counts connect/disconnect pairs that were closed.
	Sessions int
	// IgnoredConnects are connects for a player whose session was already open.
	IgnoredConnects int
	// UnmatchedDisconnects are disconnects with no open session, typically
	// because the connect happened before the oldest scanned log.
	UnmatchedDisconnects int
	// StillOnline is the number of sessions closed at finalization.
	StillOnline int
	// NegativeSessions counts pairs whose disconnect preceded the connect.
	NegativeSessions int
}
