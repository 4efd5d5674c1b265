package domain

import "time"

// Watch is a standing search owned by a chat. The registry holds the
// authoritative membership; the scheduler queue only references watches and
// drops entries whose watch has already left the registry.
type Watch struct {
	ID     int64
	ChatID int64
	Query  Query

	// Display names resolved via upstream autocomplete, used only for
	// user-facing summaries.
	FromName string
	ToName   string

	CreatedAt time.Time
	// Deadline is CreatedAt plus the configured watch TTL; a poll that
	// finds nothing after the deadline retires the watch.
	Deadline time.Time

	LastPolledAt   time.Time
	LastNotifiedAt time.Time
}
