package domain

import "time"

// TimeRange is an absolute [Start, End] search window. Built only by the
// range resolver, which guarantees Start <= End and a bounded span.
type TimeRange struct {
	Start time.Time
	End   time.Time
}

func (r TimeRange) Contains(t time.Time) bool {
	return !t.Before(r.Start) && !t.After(r.End)
}

func (r TimeRange) Span() time.Duration {
	return r.End.Sub(r.Start)
}

// SeatFilter is a set of independent seat-placement toggles. A query either
// has no filter at all (nil pointer) or a filter with at least one toggle
// set; an all-false SeatFilter is never constructed.
type SeatFilter struct {
	OnlyBottom      bool
	OnlyTop         bool
	ExcludeSide     bool
	SameCompartment bool
}

func (f SeatFilter) Empty() bool {
	return !f.OnlyBottom && !f.OnlyTop && !f.ExcludeSide && !f.SameCompartment
}

// Query is a fully resolved search request. Immutable once built by the
// parser; owned by the command invocation or by the Watch embedding it.
type Query struct {
	From  string
	To    string
	Range TimeRange

	MaxPrice   *int
	MinTickets *int
	Seats      *SeatFilter

	// Reserved for carriage-type filtering; always empty for now.
	TypesFilter []string
}
