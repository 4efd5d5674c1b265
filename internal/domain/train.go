package domain

import "time"

// Train is a single timetable entry returned by the upstream. Read-only for
// this service: we never mutate what the fetcher gives us.
type Train struct {
	Number        string
	Title         string
	DepartureTime time.Time
	// Seats maps a seat-class name ("Плацкартный", "Купе", ...) to its
	// price and remaining quantity.
	Seats map[string]SeatClass
	// Route codes carried opaquely from the timetable response; needed
	// only to request the carriage layout for this train.
	RouteCode0 string
	RouteCode1 string
}

type SeatClass struct {
	Label    string
	Price    int
	Quantity int
}

// CarriageLayout is the per-train car/seat breakdown, fetched on demand when
// a query carries seat-placement constraints.
type CarriageLayout struct {
	Cars []Car
}

type Car struct {
	Number string
	Type   string
	Seats  []Seat
}

// Seat carries the upstream seat number and class tag. Class is "lower",
// "upper" or whatever else the upstream reports for the car type.
type Seat struct {
	Number int
	Class  string
}
