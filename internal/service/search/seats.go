package search

import "github.com/Domenick1991/railwatch/internal/domain"

// Upstream seat-class tags in carriage layouts.
const (
	classLower = "lower"
	classUpper = "upper"
)

// LayoutRules encodes the standard compartment-car numbering this service
// assumes: seats above SideSeatStart are side berths, and Compartments blocks
// of CompartmentSize consecutive numbers each share a sleeping compartment.
// The upstream does not document the general rule; these are the constants it
// encodes in practice.
type LayoutRules struct {
	SideSeatStart   int
	CompartmentSize int
	Compartments    int
}

var DefaultLayoutRules = LayoutRules{
	SideSeatStart:   36,
	CompartmentSize: 4,
	Compartments:    9,
}

// qualifyingSeats returns the seat numbers of one car that satisfy the
// placement toggles. The upstream's "lower" class listing includes both
// parities, so bottom-berth filtering additionally keeps only odd numbers.
func qualifyingSeats(car domain.Car, f domain.SeatFilter, rules LayoutRules) []int {
	out := make([]int, 0, len(car.Seats))
	for _, seat := range car.Seats {
		if f.OnlyBottom && (seat.Class != classLower || seat.Number%2 == 0) {
			continue
		}
		if f.OnlyTop && seat.Class != classUpper {
			continue
		}
		if f.ExcludeSide && seat.Number > rules.SideSeatStart {
			continue
		}
		out = append(out, seat.Number)
	}
	return out
}

// hasQualifyingSeats reports whether any car of the layout satisfies the
// filter. The same-compartment toggle needs two qualifying seats inside one
// compartment block; the other toggles need a single qualifying seat.
func hasQualifyingSeats(layout *domain.CarriageLayout, f domain.SeatFilter, rules LayoutRules) bool {
	for _, car := range layout.Cars {
		seats := qualifyingSeats(car, f, rules)
		if f.SameCompartment {
			if hasCompartmentPair(seats, rules) {
				return true
			}
			continue
		}
		if len(seats) > 0 {
			return true
		}
	}
	return false
}

func hasCompartmentPair(seats []int, rules LayoutRules) bool {
	counts := make(map[int]int, rules.Compartments)
	for _, n := range seats {
		block := (n - 1) / rules.CompartmentSize
		if block < 0 || block >= rules.Compartments {
			continue
		}
		counts[block]++
		if counts[block] >= 2 {
			return true
		}
	}
	return false
}
