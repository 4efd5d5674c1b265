package search

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Domenick1991/railwatch/internal/domain"
)

func car(seats ...domain.Seat) domain.Car {
	return domain.Car{Number: "1", Type: "Плацкартный", Seats: seats}
}

func TestQualifyingSeats_BottomRequiresOddLowerNumbers(t *testing.T) {
	// The upstream "lower" listing includes both parities; only odd
	// numbers are actual bottom berths.
	c := car(
		domain.Seat{Number: 1, Class: "lower"},
		domain.Seat{Number: 2, Class: "lower"},
		domain.Seat{Number: 3, Class: "upper"},
	)

	seats := qualifyingSeats(c, domain.SeatFilter{OnlyBottom: true}, DefaultLayoutRules)

	assert.Equal(t, []int{1}, seats)
}

func TestQualifyingSeats_TopKeepsUpperClass(t *testing.T) {
	c := car(
		domain.Seat{Number: 1, Class: "lower"},
		domain.Seat{Number: 2, Class: "upper"},
		domain.Seat{Number: 4, Class: "upper"},
	)

	seats := qualifyingSeats(c, domain.SeatFilter{OnlyTop: true}, DefaultLayoutRules)

	assert.Equal(t, []int{2, 4}, seats)
}

func TestQualifyingSeats_ExcludeSideDropsHighNumbers(t *testing.T) {
	c := car(
		domain.Seat{Number: 36, Class: "lower"},
		domain.Seat{Number: 37, Class: "lower"},
		domain.Seat{Number: 52, Class: "upper"},
	)

	seats := qualifyingSeats(c, domain.SeatFilter{ExcludeSide: true}, DefaultLayoutRules)

	assert.Equal(t, []int{36}, seats)
}

func TestQualifyingSeats_CombinedToggles(t *testing.T) {
	c := car(
		domain.Seat{Number: 35, Class: "lower"},
		domain.Seat{Number: 37, Class: "lower"},
		domain.Seat{Number: 33, Class: "upper"},
	)

	seats := qualifyingSeats(c, domain.SeatFilter{OnlyBottom: true, ExcludeSide: true}, DefaultLayoutRules)

	assert.Equal(t, []int{35}, seats)
}

func TestHasQualifyingSeats_SameCompartmentNeedsPairInOneBlock(t *testing.T) {
	// 5 and 7 share compartment {5..8}; 4 belongs to {1..4}.
	paired := &domain.CarriageLayout{Cars: []domain.Car{car(
		domain.Seat{Number: 5, Class: "lower"},
		domain.Seat{Number: 7, Class: "lower"},
	)}}
	scattered := &domain.CarriageLayout{Cars: []domain.Car{car(
		domain.Seat{Number: 4, Class: "lower"},
		domain.Seat{Number: 5, Class: "lower"},
	)}}

	f := domain.SeatFilter{SameCompartment: true}
	assert.True(t, hasQualifyingSeats(paired, f, DefaultLayoutRules))
	assert.False(t, hasQualifyingSeats(scattered, f, DefaultLayoutRules))
}

func TestHasQualifyingSeats_SameCompartmentIgnoresSideBlocks(t *testing.T) {
	// Seats beyond the nine 4-seat blocks never form a compartment pair.
	layout := &domain.CarriageLayout{Cars: []domain.Car{car(
		domain.Seat{Number: 37, Class: "lower"},
		domain.Seat{Number: 38, Class: "lower"},
	)}}

	f := domain.SeatFilter{SameCompartment: true}
	assert.False(t, hasQualifyingSeats(layout, f, DefaultLayoutRules))
}

func TestHasQualifyingSeats_AnyCarSuffices(t *testing.T) {
	layout := &domain.CarriageLayout{Cars: []domain.Car{
		car(domain.Seat{Number: 2, Class: "lower"}),
		car(domain.Seat{Number: 9, Class: "lower"}),
	}}

	assert.True(t, hasQualifyingSeats(layout, domain.SeatFilter{OnlyBottom: true}, DefaultLayoutRules))
}
