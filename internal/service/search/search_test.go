package search

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/Domenick1991/railwatch/internal/domain"
	"github.com/Domenick1991/railwatch/internal/rzd"
)

type MockClient struct {
	mock.Mock
}

func (m *MockClient) Trains(ctx context.Context, from, to string, r domain.TimeRange) ([]domain.Train, error) {
	args := m.Called(ctx, from, to, r)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Train), args.Error(1)
}

func (m *MockClient) CarriageLayout(ctx context.Context, code0, code1 string, departure time.Time, trainNumber string) (*domain.CarriageLayout, error) {
	args := m.Called(ctx, code0, code1, departure, trainNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.CarriageLayout), args.Error(1)
}

func (m *MockClient) CityAutocomplete(ctx context.Context, name string) (string, error) {
	args := m.Called(ctx, name)
	return args.String(0), args.Error(1)
}

func testRange() domain.TimeRange {
	return domain.TimeRange{
		Start: time.Date(2026, time.May, 4, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2026, time.May, 6, 23, 59, 0, 0, time.UTC),
	}
}

func train(number string, departure time.Time, classes ...domain.SeatClass) domain.Train {
	seats := make(map[string]domain.SeatClass, len(classes))
	for _, c := range classes {
		seats[c.Label] = c
	}
	return domain.Train{Number: number, Title: "Тестовый", DepartureTime: departure, Seats: seats}
}

func intPtr(n int) *int { return &n }

func TestExecute_PriceAndQuantityThresholds(t *testing.T) {
	r := testRange()
	dep := r.Start.Add(12 * time.Hour)
	trains := []domain.Train{
		train("001А", dep, domain.SeatClass{Label: "Плацкартный", Price: 1500, Quantity: 3}),
		train("002А", dep, domain.SeatClass{Label: "Плацкартный", Price: 1500, Quantity: 1}),
		train("003А", dep, domain.SeatClass{Label: "Купе", Price: 2500, Quantity: 5}),
	}

	client := &MockClient{}
	client.On("Trains", mock.Anything, "москва", "санкт-петербург", r).Return(trains, nil)

	svc := NewService(client, DefaultLayoutRules, time.Millisecond)
	q := &domain.Query{From: "москва", To: "санкт-петербург", Range: r, MaxPrice: intPtr(2000), MinTickets: intPtr(2)}

	matched, all, err := svc.Execute(context.Background(), q)

	assert.NoError(t, err)
	assert.Len(t, all, 3)
	if assert.Len(t, matched, 1) {
		assert.Equal(t, "001А", matched[0].Number)
	}
	client.AssertExpectations(t)
}

func TestExecute_MinTicketsOnly(t *testing.T) {
	r := testRange()
	dep := r.Start.Add(12 * time.Hour)
	trains := []domain.Train{
		train("001А", dep, domain.SeatClass{Label: "Купе", Price: 9000, Quantity: 4}),
		train("002А", dep, domain.SeatClass{Label: "Купе", Price: 900, Quantity: 1}),
	}

	client := &MockClient{}
	client.On("Trains", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(trains, nil)

	svc := NewService(client, DefaultLayoutRules, time.Millisecond)
	q := &domain.Query{From: "а", To: "б", Range: r, MinTickets: intPtr(2)}

	matched, _, err := svc.Execute(context.Background(), q)

	assert.NoError(t, err)
	if assert.Len(t, matched, 1) {
		assert.Equal(t, "001А", matched[0].Number)
	}
}

func TestExecute_ClipsDeparturesOutsideWindow(t *testing.T) {
	r := testRange()
	inside := train("001А", r.Start.Add(time.Hour), domain.SeatClass{Label: "Купе", Price: 100, Quantity: 9})
	before := train("002А", r.Start.Add(-time.Hour), domain.SeatClass{Label: "Купе", Price: 100, Quantity: 9})
	after := train("003А", r.End.Add(time.Minute), domain.SeatClass{Label: "Купе", Price: 100, Quantity: 9})
	boundary := train("004А", r.End, domain.SeatClass{Label: "Купе", Price: 100, Quantity: 9})

	client := &MockClient{}
	client.On("Trains", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return([]domain.Train{inside, before, after, boundary}, nil)

	svc := NewService(client, DefaultLayoutRules, time.Millisecond)
	q := &domain.Query{From: "а", To: "б", Range: r}

	matched, all, err := svc.Execute(context.Background(), q)

	assert.NoError(t, err)
	assert.Len(t, all, 4)
	if assert.Len(t, matched, 2) {
		assert.Equal(t, "001А", matched[0].Number)
		assert.Equal(t, "004А", matched[1].Number)
	}
}

func TestExecute_RetriesTransientUpstreamErrors(t *testing.T) {
	r := testRange()
	dep := r.Start.Add(time.Hour)
	trains := []domain.Train{train("001А", dep, domain.SeatClass{Label: "Купе", Price: 100, Quantity: 9})}

	client := &MockClient{}
	client.On("Trains", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(nil, rzd.ErrUpstream).Twice()
	client.On("Trains", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(trains, nil).Once()

	svc := NewService(client, DefaultLayoutRules, time.Millisecond)
	q := &domain.Query{From: "а", To: "б", Range: r}

	matched, _, err := svc.Execute(context.Background(), q)

	assert.NoError(t, err)
	assert.Len(t, matched, 1)
	client.AssertExpectations(t)
}

func TestExecute_RetryBoundedByContext(t *testing.T) {
	client := &MockClient{}
	client.On("Trains", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(nil, rzd.ErrUpstream)

	svc := NewService(client, DefaultLayoutRules, time.Millisecond)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	q := &domain.Query{From: "а", To: "б", Range: testRange()}

	_, _, err := svc.Execute(ctx, q)

	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestExecute_NonUpstreamErrorPropagates(t *testing.T) {
	boom := errors.New("bad response")
	client := &MockClient{}
	client.On("Trains", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil, boom)

	svc := NewService(client, DefaultLayoutRules, time.Millisecond)
	q := &domain.Query{From: "а", To: "б", Range: testRange()}

	_, _, err := svc.Execute(context.Background(), q)

	assert.ErrorIs(t, err, boom)
}

func TestExecute_SeatFilterPreservesOrder(t *testing.T) {
	r := testRange()
	dep := r.Start.Add(time.Hour)
	t1 := train("001А", dep, domain.SeatClass{Label: "Плацкартный", Price: 100, Quantity: 9})
	t2 := train("002А", dep, domain.SeatClass{Label: "Плацкартный", Price: 100, Quantity: 9})
	t3 := train("003А", dep, domain.SeatClass{Label: "Плацкартный", Price: 100, Quantity: 9})

	withBottom := &domain.CarriageLayout{Cars: []domain.Car{{
		Number: "1",
		Seats:  []domain.Seat{{Number: 5, Class: "lower"}},
	}}}
	withoutBottom := &domain.CarriageLayout{Cars: []domain.Car{{
		Number: "1",
		Seats:  []domain.Seat{{Number: 6, Class: "lower"}, {Number: 7, Class: "upper"}},
	}}}

	client := &MockClient{}
	client.On("Trains", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return([]domain.Train{t1, t2, t3}, nil)
	client.On("CarriageLayout", mock.Anything, mock.Anything, mock.Anything, mock.Anything, "001А").
		Return(withoutBottom, nil)
	client.On("CarriageLayout", mock.Anything, mock.Anything, mock.Anything, mock.Anything, "002А").
		Return(withBottom, nil)
	client.On("CarriageLayout", mock.Anything, mock.Anything, mock.Anything, mock.Anything, "003А").
		Return(withBottom, nil)

	svc := NewService(client, DefaultLayoutRules, time.Millisecond)
	q := &domain.Query{
		From: "а", To: "б", Range: r,
		Seats: &domain.SeatFilter{OnlyBottom: true},
	}

	matched, _, err := svc.Execute(context.Background(), q)

	assert.NoError(t, err)
	if assert.Len(t, matched, 2) {
		assert.Equal(t, "002А", matched[0].Number)
		assert.Equal(t, "003А", matched[1].Number)
	}
	client.AssertExpectations(t)
}
