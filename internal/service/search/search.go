package search

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Domenick1991/railwatch/internal/domain"
	"github.com/Domenick1991/railwatch/internal/rzd"
)

// DefaultRetryDelay is the pause between retries on a transient upstream error.
const DefaultRetryDelay = 500 * time.Millisecond

type Executor interface {
	Execute(ctx context.Context, q *domain.Query) (matched, all []domain.Train, err error)
}

// Service runs a resolved query against the upstream and applies the
// post-fetch filter pipeline. Transient upstream errors are retried
// indefinitely; the caller bounds the search through ctx.
type Service struct {
	client     rzd.Client
	rules      LayoutRules
	retryDelay time.Duration
}

func NewService(client rzd.Client, rules LayoutRules, retryDelay time.Duration) *Service {
	if retryDelay <= 0 {
		retryDelay = DefaultRetryDelay
	}
	return &Service{client: client, rules: rules, retryDelay: retryDelay}
}

// Execute returns both the filtered trains and the unfiltered candidate list,
// so callers can tell "no trains at all" from "trains exist but none match".
func (s *Service) Execute(ctx context.Context, q *domain.Query) ([]domain.Train, []domain.Train, error) {
	all, err := s.fetch(ctx, q)
	if err != nil {
		return nil, nil, err
	}

	matched := filterTypes(all, q.TypesFilter)
	matched = clipWindow(matched, q.Range)
	matched = filterThresholds(matched, q)

	if q.Seats != nil && !q.Seats.Empty() {
		matched, err = s.filterSeats(ctx, matched, *q.Seats)
		if err != nil {
			return nil, nil, err
		}
	}
	return matched, all, nil
}

func (s *Service) fetch(ctx context.Context, q *domain.Query) ([]domain.Train, error) {
	for {
		trains, err := s.client.Trains(ctx, q.From, q.To, q.Range)
		if err == nil {
			return trains, nil
		}
		if !errors.Is(err, rzd.ErrUpstream) {
			return nil, err
		}
		if err := s.wait(ctx); err != nil {
			return nil, err
		}
	}
}

func (s *Service) wait(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(s.retryDelay):
		return nil
	}
}

// filterTypes is reserved for carriage-type filtering; the filter list is
// always empty today.
func filterTypes(trains []domain.Train, types []string) []domain.Train {
	if len(types) == 0 {
		return trains
	}
	out := make([]domain.Train, 0, len(trains))
	for _, t := range trains {
		for _, want := range types {
			if t.Title == want {
				out = append(out, t)
				break
			}
		}
	}
	return out
}

// clipWindow drops trains departing outside the requested window; the
// upstream pads its answers with neighboring departures.
func clipWindow(trains []domain.Train, r domain.TimeRange) []domain.Train {
	out := make([]domain.Train, 0, len(trains))
	for _, t := range trains {
		if r.Contains(t.DepartureTime) {
			out = append(out, t)
		}
	}
	return out
}

func filterThresholds(trains []domain.Train, q *domain.Query) []domain.Train {
	if q.MaxPrice == nil && q.MinTickets == nil {
		return trains
	}
	out := make([]domain.Train, 0, len(trains))
	for _, t := range trains {
		if trainMatchesThresholds(t, q.MaxPrice, q.MinTickets) {
			out = append(out, t)
		}
	}
	return out
}

func trainMatchesThresholds(t domain.Train, maxPrice, minTickets *int) bool {
	for _, class := range t.Seats {
		if maxPrice != nil {
			if class.Price < *maxPrice && (minTickets == nil || class.Quantity >= *minTickets) {
				return true
			}
			continue
		}
		if class.Quantity >= *minTickets {
			return true
		}
	}
	return false
}

// filterSeats fetches carriage layouts concurrently (one upstream call per
// train) and keeps trains with at least one qualifying seat. Results are
// recombined by original index so the candidate ordering survives.
func (s *Service) filterSeats(ctx context.Context, trains []domain.Train, f domain.SeatFilter) ([]domain.Train, error) {
	type outcome struct {
		ok  bool
		err error
	}
	outcomes := make([]outcome, len(trains))

	var wg sync.WaitGroup
	for i := range trains {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			layout, err := s.fetchLayout(ctx, trains[i])
			if err != nil {
				outcomes[i].err = err
				return
			}
			outcomes[i].ok = hasQualifyingSeats(layout, f, s.rules)
		}(i)
	}
	wg.Wait()

	out := make([]domain.Train, 0, len(trains))
	for i, t := range trains {
		if outcomes[i].err != nil {
			return nil, fmt.Errorf("carriage layout for train %s: %w", t.Number, outcomes[i].err)
		}
		if outcomes[i].ok {
			out = append(out, t)
		}
	}
	return out, nil
}

func (s *Service) fetchLayout(ctx context.Context, t domain.Train) (*domain.CarriageLayout, error) {
	for {
		layout, err := s.client.CarriageLayout(ctx, t.RouteCode0, t.RouteCode1, t.DepartureTime, t.Number)
		if err == nil {
			return layout, nil
		}
		if !errors.Is(err, rzd.ErrUpstream) {
			return nil, err
		}
		if err := s.wait(ctx); err != nil {
			return nil, err
		}
	}
}

var _ Executor = (*Service)(nil)
