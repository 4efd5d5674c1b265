package rzd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/Domenick1991/railwatch/internal/domain"
)

// ErrUpstream marks a transient upstream failure: the timetable service
// answers 5xx or reports that the request is still being prepared. Callers
// retry these; everything else propagates.
var ErrUpstream = errors.New("источник временно недоступен")

const departureLayout = "02.01.2006 15:04"

// Client is the timetable upstream consumed by the search executor.
type Client interface {
	Trains(ctx context.Context, from, to string, r domain.TimeRange) ([]domain.Train, error)
	CarriageLayout(ctx context.Context, code0, code1 string, departure time.Time, trainNumber string) (*domain.CarriageLayout, error)
	CityAutocomplete(ctx context.Context, name string) (string, error)
}

// HTTPClient talks to the timetable HTTP API.
type HTTPClient struct {
	baseURL string
	client  *http.Client
}

func NewHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

type trainsResponse struct {
	Result string `json:"result"`
	Trains []struct {
		Number    string `json:"number"`
		Brand     string `json:"brand"`
		Date0     string `json:"date0"`
		Time0     string `json:"time0"`
		Code0     string `json:"code0"`
		Code1     string `json:"code1"`
		SeatTypes []struct {
			Label    string `json:"label"`
			Price    int    `json:"price"`
			Quantity int    `json:"free"`
		} `json:"seat_types"`
	} `json:"trains"`
}

type carriagesResponse struct {
	Result string `json:"result"`
	Cars   []struct {
		Number string `json:"cnumber"`
		Type   string `json:"type"`
		Seats  []struct {
			Number int    `json:"number"`
			Class  string `json:"class"`
		} `json:"seats"`
	} `json:"cars"`
}

type suggestResponse struct {
	Cities []struct {
		Name string `json:"n"`
		Code int    `json:"c"`
	} `json:"city"`
}

func (c *HTTPClient) Trains(ctx context.Context, from, to string, r domain.TimeRange) ([]domain.Train, error) {
	params := url.Values{}
	params.Set("from", from)
	params.Set("to", to)
	params.Set("date_from", r.Start.Format(departureLayout))
	params.Set("date_to", r.End.Format(departureLayout))

	var resp trainsResponse
	if err := c.getJSON(ctx, "/timetable", params, &resp); err != nil {
		return nil, fmt.Errorf("fetch trains: %w", err)
	}
	if resp.Result != "OK" {
		// "RID" and friends mean the upstream is still assembling the
		// answer; the caller polls again.
		return nil, fmt.Errorf("trains result %q: %w", resp.Result, ErrUpstream)
	}

	trains := make([]domain.Train, 0, len(resp.Trains))
	for _, t := range resp.Trains {
		departure, err := time.ParseInLocation(departureLayout, t.Date0+" "+t.Time0, r.Start.Location())
		if err != nil {
			return nil, fmt.Errorf("parse departure %q %q: %w", t.Date0, t.Time0, err)
		}
		seats := make(map[string]domain.SeatClass, len(t.SeatTypes))
		for _, s := range t.SeatTypes {
			seats[s.Label] = domain.SeatClass{Label: s.Label, Price: s.Price, Quantity: s.Quantity}
		}
		trains = append(trains, domain.Train{
			Number:        t.Number,
			Title:         t.Brand,
			DepartureTime: departure,
			Seats:         seats,
			RouteCode0:    t.Code0,
			RouteCode1:    t.Code1,
		})
	}
	return trains, nil
}

func (c *HTTPClient) CarriageLayout(ctx context.Context, code0, code1 string, departure time.Time, trainNumber string) (*domain.CarriageLayout, error) {
	params := url.Values{}
	params.Set("code0", code0)
	params.Set("code1", code1)
	params.Set("dt0", departure.Format(departureLayout))
	params.Set("tnum0", trainNumber)

	var resp carriagesResponse
	if err := c.getJSON(ctx, "/carriages", params, &resp); err != nil {
		return nil, fmt.Errorf("fetch carriages: %w", err)
	}
	if resp.Result != "OK" {
		return nil, fmt.Errorf("carriages result %q: %w", resp.Result, ErrUpstream)
	}

	layout := &domain.CarriageLayout{Cars: make([]domain.Car, 0, len(resp.Cars))}
	for _, car := range resp.Cars {
		seats := make([]domain.Seat, 0, len(car.Seats))
		for _, s := range car.Seats {
			seats = append(seats, domain.Seat{Number: s.Number, Class: s.Class})
		}
		layout.Cars = append(layout.Cars, domain.Car{Number: car.Number, Type: car.Type, Seats: seats})
	}
	return layout, nil
}

func (c *HTTPClient) CityAutocomplete(ctx context.Context, name string) (string, error) {
	params := url.Values{}
	params.Set("name", name)

	var resp suggestResponse
	if err := c.getJSON(ctx, "/suggest", params, &resp); err != nil {
		return "", fmt.Errorf("city autocomplete: %w", err)
	}
	if len(resp.Cities) == 0 {
		return "", fmt.Errorf("город %q не найден", name)
	}
	return resp.Cities[0].Name, nil
}

func (c *HTTPClient) getJSON(ctx context.Context, path string, params url.Values, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusInternalServerError {
		return fmt.Errorf("status %d: %w", resp.StatusCode, ErrUpstream)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	return json.Unmarshal(body, out)
}

var _ Client = (*HTTPClient)(nil)
