package query

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Domenick1991/railwatch/internal/domain"
)

// ErrInvalidQuery wraps every parser-stage failure.
var ErrInvalidQuery = errors.New("не понял запрос")

// Input is the lexically separated command text: the transport has already
// split it into from/to/when capture groups.
type Input struct {
	From string
	To   string
	When string
}

// cityAliases maps shorthand tokens to canonical city names. Lookup is
// literal: unknown names pass through verbatim.
var cityAliases = map[string]string{
	"мск": "москва",
	"м":   "москва",
	"спб": "санкт-петербург",
	"сп":  "санкт-петербург",
	"п":   "санкт-петербург",
	"с":   "санкт-петербург",
}

// Seat-preference keywords stripped from the "when" text before temporal
// resolution.
const (
	keywordBottom   = "низ"
	keywordTop      = "верх"
	keywordNotSide  = "небок"
	keywordTogether = "вместе"
)

// Parse builds a Query from the captured command groups. The "when" fragment
// may carry a price ceiling after "<" and a minimum seat count after "#"
// ("4.05<2000#2"); what remains after stripping seat keywords goes to the
// range resolver.
func Parse(in Input, now time.Time) (*domain.Query, error) {
	from := resolveAlias(strings.TrimSpace(in.From))
	to := resolveAlias(strings.TrimSpace(in.To))
	if from == "" || to == "" {
		return nil, fmt.Errorf("%w: пустой город", ErrInvalidQuery)
	}

	when, maxPrice, minTickets := splitThresholds(strings.TrimSpace(in.When))
	when, seats := extractSeatFilter(when)

	r, err := ResolveRange(when, now)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidQuery, err)
	}

	return &domain.Query{
		From:       from,
		To:         to,
		Range:      r,
		MaxPrice:   maxPrice,
		MinTickets: minTickets,
		Seats:      seats,
	}, nil
}

func resolveAlias(name string) string {
	if canonical, ok := cityAliases[name]; ok {
		return canonical
	}
	return name
}

// splitThresholds extracts the optional "<price" and "#minTickets" suffixes.
// A price that fails integer parsing is dropped; a structurally broken
// fragment (repeated separators, non-numeric seat count) falls back to the
// default range with no thresholds, matching how the command has always
// behaved on junk input.
func splitThresholds(when string) (string, *int, *int) {
	pricePart := ""
	hasPrice := false
	if strings.Contains(when, "<") {
		parts := strings.Split(when, "<")
		if len(parts) != 2 {
			return "", nil, nil
		}
		when, pricePart = parts[0], parts[1]
		hasPrice = true
	}

	target := when
	if hasPrice {
		target = pricePart
	}

	var minTickets *int
	if strings.Contains(target, "#") {
		parts := strings.Split(target, "#")
		if len(parts) != 2 {
			return "", nil, nil
		}
		n, err := strconv.Atoi(strings.TrimSpace(parts[1]))
		if err != nil {
			return "", nil, nil
		}
		target = parts[0]
		minTickets = &n
	}

	var maxPrice *int
	if hasPrice {
		pricePart = strings.TrimSpace(target)
		if p, err := strconv.Atoi(pricePart); err == nil && pricePart != "" {
			maxPrice = &p
		}
	} else {
		when = target
	}

	return strings.TrimSpace(when), maxPrice, minTickets
}

// extractSeatFilter removes recognized seat keywords from the fragment. When
// nothing matched the filter is absent, not all-false: callers print nothing
// for a query without placement preferences.
func extractSeatFilter(when string) (string, *domain.SeatFilter) {
	var f domain.SeatFilter
	kept := make([]string, 0, 4)
	for _, word := range strings.Fields(when) {
		switch strings.ToLower(word) {
		case keywordBottom:
			f.OnlyBottom = true
		case keywordTop:
			f.OnlyTop = true
		case keywordNotSide:
			f.ExcludeSide = true
		case keywordTogether:
			f.SameCompartment = true
		default:
			kept = append(kept, word)
		}
	}
	if f.Empty() {
		return when, nil
	}
	return strings.Join(kept, " "), &f
}
