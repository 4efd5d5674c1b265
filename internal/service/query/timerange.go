package query

import (
	"errors"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/Domenick1991/railwatch/internal/domain"
)

var (
	// ErrUnparseableRange means no date grammar matched the fragment.
	ErrUnparseableRange = errors.New("не понял диапазон дат")
	// ErrTooLongPeriod means the fragment parsed but spans more than MaxRangeSpan.
	ErrTooLongPeriod = errors.New("слишком длинный период, используйте максимум 7 дней")
)

const (
	// MaxRangeSpan bounds every resolved range.
	MaxRangeSpan = 7 * 24 * time.Hour
	// DefaultRangeSpan is used when the fragment is empty.
	DefaultRangeSpan = 24 * time.Hour
)

// Grammars tried in order, first match wins. Fully anchored: a fragment with
// trailing garbage fails instead of being half-interpreted.
var (
	// "4.05 20:00 - 5.05 03:00"
	fullRangeRe = regexp.MustCompile(`^0?(\d+)[./]0?(\d+)\s+0?(\d+):0?(\d+)\s*[-–]\s*0?(\d+)[./]0?(\d+)\s+0?(\d+):0?(\d+)$`)
	// "4.05 - 6.05", "4.05"
	dayMonthRe = regexp.MustCompile(`^0?(\d+)[./]0?(\d+)(?:\s*[-–]\s*0?(\d+)[./]0?(\d+))?$`)
	// "4-6", "4"
	bareDaysRe = regexp.MustCompile(`^0?(\d+)(?:\s*[-–]\s*(\d+))?$`)
)

// ResolveRange turns a free-text date fragment into an absolute search window
// anchored at the nearest future occurrence. A fully qualified day.month that
// is already past rolls forward one year; a bare day number rolls forward one
// month, because "5" means "the next 5th", not "the 5th next year".
func ResolveRange(fragment string, now time.Time) (domain.TimeRange, error) {
	fragment = strings.TrimSpace(fragment)
	if fragment == "" {
		return domain.TimeRange{Start: now, End: now.Add(DefaultRangeSpan)}, nil
	}

	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	if m := fullRangeRe.FindStringSubmatch(fragment); m != nil {
		return resolveFullRange(m, today)
	}
	if m := dayMonthRe.FindStringSubmatch(fragment); m != nil {
		return resolveDayMonthRange(m, today)
	}
	if m := bareDaysRe.FindStringSubmatch(fragment); m != nil {
		return resolveBareDays(m, today)
	}
	return domain.TimeRange{}, ErrUnparseableRange
}

func resolveFullRange(m []string, today time.Time) (domain.TimeRange, error) {
	start, err := makeDate(today, atoi(m[2]), atoi(m[1]), atoi(m[3]), atoi(m[4]))
	if err != nil {
		return domain.TimeRange{}, err
	}
	end, err := makeDate(today, atoi(m[6]), atoi(m[5]), atoi(m[7]), atoi(m[8]))
	if err != nil {
		return domain.TimeRange{}, err
	}
	if start.Before(today) {
		start = start.AddDate(1, 0, 0)
		end = end.AddDate(1, 0, 0)
	}
	return checked(start, end)
}

func resolveDayMonthRange(m []string, today time.Time) (domain.TimeRange, error) {
	start, err := makeDate(today, atoi(m[2]), atoi(m[1]), 0, 0)
	if err != nil {
		return domain.TimeRange{}, err
	}
	if start.Before(today) {
		start = start.AddDate(1, 0, 0)
	}

	end := start.Add(23*time.Hour + 59*time.Minute)
	if m[3] != "" {
		end, err = makeDate(start, atoi(m[4]), atoi(m[3]), 23, 59)
		if err != nil {
			return domain.TimeRange{}, err
		}
		if end.Before(start) {
			end, err = addMonth(end)
			if err != nil {
				return domain.TimeRange{}, err
			}
		}
	}
	return checked(start, end)
}

func resolveBareDays(m []string, today time.Time) (domain.TimeRange, error) {
	start, err := makeDate(today, int(today.Month()), atoi(m[1]), 0, 0)
	if err != nil {
		return domain.TimeRange{}, err
	}
	if start.Before(today) {
		start, err = addMonth(start)
		if err != nil {
			return domain.TimeRange{}, err
		}
	}

	end := start.Add(23*time.Hour + 59*time.Minute)
	if m[2] != "" {
		end, err = makeDate(start, int(end.Month()), atoi(m[2]), 23, 59)
		if err != nil {
			return domain.TimeRange{}, err
		}
		if end.Before(start) {
			end, err = addMonth(end)
			if err != nil {
				return domain.TimeRange{}, err
			}
		}
	}
	return checked(start, end)
}

func checked(start, end time.Time) (domain.TimeRange, error) {
	if end.Before(start) {
		return domain.TimeRange{}, ErrUnparseableRange
	}
	if end.Sub(start) > MaxRangeSpan {
		return domain.TimeRange{}, ErrTooLongPeriod
	}
	return domain.TimeRange{Start: start, End: end}, nil
}

// makeDate builds a concrete timestamp in ref's year and location, rejecting
// values that time.Date would silently normalize (32.01, 30.02 and the like).
func makeDate(ref time.Time, month, day, hour, minute int) (time.Time, error) {
	if month < 1 || month > 12 || day < 1 || day > 31 || hour > 23 || minute > 59 {
		return time.Time{}, ErrUnparseableRange
	}
	t := time.Date(ref.Year(), time.Month(month), day, hour, minute, 0, 0, ref.Location())
	if t.Day() != day || t.Month() != time.Month(month) {
		return time.Time{}, ErrUnparseableRange
	}
	return t, nil
}

// addMonth moves t to the same day of the next month; a day that does not
// exist there (31st to a 30-day month) is a user error, not a normalization.
func addMonth(t time.Time) (time.Time, error) {
	year, month := t.Year(), int(t.Month())+1
	if month > 12 {
		month = 1
		year++
	}
	next := time.Date(year, time.Month(month), t.Day(), t.Hour(), t.Minute(), 0, 0, t.Location())
	if next.Day() != t.Day() {
		return time.Time{}, ErrUnparseableRange
	}
	return next, nil
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
