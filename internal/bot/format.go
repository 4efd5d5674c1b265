package bot

import (
	"fmt"
	"sort"
	"strings"

	"github.com/Domenick1991/railwatch/internal/domain"
)

const displayTimeLayout = "02.01.2006 15:04"

func formatTrains(trains []domain.Train, truncated bool) string {
	var sb strings.Builder
	sb.WriteString("Найдено: \n")
	for _, t := range trains {
		fmt.Fprintf(&sb, "<b>%s</b>\n<i>%s %s</i>\n",
			t.DepartureTime.Format(displayTimeLayout), t.Number, t.Title)

		labels := make([]string, 0, len(t.Seats))
		for label := range t.Seats {
			labels = append(labels, label)
		}
		sort.Strings(labels)
		for _, label := range labels {
			class := t.Seats[label]
			fmt.Fprintf(&sb, " - %s: %d руб., мест %d\n", class.Label, class.Price, class.Quantity)
		}
		sb.WriteString("\n")
	}
	if truncated {
		sb.WriteString(msgMoreTrains)
	}
	return sb.String()
}

func formatWatchConfirmation(w *domain.Watch) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Буду искать по запросу %s -> %s, с %s по %s",
		w.FromName, w.ToName,
		w.Query.Range.Start.Format(displayTimeLayout),
		w.Query.Range.End.Format(displayTimeLayout))
	sb.WriteString(formatQualifiers(&w.Query))
	fmt.Fprintf(&sb, "\nНомер запроса: %d, отмена: /cancel %d", w.ID, w.ID)
	return sb.String()
}

func formatWatchSummary(w *domain.Watch) string {
	return fmt.Sprintf("#%d: %s -> %s, с %s по %s%s",
		w.ID, w.FromName, w.ToName,
		w.Query.Range.Start.Format(displayTimeLayout),
		w.Query.Range.End.Format(displayTimeLayout),
		formatQualifiers(&w.Query))
}

func formatWatchCancelled(id int64) string {
	return fmt.Sprintf("Запрос #%d отменён.", id)
}

func formatQualifiers(q *domain.Query) string {
	var sb strings.Builder
	if q.MaxPrice != nil {
		fmt.Fprintf(&sb, ", не дороже %d рублей", *q.MaxPrice)
	}
	if len(q.TypesFilter) > 0 {
		fmt.Fprintf(&sb, ", только %s", strings.Join(q.TypesFilter, ","))
	}
	if q.MinTickets != nil {
		fmt.Fprintf(&sb, ", не меньше %d мест в одном поезде", *q.MinTickets)
	}
	// An absent filter prints nothing; an all-false filter is never built.
	if q.Seats != nil {
		sb.WriteString(", места: ")
		sb.WriteString(strings.Join(seatFilterTags(q.Seats), ", "))
	}
	return sb.String()
}

func seatFilterTags(f *domain.SeatFilter) []string {
	tags := make([]string, 0, 4)
	if f.OnlyBottom {
		tags = append(tags, "низ")
	}
	if f.OnlyTop {
		tags = append(tags, "верх")
	}
	if f.ExcludeSide {
		tags = append(tags, "небок")
	}
	if f.SameCompartment {
		tags = append(tags, "вместе")
	}
	return tags
}
