package bot

import (
	"context"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/Domenick1991/railwatch/internal/domain"
	"github.com/Domenick1991/railwatch/internal/kafka"
	"github.com/Domenick1991/railwatch/internal/service/query"
	servicewatch "github.com/Domenick1991/railwatch/internal/service/watch"
)

func (b *Bot) handleSearch(ctx context.Context, chatID int64, rest string) {
	in, ok := matchQuery(rest)
	if !ok {
		b.send(ctx, chatID, msgUnknown)
		return
	}
	b.runSearch(ctx, chatID, in)
}

func (b *Bot) runSearch(ctx context.Context, chatID int64, in query.Input) {
	q, err := query.Parse(in, time.Now())
	if err != nil {
		b.sendError(ctx, chatID, err)
		return
	}
	b.send(ctx, chatID, msgSearching)

	// The executor retries upstream errors forever; the timeout is what
	// bounds a stuck search.
	sctx, cancel := context.WithTimeout(ctx, b.SearchTimeout)
	defer cancel()

	matched, all, err := b.Search.Execute(sctx, q)
	if err != nil {
		b.sendError(ctx, chatID, err)
		return
	}

	switch {
	case len(matched) == 0 && len(all) == 0:
		b.send(ctx, chatID, msgNoTrains)
	case len(matched) == 0:
		b.send(ctx, chatID, msgOnlyFiltered)
	default:
		truncated := len(matched) > b.MaxResults
		if truncated {
			matched = matched[:b.MaxResults]
		}
		b.sendHTML(ctx, chatID, formatTrains(matched, truncated))
	}
}

func (b *Bot) handleNotify(ctx context.Context, chatID int64, rest string) {
	in, ok := matchQuery(rest)
	if !ok {
		b.send(ctx, chatID, msgUnknown)
		return
	}
	q, err := query.Parse(in, time.Now())
	if err != nil {
		b.sendError(ctx, chatID, err)
		return
	}

	fromName, err := b.cityName(ctx, q.From)
	if err != nil {
		b.sendError(ctx, chatID, err)
		return
	}
	toName, err := b.cityName(ctx, q.To)
	if err != nil {
		b.sendError(ctx, chatID, err)
		return
	}

	w := servicewatch.NewWatch(b.Registry.NextID(), chatID, *q, fromName, toName, time.Now(), b.WatchTTL)
	if !b.Registry.Register(ctx, w) {
		b.send(ctx, chatID, msgDuplicateWatch)
		return
	}
	b.Scheduler.Enqueue(w)
	b.publish(ctx, kafka.EventWatchCreated, w)
	b.send(ctx, chatID, formatWatchConfirmation(w))
}

func (b *Bot) handleList(ctx context.Context, chatID int64) {
	watches := b.Registry.List(chatID)
	if len(watches) == 0 {
		b.send(ctx, chatID, msgNoWatches)
		return
	}
	lines := make([]string, 0, len(watches))
	for _, w := range watches {
		lines = append(lines, formatWatchSummary(w))
	}
	b.send(ctx, chatID, strings.Join(lines, "\n"))
}

func (b *Bot) handleCancel(ctx context.Context, chatID int64, rest string) {
	id, err := strconv.ParseInt(strings.TrimSpace(rest), 10, 64)
	if err != nil {
		b.send(ctx, chatID, msgCancelUsage)
		return
	}

	var target *domain.Watch
	for _, w := range b.Registry.List(chatID) {
		if w.ID == id {
			target = w
			break
		}
	}
	if target == nil || !b.Registry.Cancel(ctx, chatID, id) {
		b.send(ctx, chatID, msgNoSuchWatch)
		return
	}
	b.publish(ctx, kafka.EventWatchCancelled, target)
	b.send(ctx, chatID, formatWatchCancelled(id))
}

// cityName resolves the display name for a city, preferring the cache.
func (b *Bot) cityName(ctx context.Context, city string) (string, error) {
	if b.Cities != nil {
		if display, err := b.Cities.GetCity(ctx, city); err == nil && display != "" {
			return display, nil
		}
	}
	display, err := b.Upstream.CityAutocomplete(ctx, city)
	if err != nil {
		return "", err
	}
	if b.Cities != nil {
		if err := b.Cities.SetCity(ctx, city, display); err != nil {
			log.Printf("cache city %q: %v", city, err)
		}
	}
	return display, nil
}

func (b *Bot) publish(ctx context.Context, eventType string, w *domain.Watch) {
	if b.Producer == nil || b.EventsTopic == "" {
		return
	}
	event := kafka.NewWatchEvent(eventType, w)
	if err := b.Producer.Publish(ctx, b.EventsTopic, event.EventID, event); err != nil {
		log.Printf("publish %s for watch %d: %v", eventType, w.ID, err)
	}
}
