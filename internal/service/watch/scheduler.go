package watch

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/Domenick1991/railwatch/internal/domain"
	"github.com/Domenick1991/railwatch/internal/kafka"
)

// Notifier delivers watch outcomes to the owning chat. Implemented by the
// Telegram transport; delivery errors are logged, never fatal to the worker.
type Notifier interface {
	Results(ctx context.Context, chatID int64, trains []domain.Train, truncated bool) error
	Progress(ctx context.Context, chatID int64, elapsed time.Duration) error
	NothingFound(ctx context.Context, chatID int64) error
	Failure(ctx context.Context, chatID int64, err error) error
	Stopping(ctx context.Context, chatID int64) error
}

// Executor runs a query; see the search service.
type Executor interface {
	Execute(ctx context.Context, q *domain.Query) (matched, all []domain.Train, err error)
}

type Producer interface {
	Publish(ctx context.Context, topic, key string, value interface{}) error
}

// Scheduler drains a queue of standing watches with a single worker loop.
// Producers (command handlers) enqueue; the worker polls each watch through
// the executor and re-enqueues the ones that found nothing yet.
type Scheduler struct {
	registry *Registry
	search   Executor
	notifier Notifier

	producer Producer
	topic    string

	queue            chan *domain.Watch
	pollInterval     time.Duration
	progressInterval time.Duration
	maxResults       int
}

type SchedulerOption func(*Scheduler)

// WithEvents makes the scheduler publish watch lifecycle events.
func WithEvents(producer Producer, topic string) SchedulerOption {
	return func(s *Scheduler) {
		s.producer = producer
		s.topic = topic
	}
}

func NewScheduler(
	registry *Registry,
	search Executor,
	notifier Notifier,
	pollInterval, progressInterval time.Duration,
	maxResults int,
	opts ...SchedulerOption,
) *Scheduler {
	s := &Scheduler{
		registry:         registry,
		search:           search,
		notifier:         notifier,
		queue:            make(chan *domain.Watch, 1024),
		pollInterval:     pollInterval,
		progressInterval: progressInterval,
		maxResults:       maxResults,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ErrQueueFull is reported to the owner when a watch cannot be scheduled.
var ErrQueueFull = errors.New("очередь запросов переполнена")

// Enqueue appends the watch to the queue tail. Never blocks the command path.
// A refused enqueue retires the watch: a watch that stays in the registry but
// never reaches the queue would list as active without ever being polled.
func (s *Scheduler) Enqueue(w *domain.Watch) {
	select {
	case s.queue <- w:
	default:
		log.Printf("watch queue full, retiring watch %d", w.ID)
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.send(s.notifier.Failure(ctx, w.ChatID, ErrQueueFull))
		s.retire(ctx, w, kafka.EventWatchFailed)
	}
}

// Run drives the worker loop until ctx is canceled. Each pass takes one
// blocking dequeue plus everything already queued behind it, then sleeps the
// poll interval; watches re-enqueued during the pass land behind the snapshot
// and wait for the next pass, so a lone empty watch cannot hot-loop the
// upstream. On cancellation the remaining queue is drained with best-effort
// shutdown notices.
func (s *Scheduler) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return s.drain(ctx)
		default:
		}

		var w *domain.Watch
		select {
		case <-ctx.Done():
			return s.drain(ctx)
		case w = <-s.queue:
		}

		rest := len(s.queue)
		if err := s.process(ctx, w); err != nil {
			return s.drain(ctx)
		}
		for i := 0; i < rest; i++ {
			select {
			case <-ctx.Done():
				return s.drain(ctx)
			case next := <-s.queue:
				if err := s.process(ctx, next); err != nil {
					return s.drain(ctx)
				}
			}
		}

		select {
		case <-ctx.Done():
			return s.drain(ctx)
		case <-time.After(s.pollInterval):
		}
	}
}

// process polls one watch. The returned error is non-nil only for
// cancellation, which must stop the worker; any other failure terminates
// just this watch.
func (s *Scheduler) process(ctx context.Context, w *domain.Watch) error {
	if !s.registry.Contains(w.ChatID, w.ID) {
		// Cancelled while queued; stale entry, not an error.
		return nil
	}

	w.LastPolledAt = time.Now()
	matched, _, err := s.search.Execute(ctx, &w.Query)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		log.Printf("watch %d: poll failed: %v", w.ID, err)
		s.send(s.notifier.Failure(ctx, w.ChatID, err))
		s.retire(ctx, w, kafka.EventWatchFailed)
		return nil
	}

	if len(matched) == 0 {
		now := time.Now()
		if now.After(w.Deadline) {
			s.send(s.notifier.NothingFound(ctx, w.ChatID))
			s.retire(ctx, w, kafka.EventWatchExpired)
			return nil
		}
		if now.Sub(w.LastNotifiedAt) > s.progressInterval {
			w.LastNotifiedAt = now
			s.send(s.notifier.Progress(ctx, w.ChatID, now.Sub(w.CreatedAt)))
		}
		s.Enqueue(w)
		return nil
	}

	truncated := len(matched) > s.maxResults
	if truncated {
		matched = matched[:s.maxResults]
	}
	if !s.registry.Contains(w.ChatID, w.ID) {
		// Cancelled while the poll was in flight; drop the delivery.
		return nil
	}
	s.send(s.notifier.Results(ctx, w.ChatID, matched, truncated))
	s.retire(ctx, w, kafka.EventWatchDelivered)
	return nil
}

func (s *Scheduler) retire(ctx context.Context, w *domain.Watch, eventType string) {
	s.registry.Cancel(ctx, w.ChatID, w.ID)
	s.publish(ctx, eventType, w)
}

func (s *Scheduler) publish(ctx context.Context, eventType string, w *domain.Watch) {
	if s.producer == nil || s.topic == "" {
		return
	}
	event := kafka.NewWatchEvent(eventType, w)
	if err := s.producer.Publish(ctx, s.topic, event.EventID, event); err != nil {
		log.Printf("publish %s for watch %d: %v", eventType, w.ID, err)
	}
}

func (s *Scheduler) send(err error) {
	if err != nil {
		log.Printf("notify: %v", err)
	}
}

// drain empties the queue on shutdown, telling owners of still-active watches
// that the service is stopping. The parent ctx is already canceled, so the
// notices run on a short background deadline.
func (s *Scheduler) drain(ctx context.Context) error {
	nctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for {
		select {
		case w := <-s.queue:
			if s.registry.Contains(w.ChatID, w.ID) {
				s.send(s.notifier.Stopping(nctx, w.ChatID))
			}
		default:
			return ctx.Err()
		}
	}
}
