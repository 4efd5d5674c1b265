package watch

import (
	"context"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Domenick1991/railwatch/internal/domain"
	"github.com/Domenick1991/railwatch/internal/repository"
)

// Registry holds the active watches per owner. Membership here is the single
// source of truth for "is this watch alive": the scheduler queue is never
// filtered, it just discards entries whose watch has left the registry.
//
// The repository, when present, is a write-through copy so watches survive a
// restart; the in-memory state stays authoritative and repository failures
// are logged, not surfaced.
type Registry struct {
	mu      sync.RWMutex
	byOwner map[int64][]*domain.Watch

	lastID atomic.Int64
	repo   repository.WatchRepository
}

func NewRegistry(repo repository.WatchRepository) *Registry {
	return &Registry{
		byOwner: make(map[int64][]*domain.Watch),
		repo:    repo,
	}
}

// NextID issues a process-unique watch id.
func (r *Registry) NextID() int64 {
	return r.lastID.Add(1)
}

// Register adds the watch unless the owner already has one with the same
// query; returns false for such duplicates.
func (r *Registry) Register(ctx context.Context, w *domain.Watch) bool {
	r.mu.Lock()
	for _, existing := range r.byOwner[w.ChatID] {
		if sameQuery(&existing.Query, &w.Query) {
			r.mu.Unlock()
			return false
		}
	}
	r.byOwner[w.ChatID] = append(r.byOwner[w.ChatID], w)
	r.mu.Unlock()

	if r.repo != nil {
		if err := r.repo.Save(ctx, w); err != nil {
			log.Printf("save watch %d: %v", w.ID, err)
		}
	}
	return true
}

// Cancel removes the owner's watch with the given id; returns whether a
// matching watch existed. Safe to call while the worker polls that watch:
// the worker re-checks membership before delivering.
func (r *Registry) Cancel(ctx context.Context, chatID, id int64) bool {
	r.mu.Lock()
	watches := r.byOwner[chatID]
	found := false
	for i, w := range watches {
		if w.ID == id {
			r.byOwner[chatID] = append(watches[:i], watches[i+1:]...)
			found = true
			break
		}
	}
	if len(r.byOwner[chatID]) == 0 {
		delete(r.byOwner, chatID)
	}
	r.mu.Unlock()

	if found && r.repo != nil {
		if err := r.repo.Delete(ctx, chatID, id); err != nil {
			log.Printf("delete watch %d: %v", id, err)
		}
	}
	return found
}

// List returns a snapshot of the owner's active watches.
func (r *Registry) List(chatID int64) []*domain.Watch {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*domain.Watch, len(r.byOwner[chatID]))
	copy(out, r.byOwner[chatID])
	return out
}

// ListAll returns a snapshot of every active watch, for the admin surface.
func (r *Registry) ListAll() []*domain.Watch {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*domain.Watch, 0)
	for _, watches := range r.byOwner {
		out = append(out, watches...)
	}
	return out
}

// Contains reports whether the owner still holds the watch.
func (r *Registry) Contains(chatID, id int64) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, w := range r.byOwner[chatID] {
		if w.ID == id {
			return true
		}
	}
	return false
}

// Restore loads persisted watches after a restart and moves the id counter
// past the highest restored id. The notify timestamp is not persisted, so a
// restored watch starts a fresh progress interval.
func (r *Registry) Restore(watches []*domain.Watch) {
	now := time.Now()
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, w := range watches {
		if w.LastNotifiedAt.IsZero() {
			w.LastNotifiedAt = now
		}
		r.byOwner[w.ChatID] = append(r.byOwner[w.ChatID], w)
		if w.ID > r.lastID.Load() {
			r.lastID.Store(w.ID)
		}
	}
}

func sameQuery(a, b *domain.Query) bool {
	if a.From != b.From || a.To != b.To {
		return false
	}
	if !a.Range.Start.Equal(b.Range.Start) || !a.Range.End.Equal(b.Range.End) {
		return false
	}
	if !sameIntPtr(a.MaxPrice, b.MaxPrice) || !sameIntPtr(a.MinTickets, b.MinTickets) {
		return false
	}
	af, bf := a.Seats, b.Seats
	if (af == nil) != (bf == nil) {
		return false
	}
	return af == nil || *af == *bf
}

func sameIntPtr(a, b *int) bool {
	if (a == nil) != (b == nil) {
		return false
	}
	return a == nil || *a == *b
}

// NewWatch builds a watch with its deadline derived from the TTL. The notify
// timestamp starts at creation time so the first progress notice waits a full
// interval instead of firing on the first empty poll.
func NewWatch(id, chatID int64, q domain.Query, fromName, toName string, now time.Time, ttl time.Duration) *domain.Watch {
	return &domain.Watch{
		ID:             id,
		ChatID:         chatID,
		Query:          q,
		FromName:       fromName,
		ToName:         toName,
		CreatedAt:      now,
		Deadline:       now.Add(ttl),
		LastNotifiedAt: now,
	}
}
