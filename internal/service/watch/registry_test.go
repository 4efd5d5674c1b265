package watch

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/Domenick1991/railwatch/internal/domain"
)

func testQuery(from, to string) domain.Query {
	return domain.Query{
		From: from,
		To:   to,
		Range: domain.TimeRange{
			Start: time.Date(2026, time.May, 4, 0, 0, 0, 0, time.UTC),
			End:   time.Date(2026, time.May, 5, 23, 59, 0, 0, time.UTC),
		},
	}
}

func TestRegistry_RegisterListCancel(t *testing.T) {
	r := NewRegistry(nil)
	ctx := context.Background()
	now := time.Now()

	w1 := NewWatch(r.NextID(), 100, testQuery("москва", "санкт-петербург"), "МОСКВА", "САНКТ-ПЕТЕРБУРГ", now, 24*time.Hour)
	w2 := NewWatch(r.NextID(), 100, testQuery("москва", "казань"), "МОСКВА", "КАЗАНЬ", now, 24*time.Hour)

	assert.True(t, r.Register(ctx, w1))
	assert.True(t, r.Register(ctx, w2))
	assert.NotEqual(t, w1.ID, w2.ID)

	assert.Len(t, r.List(100), 2)
	assert.Empty(t, r.List(200))
	assert.True(t, r.Contains(100, w1.ID))

	assert.True(t, r.Cancel(ctx, 100, w1.ID))
	assert.False(t, r.Contains(100, w1.ID))
	assert.Len(t, r.List(100), 1)

	// Cancelling twice reports nothing to remove.
	assert.False(t, r.Cancel(ctx, 100, w1.ID))
}

func TestRegistry_CancelIsPerOwner(t *testing.T) {
	r := NewRegistry(nil)
	ctx := context.Background()

	w := NewWatch(r.NextID(), 100, testQuery("москва", "санкт-петербург"), "", "", time.Now(), 24*time.Hour)
	assert.True(t, r.Register(ctx, w))

	// Another chat cannot cancel someone else's watch.
	assert.False(t, r.Cancel(ctx, 200, w.ID))
	assert.True(t, r.Contains(100, w.ID))
}

func TestRegistry_DuplicateQueryRejected(t *testing.T) {
	r := NewRegistry(nil)
	ctx := context.Background()
	now := time.Now()

	w1 := NewWatch(r.NextID(), 100, testQuery("москва", "санкт-петербург"), "", "", now, 24*time.Hour)
	w2 := NewWatch(r.NextID(), 100, testQuery("москва", "санкт-петербург"), "", "", now, 24*time.Hour)

	assert.True(t, r.Register(ctx, w1))
	assert.False(t, r.Register(ctx, w2))
	assert.Len(t, r.List(100), 1)

	// Same query for another owner is fine.
	w3 := NewWatch(r.NextID(), 200, testQuery("москва", "санкт-петербург"), "", "", now, 24*time.Hour)
	assert.True(t, r.Register(ctx, w3))
}

func TestRegistry_RestoreAdvancesIDCounter(t *testing.T) {
	r := NewRegistry(nil)
	now := time.Now()

	restored := []*domain.Watch{
		NewWatch(7, 100, testQuery("москва", "санкт-петербург"), "", "", now, 24*time.Hour),
		NewWatch(12, 200, testQuery("москва", "казань"), "", "", now, 24*time.Hour),
	}
	r.Restore(restored)

	assert.True(t, r.Contains(100, 7))
	assert.True(t, r.Contains(200, 12))
	assert.Equal(t, int64(13), r.NextID())
}

func TestRegistry_RestoreInitializesNotifyTimestamp(t *testing.T) {
	r := NewRegistry(nil)
	now := time.Now()

	// A row loaded from the store carries no notify timestamp; restoring it
	// must not leave the zero value, or the first empty poll would fire an
	// immediate progress notice.
	w := &domain.Watch{
		ID:        7,
		ChatID:    100,
		Query:     testQuery("москва", "санкт-петербург"),
		CreatedAt: now.Add(-time.Hour),
		Deadline:  now.Add(23 * time.Hour),
	}
	r.Restore([]*domain.Watch{w})

	assert.False(t, w.LastNotifiedAt.IsZero())
}

func TestNewWatch_NotifyTimestampStartsAtCreation(t *testing.T) {
	now := time.Now()

	w := NewWatch(1, 100, testQuery("москва", "санкт-петербург"), "", "", now, 24*time.Hour)

	assert.Equal(t, now, w.LastNotifiedAt)
	assert.Equal(t, now.Add(24*time.Hour), w.Deadline)
}

func TestRegistry_ConcurrentAccess(t *testing.T) {
	r := NewRegistry(nil)
	ctx := context.Background()
	now := time.Now()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			q := testQuery("москва", "санкт-петербург")
			q.Range.Start = q.Range.Start.Add(time.Duration(i) * time.Hour)
			w := NewWatch(r.NextID(), int64(i%5), q, "", "", now, 24*time.Hour)
			if r.Register(ctx, w) {
				r.List(w.ChatID)
				r.Cancel(ctx, w.ChatID, w.ID)
			}
		}(i)
	}
	wg.Wait()

	for chat := int64(0); chat < 5; chat++ {
		assert.Empty(t, r.List(chat))
	}
}
