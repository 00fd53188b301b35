package scheduler

import (
	"context"
	"sync"
	"time"

	"barakah/models"
	"barakah/services/reminder"
)

type habitSource struct {
	mu     sync.Mutex
	habits []models.Habit
}

func (h *habitSource) set(habits ...models.Habit) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.habits = habits
}

func (h *habitSource) ListActive(context.Context, string) ([]models.Habit, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]models.Habit(nil), h.habits...), nil
}

func (h *habitSource) ListOwnersWithReminders(context.Context) ([]string, error) {
	return []string{"u1"}, nil
}

// completionState answers completion from in-memory flags keyed by dedupe key.
type completionState struct {
	mu         sync.Mutex
	done       map[string]bool
	missing    map[string]bool
	incomplete int
}

func newCompletionState() *completionState {
	return &completionState{done: make(map[string]bool), missing: make(map[string]bool)}
}

func (c *completionState) IsCompleted(_ context.Context, e models.ReminderEntity) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.missing[e.DedupeKey] {
		return false, reminder.ErrEntityNotFound
	}
	return c.done[e.DedupeKey], nil
}

func (c *completionState) IncompleteHabits(context.Context, string, string) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.incomplete, nil
}

type recordingSurface struct {
	mu    sync.Mutex
	shown []models.Notification
}

func (r *recordingSurface) Notify(_ context.Context, n models.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.shown = append(r.shown, n)
	return nil
}

func (r *recordingSurface) all() []models.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]models.Notification(nil), r.shown...)
}

type fixedWisdom struct{}

func (fixedWisdom) Today(context.Context, string) (models.Wisdom, error) {
	return models.Wisdom{Content: "Verily, with hardship, there is relief.", Source: "Quran, 94:6"}, nil
}

// manualClock only moves when the test sets it.
type manualClock struct {
	mu      sync.Mutex
	now     time.Time
	waiters []clockWaiter
}

type clockWaiter struct {
	at time.Time
	ch chan time.Time
}

func newManualClock(now time.Time) *manualClock {
	return &manualClock{now: now}
}

func (c *manualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *manualClock) After(d time.Duration) <-chan time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	ch := make(chan time.Time, 1)
	if d <= 0 {
		ch <- c.now
		return ch
	}
	c.waiters = append(c.waiters, clockWaiter{at: c.now.Add(d), ch: ch})
	return ch
}

func (c *manualClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
	kept := c.waiters[:0]
	for _, w := range c.waiters {
		if !w.at.After(t) {
			w.ch <- t
			continue
		}
		kept = append(kept, w)
	}
	c.waiters = kept
}

func (c *manualClock) Waiting() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.waiters)
}
