package reminder

import (
	"context"
	"errors"
	"fmt"

	habitRepo "barakah/database/repository/habit"
	"barakah/models"
)

// CompletionReader answers whether a reminder is already satisfied for its day.
// Both schedulers read it immediately before firing; neither writes it.
type CompletionReader interface {
	IsCompleted(ctx context.Context, e models.ReminderEntity) (bool, error)
	IncompleteHabits(ctx context.Context, ownerID, day string) (int, error)
}

// PrayerLogSource reads the daily prayer log.
type PrayerLogSource interface {
	GetLog(ctx context.Context, ownerID, day string) (*models.DailyPrayerLog, error)
}

// HabitLogSource reads habits and their completion logs.
type HabitLogSource interface {
	ListActive(ctx context.Context, ownerID string) ([]models.Habit, error)
	GetByID(ctx context.Context, ownerID, habitID string) (*models.Habit, error)
	CompletedHabitIDs(ctx context.Context, ownerID, day string) (map[string]bool, error)
}

// Completion is the CompletionReader backed by the CRUD store.
type Completion struct {
	habits  HabitLogSource
	prayers PrayerLogSource
}

func NewCompletion(habits HabitLogSource, prayers PrayerLogSource) *Completion {
	return &Completion{habits: habits, prayers: prayers}
}

// IsCompleted returns ErrEntityNotFound for a habit that was deleted or deactivated.
func (c *Completion) IsCompleted(ctx context.Context, e models.ReminderEntity) (bool, error) {
	switch e.Kind {
	case models.KindHabit:
		h, err := c.habits.GetByID(ctx, e.OwnerID, e.EntityID)
		if errors.Is(err, habitRepo.ErrHabitNotFound) {
			return false, ErrEntityNotFound
		}
		if err != nil {
			return false, fmt.Errorf("completion: habit %s: %w", e.EntityID, err)
		}
		if !h.IsActive {
			return false, ErrEntityNotFound
		}
		done, err := c.habits.CompletedHabitIDs(ctx, e.OwnerID, e.Day)
		if err != nil {
			return false, fmt.Errorf("completion: habit logs: %w", err)
		}
		return done[e.EntityID], nil

	case models.KindPrayerSlot:
		log, err := c.prayers.GetLog(ctx, e.OwnerID, e.Day)
		if err != nil {
			return false, fmt.Errorf("completion: prayer log: %w", err)
		}
		return log.Completed(e.EntityID), nil

	case models.KindEveningSummary:
		n, err := c.IncompleteHabits(ctx, e.OwnerID, e.Day)
		if err != nil {
			return false, err
		}
		return n == 0, nil
	}

	// daily wisdom has nothing to complete
	return false, nil
}

// IncompleteHabits counts the owner's active habits with no completed log on day.
func (c *Completion) IncompleteHabits(ctx context.Context, ownerID, day string) (int, error) {
	habits, err := c.habits.ListActive(ctx, ownerID)
	if err != nil {
		return 0, fmt.Errorf("completion: list habits: %w", err)
	}
	if len(habits) == 0 {
		return 0, nil
	}
	done, err := c.habits.CompletedHabitIDs(ctx, ownerID, day)
	if err != nil {
		return 0, fmt.Errorf("completion: habit logs: %w", err)
	}

	n := 0
	for _, h := range habits {
		if h.IsActive && !done[h.ID] {
			n++
		}
	}
	return n, nil
}
