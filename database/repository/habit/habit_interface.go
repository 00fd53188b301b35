package habitRepo

import (
	"context"
	"errors"

	"barakah/models"
)

var ErrHabitNotFound = errors.New("habit not found")

// HabitRepository is the read side of the habit CRUD store used by the reminder pipeline.
type HabitRepository interface {
	// ListActive returns the owner's active habits.
	ListActive(ctx context.Context, ownerID string) ([]models.Habit, error)
	// ListOwnersWithReminders returns ids of users having an active habit with a reminder time.
	ListOwnersWithReminders(ctx context.Context) ([]string, error)
	// GetByID retrieves one habit of the owner.
	GetByID(ctx context.Context, ownerID, habitID string) (*models.Habit, error)
	// CompletedHabitIDs returns the set of habit ids with a completed log on day.
	CompletedHabitIDs(ctx context.Context, ownerID, day string) (map[string]bool, error)
}
