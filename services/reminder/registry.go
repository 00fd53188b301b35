package reminder

import (
	"context"
	"fmt"
	"sort"

	"barakah/models"

	"go.uber.org/zap"
)

// WisdomEntityID is the entity id of the single daily wisdom slot.
const WisdomEntityID = "wisdom"

// HabitSource is the subset of the habit store the registry reads.
type HabitSource interface {
	ListActive(ctx context.Context, ownerID string) ([]models.Habit, error)
	ListOwnersWithReminders(ctx context.Context) ([]string, error)
}

// Source enumerates reminder entities. Both schedulers depend on it.
type Source interface {
	ListDue(ctx context.Context, ownerID, day string) ([]models.ReminderEntity, error)
}

// Registry joins habits with a reminder time, the five prayer slots and the wisdom slot.
type Registry struct {
	habits     HabitSource
	prayers    []models.PrayerSlot
	wisdomTime models.TimeOfDay
	logger     *zap.Logger
}

func NewRegistry(habits HabitSource, prayers []models.PrayerSlot, wisdomTime models.TimeOfDay, logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		habits:     habits,
		prayers:    prayers,
		wisdomTime: wisdomTime,
		logger:     logger,
	}
}

// ListDue returns every active reminder entity of the owner for the calendar day
// (YYYY-MM-DD), sorted by due time. Prayer and wisdom slots exist for every user.
func (r *Registry) ListDue(ctx context.Context, ownerID, day string) ([]models.ReminderEntity, error) {
	if ownerID == "" {
		return nil, nil
	}

	habits, err := r.habits.ListActive(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("registry: list habits for %s: %w", ownerID, err)
	}

	entities := make([]models.ReminderEntity, 0, len(habits)+len(r.prayers)+1)
	for _, h := range habits {
		if !h.IsActive || h.ReminderTime == "" {
			continue
		}
		due, err := models.ParseTimeOfDay(h.ReminderTime)
		if err != nil {
			r.logger.Warn("skipping habit with malformed reminder time",
				zap.String("habit_id", h.ID),
				zap.String("owner_id", ownerID),
				zap.String("reminder_time", h.ReminderTime))
			continue
		}
		entities = append(entities, newEntity(models.KindHabit, ownerID, h.ID, h.Title, due, day))
	}

	for _, p := range r.prayers {
		entities = append(entities, newEntity(models.KindPrayerSlot, ownerID, p.Key(), p.Name, p.Time, day))
	}

	entities = append(entities, newEntity(models.KindDailyWisdom, ownerID, WisdomEntityID, "Daily Wisdom", r.wisdomTime, day))

	sort.SliceStable(entities, func(i, j int) bool {
		if entities[i].DueTime != entities[j].DueTime {
			return entities[i].DueTime < entities[j].DueTime
		}
		return entities[i].DedupeKey < entities[j].DedupeKey
	})
	return entities, nil
}

// ListOwners returns the users having at least one active habit reminder.
func (r *Registry) ListOwners(ctx context.Context) ([]string, error) {
	owners, err := r.habits.ListOwnersWithReminders(ctx)
	if err != nil {
		return nil, fmt.Errorf("registry: list owners: %w", err)
	}
	sort.Strings(owners)
	return owners, nil
}

func newEntity(kind models.ReminderKind, ownerID, entityID, title string, due models.TimeOfDay, day string) models.ReminderEntity {
	return models.ReminderEntity{
		Kind:      kind,
		OwnerID:   ownerID,
		EntityID:  entityID,
		Title:     title,
		DueTime:   due,
		Day:       day,
		DedupeKey: models.DedupeKey(kind, ownerID, entityID, day),
		IsActive:  true,
	}
}
