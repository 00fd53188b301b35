package reminder

import (
	"time"

	"barakah/models"
)

// IsDue reports whether the entity is due at now under exact-minute matching:
// now's local HH:MM equals the entity's due time. Used by the remote dispatcher,
// which is invoked once per minute.
func IsDue(e models.ReminderEntity, now time.Time) bool {
	return e.IsActive && models.TimeOfDayOf(now) == e.DueTime
}

// FireTime is the instant the entity should fire on the calendar day of `day`.
// Prayer slots fire `lead` before their due time; habits and wisdom fire exactly on time.
func FireTime(e models.ReminderEntity, day time.Time, lead time.Duration) time.Time {
	due := e.DueTime.On(day)
	if e.Kind == models.KindPrayerSlot && lead > 0 {
		due = due.Add(-lead)
	}
	return due
}

// FilterDue keeps the entities due at now (exact-minute match).
func FilterDue(entities []models.ReminderEntity, now time.Time) []models.ReminderEntity {
	var due []models.ReminderEntity
	for _, e := range entities {
		if IsDue(e, now) {
			due = append(due, e)
		}
	}
	return due
}
