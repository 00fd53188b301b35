// File: barakah/models/reminder.go
package models

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DateLayout is the calendar-day format used in dedupe keys and completion logs.
const DateLayout = "2006-01-02"

// ReminderKind identifies what a reminder entity is about.
type ReminderKind string

const (
	KindHabit          ReminderKind = "habit"
	KindPrayerSlot     ReminderKind = "prayer_slot"
	KindDailyWisdom    ReminderKind = "daily_wisdom"
	KindEveningSummary ReminderKind = "evening_summary"
)

var ErrInvalidTimeOfDay = errors.New("invalid time of day, expected HH:MM")

// TimeOfDay is a wall-clock time without a date or timezone, stored as minutes since midnight.
type TimeOfDay int

// ParseTimeOfDay parses a 24-hour "HH:MM" string. "5:30" is accepted as well.
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 2 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTimeOfDay, s)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTimeOfDay, s)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 || len(parts[1]) != 2 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTimeOfDay, s)
	}
	return TimeOfDay(h*60 + m), nil
}

// MustParseTimeOfDay is ParseTimeOfDay for constants; it panics on bad input.
func MustParseTimeOfDay(s string) TimeOfDay {
	t, err := ParseTimeOfDay(s)
	if err != nil {
		panic(err)
	}
	return t
}

// TimeOfDayOf returns the HH:MM of t in t's own location.
func TimeOfDayOf(t time.Time) TimeOfDay {
	return TimeOfDay(t.Hour()*60 + t.Minute())
}

func (t TimeOfDay) Hour() int   { return int(t) / 60 }
func (t TimeOfDay) Minute() int { return int(t) % 60 }

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour(), t.Minute())
}

// On returns the instant this time of day falls on the calendar day of `day`, in day's location.
func (t TimeOfDay) On(day time.Time) time.Time {
	y, mo, d := day.Date()
	return time.Date(y, mo, d, t.Hour(), t.Minute(), 0, 0, day.Location())
}

// ReminderEntity is one reminder-worthy item for one owner on one calendar day.
type ReminderEntity struct {
	Kind      ReminderKind `json:"kind"`
	OwnerID   string       `json:"ownerId"`
	EntityID  string       `json:"entityId"`
	Title     string       `json:"title"`
	DueTime   TimeOfDay    `json:"dueTime"`
	Day       string       `json:"day"`
	DedupeKey string       `json:"dedupeKey"`
	IsActive  bool         `json:"isActive"`
}

// DedupeKey identifies one logical occurrence: kind, owner, instance and calendar day.
func DedupeKey(kind ReminderKind, ownerID, entityID, day string) string {
	return string(kind) + ":" + ownerID + ":" + entityID + ":" + day
}

