// File: barakah/models/prayer.go
package models

import "strings"

// PrayerSlot is one of the five fixed daily prayers.
type PrayerSlot struct {
	Name string    `json:"name"`
	Time TimeOfDay `json:"time"`
}

// Key is the lowercase slot name used in entity ids and log fields.
func (p PrayerSlot) Key() string {
	return strings.ToLower(p.Name)
}

// PrayerNames lists the slots in daily order.
var PrayerNames = []string{"Fajr", "Dhuhr", "Asr", "Maghrib", "Isha"}

// DailyPrayerLog records which prayers a user completed on a given day.
type DailyPrayerLog struct {
	ID               string `bson:"id" json:"id"`
	CompletionDate   string `bson:"completion_date" json:"completion_date"`
	FajrCompleted    bool   `bson:"fajr_completed" json:"fajr_completed"`
	DhuhrCompleted   bool   `bson:"dhuhr_completed" json:"dhuhr_completed"`
	AsrCompleted     bool   `bson:"asr_completed" json:"asr_completed"`
	MaghribCompleted bool   `bson:"maghrib_completed" json:"maghrib_completed"`
	IshaCompleted    bool   `bson:"isha_completed" json:"isha_completed"`
	CreatedBy        string `bson:"created_by" json:"created_by"`
}

// Completed reports the flag for the slot with the given key ("fajr", "dhuhr", ...).
func (l *DailyPrayerLog) Completed(slotKey string) bool {
	if l == nil {
		return false
	}
	switch slotKey {
	case "fajr":
		return l.FajrCompleted
	case "dhuhr":
		return l.DhuhrCompleted
	case "asr":
		return l.AsrCompleted
	case "maghrib":
		return l.MaghribCompleted
	case "isha":
		return l.IshaCompleted
	}
	return false
}
