package reminder

import (
	"context"
	"fmt"
	"time"

	"barakah/models"
)

const (
	habitsLink = "/habits"
	homeLink   = "/"
)

// WisdomSource supplies the quote of the day. The same day always yields the same quote.
type WisdomSource interface {
	Today(ctx context.Context, day string) (models.Wisdom, error)
}

// Composer turns reminder entities into user-visible content. Output depends only on
// the entity (and the day's wisdom), so duplicates from both schedulers are identical.
type Composer struct {
	wisdom WisdomSource
}

func NewComposer(wisdom WisdomSource) *Composer {
	return &Composer{wisdom: wisdom}
}

// Content builds title, body and data for an entity. early is true when the reminder
// fires ahead of the due time (foreground prayer lead).
func (c *Composer) Content(ctx context.Context, e models.ReminderEntity, early bool) (models.PushContent, models.PushData, error) {
	content := models.PushContent{Tag: e.DedupeKey}
	data := models.PushData{
		EntityID:  e.EntityID,
		DedupeKey: e.DedupeKey,
		Kind:      e.Kind,
		DeepLink:  homeLink,
	}

	switch e.Kind {
	case models.KindHabit:
		content.Title = "Habit Reminder"
		content.Body = "Time for your habit: " + e.Title
		data.DeepLink = habitsLink

	case models.KindPrayerSlot:
		content.Title = "Prayer Reminder"
		if early {
			content.Body = fmt.Sprintf("It's almost time for %s prayer.", e.Title)
		} else {
			content.Body = fmt.Sprintf("It's time for %s prayer.", e.Title)
		}

	case models.KindDailyWisdom:
		w, err := c.wisdom.Today(ctx, e.Day)
		if err != nil {
			return content, data, fmt.Errorf("compose: wisdom for %s: %w", e.Day, err)
		}
		content.Title = "Daily Wisdom"
		content.Body = fmt.Sprintf("%q - %s", w.Content, w.Source)

	default:
		return content, data, fmt.Errorf("compose: unsupported reminder kind %q", e.Kind)
	}
	return content, data, nil
}

// Payload addresses composed content to one device token.
func Payload(token string, content models.PushContent, data models.PushData) models.PushPayload {
	return models.PushPayload{Token: token, Notification: content, Data: data}
}

// Foreground builds the in-app notification for an entity.
func Foreground(content models.PushContent, data models.PushData, firedAt time.Time) models.Notification {
	return models.Notification{
		Kind:     data.Kind,
		Title:    content.Title,
		Body:     content.Body,
		Tag:      content.Tag,
		EntityID: data.EntityID,
		DeepLink: data.DeepLink,
		FiredAt:  firedAt,
	}
}

// SummaryEntity is the evening summary pseudo-entity for an owner and day.
func SummaryEntity(ownerID, day string, due models.TimeOfDay) models.ReminderEntity {
	return models.ReminderEntity{
		Kind:      models.KindEveningSummary,
		OwnerID:   ownerID,
		EntityID:  "summary",
		Title:     "Evening Reminder",
		DueTime:   due,
		Day:       day,
		DedupeKey: models.DedupeKey(models.KindEveningSummary, ownerID, "summary", day),
		IsActive:  true,
	}
}

// Summary builds the combined evening reminder for n incomplete habits.
func Summary(e models.ReminderEntity, n int, firedAt time.Time) models.Notification {
	plural := ""
	if n > 1 {
		plural = "s"
	}
	return models.Notification{
		Kind:     models.KindEveningSummary,
		Title:    "Evening Reminder",
		Body:     fmt.Sprintf("You still have %d habit%s to complete today. Keep going!", n, plural),
		Tag:      e.DedupeKey,
		EntityID: e.EntityID,
		DeepLink: habitsLink,
		FiredAt:  firedAt,
	}
}
