// File: barakah/models/habit.go
package models

// Habit is the read-side view of a user's habit. Habits are owned and written by the CRUD layer.
type Habit struct {
	ID           string `bson:"id" json:"id"`
	Title        string `bson:"title" json:"title"`
	IsActive     bool   `bson:"is_active" json:"is_active"`
	ReminderTime string `bson:"reminder_time,omitempty" json:"reminder_time,omitempty"` // HH:MM, empty when not configured
	Category     string `bson:"category,omitempty" json:"category,omitempty"`
	CreatedBy    string `bson:"created_by" json:"created_by"`
}

type HabitLogStatus string

const (
	HabitLogCompleted HabitLogStatus = "completed"
	HabitLogSkipped   HabitLogStatus = "skipped"
	HabitLogPending   HabitLogStatus = "pending"
)

// HabitLog is a per-day completion record for a habit.
type HabitLog struct {
	ID             string         `bson:"id" json:"id"`
	HabitID        string         `bson:"habit_id" json:"habit_id"`
	CompletionDate string         `bson:"completion_date" json:"completion_date"` // YYYY-MM-DD
	Status         HabitLogStatus `bson:"status" json:"status"`
	CreatedBy      string         `bson:"created_by" json:"created_by"`
}
