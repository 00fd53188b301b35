package models

// Wisdom is a short quote shown as the daily wisdom reminder.
type Wisdom struct {
	ID      string `json:"id"`
	Content string `json:"content"` // the quote itself
	Source  string `json:"source"`  // attribution, e.g. "Quran, 94:6"
}
