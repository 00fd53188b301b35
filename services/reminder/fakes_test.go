package reminder

import (
	"context"
	"sync"

	habitRepo "barakah/database/repository/habit"
	"barakah/models"
)

// memoryStore is an in-memory habit and prayer log store.
type memoryStore struct {
	mu        sync.Mutex
	habits    map[string][]models.Habit
	completed map[string]map[string]bool // owner|day -> habit id
	prayers   map[string]*models.DailyPrayerLog
	err       error
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		habits:    make(map[string][]models.Habit),
		completed: make(map[string]map[string]bool),
		prayers:   make(map[string]*models.DailyPrayerLog),
	}
}

func (m *memoryStore) addHabit(owner string, h models.Habit) {
	m.mu.Lock()
	defer m.mu.Unlock()
	h.CreatedBy = owner
	m.habits[owner] = append(m.habits[owner], h)
}

func (m *memoryStore) complete(owner, day, habitID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := owner + "|" + day
	if m.completed[k] == nil {
		m.completed[k] = make(map[string]bool)
	}
	m.completed[k][habitID] = true
}

func (m *memoryStore) ListActive(_ context.Context, ownerID string) ([]models.Habit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	var out []models.Habit
	for _, h := range m.habits[ownerID] {
		if h.IsActive {
			out = append(out, h)
		}
	}
	return out, nil
}

func (m *memoryStore) ListOwnersWithReminders(context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var owners []string
	for owner, hs := range m.habits {
		for _, h := range hs {
			if h.IsActive && h.ReminderTime != "" {
				owners = append(owners, owner)
				break
			}
		}
	}
	return owners, nil
}

func (m *memoryStore) GetByID(_ context.Context, ownerID, habitID string) (*models.Habit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, h := range m.habits[ownerID] {
		if h.ID == habitID {
			h := h
			return &h, nil
		}
	}
	return nil, habitRepo.ErrHabitNotFound
}

func (m *memoryStore) CompletedHabitIDs(_ context.Context, ownerID, day string) (map[string]bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]bool)
	for id := range m.completed[ownerID+"|"+day] {
		out[id] = true
	}
	return out, nil
}

func (m *memoryStore) GetLog(_ context.Context, ownerID, day string) (*models.DailyPrayerLog, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.prayers[ownerID+"|"+day], nil
}

type staticWisdom struct {
	w models.Wisdom
}

func (s staticWisdom) Today(context.Context, string) (models.Wisdom, error) {
	return s.w, nil
}

func defaultPrayers() []models.PrayerSlot {
	return []models.PrayerSlot{
		{Name: "Fajr", Time: models.MustParseTimeOfDay("05:30")},
		{Name: "Dhuhr", Time: models.MustParseTimeOfDay("13:15")},
		{Name: "Asr", Time: models.MustParseTimeOfDay("16:45")},
		{Name: "Maghrib", Time: models.MustParseTimeOfDay("19:00")},
		{Name: "Isha", Time: models.MustParseTimeOfDay("20:30")},
	}
}
