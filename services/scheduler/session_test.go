package scheduler

import (
	"context"
	"testing"
	"time"

	"barakah/models"
	"barakah/services/reminder"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	today    = "2024-03-10"
	tomorrow = "2024-03-11"
)

func at(day int, h, m int) time.Time {
	return time.Date(2024, 3, day, h, m, 0, 0, time.UTC)
}

type fixture struct {
	habits     *habitSource
	completion *completionState
	surface    *recordingSurface
	clock      *manualClock
	deps       Deps
	cfg        Config
}

func newFixture(t *testing.T, now time.Time) *fixture {
	t.Helper()
	habits := &habitSource{}
	habits.set(models.Habit{ID: "h1", Title: "Read a page of Quran", IsActive: true, ReminderTime: "06:30"})

	prayers := []models.PrayerSlot{
		{Name: "Fajr", Time: models.MustParseTimeOfDay("05:30")},
		{Name: "Dhuhr", Time: models.MustParseTimeOfDay("13:15")},
		{Name: "Asr", Time: models.MustParseTimeOfDay("16:45")},
		{Name: "Maghrib", Time: models.MustParseTimeOfDay("19:00")},
		{Name: "Isha", Time: models.MustParseTimeOfDay("20:30")},
	}
	completion := newCompletionState()
	clock := newManualClock(now)

	return &fixture{
		habits:     habits,
		completion: completion,
		surface:    &recordingSurface{},
		clock:      clock,
		deps: Deps{
			Source:     reminder.NewRegistry(habits, prayers, models.MustParseTimeOfDay("09:00"), nil),
			Completion: completion,
			Composer:   reminder.NewComposer(fixedWisdom{}),
			Clock:      clock,
		},
		cfg: Config{
			Location:    time.UTC,
			PrayerLead:  5 * time.Minute,
			SummaryTime: models.MustParseTimeOfDay("20:00"),
		},
	}
}

func (f *fixture) session(permission Permission) *Session {
	return NewSession("s1", "u1", permission, f.cfg, f.deps, f.surface)
}

func outcomes(results []Result) map[string]Outcome {
	out := make(map[string]Outcome, len(results))
	for _, r := range results {
		out[r.DedupeKey] = r.Outcome
	}
	return out
}

func TestSessionSuppressesCompletedPrayer(t *testing.T) {
	f := newFixture(t, at(10, 5, 0))
	s := f.session(PermissionGranted)
	ctx := context.Background()
	require.NoError(t, s.Arm(ctx, at(10, 5, 0)))

	next, ok := s.NextFireAt()
	require.True(t, ok)
	assert.Equal(t, at(10, 5, 25), next, "fajr fires five minutes early")

	f.completion.done["prayer_slot:u1:fajr:"+today] = true
	results := s.Advance(ctx, at(10, 5, 25))

	require.Len(t, results, 1)
	assert.Equal(t, Suppressed, results[0].Outcome)
	assert.Empty(t, f.surface.all())
}

func TestSessionFiresHabitAndPrayer(t *testing.T) {
	f := newFixture(t, at(10, 5, 0))
	s := f.session(PermissionGranted)
	ctx := context.Background()
	require.NoError(t, s.Arm(ctx, at(10, 5, 0)))

	results := s.Advance(ctx, at(10, 6, 30))
	assert.Equal(t, map[string]Outcome{
		"prayer_slot:u1:fajr:" + today: Fired,
		"habit:u1:h1:" + today:         Fired,
	}, outcomes(results))

	shown := f.surface.all()
	require.Len(t, shown, 2)
	assert.Equal(t, "It's almost time for Fajr prayer.", shown[0].Body)
	assert.Equal(t, "Habit Reminder", shown[1].Title)
	assert.Equal(t, "Time for your habit: Read a page of Quran", shown[1].Body)
	assert.Equal(t, "/habits", shown[1].DeepLink)
	assert.Equal(t, "habit:u1:h1:"+today, shown[1].Tag)
}

func TestSessionOnlyQueuesFutureInstants(t *testing.T) {
	f := newFixture(t, at(10, 7, 0))
	s := f.session(PermissionGranted)
	ctx := context.Background()
	require.NoError(t, s.Arm(ctx, at(10, 7, 0)))

	results := s.Advance(ctx, at(10, 9, 0))
	assert.Equal(t, map[string]Outcome{"daily_wisdom:u1:wisdom:" + today: Fired}, outcomes(results),
		"fajr and the 06:30 habit were already past when armed")
}

func TestSessionArmIsIdempotentForTheDay(t *testing.T) {
	f := newFixture(t, at(10, 5, 0))
	s := f.session(PermissionGranted)
	ctx := context.Background()

	require.NoError(t, s.Arm(ctx, at(10, 5, 0)))
	require.NoError(t, s.Arm(ctx, at(10, 5, 1)))
	require.NoError(t, s.Arm(ctx, at(10, 5, 2)))

	results := s.Advance(ctx, at(10, 6, 30))
	assert.Len(t, results, 2, "each reminder fires once despite repeated arming")
	assert.Len(t, f.surface.all(), 2)
}

func TestSessionMidnightRollover(t *testing.T) {
	f := newFixture(t, at(10, 23, 0))
	f.habits.set(
		models.Habit{ID: "late", Title: "Night prayer", IsActive: true, ReminderTime: "23:59"},
		models.Habit{ID: "early", Title: "Tahajjud", IsActive: true, ReminderTime: "00:01"},
	)
	s := f.session(PermissionGranted)
	ctx := context.Background()
	require.NoError(t, s.Arm(ctx, at(10, 23, 0)))
	assert.Equal(t, today, s.ArmedDay())

	results := s.Advance(ctx, at(11, 0, 1))

	assert.Equal(t, map[string]Outcome{
		"habit:u1:late:" + today:     Fired,
		"habit:u1:early:" + tomorrow: Fired,
	}, outcomes(results))
	assert.Equal(t, tomorrow, s.ArmedDay())

	next, ok := s.NextFireAt()
	require.True(t, ok)
	assert.Equal(t, at(11, 5, 25), next, "the new day is fully armed")
}

func TestSessionRefreshSupersedesChangedEntities(t *testing.T) {
	f := newFixture(t, at(10, 5, 0))
	f.habits.set(
		models.Habit{ID: "h1", Title: "Read a page of Quran", IsActive: true, ReminderTime: "06:30"},
		models.Habit{ID: "h2", Title: "Walk", IsActive: true, ReminderTime: "08:00"},
	)
	s := f.session(PermissionGranted)
	ctx := context.Background()
	require.NoError(t, s.Arm(ctx, at(10, 5, 0)))
	s.Advance(ctx, at(10, 6, 0))

	// h1 moved to 07:00, h2 deleted, h3 added
	f.habits.set(
		models.Habit{ID: "h1", Title: "Read a page of Quran", IsActive: true, ReminderTime: "07:00"},
		models.Habit{ID: "h3", Title: "Charity", IsActive: true, ReminderTime: "07:30"},
	)
	results, err := s.Refresh(ctx, at(10, 6, 0))
	require.NoError(t, err)
	assert.Equal(t, map[string]Outcome{
		"habit:u1:h1:" + today: Superseded,
		"habit:u1:h2:" + today: Superseded,
	}, outcomes(results))

	assert.Empty(t, s.Advance(ctx, at(10, 6, 59)))

	fired := outcomes(s.Advance(ctx, at(10, 8, 0)))
	assert.Equal(t, Fired, fired["habit:u1:h1:"+today])
	assert.Equal(t, Fired, fired["habit:u1:h3:"+today])
	assert.NotContains(t, fired, "habit:u1:h2:"+today)
}

func TestSessionRefreshFiresEventsAlreadyDue(t *testing.T) {
	f := newFixture(t, at(10, 6, 0))
	s := f.session(PermissionGranted)
	ctx := context.Background()
	require.NoError(t, s.Arm(ctx, at(10, 6, 0)))

	// the 06:30 habit is due but the clock tick has not been processed yet
	results, err := s.Refresh(ctx, at(10, 6, 30).Add(2*time.Second))
	require.NoError(t, err)
	assert.Equal(t, map[string]Outcome{"habit:u1:h1:" + today: Fired}, outcomes(results))

	assert.Empty(t, s.Advance(ctx, at(10, 6, 31)))
	shown := f.surface.all()
	require.Len(t, shown, 1)
	assert.Equal(t, "habit:u1:h1:"+today, shown[0].Tag)
}

func TestSessionSkipsVanishedEntity(t *testing.T) {
	f := newFixture(t, at(10, 6, 0))
	s := f.session(PermissionGranted)
	ctx := context.Background()
	require.NoError(t, s.Arm(ctx, at(10, 6, 0)))

	f.completion.missing["habit:u1:h1:"+today] = true
	results := s.Advance(ctx, at(10, 6, 30))

	require.Len(t, results, 1)
	assert.Equal(t, Skipped, results[0].Outcome)
	assert.ErrorIs(t, results[0].Err, reminder.ErrEntityNotFound)
	assert.Empty(t, f.surface.all())
}

func TestSessionEveningSummary(t *testing.T) {
	f := newFixture(t, at(10, 19, 30))
	f.habits.set()
	f.completion.incomplete = 2
	s := f.session(PermissionGranted)
	ctx := context.Background()
	require.NoError(t, s.Arm(ctx, at(10, 19, 30)))

	results := s.Advance(ctx, at(10, 20, 0))
	require.Len(t, results, 1)
	assert.Equal(t, Fired, results[0].Outcome)

	shown := f.surface.all()
	require.Len(t, shown, 1)
	assert.Equal(t, "Evening Reminder", shown[0].Title)
	assert.Equal(t, "You still have 2 habits to complete today. Keep going!", shown[0].Body)
	assert.Equal(t, "evening_summary:u1:summary:"+today, shown[0].Tag)
}

func TestSessionEveningSummarySuppressedWhenAllDone(t *testing.T) {
	f := newFixture(t, at(10, 19, 30))
	f.habits.set()
	s := f.session(PermissionGranted)
	ctx := context.Background()
	require.NoError(t, s.Arm(ctx, at(10, 19, 30)))

	results := s.Advance(ctx, at(10, 20, 0))
	require.Len(t, results, 1)
	assert.Equal(t, Suppressed, results[0].Outcome)
	assert.Empty(t, f.surface.all())
}

func TestSessionWithoutPermissionNeverArms(t *testing.T) {
	for _, p := range []Permission{PermissionDenied, PermissionDefault, ""} {
		f := newFixture(t, at(10, 5, 0))
		s := f.session(p)

		err := s.Arm(context.Background(), at(10, 5, 0))
		assert.ErrorIs(t, err, ErrPermissionDenied)
		assert.False(t, s.IsArmed())

		_, ok := s.NextFireAt()
		assert.False(t, ok)
	}
}

func TestSessionCancelAll(t *testing.T) {
	f := newFixture(t, at(10, 5, 0))
	s := f.session(PermissionGranted)
	ctx := context.Background()
	require.NoError(t, s.Arm(ctx, at(10, 5, 0)))

	assert.Positive(t, s.CancelAll())
	assert.False(t, s.IsArmed())
	_, ok := s.NextFireAt()
	assert.False(t, ok)
	assert.Empty(t, s.Advance(ctx, at(10, 23, 0)))
}

func TestSessionRunDeliversOnClock(t *testing.T) {
	f := newFixture(t, at(10, 6, 0))
	s := f.session(PermissionGranted)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	require.Eventually(t, func() bool { return f.clock.Waiting() > 0 }, time.Second, 5*time.Millisecond)
	f.clock.Set(at(10, 6, 30))

	require.Eventually(t, func() bool { return len(f.surface.all()) == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, "habit:u1:h1:"+today, f.surface.all()[0].Tag)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("session did not stop")
	}
	assert.False(t, s.IsArmed())
}

func TestManagerLifecycle(t *testing.T) {
	f := newFixture(t, at(10, 5, 0))
	m := NewManager(f.cfg, f.deps)
	ctx := context.Background()

	_, err := m.Open(ctx, "u1", PermissionDenied, nil, f.surface)
	assert.ErrorIs(t, err, ErrPermissionDenied)
	assert.Equal(t, 0, m.Count())

	a, err := m.Open(ctx, "u1", PermissionGranted, nil, f.surface)
	require.NoError(t, err)
	b, err := m.Open(ctx, "u1", PermissionGranted, time.UTC, &recordingSurface{})
	require.NoError(t, err)
	assert.NotEqual(t, a.ID(), b.ID())
	assert.True(t, a.IsArmed())
	assert.Equal(t, 2, m.Count())

	assert.Equal(t, 2, m.Refresh("u1"))
	assert.Equal(t, 0, m.Refresh("someone-else"))

	m.Close(a)
	assert.False(t, a.IsArmed())
	assert.Equal(t, 1, m.Count())
	m.Close(b)
	assert.Equal(t, 0, m.Count())
}
