package scheduler

import (
	"container/heap"
	"context"
	"errors"
	"sync"
	"time"

	"barakah/models"
	"barakah/services/notification"
	"barakah/services/reminder"

	"go.uber.org/zap"
)

var ErrPermissionDenied = errors.New("notification permission not granted")

// Permission mirrors the client's notification permission state.
type Permission string

const (
	PermissionGranted Permission = "granted"
	PermissionDenied  Permission = "denied"
	PermissionDefault Permission = "default"
)

type Outcome string

const (
	Fired      Outcome = "fired"
	Suppressed Outcome = "suppressed"
	Superseded Outcome = "superseded"
	Skipped    Outcome = "skipped"
)

// Result records what happened to one scheduled reminder.
type Result struct {
	Outcome   Outcome
	Kind      models.ReminderKind
	DedupeKey string
	At        time.Time
	Err       error
}

// Config holds the per-session schedule settings.
type Config struct {
	Location    *time.Location
	PrayerLead  time.Duration
	SummaryTime models.TimeOfDay
	// SummaryDisabled turns off the evening summary.
	SummaryDisabled bool
}

// Deps are the collaborators shared by every session.
type Deps struct {
	Source     reminder.Source
	Completion reminder.CompletionReader
	Composer   *reminder.Composer
	Clock      Clock
	Logger     *zap.Logger
}

// Session is the foreground scheduler of one client session. It arms one calendar
// day at a time: Idle -> Armed -> (Fired | Suppressed | Superseded) -> Idle, and
// re-arms itself at local midnight.
type Session struct {
	id         string
	ownerID    string
	permission Permission
	cfg        Config
	deps       Deps
	surface    notification.Surface
	logger     *zap.Logger

	mu        sync.Mutex
	queue     eventQueue
	seq       uint64
	armedDay  string
	refreshCh chan struct{}
}

func NewSession(id, ownerID string, permission Permission, cfg Config, deps Deps, surface notification.Surface) *Session {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if deps.Clock == nil {
		deps.Clock = RealClock{}
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	return &Session{
		id:         id,
		ownerID:    ownerID,
		permission: permission,
		cfg:        cfg,
		deps:       deps,
		surface:    surface,
		logger:     deps.Logger.With(zap.String("session_id", id), zap.String("owner_id", ownerID)),
		refreshCh:  make(chan struct{}, 1),
	}
}

func (s *Session) ID() string      { return s.id }
func (s *Session) OwnerID() string { return s.ownerID }

// Arm schedules every reminder of now's local day whose fire instant is not in the past,
// the evening summary and the midnight rollover. Arming an already armed day is a no-op.
func (s *Session) Arm(ctx context.Context, now time.Time) error {
	if s.permission != PermissionGranted {
		return ErrPermissionDenied
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.arm(ctx, now)
}

func (s *Session) arm(ctx context.Context, now time.Time) error {
	local := now.In(s.cfg.Location)
	day := local.Format(models.DateLayout)
	if s.armedDay == day {
		return nil
	}

	entities, err := s.deps.Source.ListDue(ctx, s.ownerID, day)
	if err != nil {
		return err
	}

	s.queue = s.queue[:0]
	for _, e := range entities {
		if at := reminder.FireTime(e, local, s.cfg.PrayerLead); e.IsActive && !at.Before(local) {
			s.push(at, eventReminder, e)
		}
	}

	if !s.cfg.SummaryDisabled {
		if at := s.cfg.SummaryTime.On(local); !at.Before(local) {
			s.push(at, eventSummary, reminder.SummaryEntity(s.ownerID, day, s.cfg.SummaryTime))
		}
	}

	y, m, d := local.Date()
	midnight := time.Date(y, m, d+1, 0, 0, 0, 0, s.cfg.Location)
	s.push(midnight, eventRollover, models.ReminderEntity{})

	s.armedDay = day
	s.logger.Debug("session armed",
		zap.String("day", day),
		zap.Int("events", s.queue.Len()))
	return nil
}

func (s *Session) push(at time.Time, kind eventKind, e models.ReminderEntity) {
	s.seq++
	heap.Push(&s.queue, &event{fireAt: at, kind: kind, entity: e, seq: s.seq})
}

// Advance fires, in order, every event due at or before `to`.
func (s *Session) Advance(ctx context.Context, to time.Time) []Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.advance(ctx, to)
}

func (s *Session) advance(ctx context.Context, to time.Time) []Result {
	var results []Result
	for {
		ev := s.queue.peek()
		if ev == nil || ev.fireAt.After(to) {
			return results
		}
		heap.Pop(&s.queue)

		switch ev.kind {
		case eventRollover:
			s.queue = s.queue[:0]
			s.armedDay = ""
			if err := s.arm(ctx, ev.fireAt); err != nil {
				s.logger.Error("re-arm at midnight failed", zap.Error(err))
				return results
			}
		case eventSummary:
			results = append(results, s.record(s.fireSummary(ctx, ev)))
		default:
			results = append(results, s.record(s.fireReminder(ctx, ev)))
		}
	}
}

func (s *Session) fireReminder(ctx context.Context, ev *event) Result {
	e := ev.entity
	res := Result{Kind: e.Kind, DedupeKey: e.DedupeKey, At: ev.fireAt}

	done, err := s.deps.Completion.IsCompleted(ctx, e)
	switch {
	case errors.Is(err, reminder.ErrEntityNotFound):
		res.Outcome, res.Err = Skipped, err
		return res
	case err != nil:
		// completion unknown; deliver rather than stay silent
		s.logger.Warn("completion check failed", zap.String("dedupe_key", e.DedupeKey), zap.Error(err))
	case done:
		res.Outcome = Suppressed
		return res
	}

	early := ev.fireAt.Before(e.DueTime.On(ev.fireAt))
	content, data, err := s.deps.Composer.Content(ctx, e, early)
	if err != nil {
		res.Outcome, res.Err = Skipped, err
		return res
	}
	if err := s.surface.Notify(ctx, reminder.Foreground(content, data, ev.fireAt)); err != nil {
		res.Outcome, res.Err = Skipped, err
		return res
	}
	res.Outcome = Fired
	return res
}

func (s *Session) fireSummary(ctx context.Context, ev *event) Result {
	e := ev.entity
	res := Result{Kind: e.Kind, DedupeKey: e.DedupeKey, At: ev.fireAt}

	n, err := s.deps.Completion.IncompleteHabits(ctx, s.ownerID, e.Day)
	if err != nil {
		res.Outcome, res.Err = Skipped, err
		return res
	}
	if n == 0 {
		res.Outcome = Suppressed
		return res
	}
	if err := s.surface.Notify(ctx, reminder.Summary(e, n, ev.fireAt)); err != nil {
		res.Outcome, res.Err = Skipped, err
		return res
	}
	res.Outcome = Fired
	return res
}

// Refresh recomputes the armed day's entity set. Events due at or before now fire
// first. Events whose entity vanished or whose fire time changed are superseded;
// new or moved entities are armed.
func (s *Session) Refresh(ctx context.Context, now time.Time) ([]Result, error) {
	if s.permission != PermissionGranted {
		return nil, ErrPermissionDenied
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	// events already due fire first; the recomputed set only covers the future
	results := s.advance(ctx, now)
	if s.armedDay == "" {
		return results, s.arm(ctx, now)
	}

	local := now.In(s.cfg.Location)
	entities, err := s.deps.Source.ListDue(ctx, s.ownerID, s.armedDay)
	if err != nil {
		return results, err
	}

	wanted := make(map[string]time.Time, len(entities))
	fresh := make(map[string]models.ReminderEntity, len(entities))
	for _, e := range entities {
		at := reminder.FireTime(e, local, s.cfg.PrayerLead)
		if e.IsActive && !at.Before(local) {
			wanted[e.DedupeKey] = at
			fresh[e.DedupeKey] = e
		}
	}

	dropped := s.queue.retain(func(ev *event) bool {
		if ev.kind != eventReminder {
			return true
		}
		at, ok := wanted[ev.entity.DedupeKey]
		if !ok || !at.Equal(ev.fireAt) || ev.entity.Title != fresh[ev.entity.DedupeKey].Title {
			return false
		}
		delete(wanted, ev.entity.DedupeKey)
		return true
	})

	for _, ev := range dropped {
		results = append(results, s.record(Result{
			Outcome:   Superseded,
			Kind:      ev.entity.Kind,
			DedupeKey: ev.entity.DedupeKey,
			At:        local,
		}))
	}
	for key, at := range wanted {
		s.push(at, eventReminder, fresh[key])
	}
	return results, nil
}

// CancelAll drops every pending event and returns the session to Idle.
func (s *Session) CancelAll() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := s.queue.Len()
	s.queue = s.queue[:0]
	s.armedDay = ""
	return n
}

func (s *Session) IsArmed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.armedDay != ""
}

// ArmedDay is the local calendar day currently armed, empty when idle.
func (s *Session) ArmedDay() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.armedDay
}

// NextFireAt returns the instant of the earliest pending event.
func (s *Session) NextFireAt() (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if ev := s.queue.peek(); ev != nil {
		return ev.fireAt, true
	}
	return time.Time{}, false
}

// RequestRefresh asks a running session to recompute its entity set. Never blocks.
func (s *Session) RequestRefresh() {
	select {
	case s.refreshCh <- struct{}{}:
	default:
	}
}

// Run drives the session on its clock until ctx is cancelled.
func (s *Session) Run(ctx context.Context) error {
	if err := s.Arm(ctx, s.deps.Clock.Now()); err != nil {
		return err
	}
	defer s.CancelAll()

	for {
		wait := time.Minute
		if next, ok := s.NextFireAt(); ok {
			wait = next.Sub(s.deps.Clock.Now())
			if wait < 0 {
				wait = 0
			}
		}

		select {
		case <-ctx.Done():
			return nil
		case <-s.refreshCh:
			if _, err := s.Refresh(ctx, s.deps.Clock.Now()); err != nil {
				s.logger.Warn("refresh failed", zap.Error(err))
			}
		case <-s.deps.Clock.After(wait):
			now := s.deps.Clock.Now()
			if !s.IsArmed() {
				if err := s.Arm(ctx, now); err != nil {
					s.logger.Warn("arm failed, retrying in a minute", zap.Error(err))
					continue
				}
			}
			s.Advance(ctx, now)
		}
	}
}

func (s *Session) record(r Result) Result {
	fields := []zap.Field{
		zap.String("outcome", string(r.Outcome)),
		zap.String("kind", string(r.Kind)),
		zap.String("dedupe_key", r.DedupeKey),
		zap.Time("at", r.At),
	}
	if r.Err != nil {
		fields = append(fields, zap.Error(r.Err))
		s.logger.Warn("reminder outcome", fields...)
	} else {
		s.logger.Info("reminder outcome", fields...)
	}
	return r
}
