package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"barakah/models"
	"barakah/services/notification"
	"barakah/services/reminder"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

var ErrChannelUnavailable = notification.ErrChannelUnavailable

// SubscriptionStore is the part of the subscription registry the dispatcher needs.
type SubscriptionStore interface {
	ListActive(ctx context.Context) ([]models.DeviceSubscription, error)
	ClearToken(ctx context.Context, ownerID, token string) (int64, error)
}

// OwnerLister enumerates every user with an active habit reminder.
type OwnerLister interface {
	ListOwners(ctx context.Context) ([]string, error)
}

// readiness is implemented by channels that can report a failed initialisation.
type readiness interface {
	Ready() bool
}

type Config struct {
	Concurrency     int
	RatePerSec      float64
	LedgerTTL       time.Duration
	DefaultLocation *time.Location
}

type Deps struct {
	Subscriptions SubscriptionStore
	Source        reminder.Source
	// Owners is optional; when set, users with reminders but no device are counted.
	Owners        OwnerLister
	Completion    reminder.CompletionReader
	Composer      *reminder.Composer
	Channel       notification.Channel
	Ledger        Ledger
	Metrics       *Metrics
	Logger        *zap.Logger
}

// Dispatcher is the remote scheduler: once per minute it pushes every reminder due
// at that minute to every registered device of its owner.
type Dispatcher struct {
	cfg     Config
	deps    Deps
	limiter *rate.Limiter
	logger  *zap.Logger
}

func New(cfg Config, deps Deps) *Dispatcher {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 10
	}
	if cfg.LedgerTTL <= 0 {
		cfg.LedgerTTL = 48 * time.Hour
	}
	if cfg.DefaultLocation == nil {
		cfg.DefaultLocation = time.UTC
	}
	if deps.Ledger == nil {
		deps.Ledger = NopLedger{}
	}
	if deps.Metrics == nil {
		deps.Metrics = NewMetrics("barakah", prometheus.NewRegistry())
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}

	limit := rate.Inf
	burst := 1
	if cfg.RatePerSec > 0 {
		limit = rate.Limit(cfg.RatePerSec)
		burst = int(cfg.RatePerSec)
		if burst < 1 {
			burst = 1
		}
	}

	return &Dispatcher{
		cfg:     cfg,
		deps:    deps,
		limiter: rate.NewLimiter(limit, burst),
		logger:  deps.Logger,
	}
}

// owner groups the devices of one user with the zone their day is evaluated in.
type owner struct {
	id       string
	location *time.Location
	devices  []models.DeviceSubscription
}

// tally is the per-invocation counter set.
type tally struct {
	mu sync.Mutex
	r  *models.DispatchResult
}

func (t *tally) add(f func(r *models.DispatchResult)) {
	t.mu.Lock()
	f(t.r)
	t.mu.Unlock()
}

// Dispatch runs one invocation for the minute of now. It returns only after every
// send attempt finished. A ChannelUnavailable error aborts the whole invocation.
func (d *Dispatcher) Dispatch(ctx context.Context, now time.Time) (*models.DispatchResult, error) {
	start := time.Now()
	res := &models.DispatchResult{InvocationID: uuid.NewString(), At: now.UTC()}
	logger := d.logger.With(zap.String("invocation_id", res.InvocationID))
	defer func() { d.deps.Metrics.Duration.Observe(time.Since(start).Seconds()) }()

	if r, ok := d.deps.Channel.(readiness); d.deps.Channel == nil || (ok && !r.Ready()) {
		d.deps.Metrics.Invocations.WithLabelValues("unavailable").Inc()
		logger.Error("delivery channel failed to initialise; nothing processed")
		res.Message = "Push channel is not configured."
		return res, ErrChannelUnavailable
	}

	subs, err := d.deps.Subscriptions.ListActive(ctx)
	if err != nil {
		d.deps.Metrics.Invocations.WithLabelValues("error").Inc()
		res.Message = "Failed to load subscriptions."
		return res, fmt.Errorf("dispatcher: list subscriptions: %w", err)
	}

	owners := d.groupByOwner(subs)
	res.Users = len(owners)
	res.Unsubscribed = d.countUnsubscribed(ctx, owners, logger)
	t := &tally{r: res}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.cfg.Concurrency)
	for _, o := range owners {
		g.Go(func() error {
			return d.dispatchOwner(gctx, now, o, t, logger)
		})
	}
	err = g.Wait()

	t.mu.Lock()
	defer t.mu.Unlock()

	if errors.Is(err, ErrChannelUnavailable) {
		d.deps.Metrics.Invocations.WithLabelValues("unavailable").Inc()
		res.Message = "Push channel became unavailable."
		logger.Error("invocation aborted", zap.Error(err))
		return res, err
	}
	if err != nil {
		d.deps.Metrics.Invocations.WithLabelValues("error").Inc()
		res.Message = "Dispatch interrupted."
		return res, fmt.Errorf("dispatcher: %w", err)
	}

	d.deps.Metrics.Invocations.WithLabelValues("ok").Inc()
	res.Success = true
	res.Message = fmt.Sprintf("Sent %d reminders.", res.Sent)
	logger.Info("dispatch finished",
		zap.Int("users", res.Users),
		zap.Int("due", res.Due),
		zap.Int("sent", res.Sent),
		zap.Int("suppressed", res.Suppressed),
		zap.Int("duplicates", res.Duplicates),
		zap.Int("failed", res.Failed),
		zap.Int("stale_tokens", res.StaleTokens),
		zap.Int("unsubscribed", res.Unsubscribed),
		zap.Duration("took", time.Since(start)))
	return res, nil
}

func (d *Dispatcher) groupByOwner(subs []models.DeviceSubscription) []owner {
	byID := make(map[string]*owner)
	var ids []string
	for _, s := range subs {
		if s.Token == "" || s.OwnerID == "" {
			continue
		}
		o, ok := byID[s.OwnerID]
		if !ok {
			o = &owner{id: s.OwnerID, location: d.cfg.DefaultLocation}
			byID[s.OwnerID] = o
			ids = append(ids, s.OwnerID)
		}
		o.devices = append(o.devices, s)
		// first device carrying a valid zone wins
		if o.location == d.cfg.DefaultLocation && s.Timezone != "" {
			if loc, err := time.LoadLocation(s.Timezone); err == nil {
				o.location = loc
			}
		}
	}

	sort.Strings(ids)
	owners := make([]owner, 0, len(ids))
	for _, id := range ids {
		owners = append(owners, *byID[id])
	}
	return owners
}

// countUnsubscribed reports users whose habit reminders can only reach them in the foreground.
func (d *Dispatcher) countUnsubscribed(ctx context.Context, owners []owner, logger *zap.Logger) int {
	if d.deps.Owners == nil {
		return 0
	}
	ids, err := d.deps.Owners.ListOwners(ctx)
	if err != nil {
		logger.Warn("failed to list reminder owners", zap.Error(err))
		return 0
	}

	subscribed := make(map[string]bool, len(owners))
	for _, o := range owners {
		subscribed[o.id] = true
	}
	n := 0
	for _, id := range ids {
		if !subscribed[id] {
			n++
			logger.Debug("owner has reminders but no push subscription", zap.String("owner_id", id))
		}
	}
	return n
}

func (d *Dispatcher) dispatchOwner(ctx context.Context, now time.Time, o owner, t *tally, logger *zap.Logger) error {
	local := now.In(o.location)
	day := local.Format(models.DateLayout)
	logger = logger.With(zap.String("owner_id", o.id), zap.String("day", day))

	entities, err := d.deps.Source.ListDue(ctx, o.id, day)
	if err != nil {
		logger.Warn("failed to list reminder entities", zap.Error(err))
		t.add(func(r *models.DispatchResult) { r.Failed++ })
		return nil
	}

	// devices whose token was rejected receive nothing more in this invocation
	dead := make(map[string]bool)
	for _, e := range reminder.FilterDue(entities, local) {
		t.add(func(r *models.DispatchResult) { r.Due++ })

		done, err := d.deps.Completion.IsCompleted(ctx, e)
		if errors.Is(err, reminder.ErrEntityNotFound) {
			continue
		}
		if err != nil {
			logger.Warn("completion check failed; sending anyway",
				zap.String("dedupe_key", e.DedupeKey), zap.Error(err))
		}
		if done {
			t.add(func(r *models.DispatchResult) { r.Suppressed++ })
			d.deps.Metrics.Deliveries.WithLabelValues(string(e.Kind), "suppressed").Inc()
			continue
		}

		content, data, err := d.deps.Composer.Content(ctx, e, false)
		if err != nil {
			logger.Warn("failed to compose reminder", zap.String("dedupe_key", e.DedupeKey), zap.Error(err))
			t.add(func(r *models.DispatchResult) { r.Failed++ })
			continue
		}

		for _, dev := range o.devices {
			if dead[dev.DeviceID] {
				continue
			}
			stale, err := d.deliver(ctx, e, dev, content, data, t, logger)
			if err != nil {
				return err
			}
			if stale {
				dead[dev.DeviceID] = true
			}
		}
	}
	return nil
}

// deliver sends one reminder to one device and reports whether its token is dead.
// Only an unavailable channel or a cancelled context is returned; everything else
// is counted and logged.
func (d *Dispatcher) deliver(ctx context.Context, e models.ReminderEntity, dev models.DeviceSubscription,
	content models.PushContent, data models.PushData, t *tally, logger *zap.Logger) (bool, error) {

	key := e.DedupeKey + ":" + dev.DeviceID
	claimed, err := d.deps.Ledger.Claim(ctx, key, d.cfg.LedgerTTL)
	if err != nil {
		logger.Warn("sent ledger unavailable; sending without claim", zap.String("key", key), zap.Error(err))
		claimed = true
	}
	if !claimed {
		t.add(func(r *models.DispatchResult) { r.Duplicates++ })
		d.deps.Metrics.Deliveries.WithLabelValues(string(e.Kind), "duplicate").Inc()
		return false, nil
	}

	if err := d.limiter.Wait(ctx); err != nil {
		d.release(key, logger)
		return false, err
	}

	id, err := d.deps.Channel.Send(ctx, reminder.Payload(dev.Token, content, data))
	if err == nil {
		t.add(func(r *models.DispatchResult) { r.Sent++ })
		d.deps.Metrics.Deliveries.WithLabelValues(string(e.Kind), "sent").Inc()
		logger.Debug("reminder sent",
			zap.String("dedupe_key", e.DedupeKey),
			zap.String("device_id", dev.DeviceID),
			zap.String("message_id", id))
		return false, nil
	}

	d.release(key, logger)
	switch notification.KindOf(err) {
	case notification.KindChannelUnavailable:
		return false, err

	case notification.KindInvalidToken:
		removed, cerr := d.deps.Subscriptions.ClearToken(ctx, dev.OwnerID, dev.Token)
		if cerr != nil {
			logger.Warn("failed to clear stale token", zap.String("device_id", dev.DeviceID), zap.Error(cerr))
		}
		t.add(func(r *models.DispatchResult) { r.StaleTokens++ })
		d.deps.Metrics.Deliveries.WithLabelValues(string(e.Kind), "invalid_token").Inc()
		d.deps.Metrics.StaleTokens.Add(float64(removed))
		logger.Info("stale push token removed",
			zap.String("device_id", dev.DeviceID),
			zap.Int64("removed", removed))
		return true, nil

	default:
		t.add(func(r *models.DispatchResult) { r.Failed++ })
		d.deps.Metrics.Deliveries.WithLabelValues(string(e.Kind), "failed").Inc()
		logger.Warn("transient delivery failure",
			zap.String("dedupe_key", e.DedupeKey),
			zap.String("device_id", dev.DeviceID),
			zap.Error(err))
	}
	return false, nil
}

// release frees a claim after a failed send; it must outlive a cancelled invocation.
func (d *Dispatcher) release(key string, logger *zap.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := d.deps.Ledger.Release(ctx, key); err != nil {
		logger.Warn("failed to release sent-ledger claim", zap.String("key", key), zap.Error(err))
	}
}
