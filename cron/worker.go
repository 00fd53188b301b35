package cron

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"barakah/config"
	"barakah/models"
	"barakah/services/tasks"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// Dispatcher runs one remote dispatch for the minute of now.
type Dispatcher interface {
	Dispatch(ctx context.Context, now time.Time) (*models.DispatchResult, error)
}

// ReminderWorker is the in-process minute trigger: a ticker enqueues one dispatch
// task per wall-clock minute and an asynq server runs it.
type ReminderWorker struct {
	client *asynq.Client
	server *asynq.Server
	mux    *asynq.ServeMux
	logger *zap.Logger

	stop chan struct{}
	done chan struct{}
}

func redisOpts() asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisReminderQueueDB,
	}
}

// InitReminderWorker starts the server and the minute ticker in the background.
func InitReminderWorker(d Dispatcher, logger *zap.Logger) (*ReminderWorker, error) {
	server := asynq.NewServer(
		redisOpts(),
		asynq.Config{
			Concurrency: 1,
			Queues: map[string]int{
				"default": 1,
			},
		},
	)

	mux := asynq.NewServeMux()
	mux.HandleFunc(tasks.TypeDispatchReminders, HandleDispatchTask(d, logger))

	w := &ReminderWorker{
		client: asynq.NewClient(redisOpts()),
		server: server,
		mux:    mux,
		logger: logger,
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}
	if err := w.start(); err != nil {
		_ = w.client.Close()
		return nil, err
	}
	go w.tick()
	return w, nil
}

func (w *ReminderWorker) start() error {
	const maxAttempts = 5
	var err error
	for attempts := 1; attempts <= maxAttempts; attempts++ {
		if err = w.server.Start(w.mux); err == nil {
			w.logger.Info("reminder worker started")
			return nil
		}
		w.logger.Warn("failed to start reminder worker",
			zap.Int("attempt", attempts),
			zap.Int("max_attempts", maxAttempts),
			zap.Error(err))
		time.Sleep(time.Duration(attempts*2) * time.Second)
	}
	return fmt.Errorf("start reminder worker: %w", err)
}

// tick enqueues the task of every minute as the minute begins.
func (w *ReminderWorker) tick() {
	defer close(w.done)
	for {
		minute := nextMinute(time.Now())
		timer := time.NewTimer(time.Until(minute))
		select {
		case <-w.stop:
			timer.Stop()
			return
		case <-timer.C:
			w.enqueue(context.Background(), minute)
		}
	}
}

func (w *ReminderWorker) enqueue(ctx context.Context, minute time.Time) {
	task, opts, err := tasks.NewDispatchTask("internal-cron", minute)
	if err != nil {
		w.logger.Error("failed to build dispatch task", zap.Error(err))
		return
	}
	_, err = w.client.EnqueueContext(ctx, task, opts...)
	switch {
	case err == nil:
	case errors.Is(err, asynq.ErrTaskIDConflict):
		w.logger.Debug("dispatch already enqueued", zap.Time("minute", minute))
	default:
		w.logger.Warn("failed to enqueue dispatch", zap.Time("minute", minute), zap.Error(err))
	}
}

// nextMinute is the start of the minute after now.
func nextMinute(now time.Time) time.Time {
	return now.Truncate(time.Minute).Add(time.Minute)
}

// Shutdown stops enqueuing and waits for a running dispatch to finish.
func (w *ReminderWorker) Shutdown() {
	close(w.stop)
	<-w.done
	w.server.Shutdown()
	if err := w.client.Close(); err != nil {
		w.logger.Warn("failed to close reminder queue client", zap.Error(err))
	}
}

// HandleDispatchTask runs the dispatcher for the minute pinned in the payload. A
// payload without one covers the minute it is processed in.
func HandleDispatchTask(d Dispatcher, logger *zap.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		var p tasks.DispatchPayload
		if err := json.Unmarshal(task.Payload(), &p); err != nil {
			logger.Error("invalid dispatch payload", zap.Error(err))
			return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
		}

		minute := p.Minute
		if minute.IsZero() {
			minute = time.Now()
		}
		minute = minute.Truncate(time.Minute)

		res, err := d.Dispatch(ctx, minute)
		if err != nil {
			logger.Error("scheduled dispatch failed", zap.String("source", p.Source), zap.Error(err))
			return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
		}
		logger.Info("scheduled dispatch done",
			zap.String("source", p.Source),
			zap.Time("minute", minute),
			zap.String("invocation_id", res.InvocationID),
			zap.Int("sent", res.Sent))
		return nil
	}
}
