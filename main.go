// File: barakah/main.go
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"barakah/config"
	"barakah/cron"
	"barakah/database"
	habitRepo "barakah/database/repository/habit"
	prayerRepo "barakah/database/repository/prayer"
	subscriptionRepo "barakah/database/repository/subscription"
	"barakah/handlers"
	"barakah/middleware"
	"barakah/models"
	"barakah/routes"
	"barakah/services/dispatcher"
	"barakah/services/notification"
	"barakah/services/reminder"
	"barakah/services/scheduler"
	"barakah/services/wisdom"
	"barakah/utils"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

func main() {
	config.LoadConfig()
	logger := utils.GetLogger()
	cfg := config.AppConfig

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	database.InitDB()
	utils.InitCache()
	utils.InitLedger()

	// A missing push channel keeps the HTTP surface up; every trigger then answers 503.
	fcmClient, err := utils.FirebaseInit(ctx)
	if err != nil {
		logger.Error("main: push channel unavailable", zap.Error(err))
	}

	// repositories.
	db := database.DB()
	habits := habitRepo.NewMongoHabitRepo(db)
	prayers := prayerRepo.NewMongoPrayerLogRepo(db)
	subscriptions := subscriptionRepo.NewMongoSubscriptionRepo(db)

	// wisdom.
	var generator wisdom.Generator
	if cfg.GeminiAPIKey != "" {
		gemini, err := wisdom.NewGeminiClient(ctx, cfg.GeminiAPIKey)
		if err != nil {
			logger.Warn("main: gemini disabled, using built-in wisdom", zap.Error(err))
		} else {
			defer gemini.Close()
			generator = gemini
		}
	}
	wisdomSvc := wisdom.NewService(generator, wisdom.NewRedisStore(utils.GetCacheClient(), utils.WisdomCacheTTL), logger)

	// reminder core.
	registry := reminder.NewRegistry(habits, cfg.PrayerSchedule(), parseOr(cfg.WisdomTime, "09:00"), logger)
	completion := reminder.NewCompletion(habits, prayers)
	composer := reminder.NewComposer(wisdomSvc)

	// keep the interface nil when Firebase failed so the channel reports itself unavailable
	var sender notification.Sender
	if fcmClient != nil {
		sender = fcmClient
	}
	channel := notification.NewFCMChannel(sender, logger.Named("fcm"))

	var ledger dispatcher.Ledger = dispatcher.NopLedger{}
	if cfg.SentLedgerEnabled {
		ledger = dispatcher.NewRedisLedger(utils.GetLedgerClient())
	}

	remote := dispatcher.New(dispatcher.Config{
		Concurrency:     cfg.DispatchConcurrency,
		RatePerSec:      cfg.DispatchRatePerSec,
		LedgerTTL:       cfg.SentLedgerTTL(),
		DefaultLocation: cfg.DefaultLocation(),
	}, dispatcher.Deps{
		Subscriptions: subscriptions,
		Source:        registry,
		Owners:        registry,
		Completion:    completion,
		Composer:      composer,
		Channel:       channel,
		Ledger:        ledger,
		Metrics:       dispatcher.NewMetrics("barakah", prometheus.DefaultRegisterer),
		Logger:        logger.Named("dispatcher"),
	})

	sessions := scheduler.NewManager(scheduler.Config{
		Location:    cfg.DefaultLocation(),
		PrayerLead:  cfg.PrayerLead(),
		SummaryTime: parseOr(cfg.EveningSummaryTime, "20:00"),
	}, scheduler.Deps{
		Source:     registry,
		Completion: completion,
		Composer:   composer,
		Clock:      scheduler.RealClock{},
		Logger:     logger.Named("scheduler"),
	})

	var worker *cron.ReminderWorker
	if cfg.InternalCronEnabled {
		worker, err = cron.InitReminderWorker(remote, logger.Named("cron"))
		if err != nil {
			logger.Sugar().Fatalf("main: failed to start reminder worker: %v", err)
		}
	}

	utils.StartHealthMonitor(ctx, []*redis.Client{utils.GetCacheClient(), utils.GetLedgerClient()}, database.MongoClient, channel.Ready())

	// Create the Gin router.
	if config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(utils.ErrorHandler())
	router.Use(middleware.RequestLogger(logger))
	router.Use(middleware.RateLimitMiddleware(cfg.MaxRequestsPerMin))

	cronHandler := handlers.NewCronHandler(remote)
	subscriptionHandler := handlers.NewSubscriptionHandler(subscriptions)
	reminderHandler := handlers.NewReminderHandler(sessions, subscriptions, cfg.DefaultLocation())

	// Assemble the handler bundle.
	handlerBundle := &handlers.HandlerBundle{
		CronSecret:                  cfg.CronSecret,
		TriggerRemindersHandler:     cronHandler.TriggerRemindersHandler,
		RegisterSubscriptionHandler: subscriptionHandler.RegisterSubscriptionHandler,
		DeleteSubscriptionHandler:   subscriptionHandler.DeleteSubscriptionHandler,
		StreamRemindersHandler:      reminderHandler.StreamRemindersHandler,
		RefreshRemindersHandler:     reminderHandler.RefreshRemindersHandler,
	}

	routes.RegisterRoutes(router, handlerBundle)

	// Start the HTTP server.
	port := cfg.AppPort
	if port == "" {
		port = "8080"
	}
	srv := &http.Server{
		Addr:    "0.0.0.0:" + port,
		Handler: router,
	}

	logger.Sugar().Infof("Starting server on %s...", srv.Addr)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Sugar().Fatalf("main: server failed to start: %v", err)
		}
	}()

	// Wait for an OS signal to gracefully shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Sugar().Info("main: server is shutting down...")
	stop()

	if worker != nil {
		worker.Shutdown()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Sugar().Errorf("main: server forced to shutdown: %v", err)
	}
	if err := database.CloseDB(shutdownCtx); err != nil {
		logger.Sugar().Errorf("main: mongo disconnect: %v", err)
	}

	_ = logger.Sync()
	logger.Sugar().Info("main: server stopped gracefully")
}

// parseOr parses an HH:MM setting, falling back to def when it is malformed.
func parseOr(raw, def string) models.TimeOfDay {
	t, err := models.ParseTimeOfDay(raw)
	if err != nil {
		return models.MustParseTimeOfDay(def)
	}
	return t
}
