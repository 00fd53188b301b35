package config

import (
	"log"
	"time"

	"barakah/models"

	"github.com/spf13/viper"
)

// Config holds all configuration values.
type Config struct {
	AppPort           string `mapstructure:"APP_PORT"`
	DatabaseURL       string `mapstructure:"DATABASE_URL"`
	DatabaseName      string `mapstructure:"DATABASE_NAME"`
	Env               string `mapstructure:"ENV"`
	JWTSecret         string `mapstructure:"JWT_SECRET"`
	LogLevel          string `mapstructure:"LOG_LEVEL"`
	MaxRequestsPerMin int    `mapstructure:"MAX_REQUESTS_PER_MIN"`

	// Shared secret for the reminder trigger endpoint.
	CronSecret string `mapstructure:"CRON_SECRET"`

	// Redis configuration.
	RedisAddr            string `mapstructure:"REDIS_ADDR"`
	RedisPassword        string `mapstructure:"REDIS_PASSWORD"`
	RedisCacheDB         int    `mapstructure:"REDIS_CACHE_DB"`
	RedisLedgerDB        int    `mapstructure:"REDIS_LEDGER_DB"`
	RedisReminderQueueDB int    `mapstructure:"REDIS_REMINDER_QUEUE_DB"`

	// Reminder schedule.
	DefaultTimezone    string `mapstructure:"REMINDER_DEFAULT_TIMEZONE"`
	FajrTime           string `mapstructure:"PRAYER_FAJR_TIME"`
	DhuhrTime          string `mapstructure:"PRAYER_DHUHR_TIME"`
	AsrTime            string `mapstructure:"PRAYER_ASR_TIME"`
	MaghribTime        string `mapstructure:"PRAYER_MAGHRIB_TIME"`
	IshaTime           string `mapstructure:"PRAYER_ISHA_TIME"`
	PrayerLeadMinutes  int    `mapstructure:"PRAYER_LEAD_MINUTES"`
	WisdomTime         string `mapstructure:"WISDOM_TIME"`
	EveningSummaryTime string `mapstructure:"EVENING_SUMMARY_TIME"`

	// Remote dispatcher.
	DispatchConcurrency int     `mapstructure:"DISPATCH_CONCURRENCY"`
	DispatchRatePerSec  float64 `mapstructure:"DISPATCH_RATE_PER_SEC"`
	SentLedgerEnabled   bool    `mapstructure:"SENT_LEDGER_ENABLED"`
	SentLedgerTTLHours  int     `mapstructure:"SENT_LEDGER_TTL_HOURS"`
	InternalCronEnabled bool    `mapstructure:"INTERNAL_CRON_ENABLED"`

	// Firebase service account used for FCM.
	FirebaseCredentialsFile string `mapstructure:"FIREBASE_CREDENTIALS_FILE"`

	// Gemini key for generated daily wisdom; empty keeps the built-in quotes.
	GeminiAPIKey string `mapstructure:"GEMINI_API_KEY"`
}

var AppConfig Config

func LoadConfig() {
	// Look for a config file named "config.yaml" in the current and "config" directory.
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	// Automatically use environment variables where available.
	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		log.Println("No config file found, using environment variables only")
	}

	if err := viper.Unmarshal(&AppConfig); err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
}

func setDefaults() {
	viper.SetDefault("APP_PORT", "8080")
	viper.SetDefault("ENV", "development")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("MAX_REQUESTS_PER_MIN", 100)
	viper.SetDefault("DATABASE_URL", "mongodb://localhost:27017")
	viper.SetDefault("DATABASE_NAME", "barakah")
	viper.SetDefault("JWT_SECRET", "")
	viper.SetDefault("CRON_SECRET", "")

	viper.SetDefault("REDIS_ADDR", "localhost:6379")
	viper.SetDefault("REDIS_PASSWORD", "")
	viper.SetDefault("REDIS_CACHE_DB", 0)
	viper.SetDefault("REDIS_LEDGER_DB", 1)
	viper.SetDefault("REDIS_REMINDER_QUEUE_DB", 2)

	viper.SetDefault("REMINDER_DEFAULT_TIMEZONE", "UTC")
	viper.SetDefault("PRAYER_FAJR_TIME", "05:30")
	viper.SetDefault("PRAYER_DHUHR_TIME", "13:15")
	viper.SetDefault("PRAYER_ASR_TIME", "16:45")
	viper.SetDefault("PRAYER_MAGHRIB_TIME", "19:00")
	viper.SetDefault("PRAYER_ISHA_TIME", "20:30")
	viper.SetDefault("PRAYER_LEAD_MINUTES", 5)
	viper.SetDefault("WISDOM_TIME", "09:00")
	viper.SetDefault("EVENING_SUMMARY_TIME", "20:00")

	viper.SetDefault("DISPATCH_CONCURRENCY", 10)
	viper.SetDefault("DISPATCH_RATE_PER_SEC", 20.0)
	viper.SetDefault("SENT_LEDGER_ENABLED", true)
	viper.SetDefault("SENT_LEDGER_TTL_HOURS", 48)
	viper.SetDefault("INTERNAL_CRON_ENABLED", false)

	viper.SetDefault("FIREBASE_CREDENTIALS_FILE", "serviceAccountKey.json")
	viper.SetDefault("GEMINI_API_KEY", "")
}

func GetEnv() string {
	return AppConfig.Env
}

func IsProduction() bool {
	return GetEnv() == "production"
}

// PrayerSchedule returns the five prayer slots in daily order.
// Unparsable times fall back to the built-in defaults.
func (c Config) PrayerSchedule() []models.PrayerSlot {
	configured := []string{c.FajrTime, c.DhuhrTime, c.AsrTime, c.MaghribTime, c.IshaTime}
	defaults := DefaultPrayerTimes()

	slots := make([]models.PrayerSlot, len(models.PrayerNames))
	for i, name := range models.PrayerNames {
		t, err := models.ParseTimeOfDay(configured[i])
		if err != nil {
			t = defaults[i].Time
		}
		slots[i] = models.PrayerSlot{Name: name, Time: t}
	}
	return slots
}

// DefaultPrayerTimes is the fixed schedule used when nothing is configured.
func DefaultPrayerTimes() []models.PrayerSlot {
	return []models.PrayerSlot{
		{Name: "Fajr", Time: models.MustParseTimeOfDay("05:30")},
		{Name: "Dhuhr", Time: models.MustParseTimeOfDay("13:15")},
		{Name: "Asr", Time: models.MustParseTimeOfDay("16:45")},
		{Name: "Maghrib", Time: models.MustParseTimeOfDay("19:00")},
		{Name: "Isha", Time: models.MustParseTimeOfDay("20:30")},
	}
}

// PrayerLead is how long before a prayer slot the foreground reminder fires.
func (c Config) PrayerLead() time.Duration {
	if c.PrayerLeadMinutes < 0 {
		return 0
	}
	return time.Duration(c.PrayerLeadMinutes) * time.Minute
}

// DefaultLocation is used for owners whose subscription carries no timezone.
func (c Config) DefaultLocation() *time.Location {
	loc, err := time.LoadLocation(c.DefaultTimezone)
	if err != nil || c.DefaultTimezone == "" {
		return time.UTC
	}
	return loc
}

// SentLedgerTTL is how long a sent marker is kept.
func (c Config) SentLedgerTTL() time.Duration {
	if c.SentLedgerTTLHours <= 0 {
		return 48 * time.Hour
	}
	return time.Duration(c.SentLedgerTTLHours) * time.Hour
}
