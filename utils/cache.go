// File: utils/cache.go
package utils

import (
	"barakah/config"
	"context"
	"log"
	"time"

	"github.com/go-redis/redis/v8"
)

var (
	// CacheClient is the generic cache client (daily wisdom).
	CacheClient *redis.Client
	// LedgerClient is the dedicated client for the sent-reminder ledger.
	LedgerClient *redis.Client
)

func newRedisClient(db int, name string) *redis.Client {
	client := redis.NewClient(&redis.Options{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       db,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if _, err := client.Ping(ctx).Result(); err != nil {
		log.Fatalf("Failed to connect to Redis (%s): %v", name, err)
	}
	return client
}

// InitCache initializes the generic Redis cache client.
func InitCache() {
	CacheClient = newRedisClient(config.AppConfig.RedisCacheDB, "Cache")
}

// GetCacheClient returns the generic cache client.
func GetCacheClient() *redis.Client {
	if CacheClient == nil {
		InitCache()
	}
	return CacheClient
}

// InitLedger initializes the Redis client backing the sent ledger.
func InitLedger() {
	LedgerClient = newRedisClient(config.AppConfig.RedisLedgerDB, "Ledger")
}

// GetLedgerClient returns the Redis client backing the sent ledger.
func GetLedgerClient() *redis.Client {
	if LedgerClient == nil {
		InitLedger()
	}
	return LedgerClient
}
