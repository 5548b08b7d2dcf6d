package redis

import (
	"context"
	"log"
	"time"

	"trip-planner/internal/config"

	"github.com/redis/go-redis/v9"
)

var Ctx = context.Background()
var RedisClient *redis.Client

// SessionTTL matches the JWT expiry.
const SessionTTL = time.Hour * 24 * 3

func InitRedis() {
	RedisClient = redis.NewClient(&redis.Options{
		Addr: config.AppConfig.RedisAddress,
	})
	_, err := RedisClient.Ping(Ctx).Result()
	if err != nil {
		log.Println("Redis not available. Running without Redis.")
		RedisClient = nil
		return
	}

	log.Println("Redis connected successfully.")
}

// StoreSession records an issued token so logout can revoke it.
// A nil client is a no-op: the service still works without Redis,
// tokens then simply live until they expire.
func StoreSession(token string) {
	if RedisClient == nil {
		return
	}
	if err := RedisClient.Set(Ctx, token, "1", SessionTTL).Err(); err != nil {
		log.Printf("Could not store session token: %v", err)
	}
}

// RevokeSession drops a token at logout.
func RevokeSession(token string) {
	if RedisClient == nil {
		return
	}
	if err := RedisClient.Del(Ctx, token).Err(); err != nil {
		log.Printf("Could not revoke session token: %v", err)
	}
}

// SessionAlive reports whether a token is still known. Without Redis
// every verified token is accepted.
func SessionAlive(token string) bool {
	if RedisClient == nil {
		return true
	}
	exists, err := RedisClient.Exists(Ctx, token).Result()
	if err != nil {
		log.Printf("Redis session check failed: %v", err)
		return true
	}
	return exists > 0
}
