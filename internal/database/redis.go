package database

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// ConnectRedis returns a client for the directory cache, or nil when no
// REDIS_URL is configured (lookups then go straight to the directory).
func ConnectRedis(redisURL string) (*redis.Client, error) {
	if redisURL == "" {
		return nil, nil
	}

	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("unable to parse redis url: %v", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("unable to ping redis: %v", err)
	}

	fmt.Println("Connected to Redis successfully")
	return client, nil
}
