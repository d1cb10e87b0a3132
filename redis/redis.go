package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// Init connects to redis. An empty addr returns a nil client and leaves the
// schedule cache disabled.
func Init(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	if addr == "" {
		log.Info().Msg("REDIS_ADDR not set, schedule cache disabled")
		return nil, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connect to redis at %s: %w", addr, err)
	}

	log.Info().Str("addr", addr).Msg("connected to redis")
	return client, nil
}
