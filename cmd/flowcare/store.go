package main

import (
	"context"
	"database/sql"
	"fmt"

	goredis "github.com/redis/go-redis/v9"

	"flowcare/internal/assessment"
	"flowcare/internal/assessment/service"
	"flowcare/internal/assessment/store"
	"flowcare/internal/assessment/store/cache"
	"flowcare/internal/platform/postgres"
	"flowcare/internal/platform/redis"
)

// openService wires the Postgres store and, when configured, the Redis cache.
// The returned closer releases both connections.
func openService(ctx context.Context) (*assessment.Service, func(), error) {
	db, err := postgres.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}
	rdb, err := redis.Connect(ctx, cfg.Redis)
	if err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("connect redis: %w", err)
	}

	var c service.Cache
	if rdb != nil {
		c = cache.NewRedis(rdb, cache.WithTTL(cfg.CacheTTL))
	}
	svc := assessment.NewService(store.NewPostgres(db), c, log, mets)
	return svc, closer(db, rdb), nil
}

func closer(db *sql.DB, rdb *goredis.Client) func() {
	return func() {
		if rdb != nil {
			_ = rdb.Close()
		}
		_ = db.Close()
	}
}
