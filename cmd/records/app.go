package main

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"schoolrecords/internal/account"
	"schoolrecords/internal/config"
	"schoolrecords/internal/counter"
	"schoolrecords/internal/credential"
	"schoolrecords/internal/database"
	"schoolrecords/internal/enrollment"
	"schoolrecords/internal/repository"
)

// app holds everything a command needs. close must run exactly once, after
// the command, so the counter gets its final flush.
type app struct {
	db      *sql.DB
	redis   *redis.Client
	counter *counter.Counter
	codec   *enrollment.Codec
	manager *account.Manager
}

func openApp(ctx context.Context) (_ *app, err error) {
	a := &app{}
	defer func() {
		if err != nil {
			a.close(ctx)
		}
	}()

	a.db, err = database.Open(ctx, cfg.Database, logger)
	if err != nil {
		return nil, err
	}
	dialect, err := database.DialectFor(cfg.Database.Driver)
	if err != nil {
		return nil, err
	}
	store := repository.NewAccountStore(a.db, dialect, cfg.Database.QueryTimeout)

	var counterStore counter.Store
	switch cfg.Counter.Backend {
	case config.CounterBackendRedis:
		a.redis = redis.NewClient(&redis.Options{
			Addr:     cfg.Counter.RedisAddr,
			Password: cfg.Counter.RedisPassword,
			DB:       cfg.Counter.RedisDB,
		})
		if err = a.redis.Ping(ctx).Err(); err != nil {
			return nil, fmt.Errorf("redis ping %s: %w", cfg.Counter.RedisAddr, err)
		}
		counterStore = counter.NewRedisStore(a.redis, cfg.Counter.RedisKey)
	default:
		counterStore = counter.NewFileStore(cfg.Counter.Path)
	}
	a.counter, err = counter.Load(ctx, counterStore, logger)
	if err != nil {
		return nil, err
	}

	hasher, err := credential.New(cfg.Password.Algorithm, cfg.Password.BcryptCost)
	if err != nil {
		return nil, err
	}
	policy, err := enrollment.ParsePolicy(cfg.Enrollment.Policy)
	if err != nil {
		return nil, err
	}
	a.codec = enrollment.New(policy)
	a.codec.OnDrop = func(e *enrollment.DecodeError) {
		logger.Warn("Dropped malformed class entry",
			zap.Int("index", e.Index), zap.String("entry", e.Entry), zap.String("reason", e.Reason))
	}

	a.manager = account.New(store, a.counter, hasher, a.codec, logger, account.Options{
		MinPasswordLength: cfg.Password.MinLength,
	})
	if err = a.manager.Sync(ctx); err != nil {
		return nil, err
	}
	return a, nil
}

func (a *app) close(ctx context.Context) {
	ctx = context.WithoutCancel(ctx)
	if a.counter != nil {
		if err := a.counter.Close(ctx); err != nil {
			logger.Error("Counter flush failed", zap.Error(err))
		}
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			logger.Warn("Redis close failed", zap.Error(err))
		}
	}
	if a.db != nil {
		database.Close(a.db, logger)
	}
}

// withApp opens the app for one command and always releases it.
func withApp(ctx context.Context, fn func(a *app) error) error {
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.close(ctx)
	return fn(a)
}
