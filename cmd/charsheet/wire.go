package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/KirkDiggler/charsheet/internal/config"
	"github.com/KirkDiggler/charsheet/internal/dice"
	"github.com/KirkDiggler/charsheet/internal/notify"
	"github.com/KirkDiggler/charsheet/internal/repositories/characters"
	"github.com/KirkDiggler/charsheet/internal/repositories/opentabs"
	"github.com/KirkDiggler/charsheet/internal/repositories/portraits"
	"github.com/KirkDiggler/charsheet/internal/services/tabs"
	"github.com/KirkDiggler/charsheet/internal/uuid"
)

// environment is everything one process run needs
type environment struct {
	manager *tabs.Manager
	closers []func() error
}

// Close releases store connections in reverse order of opening
func (e *environment) Close() error {
	var errs []error
	for i := len(e.closers) - 1; i >= 0; i-- {
		if err := e.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

type stores struct {
	characters characters.Repository
	portraits  portraits.Store
	cache      opentabs.Cache
}

func buildEnvironment(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*environment, error) {
	env := &environment{}

	var redisClient *redis.Client
	if cfg.Redis.URL != "" {
		client, err := connectRedis(ctx, cfg.Redis.URL)
		if err != nil {
			if cfg.Store == config.StoreRedis {
				return nil, err
			}
			logger.Warn("redis unavailable, keeping portraits and open tabs in memory", zap.Error(err))
		} else {
			redisClient = client
			env.closers = append(env.closers, client.Close)
		}
	}

	s := stores{
		portraits: portraits.NewInMemoryStore(cfg.Tabs.MaxPortraitBytes),
		cache:     opentabs.NewInMemoryCache(),
	}
	if redisClient != nil {
		s.portraits = portraits.NewRedisStore(&portraits.RedisStoreConfig{
			Client:   redisClient,
			MaxBytes: cfg.Tabs.MaxPortraitBytes,
		})
		s.cache = opentabs.NewRedisCache(redisClient)
	}

	switch cfg.Store {
	case config.StoreRedis:
		s.characters = characters.NewRedis(redisClient)
	case config.StoreSQLite:
		repo, err := characters.OpenSQLite(&characters.SQLiteRepoConfig{
			Path:          cfg.SQLite.Path,
			UUIDGenerator: uuid.NewGoogleUUIDGenerator(),
			TimeProvider:  characters.NewTimeProvider(),
		})
		if err != nil {
			_ = env.Close()
			return nil, fmt.Errorf("failed to open sqlite store: %w", err)
		}
		env.closers = append(env.closers, repo.Close)
		s.characters = repo
	default:
		s.characters = characters.NewInMemoryRepository(nil)
	}
	logger.Debug("stores ready", zap.String("store", cfg.Store), zap.Bool("redis", redisClient != nil))

	notifier, err := buildNotifier(cfg, logger)
	if err != nil {
		_ = env.Close()
		return nil, err
	}

	env.manager = tabs.NewManager(&tabs.ManagerConfig{
		OwnerID:    cfg.OwnerID,
		Repository: s.characters,
		Notifier:   notifier,
		Cache:      s.cache,
		Portraits:  s.portraits,
		History:    dice.NewHistory(cfg.Tabs.RollHistorySize),
		Debounce:   cfg.Tabs.SaveDebounce,
		Logger:     logger,
	})
	return env, nil
}

func connectRedis(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse REDIS_URL: %w", err)
	}
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return client, nil
}

func buildNotifier(cfg *config.Config, logger *zap.Logger) (notify.Notifier, error) {
	logNotifier := notify.NewLogNotifier(logger)
	if !cfg.Discord.Enabled() {
		return logNotifier, nil
	}

	session, err := notify.NewDiscordSession(cfg.Discord.Token)
	if err != nil {
		return nil, err
	}
	return notify.Multi(logNotifier, notify.NewDiscordNotifier(&notify.DiscordNotifierConfig{
		Session:   session,
		ChannelID: cfg.Discord.ChannelID,
		Logger:    logger,
	})), nil
}
