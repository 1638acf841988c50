package database

import (
	"context"
	"errors"

	"github.com/Kyz7/pixelarts/internal/config"
	"github.com/Kyz7/pixelarts/internal/logger"
	"github.com/Kyz7/pixelarts/internal/repository"
	"github.com/Kyz7/pixelarts/internal/repository/mongostore"
	"github.com/Kyz7/pixelarts/internal/repository/redisstore"
	"github.com/Kyz7/pixelarts/internal/repository/sqlstore"
)

// OpenStore connects the backend named by DB_DRIVER, prepares its schema and,
// when REDIS_URL is set, moves token revocation to Redis.
func OpenStore(ctx context.Context, cfg *config.Config, migrationsDir string) (*repository.Store, error) {
	var store *repository.Store

	if cfg.DBDriver == "mongo" {
		db, err := ConnectMongo(ctx, cfg)
		if err != nil {
			return nil, err
		}
		logger.L().Infof("✅ Connected to MongoDB database %q", cfg.MongoDatabase)
		store = mongostore.New(db)
	} else {
		db, err := Connect(cfg)
		if err != nil {
			return nil, err
		}
		logger.L().Infof("✅ Connected to %s database", cfg.DBDriver)

		if err := Migrate(db); err != nil {
			return nil, err
		}
		if err := RunMigrations(db, migrationsDir); err != nil {
			return nil, err
		}
		store = sqlstore.New(db)
	}

	if cfg.RedisURL == "" {
		return store, nil
	}

	rdb, err := ConnectRedis(ctx, cfg.RedisURL)
	if err != nil {
		logger.L().Warnf("⚠️  Redis unavailable, token revocation stays in the database: %v", err)
		return store, nil
	}
	logger.L().Info("✅ Token revocation backed by Redis")

	store.Tokens = redisstore.NewTokenRepository(rdb)
	closeStore := store.Close
	store.Close = func(ctx context.Context) error {
		return errors.Join(closeStore(ctx), rdb.Close())
	}
	return store, nil
}
