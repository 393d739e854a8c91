// internal/app/bootstrap/db.go
package bootstrap

import (
	"context"
	"fmt"

	"github.com/dalemusser/stratalaw/internal/app/system/indexes"
	"github.com/dalemusser/stratalaw/internal/app/system/mailer"
	"github.com/dalemusser/stratalaw/internal/app/system/seeding"
	"github.com/dalemusser/stratalaw/internal/app/system/validators"
	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/storage"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// ConnectDB connects MongoDB, the optional Redis cache, file storage and
// the mailer. WAFFLE bounds ctx with coreCfg.DBConnectTimeout.
func ConnectDB(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) (DBDeps, error) {
	pool := wafflemongo.DefaultPoolConfig()
	if appCfg.MongoMaxPoolSize > 0 {
		pool.MaxPoolSize = appCfg.MongoMaxPoolSize
	}
	if appCfg.MongoMinPoolSize > 0 {
		pool.MinPoolSize = appCfg.MongoMinPoolSize
	}
	client, err := wafflemongo.ConnectWithPool(ctx, appCfg.MongoURI, appCfg.MongoDatabase, pool)
	if err != nil {
		return DBDeps{}, err
	}
	logger.Info("connected to MongoDB",
		zap.String("database", appCfg.MongoDatabase),
		zap.Uint64("max_pool_size", pool.MaxPoolSize),
		zap.Uint64("min_pool_size", pool.MinPoolSize),
	)

	files, err := openStorage(ctx, appCfg, logger)
	if err != nil {
		_ = client.Disconnect(context.Background())
		return DBDeps{}, err
	}

	m := mailer.New(mailer.Config{
		Host:     appCfg.MailSMTPHost,
		Port:     appCfg.MailSMTPPort,
		User:     appCfg.MailSMTPUser,
		Pass:     appCfg.MailSMTPPass,
		From:     appCfg.MailFrom,
		FromName: appCfg.MailFromName,
	}, logger)
	logger.Info("mailer ready",
		zap.String("host", appCfg.MailSMTPHost),
		zap.Int("port", appCfg.MailSMTPPort),
		zap.Bool("configured", m.Configured()),
	)

	return DBDeps{
		MongoClient:   client,
		MongoDatabase: client.Database(appCfg.MongoDatabase),
		Redis:         connectRedis(ctx, appCfg, logger),
		FileStorage:   files,
		Mailer:        m,
	}, nil
}

// connectRedis returns nil when no address is configured or the server does
// not answer; public reads then go straight to MongoDB.
func connectRedis(ctx context.Context, appCfg AppConfig, logger *zap.Logger) *redis.Client {
	if appCfg.RedisAddr == "" {
		logger.Info("redis not configured, read cache disabled")
		return nil
	}
	rc := redis.NewClient(&redis.Options{
		Addr:     appCfg.RedisAddr,
		Password: appCfg.RedisPassword,
		DB:       appCfg.RedisDB,
	})
	if err := rc.Ping(ctx).Err(); err != nil {
		logger.Warn("redis unreachable, read cache disabled",
			zap.String("addr", appCfg.RedisAddr), zap.Error(err))
		_ = rc.Close()
		return nil
	}
	logger.Info("connected to Redis", zap.String("addr", appCfg.RedisAddr), zap.Int("db", appCfg.RedisDB))
	return rc
}

// openStorage builds the store for featured images and client documents.
func openStorage(ctx context.Context, appCfg AppConfig, logger *zap.Logger) (storage.Store, error) {
	switch appCfg.StorageType {
	case "s3":
		st, err := storage.NewS3(ctx, storage.S3Config{
			Region:                   appCfg.StorageS3Region,
			Bucket:                   appCfg.StorageS3Bucket,
			Prefix:                   appCfg.StorageS3Prefix,
			CloudFrontURL:            appCfg.StorageCFURL,
			CloudFrontKeyPairID:      appCfg.StorageCFKeyPairID,
			CloudFrontPrivateKeyPath: appCfg.StorageCFKeyPath,
		})
		if err != nil {
			return nil, fmt.Errorf("s3 storage: %w", err)
		}
		logger.Info("file storage: s3",
			zap.String("bucket", appCfg.StorageS3Bucket),
			zap.String("prefix", appCfg.StorageS3Prefix),
			zap.Bool("cloudfront", appCfg.StorageCFURL != ""))
		return st, nil
	case "local":
		st, err := storage.NewLocal(storage.LocalConfig{
			BasePath: appCfg.StorageLocalPath,
			BaseURL:  appCfg.StorageLocalURL,
		})
		if err != nil {
			return nil, fmt.Errorf("local storage: %w", err)
		}
		logger.Info("file storage: local",
			zap.String("path", appCfg.StorageLocalPath),
			zap.String("url", appCfg.StorageLocalURL))
		return st, nil
	}
	return nil, fmt.Errorf("unknown storage type %q", appCfg.StorageType)
}

// EnsureSchema attaches validators, reconciles indexes and seeds defaults.
// ctx carries coreCfg.IndexBootTimeout.
func EnsureSchema(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	db := deps.MongoDatabase

	// Validators first so collections exist before their indexes.
	logger.Info("ensuring collections and validators")
	if err := validators.EnsureAll(ctx, db); err != nil {
		logger.Error("failed to ensure validators", zap.Error(err))
		return err
	}

	logger.Info("ensuring database indexes")
	if err := indexes.EnsureAll(ctx, db); err != nil {
		logger.Error("failed to ensure indexes", zap.Error(err))
		return err
	}

	logger.Info("seeding default data")
	opts := seeding.Options{
		Content:       appCfg.SeedContent,
		AdminEmail:    appCfg.SeedAdminEmail,
		AdminName:     appCfg.SeedAdminName,
		AdminPassword: appCfg.SeedAdminPassword,
	}
	if err := seeding.SeedAll(ctx, db, opts, logger); err != nil {
		logger.Error("failed to seed default data", zap.Error(err))
		return err
	}

	logger.Info("database schema ensured successfully")
	return nil
}
