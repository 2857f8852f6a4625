// Package bootstrap builds the backends selected by configuration. It is
// shared by the HTTP server and the contentctl CLI.
package bootstrap

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/lovenotes/anniversary/internal/assets"
	"github.com/lovenotes/anniversary/internal/config"
	"github.com/lovenotes/anniversary/internal/content"
	"github.com/lovenotes/anniversary/internal/content/repository"
	"github.com/lovenotes/anniversary/internal/database"
	"github.com/lovenotes/anniversary/pkg/logger"
)

const mongoConnectAttempts = 5

// Closer releases a backend.
type Closer func()

func noop() {}

// NewRedisClient pings the configured Redis server. It returns nil when
// Redis is not configured.
func NewRedisClient(ctx context.Context, cfg *config.Config) (*redis.Client, error) {
	addr := cfg.Redis.Addr()
	if addr == "" {
		return nil, nil
	}
	client := redis.NewClient(&redis.Options{Addr: addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", addr, err)
	}
	logger.Infof("connected to Redis at %s", addr)
	return client, nil
}

// NewRepository returns the content store selected by CONTENT_BACKEND. rdb
// is used by the redis backend and may be nil otherwise.
func NewRepository(ctx context.Context, cfg *config.Config, rdb *redis.Client) (repository.Repository, Closer, error) {
	switch cfg.Content.Backend {
	case "memory":
		logger.Warnf("using in-memory content store; edits are lost on restart")
		return repository.NewMemoryRepo(), noop, nil
	case "mongo":
		client, err := database.ConnectMongoWithRetry(ctx, cfg.MongoDB.URI, cfg.MongoDB.Timeout, mongoConnectAttempts)
		if err != nil {
			return nil, nil, err
		}
		closer := func() { _ = client.Disconnect(context.Background()) }
		return repository.NewMongoRepo(client.Database(cfg.MongoDB.Database)), closer, nil
	case "redis":
		if rdb == nil {
			return nil, nil, fmt.Errorf("CONTENT_BACKEND=redis but Redis is unavailable")
		}
		return repository.NewRedisRepo(rdb, ""), noop, nil
	case "firestore":
		client, err := database.NewFirestoreClient(ctx, cfg.Firestore.ProjectID, cfg.Firestore.CredentialsFile)
		if err != nil {
			return nil, nil, err
		}
		return repository.NewFirestoreRepo(client), func() { _ = client.Close() }, nil
	}
	return nil, nil, fmt.Errorf("unknown CONTENT_BACKEND %q", cfg.Content.Backend)
}

// NewUploader returns the image host selected by ASSETS_BACKEND, instrumented
// with upload metrics.
func NewUploader(ctx context.Context, cfg *config.Config) (assets.Uploader, Closer, error) {
	switch cfg.Assets.Backend {
	case "imgbb":
		if cfg.Assets.ImgBBKey == "" {
			logger.Warnf("IMGBB_API_KEY is not set; image uploads will be rejected by ImgBB")
		}
		u := assets.NewImgBBUploader(cfg.Assets.ImgBBEndpoint, cfg.Assets.ImgBBKey, &http.Client{Timeout: 2 * time.Minute})
		return assets.Instrumented(u, "imgbb"), noop, nil
	case "minio":
		u, err := assets.NewMinIOUploader(cfg.Assets.MinIO, cfg.Assets.PublicBaseURL)
		if err != nil {
			return nil, nil, err
		}
		return assets.Instrumented(u, "minio"), noop, nil
	case "gcs":
		u, err := assets.NewGCSUploader(ctx, cfg.Assets.GCSBucket, cfg.Firestore.CredentialsFile, cfg.Assets.PublicBaseURL)
		if err != nil {
			return nil, nil, err
		}
		return assets.Instrumented(u, "gcs"), func() { _ = u.Close() }, nil
	}
	return nil, nil, fmt.Errorf("unknown ASSETS_BACKEND %q", cfg.Assets.Backend)
}

// NewCropper returns the configured crop step, or nil when disabled.
func NewCropper(cfg *config.Config) *assets.Cropper {
	if !cfg.Crop.Enabled {
		return nil
	}
	return &assets.Cropper{
		AspectWidth:  cfg.Crop.AspectWidth,
		AspectHeight: cfg.Crop.AspectHeight,
		MaxDimension: cfg.Crop.MaxDimension,
		Quality:      cfg.Crop.Quality,
	}
}

// LoadSchema returns SCHEMA_FILE when set, otherwise the embedded schema.
func LoadSchema(cfg *config.Config) (content.Schema, error) {
	if cfg.Content.SchemaFile == "" {
		return content.DefaultSchema(), nil
	}
	s, err := content.LoadSchema(cfg.Content.SchemaFile)
	if err != nil {
		return content.Schema{}, err
	}
	logger.Infof("loaded field schema from %s (%d fields)", cfg.Content.SchemaFile, len(s.Fields()))
	return s, nil
}

// Location resolves TIMEZONE; "" and "Local" mean the host zone.
func Location(cfg *config.Config) (*time.Location, error) {
	tz := strings.TrimSpace(cfg.Server.Timezone)
	if tz == "" || strings.EqualFold(tz, "local") {
		return time.Local, nil
	}
	return time.LoadLocation(tz)
}
