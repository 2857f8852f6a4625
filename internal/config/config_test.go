package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("CONTENT_BACKEND", "")
	t.Setenv("ADMIN_PASSWORD", "")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	require.Equal(t, "memory", cfg.Content.Backend)
	require.Equal(t, "site_content", cfg.Content.Collection)
	require.Equal(t, "main_content", cfg.Content.Document)
	require.Equal(t, "imgbb", cfg.Assets.Backend)
	require.Equal(t, "openingbatsman", cfg.Admin.Password)
	require.Equal(t, 12*time.Hour, cfg.Admin.TokenTTL)
	require.True(t, cfg.Crop.Enabled)
	require.Equal(t, 9, cfg.Crop.AspectWidth)
	require.Equal(t, 16, cfg.Crop.AspectHeight)
	require.Equal(t, 1000, cfg.Crop.MaxDimension)
	require.Equal(t, 85, cfg.Crop.Quality)
}

func TestLoadConfig_BackendRequirements(t *testing.T) {
	t.Setenv("CONTENT_BACKEND", "mongo")
	t.Setenv("MONGODB_URI", "")
	_, err := LoadConfig()
	require.Error(t, err)

	t.Setenv("MONGODB_URI", "mongodb://localhost:27017/testdb")
	t.Setenv("MONGODB_DATABASE", "anniversary_test")
	cfg, err := LoadConfig()
	require.NoError(t, err)
	require.Equal(t, "anniversary_test", cfg.MongoDB.Database)

	t.Setenv("CONTENT_BACKEND", "redis")
	t.Setenv("REDIS_HOST", "localhost")
	cfg, err = LoadConfig()
	require.NoError(t, err)
	require.Equal(t, "localhost:6379", cfg.Redis.Addr())

	t.Setenv("CONTENT_BACKEND", "sqlite")
	_, err = LoadConfig()
	require.Error(t, err)
}

func TestLoadConfig_Assets(t *testing.T) {
	t.Setenv("CONTENT_BACKEND", "memory")
	t.Setenv("ASSETS_BACKEND", "minio")
	t.Setenv("MINIO_ENDPOINT", "")
	_, err := LoadConfig()
	require.Error(t, err)

	t.Setenv("MINIO_ENDPOINT", "localhost:9000")
	t.Setenv("ASSETS_PUBLIC_BASE_URL", "https://cdn.example.com/")
	cfg, err := LoadConfig()
	require.NoError(t, err)
	require.Equal(t, "https://cdn.example.com", cfg.Assets.PublicBaseURL)
	require.Equal(t, "anniversary", cfg.Assets.MinIO.Bucket)
}

func TestParseAspect(t *testing.T) {
	w, h, err := parseAspect("4:5")
	require.NoError(t, err)
	require.Equal(t, 4, w)
	require.Equal(t, 5, h)

	for _, bad := range []string{"", "9", "0:16", "a:b", "-1:2"} {
		_, _, err := parseAspect(bad)
		require.Error(t, err, bad)
	}
}
