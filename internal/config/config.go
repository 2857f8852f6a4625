package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds application configuration
type Config struct {
	Server    ServerConfig
	Content   ContentConfig
	MongoDB   MongoDBConfig
	Redis     RedisConfig
	Firestore FirestoreConfig
	Assets    AssetsConfig
	Admin     AdminConfig
	JWT       JWTConfig
	Crop      CropConfig
	RateLimit RateLimitConfig
}

type ServerConfig struct {
	Port         string
	Host         string
	Environment  string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	LogLevel     string
	Timezone     string
}

// ContentConfig selects where the content document lives.
type ContentConfig struct {
	Backend    string // memory | mongo | redis | firestore
	Collection string
	Document   string
	SchemaFile string
}

type MongoDBConfig struct {
	URI      string
	Database string
	Timeout  time.Duration
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

// Addr returns host:port, or "" when Redis is not configured.
func (r RedisConfig) Addr() string {
	if r.Host == "" {
		return ""
	}
	return r.Host + ":" + r.Port
}

type FirestoreConfig struct {
	ProjectID       string
	CredentialsFile string
}

// AssetsConfig selects the image host.
type AssetsConfig struct {
	Backend string // imgbb | minio | gcs
	// PublicBaseURL (ASSETS_PUBLIC_BASE_URL) is the prefix object keys are
	// appended to for both minio and gcs, bucket path included. Empty means
	// <endpoint>/<bucket> or https://storage.googleapis.com/<bucket>.
	PublicBaseURL string
	ImgBBKey      string
	ImgBBEndpoint string
	MinIO         MinIOConfig
	GCSBucket     string
}

// MinIOConfig holds MinIO connection configuration
type MinIOConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	UseSSL    bool
	Bucket    string
}

type AdminConfig struct {
	Password string
	TokenTTL time.Duration
}

type JWTConfig struct {
	Secret string
}

// CropConfig drives the optional re-encode step applied to staged images.
type CropConfig struct {
	Enabled      bool
	AspectWidth  int
	AspectHeight int
	MaxDimension int
	Quality      int
}

type RateLimitConfig struct {
	Enabled       bool
	UseRedis      bool
	RPS           float64
	Burst         int
	WindowSeconds int
}

// LoadConfig loads configuration from environment variables and .env file
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("SERVER_PORT", "8080")
	v.SetDefault("SERVER_HOST", "0.0.0.0")
	v.SetDefault("SERVER_ENVIRONMENT", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("TIMEZONE", "Local")
	v.SetDefault("CONTENT_BACKEND", "memory")
	v.SetDefault("CONTENT_COLLECTION", "site_content")
	v.SetDefault("CONTENT_DOCUMENT", "main_content")
	v.SetDefault("MONGODB_DATABASE", "anniversary")
	v.SetDefault("MONGODB_TIMEOUT", 10)
	v.SetDefault("REDIS_PORT", "6379")
	v.SetDefault("ASSETS_BACKEND", "imgbb")
	v.SetDefault("IMGBB_ENDPOINT", "https://api.imgbb.com/1/upload")
	v.SetDefault("MINIO_BUCKET", "anniversary")
	v.SetDefault("ADMIN_PASSWORD", "openingbatsman")
	v.SetDefault("ADMIN_TOKEN_TTL", 720)
	v.SetDefault("CROP_ENABLED", true)
	v.SetDefault("CROP_ASPECT", "9:16")
	v.SetDefault("CROP_MAX_DIMENSION", 1000)
	v.SetDefault("CROP_QUALITY", 85)
	v.SetDefault("RATE_LIMIT_RPS", 5)
	v.SetDefault("RATE_LIMIT_BURST", 10)
	v.SetDefault("RATE_LIMIT_WINDOW_SECONDS", 1)

	aw, ah, err := parseAspect(v.GetString("CROP_ASPECT"))
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:         v.GetString("SERVER_PORT"),
			Host:         v.GetString("SERVER_HOST"),
			Environment:  v.GetString("SERVER_ENVIRONMENT"),
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 60 * time.Second,
			LogLevel:     v.GetString("LOG_LEVEL"),
			Timezone:     v.GetString("TIMEZONE"),
		},
		Content: ContentConfig{
			Backend:    strings.ToLower(v.GetString("CONTENT_BACKEND")),
			Collection: v.GetString("CONTENT_COLLECTION"),
			Document:   v.GetString("CONTENT_DOCUMENT"),
			SchemaFile: v.GetString("SCHEMA_FILE"),
		},
		MongoDB: MongoDBConfig{
			URI:      v.GetString("MONGODB_URI"),
			Database: v.GetString("MONGODB_DATABASE"),
			Timeout:  time.Duration(v.GetInt("MONGODB_TIMEOUT")) * time.Second,
		},
		Redis: RedisConfig{
			Host:     v.GetString("REDIS_HOST"),
			Port:     v.GetString("REDIS_PORT"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
		},
		Firestore: FirestoreConfig{
			ProjectID:       v.GetString("FIRESTORE_PROJECT_ID"),
			CredentialsFile: v.GetString("GOOGLE_CREDENTIALS_FILE"),
		},
		Assets: AssetsConfig{
			Backend:       strings.ToLower(v.GetString("ASSETS_BACKEND")),
			PublicBaseURL: strings.TrimRight(v.GetString("ASSETS_PUBLIC_BASE_URL"), "/"),
			ImgBBKey:      os.Getenv("IMGBB_API_KEY"),
			ImgBBEndpoint: v.GetString("IMGBB_ENDPOINT"),
			MinIO: MinIOConfig{
				Endpoint:  v.GetString("MINIO_ENDPOINT"),
				AccessKey: v.GetString("MINIO_ACCESS_KEY"),
				SecretKey: os.Getenv("MINIO_SECRET_KEY"),
				UseSSL:    v.GetBool("MINIO_USE_SSL"),
				Bucket:    v.GetString("MINIO_BUCKET"),
			},
			GCSBucket: v.GetString("GCS_BUCKET"),
		},
		Admin: AdminConfig{
			Password: os.Getenv("ADMIN_PASSWORD"),
			TokenTTL: time.Duration(v.GetInt("ADMIN_TOKEN_TTL")) * time.Minute,
		},
		JWT: JWTConfig{
			Secret: os.Getenv("JWT_SECRET"),
		},
		Crop: CropConfig{
			Enabled:      v.GetBool("CROP_ENABLED"),
			AspectWidth:  aw,
			AspectHeight: ah,
			MaxDimension: v.GetInt("CROP_MAX_DIMENSION"),
			Quality:      v.GetInt("CROP_QUALITY"),
		},
		RateLimit: RateLimitConfig{
			Enabled:       v.GetBool("RATE_LIMIT_ENABLED"),
			UseRedis:      v.GetBool("RATE_LIMIT_USE_REDIS"),
			RPS:           v.GetFloat64("RATE_LIMIT_RPS"),
			Burst:         v.GetInt("RATE_LIMIT_BURST"),
			WindowSeconds: v.GetInt("RATE_LIMIT_WINDOW_SECONDS"),
		},
	}
	if cfg.Admin.Password == "" {
		cfg.Admin.Password = v.GetString("ADMIN_PASSWORD")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the settings each selected backend needs.
func (c *Config) Validate() error {
	switch c.Content.Backend {
	case "memory":
	case "mongo":
		if c.MongoDB.URI == "" {
			return fmt.Errorf("CONTENT_BACKEND=mongo requires MONGODB_URI")
		}
	case "redis":
		if c.Redis.Host == "" {
			return fmt.Errorf("CONTENT_BACKEND=redis requires REDIS_HOST")
		}
	case "firestore":
		if c.Firestore.ProjectID == "" {
			return fmt.Errorf("CONTENT_BACKEND=firestore requires FIRESTORE_PROJECT_ID")
		}
	default:
		return fmt.Errorf("unknown CONTENT_BACKEND %q", c.Content.Backend)
	}

	switch c.Assets.Backend {
	case "imgbb":
	case "minio":
		if c.Assets.MinIO.Endpoint == "" {
			return fmt.Errorf("ASSETS_BACKEND=minio requires MINIO_ENDPOINT")
		}
	case "gcs":
		if c.Assets.GCSBucket == "" {
			return fmt.Errorf("ASSETS_BACKEND=gcs requires GCS_BUCKET")
		}
	default:
		return fmt.Errorf("unknown ASSETS_BACKEND %q", c.Assets.Backend)
	}

	if c.Content.Collection == "" || c.Content.Document == "" {
		return fmt.Errorf("CONTENT_COLLECTION and CONTENT_DOCUMENT must not be empty")
	}
	if c.Crop.Quality < 1 || c.Crop.Quality > 100 {
		return fmt.Errorf("CROP_QUALITY must be within 1..100, got %d", c.Crop.Quality)
	}
	if c.Crop.MaxDimension <= 0 {
		return fmt.Errorf("CROP_MAX_DIMENSION must be positive, got %d", c.Crop.MaxDimension)
	}
	return nil
}

// parseAspect reads "W:H".
func parseAspect(s string) (int, int, error) {
	var w, h int
	if n, _ := fmt.Sscanf(strings.TrimSpace(s), "%d:%d", &w, &h); n != 2 || w <= 0 || h <= 0 {
		return 0, 0, fmt.Errorf("invalid CROP_ASPECT %q (want W:H)", s)
	}
	return w, h, nil
}
