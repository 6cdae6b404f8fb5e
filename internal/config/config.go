package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds runtime configuration values for the API service.
type Config struct {
	AppName                string
	AppEnv                 string
	AppPort                string
	DatabaseURL            string
	RedisURL               string
	NATSURL                string
	ActivityStreamSubject  string
	JWTSecret              string
	JWTTokenTTL            time.Duration
	DevAuthEnabled         bool
	DevAuthPassword        string
	PreviewCallbackSecret  string
	CloudinaryCloudName    string
	CloudinaryAPIKey       string
	CloudinaryAPISecret    string
	CloudinaryUploadFolder string
	LeaderboardCacheTTL    time.Duration
	MaxUploadBytes         int64
}

// HTTPAddress returns the address the HTTP server should listen on.
func (c Config) HTTPAddress() string {
	if strings.HasPrefix(c.AppPort, ":") {
		return c.AppPort
	}

	return fmt.Sprintf(":%s", c.AppPort)
}

// Load reads configuration values from environment variables and optional .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("ENGAGE")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("app.name", "Engage API")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")
	v.SetDefault("activity.stream_subject", "engage.activities")
	v.SetDefault("jwt.token_ttl", "24h")
	v.SetDefault("cloudinary.folder", "engage/assets")
	v.SetDefault("leaderboard.cache_ttl", "1m")
	v.SetDefault("upload.max_bytes", 10<<20)

	tokenTTL, err := time.ParseDuration(v.GetString("jwt.token_ttl"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid jwt token ttl: %w", err)
	}

	leaderboardTTL, err := time.ParseDuration(v.GetString("leaderboard.cache_ttl"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid leaderboard cache ttl: %w", err)
	}

	cfg := Config{
		AppName:                v.GetString("app.name"),
		AppEnv:                 v.GetString("app.env"),
		AppPort:                v.GetString("app.port"),
		DatabaseURL:            v.GetString("database.url"),
		RedisURL:               v.GetString("redis.url"),
		NATSURL:                v.GetString("nats.url"),
		ActivityStreamSubject:  v.GetString("activity.stream_subject"),
		JWTSecret:              v.GetString("jwt.secret"),
		JWTTokenTTL:            tokenTTL,
		DevAuthEnabled:         v.GetBool("dev_auth.enabled"),
		DevAuthPassword:        v.GetString("dev_auth.password"),
		PreviewCallbackSecret:  v.GetString("preview.callback_secret"),
		CloudinaryCloudName:    v.GetString("cloudinary.cloud_name"),
		CloudinaryAPIKey:       v.GetString("cloudinary.api_key"),
		CloudinaryAPISecret:    v.GetString("cloudinary.api_secret"),
		CloudinaryUploadFolder: v.GetString("cloudinary.folder"),
		LeaderboardCacheTTL:    leaderboardTTL,
		MaxUploadBytes:         v.GetInt64("upload.max_bytes"),
	}

	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("jwt secret must be provided")
	}

	if cfg.DevAuthEnabled && cfg.DevAuthPassword == "" {
		return Config{}, fmt.Errorf("dev auth password must be provided when dev auth is enabled")
	}

	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 10 << 20
	}

	return cfg, nil
}
