package config

import (
	"fmt"
	"os"
	"time"
)

type Config struct {
	DatabaseURL string // WARDEN_DATABASE_URL (required)
	HTTPAddr    string // WARDEN_HTTP_ADDR (default ":8080")
	NATSURL     string // WARDEN_NATS_URL (optional, empty = no events)
	AuthToken   string // WARDEN_AUTH_TOKEN (optional, empty = auth disabled)
	LayoutPath  string // WARDEN_LAYOUT (default "warden.toml")

	// Export settings
	ExportInterval   time.Duration // WARDEN_EXPORT_INTERVAL (default 15m; 0 = disabled)
	ExportS3Bucket   string        // WARDEN_EXPORT_S3_BUCKET (enables S3 when set)
	ExportS3Endpoint string        // WARDEN_EXPORT_S3_ENDPOINT (custom endpoint for MinIO)
	ExportS3Region   string        // WARDEN_EXPORT_S3_REGION (default "us-east-1")
	ExportS3Key      string        // WARDEN_EXPORT_S3_KEY (default "warden/audit.jsonl")
}

func Load() (*Config, error) {
	c := &Config{
		DatabaseURL:      os.Getenv("WARDEN_DATABASE_URL"),
		HTTPAddr:         envOrDefault("WARDEN_HTTP_ADDR", ":8080"),
		NATSURL:          os.Getenv("WARDEN_NATS_URL"),
		AuthToken:        os.Getenv("WARDEN_AUTH_TOKEN"),
		LayoutPath:       envOrDefault("WARDEN_LAYOUT", "warden.toml"),
		ExportS3Bucket:   os.Getenv("WARDEN_EXPORT_S3_BUCKET"),
		ExportS3Endpoint: os.Getenv("WARDEN_EXPORT_S3_ENDPOINT"),
		ExportS3Region:   envOrDefault("WARDEN_EXPORT_S3_REGION", "us-east-1"),
		ExportS3Key:      envOrDefault("WARDEN_EXPORT_S3_KEY", "warden/audit.jsonl"),
	}
	if c.DatabaseURL == "" {
		return nil, fmt.Errorf("WARDEN_DATABASE_URL is required")
	}

	intervalStr := envOrDefault("WARDEN_EXPORT_INTERVAL", "15m")
	if intervalStr != "" {
		d, err := time.ParseDuration(intervalStr)
		if err != nil {
			return nil, fmt.Errorf("WARDEN_EXPORT_INTERVAL: %w", err)
		}
		c.ExportInterval = d
	}

	return c, nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
