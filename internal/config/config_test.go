package config

import (
	"testing"
	"time"
)

// exportEnvVars lists all export-related env vars that must be cleared between tests.
var exportEnvVars = []string{
	"WARDEN_EXPORT_INTERVAL", "WARDEN_EXPORT_S3_BUCKET", "WARDEN_EXPORT_S3_ENDPOINT",
	"WARDEN_EXPORT_S3_REGION", "WARDEN_EXPORT_S3_KEY",
}

func clearAllEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"WARDEN_DATABASE_URL", "WARDEN_HTTP_ADDR", "WARDEN_NATS_URL", "WARDEN_AUTH_TOKEN", "WARDEN_LAYOUT"} {
		t.Setenv(key, "")
	}
	for _, key := range exportEnvVars {
		t.Setenv(key, "")
	}
}

func TestLoad(t *testing.T) {
	for _, tc := range []struct {
		name           string
		env            map[string]string
		wantErr        bool
		wantHTTPAddr   string
		wantNATSURL    string
		wantLayoutPath string
	}{
		{
			name:    "MissingDatabaseURL",
			env:     map[string]string{},
			wantErr: true,
		},
		{
			name:           "Defaults",
			env:            map[string]string{"WARDEN_DATABASE_URL": "postgres://localhost/litebans"},
			wantHTTPAddr:   ":8080",
			wantLayoutPath: "warden.toml",
		},
		{
			name: "Custom",
			env: map[string]string{
				"WARDEN_DATABASE_URL": "postgres://db:5432/litebans",
				"WARDEN_HTTP_ADDR":    ":3000",
				"WARDEN_NATS_URL":     "nats://localhost:4222",
				"WARDEN_LAYOUT":       "/etc/warden/layout.toml",
			},
			wantHTTPAddr:   ":3000",
			wantNATSURL:    "nats://localhost:4222",
			wantLayoutPath: "/etc/warden/layout.toml",
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			clearAllEnv(t)
			for k, v := range tc.env {
				t.Setenv(k, v)
			}

			cfg, err := Load()
			if tc.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if cfg.DatabaseURL != tc.env["WARDEN_DATABASE_URL"] {
				t.Errorf("DatabaseURL = %q, want %q", cfg.DatabaseURL, tc.env["WARDEN_DATABASE_URL"])
			}
			if cfg.HTTPAddr != tc.wantHTTPAddr {
				t.Errorf("HTTPAddr = %q, want %q", cfg.HTTPAddr, tc.wantHTTPAddr)
			}
			if cfg.NATSURL != tc.wantNATSURL {
				t.Errorf("NATSURL = %q, want %q", cfg.NATSURL, tc.wantNATSURL)
			}
			if cfg.LayoutPath != tc.wantLayoutPath {
				t.Errorf("LayoutPath = %q, want %q", cfg.LayoutPath, tc.wantLayoutPath)
			}
		})
	}
}

func TestLoadExportDefaults(t *testing.T) {
	clearAllEnv(t)
	t.Setenv("WARDEN_DATABASE_URL", "postgres://localhost/litebans")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.ExportInterval != 15*time.Minute {
		t.Errorf("ExportInterval = %v, want 15m", cfg.ExportInterval)
	}
	if cfg.ExportS3Region != "us-east-1" {
		t.Errorf("ExportS3Region = %q, want %q", cfg.ExportS3Region, "us-east-1")
	}
	if cfg.ExportS3Key != "warden/audit.jsonl" {
		t.Errorf("ExportS3Key = %q, want %q", cfg.ExportS3Key, "warden/audit.jsonl")
	}
}

func TestLoadExportCustom(t *testing.T) {
	clearAllEnv(t)
	t.Setenv("WARDEN_DATABASE_URL", "postgres://localhost/litebans")
	t.Setenv("WARDEN_EXPORT_INTERVAL", "1h")
	t.Setenv("WARDEN_EXPORT_S3_BUCKET", "audit-bucket")
	t.Setenv("WARDEN_EXPORT_S3_ENDPOINT", "http://minio:9000")
	t.Setenv("WARDEN_EXPORT_S3_REGION", "eu-west-1")
	t.Setenv("WARDEN_EXPORT_S3_KEY", "custom/audit.jsonl")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.ExportInterval != time.Hour {
		t.Errorf("ExportInterval = %v, want 1h", cfg.ExportInterval)
	}
	if cfg.ExportS3Bucket != "audit-bucket" {
		t.Errorf("ExportS3Bucket = %q", cfg.ExportS3Bucket)
	}
	if cfg.ExportS3Endpoint != "http://minio:9000" {
		t.Errorf("ExportS3Endpoint = %q", cfg.ExportS3Endpoint)
	}
	if cfg.ExportS3Region != "eu-west-1" {
		t.Errorf("ExportS3Region = %q", cfg.ExportS3Region)
	}
	if cfg.ExportS3Key != "custom/audit.jsonl" {
		t.Errorf("ExportS3Key = %q", cfg.ExportS3Key)
	}
}

func TestLoadExportInvalidInterval(t *testing.T) {
	clearAllEnv(t)
	t.Setenv("WARDEN_DATABASE_URL", "postgres://localhost/litebans")
	t.Setenv("WARDEN_EXPORT_INTERVAL", "not-a-duration")

	_, err := Load()
	if err == nil {
		t.Fatal("expected error for invalid WARDEN_EXPORT_INTERVAL")
	}
}

func TestLoadExportDisabled(t *testing.T) {
	clearAllEnv(t)
	t.Setenv("WARDEN_DATABASE_URL", "postgres://localhost/litebans")
	t.Setenv("WARDEN_EXPORT_INTERVAL", "0s")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.ExportInterval != 0 {
		t.Errorf("ExportInterval = %v, want 0 (disabled)", cfg.ExportInterval)
	}
}

func TestEnvOrDefault(t *testing.T) {
	for _, tc := range []struct {
		name     string
		key      string
		envVal   string
		fallback string
		want     string
	}{
		{"EmptyUsesDefault", "TEST_ENVDEFAULT_EMPTY", "", "default-val", "default-val"},
		{"SetUsesEnv", "TEST_ENVDEFAULT_SET", "custom", "default-val", "custom"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv(tc.key, tc.envVal)
			got := envOrDefault(tc.key, tc.fallback)
			if got != tc.want {
				t.Errorf("envOrDefault(%q, %q) = %q, want %q", tc.key, tc.fallback, got, tc.want)
			}
		})
	}
}
