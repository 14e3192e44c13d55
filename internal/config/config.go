package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

type Config struct {
	// Database
	DatabaseURL string

	// Auth
	JWTSecret string

	// Commodities rejected at every entry point regardless of their active flag
	DeniedCommodities []string

	// Storage
	StorageBackend        string
	UploadsDir            string
	ReportsDir            string
	SupabaseURL           string
	SupabaseServiceKey    string
	SupabaseStorageBucket string

	// Inspections
	HistoryPageSize int
	MaxUploadMB     int64
	ReportTimezone  string

	// Seed
	SeedFile string

	// Server
	Port        string
	Environment string
	CORSOrigins []string
}

func Load() (*Config, error) {
	cfg := &Config{
		DatabaseURL: getEnv("DATABASE_URL", ""),

		JWTSecret: getEnv("JWT_SECRET", ""),

		DeniedCommodities: splitList(getEnv("DENIED_COMMODITIES", "CHERRY")),

		StorageBackend:        strings.ToLower(getEnv("STORAGE_BACKEND", "local")),
		UploadsDir:            getEnv("UPLOADS_DIR", "./uploads"),
		ReportsDir:            getEnv("REPORTS_DIR", "./reports"),
		SupabaseURL:           getEnv("SUPABASE_URL", ""),
		SupabaseServiceKey:    getEnv("SUPABASE_SERVICE_KEY", ""),
		SupabaseStorageBucket: getEnv("SUPABASE_STORAGE_BUCKET", "insproduce"),

		HistoryPageSize: getEnvInt("HISTORY_PAGE_SIZE", 500),
		MaxUploadMB:     int64(getEnvInt("MAX_UPLOAD_MB", 32)),
		ReportTimezone:  getEnv("REPORT_TIMEZONE", "America/Santiago"),

		SeedFile: getEnv("SEED_FILE", ""),

		Port:        getEnv("PORT", "8080"),
		Environment: getEnv("ENVIRONMENT", "development"),
		CORSOrigins: splitList(getEnv("CORS_ORIGINS", "http://localhost:3000")),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	switch c.StorageBackend {
	case "local":
	case "supabase":
		if c.SupabaseURL == "" {
			return fmt.Errorf("SUPABASE_URL is required when STORAGE_BACKEND=supabase")
		}
		if c.SupabaseServiceKey == "" {
			return fmt.Errorf("SUPABASE_SERVICE_KEY is required when STORAGE_BACKEND=supabase")
		}
	default:
		return fmt.Errorf("unknown STORAGE_BACKEND %q", c.StorageBackend)
	}
	if c.HistoryPageSize <= 0 {
		return fmt.Errorf("HISTORY_PAGE_SIZE must be positive")
	}
	if len(c.CORSOrigins) == 0 {
		return fmt.Errorf("CORS_ORIGINS must list at least one origin (or *)")
	}
	for _, o := range c.CORSOrigins {
		if o != "*" && !strings.HasPrefix(o, "http://") && !strings.HasPrefix(o, "https://") {
			return fmt.Errorf("CORS_ORIGINS entry %q must start with http:// or https://", o)
		}
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return n
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}
