package config_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"insproduce-backend/internal/config"
)

func validConfig() *config.Config {
	return &config.Config{
		DatabaseURL:     "postgres://localhost/insproduce",
		JWTSecret:       "secret",
		StorageBackend:  "local",
		HistoryPageSize: 500,
		CORSOrigins:     []string{"http://localhost:3000"},
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *config.Config)
		wantErr string
	}{
		{name: "valid local", mutate: func(c *config.Config) {}},
		{name: "missing database", mutate: func(c *config.Config) { c.DatabaseURL = "" }, wantErr: "DATABASE_URL is required"},
		{name: "missing secret", mutate: func(c *config.Config) { c.JWTSecret = "" }, wantErr: "JWT_SECRET is required"},
		{name: "unknown backend", mutate: func(c *config.Config) { c.StorageBackend = "s3" }, wantErr: `unknown STORAGE_BACKEND "s3"`},
		{
			name:    "supabase without url",
			mutate:  func(c *config.Config) { c.StorageBackend = "supabase"; c.SupabaseServiceKey = "k" },
			wantErr: "SUPABASE_URL is required",
		},
		{
			name:    "supabase without key",
			mutate:  func(c *config.Config) { c.StorageBackend = "supabase"; c.SupabaseURL = "https://x.supabase.co" },
			wantErr: "SUPABASE_SERVICE_KEY is required",
		},
		{
			name: "supabase complete",
			mutate: func(c *config.Config) {
				c.StorageBackend = "supabase"
				c.SupabaseURL = "https://x.supabase.co"
				c.SupabaseServiceKey = "k"
			},
		},
		{name: "zero page size", mutate: func(c *config.Config) { c.HistoryPageSize = 0 }, wantErr: "HISTORY_PAGE_SIZE must be positive"},
		{name: "no cors origins", mutate: func(c *config.Config) { c.CORSOrigins = nil }, wantErr: "CORS_ORIGINS must list at least one origin"},
		{name: "cors origin without scheme", mutate: func(c *config.Config) { c.CORSOrigins = []string{"localhost:3000"} }, wantErr: "must start with http:// or https://"},
		{name: "cors wildcard", mutate: func(c *config.Config) { c.CORSOrigins = []string{"*"} }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/insproduce")
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("DENIED_COMMODITIES", "")
	t.Setenv("STORAGE_BACKEND", "")
	t.Setenv("HISTORY_PAGE_SIZE", "not-a-number")
	t.Setenv("REPORT_TIMEZONE", "")
	t.Setenv("CORS_ORIGINS", " http://a.test , ,http://b.test")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, []string{"CHERRY"}, cfg.DeniedCommodities)
	assert.Equal(t, "local", cfg.StorageBackend)
	assert.Equal(t, 500, cfg.HistoryPageSize)
	assert.Equal(t, "America/Santiago", cfg.ReportTimezone)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.CORSOrigins)
}

func TestLoad_DeniedList(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/insproduce")
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("DENIED_COMMODITIES", "cherry, PLUM")

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"cherry", "PLUM"}, cfg.DeniedCommodities)
}

func TestLoad_BlankCORSOrigins(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/insproduce")
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("CORS_ORIGINS", " , ")

	_, err := config.Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "CORS_ORIGINS")
}

func TestLoad_Invalid(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("JWT_SECRET", "secret")

	_, err := config.Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid configuration")
}
