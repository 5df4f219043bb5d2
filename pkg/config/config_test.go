package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("GROQ_API_KEY", "gsk_test")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, StorageDriverPostgres, cfg.Storage.Driver)
	assert.Equal(t, 100, cfg.Sync.MaxQueuedUpdates)
	assert.Equal(t, 2*time.Second, cfg.Sync.PollInterval)
	assert.Equal(t, 10*time.Second, cfg.Sync.OpenTimeout)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, "localhost:6379", cfg.GetRedisAddr())
	assert.Contains(t, cfg.GetDatabaseDSN(), "dbname=meeting_taskflow")
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("GROQ_API_KEY", "gsk_test")
	t.Setenv("STORAGE_DRIVER", "redis")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example,https://b.example")
	t.Setenv("SYNC_MAX_QUEUED_UPDATES", "5")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, StorageDriverRedis, cfg.Storage.Driver)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, 5, cfg.Sync.MaxQueuedUpdates)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr string
	}{
		{"missing groq key", map[string]string{"GROQ_API_KEY": ""}, "GROQ_API_KEY"},
		{"unknown driver", map[string]string{"GROQ_API_KEY": "k", "STORAGE_DRIVER": "mongo"}, "STORAGE_DRIVER"},
		{"default secret in production", map[string]string{"GROQ_API_KEY": "k", "ENVIRONMENT": "production"}, "JWT_ACCESS_SECRET"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
