package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, "5000", cfg.Server.Port)
	assert.Equal(t, "temp_downloads", cfg.Download.Dir)
	assert.Equal(t, int64(2000), cfg.Download.MaxFileSizeMB)
	assert.Equal(t, 30, cfg.Download.SocketTimeoutSec)
	assert.Equal(t, 3, cfg.Download.Retries)
	assert.Equal(t, 4, cfg.Download.FragmentConcurrency)
	assert.Equal(t, 60, cfg.Reaper.RetentionMin)
	assert.Equal(t, 5, cfg.RateLimit.DefaultPerMin)
	assert.Equal(t, 3, cfg.RateLimit.StartPerMin)
	assert.Equal(t, 5, cfg.RateLimit.DownloadFilePerMin)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("PORT", "8080")
	t.Setenv("DOWNLOAD_DIR", "/tmp/scratch")
	t.Setenv("MAX_FILE_SIZE_MB", "500")
	t.Setenv("RATE_LIMIT_START_DOWNLOAD", "10")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "/tmp/scratch", cfg.Download.Dir)
	assert.Equal(t, int64(500), cfg.Download.MaxFileSizeMB)
	assert.Equal(t, 10, cfg.RateLimit.StartPerMin)
}
