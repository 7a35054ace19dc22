package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg := &Config{}
	cfg.LoadDefaults()

	assert.NotEmpty(t, cfg.DatabaseDSN)
	assert.Equal(t, "recordkeeper.db", cfg.LocalDBPath)
	assert.Equal(t, "downloads", cfg.DownloadDir)
	assert.Equal(t, 15*time.Minute, cfg.AccessTokenValidityDuration)
}

func Test_parseJson(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	path := filepath.Join(t.TempDir(), "cfg.json")
	b, err := json.Marshal(map[string]any{
		"database_dsn":                    "postgres://json",
		"local_db_path":                   "other.db",
		"download_dir":                    "dl",
		"secret_key":                      "jsonkey",
		"access_token_validity_duration":  "5m",
		"refresh_token_validity_duration": "1h",
		"s3_bucket":                       "jsonbucket",
	})
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, b, 0o600))

	os.Args = []string{"testbin", "-config", path}

	cfg := &Config{}
	parseJson(cfg)

	assert.Equal(t, "postgres://json", cfg.DatabaseDSN)
	assert.Equal(t, "other.db", cfg.LocalDBPath)
	assert.Equal(t, "dl", cfg.DownloadDir)
	assert.Equal(t, "jsonkey", cfg.SecretKey)
	assert.Equal(t, 5*time.Minute, cfg.AccessTokenValidityDuration)
	assert.Equal(t, time.Hour, cfg.RefreshTokenValidityDuration)
	assert.Equal(t, "jsonbucket", cfg.S3Bucket)
}

func Test_parseFlags(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	os.Args = []string{"testbin", "-d", "postgres://flags", "-l", "flag.db", "-o", "out"}

	cfg := &Config{}
	cfg.LoadDefaults()
	parseFlags(cfg)

	assert.Equal(t, "postgres://flags", cfg.DatabaseDSN)
	assert.Equal(t, "flag.db", cfg.LocalDBPath)
	assert.Equal(t, "out", cfg.DownloadDir)
}

func Test_parseEnv(t *testing.T) {
	t.Setenv("DATABASE_DSN", "postgres://env")
	t.Setenv("DOWNLOAD_DIR", "envdl")

	cfg := &Config{}
	cfg.LoadDefaults()
	parseEnv(cfg)

	assert.Equal(t, "postgres://env", cfg.DatabaseDSN)
	assert.Equal(t, "envdl", cfg.DownloadDir)
	assert.Equal(t, "recordkeeper.db", cfg.LocalDBPath)
}
