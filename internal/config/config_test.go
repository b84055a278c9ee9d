package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	for _, k := range []string{
		"SRMS_BACKEND", "SRMS_DATA_FILE", "SRMS_SQLITE_PATH", "DB_URL", "PORT",
		"SRMS_RATE_LIMIT", "SRMS_JWT_SECRET", "SRMS_ADMIN_USERNAME",
		"SRMS_ADMIN_PASSWORD", "SRMS_LOG_LEVEL",
	} {
		t.Setenv(k, "")
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestConfigSaveLoad(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "srms.yaml")

	cfg := DefaultConfig()
	cfg.Storage.Backend = BackendSQLite
	cfg.Storage.SQLitePath = "records.db"
	cfg.Server.RateWindow = 30 * time.Second
	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestConfigEnvOverrides(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "srms.yaml")
	require.NoError(t, os.WriteFile(path, []byte("storage:\n  data_file: from-file.txt\nserver:\n  port: \"9000\"\n"), 0600))

	t.Setenv("SRMS_DATA_FILE", "from-env.txt")
	t.Setenv("SRMS_RATE_LIMIT", "5")
	t.Setenv("SRMS_ADMIN_PASSWORD", "pw")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "from-env.txt", cfg.Storage.DataFile)
	assert.Equal(t, "9000", cfg.Server.Port)
	assert.Equal(t, 5, cfg.Server.RateLimit)
	assert.Equal(t, "pw", cfg.Admin.Password)

	t.Setenv("SRMS_RATE_LIMIT", "many")
	_, err = Load(path)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	clearEnv(t)

	t.Setenv("SRMS_BACKEND", BackendMongoDB)
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Error(t, cfg.Validate())

	t.Setenv("DB_URL", "mongodb://localhost:27017")
	cfg, err = Load("")
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "srms", cfg.Storage.MongoDB)

	t.Setenv("SRMS_BACKEND", "csv")
	cfg, err = Load("")
	require.NoError(t, err)
	assert.Error(t, cfg.Validate())

	cfg.Storage.Backend = BackendFile
	assert.NoError(t, cfg.Validate())
}
