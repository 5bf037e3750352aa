package app

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadRuntimeConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "server.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
server_type = "area"
server_id = "area-1"
env = "production"
cron_base_path = "crons.json"
`), 0o644))

	cfg, err := loadRuntimeConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "area", cfg.ServerType)
	assert.Equal(t, "area-1", cfg.ServerID)
	assert.Equal(t, "production", cfg.Env)
	assert.Equal(t, "crons.json", cfg.CronBasePath)
	assert.Equal(t, ":8090", cfg.AdminAddr)
}

func TestLoadRuntimeConfig_MissingFile(t *testing.T) {
	_, err := loadRuntimeConfig("/nonexistent/server.toml")
	require.Error(t, err)
}
