package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg := LoadConfig("/nonexistent/billingd.yml")
	assert.Equal(t, "billingd", cfg.System.Appid)
	assert.Equal(t, 1920, cfg.Web.Port)
	assert.Equal(t, "http://127.0.0.1:5000", cfg.Catalog.BaseURL)
	assert.Equal(t, "@every 5m", cfg.Catalog.RefreshInterval)
	assert.Equal(t, 365, cfg.Journal.RetentionDays)
}

func TestLoadConfigFile(t *testing.T) {
	cfile := filepath.Join(t.TempDir(), "billingd.yml")
	require.NoError(t, os.WriteFile(cfile, []byte(`
web:
  host: 127.0.0.1
  port: 8080
catalog:
  base_url: http://catalog:5000
  timeout: 3
`), 0o644))

	cfg := LoadConfig(cfile)
	assert.Equal(t, 8080, cfg.Web.Port)
	assert.Equal(t, "http://catalog:5000", cfg.Catalog.BaseURL)
	assert.Equal(t, 3, cfg.Catalog.Timeout)
	// untouched sections keep defaults
	assert.Equal(t, "postgres", cfg.Database.Type)
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	t.Setenv("BILLINGD_WEB_PORT", "9090")
	t.Setenv("BILLINGD_CATALOG_URL", "http://gateway:5000")
	t.Setenv("BILLINGD_SYSTEM_DEBUG", "false")

	cfg := LoadConfig("")
	assert.Equal(t, 9090, cfg.Web.Port)
	assert.Equal(t, "http://gateway:5000", cfg.Catalog.BaseURL)
	assert.False(t, cfg.System.Debug)
}

func TestDirHelpers(t *testing.T) {
	cfg := &AppConfig{System: SysConfig{Workdir: "/tmp/billingd"}}
	assert.Equal(t, "/tmp/billingd/logs", cfg.GetLogDir())
	assert.Equal(t, "/tmp/billingd/data", cfg.GetDataDir())
	assert.Equal(t, "/tmp/billingd/backup", cfg.GetBackupDir())
}
