package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, ":8080", cfg.ListenAddr)
	require.Equal(t, 15*time.Second, cfg.Agent.StalenessWindow)
	require.Equal(t, 180*time.Second, cfg.Titles.RecycleAfter)
	require.False(t, cfg.Titles.NotifyOnBanSkip)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "warden.yaml")
	content := `
listen_addr: ":9090"
db_path: /var/lib/warden/warden.db
scans_dir: /srv/scans
default_kingdom: 3328
auth:
  bot_key: bk
  owner_key: ok
agent:
  staleness_window: 30s
titles:
  recycle_after: 5m
  notify_on_ban_skip: true
log_level: debug
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, ":9090", cfg.ListenAddr)
	require.Equal(t, "/srv/scans", cfg.ScansDir)
	require.Equal(t, 3328, cfg.DefaultKingdom)
	require.Equal(t, "bk", cfg.Auth.BotKey)
	require.Equal(t, 30*time.Second, cfg.Agent.StalenessWindow)
	require.Equal(t, 5*time.Minute, cfg.Titles.RecycleAfter)
	require.True(t, cfg.Titles.NotifyOnBanSkip)
	require.Equal(t, "debug", cfg.LogLevel)
}

func TestLoadFile_Missing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("WARDEN_LISTEN_ADDR", ":7070")
	t.Setenv("WARDEN_OWNER_KEY", "env-key")
	t.Setenv("WARDEN_DEFAULT_KINGDOM", "1476")

	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, ":7070", cfg.ListenAddr)
	require.Equal(t, "env-key", cfg.Auth.OwnerKey)
	require.Equal(t, 1476, cfg.DefaultKingdom)
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.LogLevel = "loud"
	require.Error(t, cfg.validate())

	cfg = Default()
	cfg.Agent.StalenessWindow = 0
	require.Error(t, cfg.validate())
}
