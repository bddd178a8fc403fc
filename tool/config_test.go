package tool

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/moyoez/qrsend/types"
)

func useMemFs(t *testing.T) afero.Fs {
	t.Helper()
	prevFs, prevPath := ConfigFs, ConfigPath
	fs := afero.NewMemMapFs()
	ConfigFs = fs
	t.Cleanup(func() {
		ConfigFs, ConfigPath = prevFs, prevPath
	})
	return fs
}

func TestLoadConfigCreatesDefaults(t *testing.T) {
	fs := useMemFs(t)

	cfg, err := LoadConfig("/etc/qrsend/config.yaml")
	require.NoError(t, err)
	assert.Equal(t, DefaultPort, cfg.Port)
	assert.Equal(t, "http", cfg.Protocol)
	assert.Equal(t, DefaultPollIntervalMs, cfg.PollIntervalMs)
	assert.Len(t, cfg.Fingerprint, 32)
	assert.NotEmpty(t, cfg.Alias)

	data, err := afero.ReadFile(fs, "/etc/qrsend/config.yaml")
	require.NoError(t, err)
	var onDisk types.AppConfig
	require.NoError(t, yaml.Unmarshal(data, &onDisk))
	assert.Equal(t, cfg, onDisk)
	assert.Equal(t, cfg, GetCurrentConfig())
}

func TestLoadConfigFillsMissingValues(t *testing.T) {
	fs := useMemFs(t)
	require.NoError(t, afero.WriteFile(fs, "config.yaml", []byte("alias: Desk\nport: 8080\n"), 0o644))

	cfg, err := LoadConfig("config.yaml")
	require.NoError(t, err)
	assert.Equal(t, "Desk", cfg.Alias)
	assert.Equal(t, 8080, cfg.Port)
	assert.NotEmpty(t, cfg.Fingerprint)
	assert.Equal(t, DefaultShareTTLSeconds, cfg.ShareTTLSeconds)

	data, err := afero.ReadFile(fs, "config.yaml")
	require.NoError(t, err)
	var onDisk types.AppConfig
	require.NoError(t, yaml.Unmarshal(data, &onDisk))
	assert.Equal(t, cfg.Fingerprint, onDisk.Fingerprint, "generated values are written back")
}

func TestLoadConfigRejectsBadYAML(t *testing.T) {
	fs := useMemFs(t)
	require.NoError(t, afero.WriteFile(fs, "config.yaml", []byte("port: [oops"), 0o644))
	_, err := LoadConfig("config.yaml")
	assert.Error(t, err)
}

func TestUpdateConfigPersistsFirst(t *testing.T) {
	fs := useMemFs(t)
	_, err := LoadConfig("config.yaml")
	require.NoError(t, err)

	require.NoError(t, UpdateConfig(func(cfg *types.AppConfig) { cfg.DownloadDir = "/srv/in" }))
	assert.Equal(t, "/srv/in", GetCurrentConfig().DownloadDir)
	data, err := afero.ReadFile(fs, "config.yaml")
	require.NoError(t, err)
	assert.Contains(t, string(data), "downloadDir: /srv/in")

	ConfigFs = afero.NewReadOnlyFs(fs)
	err = UpdateConfig(func(cfg *types.AppConfig) { cfg.DownloadDir = "/elsewhere" })
	assert.Error(t, err)
	assert.Equal(t, "/srv/in", GetCurrentConfig().DownloadDir, "failed write leaves memory untouched")
}
