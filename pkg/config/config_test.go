package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_DefaultsWhenDefaultFileMissing(t *testing.T) {
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_ExplicitMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)
}

func TestLoad_FileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
[log]
level = "debug"

[store]
path = "/var/lib/pvm/attachments.db"

[scan]
video_extensions = [".mp4", ".mkv"]
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	t.Setenv("PVM_LOG_FORMAT", "json")
	t.Setenv("PVM_SCAN_PHOTO_EXTENSIONS", ".jpg,.png")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, "/var/lib/pvm/attachments.db", cfg.Store.Path)
	assert.Equal(t, []string{".mp4", ".mkv"}, cfg.Scan.VideoExtensions)
	assert.Equal(t, []string{".jpg", ".png"}, cfg.Scan.PhotoExtensions)
	assert.Equal(t, DefaultSidecarSuffix, cfg.Scan.SidecarSuffix)
}

func TestLoad_InvalidTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[log\nlevel ="), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}
