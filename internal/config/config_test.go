package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jessevdk/go-flags"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	cfg, err := Load(nil)
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.ListenAddr)
	assert.Equal(t, "http://localhost:3333", cfg.BackendURL)
	assert.Equal(t, "https://servicodados.ibge.gov.br/api/v1/localidades", cfg.GeographyURL)
	assert.Equal(t, 30*time.Minute, cfg.SessionTTL)
	assert.Equal(t, 10000, cfg.SessionCapacity)
	assert.Equal(t, DefaultMapSettings(), cfg.Map)
}

func TestLoadCustomValues(t *testing.T) {
	t.Setenv("LISTEN_ADDR", ":9000")
	t.Setenv("BACKEND_URL", "http://api.internal:3333")
	t.Setenv("SESSION_TTL", "5m")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load(nil)
	require.NoError(t, err)

	assert.Equal(t, ":9000", cfg.ListenAddr)
	assert.Equal(t, "http://api.internal:3333", cfg.BackendURL)
	assert.Equal(t, 5*time.Minute, cfg.SessionTTL)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoadFlagsOverrideEnv(t *testing.T) {
	t.Setenv("LISTEN_ADDR", ":9000")

	cfg, err := Load([]string{"--listen-addr", ":7000", "--session-capacity", "3"})
	require.NoError(t, err)

	assert.Equal(t, ":7000", cfg.ListenAddr)
	assert.Equal(t, 3, cfg.SessionCapacity)
}

func TestLoadHelp(t *testing.T) {
	_, err := Load([]string{"--help"})

	var flagsErr *flags.Error
	require.True(t, errors.As(err, &flagsErr))
	assert.Equal(t, flags.ErrHelp, flagsErr.Type)
}

func TestLoadMapConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "map.yaml")
	require.NoError(t, os.WriteFile(path, []byte("tile_url: https://tiles.example.com/{z}/{x}/{y}.png\nzoom: 12\n"), 0600))

	cfg, err := Load([]string{"--map-config", path})
	require.NoError(t, err)

	assert.Equal(t, "https://tiles.example.com/{z}/{x}/{y}.png", cfg.Map.TileURL)
	assert.Equal(t, 12, cfg.Map.Zoom)
	// Unset keys keep their defaults.
	assert.Equal(t, DefaultMapSettings().Attribution, cfg.Map.Attribution)
}

func TestLoadMapConfigMissingFile(t *testing.T) {
	_, err := Load([]string{"--map-config", filepath.Join(t.TempDir(), "nope.yaml")})
	assert.Error(t, err)
}

func TestLoadMapConfigInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "map.yaml")
	require.NoError(t, os.WriteFile(path, []byte("zoom: [not a number"), 0600))

	_, err := Load([]string{"--map-config", path})
	assert.Error(t, err)
}
