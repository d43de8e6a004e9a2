package config

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mariolpantunes/optviewer/internal/stream"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestDefaultsMatchRequestDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, stream.DefaultRequest(), cfg.Request())
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, 10*time.Minute, cfg.Server.CacheTTL)
	assert.Equal(t, 50, cfg.Surface.Resolution)
}

func TestLoadOverlaysFile(t *testing.T) {
	path := writeConfig(t, `
server:
  addr: "127.0.0.1:9000"
run:
  algorithm: DE
  sleep: 250ms
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:9000", cfg.Server.Addr)
	assert.Equal(t, "DE", cfg.Run.Algorithm)
	assert.Equal(t, 250*time.Millisecond, cfg.Run.Sleep)
	// untouched fields keep their defaults
	assert.Equal(t, 30, cfg.Run.PopSize)
	assert.Equal(t, "Sphere", cfg.Run.Function)
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"malformed yaml", "run: [epochs"},
		{"zero epochs", "run:\n  epochs: 0\n"},
		{"negative sleep", "run:\n  sleep: -1s\n"},
		{"inverted bounds", "bounds:\n  lower: [5, 5]\n  upper: [-5, -5]\n"},
		{"three dimensions", "bounds:\n  lower: [0, 0, 0]\n  upper: [1, 1, 1]\n"},
		{"tiny surface", "surface:\n  resolution: 1\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			assert.Error(t, err)
		})
	}

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestSearchBoundsIsACopy(t *testing.T) {
	cfg := Default()
	b := cfg.SearchBounds()
	b.Lower[0] = 100

	assert.Equal(t, -5.0, cfg.Bounds.Lower[0])
}

func TestEncodeRoundTripsThroughLoad(t *testing.T) {
	cfg := Default()
	cfg.Run.Epochs = 7

	var buf bytes.Buffer
	require.NoError(t, cfg.Encode(&buf))

	loaded, err := Load(writeConfig(t, buf.String()))
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}
