package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	require.Equal(t, "8080", cfg.Server.Port)
	require.Equal(t, "KTP", cfg.Storage.FilePrefix)
	require.Equal(t, 90, cfg.Pipeline.DefaultRotation)
	require.Equal(t, 100, cfg.Pipeline.Quality)
	require.Equal(t, "jpeg", cfg.Pipeline.OutputFormat)
	require.True(t, cfg.Pipeline.Antialias)
	require.Equal(t, int64(50_000_000), cfg.Pipeline.MaxPixels)
	require.Equal(t, DefaultMaskPathData, cfg.Pipeline.MaskPathData)
	require.False(t, cfg.Supabase.Enabled())
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("PICTURES_DIR", "/tmp/pics")
	t.Setenv("JPEG_QUALITY", "80")
	t.Setenv("DEFAULT_ROTATION", "270")
	t.Setenv("OUTPUT_FORMAT", "PNG")
	t.Setenv("MASK_ANTIALIAS", "false")
	t.Setenv("MAX_PIXELS", "1000000")
	t.Setenv("CACHE_DURATION", "5m")
	t.Setenv("SUPABASE_URL", "https://example.supabase.co")
	t.Setenv("SUPABASE_BUCKET", "captures")

	cfg, err := Load()
	require.NoError(t, err)

	require.Equal(t, "9090", cfg.Server.Port)
	require.Equal(t, "/tmp/pics", cfg.Storage.PicturesDir)
	require.Equal(t, 80, cfg.Pipeline.Quality)
	require.Equal(t, 270, cfg.Pipeline.DefaultRotation)
	require.Equal(t, "png", cfg.Pipeline.OutputFormat)
	require.False(t, cfg.Pipeline.Antialias)
	require.Equal(t, int64(1_000_000), cfg.Pipeline.MaxPixels)
	require.Equal(t, 5*time.Minute, cfg.Storage.CacheDuration)
	require.True(t, cfg.Supabase.Enabled())
}

func TestLoadIgnoresMalformedNumbers(t *testing.T) {
	t.Setenv("REDIS_DB", "abc")
	t.Setenv("READ_TIMEOUT", "soon")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, 0, cfg.Redis.DB)
	require.Equal(t, 10*time.Second, cfg.Server.ReadTimeout)
}

func TestValidate(t *testing.T) {
	cases := map[string]string{
		"JPEG_QUALITY":     "0",
		"DEFAULT_ROTATION": "45",
		"OUTPUT_FORMAT":    "gif",
		"MAX_FILE_SIZE":    "-1",
		"MAX_PIXELS":       "0",
	}
	for key, value := range cases {
		t.Run(key, func(t *testing.T) {
			t.Setenv(key, value)
			_, err := Load()
			require.Error(t, err)
		})
	}
}

func TestMaskSource(t *testing.T) {
	cfg := &Config{Pipeline: PipelineConfig{MaskPathData: "M0,0 L1,0 L1,1 Z"}}
	src, err := cfg.MaskSource()
	require.NoError(t, err)
	require.Equal(t, "M0,0 L1,0 L1,1 Z", src)

	path := filepath.Join(t.TempDir(), "oval.txt")
	require.NoError(t, os.WriteFile(path, []byte("  M0,0 L2,2 Z\n"), 0o644))
	cfg.Pipeline.MaskFile = path
	src, err = cfg.MaskSource()
	require.NoError(t, err)
	require.Equal(t, "M0,0 L2,2 Z", src)

	cfg.Pipeline.MaskFile = filepath.Join(t.TempDir(), "missing.txt")
	_, err = cfg.MaskSource()
	require.Error(t, err)
}
