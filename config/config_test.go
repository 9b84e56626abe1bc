package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate points the env file at an empty temp dir so a stray .env in the
// working directory can't leak into a test
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("KSNAKE_ENV_FILE", filepath.Join(dir, "missing.env"))
	return dir
}

func TestDefaults(t *testing.T) {
	isolate(t)

	cfg, err := Load(nil)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.Equal(t, 200*time.Millisecond, cfg.Tick)
	assert.Equal(t, 0.8, cfg.FeedSuccessRate)
	assert.Equal(t, filepath.Join("data", "store.json"), cfg.StorePath())
}

func TestEnvOverridesDefaults(t *testing.T) {
	isolate(t)
	t.Setenv("KSNAKE_FRONTEND", "server")
	t.Setenv("KSNAKE_TICK", "150ms")
	t.Setenv("KSNAKE_AUTOPILOT", "true")
	t.Setenv("KSNAKE_SEED", "12")

	cfg, err := Load(nil)
	require.NoError(t, err)
	assert.Equal(t, FrontendServer, cfg.Frontend)
	assert.Equal(t, 150*time.Millisecond, cfg.Tick)
	assert.True(t, cfg.Autopilot)
	assert.Equal(t, uint64(12), cfg.Seed)
}

func TestFlagsOverrideEnv(t *testing.T) {
	isolate(t)
	t.Setenv("KSNAKE_FRONTEND", "server")

	cfg, err := Load([]string{"-frontend", "term", "-feed-rate", "1", "-ephemeral"})
	require.NoError(t, err)
	assert.Equal(t, FrontendTerm, cfg.Frontend)
	assert.Equal(t, 1.0, cfg.FeedSuccessRate)
	assert.True(t, cfg.Ephemeral)
}

func TestEnvFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "snake.env")
	require.NoError(t, os.WriteFile(path, []byte("KSNAKE_LOCALE=fr\nKSNAKE_ADDR=127.0.0.1:9000\n"), 0644))
	t.Setenv("KSNAKE_ENV_FILE", path)
	// registered so t.Setenv restores them after godotenv sets them
	t.Setenv("KSNAKE_LOCALE", "")
	t.Setenv("KSNAKE_ADDR", "")
	os.Unsetenv("KSNAKE_LOCALE")
	os.Unsetenv("KSNAKE_ADDR")

	cfg, err := Load(nil)
	require.NoError(t, err)
	assert.Equal(t, "fr", cfg.Locale)
	assert.Equal(t, "127.0.0.1:9000", cfg.Addr)
}

func TestInvalidValues(t *testing.T) {
	isolate(t)

	for _, args := range [][]string{
		{"-frontend", "vr"},
		{"-tick", "0s"},
		{"-feed-rate", "1.5"},
		{"-volume", "-1"},
		{"-nope"},
	} {
		_, err := Load(args)
		assert.Error(t, err, "%v", args)
	}

	t.Setenv("KSNAKE_TICK", "soon")
	_, err := Load(nil)
	assert.ErrorContains(t, err, "KSNAKE_TICK")
}

func TestGetEnvVariable(t *testing.T) {
	_, err := GetEnvVariable("")
	assert.Error(t, err)

	t.Setenv("KSNAKE_TEST_VALUE", "x")
	v, err := GetEnvVariable("KSNAKE_TEST_VALUE")
	require.NoError(t, err)
	assert.Equal(t, "x", v)
}
