package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chdir moves into a fresh directory so no stray kitties.yaml or .env is read.
func chdir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	return dir
}

func TestLoad_Defaults(t *testing.T) {
	chdir(t)

	cfg, err := Load(NewViper(), Options{})
	require.NoError(t, err)
	assert.Equal(t, Defaults(), cfg)
	assert.Equal(t, slog.LevelInfo, cfg.Level())
}

func TestLoad_File(t *testing.T) {
	dir := chdir(t)
	path := filepath.Join(dir, "custom.yaml")
	require.NoError(t, os.WriteFile(path, []byte("price: 25\nholding: pot\nlog_level: debug\n"), 0o644))

	cfg, err := Load(NewViper(), Options{File: path})
	require.NoError(t, err)
	assert.Equal(t, uint64(25), cfg.Price)
	assert.Equal(t, "pot", cfg.Holding)
	assert.Equal(t, slog.LevelDebug, cfg.Level())
	assert.Equal(t, "kitties.db", cfg.DB)
}

func TestLoad_DiscoversFileInWorkingDir(t *testing.T) {
	dir := chdir(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "kitties.yaml"), []byte("max_id: 3\n"), 0o644))

	cfg, err := Load(NewViper(), Options{})
	require.NoError(t, err)
	assert.Equal(t, uint32(3), cfg.MaxID)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	dir := chdir(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "kitties.yaml"), []byte("price: 25\n"), 0o644))
	t.Setenv("KITTIES_PRICE", "40")

	cfg, err := Load(NewViper(), Options{})
	require.NoError(t, err)
	assert.Equal(t, uint64(40), cfg.Price)
}

func TestLoad_EnvFile(t *testing.T) {
	dir := chdir(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("KITTIES_FUNDS_DB=ledger.db\n"), 0o644))
	t.Cleanup(func() { os.Unsetenv("KITTIES_FUNDS_DB") })

	cfg, err := Load(NewViper(), Options{})
	require.NoError(t, err)
	assert.Equal(t, "ledger.db", cfg.FundsDB)
}

func TestLoad_MissingExplicitFiles(t *testing.T) {
	dir := chdir(t)

	_, err := Load(NewViper(), Options{File: filepath.Join(dir, "nope.yaml")})
	assert.Error(t, err)

	_, err = Load(NewViper(), Options{EnvFile: filepath.Join(dir, "nope.env")})
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		ok     bool
	}{
		{"defaults", func(*Config) {}, true},
		{"seed hex", func(c *Config) { c.Seed = "00ff10" }, true},
		{"zero max id", func(c *Config) { c.MaxID = 0 }, false},
		{"empty holding", func(c *Config) { c.Holding = "" }, false},
		{"empty db", func(c *Config) { c.DB = "" }, false},
		{"odd seed", func(c *Config) { c.Seed = "abc" }, false},
		{"non-hex seed", func(c *Config) { c.Seed = "zz" }, false},
		{"seed too long", func(c *Config) { c.Seed = strings.Repeat("ab", 65) }, false},
		{"bad level", func(c *Config) { c.LogLevel = "loud" }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			tt.mutate(&cfg)
			err := Validate(cfg)
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}
