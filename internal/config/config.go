// Package config loads process configuration for the kitties CLI.
//
// Values are resolved by viper in the usual order: flags, KITTIES_*
// environment variables (optionally seeded from a .env file), the YAML
// config file, then defaults. The merged result is checked against an
// embedded CUE schema before use.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"math"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

//go:embed schema.cue
var schemaSource string

// EnvPrefix is prepended to every environment key.
const EnvPrefix = "KITTIES"

// DefaultEnvFile is loaded when present. A missing default is not an error.
const DefaultEnvFile = ".env"

// Config is the resolved process configuration.
type Config struct {
	DB       string `mapstructure:"db"`
	FundsDB  string `mapstructure:"funds_db"`
	Price    uint64 `mapstructure:"price"`
	MaxID    uint32 `mapstructure:"max_id"`
	Holding  string `mapstructure:"holding"`
	Seed     string `mapstructure:"seed"` // hex; empty means crypto/rand
	LogLevel string `mapstructure:"log_level"`
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	return Config{
		DB:       "kitties.db",
		FundsDB:  "kitties-funds.db",
		Price:    10,
		MaxID:    math.MaxUint32,
		Holding:  "treasury",
		LogLevel: "info",
	}
}

// Options selects the files Load reads.
type Options struct {
	// File is an explicit config file. Empty searches for kitties.yaml
	// in the working directory.
	File string

	// EnvFile is a dotenv file. Empty means DefaultEnvFile.
	EnvFile string
}

// NewViper returns a viper instance with defaults and environment binding
// in place. Callers bind their flags to it before calling Load.
func NewViper() *viper.Viper {
	v := viper.New()
	d := Defaults()
	v.SetDefault("db", d.DB)
	v.SetDefault("funds_db", d.FundsDB)
	v.SetDefault("price", d.Price)
	v.SetDefault("max_id", d.MaxID)
	v.SetDefault("holding", d.Holding)
	v.SetDefault("seed", d.Seed)
	v.SetDefault("log_level", d.LogLevel)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	return v
}

// Load resolves the configuration from v and validates it.
func Load(v *viper.Viper, opts Options) (Config, error) {
	if err := loadEnvFile(opts.EnvFile); err != nil {
		return Config{}, err
	}

	if opts.File != "" {
		v.SetConfigFile(opts.File)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", opts.File, err)
		}
	} else {
		v.SetConfigName("kitties")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return Config{}, fmt.Errorf("read config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// loadEnvFile populates the environment from a dotenv file. Variables
// already set are left alone.
func loadEnvFile(path string) error {
	explicit := path != ""
	if !explicit {
		path = DefaultEnvFile
	}
	err := godotenv.Load(path)
	if err == nil || (!explicit && errors.Is(err, fs.ErrNotExist)) {
		return nil
	}
	return fmt.Errorf("load env file %s: %w", path, err)
}

// Validate checks cfg against the embedded schema.
func Validate(cfg Config) error {
	ctx := cuecontext.New()
	schema := ctx.CompileString(schemaSource, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return fmt.Errorf("compile config schema: %w", err)
	}
	def := schema.LookupPath(cue.ParsePath("#Config"))

	val := ctx.Encode(map[string]any{
		"db":        cfg.DB,
		"funds_db":  cfg.FundsDB,
		"price":     cfg.Price,
		"max_id":    cfg.MaxID,
		"holding":   cfg.Holding,
		"seed":      cfg.Seed,
		"log_level": cfg.LogLevel,
	})
	if err := def.Unify(val).Validate(cue.Concrete(true)); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// Level returns the slog level named by LogLevel.
func (c Config) Level() slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return l
}
