// Package config resolves settings from defaults, an optional .env file,
// KSNAKE_* environment variables and command-line flags, in that order.
package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"kardium-snake/feed"
	"kardium-snake/game/types"

	"github.com/joho/godotenv"
)

const (
	FrontendWindow = "window"
	FrontendTerm   = "term"
	FrontendServer = "server"
)

type Config struct {
	Frontend        string
	Addr            string
	DataDir         string
	Tick            time.Duration
	Locale          string
	Seed            uint64
	FeedDelay       time.Duration
	FeedSuccessRate float64
	Autopilot       bool
	Sound           bool
	Volume          float64
	Ephemeral       bool
}

func Default() Config {
	return Config{
		Frontend:        FrontendWindow,
		Addr:            ":8080",
		DataDir:         "data",
		Tick:            types.DefaultTickInterval,
		Locale:          "en",
		FeedDelay:       feed.DefaultDelay,
		FeedSuccessRate: feed.DefaultSuccessRate,
		Sound:           true,
		Volume:          0.5,
	}
}

// GetEnvVariable returns the value of v, or an error when it is unset or empty
func GetEnvVariable(v string) (string, error) {
	if v == "" {
		return "", fmt.Errorf("input param empty")
	}
	b := os.Getenv(v)
	if b == "" {
		return "", fmt.Errorf("failed to get variable for %s", v)
	}
	return b, nil
}

// LoadEnvFile reads KSNAKE_ENV_FILE (default .env) into the environment.
// Variables already set win; a missing file is not an error.
func LoadEnvFile() error {
	path, err := GetEnvVariable("KSNAKE_ENV_FILE")
	if err != nil {
		path = ".env"
	}
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// Load builds the configuration for args (without the program name)
func Load(args []string) (Config, error) {
	if err := LoadEnvFile(); err != nil {
		return Config{}, err
	}

	cfg := Default()
	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}

	fset := flag.NewFlagSet("kardium-snake", flag.ContinueOnError)
	fset.SetOutput(io.Discard)
	fset.StringVar(&cfg.Frontend, "frontend", cfg.Frontend, "front end: window, term or server")
	fset.StringVar(&cfg.Addr, "addr", cfg.Addr, "listen address for the server front end")
	fset.StringVar(&cfg.DataDir, "data", cfg.DataDir, "directory for scores, stats and logs")
	fset.DurationVar(&cfg.Tick, "tick", cfg.Tick, "tick interval")
	fset.StringVar(&cfg.Locale, "locale", cfg.Locale, "UI language (en, fr, es)")
	fset.Uint64Var(&cfg.Seed, "seed", cfg.Seed, "random seed, 0 for time based")
	fset.DurationVar(&cfg.FeedDelay, "feed-delay", cfg.FeedDelay, "simulated transaction latency")
	fset.Float64Var(&cfg.FeedSuccessRate, "feed-rate", cfg.FeedSuccessRate, "transaction success probability")
	fset.BoolVar(&cfg.Autopilot, "autopilot", cfg.Autopilot, "let the agent play")
	fset.BoolVar(&cfg.Sound, "sound", cfg.Sound, "play sound cues")
	fset.Float64Var(&cfg.Volume, "volume", cfg.Volume, "sound volume between 0 and 1")
	fset.BoolVar(&cfg.Ephemeral, "ephemeral", cfg.Ephemeral, "keep scores in memory only")
	if err := fset.Parse(args); err != nil {
		return Config{}, fmt.Errorf("invalid flags: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	str := func(name string, dst *string) {
		if v, err := GetEnvVariable(name); err == nil {
			*dst = v
		}
	}
	str("KSNAKE_FRONTEND", &c.Frontend)
	str("KSNAKE_ADDR", &c.Addr)
	str("KSNAKE_DATA_DIR", &c.DataDir)
	str("KSNAKE_LOCALE", &c.Locale)

	var errs []error
	parse := func(name string, set func(string) error) {
		v, err := GetEnvVariable(name)
		if err != nil {
			return
		}
		if err := set(v); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
		}
	}
	parse("KSNAKE_TICK", func(v string) (err error) { c.Tick, err = time.ParseDuration(v); return })
	parse("KSNAKE_SEED", func(v string) (err error) { c.Seed, err = strconv.ParseUint(v, 10, 64); return })
	parse("KSNAKE_FEED_DELAY", func(v string) (err error) { c.FeedDelay, err = time.ParseDuration(v); return })
	parse("KSNAKE_FEED_RATE", func(v string) (err error) { c.FeedSuccessRate, err = strconv.ParseFloat(v, 64); return })
	parse("KSNAKE_AUTOPILOT", func(v string) (err error) { c.Autopilot, err = strconv.ParseBool(v); return })
	parse("KSNAKE_SOUND", func(v string) (err error) { c.Sound, err = strconv.ParseBool(v); return })
	parse("KSNAKE_VOLUME", func(v string) (err error) { c.Volume, err = strconv.ParseFloat(v, 64); return })
	parse("KSNAKE_EPHEMERAL", func(v string) (err error) { c.Ephemeral, err = strconv.ParseBool(v); return })

	return errors.Join(errs...)
}

func (c Config) Validate() error {
	switch c.Frontend {
	case FrontendWindow, FrontendTerm, FrontendServer:
	default:
		return fmt.Errorf("unknown frontend %q", c.Frontend)
	}
	if c.Tick <= 0 {
		return fmt.Errorf("tick interval must be positive, got %s", c.Tick)
	}
	if c.FeedDelay < 0 {
		return fmt.Errorf("feed delay must not be negative, got %s", c.FeedDelay)
	}
	if c.FeedSuccessRate < 0 || c.FeedSuccessRate > 1 {
		return fmt.Errorf("feed rate must be between 0 and 1, got %g", c.FeedSuccessRate)
	}
	if c.Volume < 0 || c.Volume > 1 {
		return fmt.Errorf("volume must be between 0 and 1, got %g", c.Volume)
	}
	if c.DataDir == "" && !c.Ephemeral {
		return errors.New("data directory is required unless running ephemeral")
	}
	return nil
}

func (c Config) StorePath() string  { return filepath.Join(c.DataDir, "store.json") }
func (c Config) StatsPath() string  { return filepath.Join(c.DataDir, "stats.json") }
func (c Config) QTablePath() string { return filepath.Join(c.DataDir, "qtable.json") }
func (c Config) LogPath() string    { return filepath.Join(c.DataDir, "kardium-snake.log") }
