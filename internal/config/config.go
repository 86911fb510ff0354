// Package config loads the application configuration from config files,
// environment variables, and .env files.
package config

import (
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/cigarscout/cigarscout/pkg/errors"
)

const envPrefix = "CIGARSCOUT"

// Config holds everything the commands need: data paths, fetch politeness
// knobs, and logging.
type Config struct {
	// Data layout.
	MasterPath    string
	ListingsDir   string
	ProfilesDir   string
	OverridesPath string
	MirrorPath    string // empty disables the SQLite mirror

	// Fetching.
	RequestTimeout time.Duration
	MaxAttempts    int
	UserAgent      string

	// Runner.
	MaxParallelRetailers int

	// Logging.
	LogLevel  string
	LogFormat string

	// ConfigFile records which file viper actually read, for log lines.
	ConfigFile string
}

// Load reads configuration in order of precedence: flags (bound by the
// commands), CIGARSCOUT_* environment variables, .env files, a config
// file (cigarscout.yaml in the working directory or ~/.cigarscout.yaml),
// then defaults.
func Load(configFile string) (*Config, error) {
	// .env files first so viper's env binding sees them.
	for _, envFile := range []string{".env", ".env.local"} {
		_ = godotenv.Load(envFile)
	}

	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, &errors.ConfigError{
				Component: "config file",
				Message:   "cannot read " + configFile,
				Err:       err,
			}
		}
	} else {
		v.SetConfigName("cigarscout")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME")
		// Missing default config file is fine; defaults and env cover it.
		_ = v.ReadInConfig()
	}

	cfg := &Config{
		MasterPath:    v.GetString("master_path"),
		ListingsDir:   v.GetString("listings_dir"),
		ProfilesDir:   v.GetString("profiles_dir"),
		OverridesPath: v.GetString("overrides_path"),
		MirrorPath:    v.GetString("mirror_path"),

		RequestTimeout: v.GetDuration("request_timeout"),
		MaxAttempts:    v.GetInt("max_attempts"),
		UserAgent:      v.GetString("user_agent"),

		MaxParallelRetailers: v.GetInt("max_parallel_retailers"),

		LogLevel:  v.GetString("log_level"),
		LogFormat: v.GetString("log_format"),

		ConfigFile: v.ConfigFileUsed(),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("master_path", "data/master_catalog.csv")
	v.SetDefault("listings_dir", "data/listings")
	v.SetDefault("profiles_dir", "profiles")
	v.SetDefault("overrides_path", "data/price_overrides.csv")
	v.SetDefault("mirror_path", "")

	v.SetDefault("request_timeout", 15*time.Second)
	v.SetDefault("max_attempts", 3)
	v.SetDefault("user_agent", "")

	v.SetDefault("max_parallel_retailers", 4)

	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "auto")
}

func (c *Config) validate() error {
	if c.MasterPath == "" {
		return errors.NewConfigError("config", "master_path must not be empty", nil)
	}
	if c.ListingsDir == "" {
		return errors.NewConfigError("config", "listings_dir must not be empty", nil)
	}
	if c.ProfilesDir == "" {
		return errors.NewConfigError("config", "profiles_dir must not be empty", nil)
	}
	if c.RequestTimeout <= 0 {
		return errors.NewConfigError("config", "request_timeout must be positive", nil)
	}
	if c.MaxAttempts < 1 {
		return errors.NewConfigError("config", "max_attempts must be at least 1", nil)
	}
	if c.MaxParallelRetailers < 1 {
		return errors.NewConfigError("config", "max_parallel_retailers must be at least 1", nil)
	}
	return nil
}
