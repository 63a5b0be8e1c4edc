package cli

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/phanxgames/magstack"
	"github.com/phanxgames/magstack/internal/archive"
	"github.com/phanxgames/magstack/internal/cache"
	"github.com/phanxgames/magstack/internal/thumbnail"
)

const (
	configName = "magstack"
	envPrefix  = "MAGSTACK"
)

// settings is everything a command can configure. Stack constants sit at
// the top level of the file; collaborators get their own tables.
type settings struct {
	magstack.Config `mapstructure:",squash"`

	Archive archiveSettings `toml:"archive" mapstructure:"archive"`
	Cache   cacheSettings   `toml:"cache" mapstructure:"cache"`
	Window  windowSettings  `toml:"window" mapstructure:"window"`
}

type archiveSettings struct {
	BaseURL     string `toml:"base_url" mapstructure:"base_url"`
	Query       string `toml:"query" mapstructure:"query"`
	Rows        int    `toml:"rows" mapstructure:"rows"`
	Concurrency int    `toml:"concurrency" mapstructure:"concurrency"`
}

type cacheSettings struct {
	// Dir is the file cache directory. Empty means the user cache dir.
	Dir      string `toml:"dir" mapstructure:"dir"`
	RedisURL string `toml:"redis_url" mapstructure:"redis_url"`
	TTL      string `toml:"ttl" mapstructure:"ttl"`
	Disabled bool   `toml:"disabled" mapstructure:"disabled"`
}

type windowSettings struct {
	Title         string `toml:"title" mapstructure:"title"`
	ShowFPS       bool   `toml:"show_fps" mapstructure:"show_fps"`
	ScreenshotDir string `toml:"screenshot_dir" mapstructure:"screenshot_dir"`
}

func defaultSettings() settings {
	return settings{
		Config: magstack.DefaultConfig(),
		Archive: archiveSettings{
			BaseURL:     archive.DefaultBaseURL,
			Query:       archive.DefaultQuery,
			Rows:        archive.DefaultRows,
			Concurrency: thumbnail.DefaultConcurrency,
		},
		Cache: cacheSettings{
			TTL: cache.DefaultTTL.String(),
		},
		Window: windowSettings{
			Title:         "magstack",
			ScreenshotDir: "screenshots",
		},
	}
}

// ttl parses the cache TTL.
func (s settings) ttl() (time.Duration, error) {
	d, err := time.ParseDuration(s.Cache.TTL)
	if err != nil {
		return 0, fmt.Errorf("%w: cache ttl: %w", magstack.ErrInvalidConfig, err)
	}
	return d, nil
}

// flagKeys maps command-line flags to settings keys.
var flagKeys = map[string]string{
	"rows":           "archive.rows",
	"query":          "archive.query",
	"base-url":       "archive.base_url",
	"concurrency":    "archive.concurrency",
	"cache-dir":      "cache.dir",
	"redis-url":      "cache.redis_url",
	"no-cache":       "cache.disabled",
	"fps":            "window.show_fps",
	"screenshot-dir": "window.screenshot_dir",
	"select-commit":  "select_commit",
}

// loadSettings layers, lowest first: defaults, the config file, MAGSTACK_*
// environment variables and changed flags. A missing default config file is
// not an error; a missing explicit path is.
func loadSettings(path string, searchDirs []string, flags *pflag.FlagSet) (settings, error) {
	var base bytes.Buffer
	if err := toml.NewEncoder(&base).Encode(defaultSettings()); err != nil {
		return settings{}, fmt.Errorf("encode defaults: %w", err)
	}

	v := viper.New()
	v.SetConfigType("toml")
	if err := v.ReadConfig(&base); err != nil {
		return settings{}, fmt.Errorf("read defaults: %w", err)
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(configName)
		for _, dir := range searchDirs {
			v.AddConfigPath(dir)
		}
	}
	if err := v.MergeInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return settings{}, fmt.Errorf("read config: %w", err)
		}
	}

	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return settings{}, fmt.Errorf("bind flag %s: %w", name, err)
				}
			}
		}
	}

	var s settings
	if err := v.Unmarshal(&s); err != nil {
		return settings{}, fmt.Errorf("%w: %w", magstack.ErrInvalidConfig, err)
	}
	if err := s.Config.Validate(); err != nil {
		return settings{}, err
	}
	if _, err := s.ttl(); err != nil {
		return settings{}, err
	}
	if s.Archive.Rows <= 0 {
		return settings{}, fmt.Errorf("%w: archive rows must be positive", magstack.ErrInvalidConfig)
	}
	return s, nil
}
