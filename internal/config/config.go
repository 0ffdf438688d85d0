package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/thiagokokada/gitstruct/internal/git"
)

const (
	EnvPrefix       = "GITSTRUCT"
	DefaultDebounce = 350 * time.Millisecond
	DefaultTheme    = "auto"
)

var ErrRepositoryPathRequired = errors.New("repository path is required")

var validThemes = []string{"auto", "light", "dark", "none"}

// Config describes which repository to load and how to watch it.
type Config struct {
	RepositoryPath string        `mapstructure:"repository_path"`
	WatchPath      string        `mapstructure:"watch_path"` // defaults to RepositoryPath
	MaxCommits     int           `mapstructure:"max_commits"`
	RemoteBranches bool          `mapstructure:"remote_branches"`
	Debounce       time.Duration `mapstructure:"debounce"`
	Theme          string        `mapstructure:"theme"`
	Verbose        bool          `mapstructure:"verbose"`
}

func Default() Config {
	return Config{
		RepositoryPath: ".",
		MaxCommits:     git.DefaultMaxCommits,
		Debounce:       DefaultDebounce,
		Theme:          DefaultTheme,
	}
}

// flagKeys maps config keys to the command line flags that override them.
var flagKeys = map[string]string{
	"watch_path":      "watch-path",
	"max_commits":     "max-commits",
	"remote_branches": "remotes",
	"debounce":        "debounce",
	"theme":           "theme",
	"verbose":         "verbose",
}

// Load merges defaults, an optional YAML config file, GITSTRUCT_* environment
// variables and explicitly set flags, in increasing order of precedence. An
// empty file searches ./gitstruct.yaml and the user config directory; a
// missing file is not an error unless it was named explicitly.
func Load(file string, flags *pflag.FlagSet) (Config, error) {
	loadEnvFiles()

	v := viper.New()
	v.SetConfigType("yaml")
	def := Default()
	v.SetDefault("repository_path", def.RepositoryPath)
	v.SetDefault("watch_path", def.WatchPath)
	v.SetDefault("max_commits", def.MaxCommits)
	v.SetDefault("remote_branches", def.RemoteBranches)
	v.SetDefault("debounce", def.Debounce)
	v.SetDefault("theme", def.Theme)
	v.SetDefault("verbose", def.Verbose)

	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName("gitstruct")
		v.AddConfigPath(".")
		if dir, err := os.UserConfigDir(); err == nil {
			v.AddConfigPath(filepath.Join(dir, "gitstruct"))
		}
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	} else {
		slog.Debug("config file loaded", slog.String("path", v.ConfigFileUsed()))
	}

	if flags != nil {
		for key, name := range flagKeys {
			f := flags.Lookup(name)
			if f == nil {
				continue
			}
			if err := v.BindPFlag(key, f); err != nil {
				return Config{}, fmt.Errorf("bind flag %s: %w", name, err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	return cfg, nil
}

func loadEnvFiles() {
	for _, file := range []string{".env.local", ".env"} {
		if _, err := os.Stat(file); err != nil {
			continue
		}
		if err := godotenv.Load(file); err != nil {
			slog.Warn("load env file", slog.String("file", file), slog.Any("error", err))
		}
	}
}

// Validate fills unset optional fields and rejects an unusable config.
func (c *Config) Validate() error {
	c.RepositoryPath = strings.TrimSpace(c.RepositoryPath)
	if c.RepositoryPath == "" {
		return ErrRepositoryPathRequired
	}
	if strings.TrimSpace(c.WatchPath) == "" {
		c.WatchPath = c.RepositoryPath
	}
	if c.MaxCommits <= 0 {
		c.MaxCommits = git.DefaultMaxCommits
	}
	if c.Debounce <= 0 {
		c.Debounce = DefaultDebounce
	}
	c.Theme = strings.ToLower(strings.TrimSpace(c.Theme))
	if c.Theme == "" {
		c.Theme = DefaultTheme
	}
	valid := false
	for _, th := range validThemes {
		if th == c.Theme {
			valid = true
			break
		}
	}
	if !valid {
		return fmt.Errorf("invalid theme %q (want one of %s)", c.Theme, strings.Join(validThemes, ", "))
	}
	return nil
}

func (c Config) LoadOptions() git.Options {
	return git.Options{MaxCommits: c.MaxCommits, RemoteBranches: c.RemoteBranches}
}
