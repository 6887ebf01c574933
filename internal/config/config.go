// Package config loads the settings of the sloth binary from a YAML file and
// SLOTH_ prefixed environment variables.
package config

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/viper"

	"github.com/Alp4ka/sloth"
)

const EnvPrefix = "SLOTH"

type Config struct {
	Blog     Blog     `mapstructure:"blog"`
	Admins   []string `mapstructure:"admins"`
	PageSize int      `mapstructure:"page_size"`
	FeedSize int      `mapstructure:"feed_size"`
	Server   Server   `mapstructure:"server"`
	Database Database `mapstructure:"database"`
	Cache    Cache    `mapstructure:"cache"`
	Auth     Auth     `mapstructure:"auth"`
	Log      Log      `mapstructure:"log"`
}

type Blog struct {
	Title   string `mapstructure:"title"`
	BaseURL string `mapstructure:"base_url"`
	Author  string `mapstructure:"author"`
}

type Server struct {
	Addr string `mapstructure:"addr"`
}

// Database selects the post store. An empty driver keeps posts in memory.
type Database struct {
	Driver string `mapstructure:"driver"`
	DSN    string `mapstructure:"dsn"`
}

// Cache selects the page-cursor cache: "memory" or "redis".
type Cache struct {
	Driver   string `mapstructure:"driver"`
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	// CASRetries enables compare-and-swap writes of cursor maps when positive.
	CASRetries int `mapstructure:"cas_retries"`
}

type Auth struct {
	Secret string `mapstructure:"secret"`
}

type Log struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

const (
	CacheMemory = "memory"
	CacheRedis  = "redis"
)

func setDefaults(v *viper.Viper) {
	v.SetDefault("blog.title", "sloth")
	v.SetDefault("blog.base_url", "http://localhost:8080")
	v.SetDefault("blog.author", "")
	v.SetDefault("admins", []string{})
	v.SetDefault("page_size", sloth.DefaultPageSize)
	v.SetDefault("feed_size", 10)
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("database.driver", "")
	v.SetDefault("database.dsn", "")
	v.SetDefault("cache.driver", CacheMemory)
	v.SetDefault("cache.addr", "localhost:6379")
	v.SetDefault("cache.password", "")
	v.SetDefault("cache.db", 0)
	v.SetDefault("cache.cas_retries", 0)
	v.SetDefault("auth.secret", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}

// Load reads path, when not empty, over the defaults. Environment variables
// such as SLOTH_SERVER_ADDR override both.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.Admins = parseAdmins(v.GetStringSlice("admins"))

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// parseAdmins accepts both a YAML list and a comma separated env value.
func parseAdmins(raw []string) []string {
	var ret []string
	for _, item := range raw {
		for _, email := range strings.Split(item, ",") {
			if email = strings.ToLower(strings.TrimSpace(email)); email != "" {
				ret = append(ret, email)
			}
		}
	}

	return ret
}

func (c *Config) Validate() error {
	var errs []error

	if _, ok := sloth.ClampPageSize(c.PageSize, sloth.MaxPageSize); !ok {
		errs = append(errs, fmt.Errorf("page_size must be in [1, %d], got %d", sloth.MaxPageSize, c.PageSize))
	}
	if _, ok := sloth.ClampPageSize(c.FeedSize, sloth.MaxPageSize); !ok {
		errs = append(errs, fmt.Errorf("feed_size must be in [1, %d], got %d", sloth.MaxPageSize, c.FeedSize))
	}
	if c.Server.Addr == "" {
		errs = append(errs, errors.New("server.addr is empty"))
	}
	if c.Database.Driver != "" && c.Database.DSN == "" {
		errs = append(errs, fmt.Errorf("database.dsn is required for driver '%s'", c.Database.Driver))
	}
	switch c.Cache.Driver {
	case CacheMemory:
	case CacheRedis:
		if c.Cache.Addr == "" {
			errs = append(errs, errors.New("cache.addr is required for redis"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown cache.driver '%s'", c.Cache.Driver))
	}
	if c.Cache.CASRetries < 0 {
		errs = append(errs, fmt.Errorf("cache.cas_retries must not be negative, got %d", c.Cache.CASRetries))
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}

	return nil
}

// IsAdmin reports whether email is listed in admins.
func (c *Config) IsAdmin(email string) bool {
	return email != "" && slices.Contains(c.Admins, strings.ToLower(email))
}
