// Package config loads runtime configuration from a TOML file with
// environment-variable overrides.
//
// The zero-value config is fully usable: memory store, file cache under the
// user cache dir, no server. Fields only need setting when wiring external
// backends.
package config

import (
	"os"
	"strconv"

	"github.com/BurntSushi/toml"

	"github.com/screenloom/screenloom/pkg/errors"
	"github.com/screenloom/screenloom/pkg/screen"
)

// DefaultFile is the config filename looked up in the working directory.
const DefaultFile = "screenloom.toml"

// Config is the full runtime configuration.
type Config struct {
	// Platform is the default target platform for new projects.
	Platform string `toml:"platform"`

	Server  Server  `toml:"server"`
	Mongo   Mongo   `toml:"mongo"`
	Redis   Redis   `toml:"redis"`
	Publish Publish `toml:"publish"`
	Cache   Cache   `toml:"cache"`
}

// Server configures the HTTP server.
type Server struct {
	ListenAddr string `toml:"listen_addr"`
}

// Mongo configures the MongoDB store. An empty URI selects the in-memory
// store.
type Mongo struct {
	URI      string `toml:"uri"`
	Database string `toml:"database"`
}

// Redis configures the Redis cache. An empty addr selects the file cache.
type Redis struct {
	Addr     string `toml:"addr"`
	Password string `toml:"password"`
	DB       int    `toml:"db"`
}

// Publish configures artifact publishing.
type Publish struct {
	Dir string `toml:"dir"`
}

// Cache configures the local artifact cache.
type Cache struct {
	Dir      string `toml:"dir"`
	Disabled bool   `toml:"disabled"`
}

// Default returns the standalone configuration.
func Default() Config {
	return Config{
		Platform: string(screen.PlatformMobile),
		Server:   Server{ListenAddr: ":8080"},
		Mongo:    Mongo{Database: "screenloom"},
	}
}

// Load reads configuration from path (or DefaultFile when path is empty),
// then applies environment overrides. A missing file is not an error; the
// defaults apply.
func Load(path string) (Config, error) {
	cfg := Default()

	explicit := path != ""
	if path == "" {
		path = DefaultFile
	}
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		if !os.IsNotExist(err) || explicit {
			return cfg, errors.Wrap(errors.ErrCodeInvalidInput, err, "load config %s", path)
		}
	}

	applyEnv(&cfg)

	if _, err := screen.ParsePlatform(cfg.Platform); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// applyEnv overrides config fields from SCREENLOOM_* environment variables.
func applyEnv(cfg *Config) {
	setString := func(key string, dst *string) {
		if v, ok := os.LookupEnv(key); ok {
			*dst = v
		}
	}
	setString("SCREENLOOM_PLATFORM", &cfg.Platform)
	setString("SCREENLOOM_LISTEN_ADDR", &cfg.Server.ListenAddr)
	setString("SCREENLOOM_MONGO_URI", &cfg.Mongo.URI)
	setString("SCREENLOOM_MONGO_DATABASE", &cfg.Mongo.Database)
	setString("SCREENLOOM_REDIS_ADDR", &cfg.Redis.Addr)
	setString("SCREENLOOM_REDIS_PASSWORD", &cfg.Redis.Password)
	setString("SCREENLOOM_PUBLISH_DIR", &cfg.Publish.Dir)
	setString("SCREENLOOM_CACHE_DIR", &cfg.Cache.Dir)

	if v, ok := os.LookupEnv("SCREENLOOM_REDIS_DB"); ok {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Redis.DB = n
		}
	}
	if v, ok := os.LookupEnv("SCREENLOOM_CACHE_DISABLED"); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Cache.Disabled = b
		}
	}
}
