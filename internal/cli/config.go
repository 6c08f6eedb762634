package cli

import (
	"os"
	"time"

	"github.com/BurntSushi/toml"

	errs "github.com/matzehuels/jefview/pkg/errors"
	"github.com/matzehuels/jefview/pkg/pipeline"
)

// Config holds defaults read from config.toml. Command-line flags win over
// every value here.
//
//	[render]
//	width = 1024
//	background = "ivory"
//	formats = ["svg", "png"]
//
//	[cache]
//	ttl = "72h"
type Config struct {
	Render  RenderConfig  `toml:"render"`
	Catalog CatalogConfig `toml:"catalog"`
	Cache   CacheConfig   `toml:"cache"`
	Store   StoreConfig   `toml:"store"`
	Serve   ServeConfig   `toml:"serve"`
}

// RenderConfig sets output defaults.
type RenderConfig struct {
	Width      int      `toml:"width"`
	Height     int      `toml:"height"`
	Background string   `toml:"background"`
	Points     bool     `toml:"points"`
	Formats    []string `toml:"formats"`
}

// CatalogConfig replaces the embedded colour catalogs.
type CatalogConfig struct {
	Path string `toml:"path"`
}

// CacheConfig selects and tunes the artifact cache.
type CacheConfig struct {
	Dir       string        `toml:"dir"`
	RedisAddr string        `toml:"redis_addr"`
	TTL       time.Duration `toml:"ttl"`
	Disabled  bool          `toml:"disabled"`
}

// StoreConfig locates the palette database.
type StoreConfig struct {
	Path string `toml:"path"`
}

// ServeConfig sets preview server defaults.
type ServeConfig struct {
	Addr string `toml:"addr"`
	Root string `toml:"root"`
}

// LoadConfig reads path. A missing file yields an empty config unless
// required is set.
func LoadConfig(path string, required bool) (*Config, error) {
	cfg := &Config{}
	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		if os.IsNotExist(err) {
			if required {
				return nil, errs.Wrap(errs.ErrCodeFileNotFound, err, "config %s", path)
			}
			return &Config{}, nil
		}
		return nil, errs.Wrap(errs.ErrCodeInvalidFormat, err, "parse config %s", path)
	}
	if keys := md.Undecoded(); len(keys) > 0 {
		return nil, errs.New(errs.ErrCodeInvalidFormat, "config %s: unknown key %q", path, keys[0].String())
	}
	if err := cfg.validate(); err != nil {
		return nil, errs.Wrap(errs.ErrCodeInvalidFormat, err, "config %s", path)
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if err := pipeline.ValidateFormats(c.Render.Formats); err != nil {
		return err
	}
	if c.Cache.TTL < 0 {
		return errs.New(errs.ErrCodeInvalidInput, "cache ttl %s is negative", c.Cache.TTL)
	}
	opts := pipeline.Options{Width: c.Render.Width, Height: c.Render.Height, Background: c.Render.Background}
	opts.SetRenderDefaults()
	return opts.ValidateForRender()
}
