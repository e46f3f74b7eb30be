package config

import (
	"io"

	"graphwire/gwire"

	"github.com/pelletier/go-toml"
	"github.com/pkg/errors"
)

type Config struct {
	LogLevel string       `mapstructure:"log_level"`
	Engine   EngineConfig `mapstructure:"engine"`
	Store    StoreConfig  `mapstructure:"store"`
	RPC      RPCConfig    `mapstructure:"rpc"`
}

type EngineConfig struct {
	PreserveObjectReferences bool `mapstructure:"preserve_object_references"`
	VersionTolerance         bool `mapstructure:"version_tolerance"`
	MaxLength                int  `mapstructure:"max_length"`
}

type StoreConfig struct {
	Compression   string `mapstructure:"compression"`
	CacheExpiryMS int    `mapstructure:"cache_expiry_ms"`
}

type RPCConfig struct {
	Host                  string  `mapstructure:"host"`
	Port                  int     `mapstructure:"port"`
	MaxConcurrentRequests int     `mapstructure:"max_concurrent_requests"`
	MaxWritesPerSecond    float64 `mapstructure:"max_writes_per_second"`
	WriteBurst            int     `mapstructure:"write_burst"`
}

// EngineOptions returns the engine options this config describes.
func (c *Config) EngineOptions() gwire.Options {
	return gwire.Options{
		PreserveObjectReferences: c.Engine.PreserveObjectReferences,
		VersionTolerance:         c.Engine.VersionTolerance,
		MaxLength:                c.Engine.MaxLength,
	}
}

func ReadConfig(r io.Reader) (*Config, error) {
	decoder := toml.NewDecoder(r)
	decoder.SetTagName("mapstructure")
	config := &Config{}
	if err := decoder.Decode(config); err != nil {
		return nil, errors.Wrap(err, "error decoding config file")
	}
	return config, nil
}
