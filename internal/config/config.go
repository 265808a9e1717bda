// Package config loads the YAML configuration that wires together
// storage, locking, and server settings, via viper and mapstructure.
package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// Config is the root configuration document.
type Config struct {
	Storage struct {
		DataDir          string `mapstructure:"data_dir"`
		BlockSize        int    `mapstructure:"block_size"`
		BufferPoolFrames int    `mapstructure:"buffer_pool_frames"`
	} `mapstructure:"storage"`
	Lock struct {
		WaitSeconds int `mapstructure:"wait_seconds"`
	} `mapstructure:"lock"`
	Server struct {
		Debug bool `mapstructure:"debug"`
	} `mapstructure:"server"`
}

// Default returns the configuration used when no file is supplied.
func Default() *Config {
	cfg := &Config{}
	cfg.Storage.DataDir = "./data"
	cfg.Storage.BlockSize = 4096
	cfg.Storage.BufferPoolFrames = 64
	cfg.Lock.WaitSeconds = 5
	cfg.Server.Debug = false
	return cfg
}

// Load reads and unmarshals path, a YAML file, filling in defaults for any
// field it leaves unset.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.SetDefault("storage.data_dir", "./data")
	v.SetDefault("storage.block_size", 4096)
	v.SetDefault("storage.buffer_pool_frames", 64)
	v.SetDefault("lock.wait_seconds", 5)
	v.SetDefault("server.debug", false)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("config: read %q: %w", path, err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal %q: %w", path, err)
	}
	return &cfg, nil
}
