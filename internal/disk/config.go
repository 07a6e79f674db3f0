package disk

import (
	"fmt"

	"github.com/spf13/viper"
)

// ImageConfig holds configuration for opening volume images
type ImageConfig struct {
	AutoDetect    bool  `mapstructure:"auto_detect"`
	DefaultOffset int64 `mapstructure:"default_offset"`
	CacheEnabled  bool  `mapstructure:"cache_enabled"`
	CacheSize     int   `mapstructure:"cache_size"`
	ChunkSize     int   `mapstructure:"chunk_size"`
}

// DefaultImageConfig returns the configuration used when no file or environment sets one
func DefaultImageConfig() *ImageConfig {
	return &ImageConfig{
		AutoDetect:    true,
		DefaultOffset: 0,
		CacheEnabled:  true,
		CacheSize:     64,
		ChunkSize:     64 * 1024,
	}
}

// SetDefaults registers the image configuration defaults on v
func SetDefaults(v *viper.Viper) {
	d := DefaultImageConfig()
	v.SetDefault("auto_detect", d.AutoDetect)
	v.SetDefault("default_offset", d.DefaultOffset)
	v.SetDefault("cache_enabled", d.CacheEnabled)
	v.SetDefault("cache_size", d.CacheSize)
	v.SetDefault("chunk_size", d.ChunkSize)
}

// LoadImageConfig loads image configuration using Viper. A file set on v with
// SetConfigFile is read as is; otherwise hfsplus-config.yaml is searched for and a missing
// file is not an error. Environment variables prefixed HFSPLUS_ override file values.
func LoadImageConfig(v *viper.Viper) (*ImageConfig, error) {
	if v == nil {
		v = viper.New()
	}
	// keep a file chosen with SetConfigFile; SetConfigName would clear it
	if v.ConfigFileUsed() == "" {
		v.SetConfigName("hfsplus-config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("$HOME/.hfsplus")
		v.AddConfigPath("/etc/hfsplus")
	}

	SetDefaults(v)

	v.SetEnvPrefix("HFSPLUS")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config ImageConfig
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if config.ChunkSize <= 0 {
		return nil, fmt.Errorf("chunk_size must be positive, got %d", config.ChunkSize)
	}
	return &config, nil
}
