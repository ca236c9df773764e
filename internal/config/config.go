// Package config loads host configuration for the storage layer and its
// CLI front end.
package config

// Config is the root configuration structure.
type Config struct {
	Storage StorageConfig `yaml:"storage"`
	Paging  PagingConfig  `yaml:"paging"`
}

// StorageConfig points at the agent data roots and the shared metadata
// database. Empty values fall back to each backend's default location.
type StorageConfig struct {
	ClaudeRoot   string `yaml:"claudeRoot"`
	CodexRoot    string `yaml:"codexRoot"`
	OpenCodeRoot string `yaml:"opencodeRoot"`
	MetaDB       string `yaml:"metaDB"`
}

// PagingConfig controls listing page sizes.
type PagingConfig struct {
	PageLimit int `yaml:"pageLimit"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Paging: PagingConfig{PageLimit: 100},
	}
}

// Validate checks the configuration for values that cannot work.
func (c *Config) Validate() error {
	if c.Paging.PageLimit < 0 {
		c.Paging.PageLimit = 0
	}
	return nil
}
