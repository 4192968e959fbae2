// Package config holds runtime configuration for archmap. Values come from
// .archmap.yaml, ARCHMAP_* environment variables, and CLI flags, in that
// order of increasing precedence.
package config

import (
	"path/filepath"

	"github.com/spf13/viper"

	"archmap/util"
)

// Config is the resolved runtime configuration.
type Config struct {
	GraphDB   string `mapstructure:"graph_db"`
	CacheDB   string `mapstructure:"cache_db"`
	DocsDir   string `mapstructure:"docs_dir"`
	Depth     int    `mapstructure:"depth"`
	MaxNodes  int    `mapstructure:"max_nodes"`
	MaxChunks int    `mapstructure:"max_chunks"`
	Verbose   bool   `mapstructure:"verbose"`
}

// Load reads configuration from viper, applying built-in defaults for any
// values not set by config file, environment, or flags. Relative defaults
// resolve against the enclosing git repository when one exists.
func Load() Config {
	root, err := util.FindGitRoot(".")
	if err != nil {
		root = "."
	}

	viper.SetDefault("graph_db", filepath.Join(root, ".archmap", "graph.db"))
	viper.SetDefault("cache_db", filepath.Join(root, ".archmap", "cache.db"))
	viper.SetDefault("docs_dir", filepath.Join(root, "docs"))
	viper.SetDefault("depth", 2)
	viper.SetDefault("max_nodes", 20)
	viper.SetDefault("max_chunks", 10)
	viper.SetDefault("verbose", false)

	var cfg Config
	_ = viper.Unmarshal(&cfg)
	return cfg
}
