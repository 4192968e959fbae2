package config

import (
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	cfg := Load()

	assert.Equal(t, 2, cfg.Depth)
	assert.Equal(t, 20, cfg.MaxNodes)
	assert.Equal(t, 10, cfg.MaxChunks)
	assert.False(t, cfg.Verbose)
	assert.Contains(t, cfg.GraphDB, "graph.db")
	assert.Contains(t, cfg.CacheDB, "cache.db")
}

func TestLoadOverrides(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	viper.Set("graph_db", "/tmp/custom.db")
	viper.Set("depth", 4)

	cfg := Load()
	assert.Equal(t, "/tmp/custom.db", cfg.GraphDB)
	assert.Equal(t, 4, cfg.Depth)
	assert.Equal(t, 20, cfg.MaxNodes, "unset values keep defaults")
}
