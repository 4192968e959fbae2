package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"archmap/internal/cache"
	"archmap/internal/config"
	"archmap/internal/oracle"
	"archmap/internal/store"
)

var rootCmd = &cobra.Command{
	Use:   "archmap",
	Short: "Queryable architecture graph with bounded context bundles",
	Long: "archmap serves context bundles, bounded and prioritized slices of an\n" +
		"architecture graph together with cross-referenced documentation, code\n" +
		"symbols, and health metadata, to humans on the command line and to\n" +
		"agents over MCP.",
	SilenceUsage: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default .archmap.yaml)")
	rootCmd.PersistentFlags().String("graph-db", "", "path to the graph database")
	rootCmd.PersistentFlags().String("cache-db", "", "path to the bundle cache database")
	rootCmd.PersistentFlags().String("docs-dir", "", "documentation directory for freshness signals")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "verbose output")

	_ = viper.BindPFlag("graph_db", rootCmd.PersistentFlags().Lookup("graph-db"))
	_ = viper.BindPFlag("cache_db", rootCmd.PersistentFlags().Lookup("cache-db"))
	_ = viper.BindPFlag("docs_dir", rootCmd.PersistentFlags().Lookup("docs-dir"))
	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
}

func initConfig() {
	if cfgFile, _ := rootCmd.Flags().GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName(".archmap")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(home)
		}
	}

	viper.SetEnvPrefix("ARCHMAP")
	viper.AutomaticEnv()

	// It's fine if no config file is found; we use defaults.
	_ = viper.ReadInConfig()
}

func newLogger(cfg config.Config) *slog.Logger {
	level := slog.LevelInfo
	if cfg.Verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// openOracle builds the oracle and its collaborators from configuration.
// The returned func releases the store and cache.
func openOracle() (*oracle.Oracle, config.Config, func(), error) {
	cfg := config.Load()
	log := newLogger(cfg)

	if err := os.MkdirAll(filepath.Dir(cfg.CacheDB), 0o755); err != nil {
		return nil, cfg, nil, fmt.Errorf("create cache directory: %w", err)
	}

	st, err := store.Open(cfg.GraphDB)
	if err != nil {
		return nil, cfg, nil, err
	}

	c, err := cache.New(cfg.CacheDB, log)
	if err != nil {
		st.Close()
		return nil, cfg, nil, err
	}

	o := oracle.New(oracle.Config{
		Store:   st,
		Cache:   c,
		Signals: oracle.FileSignals(cfg.GraphDB, cfg.DocsDir),
		Log:     log,
	})

	cleanup := func() {
		c.Close()
		st.Close()
	}
	return o, cfg, cleanup, nil
}
