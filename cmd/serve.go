package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"archmap/internal/oracle"
	"archmap/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve context bundles over MCP on stdio",
	Long: "serve exposes get_context, why, cache_stats, and clear_cache as MCP tools on\n" +
		"stdin/stdout. With --watch, changes to the graph database or the docs\n" +
		"directory invalidate the bundle cache as they happen.",
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().Bool("watch", false, "watch the graph db and docs dir, invalidating the cache on change")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	o, cfg, cleanup, err := openOracle()
	if err != nil {
		return err
	}
	defer cleanup()

	log := newLogger(cfg)

	if watch, _ := cmd.Flags().GetBool("watch"); watch {
		w, err := oracle.NewWatcher(o, cfg.GraphDB, cfg.DocsDir)
		if err != nil {
			return err
		}
		if err := w.Start(); err != nil {
			return err
		}
		defer w.Stop()
		log.Info("watching for changes", "graph_db", cfg.GraphDB, "docs_dir", cfg.DocsDir)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info("serving MCP on stdio", "version", server.Version)
	return server.New(o, log).Run(ctx)
}
