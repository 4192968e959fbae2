package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"archmap/internal/bundle"
	"archmap/internal/graph"
)

var contextCmd = &cobra.Command{
	Use:   "context <ref-id> [ref-id...]",
	Short: "Assemble a context bundle around one or more focus nodes",
	Long: "context runs a bounded graph traversal from the given focus nodes and prints\n" +
		"the resulting bundle as JSON: subgraph, documentation chunks, code symbols,\n" +
		"sync status, and applicable constraints.",
	Args: cobra.MinimumNArgs(1),
	RunE: runContext,
}

func init() {
	contextCmd.Flags().Int("depth", 0, "traversal depth (default from config)")
	contextCmd.Flags().Int("max-nodes", 0, "node budget (default from config)")
	contextCmd.Flags().Int("max-chunks", 0, "documentation chunk budget (default from config)")
	contextCmd.Flags().Bool("no-cache", false, "bypass the bundle cache")
	rootCmd.AddCommand(contextCmd)
}

func runContext(cmd *cobra.Command, args []string) error {
	o, cfg, cleanup, err := openOracle()
	if err != nil {
		return err
	}
	defer cleanup()

	opts := bundle.Options{Depth: cfg.Depth, MaxNodes: cfg.MaxNodes, MaxChunks: cfg.MaxChunks}
	if d, _ := cmd.Flags().GetInt("depth"); d > 0 {
		opts.Depth = d
	}
	if n, _ := cmd.Flags().GetInt("max-nodes"); n > 0 {
		opts.MaxNodes = n
	}
	if c, _ := cmd.Flags().GetInt("max-chunks"); c > 0 {
		opts.MaxChunks = c
	}

	var b *bundle.ContextBundle
	if noCache, _ := cmd.Flags().GetBool("no-cache"); noCache {
		b, err = o.BuildContextUncached(cmd.Context(), args, opts)
	} else {
		b, err = o.BuildContext(cmd.Context(), args, opts)
	}
	if err != nil {
		return renderNotFound(err)
	}

	etag, err := bundle.ETag(b)
	if err != nil {
		return fmt.Errorf("compute etag: %w", err)
	}
	fmt.Fprintf(os.Stderr, "etag: %s\n", etag)

	return printJSON(b)
}

// renderNotFound expands a NotFoundError into a multi-line message with its
// suggestions; everything else passes through untouched.
func renderNotFound(err error) error {
	var nf *graph.NotFoundError
	if !errors.As(err, &nf) {
		return err
	}
	if len(nf.Suggestions) == 0 {
		return fmt.Errorf("node %q not found", nf.RefID)
	}
	msg := fmt.Sprintf("node %q not found; did you mean:", nf.RefID)
	for _, s := range nf.Suggestions {
		msg += "\n  " + s
	}
	return errors.New(msg)
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
