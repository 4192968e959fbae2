package cmd

import (
	"github.com/spf13/cobra"

	"archmap/internal/impact"
)

var whyCmd = &cobra.Command{
	Use:   "why <ref-id>",
	Short: "Show what a node depends on and what would break if it changed",
	Long: "why walks the graph in both directions from a node: upstream along outgoing\n" +
		"edges (what it needs) and downstream along incoming edges (what needs it),\n" +
		"and reports blast-radius metrics for the downstream set.",
	Args: cobra.ExactArgs(1),
	RunE: runWhy,
}

func init() {
	whyCmd.Flags().Int("depth", 0, "tree depth per direction (default 3)")
	whyCmd.Flags().Int("max-nodes", 0, "node budget per direction (default 50)")
	whyCmd.Flags().Bool("reverse", false, "emphasize dependencies; downstream depth is halved")
	rootCmd.AddCommand(whyCmd)
}

func runWhy(cmd *cobra.Command, args []string) error {
	o, _, cleanup, err := openOracle()
	if err != nil {
		return err
	}
	defer cleanup()

	opts := impact.DefaultOptions()
	if d, _ := cmd.Flags().GetInt("depth"); d > 0 {
		opts.Depth = d
	}
	if n, _ := cmd.Flags().GetInt("max-nodes"); n > 0 {
		opts.MaxNodes = n
	}
	opts.Reverse, _ = cmd.Flags().GetBool("reverse")

	res, err := o.AnalyzeNode(cmd.Context(), args[0], opts)
	if err != nil {
		return renderNotFound(err)
	}
	return printJSON(res)
}
