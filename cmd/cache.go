package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect or clear the context bundle cache",
}

var cacheStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print entry counts and hit/miss counters",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		o, _, cleanup, err := openOracle()
		if err != nil {
			return err
		}
		defer cleanup()

		stats, err := o.CacheStats(cmd.Context())
		if err != nil {
			return err
		}
		return printJSON(stats)
	},
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Drop cached bundles from both tiers",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		o, _, cleanup, err := openOracle()
		if err != nil {
			return err
		}
		defer cleanup()

		if ref, _ := cmd.Flags().GetString("ref"); ref != "" {
			if err := o.InvalidateRef(cmd.Context(), ref); err != nil {
				return err
			}
			fmt.Printf("cleared cached bundles mentioning %q\n", ref)
			return nil
		}
		if err := o.InvalidateAll(cmd.Context()); err != nil {
			return err
		}
		fmt.Println("cache cleared")
		return nil
	},
}

func init() {
	cacheClearCmd.Flags().String("ref", "", "only clear bundles whose key mentions this ref id")
	cacheCmd.AddCommand(cacheStatsCmd)
	cacheCmd.AddCommand(cacheClearCmd)
	rootCmd.AddCommand(cacheCmd)
}
