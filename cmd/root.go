package cmd

import (
	"context"

	"github.com/mevkit/chainswap/utils"

	"github.com/spf13/cobra"
)

var (
	cfgFile string
	debug   bool
)

var rootCmd = &cobra.Command{
	Use:   "chainswap",
	Short: "A multi-hop swap execution engine",
	Long: `A multi-hop swap execution engine that drives a chain of token swaps
across liquidity venues, validating reserves and received amounts at every
hop, and optionally hands the final output to a cross-chain bridge.`,
}

func Execute() error {
	return rootCmd.Execute()
}

func ExecuteContext(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default from CHAINSWAP_CONFIG)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
}

func initConfig() {
	utils.InitLogger(debug)
}
