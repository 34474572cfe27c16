package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	configFile string
	quiet      bool
)

// Version is stamped by the build; the default marks local builds.
var Version = "0.1.0-dev"

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "poold",
	Short: "poold - staking-aware liquidity pool daemon",
	Long: `poold runs a constant-product liquidity pool whose base-asset reserve
is delegated to a staking provider. It keeps a small spendable buffer for
swaps, queues time-locked withdrawals, and compounds staking rewards back
into the pool. State is persisted through a pluggable key-value backend and
every pool event is journaled to a relational history store.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	rootCmd.Version = Version
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "conf", "", "configuration file path")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress output to console after startup")
}
