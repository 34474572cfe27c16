package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ghostpool/gopoold/internal/config"
	"github.com/ghostpool/gopoold/internal/server"
)

// serverCmd represents the server command (default action)
var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the pool daemon",
	Long: `Start the poold server which provides:
- HTTP JSON-RPC API for pool operations and views
- Health check endpoint
- Periodic pool state snapshots
- Event journaling to the history store

This is the default command when no subcommand is specified.`,
	RunE: runServer,
}

func init() {
	rootCmd.AddCommand(serverCmd)

	// Set server as the default command
	rootCmd.RunE = func(cmd *cobra.Command, args []string) error {
		return serverCmd.RunE(cmd, args)
	}
}

func runServer(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configFile)
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	node, err := server.New(ctx, cfg, Version)
	if err != nil {
		return err
	}
	defer node.Close()

	if !quiet {
		fmt.Printf("poold %s\n", Version)
		fmt.Printf("  - JSON-RPC:     http://%s:%d/\n", cfg.Server.IP, cfg.Server.Port)
		fmt.Printf("  - Health check: http://%s:%d/health\n", cfg.Server.IP, cfg.Server.Port)
		fmt.Printf("  - Storage:      %s (%s)\n", cfg.Storage.Backend, cfg.Storage.Path)
		fmt.Printf("  - History:      %s (%s)\n", cfg.History.Driver, cfg.History.DSN)
	}

	return node.Run(ctx)
}
