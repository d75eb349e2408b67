package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jacklau/ghstats/internal/config"
	"github.com/jacklau/ghstats/internal/explorer"
)

var exploreCmd = &cobra.Command{
	Use:   "explore",
	Short: "Browse the collected statistics in an interactive shell",
	Long: `Explore opens a read-only shell over the store. Type "ls" to list
repositories, "use <name>" to pick one and "help" for every command.`,
	Args: cobra.NoArgs,
	RunE: runExplore,
}

func init() {
	rootCmd.AddCommand(exploreCmd)
}

func runExplore(cmd *cobra.Command, args []string) error {
	logger := setupLogger()

	cfg, err := resolveConfig(cmd.Flags())
	if err != nil {
		return err
	}
	if err := config.RequireConnection(cfg); err != nil {
		return usageError(cmd, err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	logger.Debug("explorer session started", "driver", db.Driver())
	if err := explorer.New(db, cmd.OutOrStdout()).Run(ctx, cmd.InOrStdin()); err != nil {
		return fmt.Errorf("explorer: %w", err)
	}
	return nil
}
