package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jacklau/ghstats/internal/config"
	"github.com/jacklau/ghstats/internal/dashboard"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the read-only web dashboard",
	Long: `Serve renders repository, branch, release and contributor pages from
the store, with a CSV export of the latest releases.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from [dashboard] addr, localhost:8080)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	logger := setupLogger()

	cfg, err := resolveConfig(cmd.Flags())
	if err != nil {
		return err
	}
	if err := config.RequireConnection(cfg); err != nil {
		return usageError(cmd, err)
	}
	addr := cfg.Dashboard.Addr
	if serveAddr != "" {
		addr = serveAddr
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	srv, err := dashboard.New(db, logger)
	if err != nil {
		return fmt.Errorf("creating dashboard: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Dashboard at http://%s/\n", addr)
	if err := srv.ListenAndServe(ctx, addr); err != nil {
		return err
	}
	logger.Info("dashboard stopped")
	return nil
}
