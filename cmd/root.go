package cmd

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/jacklau/ghstats/internal/config"
	"github.com/jacklau/ghstats/internal/store"
)

var (
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "ghstats",
	Short: "Collect GitHub organization statistics into a SQL store",
	Long: `ghstats mirrors the repositories, branches, commits, tags, issues and
comments of a GitHub organization into SQLite or MySQL, and lets you
browse the collected data from a shell or a small web dashboard.`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", fmt.Sprintf("config file (default %s)", defaultConfigPath()))
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	addConnectionFlags(rootCmd.PersistentFlags())
}

// addConnectionFlags registers the store connection flags. Values set on the
// command line take precedence over the [connection] table.
func addConnectionFlags(flags *pflag.FlagSet) {
	flags.String("driver", "", "store driver: sqlite or mysql")
	flags.String("host", "", "database host (mysql)")
	flags.Int("port", 0, "database port (mysql)")
	flags.StringP("database", "d", "", "database file (sqlite) or schema name (mysql)")
	flags.StringP("user", "u", "", "database user (mysql)")
	flags.StringP("password", "p", "", "database password (mysql)")
}

func defaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".ghstats", "config.toml")
	}
	return filepath.Join(home, ".ghstats", "config.toml")
}

func setupLogger() *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	return slog.New(handler)
}

// loadConfig reads the file named by --config. Without the flag the default
// path is used when it exists, and an all-defaults config otherwise.
func loadConfig() (*config.Config, error) {
	path := cfgFile
	if path == "" {
		path = defaultConfigPath()
		if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
			return config.Default(), nil
		}
	}
	return config.Load(config.ExpandHome(path))
}

// resolveConfig loads the config file and lays the connection flags over it.
func resolveConfig(flags *pflag.FlagSet) (*config.Config, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	applyConnectionFlags(flags, cfg)
	config.ApplyDefaults(cfg)
	if err := config.Validate(cfg); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}
	return cfg, nil
}

func applyConnectionFlags(flags *pflag.FlagSet, cfg *config.Config) {
	c := &cfg.Connection
	if flags.Changed("driver") {
		c.Driver, _ = flags.GetString("driver")
	}
	if flags.Changed("host") {
		c.Host, _ = flags.GetString("host")
	}
	if flags.Changed("port") {
		c.Port, _ = flags.GetInt("port")
	}
	if flags.Changed("database") {
		c.Database, _ = flags.GetString("database")
	}
	if flags.Changed("user") {
		c.User, _ = flags.GetString("user")
	}
	if flags.Changed("password") {
		c.Password, _ = flags.GetString("password")
	}
}

// openStore connects to the configured store and ensures its schema.
func openStore(ctx context.Context, cfg *config.Config) (*store.DB, error) {
	window, err := cfg.Sync.RetryWindow()
	if err != nil {
		return nil, fmt.Errorf("invalid retry_window: %w", err)
	}
	c := cfg.Connection
	database := c.Database
	if c.Driver == "sqlite" {
		database = config.ExpandHome(database)
	}
	db, err := store.OpenConfig(ctx, store.Config{
		Driver:      c.Driver,
		Database:    database,
		Host:        c.Host,
		Port:        c.Port,
		User:        c.User,
		Password:    c.Password,
		RetryWindow: window,
	})
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}
	return db, nil
}

// usageError prints the command usage before returning err, so a missing
// setting is reported next to the flags that provide it.
func usageError(cmd *cobra.Command, err error) error {
	fmt.Fprintln(cmd.ErrOrStderr(), cmd.UsageString())
	return err
}
