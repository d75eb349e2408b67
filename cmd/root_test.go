package cmd

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/spf13/pflag"

	"github.com/jacklau/ghstats/internal/config"
)

func withConfigFile(t *testing.T, path string) {
	t.Helper()
	old := cfgFile
	cfgFile = path
	t.Cleanup(func() { cfgFile = old })
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("writing %s: %v", name, err)
	}
	return path
}

func TestLoadConfigWithoutDefaultFile(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	withConfigFile(t, "")

	cfg, err := loadConfig()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if diff := cmp.Diff(config.Default(), cfg); diff != "" {
		t.Errorf("expected defaults (-want +got):\n%s", diff)
	}
}

func TestLoadConfigUsesDefaultFile(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	withConfigFile(t, "")

	dir := filepath.Join(home, ".ghstats")
	if err := os.MkdirAll(dir, 0o700); err != nil {
		t.Fatal(err)
	}
	data := "[github]\norganization = \"acme\"\n"
	if err := os.WriteFile(filepath.Join(dir, "config.toml"), []byte(data), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := loadConfig()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.GitHub.Organization != "acme" {
		t.Errorf("expected organization from the default file, got %q", cfg.GitHub.Organization)
	}
}

func TestLoadConfigExplicitFileMustExist(t *testing.T) {
	withConfigFile(t, filepath.Join(t.TempDir(), "missing.toml"))

	if _, err := loadConfig(); err == nil {
		t.Fatal("expected an error for a missing --config file")
	}
}

func TestConnectionFlagsOverrideFile(t *testing.T) {
	withConfigFile(t, writeFile(t, "c.toml", `
[connection]
driver = "sqlite"
database = "from-file.db"
`))

	tests := []struct {
		name string
		args []string
		want config.ConnectionConfig
	}{
		{
			name: "file only",
			want: config.ConnectionConfig{Driver: "sqlite", Database: "from-file.db"},
		},
		{
			name: "database flag",
			args: []string{"-d", "from-flag.db"},
			want: config.ConnectionConfig{Driver: "sqlite", Database: "from-flag.db"},
		},
		{
			name: "switch to mysql picks up defaults",
			args: []string{"--driver", "mysql", "-u", "bob", "-p", "secret"},
			want: config.ConnectionConfig{
				Driver:   "mysql",
				Host:     "localhost",
				Port:     3306,
				Database: "from-file.db",
				User:     "bob",
				Password: "secret",
			},
		},
		{
			name: "explicit host and port",
			args: []string{"--driver", "mysql", "--host", "db.internal", "--port", "3307"},
			want: config.ConnectionConfig{Driver: "mysql", Host: "db.internal", Port: 3307, Database: "from-file.db"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
			addConnectionFlags(flags)
			if err := flags.Parse(tt.args); err != nil {
				t.Fatalf("parsing flags: %v", err)
			}

			cfg, err := resolveConfig(flags)
			if err != nil {
				t.Fatalf("resolveConfig: %v", err)
			}
			if diff := cmp.Diff(tt.want, cfg.Connection); diff != "" {
				t.Errorf("connection mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestResolveConfigRejectsUnknownDriver(t *testing.T) {
	withConfigFile(t, writeFile(t, "c.toml", ""))

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	addConnectionFlags(flags)
	if err := flags.Parse([]string{"--driver", "postgres"}); err != nil {
		t.Fatal(err)
	}
	if _, err := resolveConfig(flags); err == nil {
		t.Fatal("expected validation error for an unsupported driver")
	}
}

func TestOpenStoreSQLite(t *testing.T) {
	cfg := config.Default()
	cfg.Connection.Database = filepath.Join(t.TempDir(), "ghstats.db")

	db, err := openStore(context.Background(), cfg)
	if err != nil {
		t.Fatalf("openStore: %v", err)
	}
	defer db.Close()

	if db.Driver() != "sqlite" {
		t.Errorf("expected sqlite driver, got %q", db.Driver())
	}
	if _, err := os.Stat(cfg.Connection.Database); err != nil {
		t.Errorf("expected the database file to exist: %v", err)
	}
}

func TestSetupLoggerVerbose(t *testing.T) {
	oldVerbose := verbose
	defer func() { verbose = oldVerbose }()

	verbose = false
	if setupLogger().Enabled(context.Background(), slog.LevelDebug) {
		t.Error("expected debug to be disabled without --verbose")
	}

	verbose = true
	if !setupLogger().Enabled(context.Background(), slog.LevelDebug) {
		t.Error("expected debug to be enabled with --verbose")
	}
}
