package cmd

import (
	"bufio"
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"

	"github.com/jacklau/ghstats/internal/config"
)

func newTestInitCmd(input string) (*cobra.Command, *bytes.Buffer) {
	var out bytes.Buffer
	c := &cobra.Command{Use: "init"}
	c.SetIn(strings.NewReader(input))
	c.SetOut(&out)
	return c, &out
}

func TestRunInitWritesLoadableConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	withConfigFile(t, path)
	t.Setenv("GITHUB_TOKEN", "secret")

	// organization, then defaults for token, driver and database, no webhooks
	c, out := newTestInitCmd("acme\n\n\n\n\n\n")
	if err := runInit(c, nil); err != nil {
		t.Fatalf("runInit: %v", err)
	}
	if !strings.Contains(out.String(), "Config written to "+path) {
		t.Errorf("unexpected output:\n%s", out.String())
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("config not written: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Errorf("expected 0600 permissions, got %o", perm)
	}

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("loading written config: %v", err)
	}
	if cfg.GitHub.Organization != "acme" || cfg.GitHub.Token != "secret" {
		t.Errorf("unexpected github settings %+v", cfg.GitHub)
	}
	if cfg.Connection.Driver != "sqlite" || cfg.Connection.Database != "~/.ghstats/ghstats.db" {
		t.Errorf("unexpected connection settings %+v", cfg.Connection)
	}
}

func TestRunInitKeepsExistingFile(t *testing.T) {
	path := writeFile(t, "config.toml", "# mine\n")
	withConfigFile(t, path)

	c, out := newTestInitCmd("\n")
	if err := runInit(c, nil); err != nil {
		t.Fatalf("runInit: %v", err)
	}
	if !strings.Contains(out.String(), "Aborted.") {
		t.Errorf("expected the run to abort:\n%s", out.String())
	}
	data, _ := os.ReadFile(path)
	if string(data) != "# mine\n" {
		t.Errorf("existing config was modified: %q", data)
	}
}

func TestPromptConfigMySQL(t *testing.T) {
	input := strings.Join([]string{"acme", "tok", "mysql", "db.internal", "", "stats", "bob", "pw", "", "https://discord.com/api/webhooks/x"}, "\n") + "\n"
	p := &prompter{in: bufio.NewReader(strings.NewReader(input)), out: new(bytes.Buffer)}

	cfg, err := promptConfig(p)
	if err != nil {
		t.Fatalf("promptConfig: %v", err)
	}
	want := config.ConnectionConfig{Driver: "mysql", Host: "db.internal", Port: 3306, Database: "stats", User: "bob", Password: "pw"}
	if cfg.Connection != want {
		t.Errorf("connection = %+v, want %+v", cfg.Connection, want)
	}
	if cfg.Notify.SlackWebhook != "" || cfg.Notify.DiscordWebhook != "https://discord.com/api/webhooks/x" {
		t.Errorf("unexpected notify settings %+v", cfg.Notify)
	}
}

func TestPromptConfigRejectsUnknownDriver(t *testing.T) {
	p := &prompter{in: bufio.NewReader(strings.NewReader("acme\n\npostgres\n")), out: new(bytes.Buffer)}
	if _, err := promptConfig(p); err == nil {
		t.Fatal("expected an error for an unsupported driver")
	}
}
