package cmd

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jacklau/ghstats/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Interactive setup for ghstats configuration",
	Long:  `Creates a configuration file with guided prompts.`,
	Args:  cobra.NoArgs,
	RunE:  runInit,
}

func init() {
	rootCmd.AddCommand(initCmd)
}

// prompter asks one question per line and falls back to a default on an
// empty answer.
type prompter struct {
	in  *bufio.Reader
	out io.Writer
}

func (p *prompter) ask(question, def string) string {
	if def != "" {
		fmt.Fprintf(p.out, "%s [%s]: ", question, def)
	} else {
		fmt.Fprintf(p.out, "%s (or press Enter to skip): ", question)
	}
	answer, _ := p.in.ReadString('\n')
	answer = strings.TrimSpace(answer)
	if answer == "" {
		return def
	}
	return answer
}

func runInit(cmd *cobra.Command, args []string) error {
	p := &prompter{in: bufio.NewReader(cmd.InOrStdin()), out: cmd.OutOrStdout()}
	out := cmd.OutOrStdout()

	fmt.Fprintln(out, "Welcome to ghstats setup!")
	fmt.Fprintln(out, "This will create a configuration file for you.")
	fmt.Fprintln(out)

	configPath := cfgFile
	if configPath == "" {
		configPath = defaultConfigPath()
	}
	configPath = config.ExpandHome(configPath)

	if _, err := os.Stat(configPath); err == nil {
		fmt.Fprintf(out, "Config file already exists at %s\n", configPath)
		answer := strings.ToLower(p.ask("Overwrite? y/N", "n"))
		if answer != "y" && answer != "yes" {
			fmt.Fprintln(out, "Aborted.")
			return nil
		}
	}

	cfg, err := promptConfig(p)
	if err != nil {
		return err
	}
	if err := config.Save(configPath, cfg); err != nil {
		return err
	}

	fmt.Fprintf(out, "\nConfig written to %s\n", configPath)
	fmt.Fprintln(out, "Placeholders like ${GITHUB_TOKEN} are read from the environment when the file is loaded.")
	return nil
}

func promptConfig(p *prompter) (*config.Config, error) {
	cfg := &config.Config{}
	cfg.GitHub.Organization = p.ask("GitHub organization", "")
	cfg.GitHub.Token = p.ask("GitHub token", "${GITHUB_TOKEN}")

	c := &cfg.Connection
	c.Driver = p.ask("Store driver (sqlite/mysql)", "sqlite")
	switch c.Driver {
	case "sqlite":
		c.Database = p.ask("Database file", "~/.ghstats/ghstats.db")
	case "mysql":
		c.Host = p.ask("Database host", "localhost")
		port, err := strconv.Atoi(p.ask("Database port", "3306"))
		if err != nil {
			return nil, fmt.Errorf("invalid port: %w", err)
		}
		c.Port = port
		c.Database = p.ask("Database name", "ghstats")
		c.User = p.ask("Database user", "ghstats")
		c.Password = p.ask("Database password", "${GHSTATS_DB_PASSWORD}")
	default:
		return nil, fmt.Errorf("unsupported driver %q (want sqlite or mysql)", c.Driver)
	}

	cfg.Notify.SlackWebhook = p.ask("Slack webhook URL", "")
	cfg.Notify.DiscordWebhook = p.ask("Discord webhook URL", "")

	config.ApplyDefaults(cfg)
	return cfg, nil
}
