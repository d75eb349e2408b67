package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Format identifies the encoding of a config file.
type Format int

const (
	FormatTOML Format = iota
	FormatYAML
)

// FormatFor picks the config format from a file extension. Anything that is
// not .yaml or .yml is read as TOML.
func FormatFor(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatTOML
	}
}

// Config is the top-level configuration.
type Config struct {
	Connection ConnectionConfig `toml:"connection" yaml:"connection"`
	GitHub     GitHubConfig     `toml:"github" yaml:"github"`
	Sync       SyncConfig       `toml:"sync" yaml:"sync"`
	Notify     NotifyConfig     `toml:"notify" yaml:"notify"`
	Dashboard  DashboardConfig  `toml:"dashboard" yaml:"dashboard"`
}

// ConnectionConfig describes the relational store.
type ConnectionConfig struct {
	Driver   string `toml:"driver" yaml:"driver"`
	Host     string `toml:"host" yaml:"host"`
	Port     int    `toml:"port" yaml:"port"`
	Database string `toml:"database" yaml:"database"`
	User     string `toml:"user" yaml:"user"`
	Password string `toml:"password" yaml:"password"`
}

// GitHubConfig holds the organization and authentication settings.
type GitHubConfig struct {
	Organization   string `toml:"organization" yaml:"organization"`
	Token          string `toml:"token" yaml:"token"`
	APIURL         string `toml:"api_url" yaml:"api_url"`
	Auth           string `toml:"auth" yaml:"auth"`
	AppID          string `toml:"app_id" yaml:"app_id"`
	InstallationID string `toml:"installation_id" yaml:"installation_id"`
	PrivateKeyPath string `toml:"private_key_path" yaml:"private_key_path"`
	PrivateKey     string `toml:"private_key" yaml:"private_key"`
}

// SyncConfig holds collector behaviour.
type SyncConfig struct {
	Repos                 []string `toml:"repos" yaml:"repos"`
	Skip                  []string `toml:"skip" yaml:"skip"`
	DelayRaw              string   `toml:"delay" yaml:"delay"`
	RetryWindowRaw        string   `toml:"retry_window" yaml:"retry_window"`
	KeepUnauthoredCommits bool     `toml:"keep_unauthored_commits" yaml:"keep_unauthored_commits"`
	ResolveProfiles       *bool    `toml:"resolve_profiles" yaml:"resolve_profiles"`
}

// NotifyConfig holds notification webhook URLs.
type NotifyConfig struct {
	SlackWebhook   string `toml:"slack_webhook" yaml:"slack_webhook"`
	DiscordWebhook string `toml:"discord_webhook" yaml:"discord_webhook"`
}

// DashboardConfig holds web dashboard settings.
type DashboardConfig struct {
	Addr string `toml:"addr" yaml:"addr"`
}

// Delay returns the pause taken after each processed repository.
func (s SyncConfig) Delay() (time.Duration, error) {
	if s.DelayRaw == "" {
		return 0, nil
	}
	return time.ParseDuration(s.DelayRaw)
}

// RetryWindow returns how long transient store failures are retried.
func (s SyncConfig) RetryWindow() (time.Duration, error) {
	if s.RetryWindowRaw == "" {
		return 30 * time.Second, nil
	}
	return time.ParseDuration(s.RetryWindowRaw)
}

// ProfileLookup reports whether new contributors get their profile fetched.
func (s SyncConfig) ProfileLookup() bool {
	return s.ResolveProfiles == nil || *s.ResolveProfiles
}

// UsesApp reports whether GitHub App installation auth is configured.
func (g GitHubConfig) UsesApp() bool {
	return g.Auth == "app"
}

// envVarPattern matches ${VAR} patterns.
var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// expandEnvVars replaces ${VAR} placeholders with environment variable values.
// Returns an error if any referenced variable is not set.
func expandEnvVars(data []byte) ([]byte, error) {
	var missing []string

	result := envVarPattern.ReplaceAllFunc(data, func(match []byte) []byte {
		varName := envVarPattern.FindSubmatch(match)[1]
		val, ok := os.LookupEnv(string(varName))
		if !ok {
			missing = append(missing, string(varName))
			return match
		}
		return []byte(val)
	})

	if len(missing) > 0 {
		return nil, fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
	}
	return result, nil
}

// Default returns a config with only defaults applied. Used when no config
// file exists and every setting comes from flags.
func Default() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}

// Load reads and parses a config file from the given path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	return Parse(data, FormatFor(path))
}

// Parse parses config from raw bytes, expanding env vars and validating.
func Parse(data []byte, format Format) (*Config, error) {
	expanded, err := expandEnvVars(data)
	if err != nil {
		return nil, err
	}

	var cfg Config
	switch format {
	case FormatYAML:
		if err := yaml.Unmarshal(expanded, &cfg); err != nil {
			return nil, fmt.Errorf("parsing config YAML: %w", err)
		}
	default:
		md, err := toml.Decode(string(expanded), &cfg)
		if err != nil {
			return nil, fmt.Errorf("parsing config TOML: %w", err)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			keys := make([]string, len(undecoded))
			for i, k := range undecoded {
				keys[i] = k.String()
			}
			return nil, fmt.Errorf("unknown config keys: %s", strings.Join(keys, ", "))
		}
	}

	ApplyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return &cfg, nil
}

// Save writes cfg to path as TOML with owner-only permissions.
func Save(path string, cfg *Config) error {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}

// ApplyDefaults fills unset values. It is safe to call more than once.
func ApplyDefaults(cfg *Config) {
	if cfg.Connection.Driver == "" {
		cfg.Connection.Driver = "sqlite"
	}
	if cfg.Connection.Driver == "mysql" {
		if cfg.Connection.Host == "" {
			cfg.Connection.Host = "localhost"
		}
		if cfg.Connection.Port == 0 {
			cfg.Connection.Port = 3306
		}
	}
	if cfg.GitHub.Auth == "" {
		cfg.GitHub.Auth = "token"
	}
	if cfg.Dashboard.Addr == "" {
		cfg.Dashboard.Addr = "localhost:8080"
	}
}

// Validate checks values that are wrong regardless of which command runs.
// Presence of required settings is checked by Require.
func Validate(cfg *Config) error {
	switch cfg.Connection.Driver {
	case "sqlite", "mysql":
	default:
		return fmt.Errorf("unsupported driver %q (want sqlite or mysql)", cfg.Connection.Driver)
	}
	if cfg.Connection.Port < 0 || cfg.Connection.Port > 65535 {
		return fmt.Errorf("invalid port %d", cfg.Connection.Port)
	}

	switch cfg.GitHub.Auth {
	case "token", "app":
	default:
		return fmt.Errorf("unsupported github auth %q (want token or app)", cfg.GitHub.Auth)
	}

	if _, err := cfg.Sync.Delay(); err != nil {
		return fmt.Errorf("invalid delay %q: %w", cfg.Sync.DelayRaw, err)
	}
	if d, err := cfg.Sync.RetryWindow(); err != nil {
		return fmt.Errorf("invalid retry_window %q: %w", cfg.Sync.RetryWindowRaw, err)
	} else if d < 0 {
		return fmt.Errorf("retry_window must not be negative, got %s", d)
	}
	return nil
}

// MissingError lists required settings absent from both flags and the file.
type MissingError struct {
	Fields []string
}

func (e *MissingError) Error() string {
	return "missing required settings: " + strings.Join(e.Fields, ", ")
}

// RequireConnection checks the settings needed to open the store.
func RequireConnection(cfg *Config) error {
	var missing []string
	if cfg.Connection.Database == "" {
		missing = append(missing, "database (-d/--database or [connection] database)")
	}
	if cfg.Connection.Driver == "mysql" {
		if cfg.Connection.User == "" {
			missing = append(missing, "user (-u/--user or [connection] user)")
		}
		if cfg.Connection.Password == "" {
			missing = append(missing, "password (-p/--password or [connection] password)")
		}
	}
	if len(missing) > 0 {
		return &MissingError{Fields: missing}
	}
	return nil
}

// RequireSync checks everything a sync run needs, store settings included.
func RequireSync(cfg *Config) error {
	var missing []string
	if err := RequireConnection(cfg); err != nil {
		missing = append(missing, err.(*MissingError).Fields...)
	}
	if cfg.GitHub.Organization == "" {
		missing = append(missing, "organization (-o/--org or [github] organization)")
	}
	if cfg.GitHub.UsesApp() {
		if cfg.GitHub.AppID == "" {
			missing = append(missing, "app_id ([github] app_id)")
		}
		if cfg.GitHub.InstallationID == "" {
			missing = append(missing, "installation_id ([github] installation_id)")
		}
		if cfg.GitHub.PrivateKey == "" && cfg.GitHub.PrivateKeyPath == "" {
			missing = append(missing, "private key ([github] private_key_path or private_key)")
		}
	} else if cfg.GitHub.Token == "" {
		missing = append(missing, "token (-t/--token or [github] token)")
	}
	if len(missing) > 0 {
		return &MissingError{Fields: missing}
	}
	return nil
}

// ExpandHome replaces a leading ~ with the user's home directory.
func ExpandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(path, "~"))
		}
	}
	return path
}
