package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

const defaultConfigTmpl = `# curaq configuration file.

# Base URL of the CuraQ service.
endpoint = "https://curaq.app"

# Directory holding the credential store and logs.
data_dir = %q

# Credential store backend: "file" or "sqlite".
store = "file"

# Where tabs come from: "safari" or "fetch".
browser = "safari"

# How save results are announced: "desktop", "ntfy" or "log".
notifier = "desktop"

# ntfy topic URL, used when notifier = "ntfy".
ntfy_topic = ""

# Pause between injecting the content script and retrying extraction.
settle_delay = "300ms"

log_level = "info"
`

// DefaultEndpoint is the production CuraQ service.
const DefaultEndpoint = "https://curaq.app"

type Config struct {
	Endpoint    string `toml:"endpoint"`
	DataDir     string `toml:"data_dir"`
	Store       string `toml:"store"`
	Browser     string `toml:"browser"`
	Notifier    string `toml:"notifier"`
	NtfyTopic   string `toml:"ntfy_topic"`
	SettleDelay string `toml:"settle_delay"`
	LogLevel    string `toml:"log_level"`
	LogFile     string `toml:"log_file"`
}

// Default returns the configuration used when fields are left unset.
func Default() Config {
	dir, _ := Dir()
	return Config{
		Endpoint:    DefaultEndpoint,
		DataDir:     filepath.Join(dir, "data"),
		Store:       "file",
		Browser:     "safari",
		Notifier:    "desktop",
		SettleDelay: "300ms",
		LogLevel:    "info",
	}
}

// Dir returns the curaq configuration directory (~/.curaq).
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".curaq"), nil
}

// Path returns the path to the curaq config file.
func Path() string {
	dir, _ := Dir()
	return filepath.Join(dir, "curaq.toml")
}

// Load reads the config from ~/.curaq/curaq.toml, creating a default
// config file if one doesn't exist.
func Load() (Config, error) {
	dir, err := Dir()
	if err != nil {
		return Config{}, err
	}
	path := filepath.Join(dir, "curaq.toml")

	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return Config{}, fmt.Errorf("could not create config directory: %w", err)
		}
		contents := fmt.Sprintf(defaultConfigTmpl, filepath.Join(dir, "data"))
		if err := os.WriteFile(path, []byte(contents), 0644); err != nil {
			return Config{}, fmt.Errorf("could not write default config: %w", err)
		}
	}
	return LoadFile(path)
}

// LoadFile reads the config at path, filling unset fields with defaults.
func LoadFile(path string) (Config, error) {
	cfg := Default()
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return Config{}, fmt.Errorf("could not parse %s: %w", path, err)
	}
	if err := cfg.normalize(); err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) normalize() error {
	c.Endpoint = strings.TrimRight(strings.TrimSpace(c.Endpoint), "/")
	if c.Endpoint == "" {
		c.Endpoint = DefaultEndpoint
	}

	// Expand ~ in data_dir and log_file.
	for _, p := range []*string{&c.DataDir, &c.LogFile} {
		expanded, err := expandHome(*p)
		if err != nil {
			return err
		}
		*p = expanded
	}
	if c.LogFile == "" && c.DataDir != "" {
		c.LogFile = filepath.Join(c.DataDir, "curaq.log")
	}

	c.Store = strings.ToLower(strings.TrimSpace(c.Store))
	c.Browser = strings.ToLower(strings.TrimSpace(c.Browser))
	c.Notifier = strings.ToLower(strings.TrimSpace(c.Notifier))

	switch c.Store {
	case "file", "sqlite":
	default:
		return fmt.Errorf("unknown store %q (want file or sqlite)", c.Store)
	}
	switch c.Browser {
	case "safari", "fetch":
	default:
		return fmt.Errorf("unknown browser %q (want safari or fetch)", c.Browser)
	}
	switch c.Notifier {
	case "desktop", "log":
	case "ntfy":
		if strings.TrimSpace(c.NtfyTopic) == "" {
			return fmt.Errorf("notifier is ntfy but ntfy_topic is empty")
		}
	default:
		return fmt.Errorf("unknown notifier %q (want desktop, ntfy or log)", c.Notifier)
	}
	if _, err := c.Settle(); err != nil {
		return err
	}
	return nil
}

// Settle returns the parsed settle_delay.
func (c Config) Settle() (time.Duration, error) {
	if strings.TrimSpace(c.SettleDelay) == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.SettleDelay)
	if err != nil {
		return 0, fmt.Errorf("invalid settle_delay %q: %w", c.SettleDelay, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("settle_delay must not be negative")
	}
	return d, nil
}

func expandHome(p string) (string, error) {
	if len(p) >= 2 && p[:2] == "~/" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("could not determine home directory: %w", err)
		}
		return filepath.Join(home, p[2:]), nil
	}
	return p, nil
}
