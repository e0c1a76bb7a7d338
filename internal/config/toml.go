// Package config provides configuration loading: TOML file, environment and XDG paths.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/verte-zerg/keyrush/internal/model"
)

// FileConfig represents the TOML configuration file.
type FileConfig struct {
	Practice PracticeConfig `toml:"practice"`
	Quotes   QuotesConfig   `toml:"quotes"`
	Server   ServerConfig   `toml:"server"`
}

// PracticeConfig maps typing test settings.
type PracticeConfig struct {
	Mode     *string `toml:"mode"`
	WordList *string `toml:"wordlist"`
}

// QuotesConfig maps quote API settings.
type QuotesConfig struct {
	BaseURL *string `toml:"base-url"`
	Timeout *string `toml:"timeout"`
	Retries *int    `toml:"retries"`
}

// ServerConfig maps HTTP server settings.
type ServerConfig struct {
	Addr    *string  `toml:"addr"`
	// Origins lists extra browser origins allowed to open session sockets.
	Origins []string `toml:"origins"`
}

// LoadConfig reads a TOML config from the given path. Missing file is not an error.
func LoadConfig(path string) (FileConfig, error) {
	if path == "" {
		return FileConfig{}, fmt.Errorf("config path is empty")
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, nil
		}
		return FileConfig{}, fmt.Errorf("failed to stat config: %w", err)
	}
	var cfg FileConfig
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return FileConfig{}, fmt.Errorf("failed to decode config: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return FileConfig{}, fmt.Errorf("unknown config key %q", undecoded[0].String())
	}
	return cfg, nil
}

// Validate checks values that can be checked without I/O.
func (c FileConfig) Validate() error {
	if c.Practice.Mode != nil {
		if _, err := model.ParseMode(*c.Practice.Mode); err != nil {
			return fmt.Errorf("practice.mode: %w", err)
		}
	}
	if c.Quotes.Timeout != nil {
		d, err := time.ParseDuration(*c.Quotes.Timeout)
		if err != nil {
			return fmt.Errorf("quotes.timeout: %w", err)
		}
		if d <= 0 {
			return fmt.Errorf("quotes.timeout must be > 0")
		}
	}
	if c.Quotes.Retries != nil && *c.Quotes.Retries < 0 {
		return fmt.Errorf("quotes.retries must be >= 0")
	}
	return nil
}

// Template renders a commented config file with the given defaults.
func Template(mode string, baseURL string, timeout time.Duration, retries int, addr string) string {
	return fmt.Sprintf(`# keyrush configuration
# Uncomment a value to enable it. Precedence: CLI flags, then KEYRUSH_* environment, then this file.

[practice]
# mode = %q                # One of: 30, 60, 90, 15s, 30s, 60s, quote
# wordlist = ""            # Custom word list, one word per line

[quotes]
# base-url = %q
# timeout = %q
# retries = %d

[server]
# addr = %q
# origins = []             # Extra browser origins allowed to open /ws/session, e.g. ["http://localhost:5173"]
`, mode, baseURL, timeout.String(), retries, addr)
}
