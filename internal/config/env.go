package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Environment variables recognized on top of the config file.
const (
	EnvMode          = "KEYRUSH_MODE"
	EnvWordList      = "KEYRUSH_WORDLIST"
	EnvQuotesURL     = "KEYRUSH_QUOTES_URL"
	EnvQuotesTimeout = "KEYRUSH_QUOTES_TIMEOUT"
	EnvQuotesRetries = "KEYRUSH_QUOTES_RETRIES"
	EnvServerAddr    = "KEYRUSH_SERVER_ADDR"
	EnvServerOrigins = "KEYRUSH_SERVER_ORIGINS"
	EnvLogLevel      = "KEYRUSH_LOG_LEVEL"
)

// LoadDotEnv loads variables from the given .env files. Missing files are skipped
// and variables already present in the environment are kept.
func LoadDotEnv(paths ...string) error {
	for _, path := range paths {
		if path == "" {
			continue
		}
		if err := godotenv.Load(path); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("failed to load %s: %w", path, err)
		}
	}
	return nil
}

// ApplyEnv overlays KEYRUSH_* variables onto cfg using lookup, usually os.LookupEnv.
func ApplyEnv(cfg *FileConfig, lookup func(string) (string, bool)) error {
	if lookup == nil {
		lookup = os.LookupEnv
	}
	setString := func(key string, target **string) {
		if v, ok := lookup(key); ok && v != "" {
			*target = &v
		}
	}
	setString(EnvMode, &cfg.Practice.Mode)
	setString(EnvWordList, &cfg.Practice.WordList)
	setString(EnvQuotesURL, &cfg.Quotes.BaseURL)
	setString(EnvQuotesTimeout, &cfg.Quotes.Timeout)
	setString(EnvServerAddr, &cfg.Server.Addr)
	if v, ok := lookup(EnvServerOrigins); ok && v != "" {
		origins := []string{}
		for _, origin := range strings.Split(v, ",") {
			if origin = strings.TrimSpace(origin); origin != "" {
				origins = append(origins, origin)
			}
		}
		cfg.Server.Origins = origins
	}
	if v, ok := lookup(EnvQuotesRetries); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvQuotesRetries, err)
		}
		cfg.Quotes.Retries = &n
	}
	return nil
}

// Load reads the config file, loads .env files and applies the environment on top.
func Load(path string, dotenv ...string) (FileConfig, error) {
	cfg, err := LoadConfig(path)
	if err != nil {
		return FileConfig{}, err
	}
	if err := LoadDotEnv(dotenv...); err != nil {
		return FileConfig{}, err
	}
	if err := ApplyEnv(&cfg, os.LookupEnv); err != nil {
		return FileConfig{}, err
	}
	if err := cfg.Validate(); err != nil {
		return FileConfig{}, err
	}
	return cfg, nil
}
