package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.toml"))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if cfg.Practice.Mode != nil || cfg.Server.Addr != nil {
		t.Fatalf("expected empty config, got %+v", cfg)
	}
}

func TestLoadConfigSections(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	writeFile(t, path, `
[practice]
mode = "60s"
wordlist = "/tmp/words.txt"

[quotes]
base-url = "http://localhost:9000/api"
timeout = "3s"
retries = 1

[server]
addr = ":9090"
`)
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if *cfg.Practice.Mode != "60s" || *cfg.Practice.WordList != "/tmp/words.txt" {
		t.Fatalf("unexpected practice section: %+v", cfg.Practice)
	}
	if *cfg.Quotes.BaseURL != "http://localhost:9000/api" || *cfg.Quotes.Timeout != "3s" || *cfg.Quotes.Retries != 1 {
		t.Fatalf("unexpected quotes section: %+v", cfg.Quotes)
	}
	if *cfg.Server.Addr != ":9090" {
		t.Fatalf("unexpected server section: %+v", cfg.Server)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
}

func TestLoadConfigUnknownKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	writeFile(t, path, "[practice]\nlang = \"en\"\n")
	if _, err := LoadConfig(path); err == nil || !strings.Contains(err.Error(), "practice.lang") {
		t.Fatalf("expected unknown key error, got %v", err)
	}
}

func TestValidate(t *testing.T) {
	bad := "fast"
	if err := (FileConfig{Practice: PracticeConfig{Mode: &bad}}).Validate(); err == nil {
		t.Fatalf("expected invalid mode error")
	}
	timeout := "-1s"
	if err := (FileConfig{Quotes: QuotesConfig{Timeout: &timeout}}).Validate(); err == nil {
		t.Fatalf("expected invalid timeout error")
	}
	retries := -1
	if err := (FileConfig{Quotes: QuotesConfig{Retries: &retries}}).Validate(); err == nil {
		t.Fatalf("expected invalid retries error")
	}
}

func TestApplyEnvOverridesFile(t *testing.T) {
	fileMode := "30"
	cfg := FileConfig{Practice: PracticeConfig{Mode: &fileMode}}
	env := map[string]string{
		EnvMode:          "quote",
		EnvQuotesRetries: "4",
		EnvServerAddr:    "",
	}
	lookup := func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	}
	if err := ApplyEnv(&cfg, lookup); err != nil {
		t.Fatalf("apply env: %v", err)
	}
	if *cfg.Practice.Mode != "quote" {
		t.Fatalf("expected env mode, got %s", *cfg.Practice.Mode)
	}
	if cfg.Quotes.Retries == nil || *cfg.Quotes.Retries != 4 {
		t.Fatalf("expected env retries")
	}
	if cfg.Server.Addr != nil {
		t.Fatalf("empty env values must not override")
	}
}

func TestApplyEnvServerOrigins(t *testing.T) {
	var cfg FileConfig
	lookup := func(key string) (string, bool) {
		if key == EnvServerOrigins {
			return " http://localhost:5173 , ,https://typing.example.org", true
		}
		return "", false
	}
	if err := ApplyEnv(&cfg, lookup); err != nil {
		t.Fatalf("apply env: %v", err)
	}
	got := strings.Join(cfg.Server.Origins, ",")
	if got != "http://localhost:5173,https://typing.example.org" {
		t.Fatalf("unexpected origins %q", got)
	}
}

func TestApplyEnvBadRetries(t *testing.T) {
	var cfg FileConfig
	lookup := func(key string) (string, bool) {
		if key == EnvQuotesRetries {
			return "many", true
		}
		return "", false
	}
	if err := ApplyEnv(&cfg, lookup); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestLoadReadsDotEnv(t *testing.T) {
	dir := t.TempDir()
	envPath := filepath.Join(dir, ".env")
	writeFile(t, envPath, EnvQuotesTimeout+"=7s\n")
	t.Cleanup(func() {
		_ = os.Unsetenv(EnvQuotesTimeout)
	})

	cfg, err := Load(filepath.Join(dir, "config.toml"), envPath, filepath.Join(dir, "missing.env"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Quotes.Timeout == nil || *cfg.Quotes.Timeout != "7s" {
		t.Fatalf("expected timeout from .env, got %+v", cfg.Quotes)
	}
}

func TestTemplateMentionsSections(t *testing.T) {
	out := Template("15s", "https://example.com/api", 10*time.Second, 2, ":8080")
	for _, want := range []string{"[practice]", "[quotes]", "[server]", `"15s"`, `"10s"`, "retries = 2"} {
		if !strings.Contains(out, want) {
			t.Fatalf("template missing %s:\n%s", want, out)
		}
	}
}

func TestDefaultPaths(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", "/data")
	t.Setenv("XDG_CONFIG_HOME", "/conf")
	if got := DefaultDBPath(); got != filepath.Join("/data", "keyrush", "keyrush.db") {
		t.Fatalf("unexpected db path %s", got)
	}
	if got := DefaultConfigPath(); got != filepath.Join("/conf", "keyrush", "config.toml") {
		t.Fatalf("unexpected config path %s", got)
	}
	if got := DefaultLogPath(); got != filepath.Join("/data", "keyrush", "keyrush.log") {
		t.Fatalf("unexpected log path %s", got)
	}
}
