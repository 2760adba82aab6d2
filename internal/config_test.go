package internal

import (
	"os"
	"path/filepath"
	"testing"
)

// TestLoadConfigDefaults tests that the default values are applied correctly when loading a config.
func TestLoadConfigDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "app.yaml")
	if err := os.WriteFile(path, []byte("{}\n"), 0o600); err != nil {
		t.Fatalf("write app config: %v", err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}

	if cfg.AppConfig.Server.Port != 8080 {
		t.Fatalf("expected default port 8080, got %d", cfg.AppConfig.Server.Port)
	}
	if cfg.AppConfig.Providers.GitHub.Path != "/webhooks/github/" {
		t.Fatalf("expected default github path, got %q", cfg.AppConfig.Providers.GitHub.Path)
	}
	if cfg.AppConfig.Providers.GitLab.Path != "/webhooks/gitlab/" {
		t.Fatalf("expected default gitlab path, got %q", cfg.AppConfig.Providers.GitLab.Path)
	}
	if cfg.AppConfig.Providers.Bitbucket.Path != "/webhooks/bitbucket/" {
		t.Fatalf("expected default bitbucket path, got %q", cfg.AppConfig.Providers.Bitbucket.Path)
	}
	if cfg.AppConfig.Storage.Driver != "sqlite" {
		t.Fatalf("expected default storage driver sqlite, got %q", cfg.AppConfig.Storage.Driver)
	}
	if cfg.AppConfig.Watermill.Driver != "gochannel" {
		t.Fatalf("expected default watermill driver, got %q", cfg.AppConfig.Watermill.Driver)
	}
	if len(cfg.AppConfig.Watermill.Drivers) != 0 {
		t.Fatalf("expected no default drivers, got %v", cfg.AppConfig.Watermill.Drivers)
	}
	if cfg.AppConfig.Watermill.GoChannel.OutputChannelBuffer != 64 {
		t.Fatalf("expected default gochannel output buffer, got %d", cfg.AppConfig.Watermill.GoChannel.OutputChannelBuffer)
	}
	if cfg.AppConfig.Watermill.HTTP.Mode != "topic_url" {
		t.Fatalf("expected default http mode topic_url, got %q", cfg.AppConfig.Watermill.HTTP.Mode)
	}
	if cfg.AppConfig.Watermill.RiverQueue.Kind != "chathooks.line" {
		t.Fatalf("expected default riverqueue kind, got %q", cfg.AppConfig.Watermill.RiverQueue.Kind)
	}
}

// TestLoadConfigInvalidRule tests that loading a config with an invalid rule returns an error.
func TestLoadConfigInvalidRule(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := "rules:\n  - when: repository.name == \"notifico\"\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write rules config: %v", err)
	}

	if _, err := LoadConfig(path); err == nil {
		t.Fatalf("expected error for missing topic")
	}
}

// TestLoadConfigTrimsFields tests that the fields in a rule are trimmed correctly.
func TestLoadConfigTrimsFields(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := "rules:\n  - when: \"  forced == true  \"\n    topic: \"  lines.forced  \"\n    drivers: [\" amqp \", \"\"]\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write rules config: %v", err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("load rules config: %v", err)
	}
	if cfg.Rules[0].When != "forced == true" {
		t.Fatalf("expected trimmed when, got %q", cfg.Rules[0].When)
	}
	if cfg.Rules[0].Topic != "lines.forced" {
		t.Fatalf("expected trimmed topic, got %q", cfg.Rules[0].Topic)
	}
	if len(cfg.Rules[0].Drivers) != 1 || cfg.Rules[0].Drivers[0] != "amqp" {
		t.Fatalf("expected trimmed drivers, got %v", cfg.Rules[0].Drivers)
	}
}

// TestLoadConfigExpandsEnv tests that ${VAR} references in the file are
// expanded from the environment.
func TestLoadConfigExpandsEnv(t *testing.T) {
	t.Setenv("CHATHOOKS_TEST_SECRET", "hunter2")
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := "providers:\n  github:\n    secret: ${CHATHOOKS_TEST_SECRET}\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.Providers.GitHub.Secret != "hunter2" {
		t.Fatalf("expected expanded secret, got %q", cfg.Providers.GitHub.Secret)
	}
}
