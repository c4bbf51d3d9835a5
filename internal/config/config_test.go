package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("SMTP_HOST", "smtp.example.com")
	t.Setenv("SMTP_PORT", "465")
	t.Setenv("SMTP_USER", "luca@example.com")
	t.Setenv("SMTP_PASS", "app-password")
	t.Setenv("SENDER_NAME", "Luca Bianchi")
	t.Setenv("SENDER_EMAIL", "luca@example.com")
}

func TestLoadFromEnvironment(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("unexpected load error: %v", err)
	}

	if cfg.SMTP.Host != "smtp.example.com" || cfg.SMTP.Port != 465 {
		t.Fatalf("unexpected SMTP config: %+v", cfg.SMTP)
	}
	if !cfg.SMTP.SSL {
		t.Fatal("expected implicit TLS by default")
	}
	if !cfg.Merge.VerifyDomains {
		t.Fatal("expected domain verification on by default")
	}
	if cfg.Merge.GreetingFallback != DefaultGreetingFallback {
		t.Fatalf("unexpected greeting fallback: %q", cfg.Merge.GreetingFallback)
	}
}

func TestLoadMissingRequired(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("SMTP_HOST", "")

	_, err := Load("")
	if err == nil {
		t.Fatal("expected validation error")
	}
	if !strings.Contains(err.Error(), "SMTP_HOST") {
		t.Fatalf("expected error to name the missing key: %v", err)
	}
}

func TestLoadInvalidPort(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("SMTP_PORT", "not-a-port")

	if _, err := Load(""); err == nil || !strings.Contains(err.Error(), "SMTP_PORT") {
		t.Fatalf("expected port validation error, got %v", err)
	}

	t.Setenv("SMTP_PORT", "70000")
	if _, err := Load(""); err == nil || !strings.Contains(err.Error(), "out of range") {
		t.Fatalf("expected range error, got %v", err)
	}
}

func TestLoadStarttlsToggle(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("SMTP_PORT", "587")
	t.Setenv("SMTP_SSL", "false")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("unexpected load error: %v", err)
	}
	if cfg.SMTP.SSL {
		t.Fatal("expected STARTTLS mode when SMTP_SSL=false")
	}
}

func TestLoadDotenvFallback(t *testing.T) {
	setRequiredEnv(t)
	os.Unsetenv("SMTP_HOST")

	envFile := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(envFile, []byte("SMTP_HOST=relay.example.net\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(envFile)
	if err != nil {
		t.Fatalf("unexpected load error: %v", err)
	}
	if cfg.SMTP.Host != "relay.example.net" {
		t.Fatalf("expected dotenv fallback value, got %q", cfg.SMTP.Host)
	}
}
