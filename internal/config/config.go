package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// DefaultGreetingFallback is substituted into the template context when a
// contact has no name. It is deliberately never used as the recipient
// display name.
const DefaultGreetingFallback = "Responsabile delle risorse umane"

// Config captures all runtime configuration for the mail merge CLI.
// Credentials come from the process environment with an optional dotenv
// fallback; process environment always wins.
type Config struct {
	App    AppConfig
	SMTP   SMTPConfig
	Sender SenderConfig
	Merge  MergeConfig
}

// AppConfig contains generic application level settings.
type AppConfig struct {
	Env      string
	LogLevel string
}

// SMTPConfig stores the outbound relay credentials. SSL toggles implicit
// TLS (typically port 465) versus STARTTLS upgrade (typically port 587).
type SMTPConfig struct {
	Host string
	Port int
	User string
	Pass string
	SSL  bool
}

// SenderConfig identifies the sender as it appears in outgoing messages
// and in the template context.
type SenderConfig struct {
	Name  string
	Email string
}

// MergeConfig holds merge behaviour settings that are environment driven
// rather than per-invocation flags.
type MergeConfig struct {
	VerifyDomains    bool
	GreetingFallback string
}

// Load reads the optional dotenv file at envPath, then resolves all
// configuration from the environment, applying defaults and collecting
// validation errors the same way for every key.
func Load(envPath string) (*Config, error) {
	if envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			_ = godotenv.Load(envPath)
		}
	}

	ldr := &envLoader{}

	cfg := &Config{}
	cfg.App.Env = ldr.getString("APP_ENV", "development", false)
	cfg.App.LogLevel = ldr.getString("LOG_LEVEL", "info", false)

	cfg.SMTP.Host = ldr.getString("SMTP_HOST", "", true)
	cfg.SMTP.Port = ldr.getInt("SMTP_PORT", 0, true)
	cfg.SMTP.User = ldr.getString("SMTP_USER", "", true)
	cfg.SMTP.Pass = ldr.getString("SMTP_PASS", "", true)
	cfg.SMTP.SSL = ldr.getBool("SMTP_SSL", true, false)

	cfg.Sender.Name = ldr.getString("SENDER_NAME", "", true)
	cfg.Sender.Email = ldr.getString("SENDER_EMAIL", "", true)

	cfg.Merge.VerifyDomains = ldr.getBool("EMAIL_VERIFY_DOMAINS", true, false)
	cfg.Merge.GreetingFallback = ldr.getString("GREETING_FALLBACK", DefaultGreetingFallback, false)

	if err := ldr.validate(); err != nil {
		return nil, err
	}

	if cfg.SMTP.Port <= 0 || cfg.SMTP.Port > 65535 {
		return nil, fmt.Errorf("config validation failed: SMTP_PORT %d is out of range", cfg.SMTP.Port)
	}

	return cfg, nil
}

type envLoader struct {
	errs []string
}

func (l *envLoader) validate() error {
	if len(l.errs) == 0 {
		return nil
	}
	return fmt.Errorf("config validation failed: %s", strings.Join(l.errs, "; "))
}

func (l *envLoader) getString(key, def string, required bool) string {
	if val, ok := os.LookupEnv(key); ok {
		val = strings.TrimSpace(val)
		if val == "" {
			if required {
				l.addError(fmt.Sprintf("%s is required", key))
			}
			return def
		}
		return val
	}
	if required {
		l.addError(fmt.Sprintf("%s is required", key))
	}
	return def
}

func (l *envLoader) getInt(key string, def int, required bool) int {
	raw := l.getString(key, "", required)
	if raw == "" {
		return def
	}
	i, err := strconv.Atoi(raw)
	if err != nil {
		l.addError(fmt.Sprintf("%s must be a valid integer", key))
		return def
	}
	return i
}

func (l *envLoader) getBool(key string, def bool, required bool) bool {
	raw := l.getString(key, "", required)
	if raw == "" {
		return def
	}
	parsed, err := strconv.ParseBool(strings.ToLower(raw))
	if err != nil {
		l.addError(fmt.Sprintf("%s must be a valid boolean", key))
		return def
	}
	return parsed
}

func (l *envLoader) addError(err string) {
	l.errs = append(l.errs, err)
}
