package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

var configKeys = []string{
	"CONSCHEDULE_CONFIG_FILE",
	"CONSCHEDULE_HTTP_PORT",
	"CONSCHEDULE_DB_DRIVER",
	"CONSCHEDULE_DB_DSN",
	"CONSCHEDULE_JWT_SECRET",
	"CONSCHEDULE_LOG_LEVEL",
	"CONSCHEDULE_LOG_FORMAT",
	"CONSCHEDULE_SHUTDOWN_TIMEOUT",
}

// clearEnv blanks every key; Load treats empty values as unset.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range configKeys {
		t.Setenv(key, "")
	}
}

func TestLoad(t *testing.T) {
	t.Run("applies defaults when variables are missing", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("CONSCHEDULE_JWT_SECRET", "super-secret")

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load returned error: %v", err)
		}
		want := Default()
		want.JWTSecret = "super-secret"
		if cfg != want {
			t.Fatalf("expected defaults %+v, got %+v", want, cfg)
		}
	})

	t.Run("errors when the secret is missing", func(t *testing.T) {
		clearEnv(t)

		_, err := Load()
		if err == nil {
			t.Fatalf("expected error when required values are missing")
		}
		if err.Error() != "required configuration is not set: CONSCHEDULE_JWT_SECRET" {
			t.Fatalf("unexpected error message: %q", err.Error())
		}
	})

	t.Run("reports every invalid value", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("CONSCHEDULE_JWT_SECRET", "secret")
		t.Setenv("CONSCHEDULE_HTTP_PORT", "http")
		t.Setenv("CONSCHEDULE_DB_DRIVER", "mysql")
		t.Setenv("CONSCHEDULE_SHUTDOWN_TIMEOUT", "-1s")

		_, err := Load()
		if err == nil {
			t.Fatalf("expected invalid values to be rejected")
		}
		for _, key := range []string{"CONSCHEDULE_HTTP_PORT", "CONSCHEDULE_DB_DRIVER", "CONSCHEDULE_SHUTDOWN_TIMEOUT"} {
			if !strings.Contains(err.Error(), key) {
				t.Fatalf("expected %s in %q", key, err.Error())
			}
		}
	})

	t.Run("environment overrides the config file", func(t *testing.T) {
		clearEnv(t)
		path := filepath.Join(t.TempDir(), "conschedule.yaml")
		content := `http_port: 9090
database:
  driver: postgres
  dsn: postgres://localhost/conschedule
jwt_secret: from-file
log:
  level: debug
  format: text
shutdown_timeout: 30s
`
		if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
			t.Fatalf("failed to write config file: %v", err)
		}
		t.Setenv("CONSCHEDULE_CONFIG_FILE", path)
		t.Setenv("CONSCHEDULE_HTTP_PORT", "7070")

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load returned error: %v", err)
		}
		if cfg.HTTPPort != 7070 {
			t.Fatalf("expected env port to win, got %d", cfg.HTTPPort)
		}
		if cfg.DBDriver != "postgres" || cfg.DBDSN != "postgres://localhost/conschedule" {
			t.Fatalf("unexpected database settings %+v", cfg)
		}
		if cfg.JWTSecret != "from-file" || cfg.LogLevel != "debug" || cfg.LogFormat != "text" {
			t.Fatalf("unexpected file settings %+v", cfg)
		}
		if cfg.ShutdownTimeout != 30*time.Second {
			t.Fatalf("unexpected shutdown timeout %v", cfg.ShutdownTimeout)
		}
	})

	t.Run("missing config file is an error", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("CONSCHEDULE_JWT_SECRET", "secret")
		t.Setenv("CONSCHEDULE_CONFIG_FILE", filepath.Join(t.TempDir(), "absent.yaml"))

		if _, err := Load(); err == nil {
			t.Fatalf("expected error for a missing config file")
		}
	})
}
