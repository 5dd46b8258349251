package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config captures the settings of the schedule service.
type Config struct {
	HTTPPort        int
	DBDriver        string
	DBDSN           string
	JWTSecret       string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration
}

// fileConfig is the optional YAML layer. Empty fields keep the defaults.
type fileConfig struct {
	HTTPPort int `yaml:"http_port"`
	Database struct {
		Driver string `yaml:"driver"`
		DSN    string `yaml:"dsn"`
	} `yaml:"database"`
	JWTSecret string `yaml:"jwt_secret"`
	Log       struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`
	ShutdownTimeout string `yaml:"shutdown_timeout"`
}

const envConfigFile = "CONSCHEDULE_CONFIG_FILE"

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		HTTPPort:        8080,
		DBDriver:        "sqlite",
		DBDSN:           "data/conschedule.db",
		LogLevel:        "info",
		LogFormat:       "json",
		ShutdownTimeout: 10 * time.Second,
	}
}

// Load builds the configuration from defaults, the YAML file named by
// CONSCHEDULE_CONFIG_FILE (if any) and then the process environment.
//
// Missing and invalid values are collected and reported together.
func Load() (Config, error) {
	cfg := Default()

	missing := make([]string, 0, 1)
	invalid := make([]string, 0, 2)

	if path := strings.TrimSpace(os.Getenv(envConfigFile)); path != "" {
		if err := applyFile(&cfg, path, &invalid); err != nil {
			return Config{}, err
		}
	}

	if portValue := strings.TrimSpace(os.Getenv("CONSCHEDULE_HTTP_PORT")); portValue != "" {
		port, err := strconv.Atoi(portValue)
		if err != nil || port <= 0 || port > 65535 {
			invalid = append(invalid, "CONSCHEDULE_HTTP_PORT")
		} else {
			cfg.HTTPPort = port
		}
	}

	if driver := strings.TrimSpace(os.Getenv("CONSCHEDULE_DB_DRIVER")); driver != "" {
		cfg.DBDriver = strings.ToLower(driver)
	}
	if dsn := strings.TrimSpace(os.Getenv("CONSCHEDULE_DB_DSN")); dsn != "" {
		cfg.DBDSN = dsn
	}
	if secret := strings.TrimSpace(os.Getenv("CONSCHEDULE_JWT_SECRET")); secret != "" {
		cfg.JWTSecret = secret
	}
	if level := strings.TrimSpace(os.Getenv("CONSCHEDULE_LOG_LEVEL")); level != "" {
		cfg.LogLevel = strings.ToLower(level)
	}
	if format := strings.TrimSpace(os.Getenv("CONSCHEDULE_LOG_FORMAT")); format != "" {
		cfg.LogFormat = strings.ToLower(format)
	}
	if timeoutValue := strings.TrimSpace(os.Getenv("CONSCHEDULE_SHUTDOWN_TIMEOUT")); timeoutValue != "" {
		timeout, err := time.ParseDuration(timeoutValue)
		if err != nil || timeout <= 0 {
			invalid = append(invalid, "CONSCHEDULE_SHUTDOWN_TIMEOUT")
		} else {
			cfg.ShutdownTimeout = timeout
		}
	}

	if cfg.JWTSecret == "" {
		missing = append(missing, "CONSCHEDULE_JWT_SECRET")
	}
	if cfg.DBDriver != "sqlite" && cfg.DBDriver != "postgres" {
		invalid = append(invalid, "CONSCHEDULE_DB_DRIVER")
	}
	if cfg.LogFormat != "json" && cfg.LogFormat != "text" {
		invalid = append(invalid, "CONSCHEDULE_LOG_FORMAT")
	}

	if len(missing) > 0 {
		return Config{}, fmt.Errorf("required configuration is not set: %s", strings.Join(missing, ", "))
	}
	if len(invalid) > 0 {
		return Config{}, fmt.Errorf("invalid configuration values: %s", strings.Join(invalid, ", "))
	}

	return cfg, nil
}

func applyFile(cfg *Config, path string, invalid *[]string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("config file %s does not exist", path)
		}
		return fmt.Errorf("read config file %s: %w", path, err)
	}

	var file fileConfig
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}

	if file.HTTPPort != 0 {
		if file.HTTPPort < 0 || file.HTTPPort > 65535 {
			*invalid = append(*invalid, "http_port")
		} else {
			cfg.HTTPPort = file.HTTPPort
		}
	}
	if v := strings.TrimSpace(file.Database.Driver); v != "" {
		cfg.DBDriver = strings.ToLower(v)
	}
	if v := strings.TrimSpace(file.Database.DSN); v != "" {
		cfg.DBDSN = v
	}
	if v := strings.TrimSpace(file.JWTSecret); v != "" {
		cfg.JWTSecret = v
	}
	if v := strings.TrimSpace(file.Log.Level); v != "" {
		cfg.LogLevel = strings.ToLower(v)
	}
	if v := strings.TrimSpace(file.Log.Format); v != "" {
		cfg.LogFormat = strings.ToLower(v)
	}
	if v := strings.TrimSpace(file.ShutdownTimeout); v != "" {
		timeout, err := time.ParseDuration(v)
		if err != nil || timeout <= 0 {
			*invalid = append(*invalid, "shutdown_timeout")
		} else {
			cfg.ShutdownTimeout = timeout
		}
	}
	return nil
}
