package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type Config struct {
	DBPath      string
	LogLevel    string
	UploadMaxMB int
	Headless    bool
}

// Load reads a .env file from the working directory when there is one,
// then the process environment. Unset values take their defaults.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	maxMB, err := getInt("AIR_UPLOAD_MAX_MB", 5)
	if err != nil {
		return nil, err
	}
	if maxMB < 1 {
		return nil, fmt.Errorf("AIR_UPLOAD_MAX_MB must be at least 1, got %d", maxMB)
	}
	headless, err := getBool("AIR_HEADLESS", false)
	if err != nil {
		return nil, err
	}

	return &Config{
		DBPath:      getEnv("AIR_DB_PATH", "air.db"),
		LogLevel:    getEnv("AIR_LOG_LEVEL", "warn"),
		UploadMaxMB: maxMB,
		Headless:    headless,
	}, nil
}

// UploadLimit is the cover upload limit in bytes.
func (c *Config) UploadLimit() int64 { return int64(c.UploadMaxMB) << 20 }

// NewLogger builds a console logger on stderr so command output on
// stdout stays clean.
func NewLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(strings.TrimSpace(level))
	if err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}
	cfg := zap.NewDevelopmentConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}
	cfg.DisableStacktrace = true
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	return cfg.Build()
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getInt(key string, defaultValue int) (int, error) {
	value, exists := os.LookupEnv(key)
	if !exists || value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

func getBool(key string, defaultValue bool) (bool, error) {
	value, exists := os.LookupEnv(key)
	if !exists || value == "" {
		return defaultValue, nil
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("%s: %w", key, err)
	}
	return b, nil
}
