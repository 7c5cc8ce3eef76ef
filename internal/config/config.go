package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	SourceDir  string
	OutputPath string
	LogDir     string
	DBPath     string

	SourceExtensions []string
	MinContentLength int

	LogLevel string
}

func Load() (Config, error) {
	_ = godotenv.Load()

	cwd, err := os.Getwd()
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		SourceDir:  getEnv("SOURCE_DIR", filepath.Join(cwd, "data", "source")),
		OutputPath: getEnv("OUTPUT_PATH", filepath.Join(cwd, "out", "questions.xlsx")),
		LogDir:     getEnv("LOG_DIR", filepath.Join(cwd, "out")),
		DBPath:     getEnv("DB_PATH", filepath.Join(cwd, "data", "tiku.db")),

		SourceExtensions: getEnvList("SOURCE_EXTENSIONS", []string{".xls", ".xlsx"}),
		MinContentLength: getEnvInt("MIN_CONTENT_LENGTH", 3),

		LogLevel: getEnv("LOG_LEVEL", "info"),
	}

	return cfg, nil
}

func (c Config) Require(name, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("missing required setting: %s", name)
	}
	return nil
}

// LedgerEnabled reports whether runs are recorded in the sqlite ledger.
func (c Config) LedgerEnabled() bool {
	return strings.TrimSpace(c.DBPath) != ""
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value := getEnv(key, "")
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvList(key string, fallback []string) []string {
	value := strings.TrimSpace(getEnv(key, ""))
	if value == "" {
		return fallback
	}
	out := []string{}
	for _, part := range strings.Split(value, ",") {
		part = strings.ToLower(strings.TrimSpace(part))
		if part == "" {
			continue
		}
		if !strings.HasPrefix(part, ".") {
			part = "." + part
		}
		out = append(out, part)
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
