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

// Environment variables read at startup.
const (
	EnvDB         = "TUIQUIZ_DB"
	EnvConfigPath = "TUIQUIZ_CONFIG"
	EnvTasks      = "TUIQUIZ_TASKS"
	EnvSeconds    = "TUIQUIZ_SECONDS"
	EnvDomain     = "TUIQUIZ_DOMAIN"
	EnvContent    = "TUIQUIZ_CONTENT"
)

// EnvConfig holds values taken from the environment. Unset or unparsable
// values are nil.
type EnvConfig struct {
	DBPath     *string
	ConfigPath *string
	Domain     *string
	Content    *string
	Tasks      *int
	Seconds    *int
}

// LoadDotenv loads the given .env files into the process environment
// without overriding variables that are already set. Missing files are
// skipped.
func LoadDotenv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("failed to load %s: %w", p, err)
		}
	}
	return nil
}

// ReadEnv collects tuiquiz variables using lookup, usually os.LookupEnv.
func ReadEnv(lookup func(string) (string, bool)) EnvConfig {
	if lookup == nil {
		lookup = os.LookupEnv
	}
	var cfg EnvConfig
	cfg.DBPath = envString(lookup, EnvDB)
	cfg.ConfigPath = envString(lookup, EnvConfigPath)
	cfg.Domain = envString(lookup, EnvDomain)
	cfg.Content = envString(lookup, EnvContent)
	cfg.Tasks = envInt(lookup, EnvTasks)
	cfg.Seconds = envInt(lookup, EnvSeconds)
	return cfg
}

func envString(lookup func(string) (string, bool), key string) *string {
	v, ok := lookup(key)
	v = strings.TrimSpace(v)
	if !ok || v == "" {
		return nil
	}
	return &v
}

func envInt(lookup func(string) (string, bool), key string) *int {
	v := envString(lookup, key)
	if v == nil {
		return nil
	}
	n, err := strconv.Atoi(*v)
	if err != nil {
		return nil
	}
	return &n
}
