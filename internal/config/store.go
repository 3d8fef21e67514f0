package config

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/mekedron/clifood/internal/domain"
)

const (
	defaultDirName  = ".clifood"
	defaultFileName = "config.json"
	envConfigPath   = "CLIFOOD_CONFIG_PATH"

	defaultLocale    = "pt-BR"
	defaultTimeoutMs = 30000
)

// ErrUnknownKey is returned when a config key is not recognized.
var ErrUnknownKey = errors.New("unknown config key")

// envOverrides maps environment variables to config keys. Environment wins
// over the file but loses to explicit flags.
var envOverrides = map[string]string{
	"IFOOD_CDP_URL":     "cdpUrl",
	"IFOOD_PROFILE_DIR": "profileDir",
	"IFOOD_HEADLESS":    "headless",
	"IFOOD_SLOW_MO":     "slowMo",
	"IFOOD_LOCALE":      "locale",
	"IFOOD_TIMEOUT_MS":  "timeoutMs",
}

// Store loads and writes CLI configuration.
type Store struct {
	path string
}

// NewStore creates a store using env overrides or defaults.
func NewStore() (*Store, error) {
	if cfg := os.Getenv(envConfigPath); cfg != "" {
		return &Store{path: cfg}, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("resolve home directory: %w", err)
	}
	return &Store{path: filepath.Join(home, defaultDirName, defaultFileName)}, nil
}

// Path returns current config path.
func (s *Store) Path() string {
	return s.path
}

// Defaults returns the built-in configuration.
func Defaults() domain.Config {
	cfg := domain.Config{
		Headless:  false,
		SlowMo:    0,
		Locale:    defaultLocale,
		TimeoutMs: defaultTimeoutMs,
	}
	if home, err := os.UserHomeDir(); err == nil {
		cfg.ProfileDir = filepath.Join(home, defaultDirName, "profile")
	}
	return cfg
}

// Load resolves configuration as defaults, then the config file, then
// environment variables. A missing or malformed file is not an error; the
// CLI must stay usable before the first `config set`.
func (s *Store) Load(_ context.Context) (domain.Config, error) {
	cfg := Defaults()

	if payload, err := os.ReadFile(s.path); err == nil {
		var fileCfg domain.Config
		if json.Unmarshal(payload, &fileCfg) == nil {
			cfg = mergeConfig(cfg, fileCfg)
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return domain.Config{}, fmt.Errorf("read config: %w", err)
	}

	for envName, key := range envOverrides {
		value, ok := os.LookupEnv(envName)
		if !ok || value == "" {
			continue
		}
		if err := ApplyValue(&cfg, key, value); err != nil {
			return domain.Config{}, fmt.Errorf("apply %s: %w", envName, err)
		}
	}
	return cfg, nil
}

// Save writes a configuration payload.
func (s *Store) Save(_ context.Context, cfg domain.Config) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	payload, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(s.path, payload, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

func mergeConfig(base, override domain.Config) domain.Config {
	if override.CDPURL != "" {
		base.CDPURL = override.CDPURL
	}
	if override.ProfileDir != "" {
		base.ProfileDir = override.ProfileDir
	}
	base.Headless = override.Headless
	if override.SlowMo > 0 {
		base.SlowMo = override.SlowMo
	}
	if override.Locale != "" {
		base.Locale = override.Locale
	}
	if override.TimeoutMs > 0 {
		base.TimeoutMs = override.TimeoutMs
	}
	return base
}

// ApplyValue sets one configuration field addressed by its JSON key.
func ApplyValue(cfg *domain.Config, key, value string) error {
	switch key {
	case "cdpUrl":
		cfg.CDPURL = value
	case "profileDir":
		cfg.ProfileDir = value
	case "headless":
		parsed, err := strconv.ParseBool(strings.ToLower(value))
		if err != nil {
			return fmt.Errorf("parse headless: %w", err)
		}
		cfg.Headless = parsed
	case "slowMo":
		parsed, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("parse slowMo: %w", err)
		}
		cfg.SlowMo = parsed
	case "locale":
		cfg.Locale = value
	case "timeoutMs":
		parsed, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("parse timeoutMs: %w", err)
		}
		cfg.TimeoutMs = parsed
	default:
		return fmt.Errorf("%w: %s", ErrUnknownKey, key)
	}
	return nil
}
