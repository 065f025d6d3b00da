package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Loader reads configuration from file and environment.
type Loader struct {
	configPath string
}

// NewLoader creates a config loader. An empty path searches the default
// locations.
func NewLoader(configPath string) *Loader {
	return &Loader{configPath: configPath}
}

// Load merges defaults, an optional config file and COLDVAULT_* environment
// variables, then validates the result.
func (l *Loader) Load() (*Config, error) {
	cfg := DefaultConfig()

	v := viper.New()
	v.SetConfigType("json")
	v.SetEnvPrefix("COLDVAULT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("vault.dir", cfg.Vault.Dir)
	v.SetDefault("vault.file", cfg.Vault.File)
	v.SetDefault("kdf.memory_kib", cfg.KDF.MemoryKiB)
	v.SetDefault("kdf.time", cfg.KDF.Time)
	v.SetDefault("kdf.parallelism", cfg.KDF.Parallelism)
	v.SetDefault("clipboard.clear_after", cfg.Clipboard.ClearAfter)
	v.SetDefault("log.level", cfg.Log.Level)
	v.SetDefault("log.format", cfg.Log.Format)
	v.SetDefault("log.file", cfg.Log.File)

	if l.configPath != "" {
		v.SetConfigFile(l.configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", l.configPath, err)
		}
	} else {
		for _, path := range defaultPaths() {
			if _, err := os.Stat(path); err == nil {
				v.SetConfigFile(path)
				if err := v.ReadInConfig(); err != nil {
					return nil, fmt.Errorf("load config file %s: %w", path, err)
				}
				break
			}
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	// COLDVAULT_DIR keeps working even when a config file sets vault.dir.
	if dir := os.Getenv("COLDVAULT_DIR"); dir != "" {
		cfg.Vault.Dir = dir
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func defaultPaths() []string {
	paths := []string{"coldvault.json", ".coldvault.json"}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths,
			filepath.Join(home, ".config", "coldvault", "config.json"),
			filepath.Join(home, ".coldvault", "config.json"),
		)
	}
	return paths
}
