package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Config holds all application configuration.
type Config struct {
	// Vault file location
	Vault VaultConfig `json:"vault" mapstructure:"vault"`

	// Key derivation costs for new vaults and password changes
	KDF KDFConfig `json:"kdf" mapstructure:"kdf"`

	// Clipboard behavior
	Clipboard ClipboardConfig `json:"clipboard" mapstructure:"clipboard"`

	// Logging
	Log LogConfig `json:"log" mapstructure:"log"`
}

// VaultConfig locates the vault file on disk.
type VaultConfig struct {
	Dir  string `json:"dir" mapstructure:"dir"`   // directory holding the vault, 0700
	File string `json:"file" mapstructure:"file"` // vault file name within Dir
}

// Path returns the full vault file path.
func (v VaultConfig) Path() string {
	return filepath.Join(v.Dir, v.File)
}

// KDFConfig carries argon2id costs applied when a vault is created or
// re-keyed. Existing vaults always derive with the costs stored in their own
// header.
type KDFConfig struct {
	MemoryKiB   uint32 `json:"memory_kib" mapstructure:"memory_kib"`
	Time        uint32 `json:"time" mapstructure:"time"`
	Parallelism uint32 `json:"parallelism" mapstructure:"parallelism"`
}

// ClipboardConfig controls the copy-and-clear guard.
type ClipboardConfig struct {
	ClearAfter time.Duration `json:"clear_after" mapstructure:"clear_after"`
}

// LogConfig for logging behavior.
type LogConfig struct {
	Level  string `json:"level" mapstructure:"level"`   // debug, info, warn, error
	Format string `json:"format" mapstructure:"format"` // text, json
	File   string `json:"file" mapstructure:"file"`     // log file path (empty = stderr)
}

// DefaultConfig returns config with sensible defaults. The vault lives in a
// dotfile directory under the home directory; COLDVAULT_DIR overrides it.
func DefaultConfig() *Config {
	dir := os.Getenv("COLDVAULT_DIR")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			home = "."
		}
		dir = filepath.Join(home, ".coldvault")
	}

	return &Config{
		Vault: VaultConfig{
			Dir:  dir,
			File: "vault.cv",
		},
		KDF: KDFConfig{
			MemoryKiB:   64 * 1024,
			Time:        3,
			Parallelism: 4,
		},
		Clipboard: ClipboardConfig{
			ClearAfter: 10 * time.Second,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Validate checks configuration validity.
func (c *Config) Validate() error {
	if c.Vault.Dir == "" {
		return fmt.Errorf("vault.dir is required")
	}
	if c.Vault.File == "" {
		return fmt.Errorf("vault.file is required")
	}
	if c.Clipboard.ClearAfter <= 0 {
		return fmt.Errorf("clipboard.clear_after must be positive")
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Log.Level] {
		return fmt.Errorf("invalid log level: %s", c.Log.Level)
	}
	validFormats := map[string]bool{"text": true, "json": true}
	if !validFormats[c.Log.Format] {
		return fmt.Errorf("invalid log format: %s", c.Log.Format)
	}
	return nil
}

// EnsureVaultDir creates the vault directory with owner-only permissions.
func (c *Config) EnsureVaultDir() error {
	if err := os.MkdirAll(c.Vault.Dir, 0o700); err != nil {
		return fmt.Errorf("create vault directory %s: %w", c.Vault.Dir, err)
	}
	return nil
}
