// Package store owns the vault file on disk. All writes go through an atomic
// temp-file-and-rename so a crash mid-write leaves either the old vault
// intact or the new one fully written, never a half-written file.
package store

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/coldvault/coldvault/internal/events"
	"github.com/coldvault/coldvault/internal/format"
	"github.com/coldvault/coldvault/internal/models"
)

// Store binds to a single vault file path and is its exclusive owner.
// Save must not be called concurrently for the same path; the session
// serializes all writes.
type Store struct {
	path   string
	logger *events.Logger
}

// New creates a store for the vault at path.
func New(path string, logger *events.Logger) *Store {
	return &Store{
		path:   path,
		logger: logger.WithField("component", "store"),
	}
}

// Path returns the vault file path this store owns.
func (s *Store) Path() string { return s.path }

// Exists reports whether a vault file is present at the path.
func (s *Store) Exists() bool {
	_, err := os.Stat(s.path)
	return err == nil
}

// Load reads and decodes the vault file. A missing file yields
// models.ErrVaultMissing; undecodable content yields models.ErrCorrupt or
// models.ErrUnsupportedFormat.
func (s *Store) Load() (*models.VaultFile, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, models.ErrVaultMissing
		}
		return nil, fmt.Errorf("read vault file: %w", err)
	}

	vault, err := format.Decode(data)
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(map[string]interface{}{
		"path":    s.path,
		"entries": len(vault.Entries),
	}).Debug("Vault loaded")

	return vault, nil
}

// Save encodes the vault and writes it atomically: encode to a temp file in
// the same directory, fsync, rename over the target, fsync the directory.
// The vault file is created owner-read/write only.
func (s *Store) Save(vault *models.VaultFile) error {
	data, err := format.Encode(vault)
	if err != nil {
		return err
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("create vault directory: %w", err)
	}

	tempPath := fmt.Sprintf("%s.tmp.%d", s.path, time.Now().UnixNano())

	if err := writeAndSync(tempPath, data); err != nil {
		_ = os.Remove(tempPath)
		return err
	}

	if err := os.Rename(tempPath, s.path); err != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("rename temp file: %w", err)
	}

	// Sync the directory so the rename itself survives a crash.
	if d, err := os.Open(dir); err == nil {
		_ = d.Sync()
		_ = d.Close()
	}

	s.logger.WithFields(map[string]interface{}{
		"path":    s.path,
		"size":    len(data),
		"entries": len(vault.Entries),
	}).Debug("Vault saved")

	return nil
}

func writeAndSync(path string, data []byte) error {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0o600)
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}

	if _, err := file.Write(data); err != nil {
		_ = file.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := file.Sync(); err != nil {
		_ = file.Close()
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	return nil
}
