// Package client is the composition root consumed by the CLI: it wires
// config, logger, vault store and clipboard guard, and opens sessions.
package client

import (
	"github.com/coldvault/coldvault/internal/clipboard"
	"github.com/coldvault/coldvault/internal/config"
	"github.com/coldvault/coldvault/internal/events"
	"github.com/coldvault/coldvault/internal/models"
	"github.com/coldvault/coldvault/internal/session"
	"github.com/coldvault/coldvault/internal/store"
)

// Client bundles the core components behind a single handle for the UI layer.
type Client struct {
	Store     *store.Store
	Clipboard *clipboard.Guard

	config *config.Config
	logger *events.Logger
}

// New creates a client from config.
func New(cfg *config.Config, logger *events.Logger) *Client {
	return &Client{
		Store:     store.New(cfg.Vault.Path(), logger),
		Clipboard: clipboard.NewGuard(clipboard.SystemBackend{}, cfg.Clipboard.ClearAfter, logger),
		config:    cfg,
		logger:    logger,
	}
}

// KDFParams returns the configured argon2id costs for vault creation and
// password changes.
func (c *Client) KDFParams() models.KDFParams {
	return models.KDFParams{
		MemoryKiB:   c.config.KDF.MemoryKiB,
		Time:        c.config.KDF.Time,
		Parallelism: c.config.KDF.Parallelism,
	}
}

// Init creates a new vault and returns an unlocked session.
func (c *Client) Init(password []byte) (*session.Session, error) {
	if err := c.config.EnsureVaultDir(); err != nil {
		return nil, err
	}
	return session.Create(c.Store, password, c.KDFParams(), c.logger)
}

// Open unlocks the existing vault.
func (c *Client) Open(password []byte) (*session.Session, error) {
	return session.Unlock(c.Store, password, c.logger)
}

// Close cancels any pending clipboard clear. Call on quit.
func (c *Client) Close() error {
	return c.Clipboard.Cancel()
}
