// Package clipboard places secrets on the system clipboard and guarantees
// their timed removal. The guard runs its countdown independently of the
// caller; the caller never blocks on a pending clear.
package clipboard

import (
	"fmt"
	"sync"
	"time"

	"github.com/atotto/clipboard"

	"github.com/coldvault/coldvault/internal/events"
)

// Backend abstracts the system clipboard so tests can substitute an
// in-memory implementation.
type Backend interface {
	ReadAll() (string, error)
	WriteAll(text string) error
}

// SystemBackend is the real clipboard via atotto/clipboard.
type SystemBackend struct{}

func (SystemBackend) ReadAll() (string, error)   { return clipboard.ReadAll() }
func (SystemBackend) WriteAll(text string) error { return clipboard.WriteAll(text) }

// Guard owns the "last written value" and schedules its removal. Copy,
// Cancel and countdown expiry are mutually exclusive critical sections; a
// timer whose generation was superseded does nothing, so a
// cleared-then-rewritten clipboard is never erroneously wiped.
type Guard struct {
	backend Backend
	ttl     time.Duration
	logger  *events.Logger

	mu          sync.Mutex
	lastWritten string
	timer       *time.Timer
	generation  uint64
}

// NewGuard creates a guard clearing the clipboard ttl after each copy.
func NewGuard(backend Backend, ttl time.Duration, logger *events.Logger) *Guard {
	return &Guard{
		backend: backend,
		ttl:     ttl,
		logger:  logger.WithField("component", "clipboard"),
	}
}

// Copy writes secret to the clipboard and starts the countdown, restarting
// it if one is already pending. On expiry the clipboard is cleared only if
// its content still equals the value this guard wrote, so unrelated content
// the user copied in the meantime is never clobbered.
func (g *Guard) Copy(secret string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if err := g.backend.WriteAll(secret); err != nil {
		return fmt.Errorf("write clipboard: %w", err)
	}
	g.lastWritten = secret
	g.generation++
	gen := g.generation

	if g.timer != nil {
		g.timer.Stop()
	}
	g.timer = time.AfterFunc(g.ttl, func() {
		g.expire(gen)
	})

	g.logger.WithField("clear_after", g.ttl.String()).Debug("Secret copied to clipboard")
	return nil
}

// expire runs when a countdown elapses. A stale generation means another
// Copy or Cancel superseded this timer; it does nothing then.
func (g *Guard) expire(gen uint64) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if gen != g.generation {
		return
	}
	current, err := g.backend.ReadAll()
	if err == nil && current == g.lastWritten {
		if err := g.backend.WriteAll(""); err != nil {
			g.logger.WithError(err).Warn("Failed to clear clipboard")
		} else {
			g.logger.Debug("Clipboard cleared")
		}
	}
	g.lastWritten = ""
	g.timer = nil
}

// Cancel stops any pending countdown and clears the clipboard immediately if
// it still holds the value this guard wrote. Used on session lock and quit.
func (g *Guard) Cancel() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.generation++
	if g.timer != nil {
		g.timer.Stop()
		g.timer = nil
	}
	if g.lastWritten == "" {
		return nil
	}
	current, err := g.backend.ReadAll()
	if err == nil && current == g.lastWritten {
		if err := g.backend.WriteAll(""); err != nil {
			g.lastWritten = ""
			return fmt.Errorf("clear clipboard: %w", err)
		}
	}
	g.lastWritten = ""
	return nil
}

// Pending reports whether a clear is currently scheduled.
func (g *Guard) Pending() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.timer != nil
}
