package crypto

import (
	"crypto/rand"
	"fmt"
	"io"

	"golang.org/x/crypto/argon2"
	"golang.org/x/text/unicode/norm"

	"github.com/coldvault/coldvault/internal/models"
)

const (
	// KeySize is the master key length in bytes (256 bits).
	KeySize = 32

	// SaltSize is the header salt length in bytes.
	SaltSize = 32

	// Default argon2id costs: 64 MiB, 3 passes, 4 lanes.
	DefaultMemoryKiB   = 64 * 1024
	DefaultTime        = 3
	DefaultParallelism = 4

	// Safe floors. Deriving below these fails with ErrKeyDerivation.
	minMemoryKiB = 8 * 1024
	minTime      = 1
)

// DefaultParams returns the argon2id costs used for new vaults.
func DefaultParams() models.KDFParams {
	return models.KDFParams{
		MemoryKiB:   DefaultMemoryKiB,
		Time:        DefaultTime,
		Parallelism: DefaultParallelism,
	}
}

// ValidateParams checks cost parameters against the safe floors.
func ValidateParams(p models.KDFParams) error {
	if p.MemoryKiB < minMemoryKiB {
		return fmt.Errorf("%w: memory %d KiB below floor %d", models.ErrKeyDerivation, p.MemoryKiB, minMemoryKiB)
	}
	if p.Time < minTime {
		return fmt.Errorf("%w: time cost %d below floor %d", models.ErrKeyDerivation, p.Time, minTime)
	}
	if p.Parallelism < 1 || p.Parallelism > 255 {
		return fmt.Errorf("%w: parallelism %d out of range", models.ErrKeyDerivation, p.Parallelism)
	}
	return nil
}

// DeriveKey derives the 32-byte master key from a password, salt and argon2id
// costs. Deterministic for identical inputs. Any byte string is a valid
// password; only invalid cost parameters or salt length fail. The password is
// NFKC-normalized so the same passphrase typed on different platforms derives
// the same key.
func DeriveKey(password, salt []byte, params models.KDFParams) (*SecretBuffer, error) {
	if err := ValidateParams(params); err != nil {
		return nil, err
	}
	if len(salt) != SaltSize {
		return nil, fmt.Errorf("%w: salt must be %d bytes, got %d", models.ErrKeyDerivation, SaltSize, len(salt))
	}

	normalized := norm.NFKC.Bytes(password)
	key := argon2.IDKey(normalized, salt, params.Time, params.MemoryKiB, uint8(params.Parallelism), KeySize)
	// norm returns the input slice unchanged when no rewriting was needed;
	// wipe only a freshly allocated copy, the caller owns the original.
	if len(normalized) > 0 && (len(password) == 0 || &normalized[0] != &password[0]) {
		wipe(normalized)
	}
	return NewSecretBuffer(key), nil
}

// NewSalt returns a fresh random header salt.
func NewSalt() ([]byte, error) {
	salt := make([]byte, SaltSize)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return nil, fmt.Errorf("generate salt: %w", err)
	}
	return salt, nil
}
