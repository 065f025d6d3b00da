package crypto_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coldvault/coldvault/internal/crypto"
	"github.com/coldvault/coldvault/internal/models"
)

// testParams keeps argon2 cheap in tests while staying above the floors.
func testParams() models.KDFParams {
	return models.KDFParams{MemoryKiB: 8 * 1024, Time: 1, Parallelism: 1}
}

func deriveBytes(t *testing.T, password, salt []byte, params models.KDFParams) []byte {
	t.Helper()
	key, err := crypto.DeriveKey(password, salt, params)
	require.NoError(t, err)
	kb, err := key.Bytes()
	require.NoError(t, err)
	out := make([]byte, len(kb))
	copy(out, kb)
	key.Wipe()
	return out
}

func TestDeriveKey(t *testing.T) {
	salt := bytes.Repeat([]byte{42}, crypto.SaltSize)

	t.Run("deterministic", func(t *testing.T) {
		k1 := deriveBytes(t, []byte("test-password"), salt, testParams())
		k2 := deriveBytes(t, []byte("test-password"), salt, testParams())
		assert.Equal(t, k1, k2)
		assert.Len(t, k1, crypto.KeySize)
	})

	t.Run("different passwords diverge", func(t *testing.T) {
		k1 := deriveBytes(t, []byte("password1"), salt, testParams())
		k2 := deriveBytes(t, []byte("password2"), salt, testParams())
		assert.NotEqual(t, k1, k2)
	})

	t.Run("different salts diverge", func(t *testing.T) {
		salt2 := bytes.Repeat([]byte{43}, crypto.SaltSize)
		k1 := deriveBytes(t, []byte("test-password"), salt, testParams())
		k2 := deriveBytes(t, []byte("test-password"), salt2, testParams())
		assert.NotEqual(t, k1, k2)
	})

	t.Run("any byte string is a valid password", func(t *testing.T) {
		for _, password := range [][]byte{
			{},
			{0x00},
			[]byte("🔑 unicode pass"),
			bytes.Repeat([]byte{0xFF}, 1024),
		} {
			key, err := crypto.DeriveKey(password, salt, testParams())
			require.NoError(t, err)
			key.Wipe()
		}
	})

	t.Run("nfkc normalization unifies equivalent input", func(t *testing.T) {
		// U+212B ANGSTROM SIGN normalizes to U+00C5.
		k1 := deriveBytes(t, []byte("passÅ"), salt, testParams())
		k2 := deriveBytes(t, []byte("passÅ"), salt, testParams())
		assert.Equal(t, k1, k2)
	})

	t.Run("cost below floor rejected", func(t *testing.T) {
		params := testParams()
		params.MemoryKiB = 1024
		_, err := crypto.DeriveKey([]byte("pw"), salt, params)
		assert.ErrorIs(t, err, models.ErrKeyDerivation)

		params = testParams()
		params.Time = 0
		_, err = crypto.DeriveKey([]byte("pw"), salt, params)
		assert.ErrorIs(t, err, models.ErrKeyDerivation)
	})

	t.Run("wrong salt length rejected", func(t *testing.T) {
		_, err := crypto.DeriveKey([]byte("pw"), []byte("short"), testParams())
		assert.ErrorIs(t, err, models.ErrKeyDerivation)
	})
}

func TestNewSalt(t *testing.T) {
	s1, err := crypto.NewSalt()
	require.NoError(t, err)
	s2, err := crypto.NewSalt()
	require.NoError(t, err)

	assert.Len(t, s1, crypto.SaltSize)
	assert.NotEqual(t, s1, s2)
}
