package session_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coldvault/coldvault/internal/events"
	"github.com/coldvault/coldvault/internal/models"
	"github.com/coldvault/coldvault/internal/session"
	"github.com/coldvault/coldvault/internal/store"
)

// Low argon2 costs so the suite stays fast; production defaults live in
// crypto.DefaultParams and are covered by the crypto tests.
func testParams() models.KDFParams {
	return models.KDFParams{MemoryKiB: 8 * 1024, Time: 1, Parallelism: 1}
}

func newStore(t *testing.T) *store.Store {
	t.Helper()
	return store.New(filepath.Join(t.TempDir(), "vault.cv"), events.Discard())
}

func createSession(t *testing.T, st *store.Store, password string) *session.Session {
	t.Helper()
	s, err := session.Create(st, []byte(password), testParams(), events.Discard())
	require.NoError(t, err)
	return s
}

func secretOf(t *testing.T, s *session.Session, ref string) []byte {
	t.Helper()
	_, buf, err := s.Get(ref)
	require.NoError(t, err)
	plain, err := buf.Bytes()
	require.NoError(t, err)
	out := append([]byte(nil), plain...)
	buf.Wipe()
	return out
}

func TestCreateUnlock(t *testing.T) {
	t.Run("create refuses existing vault", func(t *testing.T) {
		st := newStore(t)
		createSession(t, st, "first").Lock()

		_, err := session.Create(st, []byte("second"), testParams(), events.Discard())
		assert.ErrorIs(t, err, models.ErrVaultExists)
	})

	t.Run("unlock empty vault with correct password", func(t *testing.T) {
		st := newStore(t)
		createSession(t, st, "hunter2 horse battery").Lock()

		s, err := session.Unlock(st, []byte("hunter2 horse battery"), events.Discard())
		require.NoError(t, err)
		assert.Equal(t, 0, s.Len())
		s.Lock()
	})

	t.Run("wrong password is wrong password, not corruption", func(t *testing.T) {
		st := newStore(t)
		createSession(t, st, "right").Lock()

		_, err := session.Unlock(st, []byte("wrong"), events.Discard())
		assert.ErrorIs(t, err, models.ErrWrongPassword)
		assert.NotErrorIs(t, err, models.ErrCorrupt)
	})

	t.Run("unlock missing vault", func(t *testing.T) {
		_, err := session.Unlock(newStore(t), []byte("pw"), events.Discard())
		assert.ErrorIs(t, err, models.ErrVaultMissing)
	})
}

// The full life of one cold-storage key: store it, restart, retrieve it.
func TestColdKeyScenario(t *testing.T) {
	st := newStore(t)
	password := "correct horse battery staple"
	wif := []byte("L4rK3qfzFxyn1VfUEqzYrLvUqKb1zUPM4sxDbLFkbkPinGzUzKbo")

	s := createSession(t, st, password)
	info, err := s.Add("BTC cold key", models.KindPrivateKey, wif, "hardware wallet backup")
	require.NoError(t, err)
	assert.NotEmpty(t, info.ID)
	assert.Equal(t, models.KindPrivateKey, info.Kind)
	s.Lock()

	// On-disk bytes must never contain the plaintext.
	raw, err := os.ReadFile(st.Path())
	require.NoError(t, err)
	assert.NotContains(t, string(raw), string(wif))

	reopened, err := session.Unlock(st, []byte(password), events.Discard())
	require.NoError(t, err)
	defer reopened.Lock()

	assert.Equal(t, wif, secretOf(t, reopened, "BTC cold key"))
	assert.Equal(t, wif, secretOf(t, reopened, info.ID))
}

func TestTamperDetection(t *testing.T) {
	st := newStore(t)
	s := createSession(t, st, "pw")
	_, err := s.Add("eth key", models.KindPrivateKey, []byte("0xdeadbeef"), "")
	require.NoError(t, err)
	s.Lock()

	raw, err := os.ReadFile(st.Path())
	require.NoError(t, err)

	// The file ends with the last entry's ciphertext; flip one bit there.
	raw[len(raw)-1] ^= 0x01
	require.NoError(t, os.WriteFile(st.Path(), raw, 0o600))

	_, err = session.Unlock(st, []byte("pw"), events.Discard())
	assert.ErrorIs(t, err, models.ErrCorrupt)
	assert.NotErrorIs(t, err, models.ErrWrongPassword)
}

func TestAdd(t *testing.T) {
	t.Run("duplicate label rejected case-insensitively", func(t *testing.T) {
		s := createSession(t, newStore(t), "pw")
		defer s.Lock()

		_, err := s.Add("Ledger Seed", models.KindSeedPhrase, []byte("abandon ability able"), "")
		require.NoError(t, err)

		_, err = s.Add("ledger seed", models.KindSeedPhrase, []byte("other"), "")
		var exists *models.EntryExistsError
		assert.ErrorAs(t, err, &exists)
	})

	t.Run("blank label rejected", func(t *testing.T) {
		s := createSession(t, newStore(t), "pw")
		defer s.Lock()

		_, err := s.Add("   ", models.KindOther, []byte("x"), "")
		assert.Error(t, err)
	})

	t.Run("additions persist without an explicit save step", func(t *testing.T) {
		st := newStore(t)
		s := createSession(t, st, "pw")
		_, err := s.Add("one", models.KindOther, []byte("s1"), "")
		require.NoError(t, err)
		_, err = s.Add("two", models.KindOther, []byte("s2"), "")
		require.NoError(t, err)
		s.Lock()

		reopened, err := session.Unlock(st, []byte("pw"), events.Discard())
		require.NoError(t, err)
		defer reopened.Lock()
		assert.Equal(t, 2, reopened.Len())
	})
}

func TestGet(t *testing.T) {
	s := createSession(t, newStore(t), "pw")
	defer s.Lock()

	_, err := s.Add("monero seed", models.KindSeedPhrase, []byte("sequence of words"), "")
	require.NoError(t, err)

	t.Run("unknown reference", func(t *testing.T) {
		_, _, err := s.Get("no such entry")
		var notFound *models.EntryNotFoundError
		assert.ErrorAs(t, err, &notFound)
	})

	t.Run("caller gets an independent copy", func(t *testing.T) {
		_, buf, err := s.Get("monero seed")
		require.NoError(t, err)
		buf.Wipe()

		// Wiping the returned copy must not damage the cached secret.
		assert.Equal(t, []byte("sequence of words"), secretOf(t, s, "monero seed"))
	})
}

func TestUpdate(t *testing.T) {
	t.Run("replace secret", func(t *testing.T) {
		st := newStore(t)
		s := createSession(t, st, "pw")
		_, err := s.Add("key", models.KindPrivateKey, []byte("old secret"), "")
		require.NoError(t, err)

		_, err = s.Update("key", []byte("new secret"), nil, nil)
		require.NoError(t, err)
		assert.Equal(t, []byte("new secret"), secretOf(t, s, "key"))
		s.Lock()

		reopened, err := session.Unlock(st, []byte("pw"), events.Discard())
		require.NoError(t, err)
		defer reopened.Lock()
		assert.Equal(t, []byte("new secret"), secretOf(t, reopened, "key"))
	})

	t.Run("nil secret keeps payload while metadata changes", func(t *testing.T) {
		s := createSession(t, newStore(t), "pw")
		defer s.Lock()
		_, err := s.Add("key", models.KindPrivateKey, []byte("payload"), "old note")
		require.NoError(t, err)

		note := "new note"
		kind := models.KindOther
		info, err := s.Update("key", nil, &note, &kind)
		require.NoError(t, err)
		assert.Equal(t, "new note", info.Metadata)
		assert.Equal(t, models.KindOther, info.Kind)
		assert.Equal(t, []byte("payload"), secretOf(t, s, "key"))
	})
}

func TestRenameDelete(t *testing.T) {
	t.Run("rename keeps labels unique", func(t *testing.T) {
		s := createSession(t, newStore(t), "pw")
		defer s.Lock()
		_, err := s.Add("alpha", models.KindOther, []byte("a"), "")
		require.NoError(t, err)
		_, err = s.Add("beta", models.KindOther, []byte("b"), "")
		require.NoError(t, err)

		_, err = s.Rename("alpha", "Beta")
		var exists *models.EntryExistsError
		assert.ErrorAs(t, err, &exists)

		info, err := s.Rename("alpha", "gamma")
		require.NoError(t, err)
		assert.Equal(t, "gamma", info.Label)
		assert.Equal(t, []byte("a"), secretOf(t, s, "gamma"))
	})

	t.Run("delete removes entry permanently", func(t *testing.T) {
		st := newStore(t)
		s := createSession(t, st, "pw")
		_, err := s.Add("doomed", models.KindOther, []byte("x"), "")
		require.NoError(t, err)

		require.NoError(t, s.Delete("doomed"))
		_, _, err = s.Get("doomed")
		var notFound *models.EntryNotFoundError
		assert.ErrorAs(t, err, &notFound)
		s.Lock()

		reopened, err := session.Unlock(st, []byte("pw"), events.Discard())
		require.NoError(t, err)
		defer reopened.Lock()
		assert.Equal(t, 0, reopened.Len())
	})
}

func TestSearch(t *testing.T) {
	s := createSession(t, newStore(t), "pw")
	defer s.Lock()

	_, err := s.Add("BTC cold key", models.KindPrivateKey, []byte("1"), "trezor")
	require.NoError(t, err)
	_, err = s.Add("ETH hot key", models.KindPrivateKey, []byte("2"), "metamask")
	require.NoError(t, err)
	_, err = s.Add("Ledger seed", models.KindSeedPhrase, []byte("3"), "cold storage")
	require.NoError(t, err)

	t.Run("matches label", func(t *testing.T) {
		matches, err := s.Search("key")
		require.NoError(t, err)
		require.Len(t, matches, 2)
		assert.Equal(t, "BTC cold key", matches[0].Label)
		assert.Equal(t, "ETH hot key", matches[1].Label)
	})

	t.Run("matches metadata", func(t *testing.T) {
		matches, err := s.Search("cold")
		require.NoError(t, err)
		assert.Len(t, matches, 2)
	})

	t.Run("no matches", func(t *testing.T) {
		matches, err := s.Search("dogecoin")
		require.NoError(t, err)
		assert.Empty(t, matches)
	})
}

func TestLocked(t *testing.T) {
	s := createSession(t, newStore(t), "pw")
	_, err := s.Add("key", models.KindOther, []byte("x"), "")
	require.NoError(t, err)
	s.Lock()
	s.Lock() // idempotent

	_, err = s.Add("other", models.KindOther, []byte("y"), "")
	assert.ErrorIs(t, err, models.ErrSessionLocked)
	_, _, err = s.Get("key")
	assert.ErrorIs(t, err, models.ErrSessionLocked)
	_, err = s.List()
	assert.ErrorIs(t, err, models.ErrSessionLocked)
	assert.ErrorIs(t, s.Delete("key"), models.ErrSessionLocked)
	assert.ErrorIs(t, s.ChangePassword([]byte("pw"), []byte("new"), testParams()), models.ErrSessionLocked)
}

func TestChangePassword(t *testing.T) {
	st := newStore(t)
	secret := []byte("xprv9s21ZrQH143K3QTDL4LXw2F7HEK")

	s := createSession(t, st, "old password")
	_, err := s.Add("master key", models.KindPrivateKey, secret, "")
	require.NoError(t, err)

	t.Run("old password must verify first", func(t *testing.T) {
		err := s.ChangePassword([]byte("not the password"), []byte("new"), testParams())
		assert.ErrorIs(t, err, models.ErrWrongPassword)
	})

	require.NoError(t, s.ChangePassword([]byte("old password"), []byte("new password"), testParams()))

	t.Run("live session keeps working after rekey", func(t *testing.T) {
		assert.Equal(t, secret, secretOf(t, s, "master key"))
		_, err := s.Add("second", models.KindOther, []byte("more"), "")
		assert.NoError(t, err)
	})
	s.Lock()

	t.Run("old password no longer opens the vault", func(t *testing.T) {
		_, err := session.Unlock(st, []byte("old password"), events.Discard())
		assert.ErrorIs(t, err, models.ErrWrongPassword)
	})

	t.Run("new password recovers identical content", func(t *testing.T) {
		reopened, err := session.Unlock(st, []byte("new password"), events.Discard())
		require.NoError(t, err)
		defer reopened.Lock()
		assert.Equal(t, secret, secretOf(t, reopened, "master key"))
	})

	t.Run("changing back restores the original password", func(t *testing.T) {
		reopened, err := session.Unlock(st, []byte("new password"), events.Discard())
		require.NoError(t, err)
		require.NoError(t, reopened.ChangePassword([]byte("new password"), []byte("old password"), testParams()))
		reopened.Lock()

		again, err := session.Unlock(st, []byte("old password"), events.Discard())
		require.NoError(t, err)
		defer again.Lock()
		assert.Equal(t, secret, secretOf(t, again, "master key"))
	})
}

func TestExportImport(t *testing.T) {
	t.Run("backup opens under its own password", func(t *testing.T) {
		dir := t.TempDir()
		s := createSession(t, newStore(t), "vault pw")
		defer s.Lock()
		_, err := s.Add("key", models.KindPrivateKey, []byte("payload"), "")
		require.NoError(t, err)

		backupPath := filepath.Join(dir, "backup.cv")
		require.NoError(t, s.Export(backupPath, []byte("backup pw")))

		backup, err := session.Unlock(store.New(backupPath, events.Discard()), []byte("backup pw"), events.Discard())
		require.NoError(t, err)
		defer backup.Lock()
		assert.Equal(t, []byte("payload"), secretOf(t, backup, "key"))

		_, err = session.Unlock(store.New(backupPath, events.Discard()), []byte("vault pw"), events.Discard())
		assert.ErrorIs(t, err, models.ErrWrongPassword)
	})

	t.Run("import merges new entries and keeps existing on conflict", func(t *testing.T) {
		dir := t.TempDir()

		source := createSession(t, store.New(filepath.Join(dir, "source.cv"), events.Discard()), "src pw")
		shared, err := source.Add("shared", models.KindOther, []byte("source version"), "")
		require.NoError(t, err)
		_, err = source.Add("only in backup", models.KindOther, []byte("extra"), "")
		require.NoError(t, err)

		backupPath := filepath.Join(dir, "backup.cv")
		require.NoError(t, source.Export(backupPath, []byte("backup pw")))
		source.Lock()

		dest := createSession(t, store.New(filepath.Join(dir, "dest.cv"), events.Discard()), "dest pw")
		defer dest.Lock()
		// Same id as the backup's shared entry, different payload; drop the
		// other backup entry so re-importing it counts as new.
		importShared(t, dest, backupPath)
		require.NoError(t, dest.Delete("only in backup"))

		report, err := dest.Import(backupPath, []byte("backup pw"), false)
		require.NoError(t, err)
		assert.Equal(t, 1, report.Imported)
		assert.Equal(t, 0, report.Replaced)
		assert.Equal(t, []string{"shared"}, report.Conflicts)

		// Conflict kept the local version.
		assert.Equal(t, []byte("dest version"), secretOf(t, dest, shared.ID))
		assert.Equal(t, []byte("extra"), secretOf(t, dest, "only in backup"))
	})

	t.Run("overwrite replaces conflicting entries", func(t *testing.T) {
		dir := t.TempDir()

		source := createSession(t, store.New(filepath.Join(dir, "source.cv"), events.Discard()), "src pw")
		shared, err := source.Add("shared", models.KindOther, []byte("source version"), "")
		require.NoError(t, err)
		backupPath := filepath.Join(dir, "backup.cv")
		require.NoError(t, source.Export(backupPath, []byte("backup pw")))
		source.Lock()

		destStore := store.New(filepath.Join(dir, "dest.cv"), events.Discard())
		dest := createSession(t, destStore, "dest pw")
		importShared(t, dest, backupPath)

		report, err := dest.Import(backupPath, []byte("backup pw"), true)
		require.NoError(t, err)
		assert.Equal(t, 1, report.Replaced)
		assert.Empty(t, report.Conflicts)
		assert.Equal(t, []byte("source version"), secretOf(t, dest, shared.ID))
		dest.Lock()

		// Replacements are sealed under the destination key and persist.
		reopened, err := session.Unlock(destStore, []byte("dest pw"), events.Discard())
		require.NoError(t, err)
		defer reopened.Lock()
		assert.Equal(t, []byte("source version"), secretOf(t, reopened, shared.ID))
	})

	t.Run("import rejects wrong backup password", func(t *testing.T) {
		dir := t.TempDir()
		s := createSession(t, store.New(filepath.Join(dir, "v.cv"), events.Discard()), "pw")
		defer s.Lock()
		backupPath := filepath.Join(dir, "backup.cv")
		require.NoError(t, s.Export(backupPath, []byte("backup pw")))

		_, err := s.Import(backupPath, []byte("wrong"), false)
		assert.ErrorIs(t, err, models.ErrWrongPassword)
	})
}

// importShared pre-imports the backup into dest and then replaces the shared
// entry's payload, so a later import of the same backup collides on id.
func importShared(t *testing.T, dest *session.Session, backupPath string) {
	t.Helper()
	_, err := dest.Import(backupPath, []byte("backup pw"), false)
	require.NoError(t, err)
	_, err = dest.Update("shared", []byte("dest version"), nil, nil)
	require.NoError(t, err)
}
