// Package session binds one unlocked vault file to one master key for the
// lifetime of the process. The session exclusively owns the master key and
// the decrypted-entry cache; locking wipes both.
package session

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/coldvault/coldvault/internal/crypto"
	"github.com/coldvault/coldvault/internal/events"
	"github.com/coldvault/coldvault/internal/models"
	"github.com/coldvault/coldvault/internal/store"
)

// The canary is a known-shape record sealed at vault creation. Opening it
// proves a derived key is correct without touching a real secret, and keeps
// wrong-password detection working for empty vaults.
var (
	canaryPlaintext = []byte("coldvault canary v1")
	canaryAD        = []byte("coldvault.canary")
)

// Session is the runtime binding of an unlocked VaultFile to a MasterKey.
// It is not designed for concurrent callers; the mutex protects the guard's
// independent timer goroutine touching nothing here, but keeps mutations safe
// if the UI layer ever overlaps calls.
type Session struct {
	mu     sync.Mutex
	store  *store.Store
	logger *events.Logger

	key    *crypto.SecretBuffer
	vault  *models.VaultFile
	cache  map[string]*crypto.SecretBuffer
	locked bool
}

// ImportReport summarizes a merge from an external backup.
type ImportReport struct {
	Imported  int      `json:"imported"`
	Replaced  int      `json:"replaced"`
	Conflicts []string `json:"conflicts,omitempty"`
}

// Create initializes a new vault at the store's path and returns an unlocked
// session for it. Fails with models.ErrVaultExists if a vault is present.
func Create(st *store.Store, password []byte, params models.KDFParams, logger *events.Logger) (*Session, error) {
	if st.Exists() {
		return nil, models.ErrVaultExists
	}
	if err := crypto.ValidateParams(params); err != nil {
		return nil, err
	}

	salt, err := crypto.NewSalt()
	if err != nil {
		return nil, err
	}
	key, err := crypto.DeriveKey(password, salt, params)
	if err != nil {
		return nil, err
	}

	header, err := sealHeader(key, salt, params)
	if err != nil {
		key.Wipe()
		return nil, err
	}

	vault := &models.VaultFile{Header: *header}
	if err := st.Save(vault); err != nil {
		key.Wipe()
		return nil, err
	}

	logger.WithField("path", st.Path()).Info("Vault created")

	return &Session{
		store:  st,
		logger: logger.WithField("component", "session"),
		key:    key,
		vault:  vault,
		cache:  map[string]*crypto.SecretBuffer{},
	}, nil
}

// Unlock loads the vault, derives the master key from the header and
// authenticates the canary plus every entry. A canary failure means wrong
// password; an entry failure after the canary opened means tampering and is
// reported as corruption. Structurally malformed files never reach key
// derivation; the store rejects them as corrupt first.
func Unlock(st *store.Store, password []byte, logger *events.Logger) (*Session, error) {
	vault, err := st.Load()
	if err != nil {
		return nil, err
	}

	h := &vault.Header
	key, err := crypto.DeriveKey(password, h.Salt, h.Params)
	if err != nil {
		return nil, err
	}

	canary, err := crypto.Open(key, h.CanaryNonce, h.CanaryCiphertext, canaryAD)
	if err != nil {
		key.Wipe()
		return nil, models.ErrWrongPassword
	}
	canary.Wipe()

	cache := make(map[string]*crypto.SecretBuffer, len(vault.Entries))
	for i := range vault.Entries {
		e := &vault.Entries[i]
		secret, err := crypto.Open(key, e.Nonce, e.Ciphertext, []byte(e.ID))
		if err != nil {
			for _, buf := range cache {
				buf.Wipe()
			}
			key.Wipe()
			return nil, &models.CorruptError{
				Reason: fmt.Sprintf("entry %q failed authentication", e.Label),
				Err:    err,
			}
		}
		cache[e.ID] = secret
	}

	logger.WithFields(map[string]interface{}{
		"path":    st.Path(),
		"entries": len(vault.Entries),
	}).Info("Vault unlocked")

	return &Session{
		store:  st,
		logger: logger.WithField("component", "session"),
		key:    key,
		vault:  vault,
		cache:  cache,
	}, nil
}

// Lock wipes the master key and every cached decrypted payload. All
// operations on a locked session fail with models.ErrSessionLocked.
func (s *Session) Lock() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.locked {
		return
	}
	s.key.Wipe()
	for _, buf := range s.cache {
		buf.Wipe()
	}
	s.cache = nil
	s.locked = true
	s.logger.Info("Session locked")
}

// Add seals a new entry under a fresh nonce and persists the vault
// immediately. Labels are unique case-insensitively.
func (s *Session) Add(label string, kind models.EntryKind, secret []byte, metadata string) (models.EntryInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.locked {
		return models.EntryInfo{}, models.ErrSessionLocked
	}
	if strings.TrimSpace(label) == "" {
		return models.EntryInfo{}, fmt.Errorf("entry label is required")
	}
	if existing := s.vault.FindByLabel(label); existing != nil {
		return models.EntryInfo{}, &models.EntryExistsError{Label: existing.Label}
	}

	now := time.Now().UTC()
	entry := models.Entry{
		ID:        uuid.NewString(),
		Label:     label,
		Kind:      kind,
		Metadata:  metadata,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.sealEntry(&entry, secret); err != nil {
		return models.EntryInfo{}, err
	}

	s.vault.Entries = append(s.vault.Entries, entry)
	if err := s.store.Save(s.vault); err != nil {
		s.vault.Remove(entry.ID)
		return models.EntryInfo{}, err
	}
	s.cache[entry.ID] = crypto.CopySecret(secret)

	s.logger.WithFields(map[string]interface{}{
		"id":   entry.ID,
		"kind": string(entry.Kind),
	}).Debug("Entry added")

	return entry.Info(), nil
}

// Get resolves an entry by id or label and returns its metadata plus a copy
// of the decrypted secret. The caller owns the returned buffer and must wipe
// it.
func (s *Session) Get(ref string) (models.EntryInfo, *crypto.SecretBuffer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.locked {
		return models.EntryInfo{}, nil, models.ErrSessionLocked
	}
	entry := s.vault.Resolve(ref)
	if entry == nil {
		return models.EntryInfo{}, nil, &models.EntryNotFoundError{Ref: ref}
	}
	plain, err := s.cache[entry.ID].Bytes()
	if err != nil {
		return models.EntryInfo{}, nil, err
	}
	return entry.Info(), crypto.CopySecret(plain), nil
}

// Update modifies an entry. A nil secret keeps the existing payload; the
// entry is re-sealed under a fresh nonce either way and the vault persisted.
func (s *Session) Update(ref string, secret []byte, metadata *string, kind *models.EntryKind) (models.EntryInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.locked {
		return models.EntryInfo{}, models.ErrSessionLocked
	}
	entry := s.vault.Resolve(ref)
	if entry == nil {
		return models.EntryInfo{}, &models.EntryNotFoundError{Ref: ref}
	}

	prev := *entry
	if metadata != nil {
		entry.Metadata = *metadata
	}
	if kind != nil {
		entry.Kind = *kind
	}
	if secret == nil {
		cached, err := s.cache[entry.ID].Bytes()
		if err != nil {
			return models.EntryInfo{}, err
		}
		secret = cached
	}
	entry.UpdatedAt = time.Now().UTC()
	if err := s.sealEntry(entry, secret); err != nil {
		*entry = prev
		return models.EntryInfo{}, err
	}

	if err := s.store.Save(s.vault); err != nil {
		*entry = prev
		return models.EntryInfo{}, err
	}

	fresh := crypto.CopySecret(secret)
	if old := s.cache[entry.ID]; old != nil {
		old.Wipe()
	}
	s.cache[entry.ID] = fresh

	s.logger.WithField("id", entry.ID).Debug("Entry updated")
	return entry.Info(), nil
}

// Rename changes an entry's label, keeping labels unique.
func (s *Session) Rename(ref, newLabel string) (models.EntryInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.locked {
		return models.EntryInfo{}, models.ErrSessionLocked
	}
	entry := s.vault.Resolve(ref)
	if entry == nil {
		return models.EntryInfo{}, &models.EntryNotFoundError{Ref: ref}
	}
	if strings.TrimSpace(newLabel) == "" {
		return models.EntryInfo{}, fmt.Errorf("entry label is required")
	}
	if other := s.vault.FindByLabel(newLabel); other != nil && other.ID != entry.ID {
		return models.EntryInfo{}, &models.EntryExistsError{Label: other.Label}
	}

	prevLabel, prevUpdated := entry.Label, entry.UpdatedAt
	entry.Label = newLabel
	entry.UpdatedAt = time.Now().UTC()
	if err := s.store.Save(s.vault); err != nil {
		entry.Label, entry.UpdatedAt = prevLabel, prevUpdated
		return models.EntryInfo{}, err
	}
	return entry.Info(), nil
}

// Delete removes an entry and persists the vault. There is no undo; the UI
// layer is responsible for confirmation.
func (s *Session) Delete(ref string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.locked {
		return models.ErrSessionLocked
	}
	entry := s.vault.Resolve(ref)
	if entry == nil {
		return &models.EntryNotFoundError{Ref: ref}
	}

	id := entry.ID
	removed := *entry
	idx := indexOf(s.vault.Entries, id)
	s.vault.Remove(id)
	if err := s.store.Save(s.vault); err != nil {
		s.vault.Entries = append(s.vault.Entries[:idx], append([]models.Entry{removed}, s.vault.Entries[idx:]...)...)
		return err
	}

	if buf := s.cache[id]; buf != nil {
		buf.Wipe()
	}
	delete(s.cache, id)

	s.logger.WithField("id", id).Debug("Entry deleted")
	return nil
}

// List returns the non-secret view of every entry in insertion order.
func (s *Session) List() ([]models.EntryInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.locked {
		return nil, models.ErrSessionLocked
	}
	infos := make([]models.EntryInfo, 0, len(s.vault.Entries))
	for i := range s.vault.Entries {
		infos = append(infos, s.vault.Entries[i].Info())
	}
	return infos, nil
}

// Search returns entries whose label or metadata contains the query,
// case-insensitively, sorted by label.
func (s *Session) Search(query string) ([]models.EntryInfo, error) {
	infos, err := s.List()
	if err != nil {
		return nil, err
	}
	q := strings.ToLower(query)
	matches := infos[:0]
	for _, info := range infos {
		if strings.Contains(strings.ToLower(info.Label), q) ||
			strings.Contains(strings.ToLower(info.Metadata), q) {
			matches = append(matches, info)
		}
	}
	sort.Slice(matches, func(i, j int) bool { return matches[i].Label < matches[j].Label })
	return matches, nil
}

// ChangePassword re-keys the entire vault: verify the old password, generate
// a fresh salt, derive a new master key with the given costs, re-seal the
// canary and every entry under fresh nonces, and persist in one atomic save.
// Either all entries move to the new key or none do.
func (s *Session) ChangePassword(oldPassword, newPassword []byte, params models.KDFParams) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.locked {
		return models.ErrSessionLocked
	}

	h := &s.vault.Header
	oldKey, err := crypto.DeriveKey(oldPassword, h.Salt, h.Params)
	if err != nil {
		return err
	}
	canary, err := crypto.Open(oldKey, h.CanaryNonce, h.CanaryCiphertext, canaryAD)
	oldKey.Wipe()
	if err != nil {
		return models.ErrWrongPassword
	}
	canary.Wipe()

	rekeyed, newKey, err := s.resealAll(newPassword, params)
	if err != nil {
		return err
	}

	if err := s.store.Save(rekeyed); err != nil {
		newKey.Wipe()
		return err
	}

	s.vault = rekeyed
	s.key.Wipe()
	s.key = newKey

	s.logger.Info("Master password changed")
	return nil
}

// Export writes a copy of the vault to an external path, re-sealed under a
// separately supplied password. The output uses the live container format
// and is portable across machines.
func (s *Session) Export(path string, password []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.locked {
		return models.ErrSessionLocked
	}

	copyFile, key, err := s.resealAll(password, s.vault.Header.Params)
	if err != nil {
		return err
	}
	defer key.Wipe()

	external := store.New(path, s.logger)
	if err := external.Save(copyFile); err != nil {
		return err
	}

	s.logger.WithFields(map[string]interface{}{
		"path":    path,
		"entries": len(copyFile.Entries),
	}).Info("Vault exported")
	return nil
}

// Import loads an external backup, authenticates it under the supplied
// password and merges its entries by id. Conflicting ids keep the existing
// entry and are reported, unless overwrite is set, in which case the backup
// entry replaces the live one. The merge persists as one save.
func (s *Session) Import(path string, password []byte, overwrite bool) (*ImportReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.locked {
		return nil, models.ErrSessionLocked
	}

	backupSession, err := Unlock(store.New(path, s.logger), password, events.Discard())
	if err != nil {
		return nil, err
	}
	defer backupSession.Lock()

	report := &ImportReport{}
	staged := map[string]*crypto.SecretBuffer{}
	prevEntries := append([]models.Entry(nil), s.vault.Entries...)

	restore := func() {
		s.vault.Entries = prevEntries
		for _, buf := range staged {
			buf.Wipe()
		}
	}

	for i := range backupSession.vault.Entries {
		incoming := backupSession.vault.Entries[i]
		secret, err := backupSession.cache[incoming.ID].Bytes()
		if err != nil {
			restore()
			return nil, err
		}

		existing := s.vault.FindByID(incoming.ID)
		if existing != nil && !overwrite {
			report.Conflicts = append(report.Conflicts, existing.Label)
			continue
		}

		sealed := incoming
		if err := s.sealEntry(&sealed, secret); err != nil {
			restore()
			return nil, err
		}

		if existing != nil {
			*existing = sealed
			report.Replaced++
		} else {
			s.vault.Entries = append(s.vault.Entries, sealed)
			report.Imported++
		}
		staged[sealed.ID] = crypto.CopySecret(secret)
	}

	if report.Imported > 0 || report.Replaced > 0 {
		if err := s.store.Save(s.vault); err != nil {
			restore()
			return nil, err
		}
	}

	// Commit the decrypted cache only once the merged vault is on disk.
	for id, buf := range staged {
		if old := s.cache[id]; old != nil {
			old.Wipe()
		}
		s.cache[id] = buf
	}

	s.logger.WithFields(map[string]interface{}{
		"imported":  report.Imported,
		"replaced":  report.Replaced,
		"conflicts": len(report.Conflicts),
	}).Info("Backup imported")
	return report, nil
}

// Len reports the number of entries.
func (s *Session) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.locked {
		return 0
	}
	return len(s.vault.Entries)
}

// sealEntry encrypts secret under the session key with a fresh nonce, binding
// the ciphertext to the entry id via associated data.
func (s *Session) sealEntry(entry *models.Entry, secret []byte) error {
	nonce, err := crypto.NewNonce()
	if err != nil {
		return err
	}
	ciphertext, err := crypto.Seal(s.key, nonce, secret, []byte(entry.ID))
	if err != nil {
		return err
	}
	entry.Nonce = nonce
	entry.Ciphertext = ciphertext
	return nil
}

// resealAll builds a new VaultFile with a fresh header and every entry
// re-sealed under a key derived from password. Used by password change and
// export; the caller owns the returned key.
func (s *Session) resealAll(password []byte, params models.KDFParams) (*models.VaultFile, *crypto.SecretBuffer, error) {
	salt, err := crypto.NewSalt()
	if err != nil {
		return nil, nil, err
	}
	key, err := crypto.DeriveKey(password, salt, params)
	if err != nil {
		return nil, nil, err
	}

	header, err := sealHeader(key, salt, params)
	if err != nil {
		key.Wipe()
		return nil, nil, err
	}

	out := &models.VaultFile{Header: *header}
	for i := range s.vault.Entries {
		e := s.vault.Entries[i]
		secret, err := s.cache[e.ID].Bytes()
		if err != nil {
			key.Wipe()
			return nil, nil, err
		}
		nonce, err := crypto.NewNonce()
		if err != nil {
			key.Wipe()
			return nil, nil, err
		}
		ciphertext, err := crypto.Seal(key, nonce, secret, []byte(e.ID))
		if err != nil {
			key.Wipe()
			return nil, nil, err
		}
		e.Nonce = nonce
		e.Ciphertext = ciphertext
		out.Entries = append(out.Entries, e)
	}
	return out, key, nil
}

func sealHeader(key *crypto.SecretBuffer, salt []byte, params models.KDFParams) (*models.VaultHeader, error) {
	nonce, err := crypto.NewNonce()
	if err != nil {
		return nil, err
	}
	ciphertext, err := crypto.Seal(key, nonce, canaryPlaintext, canaryAD)
	if err != nil {
		return nil, err
	}
	return &models.VaultHeader{
		Version:          models.FormatVersion,
		KDFID:            models.KDFArgon2id,
		CipherID:         models.CipherXChaCha20Poly1305,
		Params:           params,
		Salt:             salt,
		CanaryNonce:      nonce,
		CanaryCiphertext: ciphertext,
	}, nil
}

func indexOf(entries []models.Entry, id string) int {
	for i := range entries {
		if entries[i].ID == id {
			return i
		}
	}
	return -1
}
