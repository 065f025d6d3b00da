package models

import (
	"fmt"
	"strings"
)

// Format and algorithm identifiers persisted in the vault header. Unknown
// values must be rejected on load, never best-effort parsed.
const (
	FormatVersion uint16 = 1

	KDFArgon2id             uint8 = 1
	CipherXChaCha20Poly1305 uint8 = 1
)

// KDFParams are the argon2id cost parameters stored in the header so future
// derivations reproduce the same key. Fixed at vault creation; replaced only
// on password change.
type KDFParams struct {
	MemoryKiB   uint32 `json:"memory_kib"`
	Time        uint32 `json:"time"`
	Parallelism uint32 `json:"parallelism"`
}

// VaultHeader carries everything needed to re-derive the master key plus the
// canary that proves a derived key is correct without touching real secrets.
type VaultHeader struct {
	Version  uint16
	KDFID    uint8
	CipherID uint8
	Params   KDFParams
	Salt     []byte

	CanaryNonce      []byte
	CanaryCiphertext []byte
}

// VaultFile is the in-memory image of the on-disk container: header plus
// sealed entries in insertion order.
type VaultFile struct {
	Header  VaultHeader
	Entries []Entry
}

// FindByID returns the entry with the given id, or nil.
func (v *VaultFile) FindByID(id string) *Entry {
	for i := range v.Entries {
		if v.Entries[i].ID == id {
			return &v.Entries[i]
		}
	}
	return nil
}

// FindByLabel returns the entry whose label matches case-insensitively, or nil.
func (v *VaultFile) FindByLabel(label string) *Entry {
	lower := strings.ToLower(label)
	for i := range v.Entries {
		if strings.ToLower(v.Entries[i].Label) == lower {
			return &v.Entries[i]
		}
	}
	return nil
}

// Resolve looks an entry up by id first, then by label.
func (v *VaultFile) Resolve(ref string) *Entry {
	if e := v.FindByID(ref); e != nil {
		return e
	}
	return v.FindByLabel(ref)
}

// Remove deletes the entry with the given id, preserving order.
// Reports whether an entry was removed.
func (v *VaultFile) Remove(id string) bool {
	for i := range v.Entries {
		if v.Entries[i].ID == id {
			v.Entries = append(v.Entries[:i], v.Entries[i+1:]...)
			return true
		}
	}
	return false
}

// Validate checks header invariants and every entry record.
func (v *VaultFile) Validate() error {
	h := &v.Header
	if h.Version != FormatVersion {
		return &FormatVersionError{Version: h.Version}
	}
	if h.KDFID != KDFArgon2id {
		return fmt.Errorf("unknown kdf identifier %d", h.KDFID)
	}
	if h.CipherID != CipherXChaCha20Poly1305 {
		return fmt.Errorf("unknown cipher identifier %d", h.CipherID)
	}
	if len(h.Salt) == 0 {
		return fmt.Errorf("header salt is required")
	}
	for i := range v.Entries {
		if err := v.Entries[i].Validate(); err != nil {
			return fmt.Errorf("entry %d: %w", i, err)
		}
	}
	return nil
}
