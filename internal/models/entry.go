package models

import (
	"fmt"
	"strings"
	"time"
)

// EntryKind classifies the secret stored in an entry.
type EntryKind string

const (
	KindPrivateKey EntryKind = "private-key"
	KindSeedPhrase EntryKind = "seed-phrase"
	KindOther      EntryKind = "other"
)

// ParseEntryKind maps user input to an EntryKind.
func ParseEntryKind(s string) (EntryKind, error) {
	switch EntryKind(strings.ToLower(strings.TrimSpace(s))) {
	case KindPrivateKey:
		return KindPrivateKey, nil
	case KindSeedPhrase:
		return KindSeedPhrase, nil
	case KindOther, "":
		return KindOther, nil
	default:
		return "", fmt.Errorf("unknown entry kind %q (want private-key, seed-phrase or other)", s)
	}
}

// String returns a display name for the kind.
func (k EntryKind) String() string {
	switch k {
	case KindPrivateKey:
		return "Private Key"
	case KindSeedPhrase:
		return "Seed Phrase"
	default:
		return "Other"
	}
}

// Entry is the sealed on-disk form of one secret. The payload exists only as
// ciphertext here; decrypted bytes live transiently in session-owned buffers.
type Entry struct {
	ID         string    `json:"id"`
	Label      string    `json:"label"`
	Kind       EntryKind `json:"kind"`
	Metadata   string    `json:"metadata,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
	Nonce      []byte    `json:"-"`
	Ciphertext []byte    `json:"-"` // includes the Poly1305 tag
}

// EntryInfo is the listing view of an entry: everything except the secret.
type EntryInfo struct {
	ID        string    `json:"id"`
	Label     string    `json:"label"`
	Kind      EntryKind `json:"kind"`
	Metadata  string    `json:"metadata,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Info returns the non-secret view of the entry.
func (e *Entry) Info() EntryInfo {
	return EntryInfo{
		ID:        e.ID,
		Label:     e.Label,
		Kind:      e.Kind,
		Metadata:  e.Metadata,
		CreatedAt: e.CreatedAt,
		UpdatedAt: e.UpdatedAt,
	}
}

// Validate checks structural invariants of a sealed entry record.
func (e *Entry) Validate() error {
	if strings.TrimSpace(e.ID) == "" {
		return fmt.Errorf("entry id is required")
	}
	if strings.TrimSpace(e.Label) == "" {
		return fmt.Errorf("entry label is required")
	}
	switch e.Kind {
	case KindPrivateKey, KindSeedPhrase, KindOther:
	default:
		return fmt.Errorf("invalid entry kind %q", e.Kind)
	}
	if e.CreatedAt.IsZero() {
		return fmt.Errorf("created_at timestamp is required")
	}
	if e.UpdatedAt.Before(e.CreatedAt) {
		return fmt.Errorf("updated_at cannot be before created_at")
	}
	return nil
}
