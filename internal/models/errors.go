package models

import (
	"errors"
	"fmt"
)

// Sentinel errors for the vault core. The CLI layer matches on these with
// errors.Is to decide whether to re-prompt, report first-run setup, or abort.
var (
	ErrWrongPassword     = errors.New("wrong master password")
	ErrVaultMissing      = errors.New("vault not found")
	ErrVaultExists       = errors.New("vault already exists")
	ErrCorrupt           = errors.New("vault corrupt")
	ErrUnsupportedFormat = errors.New("unsupported vault format version")
	ErrAuthentication    = errors.New("authentication failed")
	ErrKeyDerivation     = errors.New("invalid key derivation parameters")
	ErrSessionLocked     = errors.New("session is locked")
	ErrEmptyPassword     = errors.New("password cannot be empty")
)

// CorruptError describes a structurally invalid or tamper-evident vault.
type CorruptError struct {
	Reason string
	Err    error
}

func (e *CorruptError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("vault corrupt: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("vault corrupt: %s", e.Reason)
}

func (e *CorruptError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrCorrupt
}

// Is lets errors.Is(err, ErrCorrupt) match regardless of the wrapped cause.
func (e *CorruptError) Is(target error) bool {
	return target == ErrCorrupt
}

// FormatVersionError reports a vault written by a newer or unknown format.
type FormatVersionError struct {
	Version uint16
}

func (e *FormatVersionError) Error() string {
	return fmt.Sprintf("unsupported vault format version %d", e.Version)
}

func (e *FormatVersionError) Unwrap() error { return ErrUnsupportedFormat }

// EntryNotFoundError reports a lookup miss by id or label.
type EntryNotFoundError struct {
	Ref string
}

func (e *EntryNotFoundError) Error() string {
	return fmt.Sprintf("entry %q not found", e.Ref)
}

// EntryExistsError reports a label collision on add or rename.
type EntryExistsError struct {
	Label string
}

func (e *EntryExistsError) Error() string {
	return fmt.Sprintf("entry %q already exists", e.Label)
}
