// Package format implements the on-disk vault container: a self-describing,
// little-endian, length-prefixed binary layout. Encoding and decoding are
// pure byte-buffer transforms; all I/O lives in the store package.
package format

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"time"

	"github.com/coldvault/coldvault/internal/models"
)

// Magic identifies a coldvault container file.
var Magic = [4]byte{'C', 'V', 'L', 'T'}

const (
	saltSize  = 32
	nonceSize = 24

	// maxFieldLen bounds any single length-prefixed field. A vault holds key
	// material and notes, not bulk data; anything larger is corruption.
	maxFieldLen = 16 * 1024 * 1024

	// maxEntries bounds the declared entry count before allocating.
	maxEntries = 1 << 20
)

// Encode serializes a VaultFile into the container layout.
func Encode(vault *models.VaultFile) ([]byte, error) {
	if err := vault.Validate(); err != nil {
		return nil, fmt.Errorf("encode vault: %w", err)
	}
	h := &vault.Header
	if len(h.Salt) != saltSize {
		return nil, fmt.Errorf("encode vault: salt must be %d bytes, got %d", saltSize, len(h.Salt))
	}
	if len(h.CanaryNonce) != nonceSize {
		return nil, fmt.Errorf("encode vault: canary nonce must be %d bytes, got %d", nonceSize, len(h.CanaryNonce))
	}

	var buf bytes.Buffer
	buf.Write(Magic[:])
	writeU16(&buf, h.Version)
	buf.WriteByte(h.KDFID)
	buf.WriteByte(h.CipherID)
	writeU32(&buf, h.Params.MemoryKiB)
	writeU32(&buf, h.Params.Time)
	writeU32(&buf, h.Params.Parallelism)
	buf.Write(h.Salt)
	buf.Write(h.CanaryNonce)
	writeBytes(&buf, h.CanaryCiphertext)

	writeU32(&buf, uint32(len(vault.Entries)))
	for i := range vault.Entries {
		e := &vault.Entries[i]
		if len(e.Nonce) != nonceSize {
			return nil, fmt.Errorf("encode entry %q: nonce must be %d bytes, got %d", e.ID, nonceSize, len(e.Nonce))
		}
		writeString(&buf, e.ID)
		writeString(&buf, e.Label)
		writeString(&buf, string(e.Kind))
		writeString(&buf, e.Metadata)
		writeI64(&buf, e.CreatedAt.UnixNano())
		writeI64(&buf, e.UpdatedAt.UnixNano())
		buf.Write(e.Nonce)
		writeBytes(&buf, e.Ciphertext)
	}

	return buf.Bytes(), nil
}

// Decode parses a container byte buffer. Unknown versions yield
// models.ErrUnsupportedFormat; truncation or malformed records yield
// models.ErrCorrupt. Decode never guesses at partial data.
func Decode(data []byte) (*models.VaultFile, error) {
	r := &reader{data: data}

	magic, err := r.take(4, "magic")
	if err != nil {
		return nil, err
	}
	if !bytes.Equal(magic, Magic[:]) {
		return nil, &models.CorruptError{Reason: "bad magic, not a vault file"}
	}

	version, err := r.u16("format version")
	if err != nil {
		return nil, err
	}
	if version != models.FormatVersion {
		return nil, &models.FormatVersionError{Version: version}
	}

	var vault models.VaultFile
	h := &vault.Header
	h.Version = version

	if h.KDFID, err = r.u8("kdf identifier"); err != nil {
		return nil, err
	}
	if h.CipherID, err = r.u8("cipher identifier"); err != nil {
		return nil, err
	}
	if h.Params.MemoryKiB, err = r.u32("kdf memory"); err != nil {
		return nil, err
	}
	if h.Params.Time, err = r.u32("kdf time"); err != nil {
		return nil, err
	}
	if h.Params.Parallelism, err = r.u32("kdf parallelism"); err != nil {
		return nil, err
	}
	if h.Salt, err = r.copyN(saltSize, "salt"); err != nil {
		return nil, err
	}
	if h.CanaryNonce, err = r.copyN(nonceSize, "canary nonce"); err != nil {
		return nil, err
	}
	if h.CanaryCiphertext, err = r.lengthPrefixed("canary ciphertext"); err != nil {
		return nil, err
	}

	count, err := r.u32("entry count")
	if err != nil {
		return nil, err
	}
	if count > maxEntries {
		return nil, &models.CorruptError{Reason: fmt.Sprintf("implausible entry count %d", count)}
	}

	vault.Entries = make([]models.Entry, 0, count)
	for i := uint32(0); i < count; i++ {
		e, err := decodeEntry(r, i)
		if err != nil {
			return nil, err
		}
		vault.Entries = append(vault.Entries, e)
	}

	if r.remaining() != 0 {
		return nil, &models.CorruptError{Reason: fmt.Sprintf("%d trailing bytes after last entry", r.remaining())}
	}
	if err := vault.Validate(); err != nil {
		if _, ok := err.(*models.FormatVersionError); ok {
			return nil, err
		}
		return nil, &models.CorruptError{Reason: "invalid record", Err: err}
	}
	return &vault, nil
}

func decodeEntry(r *reader, idx uint32) (models.Entry, error) {
	var e models.Entry
	ctx := func(field string) string { return fmt.Sprintf("entry %d %s", idx, field) }

	id, err := r.lengthPrefixed(ctx("id"))
	if err != nil {
		return e, err
	}
	label, err := r.lengthPrefixed(ctx("label"))
	if err != nil {
		return e, err
	}
	kind, err := r.lengthPrefixed(ctx("kind"))
	if err != nil {
		return e, err
	}
	metadata, err := r.lengthPrefixed(ctx("metadata"))
	if err != nil {
		return e, err
	}
	created, err := r.i64(ctx("created_at"))
	if err != nil {
		return e, err
	}
	updated, err := r.i64(ctx("updated_at"))
	if err != nil {
		return e, err
	}
	nonce, err := r.copyN(nonceSize, ctx("nonce"))
	if err != nil {
		return e, err
	}
	ciphertext, err := r.lengthPrefixed(ctx("ciphertext"))
	if err != nil {
		return e, err
	}

	e.ID = string(id)
	e.Label = string(label)
	e.Kind = models.EntryKind(kind)
	e.Metadata = string(metadata)
	e.CreatedAt = time.Unix(0, created).UTC()
	e.UpdatedAt = time.Unix(0, updated).UTC()
	e.Nonce = nonce
	e.Ciphertext = ciphertext
	return e, nil
}

// Write helpers. bytes.Buffer writes never fail.

func writeU16(buf *bytes.Buffer, v uint16) {
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], v)
	buf.Write(b[:])
}

func writeU32(buf *bytes.Buffer, v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	buf.Write(b[:])
}

func writeI64(buf *bytes.Buffer, v int64) {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], uint64(v))
	buf.Write(b[:])
}

func writeBytes(buf *bytes.Buffer, b []byte) {
	writeU32(buf, uint32(len(b)))
	buf.Write(b)
}

func writeString(buf *bytes.Buffer, s string) {
	writeBytes(buf, []byte(s))
}

// reader walks the buffer, turning every short read into a CorruptError that
// names the field it stopped at.
type reader struct {
	data []byte
	off  int
}

func (r *reader) remaining() int { return len(r.data) - r.off }

func (r *reader) take(n int, field string) ([]byte, error) {
	if r.remaining() < n {
		return nil, &models.CorruptError{Reason: fmt.Sprintf("truncated at %s", field)}
	}
	b := r.data[r.off : r.off+n]
	r.off += n
	return b, nil
}

func (r *reader) copyN(n int, field string) ([]byte, error) {
	b, err := r.take(n, field)
	if err != nil {
		return nil, err
	}
	cp := make([]byte, n)
	copy(cp, b)
	return cp, nil
}

func (r *reader) u8(field string) (uint8, error) {
	b, err := r.take(1, field)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (r *reader) u16(field string) (uint16, error) {
	b, err := r.take(2, field)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b), nil
}

func (r *reader) u32(field string) (uint32, error) {
	b, err := r.take(4, field)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

func (r *reader) i64(field string) (int64, error) {
	b, err := r.take(8, field)
	if err != nil {
		return 0, err
	}
	return int64(binary.LittleEndian.Uint64(b)), nil
}

func (r *reader) lengthPrefixed(field string) ([]byte, error) {
	n, err := r.u32(field + " length")
	if err != nil {
		return nil, err
	}
	if n > maxFieldLen {
		return nil, &models.CorruptError{Reason: fmt.Sprintf("%s length %d exceeds limit", field, n)}
	}
	return r.copyN(int(n), field)
}
