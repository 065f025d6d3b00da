package crypto

import (
	"crypto/cipher"
	"crypto/rand"
	"fmt"
	"io"

	"golang.org/x/crypto/chacha20poly1305"

	"github.com/coldvault/coldvault/internal/models"
)

const (
	// NonceSize is the XChaCha20-Poly1305 nonce length: 24 bytes (192 bits),
	// large enough that random generation per seal cannot collide in practice.
	NonceSize = chacha20poly1305.NonceSizeX

	// TagSize is the Poly1305 tag appended to every ciphertext.
	TagSize = chacha20poly1305.Overhead
)

// Seal encrypts plaintext under key/nonce with XChaCha20-Poly1305 and returns
// ciphertext with the tag appended. The associated data is authenticated but
// not encrypted; entries pass their id here to bind ciphertext to identity.
func Seal(key *SecretBuffer, nonce, plaintext, ad []byte) ([]byte, error) {
	aead, err := newAEAD(key)
	if err != nil {
		return nil, err
	}
	if len(nonce) != NonceSize {
		return nil, fmt.Errorf("nonce must be %d bytes, got %d", NonceSize, len(nonce))
	}
	return aead.Seal(nil, nonce, plaintext, ad), nil
}

// Open decrypts and authenticates ciphertext+tag. It fails closed: any
// modification of ciphertext, tag, nonce or associated data yields
// models.ErrAuthentication, never partial plaintext.
func Open(key *SecretBuffer, nonce, ciphertext, ad []byte) (*SecretBuffer, error) {
	aead, err := newAEAD(key)
	if err != nil {
		return nil, err
	}
	if len(nonce) != NonceSize {
		return nil, fmt.Errorf("nonce must be %d bytes, got %d", NonceSize, len(nonce))
	}
	if len(ciphertext) < TagSize {
		return nil, fmt.Errorf("%w: ciphertext shorter than tag", models.ErrAuthentication)
	}
	plaintext, err := aead.Open(nil, nonce, ciphertext, ad)
	if err != nil {
		return nil, models.ErrAuthentication
	}
	return NewSecretBuffer(plaintext), nil
}

// NewNonce returns a fresh random 24-byte nonce. One nonce per seal call;
// nonces are persisted alongside their ciphertext and never reused.
func NewNonce() ([]byte, error) {
	nonce := make([]byte, NonceSize)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("generate nonce: %w", err)
	}
	return nonce, nil
}

func newAEAD(key *SecretBuffer) (cipher.AEAD, error) {
	kb, err := key.Bytes()
	if err != nil {
		return nil, err
	}
	if len(kb) != KeySize {
		return nil, fmt.Errorf("key must be %d bytes, got %d", KeySize, len(kb))
	}
	aead, err := chacha20poly1305.NewX(kb)
	if err != nil {
		return nil, fmt.Errorf("create cipher: %w", err)
	}
	return aead, nil
}
