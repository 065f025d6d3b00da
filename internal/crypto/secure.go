package crypto

import (
	"errors"
	"sync"
)

// ErrBufferWiped is returned when a wiped SecretBuffer is read.
var ErrBufferWiped = errors.New("secret buffer already wiped")

// SecretBuffer owns sensitive bytes (the master key or a decrypted payload)
// and guarantees they are overwritten with zeros exactly once on release.
// Callers must not retain the slice returned by Bytes past the buffer's
// lifetime. Wipe is safe to call multiple times and on every exit path.
type SecretBuffer struct {
	mu    sync.Mutex
	data  []byte
	wiped bool
}

// NewSecretBuffer takes ownership of data. The caller must not use the slice
// afterwards.
func NewSecretBuffer(data []byte) *SecretBuffer {
	return &SecretBuffer{data: data}
}

// CopySecret copies data into a new buffer, leaving the original untouched.
func CopySecret(data []byte) *SecretBuffer {
	cp := make([]byte, len(data))
	copy(cp, data)
	return NewSecretBuffer(cp)
}

// Bytes returns the underlying secret. Fails after Wipe.
func (b *SecretBuffer) Bytes() ([]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.wiped {
		return nil, ErrBufferWiped
	}
	return b.data, nil
}

// Len reports the secret length, or 0 once wiped.
func (b *SecretBuffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.wiped {
		return 0
	}
	return len(b.data)
}

// String returns the secret as text. Fails after Wipe.
func (b *SecretBuffer) String() (string, error) {
	data, err := b.Bytes()
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// Wipe zeroes the secret and marks the buffer dead. Idempotent.
func (b *SecretBuffer) Wipe() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.wiped {
		return
	}
	wipe(b.data)
	b.data = nil
	b.wiped = true
}

// Wiped reports whether the buffer has been released.
func (b *SecretBuffer) Wiped() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.wiped
}

func wipe(data []byte) {
	for i := range data {
		data[i] = 0
	}
}
