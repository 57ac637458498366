// Package secret seals account passwords before they are written to the
// database. Sealed values are "enc:v1:" followed by base64 of a random
// nonce and a NaCl secretbox.
package secret

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/crypto/nacl/secretbox"
)

const (
	keySize   = 32
	nonceSize = 24
	prefix    = "enc:v1:"
)

var (
	// ErrBadKey is returned for a key file that does not hold a 32-byte key.
	ErrBadKey = errors.New("secret: bad key")
	// ErrDecrypt is returned when a sealed value fails authentication.
	ErrDecrypt = errors.New("secret: cannot decrypt value")
)

// Box seals and opens values with one symmetric key.
type Box struct {
	key [keySize]byte
}

// NewBox returns a Box using key, which must be 32 bytes.
func NewBox(key []byte) (*Box, error) {
	if len(key) != keySize {
		return nil, fmt.Errorf("%w: want %d bytes, got %d", ErrBadKey, keySize, len(key))
	}
	b := &Box{}
	copy(b.key[:], key)
	return b, nil
}

// LoadOrCreateKey reads the base64 key stored at path, creating the file
// with a fresh random key (mode 0600) when it does not exist.
func LoadOrCreateKey(path string) (*Box, error) {
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		key, derr := base64.StdEncoding.DecodeString(strings.TrimSpace(string(data)))
		if derr != nil {
			return nil, fmt.Errorf("%w: %v", ErrBadKey, derr)
		}
		return NewBox(key)
	case !errors.Is(err, os.ErrNotExist):
		return nil, err
	}

	key := make([]byte, keySize)
	if _, err := io.ReadFull(rand.Reader, key); err != nil {
		return nil, err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, err
		}
	}
	if err := os.WriteFile(path, []byte(base64.StdEncoding.EncodeToString(key)+"\n"), 0o600); err != nil {
		return nil, err
	}
	return NewBox(key)
}

// Seal encrypts plain. The empty string stays empty.
func (b *Box) Seal(plain string) (string, error) {
	if plain == "" {
		return "", nil
	}
	var nonce [nonceSize]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return "", err
	}
	out := secretbox.Seal(nonce[:], []byte(plain), &nonce, &b.key)
	return prefix + base64.StdEncoding.EncodeToString(out), nil
}

// Open decrypts a value produced by Seal. Values without the sealed prefix
// are returned unchanged, so rows written before encryption still read.
func (b *Box) Open(v string) (string, error) {
	if !IsSealed(v) {
		return v, nil
	}
	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(v, prefix))
	if err != nil || len(raw) < nonceSize+secretbox.Overhead {
		return "", ErrDecrypt
	}
	var nonce [nonceSize]byte
	copy(nonce[:], raw[:nonceSize])
	plain, ok := secretbox.Open(nil, raw[nonceSize:], &nonce, &b.key)
	if !ok {
		return "", ErrDecrypt
	}
	return string(plain), nil
}

// IsSealed reports whether v carries the sealed prefix.
func IsSealed(v string) bool { return strings.HasPrefix(v, prefix) }
