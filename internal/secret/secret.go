// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package secret stores the Discord token encrypted at rest.
package secret

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"golang.org/x/crypto/pbkdf2"

	"github.com/jeranaias/cordial-tui/internal/util"
)

// =============================================================================
// CONSTANTS
// =============================================================================

// EnvToken is the environment variable that overrides the stored token.
const EnvToken = "CORDIAL_TOKEN"

// encryptedPrefix versions the on-disk format:
// ENC1:base64(nonce || ciphertext || tag)
const encryptedPrefix = "ENC1:"

// nonceSize is the AES-GCM nonce size (96 bits).
const nonceSize = 12

// keySize is the AES-256 key size.
const keySize = 32

// saltSize is the key-derivation salt size.
const saltSize = 32

// kdfIterations is the PBKDF2-SHA-256 iteration count. OWASP recommends
// 600,000+ against brute force on current hardware.
const kdfIterations = 600000

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrNoToken indicates no token is stored: run 'cordial login'
	ErrNoToken = errors.New("no token stored: run 'cordial login'")
	// ErrInvalidCiphertext indicates the token file is malformed
	ErrInvalidCiphertext = errors.New("token file is malformed")
	// ErrDecryptFailed indicates authentication failed: wrong machine or
	// tampered file
	ErrDecryptFailed = errors.New("token decryption failed: authentication tag mismatch")
)

// ZeroBytes zeros sensitive byte slices to limit exposure of key material
// in crash dumps.
func ZeroBytes(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

// =============================================================================
// STORE
// =============================================================================

// Store keeps the token AES-256-GCM encrypted on disk, keyed by a
// PBKDF2-derived machine-bound key. The ciphertext is useless when copied
// to another machine.
type Store struct {
	dir string
}

// NewStore creates a token store rooted at dir.
func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

// DefaultStore creates a token store under ~/.cordial.
func DefaultStore() (*Store, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to determine home directory: %w", err)
	}
	return NewStore(filepath.Join(home, ".cordial")), nil
}

// TokenPath returns the encrypted token file path.
func (s *Store) TokenPath() string {
	return filepath.Join(s.dir, "token.enc")
}

func (s *Store) saltPath() string {
	return filepath.Join(s.dir, "token.salt")
}

// =============================================================================
// OPERATIONS
// =============================================================================

// Save encrypts the token and writes it with restricted permissions. A
// fresh salt is generated on every save, so re-login rotates the derived
// key.
func (s *Store) Save(token string) error {
	salt := make([]byte, saltSize)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return fmt.Errorf("failed to generate salt: %w", err)
	}

	key := deriveKey(salt)
	defer ZeroBytes(key)

	aead, err := newAEAD(key)
	if err != nil {
		return err
	}

	nonce := make([]byte, nonceSize)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return fmt.Errorf("failed to generate nonce: %w", err)
	}

	sealed := aead.Seal(nonce, nonce, []byte(token), nil)
	encoded := encryptedPrefix + base64.StdEncoding.EncodeToString(sealed)

	if err := util.AtomicWriteFileWithDir(s.saltPath(), salt, 0600, 0700); err != nil {
		return fmt.Errorf("failed to save salt: %w", err)
	}
	if err := util.AtomicWriteFileWithDir(s.TokenPath(), []byte(encoded), 0600, 0700); err != nil {
		return fmt.Errorf("failed to save token: %w", err)
	}

	return nil
}

// Load returns the token. The CORDIAL_TOKEN environment variable wins over
// the stored file; a missing file returns ErrNoToken.
func (s *Store) Load() (string, error) {
	if v := os.Getenv(EnvToken); v != "" {
		return v, nil
	}

	data, err := os.ReadFile(s.TokenPath())
	if os.IsNotExist(err) {
		return "", ErrNoToken
	}
	if err != nil {
		return "", fmt.Errorf("failed to read token file: %w", err)
	}
	s.fixPermissions()

	encoded, ok := strings.CutPrefix(strings.TrimSpace(string(data)), encryptedPrefix)
	if !ok {
		return "", ErrInvalidCiphertext
	}

	sealed, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil || len(sealed) <= nonceSize {
		return "", ErrInvalidCiphertext
	}

	salt, err := os.ReadFile(s.saltPath())
	if err != nil {
		return "", ErrInvalidCiphertext
	}

	key := deriveKey(salt)
	defer ZeroBytes(key)

	aead, err := newAEAD(key)
	if err != nil {
		return "", err
	}

	plaintext, err := aead.Open(nil, sealed[:nonceSize], sealed[nonceSize:], nil)
	if err != nil {
		return "", ErrDecryptFailed
	}

	return string(plaintext), nil
}

// Present reports whether a token is available without decrypting it.
func (s *Store) Present() bool {
	if os.Getenv(EnvToken) != "" {
		return true
	}
	_, err := os.Stat(s.TokenPath())
	return err == nil
}

// FromEnv reports whether the environment override is active.
func (s *Store) FromEnv() bool {
	return os.Getenv(EnvToken) != ""
}

// Clear removes the stored token and salt, overwriting the token file
// first so the ciphertext does not linger on disk.
func (s *Store) Clear() error {
	if err := shred(s.TokenPath()); err != nil {
		return fmt.Errorf("failed to remove token: %w", err)
	}
	if err := shred(s.saltPath()); err != nil {
		return fmt.Errorf("failed to remove salt: %w", err)
	}
	return nil
}

// shred overwrites a file with zeros and removes it. Missing files are
// fine.
func shred(path string) error {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}

	if size := info.Size(); size > 0 {
		if f, err := os.OpenFile(path, os.O_WRONLY, 0600); err == nil {
			_, _ = f.Write(make([]byte, size))
			_ = f.Sync()
			_ = f.Close()
		}
	}

	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// fixPermissions tightens a loose token file to 0600.
func (s *Store) fixPermissions() {
	if info, err := os.Stat(s.TokenPath()); err == nil && info.Mode().Perm()&0077 != 0 {
		_ = os.Chmod(s.TokenPath(), 0600)
	}
}

// =============================================================================
// KEY DERIVATION
// =============================================================================

// deriveKey derives the AES-256 key from the machine identity and salt
// using PBKDF2-SHA-256.
func deriveKey(salt []byte) []byte {
	return pbkdf2.Key(machineSecret(), salt, kdfIterations, keySize, sha256.New)
}

// machineSecret returns a stable per-machine identifier to bind the key
// to this host: /etc/machine-id where available, otherwise hostname, home
// directory, and uid.
func machineSecret() []byte {
	if b, err := os.ReadFile("/etc/machine-id"); err == nil {
		if id := bytes.TrimSpace(b); len(id) > 0 {
			return id
		}
	}

	host, _ := os.Hostname()
	home, _ := os.UserHomeDir()
	return []byte(host + ":" + home + ":" + strconv.Itoa(os.Getuid()))
}

// newAEAD builds the AES-256-GCM cipher for a derived key.
func newAEAD(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create AES cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM cipher: %w", err)
	}
	return gcm, nil
}
