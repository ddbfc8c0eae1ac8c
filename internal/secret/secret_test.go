// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package secret

import (
	"encoding/base64"
	"errors"
	"os"
	"strings"
	"testing"
)

// =============================================================================
// ROUNDTRIP
// =============================================================================

func TestStore_SaveLoadRoundtrip(t *testing.T) {
	t.Setenv(EnvToken, "")
	store := NewStore(t.TempDir())

	if err := store.Save("mfa.very-secret-token"); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	got, err := store.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if got != "mfa.very-secret-token" {
		t.Errorf("Load returned %q, want the saved token", got)
	}
}

func TestStore_SaveOverwritesAndRotatesSalt(t *testing.T) {
	t.Setenv(EnvToken, "")
	store := NewStore(t.TempDir())

	if err := store.Save("first"); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	salt1, err := os.ReadFile(store.saltPath())
	if err != nil {
		t.Fatalf("reading salt failed: %v", err)
	}

	if err := store.Save("second"); err != nil {
		t.Fatalf("second Save failed: %v", err)
	}
	salt2, err := os.ReadFile(store.saltPath())
	if err != nil {
		t.Fatalf("reading salt failed: %v", err)
	}

	if string(salt1) == string(salt2) {
		t.Error("re-saving should generate a fresh salt")
	}

	got, err := store.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if got != "second" {
		t.Errorf("Load returned %q, want the re-saved token", got)
	}
}

func TestStore_TokenOnDiskIsNotPlaintext(t *testing.T) {
	t.Setenv(EnvToken, "")
	store := NewStore(t.TempDir())

	if err := store.Save("mfa.very-secret-token"); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	raw, err := os.ReadFile(store.TokenPath())
	if err != nil {
		t.Fatalf("reading token file failed: %v", err)
	}
	if strings.Contains(string(raw), "very-secret") {
		t.Error("token file contains the plaintext token")
	}
	if !strings.HasPrefix(string(raw), "ENC1:") {
		t.Errorf("token file = %q, want the versioned format prefix", raw[:min(len(raw), 8)])
	}
}

// =============================================================================
// ENVIRONMENT OVERRIDE
// =============================================================================

func TestStore_EnvOverrideWins(t *testing.T) {
	store := NewStore(t.TempDir())
	if err := store.Save("stored-token"); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	t.Setenv(EnvToken, "env-token")

	got, err := store.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if got != "env-token" {
		t.Errorf("Load returned %q, want the environment token", got)
	}
	if !store.FromEnv() {
		t.Error("FromEnv should report the override as active")
	}
}

func TestStore_Present(t *testing.T) {
	t.Setenv(EnvToken, "")
	store := NewStore(t.TempDir())

	if store.Present() {
		t.Error("empty store should not report a token present")
	}

	if err := store.Save("tok"); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if !store.Present() {
		t.Error("store should report a token present after Save")
	}

	t.Setenv(EnvToken, "env-token")
	empty := NewStore(t.TempDir())
	if !empty.Present() {
		t.Error("environment token should count as present")
	}
}

// =============================================================================
// FAILURE MODES
// =============================================================================

func TestStore_LoadMissingToken(t *testing.T) {
	t.Setenv(EnvToken, "")
	store := NewStore(t.TempDir())

	if _, err := store.Load(); !errors.Is(err, ErrNoToken) {
		t.Errorf("Load on empty store = %v, want ErrNoToken", err)
	}
}

func TestStore_TamperedCiphertextFailsAuth(t *testing.T) {
	t.Setenv(EnvToken, "")
	store := NewStore(t.TempDir())

	if err := store.Save("tok"); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	raw, err := os.ReadFile(store.TokenPath())
	if err != nil {
		t.Fatalf("reading token file failed: %v", err)
	}
	sealed, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(string(raw), "ENC1:"))
	if err != nil {
		t.Fatalf("decoding token file failed: %v", err)
	}

	// Flip one ciphertext bit; GCM must refuse to open it
	sealed[len(sealed)-1] ^= 0x01
	tampered := "ENC1:" + base64.StdEncoding.EncodeToString(sealed)
	if err := os.WriteFile(store.TokenPath(), []byte(tampered), 0600); err != nil {
		t.Fatalf("writing tampered file failed: %v", err)
	}

	if _, err := store.Load(); !errors.Is(err, ErrDecryptFailed) {
		t.Errorf("Load of tampered file = %v, want ErrDecryptFailed", err)
	}
}

func TestStore_MalformedTokenFile(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"no prefix", "just some bytes"},
		{"bad base64", "ENC1:!!!not-base64!!!"},
		{"too short", "ENC1:" + base64.StdEncoding.EncodeToString([]byte("tiny"))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(EnvToken, "")
			store := NewStore(t.TempDir())
			if err := os.WriteFile(store.TokenPath(), []byte(tt.content), 0600); err != nil {
				t.Fatalf("writing token file failed: %v", err)
			}

			if _, err := store.Load(); !errors.Is(err, ErrInvalidCiphertext) {
				t.Errorf("Load = %v, want ErrInvalidCiphertext", err)
			}
		})
	}
}

func TestStore_MissingSaltIsInvalid(t *testing.T) {
	t.Setenv(EnvToken, "")
	store := NewStore(t.TempDir())

	if err := store.Save("tok"); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if err := os.Remove(store.saltPath()); err != nil {
		t.Fatalf("removing salt failed: %v", err)
	}

	if _, err := store.Load(); !errors.Is(err, ErrInvalidCiphertext) {
		t.Errorf("Load without salt = %v, want ErrInvalidCiphertext", err)
	}
}

// =============================================================================
// CLEAR
// =============================================================================

func TestStore_ClearRemovesToken(t *testing.T) {
	t.Setenv(EnvToken, "")
	store := NewStore(t.TempDir())

	if err := store.Save("tok"); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if err := store.Clear(); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}

	if store.Present() {
		t.Error("token should not be present after Clear")
	}
	if _, err := store.Load(); !errors.Is(err, ErrNoToken) {
		t.Errorf("Load after Clear = %v, want ErrNoToken", err)
	}
	if _, err := os.Stat(store.saltPath()); !os.IsNotExist(err) {
		t.Error("salt file should be removed by Clear")
	}
}

func TestStore_ClearOnEmptyStoreIsFine(t *testing.T) {
	store := NewStore(t.TempDir())
	if err := store.Clear(); err != nil {
		t.Errorf("Clear on empty store failed: %v", err)
	}
}

// =============================================================================
// PERMISSIONS
// =============================================================================

func TestStore_FilesWrittenWithRestrictedPermissions(t *testing.T) {
	t.Setenv(EnvToken, "")
	store := NewStore(t.TempDir())

	if err := store.Save("tok"); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	for _, path := range []string{store.TokenPath(), store.saltPath()} {
		info, err := os.Stat(path)
		if err != nil {
			t.Fatalf("stat %s failed: %v", path, err)
		}
		if perm := info.Mode().Perm(); perm&0077 != 0 {
			t.Errorf("%s has permissions %o, want no group/world access", path, perm)
		}
	}
}

func TestStore_LoadFixesLoosePermissions(t *testing.T) {
	t.Setenv(EnvToken, "")
	store := NewStore(t.TempDir())

	if err := store.Save("tok"); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if err := os.Chmod(store.TokenPath(), 0644); err != nil {
		t.Fatalf("chmod failed: %v", err)
	}

	if _, err := store.Load(); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	info, err := os.Stat(store.TokenPath())
	if err != nil {
		t.Fatalf("stat failed: %v", err)
	}
	if perm := info.Mode().Perm(); perm&0077 != 0 {
		t.Errorf("token file has permissions %o after Load, want tightened to 0600", perm)
	}
}
