// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package secret stores the Discord token encrypted at rest.
//
// The token lives under ~/.cordial as ENC1:base64(nonce||ciphertext||tag),
// sealed with AES-256-GCM. The key is derived with PBKDF2-SHA-256 (600k
// iterations) from a per-save random salt and a machine identifier, so the
// ciphertext is bound to the host it was written on: copying the file to
// another machine fails authentication. Files are written atomically with
// 0600 permissions in a 0700 directory.
//
// The CORDIAL_TOKEN environment variable overrides the stored token, which
// keeps CI and throwaway sessions off the disk entirely.
//
// # Usage
//
//	store, err := secret.DefaultStore()
//	if err != nil {
//	    return err
//	}
//	token, err := store.Load()
//	if errors.Is(err, secret.ErrNoToken) {
//	    // prompt for login
//	}
package secret
