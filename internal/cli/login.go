// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli parses command-line arguments and implements the cordial
// subcommands that run outside the TUI.
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/peterh/liner"
	"github.com/pquerna/otp/totp"

	"github.com/jeranaias/cordial-tui/internal/discord"
	"github.com/jeranaias/cordial-tui/internal/secret"
)

// loginTimeout bounds each auth round trip.
const loginTimeout = 15 * time.Second

// =============================================================================
// HANDLE LOGIN
// =============================================================================

// HandleLogin handles the "login" command.
//
// Three entry paths feed the same token pipeline:
//   - --token TOKEN saves a token non-interactively
//   - --email ADDR (or typing an email at the prompt) runs the
//     email/password flow, completing MFA with --totp-secret or a
//     prompted code
//   - no flags: a hidden prompt accepts a pasted token, and an empty
//     paste falls through to the email flow
//
// Every path verifies the token against the API before saving unless
// --no-verify is set, so a typo fails here instead of at first launch.
func HandleLogin(args Args) error {
	store, err := secret.DefaultStore()
	if err != nil {
		return fmt.Errorf("cannot locate token store: %w", err)
	}

	p := NewArgParser(args.Raw)
	verify := !p.BoolFlag("no-verify") && !args.Offline

	// Non-interactive path.
	if token := p.Flag("token"); token != "" {
		return saveToken(store, token, verify)
	}

	email := p.Flag("email")

	if email == "" {
		if err := RequiresTTY("log in"); err != nil {
			return err
		}
		token, err := readSecret("Token (hidden; press enter for email login): ")
		if err != nil {
			return err
		}
		if token != "" {
			return saveToken(store, token, verify)
		}
	}

	return emailLogin(store, email, p.Flag("totp-secret"), verify)
}

// emailLogin runs the email/password flow, including the MFA leg.
func emailLogin(store *secret.Store, email, totpSecret string, verify bool) error {
	if err := RequiresTTY("log in"); err != nil {
		return err
	}

	if email == "" {
		var err error
		email, err = promptLine("Email: ")
		if err != nil {
			return err
		}
		if email == "" {
			return errors.New("email is required")
		}
	}

	password, err := readSecret("Password: ")
	if err != nil {
		return err
	}
	if password == "" {
		return errors.New("password is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), loginTimeout)
	defer cancel()

	client := discord.NewClient("")
	res, err := client.Login(ctx, email, password)
	if err != nil {
		if discord.IsUnauthorized(err) {
			return errors.New("login failed: wrong email or password")
		}
		return fmt.Errorf("login failed: %w", err)
	}

	if res.MFA {
		code := ""
		if totpSecret != "" {
			code, err = totp.GenerateCode(totpSecret, time.Now())
			if err != nil {
				return fmt.Errorf("cannot generate code from --totp-secret: %w", err)
			}
		} else {
			code, err = promptLine("MFA code: ")
			if err != nil {
				return err
			}
		}
		code = strings.TrimSpace(code)
		if code == "" {
			return errors.New("this account requires an MFA code")
		}

		mfaCtx, mfaCancel := context.WithTimeout(context.Background(), loginTimeout)
		defer mfaCancel()
		res, err = client.LoginTOTP(mfaCtx, code, res.Ticket)
		if err != nil {
			if discord.IsUnauthorized(err) {
				return errors.New("login failed: MFA code rejected")
			}
			return fmt.Errorf("login failed: %w", err)
		}
	}

	if res.Token == "" {
		return errors.New("login succeeded but the API returned no token")
	}

	return saveToken(store, res.Token, verify)
}

// saveToken optionally verifies the token against the API, then encrypts
// and stores it.
func saveToken(store *secret.Store, token string, verify bool) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return errors.New("token is empty")
	}

	who := ""
	if verify {
		ctx, cancel := context.WithTimeout(context.Background(), loginTimeout)
		defer cancel()

		me, err := discord.NewClient(token).Me(ctx)
		switch {
		case discord.IsUnauthorized(err):
			return errors.New("token rejected by the API; not saved")
		case discord.IsNetwork(err):
			fmt.Fprintln(os.Stderr, "warning: network unavailable, token saved unverified")
		case err != nil:
			return fmt.Errorf("token verification failed: %w", err)
		default:
			who = me.Username
		}
	}

	if err := store.Save(token); err != nil {
		return fmt.Errorf("cannot store token: %w", err)
	}

	if who != "" {
		fmt.Printf("Logged in as %s. Token stored at %s\n", who, store.TokenPath())
	} else {
		fmt.Printf("Token stored at %s\n", store.TokenPath())
	}
	if store.FromEnv() {
		fmt.Fprintf(os.Stderr, "note: %s is set and overrides the stored token\n", secret.EnvToken)
	}
	return nil
}

// promptLine reads one line with editing support. Ctrl-C aborts cleanly.
func promptLine(prompt string) (string, error) {
	line := liner.NewLiner()
	defer line.Close()
	line.SetCtrlCAborts(true)

	input, err := line.Prompt(prompt)
	if err == liner.ErrPromptAborted {
		return "", errors.New("aborted")
	}
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(input), nil
}

// =============================================================================
// HANDLE LOGOUT
// =============================================================================

// HandleLogout handles the "logout" command, shredding the stored token.
func HandleLogout(args Args) error {
	store, err := secret.DefaultStore()
	if err != nil {
		return fmt.Errorf("cannot locate token store: %w", err)
	}

	_, statErr := os.Stat(store.TokenPath())
	hadFile := statErr == nil

	if err := store.Clear(); err != nil {
		return fmt.Errorf("logout failed: %w", err)
	}

	if hadFile {
		fmt.Println("Stored token removed.")
	} else {
		fmt.Println("No stored token.")
	}
	if store.FromEnv() {
		fmt.Fprintf(os.Stderr, "note: %s is still set in the environment\n", secret.EnvToken)
	}
	return nil
}
