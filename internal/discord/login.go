// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package discord provides the HTTP client for the Discord REST API (v10).
package discord

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
)

// =============================================================================
// LOGIN TYPES
// =============================================================================

// loginRequest is the body for POST /auth/login.
type loginRequest struct {
	Login    string `json:"login"`
	Password string `json:"password"`
	Undelete bool   `json:"undelete"`
}

// totpRequest is the body for POST /auth/mfa/totp.
type totpRequest struct {
	Code   string `json:"code"`
	Ticket string `json:"ticket"`
}

// LoginResult is the outcome of a login attempt. When MFA is true the token
// is empty and Ticket must be redeemed with LoginTOTP.
type LoginResult struct {
	Token  string `json:"token"`
	MFA    bool   `json:"mfa"`
	Ticket string `json:"ticket"`
}

// =============================================================================
// LOGIN FLOW
// =============================================================================

// Login authenticates with email and password. Accounts with TOTP enabled
// return MFA=true plus a ticket instead of a token; complete the flow with
// LoginTOTP.
func (c *Client) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	return c.postAuth(ctx, "/auth/login", loginRequest{Login: email, Password: password})
}

// LoginTOTP redeems an MFA ticket with a TOTP code and returns the token.
func (c *Client) LoginTOTP(ctx context.Context, code, ticket string) (*LoginResult, error) {
	return c.postAuth(ctx, "/auth/mfa/totp", totpRequest{Code: code, Ticket: ticket})
}

// postAuth performs an unauthenticated POST against the auth endpoints.
// These run before a token exists, so no Authorization header is sent.
func (c *Client) postAuth(ctx context.Context, path string, reqBody any) (*LoginResult, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, &APIError{Type: ErrTypeNetwork, Message: "rate limiter wait aborted", Cause: err}
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, &APIError{Type: ErrTypeInvalidResponse, Message: "failed to marshal request", Cause: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, &APIError{Type: ErrTypeNetwork, Message: "failed to create request", Cause: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", c.config.UserAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &APIError{Type: ErrTypeNetwork, Message: "login request failed", Cause: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		// Discord answers bad credentials with 400, not 401
		if resp.StatusCode == http.StatusBadRequest {
			return nil, &APIError{Type: ErrTypeUnauthorized, Message: "login rejected: check credentials", StatusCode: resp.StatusCode}
		}
		return nil, c.statusError(resp)
	}

	var result LoginResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, &APIError{Type: ErrTypeInvalidResponse, Message: "failed to decode login response", StatusCode: resp.StatusCode, Cause: err}
	}

	return &result, nil
}
