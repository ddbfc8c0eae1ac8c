// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package discord provides the HTTP client for the Discord REST API (v10).
package discord

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/disgoorg/snowflake/v2"
	"golang.org/x/time/rate"
)

// =============================================================================
// ERROR TYPES
// =============================================================================

// APIError represents an error from the Discord API client.
type APIError struct {
	Type       ErrorType
	Message    string
	StatusCode int           // HTTP status, 0 for transport failures
	RetryAfter time.Duration // Server-specified backoff, set for rate limits
	Cause      error
}

func (e *APIError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *APIError) Unwrap() error {
	return e.Cause
}

// ErrorType categorizes API errors for handling.
type ErrorType int

const (
	ErrTypeUnknown ErrorType = iota
	ErrTypeUnauthorized
	ErrTypeNotFound
	ErrTypeRateLimited
	ErrTypeNetwork
	ErrTypeInvalidResponse
)

// Sentinel errors for easy checking.
var (
	ErrUnauthorized = &APIError{Type: ErrTypeUnauthorized, Message: "invalid or expired token", StatusCode: http.StatusUnauthorized}
	ErrNotFound     = &APIError{Type: ErrTypeNotFound, Message: "entity not found", StatusCode: http.StatusNotFound}
	ErrNoToken      = &APIError{Type: ErrTypeUnauthorized, Message: "no token configured"}
)

// =============================================================================
// CLIENT CONFIGURATION
// =============================================================================

// ClientConfig holds configuration options for the Discord client.
type ClientConfig struct {
	// BaseURL is the API base URL (default: https://discord.com/api/v10)
	BaseURL string

	// Token is the user token sent in the Authorization header.
	// User tokens are sent raw, without a "Bot " prefix.
	Token string

	// UserAgent sent with every request. Discord rejects requests with an
	// obviously non-browser agent on user accounts, so the default mimics
	// a desktop browser.
	UserAgent string

	// Timeout for requests (default: 10s)
	Timeout time.Duration

	// RequestsPerSecond caps outbound request rate (default: 50)
	RequestsPerSecond float64

	// Burst is the limiter bucket size (default: 1)
	Burst int
}

// DefaultConfig returns the default client configuration.
func DefaultConfig() *ClientConfig {
	return &ClientConfig{
		BaseURL:           "https://discord.com/api/v10",
		UserAgent:         "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/140.0.0.0 Safari/537.36",
		Timeout:           10 * time.Second,
		RequestsPerSecond: 50,
		Burst:             1,
	}
}

// =============================================================================
// CLIENT
// =============================================================================

// Client handles communication with the Discord REST API.
//
// The Client is thread-safe for concurrent use. It classifies failures into
// typed errors and enforces a client-side request rate; retry policy belongs
// to the caller.
//
// Example:
//
//	client := discord.NewClient(token)
//	me, err := client.Me(ctx)
//	if err != nil {
//	    return err
//	}
type Client struct {
	config     *ClientConfig
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewClient creates a new Discord client with default configuration.
func NewClient(token string) *Client {
	config := DefaultConfig()
	config.Token = token
	return NewClientWithConfig(config)
}

// NewClientWithConfig creates a new Discord client with custom configuration.
func NewClientWithConfig(config *ClientConfig) *Client {
	if config == nil {
		config = DefaultConfig()
	}

	// Fill in defaults for any zero values
	if config.BaseURL == "" {
		config.BaseURL = "https://discord.com/api/v10"
	}
	if config.UserAgent == "" {
		config.UserAgent = DefaultConfig().UserAgent
	}
	if config.Timeout == 0 {
		config.Timeout = 10 * time.Second
	}
	if config.RequestsPerSecond == 0 {
		config.RequestsPerSecond = 50
	}
	if config.Burst == 0 {
		config.Burst = 1
	}

	return &Client{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		limiter: rate.NewLimiter(rate.Limit(config.RequestsPerSecond), config.Burst),
	}
}

// GetConfig returns the client configuration.
func (c *Client) GetConfig() *ClientConfig {
	return c.config
}

// SetToken updates the token used for authentication.
func (c *Client) SetToken(token string) {
	c.config.Token = token
}

// =============================================================================
// REQUEST PLUMBING
// =============================================================================

// get performs an authenticated GET against the API and decodes the JSON
// response into out.
func (c *Client) get(ctx context.Context, path string, out any) error {
	if c.config.Token == "" {
		return ErrNoToken
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return &APIError{Type: ErrTypeNetwork, Message: "rate limiter wait aborted", Cause: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.config.BaseURL+path, nil)
	if err != nil {
		return &APIError{Type: ErrTypeNetwork, Message: "failed to create request", Cause: err}
	}
	req.Header.Set("Authorization", c.config.Token)
	req.Header.Set("User-Agent", c.config.UserAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &APIError{Type: ErrTypeNetwork, Message: "request failed", Cause: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return c.statusError(resp)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &APIError{Type: ErrTypeInvalidResponse, Message: "failed to decode response", StatusCode: resp.StatusCode, Cause: err}
	}

	return nil
}

// statusError maps a non-2xx response to a typed error. The body is decoded
// for Discord's message and, on 429s, the fractional retry_after seconds.
func (c *Client) statusError(resp *http.Response) *APIError {
	var body apiErrorBody
	_ = json.NewDecoder(resp.Body).Decode(&body)

	message := body.Message
	if message == "" {
		message = "request failed: " + resp.Status
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return &APIError{Type: ErrTypeUnauthorized, Message: message, StatusCode: resp.StatusCode}

	case resp.StatusCode == http.StatusNotFound:
		return &APIError{Type: ErrTypeNotFound, Message: message, StatusCode: resp.StatusCode}

	case resp.StatusCode == http.StatusTooManyRequests:
		return &APIError{
			Type:       ErrTypeRateLimited,
			Message:    message,
			StatusCode: resp.StatusCode,
			RetryAfter: retryAfter(body, resp.Header),
		}

	case resp.StatusCode >= http.StatusInternalServerError:
		return &APIError{Type: ErrTypeNetwork, Message: message, StatusCode: resp.StatusCode}

	default:
		return &APIError{Type: ErrTypeInvalidResponse, Message: message, StatusCode: resp.StatusCode}
	}
}

// retryAfter extracts the server-specified backoff from a 429 response.
// The JSON body carries fractional seconds; the Retry-After header is the
// whole-second fallback. A missing value yields a conservative 1s.
func retryAfter(body apiErrorBody, header http.Header) time.Duration {
	if body.RetryAfter > 0 {
		return time.Duration(body.RetryAfter * float64(time.Second))
	}
	if h := header.Get("Retry-After"); h != "" {
		if secs, err := strconv.ParseFloat(h, 64); err == nil && secs > 0 {
			return time.Duration(secs * float64(time.Second))
		}
	}
	return time.Second
}

// =============================================================================
// ACCOUNT
// =============================================================================

// Me retrieves the authenticated user.
func (c *Client) Me(ctx context.Context) (User, error) {
	var user User
	if err := c.get(ctx, "/users/@me", &user); err != nil {
		return User{}, err
	}
	return user, nil
}

// Guilds retrieves the guilds the authenticated user belongs to.
func (c *Client) Guilds(ctx context.Context) ([]Guild, error) {
	var guilds []Guild
	if err := c.get(ctx, "/users/@me/guilds", &guilds); err != nil {
		return nil, err
	}
	return guilds, nil
}

// DMChannels retrieves the user's direct message channels (types 1 and 3).
func (c *Client) DMChannels(ctx context.Context) ([]Channel, error) {
	var channels []Channel
	if err := c.get(ctx, "/users/@me/channels", &channels); err != nil {
		return nil, err
	}
	return channels, nil
}

// =============================================================================
// GUILD DATA
// =============================================================================

// GuildChannels retrieves all channels of a guild.
func (c *Client) GuildChannels(ctx context.Context, guildID snowflake.ID) ([]Channel, error) {
	var channels []Channel
	if err := c.get(ctx, fmt.Sprintf("/guilds/%s/channels", guildID), &channels); err != nil {
		return nil, err
	}
	return channels, nil
}

// GuildRoles retrieves the full role list of a guild.
func (c *Client) GuildRoles(ctx context.Context, guildID snowflake.ID) ([]Role, error) {
	var roles []Role
	if err := c.get(ctx, fmt.Sprintf("/guilds/%s/roles", guildID), &roles); err != nil {
		return nil, err
	}
	return roles, nil
}

// GuildMember retrieves a single guild member.
func (c *Client) GuildMember(ctx context.Context, guildID, userID snowflake.ID) (Member, error) {
	var member Member
	if err := c.get(ctx, fmt.Sprintf("/guilds/%s/members/%s", guildID, userID), &member); err != nil {
		return Member{}, err
	}
	return member, nil
}

// =============================================================================
// MESSAGES
// =============================================================================

// MaxMessageLimit is the largest page size the API accepts.
const MaxMessageLimit = 100

// Messages retrieves a page of channel messages, newest first. limit is
// clamped to [1, 100]; a non-zero before restricts the page to messages
// older than that ID.
func (c *Client) Messages(ctx context.Context, channelID snowflake.ID, limit int, before snowflake.ID) ([]Message, error) {
	if limit < 1 {
		limit = 1
	}
	if limit > MaxMessageLimit {
		limit = MaxMessageLimit
	}

	query := url.Values{}
	query.Set("limit", strconv.Itoa(limit))
	if before != 0 {
		query.Set("before", before.String())
	}

	var messages []Message
	path := fmt.Sprintf("/channels/%s/messages?%s", channelID, query.Encode())
	if err := c.get(ctx, path, &messages); err != nil {
		return nil, err
	}
	return messages, nil
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsUnauthorized checks if an error indicates a bad or missing token.
func IsUnauthorized(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Type == ErrTypeUnauthorized
	}
	return false
}

// IsNotFound checks if an error indicates a missing entity.
func IsNotFound(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Type == ErrTypeNotFound
	}
	return false
}

// IsRateLimited checks if an error is a server rate limit response.
func IsRateLimited(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Type == ErrTypeRateLimited
	}
	return false
}

// IsNetwork checks if an error is a transient transport or server failure.
func IsNetwork(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Type == ErrTypeNetwork
	}
	return false
}

// RetryAfterOf returns the server-specified backoff from a rate limit error,
// or zero when err is not a rate limit.
func RetryAfterOf(err error) time.Duration {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Type == ErrTypeRateLimited {
		return apiErr.RetryAfter
	}
	return 0
}
