// Package telegram is a thin Bot API client covering the handful of methods
// the backend needs: getMe, sendMessage, setWebhook, getUpdates.
package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

const defaultBaseURL = "https://api.telegram.org/bot"

// Client calls the Telegram Bot API for one bot token.
type Client struct {
	httpClient *http.Client
	apiBase    string
}

// Option customizes a Client.
type Option func(*Client)

// WithBaseURL overrides the API endpoint (used by tests).
func WithBaseURL(base string) Option {
	return func(c *Client) { c.apiBase = base }
}

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// NewClient builds a client for the given bot token. useTestAPI routes calls
// through Telegram's test environment.
func NewClient(botToken string, useTestAPI bool, opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		apiBase:    defaultBaseURL,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.apiBase += botToken + "/"
	if useTestAPI {
		c.apiBase += "test/"
	}
	return c
}

// User is the bot's own profile as returned by getMe.
type User struct {
	ID       int64  `json:"id"`
	IsBot    bool   `json:"is_bot"`
	Username string `json:"username"`
}

// Chat identifies the conversation an update belongs to.
type Chat struct {
	ID   int64  `json:"id"`
	Type string `json:"type"`
}

// From identifies the sender of an incoming message.
type From struct {
	ID           int64  `json:"id"`
	FirstName    string `json:"first_name"`
	LanguageCode string `json:"language_code"`
}

// Message is the subset of the Bot API message object the backend reads.
type Message struct {
	MessageID int64  `json:"message_id"`
	Chat      Chat   `json:"chat"`
	From      *From  `json:"from,omitempty"`
	Text      string `json:"text"`
}

// Update is one entry of a webhook push or getUpdates poll.
type Update struct {
	UpdateID int64    `json:"update_id"`
	Message  *Message `json:"message,omitempty"`
}

type apiResponse struct {
	OK          bool            `json:"ok"`
	Description string          `json:"description"`
	Result      json.RawMessage `json:"result"`
}

func (c *Client) call(ctx context.Context, method string, params any, result any) error {
	var body bytes.Buffer
	if params != nil {
		if err := json.NewEncoder(&body).Encode(params); err != nil {
			return fmt.Errorf("telegram: encode %s params: %w", method, err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiBase+method, &body)
	if err != nil {
		return fmt.Errorf("telegram: build %s request: %w", method, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("telegram: %s: %w", method, err)
	}
	defer resp.Body.Close()

	var envelope apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return fmt.Errorf("telegram: decode %s response: %w", method, err)
	}
	if !envelope.OK {
		return fmt.Errorf("telegram: %s failed: %s", method, envelope.Description)
	}
	if result != nil {
		if err := json.Unmarshal(envelope.Result, result); err != nil {
			return fmt.Errorf("telegram: decode %s result: %w", method, err)
		}
	}
	return nil
}

// GetMe returns the bot's own profile.
func (c *Client) GetMe(ctx context.Context) (User, error) {
	var me User
	if err := c.call(ctx, "getMe", nil, &me); err != nil {
		return User{}, err
	}
	return me, nil
}

// SendMessage posts a MarkdownV2 message, optionally as a reply.
func (c *Client) SendMessage(ctx context.Context, chatID int64, text string, replyToMessageID int64) error {
	params := map[string]any{
		"chat_id":    chatID,
		"text":       text,
		"parse_mode": "MarkdownV2",
	}
	if replyToMessageID != 0 {
		params["reply_to_message_id"] = replyToMessageID
	}
	return c.call(ctx, "sendMessage", params, nil)
}

// SetWebhook registers the push endpoint; secretToken is echoed back by
// Telegram in X-Telegram-Bot-Api-Secret-Token on every delivery.
func (c *Client) SetWebhook(ctx context.Context, externalURL, secretToken string) error {
	params := map[string]any{"url": externalURL}
	if secretToken != "" {
		params["secret_token"] = secretToken
	}
	return c.call(ctx, "setWebhook", params, nil)
}

// GetUpdates polls for updates after the given id. Used for local development
// where no webhook is reachable.
func (c *Client) GetUpdates(ctx context.Context, lastUpdateID int64) ([]Update, error) {
	params := map[string]any{}
	if lastUpdateID != 0 {
		params["offset"] = lastUpdateID + 1
	}
	var updates []Update
	if err := c.call(ctx, "getUpdates", params, &updates); err != nil {
		return nil, err
	}
	return updates, nil
}
