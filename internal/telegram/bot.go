// Package telegram sends bot messages through the Telegram Bot API.
package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DefaultAPIURL is the public Bot API endpoint.
const DefaultAPIURL = "https://api.telegram.org"

var ErrNoToken = errors.New("telegram bot token is empty")

// APIError is a rejected Bot API call.
type APIError struct {
	Status      int
	Description string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("telegram api: status %d: %s", e.Status, e.Description)
}

type Bot struct {
	apiURL string
	token  string
	http   *http.Client
}

type Option func(*Bot)

// WithHTTPClient replaces the default client, which times out after 10s.
func WithHTTPClient(hc *http.Client) Option {
	return func(b *Bot) { b.http = hc }
}

// NewBot returns a bot posting to apiURL (DefaultAPIURL when empty).
func NewBot(apiURL, token string, opts ...Option) (*Bot, error) {
	if token == "" {
		return nil, ErrNoToken
	}
	if apiURL == "" {
		apiURL = DefaultAPIURL
	}
	b := &Bot{
		apiURL: strings.TrimRight(apiURL, "/"),
		token:  token,
		http:   &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(b)
	}
	return b, nil
}

type sendMessageRequest struct {
	ChatID int64  `json:"chat_id"`
	Text   string `json:"text"`
}

type apiResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
}

// SendMessage delivers text to the private chat of a user; for mini-app
// users the chat id equals the user id.
func (b *Bot) SendMessage(ctx context.Context, chatID int64, text string) error {
	payload, err := json.Marshal(sendMessageRequest{ChatID: chatID, Text: text})
	if err != nil {
		return fmt.Errorf("encode message: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		b.apiURL+"/bot"+b.token+"/sendMessage", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build sendMessage request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := b.http.Do(req)
	if err != nil {
		// The URL embeds the token; keep it out of logs.
		var urlErr *url.Error
		if errors.As(err, &urlErr) {
			err = urlErr.Err
		}
		return fmt.Errorf("sendMessage to %d: %w", chatID, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	if err != nil {
		return fmt.Errorf("read sendMessage response: %w", err)
	}
	var body apiResponse
	if err := json.Unmarshal(raw, &body); err != nil || !body.OK || resp.StatusCode >= 300 {
		desc := body.Description
		if desc == "" {
			desc = http.StatusText(resp.StatusCode)
		}
		return fmt.Errorf("sendMessage to %d: %w", chatID, &APIError{Status: resp.StatusCode, Description: desc})
	}
	return nil
}
