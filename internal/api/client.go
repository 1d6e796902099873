// Package api implements the REST client for the Retrend chat endpoints:
// fetching new messages, submitting read receipts, sending messages, and
// logging in.
package api

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

	"github.com/rs/zerolog"

	"github.com/retrend/chat/internal/chat"
	"github.com/retrend/chat/internal/logging"
)

// Client errors.
var (
	// ErrSendRejected means the store refused the message for a business
	// reason (for example a blocked sender), as opposed to a transport
	// failure. The wire convention is HTTP 201 on /sendMessage.
	ErrSendRejected = errors.New("send rejected")

	// ErrUnauthorized means the bearer token was missing or expired.
	ErrUnauthorized = errors.New("unauthorized")

	ErrInvalidCredentials = errors.New("invalid credentials")
)

const defaultTimeout = 10 * time.Second

// Config contains configuration for the REST client.
type Config struct {
	// BaseURL is the store's base URL, without a trailing slash.
	BaseURL string

	// Token is the bearer credential attached to every authenticated call.
	Token string

	// Timeout bounds each request. Default: 10s.
	Timeout time.Duration

	// HTTPClient overrides the underlying client (used by tests).
	HTTPClient *http.Client
}

// Client talks to the remote message store.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
	logger  zerolog.Logger
}

// New creates a Client.
func New(cfg Config) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		return nil, fmt.Errorf("base url required")
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	return &Client{
		baseURL: base,
		token:   cfg.Token,
		http:    httpClient,
		logger:  logging.Component("api-client"),
	}, nil
}

// SetToken replaces the bearer credential, e.g. after login.
func (c *Client) SetToken(token string) {
	c.token = token
}

type registerRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

// Register creates an account at the store.
func (c *Client) Register(ctx context.Context, email, name, password string) error {
	status, err := c.postJSON(ctx, "/api/register", registerRequest{Email: email, Name: name, Password: password}, nil)
	if err != nil {
		return err
	}
	switch status {
	case http.StatusOK, http.StatusCreated:
		return nil
	case http.StatusConflict:
		return fmt.Errorf("account already exists")
	default:
		return fmt.Errorf("register: unexpected status %d", status)
	}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string `json:"token"`
}

// Login exchanges credentials for a bearer token and installs it on the
// client.
func (c *Client) Login(ctx context.Context, email, password string) (string, error) {
	var out loginResponse
	status, err := c.postJSON(ctx, "/api/login", loginRequest{Email: email, Password: password}, &out)
	if err != nil {
		return "", err
	}
	switch {
	case status == http.StatusOK:
		c.token = out.Token
		return out.Token, nil
	case status == http.StatusUnauthorized:
		return "", ErrInvalidCredentials
	default:
		return "", fmt.Errorf("login: unexpected status %d", status)
	}
}

// FetchNewMessages returns the full ordered message set for a conversation.
// It implements poll.Fetcher.
func (c *Client) FetchNewMessages(ctx context.Context, conversationID, counterpart string) ([]chat.Message, error) {
	endpoint := c.baseURL + "/api/new-messages?" + url.Values{
		"id": {conversationID},
		"to": {counterpart},
	}.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	c.authorize(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch messages: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return nil, ErrUnauthorized
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch messages: unexpected status %d", resp.StatusCode)
	}

	var messages []chat.Message
	if err := json.NewDecoder(resp.Body).Decode(&messages); err != nil {
		return nil, fmt.Errorf("fetch messages: decode: %w", err)
	}
	return messages, nil
}

type markReadRequest struct {
	MessageIDs []string `json:"messageIds"`
}

// MarkMessagesRead submits a read-receipt batch. Idempotent at the store.
// It implements poll.ReadMarker.
func (c *Client) MarkMessagesRead(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	status, err := c.postJSON(ctx, "/mark-messages-read", markReadRequest{MessageIDs: ids}, nil)
	if err != nil {
		return err
	}
	if status == http.StatusUnauthorized {
		return ErrUnauthorized
	}
	if status != http.StatusOK {
		return fmt.Errorf("mark read: unexpected status %d", status)
	}
	return nil
}

type sendRequest struct {
	Body           string `json:"message"`
	ConversationID string `json:"id"`
	To             string `json:"to"`
}

// SendMessage submits a new message. A rejection (the store refusing the
// sender) is reported as ErrSendRejected so callers can surface a distinct
// notice from a transport failure.
func (c *Client) SendMessage(ctx context.Context, body, conversationID, counterpart string) error {
	status, err := c.postJSON(ctx, "/sendMessage", sendRequest{
		Body:           body,
		ConversationID: conversationID,
		To:             counterpart,
	}, nil)
	if err != nil {
		return err
	}
	switch status {
	case http.StatusOK:
		return nil
	case http.StatusCreated:
		// Production wire convention: 201 means "you cannot message this
		// recipient".
		c.logger.Debug().Str("conversation_id", conversationID).Msg("send rejected by store")
		return ErrSendRejected
	case http.StatusUnauthorized:
		return ErrUnauthorized
	default:
		return fmt.Errorf("send message: unexpected status %d", status)
	}
}

func (c *Client) postJSON(ctx context.Context, path string, payload, out any) (int, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return 0, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	c.authorize(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", path, err)
	}
	defer resp.Body.Close()

	if out != nil && resp.StatusCode == http.StatusOK {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return resp.StatusCode, fmt.Errorf("%s: decode: %w", path, err)
		}
	} else {
		io.Copy(io.Discard, resp.Body)
	}
	return resp.StatusCode, nil
}

func (c *Client) authorize(req *http.Request) {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
}
