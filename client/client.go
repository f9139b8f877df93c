package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"chat-sync/domain"
	"chat-sync/errors"
)

type Config struct {
	BaseURL        string
	RequestTimeout time.Duration
	ConnectTimeout time.Duration
}

// APIClient talks to the chat service over HTTP/JSON. The session cookie set
// on login is kept in a cookie jar and replayed on every request.
type APIClient struct {
	baseURL string

	mu   sync.Mutex
	http *http.Client
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

func NewAPIClient(cfg Config) (*APIClient, error) {
	if _, err := url.Parse(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("invalid server url %q: %w", cfg.BaseURL, err)
	}
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	tr := &http.Transport{
		DialContext:     (&net.Dialer{Timeout: cfg.ConnectTimeout}).DialContext,
		MaxIdleConns:    10,
		IdleConnTimeout: 90 * time.Second,
	}
	return &APIClient{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http:    &http.Client{Transport: tr, Timeout: cfg.RequestTimeout, Jar: jar},
	}, nil
}

func (c *APIClient) Register(ctx context.Context, cmd domain.RegisterCommand) (domain.User, error) {
	var user domain.User
	err := c.do(ctx, http.MethodPost, "/auth/register", cmd, &user)
	return user, err
}

func (c *APIClient) Login(ctx context.Context, cmd domain.LoginCommand) (domain.User, error) {
	var user domain.User
	err := c.do(ctx, http.MethodPost, "/auth/login", cmd, &user)
	return user, err
}

// Logout forgets the session cookie.
func (c *APIClient) Logout() {
	jar, _ := cookiejar.New(nil)
	c.mu.Lock()
	defer c.mu.Unlock()
	next := *c.http
	next.Jar = jar
	c.http = &next
}

func (c *APIClient) CheckAuth(ctx context.Context) (domain.User, error) {
	var res domain.CheckResult
	err := c.do(ctx, http.MethodGet, "/auth/check", nil, &res)
	return res.User, err
}

func (c *APIClient) ListUsers(ctx context.Context, query string, limit int) (domain.Page[domain.User], error) {
	params := url.Values{}
	if query != "" {
		params.Set("q", query)
	}
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}
	var page domain.Page[domain.User]
	err := c.do(ctx, http.MethodGet, withQuery("/users", params), nil, &page)
	return page, err
}

func (c *APIClient) UpdateProfile(ctx context.Context, patch domain.UserPatch) (domain.User, error) {
	var user domain.User
	err := c.do(ctx, http.MethodPatch, "/users/me", patch, &user)
	return user, err
}

func (c *APIClient) ListChats(ctx context.Context, cursor *string, limit int) (domain.Page[domain.Chat], error) {
	params := url.Values{}
	if cursor != nil {
		params.Set("cursor", *cursor)
	}
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}
	var page domain.Page[domain.Chat]
	err := c.do(ctx, http.MethodGet, withQuery("/chats", params), nil, &page)
	return page, err
}

func (c *APIClient) CreateChat(ctx context.Context, participantIDs []string, title string) (domain.Chat, error) {
	var chat domain.Chat
	body := domain.CreateChatCommand{ParticipantIDs: participantIDs, Title: title}
	err := c.do(ctx, http.MethodPost, "/chats", body, &chat)
	return chat, err
}

func (c *APIClient) ListMessages(ctx context.Context, chatID string) ([]domain.ChatMessage, error) {
	var messages []domain.ChatMessage
	err := c.do(ctx, http.MethodGet, "/chats/"+url.PathEscape(chatID)+"/messages", nil, &messages)
	return messages, err
}

func (c *APIClient) SendMessage(ctx context.Context, chatID, userID, text string) (domain.ChatMessage, error) {
	var message domain.ChatMessage
	body := domain.SendMessageCommand{UserID: userID, Text: text}
	err := c.do(ctx, http.MethodPost, "/chats/"+url.PathEscape(chatID)+"/messages", body, &message)
	return message, err
}

func (c *APIClient) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%w: encoding request: %v", errors.ErrBadRequest, err)
		}
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("%w: %v", errors.ErrTransport, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	c.mu.Lock()
	httpClient := c.http
	c.mu.Unlock()

	resp, err := httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s %s: %v", errors.ErrTransport, method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	var env envelope
	if err = json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return fmt.Errorf("%w: %s %s: status %d, undecodable body: %v", errors.ErrTransport, method, path, resp.StatusCode, err)
	}
	if resp.StatusCode != http.StatusOK || !env.Success {
		return statusError(resp.StatusCode, env.Error)
	}
	if out == nil || len(env.Data) == 0 {
		return nil
	}
	if err = json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("%w: %s %s: undecodable data: %v", errors.ErrTransport, method, path, err)
	}
	return nil
}

// statusError maps a failed response back onto the error taxonomy.
func statusError(status int, message string) error {
	switch status {
	case http.StatusBadRequest:
		return fmt.Errorf("%w: %s", errors.ErrBadRequest, message)
	case http.StatusUnauthorized:
		return fmt.Errorf("%w: %s", errors.ErrUnauthenticated, message)
	case http.StatusNotFound:
		return fmt.Errorf("%w: %s", errors.ErrNotFound, message)
	case http.StatusServiceUnavailable:
		return fmt.Errorf("%w: %s", errors.ErrStorage, message)
	default:
		return fmt.Errorf("%w: status %d: %s", errors.ErrTransport, status, message)
	}
}

func withQuery(path string, params url.Values) string {
	if len(params) == 0 {
		return path
	}
	return path + "?" + params.Encode()
}
