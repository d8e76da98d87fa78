package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"resty.dev/v3"
)

type Chat struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Message struct {
	ID        string    `json:"id"`
	ChatID    string    `json:"chat_id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type ChatDetail struct {
	Chat     Chat      `json:"chat"`
	Messages []Message `json:"messages"`
}

type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type Reply struct {
	ID        string    `json:"id"`
	Content   string    `json:"content"`
	Role      string    `json:"role"`
	Timestamp time.Time `json:"timestamp"`
}

type envelope struct {
	Success   bool            `json:"success"`
	Data      json.RawMessage `json:"data"`
	Error     string          `json:"error"`
	RequestID string          `json:"request_id"`
}

// APIError is a failure envelope returned by the server.
type APIError struct {
	Status    int
	Message   string
	RequestID string
}

func (e *APIError) Error() string {
	if e.RequestID != "" {
		return fmt.Sprintf("%s (status %d, request %s)", e.Message, e.Status, e.RequestID)
	}
	return fmt.Sprintf("%s (status %d)", e.Message, e.Status)
}

// Client wraps the multichat HTTP API.
type Client struct {
	http *resty.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	c := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetHeader("Accept", "application/json")
	if timeout > 0 {
		c.SetTimeout(timeout)
	}
	return &Client{http: c}
}

func (c *Client) Close() error {
	return c.http.Close()
}

func (c *Client) ListChats() ([]Chat, error) {
	var out []Chat
	return out, c.do(http.MethodGet, "/v1/chats", nil, &out)
}

func (c *Client) CreateChat(title string) (*Chat, error) {
	var out Chat
	return &out, c.do(http.MethodPost, "/v1/chats", map[string]string{"title": title}, &out)
}

func (c *Client) GetChat(id string) (*ChatDetail, error) {
	var out ChatDetail
	return &out, c.do(http.MethodGet, "/v1/chats/"+id, nil, &out)
}

func (c *Client) RenameChat(id, title string) (*Chat, error) {
	var out Chat
	return &out, c.do(http.MethodPut, "/v1/chats/"+id, map[string]string{"title": title}, &out)
}

func (c *Client) DeleteChat(id string) error {
	return c.do(http.MethodDelete, "/v1/chats/"+id, nil, nil)
}

func (c *Client) ListMessages(chatID string) ([]Message, error) {
	var out []Message
	return out, c.do(http.MethodGet, "/v1/chats/"+chatID+"/messages", nil, &out)
}

func (c *Client) AddMessage(chatID, role, content string) (*Message, error) {
	var out Message
	body := map[string]string{"role": role, "content": content}
	return &out, c.do(http.MethodPost, "/v1/chats/"+chatID+"/messages", body, &out)
}

func (c *Client) Send(chatID, model string, history []Turn) (*Reply, error) {
	var out Reply
	body := map[string]any{"model": model, "messages": history}
	return &out, c.do(http.MethodPost, "/v1/chats/"+chatID+"/send", body, &out)
}

func (c *Client) do(method, path string, body, out any) error {
	req := c.http.R()
	if body != nil {
		req.SetHeader("Content-Type", "application/json").SetBody(body)
	}
	var env envelope
	req.SetResult(&env).SetError(&env)

	resp, err := req.Execute(method, path)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	if resp.IsError() || !env.Success {
		msg := env.Error
		if msg == "" {
			msg = http.StatusText(resp.StatusCode())
		}
		return &APIError{Status: resp.StatusCode(), Message: msg, RequestID: env.RequestID}
	}
	if out == nil || len(env.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}
