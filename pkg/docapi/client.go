package docapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// TokenSource supplies the bearer token at call time. The session manager
// owns the token; the client never caches it, so a logout takes effect on
// the very next request.
type TokenSource func() string

// Config holds client settings.
type Config struct {
	BaseURL string
	Timeout time.Duration
}

// Client talks to the DocumentAI service. All methods return typed errors:
// *APIError for non-2xx responses, *ProtocolError for 2xx responses
// missing required fields, and wrapped transport errors otherwise.
type Client struct {
	baseURL string
	token   TokenSource
	client  *http.Client
	retry   *RetryPolicy
}

// New creates a Client. A nil token source is treated as anonymous.
func New(cfg *Config, token TokenSource) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if token == nil {
		token = func() string { return "" }
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		token:   token,
		client:  &http.Client{Timeout: timeout},
		retry:   DefaultRetryPolicy(),
	}
}

// BaseURL returns the configured base URL.
func (c *Client) BaseURL() string { return c.baseURL }

func (c *Client) newRequest(ctx context.Context, method, path string, query url.Values, body io.Reader, contentType string) (*http.Request, error) {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if tok := c.token(); tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	return req, nil
}

// doRaw executes the request, maps non-2xx bodies through the error
// normalizer, and returns the response body. Transient transport failures
// on GETs are retried; mutations never are.
func (c *Client) doRaw(req *http.Request) ([]byte, error) {
	var resp *http.Response
	call := func() error {
		var err error
		resp, err = c.client.Do(req)
		if err != nil {
			return fmt.Errorf("send request: %w", err)
		}
		return nil
	}

	var err error
	if req.Method == http.MethodGet && req.Body == nil {
		err = c.retry.Execute(call)
	} else {
		err = call()
	}
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &APIError{
			Status: resp.StatusCode,
			Detail: normalizeError(body, http.StatusText(resp.StatusCode)),
		}
	}
	return body, nil
}

func (c *Client) doJSON(req *http.Request, out any) error {
	body, err := c.doRaw(req)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("parse response: %w", err)
	}
	return nil
}

func (c *Client) getJSON(ctx context.Context, path string, query url.Values, out any) error {
	req, err := c.newRequest(ctx, http.MethodGet, path, query, nil, "")
	if err != nil {
		return err
	}
	return c.doJSON(req, out)
}

func (c *Client) postJSON(ctx context.Context, path string, payload, out any) error {
	var body io.Reader
	contentType := ""
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(data)
		contentType = "application/json"
	}
	req, err := c.newRequest(ctx, http.MethodPost, path, nil, body, contentType)
	if err != nil {
		return err
	}
	return c.doJSON(req, out)
}

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type signupResponse struct {
	Message string `json:"message"`
	UserID  string `json:"user_id"`
}

type loginResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// Signup registers a new account. It does not authenticate; the server's
// confirmation message is returned.
func (c *Client) Signup(ctx context.Context, email, password string) (string, error) {
	var resp signupResponse
	if err := c.postJSON(ctx, "/auth/signup", credentials{Email: email, Password: password}, &resp); err != nil {
		return "", err
	}
	if resp.Message == "" {
		resp.Message = "Signup successful"
	}
	return resp.Message, nil
}

// Login exchanges credentials for a bearer token. A 2xx response without a
// token is a ProtocolError, distinct from bad credentials.
func (c *Client) Login(ctx context.Context, email, password string) (string, error) {
	var resp loginResponse
	if err := c.postJSON(ctx, "/auth/login", credentials{Email: email, Password: password}, &resp); err != nil {
		return "", err
	}
	if resp.AccessToken == "" {
		return "", &ProtocolError{Endpoint: "/auth/login", Missing: "access_token"}
	}
	return resp.AccessToken, nil
}

// Me validates the current token against the identity endpoint.
func (c *Client) Me(ctx context.Context) (*User, error) {
	var user User
	if err := c.getJSON(ctx, "/auth/me", nil, &user); err != nil {
		return nil, err
	}
	if user.ID == "" && user.Email == "" {
		return nil, &ProtocolError{Endpoint: "/auth/me", Missing: "identity"}
	}
	return &user, nil
}
