package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/taskkeeper/internal/client/models"
	"github.com/dmitrijs2005/taskkeeper/internal/netx"
)

// HTTPClient talks to the REST API and carries the bearer token of the
// current session.
type HTTPClient struct {
	baseURL string
	http    *http.Client

	mu          sync.RWMutex
	accessToken string
}

func NewHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

func (c *HTTPClient) SetToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.accessToken = token
}

func (c *HTTPClient) token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.accessToken
}

func (c *HTTPClient) newRequest(ctx context.Context, method, path string, query url.Values, in any) (*http.Request, error) {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return nil, err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	return req, nil
}

// send executes req and decodes a 2xx body into out (if non-nil). Transport
// failures wrap ErrUnavailable; error responses become *APIError.
func (c *HTTPClient) send(req *http.Request, out any) error {
	if tok := c.token(); tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if netx.IsUnavailable(err) {
			return fmt.Errorf("%w: %w", ErrUnavailable, err)
		}
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		// a body that is not our JSON error shape still yields a usable error
		_ = json.NewDecoder(resp.Body).Decode(apiErr)
		return apiErr
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *HTTPClient) call(ctx context.Context, method, path string, query url.Values, in, out any) error {
	req, err := c.newRequest(ctx, method, path, query, in)
	if err != nil {
		return err
	}
	return c.send(req, out)
}

func taskPath(id int64) string {
	return "/api/tasks/" + strconv.FormatInt(id, 10)
}

func (c *HTTPClient) Ping(ctx context.Context) error {
	return c.call(ctx, http.MethodGet, "/health", nil, nil, nil)
}

func (c *HTTPClient) Register(ctx context.Context, r models.Registration) (*models.User, error) {
	var u models.User
	if err := c.call(ctx, http.MethodPost, "/api/auth/register", nil, r, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// Login uses the form-encoded password flow.
func (c *HTTPClient) Login(ctx context.Context, username, password string) (*models.Token, error) {
	form := url.Values{"username": {username}, "password": {password}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/auth/login", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	var t models.Token
	if err := c.send(req, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

func (c *HTTPClient) Me(ctx context.Context) (*models.User, error) {
	var u models.User
	if err := c.call(ctx, http.MethodGet, "/api/users/me", nil, nil, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (c *HTTPClient) ListTasks(ctx context.Context, f models.TaskFilter) ([]models.Task, error) {
	var list []models.Task
	if err := c.call(ctx, http.MethodGet, "/api/tasks", f.Query(), nil, &list); err != nil {
		return nil, err
	}
	return list, nil
}

func (c *HTTPClient) CreateTask(ctx context.Context, t models.NewTask) (*models.Task, error) {
	var out models.Task
	if err := c.call(ctx, http.MethodPost, "/api/tasks", nil, t, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *HTTPClient) GetTask(ctx context.Context, id int64) (*models.Task, error) {
	var out models.Task
	if err := c.call(ctx, http.MethodGet, taskPath(id), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *HTTPClient) UpdateTask(ctx context.Context, id int64, p models.TaskPatch) (*models.Task, error) {
	var out models.Task
	if err := c.call(ctx, http.MethodPut, taskPath(id), nil, p, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *HTTPClient) DeleteTask(ctx context.Context, id int64) error {
	return c.call(ctx, http.MethodDelete, taskPath(id), nil, nil, nil)
}
