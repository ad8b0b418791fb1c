// ABOUTME: HTTP collection store client for the hosted collections API
// ABOUTME: Maps GetAll/Create/Update/Delete and login onto REST calls with bearer auth
package remote

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/harperreed/innkeep/auth"
	"github.com/harperreed/innkeep/collection"
	"github.com/harperreed/innkeep/models"
)

// ErrUnauthorized is returned when the server rejects the session token.
var ErrUnauthorized = errors.New("unauthorized")

// APIError is a non-success response the client has no sentinel for.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("remote returned %d", e.Status)
	}
	return fmt.Sprintf("remote returned %d: %s", e.Status, e.Message)
}

// errorBody is the JSON error envelope of the API.
type errorBody struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// TokenSource supplies the bearer token for each request.
type TokenSource interface {
	Token() string
}

// Client talks to the collections API.
type Client struct {
	rest   *resty.Client
	tokens TokenSource
}

var (
	_ collection.Store   = (*Client)(nil)
	_ auth.Authenticator = (*Client)(nil)
)

// New creates a client for baseURL. tokens may be nil for unauthenticated use.
func New(baseURL string, timeout time.Duration, tokens TokenSource) *Client {
	trimmed := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if trimmed == "" {
		trimmed = "http://localhost:8080"
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	rest := resty.New().
		SetBaseURL(trimmed).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json")

	return &Client{rest: rest, tokens: tokens}
}

// SetTokenSource replaces the token source, e.g. once a session exists.
func (c *Client) SetTokenSource(tokens TokenSource) {
	c.tokens = tokens
}

func (c *Client) request(ctx context.Context) *resty.Request {
	req := c.rest.R().SetContext(ctx).SetError(&errorBody{})
	if c.tokens != nil {
		if token := c.tokens.Token(); token != "" {
			req.SetAuthToken(token)
		}
	}
	return req
}

// GetAll fetches a collection. A positive limit is sent as a hint.
func (c *Client) GetAll(ctx context.Context, name string, opts models.ListOptions) (*models.ListResult, error) {
	var out models.ListResult
	req := c.request(ctx).
		SetPathParam("name", name).
		SetResult(&out)
	if opts.Limit > 0 {
		req.SetQueryParam("limit", strconv.Itoa(opts.Limit))
	}

	resp, err := req.Get("/api/collections/{name}")
	if err := check(resp, err); err != nil {
		return nil, fmt.Errorf("list %s: %w", name, err)
	}
	if out.Items == nil {
		out.Items = []models.Record{}
	}
	return &out, nil
}

// Create posts a new record.
func (c *Client) Create(ctx context.Context, name string, rec models.Record) (models.Record, error) {
	var out models.Record
	resp, err := c.request(ctx).
		SetPathParam("name", name).
		SetBody(rec).
		SetResult(&out).
		Post("/api/collections/{name}")
	if err := check(resp, err); err != nil {
		return models.Record{}, fmt.Errorf("create %s/%s: %w", name, rec.ID, err)
	}
	return out, nil
}

// Update replaces a record.
func (c *Client) Update(ctx context.Context, name string, rec models.Record) (models.Record, error) {
	var out models.Record
	resp, err := c.request(ctx).
		SetPathParams(map[string]string{"name": name, "id": rec.ID}).
		SetBody(rec).
		SetResult(&out).
		Put("/api/collections/{name}/{id}")
	if err := check(resp, err); err != nil {
		return models.Record{}, fmt.Errorf("update %s/%s: %w", name, rec.ID, err)
	}
	return out, nil
}

// Delete removes a record.
func (c *Client) Delete(ctx context.Context, name, id string) error {
	resp, err := c.request(ctx).
		SetPathParams(map[string]string{"name": name, "id": id}).
		Delete("/api/collections/{name}/{id}")
	if err := check(resp, err); err != nil {
		return fmt.Errorf("delete %s/%s: %w", name, id, err)
	}
	return nil
}

// LoginRequest is the body of POST /api/login.
type LoginRequest struct {
	Nickname string `json:"nickname"`
	Passcode string `json:"passcode"`
}

// LoginResponse is the reply of POST /api/login.
type LoginResponse struct {
	Token  string      `json:"token"`
	Member auth.Member `json:"member"`
}

// Login exchanges staff credentials for a session token.
func (c *Client) Login(ctx context.Context, nickname, passcode string) (string, auth.Member, error) {
	var out LoginResponse
	resp, err := c.rest.R().
		SetContext(ctx).
		SetError(&errorBody{}).
		SetBody(LoginRequest{Nickname: nickname, Passcode: passcode}).
		SetResult(&out).
		Post("/api/login")
	if err := check(resp, err); err != nil {
		if errors.Is(err, ErrUnauthorized) {
			return "", auth.Member{}, auth.ErrBadCredentials
		}
		return "", auth.Member{}, fmt.Errorf("login: %w", err)
	}
	if out.Token == "" {
		return "", auth.Member{}, errors.New("login: server returned no token")
	}
	return out.Token, out.Member, nil
}

// check maps transport failures and error statuses onto the store's errors.
func check(resp *resty.Response, err error) error {
	if err != nil {
		return err
	}
	if !resp.IsError() {
		return nil
	}

	message, code := "", ""
	if body, ok := resp.Error().(*errorBody); ok && body != nil {
		message, code = body.Error, body.Code
	}

	switch resp.StatusCode() {
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("%w: %s", ErrUnauthorized, message)
	case http.StatusNotFound:
		if code == models.CodeUnknownCollection {
			return fmt.Errorf("%w: %s", models.ErrUnknownCollection, message)
		}
		return models.ErrRecordNotFound
	case http.StatusConflict:
		return collection.ErrDuplicateID
	}
	return &APIError{Status: resp.StatusCode(), Message: message}
}
