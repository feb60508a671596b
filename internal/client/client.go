// Package client talks to the storefront API on behalf of the CLI.
package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/storefront/internal/api/dto"
)

// APIError is a non-2xx answer from the API.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d [%s]: %s", e.Status, e.Code, e.Message)
}

// IsUnauthorized reports whether err is a 401 from the API.
func IsUnauthorized(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == fiber.StatusUnauthorized
}

// Client is a thin JSON client over fiber's HTTP agent.
type Client struct {
	baseURL string
	timeout time.Duration
}

// New returns a client for the API at baseURL.
func New(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), timeout: timeout}
}

// Login exchanges credentials for a session.
func (c *Client) Login(email, password string) (*dto.SessionResponse, error) {
	a := fiber.Post(c.baseURL + "/api/auth/login")
	a.JSON(dto.UserLoginRequest{Email: email, Password: password})

	var out dto.SessionResponse
	if err := c.do(a, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Profile fetches the account behind token.
func (c *Client) Profile(token string) (*dto.UserResponse, error) {
	a := fiber.Get(c.baseURL + "/api/profile")
	a.Set(fiber.HeaderAuthorization, "Bearer "+token)

	var out dto.UserResponse
	if err := c.do(a, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// AdminUsers lists accounts; the API only answers for admins.
func (c *Client) AdminUsers(token string) ([]dto.UserResponse, error) {
	a := fiber.Get(c.baseURL + "/api/admin/users")
	a.Set(fiber.HeaderAuthorization, "Bearer "+token)

	var out []dto.UserResponse
	if err := c.do(a, &out); err != nil {
		return nil, err
	}
	return out, nil
}

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error string          `json:"error"`
	Code  string          `json:"code"`
}

func (c *Client) do(a *fiber.Agent, out any) error {
	a.Timeout(c.timeout)
	status, body, errs := a.Bytes()
	if len(errs) > 0 {
		return fmt.Errorf("request failed: %w", errors.Join(errs...))
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return &APIError{Status: status, Code: "INVALID_RESPONSE", Message: err.Error()}
	}
	if status < fiber.StatusOK || status >= fiber.StatusMultipleChoices {
		return &APIError{Status: status, Code: env.Code, Message: env.Error}
	}
	if out == nil || len(env.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return &APIError{Status: status, Code: "INVALID_RESPONSE", Message: err.Error()}
	}
	return nil
}
