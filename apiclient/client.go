// Package apiclient talks to the GreenTrace authentication API.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"

	gterrors "github.com/jrsteele09/greentrace/internal/errors"
	"github.com/jrsteele09/greentrace/internal/metrics"
	"github.com/jrsteele09/greentrace/users"
)

// Endpoint paths relative to the base URL
const (
	VerifyPath         = "/auth/verify"
	LoginPath          = "/auth/login"
	SignupPath         = "/auth/signup"
	LogoutPath         = "/auth/logout"
	ForgotPasswordPath = "/auth/forgot-password"
	ResetPasswordPath  = "/auth/reset-password"
)

const (
	DefaultTimeout = 10 * time.Second
	maxBodyBytes   = 1 << 20
)

// Client is an HTTP client for the auth API
type Client struct {
	baseURL    string
	httpClient *http.Client
}

type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithTimeout sets the per request timeout
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

func New(baseURL string, opts ...Option) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, errors.New("[apiclient New] base URL is required")
	}
	c := &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: DefaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func (c *Client) BaseURL() string {
	return c.baseURL
}

// Verify asks the API whether token is still valid and returns the current user.
// Transport failures wrap ErrNetwork, every other failure wraps ErrUnauthorized.
func (c *Client) Verify(ctx context.Context, token string) (*users.User, error) {
	var body AuthResponse
	status, err := c.do(ctx, http.MethodGet, VerifyPath, token, nil, &body)
	if err != nil {
		if gterrors.Is(err, gterrors.ErrNetwork) {
			return nil, err
		}
		return nil, errors.Wrap(gterrors.ErrUnauthorized, err.Error())
	}
	if status != http.StatusOK || !body.Success || body.User == nil {
		return nil, newAPIError(status, &body).asUnauthorized()
	}
	return body.User, nil
}

func (c *Client) Login(ctx context.Context, email, password string) (*AuthResponse, error) {
	return c.authenticate(ctx, LoginPath, loginRequest{Email: email, Password: password})
}

func (c *Client) Signup(ctx context.Context, req SignupRequest) (*AuthResponse, error) {
	return c.authenticate(ctx, SignupPath, req)
}

// Logout notifies the API that token is no longer in use. The response body is ignored.
func (c *Client) Logout(ctx context.Context, token string) error {
	status, err := c.do(ctx, http.MethodPost, LogoutPath, token, nil, nil)
	if err != nil {
		return err
	}
	if status < 200 || status > 299 {
		return newAPIError(status, nil)
	}
	return nil
}

// ForgotPassword returns the API body verbatim whatever the status code
func (c *Client) ForgotPassword(ctx context.Context, email string) (map[string]any, error) {
	return c.passthrough(ctx, ForgotPasswordPath, forgotPasswordRequest{Email: email})
}

// ResetPassword returns the API body verbatim whatever the status code
func (c *Client) ResetPassword(ctx context.Context, resetToken, newPassword string) (map[string]any, error) {
	return c.passthrough(ctx, ResetPasswordPath, resetPasswordRequest{Token: resetToken, NewPassword: newPassword})
}

func (c *Client) authenticate(ctx context.Context, path string, payload any) (*AuthResponse, error) {
	var body AuthResponse
	status, err := c.do(ctx, http.MethodPost, path, "", payload, &body)
	if err != nil {
		if gterrors.Is(err, gterrors.ErrNetwork) {
			return nil, err
		}
		return nil, errors.Wrap(gterrors.ErrNetwork, err.Error())
	}
	if status < 200 || status > 299 || !body.Success {
		return nil, newAPIError(status, &body)
	}
	return &body, nil
}

func (c *Client) passthrough(ctx context.Context, path string, payload any) (map[string]any, error) {
	body := map[string]any{}
	if _, err := c.do(ctx, http.MethodPost, path, "", payload, &body); err != nil {
		if gterrors.Is(err, gterrors.ErrNetwork) {
			return nil, err
		}
		return nil, errors.Wrap(gterrors.ErrNetwork, err.Error())
	}
	return body, nil
}

// do sends one request. Transport errors are wrapped in ErrNetwork; a body that
// cannot be decoded into out is returned as a plain error alongside the status.
func (c *Client) do(ctx context.Context, method, path, token string, payload, out any) (int, error) {
	var reqBody io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return 0, errors.Wrapf(err, "[apiclient %s] marshal request", path)
		}
		reqBody = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return 0, errors.Wrapf(err, "[apiclient %s] new request", path)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	metrics.APIRequestDuration.WithLabelValues(path).Observe(time.Since(start).Seconds())
	if err != nil {
		return 0, errors.Wrapf(gterrors.ErrNetwork, "[apiclient %s] %v", path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return resp.StatusCode, errors.Wrapf(gterrors.ErrNetwork, "[apiclient %s] read body: %v", path, err)
	}
	if out == nil {
		return resp.StatusCode, nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return resp.StatusCode, errors.Wrapf(err, "[apiclient %s] decode status %d", path, resp.StatusCode)
	}
	return resp.StatusCode, nil
}
