package session

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/taskhub/backend/internal/constants"
	"github.com/taskhub/backend/internal/models"
)

// APIError is a non-2xx answer from the server. Message is the server's
// own wording and may be empty when the body was not an error envelope.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("server responded with status %d", e.Status)
}

// Authenticator is the part of the API the Provider drives.
type Authenticator interface {
	Login(ctx context.Context, email, password string) (*Snapshot, error)
	Register(ctx context.Context, req models.RegisterRequest) (*Snapshot, error)
	Me(ctx context.Context, token string) (*Profile, error)
	Logout(ctx context.Context, token string) error
}

// Client talks to the TaskHub HTTP API.
type Client struct {
	baseURL string
	http    *http.Client
}

var _ Authenticator = (*Client)(nil)

// NewClient creates a client for baseURL. A nil httpClient gets a default
// with constants.DefaultClientTimeout.
func NewClient(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: constants.DefaultClientTimeout}
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), http: httpClient}
}

// Login posts the credentials and returns a snapshot built from the user in
// the body and the session cookie.
func (c *Client) Login(ctx context.Context, email, password string) (*Snapshot, error) {
	return c.startSession(ctx, constants.AuthLoginPath, models.LoginRequest{Email: email, Password: password})
}

// Register creates an account; the server logs it in straight away.
func (c *Client) Register(ctx context.Context, req models.RegisterRequest) (*Snapshot, error) {
	return c.startSession(ctx, constants.AuthRegisterPath, req)
}

func (c *Client) startSession(ctx context.Context, path string, body interface{}) (*Snapshot, error) {
	var out models.UserResponse
	resp, err := c.do(ctx, http.MethodPost, path, "", body, &out)
	if err != nil {
		return nil, err
	}

	var token string
	for _, cookie := range resp.Cookies() {
		if cookie.Name == constants.AuthTokenCookie {
			token = cookie.Value
		}
	}
	if token == "" || out.User == nil {
		return nil, fmt.Errorf("%s response carried no session", path)
	}

	return &Snapshot{Profile: profileOf(out.User), Token: token}, nil
}

// Me returns the profile the server derives from token.
func (c *Client) Me(ctx context.Context, token string) (*Profile, error) {
	var out models.UserResponse
	if _, err := c.do(ctx, http.MethodGet, constants.AuthMePath, token, nil, &out); err != nil {
		return nil, err
	}
	if out.User == nil {
		return nil, fmt.Errorf("me response carried no user")
	}
	p := profileOf(out.User)
	return &p, nil
}

// Logout asks the server to clear its cookie.
func (c *Client) Logout(ctx context.Context, token string) error {
	_, err := c.do(ctx, http.MethodPost, constants.AuthLogoutPath, token, nil, nil)
	return err
}

// ForgotPassword requests a reset link for email.
func (c *Client) ForgotPassword(ctx context.Context, email string) (*models.ResetResult, error) {
	return c.reset(ctx, constants.ForgotPath, models.ForgotRequest{Email: email})
}

// ResendReset asks for the reset link again.
func (c *Client) ResendReset(ctx context.Context, email string) (*models.ResetResult, error) {
	return c.reset(ctx, constants.ForgotResendPath, models.ForgotRequest{Email: email})
}

// ResetPassword redeems a reset token.
func (c *Client) ResetPassword(ctx context.Context, token, email, password string) (*models.ResetResult, error) {
	return c.reset(ctx, constants.ResetPath, models.ResetRequest{Token: token, Email: email, Password: password})
}

// VerifyReset checks a token without consuming it.
func (c *Client) VerifyReset(ctx context.Context, token, email string) (*models.ResetResult, error) {
	return c.reset(ctx, constants.ResetVerifyPath, models.VerifyResetRequest{Token: token, Email: email})
}

func (c *Client) reset(ctx context.Context, path string, body interface{}) (*models.ResetResult, error) {
	var out models.ResetResult
	if _, err := c.do(ctx, http.MethodPost, path, "", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) do(ctx context.Context, method, path, token string, body, out interface{}) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set(constants.HeaderAccept, constants.ContentTypeJSON)
	if body != nil {
		req.Header.Set(constants.HeaderContentType, constants.ContentTypeJSON)
	}
	if token != "" {
		req.AddCookie(&http.Cookie{Name: constants.AuthTokenCookie, Value: token})
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, constants.MaxRequestBodySize))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		return resp, decodeAPIError(resp.StatusCode, data)
	}

	if out != nil && len(data) > 0 {
		if err := json.Unmarshal(data, out); err != nil {
			return resp, fmt.Errorf("decode response: %w", err)
		}
	}
	return resp, nil
}

func decodeAPIError(status int, data []byte) *APIError {
	apiErr := &APIError{Status: status}

	var envelope struct {
		Error *struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(data, &envelope); err == nil && envelope.Error != nil {
		apiErr.Code = envelope.Error.Code
		apiErr.Message = envelope.Error.Message
	}
	return apiErr
}

func profileOf(u *models.User) Profile {
	return Profile{ID: u.ID, Name: u.Name, Email: u.Email, Position: u.Position}
}
