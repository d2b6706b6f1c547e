package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"moment/internal/domain"
	"moment/internal/domain/models"
)

// GoTrueClient proxies the password flows to the Supabase GoTrue API using
// the anon key. The backend never sees or stores password hashes; it just
// forwards credentials and relays the session material.
type GoTrueClient struct {
	supabaseURL string
	anonKey     string
	httpClient  *http.Client
}

// NewGoTrueClient creates a GoTrue client for the given Supabase project.
func NewGoTrueClient(supabaseURL, anonKey string) *GoTrueClient {
	return &GoTrueClient{
		supabaseURL: supabaseURL,
		anonKey:     anonKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

type gotrueError struct {
	Msg              string `json:"msg"`
	Message          string `json:"message"`
	ErrorDescription string `json:"error_description"`
}

func (e *gotrueError) detail() string {
	switch {
	case e.Msg != "":
		return e.Msg
	case e.Message != "":
		return e.Message
	case e.ErrorDescription != "":
		return e.ErrorDescription
	default:
		return "authentication failed"
	}
}

// SignUp registers a new email/password user.
func (c *GoTrueClient) SignUp(ctx context.Context, email, password string) (*models.TokenPair, error) {
	url := c.supabaseURL + "/auth/v1/signup"
	return c.tokenRequest(ctx, url, map[string]string{
		"email":    email,
		"password": password,
	})
}

// SignInWithPassword exchanges credentials for a session.
func (c *GoTrueClient) SignInWithPassword(ctx context.Context, email, password string) (*models.TokenPair, error) {
	url := c.supabaseURL + "/auth/v1/token?grant_type=password"
	return c.tokenRequest(ctx, url, map[string]string{
		"email":    email,
		"password": password,
	})
}

// RefreshSession exchanges a refresh token for a new session. GoTrue
// rotates the refresh token on every use, so the caller must store the
// returned one.
func (c *GoTrueClient) RefreshSession(ctx context.Context, refreshToken string) (*models.TokenPair, error) {
	url := c.supabaseURL + "/auth/v1/token?grant_type=refresh_token"
	return c.tokenRequest(ctx, url, map[string]string{
		"refresh_token": refreshToken,
	})
}

func (c *GoTrueClient) tokenRequest(ctx context.Context, url string, payload map[string]string) (*models.TokenPair, error) {
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal auth request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create auth request: %w", err)
	}
	req.Header.Set("apikey", c.anonKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: auth provider unreachable: %v", domain.ErrUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("%w: reading auth response: %v", domain.ErrUnavailable, err)
	}

	switch {
	case resp.StatusCode == http.StatusOK:
		var pair models.TokenPair
		if err := json.Unmarshal(body, &pair); err != nil {
			return nil, fmt.Errorf("failed to decode auth response: %w", err)
		}
		return &pair, nil
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, domain.ErrUnauthorized
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		var ge gotrueError
		_ = json.Unmarshal(body, &ge)
		return nil, fmt.Errorf("%w: %s", domain.ErrValidation, ge.detail())
	default:
		return nil, fmt.Errorf("%w: auth provider returned status %d", domain.ErrUnavailable, resp.StatusCode)
	}
}
