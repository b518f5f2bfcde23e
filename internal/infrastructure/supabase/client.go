package supabase

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/fairdatause/qualify-api/internal/identity"
	jwtinfra "github.com/fairdatause/qualify-api/internal/infrastructure/jwt"
	"github.com/go-resty/resty/v2"
	"github.com/tidwall/gjson"
)

// Client talks to the GoTrue auth API of a Supabase project.
type Client struct {
	http *resty.Client
}

var _ identity.Provider = (*Client)(nil)

type Config struct {
	URL     string
	AnonKey string
	Timeout time.Duration
}

func NewClient(cfg Config) (*Client, error) {
	if cfg.URL == "" || cfg.AnonKey == "" {
		return nil, errors.New("supabase url and anon key are required")
	}
	c := resty.New().
		SetBaseURL(cfg.URL+"/auth/v1").
		SetHeader("apikey", cfg.AnonKey).
		SetHeader("Content-Type", "application/json").
		SetTimeout(cfg.Timeout)
	return &Client{http: c}, nil
}

func (c *Client) SendMagicLink(ctx context.Context, email, redirectTo, codeChallenge string) error {
	req := c.http.R().
		SetContext(ctx).
		SetBody(map[string]interface{}{
			"email":                 email,
			"create_user":           true,
			"code_challenge":        codeChallenge,
			"code_challenge_method": "s256",
		})
	if redirectTo != "" {
		req.SetQueryParam("redirect_to", redirectTo)
	}
	resp, err := req.Post("/otp")
	if err != nil {
		return err
	}
	if resp.IsError() {
		return apiError(resp)
	}
	return nil
}

func (c *Client) ExchangeCode(ctx context.Context, authCode, codeVerifier string) (*identity.Session, error) {
	return c.token(ctx, "pkce", map[string]string{
		"auth_code":     authCode,
		"code_verifier": codeVerifier,
	})
}

func (c *Client) Refresh(ctx context.Context, refreshToken string) (*identity.Session, error) {
	return c.token(ctx, "refresh_token", map[string]string{"refresh_token": refreshToken})
}

func (c *Client) SignOut(ctx context.Context, accessToken string) error {
	resp, err := c.http.R().
		SetContext(ctx).
		SetAuthToken(accessToken).
		Post("/logout")
	if err != nil {
		return err
	}
	// An already revoked token is as good as a successful sign-out.
	if resp.IsError() && resp.StatusCode() != http.StatusUnauthorized && resp.StatusCode() != http.StatusNotFound {
		return apiError(resp)
	}
	return nil
}

func (c *Client) token(ctx context.Context, grant string, body map[string]string) (*identity.Session, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("grant_type", grant).
		SetBody(body).
		Post("/token")
	if err != nil {
		return nil, err
	}
	if resp.IsError() {
		return nil, apiError(resp)
	}
	return parseSession(resp.String())
}

func parseSession(body string) (*identity.Session, error) {
	res := gjson.Parse(body)
	access := res.Get("access_token").String()
	if access == "" {
		return nil, errors.New("token response has no access_token")
	}
	s := &identity.Session{
		AccessToken:  access,
		RefreshToken: res.Get("refresh_token").String(),
		ExpiresAt:    res.Get("expires_at").Int(),
		User: identity.User{
			ID:        res.Get("user.id").String(),
			Email:     res.Get("user.email").String(),
			CreatedAt: res.Get("user.created_at").Time(),
			UpdatedAt: res.Get("user.updated_at").Time(),
		},
	}
	if s.ExpiresAt == 0 {
		if exp, err := jwtinfra.ExpiresAt(access); err == nil {
			s.ExpiresAt = exp.Unix()
		}
	}
	return s, nil
}

// apiError extracts GoTrue's user-facing message. Newer releases use "msg",
// older ones the OAuth style "error_description".
func apiError(resp *resty.Response) error {
	res := gjson.Parse(resp.String())
	for _, path := range []string{"msg", "error_description", "message", "error"} {
		if m := res.Get(path).String(); m != "" {
			return &identity.ProviderError{Message: m}
		}
	}
	return &identity.ProviderError{Message: fmt.Sprintf("auth request failed with status %d", resp.StatusCode())}
}
