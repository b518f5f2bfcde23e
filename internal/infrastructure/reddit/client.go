// Package reddit checks whether a Reddit account exists.
package reddit

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/tidwall/gjson"
)

const (
	publicBaseURL = "https://www.reddit.com"
	oauthBaseURL  = "https://oauth.reddit.com"
	tokenURL      = "https://www.reddit.com/api/v1/access_token"
)

type Config struct {
	ClientID     string
	ClientSecret string
	UserAgent    string
	Timeout      time.Duration

	// Overrides for tests. Empty means the public Reddit endpoints.
	BaseURL  string
	TokenURL string
}

// Client looks users up through the OAuth API when app credentials are set
// and through the anonymous JSON endpoints otherwise.
type Client struct {
	http     *resty.Client
	tokenURL string
	id       string
	secret   string
	now      func() time.Time

	mu       sync.Mutex
	token    string
	tokenExp time.Time
}

func NewClient(cfg Config) *Client {
	oauth := cfg.ClientID != "" && cfg.ClientSecret != ""
	base := cfg.BaseURL
	if base == "" {
		base = publicBaseURL
		if oauth {
			base = oauthBaseURL
		}
	}
	tURL := cfg.TokenURL
	if tURL == "" {
		tURL = tokenURL
	}
	c := &Client{
		http: resty.New().
			SetBaseURL(base).
			SetHeader("User-Agent", cfg.UserAgent).
			SetTimeout(cfg.Timeout),
		tokenURL: tURL,
		now:      time.Now,
	}
	if oauth {
		c.id, c.secret = cfg.ClientID, cfg.ClientSecret
	}
	return c
}

// UserExists reports whether username names an active account. Suspended
// and shadow-banned accounts count as absent.
func (c *Client) UserExists(ctx context.Context, username string) (bool, error) {
	req := c.http.R().SetContext(ctx).SetPathParam("name", username)
	path := "/user/{name}/about.json"
	if c.id != "" {
		tok, err := c.accessToken(ctx)
		if err != nil {
			return false, err
		}
		req.SetAuthToken(tok)
		path = "/user/{name}/about"
	}

	resp, err := req.Get(path)
	if err != nil {
		return false, fmt.Errorf("reddit lookup: %w", err)
	}
	switch resp.StatusCode() {
	case http.StatusOK:
	case http.StatusNotFound, http.StatusForbidden:
		return false, nil
	case http.StatusUnauthorized:
		c.resetToken()
		return false, errors.New("reddit rejected the access token")
	default:
		return false, fmt.Errorf("reddit lookup returned status %d", resp.StatusCode())
	}

	res := gjson.Parse(resp.String())
	if res.Get("error").Exists() || res.Get("data.is_suspended").Bool() {
		return false, nil
	}
	name := res.Get("data.name").String()
	return strings.EqualFold(name, username), nil
}

func (c *Client) accessToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.token != "" && c.now().Before(c.tokenExp) {
		return c.token, nil
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetBasicAuth(c.id, c.secret).
		SetFormData(map[string]string{"grant_type": "client_credentials"}).
		Post(c.tokenURL)
	if err != nil {
		return "", fmt.Errorf("reddit token: %w", err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("reddit token returned status %d", resp.StatusCode())
	}
	res := gjson.Parse(resp.String())
	tok := res.Get("access_token").String()
	if tok == "" {
		return "", errors.New("reddit token response has no access_token")
	}
	ttl := time.Duration(res.Get("expires_in").Int()) * time.Second
	// Renew a minute early so a lookup never races the expiry.
	c.token, c.tokenExp = tok, c.now().Add(ttl-time.Minute)
	return tok, nil
}

func (c *Client) resetToken() {
	c.mu.Lock()
	c.token = ""
	c.mu.Unlock()
}
