package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/fairdatause/qualify-api/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

func newCLI(t *testing.T, cfg *config.Config) (*cli, *bytes.Buffer) {
	t.Helper()
	if cfg.HTTPClientTimeout == 0 {
		cfg.HTTPClientTimeout = 2 * time.Second
	}
	out := &bytes.Buffer{}
	return &cli{cfg: cfg, out: out, sessionPath: filepath.Join(t.TempDir(), "session.json")}, out
}

func TestRun_UnknownCommand(t *testing.T) {
	c, _ := newCLI(t, &config.Config{})
	err := c.run(context.Background(), "frobnicate", nil)
	assert.ErrorIs(t, err, errUsage)
}

func TestAuthCommands_RequireSupabaseConfig(t *testing.T) {
	c, _ := newCLI(t, &config.Config{})
	err := c.run(context.Background(), "login", []string{"-email", "a@b.co"})
	assert.ErrorContains(t, err, "SUPABASE_URL")
}

// fakeSupabase serves the three GoTrue endpoints the CLI uses.
func fakeSupabase(t *testing.T) (*httptest.Server, *[]string) {
	t.Helper()
	var calls []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls = append(calls, r.URL.Path)
		switch r.URL.Path {
		case "/auth/v1/otp":
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(`{}`))
		case "/auth/v1/token":
			b, _ := io.ReadAll(r.Body)
			if gjson.GetBytes(b, "auth_code").String() != "good-code" {
				w.WriteHeader(http.StatusBadRequest)
				_, _ = w.Write([]byte(`{"msg":"invalid flow state, no valid flow state found"}`))
				return
			}
			_, _ = fmt.Fprintf(w, `{"access_token":"at","refresh_token":"rt","expires_at":%d,
				"user":{"id":"u-1","email":"test@example.com"}}`, time.Now().Add(time.Hour).Unix())
		case "/auth/v1/logout":
			w.WriteHeader(http.StatusNoContent)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func TestMagicLinkLifecycle(t *testing.T) {
	srv, calls := fakeSupabase(t)
	c, out := newCLI(t, &config.Config{SupabaseURL: srv.URL, SupabaseAnonKey: "anon"})
	ctx := context.Background()

	require.NoError(t, c.run(ctx, "login", []string{"-email", "test@example.com"}))
	assert.Contains(t, out.String(), "Check your email")

	out.Reset()
	err := c.run(ctx, "complete", []string{"-code", "bad-code"})
	assert.EqualError(t, err, "invalid flow state, no valid flow state found")

	require.NoError(t, c.run(ctx, "complete", []string{"-code", "good-code"}))
	assert.Equal(t, "Signed in as test@example.com\n", out.String())

	// A fresh process restores the session from disk.
	out.Reset()
	require.NoError(t, c.run(ctx, "whoami", nil))
	assert.Equal(t, "test@example.com (u-1) authenticated\n", out.String())

	out.Reset()
	require.NoError(t, c.run(ctx, "login", []string{"-email", "test@example.com"}))
	assert.Contains(t, out.String(), "Already signed in")

	out.Reset()
	require.NoError(t, c.run(ctx, "logout", nil))
	assert.Equal(t, "Signed out\n", out.String())

	out.Reset()
	require.NoError(t, c.run(ctx, "whoami", nil))
	assert.Equal(t, "unauthenticated\n", out.String())

	assert.Equal(t, []string{"/auth/v1/otp", "/auth/v1/token", "/auth/v1/token", "/auth/v1/logout"}, *calls)
}

func TestLogin_BlankEmailNeverCallsProvider(t *testing.T) {
	srv, calls := fakeSupabase(t)
	c, _ := newCLI(t, &config.Config{SupabaseURL: srv.URL, SupabaseAnonKey: "anon"})

	err := c.run(context.Background(), "login", []string{"-email", "   "})

	assert.EqualError(t, err, "Please enter your email address")
	assert.Empty(t, *calls)
}

func fakeAPI(t *testing.T, exists bool) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/api/check-user-exists":
			_, _ = fmt.Fprintf(w, `{"success":true,"userExists":%t}`, exists)
		case "/api/social-qualify-form":
			_, _ = w.Write([]byte(`{"success":true,"message":"Application processed successfully","data":{
				"userId":"user-123","matchedCompany":{"name":"Silicon Valley Consulting",
				"slug":"silicon-valley-consulting","payRate":"$2.00 per hour","bonus":"$500"}}}`))
		case "/api/contractor-request":
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"success":false,"message":"User not found. Please complete the qualification form first."}`))
		case "/api/companies":
			_, _ = w.Write([]byte(`{"success":true,"data":{"companies":[
				{"name":"Silicon Valley Consulting","slug":"silicon-valley-consulting","payRate":"$2.00 per hour","bonus":"$500","locked":false},
				{"name":"Tech Innovations Corp","slug":"tech-innovations-corp","payRate":"Coming soon","locked":true}]}}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestSubmit_Matched(t *testing.T) {
	c, out := newCLI(t, &config.Config{APIBaseURL: fakeAPI(t, false).URL})

	err := c.run(context.Background(), "submit", []string{"-email", "test@example.com", "-phone", "1234567890", "-reddit", "testuser"})

	require.NoError(t, err)
	assert.Contains(t, out.String(), "[matched] Application processed successfully")
	assert.Contains(t, out.String(), "Matched: Silicon Valley Consulting ($2.00 per hour, $500 bonus)")
	assert.Contains(t, out.String(), "Continue at /companies/silicon-valley-consulting")
	assert.Contains(t, out.String(), "qualify introduce -user user-123")
}

func TestSubmit_AlreadyRegistered(t *testing.T) {
	c, out := newCLI(t, &config.Config{APIBaseURL: fakeAPI(t, true).URL})

	err := c.run(context.Background(), "submit", []string{"-email", "test@example.com", "-phone", "1234567890", "-reddit", "testuser"})

	require.NoError(t, err)
	assert.Equal(t, "[already_registered] It looks like you've already signed up. Check your email for next steps.\n", out.String())
}

func TestSubmit_InvalidLocally(t *testing.T) {
	c, out := newCLI(t, &config.Config{APIBaseURL: "http://127.0.0.1:1"})

	require.NoError(t, c.run(context.Background(), "submit", []string{"-email", "nope"}))
	assert.Contains(t, out.String(), "[invalid]")
}

func TestIntroduce_UnknownUserPointsToForm(t *testing.T) {
	c, out := newCLI(t, &config.Config{APIBaseURL: fakeAPI(t, false).URL})

	require.NoError(t, c.run(context.Background(), "introduce", []string{"-user", "ghost"}))
	assert.Contains(t, out.String(), "[not_qualified] User not found.")
	assert.Contains(t, out.String(), "Continue at /social-qualify-form")
}

func TestCompanies(t *testing.T) {
	c, out := newCLI(t, &config.Config{APIBaseURL: fakeAPI(t, false).URL})

	require.NoError(t, c.run(context.Background(), "companies", nil))
	assert.Contains(t, out.String(), "$2.00 per hour, $500 bonus")
	assert.Contains(t, out.String(), "Tech Innovations Corp")
	assert.Contains(t, out.String(), "locked")
}
