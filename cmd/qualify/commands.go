package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/fairdatause/qualify-api/internal/authctx"
	"github.com/fairdatause/qualify-api/internal/client"
	"github.com/fairdatause/qualify-api/internal/config"
	"github.com/fairdatause/qualify-api/internal/domain"
	"github.com/fairdatause/qualify-api/internal/identity"
	"github.com/fairdatause/qualify-api/internal/infrastructure/supabase"
	"github.com/fairdatause/qualify-api/internal/workflow"
)

var errUsage = errors.New("unknown command")

type cli struct {
	cfg         *config.Config
	out         io.Writer
	sessionPath string
}

func (c *cli) run(ctx context.Context, cmd string, args []string) error {
	switch cmd {
	case "login":
		return c.withAuth(ctx, c.login, args)
	case "complete":
		return c.withAuth(ctx, c.complete, args)
	case "whoami":
		return c.withAuth(ctx, c.whoami, args)
	case "logout":
		return c.withAuth(ctx, c.logout, args)
	case "submit":
		return c.submit(ctx, args)
	case "introduce":
		return c.introduce(ctx, args)
	case "companies":
		return c.companies(ctx)
	default:
		return fmt.Errorf("%w %q\n%s", errUsage, cmd, usage)
	}
}

type authCommand func(ctx context.Context, store *identity.Store, args []string) error

// withAuth builds the session store and an auth context around it, installs
// the context in ctx and runs fn.
func (c *cli) withAuth(ctx context.Context, fn authCommand, args []string) error {
	store, err := c.store()
	if err != nil {
		return err
	}
	ac := authctx.New(store)
	defer ac.Close()
	ac.Init(ctx)
	return fn(authctx.WithContext(ctx, ac), store, args)
}

func (c *cli) store() (*identity.Store, error) {
	provider, err := supabase.NewClient(supabase.Config{
		URL:     c.cfg.SupabaseURL,
		AnonKey: c.cfg.SupabaseAnonKey,
		Timeout: c.cfg.HTTPClientTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("set SUPABASE_URL and SUPABASE_ANON_KEY: %w", err)
	}
	return identity.NewStore(provider, identity.Options{
		RedirectTo: c.cfg.MagicLinkRedirectURL,
		Persister:  identity.NewFileStore(c.sessionPath),
	}), nil
}

func (c *cli) login(ctx context.Context, _ *identity.Store, args []string) error {
	fs := flag.NewFlagSet("login", flag.ContinueOnError)
	email := fs.String("email", "", "address to send the link to")
	if err := fs.Parse(args); err != nil {
		return err
	}
	ac := authctx.FromContext(ctx)
	if u := ac.User(); u != nil {
		fmt.Fprintf(c.out, "Already signed in as %s\n", u.Email)
		return nil
	}
	if err := ac.SignInWithMagicLink(ctx, *email); err != nil {
		return err
	}
	fmt.Fprintln(c.out, "Check your email for the magic link, then run: qualify complete -code <code>")
	return nil
}

func (c *cli) complete(ctx context.Context, store *identity.Store, args []string) error {
	fs := flag.NewFlagSet("complete", flag.ContinueOnError)
	code := fs.String("code", "", "the code query parameter of the magic link")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if strings.TrimSpace(*code) == "" {
		return domain.NewValidationError("code is required")
	}
	if err := store.CompleteMagicLink(ctx, strings.TrimSpace(*code)); err != nil {
		return err
	}
	if u := authctx.FromContext(ctx).User(); u != nil {
		fmt.Fprintf(c.out, "Signed in as %s\n", u.Email)
	}
	return nil
}

func (c *cli) whoami(ctx context.Context, _ *identity.Store, _ []string) error {
	snap := authctx.FromContext(ctx).Snapshot()
	if snap.User == nil {
		fmt.Fprintln(c.out, snap.State.String())
		return nil
	}
	fmt.Fprintf(c.out, "%s (%s) %s\n", snap.User.Email, snap.User.ID, snap.State)
	return nil
}

func (c *cli) logout(ctx context.Context, _ *identity.Store, _ []string) error {
	ac := authctx.FromContext(ctx)
	if ac.Session() == nil {
		fmt.Fprintln(c.out, "Not signed in")
		return nil
	}
	if err := ac.SignOut(ctx); err != nil {
		return err
	}
	fmt.Fprintln(c.out, "Signed out")
	return nil
}

// api returns a client carrying the saved access token when there is one.
// Auth is optional for the qualification endpoints.
func (c *cli) api(ctx context.Context) *client.Client {
	api := client.New(c.cfg.APIBaseURL, c.cfg.HTTPClientTimeout)
	if store, err := c.store(); err == nil {
		if sess := store.GetSession(ctx); sess != nil {
			api.SetAccessToken(sess.AccessToken)
		}
	}
	return api
}

func (c *cli) submit(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("submit", flag.ContinueOnError)
	var sub domain.QualificationSubmission
	fs.StringVar(&sub.Email, "email", "", "email address")
	fs.StringVar(&sub.Phone, "phone", "", "phone number")
	fs.StringVar(&sub.RedditUsername, "reddit", "", "Reddit username")
	if err := fs.Parse(args); err != nil {
		return err
	}

	out, err := workflow.New(c.api(ctx)).Submit(ctx, sub)
	if err != nil {
		return err
	}
	c.printOutcome(out)
	if out.Kind == workflow.KindMatched {
		fmt.Fprintf(c.out, "Next: qualify introduce -user %s\n", out.UserID)
	}
	return nil
}

func (c *cli) introduce(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("introduce", flag.ContinueOnError)
	userID := fs.String("user", "", "user id returned by submit")
	if err := fs.Parse(args); err != nil {
		return err
	}
	c.printOutcome(workflow.New(c.api(ctx)).RequestIntroduction(ctx, *userID))
	return nil
}

func (c *cli) companies(ctx context.Context) error {
	list, err := c.api(ctx).Companies(ctx)
	if err != nil {
		return err
	}
	for _, co := range list {
		status := co.PayRate
		if co.Bonus != "" {
			status += ", " + co.Bonus + " bonus"
		}
		if co.Locked {
			status = "locked"
		}
		fmt.Fprintf(c.out, "%-28s %s\n", co.Name, status)
	}
	return nil
}

func (c *cli) printOutcome(out workflow.Outcome) {
	fmt.Fprintf(c.out, "[%s] %s\n", out.Kind, out.Message)
	if out.Company != nil {
		fmt.Fprintf(c.out, "Matched: %s (%s, %s bonus)\n", out.Company.Name, out.Company.PayRate, out.Company.Bonus)
	}
	if out.RedirectPath != "" {
		fmt.Fprintf(c.out, "Continue at %s\n", out.RedirectPath)
	}
}
