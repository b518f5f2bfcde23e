// Command qualify signs an applicant in with a magic link and walks them
// through the qualification flow against a running API.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/fairdatause/qualify-api/internal/config"
	"github.com/fairdatause/qualify-api/internal/logger"
	"github.com/joho/godotenv"
)

const usage = `usage: qualify <command> [flags]

commands:
  login      -email <address>          email a magic sign-in link
  complete   -code <code>              finish sign-in with the code from the link
  whoami                               show the signed-in user
  logout                               end the session
  submit     -email -phone -reddit     submit the qualification form
  introduce  -user <id>                ask for a contractor introduction
  companies                            list the marketplace
`

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	logger.Init(&logger.Config{Level: "warn", Env: cfg.AppEnv, ServiceName: "qualify-cli"})
	defer logger.Sync()

	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	c := &cli{cfg: cfg, out: os.Stdout, sessionPath: defaultSessionPath()}
	if err := c.run(ctx, os.Args[1], os.Args[2:]); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func defaultSessionPath() string {
	if p := os.Getenv("QUALIFY_SESSION_FILE"); p != "" {
		return p
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "qualify", "session.json")
}
