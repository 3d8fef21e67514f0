package main

import (
	"context"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/mekedron/clifood/internal/browser"
	"github.com/mekedron/clifood/internal/cli"
	"github.com/mekedron/clifood/internal/config"
	"github.com/mekedron/clifood/internal/domain"
	"github.com/mekedron/clifood/internal/gateway/ifood"
)

var version = "dev"

const (
	defaultCaptureTimeout = 15 * time.Second
	captureTimeoutEnv     = "IFOOD_CAPTURE_TIMEOUT_MS"
)

func main() {
	// A .env in the working directory is optional.
	_ = godotenv.Load()

	store, err := config.NewStore()
	if err != nil {
		_, _ = os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(1)
	}

	deps := cli.Dependencies{
		IFood: ifood.NewClient(
			ifood.WithCaptureTimeout(resolveCaptureTimeout()),
		),
		OpenSession: openBrowserSession,
		Config:      store,
		Stdin:       os.Stdin,
		Version:     version,
	}

	exitCode := cli.Execute(context.Background(), os.Args[1:], deps, os.Stdout, os.Stderr)
	os.Exit(exitCode)
}

type browserSession struct {
	session *browser.Session
}

func (b *browserSession) Page() ifood.Page {
	return b.session
}

func (b *browserSession) Close() {
	b.session.Close()
}

func openBrowserSession(ctx context.Context, cfg domain.Config) (cli.BrowserSession, error) {
	session, err := browser.NewSession(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return &browserSession{session: session}, nil
}

func resolveCaptureTimeout() time.Duration {
	raw := strings.TrimSpace(os.Getenv(captureTimeoutEnv))
	if raw == "" {
		return defaultCaptureTimeout
	}
	ms, err := strconv.Atoi(raw)
	if err != nil || ms <= 0 {
		return defaultCaptureTimeout
	}
	return time.Duration(ms) * time.Millisecond
}
