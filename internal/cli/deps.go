package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"regexp"

	"github.com/mekedron/clifood/internal/domain"
	"github.com/mekedron/clifood/internal/gateway/ifood"
)

var unknownCommandPattern = regexp.MustCompile(`unknown command "([^"]+)"`)

// BrowserSession is one live browser tab plus its shutdown handle.
type BrowserSession interface {
	Page() ifood.Page
	Close()
}

// SessionOpener launches or attaches to a browser per the given config.
type SessionOpener func(ctx context.Context, cfg domain.Config) (BrowserSession, error)

// ConfigManager stores CLI config payloads.
type ConfigManager interface {
	Path() string
	Load(ctx context.Context) (domain.Config, error)
	Save(ctx context.Context, cfg domain.Config) error
}

// Dependencies wires runtime services.
type Dependencies struct {
	IFood       ifood.API
	OpenSession SessionOpener
	Config      ConfigManager
	Stdin       io.Reader
	Version     string
}

var errVersionShown = fmt.Errorf("version shown")

// Execute runs the CLI with injected dependencies.
func Execute(ctx context.Context, args []string, deps Dependencies, stdout io.Writer, stderr io.Writer) int {
	cmd := NewRootCommand(deps)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	cmd.SetArgs(args)

	err := cmd.ExecuteContext(ctx)
	if err == nil || err == errVersionShown {
		return 0
	}
	var controlled *exitError
	if errors.As(err, &controlled) {
		return controlled.code
	}

	if matches := unknownCommandPattern.FindStringSubmatch(err.Error()); len(matches) > 1 {
		_, _ = fmt.Fprintf(stderr, "No such command '%s'\n", matches[1])
		return 2
	}

	if msg := err.Error(); msg != "" {
		_, _ = fmt.Fprintln(stderr, msg)
	}
	return 1
}
