package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mekedron/clifood/internal/domain"
	"github.com/mekedron/clifood/internal/gateway/ifood"
	"github.com/mekedron/clifood/internal/service/output"
)

type exitError struct {
	code int
}

func (e *exitError) Error() string {
	return ""
}

type globalFlags struct {
	CDPURL     string
	ProfileDir string
	Headless   bool
	SlowMo     int
	TimeoutMs  int
	Format     string
	JSON       bool
	Output     string
	Verbose    bool
}

func addGlobalFlags(root *cobra.Command, flags *globalFlags) {
	pf := root.PersistentFlags()
	pf.StringVar(&flags.CDPURL, "cdp-url", "", "DevTools websocket url of an already running browser. When set, no browser is launched.")
	pf.StringVar(&flags.ProfileDir, "profile-dir", "", "Browser profile directory for the launched browser. The iFood login lives here.")
	pf.BoolVar(&flags.Headless, "headless", false, "Run the launched browser headless. Requires a profile that is already logged in.")
	pf.IntVar(&flags.SlowMo, "slow-mo", 0, "Extra pause in milliseconds after each page navigation.")
	pf.IntVar(&flags.TimeoutMs, "timeout", 0, "Timeout in milliseconds for browser operations.")
	pf.StringVar(&flags.Format, "format", "list", "Output format: list, json, or yaml.")
	pf.BoolVar(&flags.JSON, "json", false, "Shorthand for --format json.")
	pf.StringVar(&flags.Output, "output", "", "Also write rendered output to this file.")
	pf.BoolVar(&flags.Verbose, "verbose", false, "Enable verbose output (prints upstream request trace and detailed error diagnostics).")
	if headless := pf.Lookup("headless"); headless != nil {
		headless.NoOptDefVal = "true"
	}
}

// resolveConfig layers explicit flags over stored configuration. Only flags
// the user actually set override the file and environment.
func resolveConfig(ctx context.Context, deps Dependencies, cmd *cobra.Command, flags globalFlags) (domain.Config, error) {
	cfg := storedConfig(ctx, deps)
	pf := cmd.Root().PersistentFlags()
	if pf.Changed("cdp-url") {
		cfg.CDPURL = flags.CDPURL
	}
	if pf.Changed("profile-dir") {
		cfg.ProfileDir = flags.ProfileDir
	}
	if pf.Changed("headless") {
		cfg.Headless = flags.Headless
	}
	if pf.Changed("slow-mo") {
		cfg.SlowMo = flags.SlowMo
	}
	if pf.Changed("timeout") {
		cfg.TimeoutMs = flags.TimeoutMs
	}
	return cfg, nil
}

// storedConfig loads the persisted config, falling back to zero values when
// the store is absent or failing; flag overrides still apply on top.
func storedConfig(ctx context.Context, deps Dependencies) domain.Config {
	if deps.Config == nil {
		return domain.Config{}
	}
	cfg, err := deps.Config.Load(ctx)
	if err != nil {
		return domain.Config{}
	}
	return cfg
}

// withSession opens a browser session, resolves iFood credentials from it,
// runs fn, and closes the browser.
func withSession(
	ctx context.Context,
	deps Dependencies,
	cmd *cobra.Command,
	flags globalFlags,
	fn func(ctx context.Context, page ifood.Page, sess *ifood.Session) error,
) error {
	cfg, err := resolveConfig(ctx, deps, cmd, flags)
	if err != nil {
		return err
	}
	browserSession, err := deps.OpenSession(ctx, cfg)
	if err != nil {
		return emitError(cmd, flags, "IFOOD_BROWSER_ERROR", fmt.Sprintf("unable to open browser session: %v", err))
	}
	defer browserSession.Close()

	page := browserSession.Page()
	sess, err := deps.IFood.ResolveSession(ctx, page)
	if err != nil {
		return emitSessionError(cmd, flags, err)
	}
	return fn(ctx, page, sess)
}

// withBrowser opens a browser session without resolving credentials; used by
// commands that only navigate.
func withBrowser(
	ctx context.Context,
	deps Dependencies,
	cmd *cobra.Command,
	flags globalFlags,
	fn func(ctx context.Context, page ifood.Page) error,
) error {
	cfg, err := resolveConfig(ctx, deps, cmd, flags)
	if err != nil {
		return err
	}
	browserSession, err := deps.OpenSession(ctx, cfg)
	if err != nil {
		return emitError(cmd, flags, "IFOOD_BROWSER_ERROR", fmt.Sprintf("unable to open browser session: %v", err))
	}
	defer browserSession.Close()
	return fn(ctx, browserSession.Page())
}

func parseOutputFormat(flags globalFlags) (output.Format, error) {
	if flags.JSON {
		return output.FormatJSON, nil
	}
	return output.ParseFormat(flags.Format)
}

func writeList(cmd *cobra.Command, flags globalFlags, text string) error {
	return output.WriteOutput(cmd.OutOrStdout(), text, flags.Output)
}

func writeMachinePayload(cmd *cobra.Command, flags globalFlags, payload any, format output.Format) error {
	rendered, err := output.RenderPayload(payload, format)
	if err != nil {
		return err
	}
	return output.WriteOutput(cmd.OutOrStdout(), rendered, flags.Output)
}

// writeResult renders a result either as numbered lines or as a machine
// payload, per --format.
func writeResult(cmd *cobra.Command, flags globalFlags, title string, lines []string, payload any) error {
	format, err := parseOutputFormat(flags)
	if err != nil {
		return err
	}
	if format == output.FormatList {
		return writeList(cmd, flags, output.RenderList(title, lines))
	}
	return writeMachinePayload(cmd, flags, payload, format)
}

// writePlainResult is writeResult without line numbering; used for results
// that read as a report rather than a listing.
func writePlainResult(cmd *cobra.Command, flags globalFlags, title string, lines []string, payload any) error {
	format, err := parseOutputFormat(flags)
	if err != nil {
		return err
	}
	if format == output.FormatList {
		text := title
		if len(lines) > 0 {
			text += "\n" + strings.Join(lines, "\n")
		}
		return writeList(cmd, flags, text)
	}
	return writeMachinePayload(cmd, flags, payload, format)
}

func emitError(cmd *cobra.Command, flags globalFlags, code string, message string) error {
	format, err := parseOutputFormat(flags)
	if err != nil || format == output.FormatList {
		if writeErr := output.WriteOutput(cmd.OutOrStdout(), message, flags.Output); writeErr != nil {
			return writeErr
		}
		return &exitError{code: 1}
	}
	payload := map[string]any{
		"error": map[string]any{
			"code":    code,
			"message": message,
		},
	}
	if writeErr := writeMachinePayload(cmd, flags, payload, format); writeErr != nil {
		return writeErr
	}
	return &exitError{code: 1}
}

func emitSessionError(cmd *cobra.Command, flags globalFlags, err error) error {
	switch {
	case errors.Is(err, ifood.ErrNotLoggedIn):
		return emitError(cmd, flags, "IFOOD_NOT_LOGGED_IN",
			"No iFood login found in the browser profile. Run `clifood open` and sign in first.")
	case errors.Is(err, ifood.ErrNoAddress):
		return emitError(cmd, flags, "IFOOD_NO_ADDRESS",
			"No delivery address is set on the iFood account. Run `clifood open` and pick an address first.")
	case errors.Is(err, ifood.ErrCaptureTimeout):
		return emitError(cmd, flags, "IFOOD_CAPTURE_TIMEOUT",
			"Timed out waiting for an authenticated iFood request. Reload the page and try again.")
	default:
		return emitUpstreamError(cmd, flags, err)
	}
}

func emitUpstreamError(cmd *cobra.Command, flags globalFlags, err error) error {
	if err == nil {
		err = ifood.ErrUpstream
	}
	if flags.Verbose {
		return emitError(cmd, flags, "IFOOD_UPSTREAM_ERROR", err.Error())
	}

	message := ifood.ErrUpstream.Error() + " (use --verbose for details)"
	var upstreamErr *ifood.UpstreamRequestError
	if errors.As(err, &upstreamErr) && upstreamErr.StatusCode > 0 {
		message = fmt.Sprintf("%s (status %d, use --verbose for details)", ifood.ErrUpstream.Error(), upstreamErr.StatusCode)
	}
	return emitError(cmd, flags, "IFOOD_UPSTREAM_ERROR", message)
}

func restaurantLine(restaurant domain.Restaurant) string {
	var b strings.Builder
	b.WriteString(restaurant.Name)
	if restaurant.Info != "" {
		b.WriteString(" (")
		b.WriteString(restaurant.Info)
		b.WriteString(")")
	}
	if restaurant.URL != "" {
		b.WriteString(" ")
		b.WriteString(restaurant.URL)
	}
	return b.String()
}

func menuItemLine(item domain.MenuItem) string {
	var b strings.Builder
	b.WriteString(item.Name)
	if item.PriceText != "" {
		b.WriteString(" - ")
		b.WriteString(item.PriceText)
	}
	if item.Section != "" {
		b.WriteString(" [")
		b.WriteString(item.Section)
		b.WriteString("]")
	}
	return b.String()
}
