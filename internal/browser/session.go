package browser

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"

	"github.com/mekedron/clifood/internal/domain"
)

// Session is a live Chrome tab. It either attaches to an already running
// browser over the DevTools protocol or launches its own instance against a
// persistent profile directory, so the iFood login survives between runs.
type Session struct {
	ctx         context.Context
	cancelChain []context.CancelFunc
	opTimeout   time.Duration
	slowMo      time.Duration
}

// NewSession opens a browser tab per the given configuration. Close must be
// called to release the browser.
func NewSession(ctx context.Context, cfg domain.Config) (*Session, error) {
	sess := &Session{
		opTimeout: time.Duration(cfg.TimeoutMs) * time.Millisecond,
		slowMo:    time.Duration(cfg.SlowMo) * time.Millisecond,
	}

	var allocCtx context.Context
	var cancelAlloc context.CancelFunc
	if cfg.CDPURL != "" {
		allocCtx, cancelAlloc = chromedp.NewRemoteAllocator(ctx, cfg.CDPURL)
	} else {
		opts := append(chromedp.DefaultExecAllocatorOptions[:],
			chromedp.Flag("headless", cfg.Headless),
			chromedp.Flag("disable-gpu", true),
			chromedp.Flag("disable-dev-shm-usage", true),
			chromedp.Flag("lang", cfg.Locale),
			chromedp.UserDataDir(cfg.ProfileDir),
			chromedp.WindowSize(1280, 800),
		)
		allocCtx, cancelAlloc = chromedp.NewExecAllocator(ctx, opts...)
	}
	sess.cancelChain = append(sess.cancelChain, cancelAlloc)

	tabCtx, cancelTab := chromedp.NewContext(allocCtx)
	sess.cancelChain = append(sess.cancelChain, cancelTab)
	sess.ctx = tabCtx

	if err := chromedp.Run(tabCtx, network.Enable()); err != nil {
		sess.Close()
		return nil, fmt.Errorf("start browser session: %w", err)
	}
	return sess, nil
}

// Close shuts down the tab and, for launched browsers, the browser itself.
func (s *Session) Close() {
	for i := len(s.cancelChain) - 1; i >= 0; i-- {
		s.cancelChain[i]()
	}
}

// opContext bounds one browser operation with the configured timeout. The
// tab context itself stays unbounded so the session survives between calls.
func (s *Session) opContext(ctx context.Context) (context.Context, context.CancelFunc) {
	merged, cancel := mergeContexts(s.ctx, ctx)
	if s.opTimeout <= 0 {
		return merged, cancel
	}
	bounded, cancelTimeout := context.WithTimeout(merged, s.opTimeout)
	return bounded, func() {
		cancelTimeout()
		cancel()
	}
}

// mergeContexts derives from the tab context, which carries the chromedp
// target, while still honoring cancellation of the caller's context.
func mergeContexts(tab, caller context.Context) (context.Context, context.CancelFunc) {
	merged, cancel := context.WithCancel(tab)
	stop := context.AfterFunc(caller, cancel)
	return merged, func() {
		stop()
		cancel()
	}
}

func (s *Session) pause(ctx context.Context) {
	if s.slowMo <= 0 {
		return
	}
	timer := time.NewTimer(s.slowMo)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
	}
}

// URL returns the tab's current location.
func (s *Session) URL(ctx context.Context) (string, error) {
	runCtx, cancel := s.opContext(ctx)
	defer cancel()

	var currentURL string
	if err := chromedp.Run(runCtx, chromedp.Location(&currentURL)); err != nil {
		return "", fmt.Errorf("read location: %w", err)
	}
	return currentURL, nil
}

// Navigate loads rawURL and waits for the document to become ready.
func (s *Session) Navigate(ctx context.Context, rawURL string) error {
	runCtx, cancel := s.opContext(ctx)
	defer cancel()

	err := chromedp.Run(runCtx,
		chromedp.Navigate(rawURL),
		chromedp.WaitReady("body"),
	)
	if err != nil {
		return fmt.Errorf("navigate to %s: %w", rawURL, err)
	}
	s.pause(runCtx)
	return nil
}

// Reload reloads the current page.
func (s *Session) Reload(ctx context.Context) error {
	runCtx, cancel := s.opContext(ctx)
	defer cancel()

	err := chromedp.Run(runCtx,
		chromedp.Reload(),
		chromedp.WaitReady("body"),
	)
	if err != nil {
		return fmt.Errorf("reload page: %w", err)
	}
	s.pause(runCtx)
	return nil
}

// Evaluate runs a JavaScript expression in the page, awaiting promises, and
// decodes the JSON result into out.
func (s *Session) Evaluate(ctx context.Context, expression string, out any) error {
	runCtx, cancel := s.opContext(ctx)
	defer cancel()

	err := chromedp.Run(runCtx, chromedp.Evaluate(expression, out,
		func(p *runtime.EvaluateParams) *runtime.EvaluateParams {
			return p.WithAwaitPromise(true).WithReturnByValue(true)
		},
	))
	if err != nil {
		return fmt.Errorf("evaluate script: %w", err)
	}
	return nil
}
