package browser

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"

	"github.com/mekedron/clifood/internal/gateway/ifood"
)

const defaultAwaitTimeout = 15 * time.Second

func headerStrings(headers network.Headers) map[string]string {
	out := make(map[string]string, len(headers))
	for key, value := range headers {
		out[key] = fmt.Sprint(value)
	}
	return out
}

// CaptureRequest listens for outgoing network requests, runs trigger, and
// resolves with the headers of the first request accepted by match. The
// listener is attached before trigger runs so requests fired during
// navigation are not missed.
func (s *Session) CaptureRequest(
	ctx context.Context,
	match func(rawURL string, headers map[string]string) bool,
	timeout time.Duration,
	trigger func(ctx context.Context) error,
) (map[string]string, error) {
	runCtx, cancel := mergeContexts(s.ctx, ctx)
	defer cancel()
	if timeout <= 0 {
		timeout = defaultAwaitTimeout
	}

	listenCtx, stopListening := context.WithCancel(runCtx)
	defer stopListening()

	found := make(chan map[string]string, 1)
	chromedp.ListenTarget(listenCtx, func(ev any) {
		event, ok := ev.(*network.EventRequestWillBeSent)
		if !ok {
			return
		}
		headers := headerStrings(event.Request.Headers)
		if !match(event.Request.URL, headers) {
			return
		}
		select {
		case found <- headers:
		default:
		}
	})

	triggerErr := make(chan error, 1)
	go func() {
		triggerErr <- trigger(runCtx)
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	for {
		select {
		case headers := <-found:
			return headers, nil
		case err := <-triggerErr:
			if err != nil {
				return nil, fmt.Errorf("capture trigger: %w", err)
			}
			// Trigger finished cleanly; keep waiting for the request.
			triggerErr = nil
		case <-timer.C:
			return nil, ifood.ErrCaptureTimeout
		case <-runCtx.Done():
			return nil, runCtx.Err()
		}
	}
}

type observedBody struct {
	response *ifood.ObservedResponse
	err      error
}

// AwaitResponse runs trigger and resolves with the first completed response
// whose URL contains urlFragment, together with the headers its request
// carried. Bodies can only be read once loading finishes, so the match is
// staged across the request, response and loading-finished events.
func (s *Session) AwaitResponse(
	ctx context.Context,
	urlFragment string,
	trigger func(ctx context.Context) error,
) (*ifood.ObservedResponse, error) {
	runCtx, cancel := mergeContexts(s.ctx, ctx)
	defer cancel()

	listenCtx, stopListening := context.WithCancel(runCtx)
	defer stopListening()

	var mu sync.Mutex
	requestHeaders := make(map[network.RequestID]map[string]string)
	matched := make(map[network.RequestID]struct{})
	delivered := false

	found := make(chan observedBody, 1)
	deliver := func(result observedBody) {
		mu.Lock()
		defer mu.Unlock()
		if delivered {
			return
		}
		delivered = true
		found <- result
	}

	chromedp.ListenTarget(listenCtx, func(ev any) {
		switch event := ev.(type) {
		case *network.EventRequestWillBeSent:
			if !strings.Contains(event.Request.URL, urlFragment) {
				return
			}
			mu.Lock()
			requestHeaders[event.RequestID] = headerStrings(event.Request.Headers)
			mu.Unlock()
		case *network.EventResponseReceived:
			if !strings.Contains(event.Response.URL, urlFragment) {
				return
			}
			mu.Lock()
			matched[event.RequestID] = struct{}{}
			mu.Unlock()
		case *network.EventLoadingFinished:
			mu.Lock()
			_, ok := matched[event.RequestID]
			headers := requestHeaders[event.RequestID]
			mu.Unlock()
			if !ok {
				return
			}
			// The body must be fetched outside the event callback; CDP
			// dispatch blocks until the handler returns.
			go func(requestID network.RequestID, headers map[string]string) {
				var body []byte
				err := chromedp.Run(runCtx, chromedp.ActionFunc(func(ctx context.Context) error {
					var bodyErr error
					body, bodyErr = network.GetResponseBody(requestID).Do(ctx)
					return bodyErr
				}))
				if err != nil {
					deliver(observedBody{err: fmt.Errorf("read response body: %w", err)})
					return
				}
				deliver(observedBody{response: &ifood.ObservedResponse{
					Body:           body,
					RequestHeaders: headers,
				}})
			}(event.RequestID, headers)
		}
	})

	triggerErr := make(chan error, 1)
	go func() {
		triggerErr <- trigger(runCtx)
	}()

	timeout := s.opTimeout
	if timeout <= 0 {
		timeout = defaultAwaitTimeout
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	for {
		select {
		case result := <-found:
			return result.response, result.err
		case err := <-triggerErr:
			if err != nil {
				return nil, fmt.Errorf("await trigger: %w", err)
			}
			triggerErr = nil
		case <-timer.C:
			return nil, ifood.ErrCaptureTimeout
		case <-runCtx.Done():
			return nil, runCtx.Err()
		}
	}
}
