package ifood

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/mekedron/clifood/internal/domain"
)

const (
	defaultSearchAPIURL   = "https://cw-marketplace.ifood.com.br/v2/cardstack/search/results"
	defaultCatalogAPIURL  = "https://cw-marketplace.ifood.com.br/v1/bm/merchants/"
	defaultCategoryAPIURL = "https://cw-marketplace.ifood.com.br/v1/bm/page/"
	defaultCartsAPIURL    = "https://cw-marketplace.ifood.com.br/v1/carts"

	defaultHomePageURL        = "https://www.ifood.com.br/inicio"
	defaultRestaurantsPageURL = "https://www.ifood.com.br/restaurantes"
	defaultCartPageURL        = "https://www.ifood.com.br/carrinho"
	defaultCheckoutPageURL    = "https://www.ifood.com.br/checkout"

	deliveryURLPrefix    = "https://www.ifood.com.br/delivery/"
	marketplaceHost      = "cw-marketplace.ifood.com.br"
	homeFeedPathFragment = "/v2/bm/home"

	searchAlias   = "SEARCH_RESULTS_MERCHANT_TAB_GLOBAL"
	searchChannel = "IFOOD"

	defaultCaptureTimeout    = 15 * time.Second
	defaultNavigationSettle  = time.Second
	defaultSearchResultLimit = 10
	minSearchRequestSize     = 20
)

// discoveryPostBody is the capability declaration the search and category
// endpoints require. It enumerates every card/action type the web client
// claims to understand; only a subset is actually parsed, but narrowing the
// list has unverified effects on result completeness, so it stays complete.
var discoveryPostBody = map[string]any{
	"supported-headers": []string{"OPERATION_HEADER"},
	"supported-cards": []string{
		"MERCHANT_LIST",
		"CATALOG_ITEM_LIST",
		"CATALOG_ITEM_LIST_V2",
		"CATALOG_ITEM_LIST_V3",
		"FEATURED_MERCHANT_LIST",
		"CATALOG_ITEM_CAROUSEL",
		"CATALOG_ITEM_CAROUSEL_V2",
		"CATALOG_ITEM_CAROUSEL_V3",
		"BIG_BANNER_CAROUSEL",
		"IMAGE_BANNER",
		"MERCHANT_LIST_WITH_ITEMS_CAROUSEL",
		"SMALL_BANNER_CAROUSEL",
		"NEXT_CONTENT",
		"MERCHANT_CAROUSEL",
		"MERCHANT_TILE_CAROUSEL",
		"SIMPLE_MERCHANT_CAROUSEL",
		"INFO_CARD",
		"MERCHANT_LIST_V2",
		"ROUND_IMAGE_CAROUSEL",
		"BANNER_GRID",
		"MEDIUM_IMAGE_BANNER",
		"MEDIUM_BANNER_CAROUSEL",
		"RELATED_SEARCH_CAROUSEL",
		"ADS_BANNER",
	},
	"supported-actions": []string{
		"catalog-item",
		"item-details",
		"merchant",
		"page",
		"card-content",
		"last-restaurants",
		"webmiddleware",
		"reorder",
		"search",
		"groceries",
		"home-tab",
	},
	"feed-feature-name": "",
	"faster-overrides":  "",
}

// HTTPClient is implemented by http.Client.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Endpoints stores upstream endpoint urls and page urls.
type Endpoints struct {
	Search       string
	Catalog      string
	CategoryPage string
	Carts        string
	HomePage     string
	Restaurants  string
	CartPage     string
	CheckoutPage string
}

// Client drives iFood internal marketplace endpoints with a captured
// browser session.
type Client struct {
	httpClient       HTTPClient
	endpoints        Endpoints
	captureTimeout   time.Duration
	navigationSettle time.Duration
	verboseOutput    io.Writer
	verboseOutputM   sync.RWMutex
}

// Option applies Client options.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(httpClient HTTPClient) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithEndpoints replaces the default endpoint set.
func WithEndpoints(endpoints Endpoints) Option {
	return func(c *Client) {
		c.endpoints = endpoints
	}
}

// WithCaptureTimeout bounds the header-capture wait.
func WithCaptureTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.captureTimeout = timeout
		}
	}
}

// WithNavigationSettle sets the pause after page navigations.
func WithNavigationSettle(settle time.Duration) Option {
	return func(c *Client) {
		if settle < 0 {
			settle = 0
		}
		c.navigationSettle = settle
	}
}

// WithVerboseOutput enables per-request trace output for upstream HTTP calls.
func WithVerboseOutput(out io.Writer) Option {
	return func(c *Client) {
		c.SetVerboseOutput(out)
	}
}

// NewClient creates a production iFood gateway client.
func NewClient(opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: 20 * time.Second},
		endpoints: Endpoints{
			Search:       defaultSearchAPIURL,
			Catalog:      defaultCatalogAPIURL,
			CategoryPage: defaultCategoryAPIURL,
			Carts:        defaultCartsAPIURL,
			HomePage:     defaultHomePageURL,
			Restaurants:  defaultRestaurantsPageURL,
			CartPage:     defaultCartPageURL,
			CheckoutPage: defaultCheckoutPageURL,
		},
		captureTimeout:   defaultCaptureTimeout,
		navigationSettle: defaultNavigationSettle,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetVerboseOutput sets the destination for verbose HTTP request trace lines.
func (c *Client) SetVerboseOutput(out io.Writer) {
	c.verboseOutputM.Lock()
	c.verboseOutput = out
	c.verboseOutputM.Unlock()
}

func formatCoordinate(value float64) string {
	return strconv.FormatFloat(value, 'f', -1, 64)
}

// fetch issues one call with the session's captured headers plus
// call-specific extras, through the page's own fetch when a page is given.
func (c *Client) fetch(
	ctx context.Context,
	sess *Session,
	page Page,
	method string,
	rawURL string,
	extraHeaders map[string]string,
	body any,
) (map[string]any, error) {
	headers := make(map[string]string, len(sess.Headers)+len(extraHeaders))
	for key, value := range sess.Headers {
		headers[key] = value
	}
	for key, value := range extraHeaders {
		headers[key] = value
	}
	if page != nil {
		return c.fetchViaPage(ctx, page, method, rawURL, headers, body)
	}
	return c.doJSONRequest(ctx, method, rawURL, body, headers)
}

type pageFetchResult struct {
	OK     bool   `json:"ok"`
	Status int    `json:"status"`
	Text   string `json:"text"`
}

// fetchViaPage proxies the call through the live page's fetch with
// credentials included, so cookie-scoped anti-bot checks are inherited.
func (c *Client) fetchViaPage(
	ctx context.Context,
	page Page,
	method string,
	rawURL string,
	headers map[string]string,
	body any,
) (map[string]any, error) {
	input := map[string]any{
		"url":     rawURL,
		"method":  method,
		"headers": headers,
		"body":    nil,
	}
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request body: %w", err)
		}
		input["body"] = string(payload)
	}
	encodedInput, err := json.Marshal(input)
	if err != nil {
		return nil, fmt.Errorf("marshal fetch input: %w", err)
	}
	expression := fmt.Sprintf(`(async (input) => {
		const response = await fetch(input.url, {
			method: input.method,
			credentials: "include",
			headers: input.headers,
			body: input.body === null ? undefined : input.body,
		});
		const text = await response.text();
		return { ok: response.ok, status: response.status, text };
	})(%s)`, encodedInput)

	startedAt := time.Now()
	c.traceRequestStart(method, rawURL+" (via page)", len(encodedInput))

	var result pageFetchResult
	if err := page.Evaluate(ctx, expression, &result); err != nil {
		upstreamErr := &UpstreamRequestError{Method: method, URL: rawURL, Cause: err}
		c.traceRequestDone(method, rawURL, 0, 0, startedAt, upstreamErr)
		return nil, upstreamErr
	}
	if !result.OK {
		upstreamErr := &UpstreamRequestError{
			Method:     method,
			URL:        rawURL,
			StatusCode: result.Status,
			Body:       result.Text,
		}
		c.traceRequestDone(method, rawURL, result.Status, len(result.Text), startedAt, upstreamErr)
		return nil, upstreamErr
	}
	c.traceRequestDone(method, rawURL, result.Status, len(result.Text), startedAt, nil)

	return decodeResponsePayload(method, rawURL, result.Status, []byte(result.Text))
}

func (c *Client) doJSONRequest(
	ctx context.Context,
	method string,
	rawURL string,
	body any,
	headers map[string]string,
) (map[string]any, error) {
	var bodyReader io.Reader
	bodyBytes := 0
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request body: %w", err)
		}
		bodyBytes = len(payload)
		bodyReader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, rawURL, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	startedAt := time.Now()
	c.traceRequestStart(method, rawURL, bodyBytes)

	res, err := c.httpClient.Do(req)
	if err != nil {
		upstreamErr := &UpstreamRequestError{Method: method, URL: rawURL, Cause: err}
		c.traceRequestDone(method, rawURL, 0, 0, startedAt, upstreamErr)
		return nil, upstreamErr
	}
	defer func() {
		_ = res.Body.Close()
	}()

	rawResponse, err := io.ReadAll(res.Body)
	if err != nil {
		upstreamErr := &UpstreamRequestError{
			Method:     method,
			URL:        rawURL,
			StatusCode: res.StatusCode,
			Cause:      fmt.Errorf("read response body: %w", err),
		}
		c.traceRequestDone(method, rawURL, res.StatusCode, 0, startedAt, upstreamErr)
		return nil, upstreamErr
	}

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		upstreamErr := &UpstreamRequestError{
			Method:     method,
			URL:        rawURL,
			StatusCode: res.StatusCode,
			Body:       string(rawResponse),
		}
		c.traceRequestDone(method, rawURL, res.StatusCode, len(rawResponse), startedAt, upstreamErr)
		return nil, upstreamErr
	}

	c.traceRequestDone(method, rawURL, res.StatusCode, len(rawResponse), startedAt, nil)
	return decodeResponsePayload(method, rawURL, res.StatusCode, rawResponse)
}

func decodeResponsePayload(method string, rawURL string, statusCode int, rawResponse []byte) (map[string]any, error) {
	if len(rawResponse) == 0 {
		return map[string]any{}, nil
	}
	var payload map[string]any
	if err := json.Unmarshal(rawResponse, &payload); err != nil {
		return nil, &UpstreamRequestError{
			Method:     method,
			URL:        rawURL,
			StatusCode: statusCode,
			Body:       string(rawResponse),
			Cause:      fmt.Errorf("decode response body: %w", err),
		}
	}
	return payload, nil
}

func (c *Client) traceRequestStart(method, rawURL string, bodyBytes int) {
	if bodyBytes > 0 {
		c.tracef("[http] -> %s %s body_bytes=%d", method, rawURL, bodyBytes)
		return
	}
	c.tracef("[http] -> %s %s", method, rawURL)
}

func (c *Client) traceRequestDone(method, rawURL string, statusCode int, responseBytes int, startedAt time.Time, reqErr error) {
	duration := time.Since(startedAt).Round(time.Millisecond)
	if reqErr != nil {
		c.tracef("[http] <- %s %s error=%v duration=%s", method, rawURL, reqErr, duration)
		return
	}
	c.tracef("[http] <- %s %s status=%d duration=%s bytes=%d", method, rawURL, statusCode, duration, responseBytes)
}

func (c *Client) tracef(format string, args ...any) {
	c.verboseOutputM.RLock()
	out := c.verboseOutput
	c.verboseOutputM.RUnlock()
	if out == nil {
		return
	}
	_, _ = fmt.Fprintf(out, format+"\n", args...)
}

// SearchRestaurants queries the search endpoint and walks the returned feed
// cards into restaurants. Exclusions are applied inline during the walk, so
// the result can be shorter than limit even when more raw matches exist.
func (c *Client) SearchRestaurants(
	ctx context.Context,
	sess *Session,
	query string,
	limit int,
	opts SearchOptions,
) ([]domain.Restaurant, error) {
	if limit <= 0 {
		limit = defaultSearchResultLimit
	}
	size := limit
	if size < minSearchRequestSize {
		size = minSearchRequestSize
	}
	term := strings.TrimSpace(query)
	if term == "" {
		term = "a"
	}

	params := url.Values{}
	params.Set("alias", searchAlias)
	params.Set("latitude", formatCoordinate(sess.Latitude))
	params.Set("longitude", formatCoordinate(sess.Longitude))
	params.Set("channel", searchChannel)
	params.Set("size", strconv.Itoa(size))
	params.Set("term", term)

	payload, err := c.fetch(
		ctx,
		sess,
		opts.Page,
		http.MethodPost,
		c.endpoints.Search+"?"+params.Encode(),
		map[string]string{"content-type": "application/json"},
		discoveryPostBody,
	)
	if err != nil {
		return nil, err
	}

	results := make([]domain.Restaurant, 0, limit)
	seen := map[string]struct{}{}

	for _, card := range feedCards(payload) {
		for _, entry := range cardContents(card) {
			name := payloadString(entry, "name")
			action, _ := entry["action"].(string)
			if name == "" || action == "" {
				continue
			}
			parsed := ParseMerchantAction(action)
			if parsed == nil {
				continue
			}
			id := parsed.ID
			if id == "" {
				id = payloadString(entry, "id")
			}
			if id == "" {
				continue
			}
			if _, ok := seen[id]; ok {
				continue
			}

			info := payloadString(entry, "mainCategory")
			if info == "" {
				info = payloadString(asMap(entry["contextMessage"]), "message")
			}
			restaurant := domain.Restaurant{
				ID:   id,
				Slug: parsed.Slug,
				Name: name,
				URL:  MerchantURL(parsed.Slug, id),
				Info: info,
			}

			if len(opts.Exclude) > 0 && ShouldExcludeRestaurant(restaurant, opts.Exclude) {
				continue
			}

			results = append(results, restaurant)
			seen[id] = struct{}{}
			if len(results) >= limit {
				return results, nil
			}
		}
	}

	return results, nil
}

// Catalog fetches a merchant catalog. With a page and the merchant's public
// URL it navigates there and harvests the catalog response emitted by the
// page load, merging that request's headers into the session. The direct
// GET path only works after one page-load fetch populated the access keys.
func (c *Client) Catalog(ctx context.Context, sess *Session, merchantID string, opts CatalogOptions) (map[string]any, error) {
	catalogPath := "/v1/bm/merchants/" + merchantID + "/catalog"

	if opts.Page != nil && opts.URL != "" {
		observed, err := opts.Page.AwaitResponse(ctx, catalogPath, func(ctx context.Context) error {
			return opts.Page.Navigate(ctx, opts.URL)
		})
		if err != nil {
			return nil, err
		}
		sess.Headers = MergeHeaders(sess.Headers, observed.RequestHeaders)
		return decodeResponsePayload(http.MethodGet, opts.URL, 0, observed.Body)
	}

	if sess.Headers["access_key"] == "" || sess.Headers["secret_key"] == "" {
		return nil, ErrMissingAccessKeys
	}

	params := url.Values{}
	params.Set("latitude", formatCoordinate(sess.Latitude))
	params.Set("longitude", formatCoordinate(sess.Longitude))
	rawURL := c.endpoints.Catalog + merchantID + "/catalog?" + params.Encode()
	return c.fetch(ctx, sess, nil, http.MethodGet, rawURL, nil, nil)
}

// CategoryPage fetches one category feed page.
func (c *Client) CategoryPage(ctx context.Context, sess *Session, categoryID string) (map[string]any, error) {
	params := url.Values{}
	params.Set("latitude", formatCoordinate(sess.Latitude))
	params.Set("longitude", formatCoordinate(sess.Longitude))
	params.Set("channel", searchChannel)
	rawURL := c.endpoints.CategoryPage + categoryID + "?" + params.Encode()
	return c.fetch(
		ctx,
		sess,
		nil,
		http.MethodPost,
		rawURL,
		map[string]string{"content-type": "application/json"},
		discoveryPostBody,
	)
}

// HomeFeed reloads the home page and harvests the feed response the reload
// emits, merging that request's headers into the session.
func (c *Client) HomeFeed(ctx context.Context, sess *Session, page Page) (map[string]any, error) {
	if err := c.EnsureHome(ctx, page); err != nil {
		return nil, err
	}
	observed, err := page.AwaitResponse(ctx, homeFeedPathFragment, func(ctx context.Context) error {
		// Reload failures are tolerated; the feed request often fires anyway.
		_ = page.Reload(ctx)
		return nil
	})
	if err != nil {
		return nil, err
	}
	sess.Headers = MergeHeaders(sess.Headers, observed.RequestHeaders)
	return decodeResponsePayload(http.MethodGet, homeFeedPathFragment, 0, observed.Body)
}

// CreateCart posts a cart with the session's address and account contact
// info and a fixed deliver-now block. The raw upstream response is returned;
// use CartID for best-effort id extraction.
func (c *Client) CreateCart(
	ctx context.Context,
	sess *Session,
	merchant CartMerchant,
	items []CartItem,
	page Page,
) (map[string]any, error) {
	payload := map[string]any{
		"merchant": merchant,
		"address":  sess.Address,
		"items":    items,
		"delivery": map[string]any{
			"id":         "DEFAULT",
			"now":        true,
			"deliveryBy": "MERCHANT",
		},
		"account": sess.Account,
	}
	return c.fetch(
		ctx,
		sess,
		page,
		http.MethodPost,
		c.endpoints.Carts,
		map[string]string{"content-type": "application/json"},
		payload,
	)
}
