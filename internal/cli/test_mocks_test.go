package cli

import (
	"context"
	"time"

	"github.com/mekedron/clifood/internal/config"
	"github.com/mekedron/clifood/internal/domain"
	"github.com/mekedron/clifood/internal/gateway/ifood"
)

type stubPage struct {
	url         string
	navigations []string
	reloads     int
}

func (p *stubPage) URL(_ context.Context) (string, error) {
	return p.url, nil
}

func (p *stubPage) Navigate(_ context.Context, rawURL string) error {
	p.navigations = append(p.navigations, rawURL)
	p.url = rawURL
	return nil
}

func (p *stubPage) Reload(_ context.Context) error {
	p.reloads++
	return nil
}

func (p *stubPage) Evaluate(_ context.Context, _ string, _ any) error {
	return nil
}

func (p *stubPage) CaptureRequest(
	_ context.Context,
	_ func(rawURL string, headers map[string]string) bool,
	_ time.Duration,
	_ func(ctx context.Context) error,
) (map[string]string, error) {
	return map[string]string{}, nil
}

func (p *stubPage) AwaitResponse(
	_ context.Context,
	_ string,
	_ func(ctx context.Context) error,
) (*ifood.ObservedResponse, error) {
	return &ifood.ObservedResponse{}, nil
}

type stubBrowserSession struct {
	page   *stubPage
	closed bool
}

func (s *stubBrowserSession) Page() ifood.Page {
	return s.page
}

func (s *stubBrowserSession) Close() {
	s.closed = true
}

type fakeAPI struct {
	session    *ifood.Session
	sessionErr error

	searchQueries []string
	searchLimits  []int
	searchOpts    []ifood.SearchOptions
	searchResults []domain.Restaurant
	searchErr     error

	catalogMerchants []string
	catalogOpts      []ifood.CatalogOptions
	catalogResult    map[string]any
	catalogErr       error

	topLimit    int
	topExcludes []string
	topResults  []domain.Restaurant
	topErr      error

	createdMerchant ifood.CartMerchant
	createdItems    []ifood.CartItem
	cartResponse    map[string]any
	cartErr         error

	homeCalls     int
	cartOpens     int
	checkoutOpens int
	finalizeCalls int
	finalizeErr   error
}

func (f *fakeAPI) ResolveSession(_ context.Context, _ ifood.Page) (*ifood.Session, error) {
	if f.sessionErr != nil {
		return nil, f.sessionErr
	}
	if f.session != nil {
		return f.session, nil
	}
	return &ifood.Session{Headers: ifood.Headers{}}, nil
}

func (f *fakeAPI) SearchRestaurants(
	_ context.Context,
	_ *ifood.Session,
	query string,
	limit int,
	opts ifood.SearchOptions,
) ([]domain.Restaurant, error) {
	f.searchQueries = append(f.searchQueries, query)
	f.searchLimits = append(f.searchLimits, limit)
	f.searchOpts = append(f.searchOpts, opts)
	return f.searchResults, f.searchErr
}

func (f *fakeAPI) Catalog(
	_ context.Context,
	_ *ifood.Session,
	merchantID string,
	opts ifood.CatalogOptions,
) (map[string]any, error) {
	f.catalogMerchants = append(f.catalogMerchants, merchantID)
	f.catalogOpts = append(f.catalogOpts, opts)
	return f.catalogResult, f.catalogErr
}

func (f *fakeAPI) CategoryPage(_ context.Context, _ *ifood.Session, _ string) (map[string]any, error) {
	return map[string]any{}, nil
}

func (f *fakeAPI) HomeFeed(_ context.Context, _ *ifood.Session, _ ifood.Page) (map[string]any, error) {
	return map[string]any{}, nil
}

func (f *fakeAPI) CreateCart(
	_ context.Context,
	_ *ifood.Session,
	merchant ifood.CartMerchant,
	items []ifood.CartItem,
	_ ifood.Page,
) (map[string]any, error) {
	f.createdMerchant = merchant
	f.createdItems = items
	if f.cartResponse != nil {
		return f.cartResponse, f.cartErr
	}
	return map[string]any{}, f.cartErr
}

func (f *fakeAPI) TopRestaurants(
	_ context.Context,
	_ *ifood.Session,
	_ ifood.Page,
	limit int,
	excludeTerms []string,
) ([]domain.Restaurant, error) {
	f.topLimit = limit
	f.topExcludes = excludeTerms
	return f.topResults, f.topErr
}

func (f *fakeAPI) EnsureHome(_ context.Context, _ ifood.Page) error {
	f.homeCalls++
	return nil
}

func (f *fakeAPI) OpenCart(_ context.Context, _ ifood.Page) error {
	f.cartOpens++
	return nil
}

func (f *fakeAPI) OpenCheckout(_ context.Context, _ ifood.Page) error {
	f.checkoutOpens++
	return nil
}

func (f *fakeAPI) FinalizeOrder(_ context.Context, _ ifood.Page) error {
	f.finalizeCalls++
	return f.finalizeErr
}

type fakeConfigStore struct {
	cfg     domain.Config
	saved   *domain.Config
	loadErr error
	saveErr error
}

func (f *fakeConfigStore) Path() string {
	return "/tmp/clifood-test/config.json"
}

func (f *fakeConfigStore) Load(_ context.Context) (domain.Config, error) {
	if f.loadErr != nil {
		return domain.Config{}, f.loadErr
	}
	if f.cfg == (domain.Config{}) {
		return config.Defaults(), nil
	}
	return f.cfg, nil
}

func (f *fakeConfigStore) Save(_ context.Context, cfg domain.Config) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.saved = &cfg
	f.cfg = cfg
	return nil
}

type testHarness struct {
	api     *fakeAPI
	browser *stubBrowserSession
	store   *fakeConfigStore
	opened  []domain.Config
}

func newTestHarness() *testHarness {
	return &testHarness{
		api:     &fakeAPI{},
		browser: &stubBrowserSession{page: &stubPage{url: "https://www.ifood.com.br/inicio"}},
		store:   &fakeConfigStore{},
	}
}

func (h *testHarness) deps() Dependencies {
	return Dependencies{
		IFood: h.api,
		OpenSession: func(_ context.Context, cfg domain.Config) (BrowserSession, error) {
			h.opened = append(h.opened, cfg)
			return h.browser, nil
		},
		Config:  h.store,
		Version: "test",
	}
}
