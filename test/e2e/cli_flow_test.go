package e2e_test

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/mekedron/clifood/internal/cli"
	"github.com/mekedron/clifood/internal/domain"
	ifoodgateway "github.com/mekedron/clifood/internal/gateway/ifood"
)

type recordingConfig struct {
	loadCfg domain.Config
	loadErr error
	saved   *domain.Config
}

func (r *recordingConfig) Path() string {
	return "/tmp/test-config.json"
}

func (r *recordingConfig) Load(context.Context) (domain.Config, error) {
	if r.loadErr != nil {
		return domain.Config{}, r.loadErr
	}
	return r.loadCfg, nil
}

func (r *recordingConfig) Save(_ context.Context, cfg domain.Config) error {
	copyCfg := cfg
	r.saved = &copyCfg
	return nil
}

type scriptedPage struct {
	url string
}

func (p *scriptedPage) URL(context.Context) (string, error) {
	return p.url, nil
}

func (p *scriptedPage) Navigate(_ context.Context, rawURL string) error {
	p.url = rawURL
	return nil
}

func (p *scriptedPage) Reload(context.Context) error {
	return nil
}

func (p *scriptedPage) Evaluate(_ context.Context, _ string, out any) error {
	if out == nil {
		return nil
	}
	return json.Unmarshal([]byte("null"), out)
}

func (p *scriptedPage) CaptureRequest(
	_ context.Context,
	_ func(rawURL string, headers map[string]string) bool,
	_ time.Duration,
	_ func(ctx context.Context) error,
) (map[string]string, error) {
	return map[string]string{}, nil
}

func (p *scriptedPage) AwaitResponse(
	_ context.Context,
	_ string,
	_ func(ctx context.Context) error,
) (*ifoodgateway.ObservedResponse, error) {
	return &ifoodgateway.ObservedResponse{Body: []byte("{}")}, nil
}

type scriptedSession struct {
	page   *scriptedPage
	closed bool
}

func (s *scriptedSession) Page() ifoodgateway.Page {
	return s.page
}

func (s *scriptedSession) Close() {
	s.closed = true
}

type scriptedAPI struct {
	restaurants []domain.Restaurant
	catalog     map[string]any
	cart        map[string]any

	cartItems     []ifoodgateway.CartItem
	finalizeCalls int
}

func (a *scriptedAPI) ResolveSession(context.Context, ifoodgateway.Page) (*ifoodgateway.Session, error) {
	return &ifoodgateway.Session{
		Headers: ifoodgateway.Headers{"authorization": "Bearer e2e"},
		Account: ifoodgateway.Account{ID: "acc-1", Name: "Tester"},
	}, nil
}

func (a *scriptedAPI) SearchRestaurants(
	_ context.Context,
	_ *ifoodgateway.Session,
	_ string,
	limit int,
	_ ifoodgateway.SearchOptions,
) ([]domain.Restaurant, error) {
	if limit > 0 && limit < len(a.restaurants) {
		return a.restaurants[:limit], nil
	}
	return a.restaurants, nil
}

func (a *scriptedAPI) Catalog(
	context.Context,
	*ifoodgateway.Session,
	string,
	ifoodgateway.CatalogOptions,
) (map[string]any, error) {
	return a.catalog, nil
}

func (a *scriptedAPI) CategoryPage(context.Context, *ifoodgateway.Session, string) (map[string]any, error) {
	return map[string]any{}, nil
}

func (a *scriptedAPI) HomeFeed(context.Context, *ifoodgateway.Session, ifoodgateway.Page) (map[string]any, error) {
	return map[string]any{}, nil
}

func (a *scriptedAPI) CreateCart(
	_ context.Context,
	_ *ifoodgateway.Session,
	_ ifoodgateway.CartMerchant,
	items []ifoodgateway.CartItem,
	_ ifoodgateway.Page,
) (map[string]any, error) {
	a.cartItems = items
	return a.cart, nil
}

func (a *scriptedAPI) TopRestaurants(
	context.Context,
	*ifoodgateway.Session,
	ifoodgateway.Page,
	int,
	[]string,
) ([]domain.Restaurant, error) {
	return a.restaurants, nil
}

func (a *scriptedAPI) EnsureHome(context.Context, ifoodgateway.Page) error {
	return nil
}

func (a *scriptedAPI) OpenCart(context.Context, ifoodgateway.Page) error {
	return nil
}

func (a *scriptedAPI) OpenCheckout(context.Context, ifoodgateway.Page) error {
	return nil
}

func (a *scriptedAPI) FinalizeOrder(context.Context, ifoodgateway.Page) error {
	a.finalizeCalls++
	return nil
}

func scriptedDeps(api *scriptedAPI, store *recordingConfig) (cli.Dependencies, *scriptedSession) {
	session := &scriptedSession{page: &scriptedPage{url: "https://www.ifood.com.br/inicio"}}
	return cli.Dependencies{
		IFood: api,
		OpenSession: func(context.Context, domain.Config) (cli.BrowserSession, error) {
			return session, nil
		},
		Config:  store,
		Version: "e2e",
	}, session
}

func catalogPayload() map[string]any {
	return map[string]any{
		"data": map[string]any{
			"menu": []any{
				map[string]any{
					"name": "Marmitas",
					"itens": []any{
						map[string]any{"id": "item-1", "description": "Marmita de Frango", "unitPrice": 25.9},
						map[string]any{"id": "item-2", "description": "Marmita Vegetariana", "unitPrice": 23.5},
					},
				},
			},
		},
	}
}

func TestRestaurantsToOrderFlow(t *testing.T) {
	api := &scriptedAPI{
		restaurants: []domain.Restaurant{
			{ID: "m-1", Slug: "sp/cantina", Name: "Cantina da Nona", URL: "https://www.ifood.com.br/delivery/sp/cantina/m-1", Info: "Italiana"},
		},
		catalog: catalogPayload(),
		cart:    map[string]any{"cartResponse": map[string]any{"id": "cart-9"}},
	}
	store := &recordingConfig{loadCfg: domain.Config{Locale: "pt-BR", TimeoutMs: 30000}}

	deps, session := scriptedDeps(api, store)
	stdout := &bytes.Buffer{}
	code := cli.Execute(context.Background(), []string{"restaurants", "-q", "cantina"}, deps, stdout, &bytes.Buffer{})
	if code != 0 {
		t.Fatalf("restaurants exited %d:\n%s", code, stdout.String())
	}
	if !strings.Contains(stdout.String(), "1. Cantina da Nona (Italiana)") {
		t.Fatalf("unexpected restaurants output:\n%s", stdout.String())
	}
	if !session.closed {
		t.Fatal("expected browser session to be closed after restaurants")
	}

	deps, _ = scriptedDeps(api, store)
	stdout.Reset()
	code = cli.Execute(context.Background(), []string{"items", "-r", "cantina"}, deps, stdout, &bytes.Buffer{})
	if code != 0 {
		t.Fatalf("items exited %d:\n%s", code, stdout.String())
	}
	if !strings.Contains(stdout.String(), "Marmita de Frango - R$ 25.9 [Marmitas]") {
		t.Fatalf("unexpected items output:\n%s", stdout.String())
	}

	deps, _ = scriptedDeps(api, store)
	stdout.Reset()
	code = cli.Execute(context.Background(), []string{"order", "-r", "cantina", "-i", "marmita vegetariana x3"}, deps, stdout, &bytes.Buffer{})
	if code != 0 {
		t.Fatalf("order exited %d:\n%s", code, stdout.String())
	}
	if len(api.cartItems) != 1 || api.cartItems[0].ID != "item-2" || api.cartItems[0].Quantity != 3 {
		t.Fatalf("unexpected cart items: %+v", api.cartItems)
	}
	if api.finalizeCalls != 0 {
		t.Fatalf("expected no confirmation without --confirm, got %d", api.finalizeCalls)
	}
	if !strings.Contains(stdout.String(), "Cart id: cart-9") {
		t.Fatalf("unexpected order output:\n%s", stdout.String())
	}
}

func TestRestaurantsJSONOutput(t *testing.T) {
	api := &scriptedAPI{
		restaurants: []domain.Restaurant{
			{ID: "m-1", Name: "Cantina da Nona", URL: "https://www.ifood.com.br/delivery/sp/cantina/m-1"},
		},
	}
	deps, _ := scriptedDeps(api, &recordingConfig{})

	stdout := &bytes.Buffer{}
	code := cli.Execute(context.Background(), []string{"restaurants", "-q", "cantina", "--format", "json"}, deps, stdout, &bytes.Buffer{})
	if code != 0 {
		t.Fatalf("restaurants exited %d:\n%s", code, stdout.String())
	}

	var decoded []map[string]any
	if err := json.Unmarshal(stdout.Bytes(), &decoded); err != nil {
		t.Fatalf("decode json output: %v\n%s", err, stdout.String())
	}
	if len(decoded) != 1 || decoded[0]["name"] != "Cantina da Nona" {
		t.Fatalf("unexpected decoded payload: %+v", decoded)
	}
}

func TestConfigSetRoundTrip(t *testing.T) {
	store := &recordingConfig{loadCfg: domain.Config{Locale: "pt-BR"}}
	deps, _ := scriptedDeps(&scriptedAPI{}, store)

	stdout := &bytes.Buffer{}
	code := cli.Execute(context.Background(), []string{"config", "set", "headless", "true"}, deps, stdout, &bytes.Buffer{})
	if code != 0 {
		t.Fatalf("config set exited %d:\n%s", code, stdout.String())
	}
	if store.saved == nil || !store.saved.Headless {
		t.Fatalf("expected headless to be saved, got %+v", store.saved)
	}
	if store.saved.Locale != "pt-BR" {
		t.Fatalf("expected existing locale to survive, got %q", store.saved.Locale)
	}
}

func TestOrderWithConfirm(t *testing.T) {
	api := &scriptedAPI{
		restaurants: []domain.Restaurant{
			{ID: "m-1", Name: "Cantina da Nona", URL: "https://www.ifood.com.br/delivery/sp/cantina/m-1"},
		},
		catalog: catalogPayload(),
		cart:    map[string]any{},
	}
	deps, _ := scriptedDeps(api, &recordingConfig{})

	stdout := &bytes.Buffer{}
	code := cli.Execute(context.Background(), []string{"order", "-r", "cantina", "-i", "marmita de frango", "--confirm"}, deps, stdout, &bytes.Buffer{})
	if code != 0 {
		t.Fatalf("order exited %d:\n%s", code, stdout.String())
	}
	if api.finalizeCalls != 1 {
		t.Fatalf("expected one confirmation, got %d", api.finalizeCalls)
	}
	if !strings.Contains(stdout.String(), "Order confirmed.") {
		t.Fatalf("unexpected order output:\n%s", stdout.String())
	}
}
