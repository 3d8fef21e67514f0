package integration_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	ifoodgateway "github.com/mekedron/clifood/internal/gateway/ifood"
)

type staticHTTPClient struct {
	routes map[string][]byte
}

func (c *staticHTTPClient) Do(req *http.Request) (*http.Response, error) {
	payload := c.routes[req.URL.Path]
	if payload == nil {
		payload = []byte(`{"error":"not found"}`)
		return &http.Response{
			StatusCode: 404,
			Body:       io.NopCloser(bytes.NewReader(payload)),
			Header:     make(http.Header),
			Request:    req,
		}, nil
	}
	statusCode := 200
	if strings.Contains(req.URL.Path, "error") {
		statusCode = 500
	}
	return &http.Response{
		StatusCode: statusCode,
		Body:       io.NopCloser(bytes.NewReader(payload)),
		Header:     make(http.Header),
		Request:    req,
	}, nil
}

func readFixture(t *testing.T, filename string) []byte {
	t.Helper()
	path := filepath.Join("testdata", "ifood", filename)
	bytes, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read fixture %s: %v", filename, err)
	}
	return bytes
}

func newTestClient(routes map[string][]byte) *ifoodgateway.Client {
	return ifoodgateway.NewClient(
		ifoodgateway.WithHTTPClient(&staticHTTPClient{routes: routes}),
		ifoodgateway.WithEndpoints(ifoodgateway.Endpoints{
			Search:       "https://example.test/v2/cardstack/search/results",
			Catalog:      "https://example.test/v1/bm/merchants/",
			CategoryPage: "https://example.test/v1/bm/page/",
			Carts:        "https://example.test/v1/carts",
			HomePage:     "https://example.test/unused/inicio",
			Restaurants:  "https://example.test/unused/restaurantes",
			CartPage:     "https://example.test/unused/carrinho",
			CheckoutPage: "https://example.test/unused/checkout",
		}),
	)
}

func authedSession() *ifoodgateway.Session {
	return &ifoodgateway.Session{
		Headers: ifoodgateway.Headers{
			"authorization":      "Bearer integration-token",
			"x-ifood-session-id": "session-1",
			"access_key":         "ak-1",
			"secret_key":         "sk-1",
		},
		Latitude:  -23.55,
		Longitude: -46.63,
	}
}

func TestSearchRestaurantsWithStaticResponse(t *testing.T) {
	searchJSON := readFixture(t, "search.json")
	client := newTestClient(map[string][]byte{"/v2/cardstack/search/results": searchJSON})

	restaurants, err := client.SearchRestaurants(context.Background(), authedSession(), "marmita", 10, ifoodgateway.SearchOptions{})
	if err != nil {
		t.Fatalf("search returned error: %v", err)
	}
	if len(restaurants) != 3 {
		t.Fatalf("expected 3 deduplicated restaurants, got %d", len(restaurants))
	}
	if restaurants[0].Name != "Cantina da Nona" || restaurants[0].Info != "Italiana" {
		t.Fatalf("unexpected first restaurant: %+v", restaurants[0])
	}
	if restaurants[1].Info != "Japonesa" {
		t.Fatalf("expected category fallback from context message, got %+v", restaurants[1])
	}
	if restaurants[2].URL != "https://www.ifood.com.br/delivery/sao-paulo/marmitaria-da-vila/aaaaaaaa-bbbb-cccc-dddd-eeeeeeeeeeee" {
		t.Fatalf("unexpected merchant url: %q", restaurants[2].URL)
	}
}

func TestSearchRestaurantsAppliesExcludeTerms(t *testing.T) {
	searchJSON := readFixture(t, "search.json")
	client := newTestClient(map[string][]byte{"/v2/cardstack/search/results": searchJSON})

	restaurants, err := client.SearchRestaurants(context.Background(), authedSession(), "marmita", 10, ifoodgateway.SearchOptions{
		Exclude: []string{"sushi", "cantina"},
	})
	if err != nil {
		t.Fatalf("search returned error: %v", err)
	}
	if len(restaurants) != 1 {
		t.Fatalf("expected 1 restaurant after exclusion, got %d", len(restaurants))
	}
	if restaurants[0].Name != "Marmitaria da Vila" {
		t.Fatalf("unexpected survivor: %+v", restaurants[0])
	}
}

func TestCatalogDirectWithStaticResponse(t *testing.T) {
	catalogJSON := readFixture(t, "catalog.json")
	merchantID := "11111111-2222-3333-4444-555555555555"
	client := newTestClient(map[string][]byte{"/v1/bm/merchants/" + merchantID + "/catalog": catalogJSON})

	catalog, err := client.Catalog(context.Background(), authedSession(), merchantID, ifoodgateway.CatalogOptions{})
	if err != nil {
		t.Fatalf("catalog returned error: %v", err)
	}

	items := ifoodgateway.ExtractMenuItems(catalog, "", 0)
	if len(items) != 3 {
		t.Fatalf("expected 3 menu items, got %d", len(items))
	}
	if items[0].Name != "Marmita de Frango Grelhado" || items[0].Section != "Marmitas" {
		t.Fatalf("unexpected first item: %+v", items[0])
	}
	if items[0].PriceText != "R$ 25.9" {
		t.Fatalf("unexpected price text: %q", items[0].PriceText)
	}
}

func TestCatalogDirectWithoutAccessKeys(t *testing.T) {
	client := newTestClient(map[string][]byte{})
	sess := authedSession()
	delete(sess.Headers, "access_key")

	_, err := client.Catalog(context.Background(), sess, "merchant-1", ifoodgateway.CatalogOptions{})
	if !errors.Is(err, ifoodgateway.ErrMissingAccessKeys) {
		t.Fatalf("expected missing access keys error, got %v", err)
	}
}

func TestCreateCartWithStaticResponse(t *testing.T) {
	cartJSON := readFixture(t, "cart.json")
	client := newTestClient(map[string][]byte{"/v1/carts": cartJSON})

	response, err := client.CreateCart(
		context.Background(),
		authedSession(),
		ifoodgateway.CartMerchant{ID: "merchant-1", Name: "Cantina da Nona"},
		[]ifoodgateway.CartItem{{ID: "item-1", Quantity: 2}},
		nil,
	)
	if err != nil {
		t.Fatalf("create cart returned error: %v", err)
	}
	if got := ifoodgateway.CartID(response); got != "cart-77" {
		t.Fatalf("expected cart id cart-77, got %q", got)
	}
}

func TestUnknownRouteMapsToUpstreamError(t *testing.T) {
	client := newTestClient(map[string][]byte{})

	_, err := client.SearchRestaurants(context.Background(), authedSession(), "marmita", 10, ifoodgateway.SearchOptions{})
	if !errors.Is(err, ifoodgateway.ErrUpstream) {
		t.Fatalf("expected upstream error, got %v", err)
	}
	var upstreamErr *ifoodgateway.UpstreamRequestError
	if !errors.As(err, &upstreamErr) {
		t.Fatalf("expected upstream request error, got %v", err)
	}
	if upstreamErr.StatusCode != 404 {
		t.Fatalf("expected status 404, got %d", upstreamErr.StatusCode)
	}
}
