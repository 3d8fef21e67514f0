package ifood

import (
	"context"
	"time"

	"github.com/mekedron/clifood/internal/domain"
)

// Coordinates is a delivery point.
type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Address is the delivery address read from in-page application state.
type Address struct {
	ID           string      `json:"id"`
	StreetName   string      `json:"streetName"`
	StreetNumber string      `json:"streetNumber"`
	Neighborhood string      `json:"neighborhood"`
	Complement   string      `json:"complement,omitempty"`
	Reference    string      `json:"reference,omitempty"`
	State        string      `json:"state"`
	City         string      `json:"city"`
	Country      string      `json:"country"`
	ZipCode      string      `json:"zipCode"`
	Coordinates  Coordinates `json:"coordinates"`
}

// Phone is the account contact number.
type Phone struct {
	CountryCode int    `json:"countryCode"`
	AreaCode    int    `json:"areaCode"`
	Number      string `json:"number"`
}

// Account is the logged-in account read from in-page application state.
type Account struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone Phone  `json:"phone"`
}

// Session is the credential bundle for one CLI invocation: allow-listed
// headers captured from a live browser request plus account and address
// state. Address and account are immutable for the session; Headers is
// reassigned through MergeHeaders as later requests are observed.
type Session struct {
	Headers   Headers
	Address   Address
	Account   Account
	Latitude  float64
	Longitude float64
}

// ObservedResponse is a network response intercepted from the page together
// with the headers its request carried.
type ObservedResponse struct {
	Body           []byte
	RequestHeaders map[string]string
}

// Page is a live browser tab. The gateway uses it to harvest session
// material and, when supplied per call, to proxy API requests through the
// page's own fetch so cookie-based anti-bot checks are inherited.
type Page interface {
	URL(ctx context.Context) (string, error)
	Navigate(ctx context.Context, rawURL string) error
	Reload(ctx context.Context) error
	// Evaluate runs a JavaScript expression in the page, awaiting promises,
	// and decodes the JSON result into out.
	Evaluate(ctx context.Context, expression string, out any) error
	// CaptureRequest runs trigger and resolves with the headers of the first
	// outgoing request accepted by match, or ErrCaptureTimeout.
	CaptureRequest(
		ctx context.Context,
		match func(rawURL string, headers map[string]string) bool,
		timeout time.Duration,
		trigger func(ctx context.Context) error,
	) (map[string]string, error)
	// AwaitResponse runs trigger and resolves with the first response whose
	// URL contains urlFragment.
	AwaitResponse(ctx context.Context, urlFragment string, trigger func(ctx context.Context) error) (*ObservedResponse, error)
}

// SearchOptions controls restaurant search calls.
type SearchOptions struct {
	Exclude []string
	Page    Page
}

// CatalogOptions controls catalog fetch calls. When both Page and URL are
// set the catalog is harvested from a page load instead of a direct GET.
type CatalogOptions struct {
	Page Page
	URL  string
}

// CartMerchant identifies the merchant a cart is created for.
type CartMerchant struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// API describes all iFood upstream operations used by the CLI.
type API interface {
	ResolveSession(ctx context.Context, page Page) (*Session, error)
	SearchRestaurants(ctx context.Context, sess *Session, query string, limit int, opts SearchOptions) ([]domain.Restaurant, error)
	Catalog(ctx context.Context, sess *Session, merchantID string, opts CatalogOptions) (map[string]any, error)
	CategoryPage(ctx context.Context, sess *Session, categoryID string) (map[string]any, error)
	HomeFeed(ctx context.Context, sess *Session, page Page) (map[string]any, error)
	CreateCart(ctx context.Context, sess *Session, merchant CartMerchant, items []CartItem, page Page) (map[string]any, error)
	TopRestaurants(ctx context.Context, sess *Session, page Page, limit int, excludeTerms []string) ([]domain.Restaurant, error)
	EnsureHome(ctx context.Context, page Page) error
	OpenCart(ctx context.Context, page Page) error
	OpenCheckout(ctx context.Context, page Page) error
	FinalizeOrder(ctx context.Context, page Page) error
}
