package ifood

import (
	"context"
	"fmt"
	"strings"
)

// reduxStateExpression reads the slices of the web app's redux store the
// session needs. The store handle is an internal of the iFood web client
// and is the only place address and account state are exposed to scripts.
const reduxStateExpression = `(() => {
	const store = window.__NEXT_REDUX_STORE__;
	if (!store || typeof store.getState !== "function") {
		return { address: null, account: null };
	}
	const state = store.getState() || {};
	return {
		address: (state.address && state.address.address) || state.address || null,
		account: (state.user && state.user.account) || state.account || null,
	};
})()`

type sessionState struct {
	Address map[string]any `json:"address"`
	Account map[string]any `json:"account"`
}

func stateFloat(payload map[string]any, keys ...string) float64 {
	value, _ := payloadFloat(payload, keys...)
	return value
}

func addressFromState(raw map[string]any) Address {
	location := asMap(raw["location"])
	coordinates := asMap(raw["coordinates"])

	addr := Address{
		ID:           payloadScalar(raw, "id", "addressId"),
		StreetName:   payloadString(raw, "streetName", "street", "address"),
		StreetNumber: payloadScalar(raw, "streetNumber", "number"),
		Neighborhood: payloadString(raw, "neighborhood", "district"),
		Complement:   payloadString(raw, "complement"),
		Reference:    payloadString(raw, "reference"),
		State:        payloadString(raw, "state"),
		City:         payloadString(raw, "city"),
		Country:      payloadString(raw, "country"),
		ZipCode:      payloadScalar(raw, "zipCode", "postalCode", "zip_code"),
	}
	if addr.StreetName == "" {
		addr.StreetName = payloadString(location, "address", "street")
	}
	if addr.Neighborhood == "" {
		addr.Neighborhood = payloadString(location, "district", "neighborhood")
	}
	if addr.City == "" {
		addr.City = payloadString(location, "city")
	}
	if addr.State == "" {
		addr.State = payloadString(location, "state")
	}
	if addr.Country == "" {
		addr.Country = "BR"
	}

	addr.Coordinates = Coordinates{
		Latitude:  stateFloat(raw, "latitude", "lat"),
		Longitude: stateFloat(raw, "longitude", "lng", "lon"),
	}
	if addr.Coordinates.Latitude == 0 && addr.Coordinates.Longitude == 0 {
		addr.Coordinates = Coordinates{
			Latitude:  stateFloat(coordinates, "latitude", "lat"),
			Longitude: stateFloat(coordinates, "longitude", "lng", "lon"),
		}
	}
	if addr.Coordinates.Latitude == 0 && addr.Coordinates.Longitude == 0 {
		addr.Coordinates = Coordinates{
			Latitude:  stateFloat(location, "latitude", "lat"),
			Longitude: stateFloat(location, "longitude", "lng", "lon"),
		}
	}
	return addr
}

func accountFromState(raw map[string]any) Account {
	phone := asMap(raw["phone"])
	if len(phone) == 0 {
		phones := asSlice(raw["phones"])
		if len(phones) > 0 {
			phone = asMap(phones[0])
		}
	}

	countryCode := payloadInt(phone, "country_code", "countryCode")
	if countryCode == 0 {
		countryCode = 55
	}

	return Account{
		ID:    payloadScalar(raw, "id", "uuid", "account_id"),
		Name:  payloadString(raw, "name", "fullName"),
		Email: payloadString(raw, "email"),
		Phone: Phone{
			CountryCode: countryCode,
			AreaCode:    payloadInt(phone, "area_code", "areaCode", "ddd"),
			Number:      payloadScalar(phone, "number", "phoneNumber"),
		},
	}
}

// ResolveSession reads address and account state from the live page and
// captures the marketplace auth headers, producing the credential bundle
// every API call needs. The page must already be on an iFood url with a
// logged-in session.
func (c *Client) ResolveSession(ctx context.Context, page Page) (*Session, error) {
	if err := c.EnsureHome(ctx, page); err != nil {
		return nil, err
	}

	var state sessionState
	if err := page.Evaluate(ctx, reduxStateExpression, &state); err != nil {
		return nil, fmt.Errorf("read application state: %w", err)
	}
	if len(state.Account) == 0 || payloadScalar(state.Account, "id", "uuid", "account_id") == "" {
		return nil, ErrNotLoggedIn
	}
	if len(state.Address) == 0 {
		return nil, ErrNoAddress
	}

	address := addressFromState(state.Address)
	if address.Coordinates.Latitude == 0 && address.Coordinates.Longitude == 0 {
		return nil, ErrNoAddress
	}

	headers, err := c.captureHeaders(ctx, page)
	if err != nil {
		return nil, err
	}

	return &Session{
		Headers:   headers,
		Address:   address,
		Account:   accountFromState(state.Account),
		Latitude:  address.Coordinates.Latitude,
		Longitude: address.Coordinates.Longitude,
	}, nil
}

// isSessionRequest accepts the first marketplace request that carries both
// the bearer token and the session id. Page loads fire several marketplace
// calls; only the authenticated ones are usable as a header template.
func isSessionRequest(rawURL string, headers map[string]string) bool {
	if !strings.Contains(rawURL, marketplaceHost) {
		return false
	}
	hasAuth := false
	hasSessionID := false
	for key := range headers {
		switch strings.ToLower(key) {
		case "authorization":
			hasAuth = true
		case "x-ifood-session-id":
			hasSessionID = true
		}
	}
	return hasAuth && hasSessionID
}

func (c *Client) captureHeaders(ctx context.Context, page Page) (Headers, error) {
	observed, err := page.CaptureRequest(ctx, isSessionRequest, c.captureTimeout, func(ctx context.Context) error {
		// The restaurants listing reliably fires authenticated marketplace
		// calls. Navigation errors are swallowed: the interesting request may
		// already be in flight from the current page.
		if err := page.Navigate(ctx, c.endpoints.Restaurants); err != nil {
			_ = page.Reload(ctx)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return PickHeaders(observed), nil
}
