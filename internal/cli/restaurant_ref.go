package cli

import (
	"context"
	"regexp"
	"strings"

	"github.com/mekedron/clifood/internal/domain"
	"github.com/mekedron/clifood/internal/gateway/ifood"
)

// resolveSearchLimit is how many search hits a query-style --restaurant
// reference fetches; the best name match among them wins.
const resolveSearchLimit = 10

// deliveryURLPattern matches public merchant pages. The trailing path
// segment is the merchant uuid; everything between /delivery/ and the uuid
// is the slug, which itself contains slashes (city prefix).
var deliveryURLPattern = regexp.MustCompile(`^https?://(?:www\.)?ifood\.com\.br/delivery/(.+)/([0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12})/?$`)

func parseRestaurantURL(ref string) (domain.Restaurant, bool) {
	matches := deliveryURLPattern.FindStringSubmatch(ref)
	if len(matches) != 3 {
		return domain.Restaurant{}, false
	}
	slug, id := matches[1], matches[2]
	return domain.Restaurant{
		ID:   id,
		Slug: slug,
		// The page is never fetched on this path, so the slug stands in
		// for the display name.
		Name: slug,
		URL:  ifood.MerchantURL(slug, id),
	}, true
}

// resolveRestaurant turns a --restaurant argument into a concrete merchant.
// A public merchant URL is used as-is; anything else is treated as a search
// query and the best match wins.
func resolveRestaurant(
	ctx context.Context,
	deps Dependencies,
	page ifood.Page,
	sess *ifood.Session,
	ref string,
) (domain.Restaurant, error) {
	if restaurant, ok := parseRestaurantURL(ref); ok {
		return restaurant, nil
	}
	restaurants, err := deps.IFood.SearchRestaurants(ctx, sess, ref, resolveSearchLimit, ifood.SearchOptions{Page: page})
	if err != nil {
		return domain.Restaurant{}, err
	}
	if len(restaurants) == 0 {
		return domain.Restaurant{}, ifood.ErrNotFound
	}
	normalizedRef := domain.NormalizeText(ref)
	for _, restaurant := range restaurants {
		if strings.Contains(domain.NormalizeText(restaurant.Name), normalizedRef) {
			return restaurant, nil
		}
	}
	return restaurants[0], nil
}
