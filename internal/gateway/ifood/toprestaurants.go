package ifood

import (
	"context"

	"github.com/mekedron/clifood/internal/domain"
)

const defaultTopLimit = 10

type restaurantCollector struct {
	limit        int
	excludeTerms []string
	seen         map[string]struct{}
	results      []domain.Restaurant
}

func newRestaurantCollector(limit int, excludeTerms []string) *restaurantCollector {
	return &restaurantCollector{
		limit:        limit,
		excludeTerms: excludeTerms,
		seen:         make(map[string]struct{}),
		results:      make([]domain.Restaurant, 0, limit),
	}
}

func (rc *restaurantCollector) full() bool {
	return len(rc.results) >= rc.limit
}

func (rc *restaurantCollector) add(restaurants []domain.Restaurant) {
	for _, restaurant := range restaurants {
		if rc.full() {
			return
		}
		if restaurant.ID == "" {
			continue
		}
		if _, ok := rc.seen[restaurant.ID]; ok {
			continue
		}
		rc.seen[restaurant.ID] = struct{}{}
		if ShouldExcludeRestaurant(restaurant, rc.excludeTerms) {
			continue
		}
		rc.results = append(rc.results, restaurant)
	}
}

// TopRestaurants aggregates recommended restaurants from the home feed, then
// fills remaining slots from each home category page in feed order, then
// from a broad search. Errors in the category and search stages are
// tolerated; only a failed home feed aborts, since without it there is
// nothing to rank.
func (c *Client) TopRestaurants(
	ctx context.Context,
	sess *Session,
	page Page,
	limit int,
	excludeTerms []string,
) ([]domain.Restaurant, error) {
	if limit <= 0 {
		limit = defaultTopLimit
	}
	collector := newRestaurantCollector(limit, excludeTerms)

	feed, err := c.HomeFeed(ctx, sess, page)
	if err != nil {
		return nil, err
	}
	categories, merchants := ExtractHomeData(feed)
	collector.add(merchants)

	for _, category := range categories {
		if collector.full() {
			break
		}
		if ShouldExcludeCategory(category, excludeTerms) {
			continue
		}
		categoryPayload, err := c.CategoryPage(ctx, sess, category.ID)
		if err != nil {
			continue
		}
		collector.add(ExtractMerchants(categoryPayload))
	}

	if !collector.full() {
		// Request more than the remaining slots; dedupe against earlier
		// stages eats into whatever search returns.
		searchSize := limit * 2
		if searchSize < minSearchRequestSize {
			searchSize = minSearchRequestSize
		}
		found, err := c.SearchRestaurants(ctx, sess, "", searchSize, SearchOptions{Page: page})
		if err == nil {
			collector.add(found)
		}
	}

	return collector.results, nil
}
