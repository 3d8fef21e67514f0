package ifood

import (
	"strconv"
	"strings"

	"github.com/mekedron/clifood/internal/domain"
)

// feedCards flattens the feed shape (sections[].cards[]) into one card list.
func feedCards(payload map[string]any) []map[string]any {
	cards := make([]map[string]any, 0)
	for _, rawSection := range asSlice(payload["sections"]) {
		section := asMap(rawSection)
		if section == nil {
			continue
		}
		for _, rawCard := range asSlice(section["cards"]) {
			if card := asMap(rawCard); card != nil {
				cards = append(cards, card)
			}
		}
	}
	return cards
}

func cardContents(card map[string]any) []map[string]any {
	data := asMap(card["data"])
	if data == nil {
		return nil
	}
	contents := make([]map[string]any, 0)
	for _, rawEntry := range asSlice(data["contents"]) {
		if entry := asMap(rawEntry); entry != nil {
			contents = append(contents, entry)
		}
	}
	return contents
}

// MerchantURL derives the public merchant URL, empty unless both slug and id
// are present.
func MerchantURL(slug, id string) string {
	if slug == "" || id == "" {
		return ""
	}
	return deliveryURLPrefix + slug + "/" + id
}

func merchantFromEntry(entry map[string]any, action *MerchantAction, name string) domain.Restaurant {
	return domain.Restaurant{
		ID:   action.ID,
		Slug: action.Slug,
		Name: name,
		URL:  MerchantURL(action.Slug, action.ID),
		Info: extractCategoryFromEntry(entry),
	}
}

// ExtractHomeData walks a home-feed payload and returns categories (order of
// first appearance) and merchants (deduplicated by id, first occurrence
// kept). Entries that fail to decode or lack a name/title are skipped.
func ExtractHomeData(payload map[string]any) ([]domain.Category, []domain.Restaurant) {
	categories := make([]domain.Category, 0)
	merchants := make([]domain.Restaurant, 0)
	seen := map[string]struct{}{}

	for _, card := range feedCards(payload) {
		for _, entry := range cardContents(card) {
			action, _ := entry["action"].(string)

			if strings.HasPrefix(action, "page?") {
				title := payloadString(entry, "title")
				if title == "" {
					continue
				}
				if id := ParseCategoryAction(action); id != "" {
					categories = append(categories, domain.Category{ID: id, Title: title})
				}
			}

			if strings.HasPrefix(action, "merchant?") {
				name := payloadString(entry, "name")
				if name == "" {
					continue
				}
				parsed := ParseMerchantAction(action)
				if parsed == nil || parsed.ID == "" {
					continue
				}
				if _, ok := seen[parsed.ID]; ok {
					continue
				}
				seen[parsed.ID] = struct{}{}
				merchants = append(merchants, merchantFromEntry(entry, parsed, name))
			}
		}
	}

	return categories, merchants
}

// ExtractMerchants returns merchants from a category-page payload, which
// shares the card/content shape of the home feed.
func ExtractMerchants(payload map[string]any) []domain.Restaurant {
	merchants := make([]domain.Restaurant, 0)
	seen := map[string]struct{}{}

	for _, card := range feedCards(payload) {
		for _, entry := range cardContents(card) {
			action, _ := entry["action"].(string)
			if !strings.HasPrefix(action, "merchant?") {
				continue
			}
			parsed := ParseMerchantAction(action)
			if parsed == nil || parsed.ID == "" {
				continue
			}
			if _, ok := seen[parsed.ID]; ok {
				continue
			}
			name := payloadString(entry, "name", "title")
			if name == "" {
				continue
			}
			seen[parsed.ID] = struct{}{}
			merchants = append(merchants, merchantFromEntry(entry, parsed, name))
		}
	}

	return merchants
}

// catalogEntry pairs a raw catalog item with its originating menu name.
type catalogEntry struct {
	item map[string]any
	menu string
}

func catalogEntries(catalog map[string]any) []catalogEntry {
	data := asMap(catalog["data"])
	if data == nil {
		return nil
	}
	entries := make([]catalogEntry, 0)
	for _, rawMenu := range asSlice(data["menu"]) {
		menu := asMap(rawMenu)
		if menu == nil {
			continue
		}
		menuName := payloadString(menu, "name")
		for _, rawItem := range asSlice(menu["itens"]) {
			if item := asMap(rawItem); item != nil {
				entries = append(entries, catalogEntry{item: item, menu: menuName})
			}
		}
	}
	return entries
}

func catalogItemName(item map[string]any) string {
	return payloadString(item, "description", "name")
}

// ExtractMenuItems flattens a catalog payload into menu items, applying an
// optional normalized substring filter on name. Iteration stops once limit
// entries matched, so catalog order decides which items survive the cap.
func ExtractMenuItems(catalog map[string]any, query string, limit int) []domain.MenuItem {
	items := make([]domain.MenuItem, 0)
	normalizedQuery := domain.NormalizeText(query)

	for _, entry := range catalogEntries(catalog) {
		name := catalogItemName(entry.item)
		if name == "" {
			continue
		}
		if normalizedQuery != "" && !strings.Contains(domain.NormalizeText(name), normalizedQuery) {
			continue
		}

		price, hasUnitPrice := payloadFloat(entry.item, "unitPrice")
		if !hasUnitPrice {
			price, _ = payloadFloat(entry.item, "unitMinPrice")
		}
		priceText := ""
		if hasUnitPrice {
			priceText = "R$ " + strconv.FormatFloat(price, 'f', -1, 64)
		}

		items = append(items, domain.MenuItem{
			ID:          payloadString(entry.item, "id"),
			Name:        name,
			Price:       price,
			PriceText:   priceText,
			Description: payloadString(entry.item, "details"),
			Section:     entry.menu,
		})
		if limit > 0 && len(items) >= limit {
			return items
		}
	}

	return items
}

// ShouldExcludeRestaurant reports whether any exclude term is a normalized
// substring of the restaurant name or its category/info string.
func ShouldExcludeRestaurant(restaurant domain.Restaurant, excludeTerms []string) bool {
	return containsExcludedTerm(restaurant.Name, excludeTerms) ||
		containsExcludedTerm(restaurant.Info, excludeTerms)
}

// ShouldExcludeCategory reports whether any exclude term is a normalized
// substring of the category title.
func ShouldExcludeCategory(category domain.Category, excludeTerms []string) bool {
	return containsExcludedTerm(category.Title, excludeTerms)
}

func containsExcludedTerm(text string, excludeTerms []string) bool {
	normalized := domain.NormalizeText(text)
	for _, term := range excludeTerms {
		needle := domain.NormalizeText(term)
		if needle == "" {
			continue
		}
		if strings.Contains(normalized, needle) {
			return true
		}
	}
	return false
}
