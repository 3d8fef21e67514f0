package ifood

import (
	"fmt"
	"strings"

	"github.com/mekedron/clifood/internal/domain"
)

// CartSubItem is one auto-selected choice-group option.
type CartSubItem struct {
	ID       string `json:"id"`
	Quantity int    `json:"quantity"`
}

// CartItem is one line item in a cart-creation payload.
type CartItem struct {
	ID          string        `json:"id"`
	Quantity    int           `json:"quantity"`
	Observation string        `json:"observation"`
	SubItems    []CartSubItem `json:"subItems,omitempty"`
}

// buildSubItems auto-selects the first garnish of every mandatory choice
// group, quantity capped at the group minimum. Naive by necessity: the CLI
// has no way to present choices interactively.
func buildSubItems(item map[string]any) []CartSubItem {
	subItems := make([]CartSubItem, 0)
	for _, rawChoice := range asSlice(item["choices"]) {
		choice := asMap(rawChoice)
		if choice == nil {
			continue
		}
		min := payloadInt(choice, "min")
		if min <= 0 {
			continue
		}
		garnishes := asSlice(choice["garnishItens"])
		if len(garnishes) == 0 {
			continue
		}
		garnish := asMap(garnishes[0])
		garnishID := payloadString(garnish, "id")
		if garnishID == "" {
			continue
		}
		quantity := min
		if max := payloadInt(choice, "max"); max > 0 && max < quantity {
			quantity = max
		}
		subItems = append(subItems, CartSubItem{ID: garnishID, Quantity: quantity})
	}
	return subItems
}

// BuildCartItems matches each requested item spec against the flattened
// catalog: exact normalized-name match first, then first normalized
// substring match. An unmatched name fails with an error naming the input.
func BuildCartItems(catalog map[string]any, requested []domain.ItemSpec) ([]CartItem, error) {
	entries := catalogEntries(catalog)

	cartItems := make([]CartItem, 0, len(requested))
	for _, req := range requested {
		normalized := domain.NormalizeText(req.Name)

		var target map[string]any
		for _, entry := range entries {
			if domain.NormalizeText(catalogItemName(entry.item)) == normalized {
				target = entry.item
				break
			}
		}
		if target == nil {
			for _, entry := range entries {
				if strings.Contains(domain.NormalizeText(catalogItemName(entry.item)), normalized) {
					target = entry.item
					break
				}
			}
		}

		targetID := payloadString(target, "id")
		if targetID == "" {
			return nil, fmt.Errorf("%w: item not found in catalog: %s", ErrNotFound, req.Name)
		}

		var subItems []CartSubItem
		if payloadBool(target, "needChoices") {
			if built := buildSubItems(target); len(built) > 0 {
				subItems = built
			}
		}

		cartItems = append(cartItems, CartItem{
			ID:       targetID,
			Quantity: req.Qty,
			SubItems: subItems,
		})
	}

	return cartItems, nil
}

// CartID extracts the created cart id from the upstream response,
// tolerating both nesting shapes seen in the wild.
func CartID(payload map[string]any) string {
	response := asMap(payload["cartResponse"])
	if response == nil {
		return ""
	}
	if id := payloadString(response, "id"); id != "" {
		return id
	}
	return payloadString(asMap(response["cartResponse"]), "id")
}
