package ifood

import (
	"net/url"
	"regexp"
	"strings"
)

// MerchantAction is a decoded "merchant?..." feed action token.
type MerchantAction struct {
	ID   string
	Slug string
}

// ParseMerchantAction decodes "merchant?identifier=ID&slug=SLUG" tokens.
// Returns nil for any token not prefixed "merchant?"; malformed query
// strings degrade to missing fields rather than failing.
func ParseMerchantAction(action string) *MerchantAction {
	query, ok := strings.CutPrefix(action, "merchant?")
	if !ok {
		return nil
	}
	params, err := url.ParseQuery(query)
	if err != nil {
		return &MerchantAction{}
	}
	return &MerchantAction{
		ID:   params.Get("identifier"),
		Slug: params.Get("slug"),
	}
}

// ParseCategoryAction decodes "page?identifier=ID" tokens into the category
// id. Returns "" for any token not prefixed "page?".
func ParseCategoryAction(action string) string {
	query, ok := strings.CutPrefix(action, "page?")
	if !ok {
		return ""
	}
	params, err := url.ParseQuery(query)
	if err != nil {
		return ""
	}
	return params.Get("identifier")
}

var categoryFromCopyPattern = regexp.MustCompile(`(?i)Tipo de comida:\s*([^,]+)`)

// extractCategoryFromEntry returns the entry category, preferring the direct
// mainCategory field and falling back to scanning the localized
// "Tipo de comida: X," copy. Brittle heuristic over unofficial upstream text.
func extractCategoryFromEntry(entry map[string]any) string {
	if main := payloadString(entry, "mainCategory"); main != "" {
		return main
	}
	desc := payloadString(entry, "contentDescription")
	match := categoryFromCopyPattern.FindStringSubmatch(desc)
	if match == nil {
		return ""
	}
	return strings.TrimSpace(match[1])
}
