package domain

// Restaurant is one merchant entry surfaced from feed or search payloads.
// URL is derived from slug and id when both are present, else empty.
type Restaurant struct {
	ID   string `json:"id,omitempty"`
	Slug string `json:"slug,omitempty"`
	Name string `json:"name"`
	URL  string `json:"url"`
	Info string `json:"info,omitempty"`
}

// MenuItem is one catalog entry. Section is the originating menu name.
type MenuItem struct {
	ID          string  `json:"id,omitempty"`
	Name        string  `json:"name"`
	Price       float64 `json:"price,omitempty"`
	PriceText   string  `json:"priceText,omitempty"`
	Description string  `json:"description,omitempty"`
	Section     string  `json:"section,omitempty"`
}

// Category is one feed category page reference.
type Category struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}
