package domain

import (
	"regexp"
	"strconv"
	"strings"
)

// ItemSpec is one requested menu item parsed from free text.
type ItemSpec struct {
	Name string `json:"name"`
	Qty  int    `json:"qty"`
}

var itemSpecPattern = regexp.MustCompile(`^(.*?)(?:\s*[xX*]\s*(\d+)|\s*[:=]\s*(\d+))?$`)

// ParseItemSpec parses "<name>[:<qty>]", "<name> x <qty>" or "<name>*<qty>".
// Quantity defaults to 1 and never drops below 1.
func ParseItemSpec(input string) ItemSpec {
	trimmed := strings.TrimSpace(input)
	match := itemSpecPattern.FindStringSubmatch(trimmed)
	if match == nil {
		return ItemSpec{Name: trimmed, Qty: 1}
	}
	name := strings.TrimSpace(match[1])
	qtyRaw := match[2]
	if qtyRaw == "" {
		qtyRaw = match[3]
	}
	qty := 1
	if qtyRaw != "" {
		if parsed, err := strconv.Atoi(qtyRaw); err == nil && parsed > 1 {
			qty = parsed
		}
	}
	return ItemSpec{Name: name, Qty: qty}
}
