package types

// ProductSnapshot freezes a product's display attributes into an order line
// item at purchase time. Later catalog edits or deletions never touch it.
type ProductSnapshot struct {
	Name        string `json:"name"`
	SKU         string `json:"sku,omitempty"`
	Image       string `json:"image,omitempty"`
	Brand       string `json:"brand,omitempty"`
	Category    string `json:"category,omitempty"`
	Description string `json:"description,omitempty"`
}

// OptionMap carries free-form item options (size, color) as chosen at
// add-to-cart time.
type OptionMap map[string]string

// Equal reports whether both maps hold the same key/value pairs.
func (m OptionMap) Equal(other OptionMap) bool {
	if len(m) != len(other) {
		return false
	}
	for k, v := range m {
		if other[k] != v {
			return false
		}
	}
	return true
}
