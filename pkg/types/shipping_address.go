package types

import "strings"

// DefaultShippingCountry is applied when an address omits the country.
const DefaultShippingCountry = "KR"

// ShippingAddress is embedded into orders as a jsonb document.
// The first four fields are mandatory for order creation.
type ShippingAddress struct {
	RecipientName  string  `json:"recipient_name" validate:"required"`
	RecipientPhone string  `json:"recipient_phone" validate:"required"`
	PostalCode     string  `json:"postal_code" validate:"required"`
	AddressLine1   string  `json:"address_line1" validate:"required"`
	AddressLine2   *string `json:"address_line2,omitempty"`
	City           *string `json:"city,omitempty"`
	State          *string `json:"state,omitempty"`
	Country        string  `json:"country,omitempty"`
}

// Normalize fills defaults and trims the mandatory fields.
func (a *ShippingAddress) Normalize() {
	a.RecipientName = strings.TrimSpace(a.RecipientName)
	a.RecipientPhone = strings.TrimSpace(a.RecipientPhone)
	a.PostalCode = strings.TrimSpace(a.PostalCode)
	a.AddressLine1 = strings.TrimSpace(a.AddressLine1)
	if strings.TrimSpace(a.Country) == "" {
		a.Country = DefaultShippingCountry
	}
}

// Complete reports whether every mandatory field is present.
func (a ShippingAddress) Complete() bool {
	return strings.TrimSpace(a.RecipientName) != "" &&
		strings.TrimSpace(a.RecipientPhone) != "" &&
		strings.TrimSpace(a.PostalCode) != "" &&
		strings.TrimSpace(a.AddressLine1) != ""
}
