package types

import "strings"

// ShippingAddress is the address snapshot frozen onto an order at settlement.
// Stored as jsonb so later edits to the customer's saved addresses never
// rewrite order history.
type ShippingAddress struct {
	Name       string `json:"name,omitempty"`
	Street     string `json:"street"`
	City       string `json:"city"`
	State      string `json:"state,omitempty"`
	PostalCode string `json:"postal_code,omitempty"`
	Country    string `json:"country,omitempty"`
	Phone      string `json:"phone,omitempty"`
}

// Validate reports the missing required fields, keyed by json name.
func (a ShippingAddress) Validate() map[string]string {
	if strings.TrimSpace(a.City) == "" {
		return map[string]string{"city": "is required"}
	}
	return nil
}

// IsZero reports whether no field was provided at all.
func (a ShippingAddress) IsZero() bool {
	return a == ShippingAddress{}
}
