package types

// AddressType distinguishes the two address roles an order references.
type AddressType string

const (
	AddressTypeShipping AddressType = "shipping"
	AddressTypeBilling  AddressType = "billing"
)

// Address mirrors the commerce backend's address record. A draft address has
// an empty AddressID until the backend persists it and echoes the id back.
type Address struct {
	AddressID   string      `json:"address_id,omitempty"`
	AddressType AddressType `json:"address_type"`
	FirstName   string      `json:"first_name"`
	LastName    string      `json:"last_name"`
	Line1       string      `json:"line1"`
	Line2       *string     `json:"line2,omitempty"`
	City        string      `json:"city"`
	State       string      `json:"state"`
	PostalCode  string      `json:"postal_code"`
	Country     string      `json:"country"`
	Phone       string      `json:"phone,omitempty"`
	IsDefault   bool        `json:"is_default"`
}

// Persisted reports whether the backend has assigned this address an id.
func (a Address) Persisted() bool {
	return a.AddressID != ""
}
