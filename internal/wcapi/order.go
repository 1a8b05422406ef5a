package wcapi

import "encoding/json"

// TextValue decodes JSON fields the store API serves either as a quoted
// string or a bare number, depending on the WooCommerce version.
type TextValue string

func (v *TextValue) UnmarshalJSON(data []byte) error {
	if len(data) == 0 || string(data) == "null" {
		*v = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*v = TextValue(s)
		return nil
	}
	*v = TextValue(data)
	return nil
}

func (v TextValue) String() string { return string(v) }

// Address is the billing or shipping block of an order.
type Address struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Company   string `json:"company"`
	Address1  string `json:"address_1"`
	Address2  string `json:"address_2"`
	City      string `json:"city"`
	State     string `json:"state"`
	Postcode  string `json:"postcode"`
	Country   string `json:"country"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
}

// LineItem is one product line of an order.
type LineItem struct {
	Name     string    `json:"name"`
	SKU      string    `json:"sku"`
	Quantity int       `json:"quantity"`
	Total    TextValue `json:"total"`
}

// ShippingLine is one shipping charge of an order.
type ShippingLine struct {
	MethodTitle string    `json:"method_title"`
	Total       TextValue `json:"total"`
}

// MetaEntry is one entry of the order's meta_data array. Values are kept raw
// because plugins store anything from strings to nested objects there.
type MetaEntry struct {
	Key   string          `json:"key"`
	Value json.RawMessage `json:"value"`
}

// Order is a WooCommerce REST v3 order, reduced to the fields the ledger
// consumes.
type Order struct {
	ID            int64          `json:"id"`
	Status        string         `json:"status"`
	DatePaid      string         `json:"date_paid"`
	CustomerID    int64          `json:"customer_id"`
	Total         TextValue      `json:"total"`
	DiscountTotal TextValue      `json:"discount_total"`
	Billing       Address        `json:"billing"`
	Shipping      Address        `json:"shipping"`
	LineItems     []LineItem     `json:"line_items"`
	ShippingLines []ShippingLine `json:"shipping_lines"`
	Meta          []MetaEntry    `json:"meta_data"`
}

// MetaValue returns the scalar value of a meta field as text. Absent keys and
// non-scalar values yield the empty string.
func (o Order) MetaValue(key string) string {
	for _, entry := range o.Meta {
		if entry.Key != key {
			continue
		}
		var s string
		if err := json.Unmarshal(entry.Value, &s); err == nil {
			return s
		}
		var n json.Number
		if err := json.Unmarshal(entry.Value, &n); err == nil {
			return n.String()
		}
		return ""
	}
	return ""
}
