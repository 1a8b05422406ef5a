package ledger

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

// Canonical column keys in schema order.
const (
	ColOrderID          = "order_id"
	ColStatus           = "status"
	ColDatePaid         = "date_paid"
	ColCustomerID       = "customer_id"
	ColBillingName      = "billing_name"
	ColPhone            = "phone"
	ColEmail            = "email"
	ColBirthday         = "birthday"
	ColStateCity        = "state_city"
	ColAddress          = "address"
	ColPostcode         = "postcode"
	ColTotal            = "total"
	ColShipping         = "shipping"
	ColDiscount         = "discount"
	ColAdjustedDiscount = "adjusted_discount"
	ColProductSKU       = "product_sku"
	ColItemName         = "item_name"
	ColQuantity         = "quantity"
	ColItemTotal        = "item_total"
	ColExternalRef      = "external_ref"
	ColDispatchDate     = "dispatch_date"
	ColTrackingCode     = "tracking_code"
	ColPostalPayment    = "com_postal_payment"
	ColPostage          = "com_postage"
	ColDeliveryDate     = "delivery_date"
)

var columnOrder = []string{
	ColOrderID,
	ColStatus,
	ColDatePaid,
	ColCustomerID,
	ColBillingName,
	ColPhone,
	ColEmail,
	ColBirthday,
	ColStateCity,
	ColAddress,
	ColPostcode,
	ColTotal,
	ColShipping,
	ColDiscount,
	ColAdjustedDiscount,
	ColProductSKU,
	ColItemName,
	ColQuantity,
	ColItemTotal,
	ColExternalRef,
	ColDispatchDate,
	ColTrackingCode,
	ColPostalPayment,
	ColPostage,
	ColDeliveryDate,
}

// summedColumns receive a SUM formula on subtotal rows and a subtotal-sum
// formula on the grand total row.
var summedColumns = []string{
	ColTotal,
	ColShipping,
	ColDiscount,
	ColAdjustedDiscount,
	ColItemTotal,
	ColPostalPayment,
	ColPostage,
}

// moneyColumns carry the thousands-grouped display format on order rows.
var moneyColumns = []string{
	ColTotal,
	ColShipping,
	ColDiscount,
	ColAdjustedDiscount,
	ColPostalPayment,
	ColPostage,
}

// textColumns are stored as literal text so numeric-looking values keep
// their leading zeros.
var textColumns = []string{ColDatePaid, ColPhone, ColPostcode}

// mutableColumns are the only cells an update may touch on an existing row.
var mutableColumns = []string{ColStatus, ColDispatchDate, ColTrackingCode, ColDeliveryDate}

// Schema is the ledger's fixed column layout with display labels resolved.
type Schema struct {
	labels  []string
	pos     map[string]int
	letters []string
}

// NewSchema builds the schema from a key to display-label mapping. Every
// canonical column must have a label.
func NewSchema(labels map[string]string) (*Schema, error) {
	s := &Schema{
		labels:  make([]string, len(columnOrder)),
		pos:     make(map[string]int, len(columnOrder)),
		letters: make([]string, len(columnOrder)),
	}
	for i, key := range columnOrder {
		label, ok := labels[key]
		if !ok || label == "" {
			return nil, fmt.Errorf("ledger: missing label for column %q", key)
		}
		letter, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return nil, fmt.Errorf("ledger: column %q: %w", key, err)
		}
		s.labels[i] = label
		s.pos[key] = i
		s.letters[i] = letter
	}
	return s, nil
}

// ColumnKeys returns the canonical column keys in schema order.
func ColumnKeys() []string {
	keys := make([]string, len(columnOrder))
	copy(keys, columnOrder)
	return keys
}

// Len returns the number of columns.
func (s *Schema) Len() int { return len(columnOrder) }

// Pos returns the 0-based position of a column key, or -1 when unknown.
func (s *Schema) Pos(key string) int {
	p, ok := s.pos[key]
	if !ok {
		return -1
	}
	return p
}

// Letter returns the spreadsheet column letter for a key.
func (s *Schema) Letter(key string) string {
	p, ok := s.pos[key]
	if !ok {
		return ""
	}
	return s.letters[p]
}

// Cell returns the cell reference of a column at a 1-based row.
func (s *Schema) Cell(key string, row int) string {
	letter := s.Letter(key)
	if letter == "" {
		return ""
	}
	return fmt.Sprintf("%s%d", letter, row)
}

// Label returns the display label of a column key.
func (s *Schema) Label(key string) string {
	p, ok := s.pos[key]
	if !ok {
		return ""
	}
	return s.labels[p]
}

// Labels returns the display labels in schema order, for the header row.
func (s *Schema) Labels() []string {
	labels := make([]string, len(s.labels))
	copy(labels, s.labels)
	return labels
}

// SummedColumns returns the keys aggregated on subtotal and grand rows.
func (s *Schema) SummedColumns() []string {
	keys := make([]string, len(summedColumns))
	copy(keys, summedColumns)
	return keys
}
