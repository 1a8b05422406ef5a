package orders

import (
	"encoding/json"
	"errors"
	"testing"

	"wc-ledger/internal/ledger"
	"wc-ledger/internal/wcapi"
)

func testSchema(t *testing.T) *ledger.Schema {
	t.Helper()
	labels := make(map[string]string)
	for _, key := range ledger.ColumnKeys() {
		labels[key] = key
	}
	schema, err := ledger.NewSchema(labels)
	if err != nil {
		t.Fatalf("new schema: %v", err)
	}
	return schema
}

func testProjector(t *testing.T) *Projector {
	t.Helper()
	projector, err := NewProjector(testSchema(t), ProjectorConfig{
		StatusLabels: map[string]string{
			"processing": "در حال پردازش",
			"completed":  "تکمیل شده",
		},
		Regions: map[string]string{"THR": "تهران", "ESF": "اصفهان"},
	})
	if err != nil {
		t.Fatalf("new projector: %v", err)
	}
	return projector
}

func decodeOrder(t *testing.T, doc string) wcapi.Order {
	t.Helper()
	var order wcapi.Order
	if err := json.Unmarshal([]byte(doc), &order); err != nil {
		t.Fatalf("unmarshal order: %v", err)
	}
	return order
}

const fullOrder = `{
	"id": 1001,
	"status": "processing",
	"date_paid": "2024-10-01T09:30:00",
	"customer_id": 7,
	"total": "1000",
	"discount_total": "100",
	"billing": {
		"first_name": "سارا",
		"last_name": "تهرانی",
		"email": "sara@example.com",
		"phone": "9123456789"
	},
	"shipping": {
		"address_1": "خیابان ولیعصر پلاک ۱۲",
		"city": "کرج",
		"state": "THR",
		"postcode": "1234567890.0"
	},
	"line_items": [
		{"name": "چای سبز", "sku": "GT-01", "quantity": 2, "total": "90"},
		{"name": "قند", "sku": "0042", "quantity": 1, "total": "10"}
	],
	"shipping_lines": [
		{"method_title": "پست", "total": "40"},
		{"method_title": "بیمه", "total": "free"}
	],
	"meta_data": [
		{"key": "_billing_field_529", "value": "۱۳۷۰/۰۱/۰۱"},
		{"key": "datei", "value": "1403/07/12"},
		{"key": "marsule", "value": "TRK123"},
		{"key": "datedeliver", "value": "1403/07/15"}
	]
}`

func TestProjectFullOrder(t *testing.T) {
	schema := testSchema(t)
	row, err := testProjector(t).Project(decodeOrder(t, fullOrder))
	if err != nil {
		t.Fatalf("project: %v", err)
	}

	if row.OrderID != 1001 {
		t.Fatalf("order id = %d", row.OrderID)
	}
	if row.MonthKey != "1403-07" {
		t.Fatalf("month key = %q", row.MonthKey)
	}
	if !row.Discounted {
		t.Fatal("expected Discounted for a positive discount")
	}

	cell := func(key string) any { return row.Cells[schema.Pos(key)] }
	if got := cell(ledger.ColStatus); got != "در حال پردازش" {
		t.Errorf("status = %v", got)
	}
	if got := cell(ledger.ColDatePaid); got != "1403/07/10" {
		t.Errorf("date paid = %v", got)
	}
	if got := cell(ledger.ColBillingName); got != "سارا تهرانی" {
		t.Errorf("billing name = %v", got)
	}
	if got := cell(ledger.ColPhone); got != "09123456789" {
		t.Errorf("phone = %v", got)
	}
	if got := cell(ledger.ColBirthday); got != "1370/01/01" {
		t.Errorf("birthday = %v", got)
	}
	if got := cell(ledger.ColStateCity); got != "تهران، کرج" {
		t.Errorf("state/city = %v", got)
	}
	if got := cell(ledger.ColAddress); got != "خیابان ولیعصر پلاک 12" {
		t.Errorf("address = %v", got)
	}
	if got := cell(ledger.ColPostcode); got != "1234567890" {
		t.Errorf("postcode = %v", got)
	}
	if got := cell(ledger.ColTotal); got != int64(10000) {
		t.Errorf("total = %v", got)
	}
	if got := cell(ledger.ColShipping); got != int64(400) {
		t.Errorf("shipping = %v", got)
	}
	if got := cell(ledger.ColDiscount); got != int64(1000) {
		t.Errorf("discount = %v", got)
	}
	if got := cell(ledger.ColAdjustedDiscount); got != int64(909) {
		t.Errorf("adjusted discount = %v", got)
	}
	if got := cell(ledger.ColDispatchDate); got != "1403/07/12" {
		t.Errorf("dispatch date = %v", got)
	}
	if got := cell(ledger.ColTrackingCode); got != "TRK123" {
		t.Errorf("tracking code = %v", got)
	}
	if got := cell(ledger.ColDeliveryDate); got != "1403/07/15" {
		t.Errorf("delivery date = %v", got)
	}
	if got := cell(ledger.ColProductSKU); got != "" {
		t.Errorf("parent row must not carry a product, sku = %v", got)
	}

	if len(row.Children) != 2 {
		t.Fatalf("children = %d", len(row.Children))
	}
	first := row.Children[0]
	if got := first[schema.Pos(ledger.ColProductSKU)]; got != "GT-01" {
		t.Errorf("child sku = %v", got)
	}
	if got := first[schema.Pos(ledger.ColItemName)]; got != "چای سبز" {
		t.Errorf("child name = %v", got)
	}
	if got := first[schema.Pos(ledger.ColQuantity)]; got != 2 {
		t.Errorf("child quantity = %v", got)
	}
	if got := first[schema.Pos(ledger.ColItemTotal)]; got != int64(900) {
		t.Errorf("child item total = %v", got)
	}
	if got := first[schema.Pos(ledger.ColOrderID)]; got != "" {
		t.Errorf("child order id = %v", got)
	}
	second := row.Children[1]
	if got := second[schema.Pos(ledger.ColProductSKU)]; got != "0042" {
		t.Errorf("numeric sku must stay text, got %v", got)
	}
}

func TestProjectUnknownStatusPassesThrough(t *testing.T) {
	order := decodeOrder(t, fullOrder)
	order.Status = "box"
	row, err := testProjector(t).Project(order)
	if err != nil {
		t.Fatalf("project: %v", err)
	}
	if got := row.Cells[testSchema(t).Pos(ledger.ColStatus)]; got != "box" {
		t.Fatalf("status = %v", got)
	}
}

func TestProjectUnpaidOrder(t *testing.T) {
	order := decodeOrder(t, fullOrder)
	order.DatePaid = ""
	schema := testSchema(t)
	row, err := testProjector(t).Project(order)
	if err != nil {
		t.Fatalf("project: %v", err)
	}
	if row.MonthKey != "" {
		t.Fatalf("month key = %q", row.MonthKey)
	}
	if got := row.Cells[schema.Pos(ledger.ColDatePaid)]; got != "" {
		t.Fatalf("date paid = %v", got)
	}
}

func TestProjectMalformedDate(t *testing.T) {
	order := decodeOrder(t, fullOrder)
	order.DatePaid = "yesterday"
	if _, err := testProjector(t).Project(order); err == nil {
		t.Fatal("expected error for malformed date")
	}
}

func TestProjectBadAmounts(t *testing.T) {
	order := decodeOrder(t, fullOrder)
	order.Total = "N/A"
	if _, err := testProjector(t).Project(order); !errors.Is(err, ErrBadAmount) {
		t.Fatalf("expected ErrBadAmount for total, got %v", err)
	}

	order = decodeOrder(t, fullOrder)
	order.LineItems[0].Total = "gift"
	if _, err := testProjector(t).Project(order); !errors.Is(err, ErrBadAmount) {
		t.Fatalf("expected ErrBadAmount for item total, got %v", err)
	}
}

func TestProjectFractionalAmountTruncates(t *testing.T) {
	order := decodeOrder(t, fullOrder)
	order.Total = "10.5"
	schema := testSchema(t)
	row, err := testProjector(t).Project(order)
	if err != nil {
		t.Fatalf("project: %v", err)
	}
	if got := row.Cells[schema.Pos(ledger.ColTotal)]; got != int64(100) {
		t.Fatalf("total = %v", got)
	}
}

func TestProjectMissingMetaFields(t *testing.T) {
	order := decodeOrder(t, fullOrder)
	order.Meta = nil
	schema := testSchema(t)
	row, err := testProjector(t).Project(order)
	if err != nil {
		t.Fatalf("project: %v", err)
	}
	for _, key := range []string{ledger.ColBirthday, ledger.ColDispatchDate, ledger.ColTrackingCode, ledger.ColDeliveryDate} {
		if got := row.Cells[schema.Pos(key)]; got != "" {
			t.Errorf("%s = %v, want empty", key, got)
		}
	}
}

func TestProjectIgnoresNegativeShippingLines(t *testing.T) {
	order := decodeOrder(t, fullOrder)
	order.ShippingLines = []wcapi.ShippingLine{
		{Total: "40"},
		{Total: "-5"},
		{Total: "10.4"},
	}
	schema := testSchema(t)
	row, err := testProjector(t).Project(order)
	if err != nil {
		t.Fatalf("project: %v", err)
	}
	// 40 + 10.4 sums to 50.4, truncated to 50 toman, written as 500 rial.
	if got := row.Cells[schema.Pos(ledger.ColShipping)]; got != int64(500) {
		t.Fatalf("shipping = %v", got)
	}
}
