package ledger

import "testing"

func testSchema(t *testing.T) *Schema {
	t.Helper()
	labels := make(map[string]string, len(columnOrder))
	for _, key := range columnOrder {
		labels[key] = key
	}
	s, err := NewSchema(labels)
	if err != nil {
		t.Fatalf("NewSchema: %v", err)
	}
	return s
}

func TestSchemaLayout(t *testing.T) {
	s := testSchema(t)
	if s.Len() != 25 {
		t.Fatalf("Len = %d", s.Len())
	}
	if got := s.Pos(ColOrderID); got != 0 {
		t.Fatalf("Pos(order_id) = %d", got)
	}
	if got := s.Letter(ColTotal); got != "L" {
		t.Fatalf("Letter(total) = %q", got)
	}
	if got := s.Letter(ColPostalPayment); got != "W" {
		t.Fatalf("Letter(com_postal_payment) = %q", got)
	}
	if got := s.Letter(ColDeliveryDate); got != "Y" {
		t.Fatalf("Letter(delivery_date) = %q", got)
	}
	if got := s.Cell(ColAddress, 7); got != "J7" {
		t.Fatalf("Cell(address, 7) = %q", got)
	}
	if got := s.Pos("bogus"); got != -1 {
		t.Fatalf("Pos(bogus) = %d", got)
	}
}

func TestSchemaRequiresAllLabels(t *testing.T) {
	labels := map[string]string{ColOrderID: "Order ID"}
	if _, err := NewSchema(labels); err == nil {
		t.Fatal("expected error for missing labels")
	}
}

func TestSchemaLabelsInOrder(t *testing.T) {
	s := testSchema(t)
	labels := s.Labels()
	if len(labels) != s.Len() {
		t.Fatalf("labels len = %d", len(labels))
	}
	if labels[0] != ColOrderID || labels[len(labels)-1] != ColDeliveryDate {
		t.Fatalf("labels order wrong: first %q last %q", labels[0], labels[len(labels)-1])
	}
}
