package mailmerge

import (
	"bytes"
	"errors"
	"testing"

	"wc-ledger/internal/ledger"
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

func dataRow(t *testing.T, schema *ledger.Schema, status, name, region, street, phone, postcode string) []string {
	t.Helper()
	row := make([]string, schema.Len())
	row[schema.Pos(ledger.ColOrderID)] = "1001"
	row[schema.Pos(ledger.ColStatus)] = status
	row[schema.Pos(ledger.ColBillingName)] = name
	row[schema.Pos(ledger.ColStateCity)] = region
	row[schema.Pos(ledger.ColAddress)] = street
	row[schema.Pos(ledger.ColPhone)] = phone
	row[schema.Pos(ledger.ColPostcode)] = postcode
	return row
}

func TestRecordsFromFiltersByStatus(t *testing.T) {
	schema := testSchema(t)
	rows := [][]string{
		dataRow(t, schema, "در حال پردازش", "سارا تهرانی", "تهران، کرج", "خیابان اول", "9123456789", "1234567890.0"),
		dataRow(t, schema, "تکمیل شده", "رضا رضایی", "فارس، شیراز", "خیابان دوم", "09121111111", "1111111111"),
		make([]string, schema.Len()), // product child row has no status
		dataRow(t, schema, " در حال پردازش ", "مینا مرادی", "تهران، تهران", "خیابان سوم", "912345678.0", "2222222222"),
	}

	records := RecordsFrom(schema, rows, "در حال پردازش")
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}

	first := records[0]
	if first.Name != "سارا تهرانی" {
		t.Errorf("name = %q", first.Name)
	}
	if first.Address != "تهران، کرج، خیابان اول" {
		t.Errorf("address = %q", first.Address)
	}
	if first.Phone != "09123456789" {
		t.Errorf("phone = %q", first.Phone)
	}
	if first.Postcode != "1234567890" {
		t.Errorf("postcode = %q", first.Postcode)
	}

	second := records[1]
	if second.Address != "تهران، خیابان سوم" {
		t.Errorf("collapsed address = %q", second.Address)
	}
	if second.Phone != "912345678" {
		t.Errorf("nine digit phone = %q", second.Phone)
	}
}

func TestRecordsFromMatchesCaseInsensitive(t *testing.T) {
	schema := testSchema(t)
	rows := [][]string{
		dataRow(t, schema, "PROCESSING", "A B", "X، Y", "Street", "09120000000", "1"),
	}
	if got := len(RecordsFrom(schema, rows, "Processing")); got != 1 {
		t.Fatalf("expected 1 record, got %d", got)
	}
	if got := len(RecordsFrom(schema, rows, "")); got != 0 {
		t.Fatalf("empty wanted status must match nothing, got %d", got)
	}
}

func TestRecordFields(t *testing.T) {
	rec := Record{
		Name:     "رضا موسوی",
		Address:  "تهران، خیابان انقلاب",
		Phone:    "09121234567",
		Postcode: "1234567890",
	}
	fields := rec.Fields()
	want := map[string]string{
		"__name__":     rec.Name,
		"__address__":  rec.Address,
		"__phone__":    rec.Phone,
		"__postcode__": rec.Postcode,
	}
	if len(fields) != len(want) {
		t.Fatalf("fields = %v", fields)
	}
	for key, value := range want {
		if fields[key] != value {
			t.Errorf("%s = %q, want %q", key, fields[key], value)
		}
	}
}

func TestLabelAddress(t *testing.T) {
	cases := []struct {
		region, street, want string
	}{
		{"تهران، تهران", "خیابان اول", "تهران، خیابان اول"},
		{"تهران، کرج", "خیابان اول", "تهران، کرج، خیابان اول"},
		{"تهران", "خیابان اول", "تهران، خیابان اول"},
		{"", "خیابان اول", "خیابان اول"},
		{"تهران، تهران", "", "تهران"},
	}
	for _, tc := range cases {
		if got := labelAddress(tc.region, tc.street); got != tc.want {
			t.Errorf("labelAddress(%q, %q) = %q, want %q", tc.region, tc.street, got, tc.want)
		}
	}
}

func TestBuildLabelsPDF(t *testing.T) {
	records := make([]Record, 0, 15)
	for i := 0; i < 15; i++ {
		records = append(records, Record{
			Name:     "Customer Name",
			Address:  "Province, Street, No 4",
			Phone:    "09123456789",
			Postcode: "1234567890",
		})
	}

	data, err := BuildLabelsPDF(records, Options{})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("%PDF")) {
		t.Fatalf("not a PDF: %q", data[:8])
	}

	if _, err := BuildLabelsPDF(nil, Options{}); !errors.Is(err, ErrNoRecords) {
		t.Fatalf("expected ErrNoRecords, got %v", err)
	}
}
