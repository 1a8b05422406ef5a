package mailmerge

import (
	"bytes"
	"errors"
	"strings"

	"github.com/jung-kurt/gofpdf"

	"wc-ledger/internal/ledger"
	"wc-ledger/internal/orders"
)

// ErrNoRecords is returned when no row matches the wanted status.
var ErrNoRecords = errors.New("mailmerge: no records")

// Record is one shipping label.
type Record struct {
	Name     string
	Address  string
	Phone    string
	Postcode string
}

// Fields returns the record as the flat placeholder mapping external
// mail-merge templates fill in.
func (r Record) Fields() map[string]string {
	return map[string]string{
		"__name__":     r.Name,
		"__address__":  r.Address,
		"__phone__":    r.Phone,
		"__postcode__": r.Postcode,
	}
}

// Options adjusts PDF rendering. FontPath names a UTF-8 TTF used for
// non-Latin text; without it the PDF falls back to the built-in Arial.
type Options struct {
	FontPath string
	FontSize float64
}

// RecordsFrom extracts label records from ledger data rows, keeping only
// orders whose status cell matches wanted. Phone and postcode cells are
// re-normalized, so workbooks edited by hand still print usable labels.
func RecordsFrom(schema *ledger.Schema, rows [][]string, wanted string) []Record {
	wanted = strings.TrimSpace(wanted)
	if wanted == "" {
		return nil
	}
	var records []Record
	for _, row := range rows {
		if !strings.EqualFold(strings.TrimSpace(row[schema.Pos(ledger.ColStatus)]), wanted) {
			continue
		}
		records = append(records, Record{
			Name:     strings.TrimSpace(row[schema.Pos(ledger.ColBillingName)]),
			Address:  labelAddress(row[schema.Pos(ledger.ColStateCity)], row[schema.Pos(ledger.ColAddress)]),
			Phone:    orders.NormalizePhone(row[schema.Pos(ledger.ColPhone)]),
			Postcode: orders.NormalizePostcode(row[schema.Pos(ledger.ColPostcode)]),
		})
	}
	return records
}

// labelAddress joins the region cell and street address, collapsing a
// duplicated "state، state" region to the single name first.
func labelAddress(region, street string) string {
	parts := strings.SplitN(region, "،", 2)
	if len(parts) == 2 && strings.TrimSpace(parts[0]) == strings.TrimSpace(parts[1]) {
		region = strings.TrimSpace(parts[0])
	} else {
		region = strings.TrimSpace(region)
	}
	street = strings.TrimSpace(street)
	switch {
	case region == "":
		return street
	case street == "":
		return region
	}
	return region + "، " + street
}

const (
	labelWidth   = 95.0
	lineHeight   = 8.0
	pageMargin   = 10.0
	labelGap     = 4.0
	labelsPerRow = 2
	rowsPerPage  = 7
)

// BuildLabelsPDF renders shipping labels on A4, two per row.
func BuildLabelsPDF(records []Record, opts Options) ([]byte, error) {
	if len(records) == 0 {
		return nil, ErrNoRecords
	}
	size := opts.FontSize
	if size <= 0 {
		size = 11
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	font := "Arial"
	if opts.FontPath != "" {
		font = "label"
		pdf.AddUTF8Font(font, "", opts.FontPath)
	}
	pdf.SetFont(font, "", size)
	pdf.SetAutoPageBreak(false, 0)

	labelHeight := 4 * lineHeight
	for i, rec := range records {
		col := i % labelsPerRow
		row := (i / labelsPerRow) % rowsPerPage
		if col == 0 && row == 0 {
			pdf.AddPage()
		}
		x := pageMargin + float64(col)*labelWidth
		y := pageMargin + float64(row)*(labelHeight+labelGap)

		lines := []struct {
			text   string
			border string
		}{
			{rec.Name, "LTR"},
			{rec.Address, "LR"},
			{rec.Phone, "LR"},
			{rec.Postcode, "LBR"},
		}
		for j, line := range lines {
			pdf.SetXY(x, y+float64(j)*lineHeight)
			pdf.CellFormat(labelWidth-labelGap, lineHeight, line.text, line.border, 0, "C", false, 0, "")
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
