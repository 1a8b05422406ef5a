package orders

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"wc-ledger/internal/jalali"
	"wc-ledger/internal/ledger"
	"wc-ledger/internal/wcapi"
)

// Meta field keys the store's order workflow plugin writes.
const (
	DefaultDispatchKey = "datei"
	DefaultTrackingKey = "marsule"
	DefaultDeliveryKey = "datedeliver"
	DefaultBirthdayKey = "_billing_field_529"
)

// ErrBadAmount marks an order whose money fields cannot be parsed. Such an
// order is skipped whole rather than written half-filled.
var ErrBadAmount = errors.New("orders: bad amount")

// ProjectorConfig carries the lookup tables and meta keys a Projector needs.
type ProjectorConfig struct {
	// StatusLabels maps order status slugs to display labels. Slugs without
	// a label are written unchanged.
	StatusLabels map[string]string
	// Regions maps shipping state codes to display names.
	Regions map[string]string

	DispatchKey string
	TrackingKey string
	DeliveryKey string
	BirthdayKey string
}

// Projector turns an API order into a ledger row: Jalali dates, rial
// amounts, normalized contact fields and one child row per line item.
type Projector struct {
	schema *ledger.Schema
	conf   ProjectorConfig
}

// NewProjector constructs a Projector over schema.
func NewProjector(schema *ledger.Schema, conf ProjectorConfig) (*Projector, error) {
	if schema == nil {
		return nil, errors.New("orders: nil schema")
	}
	if conf.DispatchKey == "" {
		conf.DispatchKey = DefaultDispatchKey
	}
	if conf.TrackingKey == "" {
		conf.TrackingKey = DefaultTrackingKey
	}
	if conf.DeliveryKey == "" {
		conf.DeliveryKey = DefaultDeliveryKey
	}
	if conf.BirthdayKey == "" {
		conf.BirthdayKey = DefaultBirthdayKey
	}
	return &Projector{schema: schema, conf: conf}, nil
}

// Project maps one order to a ledger row. A malformed money field or paid
// date fails the whole order; an unpaid order projects with an empty month
// key and the store decides whether it may land.
func (p *Projector) Project(order wcapi.Order) (ledger.Row, error) {
	total, err := minorUnits(order.Total.String())
	if err != nil {
		return ledger.Row{}, fmt.Errorf("order %d: total %q: %w", order.ID, order.Total, err)
	}
	discount, err := minorUnits(order.DiscountTotal.String())
	if err != nil {
		return ledger.Row{}, fmt.Errorf("order %d: discount %q: %w", order.ID, order.DiscountTotal, err)
	}
	adjusted := int64(math.Round(float64(discount) / 1.10))

	var datePaid, monthKey string
	paid, err := jalali.FromISO(order.DatePaid)
	switch {
	case err == nil:
		datePaid = paid.Display()
		monthKey = paid.BucketKey()
	case errors.Is(err, jalali.ErrEmptyTimestamp):
	default:
		return ledger.Row{}, fmt.Errorf("order %d: %w", order.ID, err)
	}

	status := order.Status
	if label, ok := p.conf.StatusLabels[status]; ok {
		status = label
	}

	cells := p.emptyCells()
	set := func(key string, v any) { cells[p.schema.Pos(key)] = v }
	set(ledger.ColOrderID, order.ID)
	set(ledger.ColStatus, status)
	set(ledger.ColDatePaid, datePaid)
	set(ledger.ColCustomerID, order.CustomerID)
	set(ledger.ColBillingName, strings.TrimSpace(order.Billing.FirstName+" "+order.Billing.LastName))
	set(ledger.ColPhone, NormalizePhone(order.Billing.Phone))
	set(ledger.ColEmail, order.Billing.Email)
	set(ledger.ColBirthday, TransliterateDigits(order.MetaValue(p.conf.BirthdayKey)))
	set(ledger.ColStateCity, RegionCity(p.conf.Regions, order.Shipping.State, order.Shipping.City))
	set(ledger.ColAddress, TransliterateDigits(order.Shipping.Address1))
	set(ledger.ColPostcode, NormalizePostcode(order.Shipping.Postcode))
	set(ledger.ColTotal, total)
	set(ledger.ColShipping, shippingTotal(order.ShippingLines))
	set(ledger.ColDiscount, discount)
	set(ledger.ColAdjustedDiscount, adjusted)
	set(ledger.ColDispatchDate, order.MetaValue(p.conf.DispatchKey))
	set(ledger.ColTrackingCode, order.MetaValue(p.conf.TrackingKey))
	set(ledger.ColDeliveryDate, order.MetaValue(p.conf.DeliveryKey))

	children := make([][]any, 0, len(order.LineItems))
	for _, item := range order.LineItems {
		itemTotal, err := minorUnits(item.Total.String())
		if err != nil {
			return ledger.Row{}, fmt.Errorf("order %d: item %q total %q: %w", order.ID, item.Name, item.Total, err)
		}
		child := p.emptyCells()
		child[p.schema.Pos(ledger.ColProductSKU)] = item.SKU
		child[p.schema.Pos(ledger.ColItemName)] = item.Name
		child[p.schema.Pos(ledger.ColQuantity)] = item.Quantity
		child[p.schema.Pos(ledger.ColItemTotal)] = itemTotal
		children = append(children, child)
	}

	return ledger.Row{
		OrderID:    order.ID,
		MonthKey:   monthKey,
		Cells:      cells,
		Children:   children,
		Discounted: discount > 0,
	}, nil
}

func (p *Projector) emptyCells() []any {
	cells := make([]any, p.schema.Len())
	for i := range cells {
		cells[i] = ""
	}
	return cells
}

// minorUnits parses a store amount in toman and scales it to rial. Amounts
// with a fraction are truncated before scaling.
func minorUnits(raw string) (int64, error) {
	raw = strings.TrimSpace(raw)
	if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return n * 10, nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, ErrBadAmount
	}
	return int64(f) * 10, nil
}

// shippingTotal sums the order's shipping lines in rial. Lines whose amount
// is not a non-negative number are skipped.
func shippingTotal(lines []wcapi.ShippingLine) int64 {
	var sum float64
	for _, line := range lines {
		f, err := strconv.ParseFloat(strings.TrimSpace(line.Total.String()), 64)
		if err != nil || f < 0 {
			continue
		}
		sum += f
	}
	return int64(sum) * 10
}
