package config

import (
	"fmt"

	"wc-ledger/internal/ledger"
)

// Locale bundles the display strings of one ledger language.
type Locale struct {
	// Labels maps schema column keys to header labels.
	Labels map[string]string
	// Statuses maps order status slugs to display labels.
	Statuses map[string]string
	// Aggregates are the subtotal and grand total row labels.
	Aggregates ledger.AggregateLabels
}

// LocaleFor returns the locale of a supported language tag.
func LocaleFor(lang string) (Locale, error) {
	switch lang {
	case "en":
		return Locale{
			Labels:     englishLabels,
			Statuses:   englishStatuses,
			Aggregates: ledger.AggregateLabels{Subtotal: "Monthly Orders", Grand: "All Orders"},
		}, nil
	case "fa":
		return Locale{
			Labels:     persianLabels,
			Statuses:   persianStatuses,
			Aggregates: ledger.AggregateLabels{Subtotal: "سفارشات ماه", Grand: "کل سفارشات"},
		}, nil
	default:
		return Locale{}, fmt.Errorf("config: unsupported language %q (want \"en\" or \"fa\")", lang)
	}
}

// LocaleOverrides replaces individual locale entries from the YAML file.
// Only the keys present override the built-in tables.
type LocaleOverrides struct {
	Labels   map[string]string `yaml:"labels"`
	Statuses map[string]string `yaml:"statuses"`
	Subtotal string            `yaml:"subtotal_label"`
	Grand    string            `yaml:"grand_label"`
	Regions  map[string]string `yaml:"regions"`
}

// ResolvedLocale returns the configured language's tables with the YAML
// overrides applied on top.
func (c Config) ResolvedLocale() (Locale, error) {
	locale, err := LocaleFor(c.Language)
	if err != nil {
		return Locale{}, err
	}
	locale.Labels = overlay(locale.Labels, c.Locale.Labels)
	locale.Statuses = overlay(locale.Statuses, c.Locale.Statuses)
	if c.Locale.Subtotal != "" {
		locale.Aggregates.Subtotal = c.Locale.Subtotal
	}
	if c.Locale.Grand != "" {
		locale.Aggregates.Grand = c.Locale.Grand
	}
	return locale, nil
}

// RegionTable returns the province map with the YAML overrides applied.
func (c Config) RegionTable() map[string]string {
	return overlay(Regions, c.Locale.Regions)
}

func overlay(base, over map[string]string) map[string]string {
	if len(over) == 0 {
		return base
	}
	merged := make(map[string]string, len(base)+len(over))
	for key, value := range base {
		merged[key] = value
	}
	for key, value := range over {
		merged[key] = value
	}
	return merged
}

// Regions maps WooCommerce state codes to Iranian province names. Both
// locales carry the Persian names; the codes are what the store sends.
var Regions = map[string]string{
	"EAZ": "آذربایجان شرقی",
	"WAZ": "آذربایجان غربی",
	"ADL": "اردبیل",
	"ESF": "اصفهان",
	"ABZ": "البرز",
	"ILM": "ایلام",
	"BHR": "بوشهر",
	"THR": "تهران",
	"CHB": "چهارمحال و بختیاری",
	"SKH": "خراسان جنوبی",
	"RKH": "خراسان رضوی",
	"NKH": "خراسان شمالی",
	"KHZ": "خوزستان",
	"ZJN": "زنجان",
	"SMN": "سمنان",
	"SBN": "سیستان و بلوچستان",
	"FRS": "فارس",
	"GZN": "قزوین",
	"QHM": "قم",
	"KRD": "کردستان",
	"KRN": "کرمان",
	"KRH": "کرمانشاه",
	"KBD": "کهگیلویه و بویراحمد",
	"GLS": "گلستان",
	"GIL": "گیلان",
	"LRS": "لرستان",
	"MZN": "مازندران",
	"MKZ": "مرکزی",
	"HRZ": "هرمزگان",
	"HDN": "همدان",
	"YZD": "یزد",
}

var englishLabels = map[string]string{
	ledger.ColOrderID:          "Order ID",
	ledger.ColStatus:           "Status",
	ledger.ColDatePaid:         "Date Paid",
	ledger.ColCustomerID:       "Customer ID",
	ledger.ColBillingName:      "Billing Name",
	ledger.ColPhone:            "Phone",
	ledger.ColEmail:            "Email",
	ledger.ColBirthday:         "Birthday",
	ledger.ColStateCity:        "State/City",
	ledger.ColAddress:          "Address",
	ledger.ColPostcode:         "Postcode",
	ledger.ColTotal:            "Total",
	ledger.ColShipping:         "Shipping",
	ledger.ColDiscount:         "Discount",
	ledger.ColAdjustedDiscount: "Sepidar Discount",
	ledger.ColProductSKU:       "Product SKU",
	ledger.ColItemName:         "Item Name",
	ledger.ColQuantity:         "Quantity",
	ledger.ColItemTotal:        "Item Total",
	ledger.ColExternalRef:      "Sepidar ID",
	ledger.ColDispatchDate:     "Shipping Date",
	ledger.ColTrackingCode:     "Tracking Code",
	ledger.ColPostalPayment:    "Company Postal Payment",
	ledger.ColPostage:          "Company Postage",
	ledger.ColDeliveryDate:     "Delivery Date",
}

var persianLabels = map[string]string{
	ledger.ColOrderID:          "سفارش",
	ledger.ColStatus:           "وضعيت",
	ledger.ColDatePaid:         "تاريخ پرداخت",
	ledger.ColCustomerID:       "کد مشتری",
	ledger.ColBillingName:      "نام و نام خانوادگی",
	ledger.ColPhone:            "تلفن",
	ledger.ColEmail:            "ايميل",
	ledger.ColBirthday:         "تولد",
	ledger.ColStateCity:        "استان، شهر",
	ledger.ColAddress:          "آدرس",
	ledger.ColPostcode:         "کد پستی",
	ledger.ColTotal:            "کل پرداخت",
	ledger.ColShipping:         "پست",
	ledger.ColDiscount:         "تخفيف",
	ledger.ColAdjustedDiscount: "تخفيف در سپيدار",
	ledger.ColProductSKU:       "SKU",
	ledger.ColItemName:         "نام محصول",
	ledger.ColQuantity:         "تعداد",
	ledger.ColItemTotal:        "مبلغ",
	ledger.ColExternalRef:      "کد سپيدار",
	ledger.ColDispatchDate:     "تاریخ ارسال",
	ledger.ColTrackingCode:     "کد رهگیری",
	ledger.ColPostalPayment:    "پرداختی شرکت بابت پست",
	ledger.ColPostage:          "هزینه پست شرکت",
	ledger.ColDeliveryDate:     "تاریخ تحویل",
}

var englishStatuses = map[string]string{
	"pending":    "Pending",
	"processing": "Processing",
	"on-hold":    "On-Hold",
	"box":        "Boxing",
	"completed":  "Completed",
	"cancelled":  "Cancelled",
	"refunded":   "Refunded",
	"failed":     "Failed",
	"deliver":    "Deliver",
}

var persianStatuses = map[string]string{
	"pending":    "در حال انتظار",
	"processing": "در حال پردازش",
	"on-hold":    "در انتظار",
	"box":        "در حال بسته‌بندی",
	"completed":  "تکمیل شده",
	"cancelled":  "لغو شده",
	"refunded":   "بازپرداخت شده",
	"failed":     "ناموفق",
	"deliver":    "ارسال شده",
}
