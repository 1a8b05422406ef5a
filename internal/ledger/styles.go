package ledger

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

const (
	moneyFormat   = "#,0"
	textFormatID  = 49 // builtin "@" text format
	defaultBorder = 1  // thin
)

// StyleConfig carries the workbook's visual directives. Fills are RGB hex
// strings without a leading '#'.
type StyleConfig struct {
	HeaderFill   string  `yaml:"header_fill"`
	OrderFill    string  `yaml:"order_fill"`
	AlertFill    string  `yaml:"alert_fill"`
	SubtotalFill string  `yaml:"subtotal_fill"`
	GrandFill    string  `yaml:"grand_fill"`
	BorderStyle  int     `yaml:"border_style"`
	FontName     string  `yaml:"font_name"`
	FontSize     float64 `yaml:"font_size"`
}

// DefaultStyleConfig returns the stock palette.
func DefaultStyleConfig() StyleConfig {
	return StyleConfig{
		HeaderFill:   "DDEBF7",
		OrderFill:    "FFFFFF",
		AlertFill:    "FFC7CE",
		SubtotalFill: "FFF2CC",
		GrandFill:    "C6E0B4",
		BorderStyle:  defaultBorder,
		FontName:     "Calibri",
		FontSize:     11,
	}
}

// styleSet holds the resolved style ids for one open workbook. Style ids are
// file-scoped, so the set is rebuilt whenever a file is opened.
type styleSet struct {
	header int

	orderBase  int
	orderMoney int
	orderText  int
	orderAlert int

	childText  int
	childMoney int

	subtotalBase  int
	subtotalMoney int
	subtotalCount int

	grandBase  int
	grandMoney int
	grandCount int
}

func (c StyleConfig) build(f *excelize.File) (*styleSet, error) {
	if c.BorderStyle <= 0 {
		c.BorderStyle = defaultBorder
	}
	numFmt := moneyFormat
	font := &excelize.Font{Family: c.FontName, Size: c.FontSize}
	allBorders := []excelize.Border{
		{Type: "left", Color: "000000", Style: c.BorderStyle},
		{Type: "right", Color: "000000", Style: c.BorderStyle},
		{Type: "top", Color: "000000", Style: c.BorderStyle},
		{Type: "bottom", Color: "000000", Style: c.BorderStyle},
	}
	rightBorder := []excelize.Border{
		{Type: "right", Color: "000000", Style: c.BorderStyle},
	}
	center := &excelize.Alignment{Horizontal: "center"}

	fill := func(color string) excelize.Fill {
		return excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{color}}
	}

	set := &styleSet{}
	specs := []struct {
		id    *int
		style *excelize.Style
	}{
		{&set.header, &excelize.Style{Fill: fill(c.HeaderFill), Border: allBorders, Font: font}},

		{&set.orderBase, &excelize.Style{Fill: fill(c.OrderFill), Border: allBorders, Font: font}},
		{&set.orderMoney, &excelize.Style{Fill: fill(c.OrderFill), Border: allBorders, Font: font, CustomNumFmt: &numFmt}},
		{&set.orderText, &excelize.Style{Fill: fill(c.OrderFill), Border: allBorders, Font: font, NumFmt: textFormatID}},
		{&set.orderAlert, &excelize.Style{Fill: fill(c.AlertFill), Border: allBorders, Font: font, CustomNumFmt: &numFmt}},

		{&set.childText, &excelize.Style{Border: rightBorder, Font: font}},
		{&set.childMoney, &excelize.Style{Border: rightBorder, Font: font, CustomNumFmt: &numFmt}},

		{&set.subtotalBase, &excelize.Style{Fill: fill(c.SubtotalFill), Border: allBorders, Font: font}},
		{&set.subtotalMoney, &excelize.Style{Fill: fill(c.SubtotalFill), Border: allBorders, Font: font, CustomNumFmt: &numFmt}},
		{&set.subtotalCount, &excelize.Style{Fill: fill(c.SubtotalFill), Border: allBorders, Font: font, CustomNumFmt: &numFmt, Alignment: center}},

		{&set.grandBase, &excelize.Style{Fill: fill(c.GrandFill), Border: allBorders, Font: font}},
		{&set.grandMoney, &excelize.Style{Fill: fill(c.GrandFill), Border: allBorders, Font: font, CustomNumFmt: &numFmt}},
		{&set.grandCount, &excelize.Style{Fill: fill(c.GrandFill), Border: allBorders, Font: font, CustomNumFmt: &numFmt, Alignment: center}},
	}
	for _, spec := range specs {
		id, err := f.NewStyle(spec.style)
		if err != nil {
			return nil, fmt.Errorf("ledger: build style: %w", err)
		}
		*spec.id = id
	}
	return set, nil
}
