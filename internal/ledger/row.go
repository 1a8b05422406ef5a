package ledger

// Row is one order projected into the ledger's cell layout. Cells holds one
// value per schema column; Children are line-item rows placed directly under
// the parent, same width.
type Row struct {
	OrderID    int64
	MonthKey   string
	Cells      []any
	Children   [][]any
	Discounted bool
}

// AggregateLabels are the display texts that mark subtotal and grand total
// rows. The store also uses them to recognize those rows when reloading.
type AggregateLabels struct {
	Subtotal string
	Grand    string
}
