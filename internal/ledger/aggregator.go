package ledger

// BucketState is the month aggregation state.
type BucketState int

const (
	// StateNoBucket means no month bucket is open.
	StateNoBucket BucketState = iota
	// StateBucketOpen means data rows are accumulating under an open month.
	StateBucketOpen
)

// Bucket describes the open month bucket's position in the sheet.
type Bucket struct {
	Month string
	Start int // first data row of the bucket, 1-based
	Count int // parent rows in the bucket
}

// Aggregator is the state machine deciding when month subtotal rows are
// emitted. It never touches the file: the store consults it before appending
// a parent row and reports back the sheet positions it wrote.
//
// Only inserts drive transitions. Updates to existing rows leave the state
// untouched, so editing an order in a closed month never splits a bucket.
type Aggregator struct {
	state     BucketState
	open      Bucket
	subtotals []int
}

// NewAggregator returns an aggregator with no open bucket.
func NewAggregator() *Aggregator {
	return &Aggregator{state: StateNoBucket}
}

// Restore primes the state machine from a reloaded sheet: the interior
// subtotal row positions in file order, plus the reopened tail bucket when
// the sheet ends in unclosed data rows.
func (a *Aggregator) Restore(subtotals []int, open *Bucket) {
	a.subtotals = append([]int(nil), subtotals...)
	if open != nil && open.Count > 0 {
		a.state = StateBucketOpen
		a.open = *open
	} else {
		a.state = StateNoBucket
		a.open = Bucket{}
	}
}

// State returns the current bucket state.
func (a *Aggregator) State() BucketState { return a.state }

// OpenBucket returns the open bucket, if any.
func (a *Aggregator) OpenBucket() (Bucket, bool) {
	if a.state != StateBucketOpen {
		return Bucket{}, false
	}
	return a.open, true
}

// ShouldClose reports whether inserting a row of monthKey requires closing
// the open bucket first.
func (a *Aggregator) ShouldClose(monthKey string) bool {
	return a.state == StateBucketOpen && a.open.Month != monthKey
}

// CloseAt closes the open bucket, recording the subtotal row that sealed it.
func (a *Aggregator) CloseAt(subtotalRow int) {
	if a.state != StateBucketOpen {
		return
	}
	a.subtotals = append(a.subtotals, subtotalRow)
	a.state = StateNoBucket
	a.open = Bucket{}
}

// Track counts a parent row inserted at rowIndex, opening a bucket when none
// is open.
func (a *Aggregator) Track(monthKey string, rowIndex int) {
	if a.state == StateNoBucket {
		a.state = StateBucketOpen
		a.open = Bucket{Month: monthKey, Start: rowIndex}
	}
	a.open.Count++
}

// SubtotalRows returns the subtotal row positions in file order.
func (a *Aggregator) SubtotalRows() []int {
	return append([]int(nil), a.subtotals...)
}
