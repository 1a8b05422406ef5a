package ledger

import "errors"

var (
	// ErrDatelessRow is returned when a new row has no paid date to bucket by.
	ErrDatelessRow = errors.New("ledger: row has no paid date")
	// ErrNilSchema is returned when a component is built without a schema.
	ErrNilSchema = errors.New("ledger: nil schema")
	// ErrFinalized is returned when rows are touched after Finalize.
	ErrFinalized = errors.New("ledger: already finalized")
)
