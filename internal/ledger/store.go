package ledger

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"wc-ledger/internal/jalali"
)

// Outcome reports what Upsert did with a row.
type Outcome int

const (
	RowUnchanged Outcome = iota
	RowInserted
	RowUpdated
)

// Store maintains the order ledger workbook: loading, upserting rows, month
// aggregation and atomic save. It is single-writer; callers serialize runs
// externally.
type Store struct {
	f      *excelize.File
	sheet  string
	path   string
	schema *Schema
	styles *styleSet
	labels AggregateLabels
	agg    *Aggregator
	logger *log.Logger

	index     map[int64]int
	lastRow   int
	finalized bool
}

// Open loads the workbook at path, creating a styled header-only sheet when
// the file does not exist yet. Trailing subtotal and grand total rows are
// stripped so the tail month bucket reopens for this run; everything else,
// manual annotations included, is left as found.
func Open(path string, schema *Schema, styleConf StyleConfig, labels AggregateLabels, logger *log.Logger) (*Store, error) {
	if path == "" {
		return nil, errors.New("ledger: empty path")
	}
	if schema == nil {
		return nil, ErrNilSchema
	}
	if labels.Subtotal == "" || labels.Grand == "" {
		return nil, errors.New("ledger: empty aggregate labels")
	}
	if logger == nil {
		logger = log.Default()
	}

	s := &Store{
		path:   path,
		schema: schema,
		labels: labels,
		agg:    NewAggregator(),
		logger: logger,
		index:  make(map[int64]int),
	}

	if _, err := os.Stat(path); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("ledger: stat %s: %w", path, err)
		}
		s.f = excelize.NewFile()
		s.sheet = s.f.GetSheetName(0)
		styles, err := styleConf.build(s.f)
		if err != nil {
			_ = s.f.Close()
			return nil, err
		}
		s.styles = styles
		if err := s.writeHeader(); err != nil {
			_ = s.f.Close()
			return nil, err
		}
		s.lastRow = 1
		logger.Printf("ledger %s not found, starting a new workbook", path)
		return s, nil
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("ledger: open %s: %w", path, err)
	}
	s.f = f
	s.sheet = f.GetSheetName(0)
	styles, err := styleConf.build(f)
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	s.styles = styles
	if err := s.load(); err != nil {
		_ = f.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) writeHeader() error {
	for i, label := range s.schema.Labels() {
		ref, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return fmt.Errorf("ledger: header cell %d: %w", i+1, err)
		}
		if err := s.f.SetCellStr(s.sheet, ref, label); err != nil {
			return fmt.Errorf("ledger: write header: %w", err)
		}
	}
	last, err := excelize.CoordinatesToCellName(s.schema.Len(), 1)
	if err != nil {
		return fmt.Errorf("ledger: header range: %w", err)
	}
	if err := s.f.SetCellStyle(s.sheet, "A1", last, s.styles.header); err != nil {
		return fmt.Errorf("ledger: style header: %w", err)
	}
	return nil
}

func (s *Store) load() error {
	rows, err := s.f.GetRows(s.sheet)
	if err != nil {
		return fmt.Errorf("ledger: read %s: %w", s.path, err)
	}
	if len(rows) == 0 {
		if err := s.writeHeader(); err != nil {
			return err
		}
		s.lastRow = 1
		return nil
	}
	if got := len(rows[0]); got != s.schema.Len() {
		return fmt.Errorf("ledger: %s header has %d columns, want %d", s.path, got, s.schema.Len())
	}

	addrPos := s.schema.Pos(ColAddress)
	idPos := s.schema.Pos(ColOrderID)
	datePos := s.schema.Pos(ColDatePaid)
	cell := func(row []string, pos int) string {
		if pos < 0 || pos >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[pos])
	}

	// The grand total row and the subtotal sealing the tail month are
	// regenerated every run. Rows that do not carry the labels stay put.
	n := len(rows)
	if n >= 2 && cell(rows[n-1], addrPos) == s.labels.Grand {
		if err := s.f.RemoveRow(s.sheet, n); err != nil {
			return fmt.Errorf("ledger: drop grand total row: %w", err)
		}
		n--
	}
	if n >= 2 && cell(rows[n-1], addrPos) == s.labels.Subtotal {
		if err := s.f.RemoveRow(s.sheet, n); err != nil {
			return fmt.Errorf("ledger: drop tail subtotal row: %w", err)
		}
		n--
	}

	var subtotals []int
	var open Bucket
	for i := 2; i <= n; i++ {
		row := rows[i-1]
		if cell(row, addrPos) == s.labels.Subtotal {
			subtotals = append(subtotals, i)
			open = Bucket{}
			continue
		}
		if open.Start == 0 {
			open.Start = i
		}
		idRaw := cell(row, idPos)
		if idRaw == "" {
			continue // line-item child row
		}
		id, err := strconv.ParseInt(idRaw, 10, 64)
		if err != nil {
			continue
		}
		if prev, ok := s.index[id]; ok {
			s.logger.Printf("ledger: duplicate order %d at rows %d and %d, keeping row %d", id, prev, i, i)
		}
		s.index[id] = i
		open.Count++
		if dateCell := cell(row, datePos); dateCell != "" {
			if d, derr := jalali.ParseDisplay(dateCell); derr == nil {
				open.Month = d.BucketKey()
			}
		}
	}

	s.lastRow = n
	if open.Count > 0 {
		s.agg.Restore(subtotals, &open)
	} else {
		s.agg.Restore(subtotals, nil)
	}
	s.logger.Printf("ledger loaded: %d orders, %d closed months, open tail month %q", len(s.index), len(subtotals), open.Month)
	return nil
}

// Upsert writes one projected row. An existing order has only its status,
// dispatch date, tracking code and delivery date cells refreshed; a new
// order is appended, closing the open month bucket first when its month
// differs. New rows without a paid date are refused with ErrDatelessRow.
func (s *Store) Upsert(row Row) (Outcome, error) {
	if s.finalized {
		return RowUnchanged, ErrFinalized
	}
	if len(row.Cells) != s.schema.Len() {
		return RowUnchanged, fmt.Errorf("ledger: row has %d cells, want %d", len(row.Cells), s.schema.Len())
	}
	if rowIdx, ok := s.index[row.OrderID]; ok {
		return s.update(rowIdx, row)
	}
	if row.MonthKey == "" {
		return RowUnchanged, ErrDatelessRow
	}
	if err := s.insert(row); err != nil {
		return RowUnchanged, err
	}
	return RowInserted, nil
}

func (s *Store) update(rowIdx int, row Row) (Outcome, error) {
	changed := false
	for _, key := range mutableColumns {
		ref := s.schema.Cell(key, rowIdx)
		current, err := s.f.GetCellValue(s.sheet, ref)
		if err != nil {
			return RowUnchanged, fmt.Errorf("ledger: read %s: %w", ref, err)
		}
		next := stringCell(row.Cells[s.schema.Pos(key)])
		if current == next {
			continue
		}
		s.logger.Printf("order %d: %s changed %q -> %q", row.OrderID, key, current, next)
		if err := s.f.SetCellStr(s.sheet, ref, next); err != nil {
			return RowUnchanged, fmt.Errorf("ledger: write %s: %w", ref, err)
		}
		changed = true
	}
	if changed {
		return RowUpdated, nil
	}
	return RowUnchanged, nil
}

func (s *Store) insert(row Row) error {
	if s.agg.ShouldClose(row.MonthKey) {
		if err := s.closeOpenBucket(); err != nil {
			return err
		}
	}
	rowIdx := s.lastRow + 1
	if err := s.writeParentRow(rowIdx, row); err != nil {
		return err
	}
	s.index[row.OrderID] = rowIdx
	s.lastRow = rowIdx
	s.agg.Track(row.MonthKey, rowIdx)

	for _, child := range row.Children {
		childIdx := s.lastRow + 1
		if err := s.writeChildRow(childIdx, child); err != nil {
			return err
		}
		s.lastRow = childIdx
	}
	return nil
}

func (s *Store) writeParentRow(rowIdx int, row Row) error {
	for i, key := range columnOrder {
		ref, err := excelize.CoordinatesToCellName(i+1, rowIdx)
		if err != nil {
			return fmt.Errorf("ledger: cell %d,%d: %w", i+1, rowIdx, err)
		}
		if key == ColPostage {
			formula := fmt.Sprintf("%s-%s", s.schema.Cell(ColTotal, rowIdx), s.schema.Cell(ColPostalPayment, rowIdx))
			if err := s.f.SetCellFormula(s.sheet, ref, formula); err != nil {
				return fmt.Errorf("ledger: formula %s: %w", ref, err)
			}
			continue
		}
		if textColumnSet[key] {
			if err := s.f.SetCellStr(s.sheet, ref, stringCell(row.Cells[i])); err != nil {
				return fmt.Errorf("ledger: write %s: %w", ref, err)
			}
			continue
		}
		if err := s.f.SetCellValue(s.sheet, ref, row.Cells[i]); err != nil {
			return fmt.Errorf("ledger: write %s: %w", ref, err)
		}
	}

	first := s.schema.Cell(ColOrderID, rowIdx)
	last := s.schema.Cell(ColDeliveryDate, rowIdx)
	if err := s.f.SetCellStyle(s.sheet, first, last, s.styles.orderBase); err != nil {
		return fmt.Errorf("ledger: style row %d: %w", rowIdx, err)
	}
	for _, key := range moneyColumns {
		ref := s.schema.Cell(key, rowIdx)
		styleID := s.styles.orderMoney
		if key == ColAdjustedDiscount && row.Discounted {
			styleID = s.styles.orderAlert
		}
		if err := s.f.SetCellStyle(s.sheet, ref, ref, styleID); err != nil {
			return fmt.Errorf("ledger: style %s: %w", ref, err)
		}
	}
	for _, key := range textColumns {
		ref := s.schema.Cell(key, rowIdx)
		if err := s.f.SetCellStyle(s.sheet, ref, ref, s.styles.orderText); err != nil {
			return fmt.Errorf("ledger: style %s: %w", ref, err)
		}
	}
	return nil
}

func (s *Store) writeChildRow(rowIdx int, cells []any) error {
	if len(cells) != s.schema.Len() {
		return fmt.Errorf("ledger: child row has %d cells, want %d", len(cells), s.schema.Len())
	}
	for i, key := range columnOrder {
		ref, err := excelize.CoordinatesToCellName(i+1, rowIdx)
		if err != nil {
			return fmt.Errorf("ledger: cell %d,%d: %w", i+1, rowIdx, err)
		}
		if key == ColProductSKU {
			// SKUs stay literal text so numeric ones keep leading zeros.
			if err := s.f.SetCellStr(s.sheet, ref, stringCell(cells[i])); err != nil {
				return fmt.Errorf("ledger: write %s: %w", ref, err)
			}
			continue
		}
		if err := s.f.SetCellValue(s.sheet, ref, cells[i]); err != nil {
			return fmt.Errorf("ledger: write %s: %w", ref, err)
		}
	}

	from := s.schema.Cell(ColAdjustedDiscount, rowIdx)
	to := s.schema.Cell(ColExternalRef, rowIdx)
	if err := s.f.SetCellStyle(s.sheet, from, to, s.styles.childText); err != nil {
		return fmt.Errorf("ledger: style row %d: %w", rowIdx, err)
	}
	itemRef := s.schema.Cell(ColItemTotal, rowIdx)
	if err := s.f.SetCellStyle(s.sheet, itemRef, itemRef, s.styles.childMoney); err != nil {
		return fmt.Errorf("ledger: style %s: %w", itemRef, err)
	}
	return nil
}

func (s *Store) closeOpenBucket() error {
	bucket, ok := s.agg.OpenBucket()
	if !ok {
		return nil
	}
	rowIdx := s.lastRow + 1
	if err := s.writeSubtotalRow(rowIdx, bucket); err != nil {
		return err
	}
	s.agg.CloseAt(rowIdx)
	s.lastRow = rowIdx
	s.logger.Printf("month %s closed: %d orders, subtotal row %d", bucket.Month, bucket.Count, rowIdx)
	return nil
}

func (s *Store) writeSubtotalRow(rowIdx int, bucket Bucket) error {
	first := s.schema.Cell(ColOrderID, rowIdx)
	last := s.schema.Cell(ColDeliveryDate, rowIdx)
	if err := s.f.SetCellStyle(s.sheet, first, last, s.styles.subtotalBase); err != nil {
		return fmt.Errorf("ledger: style row %d: %w", rowIdx, err)
	}
	if err := s.f.SetCellStr(s.sheet, s.schema.Cell(ColAddress, rowIdx), s.labels.Subtotal); err != nil {
		return fmt.Errorf("ledger: write subtotal label: %w", err)
	}
	countRef := s.schema.Cell(ColPostcode, rowIdx)
	if err := s.f.SetCellValue(s.sheet, countRef, bucket.Count); err != nil {
		return fmt.Errorf("ledger: write %s: %w", countRef, err)
	}
	if err := s.f.SetCellStyle(s.sheet, countRef, countRef, s.styles.subtotalCount); err != nil {
		return fmt.Errorf("ledger: style %s: %w", countRef, err)
	}

	lastData := rowIdx - 1
	for _, key := range summedColumns {
		letter := s.schema.Letter(key)
		ref := s.schema.Cell(key, rowIdx)
		formula := fmt.Sprintf("SUM(%s%d:%s%d)", letter, bucket.Start, letter, lastData)
		if err := s.f.SetCellFormula(s.sheet, ref, formula); err != nil {
			return fmt.Errorf("ledger: formula %s: %w", ref, err)
		}
		if err := s.f.SetCellStyle(s.sheet, ref, ref, s.styles.subtotalMoney); err != nil {
			return fmt.Errorf("ledger: style %s: %w", ref, err)
		}
	}
	return nil
}

// Finalize closes the open month bucket with one subtotal row, then writes
// the grand total row. Grand total cells sum the subtotal rows' cells, never
// the data rows, so manual corrections inside a closed month flow through
// the subtotal above them. A workbook without data rows gets neither row.
func (s *Store) Finalize() error {
	if s.finalized {
		return ErrFinalized
	}
	if err := s.closeOpenBucket(); err != nil {
		return err
	}
	s.finalized = true

	subs := s.agg.SubtotalRows()
	if len(subs) == 0 {
		return nil
	}
	rowIdx := s.lastRow + 1
	first := s.schema.Cell(ColOrderID, rowIdx)
	last := s.schema.Cell(ColDeliveryDate, rowIdx)
	if err := s.f.SetCellStyle(s.sheet, first, last, s.styles.grandBase); err != nil {
		return fmt.Errorf("ledger: style row %d: %w", rowIdx, err)
	}
	if err := s.f.SetCellStr(s.sheet, s.schema.Cell(ColAddress, rowIdx), s.labels.Grand); err != nil {
		return fmt.Errorf("ledger: write grand label: %w", err)
	}

	keys := append([]string{ColPostcode}, summedColumns...)
	for _, key := range keys {
		letter := s.schema.Letter(key)
		parts := make([]string, len(subs))
		for i, sub := range subs {
			parts[i] = fmt.Sprintf("%s%d", letter, sub)
		}
		ref := s.schema.Cell(key, rowIdx)
		if err := s.f.SetCellFormula(s.sheet, ref, strings.Join(parts, " + ")); err != nil {
			return fmt.Errorf("ledger: formula %s: %w", ref, err)
		}
		styleID := s.styles.grandMoney
		if key == ColPostcode {
			styleID = s.styles.grandCount
		}
		if err := s.f.SetCellStyle(s.sheet, ref, ref, styleID); err != nil {
			return fmt.Errorf("ledger: style %s: %w", ref, err)
		}
	}
	s.lastRow = rowIdx
	s.logger.Printf("grand total row written over %d month buckets", len(subs))
	return nil
}

// Save writes the workbook to a temp file in the ledger's directory and
// renames it over the target, so a crash never corrupts the previous file.
func (s *Store) Save() error {
	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, ".ledger-*.xlsx")
	if err != nil {
		return fmt.Errorf("ledger: temp file: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()
	if err := s.f.Write(tmp); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("ledger: write %s: %w", tmp.Name(), err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("ledger: sync %s: %w", tmp.Name(), err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("ledger: close %s: %w", tmp.Name(), err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("ledger: replace %s: %w", s.path, err)
	}
	return nil
}

// Close releases the underlying workbook.
func (s *Store) Close() error {
	return s.f.Close()
}

// Has reports whether an order id is already present.
func (s *Store) Has(orderID int64) bool {
	_, ok := s.index[orderID]
	return ok
}

// Len returns the number of indexed orders.
func (s *Store) Len() int { return len(s.index) }

// DataRows returns the parent and child rows currently in the sheet, header
// and aggregate rows excluded, each padded to schema width.
func (s *Store) DataRows() ([][]string, error) {
	rows, err := s.f.GetRows(s.sheet)
	if err != nil {
		return nil, fmt.Errorf("ledger: read %s: %w", s.path, err)
	}
	addrPos := s.schema.Pos(ColAddress)
	var out [][]string
	for i, row := range rows {
		if i == 0 {
			continue
		}
		padded := make([]string, s.schema.Len())
		copy(padded, row)
		label := strings.TrimSpace(padded[addrPos])
		if label == s.labels.Subtotal || label == s.labels.Grand {
			continue
		}
		out = append(out, padded)
	}
	return out, nil
}

var textColumnSet = func() map[string]bool {
	set := make(map[string]bool, len(textColumns))
	for _, key := range textColumns {
		set[key] = true
	}
	return set
}()

func stringCell(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	default:
		return fmt.Sprint(t)
	}
}
