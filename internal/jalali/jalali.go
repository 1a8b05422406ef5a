// Package jalali converts Gregorian timestamps to the Solar Hijri
// (Jalali) calendar dates used for ledger cells and month bucketing.
package jalali

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	ptime "github.com/yaa110/go-persian-calendar"
)

// Date is a Jalali calendar date.
type Date struct {
	Year  int
	Month int
	Day   int
}

// ErrEmptyTimestamp is returned when the input timestamp is empty.
var ErrEmptyTimestamp = errors.New("jalali: empty timestamp")

// FromTime converts the civil date of t.
func FromTime(t time.Time) Date {
	pt := ptime.New(t)
	return Date{Year: pt.Year(), Month: int(pt.Month()), Day: pt.Day()}
}

// FromISO converts the date part of an ISO-8601 timestamp such as
// "2024-10-01T14:22:11". The time part, when present, is ignored.
func FromISO(value string) (Date, error) {
	raw := strings.TrimSpace(value)
	if raw == "" {
		return Date{}, ErrEmptyTimestamp
	}
	if idx := strings.IndexByte(raw, 'T'); idx >= 0 {
		raw = raw[:idx]
	}
	parsed, err := time.ParseInLocation("2006-01-02", raw, time.UTC)
	if err != nil {
		return Date{}, fmt.Errorf("jalali: parse %q: %w", value, err)
	}
	return FromTime(parsed), nil
}

// ParseDisplay parses a YYYY/MM/DD cell value back into a date.
func ParseDisplay(value string) (Date, error) {
	parts := strings.Split(strings.TrimSpace(value), "/")
	if len(parts) != 3 {
		return Date{}, fmt.Errorf("jalali: malformed date cell %q", value)
	}
	var nums [3]int
	for i, part := range parts {
		n, err := strconv.Atoi(part)
		if err != nil {
			return Date{}, fmt.Errorf("jalali: malformed date cell %q", value)
		}
		nums[i] = n
	}
	if nums[1] < 1 || nums[1] > 12 || nums[2] < 1 || nums[2] > 31 {
		return Date{}, fmt.Errorf("jalali: date cell %q out of range", value)
	}
	return Date{Year: nums[0], Month: nums[1], Day: nums[2]}, nil
}

// Display renders the date as YYYY/MM/DD.
func (d Date) Display() string {
	return fmt.Sprintf("%d/%02d/%02d", d.Year, d.Month, d.Day)
}

// BucketKey renders the month key as YYYY-MM.
func (d Date) BucketKey() string {
	return fmt.Sprintf("%d-%02d", d.Year, d.Month)
}

// IsZero reports whether d holds no date.
func (d Date) IsZero() bool {
	return d.Year == 0 && d.Month == 0 && d.Day == 0
}

// MonthStart returns the Gregorian time of day 1 of the Jalali month that
// contains now shifted back by daysBack days. Fetch windows open here so a
// run always re-reads the whole current bucket.
func MonthStart(now time.Time, daysBack int) time.Time {
	ref := ptime.New(now.AddDate(0, 0, -daysBack))
	first := ptime.Date(ref.Year(), ref.Month(), 1, 0, 0, 0, 0, now.Location())
	return first.Time()
}
