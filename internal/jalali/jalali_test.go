package jalali

import (
	"errors"
	"testing"
	"time"
)

func TestFromISO(t *testing.T) {
	cases := []struct {
		in   string
		want Date
	}{
		{"2024-03-20T10:15:00", Date{1403, 1, 1}},
		{"2024-10-01T00:00:00", Date{1403, 7, 10}},
		{"2025-03-20", Date{1403, 12, 30}},
		{"2025-03-21T23:59:59", Date{1404, 1, 1}},
	}
	for _, tc := range cases {
		got, err := FromISO(tc.in)
		if err != nil {
			t.Fatalf("FromISO(%q): %v", tc.in, err)
		}
		if got != tc.want {
			t.Fatalf("FromISO(%q) = %+v, want %+v", tc.in, got, tc.want)
		}
	}
}

func TestFromISOEmpty(t *testing.T) {
	if _, err := FromISO("  "); !errors.Is(err, ErrEmptyTimestamp) {
		t.Fatalf("expected ErrEmptyTimestamp, got %v", err)
	}
}

func TestFromISOMalformed(t *testing.T) {
	for _, in := range []string{"20241001", "2024/10/01", "not-a-date"} {
		if _, err := FromISO(in); err == nil {
			t.Fatalf("FromISO(%q): expected error", in)
		}
	}
}

func TestDisplayAndBucketKey(t *testing.T) {
	d := Date{Year: 1403, Month: 7, Day: 10}
	if got := d.Display(); got != "1403/07/10" {
		t.Fatalf("Display = %q", got)
	}
	if got := d.BucketKey(); got != "1403-07" {
		t.Fatalf("BucketKey = %q", got)
	}
}

func TestParseDisplay(t *testing.T) {
	got, err := ParseDisplay("1403/07/10")
	if err != nil {
		t.Fatalf("ParseDisplay: %v", err)
	}
	if got != (Date{1403, 7, 10}) {
		t.Fatalf("ParseDisplay = %+v", got)
	}
	for _, in := range []string{"", "1403-07-10", "1403/13/01", "x/y/z"} {
		if _, err := ParseDisplay(in); err == nil {
			t.Fatalf("ParseDisplay(%q): expected error", in)
		}
	}
}

func TestDisplayRoundTrip(t *testing.T) {
	d, err := FromISO("2024-10-01T12:00:00")
	if err != nil {
		t.Fatalf("FromISO: %v", err)
	}
	back, err := ParseDisplay(d.Display())
	if err != nil {
		t.Fatalf("ParseDisplay: %v", err)
	}
	if back != d {
		t.Fatalf("round trip mismatch: %+v vs %+v", back, d)
	}
}

func TestMonthStart(t *testing.T) {
	now := time.Date(2024, 10, 5, 12, 0, 0, 0, time.UTC)

	got := MonthStart(now, 0)
	if got.Year() != 2024 || got.Month() != time.September || got.Day() != 22 {
		t.Fatalf("MonthStart(now, 0) = %s", got.Format("2006-01-02"))
	}

	got = MonthStart(now, 20)
	if got.Year() != 2024 || got.Month() != time.August || got.Day() != 22 {
		t.Fatalf("MonthStart(now, 20) = %s", got.Format("2006-01-02"))
	}
}
