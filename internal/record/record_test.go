package record

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2024-02-29")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if d.String() != "2024-02-29" {
		t.Fatalf("unexpected string: %s", d)
	}
	if _, err := ParseDate("29/02/2024"); err == nil {
		t.Fatalf("expected error for non-ISO date")
	}
	if p, err := ParseOptionalDate("  "); err != nil || p != nil {
		t.Fatalf("expected nil for blank optional date, got %v %v", p, err)
	}
}

func TestDaysUntil(t *testing.T) {
	a := MustParseDate("2024-01-01")
	cases := []struct {
		to   string
		want int
	}{
		{"2024-01-01", 0},
		{"2024-02-01", 31},
		{"2024-05-01", 121},
		{"2023-12-31", -1},
	}
	for _, tc := range cases {
		if got := a.DaysUntil(MustParseDate(tc.to)); got != tc.want {
			t.Errorf("DaysUntil(%s) = %d, want %d", tc.to, got, tc.want)
		}
	}
	if got := a.AddDays(31).String(); got != "2024-02-01" {
		t.Fatalf("AddDays: %s", got)
	}
}

func TestDateOfIgnoresClock(t *testing.T) {
	loc := time.FixedZone("X", 5*3600)
	d := DateOf(time.Date(2024, 3, 10, 23, 59, 0, 0, loc))
	if d.String() != "2024-03-10" {
		t.Fatalf("unexpected date %s", d)
	}
}

func TestDateJSON(t *testing.T) {
	rec := New("W1", "Frac Execution", Ptr(MustParseDate("2024-01-10")), nil)
	b, err := json.Marshal(rec)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !strings.Contains(string(b), `"start_date":"2024-01-10"`) || !strings.Contains(string(b), `"end_date":null`) {
		t.Fatalf("unexpected json: %s", b)
	}
	var back Record
	if err := json.Unmarshal([]byte(`{"well":"W1","process":"P","start_date":"2024-01-10","end_date":null}`), &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if back.Start == nil || back.Start.String() != "2024-01-10" || back.End != nil {
		t.Fatalf("unexpected record: %+v", back)
	}
	if err := json.Unmarshal([]byte(`{"start_date":"10-01-2024"}`), &back); err == nil {
		t.Fatalf("expected error for malformed date")
	}
}

func TestDateScan(t *testing.T) {
	var d Date
	if err := d.Scan("2024-01-10"); err != nil || d.String() != "2024-01-10" {
		t.Fatalf("scan string: %v %s", err, d)
	}
	if err := d.Scan([]byte("2024-01-11T00:00:00Z")); err != nil || d.String() != "2024-01-11" {
		t.Fatalf("scan bytes: %v %s", err, d)
	}
	if err := d.Scan(time.Date(2024, 1, 12, 0, 0, 0, 0, time.UTC)); err != nil || d.String() != "2024-01-12" {
		t.Fatalf("scan time: %v %s", err, d)
	}
	if err := d.Scan(42); err == nil {
		t.Fatalf("expected error scanning int")
	}
	v, err := MustParseDate("2024-01-10").Value()
	if err != nil || v != "2024-01-10" {
		t.Fatalf("value: %v %v", v, err)
	}
}

func TestValidate(t *testing.T) {
	start := MustParseDate("2024-01-10")
	end := MustParseDate("2024-01-09")

	if err := New("W1", "P", &start, &start).Validate(); err != nil {
		t.Fatalf("same-day record should be valid: %v", err)
	}
	if err := New("W1", "P", &start, nil).Validate(); err != nil {
		t.Fatalf("in-progress record should be valid: %v", err)
	}
	err := New("W1", "Frac Execution", &start, &end).Validate()
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if ve.Process != "Frac Execution" || !strings.Contains(err.Error(), "Frac Execution") {
		t.Fatalf("unexpected validation error: %v", err)
	}
	if err := New("", "P", nil, nil).Validate(); err == nil {
		t.Fatalf("expected error for empty well")
	}
	if err := New("W1", " ", nil, nil).Validate(); err == nil {
		t.Fatalf("expected error for empty process")
	}
}

func TestNewCopiesDates(t *testing.T) {
	d := MustParseDate("2024-01-10")
	rec := New("W1", "P", &d, nil)
	d = d.AddDays(5)
	if rec.Start.String() != "2024-01-10" {
		t.Fatalf("record aliased caller date: %s", rec.Start)
	}
	if !rec.InProgress() || rec.Complete() {
		t.Fatalf("unexpected state flags")
	}
	if rec.Key().String() != "W1/P" {
		t.Fatalf("unexpected key %s", rec.Key())
	}
}
