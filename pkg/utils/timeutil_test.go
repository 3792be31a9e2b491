package utils

import (
	"reflect"
	"testing"
	"time"
)

func TestIsDate(t *testing.T) {
	tests := []struct {
		input    string
		expected bool
	}{
		{"2023-01-01", true},
		{"2021-03-30", true},
		{"not-a-date", false},
		{"2023-1-1", false},
		{"2023-01-01T00:00:00Z", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := IsDate(tt.input); got != tt.expected {
			t.Errorf("IsDate(%q) = %v, want %v", tt.input, got, tt.expected)
		}
	}
}

func TestDaysInRangeInclusiveAscending(t *testing.T) {
	got, err := DaysInRange("2021-02-27", "2021-03-02")
	if err != nil {
		t.Fatalf("DaysInRange error: %v", err)
	}
	want := []string{"2021-02-27", "2021-02-28", "2021-03-01", "2021-03-02"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("DaysInRange = %v, want %v", got, want)
	}
}

func TestDaysInRangeSingleDay(t *testing.T) {
	got, err := DaysInRange("2021-03-30", "2021-03-30")
	if err != nil {
		t.Fatalf("DaysInRange error: %v", err)
	}
	if len(got) != 1 || got[0] != "2021-03-30" {
		t.Errorf("DaysInRange single day = %v, want [2021-03-30]", got)
	}
}

func TestDaysInRangeErrors(t *testing.T) {
	if _, err := DaysInRange("2021-03-31", "2021-03-30"); err == nil {
		t.Error("expected error when start is after end")
	}
	if _, err := DaysInRange("yesterday", "2021-03-30"); err == nil {
		t.Error("expected error for malformed start")
	}
	if _, err := DaysInRange("2021-03-30", "2021-3-31"); err == nil {
		t.Error("expected error for malformed end")
	}
}

func TestPublishedDate(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"2021-03-30T14:05:00Z", "2021-03-30"},
		{"2021-03-30T23:59:59.123Z", "2021-03-30"},
		{"2021-03-30T01:00:00+05:30", "2021-03-29"},
	}
	for _, tt := range tests {
		got, err := PublishedDate(tt.input)
		if err != nil {
			t.Errorf("PublishedDate(%q) error: %v", tt.input, err)
			continue
		}
		if got != tt.expected {
			t.Errorf("PublishedDate(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
	if _, err := PublishedDate("March 30"); err == nil {
		t.Error("expected error for unparseable timestamp")
	}
}

func TestDefaultRange(t *testing.T) {
	now := time.Date(2021, 3, 1, 8, 0, 0, 0, time.UTC)
	start, end := DefaultRange(now)
	if start != "2021-02-28" || end != "2021-03-01" {
		t.Errorf("DefaultRange = (%s, %s), want (2021-02-28, 2021-03-01)", start, end)
	}
}

func TestStartOfDayUTC(t *testing.T) {
	if got := StartOfDayUTC("2021-03-30"); got != "2021-03-30T00:00:00Z" {
		t.Errorf("StartOfDayUTC = %q", got)
	}
}
