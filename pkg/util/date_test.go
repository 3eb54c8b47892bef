package util

import (
	"testing"
	"time"
)

func TestParseDate(t *testing.T) {
	got, err := ParseDate("2024-10-10")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := time.Date(2024, 10, 10, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("unexpected time %v", got)
	}
}

func TestParseDateInvalid(t *testing.T) {
	if _, err := ParseDate("10/10/2024"); err == nil {
		t.Fatalf("expected error")
	}
}

func TestMidnightUTC(t *testing.T) {
	in := time.Date(2024, 10, 10, 15, 4, 5, 0, time.UTC)
	got := MidnightUTC(in)
	if got.Hour() != 0 || got.Day() != 10 {
		t.Fatalf("unexpected midnight %v", got)
	}
}

func TestIsWeekend(t *testing.T) {
	sat := time.Date(2024, 10, 12, 0, 0, 0, 0, time.UTC)
	mon := time.Date(2024, 10, 14, 0, 0, 0, 0, time.UTC)
	if !IsWeekend(sat) {
		t.Fatalf("saturday should be weekend")
	}
	if IsWeekend(mon) {
		t.Fatalf("monday should not be weekend")
	}
}
