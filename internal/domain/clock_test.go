package domain

import (
	"errors"
	"testing"
	"time"
)

func TestParseClock(t *testing.T) {
	cases := []struct {
		in      string
		want    Clock
		wantErr bool
	}{
		{"07:00", NewClock(7, 0), false},
		{"23:59", NewClock(23, 59), false},
		{" 12:30 ", NewClock(12, 30), false},
		{"24:00", 0, true},
		{"12:60", 0, true},
		{"noon", 0, true},
		{"", 0, true},
	}
	for _, c := range cases {
		got, err := ParseClock(c.in)
		if c.wantErr {
			if err == nil {
				t.Errorf("ParseClock(%q): expected error, got %v", c.in, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseClock(%q): %v", c.in, err)
			continue
		}
		if got != c.want {
			t.Errorf("ParseClock(%q) = %v, want %v", c.in, got, c.want)
		}
	}
}

func TestClockOffset(t *testing.T) {
	c := NewClock(12, 0)

	got, err := c.Offset(-40)
	if err != nil {
		t.Fatalf("offset -40: %v", err)
	}
	if got.String() != "11:20" {
		t.Fatalf("12:00 - 40m = %s, want 11:20", got)
	}

	got, err = c.Offset(20)
	if err != nil {
		t.Fatalf("offset +20: %v", err)
	}
	if got.String() != "12:20" {
		t.Fatalf("12:00 + 20m = %s, want 12:20", got)
	}
}

func TestClockOffsetOutOfRange(t *testing.T) {
	if _, err := NewClock(0, 10).Offset(-30); !errors.Is(err, ErrClockRange) {
		t.Fatalf("expected ErrClockRange going below midnight, got %v", err)
	}
	if _, err := NewClock(23, 50).Offset(30); !errors.Is(err, ErrClockRange) {
		t.Fatalf("expected ErrClockRange going past midnight, got %v", err)
	}
}

func TestClockAt(t *testing.T) {
	day := time.Date(2024, time.October, 24, 0, 0, 0, 0, time.UTC)
	got := NewClock(11, 20).At(day)
	want := time.Date(2024, time.October, 24, 11, 20, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("At = %v, want %v", got, want)
	}
}

func TestMidnight(t *testing.T) {
	loc, err := time.LoadLocation("Asia/Seoul")
	if err != nil {
		t.Fatalf("load tz: %v", err)
	}
	in := time.Date(2024, time.November, 24, 15, 42, 7, 0, loc)
	got := Midnight(in)
	if got.Hour() != 0 || got.Minute() != 0 || got.Second() != 0 {
		t.Fatalf("Midnight = %v, want start of day", got)
	}
	if got.Location() != loc {
		t.Fatalf("Midnight changed location to %v", got.Location())
	}
}
