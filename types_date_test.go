package poolfolio

import (
	"testing"
	"time"
)

func TestDate_Add(t *testing.T) {
	tests := []struct {
		name string
		d    Date
		days int
		want Date
	}{
		{"same month", NewDate(2025, time.March, 10), 5, NewDate(2025, time.March, 15)},
		{"across month", NewDate(2025, time.January, 30), 5, NewDate(2025, time.February, 4)},
		{"across year", NewDate(2025, time.December, 30), 5, NewDate(2026, time.January, 4)},
		{"backwards", NewDate(2025, time.March, 1), -1, NewDate(2025, time.February, 28)},
		{"leap day", NewDate(2024, time.February, 28), 1, NewDate(2024, time.February, 29)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.d.Add(tt.days); got != tt.want {
				t.Errorf("Add(%d) = %s, want %s", tt.days, got, tt.want)
			}
		})
	}
}

func TestDaysBetween(t *testing.T) {
	tests := []struct {
		name string
		a, b Date
		want int
	}{
		{"same day", NewDate(2025, time.June, 1), NewDate(2025, time.June, 1), 0},
		{"forward", NewDate(2025, time.June, 1), NewDate(2025, time.July, 1), 30},
		{"backward", NewDate(2025, time.July, 1), NewDate(2025, time.June, 1), -30},
		{"across leap day", NewDate(2024, time.February, 1), NewDate(2024, time.March, 1), 29},
		{"full year", NewDate(2024, time.June, 1), NewDate(2025, time.June, 1), 365},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DaysBetween(tt.a, tt.b); got != tt.want {
				t.Errorf("DaysBetween(%s, %s) = %d, want %d", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2025-7-1")
	if err != nil {
		t.Fatalf("ParseDate() error = %v", err)
	}
	if want := NewDate(2025, time.July, 1); d != want {
		t.Errorf("ParseDate() = %s, want %s", d, want)
	}
	if _, err := ParseDate("not-a-date"); err == nil {
		t.Error("ParseDate() accepted garbage")
	}
}

func TestDate_Compare(t *testing.T) {
	a, b := NewDate(2025, time.June, 1), NewDate(2025, time.June, 2)
	if a.Compare(b) >= 0 || b.Compare(a) <= 0 || a.Compare(a) != 0 {
		t.Errorf("Compare ordering broken: %d %d %d", a.Compare(b), b.Compare(a), a.Compare(a))
	}
}
