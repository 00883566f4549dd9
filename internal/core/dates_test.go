package core

import (
	"testing"
	"time"
)

func TestMonthInterval(t *testing.T) {
	start, end := MonthInterval(2025, time.February)

	wantStart := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)
	wantEnd := time.Date(2025, 2, 28, 23, 59, 59, 0, time.UTC)

	if !start.Equal(wantStart) {
		t.Errorf("start = %v, want %v", start, wantStart)
	}
	if !end.Equal(wantEnd) {
		t.Errorf("end = %v, want %v", end, wantEnd)
	}
}

func TestClampDay(t *testing.T) {
	tests := []struct {
		name  string
		day   int
		year  int
		month time.Month
		want  int
	}{
		{"day 31 in february", 31, 2025, time.February, 28},
		{"day 31 in leap february", 31, 2024, time.February, 29},
		{"day 31 in april", 31, 2025, time.April, 30},
		{"day 15 untouched", 15, 2025, time.February, 15},
		{"day 31 in march untouched", 31, 2025, time.March, 31},
		{"zero day clamps to 1", 0, 2025, time.March, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ClampDay(tt.day, tt.year, tt.month); got != tt.want {
				t.Errorf("ClampDay(%d, %d, %v) = %d, want %d", tt.day, tt.year, tt.month, got, tt.want)
			}
		})
	}
}

func TestMonthLabel(t *testing.T) {
	if got := MonthLabel(2025, time.March); got != "March 2025" {
		t.Errorf("MonthLabel = %q, want %q", got, "March 2025")
	}
}
