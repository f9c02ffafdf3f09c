package dates

import (
	"testing"
	"time"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestAddMonths(t *testing.T) {
	tests := []struct {
		name string
		in   time.Time
		n    int
		want time.Time
	}{
		{
			name: "simple forward",
			in:   date(2024, time.January, 10),
			n:    1,
			want: date(2024, time.February, 10),
		},
		{
			name: "two months forward",
			in:   date(2024, time.January, 10),
			n:    2,
			want: date(2024, time.March, 10),
		},
		{
			name: "backwards",
			in:   date(2024, time.March, 15),
			n:    -2,
			want: date(2024, time.January, 15),
		},
		{
			name: "year boundary",
			in:   date(2023, time.December, 5),
			n:    1,
			want: date(2024, time.January, 5),
		},
		{
			name: "month-end rollover in leap year",
			in:   date(2024, time.January, 31),
			n:    1,
			want: date(2024, time.March, 2), // Feb 31 normalizes past Feb 29
		},
		{
			name: "month-end rollover in common year",
			in:   date(2023, time.January, 31),
			n:    1,
			want: date(2023, time.March, 3), // Feb 31 normalizes past Feb 28
		},
		{
			name: "31st into a 30-day month",
			in:   date(2024, time.March, 31),
			n:    1,
			want: date(2024, time.May, 1),
		},
		{
			name: "zero is identity",
			in:   date(2024, time.June, 18),
			n:    0,
			want: date(2024, time.June, 18),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := AddMonths(tt.in, tt.n)
			if !got.Equal(tt.want) {
				t.Errorf("AddMonths(%v, %d) = %v, want %v", tt.in, tt.n, got, tt.want)
			}
		})
	}
}

func TestMonthKey(t *testing.T) {
	tests := []struct {
		in   time.Time
		want string
	}{
		{date(2024, time.March, 1), "2024-03"},
		{date(2024, time.November, 30), "2024-11"},
		{date(1999, time.January, 15), "1999-01"},
	}

	for _, tt := range tests {
		if got := MonthKey(tt.in); got != tt.want {
			t.Errorf("MonthKey(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
