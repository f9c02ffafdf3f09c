// Package dates holds the calendar arithmetic shared by the installment
// expander and the recurrence forecaster, so the month-end edge case lives
// in exactly one place.
package dates

import (
	"time"
)

// AddMonths shifts d by n whole calendar months, preserving the day of
// month where possible. It follows Go's native normalization: Jan 31 + 1
// month becomes Mar 2 or Mar 3 depending on leap year, matching the
// rollover behavior the rest of the system was built around. Negative n
// shifts backwards.
func AddMonths(d time.Time, n int) time.Time {
	return d.AddDate(0, n, 0)
}

// MonthKey formats d as "YYYY-MM". Zero-padded months make lexical order
// equal chronological order, which the dashboard relies on for sorting.
func MonthKey(d time.Time) string {
	return d.Format("2006-01")
}
