// Package dashboard reduces transaction lists into the figures the
// spending dashboard renders. It is purely read-side: no store access, no
// side effects.
package dashboard

import (
	"sort"
	"time"

	"github.com/ddaros/financas/internal/dates"
	"github.com/ddaros/financas/internal/domain"
)

// PeriodFilter restricts which transactions an aggregation covers. Zero
// values mean "unset": month+year hits one calendar month, year alone the
// full year, month alone that month in the current year. Both unset means
// everything.
type PeriodFilter struct {
	Month int // 1-12, 0 = unset
	Year  int // 0 = unset
}

// Bucket is one named slice of the total, for category and behavior charts.
type Bucket struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

// MonthBucket is one month's total, keyed "YYYY-MM".
type MonthBucket struct {
	Month string  `json:"month"`
	Value float64 `json:"value"`
}

// Summary is everything the dashboard shows for one period.
type Summary struct {
	TotalSpent      float64       `json:"totalSpent"`
	Count           int           `json:"transactionCount"`
	AvgAmount       float64       `json:"avgTransaction"`
	EssentialsTotal float64       `json:"essentials"`
	ByCategory      []Bucket      `json:"byCategory"`
	ByBehaviorClass []Bucket      `json:"byBehaviorClass"`
	ByMonth         []MonthBucket `json:"byMonth"`
}

// Aggregate filters txs by period and reduces them into a Summary. Sums are
// plain addition over Amount; the system is single-currency. Transactions
// without a category or behavior class land in the fallback buckets instead
// of being dropped.
func Aggregate(txs []*domain.Transaction, period PeriodFilter) Summary {
	return aggregateAt(txs, period, time.Now())
}

func aggregateAt(txs []*domain.Transaction, period PeriodFilter, now time.Time) Summary {
	s := Summary{
		ByCategory:      []Bucket{},
		ByBehaviorClass: []Bucket{},
		ByMonth:         []MonthBucket{},
	}

	byCategory := make(map[string]float64)
	byBehavior := make(map[string]float64)
	byMonth := make(map[string]float64)

	for _, t := range txs {
		if !period.matches(t.DateIncurred, now) {
			continue
		}

		s.TotalSpent += t.Amount
		s.Count++

		if t.BehaviorClass == domain.BehaviorEssential {
			s.EssentialsTotal += t.Amount
		}

		byCategory[t.CategoryOrFallback()] += t.Amount
		byBehavior[t.BehaviorOrFallback()] += t.Amount
		byMonth[dates.MonthKey(t.DateIncurred)] += t.Amount
	}

	if s.Count > 0 {
		s.AvgAmount = s.TotalSpent / float64(s.Count)
	}

	s.ByCategory = sortedBuckets(byCategory)
	s.ByBehaviorClass = sortedBuckets(byBehavior)
	s.ByMonth = sortedMonths(byMonth)

	return s
}

func (p PeriodFilter) matches(d time.Time, now time.Time) bool {
	switch {
	case p.Year != 0 && p.Month != 0:
		return d.Year() == p.Year && int(d.Month()) == p.Month
	case p.Year != 0:
		return d.Year() == p.Year
	case p.Month != 0:
		return d.Year() == now.Year() && int(d.Month()) == p.Month
	default:
		return true
	}
}

// sortedBuckets flattens a sum map into buckets ordered by descending value
// so the biggest slices render first; ties break on name for stable output.
func sortedBuckets(sums map[string]float64) []Bucket {
	out := make([]Bucket, 0, len(sums))
	for name, value := range sums {
		out = append(out, Bucket{Name: name, Value: value})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Value != out[j].Value {
			return out[i].Value > out[j].Value
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// sortedMonths flattens the month sums ascending by key; zero-padded months
// make the lexical order chronological.
func sortedMonths(sums map[string]float64) []MonthBucket {
	out := make([]MonthBucket, 0, len(sums))
	for month, value := range sums {
		out = append(out, MonthBucket{Month: month, Value: value})
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Month < out[j].Month
	})
	return out
}
