// Package review labels freshly extracted transaction candidates against
// the owner's history, so the review screen can preselect genuinely new
// charges and leave probable re-uploads unchecked.
package review

import (
	"context"
	"fmt"
	"time"
)

// Match is the classification of a candidate against stored transactions.
type Match string

const (
	// MatchNew means nothing similar is stored; the review UI preselects it.
	MatchNew Match = "new"
	// MatchSimilar means a row with the same description and amount exists
	// on a different date, usually a recurring or installment charge seen
	// on a re-uploaded statement.
	MatchSimilar Match = "similar"
	// MatchExact means a row with the same description, amount and
	// purchase date is already stored.
	MatchExact Match = "exact"
)

// Preselected reports whether the review UI should check the candidate by
// default. Only genuinely new candidates are.
func (m Match) Preselected() bool {
	return m == MatchNew
}

// Store is the read-only lookup surface the classifier needs.
type Store interface {
	ExistsExact(ctx context.Context, ownerID, description string, amount float64, dateIncurred time.Time) (bool, error)
	ExistsSimilar(ctx context.Context, ownerID, description string, amount float64) (bool, error)
}

// Classify labels one candidate. The exact check runs before the similar
// check: exact matches satisfy the similar criteria too, and must never be
// reported as merely similar.
func Classify(ctx context.Context, store Store, ownerID, description string, amount float64, dateIncurred time.Time) (Match, error) {
	exact, err := store.ExistsExact(ctx, ownerID, description, amount, dateIncurred)
	if err != nil {
		return "", fmt.Errorf("review: exact lookup: %w", err)
	}
	if exact {
		return MatchExact, nil
	}

	similar, err := store.ExistsSimilar(ctx, ownerID, description, amount)
	if err != nil {
		return "", fmt.Errorf("review: similar lookup: %w", err)
	}
	if similar {
		return MatchSimilar, nil
	}

	return MatchNew, nil
}
