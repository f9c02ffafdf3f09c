package forecast

import (
	"context"
	"fmt"
	"regexp"

	"github.com/ddaros/financas/internal/dates"
	"github.com/ddaros/financas/internal/domain"
)

// installmentRef matches statement text like "Parcela 2/6" so every slot can
// carry its own position in the description.
var installmentRef = regexp.MustCompile(`\d+/\d+`)

// Expand materializes the full sibling set of an installment purchase: one
// row per slot from 1 to installment_total, past and future, each shifted a
// whole calendar month per slot from the statement-confirmed one. Slots that
// already exist in the store are skipped, so re-uploading the same statement
// is a no-op. Only the confirmed slot is verified; slots after it are
// forecasts pending confirmation.
//
// The returned rows are not persisted; the caller inserts them.
func Expand(ctx context.Context, store Store, ownerID string, tx *domain.Transaction) ([]*domain.Transaction, error) {
	if tx.InstallmentTotal < 1 || tx.InstallmentCurrent < 1 {
		return nil, fmt.Errorf("forecast: expand %q: installment fields must be >= 1", tx.Description)
	}
	if tx.InstallmentCurrent > tx.InstallmentTotal {
		return nil, fmt.Errorf("forecast: expand %q: installment %d/%d out of range",
			tx.Description, tx.InstallmentCurrent, tx.InstallmentTotal)
	}

	confirmed := tx.InstallmentCurrent
	total := tx.InstallmentTotal

	var out []*domain.Transaction
	for i := 1; i <= total; i++ {
		offset := i - confirmed

		slot := *tx
		slot.ID = ""
		slot.OwnerID = ownerID
		slot.DateIncurred = dates.AddMonths(tx.DateIncurred, offset)
		slot.DatePayment = dates.AddMonths(tx.DatePayment, offset)
		slot.Description = rewriteInstallmentRefs(tx.Description, i, total)
		slot.InstallmentCurrent = i
		slot.IsVerified = i == confirmed
		slot.IsForecast = i > confirmed
		slot.ForecastPaid = false
		slot.IsAutoGenerated = i != confirmed
		if i != confirmed {
			slot.SourceFile = domain.SourceInstallmentExpansion
		}

		exists, err := store.InstallmentSlotExists(ctx, ownerID, slot.Description, slot.Amount, i, total)
		if err != nil {
			return nil, fmt.Errorf("forecast: expand %q slot %d/%d: %w", tx.Description, i, total, err)
		}
		if exists {
			continue
		}

		out = append(out, &slot)
	}

	return out, nil
}

// rewriteInstallmentRefs rewrites every "<digits>/<digits>" substring in the
// description to the slot's own position, e.g. "Parcela 2/6" -> "Parcela 3/6"
// for slot 3. Descriptions without such a substring pass through unchanged.
func rewriteInstallmentRefs(description string, current, total int) string {
	return installmentRef.ReplaceAllString(description, fmt.Sprintf("%d/%d", current, total))
}
