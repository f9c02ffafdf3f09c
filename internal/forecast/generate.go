package forecast

import (
	"context"
	"fmt"
	"time"

	"github.com/ddaros/financas/internal/dates"
	"github.com/ddaros/financas/internal/domain"
	"github.com/ddaros/financas/internal/logger"
)

// minRecurrences is how many times a description must repeat before the
// generator treats it as a recurring charge.
const minRecurrences = 2

// Generate runs both forecasting passes for one owner and returns how many
// forecast rows were created. Both passes only ever add rows and skip
// anything already present, so re-running on an unchanged store creates
// nothing. A group that fails (bad anchor row, store error) is logged and
// skipped; it never aborts the rest of the pass.
func Generate(ctx context.Context, store Store, ownerID string) (int, error) {
	return generateAt(ctx, store, ownerID, time.Now())
}

func generateAt(ctx context.Context, store Store, ownerID string, now time.Time) (int, error) {
	log := logger.FromContext(ctx)

	created := 0

	// Pass 1: complete open installment purchases.
	groups, err := store.InstallmentGroups(ctx, ownerID)
	if err != nil {
		return 0, fmt.Errorf("forecast: installment groups: %w", err)
	}

	for _, g := range groups {
		n, err := completeInstallmentGroup(ctx, store, ownerID, g)
		if err != nil {
			log.Warn().Err(err).
				Str("description", g.Description).
				Int("installment_total", g.InstallmentTotal).
				Msg("Skipping installment group")
			continue
		}
		created += n
	}

	// Pass 2: project recurring charges one month ahead.
	recurring, err := store.RecurringGroups(ctx, ownerID, minRecurrences)
	if err != nil {
		return created, fmt.Errorf("forecast: recurring groups: %w", err)
	}

	for _, g := range recurring {
		n, err := projectRecurringGroup(ctx, store, ownerID, g, now)
		if err != nil {
			log.Warn().Err(err).
				Str("description", g.Description).
				Msg("Skipping recurring group")
			continue
		}
		created += n
	}

	return created, nil
}

// completeInstallmentGroup synthesizes forecast rows for the slots between
// the furthest realized installment and the total, dating each one whole
// months after the latest realized dates.
func completeInstallmentGroup(ctx context.Context, store Store, ownerID string, g InstallmentGroup) (int, error) {
	anchor, err := store.FirstByGroup(ctx, ownerID, g.Description, g.InstallmentTotal)
	if err != nil {
		return 0, err
	}
	if anchor == nil {
		// Group vanished between the group query and now; nothing to do.
		return 0, nil
	}

	created := 0
	for slot := g.MaxCurrent + 1; slot <= g.InstallmentTotal; slot++ {
		exists, err := store.ForecastSlotExists(ctx, ownerID, g.Description, slot, g.InstallmentTotal)
		if err != nil {
			return created, err
		}
		if exists {
			continue
		}

		offset := slot - g.MaxCurrent
		row := &domain.Transaction{
			OwnerID:            ownerID,
			DateIncurred:       dates.AddMonths(g.LatestIncurred, offset),
			DatePayment:        dates.AddMonths(g.LatestPayment, offset),
			Description:        anchor.Description,
			Amount:             anchor.Amount,
			Currency:           anchor.Currency,
			Category:           anchor.Category,
			BehaviorClass:      anchor.BehaviorClass,
			InstallmentCurrent: slot,
			InstallmentTotal:   g.InstallmentTotal,
			PaymentMethod:      anchor.PaymentMethod,
			Entity:             anchor.Entity,
			BankName:           anchor.BankName,
			CardName:           anchor.CardName,
			CardHolder:         anchor.CardHolder,
			SourceFile:         domain.SourceForecastInstallment,
			IsForecast:         true,
			ForecastPaid:       false,
			IsVerified:         false,
			IsAutoGenerated:    true,
		}

		if err := store.InsertTransactions(ctx, []*domain.Transaction{row}); err != nil {
			return created, err
		}
		created++
	}

	return created, nil
}

// projectRecurringGroup synthesizes at most one forecast for a repeating
// description: one month after its latest occurrence, at the average
// historical amount, but only when that date is still ahead and no forecast
// already covers it.
func projectRecurringGroup(ctx context.Context, store Store, ownerID string, g RecurringGroup, now time.Time) (int, error) {
	next := dates.AddMonths(g.LatestIncurred, 1)
	if !next.After(now) {
		return 0, nil
	}

	exists, err := store.ForecastExistsOnOrAfter(ctx, ownerID, g.Description, next)
	if err != nil {
		return 0, err
	}
	if exists {
		return 0, nil
	}

	anchor, err := store.FirstByDescription(ctx, ownerID, g.Description)
	if err != nil {
		return 0, err
	}
	if anchor == nil {
		return 0, nil
	}

	row := &domain.Transaction{
		OwnerID:            ownerID,
		DateIncurred:       next,
		DatePayment:        next,
		Description:        g.Description,
		Amount:             g.AvgAmount,
		Currency:           domain.Currency,
		Category:           anchor.Category,
		BehaviorClass:      anchor.BehaviorClass,
		InstallmentCurrent: 1,
		InstallmentTotal:   1,
		SourceFile:         domain.SourceForecastRecurring,
		IsForecast:         true,
		ForecastPaid:       false,
		IsVerified:         false,
		IsAutoGenerated:    true,
	}

	if err := store.InsertTransactions(ctx, []*domain.Transaction{row}); err != nil {
		return 0, err
	}
	return 1, nil
}
