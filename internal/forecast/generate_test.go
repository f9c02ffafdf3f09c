package forecast

import (
	"context"
	"testing"
	"time"

	"github.com/ddaros/financas/internal/domain"
)

func spotifyRow(d time.Time) *domain.Transaction {
	return &domain.Transaction{
		OwnerID:            "diego",
		Description:        "Spotify",
		Amount:             21.90,
		Currency:           domain.Currency,
		Category:           "Assinaturas",
		BehaviorClass:      domain.BehaviorLeisure,
		DateIncurred:       d,
		DatePayment:        d,
		InstallmentCurrent: 1,
		InstallmentTotal:   1,
	}
}

func installmentRow(desc string, current, total int, d time.Time) *domain.Transaction {
	return &domain.Transaction{
		OwnerID:            "diego",
		Description:        desc,
		Amount:             120.00,
		Currency:           domain.Currency,
		Category:           "Eletrônicos",
		BehaviorClass:      domain.BehaviorSuperfluous,
		DateIncurred:       d,
		DatePayment:        d,
		InstallmentCurrent: current,
		InstallmentTotal:   total,
	}
}

func TestGenerate_CompletesInstallments(t *testing.T) {
	now := day(2024, time.March, 1)
	store := &fakeStore{rows: []*domain.Transaction{
		installmentRow("Fogão 1/4", 1, 4, day(2024, time.January, 15)),
		installmentRow("Fogão 2/4", 2, 4, day(2024, time.February, 15)),
	}}

	// Groups are keyed by description; each slot keeps its own rewritten
	// description, so the group matching here uses the raw descriptions.
	created, err := generateAt(context.Background(), store, "diego", now)
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}

	// "Fogão 1/4" (total 4, max slot 1) projects slots 2..4; "Fogão 2/4"
	// projects 3..4. Each description is its own group.
	if created != 5 {
		t.Fatalf("created = %d, want 5", created)
	}

	var forecasts int
	for _, r := range store.rows {
		if !r.IsForecast {
			continue
		}
		forecasts++
		if !r.IsAutoGenerated || r.IsVerified || r.ForecastPaid {
			t.Errorf("forecast row %q has wrong flags: %+v", r.Description, r)
		}
		if r.SourceFile != domain.SourceForecastInstallment {
			t.Errorf("forecast row source = %q, want %q", r.SourceFile, domain.SourceForecastInstallment)
		}
		if r.Category != "Eletrônicos" || r.BehaviorClass != domain.BehaviorSuperfluous {
			t.Errorf("forecast row did not copy anchor metadata: %+v", r)
		}
	}
	if forecasts != 5 {
		t.Errorf("store holds %d forecast rows, want 5", forecasts)
	}
}

func TestGenerate_InstallmentDatesShiftByMonths(t *testing.T) {
	now := day(2024, time.March, 1)
	store := &fakeStore{rows: []*domain.Transaction{
		installmentRow("Sofá", 2, 4, day(2024, time.February, 10)),
	}}

	if _, err := generateAt(context.Background(), store, "diego", now); err != nil {
		t.Fatalf("generate failed: %v", err)
	}

	wantDates := map[int]time.Time{
		3: day(2024, time.March, 10),
		4: day(2024, time.April, 10),
	}
	for _, r := range store.rows {
		if !r.IsForecast {
			continue
		}
		want, ok := wantDates[r.InstallmentCurrent]
		if !ok {
			t.Errorf("unexpected forecast slot %d", r.InstallmentCurrent)
			continue
		}
		if !r.DateIncurred.Equal(want) {
			t.Errorf("slot %d date_incurred = %v, want %v", r.InstallmentCurrent, r.DateIncurred, want)
		}
	}
}

func TestGenerate_RecurringSpotify(t *testing.T) {
	now := day(2024, time.March, 20)
	store := &fakeStore{rows: []*domain.Transaction{
		spotifyRow(day(2024, time.January, 5)),
		spotifyRow(day(2024, time.February, 5)),
		spotifyRow(day(2024, time.March, 5)),
	}}

	created, err := generateAt(context.Background(), store, "diego", now)
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}
	if created != 1 {
		t.Fatalf("created = %d, want exactly 1", created)
	}

	var fc *domain.Transaction
	for _, r := range store.rows {
		if r.IsForecast {
			fc = r
		}
	}
	if fc == nil {
		t.Fatal("no forecast row created")
	}
	if !fc.DateIncurred.Equal(day(2024, time.April, 5)) {
		t.Errorf("forecast date = %v, want one month after latest (2024-04-05)", fc.DateIncurred)
	}
	if fc.Amount != 21.90 {
		t.Errorf("forecast amount = %v, want the average 21.90", fc.Amount)
	}
	if fc.InstallmentCurrent != 1 || fc.InstallmentTotal != 1 {
		t.Errorf("forecast installments = %d/%d, want 1/1", fc.InstallmentCurrent, fc.InstallmentTotal)
	}
	if fc.SourceFile != domain.SourceForecastRecurring {
		t.Errorf("forecast source = %q, want %q", fc.SourceFile, domain.SourceForecastRecurring)
	}
	if fc.Category != "Assinaturas" || fc.BehaviorClass != domain.BehaviorLeisure {
		t.Errorf("forecast did not copy anchor metadata: %+v", fc)
	}
}

func TestGenerate_RecurringIncludesCompletedInstallments(t *testing.T) {
	// A paid-off installment purchase whose description repeats still
	// counts as a recurring charge: the installment pass has nothing left
	// to complete, but the recurrence pass projects the next month.
	now := day(2024, time.March, 20)
	store := &fakeStore{rows: []*domain.Transaction{
		installmentRow("Academia", 1, 3, day(2024, time.January, 8)),
		installmentRow("Academia", 2, 3, day(2024, time.February, 8)),
		installmentRow("Academia", 3, 3, day(2024, time.March, 8)),
	}}

	created, err := generateAt(context.Background(), store, "diego", now)
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}
	if created != 1 {
		t.Fatalf("created = %d, want 1 recurring projection", created)
	}

	var fc *domain.Transaction
	for _, r := range store.rows {
		if r.IsForecast {
			fc = r
		}
	}
	if fc == nil {
		t.Fatal("no forecast row created")
	}
	if fc.SourceFile != domain.SourceForecastRecurring {
		t.Errorf("forecast source = %q, want %q", fc.SourceFile, domain.SourceForecastRecurring)
	}
	if !fc.DateIncurred.Equal(day(2024, time.April, 8)) {
		t.Errorf("forecast date = %v, want one month after latest (2024-04-08)", fc.DateIncurred)
	}
	if fc.InstallmentCurrent != 1 || fc.InstallmentTotal != 1 {
		t.Errorf("forecast installments = %d/%d, want 1/1", fc.InstallmentCurrent, fc.InstallmentTotal)
	}
}

func TestGenerate_RecurringSkipsPastProjection(t *testing.T) {
	// Latest occurrence long ago: projection lands in the past, so no row.
	now := day(2024, time.June, 1)
	store := &fakeStore{rows: []*domain.Transaction{
		spotifyRow(day(2024, time.January, 5)),
		spotifyRow(day(2024, time.February, 5)),
	}}

	created, err := generateAt(context.Background(), store, "diego", now)
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}
	if created != 0 {
		t.Errorf("created = %d, want 0 when projection is not in the future", created)
	}
}

func TestGenerate_Idempotent(t *testing.T) {
	now := day(2024, time.March, 20)
	store := &fakeStore{rows: []*domain.Transaction{
		spotifyRow(day(2024, time.February, 5)),
		spotifyRow(day(2024, time.March, 5)),
		installmentRow("Sofá", 1, 3, day(2024, time.March, 1)),
	}}

	first, err := generateAt(context.Background(), store, "diego", now)
	if err != nil {
		t.Fatalf("first generate failed: %v", err)
	}
	if first == 0 {
		t.Fatal("first generate created nothing, expected forecasts")
	}

	second, err := generateAt(context.Background(), store, "diego", now)
	if err != nil {
		t.Fatalf("second generate failed: %v", err)
	}
	if second != 0 {
		t.Errorf("second generate created %d rows, want 0", second)
	}
}

func TestGenerate_OwnerScoped(t *testing.T) {
	now := day(2024, time.March, 20)
	other := spotifyRow(day(2024, time.February, 5))
	other.OwnerID = "someone-else"
	store := &fakeStore{rows: []*domain.Transaction{
		other,
		spotifyRow(day(2024, time.March, 5)),
	}}

	// Only one Spotify row belongs to diego, below the recurrence minimum.
	created, err := generateAt(context.Background(), store, "diego", now)
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}
	if created != 0 {
		t.Errorf("created = %d, want 0: another owner's rows must not count", created)
	}
}

func TestGenerate_GroupFailureDoesNotAbortPass(t *testing.T) {
	now := day(2024, time.March, 20)
	store := &fakeStore{
		rows: []*domain.Transaction{
			spotifyRow(day(2024, time.February, 5)),
			spotifyRow(day(2024, time.March, 5)),
			{
				OwnerID: "diego", Description: "Netflix", Amount: 55.90,
				Currency: domain.Currency, InstallmentCurrent: 1, InstallmentTotal: 1,
				DateIncurred: day(2024, time.February, 12), DatePayment: day(2024, time.February, 12),
			},
			{
				OwnerID: "diego", Description: "Netflix", Amount: 55.90,
				Currency: domain.Currency, InstallmentCurrent: 1, InstallmentTotal: 1,
				DateIncurred: day(2024, time.March, 12), DatePayment: day(2024, time.March, 12),
			},
		},
		failInsertDescription: "Spotify",
	}

	created, err := generateAt(context.Background(), store, "diego", now)
	if err != nil {
		t.Fatalf("generate returned error, want graceful skip: %v", err)
	}
	if created != 1 {
		t.Errorf("created = %d, want 1 (Netflix group succeeds, Spotify group skipped)", created)
	}
}
