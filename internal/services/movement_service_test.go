package services

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"hogar/internal/core"
	"hogar/internal/ledger"
	"hogar/internal/storage"
)

func newTestService(t *testing.T) *MovementService {
	t.Helper()

	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewSQLiteRepository() error = %v", err)
	}
	t.Cleanup(func() { repo.Close() })

	members := core.NewMemberDirectory([]core.Member{
		{ID: "ale", Label: "ALE"},
		{ID: "silvi", Label: "SILVI"},
	})

	// nil AMQP client: publishing is skipped, requests still succeed
	return NewMovementService(repo, nil, members)
}

func testMovement() core.Movement {
	return core.Movement{
		Type:          core.Gasto,
		Amount:        core.Money{Cents: 150000},
		Category:      "🛒 Alimentación",
		Description:   "Supermercado",
		PaymentMethod: "💳 Tarjeta de débito",
		Date:          core.Date{Year: 2025, Month: 4, Day: 12},
		UserID:        "ale",
	}
}

func TestMovementService_Create(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, testMovement())
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if created.ID == 0 {
		t.Error("created movement should have an id")
	}
	if created.Status != core.StatusConfirmed {
		t.Errorf("Status = %s, empty status defaults to CONFIRMED", created.Status)
	}
	if created.TotalInstallments != 1 || created.InstallmentNumber != 1 {
		t.Errorf("installments = %d/%d, want 1/1",
			created.InstallmentNumber, created.TotalInstallments)
	}
	if created.Version != 1 {
		t.Errorf("Version = %d, want 1", created.Version)
	}
}

func TestMovementService_Create_Validation(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	tests := []struct {
		name    string
		mutate  func(*core.Movement)
		wantErr error
	}{
		{
			name:    "unknown type",
			mutate:  func(m *core.Movement) { m.Type = "PRESTAMO" },
			wantErr: core.ErrInvalidType,
		},
		{
			name:    "zero amount",
			mutate:  func(m *core.Movement) { m.Amount.Cents = 0 },
			wantErr: core.ErrInvalidAmount,
		},
		{
			name:    "negative amount",
			mutate:  func(m *core.Movement) { m.Amount.Cents = -100 },
			wantErr: core.ErrInvalidAmount,
		},
		{
			name:    "blank description",
			mutate:  func(m *core.Movement) { m.Description = "   " },
			wantErr: core.ErrEmptyDescription,
		},
		{
			name:    "missing category",
			mutate:  func(m *core.Movement) { m.Category = "" },
			wantErr: core.ErrEmptyCategory,
		},
		{
			name:    "unconfigured member",
			mutate:  func(m *core.Movement) { m.UserID = "nadie" },
			wantErr: core.ErrEmptyUser,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := testMovement()
			tt.mutate(&m)

			_, err := svc.Create(ctx, m)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Create() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestMovementService_Create_Installments(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	m := testMovement()
	m.Amount = core.Money{Cents: 120000}
	m.Date = core.Date{Year: 2025, Month: 1, Day: 31}
	m.TotalInstallments = 3

	first, err := svc.Create(ctx, m)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if first.InstallmentNumber != 1 {
		t.Errorf("Create returns the first installment, got number %d", first.InstallmentNumber)
	}
	if first.Status != core.StatusConfirmed {
		t.Errorf("first installment status = %s, want CONFIRMED", first.Status)
	}
	if first.GroupID == "" {
		t.Error("first installment should carry the group id")
	}

	all, err := svc.List(ctx, ledger.Filter{})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("stored %d movements, want 3", len(all))
	}

	// List is newest-date first, so the plan comes back in reverse.
	wantDates := []string{"2025-03-31", "2025-02-28", "2025-01-31"}
	wantStatus := []core.Status{core.StatusPending, core.StatusPending, core.StatusConfirmed}
	for i, got := range all {
		if got.Date.String() != wantDates[i] {
			t.Errorf("movement %d date = %s, want %s", i, got.Date.String(), wantDates[i])
		}
		if got.Status != wantStatus[i] {
			t.Errorf("movement %d status = %s, want %s", i, got.Status, wantStatus[i])
		}
		if got.GroupID != first.GroupID {
			t.Errorf("movement %d group = %q, want %q", i, got.GroupID, first.GroupID)
		}
		if got.Amount.Cents != 120000 {
			t.Errorf("movement %d amount = %d, want full amount on each", i, got.Amount.Cents)
		}
	}
}

func TestMovementService_Confirm(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	m := testMovement()
	m.Status = core.StatusPending
	created, err := svc.Create(ctx, m)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	confirmed, err := svc.Confirm(ctx, created.ID)
	if err != nil {
		t.Fatalf("Confirm() error = %v", err)
	}
	if confirmed.Status != core.StatusConfirmed {
		t.Errorf("Status = %s, want CONFIRMED", confirmed.Status)
	}

	// idempotent
	again, err := svc.Confirm(ctx, created.ID)
	if err != nil {
		t.Fatalf("second Confirm() error = %v", err)
	}
	if again.Status != core.StatusConfirmed {
		t.Errorf("Status after second confirm = %s", again.Status)
	}

	if _, err := svc.Confirm(ctx, 99999); !errors.Is(err, ledger.ErrNotFound) {
		t.Errorf("Confirm(missing) error = %v, want ErrNotFound", err)
	}
}

func TestMovementService_Update(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, testMovement())
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	newAmount := int64(99900)
	newDesc := "Supermercado y farmacia"
	updated, err := svc.Update(ctx, created.ID, ledger.Patch{
		AmountCents: &newAmount,
		Description: &newDesc,
	})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	if updated.Amount.Cents != 99900 {
		t.Errorf("Amount = %d, want 99900", updated.Amount.Cents)
	}
	if updated.Description != newDesc {
		t.Errorf("Description = %q, want %q", updated.Description, newDesc)
	}
	if updated.Category != created.Category {
		t.Errorf("Category changed to %q, untouched fields must survive", updated.Category)
	}
	if updated.Version != created.Version+1 {
		t.Errorf("Version = %d, want %d", updated.Version, created.Version+1)
	}

	bad := int64(-5)
	if _, err := svc.Update(ctx, created.ID, ledger.Patch{AmountCents: &bad}); !errors.Is(err, core.ErrInvalidAmount) {
		t.Errorf("Update(negative amount) error = %v, want ErrInvalidAmount", err)
	}

	if _, err := svc.Update(ctx, 99999, ledger.Patch{Description: &newDesc}); !errors.Is(err, ledger.ErrNotFound) {
		t.Errorf("Update(missing) error = %v, want ErrNotFound", err)
	}
}

func TestMovementService_Delete(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, testMovement())
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if err := svc.Delete(ctx, created.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if err := svc.Delete(ctx, created.ID); !errors.Is(err, ledger.ErrNotFound) {
		t.Errorf("second Delete() error = %v, want ErrNotFound", err)
	}
}

func TestMovementService_Summary(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	seed := []struct {
		typ    core.MovementType
		cents  int64
		status core.Status
		user   string
	}{
		{core.Ingreso, 1000000, core.StatusConfirmed, "ale"},
		{core.Gasto, 300000, core.StatusConfirmed, "ale"},
		{core.Emergencia, 50000, core.StatusConfirmed, "silvi"},
		{core.Ahorro, 100000, core.StatusConfirmed, "silvi"},
		{core.Gasto, 999999, core.StatusPending, "ale"}, // excluded
	}
	for _, s := range seed {
		m := testMovement()
		m.Type = s.typ
		m.Amount = core.Money{Cents: s.cents}
		m.Status = s.status
		m.UserID = s.user
		if _, err := svc.Create(ctx, m); err != nil {
			t.Fatalf("seed Create() error = %v", err)
		}
	}

	got, err := svc.Summary(ctx)
	if err != nil {
		t.Fatalf("Summary() error = %v", err)
	}

	if got.Income.Cents != 1000000 {
		t.Errorf("Income = %d, want 1000000", got.Income.Cents)
	}
	if got.Expenses.Cents != 300000 {
		t.Errorf("Expenses = %d, pending movements must not count", got.Expenses.Cents)
	}
	if got.Emergency.Cents != 50000 {
		t.Errorf("Emergency = %d, want 50000", got.Emergency.Cents)
	}
	if got.Savings.Cents != 100000 {
		t.Errorf("Savings = %d, want 100000", got.Savings.Cents)
	}
	if got.Balance.Cents != 550000 {
		t.Errorf("Balance = %d, want 550000", got.Balance.Cents)
	}
}

func TestMovementService_Monthly(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	seed := []struct {
		typ   core.MovementType
		cents int64
		date  core.Date
	}{
		{core.Ingreso, 500000, core.Date{Year: 2025, Month: 1, Day: 5}},
		{core.Gasto, 200000, core.Date{Year: 2025, Month: 1, Day: 20}},
		{core.Gasto, 80000, core.Date{Year: 2025, Month: 7, Day: 3}},
		{core.Ahorro, 70000, core.Date{Year: 2025, Month: 1, Day: 9}},  // excluded type
		{core.Ingreso, 123400, core.Date{Year: 2024, Month: 1, Day: 9}}, // other year
	}
	for _, s := range seed {
		m := testMovement()
		m.Type = s.typ
		m.Amount = core.Money{Cents: s.cents}
		m.Date = s.date
		if _, err := svc.Create(ctx, m); err != nil {
			t.Fatalf("seed Create() error = %v", err)
		}
	}

	got, err := svc.Monthly(ctx, 2025)
	if err != nil {
		t.Fatalf("Monthly() error = %v", err)
	}

	if got[0] != 300000 {
		t.Errorf("January = %d, want 300000", got[0])
	}
	if got[6] != -80000 {
		t.Errorf("July = %d, want -80000", got[6])
	}
	for _, idx := range []int{1, 2, 3, 4, 5, 7, 8, 9, 10, 11} {
		if got[idx] != 0 {
			t.Errorf("month %d = %d, want 0", idx+1, got[idx])
		}
	}
}

func TestMovementService_Personal(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	seed := []struct {
		typ    core.MovementType
		cents  int64
		status core.Status
		user   string
	}{
		{core.Ingreso, 800000, core.StatusConfirmed, "ale"},
		{core.Gasto, 100000, core.StatusConfirmed, "ale"},
		{core.Emergencia, 20000, core.StatusConfirmed, "ale"},
		{core.Ahorro, 30000, core.StatusConfirmed, "ale"},
		{core.Gasto, 50000, core.StatusPending, "silvi"}, // excluded
	}
	for _, s := range seed {
		m := testMovement()
		m.Type = s.typ
		m.Amount = core.Money{Cents: s.cents}
		m.Status = s.status
		m.UserID = s.user
		if _, err := svc.Create(ctx, m); err != nil {
			t.Fatalf("seed Create() error = %v", err)
		}
	}

	got, err := svc.Personal(ctx)
	if err != nil {
		t.Fatalf("Personal() error = %v", err)
	}

	ale, ok := got["ale"]
	if !ok {
		t.Fatal("ale missing from personal summary")
	}
	if ale.Income.Cents != 800000 {
		t.Errorf("ale income = %d, want 800000", ale.Income.Cents)
	}
	if ale.Expenses.Cents != 150000 {
		t.Errorf("ale expenses = %d, emergencia and ahorro merge into expenses", ale.Expenses.Cents)
	}

	silvi, ok := got["silvi"]
	if !ok {
		t.Fatal("configured members appear even with no confirmed movements")
	}
	if silvi.Income.Cents != 0 || silvi.Expenses.Cents != 0 {
		t.Errorf("silvi totals = %+v, want zeroes", silvi)
	}
}
