package core

import (
	"testing"
	"time"
)

func validMovement() Movement {
	return Movement{
		Type:              Gasto,
		Amount:            Money{Cents: 120000},
		Category:          "Alimentación",
		Description:       "super",
		PaymentMethod:     "Efectivo",
		Date:              NewDate(2025, 1, 15),
		CreatedAt:         time.Now(),
		Status:            StatusConfirmed,
		UserID:            "ale",
		TotalInstallments: 1,
		InstallmentNumber: 1,
	}
}

func TestMovementValidate(t *testing.T) {
	if err := validMovement().Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	cases := []struct {
		name   string
		mutate func(*Movement)
	}{
		{"unknown type", func(m *Movement) { m.Type = "PRESTAMO" }},
		{"unknown status", func(m *Movement) { m.Status = "DRAFT" }},
		{"zero amount", func(m *Movement) { m.Amount.Cents = 0 }},
		{"negative amount", func(m *Movement) { m.Amount.Cents = -100 }},
		{"empty description", func(m *Movement) { m.Description = "   " }},
		{"empty category", func(m *Movement) { m.Category = "" }},
		{"zero date", func(m *Movement) { m.Date = Date{} }},
		{"empty user", func(m *Movement) { m.UserID = "" }},
		{"zero installments", func(m *Movement) { m.TotalInstallments = 0 }},
		{"installment number out of range", func(m *Movement) { m.InstallmentNumber = 4 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			m := validMovement()
			tc.mutate(&m)
			if err := m.Validate(); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}

func TestMoneyValidate(t *testing.T) {
	if err := (Money{Cents: 1}).Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if err := (Money{Cents: 0}).Validate(); err == nil {
		t.Fatalf("expected error for zero")
	}
}

func TestMemberDirectory(t *testing.T) {
	dir := NewMemberDirectory([]Member{
		{ID: "ale", Label: "ALE"},
		{ID: "silvi", Label: "SILVI"},
	})

	m, ok := dir.Lookup("silvi")
	if !ok || m.Label != "SILVI" {
		t.Fatalf("lookup silvi = %+v, %v", m, ok)
	}
	if _, ok := dir.Lookup("nobody"); ok {
		t.Fatalf("expected unknown member to miss")
	}
	if got := len(dir.All()); got != 2 {
		t.Fatalf("All() len = %d, want 2", got)
	}
}
