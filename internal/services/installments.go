package services

import (
	"fmt"

	"github.com/google/uuid"

	"hogar/internal/core"
)

// ExpandInstallments turns one requested movement into the records that
// get persisted. A single-installment movement passes through as-is.
//
// For N installments the full amount repeats on each record (card plans
// bill the quoted amount every month), dates advance one calendar month
// at a time with the day clamped to short months, and only the first
// installment starts out CONFIRMED. All records share a fresh group id.
func ExpandInstallments(m core.Movement) []core.Movement {
	if m.TotalInstallments <= 1 {
		m.TotalInstallments = 1
		m.InstallmentNumber = 1
		return []core.Movement{m}
	}

	groupID := uuid.NewString()
	out := make([]core.Movement, 0, m.TotalInstallments)
	for i := 1; i <= m.TotalInstallments; i++ {
		inst := m
		inst.GroupID = groupID
		inst.InstallmentNumber = i
		inst.Date = m.Date.AddMonths(i - 1)
		inst.Description = fmt.Sprintf("%s (%d/%d)", m.Description, i, m.TotalInstallments)
		if i == 1 {
			inst.Status = core.StatusConfirmed
		} else {
			inst.Status = core.StatusPending
		}
		out = append(out, inst)
	}
	return out
}
