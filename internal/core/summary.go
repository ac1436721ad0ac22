package core

// SummaryRow is the narrow projection used for the overall summary.
type SummaryRow struct {
	Type   MovementType
	Amount Money
	Status Status
}

// Summary holds the confirmed totals for the whole ledger.
type Summary struct {
	Income    Money
	Expenses  Money
	Emergency Money
	Savings   Money
	Balance   Money
}

// Summarize buckets confirmed rows by movement type. The balance is
// income minus everything that leaves the account, savings included.
func Summarize(rows []SummaryRow) Summary {
	var s Summary
	for _, r := range rows {
		if r.Status != StatusConfirmed {
			continue
		}
		switch r.Type {
		case Ingreso:
			s.Income.Cents += r.Amount.Cents
		case Gasto:
			s.Expenses.Cents += r.Amount.Cents
		case Emergencia:
			s.Emergency.Cents += r.Amount.Cents
		case Ahorro:
			s.Savings.Cents += r.Amount.Cents
		}
	}
	s.Balance.Cents = s.Income.Cents - (s.Expenses.Cents + s.Emergency.Cents + s.Savings.Cents)
	return s
}

// MonthlyRow carries the literal date string so the year and month are
// read without a timezone-bearing parse.
type MonthlyRow struct {
	Type   MovementType
	Amount Money
	Date   string // YYYY-MM-DD
}

// MonthlyTotals returns net cents per month (index 0 = January) for the
// given year. Income adds, expenses subtract; emergency and savings
// movements do not participate. Status is not considered.
func MonthlyTotals(rows []MonthlyRow, year int) [12]int64 {
	var totals [12]int64
	for _, r := range rows {
		if YearOf(r.Date) != year {
			continue
		}
		month := MonthOf(r.Date)
		if month == 0 {
			continue
		}
		switch r.Type {
		case Ingreso:
			totals[month-1] += r.Amount.Cents
		case Gasto:
			totals[month-1] -= r.Amount.Cents
		}
	}
	return totals
}

// PersonalRow is the projection used for per-member totals.
type PersonalRow struct {
	Type   MovementType
	Amount Money
	Status Status
	UserID string
}

// PersonTotals accumulates one member's confirmed activity. Expenses,
// emergency-fund entries and savings all count as money spent.
type PersonTotals struct {
	Member   Member
	Income   Money
	Expenses Money
}

// PersonalTotals partitions confirmed rows by member. Rows whose user
// id is not in the directory are dropped.
func PersonalTotals(rows []PersonalRow, dir *MemberDirectory) map[string]PersonTotals {
	out := make(map[string]PersonTotals)
	for _, m := range dir.All() {
		out[m.ID] = PersonTotals{Member: m}
	}
	for _, r := range rows {
		if r.Status != StatusConfirmed {
			continue
		}
		totals, ok := out[r.UserID]
		if !ok {
			continue
		}
		switch r.Type {
		case Ingreso:
			totals.Income.Cents += r.Amount.Cents
		case Gasto, Emergencia, Ahorro:
			totals.Expenses.Cents += r.Amount.Cents
		}
		out[r.UserID] = totals
	}
	return out
}
