package core

import (
	"fmt"
	"time"
)

// Period is a calendar month of a given year.
type Period struct {
	Year  int
	Month time.Month
}

type PeriodSummary struct {
	Period  Period `json:"-"`
	Income  Money  `json:"income"`
	Expense Money  `json:"expense"`
	Balance Money  `json:"balance"`
}

// CategoryTotal accumulates income and expense for one ledger category.
type CategoryTotal struct {
	Name    string `json:"name"`
	Income  Money  `json:"income"`
	Expense Money  `json:"expense"`
}

type ChartPoint struct {
	Name  string `json:"name"`
	Value Money  `json:"value"`
	Color string `json:"fill"`
}

func (p Period) Validate() error {
	if p.Month < time.January || p.Month > time.December {
		return fmt.Errorf("invalid month: %d", p.Month)
	}
	return nil
}

func (p Period) Contains(d Date) bool {
	return !d.IsZero() && d.Year() == p.Year && d.Month() == p.Month
}

func (p Period) String() string {
	return fmt.Sprintf("%04d-%02d", p.Year, int(p.Month))
}

// TotalBalance sums income minus expense over every transaction.
func TotalBalance(txs []Transaction) Money {
	var total Money
	for _, t := range txs {
		total = total.Add(t.Signed())
	}
	return total
}

// InPeriod returns the transactions dated within p, preserving order.
func InPeriod(txs []Transaction, p Period) []Transaction {
	out := make([]Transaction, 0, len(txs))
	for _, t := range txs {
		if p.Contains(t.Date) {
			out = append(out, t)
		}
	}
	return out
}

func Summarize(txs []Transaction, p Period) PeriodSummary {
	s := PeriodSummary{Period: p}
	for _, t := range txs {
		if !p.Contains(t.Date) {
			continue
		}
		switch t.Type {
		case Income:
			s.Income = s.Income.Add(t.Amount)
		case Expense:
			s.Expense = s.Expense.Add(t.Amount)
		}
	}
	s.Balance = s.Income.Sub(s.Expense)
	return s
}

// CategoryTotals groups the period's transactions by category in order of
// first appearance.
func CategoryTotals(txs []Transaction, p Period) []CategoryTotal {
	index := map[string]int{}
	var out []CategoryTotal
	for _, t := range txs {
		if !p.Contains(t.Date) {
			continue
		}
		i, ok := index[t.Category]
		if !ok {
			i = len(out)
			index[t.Category] = i
			out = append(out, CategoryTotal{Name: t.Category})
		}
		switch t.Type {
		case Income:
			out[i].Income = out[i].Income.Add(t.Amount)
		case Expense:
			out[i].Expense = out[i].Expense.Add(t.Amount)
		}
	}
	return out
}

// CashFlowChart turns a period summary into the two-bar income/expense chart.
func CashFlowChart(s PeriodSummary) []ChartPoint {
	return []ChartPoint{
		{Name: "Entradas", Value: s.Income, Color: ColorIncome},
		{Name: "Saídas", Value: s.Expense, Color: ColorExpense},
	}
}

// FilterByType keeps transactions of the given type; "All" or an empty
// type keeps everything.
func FilterByType(txs []Transaction, t TransactionType) []Transaction {
	if t == "" || t == "All" {
		return append([]Transaction(nil), txs...)
	}
	out := make([]Transaction, 0, len(txs))
	for _, tx := range txs {
		if tx.Type == t {
			out = append(out, tx)
		}
	}
	return out
}
